package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"care-facility-meds/internal/domain/reminders"
)

func TestFormat(t *testing.T) {
	got := format(reminders.Notification{Title: "Tomar: A&B", Body: "Paciente: <Ana>"})
	want := "<b>Tomar: A&amp;B</b>\nPaciente: &lt;Ana&gt;"
	if got != want {
		t.Fatalf("format = %q, want %q", got, want)
	}
}

func TestSink_Deliver(t *testing.T) {
	var (
		mu   sync.Mutex
		sent map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"meds","username":"meds_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			_ = json.NewDecoder(r.Body).Decode(&sent)
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"group"}}}`))
		default:
			_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
		}
	}))
	defer srv.Close()

	s, err := New(Config{Token: "test-token", ChatID: 42, APIURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Deliver(context.Background(), reminders.Notification{Title: "Tomar: Ibuprofeno", Body: "Paciente: Ana"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if sent["parse_mode"] != "HTML" {
		t.Fatalf("expected HTML parse mode, got %v", sent["parse_mode"])
	}
	if !strings.Contains(sent["text"].(string), "Tomar: Ibuprofeno") {
		t.Fatalf("unexpected text %v", sent["text"])
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{ChatID: 1}); err == nil {
		t.Fatalf("expected error without token")
	}
	if _, err := New(Config{Token: "x"}); err == nil {
		t.Fatalf("expected error without chat id")
	}
}
