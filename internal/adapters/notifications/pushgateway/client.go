package pushgateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"care-facility-meds/internal/domain/reminders"
	"care-facility-meds/internal/platform/httpclient"
)

// Facility delega los triggers en un gateway HTTP de push para dispositivos.
//
// POST /v1/triggers         -> {"id": "..."}
// POST /v1/triggers/cancel  {"ids": [...]}
type Facility struct {
	http *httpclient.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func New(cfg Config) (*Facility, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("push gateway base url is required")
	}
	c, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	c.WithHeader("X-API-Key", strings.TrimSpace(cfg.APIKey))
	return &Facility{http: c}, nil
}

// NewWithClient permite inyectar el cliente (tests).
func NewWithClient(c *httpclient.Client) *Facility {
	return &Facility{http: c}
}

type triggerRequest struct {
	Type          string            `json:"type"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	Data          map[string]string `json:"data,omitempty"`
	FireAt        *time.Time        `json:"fire_at,omitempty"`
	FirstFireAt   *time.Time        `json:"first_fire_at,omitempty"`
	PeriodSeconds int64             `json:"period_seconds,omitempty"`
}

type triggerResponse struct {
	ID string `json:"id"`
}

type cancelRequest struct {
	IDs []string `json:"ids"`
}

func (f *Facility) RegisterOneShot(ctx context.Context, n reminders.Notification, fireAt time.Time) (string, error) {
	at := fireAt.UTC()
	return f.trigger(ctx, triggerRequest{
		Type:   "one_shot",
		Title:  n.Title,
		Body:   n.Body,
		Data:   n.Data,
		FireAt: &at,
	})
}

func (f *Facility) RegisterRepeating(ctx context.Context, n reminders.Notification, first time.Time, period time.Duration) (string, error) {
	at := first.UTC()
	return f.trigger(ctx, triggerRequest{
		Type:          "repeating",
		Title:         n.Title,
		Body:          n.Body,
		Data:          n.Data,
		FirstFireAt:   &at,
		PeriodSeconds: int64(period / time.Second),
	})
}

func (f *Facility) Cancel(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := f.http.PostJSON(ctx, "/v1/triggers/cancel", cancelRequest{IDs: ids}, nil); err != nil {
		return fmt.Errorf("push gateway cancel: %w", err)
	}
	return nil
}

func (f *Facility) trigger(ctx context.Context, req triggerRequest) (string, error) {
	var out triggerResponse
	if err := f.http.PostJSON(ctx, "/v1/triggers", req, &out); err != nil {
		return "", fmt.Errorf("push gateway trigger: %w", err)
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", errors.New("push gateway trigger: empty id in response")
	}
	return out.ID, nil
}
