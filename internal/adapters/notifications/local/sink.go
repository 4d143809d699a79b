package local

import (
	"context"

	"care-facility-meds/internal/domain/reminders"
	"care-facility-meds/internal/platform/logger"
)

// Sink entrega una notificación ya disparada (log, Telegram...).
type Sink interface {
	Deliver(ctx context.Context, n reminders.Notification) error
}

// LogSink escribe la notificación en el log.
type LogSink struct {
	Log logger.Logger
}

func (s LogSink) Deliver(ctx context.Context, n reminders.Notification) error {
	log := s.Log
	if log == nil {
		log = logger.Nop()
	}
	fields := map[string]any{"title": n.Title, "body": n.Body}
	for k, v := range n.Data {
		fields["data."+k] = v
	}
	log.Info("reminder", fields)
	return nil
}

// SinkFunc adapta una función a Sink.
type SinkFunc func(ctx context.Context, n reminders.Notification) error

func (f SinkFunc) Deliver(ctx context.Context, n reminders.Notification) error { return f(ctx, n) }
