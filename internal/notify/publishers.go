package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Taichi-iskw/audiorefresh/internal/logging"
)

// NoopPublisher discards every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// LogPublisher writes each event as a structured log line
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher logging through logger
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logging.NewComponentLogger(logger, "notify")}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	logging.WithContext(ctx, p.logger).Info("translation updated",
		logging.String(logging.FieldEventType, string(event.Type)),
		logging.String(logging.FieldRecordID, event.RecordID),
		logging.String(logging.FieldLanguage, event.Language),
		logging.String(logging.FieldJobKind, event.JobKind),
	)
	return nil
}

// MultiPublisher fans an event out to every publisher, in order
type MultiPublisher struct {
	publishers []Publisher
}

// NewMultiPublisher combines publishers, skipping nil entries
func NewMultiPublisher(publishers ...Publisher) *MultiPublisher {
	m := &MultiPublisher{}
	for _, p := range publishers {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

// Publish delivers to all publishers even when some fail
func (m *MultiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
