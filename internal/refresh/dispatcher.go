package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/notify"
)

// Dispatcher turns a saved reconciliation result into notifications
type Dispatcher struct {
	publisher notify.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewDispatcher creates a dispatcher. A nil publisher discards events.
func NewDispatcher(publisher notify.Publisher, logger *slog.Logger) *Dispatcher {
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	return &Dispatcher{
		publisher: publisher,
		logger:    logging.NewComponentLogger(logger, "refresh-dispatcher"),
		now:       time.Now,
	}
}

// Dispatch publishes one event per updated translation. Call it only after
// the record was saved.
func (d *Dispatcher) Dispatch(ctx context.Context, result *Result) {
	if result == nil || len(result.Updated) == 0 {
		return
	}
	correlationID, _ := logging.CorrelationID(ctx)
	logger := logging.WithContext(ctx, d.logger)

	for _, t := range result.Updated {
		event := notify.Event{
			Type:          notify.EventSpontaneouslyUpdated,
			RecordID:      result.RecordID,
			Language:      t.Language,
			JobKind:       string(result.Kind),
			CorrelationID: correlationID,
			OccurredAt:    d.now().UTC(),
		}
		if err := d.publisher.Publish(ctx, event); err != nil {
			logger.Warn("notification not delivered",
				logging.String(logging.FieldRecordID, event.RecordID),
				logging.String(logging.FieldLanguage, event.Language),
				logging.Error(err),
			)
		}
	}
}
