package refresh

import (
	"context"
	"log/slog"

	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
)

// Loader serves record reads and opportunistically finishes outstanding jobs
// on the way. It never notifies: the reader sees the change directly.
type Loader struct {
	records     RecordStore
	coordinator *Coordinator
	guard       *Guard
	logger      *slog.Logger
}

// NewLoader wires a loader
func NewLoader(records RecordStore, coordinator *Coordinator, guard *Guard, logger *slog.Logger) *Loader {
	return &Loader{
		records:     records,
		coordinator: coordinator,
		guard:       guard,
		logger:      logging.NewComponentLogger(logger, "refresh-loader"),
	}
}

// Load returns the record. Refresh failures are logged and the record is
// returned in whatever state was reached. The record is read after the guard
// is taken so a pass that finished in between is never reapplied from a
// stale copy.
func (l *Loader) Load(ctx context.Context, id string) (*model.Record, error) {
	release, ok := l.guard.TryAcquire(id)
	if !ok {
		return l.records.Load(ctx, id)
	}
	defer release()

	record, err := l.records.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithCorrelationID(ctx)
	logger := logging.WithContext(ctx, l.logger).With(logging.String(logging.FieldRecordID, id))

	requiresSave := false
	for _, kind := range model.JobKinds {
		result, err := l.coordinator.Reconcile(ctx, record, kind, ModeOutstanding)
		if result.RequiresSave {
			requiresSave = true
		}
		if err != nil {
			logger.Warn("read-time refresh incomplete",
				logging.String(logging.FieldJobKind, string(kind)),
				logging.Error(err),
			)
		}
	}

	if requiresSave {
		if err := l.records.Save(ctx, record); err != nil {
			logger.Warn("read-time refresh not saved", logging.Error(err))
		}
	}
	return record, nil
}
