package refresh

import (
	"context"
	"log/slog"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
)

// Processor is the batch entry point used by sweeps, announcements and the CLI
type Processor struct {
	records     RecordStore
	coordinator *Coordinator
	guard       *Guard
	dispatcher  *Dispatcher
	logger      *slog.Logger
}

// NewProcessor wires a processor
func NewProcessor(records RecordStore, coordinator *Coordinator, guard *Guard, dispatcher *Dispatcher, logger *slog.Logger) *Processor {
	return &Processor{
		records:     records,
		coordinator: coordinator,
		guard:       guard,
		dispatcher:  dispatcher,
		logger:      logging.NewComponentLogger(logger, "refresh-processor"),
	}
}

// Process reconciles one record for kind under the guard, saves it when
// anything changed and notifies once the save succeeded. Whatever the pass
// applied before an error is still saved.
func (p *Processor) Process(ctx context.Context, recordID string, kind model.JobKind) (*Result, error) {
	ctx = logging.WithCorrelationID(ctx)
	logger := logging.WithContext(ctx, p.logger).With(
		logging.String(logging.FieldRecordID, recordID),
		logging.String(logging.FieldJobKind, string(kind)),
	)

	release, err := p.guard.Acquire(ctx, recordID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransient, "gave up waiting for record "+recordID)
	}
	defer release()

	record, err := p.records.Load(ctx, recordID)
	if err != nil {
		return nil, err
	}

	result, reconcileErr := p.coordinator.Reconcile(ctx, record, kind, ModeJobKind)
	if result.RequiresSave {
		if err := p.records.Save(ctx, record); err != nil {
			logger.Error("save after reconciliation failed", logging.Error(err))
			return result, err
		}
		p.dispatcher.Dispatch(ctx, result)
	}

	if reconcileErr != nil {
		return result, reconcileErr
	}
	logger.Debug("record processed",
		logging.Bool("saved", result.RequiresSave),
		logging.Int("updated", len(result.Updated)),
	)
	return result, nil
}
