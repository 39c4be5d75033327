package refresh

import (
	"context"
	"log/slog"

	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
)

// Mode selects which translations a reconciliation pass visits
type Mode int

const (
	// ModeJobKind visits every translation holding a job id for the kind
	ModeJobKind Mode = iota
	// ModeOutstanding also requires the result to be missing and the source audio present
	ModeOutstanding
)

func (m Mode) String() string {
	switch m {
	case ModeJobKind:
		return "job_kind"
	case ModeOutstanding:
		return "outstanding"
	default:
		return "unknown"
	}
}

// Result summarises one reconciliation pass over a record
type Result struct {
	RecordID     string
	Kind         model.JobKind
	RequiresSave bool
	Updated      []*model.Translation
}

// Coordinator runs the engine over every eligible translation of a record
type Coordinator struct {
	engine Engine
	logger *slog.Logger
}

// NewCoordinator creates a coordinator around engine
func NewCoordinator(engine Engine, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		engine: engine,
		logger: logging.NewComponentLogger(logger, "refresh-coordinator"),
	}
}

// Reconcile refreshes the record's translations for kind. On error the pass
// stops and the partial result is returned alongside it.
func (c *Coordinator) Reconcile(ctx context.Context, record *model.Record, kind model.JobKind, mode Mode) (*Result, error) {
	result := &Result{RecordID: record.ID, Kind: kind}

	for _, t := range record.Translations {
		if !eligible(t, kind, mode) {
			continue
		}
		outcome, err := c.engine.Refresh(ctx, t, kind)
		if err != nil {
			logging.WithContext(ctx, c.logger).Warn("reconciliation stopped",
				logging.String(logging.FieldRecordID, record.ID),
				logging.String(logging.FieldLanguage, t.Language),
				logging.String(logging.FieldJobKind, string(kind)),
				logging.Error(err),
			)
			return result, err
		}
		if outcome.Mutated {
			result.RequiresSave = true
		}
		if outcome.ResultApplied {
			result.Updated = append(result.Updated, t)
		}
	}

	return result, nil
}

func eligible(t *model.Translation, kind model.JobKind, mode Mode) bool {
	if t.JobID(kind) == "" {
		return false
	}
	if mode == ModeOutstanding {
		return !t.HasResult(kind) && t.HasSource(kind)
	}
	return true
}
