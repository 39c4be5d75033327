// Package refresh reconciles translations with the remote jobs that produce
// their derived artifacts.
//
// The Engine refreshes one translation for one job kind. The Coordinator runs
// the Engine over a record. The Processor and Loader are the entry points
// that wrap a coordinator pass with the guard, persistence and notification.
package refresh

import (
	"context"
	"log/slog"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
	"github.com/Taichi-iskw/audiorefresh/internal/segmenter"
	"github.com/Taichi-iskw/audiorefresh/internal/service/jobstatus"
	"github.com/Taichi-iskw/audiorefresh/internal/service/transcript"
	"golang.org/x/text/language"
)

// RecordStore loads and saves whole records
type RecordStore interface {
	Load(ctx context.Context, id string) (*model.Record, error)
	Save(ctx context.Context, record *model.Record) error
}

// TranscriptStore persists rendered transcripts and returns their key
type TranscriptStore interface {
	Store(ctx context.Context, content string) (string, error)
}

// Engine applies finished job results to a single translation
type Engine interface {
	Refresh(ctx context.Context, t *model.Translation, kind model.JobKind) (model.RefreshOutcome, error)
}

// EngineDeps wires the collaborators an engine talks to
type EngineDeps struct {
	Cleaning      jobstatus.Client
	Transcription jobstatus.Client
	Fetcher       transcript.Fetcher
	Transcripts   TranscriptStore
	Segmenter     segmenter.Options
	Logger        *slog.Logger
}

type engine struct {
	status      map[model.JobKind]jobstatus.Client
	fetcher     transcript.Fetcher
	transcripts TranscriptStore
	segOpts     segmenter.Options
	logger      *slog.Logger
}

// NewEngine creates an engine from deps
func NewEngine(deps EngineDeps) Engine {
	return &engine{
		status: map[model.JobKind]jobstatus.Client{
			model.JobKindCleaning:      deps.Cleaning,
			model.JobKindTranscription: deps.Transcription,
		},
		fetcher:     deps.Fetcher,
		transcripts: deps.Transcripts,
		segOpts:     deps.Segmenter,
		logger:      logging.NewComponentLogger(deps.Logger, "refresh-engine"),
	}
}

func (e *engine) Refresh(ctx context.Context, t *model.Translation, kind model.JobKind) (model.RefreshOutcome, error) {
	jobID := t.JobID(kind)
	if jobID == "" || t.HasResult(kind) {
		return model.RefreshOutcome{}, nil
	}

	logger := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldRecordID, t.RecordID),
		logging.String(logging.FieldLanguage, t.Language),
		logging.String(logging.FieldJobKind, string(kind)),
		logging.String(logging.FieldJobID, jobID),
	)

	// Without source audio the job can never produce a usable result
	if !t.HasSource(kind) {
		return e.fail(logger, t, kind, "source audio missing", nil), nil
	}
	if err := t.Validate(); err != nil {
		return model.RefreshOutcome{}, apperrors.Wrap(err, apperrors.CodeInvariant, "translation violates audio invariants before refresh")
	}

	client := e.status[kind]
	if client == nil {
		return model.RefreshOutcome{}, apperrors.New(apperrors.CodeConfig, "no job status client for "+string(kind))
	}

	status, err := client.QueryStatus(ctx, jobID)
	if err != nil {
		if apperrors.IsTerminal(err) {
			return e.fail(logger, t, kind, "job status rejected", err), nil
		}
		return model.RefreshOutcome{}, err
	}
	if status.Failed() {
		return e.fail(logger, t, kind, "job failed remotely: "+status.Reason, nil), nil
	}
	if !status.Finished() {
		logger.Debug("job not finished", logging.String("state", string(status.State)))
		return model.RefreshOutcome{}, nil
	}

	switch kind {
	case model.JobKindCleaning:
		return e.applyCleaning(logger, t, status)
	case model.JobKindTranscription:
		return e.applyTranscription(ctx, logger, t, status)
	default:
		return model.RefreshOutcome{}, apperrors.New(apperrors.CodeInvalidArg, "unknown job kind "+string(kind))
	}
}

func (e *engine) applyCleaning(logger *slog.Logger, t *model.Translation, status *jobstatus.Status) (model.RefreshOutcome, error) {
	if status.ResultRef == "" {
		return e.fail(logger, t, model.JobKindCleaning, "finished without a result reference", nil), nil
	}
	if status.Duration == nil || *status.Duration <= 0 {
		return e.fail(logger, t, model.JobKindCleaning, "finished without a usable duration", nil), nil
	}

	t.ApplyCleaningResult(status.ResultRef, *status.Duration)
	logger.Info("cleaned audio applied", logging.Float64("duration", *status.Duration))
	return model.RefreshOutcome{Mutated: true, ResultApplied: true}, nil
}

func (e *engine) applyTranscription(ctx context.Context, logger *slog.Logger, t *model.Translation, status *jobstatus.Status) (model.RefreshOutcome, error) {
	kind := model.JobKindTranscription
	if status.ResultRef == "" {
		return e.fail(logger, t, kind, "finished without a transcript key", nil), nil
	}
	if e.fetcher == nil || e.transcripts == nil {
		return model.RefreshOutcome{}, apperrors.New(apperrors.CodeConfig, "transcript fetcher or store not configured")
	}

	raw, err := e.fetcher.Fetch(ctx, status.ResultRef)
	if err != nil {
		if apperrors.IsTerminal(err) {
			return e.fail(logger, t, kind, "transcript unavailable", err), nil
		}
		return model.RefreshOutcome{}, err
	}

	segments, err := transcript.Decode(raw)
	if err != nil {
		if apperrors.IsTerminal(err) {
			return e.fail(logger, t, kind, "transcript malformed", err), nil
		}
		return model.RefreshOutcome{}, err
	}

	opts := e.segOpts
	if tag, err := language.Parse(t.Language); err == nil {
		opts.Language = tag
	}
	paragraphs := segmenter.New(opts).Segment(segments)

	key, err := e.transcripts.Store(ctx, segmenter.Render(paragraphs))
	if err != nil {
		return model.RefreshOutcome{}, err
	}

	t.ApplyTranscriptionResult(key)
	logger.Info("transcript applied",
		logging.String("sub_key", key),
		logging.Int("paragraphs", len(paragraphs)),
	)
	return model.RefreshOutcome{Mutated: true, ResultApplied: true}, nil
}

// fail clears the job handle so the translation is no longer outstanding
func (e *engine) fail(logger *slog.Logger, t *model.Translation, kind model.JobKind, reason string, cause error) model.RefreshOutcome {
	t.ClearJob(kind)
	attrs := []any{logging.String("reason", reason)}
	if cause != nil {
		attrs = append(attrs, logging.Error(cause))
	}
	logger.Warn("job result discarded", attrs...)
	return model.RefreshOutcome{Mutated: true}
}
