// Package worker drives reconciliation in the background: periodic sweeps
// over outstanding jobs and announcement files dropped by job producers.
package worker

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
	"github.com/Taichi-iskw/audiorefresh/internal/refresh"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Processor reconciles one record for one job kind
type Processor interface {
	Process(ctx context.Context, recordID string, kind model.JobKind) (*refresh.Result, error)
}

// Lister pages through records with outstanding jobs in id order, starting
// after the given id
type Lister interface {
	ListOutstanding(ctx context.Context, kind model.JobKind, after string, limit int) ([]string, error)
}

// SweepConfig bounds one sweep
type SweepConfig struct {
	Workers     int
	BatchSize   int
	MaxAttempts int
	UnitTimeout time.Duration
}

// SweepReport summarises one sweep
type SweepReport struct {
	RunID     string
	Kind      model.JobKind
	Listed    int
	Succeeded int
	Failed    int
	Retried   int
	Skipped   int
	Updated   int
}

// Sweeper processes every record with an outstanding job of a kind
type Sweeper struct {
	lister    Lister
	processor Processor
	cfg       SweepConfig
	logger    *slog.Logger
}

// NewSweeper creates a sweeper, filling unset limits with defaults
func NewSweeper(lister Lister, processor Processor, cfg SweepConfig, logger *slog.Logger) *Sweeper {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.UnitTimeout <= 0 {
		cfg.UnitTimeout = 2 * time.Minute
	}
	return &Sweeper{
		lister:    lister,
		processor: processor,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "sweeper"),
	}
}

// Sweep pages through every record with an outstanding job of kind,
// BatchSize ids at a time, and processes each as an independent unit.
// Transient failures are retried in later rounds up to MaxAttempts; other
// failures are logged and dropped. Cancelling ctx stops new units from
// starting; units already running finish.
func (s *Sweeper) Sweep(ctx context.Context, kind model.JobKind) (*SweepReport, error) {
	report := &SweepReport{RunID: uuid.NewString(), Kind: kind}
	logger := s.logger.With(
		logging.String("run_id", report.RunID),
		logging.String(logging.FieldJobKind, string(kind)),
	)
	logger.Info("sweep started")

	after := ""
	for ctx.Err() == nil {
		ids, err := s.lister.ListOutstanding(ctx, kind, after, s.cfg.BatchSize)
		if err != nil {
			return report, err
		}
		if len(ids) == 0 {
			break
		}
		after = slices.Max(ids)

		if err := s.sweepPage(ctx, kind, dedupe(ids), report, logger); err != nil {
			return report, err
		}
		if len(ids) < s.cfg.BatchSize {
			break
		}
	}
	report.Skipped = report.Listed - report.Succeeded - report.Failed

	logger.Info("sweep finished",
		logging.Int("listed", report.Listed),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Int("retried", report.Retried),
		logging.Int("skipped", report.Skipped),
		logging.Int("updated", report.Updated),
	)
	return report, ctx.Err()
}

// sweepPage runs the retry rounds for one page of ids and folds the outcome
// into report
func (s *Sweeper) sweepPage(ctx context.Context, kind model.JobKind, pending []string, report *SweepReport, logger *slog.Logger) error {
	report.Listed += len(pending)
	logger.Debug("sweeping page", logging.Int("records", len(pending)))

	var mu sync.Mutex
	for attempt := 1; attempt <= s.cfg.MaxAttempts && len(pending) > 0; attempt++ {
		if ctx.Err() != nil {
			break
		}
		var retry []string
		err := s.round(ctx, kind, pending, func(id string, result *refresh.Result, err error) {
			mu.Lock()
			defer mu.Unlock()
			attrs := []any{
				logging.String(logging.FieldRecordID, id),
				logging.Int(logging.FieldAttempt, attempt),
			}
			switch {
			case err == nil:
				report.Succeeded++
				if result != nil {
					report.Updated += len(result.Updated)
				}
			case apperrors.IsTransient(err) && attempt < s.cfg.MaxAttempts:
				retry = append(retry, id)
				report.Retried++
				logger.Debug("unit will be retried", append(attrs, logging.Error(err))...)
			default:
				report.Failed++
				logger.Warn("unit failed", append(attrs, logging.Error(err))...)
			}
		})
		if err != nil {
			return err
		}
		pending = retry
	}
	return nil
}

// round processes ids with a bounded pool. Each id appears once, so no two
// units for the same record run together.
func (s *Sweeper) round(ctx context.Context, kind model.JobKind, ids []string, done func(id string, result *refresh.Result, err error)) error {
	queue := make(chan string)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for _, id := range ids {
			select {
			case queue <- id:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	workers := min(s.cfg.Workers, len(ids))
	for range workers {
		g.Go(func() error {
			for id := range queue {
				if ctx.Err() != nil {
					continue
				}
				result, err := s.runUnit(ctx, kind, id)
				done(id, result, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// runUnit detaches from ctx so cancellation never interrupts a unit midway
func (s *Sweeper) runUnit(ctx context.Context, kind model.JobKind, id string) (*refresh.Result, error) {
	unitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.UnitTimeout)
	defer cancel()
	return s.processor.Process(unitCtx, id, kind)
}

// Run sweeps every kind immediately and then once per interval until ctx is done
func (s *Sweeper) Run(ctx context.Context, interval time.Duration, kinds ...model.JobKind) error {
	if len(kinds) == 0 {
		kinds = model.JobKinds
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, kind := range kinds {
			if ctx.Err() != nil {
				return nil
			}
			if _, err := s.Sweep(ctx, kind); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", logging.String(logging.FieldJobKind, string(kind)), logging.Error(err))
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
