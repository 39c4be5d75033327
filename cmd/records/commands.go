package records

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
	"github.com/Taichi-iskw/audiorefresh/internal/refresh"
	"github.com/Taichi-iskw/audiorefresh/internal/worker"
	"github.com/spf13/cobra"
)

// setupTimeout bounds configuration loading and the database connection
const setupTimeout = 30 * time.Second

// RecordProcessor reconciles one record for one job kind
type RecordProcessor interface {
	Process(ctx context.Context, recordID string, kind model.JobKind) (*refresh.Result, error)
}

// RecordSweeper sweeps outstanding jobs of one kind
type RecordSweeper interface {
	Sweep(ctx context.Context, kind model.JobKind) (*worker.SweepReport, error)
}

// RecordReader loads records, refreshing them on the way
type RecordReader interface {
	Load(ctx context.Context, id string) (*model.Record, error)
}

// TranscriptReader loads stored transcript documents
type TranscriptReader interface {
	Get(ctx context.Context, key string) (*model.TranscriptDocument, error)
}

// NewRecordCommand creates the record command group
func NewRecordCommand(reader RecordReader, transcripts TranscriptReader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Inspect records",
		Long:  `Show records with their translations. Reading a record also applies finished jobs.`,
	}
	cmd.AddCommand(NewShowCommand(reader, transcripts))
	return cmd
}

// kindsFromFlag returns the kinds selected by --kind, or every kind when empty
func kindsFromFlag(cmd *cobra.Command) ([]model.JobKind, error) {
	value, _ := cmd.Flags().GetString("kind")
	if value == "" {
		return model.JobKinds, nil
	}
	kind, err := model.ParseJobKind(value)
	if err != nil {
		return nil, err
	}
	return []model.JobKind{kind}, nil
}

// withServices runs fn against injected services or, when none were
// injected, against services built from the configuration file
func withServices(cmd *cobra.Command, injected bool, fn func(s *Services) error) error {
	if injected {
		return fn(nil)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), setupTimeout)
	defer cancel()

	services, cleanup, err := NewServiceFactory().CreateServices(ctx)
	if err != nil {
		return fmt.Errorf("failed to create services: %w", err)
	}
	defer cleanup()
	return fn(services)
}

// acquireInstanceLock takes the per-host sweep lock. The returned release
// logs an unlock failure instead of dropping it.
func acquireInstanceLock(path string, logger *slog.Logger) (*worker.InstanceLock, func(), error) {
	lock, err := worker.AcquireInstanceLock(path)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release lock",
				logging.String("lock", lock.Path()),
				logging.Error(err),
			)
		}
	}
	return lock, release, nil
}
