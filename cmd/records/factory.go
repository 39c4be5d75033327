package records

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Taichi-iskw/audiorefresh/internal/config"
	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/notify"
	"github.com/Taichi-iskw/audiorefresh/internal/refresh"
	recordRepo "github.com/Taichi-iskw/audiorefresh/internal/repository/record"
	transcriptRepo "github.com/Taichi-iskw/audiorefresh/internal/repository/transcript"
	"github.com/Taichi-iskw/audiorefresh/internal/service/jobstatus"
	"github.com/Taichi-iskw/audiorefresh/internal/service/transcript"
	"github.com/Taichi-iskw/audiorefresh/internal/worker"
)

// Services bundles everything the record commands and the daemon run on
type Services struct {
	Config      *config.Config
	Logger      *slog.Logger
	Records     recordRepo.Repository
	Transcripts transcriptRepo.Repository
	Processor   *refresh.Processor
	Loader      *refresh.Loader
	Sweeper     *worker.Sweeper
	Hub         *notify.Hub
}

// ServiceFactory creates service instances from the configuration file
type ServiceFactory struct{}

// NewServiceFactory creates a new service factory
func NewServiceFactory() *ServiceFactory {
	return &ServiceFactory{}
}

// CreateServices loads and validates configuration, connects to the database
// and wires the reconciliation stack. The returned cleanup closes the pool.
func (f *ServiceFactory) CreateServices(ctx context.Context) (*Services, func(), error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}

	dbPool, err := config.NewDatabasePool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	records := recordRepo.NewRepository(dbPool)
	transcripts := transcriptRepo.NewRepository(dbPool)

	engine := refresh.NewEngine(refresh.EngineDeps{
		Cleaning:      jobstatus.NewHTTPClient(jobStatusConfig(cfg.Cleaning), logger),
		Transcription: jobstatus.NewHTTPClient(jobStatusConfig(cfg.Transcription), logger),
		Fetcher:       fetcher,
		Transcripts:   transcripts,
		Logger:        logger,
	})
	coordinator := refresh.NewCoordinator(engine, logger)
	guard := refresh.NewGuard()

	hub := notify.NewHub(logger)
	publisher := notify.NewMultiPublisher(
		notify.NewLogPublisher(logger),
		notify.NewWebhookPublisher(cfg.Notifications.WebhookURL, cfg.Notifications.Timeout()),
		hub,
	)
	processor := refresh.NewProcessor(records, coordinator, guard, refresh.NewDispatcher(publisher, logger), logger)

	services := &Services{
		Config:      cfg,
		Logger:      logger,
		Records:     records,
		Transcripts: transcripts,
		Processor:   processor,
		Loader:      refresh.NewLoader(records, coordinator, guard, logger),
		Sweeper: worker.NewSweeper(records, processor, worker.SweepConfig{
			Workers:     cfg.Sweep.Workers,
			BatchSize:   cfg.Sweep.BatchSize,
			MaxAttempts: cfg.Sweep.MaxAttempts,
			UnitTimeout: cfg.Sweep.UnitTimeout(),
		}, logger),
		Hub: hub,
	}

	cleanup := func() {
		hub.Close()
		config.CloseDatabasePool(dbPool)
	}
	return services, cleanup, nil
}

func jobStatusConfig(s config.ServiceConfig) jobstatus.Config {
	return jobstatus.Config{
		BaseURL: s.BaseURL,
		Token:   s.Token,
		Timeout: s.Timeout(),
		Retries: s.Retries,
	}
}

func newFetcher(cfg *config.Config) (transcript.Fetcher, error) {
	switch cfg.Transcripts.Source {
	case config.TranscriptSourceCommand:
		return transcript.NewCommandFetcher(cfg.Transcripts.Command)
	default:
		return transcript.NewHTTPFetcher(transcript.HTTPConfig{
			BaseURL: cfg.Transcripts.BaseURL,
			Token:   cfg.Transcripts.Token,
			Timeout: cfg.Transcripts.Timeout(),
		}), nil
	}
}
