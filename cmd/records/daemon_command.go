package records

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/worker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// NewDaemonCommand creates the daemon command
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run periodic sweeps and the announcement watcher",
		Long: `Run sweeps for every job kind on an interval, process announcement files
as they arrive and serve spontaneous update events over websocket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withServices(cmd, false, func(s *Services) error {
				return runDaemon(ctx, s)
			})
		},
	}
	return cmd
}

func runDaemon(ctx context.Context, s *Services) error {
	logger := logging.NewComponentLogger(s.Logger, "daemon")

	lock, release, err := acquireInstanceLock(s.Config.Sweep.LockPath, logger)
	if err != nil {
		return err
	}
	defer release()
	logger.Info("daemon started", logging.String("lock", lock.Path()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.Sweeper.Run(gctx, s.Config.Sweep.Interval())
	})

	if dir := s.Config.Announcements.Dir; dir != "" {
		watcher := worker.NewAnnouncementWatcher(dir, s.Processor, s.Config.Sweep.UnitTimeout(), s.Logger)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	if addr := s.Config.Notifications.WebsocketAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", s.Hub)
		server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("serving websocket subscribers", logging.String("addr", addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("websocket server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			s.Hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("daemon stopped")
	return err
}
