package records

import (
	"fmt"

	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/Taichi-iskw/audiorefresh/internal/worker"
	"github.com/spf13/cobra"
)

// NewSweepCommand creates the sweep command
func NewSweepCommand(sweeper RecordSweeper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile every record with outstanding jobs",
		Long: `Run one sweep per job kind over records whose jobs have not been applied
yet. Only one sweep or daemon may run per host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := kindsFromFlag(cmd)
			if err != nil {
				return err
			}

			return withServices(cmd, sweeper != nil, func(s *Services) error {
				sw := sweeper
				if s != nil {
					_, release, err := acquireInstanceLock(s.Config.Sweep.LockPath, logging.NewComponentLogger(s.Logger, "sweep"))
					if err != nil {
						return err
					}
					defer release()
					sw = s.Sweeper
				}

				reports := make([]*worker.SweepReport, 0, len(kinds))
				for _, kind := range kinds {
					report, err := sw.Sweep(cmd.Context(), kind)
					if report != nil {
						reports = append(reports, report)
					}
					if err != nil {
						cmd.Println(FormatSweepReports(reports))
						return fmt.Errorf("sweep %s failed: %w", kind, err)
					}
				}
				cmd.Println(FormatSweepReports(reports))
				return nil
			})
		},
	}

	cmd.Flags().String("kind", "", "Job kind to sweep (cleaning, transcription); default both")

	return cmd
}
