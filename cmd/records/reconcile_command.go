package records

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReconcileCommand creates the reconcile command
func NewReconcileCommand(processor RecordProcessor) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [RECORD_ID]",
		Short: "Apply finished job results to a record",
		Long: `Query the remote job services for every translation of the record holding
a job of the selected kind, apply finished results, save and notify subscribers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID := args[0]

			kinds, err := kindsFromFlag(cmd)
			if err != nil {
				return err
			}

			return withServices(cmd, processor != nil, func(s *Services) error {
				p := processor
				if s != nil {
					p = s.Processor
				}

				for _, kind := range kinds {
					result, err := p.Process(cmd.Context(), recordID, kind)
					if err != nil {
						return fmt.Errorf("failed to reconcile %s for %s: %w", kind, recordID, err)
					}
					switch {
					case len(result.Updated) > 0:
						cmd.Printf("%s: applied results for %d translation(s)\n", kind, len(result.Updated))
						for _, t := range result.Updated {
							cmd.Printf("  - %s\n", t.Language)
						}
					case result.RequiresSave:
						cmd.Printf("%s: cleared failed jobs\n", kind)
					default:
						cmd.Printf("%s: nothing to apply\n", kind)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().String("kind", "", "Job kind to reconcile (cleaning, transcription); default both")

	return cmd
}
