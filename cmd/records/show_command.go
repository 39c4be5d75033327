package records

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the record show command
func NewShowCommand(reader RecordReader, transcripts TranscriptReader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [RECORD_ID]",
		Short: "Show a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID := args[0]

			format, _ := cmd.Flags().GetString("format")
			showTranscript, _ := cmd.Flags().GetBool("transcript")

			formatter, err := NewRecordFormatter(format)
			if err != nil {
				return err
			}

			return withServices(cmd, reader != nil, func(s *Services) error {
				r, tr := reader, transcripts
				if s != nil {
					r, tr = s.Loader, s.Transcripts
				}

				record, err := r.Load(cmd.Context(), recordID)
				if err != nil {
					return fmt.Errorf("failed to load record: %w", err)
				}

				output, err := formatter.Format(record)
				if err != nil {
					return err
				}
				cmd.Println(output)

				if !showTranscript || tr == nil {
					return nil
				}
				for _, t := range record.Translations {
					if t.TranscriptionSubKey == nil {
						continue
					}
					doc, err := tr.Get(cmd.Context(), *t.TranscriptionSubKey)
					if err != nil {
						return fmt.Errorf("failed to load transcript for %s: %w", t.Language, err)
					}
					cmd.Printf("\nTranscript (%s):\n", t.Language)
					cmd.Println(doc.Content)
				}
				return nil
			})
		},
	}

	cmd.Flags().String("format", "table", "Output format (table, json)")
	cmd.Flags().Bool("transcript", false, "Also print stored transcripts")

	return cmd
}
