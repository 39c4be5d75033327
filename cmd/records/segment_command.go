package records

import (
	"fmt"
	"os"

	"github.com/Taichi-iskw/audiorefresh/internal/segmenter"
	"github.com/Taichi-iskw/audiorefresh/internal/service/transcript"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

// NewSegmentCommand creates the segment command. It runs the segmenter on a
// local transcript payload without touching any record.
func NewSegmentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment [FILE]",
		Short: "Split a transcript file into paragraphs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			lang, _ := cmd.Flags().GetString("language")
			target, _ := cmd.Flags().GetInt("target-words")
			maxWords, _ := cmd.Flags().GetInt("max-words")

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read transcript: %w", err)
			}
			segments, err := transcript.Decode(raw)
			if err != nil {
				return err
			}

			opts := segmenter.Options{TargetWords: target, MaxWords: maxWords}
			if lang != "" {
				tag, err := language.Parse(lang)
				if err != nil {
					return fmt.Errorf("invalid language %q: %w", lang, err)
				}
				opts.Language = tag
			}

			output, err := FormatParagraphs(segmenter.New(opts).Segment(segments), format)
			if err != nil {
				return err
			}
			cmd.Println(output)
			return nil
		},
	}

	cmd.Flags().String("format", "html", "Output format (html, text, json)")
	cmd.Flags().String("language", "", "Transcript language, e.g. en or ja")
	cmd.Flags().Int("target-words", 0, "Target paragraph size in words (default 80)")
	cmd.Flags().Int("max-words", 0, "Hard paragraph size limit in words (default 180)")

	return cmd
}
