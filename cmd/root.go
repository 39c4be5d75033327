package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "audiorefresh",
	Short: "Keep derived audio artifacts in sync with remote jobs",
	Long: `audiorefresh applies the results of remote audio cleaning and transcription
jobs to records, segments transcripts into paragraphs and notifies subscribers
when a record changes on its own.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
