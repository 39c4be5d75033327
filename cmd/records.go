package cmd

import (
	"github.com/Taichi-iskw/audiorefresh/cmd/records"
)

func init() {
	// nil services make each command build real ones from the config file
	rootCmd.AddCommand(records.NewReconcileCommand(nil))
	rootCmd.AddCommand(records.NewSweepCommand(nil))
	rootCmd.AddCommand(records.NewRecordCommand(nil, nil))
	rootCmd.AddCommand(records.NewSegmentCommand())
	rootCmd.AddCommand(records.NewDaemonCommand())
}
