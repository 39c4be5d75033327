// Package jobstatus queries remote processing services for the state of a
// previously submitted job.
package jobstatus

import (
	"context"
)

// State is the remote lifecycle state of a job
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateError      State = "error"
)

// Status is one observation of a remote job
type Status struct {
	State     State    `json:"status"`
	ResultRef string   `json:"result_ref,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
	Reason    string   `json:"error,omitempty"`
}

// Finished reports whether the job completed successfully
func (s *Status) Finished() bool {
	return s.State == StateDone
}

// Failed reports whether the remote service gave up on the job
func (s *Status) Failed() bool {
	return s.State == StateError
}

// Client queries job status for one job kind.
// Errors carry CodeTransient, CodeTerminal or CodeConfig.
type Client interface {
	QueryStatus(ctx context.Context, jobID string) (*Status, error)
}
