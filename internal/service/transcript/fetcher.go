// Package transcript retrieves raw transcripts produced by the transcription
// service and decodes them into timed segments.
package transcript

import (
	"context"
)

// Fetcher reads a raw transcript object by key.
// Errors carry CodeNotFound, CodeAccessDenied or CodeTransient.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}
