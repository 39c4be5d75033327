package transcript

import (
	"context"

	"github.com/Taichi-iskw/audiorefresh/internal/model"
)

// KeyPrefix namespaces stored transcript documents
const KeyPrefix = "transcripts/"

// Repository stores rendered transcripts under content-derived keys
type Repository interface {
	// Store saves content and returns its key. Storing identical content
	// again returns the same key without writing.
	Store(ctx context.Context, content string) (string, error)

	// Get retrieves a stored document by key
	Get(ctx context.Context, key string) (*model.TranscriptDocument, error)
}
