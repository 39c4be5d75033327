package record

import (
	"context"

	"github.com/Taichi-iskw/audiorefresh/internal/model"
)

// Repository defines persistence for records and their translations
type Repository interface {
	// Create inserts a record together with its translations
	Create(ctx context.Context, record *model.Record) error

	// Load retrieves a record with every translation, ordered by language
	Load(ctx context.Context, id string) (*model.Record, error)

	// Save writes all translations of record in one transaction
	Save(ctx context.Context, record *model.Record) error

	// ListOutstanding returns up to limit ids, in id order and greater than
	// after, of records holding at least one job of kind whose result has not
	// been applied yet. Pass the last id of a page as after to get the next one.
	ListOutstanding(ctx context.Context, kind model.JobKind, after string, limit int) ([]string, error)
}
