package transcript

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
	"github.com/Taichi-iskw/audiorefresh/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

// transcriptRepository implements Repository using PostgreSQL
type transcriptRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &transcriptRepository{
		pool: pool,
	}
}

// KeyFor derives the storage key of content
func KeyFor(content string) string {
	sum := sha256.Sum256([]byte(content))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Store saves content under its hash. Unclassified failures are reported as transient.
func (r *transcriptRepository) Store(ctx context.Context, content string) (string, error) {
	key := KeyFor(content)
	sql := "INSERT INTO transcript_documents (key, content) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING"
	if _, err := r.pool.Exec(ctx, sql, key, content); err != nil {
		appErr := common.HandlePostgreSQLError(err, "failed to store transcript")
		if appErr.Code == apperrors.CodeInternal {
			appErr.Code = apperrors.CodeTransient
		}
		return "", appErr
	}
	return key, nil
}

// Get retrieves a transcript document by key
func (r *transcriptRepository) Get(ctx context.Context, key string) (*model.TranscriptDocument, error) {
	sql := "SELECT key, content, created_at FROM transcript_documents WHERE key = $1"

	var doc model.TranscriptDocument
	err := r.pool.QueryRow(ctx, sql, key).Scan(&doc.Key, &doc.Content, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "transcript not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get transcript")
	}
	return &doc, nil
}
