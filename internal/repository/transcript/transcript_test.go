package transcript

import (
	"context"
	"strings"
	"testing"
	"time"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	key := KeyFor("<p>Hi guys!</p>")

	assert.True(t, strings.HasPrefix(key, KeyPrefix))
	assert.Len(t, strings.TrimPrefix(key, KeyPrefix), 64)
	assert.Equal(t, key, KeyFor("<p>Hi guys!</p>"))
	assert.NotEqual(t, key, KeyFor("<p>Hi guys</p>"))
}

func TestTranscriptRepository_Store(t *testing.T) {
	content := "<p>Hello</p>"

	tests := []struct {
		name     string
		setup    func(mock pgxmock.PgxPoolIface)
		wantCode string
	}{
		{
			name: "stores new document",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("INSERT INTO transcript_documents .* ON CONFLICT \\(key\\) DO NOTHING").
					WithArgs(KeyFor(content), content).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "identical content already stored",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("INSERT INTO transcript_documents").
					WithArgs(KeyFor(content), content).
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
			},
		},
		{
			name: "unexpected failure is retryable",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("INSERT INTO transcript_documents").
					WithArgs(KeyFor(content), content).
					WillReturnError(assert.AnError)
			},
			wantCode: apperrors.CodeTransient,
		},
		{
			name: "constraint violation keeps its code",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("INSERT INTO transcript_documents").
					WithArgs(KeyFor(content), content).
					WillReturnError(&pgconn.PgError{Code: "23502"})
			},
			wantCode: apperrors.CodeInvalidArg,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)

			key, err := NewRepository(mock).Store(context.Background(), content)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				assert.Empty(t, key)
			} else {
				require.NoError(t, err)
				assert.Equal(t, KeyFor(content), key)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTranscriptRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT key, content, created_at FROM transcript_documents WHERE key = \\$1").
		WithArgs("transcripts/abc").
		WillReturnRows(pgxmock.NewRows([]string{"key", "content", "created_at"}).AddRow("transcripts/abc", "<p>x</p>", now))
	mock.ExpectQuery("FROM transcript_documents").
		WithArgs("transcripts/missing").
		WillReturnError(pgx.ErrNoRows)

	repo := NewRepository(mock)

	doc, err := repo.Get(context.Background(), "transcripts/abc")
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", doc.Content)
	assert.Equal(t, now, doc.CreatedAt)

	_, err = repo.Get(context.Background(), "transcripts/missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	require.NoError(t, mock.ExpectationsWereMet())
}
