package record

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func nilStr() *string             { return nil }
func nilFloat() *float64          { return nil }

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

var translationColumns = []string{
	"record_id", "language", "unprocessed_audio_ref", "processed_audio_ref", "duration",
	"cleaning_job_id", "transcription_job_id", "transcription_sub_key",
}

func TestRecordRepository_Load(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		id       string
		setup    func(mock pgxmock.PgxPoolIface)
		want     *model.Record
		wantCode string
	}{
		{
			name: "record with translations",
			id:   "rec-1",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT id, title, created_at, updated_at FROM records WHERE id = \\$1").
					WithArgs("rec-1").
					WillReturnRows(pgxmock.NewRows([]string{"id", "title", "created_at", "updated_at"}).
						AddRow("rec-1", "Morning show", created, created))
				mock.ExpectQuery("FROM record_translations WHERE record_id = \\$1 ORDER BY language").
					WithArgs("rec-1").
					WillReturnRows(pgxmock.NewRows(translationColumns).
						AddRow("rec-1", "en", strPtr("raw/en.wav"), strPtr("clean/en.wav"), floatPtr(12.5), nilStr(), strPtr("tj-1"), nilStr()).
						AddRow("rec-1", "ja", strPtr("raw/ja.wav"), nilStr(), nilFloat(), strPtr("cj-2"), nilStr(), nilStr()))
			},
			want: &model.Record{
				ID:        "rec-1",
				Title:     "Morning show",
				CreatedAt: created,
				UpdatedAt: created,
				Translations: []*model.Translation{
					{
						RecordID:            "rec-1",
						Language:            "en",
						UnprocessedAudioRef: strPtr("raw/en.wav"),
						ProcessedAudioRef:   strPtr("clean/en.wav"),
						Duration:            floatPtr(12.5),
						TranscriptionJobID:  strPtr("tj-1"),
					},
					{
						RecordID:            "rec-1",
						Language:            "ja",
						UnprocessedAudioRef: strPtr("raw/ja.wav"),
						CleaningJobID:       strPtr("cj-2"),
					},
				},
			},
		},
		{
			name: "record not found",
			id:   "missing",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT id, title, created_at, updated_at FROM records WHERE id = \\$1").
					WithArgs("missing").
					WillReturnError(pgx.ErrNoRows)
			},
			wantCode: apperrors.CodeNotFound,
		},
		{
			name: "connection lost while loading translations",
			id:   "rec-1",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT id, title, created_at, updated_at FROM records WHERE id = \\$1").
					WithArgs("rec-1").
					WillReturnRows(pgxmock.NewRows([]string{"id", "title", "created_at", "updated_at"}).
						AddRow("rec-1", "Morning show", created, created))
				mock.ExpectQuery("FROM record_translations").
					WithArgs("rec-1").
					WillReturnError(&pgconn.PgError{Code: "08006"})
			},
			wantCode: apperrors.CodeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)

			repo := NewRepository(mock)
			got, err := repo.Load(context.Background(), tt.id)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecordRepository_Save(t *testing.T) {
	updated := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	validRecord := func() *model.Record {
		return &model.Record{
			ID: "rec-1",
			Translations: []*model.Translation{
				{RecordID: "rec-1", Language: "en", UnprocessedAudioRef: strPtr("raw/en.wav"), ProcessedAudioRef: strPtr("clean/en.wav"), Duration: floatPtr(3)},
				{RecordID: "rec-1", Language: "fr", UnprocessedAudioRef: strPtr("raw/fr.wav"), TranscriptionSubKey: strPtr("transcripts/abc")},
			},
		}
	}

	tests := []struct {
		name     string
		record   func() *model.Record
		setup    func(mock pgxmock.PgxPoolIface)
		wantCode string
	}{
		{
			name:   "saves every translation in one transaction",
			record: validRecord,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery("UPDATE records SET updated_at = NOW\\(\\) WHERE id = \\$1").
					WithArgs("rec-1").
					WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(updated))
				mock.ExpectExec("INSERT INTO record_translations").
					WithArgs(anyArgs(8)...).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec("INSERT INTO record_translations").
					WithArgs(anyArgs(8)...).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectCommit()
			},
		},
		{
			name:   "missing record rolls back",
			record: validRecord,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery("UPDATE records").
					WithArgs("rec-1").
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectRollback()
			},
			wantCode: apperrors.CodeNotFound,
		},
		{
			name:   "translation write failure rolls back",
			record: validRecord,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery("UPDATE records").
					WithArgs("rec-1").
					WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(updated))
				mock.ExpectExec("INSERT INTO record_translations").
					WithArgs(anyArgs(8)...).
					WillReturnError(&pgconn.PgError{Code: "40P01"})
				mock.ExpectRollback()
			},
			wantCode: apperrors.CodeTransient,
		},
		{
			name: "invariant violation never reaches the database",
			record: func() *model.Record {
				r := validRecord()
				r.Translations[0].Duration = nil
				return r
			},
			setup:    func(mock pgxmock.PgxPoolIface) {},
			wantCode: apperrors.CodeInvariant,
		},
		{
			name: "translation from another record",
			record: func() *model.Record {
				r := validRecord()
				r.Translations[1].RecordID = "rec-2"
				return r
			},
			setup:    func(mock pgxmock.PgxPoolIface) {},
			wantCode: apperrors.CodeInvariant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)

			record := tt.record()
			err = NewRepository(mock).Save(context.Background(), record)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, updated, record.UpdatedAt)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecordRepository_ListOutstanding(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.JobKind
		after   string
		setup   func(mock pgxmock.PgxPoolIface)
		want    []string
		wantErr bool
	}{
		{
			name: "cleaning first page",
			kind: model.JobKindCleaning,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("WHERE cleaning_job_id IS NOT NULL AND processed_audio_ref IS NULL AND record_id > \\$1 ORDER BY record_id LIMIT \\$2").
					WithArgs("", 50).
					WillReturnRows(pgxmock.NewRows([]string{"record_id"}).AddRow("rec-1").AddRow("rec-7"))
			},
			want: []string{"rec-1", "rec-7"},
		},
		{
			name:  "resumes after cursor",
			kind:  model.JobKindCleaning,
			after: "rec-7",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("AND record_id > \\$1 ORDER BY record_id LIMIT \\$2").
					WithArgs("rec-7", 50).
					WillReturnRows(pgxmock.NewRows([]string{"record_id"}).AddRow("rec-8"))
			},
			want: []string{"rec-8"},
		},
		{
			name: "transcription with nothing outstanding",
			kind: model.JobKindTranscription,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("WHERE transcription_job_id IS NOT NULL AND transcription_sub_key IS NULL").
					WithArgs("", 50).
					WillReturnRows(pgxmock.NewRows([]string{"record_id"}))
			},
			want: []string{},
		},
		{
			name:    "unknown kind",
			kind:    model.JobKind("dubbing"),
			setup:   func(mock pgxmock.PgxPoolIface) {},
			wantErr: true,
		},
		{
			name: "query error",
			kind: model.JobKindCleaning,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT DISTINCT record_id").
					WithArgs("", 50).
					WillReturnError(assert.AnError)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)

			got, err := NewRepository(mock).ListOutstanding(context.Background(), tt.kind, tt.after, 50)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecordRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO records").
		WithArgs("rec-9", "Interview").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO record_translations").
		WithArgs(anyArgs(8)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	record := &model.Record{
		ID:    "rec-9",
		Title: "Interview",
		Translations: []*model.Translation{
			{Language: "de", UnprocessedAudioRef: strPtr("raw/de.wav"), CleaningJobID: strPtr("cj-9")},
		},
	}
	require.NoError(t, NewRepository(mock).Create(context.Background(), record))
	assert.Equal(t, now, record.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
