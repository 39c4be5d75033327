package record

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
	"github.com/Taichi-iskw/audiorefresh/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

const upsertTranslationSQL = `INSERT INTO record_translations
	(record_id, language, unprocessed_audio_ref, processed_audio_ref, duration,
	 cleaning_job_id, transcription_job_id, transcription_sub_key)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (record_id, language) DO UPDATE SET
		unprocessed_audio_ref = EXCLUDED.unprocessed_audio_ref,
		processed_audio_ref = EXCLUDED.processed_audio_ref,
		duration = EXCLUDED.duration,
		cleaning_job_id = EXCLUDED.cleaning_job_id,
		transcription_job_id = EXCLUDED.transcription_job_id,
		transcription_sub_key = EXCLUDED.transcription_sub_key`

// recordRepository implements Repository using PostgreSQL
type recordRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &recordRepository{
		pool: pool,
	}
}

// Create inserts a record and its translations
func (r *recordRepository) Create(ctx context.Context, record *model.Record) error {
	if err := validateTranslations(record); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to begin transaction")
	}

	sql := `INSERT INTO records (id, title) VALUES ($1, $2) RETURNING created_at, updated_at`
	if err := tx.QueryRow(ctx, sql, record.ID, record.Title).Scan(&record.CreatedAt, &record.UpdatedAt); err != nil {
		_ = tx.Rollback(ctx)
		return common.HandlePostgreSQLError(err, "failed to create record")
	}
	if err := writeTranslations(ctx, tx, record); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return common.HandlePostgreSQLError(err, "failed to commit record")
	}
	return nil
}

// Load retrieves a record by its ID
func (r *recordRepository) Load(ctx context.Context, id string) (*model.Record, error) {
	sql := "SELECT id, title, created_at, updated_at FROM records WHERE id = $1"

	var record model.Record
	err := r.pool.QueryRow(ctx, sql, id).Scan(&record.ID, &record.Title, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "record not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get record")
	}

	sql = `SELECT record_id, language, unprocessed_audio_ref, processed_audio_ref, duration,
		cleaning_job_id, transcription_job_id, transcription_sub_key
		FROM record_translations WHERE record_id = $1 ORDER BY language`
	rows, err := r.pool.Query(ctx, sql, id)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to get translations")
	}
	defer rows.Close()

	record.Translations = []*model.Translation{}
	for rows.Next() {
		var t model.Translation
		err := rows.Scan(
			&t.RecordID,
			&t.Language,
			&t.UnprocessedAudioRef,
			&t.ProcessedAudioRef,
			&t.Duration,
			&t.CleaningJobID,
			&t.TranscriptionJobID,
			&t.TranscriptionSubKey,
		)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan translation")
		}
		record.Translations = append(record.Translations, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate translation rows")
	}

	return &record, nil
}

// Save persists every translation of the record and bumps updated_at
func (r *recordRepository) Save(ctx context.Context, record *model.Record) error {
	if err := validateTranslations(record); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to begin transaction")
	}

	sql := "UPDATE records SET updated_at = NOW() WHERE id = $1 RETURNING updated_at"
	if err := tx.QueryRow(ctx, sql, record.ID).Scan(&record.UpdatedAt); err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.Wrap(err, apperrors.CodeNotFound, "record not found")
		}
		return common.HandlePostgreSQLError(err, "failed to save record")
	}
	if err := writeTranslations(ctx, tx, record); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return common.HandlePostgreSQLError(err, "failed to commit record")
	}
	return nil
}

// ListOutstanding returns one keyset page of record ids with an unapplied job of kind
func (r *recordRepository) ListOutstanding(ctx context.Context, kind model.JobKind, after string, limit int) ([]string, error) {
	var where string
	switch kind {
	case model.JobKindCleaning:
		where = "cleaning_job_id IS NOT NULL AND processed_audio_ref IS NULL"
	case model.JobKindTranscription:
		where = "transcription_job_id IS NOT NULL AND transcription_sub_key IS NULL"
	default:
		return nil, apperrors.New(apperrors.CodeInvalidArg, fmt.Sprintf("unknown job kind %q", kind))
	}

	sql := "SELECT DISTINCT record_id FROM record_translations WHERE " + where +
		" AND record_id > $1 ORDER BY record_id LIMIT $2"
	rows, err := r.pool.Query(ctx, sql, after, limit)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list outstanding records")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan record id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate record ids")
	}

	return ids, nil
}

// validateTranslations refuses to persist a record that breaks the audio invariants
func validateTranslations(record *model.Record) error {
	for _, t := range record.Translations {
		if t.RecordID != "" && t.RecordID != record.ID {
			return apperrors.New(apperrors.CodeInvariant, fmt.Sprintf("translation %s does not belong to record %s", t.Key(), record.ID))
		}
		if err := t.Validate(); err != nil {
			return apperrors.Wrap(err, apperrors.CodeInvariant, "refusing to save invalid translation")
		}
	}
	return nil
}

func writeTranslations(ctx context.Context, tx pgx.Tx, record *model.Record) error {
	for _, t := range record.Translations {
		_, err := tx.Exec(ctx, upsertTranslationSQL,
			record.ID,
			t.Language,
			t.UnprocessedAudioRef,
			t.ProcessedAudioRef,
			t.Duration,
			t.CleaningJobID,
			t.TranscriptionJobID,
			t.TranscriptionSubKey,
		)
		if err != nil {
			return common.HandlePostgreSQLError(err, "failed to save translation "+t.Key())
		}
	}
	return nil
}
