package model

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// JobKind selects which remote job, result fields and collaborators a refresh works on
type JobKind string

const (
	JobKindCleaning      JobKind = "cleaning"
	JobKindTranscription JobKind = "transcription"
)

// JobKinds lists every kind in the order sweeps visit them
var JobKinds = []JobKind{JobKindCleaning, JobKindTranscription}

// ParseJobKind converts a CLI or wire value into a JobKind
func ParseJobKind(value string) (JobKind, error) {
	switch JobKind(value) {
	case JobKindCleaning, JobKindTranscription:
		return JobKind(value), nil
	default:
		return "", fmt.Errorf("unknown job kind %q (expected cleaning or transcription)", value)
	}
}

// Record represents a logical audio item
type Record struct {
	ID           string         `json:"id" db:"id"`
	Title        string         `json:"title" db:"title"`
	Translations []*Translation `json:"translations"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Translation is the per-language variant of a record and the unit of refresh
type Translation struct {
	RecordID            string   `json:"record_id" db:"record_id"`
	Language            string   `json:"language" db:"language"`
	UnprocessedAudioRef *string  `json:"unprocessed_audio_ref,omitempty" db:"unprocessed_audio_ref"`
	ProcessedAudioRef   *string  `json:"processed_audio_ref,omitempty" db:"processed_audio_ref"`
	Duration            *float64 `json:"duration,omitempty" db:"duration"` // seconds
	CleaningJobID       *string  `json:"cleaning_job_id,omitempty" db:"cleaning_job_id"`
	TranscriptionJobID  *string  `json:"transcription_job_id,omitempty" db:"transcription_job_id"`
	TranscriptionSubKey *string  `json:"transcription_sub_key,omitempty" db:"transcription_sub_key"`
}

// RefreshOutcome is returned per translation per refresh call and consumed immediately
type RefreshOutcome struct {
	Mutated       bool
	ResultApplied bool
}

// Validate checks the audio invariants of a translation
func (t *Translation) Validate() error {
	if _, err := language.Parse(t.Language); err != nil {
		return fmt.Errorf("translation %s: invalid language %q: %w", t.RecordID, t.Language, err)
	}
	if t.UnprocessedAudioRef == nil && t.ProcessedAudioRef == nil {
		return fmt.Errorf("translation %s/%s has no audio", t.RecordID, t.Language)
	}
	if (t.ProcessedAudioRef == nil) != (t.Duration == nil) {
		return fmt.Errorf("translation %s/%s: processed audio and duration must be set together", t.RecordID, t.Language)
	}
	return nil
}

// JobID returns the outstanding job handle for kind, or "" when none is set
func (t *Translation) JobID(kind JobKind) string {
	var id *string
	switch kind {
	case JobKindCleaning:
		id = t.CleaningJobID
	case JobKindTranscription:
		id = t.TranscriptionJobID
	}
	if id == nil {
		return ""
	}
	return *id
}

// HasResult reports whether the result field for kind is already populated
func (t *Translation) HasResult(kind JobKind) bool {
	switch kind {
	case JobKindCleaning:
		return t.ProcessedAudioRef != nil
	case JobKindTranscription:
		return t.TranscriptionSubKey != nil
	}
	return false
}

// HasSource reports whether the input the kind's job consumes is present.
// Transcription accepts either the cleaned or the raw audio.
func (t *Translation) HasSource(kind JobKind) bool {
	switch kind {
	case JobKindCleaning:
		return t.UnprocessedAudioRef != nil
	case JobKindTranscription:
		return t.ProcessedAudioRef != nil || t.UnprocessedAudioRef != nil
	}
	return false
}

// ClearJob drops the job handle for kind
func (t *Translation) ClearJob(kind JobKind) {
	switch kind {
	case JobKindCleaning:
		t.CleaningJobID = nil
	case JobKindTranscription:
		t.TranscriptionJobID = nil
	}
}

// ApplyCleaningResult stores the cleaned audio and its duration and clears the job
func (t *Translation) ApplyCleaningResult(processedAudioRef string, duration float64) {
	t.ProcessedAudioRef = &processedAudioRef
	t.Duration = &duration
	t.CleaningJobID = nil
}

// ApplyTranscriptionResult points the translation at its stored transcript and clears the job
func (t *Translation) ApplyTranscriptionResult(subKey string) {
	t.TranscriptionSubKey = &subKey
	t.TranscriptionJobID = nil
}

// Key identifies the translation inside its record
func (t *Translation) Key() string {
	return t.RecordID + "/" + t.Language
}
