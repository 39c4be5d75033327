package model

import "time"

// TranscriptSegment is a timestamped span of transcript text
type TranscriptSegment struct {
	StartTime float64 `json:"start"` // Start time in seconds
	EndTime   float64 `json:"end"`   // End time in seconds
	Text      string  `json:"text"`
}

// Paragraph is a rendered block of consecutive segment text
type Paragraph struct {
	Index     int    `json:"index"`
	WordCount int    `json:"word_count"`
	Text      string `json:"text"`
}

// TranscriptDocument is the stored rendered transcript referenced by a transcription sub key
type TranscriptDocument struct {
	Key       string    `json:"key" db:"key"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
