package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/Taichi-iskw/audiorefresh/internal/model"
)

// timingTolerance is how far, in seconds, a segment may end before it starts
// before the transcript is rejected
const timingTolerance = 0.5

// whisperPayload mirrors whisper's JSON output
type whisperPayload struct {
	Text     string                     `json:"text"`
	Language string                     `json:"language"`
	Segments *[]model.TranscriptSegment `json:"segments"`
}

// Decode parses a raw transcript, either whisper-style JSON or a bare array
// of segments. Any malformed payload yields a CodeTerminal error.
func Decode(raw []byte) ([]model.TranscriptSegment, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, apperrors.New(apperrors.CodeTerminal, "transcript is empty")
	}

	var segments []model.TranscriptSegment
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &segments); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeTerminal, "malformed transcript segments")
		}
	case '{':
		var payload whisperPayload
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeTerminal, "malformed transcript document")
		}
		if payload.Segments == nil {
			return nil, apperrors.New(apperrors.CodeTerminal, "transcript document has no segments")
		}
		segments = *payload.Segments
	default:
		return nil, apperrors.New(apperrors.CodeTerminal, "transcript is not JSON")
	}

	for i, seg := range segments {
		if err := validateTiming(seg); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeTerminal, fmt.Sprintf("transcript segment %d", i))
		}
	}
	return segments, nil
}

func validateTiming(seg model.TranscriptSegment) error {
	switch {
	case math.IsNaN(seg.StartTime) || math.IsNaN(seg.EndTime) || math.IsInf(seg.StartTime, 0) || math.IsInf(seg.EndTime, 0):
		return fmt.Errorf("non-finite timestamps")
	case seg.StartTime < 0 || seg.EndTime < 0:
		return fmt.Errorf("negative timestamps (%.2f, %.2f)", seg.StartTime, seg.EndTime)
	case seg.StartTime-seg.EndTime > timingTolerance:
		return fmt.Errorf("ends at %.2f before it starts at %.2f", seg.EndTime, seg.StartTime)
	}
	return nil
}
