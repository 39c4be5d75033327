// Package segmenter turns time-coded transcripts into reader-friendly
// paragraphs.
//
// Paragraph boundaries come from two soft signals and one hard rule. Long
// pauses between segments end a paragraph when the transcript's gaps actually
// differ from each other. Stretches without such pauses are balanced toward a
// target word count. No paragraph may exceed MaxExpectedParagraphWordCount.
// The package is pure: no I/O and no shared state.
package segmenter

import (
	"math"
	"strings"

	"github.com/Taichi-iskw/audiorefresh/internal/model"
	"golang.org/x/text/language"
)

const (
	// TargetAverageParagraphWordCount is the paragraph size length balancing aims for.
	TargetAverageParagraphWordCount = 80
	// SplittingFluctuation is how far a balanced paragraph may drift from the target.
	SplittingFluctuation = 30
	// MaxExpectedParagraphWordCount is the hard cap for any paragraph.
	MaxExpectedParagraphWordCount = 180
	// DefaultPauseThreshold is the silence, in seconds, that counts as a topic or speaker break.
	DefaultPauseThreshold = 2.0
)

// Options tunes a Segmenter. Zero values fall back to the package constants.
type Options struct {
	TargetWords    int
	Fluctuation    int
	MaxWords       int
	PauseThreshold float64
	Language       language.Tag
}

// Segmenter splits transcripts into paragraphs
type Segmenter struct {
	target         int
	fluctuation    int
	maxWords       int
	pauseThreshold float64
	runeCounting   bool
}

// unit is one non-empty segment with the silence that preceded it
type unit struct {
	text  string
	words int
	gap   float64
}

// New creates a Segmenter, filling unset options with defaults
func New(opts Options) *Segmenter {
	s := &Segmenter{
		target:         opts.TargetWords,
		fluctuation:    opts.Fluctuation,
		maxWords:       opts.MaxWords,
		pauseThreshold: opts.PauseThreshold,
		runeCounting:   writtenWithoutSpaces(opts.Language),
	}
	if s.target <= 0 {
		s.target = TargetAverageParagraphWordCount
	}
	if s.fluctuation <= 0 {
		s.fluctuation = SplittingFluctuation
	}
	if s.fluctuation >= s.target {
		s.fluctuation = s.target - 1
	}
	switch {
	case s.maxWords <= 0:
		s.maxWords = max(MaxExpectedParagraphWordCount, s.target+s.fluctuation)
	case s.maxWords < s.target+s.fluctuation:
		s.maxWords = s.target + s.fluctuation
	}
	if s.pauseThreshold <= 0 {
		s.pauseThreshold = DefaultPauseThreshold
	}
	return s
}

// Segment splits segments into paragraphs using the default options
func Segment(segments []model.TranscriptSegment) []model.Paragraph {
	return New(Options{}).Segment(segments)
}

// Segment splits segments into ordered paragraphs. The result is empty when
// the transcript contains no words.
func (s *Segmenter) Segment(segments []model.TranscriptSegment) []model.Paragraph {
	units := s.collectUnits(segments)
	if len(units) == 0 {
		return []model.Paragraph{}
	}

	var groups [][]unit
	for _, run := range s.splitOnPauses(units) {
		for _, group := range s.balance(run) {
			groups = append(groups, s.enforceCeiling(group)...)
		}
	}

	paragraphs := make([]model.Paragraph, 0, len(groups))
	for _, group := range groups {
		texts := make([]string, 0, len(group))
		words := 0
		for _, u := range group {
			texts = append(texts, u.text)
			words += u.words
		}
		paragraphs = append(paragraphs, model.Paragraph{
			Index:     len(paragraphs),
			WordCount: words,
			Text:      strings.Join(texts, " "),
		})
	}
	return paragraphs
}

// collectUnits drops empty and zero-duration segments while keeping the time
// cursor moving across them.
func (s *Segmenter) collectUnits(segments []model.TranscriptSegment) []unit {
	units := make([]unit, 0, len(segments))
	prevEnd := 0.0
	started := false
	for _, seg := range segments {
		gap := 0.0
		if started {
			gap = seg.StartTime - prevEnd
		}
		started = true
		prevEnd = seg.EndTime

		if seg.EndTime <= seg.StartTime {
			continue
		}
		text := strings.Join(strings.Fields(seg.Text), " ")
		words := s.countWords(text)
		if words == 0 {
			continue
		}
		units = append(units, unit{text: text, words: words, gap: gap})
	}
	return units
}

// splitOnPauses cuts units into runs at long pauses. Pauses are only trusted
// when some gaps are long and others are not; a transcript where every gap is
// long carries no usable pause information.
func (s *Segmenter) splitOnPauses(units []unit) [][]unit {
	long, short := 0, 0
	for _, u := range units[1:] {
		if u.gap > s.pauseThreshold {
			long++
		} else {
			short++
		}
	}
	if long == 0 || short == 0 {
		return [][]unit{units}
	}

	var runs [][]unit
	start := 0
	for i := 1; i < len(units); i++ {
		if units[i].gap > s.pauseThreshold {
			runs = append(runs, units[start:i])
			start = i
		}
	}
	return append(runs, units[start:])
}

// balance splits a run without usable pauses into paragraphs whose sizes stay
// inside [target-fluctuation, target+fluctuation]. Only the final paragraph may
// fall below the band; when it would end up above it the run is split into
// one more paragraph.
func (s *Segmenter) balance(run []unit) [][]unit {
	total := sumWords(run)
	upper := s.target + s.fluctuation
	if total <= upper || len(run) == 1 {
		return [][]unit{run}
	}

	n := int(math.Round(float64(total) / float64(s.target)))
	if n < 1 {
		n = 1
	}
	for float64(total)/float64(n) > float64(upper) {
		n++
	}

	for {
		groups := s.splitInto(run, n, total)
		last := groups[len(groups)-1]
		// with n == len(run) the last group is always a single segment
		if sumWords(last) <= upper || len(last) == 1 || n >= len(run) {
			return groups
		}
		n++
	}
}

// splitInto cuts run into at most n paragraphs, picking each boundary
// against the average of what is left
func (s *Segmenter) splitInto(run []unit, n, total int) [][]unit {
	var groups [][]unit
	start := 0
	remaining := total
	for k := n; k > 1 && len(run)-start > 1; k-- {
		end := s.pickBoundary(run, start, float64(remaining)/float64(k))
		groups = append(groups, run[start:end])
		remaining -= sumWords(run[start:end])
		start = end
	}
	return append(groups, run[start:])
}

// pickBoundary returns the exclusive end index for the paragraph starting at
// start. Boundaries inside the band win; among them the one nearest ideal.
// When none fits, the boundary closest to the band is used.
func (s *Segmenter) pickBoundary(run []unit, start int, ideal float64) int {
	lower := s.target - s.fluctuation
	upper := s.target + s.fluctuation

	best := start + 1
	bestOut := math.Inf(1)
	bestDist := math.Inf(1)
	acc := 0
	for end := start + 1; end < len(run); end++ {
		acc += run[end-1].words
		if acc > s.maxWords && end > start+1 {
			break
		}

		out := 0.0
		switch {
		case acc < lower:
			out = float64(lower - acc)
		case acc > upper:
			out = float64(acc - upper)
		}
		dist := math.Abs(float64(acc) - ideal)
		if out < bestOut || (out == bestOut && dist < bestDist) {
			best, bestOut, bestDist = end, out, dist
		}
		if acc > upper {
			break
		}
	}
	return best
}

// enforceCeiling splits a group greedily so that no paragraph exceeds maxWords.
// A single oversized segment is cut at word boundaries.
func (s *Segmenter) enforceCeiling(group []unit) [][]unit {
	if sumWords(group) <= s.maxWords {
		return [][]unit{group}
	}

	var out [][]unit
	var current []unit
	acc := 0
	flush := func() {
		if len(current) > 0 {
			out = append(out, current)
		}
		current, acc = nil, 0
	}
	for _, u := range group {
		if u.words > s.maxWords {
			flush()
			for _, piece := range s.splitUnit(u) {
				out = append(out, []unit{piece})
			}
			continue
		}
		if acc+u.words > s.maxWords {
			flush()
		}
		current = append(current, u)
		acc += u.words
	}
	flush()
	return out
}

// splitUnit cuts one segment into pieces of at most maxWords words
func (s *Segmenter) splitUnit(u unit) []unit {
	var pieces []unit
	if s.runeCounting {
		runes := []rune(u.text)
		step := s.maxWords * 2
		for i := 0; i < len(runes); i += step {
			text := strings.TrimSpace(string(runes[i:min(i+step, len(runes))]))
			if words := s.countWords(text); words > 0 {
				pieces = append(pieces, unit{text: text, words: words})
			}
		}
		return pieces
	}

	fields := strings.Fields(u.text)
	for i := 0; i < len(fields); i += s.maxWords {
		chunk := fields[i:min(i+s.maxWords, len(fields))]
		pieces = append(pieces, unit{text: strings.Join(chunk, " "), words: len(chunk)})
	}
	return pieces
}

func sumWords(units []unit) int {
	total := 0
	for _, u := range units {
		total += u.words
	}
	return total
}
