// Package segmenter splits cleaned script text into display-ready segments.
package segmenter

import (
	"errors"
	"regexp"
	"strings"

	"shortform-pipeline/types"
)

// ErrEmptyScript is returned when the cleaned script has no words left.
var ErrEmptyScript = errors.New("script is empty after cleaning")

// Mode selects the segmentation strategy.
type Mode string

const (
	// ModeSentence yields one segment per sentence (legacy pacing).
	ModeSentence Mode = "sentence"
	// ModeChunk yields fixed word-count chunks for short-form pacing.
	ModeChunk Mode = "chunk"
)

var (
	stageDirections = regexp.MustCompile(`\[[^\]]*\]`)
	headingMarkers  = regexp.MustCompile(`(?m)^\s*#{1,6}\s*`)
	emphasisMarkers = regexp.MustCompile("[*_`]+")
	sentenceEnds    = regexp.MustCompile(`[.!?]+`)
)

// Clean strips markup artifacts from a raw script: [STAGE] directions,
// markdown headings, emphasis markers, and redundant whitespace. Cleaning
// happens before both TTS synthesis and segmentation so narration never
// speaks markup.
func Clean(script string) string {
	s := stageDirections.ReplaceAllString(script, " ")
	s = headingMarkers.ReplaceAllString(s, "")
	s = emphasisMarkers.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Split cleans the script and segments it according to mode. targetWords is
// only consulted in ModeChunk; values below 1 fall back to 4.
func Split(script string, mode Mode, targetWords int) ([]types.Segment, error) {
	clean := Clean(script)
	if clean == "" {
		return nil, ErrEmptyScript
	}

	switch mode {
	case ModeSentence:
		return splitSentences(clean), nil
	default:
		if targetWords < 1 {
			targetWords = 4
		}
		return splitChunks(clean, targetWords), nil
	}
}

// splitChunks breaks the script into fixed word-count chunks. A script with
// fewer words than the chunk size yields exactly one segment.
func splitChunks(clean string, targetWords int) []types.Segment {
	words := strings.Fields(clean)
	var segments []types.Segment
	for i := 0; i < len(words); i += targetWords {
		end := i + targetWords
		if end > len(words) {
			end = len(words)
		}
		segments = append(segments, types.Segment{
			Text:       strings.Join(words[i:end], " "),
			WordCount:  end - i,
			OrderIndex: len(segments),
		})
	}
	return segments
}

// splitSentences yields one segment per sentence boundary. Trailing text
// without terminal punctuation still becomes a segment.
func splitSentences(clean string) []types.Segment {
	var segments []types.Segment
	for _, raw := range sentenceEnds.Split(clean, -1) {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		segments = append(segments, types.Segment{
			Text:       text,
			WordCount:  len(strings.Fields(text)),
			OrderIndex: len(segments),
		})
	}
	return segments
}
