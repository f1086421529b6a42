package types

import "image"

// Segment is one unit of displayed script text.
// OrderIndex defines display order; segments are never mutated after creation.
type Segment struct {
	Text       string `json:"text"`
	WordCount  int    `json:"word_count"`
	OrderIndex int    `json:"order_index"`
}

// VisualPrompt is the image-generation prompt derived from one segment.
type VisualPrompt struct {
	Text         string `json:"text"`
	SegmentIndex int    `json:"segment_index"`
}

// CacheKey normalizes the prompt text so near-identical prompts share one
// generated image.
func (p VisualPrompt) CacheKey() string {
	return NormalizePromptKey(p.Text)
}

// ImageSource records where a generated image came from.
type ImageSource string

const (
	SourceProvider    ImageSource = "external_provider"
	SourcePlaceholder ImageSource = "placeholder"
)

// GeneratedImage is the visual asset for one unique prompt. One image may be
// shared by many consecutive timeline units.
type GeneratedImage struct {
	Bitmap    image.Image `json:"-"`
	Source    ImageSource `json:"source"`
	Processed bool        `json:"processed"`
}

// NarrationSource records which engine produced the narration track.
type NarrationSource string

const (
	SourcePrimaryEngine  NarrationSource = "primary"
	SourceFallbackEngine NarrationSource = "fallback"
)

// NarrationTrack is the synthesized voice audio for the whole script.
// DurationSec is measured from the produced file and is authoritative for all
// segment timing.
type NarrationTrack struct {
	AudioFile   string          `json:"audio_file"`
	DurationSec float64         `json:"duration_sec"`
	Source      NarrationSource `json:"source"`
	Engine      string          `json:"engine"`
}

// TimelineUnit binds one segment and one image to a time range.
type TimelineUnit struct {
	StartSec float64         `json:"start_sec"`
	EndSec   float64         `json:"end_sec"`
	Segment  Segment         `json:"segment"`
	Image    *GeneratedImage `json:"-"`
}

// DurationSec is the unit's display duration.
func (u TimelineUnit) DurationSec() float64 {
	return u.EndSec - u.StartSec
}

// PipelineResult is the terminal output of one pipeline run: either a video
// path or a human-readable failure reason, never both.
type PipelineResult struct {
	ArticleID     int    `json:"article_id"`
	RunID         string `json:"run_id"`
	OutputPath    string `json:"output_path,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// OK reports whether the run produced a video.
func (r *PipelineResult) OK() bool {
	return r.FailureReason == ""
}
