// Package pipeline wires the stages together: segmentation and narration in
// parallel, prompt extraction, image generation, timeline assembly, render.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"shortform-pipeline/config"
	"shortform-pipeline/render"
	"shortform-pipeline/segmenter"
	"shortform-pipeline/timeline"
	"shortform-pipeline/tts"
	"shortform-pipeline/types"
	"shortform-pipeline/visuals"
)

// Pipeline produces one short-form video per invocation. Runs are
// synchronous and self-contained: the image cache and all temp files are
// scoped to a single run, so callers wanting parallelism run multiple
// pipelines side by side.
type Pipeline struct {
	cfg      *config.Config
	synth    *tts.Synthesizer
	renderer *render.Renderer

	// newProvider builds the per-run image provider, so each run owns its
	// cache exclusively.
	newProvider func() *visuals.Provider
}

// New creates a Pipeline with the default component stack.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		synth:       tts.NewSynthesizer(cfg),
		renderer:    render.New(cfg),
		newProvider: func() *visuals.Provider { return visuals.NewProvider(cfg) },
	}
}

// NewWithComponents creates a Pipeline with explicit components, used by
// callers and tests that substitute engines or endpoints.
func NewWithComponents(cfg *config.Config, synth *tts.Synthesizer, renderer *render.Renderer, newProvider func() *visuals.Provider) *Pipeline {
	return &Pipeline{cfg: cfg, synth: synth, renderer: renderer, newProvider: newProvider}
}

// GenerateVideo runs the full pipeline for one article. It always returns a
// result: a path relative to the configured output directory on success, or a
// structured failure reason. No partial file is ever left at the output path.
func (p *Pipeline) GenerateVideo(ctx context.Context, articleID int, title, script string) *types.PipelineResult {
	runID := uuid.NewString()[:8]
	result := &types.PipelineResult{ArticleID: articleID, RunID: runID}

	log.Printf("[pipeline] 🎬 run %s: generating video for article %d (%q)", runID, articleID, title)

	// cleaning happens once, ahead of both segmentation and synthesis, so
	// narration never speaks markup and an empty script fails fast
	clean := segmenter.Clean(script)
	if clean == "" {
		result.FailureReason = fmt.Sprintf("segment script: %v", segmenter.ErrEmptyScript)
		return result
	}

	runDir, err := os.MkdirTemp(p.cfg.Paths.Tmp, "shortform-run-"+runID+"-")
	if err != nil {
		result.FailureReason = fmt.Sprintf("create run dir: %v", err)
		return result
	}
	// narration audio and every other intermediate live here; removing the
	// dir releases them on success and failure alike
	defer os.RemoveAll(runDir)

	// Segmentation and narration synthesis are independent of each other.
	var segments []types.Segment
	var narration *types.NarrationTrack

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		segments, err = segmenter.Split(clean, p.segmentMode(), p.cfg.Pacing.WordsPerSegment)
		if err != nil {
			return fmt.Errorf("segment script: %w", err)
		}
		log.Printf("[pipeline] run %s: %d segments", runID, len(segments))
		return nil
	})
	g.Go(func() error {
		var err error
		narration, err = p.synth.Synthesize(gctx, clean, filepath.Join(runDir, "narration.mp3"))
		if err != nil {
			return fmt.Errorf("synthesize narration: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		result.FailureReason = err.Error()
		return result
	}

	segments, prompts := p.buildPrompts(segments, title)

	// Warm the cache across unique prompts; a failure here is a defect in
	// the placeholder/post-process path, not provider weather.
	provider := p.newProvider()
	if err := provider.Prefetch(ctx, uniquePromptsForRuns(prompts, p.cfg.Pacing.ImageEveryNSegments)); err != nil {
		result.FailureReason = fmt.Sprintf("prepare images: %v", err)
		return result
	}

	resolve := func(ctx context.Context, seg types.Segment) (*types.GeneratedImage, error) {
		return provider.Get(ctx, prompts[seg.OrderIndex])
	}
	units, err := timeline.Assemble(ctx, segments, narration, resolve, p.cfg)
	if err != nil {
		result.FailureReason = fmt.Sprintf("assemble timeline: %v", err)
		return result
	}
	log.Printf("[pipeline] run %s: %d units, %d unique images, %.1fs via %s engine",
		runID, len(units), provider.UniqueImages(), narration.DurationSec, narration.Source)

	outName := fmt.Sprintf("article_%d_%s.mp4", articleID, runID)
	outPath := filepath.Join(p.cfg.Paths.Output, outName)
	if err := p.renderer.Render(ctx, units, narration, outPath); err != nil {
		result.FailureReason = fmt.Sprintf("render video: %v", err)
		return result
	}

	result.OutputPath = outName
	log.Printf("[pipeline] ✅ run %s complete: %s", runID, outPath)
	return result
}

// segmentMode maps the configured mode name onto the segmenter's modes,
// defaulting to chunked short-form pacing.
func (p *Pipeline) segmentMode() segmenter.Mode {
	if p.cfg.Pacing.SegmentMode == string(segmenter.ModeSentence) {
		return segmenter.ModeSentence
	}
	return segmenter.ModeChunk
}

// buildPrompts derives one visual prompt per segment and, when enabled,
// prepends the title hook segment that opens the video.
func (p *Pipeline) buildPrompts(segments []types.Segment, title string) ([]types.Segment, []types.VisualPrompt) {
	var out []types.Segment
	var prompts []types.VisualPrompt

	// a title that is pure markup cleans away entirely; no hook then
	if hookText := segmenter.Clean(title); p.cfg.HookOn() && hookText != "" {
		out = append(out, types.Segment{
			Text:      hookText,
			WordCount: len(strings.Fields(hookText)),
		})
		prompts = append(prompts, types.VisualPrompt{Text: visuals.HookPrompt(hookText)})
	}

	for _, seg := range segments {
		out = append(out, seg)
		prompts = append(prompts, visuals.ExtractPrompt(seg, title))
	}
	for i := range out {
		out[i].OrderIndex = i
		prompts[i].SegmentIndex = i
	}
	return out, prompts
}

// uniquePromptsForRuns picks the prompts that will actually be resolved:
// the first segment of each reuse run. Prefetching anything else would defeat
// the cost cap.
func uniquePromptsForRuns(prompts []types.VisualPrompt, cadence int) []types.VisualPrompt {
	var picked []types.VisualPrompt
	for i := 0; i < len(prompts); i += cadence {
		picked = append(picked, prompts[i])
	}
	return picked
}
