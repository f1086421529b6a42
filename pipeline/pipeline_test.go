package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortform-pipeline/config"
	"shortform-pipeline/render"
	"shortform-pipeline/tts"
	"shortform-pipeline/visuals"
)

const testScript = "AI is changing everything. Tools can write code. Start experimenting today."

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Paths.Output = filepath.Join(t.TempDir(), "videos")
	cfg.Paths.Tmp = t.TempDir()
	return cfg
}

// testPipeline wires a pipeline with no external dependencies: tone engine
// narration, unconfigured image provider, fake encoder.
func testPipeline(cfg *config.Config, encode func(args []string) error) (*Pipeline, *providerHandle) {
	handle := &providerHandle{}
	runner := func(ctx context.Context, name string, args ...string) error {
		return encode(args)
	}
	return NewWithComponents(
		cfg,
		tts.NewSynthesizerWithEngines(tts.NewToneEngine(cfg)),
		render.NewWithRunner(cfg, runner),
		func() *visuals.Provider {
			handle.p = visuals.NewProviderForEndpoint(cfg, "", "")
			return handle.p
		},
	), handle
}

type providerHandle struct{ p *visuals.Provider }

func writeEncodedOutput(args []string) error {
	return os.WriteFile(args[len(args)-1], []byte("mp4"), 0644)
}

func TestGenerateVideoWithoutAnyCredentials(t *testing.T) {
	cfg := testConfig(t)
	p, handle := testPipeline(cfg, writeEncodedOutput)

	result := p.GenerateVideo(context.Background(), 42, "AI is Changing Everything", testScript)
	if !result.OK() {
		t.Fatalf("run failed: %s", result.FailureReason)
	}
	if result.ArticleID != 42 || result.RunID == "" {
		t.Errorf("result metadata incomplete: %+v", result)
	}
	if !strings.HasPrefix(result.OutputPath, "article_42_") {
		t.Errorf("output path = %q", result.OutputPath)
	}
	if filepath.IsAbs(result.OutputPath) {
		t.Errorf("output path must be relative to the output dir: %q", result.OutputPath)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.Output, result.OutputPath)); err != nil {
		t.Fatalf("video file missing: %v", err)
	}

	// 12 script words at 4 per chunk → 3 segments, plus the title hook = 4;
	// at cadence 3 that is at most ceil(4/3) = 2 unique images
	if got := handle.p.UniqueImages(); got > 2 {
		t.Errorf("unique images = %d, want at most 2", got)
	}
}

func TestGenerateVideoHookDisabled(t *testing.T) {
	cfg := testConfig(t)
	off := false
	cfg.Pacing.HookEnabled = &off
	p, handle := testPipeline(cfg, writeEncodedOutput)

	result := p.GenerateVideo(context.Background(), 1, "AI is Changing Everything", testScript)
	if !result.OK() {
		t.Fatalf("run failed: %s", result.FailureReason)
	}
	// 3 segments at cadence 3 → exactly 1 unique image (all segments map to
	// the same generic-or-keyword concept resolution path)
	if got := handle.p.UniqueImages(); got != 1 {
		t.Errorf("unique images = %d, want 1", got)
	}
}

func TestGenerateVideoMarkupOnlyTitleSkipsHook(t *testing.T) {
	cfg := testConfig(t)
	p, handle := testPipeline(cfg, writeEncodedOutput)

	// the title cleans away to nothing, so no hook segment may be created
	result := p.GenerateVideo(context.Background(), 5, "** [DRAFT] **", testScript)
	if !result.OK() {
		t.Fatalf("run failed: %s", result.FailureReason)
	}
	// 3 script segments and no hook → one image run at cadence 3
	if got := handle.p.UniqueImages(); got != 1 {
		t.Errorf("unique images = %d, want 1 (a hook would add a second run)", got)
	}
}

func TestGenerateVideoSentenceMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pacing.SegmentMode = "sentence"
	cfg.Pacing.ImageEveryNSegments = 1
	off := false
	cfg.Pacing.HookEnabled = &off
	p, handle := testPipeline(cfg, writeEncodedOutput)

	result := p.GenerateVideo(context.Background(), 6, "Title", testScript)
	if !result.OK() {
		t.Fatalf("run failed: %s", result.FailureReason)
	}
	// three sentences, one image run each, and the prompts all differ
	if got := handle.p.UniqueImages(); got != 3 {
		t.Errorf("unique images = %d, want 3 for three sentences at cadence 1", got)
	}
}

func TestGenerateVideoEmptyScript(t *testing.T) {
	cfg := testConfig(t)
	p, _ := testPipeline(cfg, writeEncodedOutput)

	result := p.GenerateVideo(context.Background(), 7, "A Title", "[HOOK] **  **")
	if result.OK() {
		t.Fatal("empty script must fail the run")
	}
	if !strings.Contains(result.FailureReason, "segment script") {
		t.Errorf("failure reason = %q", result.FailureReason)
	}

	entries, _ := os.ReadDir(cfg.Paths.Output)
	if len(entries) != 0 {
		t.Errorf("failed run left files in output dir: %v", entries)
	}
}

func TestGenerateVideoRenderFailureCleansUp(t *testing.T) {
	cfg := testConfig(t)
	p, _ := testPipeline(cfg, func(args []string) error {
		os.WriteFile(args[len(args)-1], []byte("partial"), 0644)
		return fmt.Errorf("disk full")
	})

	result := p.GenerateVideo(context.Background(), 9, "Title", testScript)
	if result.OK() {
		t.Fatal("render failure must fail the run")
	}
	if !strings.Contains(result.FailureReason, "render video") {
		t.Errorf("failure reason = %q", result.FailureReason)
	}

	// no partial or final file may remain at the output location
	entries, err := os.ReadDir(cfg.Paths.Output)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("failed run left %v in output dir", entries)
	}

	// run-scoped temp dirs (narration audio included) must be gone
	tmpEntries, err := os.ReadDir(cfg.Paths.Tmp)
	if err != nil {
		t.Fatalf("read tmp dir: %v", err)
	}
	if len(tmpEntries) != 0 {
		t.Errorf("run left temp files behind: %v", tmpEntries)
	}
}

func TestGenerateVideoNarrationFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	handle := &providerHandle{}
	p := NewWithComponents(
		cfg,
		tts.NewSynthesizerWithEngines(), // no engines at all
		render.NewWithRunner(cfg, func(ctx context.Context, name string, args ...string) error {
			t.Fatal("renderer must not run without narration")
			return nil
		}),
		func() *visuals.Provider {
			handle.p = visuals.NewProviderForEndpoint(cfg, "", "")
			return handle.p
		},
	)

	result := p.GenerateVideo(context.Background(), 3, "Title", testScript)
	if result.OK() {
		t.Fatal("narration failure must fail the run")
	}
	if !strings.Contains(result.FailureReason, "narration") {
		t.Errorf("failure reason = %q", result.FailureReason)
	}
}
