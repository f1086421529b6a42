// Package render composites a timeline and narration track into the final
// vertical video via ffmpeg.
package render

import (
	"context"
	"fmt"
	"image/jpeg"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// Renderer assembles the final video from the assembled timeline.
type Renderer struct {
	cfg *config.Config

	// runCommand executes one external encode command; swapped out in tests.
	runCommand func(ctx context.Context, name string, args ...string) error
}

// New creates a Renderer using the real ffmpeg binary.
func New(cfg *config.Config) *Renderer {
	return &Renderer{cfg: cfg, runCommand: runExec}
}

// NewWithRunner creates a Renderer with a custom command runner.
func NewWithRunner(cfg *config.Config, run func(ctx context.Context, name string, args ...string) error) *Renderer {
	return &Renderer{cfg: cfg, runCommand: run}
}

func runExec(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Render writes the composited video to outputPath: one visual per timeline
// unit with its segment text burned in, concatenated in order and muxed with
// the narration. All intermediates live in a run-scoped temp dir that is
// removed on every exit path, and the output file only appears at outputPath
// after a successful encode (write-then-rename).
func (r *Renderer) Render(ctx context.Context, units []types.TimelineUnit, narration *types.NarrationTrack, outputPath string) (err error) {
	if len(units) == 0 {
		return fmt.Errorf("render: empty timeline")
	}

	workDir, err := os.MkdirTemp(r.cfg.Paths.Tmp, "shortform-render-")
	if err != nil {
		return fmt.Errorf("create render work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// encode next to the final path so the rename is atomic; outputPath is
	// only touched by that rename, never by a failed encode
	partial := outputPath + ".partial.mp4"
	defer func() {
		if err != nil {
			os.Remove(partial)
		}
	}()

	listFile, err := r.writeFrameAssets(units, workDir)
	if err != nil {
		return err
	}

	log.Printf("[render] encoding %d units (%.1fs) → %s", len(units), narration.DurationSec, outputPath)

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-i", narration.AudioFile,
		"-vf", r.buildVideoFilter(units),
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", r.cfg.Video.FPS),
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		partial,
	}
	if err := r.runCommand(ctx, "ffmpeg", args...); err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}

	if err := os.Rename(partial, outputPath); err != nil {
		return fmt.Errorf("move output into place: %w", err)
	}

	log.Printf("[render] ✅ final video ready: %s", outputPath)
	return nil
}

// writeFrameAssets encodes each distinct image once and emits the ffconcat
// list giving every unit its display duration.
func (r *Renderer) writeFrameAssets(units []types.TimelineUnit, workDir string) (string, error) {
	framePaths := make(map[*types.GeneratedImage]string)
	for _, unit := range units {
		if unit.Image == nil || unit.Image.Bitmap == nil {
			return "", fmt.Errorf("unit %d has no image", unit.Segment.OrderIndex)
		}
		if _, ok := framePaths[unit.Image]; ok {
			continue
		}
		path := filepath.Join(workDir, fmt.Sprintf("frame_%03d.jpg", len(framePaths)))
		if err := writeJPEG(path, unit.Image); err != nil {
			return "", fmt.Errorf("write frame: %w", err)
		}
		framePaths[unit.Image] = path
	}

	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, unit := range units {
		fmt.Fprintf(&b, "file '%s'\n", framePaths[unit.Image])
		fmt.Fprintf(&b, "duration %.3f\n", unit.DurationSec())
	}
	// concat demuxer ignores the last duration unless the file repeats
	fmt.Fprintf(&b, "file '%s'\n", framePaths[units[len(units)-1].Image])

	listFile := filepath.Join(workDir, "frames.txt")
	if err := os.WriteFile(listFile, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return listFile, nil
}

// buildVideoFilter chains one drawtext per unit, each enabled only inside its
// time range, over a scale to the target frame.
func (r *Renderer) buildVideoFilter(units []types.TimelineUnit) string {
	parts := []string{
		fmt.Sprintf("scale=%d:%d", r.cfg.Video.Width, r.cfg.Video.Height),
	}
	for _, unit := range units {
		parts = append(parts, fmt.Sprintf(
			"drawtext=text='%s':fontsize=%d:fontcolor=%s:borderw=%d:bordercolor=%s:x=(w-text_w)/2:y=h-%d:enable='between(t,%.3f,%.3f)'",
			escapeDrawText(wrapCaption(unit.Segment.Text, r.cfg.Text.WrapChars)),
			r.cfg.Text.FontSize,
			r.cfg.Text.FontColor,
			r.cfg.Text.StrokeWidth,
			r.cfg.Text.StrokeColor,
			r.cfg.Text.BottomMargin,
			unit.StartSec,
			unit.EndSec,
		))
	}
	parts = append(parts, "format=yuv420p")
	return strings.Join(parts, ",")
}

// wrapCaption uppercases the segment text and wraps it to short lines for
// mobile viewing.
func wrapCaption(text string, width int) string {
	words := strings.Fields(strings.ToUpper(text))
	var lines []string
	var line string
	for _, w := range words {
		switch {
		case line == "":
			line = w
		case len(line)+1+len(w) <= width:
			line += " " + w
		default:
			lines = append(lines, line)
			line = w
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// escapeDrawText escapes characters the drawtext filter treats specially.
func escapeDrawText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	s = strings.ReplaceAll(s, ":", `\:`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, ",", `\,`)
	return s
}

func writeJPEG(path string, img *types.GeneratedImage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, img.Bitmap, &jpeg.Options{Quality: 95})
}
