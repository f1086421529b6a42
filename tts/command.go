package tts

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// CommandEngine drives an external TTS binary. Set TTS_COMMAND to a command
// accepting:
//
//	--text "..." --output path/to/file.mp3
//
// If TTS_COMMAND is not set, it falls back to edge-tts when installed. With
// neither available the engine reports itself unconfigured so the chain moves
// on.
type CommandEngine struct {
	cfg *config.Config
}

// NewCommandEngine creates the external-command engine.
func NewCommandEngine(cfg *config.Config) *CommandEngine {
	return &CommandEngine{cfg: cfg}
}

func (e *CommandEngine) Name() string { return "command" }

// Synthesize runs the configured TTS command with a timeout and measures the
// produced file with ffprobe. The playback rate is handed to the engine so
// brisk pacing is baked into the audio itself.
func (e *CommandEngine) Synthesize(ctx context.Context, text, outFile string) (*types.NarrationTrack, error) {
	ttsCmd := strings.TrimSpace(os.Getenv("TTS_COMMAND"))
	if ttsCmd == "" {
		if _, err := exec.LookPath("edge-tts"); err == nil {
			ttsCmd = "edge-tts"
		} else {
			return nil, fmt.Errorf("no TTS engine configured: set TTS_COMMAND or install edge-tts")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.TTSTimeout())
	defer cancel()

	var cmd *exec.Cmd
	switch {
	case ttsCmd == "edge-tts":
		// edge-tts expresses rate as a signed percent offset
		ratePct := int(math.Round((e.cfg.TTS.PlaybackRate - 1.0) * 100))
		cmd = exec.CommandContext(ctx,
			"edge-tts",
			"--voice", e.cfg.TTS.Voice,
			"--rate", fmt.Sprintf("%+d%%", ratePct),
			"--text", text,
			"--write-media", outFile,
		)

	case strings.HasSuffix(ttsCmd, ".py"):
		cmd = exec.CommandContext(ctx,
			"python3", ttsCmd,
			"--text", text,
			"--rate", fmt.Sprintf("%.2f", e.cfg.TTS.PlaybackRate),
			"--output", outFile,
		)

	default:
		cmd = exec.CommandContext(ctx,
			ttsCmd,
			"--text", text,
			"--rate", fmt.Sprintf("%.2f", e.cfg.TTS.PlaybackRate),
			"--output", outFile,
		)
	}

	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tts command: %w", err)
	}

	dur, err := probeAudioDuration(outFile)
	if err != nil {
		return nil, fmt.Errorf("measure narration duration: %w", err)
	}
	if dur <= 0 {
		return nil, fmt.Errorf("tts produced empty audio (%s)", outFile)
	}

	return &types.NarrationTrack{AudioFile: outFile, DurationSec: dur}, nil
}

// probeAudioDuration uses ffprobe to get accurate audio duration in seconds.
func probeAudioDuration(audioFile string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioFile,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}
