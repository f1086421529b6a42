// Package tts synthesizes the narration track, trying engines in order until
// one produces audio.
package tts

import (
	"context"
	"errors"
	"fmt"
	"log"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// ErrNarrationFailed is returned when every engine in the chain failed. The
// run cannot continue without narration.
var ErrNarrationFailed = errors.New("all voice engines failed")

// Engine converts script text into an audio file and reports its measured
// duration. Implementations must respect ctx for any external work.
type Engine interface {
	Name() string
	Synthesize(ctx context.Context, text, outFile string) (*types.NarrationTrack, error)
}

// Synthesizer tries a chain of engines in order. The last engine is expected
// to have no external dependency so synthesis only fails on a defect.
type Synthesizer struct {
	engines []Engine
}

// NewSynthesizer builds the default chain: the external command engine first,
// the self-contained tone engine as fallback.
func NewSynthesizer(cfg *config.Config) *Synthesizer {
	return &Synthesizer{engines: []Engine{
		NewCommandEngine(cfg),
		NewToneEngine(cfg),
	}}
}

// NewSynthesizerWithEngines builds a chain from explicit engines, first tried
// first.
func NewSynthesizerWithEngines(engines ...Engine) *Synthesizer {
	return &Synthesizer{engines: engines}
}

// Synthesize produces the narration track for the full script, writing audio
// to outFile. The first engine in the chain that succeeds wins; the track
// records which engine produced it.
func (s *Synthesizer) Synthesize(ctx context.Context, text, outFile string) (*types.NarrationTrack, error) {
	var lastErr error
	for i, engine := range s.engines {
		track, err := engine.Synthesize(ctx, text, outFile)
		if err == nil {
			if i == 0 {
				track.Source = types.SourcePrimaryEngine
			} else {
				track.Source = types.SourceFallbackEngine
			}
			track.Engine = engine.Name()
			log.Printf("[tts] ✅ narration ready via %s: %.2fs", engine.Name(), track.DurationSec)
			return track, nil
		}
		lastErr = err
		log.Printf("[tts] ⚠️  engine %s failed: %v — trying next", engine.Name(), err)
	}
	return nil, fmt.Errorf("%w: %v", ErrNarrationFailed, lastErr)
}
