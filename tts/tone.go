package tts

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

const (
	toneSampleRate = 24000
	toneFreqHz     = 440.0
	toneVolume     = 0.12
)

// ToneEngine is the always-available fallback: it writes a paced sequence of
// quiet tones, one per word, as a PCM WAV file. It has no external
// dependency, so it only fails on I/O errors.
type ToneEngine struct {
	cfg *config.Config
}

// NewToneEngine creates the fallback engine.
func NewToneEngine(cfg *config.Config) *ToneEngine {
	return &ToneEngine{cfg: cfg}
}

func (e *ToneEngine) Name() string { return "tone" }

// Synthesize writes a WAV whose length matches the script read at the
// configured words-per-minute, sped up by the playback rate. Duration comes
// straight from the sample count, so no probing tool is needed.
func (e *ToneEngine) Synthesize(ctx context.Context, text, outFile string) (*types.NarrationTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := len(strings.Fields(text))
	if words == 0 {
		return nil, errors.New("no words to synthesize")
	}

	secPerWord := 60.0 / (float64(e.cfg.TTS.WordsPerMinute) * e.cfg.TTS.PlaybackRate)
	samplesPerWord := int(secPerWord * toneSampleRate)
	totalSamples := words * samplesPerWord

	// Tone for the first 60% of each word slot, silence for the rest.
	samples := make([]int16, totalSamples)
	voiced := int(float64(samplesPerWord) * 0.6)
	for w := 0; w < words; w++ {
		base := w * samplesPerWord
		for i := 0; i < voiced; i++ {
			v := toneVolume * math.Sin(2*math.Pi*toneFreqHz*float64(i)/toneSampleRate)
			// Short fade at both edges to avoid clicks.
			if i < 200 {
				v *= float64(i) / 200
			} else if voiced-i < 200 {
				v *= float64(voiced-i) / 200
			}
			samples[base+i] = int16(v * math.MaxInt16)
		}
	}

	wavFile := wavPath(outFile)
	if err := writeWAV(wavFile, samples, toneSampleRate); err != nil {
		return nil, fmt.Errorf("write fallback audio: %w", err)
	}

	return &types.NarrationTrack{
		AudioFile:   wavFile,
		DurationSec: float64(totalSamples) / toneSampleRate,
	}, nil
}

// wavPath swaps the extension for .wav since the engine emits raw PCM.
func wavPath(outFile string) string {
	if i := strings.LastIndex(outFile, "."); i > 0 {
		return outFile[:i] + ".wav"
	}
	return outFile + ".wav"
}

// writeWAV emits a 16-bit mono PCM RIFF file.
func writeWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dataLen := uint32(len(samples) * 2)
	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataLen)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(header[32:34], 2)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataLen)

	if _, err := f.Write(header[:]); err != nil {
		return err
	}
	return binary.Write(f, binary.LittleEndian, samples)
}
