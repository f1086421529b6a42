package timeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

func makeSegments(texts ...string) []types.Segment {
	segments := make([]types.Segment, len(texts))
	for i, text := range texts {
		segments[i] = types.Segment{
			Text:       text,
			WordCount:  len(strings.Fields(text)),
			OrderIndex: i,
		}
	}
	return segments
}

func countingResolver(calls *int) ImageResolver {
	return func(ctx context.Context, seg types.Segment) (*types.GeneratedImage, error) {
		*calls++
		return &types.GeneratedImage{Processed: true}, nil
	}
}

func TestAssembleCoversNarrationExactly(t *testing.T) {
	cfg := config.Default()
	segments := makeSegments(
		"Did you know AI",
		"is completely transforming how",
		"we work today and",
		"every single day after",
		"this one",
	)
	narration := &types.NarrationTrack{DurationSec: 12.34}

	var calls int
	units, err := Assemble(context.Background(), segments, narration, countingResolver(&calls), cfg)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(units) != len(segments) {
		t.Fatalf("units = %d, want %d", len(units), len(segments))
	}

	if units[0].StartSec != 0 {
		t.Errorf("first unit starts at %.3f, want 0", units[0].StartSec)
	}
	var total float64
	for i, u := range units {
		if u.EndSec <= u.StartSec {
			t.Errorf("unit %d has non-positive duration", i)
		}
		if i > 0 && math.Abs(u.StartSec-units[i-1].EndSec) > 1e-9 {
			t.Errorf("gap between unit %d and %d: %.6f vs %.6f", i-1, i, units[i-1].EndSec, u.StartSec)
		}
		total += u.DurationSec()
	}
	if math.Abs(total-narration.DurationSec) > 1e-9 {
		t.Errorf("total duration = %.6f, want %.6f exactly", total, narration.DurationSec)
	}
	if units[len(units)-1].EndSec != narration.DurationSec {
		t.Errorf("last unit ends at %.6f, want %.6f", units[len(units)-1].EndSec, narration.DurationSec)
	}
}

func TestAssembleImageReuseCadence(t *testing.T) {
	cfg := config.Default()
	cfg.Pacing.ImageEveryNSegments = 3

	segments := makeSegments("a b c", "d e f", "g h", "i j k", "l m", "n o p", "q r")
	narration := &types.NarrationTrack{DurationSec: 16}

	var calls int
	units, err := Assemble(context.Background(), segments, narration, countingResolver(&calls), cfg)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	// ceil(7/3) = 3 resolver calls
	if calls != 3 {
		t.Errorf("resolver calls = %d, want 3", calls)
	}
	if units[0].Image != units[1].Image || units[1].Image != units[2].Image {
		t.Error("segments 0-2 should share one image")
	}
	if units[2].Image == units[3].Image {
		t.Error("segment 3 should start a new image run")
	}
	if units[6].Image == units[5].Image || units[5].Image == units[2].Image {
		t.Error("unexpected image sharing across runs")
	}
}

func TestAssembleClampWithinBand(t *testing.T) {
	cfg := config.Default()
	cfg.Pacing.MinSegmentSec = 1.5
	cfg.Pacing.MaxSegmentSec = 3.5

	// 12 words over 4 segments, 8 seconds: proportional durations all land
	// inside the band, so clamping must not disturb them
	segments := makeSegments("a b c", "d e f", "g h i", "j k l")
	narration := &types.NarrationTrack{DurationSec: 8}

	var calls int
	units, err := Assemble(context.Background(), segments, narration, countingResolver(&calls), cfg)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	for i, u := range units {
		if math.Abs(u.DurationSec()-2.0) > 1e-9 {
			t.Errorf("unit %d duration = %.3f, want 2.0", i, u.DurationSec())
		}
	}
}

func TestAssembleRescalesAfterClamp(t *testing.T) {
	cfg := config.Default()

	// one huge segment and one tiny one force both clamp edges
	segments := makeSegments(
		strings.Repeat("word ", 50),
		"tiny",
	)
	narration := &types.NarrationTrack{DurationSec: 6}

	var calls int
	units, err := Assemble(context.Background(), segments, narration, countingResolver(&calls), cfg)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	var total float64
	for _, u := range units {
		total += u.DurationSec()
	}
	if math.Abs(total-6) > 1e-9 {
		t.Errorf("rescaled total = %.6f, want 6", total)
	}
	// the long segment still gets more time than the tiny one
	if units[0].DurationSec() <= units[1].DurationSec() {
		t.Errorf("durations %0.3f vs %0.3f: proportionality lost", units[0].DurationSec(), units[1].DurationSec())
	}
}

func TestAssembleEmptySegments(t *testing.T) {
	_, err := Assemble(context.Background(), nil, &types.NarrationTrack{DurationSec: 5}, countingResolver(new(int)), config.Default())
	if !errors.Is(err, ErrEmptyTimeline) {
		t.Fatalf("error = %v, want ErrEmptyTimeline", err)
	}
}

func TestAssembleResolverFailureIsFatal(t *testing.T) {
	failing := func(ctx context.Context, seg types.Segment) (*types.GeneratedImage, error) {
		return nil, fmt.Errorf("boom")
	}
	_, err := Assemble(context.Background(), makeSegments("a b"), &types.NarrationTrack{DurationSec: 5}, failing, config.Default())
	if err == nil {
		t.Fatal("resolver defects must propagate")
	}
}

func TestAssembleNoNarrationDuration(t *testing.T) {
	_, err := Assemble(context.Background(), makeSegments("a b"), &types.NarrationTrack{}, countingResolver(new(int)), config.Default())
	if err == nil {
		t.Fatal("zero-duration narration must be rejected")
	}
}
