// Package timeline binds segments to time ranges derived from the measured
// narration duration and assigns each range a (possibly reused) image.
package timeline

import (
	"context"
	"errors"
	"fmt"

	"shortform-pipeline/config"
	"shortform-pipeline/types"
)

// ErrEmptyTimeline is returned when there are no segments to assemble.
var ErrEmptyTimeline = errors.New("no segments to assemble")

// ImageResolver produces the image for one run of segments. The segment
// passed is the first of its run; all segments in the run share the result.
type ImageResolver func(ctx context.Context, seg types.Segment) (*types.GeneratedImage, error)

// Assemble maps each segment to a contiguous time range covering exactly
// [0, narration.DurationSec). Per-segment duration is proportional to word
// count, clamped to the configured band, then rescaled so the total matches
// the narration with no drift. Segments are grouped into runs of the image
// reuse cadence; each run costs one resolver call.
func Assemble(ctx context.Context, segments []types.Segment, narration *types.NarrationTrack, resolve ImageResolver, cfg *config.Config) ([]types.TimelineUnit, error) {
	if len(segments) == 0 {
		return nil, ErrEmptyTimeline
	}
	if narration == nil || narration.DurationSec <= 0 {
		return nil, fmt.Errorf("narration track has no duration")
	}

	durations := segmentDurations(segments, narration.DurationSec, cfg.Pacing.MinSegmentSec, cfg.Pacing.MaxSegmentSec)

	cadence := cfg.Pacing.ImageEveryNSegments
	units := make([]types.TimelineUnit, 0, len(segments))

	var cursor float64
	var runImage *types.GeneratedImage
	for i, seg := range segments {
		if i%cadence == 0 {
			img, err := resolve(ctx, seg)
			if err != nil {
				return nil, fmt.Errorf("resolve image for segment %d: %w", seg.OrderIndex, err)
			}
			runImage = img
		}

		end := cursor + durations[i]
		if i == len(segments)-1 {
			// snap the final boundary to kill accumulated float drift
			end = narration.DurationSec
		}
		units = append(units, types.TimelineUnit{
			StartSec: cursor,
			EndSec:   end,
			Segment:  seg,
			Image:    runImage,
		})
		cursor = end
	}

	return units, nil
}

// segmentDurations distributes total across segments proportionally to word
// count, clamps each to [min, max], then rescales so the sum equals total
// again. With extreme clamp bands the rescale dominates the clamp: coverage
// of the full narration is the invariant that must hold.
func segmentDurations(segments []types.Segment, total, min, max float64) []float64 {
	totalWords := 0
	for _, seg := range segments {
		totalWords += seg.WordCount
	}

	durations := make([]float64, len(segments))
	var sum float64
	for i, seg := range segments {
		d := total / float64(len(segments))
		if totalWords > 0 {
			d = float64(seg.WordCount) / float64(totalWords) * total
		}
		durations[i] = clamp(d, min, max)
		sum += durations[i]
	}

	if sum > 0 {
		scale := total / sum
		for i := range durations {
			durations[i] *= scale
		}
	}
	return durations
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
