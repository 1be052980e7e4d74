package rigidity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/mocap.rigidity/internal/monitoring"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
)

const (
	DefaultVelocityPercentile = 10.0
	DefaultIgnoreFirstFrames  = 30
	DefaultVelocityNoiseFloor = 1e-9
)

// GoodFrameOptions parameterise SelectGoodFrame.
type GoodFrameOptions struct {
	// VelocityPercentile is the per-marker low-velocity percentile, 0..100.
	// Frames at or below it count as frozen tracking.
	VelocityPercentile float64
	// IgnoreFirstFrames skips calibration transients at the start of a
	// capture. Those frames never qualify and do not contribute to the
	// percentile: the threshold is taken over the remaining frames only,
	// not the whole capture, so start-up motion cannot shift it.
	IgnoreFirstFrames int
	// NoiseFloor is the displacement below which a marker is treated as not
	// moving at all.
	NoiseFloor float64
	// Markers restricts selection to the named markers. Empty means every
	// marker in the trajectory set.
	Markers []string
}

// DefaultGoodFrameOptions returns the standard selection parameters.
func DefaultGoodFrameOptions() GoodFrameOptions {
	return GoodFrameOptions{
		VelocityPercentile: DefaultVelocityPercentile,
		IgnoreFirstFrames:  DefaultIgnoreFirstFrames,
		NoiseFloor:         DefaultVelocityNoiseFloor,
	}
}

// markerVelocities returns frame-to-frame displacement magnitudes. Frame 0,
// and any frame where either sample is missing, is NaN.
func markerVelocities(positions []r3.Vec) []float64 {
	v := make([]float64, len(positions))
	if len(v) == 0 {
		return v
	}
	v[0] = math.NaN()
	for f := 1; f < len(positions); f++ {
		if trajectory.IsMissing(positions[f]) || trajectory.IsMissing(positions[f-1]) {
			v[f] = math.NaN()
			continue
		}
		v[f] = r3.Norm(r3.Sub(positions[f], positions[f-1]))
	}
	return v
}

// percentile returns the p-th percentile (0..100) of values, interpolating
// linearly between closest ranks: rank h = (n-1)p/100 blends sorted[floor(h)]
// and sorted[floor(h)+1]. values must be non-empty.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	h := float64(len(sorted)-1) * p / 100
	lo := int(math.Floor(h))
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// qualifyingFrames returns, in ascending order, the frames on which one
// marker looks still but not frozen.
func qualifyingFrames(velocity, trackErr []float64, opts GoodFrameOptions) []int {
	start := opts.IgnoreFirstFrames
	if start < 1 {
		start = 1
	}
	if start >= len(velocity) {
		return nil
	}

	defined := definedValues(velocity[start:])
	if len(defined) == 0 {
		return nil
	}
	threshold := percentile(defined, opts.VelocityPercentile)

	var frames []int
	for f := start; f < len(velocity); f++ {
		v := velocity[f]
		if math.IsNaN(v) || math.IsNaN(trackErr[f]) {
			continue
		}
		if v > threshold && v > opts.NoiseFloor {
			frames = append(frames, f)
		}
	}
	return frames
}

// intersect keeps the frames of a that also appear in b. Both are sorted.
func intersect(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// SelectGoodFrame picks the frame that best represents a stable, low-error
// rest pose across all markers.
//
// For each marker a frame qualifies when its velocity is defined, above the
// marker's low-velocity percentile, above the noise floor, and its tracking
// error is defined. Candidates are the frames that qualify for every marker.
// Each marker's candidate velocities are divided by that marker's smallest
// candidate velocity, the ratios are averaged per frame, and the frame with
// the lowest mean wins. Ties go to the earliest frame.
//
// Inputs are never modified.
func SelectGoodFrame(set *trajectory.Set, errs *trajectory.ErrorSet, opts GoodFrameOptions) (int, error) {
	if set == nil || errs == nil {
		return 0, fmt.Errorf("select good frame: trajectory and error sets are required")
	}
	if errs.Frames() != set.Frames() {
		return 0, fmt.Errorf("select good frame: error set has %d frames, trajectory set has %d", errs.Frames(), set.Frames())
	}
	if opts.VelocityPercentile < 0 || opts.VelocityPercentile > 100 {
		return 0, fmt.Errorf("select good frame: velocity percentile %v outside 0..100", opts.VelocityPercentile)
	}

	markers := opts.Markers
	if len(markers) == 0 {
		markers = set.Names()
	} else {
		markers = append([]string(nil), markers...)
		sort.Strings(markers)
	}
	if len(markers) == 0 {
		return 0, &NoGoodFrameError{Reason: "trajectory set has no markers"}
	}

	var missing []error
	for _, m := range markers {
		if !set.Has(m) {
			missing = append(missing, fmt.Errorf("trajectory set: %w", &MissingMarkerError{Marker: m}))
		}
		if !errs.Has(m) {
			missing = append(missing, fmt.Errorf("error set: %w", &MissingMarkerError{Marker: m}))
		}
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("select good frame: %w", errors.Join(missing...))
	}

	velocities := make(map[string][]float64, len(markers))
	var candidates []int
	var empty []string
	for i, m := range markers {
		v := markerVelocities(set.Positions(m))
		velocities[m] = v
		q := qualifyingFrames(v, errs.Values(m), opts)
		if len(q) == 0 {
			empty = append(empty, m)
		}
		if i == 0 {
			candidates = q
		} else {
			candidates = intersect(candidates, q)
		}
	}
	if len(empty) > 0 {
		return 0, &NoGoodFrameError{Reason: "markers never qualify", Markers: empty}
	}
	if len(candidates) == 0 {
		return 0, &NoGoodFrameError{Reason: "no frame qualifies for every marker"}
	}

	score := make([]float64, len(candidates))
	normalized := make([]float64, len(candidates))
	for _, m := range markers {
		v := velocities[m]
		for i, f := range candidates {
			normalized[i] = v[f]
		}
		floats.Scale(1/floats.Min(normalized), normalized)
		floats.Add(score, normalized)
	}
	floats.Scale(1/float64(len(markers)), score)

	best := floats.MinIdx(score)
	monitoring.Debugf("good frame %d selected from %d candidates (score %.4f)",
		candidates[best], len(candidates), score[best])
	return candidates[best], nil
}
