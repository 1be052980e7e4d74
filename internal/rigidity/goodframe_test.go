package rigidity

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/mocap.rigidity/internal/testutil"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
)

// stillnessSet builds markers that walk along +X one step per frame. step
// gives the displacement into frame f (f >= 1); each marker's steps are
// multiplied by its own factor.
func stillnessSet(t *testing.T, frames int, step func(f int) float64, factors map[string]float64) *trajectory.Set {
	t.Helper()
	set := trajectory.NewSet(frames)
	i := 0
	for _, name := range []string{"a", "b", "c"} {
		k, ok := factors[name]
		if !ok {
			continue
		}
		p := make([]r3.Vec, frames)
		p[0] = r3.Vec{Y: float64(i)}
		for f := 1; f < frames; f++ {
			p[f] = r3.Add(p[f-1], r3.Vec{X: k * step(f)})
		}
		require.NoError(t, set.Add(name, p))
		i++
	}
	return set
}

// restStep freezes frames 10..19 and slows every marker on frame 40. Steps
// are exact binary fractions so equal velocities compare equal.
func restStep(f int) float64 {
	switch {
	case f >= 10 && f <= 19:
		return 0
	case f == 40:
		return 0.25
	default:
		return 1
	}
}

func restOptions() GoodFrameOptions {
	opts := DefaultGoodFrameOptions()
	opts.IgnoreFirstFrames = 5
	return opts
}

var threeMarkers = map[string]float64{"a": 1, "b": 2, "c": 0.5}

func TestSelectGoodFrame_UniqueRestFrame(t *testing.T) {
	set := stillnessSet(t, 60, restStep, threeMarkers)
	errs := testutil.ConstantErrors(set, 0.1)
	origSet, origErrs := set.Clone(), errs.Values("a")[0]

	frame, err := SelectGoodFrame(set, errs, restOptions())
	require.NoError(t, err)
	assert.Equal(t, 40, frame)

	assert.True(t, set.Equal(origSet))
	assert.Equal(t, origErrs, errs.Values("a")[0])
}

func TestSelectGoodFrame_Deterministic(t *testing.T) {
	set := stillnessSet(t, 60, restStep, threeMarkers)
	errs := testutil.ConstantErrors(set, 0.1)

	first, err := SelectGoodFrame(set, errs, restOptions())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := SelectGoodFrame(set, errs, restOptions())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSelectGoodFrame_UndefinedErrorExcludesFrame(t *testing.T) {
	set := stillnessSet(t, 60, restStep, threeMarkers)
	errs := testutil.ConstantErrors(set, 0.1)
	errs.Values("b")[40] = math.NaN()

	frame, err := SelectGoodFrame(set, errs, restOptions())
	require.NoError(t, err)
	// Every remaining candidate scores the same; the earliest wins.
	assert.Equal(t, 5, frame)
}

func TestSelectGoodFrame_IgnoresLeadingFrames(t *testing.T) {
	step := func(f int) float64 {
		switch {
		case f == 3:
			return 0.125
		case f >= 10 && f <= 19:
			return 0
		case f == 40:
			return 0.25
		default:
			return 1
		}
	}
	set := stillnessSet(t, 60, step, threeMarkers)
	errs := testutil.ConstantErrors(set, 0.1)

	frame, err := SelectGoodFrame(set, errs, restOptions())
	require.NoError(t, err)
	assert.Equal(t, 40, frame)

	opts := restOptions()
	opts.IgnoreFirstFrames = 0
	frame, err = SelectGoodFrame(set, errs, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, frame)
}

func TestSelectGoodFrame_FrozenFramesNeverQualify(t *testing.T) {
	set := stillnessSet(t, 60, restStep, threeMarkers)
	errs := testutil.ConstantErrors(set, 0.1)

	frame, err := SelectGoodFrame(set, errs, restOptions())
	require.NoError(t, err)
	assert.False(t, frame >= 10 && frame <= 19, "frozen frame %d selected", frame)
}

func TestSelectGoodFrame_NoGoodFrame(t *testing.T) {
	frozen := func(f int) float64 {
		if f < 5 {
			return 1
		}
		return 0
	}
	set := stillnessSet(t, 30, frozen, threeMarkers)
	errs := testutil.ConstantErrors(set, 0.1)

	_, err := SelectGoodFrame(set, errs, restOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoGoodFrame))

	var ng *NoGoodFrameError
	require.True(t, errors.As(err, &ng))
	assert.Equal(t, []string{"a", "b", "c"}, ng.Markers)
}

func TestSelectGoodFrame_EmptyIntersection(t *testing.T) {
	step := func(f int) float64 { return float64(1 + f%3) }
	set := stillnessSet(t, 40, step, map[string]float64{"a": 1, "b": 1})
	errs := testutil.ConstantErrors(set, 0.1)
	for f := 0; f < 40; f++ {
		if f%2 == 0 {
			errs.Values("a")[f] = math.NaN()
		} else {
			errs.Values("b")[f] = math.NaN()
		}
	}

	opts := restOptions()
	opts.VelocityPercentile = 0
	_, err := SelectGoodFrame(set, errs, opts)
	require.Error(t, err)

	var ng *NoGoodFrameError
	require.True(t, errors.As(err, &ng))
	assert.Empty(t, ng.Markers)
}

func TestSelectGoodFrame_MarkerSubset(t *testing.T) {
	slowC := func(f int) float64 {
		if f >= 10 && f <= 19 {
			return 0
		}
		if f == 25 {
			return 0.25
		}
		return 1
	}
	set := stillnessSet(t, 60, restStep, map[string]float64{"a": 1, "b": 1})
	c := stillnessSet(t, 60, slowC, map[string]float64{"c": 1})
	require.NoError(t, set.Add("c", c.Positions("c")))
	errs := testutil.ConstantErrors(set, 0.1)

	opts := restOptions()
	opts.Markers = []string{"c"}
	frame, err := SelectGoodFrame(set, errs, opts)
	require.NoError(t, err)
	assert.Equal(t, 25, frame)

	opts.Markers = []string{"b", "a"}
	frame, err = SelectGoodFrame(set, errs, opts)
	require.NoError(t, err)
	assert.Equal(t, 40, frame)
}

func TestSelectGoodFrame_InputErrors(t *testing.T) {
	set := stillnessSet(t, 60, restStep, threeMarkers)

	t.Run("missing error series", func(t *testing.T) {
		errs := trajectory.NewErrorSet(60)
		require.NoError(t, errs.Add("a", make([]float64, 60)))
		_, err := SelectGoodFrame(set, errs, restOptions())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingMarker))
		assert.Contains(t, err.Error(), `"b"`)
		assert.Contains(t, err.Error(), `"c"`)
	})

	t.Run("unknown marker", func(t *testing.T) {
		opts := restOptions()
		opts.Markers = []string{"zz"}
		_, err := SelectGoodFrame(set, testutil.ConstantErrors(set, 0.1), opts)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingMarker))
	})

	t.Run("frame mismatch", func(t *testing.T) {
		_, err := SelectGoodFrame(set, trajectory.NewErrorSet(59), restOptions())
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrMissingMarker))
		assert.Contains(t, err.Error(), "59 frames")
	})

	t.Run("percentile range", func(t *testing.T) {
		opts := restOptions()
		opts.VelocityPercentile = 101
		_, err := SelectGoodFrame(set, testutil.ConstantErrors(set, 0.1), opts)
		require.Error(t, err)
	})
}

func TestMarkerVelocities(t *testing.T) {
	p := []r3.Vec{{}, {X: 3, Y: 4}, trajectory.Missing, {X: 3, Y: 4}, {X: 3, Y: 5}}
	v := markerVelocities(p)
	require.Len(t, v, 5)
	assert.True(t, math.IsNaN(v[0]))
	assert.Equal(t, 5.0, v[1])
	assert.True(t, math.IsNaN(v[2]))
	assert.True(t, math.IsNaN(v[3]))
	assert.Equal(t, 1.0, v[4])
}

func TestPercentile_Bounds(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, percentile(values, 0))
	assert.Equal(t, 4.0, percentile(values, 100))
	assert.Equal(t, 7.0, percentile([]float64{7, 7, 7}, 10))
	assert.Equal(t, []float64{4, 1, 3, 2}, values)
}

func TestPercentile_ClosestRanks(t *testing.T) {
	values := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	tests := []struct {
		p    float64
		want float64
	}{
		{p: 10, want: 1.9},
		{p: 25, want: 3.25},
		{p: 50, want: 5.5},
		{p: 90, want: 9.1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, percentile(values, tt.p), 1e-12, "p=%v", tt.p)
	}
	assert.InDelta(t, 1.75, percentile([]float64{4, 1, 3, 2}, 25), 1e-12)
	assert.Equal(t, 3.0, percentile([]float64{3}, 10))
}

func TestQualifyingFrames_ThresholdInterpolates(t *testing.T) {
	// Velocities 1..10 on frames 1..10: the 15th percentile is 2.35, so
	// frames 1 and 2 fall below it.
	velocity := []float64{math.NaN(), 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	trackErr := make([]float64, len(velocity))
	opts := GoodFrameOptions{VelocityPercentile: 15, NoiseFloor: DefaultVelocityNoiseFloor}

	frames := qualifyingFrames(velocity, trackErr, opts)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9, 10}, frames)
}

func TestIntersect(t *testing.T) {
	assert.Equal(t, []int{3, 7}, intersect([]int{1, 3, 5, 7}, []int{2, 3, 7, 9}))
	assert.Empty(t, intersect([]int{1}, nil))
}
