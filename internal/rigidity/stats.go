package rigidity

import (
	"errors"
	"math"
	"sort"

	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// BoneStats holds the per-frame length series of one bone and its summary.
type BoneStats struct {
	Name string
	Head string
	Tail string

	// Lengths has one entry per frame; NaN where either endpoint was missing.
	Lengths []float64

	Median  float64 // median of defined lengths
	Stdev   float64 // sample standard deviation of defined lengths
	Defined int     // number of defined lengths
}

// CV returns the coefficient of variation, Stdev / Median. NaN when the
// median is zero.
func (b *BoneStats) CV() float64 {
	if b.Median == 0 {
		return math.NaN()
	}
	return b.Stdev / b.Median
}

// Statistics holds BoneStats in bone definition order.
type Statistics struct {
	bones []*BoneStats
	index map[string]int
}

func newStatistics(capacity int) *Statistics {
	return &Statistics{
		bones: make([]*BoneStats, 0, capacity),
		index: make(map[string]int, capacity),
	}
}

func (s *Statistics) add(b *BoneStats) {
	s.index[b.Name] = len(s.bones)
	s.bones = append(s.bones, b)
}

// Bones returns the entries in definition order.
func (s *Statistics) Bones() []*BoneStats { return s.bones }

// Len returns the number of bones.
func (s *Statistics) Len() int { return len(s.bones) }

// Get returns the statistics for the named bone.
func (s *Statistics) Get(name string) (*BoneStats, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.bones[i], true
}

// Names returns bone names in definition order.
func (s *Statistics) Names() []string {
	out := make([]string, len(s.bones))
	for i, b := range s.bones {
		out[i] = b.Name
	}
	return out
}

// definedValues returns the entries of xs that are not NaN, in order. It is
// the single place where the undefined-sample policy lives: every summary
// statistic is computed over its output.
func definedValues(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// median returns the median of values, averaging the two middle entries for
// even counts. values is not modified.
func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// boneLengths returns the per-frame Euclidean distance between head and
// tail, NaN where either sample is missing.
func boneLengths(head, tail []r3.Vec) []float64 {
	out := make([]float64, len(head))
	for f := range head {
		if trajectory.IsMissing(head[f]) || trajectory.IsMissing(tail[f]) {
			out[f] = math.NaN()
			continue
		}
		out[f] = r3.Norm(r3.Sub(tail[f], head[f]))
	}
	return out
}

// computeBone measures one bone. Both markers must exist in set.
func computeBone(set *trajectory.Set, def skeleton.BoneDefinition) (*BoneStats, error) {
	lengths := boneLengths(set.Positions(def.Head), set.Positions(def.Tail))
	defined := definedValues(lengths)

	b := &BoneStats{
		Name:    def.Name,
		Head:    def.Head,
		Tail:    def.Tail,
		Lengths: lengths,
		Defined: len(defined),
	}
	if len(defined) < 2 {
		return b, &InsufficientDataError{Bone: def.Name, Defined: len(defined)}
	}
	b.Median = median(defined)
	b.Stdev = stat.StdDev(defined, nil)
	return b, nil
}

// ComputeStatistics measures every bone in defs over set.
//
// Failures are collected rather than stopping at the first: bones whose
// markers are missing (*MissingMarkerError) or that have fewer than two
// defined samples (*InsufficientDataError) are left out of the result and
// reported together in the joined error. The returned Statistics is valid
// for every bone not named in the error.
func ComputeStatistics(set *trajectory.Set, defs skeleton.Definitions) (*Statistics, error) {
	out := newStatistics(len(defs))
	var errs []error

	for _, def := range defs {
		missing := false
		for _, m := range []string{def.Head, def.Tail} {
			if !set.Has(m) {
				errs = append(errs, &MissingMarkerError{Bone: def.Name, Marker: m})
				missing = true
			}
		}
		if missing {
			continue
		}

		b, err := computeBone(set, def)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out.add(b)
	}
	return out, errors.Join(errs...)
}
