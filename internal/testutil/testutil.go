// Package testutil provides shared test utilities and fixtures.
//
// Generator builds synthetic marker trajectories for a skeleton: every bone
// gets a known base length, and each frame jitters those lengths so the
// data looks like noisy capture. Tests use the known lengths to check
// statistics, enforcement and dimension estimates.
package testutil

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// edge attaches a child marker to its parent, either through a bone (whose
// length is jittered) or rigidly at a fixed offset.
type edge struct {
	child  string
	bone   int // index into Skeleton.Definitions, or -1
	offset r3.Vec
}

// Generator produces synthetic trajectory sets for a skeleton.
type Generator struct {
	Skeleton skeleton.Skeleton

	// Lengths holds the base length of every bone, in meters.
	Lengths map[string]float64

	// Noise is the relative length jitter per bone per frame; 0.05 means
	// lengths vary by up to 5%.
	Noise float64

	// Wobble perturbs bone directions per frame, in radians-ish units.
	Wobble float64

	Seed int64

	roots []string
	adj   map[string][]edge
}

// NewGenerator returns a Generator for skel with DefaultLengths.
func NewGenerator(skel skeleton.Skeleton) *Generator {
	g := &Generator{
		Skeleton: skel,
		Lengths:  DefaultLengths(skel),
		Noise:    0.05,
		Wobble:   0.05,
		Seed:     1,
	}
	g.build()
	return g
}

// DefaultLengths gives every bone a distinct, deterministic length between
// 5cm and 29cm.
func DefaultLengths(skel skeleton.Skeleton) map[string]float64 {
	out := make(map[string]float64, len(skel.Definitions))
	for i, d := range skel.Definitions {
		out[d.Name] = 0.05 + 0.03*float64(i%9)
	}
	return out
}

// direction returns the rest direction of the i-th bone.
func direction(i int) r3.Vec {
	a := 0.9 * float64(i)
	return r3.Unit(r3.Vec{X: math.Cos(a), Y: math.Sin(a), Z: 0.5 + 0.25*math.Sin(1.7*a)})
}

func (g *Generator) build() {
	g.adj = make(map[string][]edge)
	incoming := make(map[string]bool)
	viaBone := make(map[[2]string]bool)

	for i, d := range g.Skeleton.Definitions {
		g.adj[d.Head] = append(g.adj[d.Head], edge{child: d.Tail, bone: i})
		incoming[d.Tail] = true
		viaBone[[2]string{d.Head, d.Tail}] = true
	}
	for _, parent := range g.Skeleton.Hierarchy.Parents() {
		for k, c := range g.Skeleton.Hierarchy[parent] {
			if viaBone[[2]string{parent, c}] || incoming[c] {
				continue
			}
			g.adj[parent] = append(g.adj[parent], edge{
				child:  c,
				bone:   -1,
				offset: r3.Vec{X: 0.01 * float64(k+1), Y: -0.02, Z: 0.015},
			})
			incoming[c] = true
		}
	}

	seen := make(map[string]bool)
	for _, m := range g.Skeleton.Markers() {
		if !incoming[m] && !seen[m] {
			g.roots = append(g.roots, m)
			seen[m] = true
		}
	}
	sort.Strings(g.roots)
}

// Set generates frames frames of data. The whole skeleton drifts along +X
// and every bone's length and direction are jittered independently per
// frame.
func (g *Generator) Set(frames int) *trajectory.Set {
	if g.adj == nil {
		g.build()
	}
	rng := rand.New(rand.NewSource(g.Seed))

	series := make(map[string][]r3.Vec)
	for f := 0; f < frames; f++ {
		base := r3.Vec{X: 0.01 * float64(f), Y: 0, Z: 1}
		queue := make([]string, 0, len(g.roots))
		pos := make(map[string]r3.Vec)
		for i, r := range g.roots {
			pos[r] = r3.Add(base, r3.Vec{X: 0.5 * float64(i)})
			queue = append(queue, r)
		}
		for len(queue) > 0 {
			m := queue[0]
			queue = queue[1:]
			for _, e := range g.adj[m] {
				if _, done := pos[e.child]; done {
					continue
				}
				if e.bone < 0 {
					pos[e.child] = r3.Add(pos[m], e.offset)
				} else {
					d := g.Skeleton.Definitions[e.bone]
					length := g.Lengths[d.Name] * (1 + g.Noise*(2*rng.Float64()-1))
					dir := r3.Add(direction(e.bone), r3.Vec{
						X: g.Wobble * (2*rng.Float64() - 1),
						Y: g.Wobble * (2*rng.Float64() - 1),
						Z: g.Wobble * (2*rng.Float64() - 1),
					})
					pos[e.child] = r3.Add(pos[m], r3.Scale(length, r3.Unit(dir)))
				}
				queue = append(queue, e.child)
			}
		}
		for m, p := range pos {
			series[m] = append(series[m], p)
		}
	}

	names := make([]string, 0, len(series))
	for m := range series {
		names = append(names, m)
	}
	sort.Strings(names)

	set := trajectory.NewSet(frames)
	for _, m := range names {
		if err := set.Add(m, series[m]); err != nil {
			panic(err)
		}
	}
	return set
}

// TwoMarkerSet returns a set with markers "head" and "tail" where the tail
// sits lengths[f] away from the head along a fixed diagonal on frame f.
func TwoMarkerSet(lengths []float64) *trajectory.Set {
	dir := r3.Unit(r3.Vec{X: 1, Y: 2, Z: 2})
	head := make([]r3.Vec, len(lengths))
	tail := make([]r3.Vec, len(lengths))
	for f, l := range lengths {
		head[f] = r3.Vec{X: 0.1 * float64(f), Y: 0.5, Z: 1}
		tail[f] = r3.Add(head[f], r3.Scale(l, dir))
	}
	set := trajectory.NewSet(len(lengths))
	_ = set.Add("head", head)
	_ = set.Add("tail", tail)
	return set
}

// Drop marks marker as missing on the given frames, in place.
func Drop(set *trajectory.Set, marker string, frames ...int) {
	p := set.Positions(marker)
	for _, f := range frames {
		p[f] = trajectory.Missing
	}
}

// ConstantErrors returns an error set with value v for every marker of set
// on every frame.
func ConstantErrors(set *trajectory.Set, v float64) *trajectory.ErrorSet {
	errs := trajectory.NewErrorSet(set.Frames())
	for _, m := range set.Names() {
		values := make([]float64, set.Frames())
		for f := range values {
			values[f] = v
		}
		_ = errs.Add(m, values)
	}
	return errs
}
