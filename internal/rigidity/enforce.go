package rigidity

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/mocap.rigidity/internal/monitoring"
	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultZeroLengthEpsilon replaces an exactly-zero bone length so the bone
// direction can be formed without dividing by zero.
const DefaultZeroLengthEpsilon = 1e-4

// EnforcerConfig configures a rigid length enforcement pass.
type EnforcerConfig struct {
	// Epsilon substitutes for zero raw lengths. Zero means
	// DefaultZeroLengthEpsilon.
	Epsilon float64

	// Strict turns bones with insufficient data into a fatal error instead
	// of skipping them.
	Strict bool

	// Order lists bones to process first, in this order. Bones not listed
	// follow in definition order. Empty means definition order.
	Order []string
}

// DefaultEnforcerConfig returns the production defaults.
func DefaultEnforcerConfig() EnforcerConfig {
	return EnforcerConfig{Epsilon: DefaultZeroLengthEpsilon}
}

// Enforcer rewrites trajectories so every bone keeps its median length.
type Enforcer struct {
	cfg EnforcerConfig
}

// NewEnforcer returns an Enforcer for cfg.
func NewEnforcer(cfg EnforcerConfig) *Enforcer {
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = DefaultZeroLengthEpsilon
	}
	return &Enforcer{cfg: cfg}
}

// EnforceResult is the outcome of one enforcement pass.
type EnforceResult struct {
	// Set is the corrected copy of the input.
	Set *trajectory.Set

	// Before and After are the statistics of the input and of Set.
	Before *Statistics
	After  *Statistics

	// Order is the bone processing order actually used.
	Order []string

	// Skipped lists bones left uncorrected for lack of data.
	Skipped []*InsufficientDataError

	// Degenerate lists frames where a bone had zero length.
	Degenerate []*DegenerateLengthError
}

// processingOrder resolves cfg.Order against defs.
func (e *Enforcer) processingOrder(defs skeleton.Definitions) ([]skeleton.BoneDefinition, error) {
	if len(e.cfg.Order) == 0 {
		return defs.Clone(), nil
	}

	byName := make(map[string]skeleton.BoneDefinition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	out := make([]skeleton.BoneDefinition, 0, len(defs))
	used := make(map[string]bool, len(defs))
	var unknown []string
	for _, name := range e.cfg.Order {
		d, ok := byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if used[name] {
			return nil, fmt.Errorf("bone %q listed twice in processing order", name)
		}
		used[name] = true
		out = append(out, d)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("processing order names unknown bones: %s", strings.Join(unknown, ", "))
	}
	for _, d := range defs {
		if !used[d.Name] {
			out = append(out, d)
		}
	}
	return out, nil
}

// Enforce corrects a copy of set so that, on every frame where a bone's
// length is defined and non-zero, the bone has its median length.
//
// Bones are processed one at a time in the committed order. Each bone's
// statistics are taken from the working copy, so corrections made to
// earlier bones are visible to later ones. A correction moves the bone's
// tail marker and every hierarchy descendant of the tail by the same
// vector at that frame, leaving the sub-chain past the tail rigid.
//
// Missing markers abort the whole pass. Bones with fewer than two defined
// lengths are skipped and reported, or abort the pass when Strict is set.
// set is never modified.
func (e *Enforcer) Enforce(set *trajectory.Set, skel skeleton.Skeleton) (*EnforceResult, error) {
	if err := skel.Validate(set); err != nil {
		return nil, fmt.Errorf("rigid length enforcement: %w", err)
	}

	order, err := e.processingOrder(skel.Definitions)
	if err != nil {
		return nil, err
	}

	before, statErr := ComputeStatistics(set, skel.Definitions)
	skipped := insufficientBones(statErr)
	if len(skipped) > 0 && e.cfg.Strict {
		return nil, fmt.Errorf("rigid length enforcement: %w", statErr)
	}

	res := &EnforceResult{
		Set:     set.Clone(),
		Before:  before,
		Order:   make([]string, 0, len(order)),
		Skipped: skipped,
	}

	skip := make(map[string]bool, len(skipped))
	for _, s := range skipped {
		skip[s.Bone] = true
		monitoring.Logf("rigidity: skipping bone %q: %v", s.Bone, s)
	}

	for _, def := range order {
		if skip[def.Name] {
			continue
		}
		res.Order = append(res.Order, def.Name)
		res.Degenerate = append(res.Degenerate, e.enforceBone(res.Set, def, skel.Hierarchy)...)
	}

	if n := len(res.Degenerate); n > 0 {
		monitoring.Logf("rigidity: %d zero-length bone samples replaced by epsilon %g", n, e.cfg.Epsilon)
	}

	// Insufficient bones are already reported in Skipped.
	res.After, _ = ComputeStatistics(res.Set, skel.Definitions)
	return res, nil
}

// enforceBone corrects one bone in place on work.
func (e *Enforcer) enforceBone(work *trajectory.Set, def skeleton.BoneDefinition, h skeleton.Hierarchy) []*DegenerateLengthError {
	b, err := computeBone(work, def)
	if err != nil {
		// Definedness does not change during a pass, so this matches the
		// up-front statistics; nothing to correct.
		return nil
	}
	desired := b.Median

	moved := [][]r3.Vec{work.Positions(def.Tail)}
	for _, m := range h.Descendants(def.Tail) {
		if m == def.Head {
			continue
		}
		moved = append(moved, work.Positions(m))
	}

	head := work.Positions(def.Head)
	tail := work.Positions(def.Tail)

	var degenerate []*DegenerateLengthError
	for f, raw := range b.Lengths {
		if math.IsNaN(raw) {
			continue
		}
		if raw == 0 {
			degenerate = append(degenerate, &DegenerateLengthError{Bone: def.Name, Frame: f})
			monitoring.Debugf("rigidity: bone %q has zero length at frame %d", def.Name, f)
			raw = e.cfg.Epsilon
		}

		direction := r3.Scale(1/raw, r3.Sub(tail[f], head[f]))
		delta := r3.Scale(desired-raw, direction)
		if delta == (r3.Vec{}) {
			continue
		}
		for _, p := range moved {
			p[f] = r3.Add(p[f], delta)
		}
	}
	return degenerate
}

// insufficientBones extracts every *InsufficientDataError from a joined
// statistics error.
func insufficientBones(err error) []*InsufficientDataError {
	if err == nil {
		return nil
	}
	var out []*InsufficientDataError
	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case *InsufficientDataError:
			out = append(out, e)
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}
