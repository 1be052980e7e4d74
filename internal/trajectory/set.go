package trajectory

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Missing is the value stored for a frame where a marker was not tracked.
var Missing = r3.Vec{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}

// IsMissing reports whether v is an untracked sample.
func IsMissing(v r3.Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

// Set maps marker names to equal-length position series.
type Set struct {
	frames  int
	markers map[string][]r3.Vec
}

// NewSet returns an empty set whose markers will all have frames samples.
func NewSet(frames int) *Set {
	return &Set{frames: frames, markers: make(map[string][]r3.Vec)}
}

// Add stores positions under name. The slice is retained, not copied.
func (s *Set) Add(name string, positions []r3.Vec) error {
	if name == "" {
		return fmt.Errorf("marker name must not be empty")
	}
	if len(positions) != s.frames {
		return fmt.Errorf("marker %q: %d frames, set has %d", name, len(positions), s.frames)
	}
	if _, dup := s.markers[name]; dup {
		return fmt.Errorf("marker %q already present", name)
	}
	s.markers[name] = positions
	return nil
}

// Frames returns the number of frames N shared by every marker.
func (s *Set) Frames() int { return s.frames }

// Len returns the number of markers.
func (s *Set) Len() int { return len(s.markers) }

// Has reports whether the marker exists.
func (s *Set) Has(name string) bool {
	_, ok := s.markers[name]
	return ok
}

// Positions returns the position series for name, or nil. The returned
// slice aliases the set's storage.
func (s *Set) Positions(name string) []r3.Vec {
	return s.markers[name]
}

// At returns the position of name at frame f and whether it is defined.
func (s *Set) At(name string, f int) (r3.Vec, bool) {
	p, ok := s.markers[name]
	if !ok || f < 0 || f >= len(p) {
		return Missing, false
	}
	return p[f], !IsMissing(p[f])
}

// Names returns the marker names in sorted order.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.markers))
	for name := range s.markers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	out := &Set{frames: s.frames, markers: make(map[string][]r3.Vec, len(s.markers))}
	for name, p := range s.markers {
		cp := make([]r3.Vec, len(p))
		copy(cp, p)
		out.markers[name] = cp
	}
	return out
}

// Equal reports whether both sets hold the same markers with bitwise-equal
// samples, treating missing samples as equal to each other.
func (s *Set) Equal(o *Set) bool {
	if s.frames != o.frames || len(s.markers) != len(o.markers) {
		return false
	}
	for name, p := range s.markers {
		q, ok := o.markers[name]
		if !ok {
			return false
		}
		for i := range p {
			if IsMissing(p[i]) && IsMissing(q[i]) {
				continue
			}
			if p[i] != q[i] {
				return false
			}
		}
	}
	return true
}

// ErrorSet maps marker names to per-frame tracking error (e.g. reprojection
// error). NaN marks frames with no estimate.
type ErrorSet struct {
	frames  int
	markers map[string][]float64
}

// NewErrorSet returns an empty error set for frames samples per marker.
func NewErrorSet(frames int) *ErrorSet {
	return &ErrorSet{frames: frames, markers: make(map[string][]float64)}
}

// Add stores values under name. The slice is retained, not copied.
func (e *ErrorSet) Add(name string, values []float64) error {
	if name == "" {
		return fmt.Errorf("marker name must not be empty")
	}
	if len(values) != e.frames {
		return fmt.Errorf("marker %q: %d frames, error set has %d", name, len(values), e.frames)
	}
	if _, dup := e.markers[name]; dup {
		return fmt.Errorf("marker %q already present", name)
	}
	e.markers[name] = values
	return nil
}

// Frames returns the number of frames per marker.
func (e *ErrorSet) Frames() int { return e.frames }

// Has reports whether the marker exists.
func (e *ErrorSet) Has(name string) bool {
	_, ok := e.markers[name]
	return ok
}

// Values returns the error series for name, or nil.
func (e *ErrorSet) Values(name string) []float64 {
	return e.markers[name]
}

// Names returns the marker names in sorted order.
func (e *ErrorSet) Names() []string {
	out := make([]string, 0, len(e.markers))
	for name := range e.markers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
