package skeleton

import (
	"errors"
	"fmt"
	"sort"
)

// BoneDefinition names a bone and the markers at its two ends.
type BoneDefinition struct {
	Name string `yaml:"name" json:"name"`
	Head string `yaml:"head" json:"head"`
	Tail string `yaml:"tail" json:"tail"`
}

// Definitions is an ordered bone table. Order is significant: the rigid
// length enforcer processes bones in exactly this order.
type Definitions []BoneDefinition

// Lookup returns the head and tail markers of the named bone.
func (d Definitions) Lookup(bone string) (head, tail string, ok bool) {
	for _, b := range d {
		if b.Name == bone {
			return b.Head, b.Tail, true
		}
	}
	return "", "", false
}

// Names returns the bone names in table order.
func (d Definitions) Names() []string {
	out := make([]string, len(d))
	for i, b := range d {
		out[i] = b.Name
	}
	return out
}

// Clone returns an independent copy of the table.
func (d Definitions) Clone() Definitions {
	if d == nil {
		return nil
	}
	out := make(Definitions, len(d))
	copy(out, d)
	return out
}

// Hierarchy maps a marker to its ordered direct children. It is used only
// to decide which markers move together when a bone is corrected.
type Hierarchy map[string][]string

// Children returns the direct children of marker, or nil.
func (h Hierarchy) Children(marker string) []string {
	return h[marker]
}

// Descendants returns every marker reachable from marker through child
// links, in pre-order following declared child order. The marker itself is
// not included and each descendant appears once even if the table has
// shared children or cycles.
func (h Hierarchy) Descendants(marker string) []string {
	var out []string
	seen := map[string]bool{marker: true}

	stack := reversed(h[marker])
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
		stack = append(stack, reversed(h[m])...)
	}
	return out
}

// Clone returns a deep copy of the hierarchy.
func (h Hierarchy) Clone() Hierarchy {
	if h == nil {
		return nil
	}
	out := make(Hierarchy, len(h))
	for k, v := range h {
		children := make([]string, len(v))
		copy(children, v)
		out[k] = children
	}
	return out
}

// Parents returns the hierarchy's parent markers, sorted.
func (h Hierarchy) Parents() []string {
	out := make([]string, 0, len(h))
	for k := range h {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// MarkerSet is anything that can answer whether a marker was captured.
type MarkerSet interface {
	Has(marker string) bool
}

// Skeleton bundles a bone table with its propagation hierarchy.
type Skeleton struct {
	Name        string      `yaml:"name" json:"name"`
	Definitions Definitions `yaml:"bones" json:"bones"`
	Hierarchy   Hierarchy   `yaml:"hierarchy" json:"hierarchy"`
}

// Clone returns a deep copy of the skeleton.
func (s Skeleton) Clone() Skeleton {
	return Skeleton{
		Name:        s.Name,
		Definitions: s.Definitions.Clone(),
		Hierarchy:   s.Hierarchy.Clone(),
	}
}

// Markers returns every marker named by the bone table or the hierarchy,
// sorted.
func (s Skeleton) Markers() []string {
	set := make(map[string]struct{})
	for _, b := range s.Definitions {
		set[b.Head] = struct{}{}
		set[b.Tail] = struct{}{}
	}
	for parent, children := range s.Hierarchy {
		set[parent] = struct{}{}
		for _, c := range children {
			set[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Validate checks the skeleton is well formed and that every referenced
// marker exists in markers. All problems are reported together; missing
// markers come back as *MissingMarkerError values joined into one error.
func (s Skeleton) Validate(markers MarkerSet) error {
	if err := s.checkTable(); err != nil {
		return err
	}

	var errs []error
	reported := make(map[string]bool)
	for _, b := range s.Definitions {
		for _, m := range []string{b.Head, b.Tail} {
			if !markers.Has(m) {
				errs = append(errs, &MissingMarkerError{Bone: b.Name, Marker: m})
				reported[m] = true
			}
		}
	}
	for _, parent := range s.Hierarchy.Parents() {
		if !markers.Has(parent) && !reported[parent] {
			errs = append(errs, fmt.Errorf("hierarchy root: %w", &MissingMarkerError{Marker: parent}))
			reported[parent] = true
		}
		for _, c := range s.Hierarchy[parent] {
			if !markers.Has(c) && !reported[c] {
				errs = append(errs, &MissingMarkerError{Parent: parent, Marker: c})
				reported[c] = true
			}
		}
	}
	return errors.Join(errs...)
}

// checkTable rejects structurally invalid tables: empty names and duplicate
// bones.
func (s Skeleton) checkTable() error {
	seen := make(map[string]bool, len(s.Definitions))
	for i, b := range s.Definitions {
		if b.Name == "" {
			return fmt.Errorf("bone %d: empty name", i)
		}
		if b.Head == "" || b.Tail == "" {
			return fmt.Errorf("bone %q: head and tail markers are required", b.Name)
		}
		if b.Head == b.Tail {
			return fmt.Errorf("bone %q: head and tail are the same marker %q", b.Name, b.Head)
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate bone %q", b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}
