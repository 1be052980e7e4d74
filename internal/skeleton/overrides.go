package skeleton

import "fmt"

// Override redirects the head and/or tail of one bone. Empty fields keep
// the current marker.
type Override struct {
	Bone string
	Head string
	Tail string
}

// WithOverrides returns a copy of s with the overrides applied in order.
// s itself is never modified.
//
// When an override moves a bone's tail to a marker that no hierarchy entry
// lists as a child, that marker is attached under the bone's head so it is
// carried along when bones above it are corrected.
func (s Skeleton) WithOverrides(overrides ...Override) (Skeleton, error) {
	out := s.Clone()
	if len(overrides) == 0 {
		return out, nil
	}
	if out.Hierarchy == nil {
		out.Hierarchy = make(Hierarchy)
	}

	for _, o := range overrides {
		idx := -1
		for i, b := range out.Definitions {
			if b.Name == o.Bone {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Skeleton{}, fmt.Errorf("override for unknown bone %q", o.Bone)
		}

		b := &out.Definitions[idx]
		if o.Head != "" {
			b.Head = o.Head
		}
		if o.Tail != "" && o.Tail != b.Tail {
			b.Tail = o.Tail
			if !out.Hierarchy.hasChild(o.Tail) {
				out.Hierarchy[b.Head] = append(out.Hierarchy[b.Head], o.Tail)
			}
		}
	}
	return out, nil
}

func (h Hierarchy) hasChild(marker string) bool {
	for _, children := range h {
		for _, c := range children {
			if c == marker {
				return true
			}
		}
	}
	return false
}

// HandMiddleOverrides redirects each hand bone's tail from the body model's
// index-knuckle marker to the synthetic "<side>_hand_middle" marker when
// the capture provides one. Sides without the marker are left alone.
func HandMiddleOverrides(markers MarkerSet) []Override {
	var out []Override
	for _, side := range Sides {
		middle := side.Marker("hand_middle")
		if markers.Has(middle) {
			out = append(out, Override{Bone: side.Bone("hand"), Tail: middle})
		}
	}
	return out
}
