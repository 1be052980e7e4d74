package skeleton

import (
	"errors"
	"fmt"
)

// ErrMissingMarker is the kind shared by every error reporting a marker
// (or bone) referenced by configuration but absent from the data.
var ErrMissingMarker = errors.New("missing marker")

// MissingMarkerError reports a marker referenced by a bone definition or a
// hierarchy entry that does not exist in the trajectory set being processed.
type MissingMarkerError struct {
	Bone   string // bone whose definition references Marker; empty for hierarchy entries
	Parent string // hierarchy parent of Marker; empty for bone endpoints and roots
	Marker string
}

func (e *MissingMarkerError) Error() string {
	switch {
	case e.Bone != "":
		return fmt.Sprintf("bone %q: marker %q not found in trajectory set", e.Bone, e.Marker)
	case e.Parent != "":
		return fmt.Sprintf("hierarchy: marker %q (child of %q) not found in trajectory set", e.Marker, e.Parent)
	default:
		return fmt.Sprintf("marker %q not found", e.Marker)
	}
}

// Is makes errors.Is(err, ErrMissingMarker) match.
func (e *MissingMarkerError) Is(target error) bool {
	return target == ErrMissingMarker
}
