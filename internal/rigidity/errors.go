package rigidity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
)

// Error kinds. Use errors.Is against these; the concrete types below carry
// the details.
var (
	ErrMissingMarker    = skeleton.ErrMissingMarker
	ErrInsufficientData = errors.New("insufficient data")
	ErrDegenerateLength = errors.New("degenerate bone length")
	ErrNoGoodFrame      = errors.New("no good frame")
)

// MissingMarkerError names a bone (or hierarchy entry) and the marker it
// references that is absent from the trajectory set.
type MissingMarkerError = skeleton.MissingMarkerError

// MissingBonesError lists every bone a computation needed but did not find
// in the statistics.
type MissingBonesError struct {
	Bones []string
}

func (e *MissingBonesError) Error() string {
	return fmt.Sprintf("missing bones: %s", strings.Join(e.Bones, ", "))
}

// Is makes errors.Is(err, ErrMissingMarker) match.
func (e *MissingBonesError) Is(target error) bool { return target == ErrMissingMarker }

// InsufficientDataError reports a bone with fewer than two defined length
// samples, too few for a standard deviation.
type InsufficientDataError struct {
	Bone    string
	Defined int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("bone %q: %d defined length samples, need at least 2", e.Bone, e.Defined)
}

// Is makes errors.Is(err, ErrInsufficientData) match.
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// DegenerateLengthError records a frame on which a bone's length was
// exactly zero. It is never returned as an error; enforcement collects it
// and substitutes a small epsilon.
type DegenerateLengthError struct {
	Bone  string
	Frame int
}

func (e *DegenerateLengthError) Error() string {
	return fmt.Sprintf("bone %q: zero length at frame %d", e.Bone, e.Frame)
}

// Is makes errors.Is(err, ErrDegenerateLength) match.
func (e *DegenerateLengthError) Is(target error) bool { return target == ErrDegenerateLength }

// NoGoodFrameError reports that no frame satisfied every marker's
// stillness criteria.
type NoGoodFrameError struct {
	Reason string
	// Markers with no qualifying frame at all, sorted.
	Markers []string
}

func (e *NoGoodFrameError) Error() string {
	if len(e.Markers) == 0 {
		return "no good frame: " + e.Reason
	}
	return fmt.Sprintf("no good frame: %s (no qualifying frames for %s)", e.Reason, strings.Join(e.Markers, ", "))
}

// Is makes errors.Is(err, ErrNoGoodFrame) match.
func (e *NoGoodFrameError) Is(target error) bool { return target == ErrNoGoodFrame }
