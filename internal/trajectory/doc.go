// Package trajectory holds captured marker data: per-marker, per-frame 3D
// positions (Set) and per-marker, per-frame tracking error (ErrorSet),
// plus their CSV encodings.
//
// Positions are meters. A sample whose coordinates contain NaN is missing.
// Every marker in a set has the same number of frames.
package trajectory
