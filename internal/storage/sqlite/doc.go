// Package sqlite persists normalisation runs in SQLite.
//
// A run records what was processed (source file, skeleton, frame and
// marker counts), the resulting body dimensions and good frame, the rig
// configuration used, and per-bone length statistics before and after
// enforcement. The schema is managed by embedded golang-migrate
// migrations applied on Open.
//
// All SQL lives here; the rigidity package never touches the database.
package sqlite
