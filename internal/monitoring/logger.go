// Package monitoring holds the diagnostic logging hooks shared by the
// normalisation pipeline. Output is human-oriented; nothing in the pipeline
// branches on what is logged.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var debug atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug toggles Debugf output.
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

// IsDebug reports whether Debugf output is enabled.
func IsDebug() bool {
	return debug.Load()
}

// Debugf logs through Logf only when debug output is enabled. Per-frame
// detail (degenerate bones, rejected frames) goes here.
func Debugf(format string, v ...interface{}) {
	if !debug.Load() {
		return
	}
	Logf("[debug] "+format, v...)
}
