// Package monitoring holds the process-wide diagnostic logger used by the
// analysis loop and the websocket hub.
package monitoring

import (
	"log"
	"os"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf logs only when CAUSEWAY_DEBUG is set in the environment.
func Debugf(format string, v ...interface{}) {
	if os.Getenv("CAUSEWAY_DEBUG") == "" {
		return
	}
	Logf(format, v...)
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
