package monitoring

import "log"

// Logf is the package-level diagnostic logger for the tracking pipeline. It
// defaults to log.Printf; callers that need silence (tests, benchmarks) or a
// custom sink can swap it with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. A nil argument installs a no-op
// logger, muting all diagnostics.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
