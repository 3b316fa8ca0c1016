/*
Package logging is a thin wrapper over the standard log package, used
exactly the way poly's cmd/poly reaches for log.Fatal directly rather than a
structured logging library (SPEC_FULL.md §1.2): nothing in the example pack
wires a structured logger into library code, only into lint/tooling, so the
engine and CLI stay on stdlib log.
*/
package logging

import "log"

// Logger is a named wrapper around the standard logger, giving each package
// a consistent prefix without introducing a third-party logging dependency.
type Logger struct {
	prefix string
}

// New returns a Logger that prefixes every message with "[name] ".
func New(name string) *Logger {
	return &Logger{prefix: "[" + name + "] "}
}

// Printf logs a formatted message.
func (l *Logger) Printf(format string, args ...any) {
	log.Printf(l.prefix+format, args...)
}

// Fatalf logs a formatted message and exits the process, matching poly's
// cmd/poly.parseText use of log.Fatal for unrecoverable command errors.
func (l *Logger) Fatalf(format string, args ...any) {
	log.Fatalf(l.prefix+format, args...)
}
