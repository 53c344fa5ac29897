package dataparser

import (
	"errors"
	"fmt"
)

// Sentinel errors for caller-visible failure classes.
var (
	// ErrInvalidConfiguration marks errors caused by bad construction or
	// parse arguments: an unknown mode or error policy, a malformed glob
	// pattern, a pattern that does not compile, or a capture group count
	// that does not line up with the requested columns. All of these are
	// reported before any input line is read.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ParseError reports the first input line that did not match the parse
// pattern while the Raise policy was in effect. Use errors.As to recover
// the offending line. With parallel workers, which of several failing
// lines is reported is unspecified.
type ParseError struct {
	Line string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("regex failed to match: %s", e.Line)
}

// invalidConfigf wraps a formatted message with ErrInvalidConfiguration so
// callers can test for it with errors.Is.
func invalidConfigf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
