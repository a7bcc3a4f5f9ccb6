package spider

import (
	"errors"
	"fmt"
)

// ErrNoEntries is returned when a payload parsed but contained nothing the
// selectors recognize. It usually means the source changed its markup.
var ErrNoEntries = errors.New("no entries found")

// ParseError reports a payload that could not be decoded at all.
type ParseError struct {
	Format string
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// NewParseError wraps cause as a ParseError for format.
func NewParseError(format string, cause error) error {
	return &ParseError{Format: format, Cause: cause}
}
