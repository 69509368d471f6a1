package tides

import (
	"fmt"
	"time"
)

// MalformedInputError reports an unusable CSV row or header. Line is 1-based.
type MalformedInputError struct {
	Line   int
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed input at line %d, field %q: %s", e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed input at line %d: %s", e.Line, e.Reason)
}

// EmptyRangeError reports a query range containing no samples. It is a
// reportable gap, not a crash.
type EmptyRangeError struct {
	From time.Time
	To   time.Time
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("no tidal samples between %s and %s",
		e.From.Format("2006-01-02 15:04"), e.To.Format("2006-01-02 15:04"))
}
