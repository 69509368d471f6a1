package catalog

import "fmt"

// MalformedInputError reports a catalog record missing required fields.
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed scene record, field %q: %s", e.Field, e.Reason)
}

// SourceUnavailableError reports a failure of the backing catalog service.
// Auth failures are permanent and must not be retried.
type SourceUnavailableError struct {
	Auth       bool
	StatusCode int
	Err        error
}

func (e *SourceUnavailableError) Error() string {
	if e.Auth {
		return fmt.Sprintf("catalog authentication failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("catalog source unavailable: %v", e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}
