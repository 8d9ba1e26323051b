package analytics

import "fmt"

// InputError reports a missing or malformed query parameter. Nothing is
// fetched or computed for a query that fails validation.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

// UpstreamFetchError wraps a failed order repository call. The whole query
// fails; no partial result is produced.
type UpstreamFetchError struct {
	Op  string
	Err error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }
