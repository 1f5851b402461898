package fetcher

import (
	"errors"
	"fmt"
)

// ErrFetch is wrapped by every FetchError so callers can test for any
// per-URL network failure with errors.Is.
var ErrFetch = errors.New("fetch failed")

// FetchError reports a failed GET for one URL.
// The run logs it and continues with the remaining seeds; it is never retried.
type FetchError struct {
	// URL is the URL that could not be fetched.
	URL string

	// Err is the underlying transport, decoding or context error.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns both ErrFetch and the cause, so errors.Is works for
// ErrFetch as well as context.DeadlineExceeded and similar causes.
func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}
