package source

import (
	"fmt"
)

// ErrSourceUnavailable means the remote ledger could not be reached or kept
// failing after retries. Callers may try again later.
type ErrSourceUnavailable struct {
	Op  string
	Err error
}

func (e ErrSourceUnavailable) Error() string {
	return fmt.Sprintf("source unavailable during %s: %v", e.Op, e.Err)
}

func (e ErrSourceUnavailable) Unwrap() error {
	return e.Err
}

// Is matches any ErrSourceUnavailable when the target has no Op
func (e ErrSourceUnavailable) Is(target error) bool {
	t, ok := target.(ErrSourceUnavailable)
	if !ok {
		return false
	}
	return t.Op == "" || t.Op == e.Op
}

// ErrRequestRejected is a 4xx answer. The request will not succeed on retry.
type ErrRequestRejected struct {
	StatusCode int
	Body       string
}

func (e ErrRequestRejected) Error() string {
	return fmt.Sprintf("source rejected request with status %d: %s", e.StatusCode, e.Body)
}

// Is matches any ErrRequestRejected when the target has no status code
func (e ErrRequestRejected) Is(target error) bool {
	t, ok := target.(ErrRequestRejected)
	if !ok {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}
