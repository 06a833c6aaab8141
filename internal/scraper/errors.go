package scraper

import (
	"errors"
	"fmt"
)

// Failure kinds returned by Client.Fetch
var (
	ErrTimeout  = errors.New("upstream timeout")
	ErrNetwork  = errors.New("network error")
	ErrUpstream = errors.New("upstream error")
	ErrNoMedia  = errors.New("no media found")
)

// Error is a failed fetch. Kind is one of the sentinel errors above and
// Message is safe to show to API callers.
type Error struct {
	Kind    error
	Message string
	// Status is the upstream HTTP status when the backend answered non-2xx
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
