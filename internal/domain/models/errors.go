package models

import (
	"errors"
	"fmt"
)

// ErrCredentialMissing marks an adapter whose API key was absent at
// startup. No retry schedule fixes a missing key, so the adapter fails
// every call for the remainder of the process lifetime.
var ErrCredentialMissing = errors.New("api credential missing")

// ParseError marks a structural parse failure: an expected table or
// field was missing from an otherwise successful fetch. Retrying does
// not fix a changed page layout, so these are never retried.
type ParseError struct {
	Source string
	Detail string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: parse %s: %v", e.Source, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: parse %s", e.Source, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Cause }
