// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package auth

import (
	"errors"
	"fmt"
)

// Failure is the error every operation returns on a failed outcome.
type Failure struct {
	Op      Operation
	Kind    ErrorKind
	Message string
	// Status is the HTTP status received, or 0 when no response arrived.
	Status int
	// Err is the underlying cause, if any.
	Err error
}

// Error implements error.
func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", f.Op, f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s: %s", f.Op, f.Kind, f.Message)
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error { return f.Err }

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// KindOf returns the ErrorKind carried by err, or "" when err is not a
// Failure.
func KindOf(err error) ErrorKind {
	if f, ok := AsFailure(err); ok {
		return f.Kind
	}
	return ""
}

// IsKind reports whether err is a Failure of kind k.
func IsKind(err error, k ErrorKind) bool {
	return KindOf(err) == k
}
