// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package errutil_test

import (
	"fmt"
	"testing"

	"github.com/samber/oops"

	"github.com/litscout/litscout/pkg/errutil"
)

// outcome mimics a typed failure wrapping an oops cause.
type outcome struct{ cause error }

func (o *outcome) Error() string { return "login: InvalidCredentials: " + o.cause.Error() }
func (o *outcome) Unwrap() error { return o.cause }

func TestAssertErrorCode_ThroughTypedWrapper(t *testing.T) {
	err := &outcome{cause: oops.Code("HTTP_STATUS").With("status", 402).Errorf("rejected")}

	errutil.AssertErrorCode(t, err, "HTTP_STATUS")
	errutil.AssertErrorContext(t, err, "status", 402)
}

func TestAssertRedacted(t *testing.T) {
	err := oops.Code("TRANSPORT_FAILED").
		With("path", "/auth/login").
		With("request_id", "01J").
		Wrap(fmt.Errorf("dial tcp: connection refused"))

	errutil.AssertRedacted(t, err, "hunter2", "eyJhbGciOi", "")
}
