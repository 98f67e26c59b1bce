// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package errutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err carries an oops error with the given code,
// even when it is wrapped by a non-oops error such as an auth failure.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error in chain, got %T: %v", err, err)
	assert.Equal(t, code, oopsErr.Code(), "error: %v", err)
}

// AssertErrorContext asserts that err carries the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error in chain, got %T: %v", err, err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertRedacted asserts that no secret appears in err's message or in any
// value of its oops context. Tokens and passwords must never reach logs
// through an error.
func AssertRedacted(t *testing.T, err error, secrets ...string) {
	t.Helper()
	require.Error(t, err)

	texts := []string{err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		for k, v := range oopsErr.Context() {
			texts = append(texts, k+"="+fmt.Sprint(v))
		}
	}
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		for _, text := range texts {
			assert.False(t, strings.Contains(text, secret), "secret %q leaked in %q", secret, text)
		}
	}
}
