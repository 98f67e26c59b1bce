// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package main

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litscout/litscout/internal/session"
)

func TestBuildStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := func(exp time.Time) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
		require.NoError(t, err)
		return s
	}

	t.Run("no session", func(t *testing.T) {
		assert.Equal(t, SessionStatus{}, buildStatus(session.Session{}, false, now))
	})

	t.Run("valid token", func(t *testing.T) {
		st := buildStatus(session.Session{AccessToken: token(now.Add(90 * time.Minute)), UserID: "u-1"}, true, now)
		assert.True(t, st.Authenticated)
		assert.False(t, st.Expired)
		assert.Equal(t, int64(5400), st.ExpiresInSeconds)
	})

	t.Run("expired token", func(t *testing.T) {
		st := buildStatus(session.Session{AccessToken: token(now.Add(-time.Minute))}, true, now)
		assert.True(t, st.Expired)
		assert.Zero(t, st.ExpiresInSeconds)
	})

	t.Run("opaque token", func(t *testing.T) {
		st := buildStatus(session.Session{AccessToken: "opaque"}, true, now)
		assert.True(t, st.Authenticated)
		assert.Nil(t, st.ExpiresAt)
	})
}

func TestFormatStatusTable(t *testing.T) {
	out := formatStatusTable(SessionStatus{Backend: "memory"})
	assert.Contains(t, out, "SESSION")
	assert.Contains(t, out, "none")

	out = formatStatusTable(SessionStatus{Authenticated: true, Username: "alice", Expired: true, Backend: "file", StoragePath: "/tmp/s.yaml"})
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "expired")
	assert.Contains(t, out, "file (/tmp/s.yaml)")
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{59, "59s"},
		{60, "1m 0s"},
		{3599, "59m 59s"},
		{3600, "1h 0m"},
		{86399, "23h 59m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRemaining(tt.seconds))
	}
}
