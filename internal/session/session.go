// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

// Package session holds the authenticated identity of the running client.
//
// A Store owns exactly one Session value at a time. The value is replaced
// whole on every change and is never mutated in place, so readers always
// observe either the previous or the next session and never a mix of both.
package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Storage keys. These names are shared with the web client and must not
// change.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refresh_token"
	// KeyRegistrationToken is written after registration. The trailing space
	// is part of the key.
	KeyRegistrationToken = "accessToken "
)

// Session is the authenticated identity held after a successful login.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
}

// Validate reports whether s carries both tokens.
func (s Session) Validate() error {
	if s.AccessToken == "" {
		return oops.Code("SESSION_INVALID").With("field", "access_token").Errorf("access token is required")
	}
	if s.RefreshToken == "" {
		return oops.Code("SESSION_INVALID").With("field", "refresh_token").Errorf("refresh token is required")
	}
	return nil
}

// ExpiresAt returns the access token's exp claim. The token is decoded
// without signature verification; the server remains the authority.
func (s Session) ExpiresAt() (time.Time, bool) {
	claims, ok := parseClaims(s.AccessToken)
	if !ok {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// FromTokens builds a Session from a token pair, filling identity fields from
// the access token claims when they are present.
func FromTokens(accessToken, refreshToken string) Session {
	s := Session{AccessToken: accessToken, RefreshToken: refreshToken}
	claims, ok := parseClaims(accessToken)
	if !ok {
		return s
	}
	s.UserID = claimString(claims, "user_id")
	if s.UserID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			s.UserID = sub
		}
	}
	s.Username = claimString(claims, "username")
	return s
}

func parseClaims(token string) (jwt.MapClaims, bool) {
	if token == "" {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

func claimString(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
