// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package bridge

import (
	"net/http"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// originSeparators stop a single '*' from spanning host labels or the port.
var originSeparators = []rune{'.', ':'}

// OriginMatcher decides which browser origins may call the bridge.
type OriginMatcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewOriginMatcher compiles the given glob patterns. "**" matches across
// separators.
func NewOriginMatcher(patterns []string) (*OriginMatcher, error) {
	m := &OriginMatcher{patterns: patterns, globs: make([]glob.Glob, 0, len(patterns))}
	for _, p := range patterns {
		g, err := glob.Compile(p, originSeparators...)
		if err != nil {
			return nil, oops.Code("ORIGIN_PATTERN_INVALID").With("pattern", p).Wrap(err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Allowed reports whether origin matches any pattern. A request without an
// Origin header is not from a browser and is allowed.
func (m *OriginMatcher) Allowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, g := range m.globs {
		if g.Match(origin) {
			return true
		}
	}
	return false
}

// CheckOrigin adapts Allowed for websocket.Upgrader.
func (m *OriginMatcher) CheckOrigin(r *http.Request) bool {
	return m.Allowed(r.Header.Get("Origin"))
}

// cors rejects disallowed origins and answers preflight requests.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !s.origins.Allowed(origin) {
			s.logger.WarnContext(r.Context(), "origin rejected", "event", "origin_rejected", "origin", origin)
			writeError(w, http.StatusForbidden, errorBody{Kind: "Forbidden", Message: "origin not allowed"})
			return
		}
		if origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
