// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litscout/litscout/internal/transport"
	"github.com/litscout/litscout/pkg/errutil"
)

type staticTokens string

func (s staticTokens) AccessToken() string { return string(s) }

func TestNew_ValidatesBaseURL(t *testing.T) {
	_, err := transport.New("")
	errutil.AssertErrorCode(t, err, "TRANSPORT_BASE_URL_EMPTY")

	_, err = transport.New("not a url")
	errutil.AssertErrorCode(t, err, "TRANSPORT_BASE_URL_INVALID")
}

func TestClient_SendsJSONAndHeaders(t *testing.T) {
	var got struct {
		method, path, auth, ctype, reqID string
		body                             map[string]string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.ctype = r.Header.Get("Content-Type")
		got.reqID = r.Header.Get(transport.RequestIDHeader)
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := transport.New(srv.URL+"/api", transport.WithTokenSource(staticTokens("tok")))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   map[string]string{"username": "carol"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.True(t, resp.OK())
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/auth/register", got.path)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "application/json", got.ctype)
	assert.Equal(t, resp.RequestID, got.reqID)
	assert.Len(t, got.reqID, 26)
	assert.Equal(t, map[string]string{"username": "carol"}, got.body)

	var out struct{ OK bool }
	require.NoError(t, resp.Decode(&out))
	assert.True(t, out.OK)
}

func TestClient_BearerOverrideAndNoToken(t *testing.T) {
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	c, err := transport.New(srv.URL, transport.WithTokenSource(staticTokens("")))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), transport.Request{Path: "/user/userDetail"})
	require.NoError(t, err)
	_, err = c.Do(context.Background(), transport.Request{Path: "/auth/refresh", Bearer: "refresh"})
	require.NoError(t, err)
	_, err = c.Do(context.Background(), transport.Request{
		Path:   "/x",
		Bearer: "ignored",
		Header: http.Header{"Authorization": []string{"Basic abc"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer refresh", "Basic abc"}, auth)
}

func TestClient_NonSuccessReturnsResponseAndError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"exists"}`))
	}))
	defer srv.Close()

	c, err := transport.New(srv.URL)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), transport.Request{Method: http.MethodPost, Path: "/auth/register"})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.False(t, resp.OK())
	errutil.AssertErrorCode(t, err, "HTTP_STATUS")
	errutil.AssertErrorContext(t, err, "status", http.StatusConflict)
}

func TestClient_OversizedBodyIsReported(t *testing.T) {
	const limit = 1 << 20
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(bytes.Repeat([]byte("x"), limit+10))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c, err := transport.New(srv.URL, transport.WithLogger(logger))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), transport.Request{Path: "/user/userDetail"})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Len(t, resp.Body, limit)
	errutil.AssertErrorCode(t, err, "RESPONSE_TOO_LARGE")
	errutil.AssertErrorContext(t, err, "limit", limit)
	assert.Contains(t, buf.String(), "exceeds")
}

func TestClient_BodyAtLimitIsRead(t *testing.T) {
	const limit = 1 << 20
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), limit))
	}))
	defer srv.Close()

	c, err := transport.New(srv.URL)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), transport.Request{Path: "/user/userDetail"})
	require.NoError(t, err)
	assert.Len(t, resp.Body, limit)
}

func TestClient_TimeoutHasNoResponse(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := transport.New(srv.URL, transport.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), transport.Request{Path: "/slow"})
	require.Error(t, err)
	assert.Nil(t, resp)
	errutil.AssertErrorCode(t, err, "TRANSPORT_FAILED")
}

func TestClient_ConnectionRefusedHasNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := transport.New(url)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Bearer: "tok-secret",
		Body:   map[string]string{"password": "hunter2"},
	})
	require.Error(t, err)
	assert.Nil(t, resp)
	errutil.AssertRedacted(t, err, "tok-secret", "hunter2")
}

func TestClient_LogsOneRecordPerCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c, err := transport.New(srv.URL, transport.WithLogger(logger))
	require.NoError(t, err)

	_, _ = c.Do(context.Background(), transport.Request{Path: "/user/userDetail", Bearer: "secret-token"})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "http", rec["event"])
	assert.Equal(t, "GET", rec["method"])
	assert.Equal(t, "/user/userDetail", rec["path"])
	assert.EqualValues(t, http.StatusBadGateway, rec["status"])
	assert.NotContains(t, buf.String(), "secret-token")
}

func TestResponse_Decode(t *testing.T) {
	r := &transport.Response{Status: 200}
	var v map[string]any
	errutil.AssertErrorCode(t, r.Decode(&v), "RESPONSE_EMPTY")

	r.Body = []byte("{bad")
	errutil.AssertErrorCode(t, r.Decode(&v), "RESPONSE_DECODE_FAILED")
}
