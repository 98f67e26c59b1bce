// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package bridge

import (
	"encoding/json"
	"net/http"

	"github.com/litscout/litscout/internal/auth"
)

// kindStatus maps failure kinds to bridge HTTP statuses.
var kindStatus = map[auth.ErrorKind]int{
	auth.ValidationError:    http.StatusBadRequest,
	auth.InvalidCredentials: http.StatusUnauthorized,
	auth.UnregisteredUser:   http.StatusNotFound,
	auth.DuplicateAccount:   http.StatusConflict,
	auth.UnexpectedShape:    http.StatusBadGateway,
	auth.ServerError:        http.StatusBadGateway,
	auth.TransportError:     http.StatusGatewayTimeout,
}

// StatusFor returns the HTTP status the bridge uses for kind.
func StatusFor(kind auth.ErrorKind) int {
	if st, ok := kindStatus[kind]; ok {
		return st
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value) //nolint:errcheck // client may disconnect
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, errorEnvelope{Error: body})
}

// writeFailure renders an operation error. Non-Failure errors become a 500.
func writeFailure(w http.ResponseWriter, err error) {
	f, ok := auth.AsFailure(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, errorBody{Kind: "Internal", Message: "internal error"})
		return
	}
	writeError(w, StatusFor(f.Kind), errorBody{Kind: string(f.Kind), Message: f.Message})
}
