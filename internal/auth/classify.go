// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package auth

import (
	"net/http"

	"github.com/litscout/litscout/internal/transport"
)

// statusTable maps the status codes an endpoint defines to failure kinds.
type statusTable map[int]ErrorKind

// statusTables holds the per-operation mappings. The same code means
// different things on different endpoints: 401 is an unknown account on
// login but a rejected token on refresh.
var statusTables = map[Operation]statusTable{
	OpLogin: {
		http.StatusUnauthorized:    UnregisteredUser,
		http.StatusPaymentRequired: InvalidCredentials,
		http.StatusForbidden:       ValidationError,
	},
	OpRegister: {
		http.StatusForbidden: ValidationError,
		http.StatusConflict:  DuplicateAccount,
	},
	OpRefresh: {
		http.StatusUnauthorized: InvalidCredentials,
	},
}

// Classify maps the outcome of a failed remote call to an ErrorKind.
//
// A nil resp means no response was received and is always TransportError,
// whatever the accompanying error says. A 2xx resp that reaches the
// classifier did not satisfy the operation's success contract and is
// UnexpectedShape. Any other status is looked up in the operation's table
// and falls back to ServerError.
func Classify(op Operation, resp *transport.Response) ErrorKind {
	if resp == nil {
		return TransportError
	}
	if resp.OK() {
		return UnexpectedShape
	}
	if kind, ok := statusTables[op][resp.Status]; ok {
		return kind
	}
	return ServerError
}
