// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package auth

// ErrorKind is the closed set of failure categories an operation can report.
type ErrorKind string

// Failure kinds.
const (
	ValidationError    ErrorKind = "ValidationError"
	InvalidCredentials ErrorKind = "InvalidCredentials"
	UnregisteredUser   ErrorKind = "UnregisteredUser"
	DuplicateAccount   ErrorKind = "DuplicateAccount"
	TransportError     ErrorKind = "TransportError"
	ServerError        ErrorKind = "ServerError"
	UnexpectedShape    ErrorKind = "UnexpectedShape"
)

// Kinds lists every ErrorKind in a stable order.
func Kinds() []ErrorKind {
	return []ErrorKind{
		ValidationError,
		InvalidCredentials,
		UnregisteredUser,
		DuplicateAccount,
		TransportError,
		ServerError,
		UnexpectedShape,
	}
}

// Operation names an auth operation. Values are used as metric and log labels.
type Operation string

// Operations.
const (
	OpLogin                Operation = "login"
	OpRegister             Operation = "register"
	OpRequestPasswordReset Operation = "request_password_reset"
	OpConfirmPasswordReset Operation = "confirm_password_reset"
	OpFetchCurrentUser     Operation = "fetch_current_user"
	OpRefresh              Operation = "refresh"
	OpLogout               Operation = "logout"
)

// Operations lists every Operation in a stable order.
func Operations() []Operation {
	return []Operation{
		OpLogin,
		OpRegister,
		OpRequestPasswordReset,
		OpConfirmPasswordReset,
		OpFetchCurrentUser,
		OpRefresh,
		OpLogout,
	}
}
