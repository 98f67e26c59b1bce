// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

// Package auth runs the client side of the LitScout authentication
// lifecycle against the remote API.
//
// # Operations
//
// Service exposes one method per remote operation:
//   - Login - exchanges credentials for a session
//   - Register - creates an account; does not authenticate
//   - RequestPasswordReset - asks the server to mail a reset link
//   - ConfirmPasswordReset - sets a new password using a reset token
//   - FetchCurrentUser - reads the profile of the session's user
//   - Refresh - exchanges the refresh token for a new token pair
//   - Logout - drops the local session
//
// # Outcomes
//
// Every operation returns either its payload and a nil error, or a *Failure
// carrying an ErrorKind. Nothing else escapes an operation. Each failure also
// emits exactly one notification and, for some kinds, a navigation request.
//
// Failures are classified by per-operation status tables (see Classify)
// because the remote API reuses status codes with different meanings on
// different endpoints.
//
// Preconditions such as non-empty fields or matching password confirmation
// are the caller's job and are not re-checked here.
package auth
