// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package auth

import "github.com/litscout/litscout/internal/events"

// failureNotices maps each kind to the single notification shown for it.
// ServerError and TransportError share a message on purpose; logs and
// metrics keep them apart.
var failureNotices = map[ErrorKind]events.Notification{
	ValidationError:    {Category: events.CategoryInfo, Message: "All fields are required"},
	InvalidCredentials: {Category: events.CategoryError, Message: "Username or password is incorrect"},
	UnregisteredUser:   {Category: events.CategoryInfo, Message: "User not registered, please Signup"},
	DuplicateAccount:   {Category: events.CategoryInfo, Message: "User Already exists"},
	TransportError:     {Category: events.CategoryError, Message: "Network error, try again"},
	ServerError:        {Category: events.CategoryError, Message: "Network error, try again"},
	UnexpectedShape:    {Category: events.CategoryError, Message: "Unexpected response from server, try again"},
}

// successNotices holds the notification for operations that announce success.
var successNotices = map[Operation]events.Notification{
	OpLogin:                {Category: events.CategorySuccess, Message: "Login Successfully"},
	OpRegister:             {Category: events.CategorySuccess, Message: "Registered successfully, Login now"},
	OpRequestPasswordReset: {Category: events.CategoryInfo, Message: "Reset link shared on registered email"},
	OpConfirmPasswordReset: {Category: events.CategorySuccess, Message: "Password updated, Login now"},
	OpLogout:               {Category: events.CategoryInfo, Message: "Logged out"},
}

// Notice returns the notification for kind.
func Notice(kind ErrorKind) events.Notification {
	if n, ok := failureNotices[kind]; ok {
		return n
	}
	return failureNotices[ServerError]
}

// Message returns the user-facing message for kind.
func Message(kind ErrorKind) string {
	return Notice(kind).Message
}
