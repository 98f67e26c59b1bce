// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package auth

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Remote endpoints.
const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathForgetPassword = "/auth/forgetPassword"
	PathResetPassword  = "/auth/resetPassword"
	PathUserDetail     = "/user/userDetail"
	PathRefresh        = "/auth/refresh"
)

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type loginResponse struct {
	AccessToken  string     `json:"access_token"`
	UserID       flexString `json:"user_id"`
	Username     string     `json:"username"`
	RefreshToken string     `json:"refresh_token"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	AccessToken string `json:"accessToken"`
}

type forgetPasswordRequest struct {
	Email string `json:"email"`
}

// forgetPasswordResponse accepts the legacy misspelled flag alongside the
// correct one. Only a JSON literal true counts.
type forgetPasswordResponse struct {
	Success json.RawMessage `json:"success"`
	Sucess  json.RawMessage `json:"sucess"`
}

func (r forgetPasswordResponse) accepted() bool {
	return isJSONTrue(r.Success) || isJSONTrue(r.Sucess)
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Token           string `json:"token"`
}

type userDetailResponse struct {
	User json.RawMessage `json:"user"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func isJSONTrue(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("true"))
}

// flexString decodes a JSON string or number into a string. Anything else,
// including null, decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if i, err := n.Int64(); err == nil {
			*f = flexString(strconv.FormatInt(i, 10))
		} else {
			*f = flexString(n.String())
		}
	default:
		*f = ""
	}
	return nil
}
