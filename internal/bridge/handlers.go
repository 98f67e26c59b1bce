// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/litscout/litscout/internal/auth"
	"github.com/litscout/litscout/internal/session"
)

const maxRequestBytes = 64 << 10

type loginBody struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type registerBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgetPasswordBody struct {
	Email string `json:"email"`
}

type resetPasswordBody struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Token           string `json:"token"`
}

type registerReply struct {
	AccessToken string `json:"accessToken,omitempty"`
}

type resultReply struct {
	Result int `json:"result"`
}

type userReply struct {
	User json.RawMessage `json:"user"`
}

// sessionView is the public part of the session. Tokens are never exposed.
type sessionView struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"userId,omitempty"`
	Username      string     `json:"username,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

func viewOf(sess session.Session, ok bool) sessionView {
	if !ok {
		return sessionView{}
	}
	v := sessionView{Authenticated: true, UserID: sess.UserID, Username: sess.Username}
	if exp, has := sess.ExpiresAt(); has {
		v.ExpiresAt = &exp
	}
	return v
}

// decodeStrict reads a single JSON object into dst, rejecting unknown fields
// and trailing data. An empty body leaves dst untouched.
func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

// precheck decodes the body into input and runs the precondition check. A
// malformed body is checked as empty input, so it fails the same way.
func (s *Server) precheck(w http.ResponseWriter, r *http.Request, op auth.Operation, body any, input func() any) bool {
	if err := decodeStrict(r, body); err != nil {
		s.logger.DebugContext(r.Context(), "request body rejected",
			"event", "decode_failed", "operation", string(op), "error", err.Error())
		err = s.auth.Precheck(r.Context(), op, zeroOf(op))
		writeFailure(w, err)
		return false
	}
	if err := s.auth.Precheck(r.Context(), op, input()); err != nil {
		writeFailure(w, err)
		return false
	}
	return true
}

// opContext detaches an operation from the client connection. An operation
// that has started runs to completion; the transport timeout still bounds it.
func opContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func zeroOf(op auth.Operation) any {
	switch op {
	case auth.OpRegister:
		return auth.Registration{}
	case auth.OpConfirmPasswordReset:
		return auth.PasswordReset{}
	case auth.OpRequestPasswordReset:
		return auth.ResetRequest{}
	default:
		return auth.Credentials{}
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	creds := func() auth.Credentials {
		return auth.Credentials{Identifier: body.UsernameOrEmail, Secret: body.Password}
	}
	if !s.precheck(w, r, auth.OpLogin, &body, func() any { return creds() }) {
		return
	}
	res, err := s.auth.Login(opContext(r), creds())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	reg := func() auth.Registration {
		return auth.Registration{Username: body.Username, Email: body.Email, Secret: body.Password}
	}
	if !s.precheck(w, r, auth.OpRegister, &body, func() any { return reg() }) {
		return
	}
	token, err := s.auth.Register(opContext(r), reg())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerReply{AccessToken: token})
}

func (s *Server) handleForgetPassword(w http.ResponseWriter, r *http.Request) {
	var body forgetPasswordBody
	if !s.precheck(w, r, auth.OpRequestPasswordReset, &body, func() any { return auth.ResetRequest{Email: body.Email} }) {
		return
	}
	result, err := s.auth.RequestPasswordReset(opContext(r), body.Email)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultReply{Result: result})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetPasswordBody
	reset := func() auth.PasswordReset {
		return auth.PasswordReset{NewSecret: body.Password, ConfirmSecret: body.ConfirmPassword, Token: body.Token}
	}
	if !s.precheck(w, r, auth.OpConfirmPasswordReset, &body, func() any { return reset() }) {
		return
	}
	result, err := s.auth.ConfirmPasswordReset(opContext(r), reset())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resultReply{Result: result})
}

func (s *Server) handleUserDetail(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.FetchCurrentUser(opContext(r))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userReply{User: json.RawMessage(user)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, err := s.auth.Refresh(opContext(r))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess, true))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(opContext(r)); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(s.sessions.Get()))
}
