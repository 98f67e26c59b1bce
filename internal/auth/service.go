// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/litscout/litscout/internal/events"
	"github.com/litscout/litscout/internal/session"
	"github.com/litscout/litscout/internal/transport"
	"github.com/litscout/litscout/pkg/errutil"
)

var tracer = otel.Tracer("litscout/auth")

// OutcomeOK labels successful operations in metrics.
const OutcomeOK = "ok"

// Doer performs remote calls. A nil response means none was received.
type Doer interface {
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Sessions is the session state the operations read and replace.
type Sessions interface {
	Get() (session.Session, bool)
	Set(ctx context.Context, s session.Session) error
	Replace(ctx context.Context, old, next session.Session) (bool, error)
	Clear(ctx context.Context) error
	ClearIf(ctx context.Context, old session.Session) (bool, error)
	SaveRegistrationToken(ctx context.Context, token string) error
}

// Metrics records one observation per operation.
type Metrics interface {
	ObserveOperation(op, outcome string, dur time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string, time.Duration) {}

// Credentials is a transient identifier/secret pair. It is never persisted.
type Credentials struct {
	Identifier string `validate:"required"`
	Secret     string `validate:"required"`
}

// LoginResult is the payload of a successful Login.
type LoginResult struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	Username    string `json:"username"`
}

// Registration is the account data sent by Register.
type Registration struct {
	Username string `validate:"required"`
	Email    string `validate:"required"`
	Secret   string `validate:"required"`
}

// ResetRequest is the input of RequestPasswordReset as checked by Precheck.
type ResetRequest struct {
	Email string `validate:"required"`
}

// PasswordReset carries a new password and the emailed reset token.
type PasswordReset struct {
	NewSecret     string `validate:"required"`
	ConfirmSecret string `validate:"required,eqfield=NewSecret"`
	Token         string `validate:"required"`
}

// Accepted is the sentinel payload of the password reset operations.
const Accepted = 1

// User is the raw profile document returned by the user detail endpoint.
type User = json.RawMessage

// Service runs auth operations.
type Service struct {
	client   Doer
	sessions Sessions
	emitter  events.Emitter
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService creates a Service. All three dependencies are required.
func NewService(client Doer, sessions Sessions, emitter events.Emitter, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, oops.Errorf("transport client is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session store is required")
	}
	if emitter == nil {
		return nil, oops.Errorf("event emitter is required")
	}
	s := &Service{
		client:   client,
		sessions: sessions,
		emitter:  emitter,
		metrics:  noopMetrics{},
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login exchanges credentials for a session. On success the session is
// stored and the client is sent to the main view. A 401 additionally sends
// the client to the landing page.
func (s *Service) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	ctx, done := s.begin(ctx, OpLogin)

	resp, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   PathLogin,
		Body:   loginRequest{UsernameOrEmail: creds.Identifier, Password: creds.Secret},
	})
	if err != nil {
		f := s.fail(ctx, OpLogin, resp, err)
		if f.Kind == UnregisteredUser {
			s.emitter.Navigate(ctx, events.LandingView)
		}
		done(f)
		return LoginResult{}, f
	}

	var body loginResponse
	if err := resp.Decode(&body); err != nil {
		f := s.fail(ctx, OpLogin, resp, err)
		done(f)
		return LoginResult{}, f
	}
	if body.AccessToken == "" || body.UserID == "" || body.RefreshToken == "" {
		f := s.fail(ctx, OpLogin, resp, oops.Code("LOGIN_RESPONSE_INCOMPLETE").
			With("has_access_token", body.AccessToken != "").
			With("has_user_id", body.UserID != "").
			With("has_refresh_token", body.RefreshToken != "").
			Errorf("login response is missing required fields"))
		done(f)
		return LoginResult{}, f
	}

	sess := session.Session{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		UserID:       string(body.UserID),
		Username:     body.Username,
	}
	if err := s.sessions.Set(ctx, sess); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "session persist failed after login", err)
	}

	s.emitter.Navigate(ctx, events.MainView)
	s.succeed(ctx, OpLogin)
	done(nil)
	return LoginResult{AccessToken: sess.AccessToken, UserID: sess.UserID, Username: sess.Username}, nil
}

// Register creates an account. Only a 201 counts as success; the returned
// token is stored under the registration key and the client is sent to the
// login view. The session is not touched.
func (s *Service) Register(ctx context.Context, reg Registration) (string, error) {
	ctx, done := s.begin(ctx, OpRegister)

	resp, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   PathRegister,
		Body:   registerRequest{Username: reg.Username, Email: reg.Email, Password: reg.Secret},
	})
	if err == nil && resp.Status != http.StatusCreated {
		err = oops.Code("REGISTER_STATUS_UNEXPECTED").With("status", resp.Status).Errorf("registration returned %d, want 201", resp.Status)
	}
	if err != nil {
		f := s.fail(ctx, OpRegister, resp, err)
		done(f)
		return "", f
	}

	var body registerResponse
	if len(resp.Body) > 0 {
		if err := resp.Decode(&body); err != nil {
			s.logger.WarnContext(ctx, "register response body unreadable",
				"event", "decode_failed", "operation", string(OpRegister), "error", err.Error())
		}
	}
	if body.AccessToken != "" {
		if err := s.sessions.SaveRegistrationToken(ctx, body.AccessToken); err != nil {
			errutil.LogErrorContext(ctx, s.logger, "registration token persist failed", err)
		}
	}

	s.emitter.Navigate(ctx, events.LoginView)
	s.succeed(ctx, OpRegister)
	done(nil)
	return body.AccessToken, nil
}

// RequestPasswordReset asks the server to send a reset link. Success requires
// the body's success flag to be literally true.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (int, error) {
	ctx, done := s.begin(ctx, OpRequestPasswordReset)

	resp, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   PathForgetPassword,
		Body:   forgetPasswordRequest{Email: email},
	})
	if err == nil {
		var body forgetPasswordResponse
		if err = resp.Decode(&body); err == nil && !body.accepted() {
			err = oops.Code("RESET_NOT_ACCEPTED").Errorf("reset request not accepted")
		}
	}
	if err != nil {
		f := s.fail(ctx, OpRequestPasswordReset, resp, err)
		done(f)
		return 0, f
	}

	s.succeed(ctx, OpRequestPasswordReset)
	done(nil)
	return Accepted, nil
}

// ConfirmPasswordReset sets a new password. Success is a 201. The caller
// checks that NewSecret and ConfirmSecret match.
func (s *Service) ConfirmPasswordReset(ctx context.Context, reset PasswordReset) (int, error) {
	ctx, done := s.begin(ctx, OpConfirmPasswordReset)

	resp, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   PathResetPassword,
		Body: resetPasswordRequest{
			Password:        reset.NewSecret,
			ConfirmPassword: reset.ConfirmSecret,
			Token:           reset.Token,
		},
	})
	if err == nil && resp.Status != http.StatusCreated {
		err = oops.Code("RESET_STATUS_UNEXPECTED").With("status", resp.Status).Errorf("password reset returned %d, want 201", resp.Status)
	}
	if err != nil {
		f := s.fail(ctx, OpConfirmPasswordReset, resp, err)
		done(f)
		return 0, f
	}

	s.succeed(ctx, OpConfirmPasswordReset)
	done(nil)
	return Accepted, nil
}

// FetchCurrentUser returns the profile of the session's user. Success is a
// 200 carrying a user document. A failure never clears the session; callers
// that treat an authorization failure as a stale session call Logout.
func (s *Service) FetchCurrentUser(ctx context.Context) (User, error) {
	ctx, done := s.begin(ctx, OpFetchCurrentUser)

	resp, err := s.client.Do(ctx, transport.Request{Method: http.MethodGet, Path: PathUserDetail})
	if err == nil && resp.Status != http.StatusOK {
		err = oops.Code("USER_STATUS_UNEXPECTED").With("status", resp.Status).Errorf("user detail returned %d, want 200", resp.Status)
	}
	var body userDetailResponse
	if err == nil {
		if err = resp.Decode(&body); err == nil && (len(body.User) == 0 || string(body.User) == "null") {
			err = oops.Code("USER_MISSING").Errorf("user detail response has no user")
		}
	}
	if err != nil {
		f := s.fail(ctx, OpFetchCurrentUser, resp, err)
		done(f)
		return nil, f
	}

	done(nil)
	return body.User, nil
}

// Refresh exchanges the refresh token for a new token pair and replaces the
// session. A rejected refresh token clears the session and sends the client
// to the login view. A result arriving after the session was cleared or
// replaced is dropped.
func (s *Service) Refresh(ctx context.Context) (session.Session, error) {
	ctx, done := s.begin(ctx, OpRefresh)

	current, ok := s.sessions.Get()
	if !ok {
		f := s.failWith(ctx, OpRefresh, ValidationError, 0,
			oops.Code("NO_SESSION").Errorf("no session to refresh"))
		done(f)
		return session.Session{}, f
	}

	resp, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   PathRefresh,
		Bearer: current.RefreshToken,
	})
	var body refreshResponse
	if err == nil {
		if err = resp.Decode(&body); err == nil && body.AccessToken == "" {
			err = oops.Code("REFRESH_RESPONSE_INCOMPLETE").Errorf("refresh response has no access token")
		}
	}
	if err != nil {
		f := s.fail(ctx, OpRefresh, resp, err)
		if f.Kind == InvalidCredentials {
			cleared, clearErr := s.sessions.ClearIf(ctx, current)
			if clearErr != nil {
				errutil.LogErrorContext(ctx, s.logger, "session clear failed after rejected refresh", clearErr)
			}
			if cleared {
				s.emitter.Navigate(ctx, events.LoginView)
			}
		}
		done(f)
		return session.Session{}, f
	}

	next := current
	next.AccessToken = body.AccessToken
	if body.RefreshToken != "" {
		next.RefreshToken = body.RefreshToken
	}
	replaced, err := s.sessions.Replace(ctx, current, next)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "session persist failed after refresh", err)
	}
	if !replaced {
		f := s.failWith(ctx, OpRefresh, ValidationError, resp.Status,
			oops.Code("SESSION_CHANGED").Errorf("session changed while refresh was in flight"))
		done(f)
		return session.Session{}, f
	}

	done(nil)
	return next, nil
}

// Logout drops the local session and sends the client to the landing page.
// It makes no remote call and always succeeds; a storage error is logged.
func (s *Service) Logout(ctx context.Context) error {
	ctx, done := s.begin(ctx, OpLogout)

	if err := s.sessions.Clear(ctx); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "session clear failed during logout", err)
	}

	s.succeed(ctx, OpLogout)
	s.emitter.Navigate(ctx, events.LandingView)
	done(nil)
	return nil
}

// begin starts the span and returns the function that closes it and records
// the metrics observation. done must be called exactly once.
func (s *Service) begin(ctx context.Context, op Operation) (context.Context, func(*Failure)) {
	start := s.now()
	ctx, span := tracer.Start(ctx, "auth."+string(op))
	span.SetAttributes(attribute.String("auth.operation", string(op)))

	return ctx, func(f *Failure) {
		outcome := OutcomeOK
		if f != nil {
			outcome = string(f.Kind)
			span.SetAttributes(attribute.String("auth.error_kind", outcome))
			if f.Status != 0 {
				span.SetAttributes(attribute.Int("http.status_code", f.Status))
			}
			span.SetStatus(codes.Error, f.Message)
		}
		span.End()

		dur := s.now().Sub(start)
		s.metrics.ObserveOperation(string(op), outcome, dur)
		s.logger.InfoContext(ctx, "auth operation",
			"event", "auth_operation",
			"operation", string(op),
			"kind", outcome,
			"dur", dur,
		)
	}
}

// fail classifies a failed remote call and reports it.
func (s *Service) fail(ctx context.Context, op Operation, resp *transport.Response, cause error) *Failure {
	status := 0
	if resp != nil {
		status = resp.Status
	}
	return s.failWith(ctx, op, Classify(op, resp), status, cause)
}

// failWith logs the failure, emits its notification and returns it.
func (s *Service) failWith(ctx context.Context, op Operation, kind ErrorKind, status int, cause error) *Failure {
	f := &Failure{Op: op, Kind: kind, Message: Message(kind), Status: status, Err: cause}

	attrs := []any{"event", "auth_failure", "operation", string(op), "kind", string(kind), "status", status}
	if cause != nil {
		attrs = append(attrs, errutil.Attrs(cause)...)
	}
	s.logger.WarnContext(ctx, "auth operation failed", attrs...)
	s.emitter.Notify(ctx, Notice(kind))
	return f
}

func (s *Service) succeed(ctx context.Context, op Operation) {
	if n, ok := successNotices[op]; ok {
		s.emitter.Notify(ctx, n)
	}
}
