// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/litscout/litscout/internal/auth"
	"github.com/litscout/litscout/internal/events"
)

// outcome is the --json rendering of one operation.
type outcome struct {
	OK            bool                  `json:"ok"`
	Result        any                   `json:"result,omitempty"`
	Error         *failureView          `json:"error,omitempty"`
	Navigations   []events.Destination  `json:"navigations,omitempty"`
	Notifications []events.Notification `json:"notifications,omitempty"`
}

type failureView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// operation runs against a wired app and returns its payload and a one-line
// summary for terminal output.
type operation func(ctx context.Context, a *app) (result any, summary string, err error)

// runOperation loads config, wires the app, runs op and renders the outcome.
// In text mode events are printed as they happen; in JSON mode they are
// collected and printed with the result.
func runOperation(cmd *cobra.Command, jsonOutput bool, op operation) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var emitters []events.Emitter
	if !jsonOutput {
		emitters = append(emitters, events.NewWriter(cmd.OutOrStdout(), cfg.Navigation.Routes()))
	}
	a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr(), appOptions{Record: true, Emitters: emitters})
	if err != nil {
		return err
	}
	defer a.Close()

	result, summary, opErr := op(cmd.Context(), a)

	if jsonOutput {
		out := outcome{
			OK:            opErr == nil,
			Navigations:   a.recorder.Navigations(),
			Notifications: a.recorder.Notifications(),
		}
		if opErr == nil {
			out.Result = result
		} else if f, ok := auth.AsFailure(opErr); ok {
			out.Error = &failureView{Kind: string(f.Kind), Message: f.Message}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return oops.Code("OUTPUT_ENCODE_FAILED").Wrap(err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else if opErr == nil && summary != "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), summary)
	}
	return opErr
}

// readSecrets returns n lines from r, trimmed of line endings.
func readSecrets(r io.Reader, n int) ([]string, error) {
	scanner := bufio.NewScanner(r)
	out := make([]string, 0, n)
	for len(out) < n && scanner.Scan() {
		out = append(out, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, oops.Code("STDIN_READ_FAILED").Wrap(err)
	}
	for len(out) < n {
		out = append(out, "")
	}
	return out, nil
}

type loginConfig struct {
	identifier    string
	password      string
	passwordStdin bool
	jsonOutput    bool
}

func newLoginCmd() *cobra.Command {
	cfg := &loginConfig{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.passwordStdin {
				lines, err := readSecrets(cmd.InOrStdin(), 1)
				if err != nil {
					return err
				}
				cfg.password = lines[0]
			}
			creds := auth.Credentials{Identifier: cfg.identifier, Secret: cfg.password}
			return runOperation(cmd, cfg.jsonOutput, func(ctx context.Context, a *app) (any, string, error) {
				if err := a.service.Precheck(ctx, auth.OpLogin, creds); err != nil {
					return nil, "", err
				}
				res, err := a.service.Login(ctx, creds)
				if err != nil {
					return nil, "", err
				}
				return res, fmt.Sprintf("Signed in as %s (%s)", res.Username, res.UserID), nil
			})
		},
	}

	cmd.Flags().StringVarP(&cfg.identifier, "user", "u", "", "username or email")
	cmd.Flags().StringVarP(&cfg.password, "password", "p", "", "password")
	cmd.Flags().BoolVar(&cfg.passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output the outcome as JSON")
	return cmd
}

type registerConfig struct {
	username      string
	email         string
	password      string
	passwordStdin bool
	jsonOutput    bool
}

func newRegisterCmd() *cobra.Command {
	cfg := &registerConfig{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.passwordStdin {
				lines, err := readSecrets(cmd.InOrStdin(), 1)
				if err != nil {
					return err
				}
				cfg.password = lines[0]
			}
			reg := auth.Registration{Username: cfg.username, Email: cfg.email, Secret: cfg.password}
			return runOperation(cmd, cfg.jsonOutput, func(ctx context.Context, a *app) (any, string, error) {
				if err := a.service.Precheck(ctx, auth.OpRegister, reg); err != nil {
					return nil, "", err
				}
				token, err := a.service.Register(ctx, reg)
				if err != nil {
					return nil, "", err
				}
				return map[string]string{"accessToken": token}, "Account created for " + reg.Username, nil
			})
		},
	}

	cmd.Flags().StringVar(&cfg.username, "username", "", "account username")
	cmd.Flags().StringVar(&cfg.email, "email", "", "account email")
	cmd.Flags().StringVarP(&cfg.password, "password", "p", "", "password")
	cmd.Flags().BoolVar(&cfg.passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output the outcome as JSON")
	return cmd
}

func newForgotPasswordCmd() *cobra.Command {
	var email string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset link by email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOperation(cmd, jsonOutput, func(ctx context.Context, a *app) (any, string, error) {
				if err := a.service.Precheck(ctx, auth.OpRequestPasswordReset, auth.ResetRequest{Email: email}); err != nil {
					return nil, "", err
				}
				result, err := a.service.RequestPasswordReset(ctx, email)
				return result, "", err
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "registered email")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the outcome as JSON")
	return cmd
}

type resetConfig struct {
	token         string
	password      string
	confirm       string
	passwordStdin bool
	jsonOutput    bool
}

func newResetPasswordCmd() *cobra.Command {
	cfg := &resetConfig{}

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with an emailed reset token",
		Long: `Set a new password with the token from the reset email. With
--password-stdin the first line is the password and the second its confirmation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.passwordStdin {
				lines, err := readSecrets(cmd.InOrStdin(), 2)
				if err != nil {
					return err
				}
				cfg.password, cfg.confirm = lines[0], lines[1]
			}
			reset := auth.PasswordReset{NewSecret: cfg.password, ConfirmSecret: cfg.confirm, Token: cfg.token}
			return runOperation(cmd, cfg.jsonOutput, func(ctx context.Context, a *app) (any, string, error) {
				if err := a.service.Precheck(ctx, auth.OpConfirmPasswordReset, reset); err != nil {
					return nil, "", err
				}
				result, err := a.service.ConfirmPasswordReset(ctx, reset)
				return result, "", err
			})
		},
	}

	cmd.Flags().StringVar(&cfg.token, "token", "", "reset token from the email")
	cmd.Flags().StringVarP(&cfg.password, "password", "p", "", "new password")
	cmd.Flags().StringVar(&cfg.confirm, "confirm", "", "new password again")
	cmd.Flags().BoolVar(&cfg.passwordStdin, "password-stdin", false, "read password and confirmation from stdin")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output the outcome as JSON")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the profile of the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOperation(cmd, jsonOutput, func(ctx context.Context, a *app) (any, string, error) {
				user, err := a.service.FetchCurrentUser(ctx)
				if err != nil {
					return nil, "", err
				}
				pretty, err := json.MarshalIndent(json.RawMessage(user), "", "  ")
				if err != nil {
					pretty = user
				}
				return json.RawMessage(user), string(pretty), nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the outcome as JSON")
	return cmd
}

func newRefreshCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOperation(cmd, jsonOutput, func(ctx context.Context, a *app) (any, string, error) {
				sess, err := a.service.Refresh(ctx)
				if err != nil {
					return nil, "", err
				}
				summary := "Session refreshed"
				if exp, ok := sess.ExpiresAt(); ok {
					summary += ", expires " + exp.Local().Format("2006-01-02 15:04:05")
				}
				return map[string]string{"userId": sess.UserID, "username": sess.Username}, summary, nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the outcome as JSON")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOperation(cmd, jsonOutput, func(ctx context.Context, a *app) (any, string, error) {
				return nil, "", a.service.Logout(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the outcome as JSON")
	return cmd
}
