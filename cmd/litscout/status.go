// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/litscout/litscout/internal/session"
)

// SessionStatus describes the locally stored session. It never includes
// tokens.
type SessionStatus struct {
	Authenticated    bool       `json:"authenticated"`
	UserID           string     `json:"user_id,omitempty"`
	Username         string     `json:"username,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ExpiresInSeconds int64      `json:"expires_in_seconds,omitempty"`
	Expired          bool       `json:"expired,omitempty"`
	Backend          string     `json:"backend"`
	StoragePath      string     `json:"storage_path,omitempty"`
	APIURL           string     `json:"api_url"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// newStatusCmd creates the status subcommand with all flags configured.
func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Show whether a session is stored on this machine, who it belongs to
and when its access token expires. No remote call is made.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), conf, cmd.ErrOrStderr(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	path, _ := conf.StoragePath() //nolint:errcheck // already resolved by newApp
	sess, ok := a.store.Get()
	status := buildStatus(sess, ok, time.Now())
	status.Backend = conf.Storage.Backend
	status.StoragePath = path
	status.APIURL = conf.API.BaseURL

	var output string
	if cfg.jsonOutput {
		output, err = formatStatusJSON(status)
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
	} else {
		output = formatStatusTable(status)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

// buildStatus derives the identity and expiry fields from sess.
func buildStatus(sess session.Session, ok bool, now time.Time) SessionStatus {
	if !ok {
		return SessionStatus{}
	}
	status := SessionStatus{Authenticated: true, UserID: sess.UserID, Username: sess.Username}
	if exp, has := sess.ExpiresAt(); has {
		status.ExpiresAt = &exp
		remaining := exp.Sub(now)
		if remaining <= 0 {
			status.Expired = true
		} else {
			status.ExpiresInSeconds = int64(remaining / time.Second)
		}
	}
	return status
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status SessionStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "SESSION\tUSER\tUSER ID\tEXPIRES\tBACKEND")
	_, _ = fmt.Fprintln(w, "-------\t----\t-------\t-------\t-------")

	backend := status.Backend
	if status.StoragePath != "" {
		backend += " (" + status.StoragePath + ")"
	}

	if !status.Authenticated {
		_, _ = fmt.Fprintf(w, "none\t-\t-\t-\t%s\n", backend)
	} else {
		expires := "unknown"
		switch {
		case status.Expired:
			expires = "expired"
		case status.ExpiresAt != nil:
			expires = "in " + formatRemaining(status.ExpiresInSeconds)
		}
		_, _ = fmt.Fprintf(w, "active\t%s\t%s\t%s\t%s\n",
			orDash(status.Username), orDash(status.UserID), expires, backend)
	}

	_ = w.Flush()
	return string(buf)
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(status SessionStatus) (string, error) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal status: %w", err)
	}
	return string(data), nil
}

// formatRemaining formats seconds into a human-readable duration.
func formatRemaining(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
