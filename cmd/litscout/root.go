// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/litscout/litscout/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the LitScout CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "litscout",
		Short: "LitScout - session and account client",
		Long: `LitScout signs you in to the LitScout research service, keeps the
session on this machine, and serves it to the browser app over a local bridge.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path")
	flags.String("api-url", config.DefaultBaseURL, "base URL of the remote API")
	flags.Duration("api-timeout", config.DefaultTimeout, "timeout for each remote call")
	flags.String("storage", config.BackendFile, "session storage backend (memory, file, sqlite, redis)")
	flags.String("storage-path", "", "session file or database path")
	flags.String("redis-addr", "", "redis address for the redis backend")
	flags.String("log-format", "text", "log format (json or text)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newForgotPasswordCmd())
	cmd.AddCommand(newResetPasswordCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newRefreshCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// loadConfig reads the layered configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		File:  configFile,
		Flags: cmd.Flags(),
	})
}
