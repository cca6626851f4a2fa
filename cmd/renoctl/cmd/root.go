// Package cmd provides the CLI commands for renoctl.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/homereno-client/internal/config"
)

var (
	apiURL      string
	sessionFile string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "renoctl",
	Short: "renoctl - Home Reno marketplace client",
	Long: `renoctl talks to the Home Reno marketplace API on behalf of a signed-in user.

The session (email, role and access token) is kept in a local file and the
access token is refreshed automatically when the API reports it expired.

Configuration:
  API_BASE_URL       REST backend (default http://localhost:8081)
  RENO_SESSION_FILE  session file (default $XDG_CONFIG_HOME/homereno/session.json)
  REQUEST_TIMEOUT    per-request timeout (default 15s)
  LOG_LEVEL          debug, info, warn or error (default info)

Commands:
  login       Sign in and store the session
  register    Create an account and sign in
  logout      Sign out and clear the session
  whoami      Show the stored session
  request     Send an authenticated request
  view        Open a role-restricted view
  serve       Run the local web front-end
  version     Print version information`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "REST backend base URL (default: $API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "session file (default: $RENO_SESSION_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default: $LOG_LEVEL or info)")
}

func setupLogging(cmd *cobra.Command) error {
	level := logLevel
	if level == "" {
		level = config.New().GetLogLevel()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	return nil
}
