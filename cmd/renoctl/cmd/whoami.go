package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/homereno-client/guard"
	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/token/jwt"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
	Long:  `Show the stored session and whether its access token is still valid. No request is sent.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		session, err := a.store.Get()
		if errors.Is(err, errors.ErrNoSession) {
			fmt.Fprintln(out, "Not signed in")
			return nil
		}
		if err != nil {
			return err
		}

		now := time.Now()
		fmt.Fprintf(out, "Email: %s\n", session.Email)
		fmt.Fprintf(out, "Role:  %s\n", session.Role)
		fmt.Fprintf(out, "Token: %s\n", guard.Classify(session, now))
		if claims, err := jwt.ParseUnverified(session.AccessToken); err == nil {
			fmt.Fprintf(out, "Expires: %s (%s)\n", claims.ExpiresAt.Format(time.RFC3339), claims.ExpiresAt.Sub(now).Round(time.Second))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
