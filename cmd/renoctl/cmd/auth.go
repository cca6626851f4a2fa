package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/users"
)

const passwordEnvVar = "RENO_PASSWORD"

var (
	loginEmail    string
	loginPassword string

	registerFirstName string
	registerLastName  string
	registerRole      string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Sign in with email and password. The session is written to the session file
and the refresh cookie is kept alongside it.

The password may be given with --password or the RENO_PASSWORD environment
variable.

Example:
  renoctl login --email customer@homereno.dev`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.saveCookies()

		session, err := a.client.Login(cmd.Context(), loginEmail, password())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", session.Email, session.Role)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Long: `Create a CUSTOMER or VENDOR account. Admin accounts cannot self-register.

Example:
  renoctl register --email me@example.com --role vendor --first-name Sam`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := users.ParseRole(registerRole)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.saveCookies()

		session, err := a.client.Register(cmd.Context(), apiclient.RegisterRequest{
			Email:     loginEmail,
			Password:  password(),
			FirstName: registerFirstName,
			LastName:  registerLastName,
			Role:      role,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s (%s)\n", session.Email, session.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.saveCookies()

		if err := a.client.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

func password() string {
	if loginPassword != "" {
		return loginPassword
	}
	return os.Getenv(passwordEnvVar)
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&loginEmail, "email", "", "account email")
		c.Flags().StringVar(&loginPassword, "password", "", "account password (default: $RENO_PASSWORD)")
		_ = c.MarkFlagRequired("email")
	}
	registerCmd.Flags().StringVar(&registerFirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&registerLastName, "last-name", "", "last name")
	registerCmd.Flags().StringVar(&registerRole, "role", string(users.RoleCustomer), "CUSTOMER or VENDOR")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd)
}
