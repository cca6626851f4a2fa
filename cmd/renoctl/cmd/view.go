package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/guard"
	"github.com/jrsteele09/homereno-client/internal/errors"
	"github.com/jrsteele09/homereno-client/marketplace"
	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/users"
)

// view is a role-restricted screen of the terminal client.
type view struct {
	allowed []users.RoleType
	render  func(ctx context.Context, out io.Writer, c *apiclient.Client, s *sessions.Session) error
}

var views = map[string]view{
	"projects":   {allowed: []users.RoleType{users.RoleCustomer}, render: renderProjects},
	"bids":       {allowed: []users.RoleType{users.RoleVendor}, render: renderBids},
	"statistics": {allowed: []users.RoleType{users.RoleAdmin}, render: renderStatistics},
	"profile":    {render: renderProfile},
}

func viewNames() []string {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var viewCmd = &cobra.Command{
	Use:   "view NAME",
	Short: "Open a role-restricted view",
	Long: `Open one of the marketplace views. Access is checked against the stored
session first: an expired token is refreshed, a missing or unusable session
asks you to sign in, and a role without access is refused.

Views: ` + strings.Join(viewNames(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: viewNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, ok := views[args[0]]
		if !ok {
			return fmt.Errorf("unknown view %q, want one of %s", args[0], strings.Join(viewNames(), ", "))
		}

		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.saveCookies()

		g := guard.ForClient(a.client)
		switch mountOnce(cmd.Context(), g, v.allowed, cmd.ErrOrStderr()) {
		case guard.DecisionRedirectLogin:
			return fmt.Errorf("not signed in: run `renoctl login` first")
		case guard.DecisionUnauthorized:
			return fmt.Errorf("%w: view %q is not available to your role", errors.ErrForbidden, args[0])
		}

		session, err := a.store.Get()
		if err != nil {
			return err
		}
		return v.render(cmd.Context(), cmd.OutOrStdout(), a.client, session)
	},
}

// terminalRenderer adapts the guard's mount lifecycle to a one-shot command:
// it shows the loading state and hands back the first outcome.
type terminalRenderer struct {
	status  io.Writer
	outcome chan guard.Decision
}

func (r *terminalRenderer) Loading() {
	fmt.Fprintln(r.status, "Checking session...")
}

func (r *terminalRenderer) Content()         { r.decide(guard.DecisionRender) }
func (r *terminalRenderer) Unauthorized()    { r.decide(guard.DecisionUnauthorized) }
func (r *terminalRenderer) RedirectToLogin() { r.decide(guard.DecisionRedirectLogin) }

func (r *terminalRenderer) decide(d guard.Decision) {
	select {
	case r.outcome <- d:
	default:
	}
}

func mountOnce(ctx context.Context, g *guard.Guard, allowed []users.RoleType, status io.Writer) guard.Decision {
	r := &terminalRenderer{status: status, outcome: make(chan guard.Decision, 1)}
	unmount := g.Mount(ctx, allowed, r)
	defer unmount()

	select {
	case d := <-r.outcome:
		return d
	case <-ctx.Done():
		return guard.DecisionRedirectLogin
	}
}

func renderProjects(ctx context.Context, out io.Writer, c *apiclient.Client, _ *sessions.Session) error {
	projects, err := marketplace.ListProjects(ctx, c)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tBUDGET\tROOMS")
	for _, p := range projects {
		rooms := make([]string, 0, len(p.Rooms))
		for _, room := range p.Rooms {
			rooms = append(rooms, room.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", p.ID, p.Name, p.Status, p.Budget, strings.Join(rooms, ", "))
	}
	return tw.Flush()
}

func renderBids(ctx context.Context, out io.Writer, c *apiclient.Client, _ *sessions.Session) error {
	bids, err := marketplace.ListBids(ctx, c)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROJECT\tAMOUNT\tSTATUS")
	for _, b := range bids {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", b.ID, b.ProjectID, b.Amount, b.Status)
	}
	return tw.Flush()
}

func renderStatistics(ctx context.Context, out io.Writer, c *apiclient.Client, _ *sessions.Session) error {
	stats, err := marketplace.GetStatistics(ctx, c)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Customers\t%d\n", stats.Customers)
	fmt.Fprintf(tw, "Vendors\t%d\n", stats.Vendors)
	fmt.Fprintf(tw, "Admins\t%d\n", stats.Admins)
	fmt.Fprintf(tw, "Projects\t%d\n", stats.Projects)
	fmt.Fprintf(tw, "Bids\t%d\n", stats.Bids)
	return tw.Flush()
}

func renderProfile(_ context.Context, out io.Writer, _ *apiclient.Client, s *sessions.Session) error {
	fmt.Fprintf(out, "Email: %s\nRole:  %s\n", s.Email, s.Role)
	if s.AvatarURL != nil {
		fmt.Fprintf(out, "Avatar: %s\n", *s.AvatarURL)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
