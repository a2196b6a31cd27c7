package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daveberzack/5-minute-react/internal/portal"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Password string
	Register bool
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and reconcile favorites",
		Long: `Sign in to the account server, store the tokens on this device and
reconcile favorites.

The password is read from --password, or from the first line of stdin.

Examples:
  glg login ada --password secret
  echo secret | glg login ada
  glg login ada --register`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := opts.Password
			if password == "" {
				p, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read password", err)
				}
				password = p
			}
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				app.boot(ctx)

				signIn := app.Portal.Login
				what := "login failed"
				if opts.Register {
					signIn = app.Portal.Register
					what = "register failed"
				}
				st, res, err := signIn(ctx, args[0], password)
				if err != nil {
					return failRemote(app.Out, what, err)
				}
				return app.Out.Success(newStatusView(st), res)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&opts.Register, "register", false, "create the account first")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Sign out; favorites stay on this device",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				app.Portal.Session().Load()
				err := app.Portal.Logout(ctx)
				st := newStatusView(portal.Status{Favorites: app.Portal.Favorites(), PlayedToday: app.Portal.Tracker().PlayedToday()})
				if err != nil {
					app.Logger.Warn("token revocation failed, signed out locally", "error", err)
				}
				return app.Out.Success(st)
			})
		},
	}
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password is required")
	}
	return line, nil
}
