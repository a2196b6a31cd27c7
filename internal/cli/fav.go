package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daveberzack/5-minute-react/internal/result"
)

// favoritesView is the output of the fav commands.
type favoritesView struct {
	Favorites     []int `json:"favorites"`
	Authenticated bool  `json:"authenticated"`
}

func (v favoritesView) String() string {
	if len(v.Favorites) == 0 {
		return "no favorites"
	}
	parts := make([]string, len(v.Favorites))
	for i, id := range v.Favorites {
		parts[i] = strconv.Itoa(id)
	}
	return "favorites: " + strings.Join(parts, ", ")
}

type checkView struct {
	GameID   int  `json:"gameId"`
	Favorite bool `json:"favorite"`
}

func (v checkView) String() string {
	if v.Favorite {
		return fmt.Sprintf("game %d is a favorite", v.GameID)
	}
	return fmt.Sprintf("game %d is not a favorite", v.GameID)
}

// NewFavCommand creates the fav command group.
func NewFavCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fav",
		Short: "Manage favorite games",
		Long: `Manage favorite games on this device.

When signed in, adds and removes are also sent to the account server in the
background. A server failure keeps the local change and is reported as a
warning.

Examples:
  glg fav add 42
  glg fav remove 42
  glg fav list --format json`,
	}

	cmd.AddCommand(newFavMutateCommand(rootOpts, "add", "Mark a game as a favorite", mutateAdd))
	cmd.AddCommand(newFavMutateCommand(rootOpts, "remove", "Unmark a favorite game", mutateRemove))
	cmd.AddCommand(newFavListCommand(rootOpts))
	cmd.AddCommand(newFavCheckCommand(rootOpts))
	cmd.AddCommand(newFavClearCommand(rootOpts))
	return cmd
}

type mutation func(ctx context.Context, app *App, id string) result.Result

func mutateAdd(ctx context.Context, app *App, id string) result.Result {
	return app.Portal.AddFavorite(ctx, id)
}

func mutateRemove(ctx context.Context, app *App, id string) result.Result {
	return app.Portal.RemoveFavorite(ctx, id)
}

func newFavMutateCommand(rootOpts *RootOptions, use, short string, apply mutation) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <game-id>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				st, bootRes := app.boot(ctx)

				res := apply(ctx, app, args[0])
				if res.Kind == result.KindInvalid {
					return failResult(app.Out, res)
				}
				app.Portal.Wait()

				outcomes := append([]result.Result{bootRes, res}, app.Portal.RemoteFailures()...)
				return app.Out.Success(favoritesView{
					Favorites:     app.Portal.Favorites(),
					Authenticated: st.Authenticated,
				}, outcomes...)
			})
		},
	}
}

func newFavListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List favorite games",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				st, res := app.boot(ctx)
				return app.Out.Success(favoritesView{
					Favorites:     st.Favorites,
					Authenticated: st.Authenticated,
				}, res)
			})
		},
	}
}

func newFavCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "check <game-id>",
		Short:         "Report whether a game is a favorite on this device",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				is, err := app.Portal.IsFavorite(id)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid game id", err)
				}
				return app.Out.Success(checkView{GameID: id, Favorite: is})
			})
		},
	}
}

func newFavClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Remove every favorite stored on this device",
		Long:          "Remove every favorite stored on this device. The account server copy is not touched.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				res := app.Portal.Store().Clear()
				set, _ := app.Portal.Store().Favorites()
				return app.Out.Success(favoritesView{Favorites: set.IDs}, res)
			})
		},
	}
}
