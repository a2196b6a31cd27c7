package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daveberzack/5-minute-react/internal/prefs"
	"github.com/daveberzack/5-minute-react/internal/result"
)

type orderView struct {
	Order []string `json:"order"`
}

func (v orderView) String() string {
	if len(v.Order) == 0 {
		return "default order"
	}
	return "order: " + strings.Join(v.Order, ", ")
}

type linksView struct {
	Links []prefs.CustomLink `json:"links"`
}

func (v linksView) String() string {
	if len(v.Links) == 0 {
		return "no custom links"
	}
	var b strings.Builder
	for i, l := range v.Links {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s %s  %s", l.ID, l.Emoji, l.Name, l.URL)
	}
	return b.String()
}

type tabView struct {
	Tab string `json:"tab"`
}

func (v tabView) String() string { return "default tab: " + v.Tab }

// NewPrefsCommand creates the prefs command group.
func NewPrefsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage device preferences",
		Long: `Manage preferences kept on this device: the favorites grid order,
custom links and the default tab.

Examples:
  glg prefs order game-42 custom-0190f5c4 game-7
  glg prefs links add "Crossword" https://example.com/xw --emoji "✏️"
  glg prefs tab favorites`,
	}

	cmd.AddCommand(newPrefsOrderCommand(rootOpts))
	cmd.AddCommand(newPrefsLinksCommand(rootOpts))
	cmd.AddCommand(newPrefsTabCommand(rootOpts))
	return cmd
}

func newPrefsOrderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "order [key...]",
		Short:         "Show or replace the favorites grid order (game-<id>, custom-<id>)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]prefs.OrderKey, 0, len(args))
			for _, a := range args {
				k, err := prefs.ParseOrderKey(a)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid order key", err)
				}
				keys = append(keys, k)
			}
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				var res result.Result
				if len(keys) > 0 {
					res = app.Prefs.SetFavoriteOrder(keys)
				}
				order := app.Prefs.FavoriteOrder()
				view := orderView{Order: make([]string, len(order))}
				for i, k := range order {
					view.Order[i] = k.String()
				}
				return app.Out.Success(view, res)
			})
		},
	}
}

// LinkOptions holds flags for prefs links add.
type LinkOptions struct {
	*RootOptions
	Emoji string
	Color string
}

func newPrefsLinksCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage custom links",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List custom links",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				return app.Out.Success(linksView{Links: app.Prefs.CustomLinks()})
			})
		},
	})

	opts := &LinkOptions{RootOptions: rootOpts}
	add := &cobra.Command{
		Use:           "add <name> <url>",
		Short:         "Add a custom link",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				link, res := app.Prefs.AddCustomLink(prefs.CustomLink{
					Name:            args[0],
					URL:             args[1],
					Emoji:           opts.Emoji,
					BackgroundColor: opts.Color,
				})
				if res.Kind == result.KindInvalid {
					return failResult(app.Out, res)
				}
				return app.Out.Success(linksView{Links: []prefs.CustomLink{link}}, res)
			})
		},
	}
	add.Flags().StringVar(&opts.Emoji, "emoji", "", "emoji shown on the tile")
	add.Flags().StringVar(&opts.Color, "color", "", "tile background color (#rrggbb)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:           "remove <link-id>",
		Short:         "Remove a custom link",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				res := app.Prefs.RemoveCustomLink(args[0])
				return app.Out.Success(linksView{Links: app.Prefs.CustomLinks()}, res)
			})
		},
	})

	return cmd
}

func newPrefsTabCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "tab [name]",
		Short:         "Show or set the default tab; an empty name restores the default",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				var res result.Result
				if len(args) == 1 {
					res = app.Prefs.SetDefaultTab(args[0])
				}
				return app.Out.Success(tabView{Tab: app.Prefs.DefaultTab()}, res)
			})
		},
	}
}
