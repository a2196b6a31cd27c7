package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daveberzack/5-minute-react/internal/favorites"
)

type visitView struct {
	Pending   bool   `json:"pending"`
	GameID    string `json:"gameId,omitempty"`
	URL       string `json:"url,omitempty"`
	ClickTime string `json:"clickTime,omitempty"`
}

func (v visitView) String() string {
	if !v.Pending {
		return "no recent game visit"
	}
	return fmt.Sprintf("game %s opened at %s: ready for a score", v.GameID, v.ClickTime)
}

// NewVisitCommand creates the visit command group.
func NewVisitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Inspect the most recent game visit",
		Long: `Inspect the most recent game visit.

A game opened within the last ten minutes that has no score yet today is
ready for a score prompt.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "check",
		Short:         "Show the pending score prompt, if any",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				visit, ok := app.Portal.PendingScorePrompt()
				view := visitView{Pending: ok}
				if ok {
					view.GameID = visit.GameID
					view.URL = visit.GameURL
					view.ClickTime = favorites.FormatTimestamp(visit.ClickTime)
				}
				return app.Out.Success(view)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Dismiss the score prompt without scoring",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				res := app.Portal.DismissScorePrompt()
				return app.Out.Success(visitView{}, res)
			})
		},
	})

	return cmd
}
