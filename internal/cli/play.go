package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daveberzack/5-minute-react/internal/activity"
	"github.com/daveberzack/5-minute-react/internal/remote"
	"github.com/daveberzack/5-minute-react/internal/result"
)

type playedView struct {
	Date   string   `json:"date"`
	Played []string `json:"played"`
}

func (v playedView) String() string {
	if len(v.Played) == 0 {
		return fmt.Sprintf("%s: nothing played yet", v.Date)
	}
	return fmt.Sprintf("%s: played %s", v.Date, strings.Join(v.Played, ", "))
}

type gameStateView struct {
	GameID string         `json:"gameId"`
	State  activity.State `json:"state"`
}

func (v gameStateView) String() string {
	return fmt.Sprintf("game %s: %s", v.GameID, v.State)
}

// NewPlayCommand creates the play command group.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Track today's game activity",
		Long: `Track which games were played and scored today.

The day rolls over at midnight in the configured device location.

Examples:
  glg play open 42 https://example.com/game
  glg play list
  glg play score 42 3 --message "got it in three"`,
	}

	cmd.AddCommand(newPlayOpenCommand(rootOpts))
	cmd.AddCommand(newPlayListCommand(rootOpts))
	cmd.AddCommand(newPlayScoreCommand(rootOpts))
	return cmd
}

func newPlayOpenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "open <game-id> <url>",
		Short:         "Open a game: mark it played and remember the click",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				_, bootRes := app.boot(ctx)

				res, err := app.Portal.OpenGame(ctx, args[0], args[1], nil)
				if res.Kind == result.KindInvalid {
					return failResult(app.Out, res)
				}
				if err != nil {
					app.Logger.Warn("could not open game", "error", err)
				}
				return app.Out.Success(gameStateView{
					GameID: args[0],
					State:  app.Portal.Tracker().State(args[0]),
				}, bootRes, res)
			})
		},
	}
}

func newPlayListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List games played today",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				played, res := app.Portal.Tracker().InitializeDailyTracking()
				return app.Out.Success(playedView{
					Date:   app.Portal.Tracker().Today().String(),
					Played: played,
				}, res)
			})
		},
	}
}

// ScoreOptions holds flags for the play score command.
type ScoreOptions struct {
	*RootOptions
	Message string
}

func newPlayScoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "score <game-id> <score>",
		Short:         "Record today's score for a game",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				_, bootRes := app.boot(ctx)

				res := app.Portal.SubmitScore(ctx, id, remote.Score(args[1]), opts.Message)
				if res.Kind == result.KindInvalid {
					return failResult(app.Out, res)
				}
				return app.Out.Success(gameStateView{
					GameID: args[0],
					State:  app.Portal.Tracker().State(id),
				}, bootRes, res)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "message to share with the score")

	return cmd
}
