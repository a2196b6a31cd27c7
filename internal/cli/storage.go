package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daveberzack/5-minute-react/internal/result"
)

type keysView struct {
	Keys    []string `json:"keys"`
	Pending int      `json:"pending"`
}

func (v keysView) String() string {
	s := "no stored keys"
	if len(v.Keys) > 0 {
		s = strings.Join(v.Keys, "\n")
	}
	if v.Pending > 0 {
		s += fmt.Sprintf("\n(%d held in memory only)", v.Pending)
	}
	return s
}

// NewStorageCommand creates the storage command group.
func NewStorageCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect local storage",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List stored keys, most recently written first",
		Long: `List the keys this device has stored, most recently written first.

The namespace prefix from the config is not shown. The memory and SQLite
drivers can list their keys; the Redis driver cannot.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				keys, res := app.Port.Keys()
				switch {
				case res.Kind == result.KindMissing:
					msg := fmt.Sprintf("storage driver %q cannot list keys", app.Config.Storage.Driver)
					if err := app.Out.Error(CodeStorage, msg, nil); err != nil {
						return err
					}
					return NewExitError(ExitCommandError, msg)
				case res.Degraded():
					return failResult(app.Out, res)
				}
				if keys == nil {
					keys = []string{}
				}
				return app.Out.Success(keysView{Keys: keys, Pending: app.Port.Pending()})
			})
		},
	})

	return cmd
}
