package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daveberzack/5-minute-react/internal/portal"
	"github.com/daveberzack/5-minute-react/internal/reconcile"
)

// statusView is the output of sync, login and register.
type statusView struct {
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username,omitempty"`
	Favorites     []int    `json:"favorites"`
	PlayedToday   []string `json:"playedToday"`
	Source        string   `json:"source,omitempty"`
	LocalAhead    bool     `json:"localAhead,omitempty"`
}

func newStatusView(st portal.Status) statusView {
	v := statusView{
		Authenticated: st.Authenticated,
		Username:      st.Username,
		Favorites:     st.Favorites,
		PlayedToday:   st.PlayedToday,
	}
	if v.Favorites == nil {
		v.Favorites = []int{}
	}
	if st.Sync != nil {
		v.Source = string(st.Sync.Source)
		v.LocalAhead = st.Sync.LocalAhead()
	}
	return v
}

func (v statusView) String() string {
	fav := favoritesView{Favorites: v.Favorites}.String()
	if !v.Authenticated {
		return "signed out; " + fav
	}
	s := fmt.Sprintf("signed in as %s; %s", v.Username, fav)
	switch {
	case v.Source == string(reconcile.SourceServer):
		s += " (adopted server copy)"
	case v.LocalAhead:
		s += " (this device is newer than the server copy)"
	}
	return s
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile favorites with the account server",
		Long: `Start a session and reconcile favorites with the account server.

The whole set with the newer timestamp wins; on a tie this device wins.
Edits made to the same set on two devices are not merged.

Signed out, sync only rolls the daily activity over.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App) error {
				st, res := app.boot(ctx)
				return app.Out.Success(newStatusView(st), res)
			})
		},
	}
}
