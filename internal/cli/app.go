package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/daveberzack/5-minute-react/internal/activity"
	"github.com/daveberzack/5-minute-react/internal/clock"
	"github.com/daveberzack/5-minute-react/internal/config"
	"github.com/daveberzack/5-minute-react/internal/favorites"
	"github.com/daveberzack/5-minute-react/internal/portal"
	"github.com/daveberzack/5-minute-react/internal/prefs"
	"github.com/daveberzack/5-minute-react/internal/remote"
	"github.com/daveberzack/5-minute-react/internal/result"
	"github.com/daveberzack/5-minute-react/internal/session"
	"github.com/daveberzack/5-minute-react/internal/storage"
)

// App is one command invocation's wiring: config, storage backend, session,
// account client and portal.
type App struct {
	Config config.Config
	Portal *portal.Portal
	Prefs  *prefs.Store
	Port   *storage.Port
	Out    *OutputFormatter
	Logger *slog.Logger

	closer io.Closer
}

// openApp loads configuration and wires the portal for cmd. The caller must
// Close the App.
func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*App, error) {
	logger := newLogger(opts, cmd.ErrOrStderr())
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	loc, err := cfg.Device.TimeLocation()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid device location", err)
	}

	backend, closer, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	logger.Debug("storage opened", "driver", cfg.Storage.Driver, "namespace", cfg.Storage.Namespace)

	port := storage.New(backend,
		storage.WithNamespace(cfg.Storage.Namespace),
		storage.WithLogger(logger),
	)
	sess := session.New(port)

	client, err := remote.NewClient(remote.Options{
		BaseURL:    cfg.Remote.BaseURL,
		AuthScheme: cfg.Remote.AuthScheme,
		Timeout:    cfg.Remote.Timeout,
		Tokens:     sess,
		Logger:     logger,
	})
	if err != nil {
		closeQuietly(closer)
		return nil, WrapExitError(ExitCommandError, "invalid remote.baseURL", err)
	}

	p := portal.New(portal.Deps{
		Port:      port,
		Session:   sess,
		API:       client,
		Navigator: printNavigator(out),
		Clock:     clock.System{Location: loc},
		Logger:    logger,
	})

	return &App{
		Config: cfg,
		Portal: p,
		Prefs:  prefs.NewStore(port, nil),
		Port:   port,
		Out:    out,
		Logger: logger,
		closer: closer,
	}, nil
}

// Close waits for background favorite mirroring and closes the backend.
func (a *App) Close() error {
	a.Portal.Wait()
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// boot starts the portal session. Storage and auto-login trouble is logged
// and returned for reporting; neither fails the command.
func (a *App) boot(ctx context.Context) (portal.Status, result.Result) {
	st, res := a.Portal.Boot(ctx)
	if res.Degraded() {
		a.Logger.Warn("session started degraded", "result", res.String())
	}
	return st, res
}

func openBackend(ctx context.Context, cfg config.Storage) (storage.Backend, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemory(), nil, nil
	case config.DriverRedis:
		r, err := storage.DialRedis(ctx, storage.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	case config.DriverSQLite, "":
		s, err := storage.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

// newLogger builds the stderr text logger. Debug level with --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// printNavigator "navigates" by printing the game URL for the user to open.
func printNavigator(out *OutputFormatter) activity.Navigator {
	return activity.NavigatorFunc(func(_ context.Context, url string) error {
		if out.Format == "json" {
			return nil
		}
		_, err := fmt.Fprintf(out.GetErrWriter(), "open %s\n", url)
		return err
	})
}

// withApp opens the App, runs fn and closes the App.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := openApp(ctx, opts, cmd)
	if err != nil {
		return err
	}
	runErr := fn(ctx, app)
	if err := app.Close(); err != nil && runErr == nil {
		return WrapExitError(ExitCommandError, "failed to close storage", err)
	}
	return runErr
}

// failResult converts a failed local result into an ExitError after
// reporting it.
func failResult(out *OutputFormatter, res result.Result) error {
	code := CodeStorage
	exit := ExitCommandError
	if res.Kind == result.KindInvalid {
		code, exit = CodeInvalidID, ExitFailure
	}
	if err := out.Error(code, res.String(), nil); err != nil {
		return err
	}
	return NewExitError(exit, res.String())
}

// failRemote reports a remote error and converts it to an ExitError.
func failRemote(out *OutputFormatter, what string, err error) error {
	code := CodeRemote
	if errors.Is(err, remote.ErrUnauthorized) {
		code = CodeUnauthorized
	}
	if e := out.Error(code, err.Error(), nil); e != nil {
		return e
	}
	return WrapExitError(ExitFailure, what, err)
}

// parseGameID wraps favorites.ParseID for command arguments.
func parseGameID(s string) (int, error) {
	id, err := favorites.ParseID(s)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid game id", err)
	}
	return id, nil
}
