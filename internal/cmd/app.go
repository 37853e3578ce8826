package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/auth"
	"github.com/zfogg/dormdesk/pkg/client"
	"github.com/zfogg/dormdesk/pkg/config"
	"github.com/zfogg/dormdesk/pkg/formatter"
	"github.com/zfogg/dormdesk/pkg/guard"
	"github.com/zfogg/dormdesk/pkg/logger"
	"github.com/zfogg/dormdesk/pkg/output"
	"github.com/zfogg/dormdesk/pkg/prompter"
	"github.com/zfogg/dormdesk/pkg/service"
	"github.com/zfogg/dormdesk/pkg/session"
	"github.com/zfogg/dormdesk/pkg/tabsync"
)

// App is everything one dormdesk process shares between commands
type App struct {
	Client   *client.Client
	API      *api.API
	Sessions *session.Manager
	Guard    *guard.Guard

	bus    tabsync.Bus
	cancel context.CancelFunc

	mu    sync.RWMutex
	route string
}

// newApp wires the client, the cross-process bus and the session manager
// for one process
func newApp(ctx context.Context) (*App, error) {
	c, err := client.New(client.Options{
		BaseURL:    config.GetString("api.base_url"),
		Timeout:    config.GetDuration("api.timeout"),
		CookiePath: config.GetCookiePath(),
	})
	if err != nil {
		return nil, err
	}

	listenCtx, cancel := context.WithCancel(ctx)
	bus := tabsync.Open(listenCtx, tabsync.Options{
		Mode:      config.GetString("session.sync"),
		Channel:   config.GetString("session.channel"),
		Dir:       config.GetSyncDir(),
		RedisAddr: config.GetString("sync.redis_addr"),
	})

	a := &App{Client: c, API: api.New(c), bus: bus, cancel: cancel}
	a.Sessions = session.NewManager(
		session.NewFileStore(config.GetSessionPath()),
		session.WithVerifier(a.API.Probe),
		session.WithBus(bus),
		session.WithFreshness(config.GetDuration("session.freshness")),
		session.WithCredentialReload(c.Jar().Reload),
	)

	c.SetObserver(a.Sessions)
	c.SetNotifier(guard.ExpiryNotice{
		Show:    showExpiryNotice,
		Timeout: config.GetDuration("notice.timeout"),
	})
	c.SetRoute(a.Route)

	if err := a.Sessions.Listen(listenCtx); err != nil {
		logger.Warn("Not listening for session changes from other processes", "error", err)
	}

	a.Guard = guard.New(a.Sessions, a.redirectToLogin, func() {
		formatter.Faint.Fprintln(output.Err, "Checking session...")
	})
	return a, nil
}

// Route is the command route currently running, e.g. /rollcall/show
func (a *App) Route() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.route
}

func (a *App) setRoute(route string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.route = route
}

// Close stops listening and releases the bus
func (a *App) Close() {
	a.cancel()
	if err := a.bus.Close(); err != nil {
		logger.Debug("Closing session bus", "error", err)
	}
}

func (a *App) redirectToLogin(ctx context.Context, returnTo string) {
	formatter.PrintWarning("You need to sign in to use 'dormdesk %s'.", service.RouteCommand(returnTo))
	fmt.Fprintf(output.Err, "  dormdesk auth login --return %s\n", returnTo)
	fmt.Fprintf(output.Err, "  or open %s\n", auth.LoginURL(config.GetString("api.base_url"), returnTo, ""))
}

func (a *App) authService() *service.AuthService {
	return service.NewAuthService(a.API, a.Sessions, config.GetString("api.base_url"))
}

// showExpiryNotice warns that the session ended and waits for Enter or the
// notice timeout. The guard redirects afterwards.
func showExpiryNotice(ctx context.Context) {
	formatter.PrintWarning("Your session has expired. Please sign in again.")
	prompter.WaitForEnter(ctx, "Press Enter to continue", config.GetDuration("notice.timeout"))
}

// routeOf turns a command path such as "dormdesk rollcall show" into the
// route /rollcall/show
func routeOf(cmd *cobra.Command) string {
	parts := strings.Fields(cmd.CommandPath())
	if len(parts) <= 1 {
		return "/"
	}
	return "/" + strings.Join(parts[1:], "/")
}

// guarded runs a command body only while signed in
func guarded(run func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return app.Guard.Run(cmd.Context(), routeOf(cmd), func(ctx context.Context) error {
			return run(ctx, cmd, args)
		})
	}
}
