// Package guard gates protected commands on the session state.
package guard

import (
	"context"
	"errors"
	"time"

	"github.com/zfogg/dormdesk/pkg/logger"
	"github.com/zfogg/dormdesk/pkg/session"
)

var (
	// ErrRedirected means the content was not shown and the user was sent
	// to login instead.
	ErrRedirected = errors.New("not signed in: redirected to login")

	errSessionLost = errors.New("session ended while running")
)

const defaultNoticeTimeout = 5 * time.Second

// Sessions is the part of session.Manager the guard needs
type Sessions interface {
	State() session.State
	Refresh(ctx context.Context) session.State
	Subscribe() (<-chan session.Transition, func())
}

// Redirect sends the user to login, carrying the route to return to
type Redirect func(ctx context.Context, returnTo string)

// Guard renders protected content only while the session is authenticated
type Guard struct {
	sessions    Sessions
	redirect    Redirect
	placeholder func()
}

// New creates a guard. A nil placeholder renders nothing while loading.
func New(sessions Sessions, redirect Redirect, placeholder func()) *Guard {
	if placeholder == nil {
		placeholder = func() {}
	}
	if redirect == nil {
		redirect = func(context.Context, string) {}
	}
	return &Guard{sessions: sessions, redirect: redirect, placeholder: placeholder}
}

// Run resolves the session and then runs content, or redirects. The
// context passed to content is cancelled as soon as the session stops being
// authenticated, after which the redirect runs and ErrRedirected is returned.
func (g *Guard) Run(ctx context.Context, route string, content func(ctx context.Context) error) error {
	state := g.sessions.State()
	if state == session.StateLoading {
		g.placeholder()
		state = g.sessions.Refresh(ctx)
	}
	if state != session.StateAuthenticated {
		logger.Debug("Guard redirecting", "route", route, "state", state)
		g.redirect(ctx, route)
		return ErrRedirected
	}

	transitions, unsubscribe := g.sessions.Subscribe()
	defer unsubscribe()

	// The state may have moved between Refresh and Subscribe
	if g.sessions.State() != session.StateAuthenticated {
		g.redirect(ctx, route)
		return ErrRedirected
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case t, ok := <-transitions:
				if !ok {
					return
				}
				if t.To != session.StateAuthenticated {
					logger.Debug("Guard lost session", "route", route, "event", t.Event)
					cancel(errSessionLost)
					return
				}
			case <-done:
				return
			}
		}
	}()

	err := content(runCtx)
	close(done)

	if errors.Is(context.Cause(runCtx), errSessionLost) {
		g.redirect(ctx, route)
		return ErrRedirected
	}
	return err
}

// ExpiryNotice tells the user their session ended under a running command.
// It only shows the notice; the guard running the command performs the
// redirect once the notice is dismissed or times out.
type ExpiryNotice struct {
	// Show displays the notice and returns when it is dismissed or ctx ends
	Show func(ctx context.Context)
	// Timeout bounds how long the notice stays up
	Timeout time.Duration
}

// SessionExpired shows the notice. The guard has already cancelled the
// command's context by the time a 401 is reported, so the wait is detached
// from it and bounded by Timeout alone.
func (n ExpiryNotice) SessionExpired(ctx context.Context) {
	if n.Show == nil {
		return
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = defaultNoticeTimeout
	}
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	n.Show(waitCtx)
}
