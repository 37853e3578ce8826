package service

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/auth"
	"github.com/zfogg/dormdesk/pkg/formatter"
	"github.com/zfogg/dormdesk/pkg/logger"
	"github.com/zfogg/dormdesk/pkg/output"
	"github.com/zfogg/dormdesk/pkg/prompter"
	"github.com/zfogg/dormdesk/pkg/session"
)

// LoginTimeout bounds the wait for the browser to come back
const LoginTimeout = 5 * time.Minute

// Sessions is the session manager as the services see it
type Sessions interface {
	State() session.State
	Refresh(ctx context.Context) session.State
	MarkActive(ctx context.Context)
	Logout(ctx context.Context, remote func(context.Context) error)
	Marker() (session.Marker, error)
	Freshness() time.Duration
	Subscribe() (<-chan session.Transition, func())
}

// AuthService drives the redirect login and session commands
type AuthService struct {
	api      *api.API
	sessions Sessions
	baseURL  string
	// OpenBrowser opens a URL for the user. Replaced in tests.
	OpenBrowser func(url string) error
}

// NewAuthService creates a new auth service
func NewAuthService(a *api.API, sessions Sessions, baseURL string) *AuthService {
	return &AuthService{api: a, sessions: sessions, baseURL: baseURL, OpenBrowser: openBrowser}
}

// Login sends the user through the authorization server and waits for the
// callback on a loopback listener. returnTo is the command route to
// continue with afterwards.
func (s *AuthService) Login(ctx context.Context, returnTo string, openBrowser bool) error {
	if s.sessions.Refresh(ctx) == session.StateAuthenticated {
		formatter.PrintWarning("Already signed in")
		if prompter.IsInteractive() {
			confirm, err := prompter.PromptConfirm("Sign in again?")
			if err != nil {
				return err
			}
			if !confirm {
				return nil
			}
		}
	}

	receiver, err := auth.NewReceiver("127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start login callback listener: %w", err)
	}
	defer receiver.Close()

	loginURL := auth.LoginURL(s.baseURL, returnTo, receiver.URL())
	formatter.PrintInfo("Open this address to sign in:")
	fmt.Fprintln(output.Out, "  "+loginURL)
	if openBrowser && s.OpenBrowser != nil {
		if err := s.OpenBrowser(loginURL); err != nil {
			logger.Debug("Could not open browser", "error", err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, LoginTimeout)
	defer cancel()
	formatter.PrintInfo("Waiting for the sign-in to complete...")
	cb, err := receiver.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("sign-in did not complete: %w", err)
	}

	_, err = s.Callback(ctx, cb)
	return err
}

// Callback completes a login from the code and state the authorization
// server returned, and reports the route to continue with
func (s *AuthService) Callback(ctx context.Context, cb auth.Callback) (string, error) {
	if err := s.api.ExchangeCode(ctx, cb.Code, cb.State); err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	s.sessions.MarkActive(ctx)

	target := auth.DecodeState(cb.State)
	formatter.PrintSuccess("✓ Signed in")
	formatter.PrintInfo("Continue with: dormdesk %s", RouteCommand(target))
	return target, nil
}

// Logout ends the session here and in every other dormdesk process
func (s *AuthService) Logout(ctx context.Context) error {
	s.sessions.Logout(ctx, s.api.Logout)
	formatter.PrintSuccess("✓ Signed out")
	return nil
}

// Status resolves the session and prints what is known about it
func (s *AuthService) Status(ctx context.Context, profile string) error {
	state := s.sessions.Refresh(ctx)
	marker, err := s.sessions.Marker()
	if err != nil {
		return err
	}

	verified := "never"
	if marker.VerifiedAt != nil {
		verified = formatter.Time(marker.VerifiedAt)
	}
	formatter.PrintKeyValue(map[string]interface{}{
		"State":     state.String(),
		"Verified":  verified,
		"Freshness": s.sessions.Freshness().String(),
		"Profile":   profile,
		"API":       s.baseURL,
	})
	return nil
}

// Watch prints session transitions until ctx is done
func (s *AuthService) Watch(ctx context.Context) error {
	transitions, cancel := s.sessions.Subscribe()
	defer cancel()

	formatter.PrintInfo("Watching session state (%s). Press Ctrl+C to stop", s.sessions.State())
	for {
		select {
		case t, ok := <-transitions:
			if !ok {
				return nil
			}
			fmt.Fprintf(output.Out, "%s  %s -> %s  (%s, %s)\n",
				t.At.Local().Format("15:04:05"), t.From, formatter.Bold.Sprint(t.To.String()), t.Event, t.Cause)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RouteCommand turns a route such as /rollcall/show into the command words
// that run it
func RouteCommand(route string) string {
	route = strings.Trim(route, "/")
	if route == "" || route == "home" {
		return "--help"
	}
	return strings.ReplaceAll(route, "/", " ")
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
