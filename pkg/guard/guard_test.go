package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/dormdesk/pkg/client"
	"github.com/zfogg/dormdesk/pkg/session"
	"github.com/zfogg/dormdesk/pkg/tabsync"
)

type redirectRecorder struct {
	mu      sync.Mutex
	targets []string
}

func (r *redirectRecorder) Redirect(_ context.Context, returnTo string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, returnTo)
}

func (r *redirectRecorder) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.targets...)
}

func freshMarker() session.Marker {
	now := time.Now()
	return session.Marker{HasSession: true, VerifiedAt: &now}
}

func TestRunAuthenticatedRendersContent(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore(freshMarker()))
	rec := &redirectRecorder{}
	placeholders := 0
	g := New(m, rec.Redirect, func() { placeholders++ })

	ran := false
	err := g.Run(context.Background(), "/rollcall/show", func(ctx context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, placeholders, "placeholder shows while loading")
	assert.Empty(t, rec.Targets())
}

func TestRunUnauthenticatedRedirects(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore(session.Marker{}))
	rec := &redirectRecorder{}
	g := New(m, rec.Redirect, nil)

	ran := false
	err := g.Run(context.Background(), "/parcels/list", func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, err, ErrRedirected)
	assert.False(t, ran)
	assert.Equal(t, []string{"/parcels/list"}, rec.Targets())
}

func TestRunSkipsPlaceholderOnceResolved(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore(freshMarker()))
	m.Refresh(context.Background())

	placeholders := 0
	g := New(m, nil, func() { placeholders++ })
	require.NoError(t, g.Run(context.Background(), "/rooms", func(context.Context) error { return nil }))
	assert.Equal(t, 0, placeholders)
}

func TestRunRedirectsOnCrossTabLogout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := tabsync.NewHub()
	here := session.NewManager(session.NewMemoryStore(freshMarker()), session.WithBus(hub.Join()))
	there := session.NewManager(session.NewMemoryStore(freshMarker()), session.WithBus(hub.Join()))
	require.NoError(t, here.Listen(ctx))

	rec := &redirectRecorder{}
	g := New(here, rec.Redirect, nil)

	started := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		result <- g.Run(ctx, "/session/watch", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	<-started
	there.Logout(ctx, nil)

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrRedirected)
	case <-time.After(2 * time.Second):
		t.Fatal("protected content kept running after logout")
	}
	assert.Equal(t, []string{"/session/watch"}, rec.Targets())
}

func TestRunRedirectsOnUnauthorizedDuringContent(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore(freshMarker()))
	rec := &redirectRecorder{}
	g := New(m, rec.Redirect, nil)

	err := g.Run(context.Background(), "/notices", func(ctx context.Context) error {
		m.OnUnauthorized()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	})

	assert.ErrorIs(t, err, ErrRedirected)
	assert.Equal(t, []string{"/notices"}, rec.Targets())
}

// TestExpiredNoticeRunsToTimeoutThenRedirectsOnce drives a real 401 through
// the client: the notice must stay up for its full timeout even though the
// command's context is already cancelled, and only the guard redirects.
func TestExpiredNoticeRunsToTimeoutThenRedirectsOnce(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"session_expired","message":"session expired"}`))
	}))
	defer ts.Close()

	c, err := client.New(client.Options{BaseURL: ts.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	m := session.NewManager(session.NewMemoryStore(freshMarker()))
	c.SetObserver(m)
	c.SetRoute(func() string { return "/notices" })

	var (
		noticeErr error
		shown     time.Duration
	)
	c.SetNotifier(ExpiryNotice{
		Timeout: 150 * time.Millisecond,
		Show: func(ctx context.Context) {
			start := time.Now()
			<-ctx.Done()
			shown = time.Since(start)
			noticeErr = ctx.Err()
		},
	})

	rec := &redirectRecorder{}
	g := New(m, rec.Redirect, nil)

	err = g.Run(context.Background(), "/notices", func(ctx context.Context) error {
		_, err := c.Do(ctx, "/notices", client.RequestOptions{})
		return err
	})

	assert.ErrorIs(t, err, ErrRedirected)
	assert.ErrorIs(t, noticeErr, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, shown, 100*time.Millisecond)
	assert.Equal(t, []string{"/notices"}, rec.Targets())
	assert.Equal(t, session.StateUnauthenticated, m.State())
}
