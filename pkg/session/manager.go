// Package session holds the client's belief about whether the backend
// still honours its session cookie, and keeps that belief in step with
// other dormdesk processes on the same profile.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zfogg/dormdesk/pkg/logger"
	"github.com/zfogg/dormdesk/pkg/tabsync"
)

// DefaultFreshness is how long a verification is trusted without asking
// the server again.
const DefaultFreshness = 5 * time.Minute

// Verifier asks the server whether the session is still valid. It must not
// trigger the client's own 401 handling.
type Verifier func(ctx context.Context) error

// Option configures a Manager
type Option func(*Manager)

// WithVerifier sets the probe used when the marker is stale
func WithVerifier(v Verifier) Option {
	return func(m *Manager) { m.verify = v }
}

// WithBus sets the cross-process channel
func WithBus(b tabsync.Bus) Option {
	return func(m *Manager) { m.bus = b }
}

// WithFreshness sets the verification window
func WithFreshness(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.freshness = d
		}
	}
}

// WithCredentialReload sets how shared credentials, such as the cookie
// file, are re-read when another process signs in or out
func WithCredentialReload(reload func() error) Option {
	return func(m *Manager) { m.reload = reload }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager is the process-wide session state machine. Create one at
// startup and pass it to whatever needs it.
type Manager struct {
	store     Store
	verify    Verifier
	bus       tabsync.Bus
	now       func() time.Time
	freshness time.Duration
	reload    func() error

	// storeMu serialises read-modify-write cycles on the marker
	storeMu sync.Mutex

	mu      sync.Mutex
	state   State
	subs    map[int]chan Transition
	nextSub int
}

// NewManager creates a manager in the loading state
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		bus:       tabsync.Nop{},
		now:       time.Now,
		freshness: DefaultFreshness,
		state:     StateLoading,
		subs:      make(map[int]chan Transition),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Marker returns the persisted marker as it is now
func (m *Manager) Marker() (Marker, error) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	return m.store.Load()
}

// Freshness is how long a verification is trusted without a probe
func (m *Manager) Freshness() time.Duration {
	return m.freshness
}

// Subscribe delivers every state change until cancel is called
func (m *Manager) Subscribe() (<-chan Transition, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Transition, 16)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

func (m *Manager) transition(to State, ev Event, cause Cause) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.state
	m.state = to
	t := Transition{From: from, To: to, Event: ev, Cause: cause, At: m.now()}

	logger.Debug("Session transition", "from", from, "to", to, "event", ev, "cause", cause)
	if from == to {
		return to
	}
	for _, ch := range m.subs {
		select {
		case ch <- t:
		default:
			logger.Warn("Session subscriber is not keeping up", "event", ev)
		}
	}
	return to
}

// Refresh re-derives the state from the marker, asking the server only
// when the last verification is older than the freshness window. It never
// fails: every error path ends unauthenticated with the marker cleared.
func (m *Manager) Refresh(ctx context.Context) State {
	return m.refresh(ctx, CauseBootstrap)
}

func (m *Manager) refresh(ctx context.Context, cause Cause) (state State) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Session verification panicked", "panic", fmt.Sprint(r))
			m.clearMarker()
			state = m.transition(StateUnauthenticated, EventVerifyFailed, cause)
		}
	}()

	marker, err := m.store.Load()
	if err != nil {
		logger.Warn("Failed to read session marker", "error", err)
		m.clearMarker()
		return m.transition(StateUnauthenticated, EventVerifyFailed, cause)
	}
	if !marker.HasSession {
		return m.transition(StateUnauthenticated, EventNoMarker, cause)
	}
	if marker.VerifiedAt != nil && m.now().Sub(*marker.VerifiedAt) < m.freshness {
		return m.transition(StateAuthenticated, EventFresh, cause)
	}

	if m.verify == nil {
		logger.Warn("No session verifier configured")
		m.clearMarker()
		return m.transition(StateUnauthenticated, EventVerifyFailed, cause)
	}
	if err := m.verify(ctx); err != nil {
		logger.Info("Session verification failed", "error", err)
		m.clearMarker()
		return m.transition(StateUnauthenticated, EventVerifyFailed, cause)
	}

	m.stamp(true)
	return m.transition(StateAuthenticated, EventVerified, cause)
}

// stamp records a verification. With create false it only refreshes an
// existing marker.
func (m *Manager) stamp(create bool) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	marker, err := m.store.Load()
	if err != nil {
		logger.Warn("Failed to read session marker", "error", err)
		return
	}
	if !marker.HasSession && !create {
		return
	}
	now := m.now()
	marker.HasSession = true
	marker.VerifiedAt = &now
	if err := m.store.Save(marker); err != nil {
		logger.Warn("Failed to save session marker", "error", err)
	}
}

// clearMarker removes the marker and reports whether one was present
func (m *Manager) clearMarker() bool {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	marker, err := m.store.Load()
	if err == nil && !marker.HasSession {
		return false
	}
	if err := m.store.Clear(); err != nil {
		logger.Warn("Failed to clear session marker", "error", err)
	}
	return true
}

// MarkActive records a completed login and tells the other processes
func (m *Manager) MarkActive(ctx context.Context) {
	m.stamp(true)
	m.transition(StateAuthenticated, EventLogin, CauseLocal)

	if err := m.bus.Publish(ctx, tabsync.Login{}); err != nil {
		logger.Warn("Failed to broadcast login", "error", err)
	}
}

// OnAuthorized refreshes the verification time after a successful call
func (m *Manager) OnAuthorized() {
	m.stamp(false)
}

// OnUnauthorized drops the session after a 401. Repeated calls are no-ops,
// and nothing is broadcast: other processes find out on their own next call.
func (m *Manager) OnUnauthorized() {
	cleared := m.clearMarker()
	if !cleared && m.State() == StateUnauthenticated {
		return
	}
	m.transition(StateUnauthenticated, EventUnauthorized, CauseRequest)
}

// Logout ends the session. The server call is best-effort; local state is
// cleared and the logout broadcast whatever it returns.
func (m *Manager) Logout(ctx context.Context, remote func(context.Context) error) {
	if remote != nil {
		if err := remote(ctx); err != nil {
			logger.Warn("Server logout failed, clearing local session anyway", "error", err)
		}
	}

	m.clearMarker()
	m.transition(StateUnauthenticated, EventLogout, CauseLocal)

	if err := m.bus.Publish(ctx, tabsync.Logout{}); err != nil {
		logger.Warn("Failed to broadcast logout", "error", err)
	}
}

// Handle applies a message from another process
func (m *Manager) Handle(ctx context.Context, msg tabsync.Message) {
	switch msg.(type) {
	case tabsync.Login:
		m.reloadCredentials()
		m.refresh(ctx, CauseRemoteLogin)
	case tabsync.Logout:
		m.reloadCredentials()
		m.clearMarker()
		m.transition(StateUnauthenticated, EventRemoteLogout, CauseRemote)
	default:
		logger.Warn("Ignoring unsupported session message", "type", fmt.Sprintf("%T", msg))
	}
}

func (m *Manager) reloadCredentials() {
	if m.reload == nil {
		return
	}
	if err := m.reload(); err != nil {
		logger.Warn("Failed to reload shared credentials", "error", err)
	}
}

// Listen applies messages from other processes until ctx is done
func (m *Manager) Listen(ctx context.Context) error {
	ch, err := m.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for msg := range ch {
			m.Handle(ctx, msg)
		}
	}()
	return nil
}
