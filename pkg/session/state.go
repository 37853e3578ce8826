package session

import "time"

// State is the manager's belief about authentication
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Event is what caused a transition
type Event string

const (
	EventNoMarker     Event = "no_marker"
	EventFresh        Event = "fresh"
	EventVerified     Event = "verified"
	EventVerifyFailed Event = "verify_failed"
	EventLogin        Event = "login"
	EventLogout       Event = "logout"
	EventUnauthorized Event = "unauthorized"
	EventRemoteLogout Event = "remote_logout"
)

// Cause is what started the work that led to a transition
type Cause string

const (
	CauseBootstrap   Cause = "bootstrap"
	CauseRemoteLogin Cause = "remote_login"
	CauseLocal       Cause = "local"
	CauseRemote      Cause = "remote"
	CauseRequest     Cause = "request"
)

// Transition is one step of the state machine
type Transition struct {
	From  State
	To    State
	Event Event
	Cause Cause
	At    time.Time
}
