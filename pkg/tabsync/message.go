// Package tabsync carries login/logout notices between dormdesk processes
// that share a profile, the way browser tabs of one origin share a
// broadcast channel.
package tabsync

import (
	"context"
	"fmt"

	json "github.com/json-iterator/go"
)

// Message is either Login or Logout
type Message interface {
	Kind() Kind
	sealed()
}

// Kind is the wire tag of a Message
type Kind string

const (
	KindLogin  Kind = "login"
	KindLogout Kind = "logout"
)

// Login announces that this profile just obtained a session
type Login struct{}

// Logout announces that this profile's session was ended on purpose
type Logout struct{}

func (Login) Kind() Kind  { return KindLogin }
func (Login) sealed()     {}
func (Logout) Kind() Kind { return KindLogout }
func (Logout) sealed()    {}

// Bus publishes messages to, and receives messages from, the other
// members of a channel. A member never receives its own messages.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	// Subscribe delivers messages until ctx is done, then closes the channel.
	Subscribe(ctx context.Context) (<-chan Message, error)
	Close() error
}

type envelope struct {
	Type   Kind   `json:"type"`
	Sender string `json:"sender"`
}

// Encode renders msg for the wire
func Encode(sender string, msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("tabsync: nil message")
	}
	return json.Marshal(envelope{Type: msg.Kind(), Sender: sender})
}

// Decode parses a wire message and reports its sender. Unknown tags are an
// error rather than a silent no-op.
func Decode(data []byte) (Message, string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("tabsync: malformed message: %w", err)
	}
	switch env.Type {
	case KindLogin:
		return Login{}, env.Sender, nil
	case KindLogout:
		return Logout{}, env.Sender, nil
	default:
		return nil, env.Sender, fmt.Errorf("tabsync: unknown message type %q", env.Type)
	}
}
