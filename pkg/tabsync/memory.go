package tabsync

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Hub is an in-process channel. Each Join returns a member Bus.
type Hub struct {
	mu   sync.Mutex
	subs map[*memorySub]struct{}
}

type memorySub struct {
	owner string
	ch    chan Message
}

// NewHub creates an empty in-process channel
func NewHub() *Hub {
	return &Hub{subs: make(map[*memorySub]struct{})}
}

// Join adds a member to the hub
func (h *Hub) Join() Bus {
	return &memoryBus{hub: h, id: uuid.NewString()}
}

type memoryBus struct {
	hub *Hub
	id  string
}

func (b *memoryBus) Publish(ctx context.Context, msg Message) error {
	b.hub.mu.Lock()
	defer b.hub.mu.Unlock()
	for sub := range b.hub.subs {
		if sub.owner == b.id {
			continue
		}
		select {
		case sub.ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Slow subscriber; delivery is best-effort
		}
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context) (<-chan Message, error) {
	sub := &memorySub{owner: b.id, ch: make(chan Message, 16)}

	b.hub.mu.Lock()
	b.hub.subs[sub] = struct{}{}
	b.hub.mu.Unlock()

	out := make(chan Message)
	go func() {
		defer close(out)
		defer func() {
			b.hub.mu.Lock()
			delete(b.hub.subs, sub)
			b.hub.mu.Unlock()
		}()
		for {
			select {
			case msg := <-sub.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *memoryBus) Close() error { return nil }

// Nop is the bus used when sync is disabled or unavailable
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }

func (Nop) Subscribe(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

func (Nop) Close() error { return nil }
