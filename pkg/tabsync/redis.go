package tabsync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/zfogg/dormdesk/pkg/logger"
)

// Redis is a bus over a Redis pub/sub channel, for staff who run dormdesk
// on several machines against one profile.
type Redis struct {
	client  *redis.Client
	channel string
	id      string
}

// NewRedis connects to addr and verifies the connection
func NewRedis(ctx context.Context, addr, channel string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &Redis{client: client, channel: channel, id: uuid.NewString()}, nil
}

// Publish sends msg to the channel
func (r *Redis) Publish(ctx context.Context, msg Message) error {
	data, err := Encode(r.id, msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Subscribe relays channel messages from other members until ctx is done
func (r *Redis) Subscribe(ctx context.Context) (<-chan Message, error) {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		defer sub.Close()
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				msg, sender, err := Decode([]byte(m.Payload))
				if err != nil {
					logger.Warn("Dropping session sync message", "channel", m.Channel, "error", err)
					continue
				}
				if sender == r.id {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the connection pool
func (r *Redis) Close() error {
	return r.client.Close()
}
