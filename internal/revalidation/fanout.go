package revalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/frahmantamala/gearguard/internal/core/events"
)

// Message is what clients receive when their cached views go stale.
type Message struct {
	ID         string           `json:"id"`
	Views      []string         `json:"views"`
	Versions   map[string]int64 `json:"versions"`
	Cause      string           `json:"cause"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func messageFrom(ev *events.ViewsInvalidatedEvent) Message {
	return Message{
		ID:         ev.EventID(),
		Views:      ev.Views,
		Versions:   ev.Versions,
		Cause:      ev.Cause,
		OccurredAt: ev.OccurredAt(),
	}
}

// Sink receives messages for local delivery. The websocket hub is one.
type Sink interface {
	Broadcast(messageType string, payload interface{}) error
}

// Fanout delivers an invalidation to every server instance.
type Fanout interface {
	Fanout(ctx context.Context, msg Message) error
}

// LocalFanout is the single-instance path: straight to the sink.
type LocalFanout struct {
	sink Sink
}

func NewLocalFanout(sink Sink) *LocalFanout {
	return &LocalFanout{sink: sink}
}

func (l *LocalFanout) Fanout(_ context.Context, msg Message) error {
	if l.sink == nil {
		return nil
	}
	return l.sink.Broadcast(events.EventTypeViewsInvalidated, msg)
}

// RedisFanout publishes on a channel; every instance runs Relay to pass
// what arrives to its own sink.
type RedisFanout struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisFanout(client *redis.Client, channel string, logger *slog.Logger) *RedisFanout {
	return &RedisFanout{client: client, channel: channel, logger: logger}
}

func (r *RedisFanout) Fanout(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Relay forwards channel messages to sink until ctx is done.
func (r *RedisFanout) Relay(ctx context.Context, sink Sink) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("relaying view invalidations", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				r.logger.Warn("dropping malformed invalidation", "error", err)
				continue
			}
			if err := sink.Broadcast(events.EventTypeViewsInvalidated, msg); err != nil {
				r.logger.Error("failed to relay invalidation", "id", msg.ID, "error", err)
			}
		}
	}
}
