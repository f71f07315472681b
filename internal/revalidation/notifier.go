// Package revalidation tells viewers that the board and calendar are stale.
// Each request mutation bumps a version per view and fans the new versions
// out; clients refetch on receipt or when a polled version moves.
package revalidation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/gearguard/internal/core/events"
)

const (
	ViewBoard    = "board"
	ViewCalendar = "calendar"
)

// Views are invalidated together on every request mutation.
var Views = []string{ViewBoard, ViewCalendar}

type Notifier struct {
	store  VersionStore
	fanout Fanout
	logger *slog.Logger
}

func NewNotifier(store VersionStore, fanout Fanout, logger *slog.Logger) *Notifier {
	return &Notifier{store: store, fanout: fanout, logger: logger}
}

// Register subscribes the notifier to request events.
func (n *Notifier) Register(bus *events.EventBus) {
	bus.SubscribeAll(events.RequestEventTypes, n.Handle)
}

func (n *Notifier) Handle(ctx context.Context, event events.Event) error {
	_, err := n.Invalidate(ctx, event.EventType())
	return err
}

// Invalidate bumps every view and fans the new versions out. A failed
// fanout is logged; the versions have moved and polling clients still see it.
func (n *Notifier) Invalidate(ctx context.Context, cause string) (*events.ViewsInvalidatedEvent, error) {
	versions := make(map[string]int64, len(Views))
	for _, view := range Views {
		v, err := n.store.Incr(ctx, view)
		if err != nil {
			n.logger.Error("failed to bump view version", "view", view, "cause", cause, "error", err)
			return nil, fmt.Errorf("bump %s version: %w", view, err)
		}
		versions[view] = v
	}

	ev := events.NewViewsInvalidatedEvent(cause, versions)
	if n.fanout != nil {
		if err := n.fanout.Fanout(ctx, messageFrom(ev)); err != nil {
			n.logger.Error("failed to fan out invalidation", "cause", cause, "error", err)
		}
	}

	n.logger.Debug("views invalidated", "cause", cause, "versions", versions)
	return ev, nil
}

func (n *Notifier) Versions(ctx context.Context) (map[string]int64, error) {
	return n.store.Versions(ctx, Views...)
}
