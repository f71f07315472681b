package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frahmantamala/gearguard/internal/core/events"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Watch listens on the server's push endpoint and refetches the whole
// collection every time the board is reported stale. It returns nil once ctx
// is done, or the error that dropped the connection.
func (s *Synchronizer) Watch(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", redactToken(wsURL), err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	s.logger.Info("watching board", "url", redactToken(wsURL))
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read push: %w", err)
		}
		if env.Type != events.EventTypeViewsInvalidated {
			continue
		}
		s.logger.Debug("board invalidated", "payload", string(env.Payload))
		if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("refetch after invalidation failed", "error", err)
		}
	}
}

func redactToken(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "redacted")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
