package events

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRequestCreated = "request.created"
	EventTypeRequestUpdated = "request.updated"
	EventTypeRequestDeleted = "request.deleted"

	// EventTypeViewsInvalidated is raised when derived views must be refetched.
	EventTypeViewsInvalidated = "views.invalidated"
)

// RequestEventTypes lists every event that invalidates the board and calendar.
var RequestEventTypes = []string{
	EventTypeRequestCreated,
	EventTypeRequestUpdated,
	EventTypeRequestDeleted,
}

type RequestChangedEvent struct {
	BaseEvent
	RequestID int64  `json:"request_id"`
	ActorID   int64  `json:"actor_id"`
	Status    string `json:"status,omitempty"`
}

func newRequestEvent(eventType string, requestID, actorID int64, status string) *RequestChangedEvent {
	return &RequestChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id": requestID,
				"actor_id":   actorID,
				"status":     status,
			},
		},
		RequestID: requestID,
		ActorID:   actorID,
		Status:    status,
	}
}

func NewRequestCreatedEvent(requestID, actorID int64, status string) *RequestChangedEvent {
	return newRequestEvent(EventTypeRequestCreated, requestID, actorID, status)
}

func NewRequestUpdatedEvent(requestID, actorID int64, status string) *RequestChangedEvent {
	return newRequestEvent(EventTypeRequestUpdated, requestID, actorID, status)
}

func NewRequestDeletedEvent(requestID, actorID int64) *RequestChangedEvent {
	return newRequestEvent(EventTypeRequestDeleted, requestID, actorID, "")
}

type ViewsInvalidatedEvent struct {
	BaseEvent
	Views    []string         `json:"views"`
	Versions map[string]int64 `json:"versions"`
	Cause    string           `json:"cause"`
}

func NewViewsInvalidatedEvent(cause string, versions map[string]int64) *ViewsInvalidatedEvent {
	views := make([]string, 0, len(versions))
	for v := range versions {
		views = append(views, v)
	}
	sort.Strings(views)
	return &ViewsInvalidatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeViewsInvalidated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"versions": versions,
				"cause":    cause,
			},
		},
		Views:    views,
		Versions: versions,
		Cause:    cause,
	}
}
