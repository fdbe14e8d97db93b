package queue

import (
	"time"

	"github.com/benvon/todo-app/internal/models"
	"github.com/google/uuid"
)

// EventType names a todo change. It doubles as the routing key.
type EventType string

const (
	EventTodoCreated EventType = "todo.created"
	EventTodoUpdated EventType = "todo.updated"
	EventTodoToggled EventType = "todo.toggled"
	EventTodoDeleted EventType = "todo.deleted"
)

// Event describes one successful change to the todo store
type Event struct {
	ID         uuid.UUID    `json:"id"`
	Type       EventType    `json:"type"`
	TodoID     int64        `json:"todo_id"`
	Todo       *models.Todo `json:"todo,omitempty"` // nil for deletions
	RequestID  string       `json:"request_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// NewEvent creates an event for todo. todo may be nil for deletions.
func NewEvent(eventType EventType, todoID int64, todo *models.Todo) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		TodoID:     todoID,
		Todo:       todo.Clone(),
		OccurredAt: time.Now().UTC(),
	}
}

// RoutingKey returns the key the event is published under
func (e *Event) RoutingKey() string {
	return string(e.Type)
}
