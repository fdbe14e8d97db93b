package store

import (
	"context"

	"github.com/benvon/todo-app/internal/models"
)

// TodoStore defines the operations that observe or change the todo collection.
// Handlers depend on this interface so tests can substitute their own implementation.
type TodoStore interface {
	List(ctx context.Context, completed *bool) []models.Todo
	Get(ctx context.Context, id int64) (*models.Todo, error)
	Create(ctx context.Context, in models.TodoCreate) (*models.Todo, error)
	Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error)
	Toggle(ctx context.Context, id int64) (*models.Todo, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) Stats
}

// Stats summarises the collection
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
	// LastID is the most recently issued id, or 0 if none was issued yet
	LastID int64 `json:"last_id"`
}

// Ensure concrete types implement the interface
var _ TodoStore = (*MemoryStore)(nil)
