package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/todo-app/internal/models"
	"github.com/benvon/todo-app/internal/validation"
	"go.uber.org/zap"
)

const (
	titleConstraint       = "min=1,max=200"
	descriptionConstraint = "max=1000"
)

// MemoryStore holds todos in process memory, in insertion order.
// All access goes through mu; the index maps an id to its position in todos.
type MemoryStore struct {
	mu     sync.RWMutex
	todos  []*models.Todo
	index  map[int64]int
	lastID int64

	now    func() time.Time
	logger *zap.Logger
}

// Option configures a MemoryStore
type Option func(*MemoryStore)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for store events
func WithLogger(logger *zap.Logger) Option {
	return func(s *MemoryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMemoryStore creates an empty store
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		index:  make(map[int64]int),
		now:    func() time.Time { return time.Now().UTC() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns todos in insertion order, optionally filtered by completion state
func (s *MemoryStore) List(ctx context.Context, completed *bool) []models.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if completed != nil && t.Completed != *completed {
			continue
		}
		out = append(out, *t.Clone())
	}
	return out
}

// Get returns the todo with the given id
func (s *MemoryStore) Get(ctx context.Context, id int64) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.find(id)
	if !ok {
		return nil, fmt.Errorf("get todo %d: %w", id, ErrNotFound)
	}
	return t.Clone(), nil
}

// Create validates the input, issues the next id and appends the todo
func (s *MemoryStore) Create(ctx context.Context, in models.TodoCreate) (*models.Todo, error) {
	if err := validation.Struct(in, "body"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	now := s.now()
	todo := &models.Todo{
		ID:        s.lastID,
		Title:     in.Title,
		Completed: in.Completed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Description != nil {
		d := *in.Description
		todo.Description = &d
	}

	s.index[todo.ID] = len(s.todos)
	s.todos = append(s.todos, todo)

	s.logger.Debug("todo_created",
		zap.Int64("todo_id", todo.ID),
		zap.Bool("completed", todo.Completed),
	)

	return todo.Clone(), nil
}

// Update applies the fields of patch that carry a value; absent and null fields
// leave the stored value untouched. Every such field is validated before any of
// them is written.
func (s *MemoryStore) Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.find(id)
	if !ok {
		return nil, fmt.Errorf("update todo %d: %w", id, ErrNotFound)
	}

	if patch.Title.HasValue() {
		t.Title = patch.Title.Value
	}
	if patch.Description.HasValue() {
		d := patch.Description.Value
		t.Description = &d
	}
	if patch.Completed.HasValue() {
		t.Completed = patch.Completed.Value
	}
	s.touch(t)

	s.logger.Debug("todo_updated",
		zap.Int64("todo_id", t.ID),
		zap.Bool("title_set", patch.Title.HasValue()),
		zap.Bool("description_set", patch.Description.HasValue()),
		zap.Bool("completed_set", patch.Completed.HasValue()),
	)

	return t.Clone(), nil
}

// Toggle flips the completion state of a todo
func (s *MemoryStore) Toggle(ctx context.Context, id int64) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.find(id)
	if !ok {
		return nil, fmt.Errorf("toggle todo %d: %w", id, ErrNotFound)
	}

	t.Completed = !t.Completed
	s.touch(t)

	s.logger.Debug("todo_toggled",
		zap.Int64("todo_id", t.ID),
		zap.Bool("completed", t.Completed),
	)

	return t.Clone(), nil
}

// Delete removes a todo. Its id is never issued again.
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("delete todo %d: %w", id, ErrNotFound)
	}

	copy(s.todos[i:], s.todos[i+1:])
	s.todos[len(s.todos)-1] = nil
	s.todos = s.todos[:len(s.todos)-1]
	delete(s.index, id)
	for j := i; j < len(s.todos); j++ {
		s.index[s.todos[j].ID] = j
	}

	s.logger.Debug("todo_deleted", zap.Int64("todo_id", id))

	return nil
}

// Stats returns counts over the current collection
func (s *MemoryStore) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Total: len(s.todos), LastID: s.lastID}
	for _, t := range s.todos {
		if t.Completed {
			st.Completed++
		}
	}
	st.Active = st.Total - st.Completed
	return st
}

// find must be called with mu held
func (s *MemoryStore) find(id int64) (*models.Todo, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.todos[i], true
}

// touch refreshes UpdatedAt, keeping it strictly increasing even when the clock
// has not advanced since the previous write. Must be called with mu held.
func (s *MemoryStore) touch(t *models.Todo) {
	now := s.now()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now
}

func validatePatch(patch models.TodoPatch) error {
	verr := &validation.Error{}

	if patch.Title.HasValue() {
		if err := validation.Var(patch.Title.Value, titleConstraint, "body", "title"); err != nil {
			fe, ok := AsValidationError(err)
			if !ok {
				return err
			}
			verr.Fields = append(verr.Fields, fe.Fields...)
		}
	}

	if patch.Description.HasValue() {
		if err := validation.Var(patch.Description.Value, descriptionConstraint, "body", "description"); err != nil {
			fe, ok := AsValidationError(err)
			if !ok {
				return err
			}
			verr.Fields = append(verr.Fields, fe.Fields...)
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
