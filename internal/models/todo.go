package models

import (
	"time"
)

const (
	// MinTitleLength is the minimum length of a todo title, in characters
	MinTitleLength = 1
	// MaxTitleLength is the maximum length of a todo title, in characters
	MaxTitleLength = 200
	// MaxDescriptionLength is the maximum length of a todo description, in characters
	MaxDescriptionLength = 1000
)

// Todo represents a todo item
type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the todo so callers never share the description pointer
func (t *Todo) Clone() *Todo {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Description != nil {
		d := *t.Description
		cp.Description = &d
	}
	return &cp
}

// TodoCreate holds the input for creating a todo
type TodoCreate struct {
	Title       string  `json:"title" validate:"min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Completed   bool    `json:"completed"`
}

// TodoPatch holds a partial update. Fields that were not supplied are left untouched.
type TodoPatch struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	Completed   Optional[bool]   `json:"completed"`
}

// IsEmpty reports whether the patch carries no fields at all
func (p TodoPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Completed.Set
}
