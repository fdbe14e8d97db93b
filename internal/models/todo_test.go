package models

import (
	"encoding/json"
	"testing"
)

func TestTodoPatch_UnmarshalPresence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		validate func(*testing.T, TodoPatch)
	}{
		{
			name: "empty object leaves every field absent",
			body: `{}`,
			validate: func(t *testing.T, p TodoPatch) {
				if !p.IsEmpty() {
					t.Errorf("Expected empty patch, got %+v", p)
				}
			},
		},
		{
			name: "explicit null description is set and null",
			body: `{"description": null}`,
			validate: func(t *testing.T, p TodoPatch) {
				if !p.Description.Set || !p.Description.Null {
					t.Errorf("Expected description set to null, got %+v", p.Description)
				}
				if p.Title.Set {
					t.Error("Expected title to be absent")
				}
			},
		},
		{
			name: "values are carried through",
			body: `{"title": "Buy milk", "completed": false}`,
			validate: func(t *testing.T, p TodoPatch) {
				if !p.Title.HasValue() || p.Title.Value != "Buy milk" {
					t.Errorf("Expected title 'Buy milk', got %+v", p.Title)
				}
				if !p.Completed.HasValue() || p.Completed.Value {
					t.Errorf("Expected completed=false to be present, got %+v", p.Completed)
				}
				if p.Description.Set {
					t.Error("Expected description to be absent")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var p TodoPatch
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("Failed to unmarshal patch: %v", err)
			}
			tt.validate(t, p)
		})
	}
}

func TestOptional_WrongType(t *testing.T) {
	t.Parallel()

	var p TodoPatch
	if err := json.Unmarshal([]byte(`{"completed": "yes"}`), &p); err == nil {
		t.Error("Expected error for string completed value")
	}
}

func TestTodo_Clone(t *testing.T) {
	t.Parallel()

	desc := "two litres"
	orig := &Todo{ID: 1, Title: "Buy milk", Description: &desc}
	cp := orig.Clone()

	*cp.Description = "changed"
	cp.Title = "changed"

	if *orig.Description != "two litres" {
		t.Errorf("Expected original description untouched, got %q", *orig.Description)
	}
	if orig.Title != "Buy milk" {
		t.Errorf("Expected original title untouched, got %q", orig.Title)
	}

	var nilTodo *Todo
	if nilTodo.Clone() != nil {
		t.Error("Expected Clone of nil to be nil")
	}
}

func TestTodo_MarshalNullDescription(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Todo{ID: 1, Title: "x"})
	if err != nil {
		t.Fatalf("Failed to marshal todo: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("Failed to decode todo: %v", err)
	}

	v, ok := body["description"]
	if !ok {
		t.Fatal("Expected description key to be present")
	}
	if v != nil {
		t.Errorf("Expected description null, got %v", v)
	}
}
