package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Title string  `json:"title" validate:"min=1,max=5"`
	Note  *string `json:"note" validate:"omitempty,max=3"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	long := "abcd"
	ok := "ab"

	tests := []struct {
		name     string
		input    sample
		wantErr  bool
		wantLoc  string
		wantType string
	}{
		{"valid", sample{Title: "hello", Note: &ok}, false, "", ""},
		{"nil optional pointer", sample{Title: "h"}, false, "", ""},
		{"empty title", sample{Title: ""}, true, "body.title", "string_too_short"},
		{"title too long", sample{Title: "hello!"}, true, "body.title", "string_too_long"},
		{"note too long", sample{Title: "h", Note: &long}, true, "body.note", "string_too_long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Struct(tt.input, "body")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}

			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *Error, got %T", err)
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("Expected 1 field error, got %d", len(verr.Fields))
			}
			if got := strings.Join(verr.Fields[0].Loc, "."); got != tt.wantLoc {
				t.Errorf("Expected loc %q, got %q", tt.wantLoc, got)
			}
			if verr.Fields[0].Type != tt.wantType {
				t.Errorf("Expected type %q, got %q", tt.wantType, verr.Fields[0].Type)
			}
		})
	}
}

func TestVar_CountsCharactersNotBytes(t *testing.T) {
	t.Parallel()

	// 200 three-byte runes is still 200 characters
	title := strings.Repeat("あ", 200)
	if err := Var(title, "min=1,max=200", "body", "title"); err != nil {
		t.Errorf("Expected 200 characters to be valid, got %v", err)
	}

	err := Var(title+"あ", "min=1,max=200", "body", "title")
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if got := strings.Join(verr.Fields[0].Loc, "."); got != "body.title" {
		t.Errorf("Expected loc body.title, got %q", got)
	}
	if verr.Fields[0].Msg != "String should have at most 200 characters" {
		t.Errorf("Unexpected message %q", verr.Fields[0].Msg)
	}
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := NewError("json_invalid", "JSON decode error", "body")
	if !strings.Contains(err.Error(), "body: JSON decode error") {
		t.Errorf("Unexpected error string %q", err.Error())
	}

	var empty *Error
	if empty.Error() != "validation failed" {
		t.Errorf("Unexpected nil error string %q", empty.Error())
	}
}
