package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so error locations match the request body
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// FieldError describes one failed constraint
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Error is returned when input fails declared field constraints
type Error struct {
	Fields []FieldError
}

// NewError builds an Error with a single field failure
func NewError(errType, msg string, loc ...string) *Error {
	return &Error{Fields: []FieldError{{Loc: loc, Msg: msg, Type: errType}}}
}

func (e *Error) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(f.Loc, "."), f.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates v using its `validate` tags. Locations are prefixed with prefix.
// Returns nil or an *Error.
func Struct(v any, prefix ...string) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	return translate(err, prefix, "")
}

// Var validates a single value against tag and reports failures at loc
func Var(value any, tag string, loc ...string) error {
	err := Validate.Var(value, tag)
	if err == nil {
		return nil
	}
	return translate(err, loc, "var")
}

func translate(err error, prefix []string, mode string) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &Error{}
	for _, fe := range validationErrors {
		loc := append([]string{}, prefix...)
		if mode != "var" && fe.Field() != "" {
			loc = append(loc, fe.Field())
		}
		errType, msg := describe(fe)
		out.Fields = append(out.Fields, FieldError{Loc: loc, Msg: msg, Type: errType})
	}
	return out
}

func describe(fe validator.FieldError) (string, string) {
	switch fe.Tag() {
	case "required":
		return "missing", "Field required"
	case "min":
		return "string_too_short", fmt.Sprintf("String should have at least %s %s", fe.Param(), plural(fe.Param(), "character"))
	case "max":
		return "string_too_long", fmt.Sprintf("String should have at most %s %s", fe.Param(), plural(fe.Param(), "character"))
	default:
		return "value_error", fmt.Sprintf("Value failed the '%s' constraint", fe.Tag())
	}
}

func plural(n, word string) string {
	if n == "1" {
		return word
	}
	return word + "s"
}
