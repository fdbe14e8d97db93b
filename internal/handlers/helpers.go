package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/benvon/todo-app/internal/logger"
	"github.com/benvon/todo-app/internal/request"
	"github.com/benvon/todo-app/internal/store"
	"github.com/benvon/todo-app/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const detailNotFound = "Todo not found"

// DetailResponse is the body of every non-validation error
type DetailResponse struct {
	Detail string `json:"detail"`
}

// ValidationResponse is the body of a 422 response
type ValidationResponse struct {
	Detail []validation.FieldError `json:"detail"`
}

// respondJSON sends data as the JSON response body
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondDetail sends {"detail": message}
func respondDetail(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, DetailResponse{Detail: message})
}

// respondValidation sends a 422 listing every failed field
func respondValidation(w http.ResponseWriter, verr *validation.Error) {
	fields := verr.Fields
	if fields == nil {
		fields = []validation.FieldError{}
	}
	respondJSON(w, http.StatusUnprocessableEntity, ValidationResponse{Detail: fields})
}

// respondError maps err to its HTTP status. Unknown errors are logged and hidden behind a 500.
func respondError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case store.IsNotFound(err):
		respondDetail(w, http.StatusNotFound, detailNotFound)
	case errors.As(err, &maxBytesErr):
		respondDetail(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large")
	default:
		if verr, ok := store.AsValidationError(err); ok {
			respondValidation(w, verr)
			return
		}
		log.Error("request_failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", logger.SanitizePath(r.URL.Path)),
			zap.String("request_id", request.ID(r)),
		)
		respondDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// pathID parses the {id} route variable
func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, validation.NewError("int_parsing",
			"Input should be a valid integer, unable to parse string as an integer",
			"path", "id")
	}
	return id, nil
}

// parseBool accepts the usual boolean spellings, case-insensitively
func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on", "t", "y":
		return true, true
	case "false", "0", "no", "off", "f", "n":
		return false, true
	default:
		return false, false
	}
}

// decodeJSON decodes a single JSON value from the request body into dst.
// Decoding failures come back as *validation.Error; an oversized body keeps its *http.MaxBytesError.
// A literal null counts as a missing body.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return translateDecodeError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return validation.NewError("json_invalid", "JSON decode error", "body")
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return validation.NewError("missing", "Field required", "body")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return translateDecodeError(err)
	}
	return nil
}

func translateDecodeError(err error) error {
	var (
		maxBytesErr *http.MaxBytesError
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &maxBytesErr):
		return err
	case errors.Is(err, io.EOF):
		return validation.NewError("missing", "Field required", "body")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return validation.NewError("json_invalid", "JSON decode error", "body")
	case errors.As(err, &typeErr):
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, strings.Split(typeErr.Field, ".")...)
		}
		errType, msg := describeType(typeErr.Type.Kind().String())
		return &validation.Error{Fields: []validation.FieldError{{Loc: loc, Msg: msg, Type: errType}}}
	default:
		return validation.NewError("json_invalid", fmt.Sprintf("JSON decode error: %s", logger.SanitizeError(err)), "body")
	}
}

func describeType(kind string) (string, string) {
	switch kind {
	case "string":
		return "string_type", "Input should be a valid string"
	case "bool":
		return "bool_type", "Input should be a valid boolean"
	case "int", "int64":
		return "int_type", "Input should be a valid integer"
	default:
		return "model_attributes_type", "Input should be a valid dictionary or object"
	}
}
