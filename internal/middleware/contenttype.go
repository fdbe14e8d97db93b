package middleware

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/benvon/todo-app/internal/validation"
)

// ContentType rejects POST/PATCH/PUT bodies declared with a non-JSON media type.
// A body without a Content-Type is decoded as JSON. Body-less requests such as
// PATCH /api/todos/{id}/toggle pass through untouched.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasBodyMethod(r.Method) && r.ContentLength != 0 {
			if contentType := r.Header.Get("Content-Type"); contentType != "" && !isJSONMediaType(contentType) {
				respondBodyNotJSON(w)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func hasBodyMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// isJSONMediaType accepts application/json and application/*+json
func isJSONMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mediaType == "application/json" {
		return true
	}
	return strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")
}

// respondBodyNotJSON answers 422 in the same shape as a body that failed validation
func respondBodyNotJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(struct {
		Detail []validation.FieldError `json:"detail"`
	}{
		Detail: validation.NewError("model_attributes_type",
			"Input should be a valid dictionary or object to extract fields from",
			"body").Fields,
	})
}
