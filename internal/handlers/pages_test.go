package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestPageHandler(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	NewPageHandler(nil).RegisterRoutes(r)

	tests := []struct {
		path        string
		wantStatus  int
		contentType string
		contains    string
	}{
		{"/", http.StatusOK, "text/html", `id="todo-list"`},
		{"/static/js/app.js", http.StatusOK, "javascript", "/api/todos"},
		{"/static/css/style.css", http.StatusOK, "text/css", ".todo-item"},
		{"/static/nope.txt", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.contentType != "" && !strings.Contains(rr.Header().Get("Content-Type"), tt.contentType) {
				t.Errorf("Expected Content-Type containing %q, got %q", tt.contentType, rr.Header().Get("Content-Type"))
			}
			if tt.contains != "" && !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("Expected body to contain %q", tt.contains)
			}
		})
	}
}
