package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/todo-app/internal/request"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		wantLevel     zapcore.Level
	}{
		{"GET request", "GET", "/api/todos", http.StatusOK, zapcore.InfoLevel},
		{"POST request", "POST", "/api/todos", http.StatusCreated, zapcore.InfoLevel},
		{"404 request", "GET", "/api/todos/99", http.StatusNotFound, zapcore.InfoLevel},
		{"500 request", "GET", "/boom", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req = req.WithContext(request.WithRequestID(req.Context(), "req-1"))
			w := httptest.NewRecorder()

			Logging(zap.New(core))(handler).ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("Expected status %d, got %d", tt.handlerStatus, w.Code)
			}

			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 http_request entry, got %d", len(entries))
			}
			entry := entries[0]
			if entry.Level != tt.wantLevel {
				t.Errorf("Expected level %s, got %s", tt.wantLevel, entry.Level)
			}
			fields := entry.ContextMap()
			if fields["status_code"] != int64(tt.handlerStatus) {
				t.Errorf("Expected status_code %d, got %v", tt.handlerStatus, fields["status_code"])
			}
			if fields["path"] != tt.path {
				t.Errorf("Expected path %q, got %v", tt.path, fields["path"])
			}
			if fields["request_id"] != "req-1" {
				t.Errorf("Expected request_id 'req-1', got %v", fields["request_id"])
			}
		})
	}
}

func TestLoggingResponseWriter(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("test"))
		w.WriteHeader(http.StatusTeapot) // ignored, header already sent
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	Logging(zap.New(core))(handler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	fields := logs.All()[0].ContextMap()
	if fields["status_code"] != int64(http.StatusOK) {
		t.Errorf("Expected implicit 200 to be logged, got %v", fields["status_code"])
	}
	if fields["bytes"] != int64(4) {
		t.Errorf("Expected 4 bytes logged, got %v", fields["bytes"])
	}
}
