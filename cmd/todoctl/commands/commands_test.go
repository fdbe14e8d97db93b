package commands

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/todo-app/internal/config"
	"github.com/benvon/todo-app/internal/models"
	"github.com/benvon/todo-app/internal/server"
	"github.com/benvon/todo-app/internal/store"
)

func startServer(t *testing.T) string {
	t.Helper()

	h, err := server.NewHTTPHandler(server.Dependencies{
		Config: &config.Config{
			FrontendURL:    "http://localhost:8000",
			RateLimit:      "1000-S",
			RequestTimeout: 5 * time.Second,
			MaxRequestSize: 1 << 20,
		},
		Store: store.NewMemoryStore(),
	})
	if err != nil {
		t.Fatalf("NewHTTPHandler() error = %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", serverURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands_Lifecycle(t *testing.T) {
	t.Parallel()

	url := startServer(t)

	out, err := run(t, url, "add", "Buy milk", "--description", "2L")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Buy milk") || !strings.Contains(out, "2L") {
		t.Errorf("Unexpected add output:\n%s", out)
	}

	if _, err := run(t, url, "add", "Walk dog"); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := run(t, url, "toggle", "1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	out, err = run(t, url, "--json", "list", "--completed")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var todos []models.Todo
	if err := json.Unmarshal([]byte(out), &todos); err != nil {
		t.Fatalf("Failed to decode list output: %v\n%s", err, out)
	}
	if len(todos) != 1 || todos[0].ID != 1 {
		t.Errorf("Expected only todo 1 to be completed, got %+v", todos)
	}

	out, err = run(t, url, "list", "--active")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Walk dog") || strings.Contains(out, "Buy milk") {
		t.Errorf("Unexpected active list:\n%s", out)
	}

	out, err = run(t, url, "--json", "update", "1", "--title", "Buy oat milk", "--clear-description")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	var updated models.Todo
	if err := json.Unmarshal([]byte(out), &updated); err != nil {
		t.Fatalf("Failed to decode update output: %v", err)
	}
	if updated.Title != "Buy oat milk" || updated.Description == nil || *updated.Description != "" || !updated.Completed {
		t.Errorf("Unexpected updated todo %+v", updated)
	}

	out, err = run(t, url, "delete", "2")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Deleted todo 2") {
		t.Errorf("Unexpected delete output %q", out)
	}

	if _, err := run(t, url, "get", "2"); err == nil || !strings.Contains(err.Error(), "todo 2 not found") {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestCommands_Errors(t *testing.T) {
	t.Parallel()

	url := startServer(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad id", []string{"get", "abc"}, "invalid todo id"},
		{"zero id", []string{"toggle", "0"}, "invalid todo id"},
		{"missing id", []string{"delete"}, "accepts 1 arg"},
		{"empty update", []string{"update", "1"}, "nothing to update"},
		{"conflicting filters", []string{"list", "--completed", "--active"}, "mutually exclusive"},
		{"empty title", []string{"add", ""}, "String should have at least 1 character"},
		{"unknown todo", []string{"toggle", "99"}, "todo 99 not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := run(t, url, tt.args...)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestCommands_Health(t *testing.T) {
	t.Parallel()

	out, err := run(t, startServer(t), "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if strings.TrimSpace(out) != "todo-app: healthy" {
		t.Errorf("Unexpected health output %q", out)
	}
}
