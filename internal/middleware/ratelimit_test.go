package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestRateLimit_MemoryStore(t *testing.T) {
	t.Parallel()

	mw, err := RateLimit("2-M", nil, zap.NewNop())
	if err != nil {
		t.Fatalf("RateLimit() error = %v", err)
	}
	handler := mw(okHandler)

	send := func(ip string) int {
		req := httptest.NewRequest("GET", "/api/todos", nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := send("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the limit is reached, got %d", code)
	}

	// Limits are tracked per client
	if code := send("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("Expected a different client to pass, got %d", code)
	}
}

func TestRateLimit_InvalidRate(t *testing.T) {
	t.Parallel()

	if _, err := RateLimit("often", nil, zap.NewNop()); err == nil {
		t.Error("Expected error for malformed rate")
	}
}

func TestNewRedisRateLimiter_BadURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisRateLimiter(t.Context(), "not a url"); err == nil {
		t.Error("Expected error for malformed Redis URL")
	}
}
