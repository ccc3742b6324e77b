package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func TestRateLimitMiddleware_Admits(t *testing.T) {
	mw := RateLimitMiddleware(&fakeLimiter{allow: true}, zap.NewNop())
	handler := mw(okHandler())

	req := httptest.NewRequest("POST", "/v1/ask", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestRateLimitMiddleware_Denies429(t *testing.T) {
	mw := RateLimitMiddleware(&fakeLimiter{allow: false}, zap.NewNop())
	handler := mw(okHandler())

	req := httptest.NewRequest("POST", "/v1/ask", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeRateLimited {
		t.Errorf("code = %s, want %s", errResp.Code, CodeRateLimited)
	}
}

func TestRateLimitMiddleware_BackendErrorFailsOpen(t *testing.T) {
	mw := RateLimitMiddleware(&fakeLimiter{allow: true, err: errors.New("store down")}, zap.NewNop())
	handler := mw(okHandler())

	req := httptest.NewRequest("POST", "/v1/ask", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 on backend error", rr.Code)
	}
}

func TestRateLimitMiddleware_ExemptPaths(t *testing.T) {
	limiter := &fakeLimiter{allow: false}
	mw := RateLimitMiddleware(limiter, zap.NewNop())
	handler := mw(okHandler())

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest("GET", path, http.NoBody)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("exempt path %s: got %d, want 200", path, rr.Code)
		}
	}
	if len(limiter.keys) != 0 {
		t.Errorf("limiter consulted for exempt paths: %v", limiter.keys)
	}
}

func TestRateLimitMiddleware_KeyDropsPort(t *testing.T) {
	limiter := &fakeLimiter{allow: true}
	mw := RateLimitMiddleware(limiter, zap.NewNop())
	handler := mw(okHandler())

	req := httptest.NewRequest("POST", "/v1/ask", http.NoBody)
	req.RemoteAddr = "203.0.113.7:51234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if len(limiter.keys) != 1 || limiter.keys[0] != "203.0.113.7" {
		t.Errorf("keys = %v, want [203.0.113.7]", limiter.keys)
	}
}
