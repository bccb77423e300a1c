package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst, 0)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("client") {
					passed++
				}
			}
			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(0.001, 1, 0)
	defer rl.Stop()
	if !rl.Allow("a") || !rl.Allow("b") {
		t.Fatalf("first request per key should pass")
	}
	if rl.Allow("a") {
		t.Fatalf("second request for a should be limited")
	}
}

func TestKeyedRateLimiter_Sweep(t *testing.T) {
	rl := New(1, 1, time.Hour)
	defer rl.Stop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(2 * time.Hour)
	rl.Allow("fresh")
	rl.Sweep()

	if rl.Len() != 1 {
		t.Fatalf("expected 1 tracked key after sweep, got %d", rl.Len())
	}
}

func TestMiddleware(t *testing.T) {
	rl := New(0.001, 1, 0)
	defer rl.Stop()
	rejected := 0
	h := rl.Middleware(func() { rejected++ })(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	req.RemoteAddr = "10.0.0.1:5001"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rejected != 1 {
		t.Fatalf("expected reject callback once, got %d", rejected)
	}
}

func TestStopEndsSweep(t *testing.T) {
	rl := New(1, 1, time.Millisecond)
	rl.Stop()
	rl.Stop()
	select {
	case <-rl.Done():
	default:
		t.Fatalf("expected Done to be closed after Stop")
	}
}
