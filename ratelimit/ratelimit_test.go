package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	rl := PerMinute(2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients have their own bucket")
	}

	now = now.Add(30 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("a token should refill after 30s")
	}
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	rl := PerMinute(1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("1.1.1.1")
	now = now.Add(2 * idleTTL)
	rl.Allow("2.2.2.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["1.1.1.1"]; ok {
		t.Error("idle visitor should be evicted")
	}
}

func TestPerMinute_ZeroDisables(t *testing.T) {
	rl := PerMinute(0)
	for i := 0; i < 100; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d limited with limiting disabled", i)
		}
	}
}

func TestMiddleware_Returns429WithRetryAfter(t *testing.T) {
	rl := PerMinute(1)
	h := Middleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i, want := range []int{200, 429} {
		req := httptest.NewRequest("POST", "/signin", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, want)
		}
		if want == 429 && rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{"direct", "203.0.113.7:1234", nil, "203.0.113.7"},
		{"spoofed header from internet", "203.0.113.7:1234", map[string]string{"X-Forwarded-For": "1.1.1.1"}, "203.0.113.7"},
		{"trusted proxy real ip", "10.0.0.2:80", map[string]string{"X-Real-IP": "198.51.100.1"}, "198.51.100.1"},
		{"trusted proxy forwarded chain", "127.0.0.1:80", map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.3"}, "198.51.100.2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
