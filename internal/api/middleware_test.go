package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestTimingMiddlewareSetsHeader(t *testing.T) {
	h := TimingMiddleware(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Header().Get("X-Process-Time") == "" {
		t.Fatal("X-Process-Time header not set")
	}
}

func TestRateLimitMiddlewareRejectsBursts(t *testing.T) {
	// 10 requests per minute -> burst of 5 before 429s start.
	h := RateLimitMiddleware(10, time.Minute)(okHandler())

	var rejected int
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			rejected++
			if rec.Header().Get("Retry-After") == "" {
				t.Fatal("429 without Retry-After header")
			}
		}
	}
	if rejected == 0 {
		t.Fatal("no requests rejected")
	}
}

func TestRateLimitMiddlewarePartitionsByIP(t *testing.T) {
	h := RateLimitMiddleware(2, time.Minute)(okHandler())

	// Exhaust one client's allowance.
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
	}

	// A different client is unaffected.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("second client got %d, want 200", rec.Code)
	}
}
