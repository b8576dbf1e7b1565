package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimit_PerIP(t *testing.T) {
	set := newLimiterSet(1, 2, time.Hour, nil)
	h := rateLimit(set)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if st := do("10.0.0.1:5000"); st != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, st)
		}
	}
	// otro puerto, misma IP
	if st := do("10.0.0.1:5001"); st != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", st)
	}
	if st := do("10.0.0.2:5000"); st != http.StatusOK {
		t.Fatalf("other IP should not be limited, got %d", st)
	}
}

func TestRateLimit_EvictsIdleEntries(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	set := newLimiterSet(10, 1, time.Minute, func() time.Time { return now })

	set.allow("10.0.0.1")
	set.allow("10.0.0.2")
	if set.size() != 2 {
		t.Fatalf("expected 2 entries, got %d", set.size())
	}

	now = now.Add(2 * time.Minute)
	set.allow("10.0.0.3")
	if got := set.size(); got != 1 {
		t.Fatalf("expected idle entries evicted, got %d", got)
	}
}
