package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdle es cuánto vive el bucket de una IP sin tráfico.
const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterSet guarda un token bucket por IP y barre los inactivos.
type limiterSet struct {
	mu        sync.Mutex
	every     rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
	byKey     map[string]*limiterEntry
}

func newLimiterSet(perMinute, burst int, idle time.Duration, now func() time.Time) *limiterSet {
	if now == nil {
		now = time.Now
	}
	return &limiterSet{
		every:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     burst,
		idle:      idle,
		now:       now,
		lastSweep: now(),
		byKey:     make(map[string]*limiterEntry),
	}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idle {
		for k, e := range s.byKey {
			if now.Sub(e.seen) >= s.idle {
				delete(s.byKey, k)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.byKey[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(s.every, s.burst)}
		s.byKey[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

func (s *limiterSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

// RateLimit limita por IP remota (token bucket). Pensado para POST /auth/session.
// La IP sale de RemoteAddr: sólo es la del cliente si RealIP corre detrás de un proxy confiable.
func RateLimit(perMinute, burst int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 20
	}
	if burst <= 0 {
		burst = 5
	}
	return rateLimit(newLimiterSet(perMinute, burst, limiterIdle, nil))
}

func rateLimit(set *limiterSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			}
			if !set.allow(key) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
