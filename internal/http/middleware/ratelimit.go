package middleware

import (
	"net/http"
	"sync"
	"time"
)

// ThrottleConfig tunes the webhook throttle.
type ThrottleConfig struct {
	// RequestsPerSecond refills each key's bucket. Non-positive disables
	// the middleware.
	RequestsPerSecond float64
	// Burst is the bucket capacity.
	Burst int
	// IdleEviction drops a key's bucket after this much inactivity.
	// Defaults to 10 minutes.
	IdleEviction time.Duration
	// Key extracts the throttle key from a request. Nil falls back to the
	// client IP (X-Real-Ip when chi's RealIP middleware ran, RemoteAddr
	// otherwise).
	Key func(r *http.Request) string
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// Throttler applies a token bucket per key. Idle buckets are swept inline
// on the next Allow call, so there is no background goroutine to manage.
type Throttler struct {
	cfg ThrottleConfig

	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	nextSweep time.Time
}

// NewThrottler builds a throttler from cfg, filling defaults.
func NewThrottler(cfg ThrottleConfig) *Throttler {
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.IdleEviction <= 0 {
		cfg.IdleEviction = 10 * time.Minute
	}
	return &Throttler{
		cfg:       cfg,
		buckets:   make(map[string]*tokenBucket),
		nextSweep: time.Now().Add(cfg.IdleEviction),
	}
}

// Allow reports whether a request for key is within the configured rate.
func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if now.After(t.nextSweep) {
		t.sweep(now)
	}

	b, ok := t.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(t.cfg.Burst)}
		t.buckets[key] = b
	} else {
		b.tokens += now.Sub(b.seen).Seconds() * t.cfg.RequestsPerSecond
		if b.tokens > float64(t.cfg.Burst) {
			b.tokens = float64(t.cfg.Burst)
		}
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle past the eviction window. Caller holds the lock.
func (t *Throttler) sweep(now time.Time) {
	cutoff := now.Add(-t.cfg.IdleEviction)
	for key, b := range t.buckets {
		if b.seen.Before(cutoff) {
			delete(t.buckets, key)
		}
	}
	t.nextSweep = now.Add(t.cfg.IdleEviction)
}

func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// Throttle returns an HTTP middleware rejecting requests over the configured
// rate with 429 Too Many Requests. A non-positive rate yields a no-op.
func Throttle(cfg ThrottleConfig) func(http.Handler) http.Handler {
	if cfg.RequestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	t := NewThrottler(cfg)
	keyFn := cfg.Key
	if keyFn == nil {
		keyFn = clientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				key = clientIP(r)
			}
			if !t.Allow(key) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
