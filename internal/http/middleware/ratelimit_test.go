package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestThrottlerAllowsWithinBurst(t *testing.T) {
	th := NewThrottler(ThrottleConfig{RequestsPerSecond: 1, Burst: 3})
	for i := 0; i < 3; i++ {
		if !th.Allow("+56912345678") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if th.Allow("+56912345678") {
		t.Fatal("request beyond burst should be rejected")
	}
	// A different key has its own bucket.
	if !th.Allow("+56987654321") {
		t.Fatal("other key should be allowed")
	}
}

func TestThrottlerSweepsIdleBuckets(t *testing.T) {
	th := NewThrottler(ThrottleConfig{RequestsPerSecond: 1, Burst: 1, IdleEviction: time.Minute})
	th.Allow("stale-key")

	// Age the bucket and force the next Allow to sweep.
	th.mu.Lock()
	th.buckets["stale-key"].seen = time.Now().Add(-2 * time.Minute)
	th.nextSweep = time.Now().Add(-time.Second)
	th.mu.Unlock()

	th.Allow("fresh-key")

	th.mu.Lock()
	_, ok := th.buckets["stale-key"]
	th.mu.Unlock()
	if ok {
		t.Fatal("expected idle bucket to be evicted")
	}
}

func TestThrottleMiddlewareRejectsOverRate(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := Throttle(ThrottleConfig{RequestsPerSecond: 0.0001, Burst: 1})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", nil)
	req.Header.Set("X-Real-Ip", "1.2.3.4")

	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
}

func TestThrottleMiddlewareKeyFunc(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := Throttle(ThrottleConfig{
		RequestsPerSecond: 0.0001,
		Burst:             1,
		Key: func(r *http.Request) string {
			_ = r.ParseForm()
			return r.PostFormValue("From")
		},
	})

	post := func(from, ip string) *httptest.ResponseRecorder {
		form := url.Values{}
		form.Set("From", from)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Real-Ip", ip)
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)
		return rec
	}

	// Same sender behind different IPs shares one bucket.
	if rec := post("whatsapp:+56912345678", "1.1.1.1"); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	if rec := post("whatsapp:+56912345678", "2.2.2.2"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same sender status = %d, want 429", rec.Code)
	}
	// A different sender is unaffected.
	if rec := post("whatsapp:+56987654321", "1.1.1.1"); rec.Code != http.StatusOK {
		t.Fatalf("other sender status = %d", rec.Code)
	}
}

func TestThrottleDisabledIsNoop(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := Throttle(ThrottleConfig{RequestsPerSecond: 0})

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
}
