package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterStore_AllowAndCleanup(t *testing.T) {
	// allow 5 events immediately then the 6th should be rejected
	s := NewLimiterStore(5, 5, 100*time.Millisecond)
	defer s.Stop()

	key := "203.0.113.7"
	for i := 0; i < 5; i++ {
		if !s.Allow(key) {
			t.Fatalf("expected allow at iteration %d", i)
		}
	}

	if s.Allow(key) {
		t.Fatalf("expected limiter to block after burst consumed")
	}
	if !s.Allow("198.51.100.1") {
		t.Fatal("other keys must have their own allowance")
	}

	s.evictIdle(time.Now().Add(time.Second))
	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected idle entries to be evicted, %d left", n)
	}
}

func TestLimiterStore_StopTwice(t *testing.T) {
	s := NewLimiterStore(1, 1, time.Hour)
	s.Stop()
	s.Stop()
}

func TestRateLimit_Middleware(t *testing.T) {
	s := NewLimiterStore(1, 2, time.Hour)
	defer s.Stop()

	h := RateLimit(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = remote
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1111").Code)
	// same IP, different source port
	assert.Equal(t, http.StatusOK, do("10.0.0.1:2222").Code)

	rr := do("10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"message":"too many requests, try again later"}`, rr.Body.String())

	assert.Equal(t, http.StatusOK, do("10.0.0.2:1111").Code)
}
