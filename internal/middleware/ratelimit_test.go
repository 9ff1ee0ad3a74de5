package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taleemlabs/taleem-backend/internal/response"
)

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(response.RequestIDMiddleware(), rl.Middleware())
	r.GET("/limited", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func hit(t *testing.T, r *gin.Engine) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterExhaustion(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	r := newLimitedRouter(rl)

	for i := 0; i < 2; i++ {
		if w := hit(t, r); w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, w.Code)
		}
	}

	w := hit(t, r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("over-limit request: status %d, want 429", w.Code)
	}

	secs, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || secs < 1 || secs > 60 {
		t.Errorf("Retry-After = %q, want seconds in 1..60", w.Header().Get("Retry-After"))
	}

	var env struct {
		Error *response.ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Error == nil || env.Error.Code != response.ErrRateLimitExceeded {
		t.Errorf("error body = %+v", env.Error)
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	clock := time.Now()
	rl.now = func() time.Time { return clock }
	r := newLimitedRouter(rl)

	if w := hit(t, r); w.Code != http.StatusOK {
		t.Fatalf("first request: status %d", w.Code)
	}
	if w := hit(t, r); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status %d, want 429", w.Code)
	}

	clock = clock.Add(time.Minute)
	if w := hit(t, r); w.Code != http.StatusOK {
		t.Errorf("request after refill interval: status %d", w.Code)
	}
}

func TestRateLimiterIsPerIP(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	r := newLimitedRouter(rl)

	if w := hit(t, r); w.Code != http.StatusOK {
		t.Fatalf("first IP: status %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = "198.51.100.9:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("second IP blocked by first IP's bucket: status %d", w.Code)
	}
}
