package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(2, nil)
	r := gin.New()
	r.POST("/api/auth/token/login", rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/token/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes: got=%v", codes)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other client should have its own bucket: got=%d", rec.Code)
	}
}

func TestRateLimiterDisabledAndPrune(t *testing.T) {
	off := NewRateLimiter(0, nil)
	for i := 0; i < 100; i++ {
		if !off.Allow("1.1.1.1") {
			t.Fatalf("disabled limiter rejected request %d", i)
		}
	}

	rl := NewRateLimiter(5, nil)
	rl.Allow("1.1.1.1")
	rl.prune(time.Now().Add(time.Minute))
	if len(rl.limiters) != 0 {
		t.Fatalf("idle bucket should be pruned, have %d", len(rl.limiters))
	}
}
