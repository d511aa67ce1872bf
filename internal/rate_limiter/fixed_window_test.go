package ratelimiter

import (
	"testing"
	"time"

	"github.com/qooqz/certificates/internal/config"
)

func TestFixedWindowLimiter(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimiterConfig{
		RequestsPerTimeFrame: 3,
		TimeFrame:            50 * time.Millisecond,
		Enabled:              true,
	}, nil)

	for i := 0; i < 3; i++ {
		if allowed, _ := limiter.Allow("10.0.0.1"); !allowed {
			t.Fatalf("Request %d should have been allowed", i+1)
		}
	}

	allowed, retryAfter := limiter.Allow("10.0.0.1")
	if allowed {
		t.Error("Fourth request in the window should have been rejected")
	}
	if retryAfter <= 0 {
		t.Errorf("Expected a positive retry-after, got %v", retryAfter)
	}

	// Another client has its own window.
	if allowed, _ := limiter.Allow("10.0.0.2"); !allowed {
		t.Error("A different client should not share the window")
	}

	time.Sleep(60 * time.Millisecond)
	if allowed, _ := limiter.Allow("10.0.0.1"); !allowed {
		t.Error("Request after the window elapsed should have been allowed")
	}
}
