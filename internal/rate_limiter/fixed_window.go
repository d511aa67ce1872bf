package ratelimiter

import (
	"sync"
	"time"

	"github.com/qooqz/certificates/internal/config"
	"go.uber.org/zap"
)

// FixedWindowRateLimiter counts requests per client within a fixed time
// window. When the window elapses the count resets; Allow reports whether
// the request fits and, when it does not, how long until the next window.
type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	frame   time.Duration
	logger  *zap.SugaredLogger
}

type window struct {
	count   int
	startAt time.Time
}

func NewFixedWindowLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   cfg.RequestsPerTimeFrame,
		frame:   cfg.TimeFrame,
		logger:  logger,
	}
}

func (rl *FixedWindowRateLimiter) Allow(clientId string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.clients[clientId]
	if !ok || now.Sub(w.startAt) >= rl.frame {
		rl.clients[clientId] = &window{count: 1, startAt: now}
		return true, 0
	}

	if w.count >= rl.limit {
		retryAfter := rl.frame - now.Sub(w.startAt)
		return false, retryAfter
	}

	w.count++
	return true, 0
}
