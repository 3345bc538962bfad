package attendance

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter keyed by client address. A nil or
// zero-limit limiter allows everything.
type RateLimiter struct {
	mu        sync.Mutex
	perClient map[string]*clientWindow
	limit     int
	window    time.Duration
	now       func() time.Time
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		return &RateLimiter{limit: 0}
	}
	return &RateLimiter{
		perClient: map[string]*clientWindow{},
		limit:     limit,
		window:    window,
		now:       time.Now,
	}
}

// Allow records one request for client and reports how long to wait when the
// window is exhausted.
func (r *RateLimiter) Allow(client string) (bool, time.Duration) {
	if r == nil || r.limit == 0 {
		return true, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	state, ok := r.perClient[client]
	if !ok {
		state = &clientWindow{windowStart: now}
		r.perClient[client] = state
	}
	if now.Sub(state.windowStart) >= r.window {
		state.windowStart = now
		state.count = 0
	}
	if state.count >= r.limit {
		return false, state.windowStart.Add(r.window).Sub(now)
	}
	state.count++
	return true, 0
}
