package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// limitWindow is the fixed window mutations are counted in.
	limitWindow = time.Minute
	// sweepInterval controls how often idle clients are dropped.
	sweepInterval = 5 * time.Minute
	// idleCutoff is how long a client may stay in the map without a request.
	idleCutoff = 10 * time.Minute
)

// rateLimiter counts mutations per client IP in fixed one-minute windows.
// Only POST/PUT/DELETE go through it; reads are never limited. The window
// size is fixed, the per-window limit comes from configuration.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	windows map[string]*mutationWindow

	done chan struct{}
	once sync.Once
}

// mutationWindow is one client's current counting window. seen trails the
// last request so the sweeper can spot idle clients.
type mutationWindow struct {
	start time.Time
	seen  time.Time
	count int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		limit:   perMinute,
		windows: make(map[string]*mutationWindow),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-rl.done:
			return
		}
	}
}

// sweep drops clients idle longer than idleCutoff so one-off callers do not
// accumulate in the map.
func (rl *rateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, w := range rl.windows {
		if now.Sub(w.seen) > idleCutoff {
			delete(rl.windows, ip)
		}
	}
}

// stop terminates the sweeper goroutine. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow records one mutation from clientIP and reports whether it fits the
// client's current window. A refusal bumps the security metrics counter.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.start) >= limitWindow {
		rl.windows[clientIP] = &mutationWindow{start: now, seen: now, count: 1}
		return true
	}

	w.seen = now
	w.count++
	if w.count > rl.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}
