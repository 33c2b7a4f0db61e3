package server

import (
	"sync"
	"time"
)

// RateLimitResult reports whether a request may proceed and, when it
// may not, how long the client should wait before retrying.
type RateLimitResult struct {
	Allowed     bool
	WaitSeconds int
}

// RateLimiter throttles analysis submissions per client IP
type RateLimiter interface {
	CheckAndRecord(ip string) RateLimitResult
}

// InMemoryRateLimiter keeps a sliding window of request timestamps per
// IP. Entries age out of the window on each check and a background
// loop drops idle IPs entirely.
type InMemoryRateLimiter struct {
	mu          sync.Mutex
	requests    map[string][]time.Time
	maxRequests int
	window      time.Duration
	stopCh      chan struct{}
}

// NewInMemoryRateLimiter creates a limiter allowing maxRequests per
// window for each client IP
func NewInMemoryRateLimiter(maxRequests int, window time.Duration) *InMemoryRateLimiter {
	limiter := &InMemoryRateLimiter{
		requests:    make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
		stopCh:      make(chan struct{}),
	}

	go limiter.cleanupLoop()

	return limiter
}

// CheckAndRecord admits the request if the IP has capacity left in the
// current window, recording it, or rejects it with a wait hint.
func (l *InMemoryRateLimiter) CheckAndRecord(ip string) RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.requests[ip] = pruneOld(l.requests[ip], now, l.window)
	entries := l.requests[ip]

	if len(entries) >= l.maxRequests {
		oldest := entries[0]
		waitSeconds := int(oldest.Add(l.window).Sub(now).Seconds()) + 1
		if waitSeconds < 1 {
			waitSeconds = 1
		}
		return RateLimitResult{Allowed: false, WaitSeconds: waitSeconds}
	}

	l.requests[ip] = append(entries, now)

	return RateLimitResult{Allowed: true}
}

// Stop terminates the background cleanup loop
func (l *InMemoryRateLimiter) Stop() {
	close(l.stopCh)
}

func (l *InMemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for ip, entries := range l.requests {
				l.requests[ip] = pruneOld(entries, now, l.window)
				if len(l.requests[ip]) == 0 {
					delete(l.requests, ip)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

func pruneOld(entries []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	result := entries[:0]
	for _, e := range entries {
		if !e.Before(cutoff) {
			result = append(result, e)
		}
	}
	return result
}
