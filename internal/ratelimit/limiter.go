// Package ratelimit enforces a minimum delay between requests to the same
// host. The imgix Management API client uses it to keep bursts of dialog
// interactions from turning into request storms.
package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter is the interface consumed by API clients.
type RateLimiter interface {
	Allow(host string) bool
	Wait(host string)
}

// Limiter tracks the last request time per host and enforces a minimum
// interval between requests. Safe for concurrent use.
type Limiter struct {
	mu          sync.Mutex
	hosts       map[string]time.Time
	minInterval time.Duration
}

// New creates a limiter with the given minimum interval between requests to
// the same host.
func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		hosts:       make(map[string]time.Time),
		minInterval: minInterval,
	}
}

// Allow reports whether a request to host may proceed now. When it returns
// true the host's timestamp is updated; a rejected request does not push the
// window forward.
func (l *Limiter) Allow(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if last, ok := l.hosts[host]; ok && now.Sub(last) < l.minInterval {
		return false
	}
	l.hosts[host] = now
	return true
}

// Wait blocks until a request to host may proceed, then records it.
func (l *Limiter) Wait(host string) {
	for {
		l.mu.Lock()
		now := time.Now()
		last, ok := l.hosts[host]
		if !ok || now.Sub(last) >= l.minInterval {
			l.hosts[host] = now
			l.mu.Unlock()
			return
		}
		remaining := l.minInterval - now.Sub(last)
		l.mu.Unlock()
		time.Sleep(remaining)
	}
}

// Reset clears the recorded timestamp for a single host.
func (l *Limiter) Reset(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hosts, host)
}

// ResetAll clears every recorded timestamp.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hosts = make(map[string]time.Time)
}

var _ RateLimiter = (*Limiter)(nil)
