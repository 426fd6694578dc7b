// Package ratelimit paces upstream fetch calls: a minimum interval between
// requests plus a fixed hourly quota.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

// Limiter tracks pacing state for upstream calls. Admit only inspects state;
// the caller must invoke MarkRequest at the moment a fetch is actually
// issued, so an aborted request never consumes quota.
type Limiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	maxPerHour  int

	lastRequest time.Time
	count       int
	windowStart time.Time

	now func() time.Time
}

// New creates a limiter with the given pacing parameters.
func New(minInterval time.Duration, maxPerHour int) *Limiter {
	return &Limiter{
		minInterval: minInterval,
		maxPerHour:  maxPerHour,
		now:         time.Now,
	}
}

// Admit checks whether an upstream call may be made right now.
// It has no side effects when the call is denied.
func (l *Limiter) Admit() Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollWindow(now)

	if !l.lastRequest.IsZero() {
		if wait := l.minInterval - now.Sub(l.lastRequest); wait > 0 {
			return Decision{
				RetryAfter: wait,
				Reason:     fmt.Sprintf("Too frequent requests. Wait %.1fs", wait.Seconds()),
			}
		}
	}

	if l.count >= l.maxPerHour {
		return Decision{
			RetryAfter: l.windowStart.Add(time.Hour).Sub(now),
			Reason:     "Hourly rate limit exceeded",
		}
	}

	return Decision{Allowed: true}
}

// MarkRequest records that an upstream call was issued. Called once per
// fetch attempt regardless of outcome.
func (l *Limiter) MarkRequest() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollWindow(now)
	l.lastRequest = now
	l.count++
}

// rollWindow resets the hourly counter when the window has elapsed.
// Caller must hold the lock.
func (l *Limiter) rollWindow(now time.Time) {
	if l.windowStart.IsZero() {
		l.windowStart = now
		return
	}
	if now.Sub(l.windowStart) > time.Hour {
		l.count = 0
		l.windowStart = now
	}
}

// Snapshot reports current limiter counters.
type Snapshot struct {
	RequestsThisHour int
	MaxPerHour       int
	MinInterval      time.Duration
	LastRequest      time.Time // zero if no request has been made
}

// Snapshot returns a copy of the limiter state for status reporting.
func (l *Limiter) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollWindow(l.now())
	return Snapshot{
		RequestsThisHour: l.count,
		MaxPerHour:       l.maxPerHour,
		MinInterval:      l.minInterval,
		LastRequest:      l.lastRequest,
	}
}
