package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter caps websocket connections per IP and message sends per user.
type RateLimiter struct {
	connections map[string]int         // IP -> connection count
	sends       map[string][]time.Time // user id -> timestamps of sends
	mu          sync.RWMutex
	maxConns    int
	maxSends    int // per minute
}

func New(maxConns, messagesPerMin int) *RateLimiter {
	if maxConns <= 0 {
		maxConns = 10
	}
	if messagesPerMin <= 0 {
		messagesPerMin = 60
	}

	rl := &RateLimiter{
		connections: make(map[string]int),
		sends:       make(map[string][]time.Time),
		maxConns:    maxConns,
		maxSends:    messagesPerMin,
	}

	// Drop stale send windows every minute
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.cleanup()
		}
	}()

	return rl
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-time.Minute)
	for userID, sends := range rl.sends {
		var valid []time.Time
		for _, t := range sends {
			if t.After(cutoff) {
				valid = append(valid, t)
			}
		}
		if len(valid) == 0 {
			delete(rl.sends, userID)
		} else {
			rl.sends[userID] = valid
		}
	}
}

func (rl *RateLimiter) CanConnect(ip string) bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.connections[ip] < rl.maxConns
}

func (rl *RateLimiter) AddConnection(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.connections[ip]++
}

func (rl *RateLimiter) RemoveConnection(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.connections[ip]--
	if rl.connections[ip] <= 0 {
		delete(rl.connections, ip)
	}
}

// AllowMessage records one send for the user and reports whether they are
// still inside their per-minute budget.
func (rl *RateLimiter) AllowMessage(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-time.Minute)
	var recent []time.Time
	for _, t := range rl.sends[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	rl.sends[userID] = recent

	if len(recent) >= rl.maxSends {
		return false
	}

	rl.sends[userID] = append(rl.sends[userID], time.Now())
	return true
}

func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	return ip
}
