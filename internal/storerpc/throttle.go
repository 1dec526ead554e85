// throttle.go - Token bucket throttling for store requests.

package storerpc

import (
	"sync"
	"time"
)

// TokenBucket is a simple token bucket limiter.
type TokenBucket struct {
	mu           sync.Mutex
	tokens       int
	maxTokens    int
	refillRate   int
	lastRefill   time.Time
	refillPeriod time.Duration
}

// NewTokenBucket creates a full bucket that gains refillRate tokens every
// refillPeriod.
func NewTokenBucket(maxTokens, refillRate int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:       maxTokens,
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		lastRefill:   time.Now(),
		refillPeriod: refillPeriod,
	}
}

// Allow consumes a token if one is available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	refillCount := int(now.Sub(tb.lastRefill) / tb.refillPeriod)
	if refillCount > 0 {
		tb.tokens += refillCount * tb.refillRate
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Tokens returns the current token count.
func (tb *TokenBucket) Tokens() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.tokens
}

// PeerThrottle keeps one bucket per remote peer.
type PeerThrottle struct {
	mu           sync.RWMutex
	buckets      map[string]*TokenBucket
	maxTokens    int
	refillRate   int
	refillPeriod time.Duration
}

// NewPeerThrottle creates a per-peer throttle with shared bucket parameters.
func NewPeerThrottle(maxTokens, refillRate int, refillPeriod time.Duration) *PeerThrottle {
	return &PeerThrottle{
		buckets:      make(map[string]*TokenBucket),
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
	}
}

// Allow consumes a token from the named peer's bucket, creating it on first
// sight.
func (pt *PeerThrottle) Allow(peer string) bool {
	pt.mu.Lock()
	bucket, ok := pt.buckets[peer]
	if !ok {
		bucket = NewTokenBucket(pt.maxTokens, pt.refillRate, pt.refillPeriod)
		pt.buckets[peer] = bucket
	}
	pt.mu.Unlock()

	return bucket.Allow()
}
