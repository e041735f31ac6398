// Package ratelimit provides a per-key in-memory request limiter for the
// HTTP surface. Fixed windows, suitable for a single instance; a shared
// backend would be needed behind a load balancer.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per key. Keys are typically
// "<client ip>:<route>".
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	interval time.Duration
	max      int

	stop chan struct{}
	once sync.Once
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing max requests per interval per key. A
// background janitor drops idle keys. Non-positive settings fall back to
// one request per minute.
func New(interval time.Duration, max int) *Limiter {
	if interval <= 0 {
		interval = time.Minute
	}
	if max < 1 {
		max = 1
	}
	l := &Limiter{
		buckets:  make(map[string]*bucket),
		interval: interval,
		max:      max,
		stop:     make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Allow reports whether the key may make another request now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			lim: rate.NewLimiter(rate.Every(l.interval/time.Duration(l.max)), l.max),
		}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.lim.Allow()
}

// Stop terminates the janitor.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for k, b := range l.buckets {
				if now.Sub(b.lastSeen) > 3*l.interval {
					delete(l.buckets, k)
				}
			}
			l.mu.Unlock()
		}
	}
}
