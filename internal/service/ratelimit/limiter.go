package ratelimit

import (
    "context"
    "sync"
    "time"

    "golang.org/x/time/rate"
)

type entry struct {
    lim  *rate.Limiter
    seen time.Time
}

// Limiter keeps one token bucket per key (client IP, provider host).
type Limiter struct {
    mu    sync.RWMutex
    m     map[string]*entry
    rps   float64
    burst int
    now   func() time.Time
}

// New creates a keyed limiter with rps tokens per second and the given burst.
func New(rps float64, burst int) *Limiter {
    if burst <= 0 {
        burst = 1
    }
    return &Limiter{m: make(map[string]*entry), rps: rps, burst: burst, now: time.Now}
}

func (l *Limiter) get(key string) *rate.Limiter {
    now := l.now()
    l.mu.RLock()
    e, ok := l.m[key]
    l.mu.RUnlock()
    if ok {
        l.mu.Lock()
        e.seen = now
        l.mu.Unlock()
        return e.lim
    }

    l.mu.Lock()
    defer l.mu.Unlock()
    if e, ok := l.m[key]; ok {
        e.seen = now
        return e.lim
    }
    lim := rate.NewLimiter(l.limit(), l.burst)
    l.m[key] = &entry{lim: lim, seen: now}
    return lim
}

func (l *Limiter) limit() rate.Limit {
    if l.rps <= 0 {
        return rate.Inf
    }
    return rate.Limit(l.rps)
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
    return l.get(key).Allow()
}

// Wait blocks until a token for key is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
    return l.get(key).Wait(ctx)
}

// Sweep drops buckets not used for longer than idle and returns how many were removed.
func (l *Limiter) Sweep(idle time.Duration) int {
    cutoff := l.now().Add(-idle)
    l.mu.Lock()
    defer l.mu.Unlock()
    n := 0
    for k, e := range l.m {
        if e.seen.Before(cutoff) {
            delete(l.m, k)
            n++
        }
    }
    return n
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
    l.mu.RLock()
    defer l.mu.RUnlock()
    return len(l.m)
}
