// Package ratelimit provides a per-client token bucket limiter for uploads.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting. Keys idle for longer than
// the idle window are dropped by a background sweep.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	sweeper  sync.WaitGroup
}

// New creates a limiter allowing rps requests per second with the given
// burst, forgetting keys idle for longer than idle.
func New(rps float64, burst int, idle time.Duration) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
		idle:     idle,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	if idle > 0 {
		krl.sweeper.Add(1)
		go krl.cleanup(idle)
	}
	return krl
}

// Allow reports whether a request for key may proceed now.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	e, ok := krl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.limiters[key] = e
	}
	e.lastSeen = krl.now()
	return e.limiter
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.limiters)
}

// Sweep drops keys not seen within the idle window.
func (krl *KeyedRateLimiter) Sweep() {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	cutoff := krl.now().Add(-krl.idle)
	for key, e := range krl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(krl.limiters, key)
		}
	}
}

// Stop shuts down the cleanup goroutine and waits for it to exit. It is
// safe to call more than once.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
	krl.sweeper.Wait()
}

// Done is closed once Stop has been called.
func (krl *KeyedRateLimiter) Done() <-chan struct{} {
	return krl.done
}

func (krl *KeyedRateLimiter) cleanup(every time.Duration) {
	defer krl.sweeper.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.Sweep()
		}
	}
}

// ClientKey identifies the caller by remote IP.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the limit with 429. onReject may be nil.
func (krl *KeyedRateLimiter) Middleware(onReject func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !krl.Allow(ClientKey(r)) {
				if onReject != nil {
					onReject()
				}
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too many uploads, please wait a moment.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
