package rate_limiter

import (
	"context"
	"sync"
	"time"

	"github.com/rogerio-castellano/everytools-api/internal/clock"
)

// Decision is the outcome of a single limiter check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter checks a key against a policy and records the hit when allowed.
type Limiter interface {
	Allow(ctx context.Context, key string, policy Policy) (Decision, error)
	Reset(ctx context.Context) error
}

// windowBucket returns the index of the fixed window containing now and the
// instant that window closes. Buckets are aligned to the Unix epoch.
func windowBucket(w Window, now time.Time) (int64, time.Time) {
	period := int64(w.Period / time.Second)
	bucket := now.Unix() / period
	return bucket, time.Unix((bucket+1)*period, 0)
}

type windowCount struct {
	bucket int64
	count  int
}

type clientLimiter struct {
	windows  []windowCount
	lastSeen time.Time
}

// MemoryLimiter counts hits per fixed window for every visitor key.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*clientLimiter
	clock    clock.Clock
}

func NewMemoryLimiter(c clock.Clock) *MemoryLimiter {
	if c == nil {
		c = clock.RealClock{}
	}
	return &MemoryLimiter{
		visitors: make(map[string]*clientLimiter),
		clock:    c,
	}
}

func (m *MemoryLimiter) getVisitor(key string, policy Policy, now time.Time) *clientLimiter {
	v, exists := m.visitors[key]
	if !exists || len(v.windows) != len(policy) {
		v = &clientLimiter{windows: make([]windowCount, len(policy))}
		m.visitors[key] = v
	}
	v.lastSeen = now
	return v
}

// Allow admits the request only when every window is below its ceiling, and
// only then counts it against all of them.
func (m *MemoryLimiter) Allow(_ context.Context, key string, policy Policy) (Decision, error) {
	if len(policy) == 0 {
		return Decision{Allowed: true}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	v := m.getVisitor(key, policy, now)

	denied := Decision{}
	for i, w := range policy {
		bucket, end := windowBucket(w, now)
		wc := &v.windows[i]
		if wc.bucket != bucket {
			wc.bucket, wc.count = bucket, 0
		}
		if wc.count >= w.Limit {
			// report the window that stays closed the longest
			if retry := end.Sub(now); retry > denied.RetryAfter {
				denied = Decision{Limit: w.Limit, RetryAfter: retry}
			}
		}
	}
	if denied.Limit > 0 {
		return denied, nil
	}

	d := Decision{Allowed: true}
	for i, w := range policy {
		v.windows[i].count++
		if remaining := w.Limit - v.windows[i].count; i == 0 || remaining < d.Remaining {
			d.Remaining = remaining
			d.Limit = w.Limit
		}
	}
	return d, nil
}

func (m *MemoryLimiter) Reset(_ context.Context) error {
	m.mu.Lock()
	m.visitors = make(map[string]*clientLimiter)
	m.mu.Unlock()
	return nil
}

// Len returns the number of tracked visitors.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}

// Cleanup drops visitors idle for longer than maxIdle.
func (m *MemoryLimiter) Cleanup(maxIdle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > maxIdle {
			delete(m.visitors, key)
		}
	}
}

// StartVisitorCleanupLoop runs Cleanup every interval until ctx is done.
func (m *MemoryLimiter) StartVisitorCleanupLoop(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup(maxIdle)
		}
	}
}
