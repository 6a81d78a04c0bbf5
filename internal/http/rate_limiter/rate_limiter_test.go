package rate_limiter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rogerio-castellano/everytools-api/internal/clock"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Policy
		wantErr bool
	}{
		{
			name:  "scraper limits",
			input: "1/second;30/minute;200/hour;600/day",
			want: Policy{
				{Limit: 1, Period: time.Second},
				{Limit: 30, Period: time.Minute},
				{Limit: 200, Period: time.Hour},
				{Limit: 600, Period: 24 * time.Hour},
			},
		},
		{
			name:  "plural units and spaces",
			input: " 5/seconds ; 5000/DAY ",
			want:  Policy{{Limit: 5, Period: time.Second}, {Limit: 5000, Period: 24 * time.Hour}},
		},
		{name: "empty", input: "", want: Policy{}},
		{name: "missing slash", input: "5second", wantErr: true},
		{name: "zero limit", input: "0/second", wantErr: true},
		{name: "unknown unit", input: "5/week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicyString(t *testing.T) {
	p, err := ParsePolicy("5/second;5000/day")
	require.NoError(t, err)
	assert.Equal(t, "5/second;5000/day", p.String())
}

func TestMemoryLimiter_AllowsUpToEachWindow(t *testing.T) {
	fc := clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	l := NewMemoryLimiter(fc)
	policy := Policy{{Limit: 2, Period: time.Second}, {Limit: 3, Period: time.Minute}}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "k", policy)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
	}

	d, err := l.Allow(ctx, "k", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	fc.Advance(time.Second)

	d, err = l.Allow(ctx, "k", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	// second window has tokens, the minute window does not
	d, err = l.Allow(ctx, "k", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 3, d.Limit)
	assert.Greater(t, d.RetryAfter, 10*time.Second)
}

func TestMemoryLimiter_RejectedRequestDoesNotConsume(t *testing.T) {
	fc := clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	l := NewMemoryLimiter(fc)
	policy := Policy{{Limit: 1, Period: time.Second}, {Limit: 2, Period: time.Hour}}
	ctx := context.Background()

	d, _ := l.Allow(ctx, "k", policy)
	require.True(t, d.Allowed)

	// denied by the per-second window, must not eat the hourly budget
	for i := 0; i < 5; i++ {
		d, _ = l.Allow(ctx, "k", policy)
		require.False(t, d.Allowed)
	}

	fc.Advance(time.Second)
	d, _ = l.Allow(ctx, "k", policy)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_DailyCeilingIsExact(t *testing.T) {
	dayStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := clock.NewFake(dayStart)
	l := NewMemoryLimiter(fc)
	policy := Policy{{Limit: 600, Period: 24 * time.Hour}}
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 600; i++ {
		d, err := l.Allow(ctx, "k", policy)
		require.NoError(t, err)
		if d.Allowed {
			allowed++
		}
	}
	// one request a minute for the next 14 hours, still the same day
	for i := 0; i < 840; i++ {
		fc.Advance(time.Minute)
		d, err := l.Allow(ctx, "k", policy)
		require.NoError(t, err)
		if d.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 600, allowed)

	d, _ := l.Allow(ctx, "k", policy)
	assert.False(t, d.Allowed)
	assert.Equal(t, dayStart.Add(24*time.Hour).Sub(fc.Now()), d.RetryAfter)

	fc.Set(dayStart.Add(24 * time.Hour))
	d, _ = l.Allow(ctx, "k", policy)
	assert.True(t, d.Allowed)
	assert.Equal(t, 599, d.Remaining)
}

func TestMemoryLimiter_WindowsResetOnBucketBoundary(t *testing.T) {
	fc := clock.NewFake(time.Date(2024, 1, 1, 12, 0, 59, 0, time.UTC))
	l := NewMemoryLimiter(fc)
	policy := Policy{{Limit: 2, Period: time.Minute}}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, _ := l.Allow(ctx, "k", policy)
		require.True(t, d.Allowed)
	}
	d, _ := l.Allow(ctx, "k", policy)
	require.False(t, d.Allowed)
	assert.Equal(t, time.Second, d.RetryAfter)

	fc.Advance(time.Second)
	d, _ = l.Allow(ctx, "k", policy)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(clock.NewFake(time.Unix(0, 0)))
	policy := Policy{{Limit: 1, Period: time.Minute}}
	ctx := context.Background()

	a, _ := l.Allow(ctx, "a", policy)
	b, _ := l.Allow(ctx, "b", policy)
	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)
	assert.Equal(t, 2, l.Len())
}

func TestMemoryLimiter_CleanupAndReset(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	l := NewMemoryLimiter(fc)
	policy := Policy{{Limit: 1, Period: time.Minute}}
	ctx := context.Background()

	_, _ = l.Allow(ctx, "old", policy)
	fc.Advance(10 * time.Minute)
	_, _ = l.Allow(ctx, "new", policy)

	l.Cleanup(5 * time.Minute)
	assert.Equal(t, 1, l.Len())

	require.NoError(t, l.Reset(ctx))
	assert.Equal(t, 0, l.Len())

	d, _ := l.Allow(ctx, "new", policy)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_EmptyPolicy(t *testing.T) {
	l := NewMemoryLimiter(nil)
	d, err := l.Allow(context.Background(), "k", Policy{})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, l.Len())
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr, rdb := setupRedis(t)
	fc := clock.NewFake(time.Unix(1000, 0))
	l := NewRedisLimiter(rdb, fc)
	policy := Policy{{Limit: 2, Period: time.Second}, {Limit: 10, Period: time.Minute}}
	ctx := context.Background()

	d, err := l.Allow(ctx, "route:1.2.3.4", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, 2, d.Limit)

	d, err = l.Allow(ctx, "route:1.2.3.4", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "route:1.2.3.4", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Second, d.RetryAfter)

	assert.True(t, mr.Exists("ratelimit:route:1.2.3.4:1:1000"))
	assert.Greater(t, mr.TTL("ratelimit:route:1.2.3.4:60:16"), time.Duration(0))

	fc.Advance(time.Second)
	d, err = l.Allow(ctx, "route:1.2.3.4", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_RejectedRequestDoesNotConsume(t *testing.T) {
	mr, rdb := setupRedis(t)
	fc := clock.NewFake(time.Unix(3600, 0))
	l := NewRedisLimiter(rdb, fc)
	policy := Policy{{Limit: 1, Period: time.Second}, {Limit: 2, Period: time.Hour}}
	ctx := context.Background()

	d, err := l.Allow(ctx, "k", policy)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	for i := 0; i < 5; i++ {
		d, err = l.Allow(ctx, "k", policy)
		require.NoError(t, err)
		require.False(t, d.Allowed)
		assert.Equal(t, 1, d.Limit)
	}
	hourly, err := mr.Get("ratelimit:k:3600:1")
	require.NoError(t, err)
	assert.Equal(t, "1", hourly)

	fc.Advance(time.Second)
	d, err = l.Allow(ctx, "k", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestRedisLimiter_DailyCeilingIsExact(t *testing.T) {
	_, rdb := setupRedis(t)
	fc := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	l := NewRedisLimiter(rdb, fc)
	policy := Policy{{Limit: 600, Period: 24 * time.Hour}}
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 700; i++ {
		fc.Advance(time.Minute)
		d, err := l.Allow(ctx, "k", policy)
		require.NoError(t, err)
		if d.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 600, allowed)
}

func TestRedisLimiter_Reset(t *testing.T) {
	mr, rdb := setupRedis(t)
	l := NewRedisLimiter(rdb, clock.NewFake(time.Unix(1000, 0)))
	policy := Policy{{Limit: 1, Period: time.Hour}}
	ctx := context.Background()

	require.NoError(t, mr.Set("unrelated", "keep"))
	_, err := l.Allow(ctx, "k", policy)
	require.NoError(t, err)
	d, _ := l.Allow(ctx, "k", policy)
	require.False(t, d.Allowed)

	require.NoError(t, l.Reset(ctx))
	assert.True(t, mr.Exists("unrelated"))

	d, err = l.Allow(ctx, "k", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_StoreDown(t *testing.T) {
	mr, rdb := setupRedis(t)
	l := NewRedisLimiter(rdb, nil)
	mr.Close()

	_, err := l.Allow(context.Background(), "k", Policy{{Limit: 1, Period: time.Second}})
	assert.Error(t, err)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, Policy) (Decision, error) {
	return Decision{}, errors.New("boom")
}

func (failingLimiter) Reset(context.Context) error { return nil }

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := func(w http.ResponseWriter, r *http.Request, d Decision) {
		w.WriteHeader(http.StatusTooManyRequests)
	}
	policy := Policy{{Limit: 1, Period: time.Second}}

	t.Run("second request from same IP is limited", func(t *testing.T) {
		l := NewMemoryLimiter(clock.NewFake(time.Unix(0, 0)))
		h := Middleware(l, "test", policy, zap.NewNop(), limited)(ok)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:6666"
		w = httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:5555"
		w = httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("store failure lets requests through", func(t *testing.T) {
		h := Middleware(failingLimiter{}, "test", policy, zap.NewNop(), limited)(ok)
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.10:1234"
	assert.Equal(t, "192.168.1.10", ClientIP(req))

	req.RemoteAddr = "192.168.1.10"
	assert.Equal(t, "192.168.1.10", ClientIP(req))
}
