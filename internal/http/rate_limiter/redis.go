package rate_limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rogerio-castellano/everytools-api/internal/clock"
)

const redisKeyPrefix = "ratelimit:"

// allowScript checks every window counter and increments them only when all
// are below their limits, so a rejected request consumes nothing.
// KEYS: one counter per window. ARGV: limit and ttl in ms, per window.
// Returns {allowed, count_1, ..., count_n}.
var allowScript = redis.NewScript(`
local counts = {}
local allowed = 1
for i, key in ipairs(KEYS) do
  counts[i] = tonumber(redis.call('GET', key) or '0')
  if counts[i] >= tonumber(ARGV[i * 2 - 1]) then
    allowed = 0
  end
end
if allowed == 1 then
  for i, key in ipairs(KEYS) do
    counts[i] = redis.call('INCR', key)
    if counts[i] == 1 then
      redis.call('PEXPIRE', key, ARGV[i * 2])
    end
  end
end
table.insert(counts, 1, allowed)
return counts
`)

// RedisLimiter enforces fixed windows with one counter per window bucket,
// so limits hold across several API instances.
type RedisLimiter struct {
	rdb   *redis.Client
	clock clock.Clock
}

func NewRedisLimiter(rdb *redis.Client, c clock.Clock) *RedisLimiter {
	if c == nil {
		c = clock.RealClock{}
	}
	return &RedisLimiter{rdb: rdb, clock: c}
}

func bucketKey(key string, w Window, now time.Time) (string, time.Time) {
	bucket, end := windowBucket(w, now)
	return fmt.Sprintf("%s%s:%d:%d", redisKeyPrefix, key, int64(w.Period/time.Second), bucket), end
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, policy Policy) (Decision, error) {
	if len(policy) == 0 {
		return Decision{Allowed: true}, nil
	}

	now := l.clock.Now()
	keys := make([]string, len(policy))
	ends := make([]time.Time, len(policy))
	args := make([]any, 0, 2*len(policy))
	for i, w := range policy {
		keys[i], ends[i] = bucketKey(key, w, now)
		args = append(args, w.Limit, w.Period.Milliseconds())
	}

	res, err := allowScript.Run(ctx, l.rdb, keys, args...).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit counters: %w", err)
	}
	if len(res) != len(policy)+1 {
		return Decision{}, fmt.Errorf("rate limit counters: unexpected reply of %d values", len(res))
	}
	counts := res[1:]

	if res[0] == 0 {
		d := Decision{}
		for i, w := range policy {
			if int(counts[i]) < w.Limit {
				continue
			}
			if retry := ends[i].Sub(now); retry > d.RetryAfter {
				d = Decision{Limit: w.Limit, RetryAfter: retry}
			}
		}
		return d, nil
	}

	d := Decision{Allowed: true}
	for i, w := range policy {
		if remaining := w.Limit - int(counts[i]); i == 0 || remaining < d.Remaining {
			d.Remaining = remaining
			d.Limit = w.Limit
		}
	}
	return d, nil
}

// Reset removes every limiter counter.
func (l *RedisLimiter) Reset(ctx context.Context) error {
	iter := l.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan rate limit keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return l.rdb.Del(ctx, keys...).Err()
}
