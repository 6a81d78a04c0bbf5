package rate_limiter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidPolicy = errors.New("invalid rate limit policy")

// Window is a single "limit per period" ceiling.
type Window struct {
	Limit  int
	Period time.Duration
}

// Policy is the ordered set of windows a request must satisfy.
type Policy []Window

var periods = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParsePolicy parses strings such as "1/second;30/minute;200/hour;600/day".
// An empty string yields an empty policy, which never limits.
func ParsePolicy(s string) (Policy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Policy{}, nil
	}

	var p Policy
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		count, unit, ok := strings.Cut(part, "/")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, part)
		}
		limit, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("%w: bad limit in %q", ErrInvalidPolicy, part)
		}
		unit = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(unit)), "s")
		period, ok := periods[unit]
		if !ok {
			return nil, fmt.Errorf("%w: bad period in %q", ErrInvalidPolicy, part)
		}
		p = append(p, Window{Limit: limit, Period: period})
	}
	return p, nil
}

// String renders the policy back into its textual form.
func (p Policy) String() string {
	parts := make([]string, 0, len(p))
	for _, w := range p {
		unit := "second"
		for name, d := range periods {
			if d == w.Period {
				unit = name
			}
		}
		parts = append(parts, fmt.Sprintf("%d/%s", w.Limit, unit))
	}
	return strings.Join(parts, ";")
}
