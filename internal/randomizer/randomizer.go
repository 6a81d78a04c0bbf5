// Package randomizer draws uniform integers and decimals from caller ranges.
package randomizer

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
)

var ErrInvalidRange = errors.New("min must not be greater than max")

// maxDecimals bounds the precision honoured for float draws.
const maxDecimals = 15

// snapEpsilon absorbs binary representation noise when snapping to a decimal grid.
const snapEpsilon = 1e-9

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Generator over src, or over a randomly seeded PCG when src is nil.
func New(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{rng: rand.New(src)}
}

// Int returns a uniform integer in [min, max].
func (g *Generator) Int(min, max int64) (int64, error) {
	if min > max {
		return 0, ErrInvalidRange
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	span := uint64(max) - uint64(min)
	if span == math.MaxUint64 {
		return int64(g.rng.Uint64()), nil
	}
	return min + int64(g.rng.Uint64N(span+1)), nil
}

// Float returns a value in [min, max]. With decimals == 0 it is a whole number
// in [ceil(min), floor(max)]. Otherwise it is rounded to a precision drawn
// uniformly from 1..decimals.
func (g *Generator) Float(min, max float64, decimals int) (float64, error) {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) || min > max {
		return 0, ErrInvalidRange
	}
	if decimals <= 0 {
		lo, hi := math.Ceil(min), math.Floor(max)
		if lo > hi || lo < math.MinInt64 || hi >= math.MaxInt64 {
			return 0, ErrInvalidRange
		}
		n, err := g.Int(int64(lo), int64(hi))
		return float64(n), err
	}
	if decimals > maxDecimals {
		decimals = maxDecimals
	}

	g.mu.Lock()
	v := min + g.rng.Float64()*(max-min)
	p := 1 + g.rng.IntN(decimals)
	g.mu.Unlock()

	r := roundTo(v, p)
	if r >= min && r <= max {
		return r, nil
	}
	for q := p; q <= decimals; q++ {
		if r < min {
			if c := ceilTo(min, q); c >= min && c <= max {
				return c, nil
			}
		} else if f := floorTo(max, q); f >= min && f <= max {
			return f, nil
		}
	}
	return max, nil
}

// DecimalPlaces counts the digits after the decimal point in s.
func DecimalPlaces(s string) int {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return len(s) - i - 1
}

func roundTo(v float64, p int) float64 {
	s := math.Pow10(p)
	return math.Round(v*s) / s
}

func ceilTo(v float64, p int) float64 {
	s := math.Pow10(p)
	return math.Ceil(v*s-snapEpsilon) / s
}

func floorTo(v float64, p int) float64 {
	s := math.Pow10(p)
	return math.Floor(v*s+snapEpsilon) / s
}
