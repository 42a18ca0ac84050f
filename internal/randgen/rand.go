// Package randgen provides the seeded random-number primitives used
// throughout the generator: weighted interval choice, exponential
// inter-arrival draws, and the float-timestamp decomposition spec.md
// §4.3 requires.
package randgen

import (
	"math"
	"math/rand"
	"time"
)

// Source wraps a seeded *rand.Rand with the domain-specific draws
// spec.md §4.3 lists. It is not safe for concurrent use; the
// generator's producer goroutine owns exactly one Source.
type Source struct {
	r *rand.Rand
}

// New creates a Source seeded with seed. If useSeed is false, seed is
// ignored and the wall clock is used instead (and returned, so callers
// can log the effective seed).
func New(useSeed bool, seed uint64) (*Source, uint64) {
	if !useSeed {
		seed = uint64(time.Now().UnixNano())
	}
	return &Source{r: rand.New(rand.NewSource(int64(seed)))}, seed
}

// Uint32 returns a uniformly distributed 32-bit value.
func (s *Source) Uint32() uint32 {
	return s.r.Uint32()
}

// IntRange returns a uniformly distributed integer in [lo, hi], inclusive.
func (s *Source) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.Intn(hi-lo+1)
}

// CapitalLetter returns a uniformly distributed character in 'A'..'Z'.
func (s *Source) CapitalLetter() byte {
	return byte(s.IntRange('A', 'Z'))
}

// UniformOpenUnit returns a value uniformly distributed in (0, 1].
func (s *Source) UniformOpenUnit() float64 {
	// rand.Float64 returns [0,1); invert to land in (0,1].
	return 1.0 - s.r.Float64()
}

// ExpTimeByRate draws an exponential inter-arrival time with rate
// lambda (events per unit time): -ln(U)/lambda.
func (s *Source) ExpTimeByRate(rate float64) float64 {
	return -math.Log(s.UniformOpenUnit()) / rate
}

// ExpTimeByMean draws an exponential inter-arrival time with mean mu:
// -mu*ln(U).
func (s *Source) ExpTimeByMean(mean float64) float64 {
	return -mean * math.Log(s.UniformOpenUnit())
}

// Interval is one weighted slice of a Choose() distribution.
// PctTotal is the percentage of draws that should land in this
// interval; the cumulative bounds are computed by NewIntervals.
type Interval struct {
	PctTotal int

	fromPct int
	toPct   int
}

// NewIntervals builds cumulative percentage bounds for a set of
// intervals whose PctTotal fields must sum to exactly 100.
func NewIntervals(pcts ...int) ([]Interval, bool) {
	sum := 0
	intervals := make([]Interval, len(pcts))
	for i, p := range pcts {
		intervals[i].PctTotal = p
		intervals[i].fromPct = sum
		sum += p
		intervals[i].toPct = sum
	}
	return intervals, sum == 100
}

// Choose draws a value in [0, 100) scaled over 100 "slices" and
// returns the index of the interval containing it.
func (s *Source) Choose(intervals []Interval) int {
	draw := s.r.Intn(100)
	for i, iv := range intervals {
		if draw >= iv.fromPct && draw < iv.toPct {
			return i
		}
	}
	return len(intervals) - 1
}

// DecomposeSeconds splits a floating point timestamp (in seconds)
// into (sec, nsec, usec) the way spec.md §4.3 requires:
// sec = trunc(t), nsec = trunc((t-sec)*1e9), usec = trunc((t-sec)*1e6).
func DecomposeSeconds(t float64) (sec uint32, nsec uint32, usec uint32) {
	whole := math.Trunc(t)
	frac := t - whole
	return uint32(whole), uint32(math.Trunc(frac * 1e9)), uint32(math.Trunc(frac * 1e6))
}
