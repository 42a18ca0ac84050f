// Package refhash implements the bucketed, multi-polynomial hash set
// of uint32 keys described in spec.md §4.2: a fixed array of buckets,
// each holding up to NumBucketSlots inline values, addressed by P
// independent CRC hashes of the key.
package refhash

import (
	"fmt"

	"github.com/nezhinsky/itchygen/internal/crcpoly"
	"github.com/nezhinsky/itchygen/internal/itcherr"
)

// NumBucketSlots is the inline capacity of a single bucket (K in spec.md).
const NumBucketSlots = 6

// MaxPolynomials bounds how many independent CRC hashes an Add may
// probe (P in spec.md, 2 or 3 in practice).
const MaxPolynomials = 3

type bucket struct {
	vals [NumBucketSlots]uint32
	num  int
}

func (b *bucket) find(val uint32) int {
	for i := 0; i < b.num; i++ {
		if b.vals[i] == val {
			return i
		}
	}
	return -1
}

// Table is a bucketed hash set of uint32 keys.
type Table struct {
	tables   []*crcpoly.Table
	buckets  []bucket
	width    uint32
	numFree  int
	numVals  int
	entries  int
	absMax   int // ever_max_bucket_occupancy
}

// Stats reports point-in-time and lifetime hash table statistics.
type Stats struct {
	Entries              int
	EverMaxBucketOccupancy int
	// OccupancyHistogram[n] counts buckets currently holding exactly n
	// values, for n in [0, NumBucketSlots].
	OccupancyHistogram [NumBucketSlots + 1]int
}

// New builds a hash table with 2^width buckets, hashed by the given
// CRC polynomials (all of the same width). len(polynomials) is P.
func New(width uint32, polynomials []uint32) (*Table, error) {
	if len(polynomials) == 0 || len(polynomials) > MaxPolynomials {
		return nil, fmt.Errorf("refhash: need 1-%d polynomials, got %d", MaxPolynomials, len(polynomials))
	}
	tables := make([]*crcpoly.Table, len(polynomials))
	for i, p := range polynomials {
		tbl, err := crcpoly.New(p, width)
		if err != nil {
			return nil, err
		}
		tables[i] = tbl
	}

	numVals := 1 << width
	return &Table{
		tables:  tables,
		buckets: make([]bucket, numVals),
		width:   width,
		numVals: numVals,
		numFree: numVals * NumBucketSlots,
	}, nil
}

// AddResult enumerates the outcomes of Add.
type AddResult int

const (
	// AddOk indicates the key was inserted.
	AddOk AddResult = iota
	// AddExists indicates the key was already present in a candidate bucket.
	AddExists
	// AddBucketOverflow indicates every candidate bucket was full.
	AddBucketOverflow
	// AddTableFull indicates the table has no free slots at all.
	AddTableFull
)

// Add inserts val, choosing among the P candidate buckets the one
// with the fewest occupants (ties broken by first-found order).
//
// Precedence is preserved from the original source exactly: the
// capacity check (num_free == 0 -> AddTableFull) runs *before*
// duplicate detection, so a call with a full table returns
// AddTableFull even if val is already present in a candidate bucket.
// See spec.md §4.2 and DESIGN.md.
func (t *Table) Add(val uint32) AddResult {
	if t.numFree == 0 {
		return AddTableFull
	}

	var minBucket *bucket
	for _, tbl := range t.tables {
		idx := tbl.Uint32(val)
		b := &t.buckets[idx]
		if b.find(val) >= 0 {
			return AddExists
		}
		if minBucket == nil || b.num < minBucket.num {
			minBucket = b
		}
	}

	if minBucket.num < NumBucketSlots {
		minBucket.vals[minBucket.num] = val
		minBucket.num++
		if minBucket.num > t.absMax {
			t.absMax = minBucket.num
		}
		t.numFree--
		t.entries++
		return AddOk
	}
	return AddBucketOverflow
}

// Find reports whether val is present in any of the P candidate buckets.
func (t *Table) Find(val uint32) bool {
	for _, tbl := range t.tables {
		idx := tbl.Uint32(val)
		if t.buckets[idx].find(val) >= 0 {
			return true
		}
	}
	return false
}

// Delete removes val from its candidate bucket, compacting the
// remaining slots to keep them contiguous. Returns itcherr.ErrNotFound
// if val isn't present.
func (t *Table) Delete(val uint32) error {
	for _, tbl := range t.tables {
		idx := tbl.Uint32(val)
		b := &t.buckets[idx]
		i := b.find(val)
		if i < 0 {
			continue
		}
		for j := i + 1; j < b.num; j++ {
			b.vals[j-1] = b.vals[j]
		}
		b.num--
		t.numFree++
		t.entries--
		return nil
	}
	return itcherr.ErrNotFound
}

// Reset clears every hash entry without resetting lifetime counters
// (EverMaxBucketOccupancy survives a Reset, matching the original's
// dhash_reset/dhash_stat split).
func (t *Table) Reset() {
	for i := range t.buckets {
		t.buckets[i] = bucket{}
	}
	t.numFree = t.numVals * NumBucketSlots
	t.entries = 0
}

// Stats reports current entry count, the highest bucket occupancy
// ever observed, and a histogram of current per-bucket occupancy.
func (t *Table) Stats() Stats {
	var s Stats
	s.Entries = t.entries
	s.EverMaxBucketOccupancy = t.absMax
	for i := range t.buckets {
		s.OccupancyHistogram[t.buckets[i].num]++
	}
	return s
}
