package generator

import (
	"github.com/nezhinsky/itchygen/internal/itcherr"
	"github.com/nezhinsky/itchygen/internal/randgen"
	"github.com/nezhinsky/itchygen/internal/refhash"
)

// RefMode selects how RefAllocator produces candidate reference
// numbers, per spec.md §4.5's "two modes" for unique-ref allocation.
type RefMode int

const (
	RefRandom RefMode = iota
	RefSequential
)

// RefAllocator hands out globally unique 32-bit order reference
// numbers backed by a refhash.Table, retrying on collision and
// failing only when the table itself is full.
type RefAllocator struct {
	table         *refhash.Table
	mode          RefMode
	src           *randgen.Source
	nextSeq       uint64
	seqBase       uint64
	overflowCount uint32
}

// NewRefAllocator builds an allocator over table, drawing candidates
// either randomly from src or sequentially starting at seqBase.
func NewRefAllocator(table *refhash.Table, mode RefMode, src *randgen.Source, seqBase uint64) *RefAllocator {
	return &RefAllocator{table: table, mode: mode, src: src, nextSeq: seqBase, seqBase: seqBase}
}

// Allocate returns a fresh reference number inserted into the hash
// table. Ok retries on Exists (only reachable in no-del mode, where
// stale refs are never deleted) or BucketOverflow (each retry
// increments OverflowCount); TableFull is fatal and returned as
// itcherr.ErrCapacityExceeded.
func (r *RefAllocator) Allocate() (uint64, error) {
	for {
		var candidate uint32
		if r.mode == RefRandom {
			candidate = r.src.Uint32()
		} else {
			candidate = uint32(r.nextSeq)
			r.nextSeq++
		}

		switch r.table.Add(candidate) {
		case refhash.AddOk:
			return uint64(candidate), nil
		case refhash.AddExists, refhash.AddBucketOverflow:
			r.overflowCount++
			continue
		case refhash.AddTableFull:
			return 0, itcherr.ErrCapacityExceeded
		}
	}
}

// Release deletes ref from the hash table. walkChain calls it, when
// no-del mode is off, with the chain's current ref on the chain's
// terminal EXEC/CANCEL; an ADD's original ref that a REPLACE rotated
// away is not released.
func (r *RefAllocator) Release(ref uint64) error {
	return r.table.Delete(uint32(ref))
}

// OverflowCount reports how many retries Allocate has performed due
// to collisions or bucket overflow.
func (r *RefAllocator) OverflowCount() uint32 {
	return r.overflowCount
}
