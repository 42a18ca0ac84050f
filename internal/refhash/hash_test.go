package refhash

import (
	"testing"

	"github.com/nezhinsky/itchygen/internal/crcpoly"
	"github.com/stretchr/testify/require"
)

func defaultPolys() []uint32 {
	d := crcpoly.DefaultPolynomials()
	return d[:]
}

func TestAddFindDeleteRoundTrip(t *testing.T) {
	tbl, err := New(20, defaultPolys())
	require.NoError(t, err)

	require.Equal(t, AddOk, tbl.Add(42))
	require.True(t, tbl.Find(42))
	require.NoError(t, tbl.Delete(42))
	require.False(t, tbl.Find(42))
}

func TestAddDuplicateReturnsExists(t *testing.T) {
	tbl, err := New(20, defaultPolys())
	require.NoError(t, err)

	require.Equal(t, AddOk, tbl.Add(7))
	require.Equal(t, AddExists, tbl.Add(7))
}

func TestDeleteAbsentReturnsNotFound(t *testing.T) {
	tbl, err := New(20, defaultPolys())
	require.NoError(t, err)

	err = tbl.Delete(99)
	require.Error(t, err)
}

// TestSmallTableFillsToCapacity mirrors spec.md §8 scenario 3: a
// small table (W=4, B=16, K=6, P=2) should accept up to B*K distinct
// keys before reporting BucketOverflow or TableFull.
func TestSmallTableFillsToCapacity(t *testing.T) {
	tbl, err := New(4, defaultPolys())
	require.NoError(t, err)

	inserted := 0
	var overflowed bool
	for v := uint32(0); v < 100000 && inserted < 96; v++ {
		switch tbl.Add(v) {
		case AddOk:
			inserted++
		case AddExists:
			// collision candidate already present, try next v
		case AddBucketOverflow, AddTableFull:
			overflowed = true
		}
	}
	require.Equal(t, 96, inserted)
	require.False(t, overflowed, "should reach 96 entries before any overflow")

	stats := tbl.Stats()
	require.Equal(t, 96, stats.Entries)

	// 97th candidate should overflow or report table full somewhere
	// in a bounded search, since all 16*6=96 slots are taken.
	foundOverflow := false
	for v := uint32(100000); v < 200000; v++ {
		switch tbl.Add(v) {
		case AddBucketOverflow, AddTableFull:
			foundOverflow = true
		case AddOk:
			t.Fatalf("table should be full at 96 entries, but accepted another")
		}
		if foundOverflow {
			break
		}
	}
	require.True(t, foundOverflow)
}

func TestTableFullTakesPrecedenceOverDuplicate(t *testing.T) {
	// A width-1 table has 2 buckets * 6 slots = 12 total capacity.
	tbl, err := New(1, defaultPolys())
	require.NoError(t, err)

	inserted := 0
	for v := uint32(0); inserted < 12; v++ {
		if tbl.Add(v) == AddOk {
			inserted++
		}
	}
	require.Equal(t, 12, tbl.Stats().Entries)

	// Now the table is full (num_free == 0). Re-adding any key already
	// present should still report AddTableFull, not AddExists, per the
	// documented precedence in spec.md §4.2.
	var anyKey uint32
	for v := uint32(0); ; v++ {
		if tbl.Find(v) {
			anyKey = v
			break
		}
	}
	require.Equal(t, AddTableFull, tbl.Add(anyKey))
}

func TestResetClearsEntriesKeepsAbsMax(t *testing.T) {
	tbl, err := New(20, defaultPolys())
	require.NoError(t, err)

	for v := uint32(0); v < 10; v++ {
		require.Equal(t, AddOk, tbl.Add(v))
	}
	before := tbl.Stats()
	require.Equal(t, 10, before.Entries)

	tbl.Reset()
	after := tbl.Stats()
	require.Equal(t, 0, after.Entries)
	require.Equal(t, before.EverMaxBucketOccupancy, after.EverMaxBucketOccupancy)
}
