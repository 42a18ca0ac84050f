package timewheel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackKeySplitsSecAndNsec(t *testing.T) {
	unitID, unitTime := PackKey(5, 100)
	require.Equal(t, uint32(5)<<Shift, unitID)
	require.Equal(t, uint32(100), unitTime)
}

func TestPackKeyCarriesNsecOverflowIntoUnitID(t *testing.T) {
	// nsec's top Shift bits spill into unit_id.
	unitID, unitTime := PackKey(0, 1<<(32-Shift))
	require.Equal(t, uint32(1), unitID)
	require.Equal(t, uint32(0), unitTime)
}

func keyed(unitID, unitTime uint32, v int) Keyed[int] {
	return Keyed[int]{UnitID: unitID, UnitTime: unitTime, Value: v}
}

func TestInsertWithinSlotOrdersByUnitTime(t *testing.T) {
	w := New[int](4)
	w.Insert(keyed(2, 30, 3))
	w.Insert(keyed(2, 10, 1))
	w.Insert(keyed(2, 20, 2))

	var got []int
	w.DrainAll(func(e Keyed[int]) { got = append(got, e.Value) })
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestDrainAllIsStrictlyNonDecreasing(t *testing.T) {
	w := New[int](10)
	w.Insert(keyed(3, 5, 30))
	w.Insert(keyed(1, 5, 10))
	w.Insert(keyed(1, 1, 11))
	w.Insert(keyed(2, 0, 20))

	var unitIDs, unitTimes []uint32
	var vals []int
	w.DrainAll(func(e Keyed[int]) {
		unitIDs = append(unitIDs, e.UnitID)
		unitTimes = append(unitTimes, e.UnitTime)
		vals = append(vals, e.Value)
	})

	for i := 1; i < len(unitIDs); i++ {
		if unitIDs[i] == unitIDs[i-1] {
			require.GreaterOrEqual(t, unitTimes[i], unitTimes[i-1])
		} else {
			require.Greater(t, unitIDs[i], unitIDs[i-1])
		}
	}
	require.Equal(t, []int{11, 10, 20, 30}, vals)
}

func TestDrainUntilSubmitsUpToAndIncludingPivot(t *testing.T) {
	w := New[int](10)
	w.Insert(keyed(1, 5, 1))
	w.Insert(keyed(1, 9, 2))
	w.Insert(keyed(2, 1, 3))
	w.Insert(keyed(2, 8, 4))
	w.Insert(keyed(3, 0, 5))

	pivot := keyed(2, 5, 99)

	var got []int
	w.DrainUntil(pivot, func(e Keyed[int]) { got = append(got, e.Value) })

	// Everything in unit 1, then unit 2 up to unit_time<=5, then the
	// pivot itself (value 99). Event 4 (unit 2, time 8) and event 5
	// (unit 3) must remain.
	require.Equal(t, []int{1, 2, 3, 99}, got)
	require.Equal(t, uint32(2), w.FirstUnit())

	var rest []int
	w.DrainAll(func(e Keyed[int]) { rest = append(rest, e.Value) })
	require.Equal(t, []int{4, 5}, rest)
}

func TestDrainUntilOnEmptyWheelJustSubmitsPivot(t *testing.T) {
	w := New[int](4)
	pivot := keyed(0, 0, 7)

	var got []int
	w.DrainUntil(pivot, func(e Keyed[int]) { got = append(got, e.Value) })
	require.Equal(t, []int{7}, got)
}

func TestLastTimeReflectsTailOfLastUnit(t *testing.T) {
	w := New[int](4)
	require.Equal(t, uint32(1<<32-1), w.LastTime())

	w.Insert(keyed(1, 5, 1))
	w.Insert(keyed(1, 9, 2))
	require.Equal(t, uint32(9), w.LastTime())

	w.Insert(keyed(2, 3, 3))
	require.Equal(t, uint32(3), w.LastTime())
}

func TestInsertExtendsLastUnitAndRetractsFirstUnit(t *testing.T) {
	w := New[int](10)
	w.Insert(keyed(5, 0, 1))
	require.Equal(t, uint32(5), w.FirstUnit())
	require.Equal(t, uint32(5), w.LastUnit())

	w.Insert(keyed(8, 0, 2))
	require.Equal(t, uint32(8), w.LastUnit())

	w.Insert(keyed(2, 0, 3))
	require.Equal(t, uint32(2), w.FirstUnit())
}
