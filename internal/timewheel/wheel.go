// Package timewheel implements the bucketed time-wheel scheduler of
// spec.md §4.4: a fixed array of slots, each an ordered list of
// pending events, addressed by a packed (unit_id, unit_time) key
// derived from a (seconds, nanoseconds) timestamp. Insertion is O(1)
// in the common case (empty slot, or new tail) and O(n) in the slot
// only when splicing into the middle; draining walks slots in order
// and is what gives the generator's output its strictly non-decreasing
// timestamp property.
//
// Per spec.md §9, the slot itself is an owning doubly linked list of
// boxed events (internal/dlist), not an intrusive link field embedded
// in the event type.
package timewheel

import (
	"math"

	"github.com/nezhinsky/itchygen/internal/dlist"
)

// Shift is S in spec.md §4.4: unit_id is the high bits of the packed
// key (seconds, plus overflow from nanoseconds), unit_time is the low
// (32-Shift) bits of the nanosecond field.
const Shift = 9

// lowMask isolates the unit_time bits of a nanosecond value.
const lowMask = (uint32(1) << (32 - Shift)) - 1

// PackKey derives (unit_id, unit_time) from a (seconds, nanoseconds)
// timestamp, per spec.md §4.4: unit_id = (sec<<S) | (nsec>>(32-S)),
// unit_time = nsec & ((1<<(32-S))-1).
func PackKey(sec, nsec uint32) (unitID, unitTime uint32) {
	unitID = (sec << Shift) | (nsec >> (32 - Shift))
	unitTime = nsec & lowMask
	return
}

// Keyed wraps a value with the packed key used to place and order it
// within the wheel.
type Keyed[T any] struct {
	UnitID   uint32
	UnitTime uint32
	Value    T
}

// Wheel is a bucketed scheduler of Keyed[T] events ordered by
// (UnitID, UnitTime).
type Wheel[T any] struct {
	slots []dlist.List[Keyed[T]]

	hasEntries bool
	firstUnit  uint32
	lastUnit   uint32
}

// New allocates a wheel with room for numSlots distinct unit_id
// values, numbered starting at 0. The caller must size numSlots to
// cover every unit_id it intends to insert, computed as spec.md §4.4
// directs: (run_time + margin) << Shift. Slots are allocated once, up
// front, and addressed directly by unit_id.
func New[T any](numSlots int) *Wheel[T] {
	return &Wheel[T]{slots: make([]dlist.List[Keyed[T]], numSlots)}
}

func (w *Wheel[T]) slot(unitID uint32) *dlist.List[Keyed[T]] {
	return &w.slots[int(unitID)]
}

// Insert places e into its unit_id slot, ordered by unit_time within
// the slot: empty slot places at head, unit_time >= tail's appends,
// otherwise it walks to the first node with strictly greater
// unit_time and splices before it. first_unit/last_unit are extended
// or retracted (never below 0) to cover e's unit_id.
func (w *Wheel[T]) Insert(e Keyed[T]) {
	s := w.slot(e.UnitID)

	if s.Empty() {
		s.PushBack(e)
	} else if e.UnitTime >= s.Back().Value.UnitTime {
		s.PushBack(e)
	} else {
		mark := s.Front()
		for mark != nil && mark.Value.UnitTime <= e.UnitTime {
			mark = mark.Next()
		}
		if mark == nil {
			s.PushBack(e)
		} else {
			s.InsertBefore(mark, e)
		}
	}

	if !w.hasEntries {
		w.hasEntries = true
		w.firstUnit = e.UnitID
		w.lastUnit = e.UnitID
		return
	}
	if e.UnitID > w.lastUnit {
		w.lastUnit = e.UnitID
	}
	if e.UnitID < w.firstUnit {
		w.firstUnit = e.UnitID
	}
}

// DrainUntil submits, in strictly non-decreasing (unit_id, unit_time)
// order, every event from first_unit up through pivot's unit_id
// (exclusive of events in pivot's own slot with unit_time greater than
// pivot's), then the pivot itself, advancing first_unit to pivot's
// unit_id. submit is called once per event, in order.
func (w *Wheel[T]) DrainUntil(pivot Keyed[T], submit func(Keyed[T])) {
	if !w.hasEntries {
		submit(pivot)
		return
	}
	for unit := w.firstUnit; unit < pivot.UnitID; unit++ {
		w.drainSlotAll(unit, submit)
	}
	w.drainSlotUpTo(pivot.UnitID, pivot.UnitTime, submit)
	submit(pivot)
	w.firstUnit = pivot.UnitID
	if w.lastUnit < w.firstUnit {
		w.lastUnit = w.firstUnit
	}
}

// DrainAll submits every remaining event in the wheel in order.
func (w *Wheel[T]) DrainAll(submit func(Keyed[T])) {
	if !w.hasEntries {
		return
	}
	for unit := w.firstUnit; unit <= w.lastUnit; unit++ {
		w.drainSlotAll(unit, submit)
	}
	w.hasEntries = false
}

func (w *Wheel[T]) drainSlotAll(unit uint32, submit func(Keyed[T])) {
	s := w.slot(unit)
	for {
		v, ok := s.PopFront()
		if !ok {
			break
		}
		submit(v)
	}
}

func (w *Wheel[T]) drainSlotUpTo(unit uint32, unitTime uint32, submit func(Keyed[T])) {
	s := w.slot(unit)
	for !s.Empty() && s.Front().Value.UnitTime <= unitTime {
		v, _ := s.PopFront()
		submit(v)
	}
}

// LastTime returns the unit_time of the tail event in last_unit's
// slot, or math.MaxUint32 (a sentinel meaning "nothing scheduled") if
// the wheel holds no entries.
func (w *Wheel[T]) LastTime() uint32 {
	if !w.hasEntries {
		return math.MaxUint32
	}
	s := w.slot(w.lastUnit)
	if s.Empty() {
		return math.MaxUint32
	}
	return s.Back().Value.UnitTime
}

// FirstUnit and LastUnit expose the wheel's current cursor bounds,
// mainly for tests and diagnostics.
func (w *Wheel[T]) FirstUnit() uint32 { return w.firstUnit }
func (w *Wheel[T]) LastUnit() uint32  { return w.lastUnit }
func (w *Wheel[T]) HasEntries() bool  { return w.hasEntries }
