// Package itchmodel defines the generator's in-memory order event
// model: a symbol, an event type enum, and the per-variant payloads
// (add/exec/cancel/replace/timestamp), grounded on
// original_source/itchygen.h's struct trade_symbol and struct
// order_event/union. The original's back-pointer chain
// (order_event.prev_event) is kept as the Event.PrevEvent pointer
// field: each modify event points back to the chain head it was built
// from, and the garbage collector reclaims the chain once nothing
// refers to it.
package itchmodel

// Symbol is one trading symbol a generator may emit orders for.
type Symbol struct {
	Name     string
	MinPrice uint32
	MaxPrice uint32
	AutoGen  bool
}

// EventType enumerates the lifecycle states of an order_event, mirroring
// itchygen.h's enum order_event_type.
type EventType int

const (
	EventAdd EventType = iota
	EventExec
	EventCancel
	EventReplace
	EventTimestamp
)

func (t EventType) String() string {
	switch t {
	case EventAdd:
		return "ADD"
	case EventExec:
		return "EXEC"
	case EventCancel:
		return "CANCEL"
	case EventReplace:
		return "REPLACE"
	case EventTimestamp:
		return "TIMESTAMP"
	default:
		return "UNKNOWN"
	}
}

// AddPayload is the data specific to an ORDER_ADD event.
type AddPayload struct {
	Shares uint32
	Price  uint32
	Buy    bool
}

// ExecPayload is the data specific to an ORDER_EXEC event.
type ExecPayload struct {
	Shares   uint32
	Price    uint32
	MatchNum uint64
}

// CancelPayload is the data specific to an ORDER_CANCEL event.
type CancelPayload struct {
	Shares uint32
}

// ReplacePayload is the data specific to an ORDER_REPLACE event.
type ReplacePayload struct {
	Shares     uint32
	Price      uint32
	OrigRefNum uint64
}

// TimestampPayload is the data specific to an ORDER_TIMESTAMP event.
type TimestampPayload struct {
	Seconds uint32
}

// Event is one node in an order's modify chain. PrevEvent links back
// toward the chain's ADD; the chain head owns every event in it, so
// releasing the head (e.g. after the terminal event is submitted)
// releases the whole chain. Exactly one of the *Payload fields is set,
// selected by Type.
type Event struct {
	Type EventType

	PrevEvent *Event
	Symbol    *Symbol

	Time   float64
	TSec   uint32
	TNsec  uint32
	UnitID uint32
	UnitTm uint32

	SeqNum uint64
	RefNum uint64

	// RemainShares tracks the order's live quantity after this event:
	// a REPLACE resets it to the replacement's share count, and a full
	// exec or cancel brings it to zero at chain termination.
	RemainShares uint32
	CurPrice     uint32

	Add       *AddPayload
	Exec      *ExecPayload
	Cancel    *CancelPayload
	Replace   *ReplacePayload
	Timestamp *TimestampPayload
}

// Closed reports whether this event terminates its chain: an exec or
// cancel that consumes all remaining shares. A replace always starts
// a fresh chain rather than closing the old one.
func (e *Event) Closed() bool {
	switch e.Type {
	case EventExec, EventCancel:
		return e.RemainShares == 0
	default:
		return false
	}
}

// Stats accumulates the same counters original_source/itchygen.h's
// struct itchygen_stat tracks, plus the hash bucket occupancy range
// print_stats reports alongside them.
type Stats struct {
	Orders          uint64
	Execs           uint64
	Cancels         uint64
	Replaces        uint64
	Timestamps      uint64
	BucketMin       uint32
	BucketMax       uint32
	BucketOverflows uint32
}

// Record updates the relevant counter for an event of the given type.
func (s *Stats) Record(t EventType) {
	switch t {
	case EventAdd:
		s.Orders++
	case EventExec:
		s.Execs++
	case EventCancel:
		s.Cancels++
	case EventReplace:
		s.Replaces++
	case EventTimestamp:
		s.Timestamps++
	}
}
