package generator

import (
	"github.com/nezhinsky/itchygen/internal/itchmodel"
	"github.com/nezhinsky/itchygen/internal/randgen"
)

// Config drives one generator run, combining spec.md §4.5's generator
// parameters (rate, mean modify time, outcome probabilities, unique-ref
// mode) with the symbol pools loaded or generated by the caller.
type Config struct {
	// NumOrders is the target number of ADD chains to generate.
	NumOrders int
	// Rate is the ADD event rate in events/second (lambda for
	// exp_time_by_rate).
	Rate float64
	// MeanModifyMsec is the mean modify-event interarrival time in
	// milliseconds, and FloorModifyMsec is the floor added to every
	// draw: time = floor + exp_time_by_mean(mean-floor).
	MeanModifyMsec  float64
	FloorModifyMsec float64

	// PctExec, PctCancel, PctReplace must sum to 100.
	PctExec    int
	PctCancel  int
	PctReplace int

	Symbols             []itchmodel.Symbol
	SubscriptionSymbols []itchmodel.Symbol
	// SubscriptionPct is the percent chance an ADD is drawn from
	// SubscriptionSymbols rather than Symbols, when SubscriptionSymbols
	// is non-empty.
	SubscriptionPct int

	UseSeed bool
	Seed    uint64

	RefMode    RefMode
	RefSeqBase uint64
	NoDel      bool

	HashWidth   uint32
	Polynomials []uint32

	FirstSeqNum uint64

	Session [10]byte
}

// outcomeIntervals builds the EXEC/CANCEL/REPLACE weighted choice
// from a Config's percentages, in that fixed order.
func (c *Config) outcomeIntervals() ([]randgen.Interval, bool) {
	return randgen.NewIntervals(c.PctExec, c.PctCancel, c.PctReplace)
}

type modifyOutcome int

const (
	outcomeExec modifyOutcome = iota
	outcomeCancel
	outcomeReplace
)
