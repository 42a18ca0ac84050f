// Package generator implements the event generator and its
// two-goroutine producer/writer pipeline (spec.md §4.5 and §5),
// grounded on original_source/itchygen.c/.h's order lifecycle and
// original_source/usync_queue.c's batched handoff. The producer
// goroutine advances virtual time, builds ADD/EXEC/CANCEL/REPLACE
// chains through internal/timewheel, and pushes drained batches to a
// syncqueue; the writer goroutine pulls batches and serializes them
// through internal/itchproto and internal/pcapfile.
package generator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nezhinsky/itchygen/internal/dlist"
	"github.com/nezhinsky/itchygen/internal/itchmodel"
	"github.com/nezhinsky/itchygen/internal/itchproto"
	"github.com/nezhinsky/itchygen/internal/netframe"
	"github.com/nezhinsky/itchygen/internal/pcapfile"
	"github.com/nezhinsky/itchygen/internal/randgen"
	"github.com/nezhinsky/itchygen/internal/refhash"
	"github.com/nezhinsky/itchygen/internal/syncqueue"
	"github.com/nezhinsky/itchygen/internal/timewheel"
)

// runTimeMarginSec pads the wheel's slot capacity beyond the
// estimated run time, the Go counterpart of the original's "+margin"
// in its capacity formula.
const runTimeMarginSec = 5

// Result summarizes a completed generator run.
type Result struct {
	Stats           itchmodel.Stats
	RefOverflows    uint32
	EffectiveSeed   uint64
	RecordsWritten  uint64
	LastSeqNum      uint64
}

// Generator produces an ITCH/MoldUDP64/PCAP capture from a Config.
type Generator struct {
	cfg    Config
	logger zerolog.Logger

	// Limiter paces ADD emission to wall-clock time when non-nil; the
	// generator is otherwise virtual-time-only (spec.md §4.5 doesn't
	// require wall-clock pacing, this is additive instrumentation).
	Limiter *rate.Limiter

	// RSSSampler, when set, is polled periodically and logged as a
	// backpressure warning if it exceeds RSSWarnBytes. Both are
	// optional instrumentation layered on top of the original design.
	RSSSampler   func() (uint64, error)
	RSSWarnBytes uint64
}

// New validates cfg and builds a Generator ready to Run.
func New(cfg Config, logger zerolog.Logger) (*Generator, error) {
	if cfg.NumOrders <= 0 {
		return nil, fmt.Errorf("generator: NumOrders must be > 0")
	}
	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("generator: Rate must be > 0")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("generator: at least one symbol required")
	}
	if _, ok := cfg.outcomeIntervals(); !ok {
		return nil, fmt.Errorf("generator: PctExec+PctCancel+PctReplace must sum to 100")
	}
	return &Generator{cfg: cfg, logger: logger}, nil
}

// chainState tracks the live order a modify chain walks forward from.
type chainState struct {
	head    *itchmodel.Event // the chain's current head event (ADD or REPLACE)
	ref     uint64
	remain  uint32
	curTime float64
	price   uint32
	buy     bool
}

// Run drives the full generator pipeline, writing the output capture
// to the file fname. dst/src are the Ethernet/IPv4/UDP endpoints every record is
// wrapped in.
func (g *Generator) Run(fname string, dst, src netframe.Endpoint) (Result, error) {
	src2, effSeed := randgen.New(g.cfg.UseSeed, g.cfg.Seed)

	hashTable, err := refhash.New(g.cfg.HashWidth, g.cfg.Polynomials)
	if err != nil {
		return Result{}, err
	}
	refAlloc := NewRefAllocator(hashTable, g.cfg.RefMode, src2, g.cfg.RefSeqBase)

	outcomeIntervals, _ := g.cfg.outcomeIntervals()

	estRunTime := float64(g.cfg.NumOrders)/g.cfg.Rate + 1
	slots := int((estRunTime+runTimeMarginSec)*float64(int(1)<<timewheel.Shift)) + (1 << timewheel.Shift)
	wheel := timewheel.New[*itchmodel.Event](slots)

	w, err := pcapfile.Create(fname, dst, src)
	if err != nil {
		return Result{}, err
	}

	queue := syncqueue.New[*itchmodel.Event]()
	writerDone := make(chan writerResult, 1)
	go g.writeLoop(queue, w, writerDone)

	var stats itchmodel.Stats
	var matchCounter uint64
	runTime := 0.0
	vt := 0.0

	submit := func(k timewheel.Keyed[*itchmodel.Event]) {
		stats.Record(k.Value.Type)
		queue.Accum(k.Value)
	}

	for i := 0; i < g.cfg.NumOrders; i++ {
		if g.Limiter != nil {
			_ = g.Limiter.Wait(context.Background())
		}
		g.maybeWarnRSS()

		vt += src2.ExpTimeByRate(g.cfg.Rate)
		for vt > runTime {
			sec, nsec, _ := randgen.DecomposeSeconds(runTime)
			unitID, unitTime := timewheel.PackKey(sec, nsec)
			ts := &itchmodel.Event{
				Type:      itchmodel.EventTimestamp,
				Time:      runTime,
				TSec:      sec,
				TNsec:     nsec,
				UnitID:    unitID,
				UnitTm:    unitTime,
				Timestamp: &itchmodel.TimestampPayload{Seconds: sec},
			}
			wheel.Insert(timewheel.Keyed[*itchmodel.Event]{UnitID: unitID, UnitTime: unitTime, Value: ts})
			runTime++
		}

		symbol := g.pickSymbol(src2)
		ref, err := refAlloc.Allocate()
		if err != nil {
			queue.Shutdown()
			<-writerDone
			return Result{}, err
		}

		shares := uint32(10 * src2.IntRange(1, 250))
		price := uint32(src2.IntRange(int(symbol.MinPrice), int(symbol.MaxPrice)))
		buy := src2.IntRange(0, 1) == 1

		sec, nsec, _ := randgen.DecomposeSeconds(vt)
		unitID, unitTime := timewheel.PackKey(sec, nsec)

		add := &itchmodel.Event{
			Type:         itchmodel.EventAdd,
			Symbol:       symbol,
			Time:         vt,
			TSec:         sec,
			TNsec:        nsec,
			UnitID:       unitID,
			UnitTm:       unitTime,
			RefNum:       ref,
			RemainShares: shares,
			CurPrice:     price,
			Add:          &itchmodel.AddPayload{Shares: shares, Price: price, Buy: buy},
		}
		addKeyed := timewheel.Keyed[*itchmodel.Event]{UnitID: unitID, UnitTime: unitTime, Value: add}
		wheel.DrainUntil(addKeyed, submit)
		queue.PushAccum()

		state := chainState{head: add, ref: ref, remain: shares, curTime: vt, price: price, buy: buy}
		g.walkChain(src2, &state, symbol, outcomeIntervals, wheel, &matchCounter, refAlloc)
	}

	// Any modify events scheduled past the last ADD are flushed here in
	// order; no TIMESTAMP events are added for seconds past the last
	// ADD's virtual time.
	wheel.DrainAll(submit)
	queue.PushAccum()
	queue.Shutdown()

	wr := <-writerDone
	if wr.err != nil {
		return Result{}, wr.err
	}

	return Result{
		Stats:          stats,
		RefOverflows:   refAlloc.OverflowCount(),
		EffectiveSeed:  effSeed,
		RecordsWritten: wr.records,
		LastSeqNum:     wr.lastSeqNum,
	}, nil
}

// walkChain generates EXEC/CANCEL/REPLACE events until the order
// closes (remain_shares == 0), per spec.md §4.5 step 4. Each modify
// event is inserted into the wheel but not yet submitted; submission
// happens when a later ADD (or the final drain_all) drains past it.
func (g *Generator) walkChain(
	src *randgen.Source,
	state *chainState,
	symbol *itchmodel.Symbol,
	outcomeIntervals []randgen.Interval,
	wheel *timewheel.Wheel[*itchmodel.Event],
	matchCounter *uint64,
	refAlloc *RefAllocator,
) {
	floorSec := g.cfg.FloorModifyMsec / 1000.0
	meanSec := g.cfg.MeanModifyMsec / 1000.0

	for state.remain > 0 {
		delta := floorSec
		if meanSec > floorSec {
			delta += src.ExpTimeByMean(meanSec - floorSec)
		}
		state.curTime += delta

		sec, nsec, _ := randgen.DecomposeSeconds(state.curTime)
		unitID, unitTime := timewheel.PackKey(sec, nsec)

		outcome := modifyOutcome(src.Choose(outcomeIntervals))
		base := itchmodel.Event{
			PrevEvent: state.head,
			Symbol:    symbol,
			Time:      state.curTime,
			TSec:      sec,
			TNsec:     nsec,
			UnitID:    unitID,
			UnitTm:    unitTime,
			RefNum:    state.ref,
		}

		var ev *itchmodel.Event
		switch outcome {
		case outcomeExec:
			*matchCounter++
			execShares := state.remain
			execPrice := state.price
			if d := src.IntRange(0, 9); uint32(d) < execPrice {
				execPrice -= uint32(d)
			}
			state.remain = 0
			base.Type = itchmodel.EventExec
			base.RemainShares = state.remain
			base.CurPrice = execPrice
			base.Exec = &itchmodel.ExecPayload{Shares: execShares, Price: execPrice, MatchNum: *matchCounter}
			ev = &base

		case outcomeCancel:
			cancelShares := state.remain
			state.remain = 0
			base.Type = itchmodel.EventCancel
			base.RemainShares = state.remain
			base.Cancel = &itchmodel.CancelPayload{Shares: cancelShares}
			ev = &base

		case outcomeReplace:
			newRef, err := refAlloc.Allocate()
			if err != nil {
				// Table full: fall back to a cancel so the chain still
				// terminates deterministically rather than generating
				// an unreferenced order.
				cancelShares := state.remain
				state.remain = 0
				base.Type = itchmodel.EventCancel
				base.RemainShares = state.remain
				base.Cancel = &itchmodel.CancelPayload{Shares: cancelShares}
				ev = &base
				break
			}
			newShares := uint32(10 * src.IntRange(1, 250))
			newPrice := uint32(src.IntRange(int(symbol.MinPrice), int(symbol.MaxPrice)))
			base.Type = itchmodel.EventReplace
			base.RefNum = newRef
			base.RemainShares = newShares
			base.CurPrice = newPrice
			base.Replace = &itchmodel.ReplacePayload{Shares: newShares, Price: newPrice, OrigRefNum: state.ref}
			ev = &base

			state.head = ev
			state.ref = newRef
			state.remain = newShares
			state.price = newPrice
		}

		wheel.Insert(timewheel.Keyed[*itchmodel.Event]{UnitID: unitID, UnitTime: unitTime, Value: ev})

		if !g.cfg.NoDel && ev.Type != itchmodel.EventReplace {
			// Releases the chain's current ref (state.ref) on its
			// terminal EXEC/CANCEL, not the original ADD's ref: for a
			// chain that went through a REPLACE, state.ref is the
			// rotated ref, and the ADD's original ref is never
			// independently released. See DESIGN.md for the documented
			// divergence from spec.md §4.5's "release on ADD submit"
			// wording.
			_ = refAlloc.Release(state.ref)
		}
	}
}

// pickSymbol draws a symbol from the subscription pool (if configured
// and the subscription-ratio draw hits) or else the main pool.
func (g *Generator) pickSymbol(src *randgen.Source) *itchmodel.Symbol {
	if len(g.cfg.SubscriptionSymbols) > 0 {
		if src.IntRange(0, 99) < g.cfg.SubscriptionPct {
			return &g.cfg.SubscriptionSymbols[src.IntRange(0, len(g.cfg.SubscriptionSymbols)-1)]
		}
	}
	return &g.cfg.Symbols[src.IntRange(0, len(g.cfg.Symbols)-1)]
}

func (g *Generator) maybeWarnRSS() {
	if g.RSSSampler == nil || g.RSSWarnBytes == 0 {
		return
	}
	rss, err := g.RSSSampler()
	if err != nil {
		return
	}
	if rss > g.RSSWarnBytes {
		g.logger.Warn().Uint64("rss_bytes", rss).Uint64("threshold_bytes", g.RSSWarnBytes).
			Msg("generator memory usage above threshold")
	}
}

type writerResult struct {
	err        error
	records    uint64
	lastSeqNum uint64
}

// writeLoop is the pipeline's consumer goroutine: it pulls batches
// from queue and serializes each event as a MoldUDP64-framed ITCH
// message in its own PCAP record, one message per packet (msg_cnt is
// always 1, per spec.md §4.6).
func (g *Generator) writeLoop(queue *syncqueue.Queue[*itchmodel.Event], w *pcapfile.Writer, done chan<- writerResult) {
	defer func() {
		if r := recover(); r != nil {
			done <- writerResult{err: fmt.Errorf("generator: writer panic: %v", r)}
		}
	}()

	seqNum := g.cfg.FirstSeqNum
	var records uint64
	var batch dlist.List[*itchmodel.Event]

	for queue.PullList(&batch) {
		for {
			e, ok := batch.PopFront()
			if !ok {
				break
			}
			mold := itchproto.MoldHeader{Session: g.cfg.Session, SeqNum: seqNum, MsgCount: 1}
			payload := mold.Encode(nil)
			payload = append(payload, encodeITCH(e)...)

			micros := recordMicros(e.TNsec)
			if err := w.AddRecord(e.TSec, micros, payload); err != nil {
				w.Close()
				done <- writerResult{err: err}
				return
			}
			seqNum++
			records++
		}
	}

	if err := w.Close(); err != nil {
		done <- writerResult{err: err}
		return
	}
	done <- writerResult{records: records, lastSeqNum: seqNum - 1}
}

