// Package parseedit implements the PCAP stream parser/editor,
// grounded on original_source/itchyparse.c: it replays a capture
// written by internal/generator, validates sequence continuity,
// classifies messages against an optional subscription symbol set,
// and optionally rewrites sequence numbers in place.
package parseedit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nezhinsky/itchygen/internal/itchmodel"
	"github.com/nezhinsky/itchygen/internal/itchproto"
	"github.com/nezhinsky/itchygen/internal/netframe"
	"github.com/nezhinsky/itchygen/internal/pcapfile"
	"github.com/nezhinsky/itchygen/internal/refhash"
)

// Stats accumulates the same counters original_source/itchyparse.c's
// struct itchyparse_info.stat tracks, split by subscribed/unsubscribed
// where the original does.
type Stats struct {
	Orders     uint64
	Execs      uint64
	Cancels    uint64
	Replaces   uint64
	Timestamps uint64

	SubscrOrders   uint64
	SubscrExecs    uint64
	SubscrCancels  uint64
	SubscrReplaces uint64

	UnsubscribedOrders uint64
	IllegalTypes       uint32
	BucketOverflows    uint32
}

// ClassificationEvent is one subscribed-symbol order decision, handed
// to an optional ClassificationSink for downstream fan-out (see
// internal/clasink).
type ClassificationEvent struct {
	SeqNum    uint64
	Type      byte
	RefNum    uint32
	Stock     string
	Subscribed bool
}

// ClassificationSink receives one ClassificationEvent per ADD order
// whose subscription status has just been determined.
type ClassificationSink interface {
	Publish(ctx context.Context, ev ClassificationEvent) error
}

// Config drives one parse/edit run, mirroring itchyparse's command
// line surface (spec.md §6).
type Config struct {
	PCAPFile string

	// SubscriptionSymbols, when non-empty, restricts classification
	// counters to orders on these symbols; refs for subscribed orders
	// are tracked in a second hash so EXEC/CANCEL/REPLACE can be
	// attributed back to their originating ADD.
	SubscriptionSymbols []itchmodel.Symbol

	ExpectFirstSeq uint64

	// EditFirst / EditRecords: when EditRecords is true, every record's
	// MoldUDP64 sequence number is rewritten starting at EditFirst,
	// preserving any gaps/jumps observed in the source stream.
	EditRecords bool
	EditFirst   uint64

	HashWidth   uint32
	Polynomials []uint32

	Verbose bool
	Debug   bool
}

// EndpointTransition records an observed change of source or
// destination endpoint partway through a capture (itchyparse.c prints
// these inline as they're seen).
type EndpointTransition struct {
	SeqNum uint64
	Src    *netframe.Endpoint
	Dst    *netframe.Endpoint
}

// Result summarizes a completed parse/edit run.
type Result struct {
	Stats       Stats
	FirstSeqNum uint64
	LastSeqNum  uint64
	SeqErrors   uint64
	RecordCount uint64

	FirstSrc, FirstDst netframe.Endpoint
	Transitions        []EndpointTransition
}

// Parser replays and classifies one PCAP capture.
type Parser struct {
	cfg    Config
	logger zerolog.Logger
	Sink   ClassificationSink
}

// New validates cfg and builds a Parser.
func New(cfg Config, logger zerolog.Logger) (*Parser, error) {
	if cfg.PCAPFile == "" {
		return nil, fmt.Errorf("parseedit: PCAPFile required")
	}
	if len(cfg.Polynomials) == 0 {
		return nil, fmt.Errorf("parseedit: at least one CRC polynomial required")
	}
	return &Parser{cfg: cfg, logger: logger}, nil
}

// symbolKey packs a symbol's first 4 significant characters into a
// uint32, the Go counterpart of the original's symbol_name_to_u32:
// both the subscription set and the per-record stock field hash to
// the same key so dhash_find can compare them directly.
func symbolKey(name string) uint32 {
	var b [4]byte
	copy(b[:], name)
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Run streams the configured PCAP file end to end, validating
// sequence numbers, classifying orders against the subscription set
// (if any), and rewriting sequence numbers in place when EditRecords
// is set.
func (p *Parser) Run(ctx context.Context) (Result, error) {
	var res Result
	var stats Stats

	refHash, err := refhash.New(p.cfg.HashWidth, p.cfg.Polynomials)
	if err != nil {
		return Result{}, err
	}

	var subscrNames, subscrRefs *refhash.Table
	subscribed := len(p.cfg.SubscriptionSymbols) > 0
	if subscribed {
		subscrNames, err = refhash.New(p.cfg.HashWidth, p.cfg.Polynomials)
		if err != nil {
			return Result{}, err
		}
		subscrRefs, err = refhash.New(p.cfg.HashWidth, p.cfg.Polynomials)
		if err != nil {
			return Result{}, err
		}
		for _, sym := range p.cfg.SubscriptionSymbols {
			subscrNames.Add(symbolKey(sym.Name))
		}
	}

	r, err := pcapfile.OpenRead(p.cfg.PCAPFile)
	if err != nil {
		return Result{}, err
	}
	defer r.Close()

	var (
		first         = true
		curSeq        uint64
		newSeq        uint64
		editRecs      = p.cfg.EditRecords
		lastRecSeq    uint64
		firstSeenSeq  uint64
		recordCount   uint64
		lastSrc, lastDst netframe.Endpoint
	)

	for {
		rec, err := r.ReadRecord()
		if err != nil {
			break
		}
		recordCount++

		mold, n, err := itchproto.DecodeMoldHeader(rec.Payload)
		if err != nil {
			return Result{}, fmt.Errorf("parseedit: bad mold header: %w", err)
		}
		body := rec.Payload[n:]

		recSeq := mold.SeqNum
		lastRecSeq = recSeq

		if first {
			first = false
			res.FirstSrc, lastSrc = rec.Src, rec.Src
			res.FirstDst, lastDst = rec.Dst, rec.Dst
			firstSeenSeq = recSeq
			curSeq = p.cfg.ExpectFirstSeq
			if curSeq == 0 {
				curSeq = firstSeenSeq
			}
			if editRecs {
				if p.cfg.EditFirst != firstSeenSeq {
					newSeq = p.cfg.EditFirst
				} else {
					editRecs = false
				}
			}
		}

		if rec.Src != lastSrc {
			res.Transitions = append(res.Transitions, EndpointTransition{SeqNum: recSeq, Src: &rec.Src})
			lastSrc = rec.Src
		}
		if rec.Dst != lastDst {
			res.Transitions = append(res.Transitions, EndpointTransition{SeqNum: recSeq, Dst: &rec.Dst})
			lastDst = rec.Dst
		}

		if recSeq != curSeq {
			if editRecs {
				if recSeq > curSeq {
					newSeq += recSeq - curSeq
				} else {
					newSeq -= curSeq - recSeq
				}
			}
			curSeq = recSeq
			res.SeqErrors++
		}
		curSeq++

		decoded, _, derr := itchproto.Decode(body)
		if derr != nil {
			stats.IllegalTypes++
		} else {
			p.classify(ctx, &decoded, recSeq, &stats, refHash, subscrNames, subscrRefs, subscribed)
		}

		if editRecs {
			mold.SeqNum = newSeq
			newSeq++
			newPayload := mold.Encode(nil)
			newPayload = append(newPayload, body...)
			if err := r.ReplaceLastRecord(rec.Dst, rec.Src, newPayload); err != nil {
				return Result{}, fmt.Errorf("parseedit: rewrite failed: %w", err)
			}
		}
	}

	res.Stats = stats
	res.FirstSeqNum = firstSeenSeq
	res.LastSeqNum = lastRecSeq
	res.RecordCount = recordCount
	return res, nil
}

// classify updates stats for one decoded message and, for ADD orders,
// records subscription status and (if Sink is set) publishes a
// ClassificationEvent.
func (p *Parser) classify(
	ctx context.Context,
	d *itchproto.Decoded,
	seqNum uint64,
	stats *Stats,
	refHash, subscrNames, subscrRefs *refhash.Table,
	subscribed bool,
) {
	switch {
	case d.Add != nil:
		stats.Orders++
		refn := uint32(d.Add.RefNum)

		switch refHash.Add(refn) {
		case refhash.AddBucketOverflow:
			stats.BucketOverflows++
		case refhash.AddTableFull:
			p.logger.Error().Msg("ref hash table full")
		}

		isSubscribed := false
		stock := itchproto.UnpackSymbol(d.Add.Stock)
		if subscribed {
			if subscrNames.Find(symbolKey(stock)) {
				stats.SubscrOrders++
				subscrRefs.Add(refn)
				isSubscribed = true
				if p.cfg.Debug {
					p.logger.Debug().Str("stock", stock).Uint32("ref_num", refn).Msg("subscribed order")
				}
			} else {
				stats.UnsubscribedOrders++
			}
		} else {
			stats.UnsubscribedOrders++
		}

		if p.Sink != nil {
			_ = p.Sink.Publish(ctx, ClassificationEvent{
				SeqNum: seqNum, Type: itchproto.MsgAddOrderNoMPID, RefNum: refn,
				Stock: stock, Subscribed: isSubscribed,
			})
		}

	case d.Exec != nil:
		stats.Execs++
		if subscribed && subscrRefs.Find(uint32(d.Exec.RefNum)) {
			stats.SubscrExecs++
		}

	case d.Cancel != nil:
		stats.Cancels++
		if subscribed && subscrRefs.Find(uint32(d.Cancel.RefNum)) {
			stats.SubscrCancels++
		}

	case d.Replace != nil:
		stats.Replaces++
		if subscribed && subscrRefs.Find(uint32(d.Replace.OrigRefNum)) {
			stats.SubscrReplaces++
		}

	case d.Timestamp != nil:
		stats.Timestamps++
	}
}
