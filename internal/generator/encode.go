package generator

import (
	"github.com/nezhinsky/itchygen/internal/itchmodel"
	"github.com/nezhinsky/itchygen/internal/itchproto"
)

// encodeITCH renders the ITCH message bytes for one event, dispatching
// on its type. Timestamp events use event.Timestamp.Seconds; every
// other type reads its own payload.
func encodeITCH(e *itchmodel.Event) []byte {
	switch e.Type {
	case itchmodel.EventTimestamp:
		m := itchproto.Timestamp{Second: e.Timestamp.Seconds}
		return m.Encode(nil)

	case itchmodel.EventAdd:
		buySell := itchproto.Sell
		if e.Add.Buy {
			buySell = itchproto.Buy
		}
		m := itchproto.AddOrderNoMPID{
			TimestampNS: e.TNsec,
			RefNum:      e.RefNum,
			BuySell:     buySell,
			Shares:      e.Add.Shares,
			Stock:       itchproto.PackSymbol(e.Symbol.Name),
			Price:       e.Add.Price,
		}
		return m.Encode(nil)

	case itchmodel.EventExec:
		m := itchproto.OrderExecuted{
			TimestampNS: e.TNsec,
			RefNum:      e.RefNum,
			Shares:      e.Exec.Shares,
			MatchNum:    e.Exec.MatchNum,
			Printable:   itchproto.Printable,
			Price:       e.Exec.Price,
		}
		return m.Encode(nil)

	case itchmodel.EventCancel:
		m := itchproto.OrderCancel{
			TimestampNS: e.TNsec,
			RefNum:      e.RefNum,
			Shares:      e.Cancel.Shares,
		}
		return m.Encode(nil)

	case itchmodel.EventReplace:
		m := itchproto.OrderReplace{
			TimestampNS: e.TNsec,
			OrigRefNum:  e.Replace.OrigRefNum,
			NewRefNum:   e.RefNum,
			Shares:      e.Replace.Shares,
			Price:       e.Replace.Price,
		}
		return m.Encode(nil)

	default:
		return nil
	}
}

// recordMicros computes a PCAP record's microsecond field from an
// event's nanosecond component, preserving the source's undocumented
// +3us skew (spec.md §9) for bit-for-bit parity.
func recordMicros(nsec uint32) uint32 {
	return nsec/1000 + 3
}
