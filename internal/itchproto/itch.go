// Package itchproto implements the wire-exact ITCH message layouts
// and MoldUDP64 framing header from spec.md §4.6, grounded on
// original_source/itch_proto.h's packed C structs. Every integer is
// big-endian; fields are byte-aligned with no padding, so encoding
// uses explicit byte-level serialization (encoding/binary) rather than
// relying on Go struct layout, per spec.md §9's design note on packed
// wire structs.
package itchproto

import (
	"encoding/binary"
	"fmt"
)

// Message type discriminants (itch_proto.h's MSG_TYPE_* constants).
const (
	MsgTimestamp       byte = 'T'
	MsgAddOrderNoMPID  byte = 'A'
	MsgAddOrderWithMPID byte = 'F'
	MsgOrderExecuted   byte = 'C'
	MsgOrderCancel     byte = 'X'
	MsgOrderDelete     byte = 'D'
	MsgOrderReplace    byte = 'U'
	MsgTradingAction   byte = 'H'
)

// Buy/sell discriminants.
const (
	Buy  byte = 'B'
	Sell byte = 'S'
)

// Printable discriminant for OrderExecuted.
const (
	Printable    byte = 'Y'
	NonPrintable byte = 'N'
)

// Trading-state discriminants for StockTradingAction.
const (
	TradingStateHalted    byte = 'H'
	TradingStatePaused    byte = 'P'
	TradingStateQuoteOnly byte = 'Q'
	TradingStateTrading   byte = 'T'
)

// SymbolLen is the fixed width of an ITCH stock symbol field.
const SymbolLen = 8

// PackSymbol zero-pads (NUL-pads) name to SymbolLen bytes, per
// spec.md §9's preserved "earlier revision" behavior: later revisions
// left undefined bytes beyond a short name via a raw memcpy, but this
// implementation always zero-pads for determinism.
func PackSymbol(name string) [SymbolLen]byte {
	var b [SymbolLen]byte
	copy(b[:], name)
	return b
}

// UnpackSymbol trims trailing NUL and space bytes from a wire symbol
// field.
func UnpackSymbol(b [SymbolLen]byte) string {
	end := SymbolLen
	for end > 0 && (b[end-1] == 0 || b[end-1] == ' ') {
		end--
	}
	return string(b[:end])
}

// MoldHeader is the MoldUDP64 framing header: a 10-byte session
// string, a 64-bit big-endian sequence number, and a 16-bit big-endian
// message count.
type MoldHeader struct {
	Session  [10]byte
	SeqNum   uint64
	MsgCount uint16
}

// MoldHeaderLen is the encoded size of a MoldHeader.
const MoldHeaderLen = 10 + 8 + 2

// Encode appends the wire bytes of h to buf and returns the result.
func (h MoldHeader) Encode(buf []byte) []byte {
	buf = append(buf, h.Session[:]...)
	buf = binary.BigEndian.AppendUint64(buf, h.SeqNum)
	buf = binary.BigEndian.AppendUint16(buf, h.MsgCount)
	return buf
}

// DecodeMoldHeader parses a MoldHeader from the front of buf and
// returns it along with the number of bytes consumed.
func DecodeMoldHeader(buf []byte) (MoldHeader, int, error) {
	var h MoldHeader
	if len(buf) < MoldHeaderLen {
		return h, 0, fmt.Errorf("itchproto: short buffer for mold header: %d bytes", len(buf))
	}
	copy(h.Session[:], buf[0:10])
	h.SeqNum = binary.BigEndian.Uint64(buf[10:18])
	h.MsgCount = binary.BigEndian.Uint16(buf[18:20])
	return h, MoldHeaderLen, nil
}

// Timestamp is the 'T' message: 4-byte seconds.
type Timestamp struct {
	Second uint32
}

func (m Timestamp) Encode(buf []byte) []byte {
	buf = append(buf, MsgTimestamp)
	return binary.BigEndian.AppendUint32(buf, m.Second)
}

// AddOrderNoMPID is the 'A' message.
type AddOrderNoMPID struct {
	TimestampNS uint32
	RefNum      uint64
	BuySell     byte
	Shares      uint32
	Stock       [SymbolLen]byte
	Price       uint32
}

func (m AddOrderNoMPID) Encode(buf []byte) []byte {
	buf = append(buf, MsgAddOrderNoMPID)
	buf = binary.BigEndian.AppendUint32(buf, m.TimestampNS)
	buf = binary.BigEndian.AppendUint64(buf, m.RefNum)
	buf = append(buf, m.BuySell)
	buf = binary.BigEndian.AppendUint32(buf, m.Shares)
	buf = append(buf, m.Stock[:]...)
	buf = binary.BigEndian.AppendUint32(buf, m.Price)
	return buf
}

// AddOrderWithMPID is the 'F' message. The generator never emits it;
// a parser must still decode it.
type AddOrderWithMPID struct {
	TimestampNS uint32
	RefNum      uint64
	BuySell     byte
	Shares      uint32
	Stock       [SymbolLen]byte
	Price       uint32
	Attribution [4]byte
}

func (m AddOrderWithMPID) Encode(buf []byte) []byte {
	buf = append(buf, MsgAddOrderWithMPID)
	buf = binary.BigEndian.AppendUint32(buf, m.TimestampNS)
	buf = binary.BigEndian.AppendUint64(buf, m.RefNum)
	buf = append(buf, m.BuySell)
	buf = binary.BigEndian.AppendUint32(buf, m.Shares)
	buf = append(buf, m.Stock[:]...)
	buf = binary.BigEndian.AppendUint32(buf, m.Price)
	buf = append(buf, m.Attribution[:]...)
	return buf
}

// OrderExecuted is the 'C' message.
type OrderExecuted struct {
	TimestampNS uint32
	RefNum      uint64
	Shares      uint32
	MatchNum    uint64
	Printable   byte
	Price       uint32
}

func (m OrderExecuted) Encode(buf []byte) []byte {
	buf = append(buf, MsgOrderExecuted)
	buf = binary.BigEndian.AppendUint32(buf, m.TimestampNS)
	buf = binary.BigEndian.AppendUint64(buf, m.RefNum)
	buf = binary.BigEndian.AppendUint32(buf, m.Shares)
	buf = binary.BigEndian.AppendUint64(buf, m.MatchNum)
	buf = append(buf, m.Printable)
	buf = binary.BigEndian.AppendUint32(buf, m.Price)
	return buf
}

// OrderCancel is the 'X' message.
type OrderCancel struct {
	TimestampNS uint32
	RefNum      uint64
	Shares      uint32
}

func (m OrderCancel) Encode(buf []byte) []byte {
	buf = append(buf, MsgOrderCancel)
	buf = binary.BigEndian.AppendUint32(buf, m.TimestampNS)
	buf = binary.BigEndian.AppendUint64(buf, m.RefNum)
	buf = binary.BigEndian.AppendUint32(buf, m.Shares)
	return buf
}

// OrderDelete is the 'D' message. The generator never emits it; a
// parser must still decode it.
type OrderDelete struct {
	TimestampNS uint32
	RefNum      uint64
}

func (m OrderDelete) Encode(buf []byte) []byte {
	buf = append(buf, MsgOrderDelete)
	buf = binary.BigEndian.AppendUint32(buf, m.TimestampNS)
	buf = binary.BigEndian.AppendUint64(buf, m.RefNum)
	return buf
}

// OrderReplace is the 'U' message.
type OrderReplace struct {
	TimestampNS uint32
	OrigRefNum  uint64
	NewRefNum   uint64
	Shares      uint32
	Price       uint32
}

func (m OrderReplace) Encode(buf []byte) []byte {
	buf = append(buf, MsgOrderReplace)
	buf = binary.BigEndian.AppendUint32(buf, m.TimestampNS)
	buf = binary.BigEndian.AppendUint64(buf, m.OrigRefNum)
	buf = binary.BigEndian.AppendUint64(buf, m.NewRefNum)
	buf = binary.BigEndian.AppendUint32(buf, m.Shares)
	buf = binary.BigEndian.AppendUint32(buf, m.Price)
	return buf
}

// StockTradingAction is the 'H' message. Neither emitted nor required
// by the generator/parser in scope, but decoded for completeness
// since it shares the common header shape.
type StockTradingAction struct {
	TimestampNS  uint32
	Stock        [SymbolLen]byte
	TradingState byte
	Reserved     byte
	Reason       [4]byte
}

func (m StockTradingAction) Encode(buf []byte) []byte {
	buf = append(buf, MsgTradingAction)
	buf = binary.BigEndian.AppendUint32(buf, m.TimestampNS)
	buf = append(buf, m.Stock[:]...)
	buf = append(buf, m.TradingState, m.Reserved)
	buf = append(buf, m.Reason[:]...)
	return buf
}

// Decoded is the result of decoding one ITCH message: exactly one of
// its typed fields is non-nil, selected by Type.
type Decoded struct {
	Type byte

	Timestamp *Timestamp
	Add       *AddOrderNoMPID
	AddMPID   *AddOrderWithMPID
	Exec      *OrderExecuted
	Cancel    *OrderCancel
	Delete    *OrderDelete
	Replace   *OrderReplace
	Trading   *StockTradingAction
}

// Decode parses one ITCH message from the front of buf, dispatching
// on the leading type byte. Unknown types return an error so the
// caller (the parser) can count them as illegal without crashing.
func Decode(buf []byte) (Decoded, int, error) {
	if len(buf) < 1 {
		return Decoded{}, 0, fmt.Errorf("itchproto: empty buffer")
	}
	typ := buf[0]
	body := buf[1:]

	switch typ {
	case MsgTimestamp:
		if len(body) < 4 {
			return Decoded{}, 0, shortBuf(typ)
		}
		return Decoded{Type: typ, Timestamp: &Timestamp{
			Second: binary.BigEndian.Uint32(body[0:4]),
		}}, 1 + 4, nil

	case MsgAddOrderNoMPID:
		const n = 4 + 8 + 1 + 4 + SymbolLen + 4
		if len(body) < n {
			return Decoded{}, 0, shortBuf(typ)
		}
		m := &AddOrderNoMPID{
			TimestampNS: binary.BigEndian.Uint32(body[0:4]),
			RefNum:      binary.BigEndian.Uint64(body[4:12]),
			BuySell:     body[12],
			Shares:      binary.BigEndian.Uint32(body[13:17]),
		}
		copy(m.Stock[:], body[17:17+SymbolLen])
		m.Price = binary.BigEndian.Uint32(body[17+SymbolLen : 21+SymbolLen])
		return Decoded{Type: typ, Add: m}, 1 + n, nil

	case MsgAddOrderWithMPID:
		const n = 4 + 8 + 1 + 4 + SymbolLen + 4 + 4
		if len(body) < n {
			return Decoded{}, 0, shortBuf(typ)
		}
		m := &AddOrderWithMPID{
			TimestampNS: binary.BigEndian.Uint32(body[0:4]),
			RefNum:      binary.BigEndian.Uint64(body[4:12]),
			BuySell:     body[12],
			Shares:      binary.BigEndian.Uint32(body[13:17]),
		}
		copy(m.Stock[:], body[17:17+SymbolLen])
		m.Price = binary.BigEndian.Uint32(body[17+SymbolLen : 21+SymbolLen])
		copy(m.Attribution[:], body[21+SymbolLen:25+SymbolLen])
		return Decoded{Type: typ, AddMPID: m}, 1 + n, nil

	case MsgOrderExecuted:
		const n = 4 + 8 + 4 + 8 + 1 + 4
		if len(body) < n {
			return Decoded{}, 0, shortBuf(typ)
		}
		m := &OrderExecuted{
			TimestampNS: binary.BigEndian.Uint32(body[0:4]),
			RefNum:      binary.BigEndian.Uint64(body[4:12]),
			Shares:      binary.BigEndian.Uint32(body[12:16]),
			MatchNum:    binary.BigEndian.Uint64(body[16:24]),
			Printable:   body[24],
			Price:       binary.BigEndian.Uint32(body[25:29]),
		}
		return Decoded{Type: typ, Exec: m}, 1 + n, nil

	case MsgOrderCancel:
		const n = 4 + 8 + 4
		if len(body) < n {
			return Decoded{}, 0, shortBuf(typ)
		}
		m := &OrderCancel{
			TimestampNS: binary.BigEndian.Uint32(body[0:4]),
			RefNum:      binary.BigEndian.Uint64(body[4:12]),
			Shares:      binary.BigEndian.Uint32(body[12:16]),
		}
		return Decoded{Type: typ, Cancel: m}, 1 + n, nil

	case MsgOrderDelete:
		const n = 4 + 8
		if len(body) < n {
			return Decoded{}, 0, shortBuf(typ)
		}
		m := &OrderDelete{
			TimestampNS: binary.BigEndian.Uint32(body[0:4]),
			RefNum:      binary.BigEndian.Uint64(body[4:12]),
		}
		return Decoded{Type: typ, Delete: m}, 1 + n, nil

	case MsgOrderReplace:
		const n = 4 + 8 + 8 + 4 + 4
		if len(body) < n {
			return Decoded{}, 0, shortBuf(typ)
		}
		m := &OrderReplace{
			TimestampNS: binary.BigEndian.Uint32(body[0:4]),
			OrigRefNum:  binary.BigEndian.Uint64(body[4:12]),
			NewRefNum:   binary.BigEndian.Uint64(body[12:20]),
			Shares:      binary.BigEndian.Uint32(body[20:24]),
			Price:       binary.BigEndian.Uint32(body[24:28]),
		}
		return Decoded{Type: typ, Replace: m}, 1 + n, nil

	case MsgTradingAction:
		const n = 4 + SymbolLen + 1 + 1 + 4
		if len(body) < n {
			return Decoded{}, 0, shortBuf(typ)
		}
		m := &StockTradingAction{
			TimestampNS: binary.BigEndian.Uint32(body[0:4]),
		}
		copy(m.Stock[:], body[4:4+SymbolLen])
		m.TradingState = body[4+SymbolLen]
		m.Reserved = body[5+SymbolLen]
		copy(m.Reason[:], body[6+SymbolLen:10+SymbolLen])
		return Decoded{Type: typ, Trading: m}, 1 + n, nil

	default:
		return Decoded{Type: typ}, 0, fmt.Errorf("itchproto: unknown message type %q", typ)
	}
}

func shortBuf(typ byte) error {
	return fmt.Errorf("itchproto: short buffer decoding message type %q", typ)
}
