package itchproto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpackSymbolRoundTrip(t *testing.T) {
	b := PackSymbol("IBM")
	require.Equal(t, "IBM", UnpackSymbol(b))
	require.Equal(t, byte(0), b[3])
}

func TestMoldHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := MoldHeader{SeqNum: 12345, MsgCount: 1}
	copy(h.Session[:], "sessionabc")

	buf := h.Encode(nil)
	require.Len(t, buf, MoldHeaderLen)

	got, n, err := DecodeMoldHeader(buf)
	require.NoError(t, err)
	require.Equal(t, MoldHeaderLen, n)
	require.Equal(t, h, got)
}

func TestDecodeMoldHeaderShortBuffer(t *testing.T) {
	_, _, err := DecodeMoldHeader(make([]byte, 5))
	require.Error(t, err)
}

func TestAddOrderNoMPIDRoundTrip(t *testing.T) {
	m := AddOrderNoMPID{
		TimestampNS: 123456,
		RefNum:      99,
		BuySell:     Buy,
		Shares:      500,
		Stock:       PackSymbol("AAPL"),
		Price:       150000,
	}
	buf := m.Encode(nil)

	d, n, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, MsgAddOrderNoMPID, d.Type)
	require.NotNil(t, d.Add)
	require.Equal(t, m, *d.Add)
}

func TestOrderExecutedRoundTrip(t *testing.T) {
	m := OrderExecuted{
		TimestampNS: 1,
		RefNum:      2,
		Shares:      3,
		MatchNum:    4,
		Printable:   Printable,
		Price:       5,
	}
	buf := m.Encode(nil)
	d, _, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, m, *d.Exec)
}

func TestOrderCancelRoundTrip(t *testing.T) {
	m := OrderCancel{TimestampNS: 1, RefNum: 2, Shares: 3}
	buf := m.Encode(nil)
	d, _, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, m, *d.Cancel)
}

func TestOrderReplaceRoundTrip(t *testing.T) {
	m := OrderReplace{TimestampNS: 1, OrigRefNum: 2, NewRefNum: 3, Shares: 4, Price: 5}
	buf := m.Encode(nil)
	d, _, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, m, *d.Replace)
}

func TestOrderDeleteAndAddWithMPIDDecodeForCompleteness(t *testing.T) {
	del := OrderDelete{TimestampNS: 7, RefNum: 8}
	d, _, err := Decode(del.Encode(nil))
	require.NoError(t, err)
	require.Equal(t, del, *d.Delete)

	mpid := AddOrderWithMPID{
		TimestampNS: 1, RefNum: 2, BuySell: Sell, Shares: 3,
		Stock: PackSymbol("MSFT"), Price: 4, Attribution: [4]byte{'N', 'S', 'D', 'Q'},
	}
	d2, _, err := Decode(mpid.Encode(nil))
	require.NoError(t, err)
	require.Equal(t, mpid, *d2.AddMPID)
}

func TestTimestampRoundTrip(t *testing.T) {
	m := Timestamp{Second: 34200}
	d, n, err := Decode(m.Encode(nil))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, m, *d.Timestamp)
}

func TestDecodeUnknownTypeErrors(t *testing.T) {
	_, _, err := Decode([]byte{'Z', 1, 2, 3})
	require.Error(t, err)
}

func TestDecodeShortBufferErrors(t *testing.T) {
	_, _, err := Decode([]byte{MsgAddOrderNoMPID, 1, 2})
	require.Error(t, err)
}

func TestStockTradingActionRoundTrip(t *testing.T) {
	m := StockTradingAction{
		TimestampNS:  1,
		Stock:        PackSymbol("GOOG"),
		TradingState: TradingStateTrading,
		Reserved:     0,
		Reason:       [4]byte{' ', ' ', ' ', ' '},
	}
	buf := m.Encode(nil)
	d, _, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, m, *d.Trading)
}
