package pcapfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nezhinsky/itchygen/internal/itcherr"
	"github.com/nezhinsky/itchygen/internal/netframe"
	"github.com/stretchr/testify/require"
)

func testEndpoints() (dst, src netframe.Endpoint) {
	dst = netframe.Endpoint{MAC: netframe.MAC{1, 2, 3, 4, 5, 6}, IP: [4]byte{192, 168, 1, 2}, Port: 9001}
	src = netframe.Endpoint{MAC: netframe.MAC{6, 5, 4, 3, 2, 1}, IP: [4]byte{192, 168, 1, 1}, Port: 9000}
	return
}

func TestWriteReadRoundTrip(t *testing.T) {
	dst, src := testEndpoints()
	fname := filepath.Join(t.TempDir(), "a.pcap")

	w, err := Create(fname, dst, src)
	require.NoError(t, err)
	require.NoError(t, w.AddRecord(100, 200, []byte("payload-one")))
	require.NoError(t, w.AddRecord(101, 300, []byte("payload-two-longer")))
	require.NoError(t, w.Close())

	r, err := OpenRead(fname)
	require.NoError(t, err)
	defer r.Close()

	rec1, err := r.ReadRecord()
	require.NoError(t, err)
	require.Equal(t, []byte("payload-one"), rec1.Payload)
	require.Equal(t, uint32(100), rec1.TSSec)
	require.Equal(t, uint32(200), rec1.TSUsec)
	require.Equal(t, src.IP, rec1.Src.IP)
	require.Equal(t, dst.IP, rec1.Dst.IP)

	rec2, err := r.ReadRecord()
	require.NoError(t, err)
	require.Equal(t, []byte("payload-two-longer"), rec2.Payload)

	_, err = r.ReadRecord()
	require.ErrorIs(t, err, itcherr.ErrNotFound)
}

func TestReplaceLastRecordRewritesInPlace(t *testing.T) {
	dst, src := testEndpoints()
	fname := filepath.Join(t.TempDir(), "b.pcap")

	w, err := Create(fname, dst, src)
	require.NoError(t, err)
	require.NoError(t, w.AddRecord(1, 2, []byte("0123456789")))
	require.NoError(t, w.AddRecord(3, 4, []byte("unchanged-record")))
	require.NoError(t, w.Close())

	r, err := OpenRead(fname)
	require.NoError(t, err)

	_, err = r.ReadRecord()
	require.NoError(t, err)

	// Same length replacement payload required.
	require.NoError(t, r.ReplaceLastRecord(dst, src, []byte("abcdefghij")))

	_, err = r.ReadRecord()
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r2, err := OpenRead(fname)
	require.NoError(t, err)
	defer r2.Close()

	rec1, err := r2.ReadRecord()
	require.NoError(t, err)
	require.Equal(t, []byte("abcdefghij"), rec1.Payload)

	rec2, err := r2.ReadRecord()
	require.NoError(t, err)
	require.Equal(t, []byte("unchanged-record"), rec2.Payload)
}

func TestReplaceLastRecordRejectsLengthMismatch(t *testing.T) {
	dst, src := testEndpoints()
	fname := filepath.Join(t.TempDir(), "c.pcap")

	w, err := Create(fname, dst, src)
	require.NoError(t, err)
	require.NoError(t, w.AddRecord(1, 2, []byte("short")))
	require.NoError(t, w.Close())

	r, err := OpenRead(fname)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadRecord()
	require.NoError(t, err)

	err = r.ReplaceLastRecord(dst, src, []byte("a much longer replacement payload"))
	require.Error(t, err)
}

func TestOpenReadRejectsBadMagic(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "bad.pcap")
	require.NoError(t, os.WriteFile(fname, make([]byte, 24), 0o644))

	_, err := OpenRead(fname)
	require.Error(t, err)
}
