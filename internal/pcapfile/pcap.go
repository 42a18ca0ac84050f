// Package pcapfile reads and writes classic PCAP capture files whose
// records hold one Ethernet/IPv4/UDP frame each, grounded on
// original_source/pcap.c/.h. The original's single global FILE*
// becomes explicit Writer/Reader state (spec.md §9's design note on
// making the codec's file handle testable and composable), and the
// read side (open-for-read/read_record/replace_last_record), absent
// from the write-only original_source/pcap.c snippet but required by
// original_source/itchyparse.c's usage and spec.md §4.6, is built
// from that usage and from spec.md's description directly.
package pcapfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/nezhinsky/itchygen/internal/itcherr"
	"github.com/nezhinsky/itchygen/internal/netframe"
)

const (
	magicOrig     = 0xa1b2c3d4
	verMajor      = 2
	verMinor      = 4
	snapLen       = 65535
	linkTypeEth   = 1
	globalHdrLen  = 24
	recordHdrLen  = 16
)

// globalHeader is the 24-byte classic PCAP file header.
type globalHeader struct {
	Magic        uint32
	VersionMajor uint16
	VersionMinor uint16
	ThisZone     int32
	SigFigs      uint32
	SnapLen      uint32
	Network      uint32
}

func (h globalHeader) encode() []byte {
	buf := make([]byte, globalHdrLen)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.VersionMajor)
	binary.LittleEndian.PutUint16(buf[6:8], h.VersionMinor)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.ThisZone))
	binary.LittleEndian.PutUint32(buf[12:16], h.SigFigs)
	binary.LittleEndian.PutUint32(buf[16:20], h.SnapLen)
	binary.LittleEndian.PutUint32(buf[20:24], h.Network)
	return buf
}

func decodeGlobalHeader(buf []byte) (globalHeader, error) {
	var h globalHeader
	if len(buf) < globalHdrLen {
		return h, fmt.Errorf("pcapfile: short global header")
	}
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	h.VersionMajor = binary.LittleEndian.Uint16(buf[4:6])
	h.VersionMinor = binary.LittleEndian.Uint16(buf[6:8])
	h.ThisZone = int32(binary.LittleEndian.Uint32(buf[8:12]))
	h.SigFigs = binary.LittleEndian.Uint32(buf[12:16])
	h.SnapLen = binary.LittleEndian.Uint32(buf[16:20])
	h.Network = binary.LittleEndian.Uint32(buf[20:24])
	if h.Magic != magicOrig {
		return h, fmt.Errorf("pcapfile: unsupported magic 0x%x", h.Magic)
	}
	return h, nil
}

// recordHeader is the 16-byte classic PCAP per-packet header.
type recordHeader struct {
	TSSec   uint32
	TSUsec  uint32
	InclLen uint32
	OrigLen uint32
}

func (h recordHeader) encode() []byte {
	buf := make([]byte, recordHdrLen)
	binary.LittleEndian.PutUint32(buf[0:4], h.TSSec)
	binary.LittleEndian.PutUint32(buf[4:8], h.TSUsec)
	binary.LittleEndian.PutUint32(buf[8:12], h.InclLen)
	binary.LittleEndian.PutUint32(buf[12:16], h.OrigLen)
	return buf
}

func decodeRecordHeader(buf []byte) recordHeader {
	return recordHeader{
		TSSec:   binary.LittleEndian.Uint32(buf[0:4]),
		TSUsec:  binary.LittleEndian.Uint32(buf[4:8]),
		InclLen: binary.LittleEndian.Uint32(buf[8:12]),
		OrigLen: binary.LittleEndian.Uint32(buf[12:16]),
	}
}

// Writer creates a PCAP file and appends one Ethernet/IPv4/UDP record
// per call to AddRecord.
type Writer struct {
	f        *os.File
	dst, src netframe.Endpoint
}

// Create opens fname for writing, truncating any existing file, and
// writes the classic PCAP global header. Every record this Writer
// appends wraps its payload in an Ethernet/IPv4/UDP frame between dst
// and src.
func Create(fname string, dst, src netframe.Endpoint) (*Writer, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}
	h := globalHeader{
		Magic:        magicOrig,
		VersionMajor: verMajor,
		VersionMinor: verMinor,
		SnapLen:      snapLen,
		Network:      linkTypeEth,
	}
	if _, err := f.Write(h.encode()); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}
	return &Writer{f: f, dst: dst, src: src}, nil
}

// AddRecord wraps payload in an Ethernet/IPv4/UDP frame and appends a
// PCAP record with the given timestamp.
func (w *Writer) AddRecord(tsec, tusec uint32, payload []byte) error {
	frame := netframe.BuildUDPFrame(w.dst, w.src, payload)
	rh := recordHeader{
		TSSec:   tsec,
		TSUsec:  tusec,
		InclLen: uint32(len(frame)),
		OrigLen: uint32(len(frame)),
	}
	if _, err := w.f.Write(rh.encode()); err != nil {
		return fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}
	if _, err := w.f.Write(frame); err != nil {
		return fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}

// Record is one decoded PCAP record: its length, timestamp, and the
// observed UDP endpoints.
type Record struct {
	Len     int
	TSSec   uint32
	TSUsec  uint32
	Payload []byte
	Dst     netframe.Endpoint
	Src     netframe.Endpoint
}

// Reader streams records from a PCAP file opened for read, tracking
// the previous record's file offset and length so ReplaceLastRecord
// can seek back and rewrite it in place.
type Reader struct {
	f *os.File

	lastRecordOff int64
	lastFrameLen  int
	haveLast      bool
}

// OpenRead opens fname for reading and skips the global header. The
// file is opened O_RDWR rather than O_RDONLY since ReplaceLastRecord
// rewrites records in place on this same handle.
func OpenRead(fname string) (*Reader, error) {
	f, err := os.OpenFile(fname, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}
	hdrBuf := make([]byte, globalHdrLen)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}
	if _, err := decodeGlobalHeader(hdrBuf); err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{f: f}, nil
}

// ReadRecord reads the next record, parsing its Ethernet/IPv4/UDP
// frame and returning the UDP payload length and observed endpoints.
// It returns itcherr.ErrNotFound at a clean EOF between records, and
// itcherr.ErrIO on any other read failure.
func (r *Reader) ReadRecord() (Record, error) {
	recordOff, err := r.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}

	rhBuf := make([]byte, recordHdrLen)
	if _, err := io.ReadFull(r.f, rhBuf); err != nil {
		if err == io.EOF {
			return Record{}, itcherr.ErrNotFound
		}
		return Record{}, fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}
	rh := decodeRecordHeader(rhBuf)

	frame := make([]byte, rh.InclLen)
	if _, err := io.ReadFull(r.f, frame); err != nil {
		return Record{}, fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}

	pf, err := netframe.ParseUDPFrame(frame)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", itcherr.ErrProtocolViolation, err)
	}

	r.lastRecordOff = recordOff
	r.lastFrameLen = len(frame)
	r.haveLast = true

	return Record{
		Len:     len(pf.Payload),
		TSSec:   rh.TSSec,
		TSUsec:  rh.TSUsec,
		Payload: pf.Payload,
		Dst:     pf.Dst,
		Src:     pf.Src,
	}, nil
}

// ReplaceLastRecord rebuilds the Ethernet/IPv4/UDP frame around the
// given payload between the given dst and src endpoints (recomputing
// checksums), and rewrites the frame of the record last returned by
// ReadRecord in place, keeping that record's header and timestamp. The frame length must match the original exactly, since
// PCAP records are not resizable in place.
func (r *Reader) ReplaceLastRecord(dst, src netframe.Endpoint, payload []byte) error {
	if !r.haveLast {
		return fmt.Errorf("pcapfile: ReplaceLastRecord called before any ReadRecord")
	}
	frame := netframe.BuildUDPFrame(dst, src, payload)
	if len(frame) != r.lastFrameLen {
		return fmt.Errorf("pcapfile: replacement frame length %d != original %d", len(frame), r.lastFrameLen)
	}

	savedOff, err := r.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}

	if _, err := r.f.Seek(r.lastRecordOff+recordHdrLen, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}
	if _, err := r.f.Write(frame); err != nil {
		return fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}
	if _, err := r.f.Seek(savedOff, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", itcherr.ErrIO, err)
	}
	return nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
