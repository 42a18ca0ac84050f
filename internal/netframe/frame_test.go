package netframe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testEndpoints() (dst, src Endpoint) {
	dst = Endpoint{MAC: MAC{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}, IP: [4]byte{10, 0, 0, 2}, Port: 9001}
	src = Endpoint{MAC: MAC{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb}, IP: [4]byte{10, 0, 0, 1}, Port: 9000}
	return
}

func TestBuildParseRoundTrip(t *testing.T) {
	dst, src := testEndpoints()
	payload := []byte("sessionabc0123456789abcdefgh")

	frame := BuildUDPFrame(dst, src, payload)
	require.Len(t, frame, HeaderLen+len(payload))

	parsed, err := ParseUDPFrame(frame)
	require.NoError(t, err)
	require.Equal(t, payload, parsed.Payload)
	require.Equal(t, src.IP, parsed.Src.IP)
	require.Equal(t, dst.IP, parsed.Dst.IP)
	require.Equal(t, src.Port, parsed.Src.Port)
	require.Equal(t, dst.Port, parsed.Dst.Port)
}

func TestIPHeaderChecksumIsZeroWhenSummed(t *testing.T) {
	dst, src := testEndpoints()
	frame := BuildUDPFrame(dst, src, []byte("x"))

	ipHeader := frame[etherHeaderLen : etherHeaderLen+ipHeaderLen]
	sum := checksumStep(0, ipHeader)
	// Summing a header that includes its own correct checksum field
	// folds to all-ones (0xffff) under one's-complement arithmetic.
	for sum>>16 != 0 {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	require.EqualValues(t, 0xffff, sum)
}

func TestChecksumFinalKnownValue(t *testing.T) {
	// Two 16-bit words 0x0001 and 0xf203 sum to 0xf204; one's
	// complement is 0x0dfb.
	sum := checksumStep(0, []byte{0x00, 0x01, 0xf2, 0x03})
	require.EqualValues(t, 0x0dfb, checksumFinal(sum))
}

func TestParseUDPFrameRejectsShortBuffer(t *testing.T) {
	_, err := ParseUDPFrame(make([]byte, 10))
	require.Error(t, err)
}

func TestBuildUDPFrameOddLengthPayload(t *testing.T) {
	dst, src := testEndpoints()
	payload := []byte{1, 2, 3}
	frame := BuildUDPFrame(dst, src, payload)
	parsed, err := ParseUDPFrame(frame)
	require.NoError(t, err)
	require.Equal(t, payload, parsed.Payload)
}
