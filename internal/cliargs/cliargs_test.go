package cliargs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIntRangeAccepts(t *testing.T) {
	v, err := ParseIntRange("50", 1, 100)
	require.NoError(t, err)
	require.EqualValues(t, 50, v)
}

func TestParseIntRangeRejectsOutOfRange(t *testing.T) {
	_, err := ParseIntRange("101", 1, 100)
	require.Error(t, err)
	_, err = ParseIntRange("0", 1, 100)
	require.Error(t, err)
}

func TestParseIntRangeRejectsGarbage(t *testing.T) {
	_, err := ParseIntRange("abc", 1, 100)
	require.Error(t, err)
}

func TestParseIntGT(t *testing.T) {
	_, err := ParseIntGT("5", 5)
	require.Error(t, err)
	v, err := ParseIntGT("6", 5)
	require.NoError(t, err)
	require.EqualValues(t, 6, v)
}

func TestParseUint32Range(t *testing.T) {
	v, err := ParseUint32Range("4000000000", 0, 4294967295)
	require.NoError(t, err)
	require.EqualValues(t, 4000000000, v)
}

func TestParseMACAccepts(t *testing.T) {
	mac, err := ParseMAC("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	require.Equal(t, [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, [6]byte(mac))
}

func TestParseMACRejectsGarbage(t *testing.T) {
	_, err := ParseMAC("not-a-mac")
	require.Error(t, err)
}

func TestParseIPv4Accepts(t *testing.T) {
	ip, err := ParseIPv4("10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, [4]byte{10, 0, 0, 1}, ip)
}

func TestParseIPv4RejectsIPv6(t *testing.T) {
	_, err := ParseIPv4("::1")
	require.Error(t, err)
}

func TestParsePortRange(t *testing.T) {
	_, err := ParsePort("80")
	require.Error(t, err)

	v, err := ParsePort("8080")
	require.NoError(t, err)
	require.EqualValues(t, 8080, v)
}
