package crcpoly

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableMatchesBitwiseReference(t *testing.T) {
	polys := DefaultPolynomials()
	inputs := []uint32{0, 1, 0x41424344, 0xffffffff, 0xdeadbeef, 0x00010203}

	for _, poly := range polys {
		tbl, err := New(poly, 20)
		require.NoError(t, err)

		for _, in := range inputs {
			got := tbl.Uint32(in)
			want := tbl.Uint32Bitwise(in)
			require.Equalf(t, want, got, "poly=%#x input=%#x", poly, in)
			require.Less(t, got, uint32(1<<20))
		}
	}
}

func TestNewRejectsBadWidth(t *testing.T) {
	_, err := New(0x182671, 0)
	require.Error(t, err)

	_, err = New(0x182671, 33)
	require.Error(t, err)
}

func TestWidth20Poly(t *testing.T) {
	tbl, err := New(0x182671, 20)
	require.NoError(t, err)
	require.EqualValues(t, 20, tbl.Width())

	got := tbl.Uint32(0x41424344)
	require.Equal(t, tbl.Uint32Bitwise(0x41424344), got)
	require.Less(t, got, uint32(1<<20))
}

func TestDeterministicAcrossCalls(t *testing.T) {
	tbl, err := New(0x11522b, 20)
	require.NoError(t, err)

	first := tbl.Uint32(0xcafebabe)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, tbl.Uint32(0xcafebabe))
	}
}
