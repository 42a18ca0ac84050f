// Package crcpoly implements table-driven CRC computation over an
// arbitrary polynomial and width, used by internal/refhash to derive
// bucket indices.
package crcpoly

import "fmt"

const machineWidth = 32

// Table is a CRC remainder table built for a single (polynomial, width)
// pair. The zero value is not usable; construct with New.
type Table struct {
	poly     uint32
	polyDiv  uint32
	topBit   uint32
	width    uint32
	shiftLen uint32
	table    [256]uint32
}

// New builds a 256-entry byte-wise remainder table for the given
// polynomial and width. Width must be in [1, 32].
func New(polynomial uint32, width uint32) (*Table, error) {
	if width == 0 || width > machineWidth {
		return nil, fmt.Errorf("crcpoly: width %d out of range [1,%d]", width, machineWidth)
	}

	t := &Table{
		poly:     polynomial,
		width:    width,
		shiftLen: machineWidth - width,
		topBit:   1 << (width - 1),
	}
	t.polyDiv = polynomial << (t.shiftLen)

	const msBit = uint32(1) << (machineWidth - 1)
	for dividend := uint32(0); dividend < 256; dividend++ {
		remainder := dividend << (machineWidth - 8)
		for bit := 0; bit < 8; bit++ {
			if remainder&msBit != 0 {
				remainder = (remainder << 1) ^ t.polyDiv
			} else {
				remainder <<= 1
			}
		}
		t.table[dividend] = remainder
	}
	return t, nil
}

// Width returns the CRC width in bits this table was built for.
func (t *Table) Width() uint32 { return t.width }

func (t *Table) stepByte(remainder uint32, b byte) uint32 {
	dividend := b ^ byte(remainder>>(machineWidth-8))
	return t.table[dividend] ^ (remainder << 8)
}

// Uint32 folds the four bytes of a 32-bit key MSB-first through the
// table and returns the CRC in [0, 2^width).
func (t *Table) Uint32(data uint32) uint32 {
	var remainder uint32
	remainder = t.stepByte(remainder, byte(data>>24))
	remainder = t.stepByte(remainder, byte(data>>16))
	remainder = t.stepByte(remainder, byte(data>>8))
	remainder = t.stepByte(remainder, byte(data))
	return remainder >> t.shiftLen
}

// Bytes folds an arbitrary byte slice MSB-first through the table.
// This is the corrected (++i) equivalent of the original's
// calc_crc_array, which carried a mis-compiled decrementing loop
// bound; see DESIGN.md.
func (t *Table) Bytes(data []byte) uint32 {
	var remainder uint32
	for i := 0; i < len(data); i++ {
		remainder = t.stepByte(remainder, data[i])
	}
	return remainder >> t.shiftLen
}

// Uint32Bitwise computes the same CRC bit-by-bit instead of via the
// table, for use as a reference implementation in round-trip tests.
func (t *Table) Uint32Bitwise(data uint32) uint32 {
	remainder := data
	const msBit = uint32(1) << (machineWidth - 1)
	for bit := 0; bit < machineWidth; bit++ {
		if remainder&msBit != 0 {
			remainder = (remainder << 1) ^ t.polyDiv
		} else {
			remainder <<= 1
		}
	}
	return remainder >> t.shiftLen
}

// DefaultPolynomials returns the two default CRC-20 polynomials used
// by the generator/parser's bucketed hash when the caller doesn't
// supply its own.
func DefaultPolynomials() [2]uint32 {
	return [2]uint32{0x182671, 0x11522b}
}
