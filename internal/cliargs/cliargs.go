// Package cliargs provides range-checked string-to-integer conversion
// helpers for command-line flag values, the Go counterpart of
// original_source/str_args.h's str_to_int_range family of macros, plus
// MAC/IPv4 address flag parsing for the --dst-mac/--src-mac/--dst-ip/
// --src-ip family of generator flags (spec.md §6).
package cliargs

import (
	"fmt"
	"net"
	"strconv"

	"github.com/nezhinsky/itchygen/internal/netframe"
)

// ParseIntRange parses s as a base-10 integer and checks it falls in
// [minv, maxv] inclusive, the same bounds-checked contract as
// str_to_int_range.
func ParseIntRange(s string, minv, maxv int64) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cliargs: %q is not a valid integer: %w", s, err)
	}
	if v < minv || v > maxv {
		return 0, fmt.Errorf("cliargs: %q out of range [%d, %d]", s, minv, maxv)
	}
	return v, nil
}

// ParseIntGT parses s and checks it is strictly greater than minv.
func ParseIntGT(s string, minv int64) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cliargs: %q is not a valid integer: %w", s, err)
	}
	if v <= minv {
		return 0, fmt.Errorf("cliargs: %q must be greater than %d", s, minv)
	}
	return v, nil
}

// ParseUint32Range parses s and checks it falls in [minv, maxv],
// returning a uint32 for callers working with wire-sized fields.
func ParseUint32Range(s string, minv, maxv uint32) (uint32, error) {
	v, err := ParseIntRange(s, int64(minv), int64(maxv))
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ParseMAC parses a colon- or hyphen-separated hardware address into a
// netframe.MAC.
func ParseMAC(s string) (netframe.MAC, error) {
	var mac netframe.MAC
	hw, err := net.ParseMAC(s)
	if err != nil {
		return mac, fmt.Errorf("cliargs: %q is not a valid MAC address: %w", s, err)
	}
	if len(hw) != len(mac) {
		return mac, fmt.Errorf("cliargs: %q is not a 6-byte MAC address", s)
	}
	copy(mac[:], hw)
	return mac, nil
}

// ParseIPv4 parses a dotted-quad address into a 4-byte array.
func ParseIPv4(s string) ([4]byte, error) {
	var ip [4]byte
	parsed := net.ParseIP(s)
	if parsed == nil {
		return ip, fmt.Errorf("cliargs: %q is not a valid IP address", s)
	}
	v4 := parsed.To4()
	if v4 == nil {
		return ip, fmt.Errorf("cliargs: %q is not an IPv4 address", s)
	}
	copy(ip[:], v4)
	return ip, nil
}

// ParsePort parses a UDP port in the [1024, 65535] range spec.md §6
// requires for every endpoint port flag.
func ParsePort(s string) (uint16, error) {
	v, err := ParseUint32Range(s, 1024, 65535)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
