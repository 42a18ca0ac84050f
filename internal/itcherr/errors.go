// Package itcherr defines the sentinel error taxonomy shared by every
// component in this module, the Go-idiomatic counterpart of the
// original's errno-style return codes.
package itcherr

import "errors"

var (
	// ErrInvalidArgument marks a CLI parse failure or an out-of-range value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks EOF on read or a key absent from a hash.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists marks a ref collision in a hash that can't delete.
	ErrAlreadyExists = errors.New("already exists")
	// ErrCapacityExceeded marks a bucket overflow or a full hash table.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrIO marks a PCAP/socket read or write failure.
	ErrIO = errors.New("i/o error")
	// ErrProtocolViolation marks a sequence mismatch, bad message count,
	// or unknown ITCH message type.
	ErrProtocolViolation = errors.New("protocol violation")
)

// ExitCode maps a sentinel error to an errno-like process exit code,
// matching spec.md §7 (bad arg = 22/EINVAL, out of memory = 12/ENOMEM,
// I/O is reported as-is via errno on the original; here we fold it to
// a stable code since Go doesn't expose raw errno for most failures).
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidArgument):
		return 22
	case errors.Is(err, ErrCapacityExceeded):
		return 12
	case errors.Is(err, ErrIO):
		return 5
	case errors.Is(err, ErrProtocolViolation):
		return 1
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadyExists):
		return 1
	default:
		return 1
	}
}
