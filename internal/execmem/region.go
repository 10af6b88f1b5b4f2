// Package execmem allocates a fixed-size region of memory that is
// simultaneously readable, writable, and executable, and exposes the
// instruction-cache flush a JIT must perform after writing new code into it.
//
// This is the one place in the module that must reach past the Go runtime's
// normal memory model: the native backend writes real machine words here and
// branches the host CPU into them. Compiled code addresses the region by word
// index; only the native backend's entry into compiled code turns an index
// into a machine address. The portable VM backend does not use a Region: its
// bytecode lives in an ordinary Go slice.
package execmem

import "fmt"

// Region is a contiguous block of RWX memory, exposed as a []uint32 so
// callers can address words by index and take real pointers when needed.
type Region struct {
	words []uint32
	raw   []byte
	free  func()
}

// ErrUnsupported is returned by New on platforms with no RWX mmap support
// wired up; callers should fall back to the portable VM backend.
type ErrUnsupported struct{ Reason string }

func (e ErrUnsupported) Error() string {
	return fmt.Sprintf("execmem: RWX memory unsupported: %s", e.Reason)
}

// Words returns the region's backing storage as 32-bit words.
func (r *Region) Words() []uint32 { return r.words }

// Len returns the region's capacity in words.
func (r *Region) Len() int { return len(r.words) }

// Close releases the underlying OS mapping.
func (r *Region) Close() error {
	if r.free != nil {
		r.free()
		r.free = nil
	}
	return nil
}
