//go:build linux || darwin

package execmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// New maps a new zero-filled RWX region sized for n words.
//
// Pointers into the region are never serialized or compared against a
// hardcoded base, so unlike a traditional JIT arena there is no reason to
// ask for a fixed address; the kernel places the mapping.
func New(n int) (*Region, error) {
	size := n * 4
	if size <= 0 {
		return nil, fmt.Errorf("execmem: region size must be positive, got %d words", n)
	}
	raw, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("execmem: mmap %d bytes: %w", size, err)
	}

	words := unsafe.Slice((*uint32)(unsafe.Pointer(&raw[0])), n)
	return &Region{
		words: words,
		raw:   raw,
		free:  func() { unix.Munmap(raw) },
	}, nil
}
