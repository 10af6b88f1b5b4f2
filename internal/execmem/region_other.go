//go:build !(linux || darwin)

package execmem

// New returns ErrUnsupported here: there is no portable,
// cgo-free way to map RWX memory outside the unix mmap family, so only the
// portable VM backend (which interprets bytecode out of an ordinary Go
// slice, never branches the host CPU into it) is usable here.
func New(n int) (*Region, error) {
	return nil, ErrUnsupported{Reason: "no mmap support wired up for this GOOS"}
}
