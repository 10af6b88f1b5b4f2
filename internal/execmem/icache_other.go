//go:build !arm64

package execmem

// Sync is a no-op on architectures with a unified instruction/data cache (or
// where the portable VM backend, which never branches the CPU into the
// region, is the only one in use).
func (r *Region) Sync(from, to int) {}
