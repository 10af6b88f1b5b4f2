//go:build !(arm64 && (linux || darwin))

package nativecall

// Supported reports whether this platform has a working Enter.
const Supported = false

// Enter panics; callers must check Supported (or let the native backend
// constructor fail closed) before ever reaching here.
func Enter(code uintptr, regs *[8]uint32) {
	panic("nativecall: Enter unsupported on this platform; use the vm backend")
}
