//go:build arm64 && (linux || darwin)

// Package nativecall implements the machine-specific call into JIT-compiled
// eigth code.
package nativecall

// Supported reports whether this platform has a working Enter.
const Supported = true

//go:noescape
func enter(code uintptr, regs *[8]uint32)

// Enter transfers control to code (the first instruction of an assembled
// word) with the eight persistent registers preloaded from regs, and writes
// them back once code returns (via a compiled `ret`).
func Enter(code uintptr, regs *[8]uint32) {
	enter(code, regs)
}
