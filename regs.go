package main

// Registers is the eigth register file: eight general-purpose registers,
// four argument registers, and a hardwired zero register. arg[0] follows
// r[7], and the flat register-index space used by Get/Set and the VM
// backend (0..7 for r0..r7, 8..11 for arg0..arg3, 12 for the zero
// register) keeps that order, so index 8 names arg0. The native backend's
// enter trampoline loads and stores only r[0..7]; compiled code sets the
// argument registers itself before each call.
type Registers struct {
	r    [8]uint32
	arg  [4]uint32
	zero uint32
	// sp backs the portable VM backend's PUSH/POP register-save stack:
	// an index into the arena's word store, descending from its top.
	sp uint32
}

// numRegisters is the size of the flat r0..r7,arg0..arg3,zero index space.
const numRegisters = 13

// zeroIndex is the flat index of the always-zero register.
const zeroIndex = 12

// Get reads register i from the flat r0..r7,arg0..arg3,zero index space.
func (rs *Registers) Get(i uint32) uint32 {
	switch {
	case i < 8:
		return rs.r[i]
	case i < 12:
		return rs.arg[i-8]
	default:
		return 0
	}
}

// Set writes register i in the flat index space. Writes to the zero
// register are silently discarded, like the hardware register they model.
func (rs *Registers) Set(i, v uint32) {
	switch {
	case i < 8:
		rs.r[i] = v
	case i < 12:
		rs.arg[i-8] = v
	}
}

// Arg returns argument register n (0..3).
func (rs *Registers) Arg(n int) uint32 { return rs.arg[n] }

// SetArg sets argument register n (0..3).
func (rs *Registers) SetArg(n int, v uint32) { rs.arg[n] = v }

// Snapshot returns a copy of the register file.
func (rs Registers) Snapshot() Registers { return rs }
