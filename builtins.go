package main

import (
	"fmt"
	"time"
)

// registerBuiltins installs every host routine in the builtin table. The
// ones marked immediate (define/disassemble/if/while/var and friends) are
// WordPtr symbols whose Fn drives the parser directly instead of being
// called through the compiled calling convention; ldw/stw exist so that
// var's read-through-address word, and mutation through the &name
// address, work from compiled code.
func registerBuiltins(e *Engine) {
	// The binary operators take their destination as argument 0 purely to
	// occupy the slot: `add r0, r1, r2` passes r0, r1, r2 and the result
	// lands back in r0 through the ordinary return-value copy.
	e.defineBuiltin("add", false, func(e *Engine, a [4]uint32) uint32 { return a[1] + a[2] })
	e.defineBuiltin("sub", false, func(e *Engine, a [4]uint32) uint32 { return a[1] - a[2] })
	e.defineBuiltin("mul", false, func(e *Engine, a [4]uint32) uint32 { return uint32(int32(a[1]) * int32(a[2])) })
	e.defineBuiltin("div", false, func(e *Engine, a [4]uint32) uint32 {
		if a[2] == 0 {
			e.Core.halt(fmt.Errorf("eigth: division by zero"))
		}
		return uint32(int32(a[1]) / int32(a[2]))
	})
	e.defineBuiltin("and", false, func(e *Engine, a [4]uint32) uint32 { return a[1] & a[2] })
	e.defineBuiltin("or", false, func(e *Engine, a [4]uint32) uint32 { return a[1] | a[2] })
	e.defineBuiltin("xor", false, func(e *Engine, a [4]uint32) uint32 { return a[1] ^ a[2] })
	e.defineBuiltin("shl", false, func(e *Engine, a [4]uint32) uint32 { return a[1] << a[2] })
	e.defineBuiltin("shr", false, opShr)
	e.defineBuiltin("shra", false, opShra)
	e.defineBuiltin("mov", false, func(e *Engine, a [4]uint32) uint32 { return a[1] })
	e.defineBuiltin("alloc", false, func(e *Engine, a [4]uint32) uint32 { return e.arena.Alloc(a[1]) })
	e.defineBuiltin("assert", false, func(e *Engine, a [4]uint32) uint32 {
		if a[0] != a[1] {
			e.Core.halt(fmt.Errorf("eigth: assertion failed: 0x%x != 0x%x", a[0], a[1]))
		}
		return a[0]
	})
	e.defineBuiltin("hex", false, func(e *Engine, a [4]uint32) uint32 {
		e.Core.print(fmt.Sprintf("%x\n", a[0]))
		return a[0]
	})
	e.defineBuiltin("print", false, func(e *Engine, a [4]uint32) uint32 {
		e.Core.print(fmt.Sprintf("%d\n", int32(a[0])))
		return a[0]
	})
	e.defineBuiltin("putc", false, func(e *Engine, a [4]uint32) uint32 {
		e.Core.putByte(byte(a[0]))
		return a[0]
	})
	e.defineBuiltin("puts", false, func(e *Engine, a [4]uint32) uint32 {
		e.Core.puts(bytesAt(e, a[0]))
		return a[0]
	})
	e.defineBuiltin("us", false, func(e *Engine, a [4]uint32) uint32 { return uint32(time.Now().UnixMicro()) })
	e.defineBuiltin("exit", false, func(e *Engine, a [4]uint32) uint32 {
		panic(exitStatus{int(int32(a[0]))})
	})
	e.defineBuiltin("dump", false, func(e *Engine, a [4]uint32) uint32 {
		e.dumpRegisters()
		return a[0]
	})
	e.defineBuiltin("words", false, func(e *Engine, a [4]uint32) uint32 {
		for _, name := range e.symbols.List() {
			e.Core.logf("W", "%s", name)
		}
		return a[0]
	})

	// ldw reads `ldw rD, rA, off` -> rD = mem[rA+off]; stw writes
	// `stw rA, off, rV` -> mem[rA+off] = rV, leaving rA as it was.
	e.defineBuiltin("ldw", false, func(e *Engine, a [4]uint32) uint32 {
		addr := a[1] + a[2]
		if int(addr) >= e.store.Len() {
			e.Core.halt(fmt.Errorf("eigth: ldw out of range: 0x%x", addr))
		}
		return e.store.Words()[addr]
	})
	e.defineBuiltin("stw", false, func(e *Engine, a [4]uint32) uint32 {
		addr := a[0] + a[1]
		if int(addr) >= e.store.Len() {
			e.Core.halt(fmt.Errorf("eigth: stw out of range: 0x%x", addr))
		}
		e.store.Words()[addr] = a[2]
		return a[0]
	})

	e.defineBuiltin("define", true, func(e *Engine, a [4]uint32) uint32 {
		if err := parseDefine(e); err != nil {
			e.Core.halt(fmt.Errorf("define: %w", err))
		}
		return 0
	})
	e.defineBuiltin("disassemble", true, func(e *Engine, a [4]uint32) uint32 {
		if err := parseDisassemble(e); err != nil {
			e.Core.logf("!", "disassemble: %v", err)
		}
		return 0
	})
	e.defineBuiltin("if", true, func(e *Engine, a [4]uint32) uint32 {
		if err := parseIf(e); err != nil {
			e.Core.halt(fmt.Errorf("if: %w", err))
		}
		return 0
	})
	e.defineBuiltin("while", true, func(e *Engine, a [4]uint32) uint32 {
		if err := parseWhile(e); err != nil {
			e.Core.halt(fmt.Errorf("while: %w", err))
		}
		return 0
	})
	e.defineBuiltin("var", true, func(e *Engine, a [4]uint32) uint32 {
		if err := parseVar(e); err != nil {
			e.Core.halt(fmt.Errorf("var: %w", err))
		}
		return 0
	})
	e.defineBuiltin("array", true, func(e *Engine, a [4]uint32) uint32 {
		if err := parseArray(e); err != nil {
			e.Core.halt(fmt.Errorf("array: %w", err))
		}
		return 0
	})
	e.defineBuiltin("bytes", true, func(e *Engine, a [4]uint32) uint32 {
		if err := parseBytes(e); err != nil {
			e.Core.halt(fmt.Errorf("bytes: %w", err))
		}
		return 0
	})
	e.defineBuiltin("string", true, func(e *Engine, a [4]uint32) uint32 {
		if err := parseString(e); err != nil {
			e.Core.halt(fmt.Errorf("string: %w", err))
		}
		return 0
	})
	e.defineBuiltin("const", true, func(e *Engine, a [4]uint32) uint32 {
		if err := parseConst(e); err != nil {
			e.Core.halt(fmt.Errorf("const: %w", err))
		}
		return 0
	})
}

// opShr and opShra implement the idiosyncratic 31-bit shift-right ops:
// bit 31 is carried separately and re-deposited at position 31-n rather
// than participating in the shift like an ordinary 32-bit shift would.
// Deliberately preserved bit-exactly; see DESIGN.md.
func opShr(e *Engine, a [4]uint32) uint32 {
	x, n := a[1], a[2]
	sb := (x >> 31) & 1
	partial := (^uint32(1<<31) & x) >> n
	return partial | (sb << (31 - n))
}

func opShra(e *Engine, a [4]uint32) uint32 {
	x, n := a[1], a[2]
	sb := ((x >> 31) & 1) * 0xffffffff
	partial := (^uint32(1<<31) & x) >> n
	return partial | (sb << (31 - n))
}

// bytesAt reads a NUL-terminated byte string starting at word address addr,
// little-endian packed 4 bytes per word (matching parseString's packing).
func bytesAt(e *Engine, addr uint32) []byte {
	words := e.store.Words()
	var out []byte
	for i := uint32(0); ; i++ {
		wi := addr + i/4
		if int(wi) >= len(words) {
			break
		}
		shift := uint((i % 4) * 8)
		b := byte(words[wi] >> shift)
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return out
}

// exitStatus is panicked by the `exit` builtin and recovered at the
// engine/main boundary, turning a user-requested exit into a plain error
// carrying the requested status code.
type exitStatus struct{ code int }

func (e exitStatus) Error() string { return fmt.Sprintf("exit(%d)", e.code) }
