package main

// Emitter is the append/patch sink an Encoder writes into. The same
// Encoder methods run against two different Emitters: one over the arena's
// main bump pointer (compiling a `define`d word) and one over the
// out-of-band cursor (assembling a one-shot immediate-word thunk).
type Emitter interface {
	// Pos returns the address the next Emit will write to.
	Pos() uint32
	// Emit appends word and returns the address it was written to.
	Emit(word uint32) uint32
	// Read returns a previously-emitted word.
	Read(addr uint32) uint32
	// Patch overwrites an already-emitted word, used for branch fixups.
	Patch(addr, word uint32)
	// Truncate resets the emitter back to a previously-returned Pos,
	// discarding anything emitted since -- used by the `if <immediate>`
	// constant-fold path to throw away a block that folded away.
	Truncate(pos uint32)
}

type mainEmitter struct{ a *Arena }

func (e mainEmitter) Pos() uint32             { return e.a.Mark() }
func (e mainEmitter) Emit(word uint32) uint32 { return e.a.EmitCode(word) }
func (e mainEmitter) Read(addr uint32) uint32 { return e.a.Load(addr) }
func (e mainEmitter) Patch(addr, word uint32) { e.a.Emit(addr, word) }
func (e mainEmitter) Truncate(pos uint32)     { e.a.Rewind(pos) }

type oobEmitter struct{ a *Arena }

func (e oobEmitter) Pos() uint32             { return e.a.OOBMark() }
func (e oobEmitter) Emit(word uint32) uint32 { return e.a.OOBEmit(word) }
func (e oobEmitter) Read(addr uint32) uint32 { return e.a.Load(addr) }
func (e oobEmitter) Patch(addr, word uint32) { e.a.Emit(addr, word) }
func (e oobEmitter) Truncate(pos uint32)     { e.a.OOBRewind(pos) }

// callTarget resolves a symbol to the 32-bit value a call/branch should
// encode for it: a builtin table index for FuncPtr/WordPtr, an arena
// address for ExecPtr.
func callTarget(sym *Symbol) uint32 {
	switch sym.Kind {
	case FuncPtr, WordPtr:
		return sym.FuncIndex
	case ExecPtr:
		return sym.Addr
	default:
		panic("eigth: callTarget of non-callable symbol")
	}
}

// Encoder is the abstract contract both code-generation backends
// implement: translate a Command/Compare into words written through an
// Emitter. The compiler driver is backend-blind; everything
// instruction-shaped funnels through these methods.
type Encoder interface {
	// Name identifies the backend for logging/-backend flag matching.
	Name() string

	// AssembleWord emits the call (or recursive exec) of one symbol
	// with its operands: argument moves, the call itself, and the copy
	// of the result into the destination register.
	AssembleWord(em Emitter, cmd *Command)
	// AssembleRet emits a return from the current word/thunk.
	AssembleRet(em Emitter)
	// AssembleResult emits the copy of a call's return value (arg0)
	// into r0, used by the top-level thunk so a word's result is
	// visible at the prompt even when no destination register was
	// named.
	AssembleResult(em Emitter)
	// AssemblePreamble emits a word's register-saving prologue: spill
	// the clobber set (plus cmd's own register parameters), push a
	// frame record, move incoming arguments into the named registers.
	// A nil cmd with zero clobbers emits just the frame record (native)
	// or nothing at all (vm, which has no frame record), the shape a
	// one-shot thunk needs.
	AssemblePreamble(em Emitter, cmd *Command, clobbers uint8)
	// AssemblePostamble emits the matching epilogue: return value,
	// frame pop, register restore, ret.
	AssemblePostamble(em Emitter, cmd *Command, clobbers uint8)

	// AssembleIf emits a conditional branch over cmp, returning the
	// address of the branch instruction to be patched by FixupIf once
	// the size of the guarded block is known.
	AssembleIf(em Emitter, cmp Compare) (fixup uint32)
	// AssembleElse emits the unconditional jump-to-end of an else
	// branch, fixing up the preceding if's branch to land here, and
	// returns the new fixup address for the jump it just emitted.
	AssembleElse(em Emitter, ifFixup uint32) (elseFixup uint32)
	// AssembleWhile is identical to AssembleIf; the loop-exit branch it
	// returns is later patched by AssembleEndWhile's own call to
	// FixupIf once the loop body's end is known.
	AssembleWhile(em Emitter, cmp Compare) (fixup uint32)
	// AssembleEndWhile emits the unconditional branch back to the top
	// of the loop (loopTop) and fixes up the loop's exit branch.
	AssembleEndWhile(em Emitter, loopTop, fixup uint32)
	// FixupIf patches the branch at fixup to land at the Emitter's
	// current position.
	FixupIf(em Emitter, fixup uint32)

	// Execute transfers control to the code at addr: native loads
	// r0..r7 into real machine registers and branches in; the portable
	// backend interprets bytecode directly.
	Execute(e *Engine, addr uint32)
}
