package main

import "fmt"

// oobCanary guards the out-of-band thunk area: if a one-shot thunk ever
// overruns its reserved space, the next command's canary check catches the
// corruption immediately instead of silently executing garbage.
const oobCanary = 0xc0ffee

// defaultOOBWords sizes the out-of-band area for the worst-case one-shot
// thunk: a four-argument builtin call with four 32-bit immediates runs to
// 19 native instructions including prologue and epilogue (12 bytecode
// words on the vm backend), plus the trailing canary word. The -oob-size
// flag overrides it for top-level if/while blocks too big to assemble here.
const defaultOOBWords = 32

// wordStore is the minimal storage an Arena bump-allocates over. Both
// execmem.Region (native backend, real RWX memory) and a plain Go slice
// (portable VM backend, interpreted bytecode never entered by the host CPU)
// satisfy it.
type wordStore interface {
	Words() []uint32
	Len() int
}

type sliceStore []uint32

func (s sliceStore) Words() []uint32 { return s }
func (s sliceStore) Len() int        { return len(s) }

// Arena is the single bump-allocated address space shared by compiled code,
// `var`/`array`/`bytes`/`string` storage, and the out-of-band immediate-word
// thunk area. Addresses only ever grow (Bump), except for the controlled
// rewind constant-folding performs when `if <false-immediate> ... end` is
// compiled away.
type Arena struct {
	store    wordStore
	oobWords uint32
	capacity uint32 // bump ceiling, excluding any reserved top-of-store stack area
	bump     uint32
	oobIP    uint32
	sync     func(from, to int)
}

// NewArena creates an arena over store, reserving oobWords words at the
// front for one-shot immediate-word thunks and stackWords words at the back
// for the portable VM's register-save stack, and writes the canary. sync
// may be nil (portable VM backend, which never needs an instruction-cache
// flush).
func NewArena(store wordStore, oobWords, stackWords uint32, sync func(from, to int)) (*Arena, error) {
	if int(oobWords)+int(stackWords) >= store.Len() {
		return nil, fmt.Errorf("eigth: arena too small for %d-word out-of-band area plus %d-word stack", oobWords, stackWords)
	}
	a := &Arena{
		store:    store,
		oobWords: oobWords,
		capacity: uint32(store.Len()) - stackWords,
		bump:     oobWords,
		sync:     sync,
	}
	a.store.Words()[oobWords-1] = oobCanary
	return a, nil
}

// CheckCanary panics with a corruption error if the out-of-band canary has
// been overwritten.
func (a *Arena) CheckCanary() {
	if got := a.store.Words()[a.oobWords-1]; got != oobCanary {
		panic(fmt.Errorf("eigth: out-of-band canary corrupted (got 0x%x, want 0x%x) -- a thunk overran its reserved area", got, oobCanary))
	}
}

// Mark returns the current bump pointer, to be paired with a later Rewind
// for constant folding, or retained as a word/var's base address.
func (a *Arena) Mark() uint32 { return a.bump }

// Rewind discards everything allocated since mark, used to compile away an
// `if <false-immediate> ... end` block entirely.
func (a *Arena) Rewind(mark uint32) {
	if mark > a.bump {
		panic("eigth: arena rewind past current bump pointer")
	}
	a.bump = mark
}

// Alloc bump-allocates n words and returns the address of the first one.
func (a *Arena) Alloc(n uint32) uint32 {
	if a.bump+n > a.capacity {
		panic(fmt.Errorf("eigth: arena exhausted allocating %d words at 0x%x", n, a.bump))
	}
	addr := a.bump
	a.bump += n
	return addr
}

// AllocBytes bump-allocates enough whole words to hold n bytes.
func (a *Arena) AllocBytes(n uint32) uint32 {
	words := (n + 3) / 4
	if words == 0 {
		words = 1
	}
	return a.Alloc(words)
}

// Emit writes word at addr.
func (a *Arena) Emit(addr, word uint32) { a.store.Words()[addr] = word }

// Load reads the word at addr.
func (a *Arena) Load(addr uint32) uint32 { return a.store.Words()[addr] }

// EmitCode appends word at the current bump pointer and advances it,
// returning the address it was written to.
func (a *Arena) EmitCode(word uint32) uint32 {
	addr := a.Alloc(1)
	a.Emit(addr, word)
	return addr
}

// SyncCode flushes the instruction cache over [from, to), required before
// any newly-assembled native code is entered. A no-op for the portable
// backend.
func (a *Arena) SyncCode(from, to uint32) {
	if a.sync != nil {
		a.sync(int(from), int(to))
	}
}

// OOBBase is the out-of-band area's first address (always 0: the OOB
// prefix sits at the very front of the arena).
func (a *Arena) OOBBase() uint32 { return 0 }

// OOBReset rewinds the out-of-band thunk cursor to the top of the area,
// called once per top-level command; each command's one-shot thunk reuses
// the same words.
func (a *Arena) OOBReset() { a.oobIP = 0 }

// OOBMark/OOBAlloc let the driver assemble a one-shot thunk into the
// out-of-band area without disturbing the main bump pointer; nested
// immediate-word invocations (e.g. `define` inside an `if`) continue from
// wherever the cursor currently sits, consuming further OOB space bounded
// by nesting depth.
func (a *Arena) OOBMark() uint32 { return a.oobIP }

// OOBRewind discards thunk words emitted since mark, used by the
// `if <immediate>` constant-fold path when folding happens inside an
// out-of-band thunk.
func (a *Arena) OOBRewind(mark uint32) { a.oobIP = mark }

func (a *Arena) OOBEmit(word uint32) uint32 {
	if a.oobIP+1 >= a.oobWords {
		panic(fmt.Errorf("eigth: out-of-band area exhausted (more than %d words of nested immediate calls)", a.oobWords))
	}
	addr := a.oobIP
	a.store.Words()[addr] = word
	a.oobIP++
	return addr
}
