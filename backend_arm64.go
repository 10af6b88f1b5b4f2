//go:build arm64 && (linux || darwin)

package main

import (
	"fmt"
	"unsafe"

	"github.com/avbrown/eigth/internal/execmem"
	"github.com/avbrown/eigth/internal/nativecall"
)

// nativeBackend emits real a64 instructions into an RWX execmem.Region and
// enters them directly on the host CPU. The register map: r0..r7 live in
// w19..w26, arg0..arg3 in w0..w3, and the hardwired zero reads wzr. w9 and
// x10 are scratch for builtin call-outs; both are caller-saved under
// AAPCS64 so compiled words need not preserve them.
type nativeBackend struct {
	region *execmem.Region
}

func newNativeBackend(arenaWords uint32) (wordStore, Encoder, func(from, to int), error) {
	if !nativecall.Supported {
		return nil, nil, nil, fmt.Errorf("no native call trampoline for this platform")
	}
	region, err := execmem.New(int(arenaWords))
	if err != nil {
		return nil, nil, nil, err
	}
	return region, &nativeBackend{region: region}, region.Sync, nil
}

func (b *nativeBackend) Name() string { return "native" }

// addrOf maps an arena word index to the real machine address of that word
// inside the RWX region.
func (b *nativeBackend) addrOf(idx uint32) uintptr {
	return uintptr(unsafe.Pointer(&b.region.Words()[0])) + uintptr(idx)*4
}

func (b *nativeBackend) assembleArg(em Emitter, n uint32, op Operand) {
	switch op.Type {
	case Register, Argument:
		em.Emit(opMovRegW(n, a64reg(op.flatIndex())))
	case Immediate:
		em.Emit(opMovzW(n, op.Value&0xffff, 0))
		if hi := op.Value >> 16; hi != 0 {
			em.Emit(opMovkW(n, hi, 16))
		}
	}
}

// emitMovAddrX materializes a full 64-bit address into xRd with a movz and
// up to three movk instructions, skipping all-zero 16-bit chunks.
func (b *nativeBackend) emitMovAddrX(em Emitter, rd uint32, addr uint64) {
	em.Emit(opMovzX(rd, uint32(addr&0xffff), 0))
	for shift := uint32(16); shift < 64; shift += 16 {
		if chunk := uint32((addr >> shift) & 0xffff); chunk != 0 {
			em.Emit(opMovkX(rd, chunk, shift))
		}
	}
}

func (b *nativeBackend) AssembleWord(em Emitter, cmd *Command) {
	for narg := 0; narg < 4; narg++ {
		op := cmd.Operand[narg]
		if op.Type == Invalid {
			break
		}
		b.assembleArg(em, uint32(narg), op)
	}

	if cmd.Sym.Kind == ExecPtr {
		pos := em.Pos()
		em.Emit(opBL(uint32(int32(cmd.Sym.Addr) - int32(pos))))
	} else {
		// Builtin call-out: index in w9, trampoline address in x10.
		// blr because the trampoline is ordinary Go text, far outside
		// bl's 26-bit reach from the JIT region.
		em.Emit(opMovzW(9, cmd.Sym.FuncIndex&0xffff, 0))
		b.emitMovAddrX(em, 10, uint64(nativecall.BuiltinTrampolineAddr()))
		em.Emit(opBlr(10))
	}

	if dst := cmd.Operand[0]; dst.Type == Register {
		em.Emit(opMovRegW(a64reg(dst.Value), 0))
	}
}

func (b *nativeBackend) AssembleRet(em Emitter) { em.Emit(opRet(a64XLR)) }

func (b *nativeBackend) AssembleResult(em Emitter) { em.Emit(opMovRegW(a64reg(0), 0)) }

func (b *nativeBackend) AssemblePreamble(em Emitter, cmd *Command, clobbers uint8) {
	if cmd != nil {
		clobbers |= cmd.clobbers()
	}
	for i := uint32(0); i < 8; i++ {
		if clobbers&(1<<i) != 0 {
			em.Emit(opStrPreW(a64reg(i), a64XSP, uint32(int32(-16))))
		}
	}
	// the frame record keeps lr correct across the bl/blr calls the
	// body makes
	em.Emit(opStpPreX(a64XFP, a64XLR, a64XSP, uint32(int32(-2))))
	em.Emit(opMovSP(a64XFP, a64XSP))
	if cmd == nil {
		return
	}
	for i, op := range cmd.Operand {
		if op.Type != Register {
			break
		}
		em.Emit(opMovRegW(a64reg(op.Value), uint32(i)))
	}
}

func (b *nativeBackend) AssemblePostamble(em Emitter, cmd *Command, clobbers uint8) {
	if cmd != nil {
		clobbers |= cmd.clobbers()
		if cmd.Operand[0].Type == Register {
			em.Emit(opMovRegW(0, a64reg(cmd.Operand[0].Value)))
		}
	}
	em.Emit(opLdpPostX(a64XFP, a64XLR, a64XSP, 2))
	for i := 7; i >= 0; i-- {
		if clobbers&(1<<uint(i)) != 0 {
			em.Emit(opLdrPostW(a64reg(uint32(i)), a64XSP, 16))
		}
	}
	b.AssembleRet(em)
}

// a64condSkip picks the condition code for the branch that skips a guarded
// block: the logical inverse of rel. CMPNZ compares against wzr, so its
// skip condition is plain EQ.
func a64condSkip(rel RelOp) uint32 {
	switch rel {
	case EQ:
		return a64CNE
	case NE:
		return a64CEQ
	case LT:
		return a64CGE
	case GT:
		return a64CLE
	case LTEQ:
		return a64CGT
	case GTEQ:
		return a64CLT
	case LTU:
		return a64CHS
	case GTU:
		return a64CLS
	case LTEU:
		return a64CHI
	case GTEU:
		return a64CLO
	default: // CMPNZ
		return a64CEQ
	}
}

func (b *nativeBackend) AssembleIf(em Emitter, cmp Compare) uint32 {
	rn := a64reg(cmp.Op1.cmpIndex())
	rm := uint32(a64WZR)
	if cmp.Rel != CMPNZ {
		rm = a64reg(cmp.Op2.cmpIndex())
	}
	em.Emit(opCmpRegW(rn, rm))
	fixup := em.Pos()
	em.Emit(opBCond(a64condSkip(cmp.Rel), 0))
	return fixup
}

func (b *nativeBackend) AssembleWhile(em Emitter, cmp Compare) uint32 { return b.AssembleIf(em, cmp) }

func (b *nativeBackend) AssembleElse(em Emitter, ifFixup uint32) uint32 {
	elseFixup := em.Pos()
	em.Emit(opB(0))
	b.FixupIf(em, ifFixup)
	return elseFixup
}

func (b *nativeBackend) AssembleEndWhile(em Emitter, loopTop, fixup uint32) {
	pos := em.Pos()
	em.Emit(opB(uint32(int32(loopTop) - int32(pos))))
	b.FixupIf(em, fixup)
}

func (b *nativeBackend) FixupIf(em Emitter, fixup uint32) {
	w := em.Read(fixup)
	offset := uint32(int32(em.Pos()) - int32(fixup))
	switch {
	case w&0xff000010 == 0x54000000: // b.cond: 19-bit word offset at [23:5]
		w = (w &^ (0x7ffff << 5)) | a64bits(offset, 19, 5)
	case w&0xfc000000 == 0x14000000: // b: 26-bit word offset at [25:0]
		w = (w &^ uint32(0x3ffffff)) | a64bits(offset, 26, 0)
	default:
		panic(fmt.Errorf("eigth: fixup target 0x%x is not a branch (0x%08x)", fixup, w))
	}
	em.Patch(fixup, w)
}

func (b *nativeBackend) Execute(e *Engine, addr uint32) {
	nativecall.SetBuiltinDispatch(func(idx, a0, a1, a2, a3 uint32) uint32 {
		return e.builtins[idx].Fn(e, [4]uint32{a0, a1, a2, a3})
	})
	nativecall.Enter(b.addrOf(addr), &e.regs.r)
}
