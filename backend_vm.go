package main

// vmBackend is the portable bytecode encoder/interpreter. It requires no
// executable memory and runs everywhere, at the cost of being interpreted
// rather than directly run by the host CPU.
//
// Bit layout of a vm opcode word:
//
//	bits[31:28] f1   (operand register A, or destination register)
//	bits[27:24] f2   (operand register B)
//	bits[23:8]  f3   (16-bit signed branch displacement, in instructions)
//	bits[27:8]  f23  (20-bit unsigned immediate, for MOV16/MOVHI)
//	bits[7:0]   opcode
type vmBackend struct{}

const (
	vmF1Shift  = 28
	vmF1Mask   = 0xf
	vmF2Shift  = 24
	vmF2Mask   = 0xf
	vmF3Shift  = 8
	vmF3Mask   = 0xffff
	vmF23Shift = 8
	vmF23Mask  = 0xfffff
	vmOpMask   = 0xff
)

// vm opcodes. Branches first, then the call/exec arity families.
const (
	vmBEQ uint32 = iota
	vmBNE
	vmBLT
	vmBLTU
	vmBGE
	vmBGEU
	vmCALL0
	vmCALL1
	vmCALL2
	vmCALL3
	vmCALL4
	vmEXEC0
	vmEXEC1
	vmEXEC2
	vmEXEC3
	vmEXEC4
	vmMOV
	vmMOV16
	vmMOVHI
	vmPOP
	vmPUSH
	vmRET
)

var vmOpNames = [...]string{
	vmBEQ: "beq", vmBNE: "bne", vmBLT: "blt", vmBLTU: "bltu", vmBGE: "bge", vmBGEU: "bgeu",
	vmCALL0: "call0", vmCALL1: "call1", vmCALL2: "call2", vmCALL3: "call3", vmCALL4: "call4",
	vmEXEC0: "exec0", vmEXEC1: "exec1", vmEXEC2: "exec2", vmEXEC3: "exec3", vmEXEC4: "exec4",
	vmMOV: "mov", vmMOV16: "mov16", vmMOVHI: "movhi", vmPOP: "pop", vmPUSH: "push", vmRET: "ret",
}

// vmRZero is the flat register index the bytecode uses for the hardwired
// zero register, just past arg3 in the flat index space.
const vmRZero = 12

func vmArg(n int) uint32 { return uint32(n) + 8 }

func asm3(op, f1, f2 uint32, f3 int32) uint32 {
	return ((f1 & vmF1Mask) << vmF1Shift) | ((f2 & vmF2Mask) << vmF2Shift) | ((uint32(f3) & vmF3Mask) << vmF3Shift) | op
}
func asm23(op, f1, f23 uint32) uint32 {
	return op | ((f1 & vmF1Mask) << vmF1Shift) | ((f23 & vmF23Mask) << vmF23Shift)
}
func asm2(op, f1, f2 uint32) uint32 { return asm3(op, f1, f2, 0) }
func asm1(op, f1 uint32) uint32     { return asm3(op, f1, 0, 0) }

func vmDecodeF1(op uint32) uint32  { return op >> vmF1Shift }
func vmDecodeF2(op uint32) uint32  { return (op >> vmF2Shift) & vmF2Mask }
func vmDecodeF3(op uint32) int32   { return int32(int16(uint16((op >> vmF3Shift) & vmF3Mask))) }
func vmDecodeF23(op uint32) uint32 { return (op >> vmF23Shift) & vmF23Mask }

func (vmBackend) Name() string { return "vm" }

func (vmBackend) assemblePrologueArg(em Emitter, narg int, op Operand) {
	switch op.Type {
	case Register, Argument:
		em.Emit(asm2(vmMOV, vmArg(narg), op.flatIndex()))
	case Immediate:
		em.Emit(asm23(vmMOV16, vmArg(narg), op.Value&0xffff))
		if op.Value>>16 != 0 {
			em.Emit(asm23(vmMOVHI, vmArg(narg), (op.Value>>16)&0xffff))
		}
	default:
		panic("eigth: vm backend cannot pass an invalid operand as a call argument")
	}
}

func (vmBackend) assembleEpilogueArg(em Emitter, op Operand) {
	if op.Type == Register {
		em.Emit(asm2(vmMOV, op.Value, vmArg(0)))
	}
}

func (b vmBackend) AssembleWord(em Emitter, cmd *Command) {
	narg := 0
	for ; narg < 4; narg++ {
		if cmd.Operand[narg].Type == Invalid {
			break
		}
		b.assemblePrologueArg(em, narg, cmd.Operand[narg])
	}

	isExec := cmd.Sym.Kind == ExecPtr
	var callOp uint32
	switch narg {
	case 0:
		callOp = pick(isExec, vmEXEC0, vmCALL0)
	case 1:
		callOp = pick(isExec, vmEXEC1, vmCALL1)
	case 2:
		callOp = pick(isExec, vmEXEC2, vmCALL2)
	case 3:
		callOp = pick(isExec, vmEXEC3, vmCALL3)
	case 4:
		callOp = pick(isExec, vmEXEC4, vmCALL4)
	}
	em.Emit(callOp)
	em.Emit(callTarget(cmd.Sym))

	b.assembleEpilogueArg(em, cmd.Operand[0])
}

func pick(cond bool, a, b uint32) uint32 {
	if cond {
		return a
	}
	return b
}

func (vmBackend) AssembleRet(em Emitter) { em.Emit(asm1(vmRET, 0)) }

func (vmBackend) AssembleResult(em Emitter) { em.Emit(asm2(vmMOV, 0, vmArg(0))) }

func (vmBackend) AssemblePreamble(em Emitter, cmd *Command, clobbers uint8) {
	if cmd != nil {
		clobbers |= cmd.clobbers()
	}
	for i := 0; i < 8; i++ {
		if clobbers&(1<<i) != 0 {
			em.Emit(asm1(vmPUSH, uint32(i)))
		}
	}
	// the bytecode has no frame record to push: EXEC recursion rides the
	// interpreter's own call stack
	if cmd == nil {
		return
	}
	for i, op := range cmd.Operand {
		if op.Type != Register {
			break
		}
		em.Emit(asm2(vmMOV, op.Value, vmArg(i)))
	}
}

func (b vmBackend) AssemblePostamble(em Emitter, cmd *Command, clobbers uint8) {
	if cmd != nil {
		clobbers |= cmd.clobbers()
		if cmd.Operand[0].Type == Register {
			em.Emit(asm2(vmMOV, vmArg(0), cmd.Operand[0].Value))
		}
	}
	for i := 7; i >= 0; i-- {
		if clobbers&(1<<i) != 0 {
			em.Emit(asm1(vmPOP, uint32(i)))
		}
	}
	b.AssembleRet(em)
}

// branchAway picks the opcode/operand order for the bytecode branch that
// skips the guarded block when cmp does NOT hold -- the logical inverse of
// cmp.Rel, agreeing with the native backend's condition-code table
// (EQ<->NE, LT<->GE, swapped-operand GT/LTEQ/GTU/LTEU pairs, CMPNZ as
// branch-if-zero), so both backends take the same arm of every if/while.
func (vmBackend) branchAway(cmp Compare) (op, a, b uint32) {
	a1, a2 := cmp.Op1.cmpIndex(), uint32(0)
	if cmp.Rel != CMPNZ {
		a2 = cmp.Op2.cmpIndex()
	}
	switch cmp.Rel {
	case EQ:
		return vmBNE, a1, a2
	case NE:
		return vmBEQ, a1, a2
	case LT:
		return vmBGE, a1, a2
	case GT:
		return vmBGE, a2, a1
	case LTEQ:
		return vmBLT, a2, a1
	case GTEQ:
		return vmBLT, a1, a2
	case LTU:
		return vmBGEU, a1, a2
	case GTU:
		return vmBGEU, a2, a1
	case LTEU:
		return vmBLTU, a2, a1
	case GTEU:
		return vmBLTU, a1, a2
	default: // CMPNZ
		return vmBEQ, a1, vmRZero
	}
}

func (b vmBackend) AssembleIf(em Emitter, cmp Compare) uint32 {
	op, a, c := b.branchAway(cmp)
	fixup := em.Pos()
	em.Emit(asm3(op, a, c, 0))
	return fixup
}

func (b vmBackend) AssembleWhile(em Emitter, cmp Compare) uint32 { return b.AssembleIf(em, cmp) }

func (b vmBackend) AssembleElse(em Emitter, ifFixup uint32) uint32 {
	elseFixup := em.Pos()
	em.Emit(asm3(vmBEQ, vmRZero, vmRZero, 0)) // unconditional
	b.FixupIf(em, ifFixup)
	return elseFixup
}

func (vmBackend) FixupIf(em Emitter, fixup uint32) {
	offset := int32(em.Pos()) - int32(fixup) - 1
	em.Patch(fixup, em.Read(fixup)|((uint32(offset)&vmF3Mask)<<vmF3Shift))
}

// Execute interprets bytecode starting at addr -- for the portable
// backend the executor is simply the first call into the recursive
// interpreter.
func (vmBackend) Execute(e *Engine, addr uint32) { (vmInterp{e}).run(addr) }

func (b vmBackend) AssembleEndWhile(em Emitter, loopTop, fixup uint32) {
	backOffset := int32(loopTop) - int32(em.Pos()) - 1
	em.Emit(asm3(vmBEQ, vmRZero, vmRZero, backOffset))
	b.FixupIf(em, fixup)
}
