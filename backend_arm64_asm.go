//go:build arm64

package main

// arm64 opcode encoding, transcribed from original_source/src/arm/a64.c's
// OP_* macros. Kept as free functions (not methods) since they're pure bit
// packing with no encoder state.

func a64bits(val, width, shift uint32) uint32 {
	return (((1 << width) - 1) & val) << shift
}

const (
	a64XFP = 29
	a64XLR = 30
	a64XSP = 31
	a64WZR = 31
	a64XZR = 31

	a64CEQ = 0
	a64CNE = 1
	a64CCS = 2
	a64CCC = 3
	a64CMI = 4
	a64CPL = 5
	a64CVS = 6
	a64CVC = 7
	a64CHI = 8
	a64CLS = 9
	a64CGE = 10
	a64CLT = 11
	a64CGT = 12
	a64CLE = 13
	a64CAL = 14
	a64CLO = a64CCC
	a64CHS = a64CCS
)

func opAddImmW(rt, rn, imm12 uint32) uint32 {
	return 0x11000000 | a64bits(imm12, 12, 10) | a64bits(rn, 5, 5) | a64bits(rt, 5, 0)
}
func opAddImmX(rt, rn, imm12 uint32) uint32 {
	return 0x91000000 | a64bits(imm12, 12, 10) | a64bits(rn, 5, 5) | a64bits(rt, 5, 0)
}
func opB(offset uint32) uint32 { return 0x14000000 | a64bits(offset, 26, 0) }
func opBCond(cond, offset uint32) uint32 {
	return 0x54000000 | a64bits(offset, 19, 5) | a64bits(cond, 4, 0)
}
func opBL(offset uint32) uint32 { return 0x94000000 | a64bits(offset, 26, 0) }
func opSubsRegW(rd, rn, rm uint32) uint32 {
	return 0x6b000000 | a64bits(rm, 5, 16) | a64bits(rn, 5, 5) | a64bits(rd, 5, 0)
}
func opCmpRegW(rn, rm uint32) uint32 { return opSubsRegW(a64WZR, rn, rm) }

func opLdpPostX(rt, rt2, rn, imm7 uint32) uint32 {
	return 0xa8c00000 | a64bits(imm7, 7, 15) | a64bits(rt2, 5, 10) | a64bits(rn, 5, 5) | a64bits(rt, 5, 0)
}
func opStpPreX(rt, rt2, rn, imm7 uint32) uint32 {
	return 0xa9800000 | a64bits(imm7, 7, 15) | a64bits(rt2, 5, 10) | a64bits(rn, 5, 5) | a64bits(rt, 5, 0)
}
func opLdrPostW(rt, rn, imm9 uint32) uint32 {
	return 0xb8400400 | a64bits(imm9, 9, 12) | a64bits(rn, 5, 5) | a64bits(rt, 5, 0)
}
func opStrPreW(rt, rn, imm9 uint32) uint32 {
	return 0xb8000c00 | a64bits(imm9, 9, 12) | a64bits(rn, 5, 5) | a64bits(rt, 5, 0)
}
func opMovSP(rd, rn uint32) uint32 { return opAddImmX(rd, rn, 0) }
func opMovImmW(rd, imm16 uint32) uint32 { return opMovzW(rd, imm16, 0) }
func opMovzW(rd, imm16, lsl uint32) uint32 {
	return 0x52800000 | a64bits(lsl>>4, 2, 21) | a64bits(imm16, 16, 5) | a64bits(rd, 5, 0)
}
func opMovkW(rd, imm16, lsl uint32) uint32 {
	return 0x72800000 | a64bits(lsl>>4, 2, 21) | a64bits(imm16, 16, 5) | a64bits(rd, 5, 0)
}
func opOrrRegW(rt, rn, rm, shift, imm6 uint32) uint32 {
	return 0x2a000000 | a64bits(shift, 2, 22) | a64bits(rm, 5, 16) | a64bits(imm6, 6, 10) | a64bits(rn, 5, 5) | a64bits(rt, 5, 0)
}
func opMovRegW(rd, rn uint32) uint32 { return opOrrRegW(rd, rn, a64WZR, 0, 0) }
func opRet(rn uint32) uint32         { return 0xd65f0000 | a64bits(rn, 5, 5) }
func opBlr(rn uint32) uint32         { return 0xd63f0000 | a64bits(rn, 5, 5) }
func opMovzX(rd, imm16, lsl uint32) uint32 {
	return 0xd2800000 | a64bits(lsl>>4, 2, 21) | a64bits(imm16, 16, 5) | a64bits(rd, 5, 0)
}
func opMovkX(rd, imm16, lsl uint32) uint32 {
	return 0xf2800000 | a64bits(lsl>>4, 2, 21) | a64bits(imm16, 16, 5) | a64bits(rd, 5, 0)
}

// a64reg maps an eigth flat register index to its A64 register number:
// r0..r7 to w19..w26, arg0..arg3 to w0..w3, the zero register to wzr(31).
func a64reg(x uint32) uint32 {
	switch {
	case x < 8:
		return x + 19
	case x < 12:
		return x - 8
	default:
		return 31
	}
}

func a64cond(rel RelOp) uint32 {
	switch rel {
	case EQ:
		return a64CEQ
	case NE:
		return a64CNE
	case LT:
		return a64CLT
	case GT:
		return a64CGT
	case LTEQ:
		return a64CLE
	case GTEQ:
		return a64CGE
	case LTU:
		return a64CLO
	case GTU:
		return a64CHI
	case LTEU:
		return a64CLS
	case GTEU:
		return a64CHS
	default:
		return a64CAL
	}
}
