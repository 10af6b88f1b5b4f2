package main

import "fmt"

// vmInterp runs portable bytecode. It shares the engine's register file
// and arena word store; EXECn recurses into run for a nested word, so
// compiled call depth rides the Go call stack.
type vmInterp struct {
	e *Engine
}

func (vi vmInterp) run(ip uint32) {
	words := vi.e.arena.store.Words()
	regs := &vi.e.regs

	for {
		op := words[ip]
		ip++
		switch op & vmOpMask {
		case vmBEQ:
			if regs.Get(vmDecodeF1(op)) == regs.Get(vmDecodeF2(op)) {
				ip = uint32(int32(ip) + vmDecodeF3(op))
			}
		case vmBNE:
			if regs.Get(vmDecodeF1(op)) != regs.Get(vmDecodeF2(op)) {
				ip = uint32(int32(ip) + vmDecodeF3(op))
			}
		case vmBLT:
			if int32(regs.Get(vmDecodeF1(op))) < int32(regs.Get(vmDecodeF2(op))) {
				ip = uint32(int32(ip) + vmDecodeF3(op))
			}
		case vmBLTU:
			if regs.Get(vmDecodeF1(op)) < regs.Get(vmDecodeF2(op)) {
				ip = uint32(int32(ip) + vmDecodeF3(op))
			}
		case vmBGE:
			if int32(regs.Get(vmDecodeF1(op))) >= int32(regs.Get(vmDecodeF2(op))) {
				ip = uint32(int32(ip) + vmDecodeF3(op))
			}
		case vmBGEU:
			if regs.Get(vmDecodeF1(op)) >= regs.Get(vmDecodeF2(op)) {
				ip = uint32(int32(ip) + vmDecodeF3(op))
			}

		case vmCALL0, vmCALL1, vmCALL2, vmCALL3, vmCALL4:
			idx := words[ip]
			ip++
			n := int(op&vmOpMask) - int(vmCALL0)
			regs.SetArg(0, vi.e.callBuiltin(idx, n, regs))

		case vmEXEC0, vmEXEC1, vmEXEC2, vmEXEC3, vmEXEC4:
			target := words[ip]
			ip++
			vi.run(target)

		case vmMOV:
			regs.Set(vmDecodeF1(op), regs.Get(vmDecodeF2(op)))
		case vmMOV16:
			regs.Set(vmDecodeF1(op), vmDecodeF23(op))
		case vmMOVHI:
			regs.Set(vmDecodeF1(op), regs.Get(vmDecodeF1(op))|(vmDecodeF23(op)<<16))
		case vmPOP:
			regs.sp++
			regs.Set(vmDecodeF1(op), words[regs.sp-1])
		case vmPUSH:
			regs.sp--
			words[regs.sp] = regs.Get(vmDecodeF1(op))
		case vmRET:
			return
		default:
			panic(fmt.Errorf("eigth: vm backend hit unknown opcode 0x%x at 0x%x", op&vmOpMask, ip-1))
		}
	}
}

// callBuiltin invokes the n-argument builtin at builtin table index idx
// and returns its result.
func (e *Engine) callBuiltin(idx uint32, n int, regs *Registers) uint32 {
	if int(idx) >= len(e.builtins) {
		panic(fmt.Errorf("eigth: call to undefined builtin index %d", idx))
	}
	var args [4]uint32
	for i := 0; i < n; i++ {
		args[i] = regs.Arg(i)
	}
	return e.builtins[idx].Fn(e, args)
}
