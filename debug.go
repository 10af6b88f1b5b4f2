package main

import (
	"fmt"
	"io"
)

// engineDumper renders a post-run snapshot of an engine for the -dump
// flag: program counter state doesn't exist between commands, so the
// interesting bits are the register file, the symbol table in definition
// order, and how much of the arena got used.
type engineDumper struct {
	eng *Engine
	out io.Writer
}

func (dump engineDumper) dump() {
	fmt.Fprintf(dump.out, "# Engine Dump (%s backend)\n", dump.eng.backend.Name())
	fmt.Fprintf(dump.out, "  arena: %v/%v words used\n", dump.eng.arena.Mark(), dump.eng.arena.capacity)
	for i := 0; i < 8; i++ {
		fmt.Fprintf(dump.out, "  r%d = 0x%08x\n", i, dump.eng.regs.Get(uint32(i)))
	}
	for i := 0; i < 4; i++ {
		fmt.Fprintf(dump.out, "  arg%d = 0x%08x\n", i, dump.eng.regs.Arg(i))
	}
	fmt.Fprintf(dump.out, "# Symbols\n")
	for _, name := range dump.eng.symbols.List() {
		sym := dump.eng.symbols.Lookup(name)
		switch sym.Kind {
		case ExecPtr:
			fmt.Fprintf(dump.out, "  %s @0x%x\n", name, sym.Addr)
		case Constant:
			fmt.Fprintf(dump.out, "  %s = 0x%x\n", name, sym.Val)
		default:
			fmt.Fprintf(dump.out, "  %s (%v)\n", name, sym.Kind)
		}
	}
}

// dumpRegisters prints the register file through the logger, for the
// `dump` builtin.
func (e *Engine) dumpRegisters() {
	for i := 0; i < 8; i++ {
		e.Core.logf("R", "r%d = 0x%08x", i, e.regs.Get(uint32(i)))
	}
	for i := 0; i < 4; i++ {
		e.Core.logf("R", "arg%d = 0x%08x", i, e.regs.Arg(i))
	}
	e.Core.logf("R", "sp = 0x%08x", e.regs.sp)
}

// disassembleVM renders the portable bytecode in [from, to) one
// instruction per line, resolving CALL/EXEC targets against the symbol
// table.
func disassembleVM(e *Engine, from, to uint32) []string {
	words := e.store.Words()
	var out []string
	for ip := from; ip < to && int(ip) < len(words); {
		op := words[ip]
		code := op & vmOpMask
		name := "???"
		if int(code) < len(vmOpNames) && vmOpNames[code] != "" {
			name = vmOpNames[code]
		}

		switch code {
		case vmBEQ, vmBNE, vmBLT, vmBLTU, vmBGE, vmBGEU:
			out = append(out, fmt.Sprintf("0x%04x: %-6s r%d, r%d, %+d", ip, name, vmDecodeF1(op), vmDecodeF2(op), vmDecodeF3(op)))
			ip++
		case vmCALL0, vmCALL1, vmCALL2, vmCALL3, vmCALL4:
			target := words[ip+1]
			out = append(out, fmt.Sprintf("0x%04x: %-6s %s", ip, name, symOrHex(e.symbols.NameOfFunc(target), target)))
			ip += 2
		case vmEXEC0, vmEXEC1, vmEXEC2, vmEXEC3, vmEXEC4:
			target := words[ip+1]
			out = append(out, fmt.Sprintf("0x%04x: %-6s %s", ip, name, symOrHex(e.symbols.NameOfAddr(target), target)))
			ip += 2
		case vmMOV:
			out = append(out, fmt.Sprintf("0x%04x: %-6s r%d, r%d", ip, name, vmDecodeF1(op), vmDecodeF2(op)))
			ip++
		case vmMOV16, vmMOVHI:
			out = append(out, fmt.Sprintf("0x%04x: %-6s r%d, 0x%x", ip, name, vmDecodeF1(op), vmDecodeF23(op)))
			ip++
		case vmPUSH, vmPOP:
			out = append(out, fmt.Sprintf("0x%04x: %-6s r%d", ip, name, vmDecodeF1(op)))
			ip++
		case vmRET:
			// one word per ret: the final ret ends the rendering
			out = append(out, fmt.Sprintf("0x%04x: %-6s", ip, name))
			return out
		default:
			out = append(out, fmt.Sprintf("0x%04x: ??? (0x%08x)", ip, op))
			ip++
		}
	}
	return out
}

func symOrHex(name string, v uint32) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("0x%x", v)
}
