package main

import "fmt"

// parseComparison reads "op1 [relop op2]": a bare operand means CMPNZ,
// an operator token selects one of the ten explicit relations and
// requires a second operand.
func (e *Engine) parseComparison() (Compare, error) {
	op1, ok, err := e.parseOperand()
	if err != nil {
		return Compare{}, err
	}
	if !ok {
		return Compare{}, fmt.Errorf("expected a comparison operand")
	}

	tok, err := e.nextToken()
	if err != nil {
		return Compare{}, err
	}
	if tok == "" {
		e.lex.ReadByteRaw()
		return Compare{Op1: op1, Rel: CMPNZ}, nil
	}
	rel, isRel := relOpTokens[tok]
	if !isRel {
		// not an operator: an implicit non-zero test, and the token is
		// the first of the guarded block
		e.pushTok(tok)
		return Compare{Op1: op1, Rel: CMPNZ}, nil
	}
	op2, ok, err := e.parseOperand()
	if err != nil {
		return Compare{}, err
	}
	if !ok {
		return Compare{}, fmt.Errorf("expected a second comparison operand")
	}
	return Compare{Op1: op1, Rel: rel, Op2: op2}, nil
}

// evalCompare evaluates a Compare at compile time, used only by the
// constant-fold path in parseIf, which requires both operands (when the
// relation isn't CMPNZ) to already be Immediate.
func evalCompare(cmp Compare) bool {
	a := cmp.Op1.Value
	var b uint32
	if cmp.Rel != CMPNZ {
		if cmp.Op2.Type != Immediate {
			panic(fmt.Errorf("eigth: cannot constant-fold `if %v %v r...` -- second operand is not an immediate", cmp.Op1, cmp.Rel))
		}
		b = cmp.Op2.Value
	}
	switch cmp.Rel {
	case CMPNZ:
		return a != 0
	case EQ:
		return a == b
	case NE:
		return a != b
	case LT:
		return int32(a) < int32(b)
	case GT:
		return int32(a) > int32(b)
	case LTEQ:
		return int32(a) <= int32(b)
	case GTEQ:
		return int32(a) >= int32(b)
	case LTU:
		return a < b
	case GTU:
		return a > b
	case LTEU:
		return a <= b
	case GTEU:
		return a >= b
	default:
		panic("eigth: unreachable relop")
	}
}

// parseIf implements the `if` immediate: a Register op1
// emits a real conditional branch; an Immediate op1 takes the
// constant-fold path, parsing (and discarding, or keeping) blocks purely
// at compile time via the current emitter's Truncate.
func parseIf(e *Engine) error {
	cmp, err := e.parseComparison()
	if err != nil {
		return err
	}
	em := e.curEmitter
	b := e.backend

	if cmp.Op1.Type == Immediate {
		cond := evalCompare(cmp)
		mark := em.Pos()
		if cond {
			end, err := e.parseBlockBody(em)
			if err != nil {
				return err
			}
			if end == blockEndElse {
				elseMark := em.Pos()
				if _, err := e.parseBlockBody(em); err != nil {
					return err
				}
				em.Truncate(elseMark)
			}
			return nil
		}
		end, err := e.parseBlockBody(em)
		if err != nil {
			return err
		}
		em.Truncate(mark)
		if end == blockEndElse {
			if _, err := e.parseBlockBody(em); err != nil {
				return err
			}
		}
		return nil
	}

	fixup := b.AssembleIf(em, cmp)
	end, err := e.parseBlockBody(em)
	if err != nil {
		return err
	}
	if end == blockEndElse {
		elseFixup := b.AssembleElse(em, fixup)
		if _, err := e.parseBlockBody(em); err != nil {
			return err
		}
		b.FixupIf(em, elseFixup)
	} else {
		b.FixupIf(em, fixup)
	}
	return nil
}

// parseWhile implements the `while` immediate.
func parseWhile(e *Engine) error {
	em := e.curEmitter
	loopTop := em.Pos()
	cmp, err := e.parseComparison()
	if err != nil {
		return err
	}
	fixup := e.backend.AssembleWhile(em, cmp)
	if end, err := e.parseBlockBody(em); err != nil {
		return err
	} else if end == blockEndElse {
		return fmt.Errorf("while: `else` not allowed in a while body")
	}
	e.backend.AssembleEndWhile(em, loopTop, fixup)
	return nil
}

// parseDefine implements `define`: reads the new word's name+signature,
// the `use rN` clobber declarations, then the body up to `end`, always
// compiling into the persistent arena regardless of where `define` itself
// was invoked from.
func parseDefine(e *Engine) error {
	sig, err := e.parseSignature()
	if err != nil {
		return err
	}

	mainEm := mainEmitter{e.arena}
	addr := mainEm.Pos()
	sym := &Symbol{Name: sig.Opcode, Kind: ExecPtr, Addr: addr}
	e.symbols.Add(sym)
	sig.Sym = sym

	var clobbers uint8
clobberLoop:
	for {
		tok, err := e.nextToken()
		if err != nil {
			return err
		}
		switch tok {
		case "":
			e.lex.ReadByteRaw()
		case "begin":
			break clobberLoop
		case "use":
			for {
				op, ok, err := e.parseOperand()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				if op.Type != Register {
					return fmt.Errorf("define: 'use' wants registers, got %v", op)
				}
				clobbers |= 1 << op.Value
			}
		default:
			return fmt.Errorf("define: expected 'use' or 'begin', got %q", tok)
		}
	}

	e.backend.AssemblePreamble(mainEm, sig, clobbers)
	end, err := e.parseBlockBody(mainEm)
	if err != nil {
		return err
	}
	if end == blockEndElse {
		return fmt.Errorf("define: `else` not allowed directly in a word body")
	}
	e.backend.AssemblePostamble(mainEm, sig, clobbers)
	e.arena.SyncCode(addr, mainEm.Pos())
	return nil
}

// parseSignature reads "name [r? r? ...]", the pseudo-command `define`
// reads to learn the new word's name and parameter registers. The operand
// list ends at a newline or at a `use`/`begin` keyword, which stays pushed
// back for the clobber loop.
func (e *Engine) parseSignature() (*Command, error) {
	name, err := e.nextToken()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("define: expected a word name")
	}
	cmd := &Command{Opcode: name}
	for i := 0; i < 4; i++ {
		op, ok, err := e.parseOperand()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		cmd.Operand[i] = op
	}
	return cmd, nil
}

// parseNameAndCount reads "name N\n", shared by var/array/bytes/const.
func (e *Engine) parseNameAndCount() (name string, n uint32, err error) {
	name, err = e.nextToken()
	if err != nil {
		return "", 0, err
	}
	if name == "" {
		return "", 0, fmt.Errorf("expected a name")
	}
	op, ok, err := e.parseOperand()
	if err != nil {
		return "", 0, err
	}
	if !ok || op.Type != Immediate {
		return "", 0, fmt.Errorf("%s: expected a numeric size/initializer", name)
	}
	if err := e.endOfCommand(); err != nil {
		return "", 0, err
	}
	return name, op.Value, nil
}

// bindAddrWord compiles the tiny load-through-address word
// `{mov arg0, cell; ldw arg0, arg0, 0}` bound to name as an ExecPtr, and binds
// &name as a Constant holding cell's address, so code can mutate the cell
// through stw and observe the change on the next `name` read. mov/ldw are
// ordinary FuncPtr builtins, so this reuses
// AssembleWord rather than adding a new Encoder primitive.
func (e *Engine) bindAddrWord(name string, cell uint32) {
	mainEm := mainEmitter{e.arena}
	addr := mainEm.Pos()

	e.backend.AssemblePreamble(mainEm, nil, 0)

	movCmd := &Command{
		Opcode: "mov", Sym: e.symbols.Lookup("mov"),
		Operand: [4]Operand{{Argument, 0}, {Immediate, cell}},
	}
	e.backend.AssembleWord(mainEm, movCmd)

	ldwCmd := &Command{
		Opcode: "ldw", Sym: e.symbols.Lookup("ldw"),
		Operand: [4]Operand{{Argument, 0}, {Argument, 0}, {Immediate, 0}},
	}
	e.backend.AssembleWord(mainEm, ldwCmd)

	e.backend.AssemblePostamble(mainEm, nil, 0)

	e.symbols.Add(&Symbol{Name: name, Kind: ExecPtr, Addr: addr})
	e.symbols.Add(&Symbol{Name: "&" + name, Kind: Constant, Val: cell})
	e.arena.SyncCode(addr, mainEm.Pos())
}

// parseVar implements `var name N`.
func parseVar(e *Engine) error {
	name, n, err := e.parseNameAndCount()
	if err != nil {
		return err
	}
	cell := e.arena.Alloc(1)
	e.arena.Emit(cell, n)
	e.bindAddrWord(name, cell)
	return nil
}

// parseArray implements `array name N`: N zero-filled cells, &name bound.
func parseArray(e *Engine) error {
	name, n, err := e.parseNameAndCount()
	if err != nil {
		return err
	}
	base := e.arena.Alloc(n)
	for i := uint32(0); i < n; i++ {
		e.arena.Emit(base+i, 0)
	}
	e.symbols.Add(&Symbol{Name: "&" + name, Kind: Constant, Val: base})
	return nil
}

// parseBytes implements `bytes name N`: N zero-filled bytes, &name bound.
func parseBytes(e *Engine) error {
	name, n, err := e.parseNameAndCount()
	if err != nil {
		return err
	}
	base := e.arena.AllocBytes(n)
	words := (n + 3) / 4
	for i := uint32(0); i < words; i++ {
		e.arena.Emit(base+i, 0)
	}
	e.symbols.Add(&Symbol{Name: "&" + name, Kind: Constant, Val: base})
	return nil
}

// parseString implements `string name "…"`: NUL-terminated byte storage
// with the lexer's backslash-escape decoding already applied.
func parseString(e *Engine) error {
	name, err := e.nextToken()
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("string: expected a name")
	}
	if err := e.lex.skipWhitespace(); err != nil {
		return err
	}
	b, err := e.lex.ReadByteRaw()
	if err != nil || b != '"' {
		return fmt.Errorf("string: expected a quoted literal")
	}
	s, err := e.lex.QuotedString()
	if err != nil {
		return err
	}
	if err := e.endOfCommand(); err != nil {
		return err
	}

	n := uint32(len(s) + 1)
	base := e.arena.AllocBytes(n)
	words := (n + 3) / 4
	store := e.arena.store.Words()
	for i := uint32(0); i < words; i++ {
		store[base+i] = 0
	}
	for i := 0; i < len(s); i++ {
		wi, shift := i/4, uint((i%4)*8)
		store[base+uint32(wi)] |= uint32(s[i]) << shift
	}
	e.symbols.Add(&Symbol{Name: "&" + name, Kind: Constant, Val: base})
	return nil
}

// parseConst implements `const name N`: binds name itself, not &name.
func parseConst(e *Engine) error {
	name, n, err := e.parseNameAndCount()
	if err != nil {
		return err
	}
	e.symbols.Add(&Symbol{Name: name, Kind: Constant, Val: n})
	return nil
}

// parseDisassemble implements `disassemble name`.
func parseDisassemble(e *Engine) error {
	name, err := e.nextToken()
	if err != nil {
		return err
	}
	if err := e.endOfCommand(); err != nil {
		return err
	}
	sym := e.symbols.Lookup(name)
	if sym == nil || sym.Kind != ExecPtr {
		e.Core.logf("!", "disassemble: %q is not a defined word", name)
		return nil
	}
	for _, line := range e.Disassemble(sym.Addr, uint32(e.store.Len())) {
		e.Core.logf("D", "%s", line)
	}
	return nil
}
