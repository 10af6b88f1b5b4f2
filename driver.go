package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// blockEnd is which delimiter terminated a parsed block of commands.
type blockEnd int

const (
	blockEndPlain blockEnd = iota
	blockEndElse
)

// nextToken returns the parser's one pushed-back token if present, else the
// lexer's next token. Token pushback is what lets operand lists end at a
// non-operand token (`end`, `use`, `begin`, a relop) without a dedicated
// line per keyword: the keyword goes back and the surrounding construct
// reads it as its own.
func (e *Engine) nextToken() (string, error) {
	if t := e.pendingTok; t != "" {
		e.pendingTok = ""
		return t, nil
	}
	return e.lex.Token()
}

func (e *Engine) pushTok(t string) { e.pendingTok = t }

// parseOperand reads one operand: a quoted character literal, a register
// reference, an argument reference, a numeric immediate, or a Constant
// symbol's value. ok is false at a blank/line-ending token or at a token
// that classifies as none of the above; a non-operand token is pushed back
// for the caller, terminating the operand list without consuming it.
func (e *Engine) parseOperand() (op Operand, ok bool, err error) {
	if e.pendingTok == "" {
		if err := e.lex.skipWhitespace(); err != nil {
			if err == io.EOF {
				return Operand{}, false, io.ErrUnexpectedEOF
			}
			return Operand{}, false, err
		}
		if b, err := e.lex.PeekByte(); err == nil && b == '\'' {
			e.lex.ReadByteRaw()
			ch, err := e.lex.QuotedChar()
			if err != nil {
				return Operand{}, false, err
			}
			return Operand{Type: Immediate, Value: uint32(ch)}, true, nil
		}
	}

	tok, err := e.nextToken()
	if err != nil {
		return Operand{}, false, err
	}
	if tok == "" {
		return Operand{}, false, nil
	}
	if n, ok := matchPrefixNum(tok, "r", 8); ok {
		return Operand{Type: Register, Value: n}, true, nil
	}
	if n, ok := matchPrefixNum(tok, "arg", 4); ok {
		return Operand{Type: Argument, Value: n}, true, nil
	}
	if v, ok := parseNumberLiteral(tok); ok {
		return Operand{Type: Immediate, Value: v}, true, nil
	}
	if sym := e.symbols.Lookup(tok); sym != nil && sym.Kind == Constant {
		return Operand{Type: Immediate, Value: sym.Val}, true, nil
	}
	e.pushTok(tok)
	return Operand{}, false, nil
}

// matchPrefixNum matches tok against prefix followed by a decimal number
// less than limit (used for r0..r7 and arg0..arg3).
func matchPrefixNum(tok, prefix string, limit uint32) (uint32, bool) {
	if !strings.HasPrefix(tok, prefix) || len(tok) == len(prefix) {
		return 0, false
	}
	digits := tok[len(prefix):]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil || uint32(n) >= limit {
		return 0, false
	}
	return uint32(n), true
}

// parseNumberLiteral parses a C-style integer literal (0x hex, leading-0
// octal, else decimal) with strtoll(..., 0) semantics, truncated to 32
// bits.
func parseNumberLiteral(tok string) (uint32, bool) {
	if tok == "" || (tok[0] < '0' || tok[0] > '9') && tok[0] != '-' {
		return 0, false
	}
	n, err := strconv.ParseInt(tok, 0, 64)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// blockKeyword reports whether tok delimits a construct rather than naming
// a command: such a token may legitimately trail a command on the same
// line.
func blockKeyword(tok string) bool {
	switch tok {
	case "end", "else", "begin", "use":
		return true
	}
	return false
}

// endOfCommand consumes the newline ending an immediate word's argument
// list. A trailing block keyword is left pushed back for the enclosing
// block; any other trailing token is a syntax error.
func (e *Engine) endOfCommand() error {
	tok, err := e.nextToken()
	if err != nil {
		return err
	}
	if tok == "" {
		e.lex.ReadByteRaw()
		return nil
	}
	if blockKeyword(tok) {
		e.pushTok(tok)
		return nil
	}
	return fmt.Errorf("trailing %q", tok)
}

// readCommand reads one opcode token and, for non-immediate symbols, its
// operand list and terminating newline. A nil Command with a nil error
// means a blank or discarded line (caller should just loop).
func (e *Engine) readCommand() (*Command, error) {
	tok, err := e.nextToken()
	if err != nil {
		return nil, err
	}
	if tok == "" {
		// blank line: consume the pending newline and go around
		e.lex.ReadByteRaw()
		return nil, nil
	}
	return e.buildCommand(tok)
}

func (e *Engine) buildCommand(tok string) (*Command, error) {
	sym := e.symbols.Lookup(tok)
	if sym == nil {
		if e.blockDepth > 0 {
			return nil, fmt.Errorf("bad symbol %q in definition", tok)
		}
		e.Core.logf("!", "bad symbol %q", tok)
		if err := e.lex.skipToNewline(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	cmd := &Command{Opcode: tok, Sym: sym}
	if sym.Kind == WordPtr {
		return cmd, nil
	}

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
	if e.blockDepth > 0 {
		// inside a block commands pack freely onto one line; whatever
		// token stopped the operand scan begins the next command (or is
		// the block's own delimiter), so no line-end check here
		return cmd, nil
	}
	if pend := e.pendingTok; pend != "" {
		if blockKeyword(pend) {
			// `mul r0, r0, r0 end` -- the keyword belongs to the
			// enclosing block, so the line needn't end here
			return cmd, nil
		}
		e.pendingTok = ""
		e.Core.logf("!", "bad command %q: trailing %q", tok, pend)
		if err := e.lex.skipToNewline(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err := e.lex.ConsumeLineEnd(); err != nil {
		if err == errBadCommand {
			e.Core.logf("!", "bad command %q: expected end of line", tok)
			return nil, nil
		}
		return nil, err
	}
	return cmd, nil
}

// runThunk assembles a one-shot {preamble; word; postamble} thunk into
// the out-of-band area and runs it through whichever backend is active.
// Used for every non-immediate top-level command.
func (e *Engine) runThunk(cmd *Command) {
	e.arena.CheckCanary()
	em := oobEmitter{e.arena}
	start := em.Pos()
	// empty clobber set: the register file is the interactive state, so
	// a top-level command's register effects must stay visible
	e.backend.AssemblePreamble(em, nil, 0)
	e.backend.AssembleWord(em, cmd)
	if cmd.Operand[0].Type != Register {
		// no destination named: the result lands in r0
		e.backend.AssembleResult(em)
	}
	e.backend.AssemblePostamble(em, nil, 0)
	e.arena.SyncCode(0, em.Pos())
	e.backend.Execute(e, start)
	e.arena.CheckCanary()
}

// callImmediate invokes a WordPtr symbol's builtin directly: a plain Go
// call, not a compiled CALL instruction. Immediate words take no real
// arguments -- their job is to keep driving the parser, appending to
// whatever e.curEmitter currently points at.
func (e *Engine) callImmediate(cmd *Command) {
	e.builtins[cmd.Sym.FuncIndex].Fn(e, [4]uint32{})
}

// runTopLevelCommand dispatches one top-level command: non-immediate
// commands get the usual OOB thunk; immediates run directly, emitting
// their generated code (if any) straight into the OOB area, which is then
// executed once the immediate returns -- this is how a bare `if`/`while`
// typed at the prompt takes effect immediately.
func (e *Engine) runTopLevelCommand(cmd *Command) {
	if e.trace {
		e.Core.logf("T", "%v", cmd)
	}
	if cmd.Sym.Kind != WordPtr {
		e.runThunk(cmd)
		return
	}

	em := oobEmitter{e.arena}
	prev := e.curEmitter
	e.curEmitter = em
	e.backend.AssemblePreamble(em, nil, 0)
	mark := em.Pos()
	e.callImmediate(cmd)
	e.curEmitter = prev

	if em.Pos() > mark {
		e.backend.AssemblePostamble(em, nil, 0)
		e.arena.SyncCode(0, em.Pos())
		e.backend.Execute(e, 0)
	}
	e.arena.CheckCanary()
}

// parseBlockBody parses commands into em until `end` or `else`,
// compiling non-immediate commands directly into em and running
// immediates as they're encountered.
func (e *Engine) parseBlockBody(em Emitter) (blockEnd, error) {
	prevEm := e.curEmitter
	e.curEmitter = em
	e.blockDepth++
	defer func() {
		e.curEmitter = prevEm
		e.blockDepth--
	}()

	for {
		tok, err := e.nextToken()
		if err == io.EOF {
			return blockEndPlain, io.ErrUnexpectedEOF
		}
		if err != nil {
			return blockEndPlain, err
		}
		if tok == "" {
			e.lex.ReadByteRaw()
			continue
		}
		if tok == "end" {
			return blockEndPlain, nil
		}
		if tok == "else" {
			return blockEndElse, nil
		}

		cmd, err := e.buildCommand(tok)
		if err != nil {
			return blockEndPlain, err
		}
		if cmd == nil {
			continue
		}
		if cmd.Sym.Kind == WordPtr {
			e.callImmediate(cmd)
			continue
		}
		e.backend.AssembleWord(em, cmd)
	}
}

// ParseTopLevel runs the interactive read loop until EOF at a command
// boundary, which ends the loop cleanly.
func (e *Engine) ParseTopLevel(lex *Lexer) error {
	e.lex = lex
	for {
		e.arena.OOBReset()
		e.arena.CheckCanary()
		cmd, err := e.readCommand()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if cmd == nil {
			continue
		}
		e.runTopLevelCommand(cmd)
	}
}
