package main

// Builtin pairs a host routine with the flag that marks it "immediate":
// an immediate builtin runs during parsing instead of being compiled into
// the word under construction.
type Builtin struct {
	Name      string
	Fn        BuiltinFunc
	Immediate bool
}

// Engine ties together the parser, the symbol table, the arena, and
// whichever code-generation backend was selected, plus the ambient I/O
// and logging bundled in Core.
type Engine struct {
	Core

	arena   *Arena
	store   wordStore
	regs    Registers
	symbols SymbolTable
	backend Encoder

	builtins []Builtin

	// lex is the lexer driving the currently-active top-level read loop.
	// Immediate builtins (define/if/while/var/disassemble) read through
	// it to keep parsing.
	lex *Lexer
	// curEmitter is the Emitter commands are currently being compiled
	// into: the OOB area at top level, or a definition's own position
	// inside the arena while a `define` block is open.
	curEmitter Emitter
	// blockDepth counts open if/while/define blocks; an unknown symbol
	// is a warn-and-skip at depth 0 but fatal inside a block, where
	// skipping would leave half-assembled code behind.
	blockDepth int
	// pendingTok holds the parser's one-token pushback; see nextToken.
	pendingTok string
	// trace echoes each top-level command through the logger.
	trace bool

	// stackWords reserves the top of the arena's word store for the
	// portable VM's PUSH/POP register-save stack, mirroring regs.sp
	// pointing into the same mmap'd region as code and data.
	stackWords uint32
}

// NewEngine wires an arena, register file and builtin table around store
// and backend. oobWords and stackWords both carve reserved space out of
// store: the out-of-band area at the bottom (see Arena), the register-save
// stack at the top.
func NewEngine(store wordStore, oobWords, stackWords uint32, backend Encoder, sync func(from, to int)) (*Engine, error) {
	arena, err := NewArena(store, oobWords, stackWords, sync)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		arena:      arena,
		store:      store,
		backend:    backend,
		stackWords: stackWords,
	}
	e.regs.sp = uint32(store.Len())
	registerBuiltins(e)
	return e, nil
}

// defineBuiltin adds name to the symbol table bound to fn at the next
// free builtin table slot.
func (e *Engine) defineBuiltin(name string, immediate bool, fn BuiltinFunc) {
	idx := uint32(len(e.builtins))
	e.builtins = append(e.builtins, Builtin{Name: name, Fn: fn, Immediate: immediate})
	kind := FuncPtr
	if immediate {
		kind = WordPtr
	}
	e.symbols.Add(&Symbol{Name: name, Kind: kind, FuncIndex: idx})
}

// Disassemble renders the bytecode word range [from, to) using the
// symbol table for call-target names. Only the portable VM backend has a
// disassembler.
func (e *Engine) Disassemble(from, to uint32) []string {
	if e.backend.Name() != "vm" {
		return []string{"<native backend: disassembly unavailable>"}
	}
	return disassembleVM(e, from, to)
}
