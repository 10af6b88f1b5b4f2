package main

import "fmt"

// SymbolKind distinguishes the five things a name can resolve to.
type SymbolKind int

const (
	// FuncPtr is a host (Go) routine invoked through the calling
	// convention, e.g. add, mov, puts.
	FuncPtr SymbolKind = iota
	// WordPtr is an "immediate word": rather than being compiled into
	// the current word, it runs immediately, during parsing, as a direct
	// Go call from the parse loop (define, if, while, var, array, bytes,
	// string, const, disassemble).
	WordPtr
	// ExecPtr is a previously-defined, compiled word: a real address in
	// the arena to branch/call into.
	ExecPtr
	// Variable names an arena cell. No builtin creates one: `var` binds
	// an ExecPtr word and an `&name` Constant instead.
	Variable
	// Constant binds a name directly to a value, never an address.
	Constant
)

func (k SymbolKind) String() string {
	switch k {
	case FuncPtr:
		return "FuncPtr"
	case WordPtr:
		return "WordPtr"
	case ExecPtr:
		return "ExecPtr"
	case Variable:
		return "Variable"
	case Constant:
		return "Constant"
	default:
		return "invalid"
	}
}

// Symbol is one entry in the symbol table: a name bound to either a host
// function, a compiled-code address, or a plain value.
type Symbol struct {
	Name string
	Kind SymbolKind

	// FuncIndex is set for FuncPtr/WordPtr symbols: an index into the
	// Engine's builtin table. Bytecode and native calls encode this
	// directly as their call-target word; an index stays valid in a
	// 32-bit word where a host function pointer would not.
	FuncIndex uint32
	// Addr is set for ExecPtr/Variable symbols: an arena word index.
	Addr uint32
	// Val is set for Constant symbols.
	Val uint32

	next *Symbol
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("{ %q, %v, 0x%x }", s.Name, s.Kind, s.Val)
}

// BuiltinFunc is a host routine reachable through the calling convention:
// up to four 32-bit arguments, one 32-bit return. Immediate (WordPtr)
// builtins ignore args and drive the parser directly from e.
type BuiltinFunc func(e *Engine, args [4]uint32) uint32

// SymbolTable is a singly linked, newest-first list of symbols. Entries are
// never removed: redefining a name shadows the previous binding rather than
// replacing it, so code compiled against the old binding keeps working.
type SymbolTable struct {
	head *Symbol
}

// Add inserts s as the new head of the list, shadowing any existing symbol
// of the same name.
func (t *SymbolTable) Add(s *Symbol) {
	s.next = t.head
	t.head = s
}

// Lookup finds the newest symbol named name, or nil.
func (t *SymbolTable) Lookup(name string) *Symbol {
	for s := t.head; s != nil; s = s.next {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Latest returns the most recently added symbol, or nil if the table is
// empty.
func (t *SymbolTable) Latest() *Symbol { return t.head }

// NameOfFunc reverse-looks-up a builtin table index to the newest symbol
// bound to it, for the disassembler.
func (t *SymbolTable) NameOfFunc(index uint32) string {
	for s := t.head; s != nil; s = s.next {
		if (s.Kind == FuncPtr || s.Kind == WordPtr) && s.FuncIndex == index {
			return s.Name
		}
	}
	return ""
}

// NameOfAddr reverse-looks-up an arena address to the newest symbol bound
// to it, for the disassembler.
func (t *SymbolTable) NameOfAddr(addr uint32) string {
	for s := t.head; s != nil; s = s.next {
		if (s.Kind == ExecPtr || s.Kind == Variable) && s.Addr == addr {
			return s.Name
		}
	}
	return ""
}

// List returns symbol names in definition order (oldest first), matching
// symtab_list's backwards traversal of the newest-first list.
func (t *SymbolTable) List() []string {
	var rev []string
	for s := t.head; s != nil; s = s.next {
		rev = append(rev, s.Name)
	}
	names := make([]string, len(rev))
	for i, n := range rev {
		names[len(rev)-1-i] = n
	}
	return names
}
