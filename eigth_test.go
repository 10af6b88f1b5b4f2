package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineTestCases []engineTestCase

func (ets engineTestCases) run(t *testing.T) {
	for _, et := range ets {
		if !t.Run(et.name, et.run) {
			return
		}
	}
}

func eigthTest(name string) (et engineTestCase) {
	et.name = name
	return et
}

type engineTestCase struct {
	name     string
	opts     []EngineOption
	input    string
	expect   []func(t *testing.T, e *Engine, out string)
	checkErr func(t *testing.T, err error)
}

func (et engineTestCase) withOptions(opts ...EngineOption) engineTestCase {
	et.opts = append(et.opts, opts...)
	return et
}

func (et engineTestCase) withInput(lines ...string) engineTestCase {
	et.input = strings.Join(lines, "\n") + "\n"
	return et
}

func (et engineTestCase) expectOutput(lines ...string) engineTestCase {
	want := ""
	if len(lines) > 0 {
		want = strings.Join(lines, "\n") + "\n"
	}
	et.expect = append(et.expect, func(t *testing.T, e *Engine, out string) {
		assert.Equal(t, want, out, "expected output")
	})
	return et
}

func (et engineTestCase) expectRegister(i uint32, v uint32) engineTestCase {
	et.expect = append(et.expect, func(t *testing.T, e *Engine, out string) {
		assert.Equal(t, v, e.regs.Get(i), "expected r%d", i)
	})
	return et
}

func (et engineTestCase) expectSymbol(name string, kind SymbolKind) engineTestCase {
	et.expect = append(et.expect, func(t *testing.T, e *Engine, out string) {
		sym := e.symbols.Lookup(name)
		if assert.NotNil(t, sym, "expected symbol %q", name) {
			assert.Equal(t, kind, sym.Kind, "expected kind of %q", name)
		}
	})
	return et
}

func (et engineTestCase) expectError(substr string) engineTestCase {
	et.checkErr = func(t *testing.T, err error) {
		if assert.Error(t, err, "expected a run error") {
			assert.Contains(t, err.Error(), substr, "expected error content")
		}
	}
	return et
}

func (et engineTestCase) expectExit(code int) engineTestCase {
	et.checkErr = func(t *testing.T, err error) {
		var ex exitStatus
		if assert.True(t, errors.As(err, &ex), "expected an exit status, got %v", err) {
			assert.Equal(t, code, ex.code, "expected exit code")
		}
	}
	return et
}

func (et engineTestCase) run(t *testing.T) {
	var out bytes.Buffer
	opts := append([]EngineOption{WithBackend("vm")}, et.opts...)
	opts = append(opts,
		WithInput(strings.NewReader(et.input)),
		WithOutput(&out))
	e, err := New(opts...)
	require.NoError(t, err, "unexpected construction error")
	defer e.Close()

	err = e.Run(context.Background())
	if et.checkErr != nil {
		et.checkErr(t, err)
	} else {
		require.NoError(t, err, "unexpected run error")
	}
	for _, expect := range et.expect {
		expect(t, e, out.String())
	}
}

func Test_Engine(t *testing.T) {
	engineTestCases{
		eigthTest("print decimal").
			withInput(`print 42`).
			expectOutput(`42`),

		eigthTest("hex output has no prefix").
			withInput(`hex 0x2a`).
			expectOutput(`2a`),

		eigthTest("octal and negative literals").
			withInput(
				`print 010`,
				`print -3`,
			).
			expectOutput(`8`, `-3`),

		eigthTest("character literals").
			withInput(
				`print 'A'`,
				`putc 'h'`,
				`putc 'i'`,
				"putc '\\n'",
			).
			expectOutput(`65`, `hi`),

		eigthTest("comments and blank lines").
			withInput(
				`# leading comment`,
				``,
				`print 3 # trailing comment`,
			).
			expectOutput(`3`),

		eigthTest("mov into a register").
			withInput(`mov r5, 99`).
			expectRegister(5, 99),

		eigthTest("arithmetic leaves results in the named register").
			withInput(
				`mov r0, 6`,
				`mul r0, r0, 7`,
				`print r0`,
				`sub r1, r0, 2`,
				`print r1`,
				`div r2, -7, 2`,
				`print r2`,
			).
			expectOutput(`42`, `40`, `-3`),

		eigthTest("a result with no register destination lands in r0").
			withInput(
				`add 0, 20, 22`,
				`print r0`,
			).
			expectOutput(`42`),

		// the 31-bit shift ops carry bit 31 separately and re-deposit it
		// at 31-n; pin that odd behavior exactly
		eigthTest("shr carries the top bit").
			withInput(
				`shr r0, 0x80000000, 4`,
				`hex r0`,
			).
			expectOutput(`8000000`),
		eigthTest("shra smears the top bit").
			withInput(
				`shra r0, 0x80000000, 4`,
				`hex r0`,
			).
			expectOutput(`f8000000`),
		eigthTest("shr of a positive value is a plain shift").
			withInput(
				`shr r0, 0x60, 4`,
				`print r0`,
			).
			expectOutput(`6`),

		eigthTest("define and call a squaring word").
			withInput(
				`define square r0`,
				`use r0`,
				`begin`,
				`mul r0, r0, r0`,
				`end`,
				`square 7`,
				`print r0`,
			).
			expectOutput(`49`).
			expectSymbol("square", ExecPtr),

		eigthTest("one-line define").
			withInput(
				`define square r0 use r0 begin mul r0, r0, r0 end`,
				`square 7`,
				`print r0`,
			).
			expectOutput(`49`),

		eigthTest("two-argument word").
			withInput(
				`define addtwo r0 r1 use r0 begin add r0, r0, r1 end`,
				`addtwo 40, 2`,
				`print r0`,
			).
			expectOutput(`42`),

		eigthTest("word call with a register destination").
			withInput(
				`define square r0 use r0 begin mul r0, r0, r0 end`,
				`mov r3, 9`,
				`square r3`,
				`print r3`,
			).
			expectOutput(`81`),

		eigthTest("clobbered registers are restored across a call").
			withInput(
				`mov r3, 7`,
				`mov r0, 1`,
				`mov r1, 5`,
				`define clob r0 use r3 begin mov r3, 99 end`,
				`clob r1`,
				`print r0`,
				`print r3`,
				`print r1`,
			).
			expectOutput(`1`, `7`, `5`),

		eigthTest("countdown while loop").
			withInput(
				`define countdown r0 begin while r0 > 0 print r0 sub r0, r0, 1 end end`,
				`countdown 3`,
			).
			expectOutput(`3`, `2`, `1`),

		eigthTest("nested if inside while").
			withInput(
				`define evens r0 use r0 use r1 begin while r0 > 0 sub r0, r0, 1 and r1, r0, 1 if r1 == 0 print r0 end end end`,
				`evens 5`,
			).
			expectOutput(`4`, `2`, `0`),

		eigthTest("if over a register with else").
			withInput(
				`mov r0, 1`,
				`mov r1, 2`,
				`if r0 == r1 print 1 else print 2 end`,
				`if r0 != r1 print 3 else print 4 end`,
			).
			expectOutput(`2`, `3`),

		eigthTest("bare register condition is a non-zero test").
			withInput(
				`mov r0, 5`,
				`if r0 print 1 end`,
				`mov r0, 0`,
				`if r0 print 2 end`,
			).
			expectOutput(`1`),

		eigthTest("unsigned vs signed comparison").
			withInput(
				`mov r0, 0xffffffff`,
				`mov r1, 1`,
				`if r0 u> r1 print 1 end`,
				`if r0 > r1 else print 2 end`,
			).
			expectOutput(`1`, `2`),

		eigthTest("if 0 folds to the else branch").
			withInput(`if 0 exit 1 else print 7 end`).
			expectOutput(`7`),

		eigthTest("if 1 folds to the then branch").
			withInput(`if 1 print 8 else exit 1 end`).
			expectOutput(`8`),

		eigthTest("if 0 comments a block out of a definition").
			withInput(
				`define f r0 use r0 begin if 0 add r0, r0, 1 end end`,
				`f 5`,
				`print r0`,
			).
			expectOutput(`5`),

		eigthTest("var reads through its cell").
			withInput(
				`var x 100`,
				`x`,
				`print r0`,
			).
			expectOutput(`100`).
			expectSymbol("x", ExecPtr).
			expectSymbol("&x", Constant),

		eigthTest("var reflects writes through its address").
			withInput(
				`var x 100`,
				`stw &x, 0, 55`,
				`x`,
				`print r0`,
			).
			expectOutput(`55`),

		eigthTest("const binds the bare name").
			withInput(
				`const answer 42`,
				`print answer`,
			).
			expectOutput(`42`).
			expectSymbol("answer", Constant),

		eigthTest("array cells load and store").
			withInput(
				`array tbl 4`,
				`stw &tbl, 1, 7`,
				`ldw r0, &tbl, 1`,
				`print r0`,
				`ldw r0, &tbl, 0`,
				`print r0`,
			).
			expectOutput(`7`, `0`),

		eigthTest("bytes reserves zeroed storage").
			withInput(
				`bytes buf 10`,
				`ldw r0, &buf, 2`,
				`print r0`,
			).
			expectOutput(`0`).
			expectSymbol("&buf", Constant),

		eigthTest("string allocates and puts prints it").
			withInput(
				`string greet "hello, world"`,
				`puts &greet`,
			).
			expectOutput(`hello, world`),

		eigthTest("string escapes decode").
			withInput(
				`string s "a\tb"`,
				`puts &s`,
			).
			expectOutput("a\tb"),

		eigthTest("alloc hands out usable cells").
			withInput(
				`alloc r0, 1`,
				`stw r0, 0, 9`,
				`ldw r1, r0, 0`,
				`print r1`,
			).
			expectOutput(`9`),

		eigthTest("assert passes on equal operands").
			withInput(
				`assert 3, 3`,
				`print 1`,
			).
			expectOutput(`1`),

		eigthTest("assert mismatch is fatal with hex operands").
			withInput(`assert 1, 2`).
			expectError("assertion failed: 0x1 != 0x2"),

		eigthTest("exit stops with the requested status").
			withInput(
				`exit 3`,
				`print 1`,
			).
			expectExit(3).
			expectOutput(),

		eigthTest("exit 0 is a clean stop").
			withInput(
				`exit 0`,
				`print 1`,
			).
			expectOutput(),

		eigthTest("unknown top-level symbol warns and continues").
			withInput(
				`frobnicate 1`,
				`print 5`,
			).
			expectOutput(`5`),

		eigthTest("unknown symbol inside a definition is fatal").
			withInput(`define f begin frobnicate end`).
			expectError(`bad symbol "frobnicate"`),

		eigthTest("unterminated definition is fatal").
			withInput(
				`define f begin`,
				`print 1`,
			).
			expectError("unexpected EOF"),

		eigthTest("redefinition shadows").
			withInput(
				`define f begin print 1 end`,
				`define f begin print 2 end`,
				`f`,
			).
			expectOutput(`2`),

		eigthTest("a word calling an earlier word").
			withInput(
				`define square r0 use r0 begin mul r0, r0, r0 end`,
				`define fourth r0 use r0 begin square r0 square r0 end`,
				`fourth 3`,
				`print r0`,
			).
			expectOutput(`81`),

		eigthTest("bad register index is not an operand").
			withInput(
				`mov r0, r9`,
				`print 4`,
			).
			expectOutput(`4`),

		eigthTest("32-bit immediates round-trip").
			withInput(
				`mov r0, 0xdeadbeef`,
				`hex r0`,
				`print 0x12345678`,
			).
			expectOutput(`deadbeef`, `305419896`),

		eigthTest("us and dump and words run").
			withInput(
				`us r0`,
				`dump`,
				`words`,
				`print 1`,
			).
			expectOutput(`1`),
	}.run(t)
}

func Test_Engine_diagnostics(t *testing.T) {
	var logs []string
	logf := func(mess string, args ...interface{}) {
		logs = append(logs, fmt.Sprintf(mess, args...))
	}

	eigthTest("bad symbol is logged").
		withOptions(WithLogf(logf)).
		withInput(
			`frobnicate 1`,
			`print 5`,
		).
		expectOutput(`5`).
		run(t)

	require.NotEmpty(t, logs, "expected a diagnostic")
	assert.Contains(t, strings.Join(logs, "\n"), `bad symbol "frobnicate"`)
}

func Test_Engine_disassemble(t *testing.T) {
	var out bytes.Buffer
	e, err := New(
		WithBackend("vm"),
		WithInput(strings.NewReader("define square r0 use r0 begin mul r0, r0, r0 end\n")),
		WithOutput(&out),
	)
	require.NoError(t, err)
	defer e.Close()
	require.NoError(t, e.Run(context.Background()))

	sym := e.symbols.Lookup("square")
	require.NotNil(t, sym)
	require.Equal(t, ExecPtr, sym.Kind)

	lines := e.Disassemble(sym.Addr, uint32(e.store.Len()))
	require.NotEmpty(t, lines)
	text := strings.Join(lines, "\n")
	assert.Contains(t, text, "push", "expected the clobber spill")
	assert.Contains(t, text, "mul", "expected the call target to resolve by name")
	assert.Contains(t, text, "ret", "expected the epilogue")
}

func Test_Engine_canary(t *testing.T) {
	e, err := New(WithBackend("vm"))
	require.NoError(t, err)
	defer e.Close()

	e.store.Words()[defaultOOBWords-1] = 0xbad
	assert.Panics(t, func() { e.arena.CheckCanary() })
}
