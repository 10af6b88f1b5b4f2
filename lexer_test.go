package main

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, input string) (tokens []string) {
	lx := NewLexer(strings.NewReader(input))
	for {
		tok, err := lx.Token()
		if err == io.EOF {
			return tokens
		}
		require.NoError(t, err, "unexpected lex error")
		if tok == "" {
			_, err := lx.ReadByteRaw()
			require.NoError(t, err)
			continue
		}
		tokens = append(tokens, tok)
	}
}

func Test_Lexer_tokens(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  []string
	}{
		{"spaces", "add r0 r1\n", []string{"add", "r0", "r1"}},
		{"commas", "add r0, r1, r2\n", []string{"add", "r0", "r1", "r2"}},
		{"tabs", "add\tr0\tr1\n", []string{"add", "r0", "r1"}},
		{"blank lines", "\n\nadd\n\n", []string{"add"}},
		{"comment line", "# nothing here\nadd\n", []string{"add"}},
		{"trailing comment", "add r0 # rest ignored\nsub\n", []string{"add", "r0", "sub"}},
		{"comma runs", "a,,b\n", []string{"a", "b"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, lexAll(t, tc.input))
		})
	}
}

func Test_Lexer_tokenTruncation(t *testing.T) {
	long := strings.Repeat("x", 50)
	tokens := lexAll(t, long+" y\n")
	require.Len(t, tokens, 2)
	assert.Equal(t, maxTokenLen, len(tokens[0]), "expected a bounded token")
	assert.Equal(t, "y", tokens[1])
}

func Test_Lexer_unexpectedEOF(t *testing.T) {
	lx := NewLexer(strings.NewReader("mid-token"))
	_, err := lx.Token()
	assert.Equal(t, io.ErrUnexpectedEOF, err, "a token cut off by EOF is fatal")

	lx = NewLexer(strings.NewReader("# comment with no newline"))
	_, err = lx.Token()
	assert.Equal(t, io.ErrUnexpectedEOF, err, "a comment cut off by EOF is fatal")
}

func Test_Lexer_quotedChar(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string // after the opening quote
		want  byte
	}{
		{"plain", "c'", 'c'},
		{"newline", "\\n'", '\n'},
		{"tab", "\\t'", '\t'},
		{"return", "\\r'", '\r'},
		{"nul", "\\0'", 0},
		{"quote", "\\''", '\''},
		{"unknown escape passes through", "\\q'", 'q'},
	} {
		t.Run(tc.name, func(t *testing.T) {
			lx := NewLexer(strings.NewReader(tc.input))
			c, err := lx.QuotedChar()
			require.NoError(t, err)
			assert.Equal(t, tc.want, c)
		})
	}

	lx := NewLexer(strings.NewReader("ab'"))
	_, err := lx.QuotedChar()
	assert.Error(t, err, "expected a malformed literal error")
}

func Test_Lexer_quotedString(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string // after the opening quote
		want  string
	}{
		{"plain", `hello"`, "hello"},
		{"escaped quote", `a\"b"`, `a"b`},
		{"escapes", `a\tb\nc"`, "a\tb\nc"},
		{"backslash", `a\\b"`, `a\b`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			lx := NewLexer(strings.NewReader(tc.input))
			s, err := lx.QuotedString()
			require.NoError(t, err)
			assert.Equal(t, tc.want, s)
		})
	}

	lx := NewLexer(strings.NewReader("never closed"))
	_, err := lx.QuotedString()
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func Test_Lexer_consumeLineEnd(t *testing.T) {
	lx := NewLexer(strings.NewReader("  \nnext\n"))
	require.NoError(t, lx.ConsumeLineEnd())
	tok, err := lx.Token()
	require.NoError(t, err)
	assert.Equal(t, "next", tok)

	lx = NewLexer(strings.NewReader("junk here\nnext\n"))
	assert.Equal(t, errBadCommand, lx.ConsumeLineEnd())
	tok, err = lx.Token()
	require.NoError(t, err)
	assert.Equal(t, "next", tok, "the junk line should have been discarded")
}

func Test_parseNumberLiteral(t *testing.T) {
	for _, tc := range []struct {
		tok  string
		want uint32
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"0x2a", 42, true},
		{"010", 8, true},
		{"-3", 0xfffffffd, true},
		{"0xdeadbeef", 0xdeadbeef, true},
		{"4294967296", 0, true}, // 2^32 truncates to 32 bits
		{"nope", 0, false},
		{"", 0, false},
		{"r0", 0, false},
	} {
		got, ok := parseNumberLiteral(tc.tok)
		assert.Equal(t, tc.ok, ok, "parseNumberLiteral(%q) ok", tc.tok)
		if tc.ok {
			assert.Equal(t, tc.want, got, "parseNumberLiteral(%q)", tc.tok)
		}
	}
}

func Test_matchPrefixNum(t *testing.T) {
	for _, tc := range []struct {
		tok, prefix string
		limit       uint32
		want        uint32
		ok          bool
	}{
		{"r0", "r", 8, 0, true},
		{"r7", "r", 8, 7, true},
		{"r8", "r", 8, 0, false},
		{"r12", "r", 8, 0, false},
		{"arg3", "arg", 4, 3, true},
		{"arg4", "arg", 4, 0, false},
		{"r", "r", 8, 0, false},
		{"rx", "r", 8, 0, false},
	} {
		got, ok := matchPrefixNum(tc.tok, tc.prefix, tc.limit)
		assert.Equal(t, tc.ok, ok, "matchPrefixNum(%q)", tc.tok)
		if tc.ok {
			assert.Equal(t, tc.want, got, "matchPrefixNum(%q)", tc.tok)
		}
	}
}
