package main

import (
	"fmt"
	"io"
)

// maxTokenLen bounds a bare opcode/operand token; longer tokens are
// truncated rather than rejected.
const maxTokenLen = 31

// Lexer tokenizes the byte stream one command at a time. It understands
// `#` line comments, `,` as additional whitespace (so `mov r0, r1` and
// `mov r0 r1` both lex the same), `"..."` string literals with backslash
// escapes, and `'c'`-style character literals including `'\n'`-style
// escapes. String and character literals are not tokens: they are read by
// dedicated methods at the two call sites that expect them.
type Lexer struct {
	byteReader
}

type byteReader interface {
	ReadByte() (byte, error)
}

// pushbackReader lets the lexer un-read exactly one byte, which is all the
// lookahead command-at-a-time tokenizing needs.
type pushbackReader struct {
	byteReader
	pending byte
	hasPend bool
}

func newPushbackReader(r byteReader) *pushbackReader { return &pushbackReader{byteReader: r} }

func (p *pushbackReader) ReadByte() (byte, error) {
	if p.hasPend {
		p.hasPend = false
		return p.pending, nil
	}
	return p.byteReader.ReadByte()
}

func (p *pushbackReader) unread(b byte) {
	p.pending, p.hasPend = b, true
}

// NewLexer wraps a byte source with pushback.
func NewLexer(r byteReader) *Lexer {
	return &Lexer{byteReader: newPushbackReader(r)}
}

func (lx *Lexer) pushback() *pushbackReader { return lx.byteReader.(*pushbackReader) }

func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', ',':
		return true
	}
	return false
}

func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', ',', '\n':
		return true
	}
	return false
}

// skipWhitespace consumes horizontal whitespace and `#...`-to-end-of-line
// comments, leaving the stream positioned at the first non-blank byte (or
// at the newline that ends a comment).
func (lx *Lexer) skipWhitespace() error {
	pb := lx.pushback()
	for {
		c, err := pb.ReadByte()
		if err != nil {
			return err
		}
		if isWhitespace(c) {
			continue
		}
		if c == '#' {
			if err := lx.skipToNewline(); err != nil {
				return err
			}
			pb.unread('\n')
			return nil
		}
		pb.unread(c)
		return nil
	}
}

func (lx *Lexer) skipToNewline() error {
	pb := lx.pushback()
	for {
		c, err := pb.ReadByte()
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
		if c == '\n' {
			return nil
		}
	}
}

// Token reads the next whitespace/comment-delimited token, bounded to
// maxTokenLen bytes. It returns ("", nil) for an empty token (e.g. a bare
// newline, left unconsumed), io.EOF at a clean token boundary, and
// io.ErrUnexpectedEOF when the stream ends mid-token.
func (lx *Lexer) Token() (string, error) {
	if err := lx.skipWhitespace(); err != nil {
		return "", err
	}

	pb := lx.pushback()
	var buf [maxTokenLen]byte
	n := 0
	for {
		c, err := pb.ReadByte()
		if err == io.EOF {
			return "", io.ErrUnexpectedEOF
		}
		if err != nil {
			return "", err
		}
		if isSeparator(c) {
			pb.unread(c)
			break
		}
		if n < len(buf) {
			buf[n] = c
			n++
		}
	}
	if n == 0 {
		return "", nil
	}
	return string(buf[:n]), nil
}

// ConsumeLineEnd expects (and consumes) the newline ending a command, or
// reports a syntax error after skipping the rest of the line. The stream
// ending before the newline is an unexpected EOF.
func (lx *Lexer) ConsumeLineEnd() error {
	if err := lx.skipWhitespace(); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	pb := lx.pushback()
	c, err := pb.ReadByte()
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	if err != nil {
		return err
	}
	if c != '\n' {
		pb.unread(c)
		if err := lx.skipToNewline(); err != nil {
			return err
		}
		return errBadCommand
	}
	return nil
}

// PeekByte returns the next byte without consuming it.
func (lx *Lexer) PeekByte() (byte, error) {
	pb := lx.pushback()
	c, err := pb.ReadByte()
	if err != nil {
		return 0, err
	}
	pb.unread(c)
	return c, nil
}

// ReadByteRaw consumes and returns the next raw byte, bypassing tokenizing.
func (lx *Lexer) ReadByteRaw() (byte, error) { return lx.pushback().ReadByte() }

var errBadCommand = fmt.Errorf("bad command")

// QuotedString reads a `"..."` literal, assuming the opening quote has
// already been consumed. Backslash escapes decode \n \t \r \0 and pass
// any other escaped byte through literally.
func (lx *Lexer) QuotedString() (string, error) {
	var out []byte
	for {
		c, err := lx.ReadByteRaw()
		if err != nil {
			return "", io.ErrUnexpectedEOF
		}
		if c == '"' {
			return string(out), nil
		}
		if c == '\\' {
			d, err := lx.readEscape()
			if err != nil {
				return "", err
			}
			out = append(out, d)
			continue
		}
		out = append(out, c)
	}
}

// QuotedChar reads a `'c'` literal, assuming the opening quote has already
// been consumed, returning the single decoded byte.
func (lx *Lexer) QuotedChar() (byte, error) {
	c, err := lx.ReadByteRaw()
	if err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	if c == '\\' {
		c, err = lx.readEscape()
		if err != nil {
			return 0, err
		}
	}
	closing, err := lx.ReadByteRaw()
	if err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	if closing != '\'' {
		return 0, fmt.Errorf("eigth: malformed character literal")
	}
	return c, nil
}

func (lx *Lexer) readEscape() (byte, error) {
	c, err := lx.ReadByteRaw()
	if err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\', '\'', '"':
		return c, nil
	default:
		return c, nil
	}
}
