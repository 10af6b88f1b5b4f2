package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/avbrown/eigth/internal/fileinput"
	"github.com/avbrown/eigth/internal/flushio"
)

// Core holds the ambient I/O and logging state shared by the engine and
// its builtins: a queued byte input, a flushable output, and leveled
// logging.
type Core struct {
	logging
	fileinput.Input
	out     flushio.WriteFlusher
	closers []io.Closer
}

func (core *Core) Close() (err error) {
	for i := len(core.closers) - 1; i >= 0; i-- {
		if cerr := core.closers[i].Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// halt flushes output, logs the cause, and panics a haltError to unwind
// to the engine/main boundary.
func (core *Core) halt(err error) {
	func() {
		defer func() { recover() }()
		if core.out != nil {
			if ferr := core.out.Flush(); err == nil {
				err = ferr
			}
		}
	}()
	func() {
		defer func() { recover() }()
		core.logf("#", "halt error: %v", err)
	}()
	panic(haltError{err})
}

// putByte writes one raw byte to output, halting on any write error.
func (core *Core) putByte(b byte) {
	if _, err := core.out.Write([]byte{b}); err != nil {
		core.halt(err)
	}
}

// puts writes bs followed by a newline, matching puts(3) semantics.
func (core *Core) puts(bs []byte) {
	if _, err := core.out.Write(bs); err != nil {
		core.halt(err)
	}
	core.putByte('\n')
}

// print writes s with no trailing separator, used by print/hex.
func (core *Core) print(s string) {
	if _, err := io.WriteString(core.out, s); err != nil {
		core.halt(err)
	}
}

func (core *Core) readByte() (byte, error) {
	if err := core.out.Flush(); err != nil {
		core.halt(err)
	}
	b, err := core.Input.ReadByte()
	if err != nil && err != io.EOF {
		core.halt(err)
	}
	return b, err
}

// coreByteSource adapts a Core into the Lexer's byteReader. End of input is
// passed through as io.EOF so the lexer can tell a clean end-of-command EOF
// from an unexpected mid-token one; any other I/O error unwinds through
// halt()'s flush-and-panic to the engine/main boundary rather than being
// threaded back up as an ordinary error through every parser function.
type coreByteSource struct{ core *Core }

func (s coreByteSource) ReadByte() (byte, error) { return s.core.readByte() }

type haltError struct{ error }

func (err haltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}
func (err haltError) Unwrap() error { return err.error }

type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) withLogPrefix(prefix string) func() {
	logfn := log.logfn
	log.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		log.logfn = logfn
	}
}

func (log logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
