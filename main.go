// Command eigth is an interactive compiler and runtime for a small
// stack-free, register-oriented Forth-like command language.
//
// Commands read from stdin are translated on the fly into either native
// arm64 machine code written into an executable memory arena, or a portable
// 32-bit bytecode interpreted in an ordinary Go slice, and immediately
// invoked. Words defined with `define ... begin ... end` are compiled once
// and retained as callable entry points; `if/else/end` and `while/end` are
// assembled with forward/backward branch fixups as they are parsed.
//
//	$ eigth
//	define square r0 use r0 begin
//	mul r0, r0, r0
//	end
//	square 7
//	print r0
//	49
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/avbrown/eigth/internal/logio"
)

func main() {
	var (
		arenaWords uint
		oobWords   uint
		stackWords uint
		backend    string
		timeout    time.Duration
		trace      bool
		dump       bool
	)
	flag.UintVar(&arenaWords, "arena-size", defaultArenaWords, "arena size in 32-bit words")
	flag.UintVar(&oobWords, "oob-size", defaultOOBWords, "out-of-band thunk area size in words")
	flag.UintVar(&stackWords, "stack-size", defaultStackWords, "register-save stack size in words")
	flag.StringVar(&backend, "backend", defaultBackendName(), `code generation backend ("native" or "vm")`)
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.BoolVar(&dump, "dump", false, "print a dump after execution")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer os.Exit(log.ExitCode())

	eng, err := New(
		WithArenaSize(uint32(arenaWords)),
		WithOOBSize(uint32(oobWords)),
		WithStackSize(uint32(stackWords)),
		WithBackend(backend),
		WithLogf(log.Leveledf("eigth")),
		WithTrace(trace),
		WithInput(os.Stdin),
		WithOutput(os.Stdout),
	)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	defer eng.Close()

	if dump {
		lw := &logio.Writer{Logf: log.Leveledf("DUMP")}
		defer lw.Close()
		defer engineDumper{eng: eng, out: lw}.dump()
	}

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := eng.Run(ctx); err != nil {
		var ex exitStatus
		if errors.As(err, &ex) {
			log.Close()
			os.Exit(ex.code)
		}
		log.Errorf("%v", err)
	}
}
