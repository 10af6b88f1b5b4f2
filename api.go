package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/avbrown/eigth/internal/flushio"
	"github.com/avbrown/eigth/internal/panicerr"
)

// defaultArenaWords and defaultStackWords size the engine when no
// -arena-size/-stack-size option overrides them.
const (
	defaultArenaWords = 1 << 16
	defaultStackWords = 256
)

// New builds an Engine from options, defaulting to the portable VM backend
// over a plain Go-slice arena, empty input, and discarded output, so the
// zero-option construction is always safe.
func New(opts ...EngineOption) (*Engine, error) {
	cfg := engineConfig{
		arenaWords: defaultArenaWords,
		oobWords:   defaultOOBWords,
		stackWords: defaultStackWords,
		backend:    "vm",
	}
	EngineOptions(opts...).apply(&cfg)

	var (
		store   wordStore
		backend Encoder
		sync    func(from, to int)
	)
	switch cfg.backend {
	case "vm", "":
		store = make(sliceStore, cfg.arenaWords)
		backend = vmBackend{}
	case "native":
		region, encoder, syncFn, err := newNativeBackend(cfg.arenaWords)
		if err != nil {
			return nil, fmt.Errorf("eigth: cannot allocate core memory: %w", err)
		}
		store, backend, sync = region, encoder, syncFn
	default:
		return nil, fmt.Errorf("eigth: unknown backend %q (want \"native\" or \"vm\")", cfg.backend)
	}

	e, err := NewEngine(store, cfg.oobWords, cfg.stackWords, backend, sync)
	if err != nil {
		return nil, err
	}
	e.Core.logging = logging{logfn: cfg.logfn}
	e.Core.out = flushio.NewWriteFlusher(ioutil.Discard)
	for _, opt := range cfg.postBuild {
		opt(e)
	}
	return e, nil
}

// Run drives the interactive read loop over lex until EOF or a fatal error,
// recovering panics (arena exhaustion, canary corruption, exit) at this one
// boundary per the ambient error-handling design.
func (e *Engine) Run(ctx context.Context) error {
	lex := NewLexer(coreByteSource{&e.Core})
	errch := make(chan error, 1)
	go func() {
		errch <- panicerr.Recover("eigth", func() error {
			return e.ParseTopLevel(lex)
		})
	}()

	var err error
	select {
	case err = <-errch:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var he haltError
	if errors.As(err, &he) {
		err = he.error
	}
	var ex exitStatus
	if errors.As(err, &ex) {
		if ex.code == 0 {
			return nil
		}
		return ex
	}
	return err
}

// engineConfig accumulates options before NewEngine is called; postBuild
// options (those needing a live *Engine, e.g. input/output) run afterward.
type engineConfig struct {
	arenaWords uint32
	oobWords   uint32
	stackWords uint32
	backend    string
	logfn      func(mess string, args ...interface{})
	postBuild  []func(*Engine)
}

type EngineOption interface{ apply(cfg *engineConfig) }

func EngineOptions(opts ...EngineOption) EngineOption {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(cfg *engineConfig) {}

type options []EngineOption

func (opts options) apply(cfg *engineConfig) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(cfg)
		}
	}
}

func WithArenaSize(words uint32) EngineOption { return arenaSizeOption(words) }
func WithOOBSize(words uint32) EngineOption   { return oobSizeOption(words) }
func WithStackSize(words uint32) EngineOption { return stackSizeOption(words) }
func WithBackend(name string) EngineOption    { return backendOption(name) }

func WithInput(r io.Reader) EngineOption { return inputOption{r} }
func WithInputWriter(wto io.WriterTo) EngineOption {
	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		wto.WriteTo(pw)
	}()
	return inputOption{pipeInput{pr, nameOf(wto)}}
}
func WithOutput(w io.Writer) EngineOption { return outputOption{w} }
func WithTee(w io.Writer) EngineOption    { return teeOption{w} }

func WithLogf(logfn func(mess string, args ...interface{})) EngineOption { return withLogfn(logfn) }

// WithTrace echoes every top-level command through the engine's logger as
// it is dispatched.
func WithTrace(enabled bool) EngineOption { return traceOption(enabled) }

type traceOption bool

func (on traceOption) apply(cfg *engineConfig) {
	cfg.postBuild = append(cfg.postBuild, func(e *Engine) { e.trace = bool(on) })
}

type arenaSizeOption uint32

func (n arenaSizeOption) apply(cfg *engineConfig) { cfg.arenaWords = uint32(n) }

type oobSizeOption uint32

func (n oobSizeOption) apply(cfg *engineConfig) { cfg.oobWords = uint32(n) }

type stackSizeOption uint32

func (n stackSizeOption) apply(cfg *engineConfig) { cfg.stackWords = uint32(n) }

type backendOption string

func (name backendOption) apply(cfg *engineConfig) { cfg.backend = string(name) }

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(cfg *engineConfig) { cfg.logfn = logfn }

type inputOption struct{ io.Reader }

func (i inputOption) apply(cfg *engineConfig) {
	cfg.postBuild = append(cfg.postBuild, func(e *Engine) {
		e.Core.Queue = append(e.Core.Queue, i.Reader)
		if cl, ok := i.Reader.(io.Closer); ok {
			e.Core.closers = append(e.Core.closers, cl)
		}
	})
}

type outputOption struct{ io.Writer }

func (o outputOption) apply(cfg *engineConfig) {
	cfg.postBuild = append(cfg.postBuild, func(e *Engine) {
		if e.Core.out != nil {
			e.Core.out.Flush()
		}
		e.Core.out = flushio.NewWriteFlusher(o.Writer)
		if cl, ok := o.Writer.(io.Closer); ok {
			e.Core.closers = append(e.Core.closers, cl)
		}
	})
}

type teeOption struct{ io.Writer }

func (o teeOption) apply(cfg *engineConfig) {
	cfg.postBuild = append(cfg.postBuild, func(e *Engine) {
		e.Core.out = flushio.WriteFlushers(e.Core.out, flushio.NewWriteFlusher(o.Writer))
		if cl, ok := o.Writer.(io.Closer); ok {
			e.Core.closers = append(e.Core.closers, cl)
		}
	})
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}

type pipeInput struct {
	*io.PipeReader
	name string
}

func (pi pipeInput) Name() string { return pi.name }
