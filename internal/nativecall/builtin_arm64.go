//go:build arm64 && (linux || darwin)

package nativecall

import "reflect"

// BuiltinFunc is the shape a JIT'd builtin call-out resolves to: builtin
// table index plus up to four 32-bit arguments, one 32-bit result.
type BuiltinFunc func(idx uint32, a0, a1, a2, a3 uint32) uint32

var dispatch BuiltinFunc

// SetBuiltinDispatch installs the callback builtinTrampoline invokes. The
// native Encoder calls this before every Enter; nativecall itself has no
// eigth-domain types, so the closure is what carries the engine.
func SetBuiltinDispatch(fn BuiltinFunc) { dispatch = fn }

// builtinTrampoline has no Go body; its assembly (builtin_arm64.s) bridges
// a `blr` issued from JIT-compiled eigth code back into dispatchBuiltin
// using the ABI0 stack-argument calling convention, the same mechanism the
// runtime itself uses wherever hand-written assembly must call back into
// ordinary Go code.
//
//go:noescape
func builtinTrampoline()

// dispatchBuiltin is invoked by builtin_arm64.s via its <ABI0> alias. Every
// parameter is widened to a uint64 purely so the hand-written call site can
// lay out the ABI0 argument stack as a flat run of 8-byte slots with no
// alignment padding to reason about.
func dispatchBuiltin(idx, a0, a1, a2, a3 uint64) uint64 {
	return uint64(dispatch(uint32(idx), uint32(a0), uint32(a1), uint32(a2), uint32(a3)))
}

// BuiltinTrampolineAddr returns the address a JIT'd `blr` should target to
// invoke a builtin. By convention the builtin index is loaded into w9
// immediately before the branch -- outside eigth's own r0-r7/arg0-arg3/wzr
// register mapping (w19-w26, w0-w3, wzr) -- with arguments already sitting
// in w0-w3 from the ordinary calling-convention argument moves.
func BuiltinTrampolineAddr() uintptr {
	return reflect.ValueOf(builtinTrampoline).Pointer()
}
