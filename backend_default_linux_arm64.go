package main

// defaultBackendName is "native" where the JIT path is first-class; other
// hosts default to the portable vm backend.
func defaultBackendName() string { return "native" }
