//go:build !(linux && arm64)

package main

func defaultBackendName() string { return "vm" }
