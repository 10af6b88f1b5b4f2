//go:build !(arm64 && (linux || darwin))

package main

import "errors"

// newNativeBackend fails closed off arm64: the native encoder emits a64
// instructions and branches the host CPU straight into them, and no other
// port exists. The portable vm backend runs everywhere.
func newNativeBackend(arenaWords uint32) (wordStore, Encoder, func(from, to int), error) {
	return nil, nil, nil, errors.New("native backend requires an arm64 linux or darwin host")
}
