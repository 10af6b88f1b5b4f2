package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArena(t *testing.T, words, oob, stack uint32) *Arena {
	a, err := NewArena(make(sliceStore, words), oob, stack, nil)
	require.NoError(t, err, "unexpected arena error")
	return a
}

func Test_Arena_alloc(t *testing.T) {
	a := testArena(t, 128, 32, 16)

	assert.Equal(t, uint32(32), a.Mark(), "allocation starts after the out-of-band area")
	first := a.Alloc(4)
	second := a.Alloc(1)
	assert.Equal(t, uint32(32), first)
	assert.Equal(t, uint32(36), second)
	assert.Equal(t, uint32(37), a.Mark())
}

func Test_Arena_allocBytes(t *testing.T) {
	a := testArena(t, 128, 32, 16)
	base := a.Mark()

	assert.Equal(t, base, a.AllocBytes(1))
	assert.Equal(t, base+1, a.Mark(), "1 byte rounds up to a word")
	a.AllocBytes(5)
	assert.Equal(t, base+3, a.Mark(), "5 bytes round up to two words")
	a.AllocBytes(0)
	assert.Equal(t, base+4, a.Mark(), "zero bytes still allocates a word")
}

func Test_Arena_rewind(t *testing.T) {
	a := testArena(t, 128, 32, 16)
	mark := a.Mark()
	a.EmitCode(1)
	a.EmitCode(2)
	a.Rewind(mark)
	assert.Equal(t, mark, a.Mark())

	assert.Panics(t, func() { a.Rewind(mark + 10) }, "cannot rewind forward")
}

func Test_Arena_exhaustion(t *testing.T) {
	a := testArena(t, 64, 32, 16)
	a.Alloc(16) // fills the bump region exactly: 64 - 32 oob - 16 stack
	assert.Panics(t, func() { a.Alloc(1) })
}

func Test_Arena_tooSmall(t *testing.T) {
	_, err := NewArena(make(sliceStore, 40), 32, 16, nil)
	assert.Error(t, err)
}

func Test_Arena_canary(t *testing.T) {
	store := make(sliceStore, 128)
	a, err := NewArena(store, 32, 16, nil)
	require.NoError(t, err)

	assert.Equal(t, uint32(oobCanary), store[31], "canary sits in the last out-of-band word")
	assert.NotPanics(t, func() { a.CheckCanary() })

	store[31] = 0xdead
	assert.Panics(t, func() { a.CheckCanary() })
}

func Test_Arena_oobThunks(t *testing.T) {
	a := testArena(t, 128, 32, 16)

	addr := a.OOBEmit(0x11)
	assert.Equal(t, uint32(0), addr)
	a.OOBEmit(0x22)
	assert.Equal(t, uint32(2), a.OOBMark())

	a.OOBReset()
	assert.Equal(t, uint32(0), a.OOBMark(), "each top-level command reuses the area")

	// filling up to the canary is fine; touching it is not
	for i := 0; i < 31; i++ {
		a.OOBEmit(uint32(i))
	}
	assert.Panics(t, func() { a.OOBEmit(0x33) }, "the canary word is off limits")
	a.CheckCanary()
}

func Test_Arena_emitters(t *testing.T) {
	a := testArena(t, 128, 32, 16)

	main := mainEmitter{a}
	pos := main.Pos()
	main.Emit(7)
	assert.Equal(t, uint32(7), main.Read(pos))
	main.Patch(pos, 9)
	assert.Equal(t, uint32(9), main.Read(pos))
	main.Truncate(pos)
	assert.Equal(t, pos, main.Pos())

	oob := oobEmitter{a}
	assert.Equal(t, uint32(0), oob.Pos())
	oob.Emit(5)
	assert.Equal(t, uint32(5), oob.Read(0))
	oob.Truncate(0)
	assert.Equal(t, uint32(0), oob.Pos())
}
