package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Registers_flatIndexSpace(t *testing.T) {
	var rs Registers

	for i := uint32(0); i < 12; i++ {
		rs.Set(i, i+100)
	}
	for i := uint32(0); i < 8; i++ {
		assert.Equal(t, i+100, rs.Get(i), "r%d", i)
	}
	for n := 0; n < 4; n++ {
		assert.Equal(t, uint32(n)+108, rs.Arg(n), "arg%d aliases flat index %d", n, n+8)
	}

	rs.Set(zeroIndex, 7)
	assert.Equal(t, uint32(0), rs.Get(zeroIndex), "the zero register discards writes")
}

func Test_Operand_cmpIndex(t *testing.T) {
	assert.Equal(t, uint32(3), Operand{Register, 3}.cmpIndex())
	assert.Equal(t, uint32(9), Operand{Argument, 1}.cmpIndex())
	assert.Equal(t, uint32(zeroIndex), Operand{Immediate, 0}.cmpIndex())
	assert.Panics(t, func() { Operand{Immediate, 5}.cmpIndex() })
	assert.Panics(t, func() { Operand{}.cmpIndex() })
}

func Test_Command_clobbers(t *testing.T) {
	cmd := Command{Operand: [4]Operand{{Register, 0}, {Register, 3}}}
	assert.Equal(t, uint8(1|1<<3), cmd.clobbers())

	cmd = Command{Operand: [4]Operand{{Register, 1}, {Immediate, 5}, {Register, 2}}}
	assert.Equal(t, uint8(1<<1), cmd.clobbers(),
		"a non-register operand ends the leading run")

	assert.Zero(t, Command{}.clobbers())
}
