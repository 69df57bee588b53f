package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeInstructionEncodesOperandsBigEndian(t *testing.T) {
	ins := MakeInstruction(OP_CONSTANT, 65000)
	require.Equal(t, []byte{byte(OP_CONSTANT), 0xFD, 0xE8}, ins)
}

func TestMakeInstructionNoOperands(t *testing.T) {
	ins := MakeInstruction(OP_ADD)
	require.Equal(t, []byte{byte(OP_ADD)}, ins)
}

func TestMakeInstructionTwoOperandWidths(t *testing.T) {
	ins := MakeInstruction(OP_STRUCT_METHOD, 3, 1)
	require.Equal(t, []byte{byte(OP_STRUCT_METHOD), 0x00, 0x03, 0x01}, ins)
}

func TestDisassembleRendersOffsetsAndOperands(t *testing.T) {
	var ins Instructions
	ins = append(ins, MakeInstruction(OP_CONSTANT, 1)...)
	ins = append(ins, MakeInstruction(OP_ADD)...)
	out := Disassemble(ins)
	require.Contains(t, out, "0000 OP_CONSTANT 1")
	require.Contains(t, out, "0003 OP_ADD")
}

func TestGetUnknownOpcode(t *testing.T) {
	_, err := Get(Opcode(255))
	require.Error(t, err)
}
