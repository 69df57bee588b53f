package compiler

import (
	"encoding/binary"
	"fmt"
)

// Opcode is a single bytecode instruction tag. Each emitted instruction is
// one opcode byte followed by zero or more fixed-width operand bytes.
type Opcode byte

// Instructions is a flat byte sequence of encoded instructions.
type Instructions []byte

const (
	OP_NIL Opcode = iota
	OP_TRUE
	OP_FALSE
	OP_CONSTANT // <ci u16>
	OP_STRING   // <si u16>
	OP_POP
	OP_DUP
	OP_COPY_VALUE

	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_MODULO
	OP_NEGATE
	OP_NOT
	OP_AND
	OP_OR
	OP_BITWISE_AND
	OP_BITWISE_OR
	OP_BITWISE_XOR
	OP_BITWISE_NOT
	OP_LEFT_SHIFT
	OP_RIGHT_SHIFT
	OP_EQUAL
	OP_NOT_EQUAL
	OP_LESS
	OP_GREATER
	OP_LESS_EQUAL
	OP_GREATER_EQUAL

	OP_GET_LOCAL    // <slot u16>
	OP_SET_LOCAL    // <slot u16>
	OP_GET_GLOBAL   // <si u16>
	OP_SET_GLOBAL   // <si u16>
	OP_DEFINE_GLOBAL // <si u16>
	OP_GET_UPVALUE  // <u u16>
	OP_SET_UPVALUE  // <u u16>
	OP_CLOSE_UPVALUE

	OP_JUMP          // <u16>
	OP_JUMP_IF_FALSE // <u16>
	OP_JUMP_IF_NIL   // <u16>
	OP_LOOP          // <u16>
	OP_RETURN
	OP_HALT

	OP_CALL       // <argc u8>
	OP_CALL_NAMED // <argc u8> <label_si u16 * argc>

	OP_RANGE_INCLUSIVE
	OP_RANGE_EXCLUSIVE
	OP_ARRAY           // <count u16>
	OP_DICT            // <count u16>
	OP_TUPLE           // <count u16> <label_si u16 * count>
	OP_GET_SUBSCRIPT
	OP_SET_SUBSCRIPT
	OP_GET_TUPLE_INDEX // <i u16>
	OP_GET_TUPLE_LABEL // <si u16>

	OP_UNWRAP
	OP_OPTIONAL_CHAIN // <si u16>
	OP_NIL_COALESCE

	OP_CLASS    // <si u16>
	OP_INHERIT
	OP_STRUCT   // <si u16>
	OP_ENUM     // <si u16>
	OP_ENUM_CASE // <si u16> <n_assoc u16> <label_si u16 * n_assoc>
	OP_PROTOCOL // <proto_idx u16>
	OP_FUNCTION // <fi u16>
	OP_CLOSURE  // <fi u16> <n_upvalues u16> <{is_local u8, index u16} * n_upvalues>
	OP_METHOD   // <fi u16>
	OP_STRUCT_METHOD              // <fi u16> <is_mutating u8>
	OP_DEFINE_PROPERTY             // <si u16> <flags u8>
	OP_DEFINE_PROPERTY_WITH_OBSERVERS // <si u16> <flags u8> <willSet_fi u16> <didSet_fi u16>
	OP_DEFINE_COMPUTED_PROPERTY    // <si u16> <getter_fi u16> <setter_fi u16>
	OP_GET_PROPERTY                // <si u16>
	OP_SET_PROPERTY                // <si u16>
	OP_SUPER                       // <si u16>

	OP_MATCH_ENUM_CASE // <si u16>
	OP_GET_ASSOCIATED  // <i u16>
	OP_TYPE_CAST          // <si u16>
	OP_TYPE_CAST_OPTIONAL // <si u16>
	OP_TYPE_CAST_FORCED   // <si u16>
	OP_TYPE_CHECK         // <si u16>

	OP_PRINT
	OP_READ_LINE
	OP_THROW
)

// DEFINE_PROPERTY flag bits (spec §4.5.1).
const (
	PropertyFlagLet    = 1 << 0
	PropertyFlagStatic = 1 << 1
	PropertyFlagLazy   = 1 << 2
)

// NoLabel marks a positional argument/tuple element/enum-case associated
// value slot that carries no external label (spec's `0xFFFF` sentinel).
const NoLabel = 0xFFFF

// OpCodeDefinition documents an opcode's human-readable name, the byte
// width of each of its fixed operands (in declaration order), and — for
// the handful of opcodes whose operand count is only known at emission
// time (CALL_NAMED's per-arg labels, TUPLE/ENUM_CASE's per-element labels,
// CLOSURE's per-upvalue descriptor pairs) — which fixed operand holds the
// repeat count and the width pattern of one repeated group.
type OpCodeDefinition struct {
	Name                 string
	OperandWidths        []int
	CountOperandIndex    int   // index into OperandWidths/operands holding the repeat count, or -1
	TrailingGroupWidths  []int // widths of one repeated unit; nil if this opcode has no variadic tail
}

// fixedDef builds a definition for an opcode whose operand count never
// varies at emission time.
func fixedDef(name string, widths ...int) *OpCodeDefinition {
	return &OpCodeDefinition{Name: name, OperandWidths: widths, CountOperandIndex: -1}
}

// variadicDef builds a definition for an opcode that, after its fixed
// operands, carries `operands[countIndex]` repeats of a group whose widths
// are `groupWidths` (e.g. CALL_NAMED's per-arg label, one u16 per repeat).
func variadicDef(name string, widths []int, countIndex int, groupWidths ...int) *OpCodeDefinition {
	return &OpCodeDefinition{Name: name, OperandWidths: widths, CountOperandIndex: countIndex, TrailingGroupWidths: groupWidths}
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_NIL:        fixedDef("OP_NIL"),
	OP_TRUE:       fixedDef("OP_TRUE"),
	OP_FALSE:      fixedDef("OP_FALSE"),
	OP_CONSTANT:   fixedDef("OP_CONSTANT", 2),
	OP_STRING:     fixedDef("OP_STRING", 2),
	OP_POP:        fixedDef("OP_POP"),
	OP_DUP:        fixedDef("OP_DUP"),
	OP_COPY_VALUE: fixedDef("OP_COPY_VALUE"),

	OP_ADD: fixedDef("OP_ADD"), OP_SUBTRACT: fixedDef("OP_SUBTRACT"),
	OP_MULTIPLY: fixedDef("OP_MULTIPLY"), OP_DIVIDE: fixedDef("OP_DIVIDE"),
	OP_MODULO: fixedDef("OP_MODULO"), OP_NEGATE: fixedDef("OP_NEGATE"),
	OP_NOT: fixedDef("OP_NOT"), OP_AND: fixedDef("OP_AND"), OP_OR: fixedDef("OP_OR"),
	OP_BITWISE_AND: fixedDef("OP_BITWISE_AND"), OP_BITWISE_OR: fixedDef("OP_BITWISE_OR"),
	OP_BITWISE_XOR: fixedDef("OP_BITWISE_XOR"), OP_BITWISE_NOT: fixedDef("OP_BITWISE_NOT"),
	OP_LEFT_SHIFT: fixedDef("OP_LEFT_SHIFT"), OP_RIGHT_SHIFT: fixedDef("OP_RIGHT_SHIFT"),
	OP_EQUAL: fixedDef("OP_EQUAL"), OP_NOT_EQUAL: fixedDef("OP_NOT_EQUAL"),
	OP_LESS: fixedDef("OP_LESS"), OP_GREATER: fixedDef("OP_GREATER"),
	OP_LESS_EQUAL: fixedDef("OP_LESS_EQUAL"), OP_GREATER_EQUAL: fixedDef("OP_GREATER_EQUAL"),

	OP_GET_LOCAL: fixedDef("OP_GET_LOCAL", 2), OP_SET_LOCAL: fixedDef("OP_SET_LOCAL", 2),
	OP_GET_GLOBAL: fixedDef("OP_GET_GLOBAL", 2), OP_SET_GLOBAL: fixedDef("OP_SET_GLOBAL", 2),
	OP_DEFINE_GLOBAL: fixedDef("OP_DEFINE_GLOBAL", 2),
	OP_GET_UPVALUE:   fixedDef("OP_GET_UPVALUE", 2), OP_SET_UPVALUE: fixedDef("OP_SET_UPVALUE", 2),
	OP_CLOSE_UPVALUE: fixedDef("OP_CLOSE_UPVALUE"),

	OP_JUMP: fixedDef("OP_JUMP", 2), OP_JUMP_IF_FALSE: fixedDef("OP_JUMP_IF_FALSE", 2),
	OP_JUMP_IF_NIL: fixedDef("OP_JUMP_IF_NIL", 2), OP_LOOP: fixedDef("OP_LOOP", 2),
	OP_RETURN: fixedDef("OP_RETURN"), OP_HALT: fixedDef("OP_HALT"),

	OP_CALL:       fixedDef("OP_CALL", 1),
	OP_CALL_NAMED: variadicDef("OP_CALL_NAMED", []int{1}, 0, 2),

	OP_RANGE_INCLUSIVE: fixedDef("OP_RANGE_INCLUSIVE"), OP_RANGE_EXCLUSIVE: fixedDef("OP_RANGE_EXCLUSIVE"),
	OP_ARRAY: fixedDef("OP_ARRAY", 2), OP_DICT: fixedDef("OP_DICT", 2),
	OP_TUPLE:           variadicDef("OP_TUPLE", []int{2}, 0, 2),
	OP_GET_SUBSCRIPT:   fixedDef("OP_GET_SUBSCRIPT"), OP_SET_SUBSCRIPT: fixedDef("OP_SET_SUBSCRIPT"),
	OP_GET_TUPLE_INDEX: fixedDef("OP_GET_TUPLE_INDEX", 2), OP_GET_TUPLE_LABEL: fixedDef("OP_GET_TUPLE_LABEL", 2),

	OP_UNWRAP:         fixedDef("OP_UNWRAP"),
	OP_OPTIONAL_CHAIN: fixedDef("OP_OPTIONAL_CHAIN", 2),
	OP_NIL_COALESCE:   fixedDef("OP_NIL_COALESCE"),

	OP_CLASS:     fixedDef("OP_CLASS", 2),
	OP_INHERIT:   fixedDef("OP_INHERIT"),
	OP_STRUCT:    fixedDef("OP_STRUCT", 2),
	OP_ENUM:      fixedDef("OP_ENUM", 2),
	OP_ENUM_CASE: variadicDef("OP_ENUM_CASE", []int{2, 2}, 1, 2),
	OP_PROTOCOL:  fixedDef("OP_PROTOCOL", 2),
	OP_FUNCTION:  fixedDef("OP_FUNCTION", 2),
	// CLOSURE's second fixed operand is the upvalue count; each repeat is
	// an {is_local u8, index u16} pair (spec §4.5.1).
	OP_CLOSURE: variadicDef("OP_CLOSURE", []int{2, 2}, 1, 1, 2),
	OP_METHOD:  fixedDef("OP_METHOD", 2),
	OP_STRUCT_METHOD:                  fixedDef("OP_STRUCT_METHOD", 2, 1),
	OP_DEFINE_PROPERTY:                fixedDef("OP_DEFINE_PROPERTY", 2, 1),
	OP_DEFINE_PROPERTY_WITH_OBSERVERS: fixedDef("OP_DEFINE_PROPERTY_WITH_OBSERVERS", 2, 1, 2, 2),
	OP_DEFINE_COMPUTED_PROPERTY:       fixedDef("OP_DEFINE_COMPUTED_PROPERTY", 2, 2, 2),
	OP_GET_PROPERTY:                   fixedDef("OP_GET_PROPERTY", 2),
	OP_SET_PROPERTY:                   fixedDef("OP_SET_PROPERTY", 2),
	OP_SUPER:                          fixedDef("OP_SUPER", 2),

	OP_MATCH_ENUM_CASE: fixedDef("OP_MATCH_ENUM_CASE", 2),
	OP_GET_ASSOCIATED:  fixedDef("OP_GET_ASSOCIATED", 2),
	OP_TYPE_CAST:          fixedDef("OP_TYPE_CAST", 2),
	OP_TYPE_CAST_OPTIONAL: fixedDef("OP_TYPE_CAST_OPTIONAL", 2),
	OP_TYPE_CAST_FORCED:   fixedDef("OP_TYPE_CAST_FORCED", 2),
	OP_TYPE_CHECK:         fixedDef("OP_TYPE_CHECK", 2),

	OP_PRINT:     fixedDef("OP_PRINT"),
	OP_READ_LINE: fixedDef("OP_READ_LINE"),
	OP_THROW:     fixedDef("OP_THROW"),
}

// Get looks up an opcode's definition, failing for anything not listed
// above (there should be no such opcode reachable from a real compile).
func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// widthOf returns the width a given operand position should be encoded
// with: its fixed width if i is within OperandWidths, else the width of
// the corresponding position within one repeated trailing group.
func widthOf(def *OpCodeDefinition, i int) int {
	if i < len(def.OperandWidths) {
		return def.OperandWidths[i]
	}
	if len(def.TrailingGroupWidths) == 0 {
		return 0
	}
	return def.TrailingGroupWidths[(i-len(def.OperandWidths))%len(def.TrailingGroupWidths)]
}

// MakeInstruction encodes an opcode and its operands (Big-Endian, per
// operand width) into a single instruction's bytes. For a variadic opcode,
// operands must supply all fixed operands followed by exactly
// operands[def.CountOperandIndex] repeats of the trailing group.
func MakeInstruction(op Opcode, operands ...int) []byte {
	def, err := Get(op)
	if err != nil {
		return []byte{}
	}

	length := 1
	for i := range operands {
		length += widthOf(def, i)
	}
	instruction := make([]byte, length)
	instruction[0] = byte(op)

	offset := 1
	for i, o := range operands {
		width := widthOf(def, i)
		switch width {
		case 1:
			instruction[offset] = byte(o)
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(o))
		}
		offset += width
	}
	return instruction
}

// InstructionWidth returns the fixed-portion byte length (opcode + fixed
// operands) of an opcode, ignoring any variadic trailing group. Callers
// walking a real instruction stream must use InstructionWidthAt instead,
// which also accounts for a variadic opcode's repeat count.
func InstructionWidth(op Opcode) int {
	def, err := Get(op)
	if err != nil {
		return 1
	}
	width := 1
	for _, w := range def.OperandWidths {
		width += w
	}
	return width
}

// InstructionWidthAt returns the total byte length of the instruction
// starting at ins[ip], reading the variadic repeat count (if any) out of
// the instruction itself. The compiler tests use it to step through
// emitted code one instruction at a time.
func InstructionWidthAt(ins Instructions, ip int) int {
	op := Opcode(ins[ip])
	def, err := Get(op)
	if err != nil {
		return 1
	}
	offset := ip + 1
	for _, w := range def.OperandWidths {
		offset += w
	}
	if def.CountOperandIndex >= 0 && len(def.TrailingGroupWidths) > 0 {
		countOffset := ip + 1
		for i := 0; i < def.CountOperandIndex; i++ {
			countOffset += def.OperandWidths[i]
		}
		count := ReadOperand(ins, countOffset, def.OperandWidths[def.CountOperandIndex])
		groupWidth := 0
		for _, w := range def.TrailingGroupWidths {
			groupWidth += w
		}
		offset += count * groupWidth
	}
	return offset - ip
}

// ReadOperand decodes the operand at ins[offset] of the given byte width.
func ReadOperand(ins Instructions, offset, width int) int {
	switch width {
	case 1:
		return int(ins[offset])
	case 2:
		return int(binary.BigEndian.Uint16(ins[offset:]))
	}
	return 0
}

// Disassemble renders an Instructions stream as human-readable text, one
// line per instruction, prefixed with its byte offset.
func Disassemble(ins Instructions) string {
	var out []byte
	ip := 0
	for ip < len(ins) {
		op := Opcode(ins[ip])
		def, err := Get(op)
		if err != nil {
			out = append(out, []byte(fmt.Sprintf("%04d ERROR: %s\n", ip, err))...)
			ip++
			continue
		}
		line := fmt.Sprintf("%04d %s", ip, def.Name)
		offset := ip + 1
		var count int
		for i, w := range def.OperandWidths {
			v := ReadOperand(ins, offset, w)
			if i == def.CountOperandIndex {
				count = v
			}
			line += fmt.Sprintf(" %d", v)
			offset += w
		}
		if len(def.TrailingGroupWidths) > 0 {
			for r := 0; r < count; r++ {
				for _, w := range def.TrailingGroupWidths {
					line += fmt.Sprintf(" %d", ReadOperand(ins, offset, w))
					offset += w
				}
			}
		}
		out = append(out, []byte(line+"\n")...)
		ip = offset
	}
	return string(out)
}
