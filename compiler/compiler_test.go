package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swiftscript/lexer"
	"swiftscript/parser"
)

func compileSource(t *testing.T, source string) *Assembly {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	require.NoError(t, err)
	stmts, errs := parser.Make(toks).Parse()
	require.Empty(t, errs)
	asm, err := Compile(stmts)
	require.NoError(t, err)
	return asm
}

func TestCompileArithmeticEmitsConstantsAndAdd(t *testing.T) {
	asm := compileSource(t, `var x: Int = 1 + 2`)
	require.Contains(t, Disassemble(asm.Code), "OP_ADD")
	require.Contains(t, asm.Constants, int64(1))
	require.Contains(t, asm.Constants, int64(2))
}

func TestCompileGlobalVarDefinesGlobal(t *testing.T) {
	asm := compileSource(t, `var x: Int = 1`)
	require.Contains(t, Disassemble(asm.Code), "OP_DEFINE_GLOBAL")
	require.Contains(t, asm.Strings, "x")
}

func TestCompileWhileLoopEmitsLoop(t *testing.T) {
	asm := compileSource(t, `
var i: Int = 0
while i < 10 {
	i = i + 1
}
`)
	dis := Disassemble(asm.Code)
	require.Contains(t, dis, "OP_LOOP")
	require.Contains(t, dis, "OP_JUMP_IF_FALSE")
}

func TestCompileBreakOutsideLoopFails(t *testing.T) {
	toks, err := lexer.New(`break`).Scan()
	require.NoError(t, err)
	stmts, errs := parser.Make(toks).Parse()
	require.Empty(t, errs)
	_, err = Compile(stmts)
	require.Error(t, err)
}

func TestCompileFunctionDeclRegistersPrototype(t *testing.T) {
	asm := compileSource(t, `
func add(a: Int, b: Int) -> Int {
	return a + b
}
`)
	require.Len(t, asm.Functions, 1)
	require.Equal(t, "add", asm.Functions[0].Name)
	require.Contains(t, Disassemble(asm.Functions[0].Code), "OP_RETURN")
}

func TestCompileClassEmitsClassAndMethod(t *testing.T) {
	asm := compileSource(t, `
class Dog {
	var name: String = "Rex"
	func bark() -> String {
		return name
	}
}
`)
	dis := Disassemble(asm.Code)
	require.Contains(t, dis, "OP_CLASS")
	require.Contains(t, dis, "OP_METHOD")
	require.Contains(t, dis, "OP_DEFINE_PROPERTY")
}

func TestCompileStructEmitsStructMethod(t *testing.T) {
	asm := compileSource(t, `
struct Point {
	var x: Int = 0
	mutating func moveRight() {
		x = x + 1
	}
}
`)
	dis := Disassemble(asm.Code)
	require.Contains(t, dis, "OP_STRUCT")
	require.Contains(t, dis, "OP_STRUCT_METHOD")
}

func TestCompileEnumEmitsCases(t *testing.T) {
	asm := compileSource(t, `
enum Direction {
	case north
	case south
}
`)
	dis := Disassemble(asm.Code)
	require.Contains(t, dis, "OP_ENUM")
	require.Contains(t, dis, "OP_ENUM_CASE")
}

func TestCompileClosureCapturesUpvalue(t *testing.T) {
	asm := compileSource(t, `
func makeCounter() -> () -> Int {
	var count: Int = 0
	let increment = {
		count = count + 1
		return count
	}
	return increment
}
`)
	require.True(t, len(asm.Functions) >= 2)
	found := false
	for _, fn := range asm.Functions {
		if len(fn.Code) > 0 && containsOpcode(fn.Code, OP_GET_UPVALUE) {
			found = true
		}
	}
	require.True(t, found, "expected a closure prototype referencing an upvalue")
}

func containsOpcode(ins Instructions, target Opcode) bool {
	ip := 0
	for ip < len(ins) {
		op := Opcode(ins[ip])
		if op == target {
			return true
		}
		ip += InstructionWidthAt(ins, ip)
	}
	return false
}
