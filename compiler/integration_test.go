package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"swiftscript/lexer"
	"swiftscript/parser"
)

// compileFull runs the whole front end (lexer -> parser -> compiler) the
// way cmd_run.go will, without the semantic analyzer pass (the analyzer
// package's own tests exercise type-checking in isolation).
func compileFull(t *testing.T, source string) (*Assembly, error) {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	require.NoError(t, err)
	stmts, errs := parser.Make(toks).Parse()
	require.Empty(t, errs)
	return Compile(stmts)
}

func TestIntegrationForInRangeEmitsCountedLoop(t *testing.T) {
	asm, err := compileFull(t, `
var total: Int = 0
for i in 0..<5 {
	total = total + i
}
`)
	require.NoError(t, err)
	dis := Disassemble(asm.Code)
	require.Contains(t, dis, "OP_LOOP")
}

func TestIntegrationForInArrayEmitsIndexedLoop(t *testing.T) {
	asm, err := compileFull(t, `
let names: [String] = ["a", "b"]
for name in names {
	print(name)
}
`)
	require.NoError(t, err)
	dis := Disassemble(asm.Code)
	require.Contains(t, dis, "OP_GET_SUBSCRIPT")
	require.Contains(t, dis, "OP_LOOP")
}

func TestIntegrationSwitchCompilesCaseChain(t *testing.T) {
	asm, err := compileFull(t, `
var x: Int = 2
switch x {
case 1:
	print("one")
case 2:
	print("two")
default:
	print("other")
}
`)
	require.NoError(t, err)
	dis := Disassemble(asm.Code)
	require.Contains(t, dis, "OP_JUMP_IF_FALSE")
	require.Contains(t, dis, "OP_PRINT")
}

func TestIntegrationIfLetUnwrapsOptional(t *testing.T) {
	asm, err := compileFull(t, `
var maybe: Int? = 5
if let value = maybe {
	print(value)
}
`)
	require.NoError(t, err)
	dis := Disassemble(asm.Code)
	require.Contains(t, dis, "OP_JUMP_IF_NIL")
}

func TestIntegrationGuardLetUnwrapsOptional(t *testing.T) {
	asm, err := compileFull(t, `
func greet(name: String?) {
	guard let n = name else {
		return
	}
	print(n)
}
`)
	require.NoError(t, err)
	require.Len(t, asm.Functions, 1)
	dis := Disassemble(asm.Functions[0].Code)
	require.Contains(t, dis, "OP_JUMP_IF_NIL")
}

func TestIntegrationEntryPointResolvesMain(t *testing.T) {
	asm, err := compileFull(t, `
func main() {
	print("hello")
}
`)
	require.NoError(t, err)
	require.GreaterOrEqual(t, asm.EntryFunction, 0)
	require.Equal(t, "main", asm.Functions[asm.EntryFunction].Name)
}

func TestIntegrationWriteReadAssemblyRoundTrips(t *testing.T) {
	asm, err := compileFull(t, `
var x: Int = 1 + 2
print(x)
`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteAssembly(&buf, asm))
	decoded, err := ReadAssembly(&buf)
	require.NoError(t, err)
	require.Equal(t, asm.Constants, decoded.Constants)
	require.Equal(t, asm.Strings, decoded.Strings)
	require.Equal(t, []byte(asm.Code), []byte(decoded.Code))
}
