package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swiftscript/ast"
	"swiftscript/lexer"
)

func parseSource(t *testing.T, source string) []ast.Stmt {
	t.Helper()
	toks, err := lexer.New(source).Scan()
	require.NoError(t, err)
	stmts, errs := Make(toks).Parse()
	require.Empty(t, errs, "unexpected parse errors: %v", errs)
	return stmts
}

func TestArithmeticPrecedence(t *testing.T) {
	stmts := parseSource(t, "1 + 2 * 3")
	require.Len(t, stmts, 1)
	exprStmt := stmts[0].(ast.ExpressionStmt)
	bin := exprStmt.Expression.(ast.Binary)
	require.Equal(t, "+", bin.Operator.Lexeme)
	require.Equal(t, int64(1), bin.Left.(ast.Literal).Value)
	mul := bin.Right.(ast.Binary)
	require.Equal(t, "*", mul.Operator.Lexeme)
}

func TestIsAsBindsBetweenEqualityAndComparison(t *testing.T) {
	stmts := parseSource(t, "x as? Int == nil")
	require.Len(t, stmts, 1)
	exprStmt := stmts[0].(ast.ExpressionStmt)
	eq := exprStmt.Expression.(ast.Binary)
	require.Equal(t, "==", eq.Operator.Lexeme)
	asExpr := eq.Left.(ast.AsExpr)
	require.Equal(t, "Int", asExpr.TypeName)
	require.True(t, asExpr.Optional)
}

func TestTernaryAndNilCoalesce(t *testing.T) {
	stmts := parseSource(t, "a ? b : c ?? d")
	require.Len(t, stmts, 1)
	exprStmt := stmts[0].(ast.ExpressionStmt)
	tern := exprStmt.Expression.(ast.Ternary)
	_, isCoalesce := tern.Else.(ast.NilCoalesce)
	require.True(t, isCoalesce)
}

func TestRangeOperators(t *testing.T) {
	stmts := parseSource(t, "0..<10")
	rng := stmts[0].(ast.ExpressionStmt).Expression.(ast.Range)
	require.False(t, rng.Inclusive)

	stmts = parseSource(t, "0...10")
	rng = stmts[0].(ast.ExpressionStmt).Expression.(ast.Range)
	require.True(t, rng.Inclusive)
}

func TestParenGroupingVsTupleLiteral(t *testing.T) {
	stmts := parseSource(t, "(1)")
	_, isGrouping := stmts[0].(ast.ExpressionStmt).Expression.(ast.Grouping)
	require.True(t, isGrouping)

	stmts = parseSource(t, "(1, 2)")
	tup := stmts[0].(ast.ExpressionStmt).Expression.(ast.TupleLiteral)
	require.Len(t, tup.Elements, 2)

	stmts = parseSource(t, "(x: 1)")
	tup = stmts[0].(ast.ExpressionStmt).Expression.(ast.TupleLiteral)
	require.Equal(t, "x", tup.Elements[0].Label)
}

func TestArrayDictAndEmptyDictLiterals(t *testing.T) {
	stmts := parseSource(t, "[1, 2, 3]")
	arr := stmts[0].(ast.ExpressionStmt).Expression.(ast.ArrayLiteral)
	require.Len(t, arr.Elements, 3)

	stmts = parseSource(t, `["a": 1, "b": 2]`)
	dict := stmts[0].(ast.ExpressionStmt).Expression.(ast.DictLiteral)
	require.Len(t, dict.Entries, 2)

	stmts = parseSource(t, "[:]")
	dict = stmts[0].(ast.ExpressionStmt).Expression.(ast.DictLiteral)
	require.Empty(t, dict.Entries)
}

func TestClosureSignatureBacktracking(t *testing.T) {
	stmts := parseSource(t, "let f = { (x: Int) -> Int in x }")
	closure := stmts[0].(ast.VarDecl).Initializer.(ast.Closure)
	require.Len(t, closure.Params, 1)
	require.Equal(t, "x", closure.Params[0].Name)
	require.NotNil(t, closure.ReturnType)
	require.Equal(t, "Int", closure.ReturnType.Name)
}

func TestClosureWithoutSignatureIsPlainBlock(t *testing.T) {
	stmts := parseSource(t, "let f = { print(1) }")
	closure := stmts[0].(ast.VarDecl).Initializer.(ast.Closure)
	require.Empty(t, closure.Params)
	require.Len(t, closure.Body, 1)
}

func TestGenericArgumentSplitsRightShift(t *testing.T) {
	stmts := parseSource(t, "var x: Box<Box<Int>>")
	decl := stmts[0].(ast.VarDecl)
	require.Equal(t, "Box", decl.Type.Name)
	inner := decl.Type.Generics[0]
	require.Equal(t, "Box", inner.Name)
	require.Equal(t, "Int", inner.Generics[0].Name)
}

func TestGenericConstructorCallParsesAsCall(t *testing.T) {
	stmts := parseSource(t, "Stack<Int>()")
	call := stmts[0].(ast.ExpressionStmt).Expression.(ast.Call)
	callee := call.Callee.(ast.Variable)
	require.Equal(t, "Stack", callee.Name.Lexeme)
	require.Empty(t, call.Args)
}

func TestGenericConstructorCallWithNestedGenericsAndArguments(t *testing.T) {
	stmts := parseSource(t, "Box<Box<Int>>(1)")
	call := stmts[0].(ast.ExpressionStmt).Expression.(ast.Call)
	callee := call.Callee.(ast.Variable)
	require.Equal(t, "Box", callee.Name.Lexeme)
	require.Len(t, call.Args, 1)
}

func TestLessThanWithoutCallFallsBackToComparison(t *testing.T) {
	stmts := parseSource(t, "a < b")
	bin := stmts[0].(ast.ExpressionStmt).Expression.(ast.Binary)
	require.Equal(t, "<", bin.Operator.Lexeme)
	require.Equal(t, "a", bin.Left.(ast.Variable).Name.Lexeme)
	require.Equal(t, "b", bin.Right.(ast.Variable).Name.Lexeme)
}

func TestStringInterpolation(t *testing.T) {
	stmts := parseSource(t, `"hello \(name)!"`)
	interp := stmts[0].(ast.ExpressionStmt).Expression.(ast.StringInterpolation)
	require.Equal(t, []string{"hello ", "!"}, interp.Segments)
	require.Len(t, interp.Exprs, 1)
}

func TestOptionalChainingDesugarsToGet(t *testing.T) {
	stmts := parseSource(t, "a?.b")
	get := stmts[0].(ast.ExpressionStmt).Expression.(ast.Get)
	require.True(t, get.Optional)
	require.Equal(t, "b", get.Name.Lexeme)
}

func TestCompoundAssignDesugarsToAssignOfBinary(t *testing.T) {
	stmts := parseSource(t, "x += 1")
	assign := stmts[0].(ast.ExpressionStmt).Expression.(ast.Assign)
	bin := assign.Value.(ast.Binary)
	require.Equal(t, "+", bin.Operator.Lexeme)
}

func TestVarDeclWithWillSetDidSet(t *testing.T) {
	stmts := parseSource(t, `
var x: Int = 0 {
	willSet { print(newValue) }
	didSet { print(oldValue) }
}`)
	decl := stmts[0].(ast.VarDecl)
	require.NotEmpty(t, decl.WillSet)
	require.NotEmpty(t, decl.DidSet)
}

func TestFuncDeclWithOperatorName(t *testing.T) {
	stmts := parseSource(t, `func +(lhs: Int, rhs: Int) -> Int { return lhs }`)
	fn := stmts[0].(ast.FuncDecl)
	require.Equal(t, "+", fn.Name)
	require.Len(t, fn.Params, 2)
}

func TestGenericFuncDeclWithWhereClause(t *testing.T) {
	stmts := parseSource(t, `func identity<T>(value: T) -> T where T: Equatable { return value }`)
	fn := stmts[0].(ast.FuncDecl)
	require.Len(t, fn.Generics, 1)
	require.Equal(t, "T", fn.Generics[0].Name)
}

func TestClassDeclWithSuperclassAndProtocols(t *testing.T) {
	stmts := parseSource(t, `class Dog: Animal, Equatable { let name: String }`)
	decl := stmts[0].(ast.ClassDecl)
	require.Equal(t, "Animal", decl.Superclass)
	require.Equal(t, []string{"Equatable"}, decl.Protocols)
	require.Len(t, decl.Properties, 1)
}

func TestEnumDeclWithAssociatedValues(t *testing.T) {
	stmts := parseSource(t, `
enum Result {
	case success(value: Int)
	case failure(message: String)
}`)
	decl := stmts[0].(ast.EnumDecl)
	require.Len(t, decl.Cases, 2)
	require.Equal(t, "success", decl.Cases[0].Name)
	require.Len(t, decl.Cases[0].AssocParams, 1)
}

func TestGuardRequiresElseBlock(t *testing.T) {
	stmts := parseSource(t, `
guard let x = maybe else {
	return
}`)
	g := stmts[0].(ast.GuardStmt)
	require.Len(t, g.Conditions, 1)
	require.NotEmpty(t, g.Else)
}

func TestSwitchWithEnumCasePatternAndWhereGuard(t *testing.T) {
	stmts := parseSource(t, `
switch result {
case .success(let value) where value > 0:
	print(value)
default:
	print(0)
}`)
	sw := stmts[0].(ast.SwitchStmt)
	require.Len(t, sw.Cases, 2)
	pat := sw.Cases[0].Patterns[0].(ast.EnumCasePattern)
	require.Equal(t, "success", pat.CaseName)
	require.NotNil(t, sw.Cases[0].Where)
}

func TestForInWithWhereDesugarsToNestedIf(t *testing.T) {
	stmts := parseSource(t, `
for x in items where x > 0 {
	print(x)
}`)
	loop := stmts[0].(ast.ForInStmt)
	require.Len(t, loop.Body, 1)
	_, isIf := loop.Body[0].(ast.IfStmt)
	require.True(t, isIf)
}

func TestDoCatchStatement(t *testing.T) {
	stmts := parseSource(t, `
do {
	throw Error.bad
} catch e {
	print(e)
}`)
	doCatch := stmts[0].(ast.DoCatchStmt)
	require.Len(t, doCatch.Catches, 1)
	require.Equal(t, "e", doCatch.Catches[0].Name)
}

func TestImportDeclarationTakesStringPath(t *testing.T) {
	stmts := parseSource(t, `import "Utils.ss"`)
	imp := stmts[0].(ast.ImportDecl)
	require.Equal(t, "Utils.ss", imp.ModuleName)
}

func TestTupleIndexAccess(t *testing.T) {
	stmts := parseSource(t, "point.0")
	idx := stmts[0].(ast.ExpressionStmt).Expression.(ast.TupleIndex)
	require.Equal(t, 0, idx.Index)
}

func TestSynchronizeRecoversAfterErrorToReportMultiple(t *testing.T) {
	toks, err := lexer.New("var = ; var y = 1").Scan()
	require.NoError(t, err)
	_, errs := Make(toks).Parse()
	require.NotEmpty(t, errs)
}
