package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swiftscript/ast"
	"swiftscript/token"
)

func TestPrintLiteral(t *testing.T) {
	stmts := []ast.Stmt{
		ast.PrintStmt{Arguments: []ast.Expression{ast.Literal{Value: 42}}},
	}
	out := Print(stmts)
	require.Contains(t, out, "PrintStmt")
	require.Contains(t, out, "42")
}

func TestPrintVarDeclNilInitializer(t *testing.T) {
	name := token.New(token.IDENTIFIER, "x", 1, 1)
	stmts := []ast.Stmt{
		ast.VarDecl{Name: name},
	}
	out := Print(stmts)
	require.Contains(t, out, "var x")
}

func TestPrintBinaryExpression(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExpressionStmt{Expression: ast.Binary{
			Left:     ast.Literal{Value: 1},
			Operator: token.New(token.PLUS, "+", 1, 1),
			Right:    ast.Literal{Value: 2},
		}},
	}
	out := Print(stmts)
	require.Contains(t, out, "ExpressionStmt")
	require.Contains(t, out, "Binary")
	require.Contains(t, out, "+")
	require.Contains(t, out, "1")
	require.Contains(t, out, "2")
}

func TestPrintIfWithOptionalBinding(t *testing.T) {
	stmts := []ast.Stmt{
		ast.IfStmt{
			Conditions: []ast.Condition{
				{Binding: &ast.OptionalBinding{Name: "value", Value: ast.Variable{Name: token.New(token.IDENTIFIER, "maybe", 1, 1)}}},
			},
			Then: []ast.Stmt{ast.PrintStmt{Arguments: []ast.Expression{ast.Variable{Name: token.New(token.IDENTIFIER, "value", 1, 1)}}}},
		},
	}
	out := Print(stmts)
	require.Contains(t, out, "If")
	require.Contains(t, out, "value")
}

func TestPrintSwitchWithEnumCasePattern(t *testing.T) {
	stmts := []ast.Stmt{
		ast.SwitchStmt{
			Subject: ast.Variable{Name: token.New(token.IDENTIFIER, "result", 1, 1)},
			Cases: []ast.SwitchCase{
				{Patterns: []ast.Pattern{ast.EnumCasePattern{
					CaseName: "success",
					Bindings: []ast.PatternBinding{{Name: "value"}},
				}}},
				{Patterns: []ast.Pattern{ast.WildcardPattern{}}},
			},
		},
	}
	out := Print(stmts)
	require.Contains(t, out, "Switch")
	require.Contains(t, out, "success")
	require.Contains(t, out, "_")
}
