package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swiftscript/token"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestOperators(t *testing.T) {
	toks, err := New("== / = * + > - < != <= >= ! ?? ?. +=").Scan()
	require.NoError(t, err)
	require.Equal(t, []token.TokenType{
		token.EQUAL_EQUAL, token.SLASH, token.ASSIGN, token.STAR, token.PLUS,
		token.GREATER, token.MINUS, token.LESS, token.NOT_EQUAL, token.LESS_EQUAL,
		token.GREATER_EQUAL, token.BANG, token.QUESTION_QUESTION, token.OPTIONAL_CHAIN,
		token.PLUS_ASSIGN, token.EOF,
	}, tokenTypes(toks))
}

func TestPunctuationAndGrouping(t *testing.T) {
	toks, err := New("(){}[]**;+!=<=").Scan()
	require.NoError(t, err)
	require.Equal(t, []token.TokenType{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.STAR, token.STAR, token.SEMICOLON,
		token.PLUS, token.NOT_EQUAL, token.LESS_EQUAL, token.EOF,
	}, tokenTypes(toks))
}

func TestRangeOperatorsLongestMatchWins(t *testing.T) {
	toks, err := New("1...3 1..<3 1..2").Scan()
	require.NoError(t, err)
	require.Equal(t, []token.TokenType{
		token.INT, token.RANGE_CLOSED, token.INT,
		token.INT, token.RANGE_HALF, token.INT,
		token.INT, token.RANGE_TWO_DOT, token.INT,
		token.EOF,
	}, tokenTypes(toks))
}

func TestRightShiftLexesAsSingleToken(t *testing.T) {
	toks, err := New("a >> b").Scan()
	require.NoError(t, err)
	require.Equal(t, []token.TokenType{
		token.IDENTIFIER, token.RSHIFT, token.IDENTIFIER, token.EOF,
	}, tokenTypes(toks))
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks, err := New("let x = foo").Scan()
	require.NoError(t, err)
	require.Equal(t, []token.TokenType{
		token.LET, token.IDENTIFIER, token.ASSIGN, token.IDENTIFIER, token.EOF,
	}, tokenTypes(toks))
}

func TestIntAndFloatLiterals(t *testing.T) {
	toks, err := New("42 3.14").Scan()
	require.NoError(t, err)
	require.Len(t, toks, 3)
	require.Equal(t, int64(42), toks[0].Literal)
	require.Equal(t, 3.14, toks[1].Literal)
}

func TestPlainStringLiteral(t *testing.T) {
	toks, err := New(`"hello\nworld"`).Scan()
	require.NoError(t, err)
	require.Equal(t, []token.TokenType{token.STRING, token.EOF}, tokenTypes(toks))
	require.Equal(t, "hello\nworld", toks[0].Literal)
}

func TestUnterminatedString(t *testing.T) {
	_, err := New(`"oops`).Scan()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unterminated string")
}

func TestUnexpectedCharacter(t *testing.T) {
	_, err := New("$").Scan()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unexpected character")
}

func TestStringInterpolationSubStream(t *testing.T) {
	toks, err := New(`"x = \(x + 1)!"`).Scan()
	require.NoError(t, err)
	require.Equal(t, []token.TokenType{
		token.INTERP_STRING_START,
		token.STRING_SEGMENT,
		token.INTERP_START,
		token.IDENTIFIER, token.PLUS, token.INT,
		token.INTERP_END,
		token.STRING_SEGMENT,
		token.INTERP_STRING_END,
		token.EOF,
	}, tokenTypes(toks))
	require.Equal(t, "x = ", toks[1].Literal)
	require.Equal(t, "!", toks[7].Literal)
}

func TestNestedParensInsideInterpolationDoNotCloseItEarly(t *testing.T) {
	toks, err := New(`"\(foo(a, b))"`).Scan()
	require.NoError(t, err)
	require.Equal(t, []token.TokenType{
		token.INTERP_STRING_START,
		token.STRING_SEGMENT,
		token.INTERP_START,
		token.IDENTIFIER, token.LPAREN, token.IDENTIFIER, token.COMMA, token.IDENTIFIER, token.RPAREN,
		token.INTERP_END,
		token.STRING_SEGMENT,
		token.INTERP_STRING_END,
		token.EOF,
	}, tokenTypes(toks))
}

func TestLineAndBlockComments(t *testing.T) {
	toks, err := New("1 // a comment\n/* block\ncomment */ 2").Scan()
	require.NoError(t, err)
	require.Equal(t, []token.TokenType{token.INT, token.INT, token.EOF}, tokenTypes(toks))
}
