package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAndNewLiteral(t *testing.T) {
	tests := []struct {
		name string
		got  Token
		want Token
	}{
		{
			name: "plain token carries no literal",
			got:  New(ASSIGN, "=", 3, 5),
			want: Token{Type: ASSIGN, Lexeme: "=", Line: 3, Column: 5},
		},
		{
			name: "literal token carries its parsed value",
			got:  NewLiteral(INT, "42", int64(42), 1, 0),
			want: Token{Type: INT, Lexeme: "42", Literal: int64(42), Line: 1, Column: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.got)
		})
	}
}

func TestKeywordsMapsReservedWords(t *testing.T) {
	cases := map[string]TokenType{
		"func": FUNC, "let": LET, "var": VAR, "class": CLASS,
		"struct": STRUCT, "enum": ENUM, "protocol": PROTOCOL,
		"guard": GUARD, "willSet": WILL_SET, "didSet": DID_SET,
		"mutating": MUTATING, "weak": WEAK, "unowned": UNOWNED,
	}
	for word, want := range cases {
		got, ok := Keywords[word]
		require.True(t, ok, "expected %q to be a keyword", word)
		require.Equal(t, want, got)
	}

	_, ok := Keywords["notAKeyword"]
	require.False(t, ok)
}

func TestTokenString(t *testing.T) {
	tok := New(IDENTIFIER, "x", 1, 1)
	require.Equal(t, `Token{IDENTIFIER "x"}`, tok.String())
}
