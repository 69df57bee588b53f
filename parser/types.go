package parser

import (
	"swiftscript/ast"
	"swiftscript/token"
)

// parseType parses a type annotation: a name (with optional `<...>`
// generic arguments), an array `[T]`, a dictionary `[K: V]`, a function
// type `(T1, T2) -> T3`, a parenthesized tuple type `(T1, T2)`, or any of
// the above suffixed with one or more `?` for optionality.
func (parser *Parser) parseType() (ast.TypeRef, error) {
	var t ast.TypeRef
	var err error

	switch {
	case parser.checkType(token.LBRACKET):
		t, err = parser.parseBracketType()
	case parser.checkType(token.LPAREN):
		t, err = parser.parseParenType()
	default:
		t, err = parser.parseNamedType()
	}
	if err != nil {
		return ast.TypeRef{}, err
	}

	for parser.isMatch([]token.TokenType{token.QUESTION}) {
		t = ast.TypeRef{IsOptional: true, Name: "Optional", Generics: []ast.TypeRef{t}}
	}
	return t, nil
}

func (parser *Parser) parseNamedType() (ast.TypeRef, error) {
	nameTok, err := parser.consume(token.IDENTIFIER, "Expected type name")
	if err != nil {
		return ast.TypeRef{}, err
	}
	t := ast.TypeRef{Name: nameTok.Lexeme}

	if parser.isMatch([]token.TokenType{token.LESS}) {
		for {
			arg, err := parser.parseType()
			if err != nil {
				return ast.TypeRef{}, err
			}
			t.Generics = append(t.Generics, arg)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
		if _, err := parser.consumeCloseGeneric(); err != nil {
			return ast.TypeRef{}, err
		}
	}
	return t, nil
}

// consumeCloseGeneric consumes a `>` closing a generic-argument list,
// splitting a `>>` token into two `>` tokens when only one is needed -
// the same trick the lexer's RSHIFT note defers to the parser.
func (parser *Parser) consumeCloseGeneric() (token.Token, error) {
	if parser.checkType(token.GREATER) {
		return parser.advance(), nil
	}
	if parser.checkType(token.RSHIFT) {
		rshift := parser.tokens[parser.position]
		first := token.New(token.GREATER, ">", rshift.Line, rshift.Column)
		second := token.New(token.GREATER, ">", rshift.Line, rshift.Column+1)
		rest := append([]token.Token{second}, parser.tokens[parser.position+1:]...)
		parser.tokens = append(parser.tokens[:parser.position], rest...)
		parser.advance()
		return first, nil
	}
	cur := parser.peek()
	return token.Token{}, NewParseError(cur.Line, cur.Column, "Expected '>' to close generic argument list")
}

// tryConsumeGenericArgumentList implements spec §4.2's disambiguation rule
// for `<` in expression position: it is only a generic-argument clause
// (as opposed to a `<` comparison) when a speculative scan finds a
// matching `>` immediately followed by `(` — i.e. a generic constructor
// or function call like `Stack<Int>()` — before any statement-terminating
// token. On any mismatch it backtracks completely, leaving `<` for the
// comparison precedence level to consume as an operator instead.
func (parser *Parser) tryConsumeGenericArgumentList() bool {
	save := parser.mark()
	// consumeCloseGeneric may split a trailing '>>' into two '>' tokens in
	// place, mutating parser.tokens itself; snapshot the tail so a failed
	// attempt can undo that mutation too, not just the position.
	savedTail := append([]token.Token(nil), parser.tokens[save:]...)
	backtrack := func() bool {
		parser.tokens = append(parser.tokens[:save], savedTail...)
		parser.reset(save)
		return false
	}

	parser.advance() // '<'
	for {
		if _, err := parser.parseType(); err != nil {
			return backtrack()
		}
		if !parser.isMatch([]token.TokenType{token.COMMA}) {
			break
		}
	}
	if _, err := parser.consumeCloseGeneric(); err != nil {
		return backtrack()
	}
	if !parser.checkType(token.LPAREN) {
		return backtrack()
	}
	return true
}

func (parser *Parser) parseBracketType() (ast.TypeRef, error) {
	if _, err := parser.consume(token.LBRACKET, "Expected '['"); err != nil {
		return ast.TypeRef{}, err
	}
	key, err := parser.parseType()
	if err != nil {
		return ast.TypeRef{}, err
	}
	if parser.isMatch([]token.TokenType{token.COLON}) {
		value, err := parser.parseType()
		if err != nil {
			return ast.TypeRef{}, err
		}
		if _, err := parser.consume(token.RBRACKET, "Expected ']' after dictionary type"); err != nil {
			return ast.TypeRef{}, err
		}
		return ast.TypeRef{IsDictionary: true, DictKey: &key, DictValue: &value}, nil
	}
	if _, err := parser.consume(token.RBRACKET, "Expected ']' after array element type"); err != nil {
		return ast.TypeRef{}, err
	}
	return ast.TypeRef{IsArray: true, ArrayElement: &key}, nil
}

// parseParenType parses a parenthesized element list and decides whether
// it is a function type (if `->` follows) or a tuple type. A single
// unlabeled element collapses to that same type, matching Swift's
// "parentheses around one type are not a one-tuple" rule.
func (parser *Parser) parseParenType() (ast.TypeRef, error) {
	if _, err := parser.consume(token.LPAREN, "Expected '('"); err != nil {
		return ast.TypeRef{}, err
	}

	var labels []string
	var elems []ast.TypeRef
	if !parser.checkType(token.RPAREN) {
		for {
			label := ""
			if parser.checkType(token.IDENTIFIER) && parser.checkTypeAt(1, token.COLON) {
				label = parser.advance().Lexeme
				parser.advance() // consume ':'
			}
			elemType, err := parser.parseType()
			if err != nil {
				return ast.TypeRef{}, err
			}
			labels = append(labels, label)
			elems = append(elems, elemType)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPAREN, "Expected ')' to close parenthesized type"); err != nil {
		return ast.TypeRef{}, err
	}

	if parser.isMatch([]token.TokenType{token.ARROW}) {
		ret, err := parser.parseType()
		if err != nil {
			return ast.TypeRef{}, err
		}
		return ast.TypeRef{IsFunction: true, FuncParams: elems, FuncReturn: &ret}, nil
	}

	if len(elems) == 1 && labels[0] == "" {
		return elems[0], nil
	}
	return ast.TypeRef{IsTuple: true, TupleLabels: labels, TupleElems: elems}, nil
}
