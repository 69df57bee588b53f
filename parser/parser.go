// Recursive descent parser with Pratt-style operator precedence.
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// A recursive descent parser is a top-down parser: it starts from the top
// grammar rule and works its way down into nested sub-expressions before
// reaching the leaves of the syntax tree (terminal rules).
package parser

import (
	"fmt"

	"swiftscript/ast"
	"swiftscript/token"
)

var equalityTokenTypes = []token.TokenType{token.EQUAL_EQUAL, token.NOT_EQUAL}
var comparisonTokenTypes = []token.TokenType{token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL}
var shiftTokenTypes = []token.TokenType{token.LSHIFT, token.RSHIFT}
var termTokenTypes = []token.TokenType{token.PLUS, token.MINUS}
var factorTokenTypes = []token.TokenType{token.STAR, token.SLASH, token.PERCENT}
var unaryTokenTypes = []token.TokenType{token.MINUS, token.BANG, token.TILDE}
var compoundAssignTokenTypes = []token.TokenType{
	token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
	token.PERCENT_ASSIGN, token.NIL_COALESCE_ASSIGN,
}

var compoundAssignOperator = map[token.TokenType]token.TokenType{
	token.PLUS_ASSIGN:    token.PLUS,
	token.MINUS_ASSIGN:   token.MINUS,
	token.STAR_ASSIGN:    token.STAR,
	token.SLASH_ASSIGN:   token.SLASH,
	token.PERCENT_ASSIGN: token.PERCENT,
}

// Parser turns a token vector into a vector of Stmt nodes forming the
// program (spec §4.2).
type Parser struct {
	tokens   []token.Token
	position int
}

// NOTE: the parser's position always refers to the *next* unconsumed
// token; previous() looks one behind it.

// Make constructs a new Parser over the given token stream.
func Make(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, position: 0}
}

func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

// peekAt looks ahead offset tokens from the current position without
// consuming anything. Past EOF it keeps returning the EOF token.
func (parser *Parser) peekAt(offset int) token.Token {
	i := parser.position + offset
	if i >= len(parser.tokens) {
		return parser.tokens[len(parser.tokens)-1]
	}
	return parser.tokens[i]
}

func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

func (parser *Parser) isFinished() bool {
	return parser.peek().Type == token.EOF
}

func (parser *Parser) checkType(t token.TokenType) bool {
	if parser.isFinished() {
		return t == token.EOF
	}
	return parser.peek().Type == t
}

func (parser *Parser) checkTypeAt(offset int, t token.TokenType) bool {
	return parser.peekAt(offset).Type == t
}

func (parser *Parser) isMatch(types []token.TokenType) bool {
	for _, t := range types {
		if parser.checkType(t) {
			parser.advance()
			return true
		}
	}
	return false
}

func (parser *Parser) consume(t token.TokenType, message string) (token.Token, error) {
	if parser.checkType(t) {
		return parser.advance(), nil
	}
	cur := parser.peek()
	return token.Token{}, NewParseError(cur.Line, cur.Column, message)
}

// mark/reset support the speculative lookahead a few grammar rules need
// (generic-argument brackets, tuple-vs-grouping disambiguation).
func (parser *Parser) mark() int     { return parser.position }
func (parser *Parser) reset(pos int) { parser.position = pos }

// Parse parses the entire token stream into a slice of Stmt nodes,
// continuing past errors to surface as many as possible.
func (parser *Parser) Parse() ([]ast.Stmt, []error) {
	var statements []ast.Stmt
	var errs []error

	for !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			errs = append(errs, err)
			parser.synchronize()
			continue
		}
		statements = append(statements, stmt)
	}
	return statements, errs
}

// synchronize discards tokens until it reaches a plausible declaration or
// statement boundary, so one syntax error doesn't cascade into dozens.
func (parser *Parser) synchronize() {
	for !parser.isFinished() {
		if parser.previous().Type == token.SEMICOLON {
			return
		}
		switch parser.peek().Type {
		case token.FUNC, token.LET, token.VAR, token.FOR, token.IF, token.WHILE,
			token.RETURN, token.CLASS, token.STRUCT, token.ENUM, token.PROTOCOL,
			token.EXTENSION, token.IMPORT, token.SWITCH, token.GUARD:
			return
		}
		parser.advance()
	}
}

// expression is the entry point for parsing expressions, starting at the
// lowest-precedence rule (assignment).
func (parser *Parser) expression() (ast.Expression, error) {
	return parser.assignment()
}

// assignment parses `target = value` and the compound-assignment forms,
// which desugar to `target = target OP value`.
func (parser *Parser) assignment() (ast.Expression, error) {
	expr, err := parser.ternary()
	if err != nil {
		return nil, err
	}

	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		equals := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		return parser.makeAssignTarget(expr, value, equals)
	}

	if parser.isMatch(compoundAssignTokenTypes) {
		opTok := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		if opTok.Type == token.NIL_COALESCE_ASSIGN {
			desugared := ast.NilCoalesce{Left: expr, Right: value}
			return parser.makeAssignTarget(expr, desugared, opTok)
		}
		plainOp := compoundAssignOperator[opTok.Type]
		binOp := token.New(plainOp, string(plainOp), opTok.Line, opTok.Column)
		desugared := ast.Binary{Left: expr, Operator: binOp, Right: value}
		return parser.makeAssignTarget(expr, desugared, opTok)
	}

	return expr, nil
}

func (parser *Parser) makeAssignTarget(target ast.Expression, value ast.Expression, opTok token.Token) (ast.Expression, error) {
	switch t := target.(type) {
	case ast.Variable:
		return ast.Assign{Name: t.Name, Value: value}, nil
	case ast.Get:
		return ast.Set{Object: t.Object, Name: t.Name, Value: value}, nil
	case ast.SubscriptGet:
		return ast.SubscriptSet{Object: t.Object, Index: t.Index, Value: value}, nil
	default:
		return nil, NewParseError(opTok.Line, opTok.Column, "Invalid assignment target")
	}
}

// ternary parses `cond ? then : else`, right-associative.
func (parser *Parser) ternary() (ast.Expression, error) {
	cond, err := parser.nilCoalesce()
	if err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.QUESTION}) {
		then, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.COLON, "Expected ':' in ternary expression"); err != nil {
			return nil, err
		}
		elseExpr, err := parser.ternary()
		if err != nil {
			return nil, err
		}
		return ast.Ternary{Condition: cond, Then: then, Else: elseExpr}, nil
	}
	return cond, nil
}

// nilCoalesce parses `a ?? b`, right-associative.
func (parser *Parser) nilCoalesce() (ast.Expression, error) {
	left, err := parser.or()
	if err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.QUESTION_QUESTION}) {
		right, err := parser.nilCoalesce()
		if err != nil {
			return nil, err
		}
		return ast.NilCoalesce{Left: left, Right: right}, nil
	}
	return left, nil
}

func (parser *Parser) or() (ast.Expression, error) {
	expr, err := parser.and()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.OR_OR}) {
		op := parser.previous()
		right, err := parser.and()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) and() (ast.Expression, error) {
	expr, err := parser.bitOr()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.AND_AND}) {
		op := parser.previous()
		right, err := parser.bitOr()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) bitOr() (ast.Expression, error) {
	return parser.leftAssocBinary([]token.TokenType{token.PIPE}, parser.bitXor)
}

func (parser *Parser) bitXor() (ast.Expression, error) {
	return parser.leftAssocBinary([]token.TokenType{token.CARET}, parser.bitAnd)
}

func (parser *Parser) bitAnd() (ast.Expression, error) {
	return parser.leftAssocBinary([]token.TokenType{token.AMP}, parser.equality)
}

func (parser *Parser) equality() (ast.Expression, error) {
	return parser.leftAssocBinary(equalityTokenTypes, parser.isAs)
}

// isAs parses the postfix `is Type` / `as Type` / `as? Type` / `as! Type`
// forms, which sit between equality and relational comparison in the
// precedence ladder (spec §4.2).
func (parser *Parser) isAs() (ast.Expression, error) {
	expr, err := parser.comparison()
	if err != nil {
		return nil, err
	}
	for {
		if parser.isMatch([]token.TokenType{token.IS}) {
			nameTok, err := parser.consume(token.IDENTIFIER, "Expected type name after 'is'")
			if err != nil {
				return nil, err
			}
			expr = ast.IsExpr{Value: expr, TypeName: nameTok.Lexeme}
			continue
		}
		if parser.isMatch([]token.TokenType{token.AS}) {
			optional := parser.isMatch([]token.TokenType{token.QUESTION})
			forced := !optional && parser.isMatch([]token.TokenType{token.BANG})
			nameTok, err := parser.consume(token.IDENTIFIER, "Expected type name after 'as'")
			if err != nil {
				return nil, err
			}
			expr = ast.AsExpr{Value: expr, TypeName: nameTok.Lexeme, Optional: optional, Forced: forced}
			continue
		}
		break
	}
	return expr, nil
}

func (parser *Parser) comparison() (ast.Expression, error) {
	return parser.leftAssocBinary(comparisonTokenTypes, parser.shift)
}

func (parser *Parser) shift() (ast.Expression, error) {
	return parser.leftAssocBinary(shiftTokenTypes, parser.rangeExpr)
}

// rangeExpr handles `+`/`-` together with the (non-chaining) range
// operators `...`, `..<`, `..`, which share a precedence level (spec §4.2).
func (parser *Parser) rangeExpr() (ast.Expression, error) {
	expr, err := parser.term()
	if err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.RANGE_CLOSED, token.RANGE_HALF}) {
		inclusive := parser.previous().Type == token.RANGE_CLOSED
		end, err := parser.term()
		if err != nil {
			return nil, err
		}
		return ast.Range{Start: expr, End: end, Inclusive: inclusive}, nil
	}
	if parser.isMatch([]token.TokenType{token.RANGE_TWO_DOT}) {
		end, err := parser.term()
		if err != nil {
			return nil, err
		}
		return ast.Range{Start: expr, End: end, Inclusive: false}, nil
	}
	return expr, nil
}

func (parser *Parser) term() (ast.Expression, error) {
	return parser.leftAssocBinary(termTokenTypes, parser.factor)
}

func (parser *Parser) factor() (ast.Expression, error) {
	return parser.leftAssocBinary(factorTokenTypes, parser.unary)
}

// leftAssocBinary factors out the repeated "parse one operand, then loop
// consuming operator+operand" shape shared by every left-associative
// binary precedence level.
func (parser *Parser) leftAssocBinary(types []token.TokenType, next func() (ast.Expression, error)) (ast.Expression, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(types) {
		op := parser.previous()
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) unary() (ast.Expression, error) {
	if parser.isMatch(unaryTokenTypes) {
		op := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Operator: op, Right: right}, nil
	}
	return parser.postfix()
}

// postfix parses the chain of `!`, `?.`, `.`, call `()`, and subscript
// `[]` suffixes, left to right, at the highest precedence below primary.
func (parser *Parser) postfix() (ast.Expression, error) {
	expr, err := parser.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case parser.isMatch([]token.TokenType{token.BANG}):
			expr = ast.ForceUnwrap{Value: expr}

		case parser.isMatch([]token.TokenType{token.OPTIONAL_CHAIN}):
			name, err := parser.consumeMemberName()
			if err != nil {
				return nil, err
			}
			expr = ast.Get{Object: expr, Name: name, Optional: true}

		case parser.isMatch([]token.TokenType{token.DOT}):
			if parser.checkType(token.INT) {
				idxTok := parser.advance()
				idx, _ := idxTok.Literal.(int64)
				expr = ast.TupleIndex{Object: expr, Index: int(idx)}
				continue
			}
			name, err := parser.consumeMemberName()
			if err != nil {
				return nil, err
			}
			expr = ast.Get{Object: expr, Name: name}

		case parser.checkType(token.LPAREN):
			parser.advance()
			args, err := parser.finishCallArguments()
			if err != nil {
				return nil, err
			}
			expr = ast.Call{Callee: expr, Args: args}

		case parser.isMatch([]token.TokenType{token.LBRACKET}):
			index, err := parser.expression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.RBRACKET, "Expected ']' after subscript index"); err != nil {
				return nil, err
			}
			expr = ast.SubscriptGet{Object: expr, Index: index}

		default:
			return expr, nil
		}
	}
}

func (parser *Parser) consumeMemberName() (token.Token, error) {
	if parser.checkType(token.SELF) || parser.checkType(token.INIT) {
		return parser.advance(), nil
	}
	return parser.consume(token.IDENTIFIER, "Expected member name after '.'")
}

func (parser *Parser) finishCallArguments() ([]ast.Argument, error) {
	var args []ast.Argument
	if !parser.checkType(token.RPAREN) {
		for {
			label := ""
			if parser.checkType(token.IDENTIFIER) && parser.checkTypeAt(1, token.COLON) {
				label = parser.advance().Lexeme
				parser.advance()
			}
			value, err := parser.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Argument{Label: label, Value: value})
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPAREN, "Expected ')' after argument list"); err != nil {
		return nil, err
	}
	return args, nil
}

// primary parses the terminal forms: literals, identifiers, grouping,
// tuple literals, array/dictionary literals, closures, self/super.
func (parser *Parser) primary() (ast.Expression, error) {
	switch {
	case parser.isMatch([]token.TokenType{token.FALSE}):
		return ast.Literal{Value: false}, nil
	case parser.isMatch([]token.TokenType{token.TRUE}):
		return ast.Literal{Value: true}, nil
	case parser.isMatch([]token.TokenType{token.NIL}):
		return ast.Literal{Value: nil}, nil
	case parser.isMatch([]token.TokenType{token.INT, token.FLOAT}):
		return ast.Literal{Value: parser.previous().Literal}, nil
	case parser.isMatch([]token.TokenType{token.STRING}):
		return ast.Literal{Value: parser.previous().Literal}, nil
	case parser.checkType(token.INTERP_STRING_START):
		return parser.stringInterpolation()
	case parser.isMatch([]token.TokenType{token.SELF}):
		return ast.SelfExpr{Keyword: parser.previous()}, nil
	case parser.isMatch([]token.TokenType{token.SUPER}):
		return parser.superExpr()
	case parser.checkType(token.LBRACE):
		return parser.closureExpr()
	case parser.checkType(token.LBRACKET):
		return parser.collectionLiteral()
	case parser.checkType(token.LPAREN):
		return parser.parenOrTuple()
	case parser.isMatch([]token.TokenType{token.IDENTIFIER}):
		nameTok := parser.previous()
		if parser.checkType(token.LESS) {
			parser.tryConsumeGenericArgumentList()
		}
		return ast.Variable{Name: nameTok}, nil
	}

	cur := parser.peek()
	return nil, NewParseError(cur.Line, cur.Column, fmt.Sprintf("Unexpected token %q", cur.Lexeme))
}

func (parser *Parser) superExpr() (ast.Expression, error) {
	keyword := parser.previous()
	if _, err := parser.consume(token.DOT, "Expected '.' after 'super'"); err != nil {
		return nil, err
	}
	method, err := parser.consumeMemberName()
	if err != nil {
		return nil, err
	}
	return ast.SuperExpr{Keyword: keyword, Method: method}, nil
}

// stringInterpolation parses the lexer's INTERP_STRING_START...
// INTERP_STRING_END sub-stream into a single StringInterpolation node.
func (parser *Parser) stringInterpolation() (ast.Expression, error) {
	parser.advance() // INTERP_STRING_START

	var segments []string
	var exprs []ast.Expression

	for {
		seg, err := parser.consume(token.STRING_SEGMENT, "Expected string segment")
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg.Literal.(string))

		if parser.isMatch([]token.TokenType{token.INTERP_STRING_END}) {
			break
		}
		if _, err := parser.consume(token.INTERP_START, "Expected interpolation start"); err != nil {
			return nil, err
		}
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if _, err := parser.consume(token.INTERP_END, "Expected interpolation end"); err != nil {
			return nil, err
		}
	}

	return ast.StringInterpolation{Segments: segments, Exprs: exprs}, nil
}

func (parser *Parser) collectionLiteral() (ast.Expression, error) {
	parser.advance() // '['

	if parser.isMatch([]token.TokenType{token.COLON}) {
		if _, err := parser.consume(token.RBRACKET, "Expected ']' to close empty dictionary literal"); err != nil {
			return nil, err
		}
		return ast.DictLiteral{}, nil
	}

	if parser.isMatch([]token.TokenType{token.RBRACKET}) {
		return ast.ArrayLiteral{}, nil
	}

	first, err := parser.expression()
	if err != nil {
		return nil, err
	}

	if parser.isMatch([]token.TokenType{token.COLON}) {
		firstValue, err := parser.expression()
		if err != nil {
			return nil, err
		}
		entries := []ast.DictEntry{{Key: first, Value: firstValue}}
		for parser.isMatch([]token.TokenType{token.COMMA}) {
			k, err := parser.expression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.COLON, "Expected ':' in dictionary literal"); err != nil {
				return nil, err
			}
			v, err := parser.expression()
			if err != nil {
				return nil, err
			}
			entries = append(entries, ast.DictEntry{Key: k, Value: v})
		}
		if _, err := parser.consume(token.RBRACKET, "Expected ']' to close dictionary literal"); err != nil {
			return nil, err
		}
		return ast.DictLiteral{Entries: entries}, nil
	}

	elements := []ast.Expression{first}
	for parser.isMatch([]token.TokenType{token.COMMA}) {
		e, err := parser.expression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	if _, err := parser.consume(token.RBRACKET, "Expected ']' to close array literal"); err != nil {
		return nil, err
	}
	return ast.ArrayLiteral{Elements: elements}, nil
}

// parenOrTuple disambiguates grouping from a tuple literal: it is a tuple
// if the first comma appears before the matching ')', or a `label:`
// prefix is detected (spec §4.2).
func (parser *Parser) parenOrTuple() (ast.Expression, error) {
	parser.advance() // '('

	if parser.checkType(token.RPAREN) {
		parser.advance()
		return ast.TupleLiteral{}, nil
	}

	label := ""
	if parser.checkType(token.IDENTIFIER) && parser.checkTypeAt(1, token.COLON) {
		label = parser.advance().Lexeme
		parser.advance()
	}
	first, err := parser.expression()
	if err != nil {
		return nil, err
	}

	if !parser.checkType(token.COMMA) && label == "" {
		if _, err := parser.consume(token.RPAREN, "Expected ')' after grouped expression"); err != nil {
			return nil, err
		}
		return ast.Grouping{Expression: first}, nil
	}

	elements := []ast.TupleElement{{Label: label, Value: first}}
	for parser.isMatch([]token.TokenType{token.COMMA}) {
		l := ""
		if parser.checkType(token.IDENTIFIER) && parser.checkTypeAt(1, token.COLON) {
			l = parser.advance().Lexeme
			parser.advance()
		}
		v, err := parser.expression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, ast.TupleElement{Label: l, Value: v})
	}
	if _, err := parser.consume(token.RPAREN, "Expected ')' to close tuple literal"); err != nil {
		return nil, err
	}
	return ast.TupleLiteral{Elements: elements}, nil
}

// closureExpr parses `{ (params) -> Ret in body }` as well as the
// parameter-less `{ body }` shorthand.
func (parser *Parser) closureExpr() (ast.Expression, error) {
	if _, err := parser.consume(token.LBRACE, "Expected '{'"); err != nil {
		return nil, err
	}

	var params []ast.Param
	var retType *ast.TypeRef
	hasSignature := false

	if parser.checkType(token.LPAREN) {
		save := parser.mark()
		p, rt, ok := parser.tryParseClosureSignature()
		if ok {
			params, retType, hasSignature = p, rt, true
		} else {
			parser.reset(save)
		}
	}
	if !hasSignature && parser.checkType(token.IN) {
		parser.advance()
	}

	var body []ast.Stmt
	for !parser.checkType(token.RBRACE) && !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if _, err := parser.consume(token.RBRACE, "Expected '}' to close closure"); err != nil {
		return nil, err
	}
	return ast.Closure{Params: params, ReturnType: retType, Body: body}, nil
}

// tryParseClosureSignature speculatively parses `(params) -> Ret in` and
// reports ok=false (without an error) on any mismatch, letting the caller
// backtrack and treat `{` as a plain block body instead.
func (parser *Parser) tryParseClosureSignature() ([]ast.Param, *ast.TypeRef, bool) {
	parser.advance() // '('
	var params []ast.Param
	if !parser.checkType(token.RPAREN) {
		for {
			if !parser.checkType(token.IDENTIFIER) {
				return nil, nil, false
			}
			nameTok := parser.advance()
			var pType ast.TypeRef
			if parser.isMatch([]token.TokenType{token.COLON}) {
				t, err := parser.parseType()
				if err != nil {
					return nil, nil, false
				}
				pType = t
			}
			params = append(params, ast.Param{Name: nameTok.Lexeme, Label: nameTok.Lexeme, Type: pType})
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if !parser.checkType(token.RPAREN) {
		return nil, nil, false
	}
	parser.advance()

	var retType *ast.TypeRef
	if parser.isMatch([]token.TokenType{token.ARROW}) {
		rt, err := parser.parseType()
		if err != nil {
			return nil, nil, false
		}
		retType = &rt
	}
	if !parser.checkType(token.IN) {
		return nil, nil, false
	}
	parser.advance()
	return params, retType, true
}
