package parser

import (
	"swiftscript/ast"
	"swiftscript/token"
)

// statement parses a single statement: print, block, if, guard, while,
// repeat/while, for/in, switch, break, continue, return, throw, do/catch,
// or a bare expression statement.
func (parser *Parser) statement() (ast.Stmt, error) {
	switch {
	case parser.isMatch([]token.TokenType{token.PRINT}):
		return parser.printStatement()
	case parser.isMatch([]token.TokenType{token.LBRACE}):
		stmts, err := parser.blockStatements()
		if err != nil {
			return nil, err
		}
		return ast.BlockStmt{Statements: stmts}, nil
	case parser.isMatch([]token.TokenType{token.IF}):
		return parser.ifStatement()
	case parser.isMatch([]token.TokenType{token.GUARD}):
		return parser.guardStatement()
	case parser.isMatch([]token.TokenType{token.WHILE}):
		return parser.whileStatement()
	case parser.isMatch([]token.TokenType{token.REPEAT}):
		return parser.repeatWhileStatement()
	case parser.isMatch([]token.TokenType{token.FOR}):
		return parser.forInStatement()
	case parser.isMatch([]token.TokenType{token.SWITCH}):
		return parser.switchStatement()
	case parser.isMatch([]token.TokenType{token.BREAK}):
		return ast.BreakStmt{Keyword: parser.previous()}, nil
	case parser.isMatch([]token.TokenType{token.CONTINUE}):
		return ast.ContinueStmt{Keyword: parser.previous()}, nil
	case parser.isMatch([]token.TokenType{token.RETURN}):
		return parser.returnStatement()
	case parser.isMatch([]token.TokenType{token.THROW}):
		return parser.throwStatement()
	case parser.isMatch([]token.TokenType{token.DO}):
		return parser.doCatchStatement()
	}

	expr, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.ExpressionStmt{Expression: expr}, nil
}

func (parser *Parser) printStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LPAREN, "Expected '(' after 'print'"); err != nil {
		return nil, err
	}
	var args []ast.Expression
	if !parser.checkType(token.RPAREN) {
		for {
			e, err := parser.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPAREN, "Expected ')' after print arguments"); err != nil {
		return nil, err
	}
	return ast.PrintStmt{Arguments: args}, nil
}

// parseConditionList parses the comma-separated list of boolean
// expressions and `let`/`case let` optional bindings shared by
// `if`/`guard`/`while`.
func (parser *Parser) parseConditionList() ([]ast.Condition, error) {
	var conds []ast.Condition
	for {
		cond, err := parser.parseOneCondition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
		if !parser.isMatch([]token.TokenType{token.COMMA}) {
			break
		}
	}
	return conds, nil
}

func (parser *Parser) parseOneCondition() (ast.Condition, error) {
	if parser.isMatch([]token.TokenType{token.CASE}) {
		pattern, err := parser.parsePattern()
		if err != nil {
			return ast.Condition{}, err
		}
		if _, err := parser.consume(token.ASSIGN, "Expected '=' after case pattern"); err != nil {
			return ast.Condition{}, err
		}
		value, err := parser.expression()
		if err != nil {
			return ast.Condition{}, err
		}
		return ast.Condition{Pattern: pattern, Boolean: value}, nil
	}
	if parser.isMatch([]token.TokenType{token.LET}) {
		nameTok, err := parser.consume(token.IDENTIFIER, "Expected binding name after 'let'")
		if err != nil {
			return ast.Condition{}, err
		}
		if _, err := parser.consume(token.ASSIGN, "Expected '=' after optional binding name"); err != nil {
			return ast.Condition{}, err
		}
		value, err := parser.expression()
		if err != nil {
			return ast.Condition{}, err
		}
		return ast.Condition{Binding: &ast.OptionalBinding{Name: nameTok.Lexeme, Value: value}}, nil
	}
	e, err := parser.expression()
	if err != nil {
		return ast.Condition{}, err
	}
	return ast.Condition{Boolean: e}, nil
}

func (parser *Parser) ifStatement() (ast.Stmt, error) {
	conds, err := parser.parseConditionList()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start if-branch"); err != nil {
		return nil, err
	}
	thenBody, err := parser.blockStatements()
	if err != nil {
		return nil, err
	}

	var elseBody []ast.Stmt
	if parser.isMatch([]token.TokenType{token.ELSE}) {
		if parser.checkType(token.IF) {
			parser.advance()
			elseIf, err := parser.ifStatement()
			if err != nil {
				return nil, err
			}
			elseBody = []ast.Stmt{elseIf}
		} else {
			if _, err := parser.consume(token.LBRACE, "Expected '{' to start else-branch"); err != nil {
				return nil, err
			}
			elseBody, err = parser.blockStatements()
			if err != nil {
				return nil, err
			}
		}
	}
	return ast.IfStmt{Conditions: conds, Then: thenBody, Else: elseBody}, nil
}

func (parser *Parser) guardStatement() (ast.Stmt, error) {
	conds, err := parser.parseConditionList()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.ELSE, "Expected 'else' after guard condition"); err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start guard-else body"); err != nil {
		return nil, err
	}
	elseBody, err := parser.blockStatements()
	if err != nil {
		return nil, err
	}
	return ast.GuardStmt{Conditions: conds, Else: elseBody}, nil
}

func (parser *Parser) whileStatement() (ast.Stmt, error) {
	conds, err := parser.parseConditionList()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start while-body"); err != nil {
		return nil, err
	}
	body, err := parser.blockStatements()
	if err != nil {
		return nil, err
	}
	return ast.WhileStmt{Conditions: conds, Body: body}, nil
}

func (parser *Parser) repeatWhileStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start repeat-body"); err != nil {
		return nil, err
	}
	body, err := parser.blockStatements()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.WHILE, "Expected 'while' after repeat-body"); err != nil {
		return nil, err
	}
	cond, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.RepeatWhileStmt{Body: body, Condition: cond}, nil
}

func (parser *Parser) forInStatement() (ast.Stmt, error) {
	nameTok, err := parser.consume(token.IDENTIFIER, "Expected loop variable name")
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.IN, "Expected 'in' after loop variable"); err != nil {
		return nil, err
	}
	seq, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.WHERE}) {
		whereExpr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.LBRACE, "Expected '{' to start for-body"); err != nil {
			return nil, err
		}
		body, err := parser.blockStatements()
		if err != nil {
			return nil, err
		}
		guarded := ast.IfStmt{Conditions: []ast.Condition{{Boolean: whereExpr}}, Then: body}
		return ast.ForInStmt{Name: nameTok.Lexeme, Sequence: seq, Body: []ast.Stmt{guarded}}, nil
	}
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start for-body"); err != nil {
		return nil, err
	}
	body, err := parser.blockStatements()
	if err != nil {
		return nil, err
	}
	return ast.ForInStmt{Name: nameTok.Lexeme, Sequence: seq, Body: body}, nil
}

// parsePattern parses a single switch-case match pattern: `.case(binds)`,
// a plain expression (including ranges), or the `_` wildcard.
func (parser *Parser) parsePattern() (ast.Pattern, error) {
	if parser.isMatch([]token.TokenType{token.UNDERSCORE}) {
		return ast.WildcardPattern{}, nil
	}
	if parser.isMatch([]token.TokenType{token.DEFAULT}) {
		return ast.WildcardPattern{}, nil
	}
	if parser.isMatch([]token.TokenType{token.DOT}) {
		nameTok, err := parser.consume(token.IDENTIFIER, "Expected enum case name after '.'")
		if err != nil {
			return nil, err
		}
		pattern := ast.EnumCasePattern{CaseName: nameTok.Lexeme}
		if parser.isMatch([]token.TokenType{token.LPAREN}) {
			if !parser.checkType(token.RPAREN) {
				for {
					if parser.isMatch([]token.TokenType{token.LET}) {
						b, err := parser.consume(token.IDENTIFIER, "Expected binding name")
						if err != nil {
							return nil, err
						}
						pattern.Bindings = append(pattern.Bindings, ast.PatternBinding{Name: b.Lexeme})
					} else if parser.isMatch([]token.TokenType{token.UNDERSCORE}) {
						pattern.Bindings = append(pattern.Bindings, ast.PatternBinding{Name: "_"})
					} else {
						cur := parser.peek()
						return nil, NewParseError(cur.Line, cur.Column, "Expected 'let name' or '_' in case pattern")
					}
					if !parser.isMatch([]token.TokenType{token.COMMA}) {
						break
					}
				}
			}
			if _, err := parser.consume(token.RPAREN, "Expected ')' to close case pattern bindings"); err != nil {
				return nil, err
			}
		}
		return pattern, nil
	}
	e, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.ExpressionPattern{Value: e}, nil
}

func (parser *Parser) switchStatement() (ast.Stmt, error) {
	subject, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start switch body"); err != nil {
		return nil, err
	}

	var cases []ast.SwitchCase
	for parser.isMatch([]token.TokenType{token.CASE, token.DEFAULT}) {
		isDefault := parser.previous().Type == token.DEFAULT
		var patterns []ast.Pattern
		if isDefault {
			patterns = []ast.Pattern{ast.WildcardPattern{}}
		} else {
			for {
				p, err := parser.parsePattern()
				if err != nil {
					return nil, err
				}
				patterns = append(patterns, p)
				if !parser.isMatch([]token.TokenType{token.COMMA}) {
					break
				}
			}
		}
		var whereExpr ast.Expression
		if parser.isMatch([]token.TokenType{token.WHERE}) {
			whereExpr, err = parser.expression()
			if err != nil {
				return nil, err
			}
		}
		if _, err := parser.consume(token.COLON, "Expected ':' after case pattern"); err != nil {
			return nil, err
		}
		var body []ast.Stmt
		for !parser.checkType(token.CASE) && !parser.checkType(token.DEFAULT) && !parser.checkType(token.RBRACE) && !parser.isFinished() {
			stmt, err := parser.declaration()
			if err != nil {
				return nil, err
			}
			body = append(body, stmt)
		}
		cases = append(cases, ast.SwitchCase{Patterns: patterns, Where: whereExpr, Body: body})
	}
	if _, err := parser.consume(token.RBRACE, "Expected '}' to close switch body"); err != nil {
		return nil, err
	}
	return ast.SwitchStmt{Subject: subject, Cases: cases}, nil
}

func (parser *Parser) returnStatement() (ast.Stmt, error) {
	keyword := parser.previous()
	var value ast.Expression
	if !parser.checkType(token.RBRACE) && !parser.checkType(token.SEMICOLON) && !parser.isFinished() &&
		parser.peek().Line == keyword.Line {
		v, err := parser.expression()
		if err != nil {
			return nil, err
		}
		value = v
	}
	return ast.ReturnStmt{Keyword: keyword, Value: value}, nil
}

func (parser *Parser) throwStatement() (ast.Stmt, error) {
	keyword := parser.previous()
	value, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.ThrowStmt{Keyword: keyword, Value: value}, nil
}

func (parser *Parser) doCatchStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start do-body"); err != nil {
		return nil, err
	}
	body, err := parser.blockStatements()
	if err != nil {
		return nil, err
	}

	var catches []ast.CatchClause
	for parser.isMatch([]token.TokenType{token.CATCH}) {
		name := ""
		if parser.checkType(token.IDENTIFIER) {
			name = parser.advance().Lexeme
		}
		if _, err := parser.consume(token.LBRACE, "Expected '{' to start catch-body"); err != nil {
			return nil, err
		}
		catchBody, err := parser.blockStatements()
		if err != nil {
			return nil, err
		}
		catches = append(catches, ast.CatchClause{Name: name, Body: catchBody})
	}
	return ast.DoCatchStmt{Body: body, Catches: catches}, nil
}
