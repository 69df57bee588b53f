package parser

import (
	"swiftscript/ast"
	"swiftscript/token"
)

// declaration parses attributes, an access modifier, and dispatches to the
// matching declaration or, failing all of those, a plain statement.
func (parser *Parser) declaration() (ast.Stmt, error) {
	attrs, err := parser.parseAttributes()
	if err != nil {
		return nil, err
	}

	access, hasAccess := parser.parseAccessModifier()

	switch {
	case parser.isMatch([]token.TokenType{token.VAR}):
		return parser.varDeclaration(false, access)
	case parser.isMatch([]token.TokenType{token.LET}):
		return parser.varDeclaration(true, access)
	case parser.checkType(token.STATIC), parser.checkType(token.MUTATING), parser.checkType(token.LAZY):
		return parser.modifiedDeclaration(access)
	case parser.isMatch([]token.TokenType{token.FUNC}):
		return parser.funcDeclaration(attrs, access, false, false)
	case parser.isMatch([]token.TokenType{token.INIT}):
		return parser.initDeclaration(access, false)
	case parser.isMatch([]token.TokenType{token.DEINIT}):
		return parser.deinitDeclaration()
	case parser.isMatch([]token.TokenType{token.CLASS}):
		return parser.classDeclaration(access)
	case parser.isMatch([]token.TokenType{token.STRUCT}):
		return parser.structDeclaration(access)
	case parser.isMatch([]token.TokenType{token.ENUM}):
		return parser.enumDeclaration(access)
	case parser.isMatch([]token.TokenType{token.PROTOCOL}):
		return parser.protocolDeclaration(access)
	case parser.isMatch([]token.TokenType{token.EXTENSION}):
		return parser.extensionDeclaration()
	case parser.isMatch([]token.TokenType{token.IMPORT}):
		return parser.importDeclaration()
	default:
		if hasAccess {
			cur := parser.peek()
			return nil, NewParseError(cur.Line, cur.Column, "Expected a declaration after access modifier")
		}
		return parser.statement()
	}
}

// modifiedDeclaration handles the `static`/`mutating`/`lazy` modifiers that
// precede a `var`/`let`/`func` declaration inside a type body.
func (parser *Parser) modifiedDeclaration(access ast.AccessLevel) (ast.Stmt, error) {
	// Modifiers may appear in any order, so absorb them in a loop.
	var isStatic, isMutating bool
modifiers:
	for {
		switch {
		case parser.isMatch([]token.TokenType{token.STATIC}):
			isStatic = true
		case parser.isMatch([]token.TokenType{token.MUTATING}):
			isMutating = true
		case parser.isMatch([]token.TokenType{token.LAZY}):
			// lazy evaluation timing is a VM-level concern, not a parse-time one
		default:
			break modifiers
		}
	}

	switch {
	case parser.isMatch([]token.TokenType{token.VAR}):
		return parser.varDeclaration(false, access)
	case parser.isMatch([]token.TokenType{token.LET}):
		return parser.varDeclaration(true, access)
	case parser.isMatch([]token.TokenType{token.FUNC}):
		fn, err := parser.funcDeclaration(nil, access, isStatic, isMutating)
		return fn, err
	case parser.isMatch([]token.TokenType{token.INIT}):
		return parser.initDeclaration(access, isStatic)
	}
	cur := parser.peek()
	return nil, NewParseError(cur.Line, cur.Column, "Expected a declaration after modifier")
}

// parseAttributes parses zero or more `[Name(args, ...)]` lists preceding
// a declaration. They are recorded, never validated, by the parser.
func (parser *Parser) parseAttributes() ([]ast.Attribute, error) {
	var attrs []ast.Attribute
	for parser.checkType(token.LBRACKET) && parser.attributeListAhead() {
		parser.advance() // '['
		for {
			nameTok, err := parser.consume(token.IDENTIFIER, "Expected attribute name")
			if err != nil {
				return nil, err
			}
			var args []ast.Expression
			if parser.isMatch([]token.TokenType{token.LPAREN}) {
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
				if _, err := parser.consume(token.RPAREN, "Expected ')' after attribute arguments"); err != nil {
					return nil, err
				}
			}
			attrs = append(attrs, ast.Attribute{Name: nameTok.Lexeme, Args: args})
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
		if _, err := parser.consume(token.RBRACKET, "Expected ']' after attribute list"); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

// attributeListAhead distinguishes a leading `[Name(...), ...]` attribute
// list from an array literal used as a top-level expression statement: an
// attribute list always opens with an identifier immediately after '['.
func (parser *Parser) attributeListAhead() bool {
	return parser.checkTypeAt(1, token.IDENTIFIER) &&
		(parser.checkTypeAt(2, token.LPAREN) || parser.checkTypeAt(2, token.COMMA) || parser.checkTypeAt(2, token.RBRACKET))
}

func (parser *Parser) parseAccessModifier() (ast.AccessLevel, bool) {
	switch {
	case parser.isMatch([]token.TokenType{token.PUBLIC}):
		return ast.AccessPublic, true
	case parser.isMatch([]token.TokenType{token.PRIVATE}):
		return ast.AccessPrivate, true
	case parser.isMatch([]token.TokenType{token.FILEPRIVATE}):
		return ast.AccessFileprivate, true
	case parser.isMatch([]token.TokenType{token.INTERNAL}):
		return ast.AccessInternal, true
	}
	return ast.AccessInternal, false
}

// varDeclaration parses `let`/`var name: Type = init`, plus computed
// get/set accessors and willSet/didSet observers in place of a plain
// initializer.
func (parser *Parser) varDeclaration(isConst bool, access ast.AccessLevel) (ast.Stmt, error) {
	nameTok, err := parser.consume(token.IDENTIFIER, "Expected variable name")
	if err != nil {
		return nil, err
	}

	var typeRef *ast.TypeRef
	if parser.isMatch([]token.TokenType{token.COLON}) {
		t, err := parser.parseType()
		if err != nil {
			return nil, err
		}
		typeRef = &t
	}

	decl := ast.VarDecl{Name: nameTok, IsConst: isConst, Type: typeRef, Access: access}

	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		init, err := parser.expression()
		if err != nil {
			return nil, err
		}
		decl.Initializer = init
	}

	if parser.checkType(token.LBRACE) {
		if err := parser.parseVarBody(&decl); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

// parseVarBody parses the `{ get {...} set(newValue) {...} }` computed
// property form or the `{ willSet {...} didSet {...} }` observer form
// that can follow a stored property's type annotation.
func (parser *Parser) parseVarBody(decl *ast.VarDecl) error {
	if _, err := parser.consume(token.LBRACE, "Expected '{'"); err != nil {
		return err
	}

	for !parser.checkType(token.RBRACE) && !parser.isFinished() {
		switch {
		case parser.isMatch([]token.TokenType{token.GET}):
			body, err := parser.accessorBody()
			if err != nil {
				return err
			}
			decl.Getter = body
		case parser.isMatch([]token.TokenType{token.SET}):
			if parser.isMatch([]token.TokenType{token.LPAREN}) {
				nameTok, err := parser.consume(token.IDENTIFIER, "Expected setter parameter name")
				if err != nil {
					return err
				}
				decl.SetterParam = nameTok.Lexeme
				if _, err := parser.consume(token.RPAREN, "Expected ')' after setter parameter"); err != nil {
					return err
				}
			} else {
				decl.SetterParam = "newValue"
			}
			body, err := parser.accessorBody()
			if err != nil {
				return err
			}
			decl.Setter = body
		case parser.isMatch([]token.TokenType{token.WILL_SET}):
			body, err := parser.accessorBody()
			if err != nil {
				return err
			}
			decl.WillSet = body
		case parser.isMatch([]token.TokenType{token.DID_SET}):
			body, err := parser.accessorBody()
			if err != nil {
				return err
			}
			decl.DidSet = body
		default:
			cur := parser.peek()
			return NewParseError(cur.Line, cur.Column, "Expected 'get', 'set', 'willSet' or 'didSet'")
		}
	}
	_, err := parser.consume(token.RBRACE, "Expected '}' after property accessors")
	return err
}

func (parser *Parser) accessorBody() ([]ast.Stmt, error) {
	if _, err := parser.consume(token.LBRACE, "Expected '{'"); err != nil {
		return nil, err
	}
	return parser.blockStatements()
}

func (parser *Parser) blockStatements() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !parser.checkType(token.RBRACE) && !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := parser.consume(token.RBRACE, "Expected '}' to close block"); err != nil {
		return nil, err
	}
	return stmts, nil
}

// parseGenericParams parses an optional `<T: Constraint, U>` clause.
func (parser *Parser) parseGenericParams() ([]ast.GenericParam, error) {
	if !parser.isMatch([]token.TokenType{token.LESS}) {
		return nil, nil
	}
	var params []ast.GenericParam
	for {
		nameTok, err := parser.consume(token.IDENTIFIER, "Expected generic parameter name")
		if err != nil {
			return nil, err
		}
		gp := ast.GenericParam{Name: nameTok.Lexeme}
		if parser.isMatch([]token.TokenType{token.COLON}) {
			for {
				c, err := parser.consume(token.IDENTIFIER, "Expected constraint name")
				if err != nil {
					return nil, err
				}
				gp.Constraints = append(gp.Constraints, c.Lexeme)
				if !parser.isMatch([]token.TokenType{token.AMP}) {
					break
				}
			}
		}
		params = append(params, gp)
		if !parser.isMatch([]token.TokenType{token.COMMA}) {
			break
		}
	}
	if _, err := parser.consumeCloseGeneric(); err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.WHERE}) {
		// The clause's tokens are consumed and its constraints are not
		// recorded: only inline `T: C` constraints reach
		// GenericParam.Constraints. A function's `where` clause after its
		// return type is consumed the same way by funcDeclaration.
		for {
			if _, err := parser.consume(token.IDENTIFIER, "Expected type parameter in where clause"); err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.COLON, "Expected ':' in where clause"); err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.IDENTIFIER, "Expected constraint in where clause"); err != nil {
				return nil, err
			}
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	return params, nil
}

// parseParams parses a parenthesized parameter list with optional external
// labels, types, and default values.
func (parser *Parser) parseParams() ([]ast.Param, error) {
	if _, err := parser.consume(token.LPAREN, "Expected '(' to start parameter list"); err != nil {
		return nil, err
	}
	var params []ast.Param
	if !parser.checkType(token.RPAREN) {
		for {
			p, err := parser.parseOneParam()
			if err != nil {
				return nil, err
			}
			params = append(params, p)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPAREN, "Expected ')' after parameter list"); err != nil {
		return nil, err
	}
	return params, nil
}

func (parser *Parser) parseOneParam() (ast.Param, error) {
	first, err := parser.consume(token.IDENTIFIER, "Expected parameter label or name")
	if err != nil {
		return ast.Param{}, err
	}
	label := first.Lexeme
	name := first.Lexeme
	if parser.checkType(token.IDENTIFIER) {
		second := parser.advance()
		name = second.Lexeme
	} else if parser.checkType(token.UNDERSCORE) {
		parser.advance()
		label = "_"
	}

	if _, err := parser.consume(token.COLON, "Expected ':' before parameter type"); err != nil {
		return ast.Param{}, err
	}
	t, err := parser.parseType()
	if err != nil {
		return ast.Param{}, err
	}

	p := ast.Param{Label: label, Name: name, Type: t}
	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		def, err := parser.expression()
		if err != nil {
			return ast.Param{}, err
		}
		p.Default = def
	}
	return p, nil
}

// funcDeclaration parses `func name<T>(params) -> Ret { body }`, including
// operator-name functions like `func +(lhs: Vec, rhs: Vec) -> Vec`.
func (parser *Parser) funcDeclaration(attrs []ast.Attribute, access ast.AccessLevel, isStatic, isMutating bool) (ast.Stmt, error) {
	name, err := parser.consumeFuncName()
	if err != nil {
		return nil, err
	}
	generics, err := parser.parseGenericParams()
	if err != nil {
		return nil, err
	}
	params, err := parser.parseParams()
	if err != nil {
		return nil, err
	}
	var retType *ast.TypeRef
	if parser.isMatch([]token.TokenType{token.ARROW}) {
		t, err := parser.parseType()
		if err != nil {
			return nil, err
		}
		retType = &t
	}
	if parser.isMatch([]token.TokenType{token.WHERE}) {
		for {
			if _, err := parser.consume(token.IDENTIFIER, "Expected type parameter in where clause"); err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.COLON, "Expected ':' in where clause"); err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.IDENTIFIER, "Expected constraint in where clause"); err != nil {
				return nil, err
			}
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start function body"); err != nil {
		return nil, err
	}
	body, err := parser.blockStatements()
	if err != nil {
		return nil, err
	}
	return ast.FuncDecl{
		Name: name, Generics: generics, Params: params, ReturnType: retType, Body: body,
		Attributes: attrs, IsStatic: isStatic, IsMutating: isMutating, Access: access,
	}, nil
}

// consumeFuncName accepts a plain identifier or one of the overloadable
// operator lexemes as a function name.
func (parser *Parser) consumeFuncName() (string, error) {
	operatorNames := []token.TokenType{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS, token.LESS_EQUAL,
		token.GREATER, token.GREATER_EQUAL,
	}
	if parser.checkType(token.IDENTIFIER) {
		return parser.advance().Lexeme, nil
	}
	for _, t := range operatorNames {
		if parser.checkType(t) {
			return string(parser.advance().Type), nil
		}
	}
	cur := parser.peek()
	return "", NewParseError(cur.Line, cur.Column, "Expected function name")
}

func (parser *Parser) initDeclaration(access ast.AccessLevel, isStatic bool) (ast.Stmt, error) {
	params, err := parser.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start initializer body"); err != nil {
		return nil, err
	}
	body, err := parser.blockStatements()
	if err != nil {
		return nil, err
	}
	return ast.FuncDecl{Name: "init", Params: params, Body: body, IsInit: true, IsStatic: isStatic, Access: access}, nil
}

func (parser *Parser) deinitDeclaration() (ast.Stmt, error) {
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start deinitializer body"); err != nil {
		return nil, err
	}
	body, err := parser.blockStatements()
	if err != nil {
		return nil, err
	}
	return ast.FuncDecl{Name: "deinit", Body: body}, nil
}

// parseInheritanceList parses the `: Super, Protocol, ...` clause shared
// by class/struct/enum declarations; raw-type-bearing enums reuse it too.
func (parser *Parser) parseInheritanceList() ([]string, error) {
	var names []string
	if !parser.isMatch([]token.TokenType{token.COLON}) {
		return names, nil
	}
	for {
		n, err := parser.consume(token.IDENTIFIER, "Expected superclass or protocol name")
		if err != nil {
			return nil, err
		}
		names = append(names, n.Lexeme)
		if !parser.isMatch([]token.TokenType{token.COMMA}) {
			break
		}
	}
	return names, nil
}

func (parser *Parser) classDeclaration(access ast.AccessLevel) (ast.Stmt, error) {
	nameTok, err := parser.consume(token.IDENTIFIER, "Expected class name")
	if err != nil {
		return nil, err
	}
	generics, err := parser.parseGenericParams()
	if err != nil {
		return nil, err
	}
	inherits, err := parser.parseInheritanceList()
	if err != nil {
		return nil, err
	}
	superclass := ""
	var protocols []string
	if len(inherits) > 0 {
		superclass = inherits[0]
		protocols = inherits[1:]
	}

	if _, err := parser.consume(token.LBRACE, "Expected '{' to start class body"); err != nil {
		return nil, err
	}
	decl := ast.ClassDecl{Name: nameTok.Lexeme, Generics: generics, Superclass: superclass, Protocols: protocols, Access: access}
	for !parser.checkType(token.RBRACE) && !parser.isFinished() {
		member, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		switch m := member.(type) {
		case ast.VarDecl:
			decl.Properties = append(decl.Properties, m)
		case ast.FuncDecl:
			if m.Name == "deinit" {
				decl.Deinit = m.Body
			} else {
				decl.Methods = append(decl.Methods, m)
			}
		}
	}
	if _, err := parser.consume(token.RBRACE, "Expected '}' to close class body"); err != nil {
		return nil, err
	}
	return decl, nil
}

func (parser *Parser) structDeclaration(access ast.AccessLevel) (ast.Stmt, error) {
	nameTok, err := parser.consume(token.IDENTIFIER, "Expected struct name")
	if err != nil {
		return nil, err
	}
	generics, err := parser.parseGenericParams()
	if err != nil {
		return nil, err
	}
	protocols, err := parser.parseInheritanceList()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start struct body"); err != nil {
		return nil, err
	}
	decl := ast.StructDecl{Name: nameTok.Lexeme, Generics: generics, Protocols: protocols, Access: access}
	for !parser.checkType(token.RBRACE) && !parser.isFinished() {
		member, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		switch m := member.(type) {
		case ast.VarDecl:
			decl.Properties = append(decl.Properties, m)
		case ast.FuncDecl:
			decl.Methods = append(decl.Methods, m)
		}
	}
	if _, err := parser.consume(token.RBRACE, "Expected '}' to close struct body"); err != nil {
		return nil, err
	}
	return decl, nil
}

func (parser *Parser) enumDeclaration(access ast.AccessLevel) (ast.Stmt, error) {
	nameTok, err := parser.consume(token.IDENTIFIER, "Expected enum name")
	if err != nil {
		return nil, err
	}
	generics, err := parser.parseGenericParams()
	if err != nil {
		return nil, err
	}
	inherits, err := parser.parseInheritanceList()
	if err != nil {
		return nil, err
	}
	rawType := ""
	var protocols []string
	if len(inherits) > 0 {
		if isBuiltinRawType(inherits[0]) {
			rawType = inherits[0]
			protocols = inherits[1:]
		} else {
			protocols = inherits
		}
	}

	if _, err := parser.consume(token.LBRACE, "Expected '{' to start enum body"); err != nil {
		return nil, err
	}
	decl := ast.EnumDecl{Name: nameTok.Lexeme, Generics: generics, RawType: rawType, Protocols: protocols, Access: access}
	for !parser.checkType(token.RBRACE) && !parser.isFinished() {
		if parser.isMatch([]token.TokenType{token.CASE}) {
			cases, err := parser.enumCases()
			if err != nil {
				return nil, err
			}
			decl.Cases = append(decl.Cases, cases...)
			continue
		}
		member, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		if fn, ok := member.(ast.FuncDecl); ok {
			decl.Methods = append(decl.Methods, fn)
		}
	}
	if _, err := parser.consume(token.RBRACE, "Expected '}' to close enum body"); err != nil {
		return nil, err
	}
	return decl, nil
}

func isBuiltinRawType(name string) bool {
	switch name {
	case "Int", "Float", "String":
		return true
	}
	return false
}

// enumCases parses a `case name, name(label: Type), name = raw, ...` list.
func (parser *Parser) enumCases() ([]ast.EnumCaseDecl, error) {
	var cases []ast.EnumCaseDecl
	for {
		nameTok, err := parser.consume(token.IDENTIFIER, "Expected case name")
		if err != nil {
			return nil, err
		}
		c := ast.EnumCaseDecl{Name: nameTok.Lexeme}
		if parser.checkType(token.LPAREN) {
			params, err := parser.parseParams()
			if err != nil {
				return nil, err
			}
			c.AssocParams = params
		} else if parser.isMatch([]token.TokenType{token.ASSIGN}) {
			raw, err := parser.expression()
			if err != nil {
				return nil, err
			}
			c.RawValue = raw
		}
		cases = append(cases, c)
		if !parser.isMatch([]token.TokenType{token.COMMA}) {
			break
		}
	}
	return cases, nil
}

func (parser *Parser) protocolDeclaration(access ast.AccessLevel) (ast.Stmt, error) {
	nameTok, err := parser.consume(token.IDENTIFIER, "Expected protocol name")
	if err != nil {
		return nil, err
	}
	inherits, err := parser.parseInheritanceList()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start protocol body"); err != nil {
		return nil, err
	}

	decl := ast.ProtocolDecl{Name: nameTok.Lexeme, Inherits: inherits, Access: access}
	for !parser.checkType(token.RBRACE) && !parser.isFinished() {
		switch {
		case parser.isMatch([]token.TokenType{token.VAR}), parser.isMatch([]token.TokenType{token.LET}):
			propName, err := parser.consume(token.IDENTIFIER, "Expected property requirement name")
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.COLON, "Expected ':' before property requirement type"); err != nil {
				return nil, err
			}
			t, err := parser.parseType()
			if err != nil {
				return nil, err
			}
			hasSetter := false
			if parser.isMatch([]token.TokenType{token.LBRACE}) {
				for !parser.checkType(token.RBRACE) && !parser.isFinished() {
					if parser.isMatch([]token.TokenType{token.SET}) {
						hasSetter = true
					} else {
						parser.advance()
					}
				}
				if _, err := parser.consume(token.RBRACE, "Expected '}' after property requirement"); err != nil {
					return nil, err
				}
			}
			decl.Properties = append(decl.Properties, ast.PropertyReq{Name: propName.Lexeme, Type: t, HasSetter: hasSetter})
		case parser.isMatch([]token.TokenType{token.MUTATING}), parser.isMatch([]token.TokenType{token.FUNC}):
			isMutating := parser.previous().Type == token.MUTATING
			if isMutating {
				if _, err := parser.consume(token.FUNC, "Expected 'func' after 'mutating'"); err != nil {
					return nil, err
				}
			}
			name, err := parser.consumeFuncName()
			if err != nil {
				return nil, err
			}
			params, err := parser.parseParams()
			if err != nil {
				return nil, err
			}
			var retType *ast.TypeRef
			if parser.isMatch([]token.TokenType{token.ARROW}) {
				t, err := parser.parseType()
				if err != nil {
					return nil, err
				}
				retType = &t
			}
			decl.Methods = append(decl.Methods, ast.FuncSig{Name: name, Params: params, ReturnType: retType, IsMutating: isMutating})
		default:
			cur := parser.peek()
			return nil, NewParseError(cur.Line, cur.Column, "Expected property or method requirement in protocol body")
		}
	}
	if _, err := parser.consume(token.RBRACE, "Expected '}' to close protocol body"); err != nil {
		return nil, err
	}
	return decl, nil
}

func (parser *Parser) extensionDeclaration() (ast.Stmt, error) {
	nameTok, err := parser.consume(token.IDENTIFIER, "Expected extended type name")
	if err != nil {
		return nil, err
	}
	protocols, err := parser.parseInheritanceList()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LBRACE, "Expected '{' to start extension body"); err != nil {
		return nil, err
	}
	decl := ast.ExtensionDecl{TypeName: nameTok.Lexeme, Protocols: protocols}
	for !parser.checkType(token.RBRACE) && !parser.isFinished() {
		member, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		switch m := member.(type) {
		case ast.VarDecl:
			decl.Properties = append(decl.Properties, m)
		case ast.FuncDecl:
			decl.Methods = append(decl.Methods, m)
		}
	}
	if _, err := parser.consume(token.RBRACE, "Expected '}' to close extension body"); err != nil {
		return nil, err
	}
	return decl, nil
}

func (parser *Parser) importDeclaration() (ast.Stmt, error) {
	keyword := parser.previous()
	pathTok, err := parser.consume(token.STRING, "Expected a string literal module path")
	if err != nil {
		return nil, err
	}
	path, _ := pathTok.Literal.(string)
	return ast.ImportDecl{Keyword: keyword, ModuleName: path}, nil
}
