package compiler

import (
	"swiftscript/ast"
	"swiftscript/token"
)

// compileExpr is a typed convenience over Expression.Accept, since every
// Visit* method below returns `any` to satisfy ast.ExpressionVisitor but
// never returns anything meaningful (expressions are compiled for their
// stack effect, not their Go return value).
func (c *Compiler) compileExpr(e ast.Expression) {
	e.Accept(c)
}

func (c *Compiler) VisitLiteral(n ast.Literal) any {
	switch v := n.Value.(type) {
	case nil:
		c.emit(OP_NIL)
	case bool:
		if v {
			c.emit(OP_TRUE)
		} else {
			c.emit(OP_FALSE)
		}
	case int64:
		c.emit(OP_CONSTANT, c.addConstant(v))
	case float64:
		c.emit(OP_CONSTANT, c.addConstant(v))
	case string:
		c.emit(OP_STRING, c.addString(v))
	default:
		c.fail(0, "unsupported literal value %v", v)
	}
	return nil
}

func (c *Compiler) VisitGrouping(n ast.Grouping) any {
	c.compileExpr(n.Expression)
	return nil
}

var binaryOps = map[token.TokenType]Opcode{
	token.PLUS: OP_ADD, token.MINUS: OP_SUBTRACT, token.STAR: OP_MULTIPLY,
	token.SLASH: OP_DIVIDE, token.PERCENT: OP_MODULO,
	token.EQUAL_EQUAL: OP_EQUAL, token.NOT_EQUAL: OP_NOT_EQUAL,
	token.LESS: OP_LESS, token.GREATER: OP_GREATER,
	token.LESS_EQUAL: OP_LESS_EQUAL, token.GREATER_EQUAL: OP_GREATER_EQUAL,
	token.AMP: OP_BITWISE_AND, token.PIPE: OP_BITWISE_OR, token.CARET: OP_BITWISE_XOR,
	token.LSHIFT: OP_LEFT_SHIFT, token.RSHIFT: OP_RIGHT_SHIFT,
}

func (c *Compiler) VisitBinary(n ast.Binary) any {
	c.compileExpr(n.Left)
	c.compileExpr(n.Right)
	op, ok := binaryOps[n.Operator.Type]
	if !ok {
		c.fail(n.Operator.Line, "unsupported binary operator %q", n.Operator.Lexeme)
		return nil
	}
	c.emitAt(n.Operator.Line, op)
	return nil
}

func (c *Compiler) VisitUnary(n ast.Unary) any {
	c.compileExpr(n.Right)
	switch n.Operator.Type {
	case token.MINUS:
		c.emitAt(n.Operator.Line, OP_NEGATE)
	case token.BANG:
		c.emitAt(n.Operator.Line, OP_NOT)
	case token.TILDE:
		c.emitAt(n.Operator.Line, OP_BITWISE_NOT)
	default:
		c.fail(n.Operator.Line, "unsupported unary operator %q", n.Operator.Lexeme)
	}
	return nil
}

func (c *Compiler) VisitLogical(n ast.Logical) any {
	c.compileExpr(n.Left)
	if n.Operator.Type == token.AND_AND {
		skip := c.emitJump(OP_JUMP_IF_FALSE)
		c.emit(OP_POP)
		c.compileExpr(n.Right)
		c.patchJump(skip)
		return nil
	}
	// OR: short-circuit when the left side is already true.
	elseJump := c.emitJump(OP_JUMP_IF_FALSE)
	end := c.emitJump(OP_JUMP)
	c.patchJump(elseJump)
	c.emit(OP_POP)
	c.compileExpr(n.Right)
	c.patchJump(end)
	return nil
}

func (c *Compiler) VisitTernary(n ast.Ternary) any {
	c.compileExpr(n.Condition)
	elseJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emit(OP_POP)
	c.compileExpr(n.Then)
	end := c.emitJump(OP_JUMP)
	c.patchJump(elseJump)
	c.emit(OP_POP)
	c.compileExpr(n.Else)
	c.patchJump(end)
	return nil
}

func (c *Compiler) VisitNilCoalesce(n ast.NilCoalesce) any {
	c.compileExpr(n.Left)
	c.compileExpr(n.Right)
	c.emit(OP_NIL_COALESCE)
	return nil
}

func (c *Compiler) VisitForceUnwrap(n ast.ForceUnwrap) any {
	c.compileExpr(n.Value)
	c.emit(OP_UNWRAP)
	return nil
}

func (c *Compiler) VisitVariable(n ast.Variable) any {
	c.loadName(n.Name)
	return nil
}

// loadName resolves an identifier through the usual local -> upvalue ->
// global -> implicit-self-property chain (spec §4.5.2's "implicit self
// access" pattern).
func (c *Compiler) loadName(tok token.Token) {
	if slot, ok := c.resolveLocal(tok.Lexeme); ok {
		c.emitAt(tok.Line, OP_GET_LOCAL, slot)
		return
	}
	if idx, ok := c.resolveUpvalue(tok.Lexeme); ok {
		c.emitAt(tok.Line, OP_GET_UPVALUE, idx)
		return
	}
	if c.allowImplicitSelfProperty && c.currentClassProperties[tok.Lexeme] {
		if selfSlot, ok := c.resolveLocal("self"); ok {
			c.emitAt(tok.Line, OP_GET_LOCAL, selfSlot)
		} else if idx, ok := c.resolveUpvalue("self"); ok {
			c.emitAt(tok.Line, OP_GET_UPVALUE, idx)
		}
		c.emitAt(tok.Line, OP_GET_PROPERTY, c.addString(tok.Lexeme))
		return
	}
	c.emitAt(tok.Line, OP_GET_GLOBAL, c.addString(tok.Lexeme))
}

func (c *Compiler) VisitAssign(n ast.Assign) any {
	c.compileExpr(n.Value)
	c.emit(OP_COPY_VALUE)
	c.storeName(n.Name)
	return nil
}

func (c *Compiler) storeName(tok token.Token) {
	if slot, ok := c.resolveLocal(tok.Lexeme); ok {
		c.emitAt(tok.Line, OP_SET_LOCAL, slot)
		return
	}
	if idx, ok := c.resolveUpvalue(tok.Lexeme); ok {
		c.emitAt(tok.Line, OP_SET_UPVALUE, idx)
		return
	}
	if c.allowImplicitSelfProperty && c.currentClassProperties[tok.Lexeme] {
		if selfSlot, ok := c.resolveLocal("self"); ok {
			c.emitAt(tok.Line, OP_GET_LOCAL, selfSlot)
		} else if idx, ok := c.resolveUpvalue("self"); ok {
			c.emitAt(tok.Line, OP_GET_UPVALUE, idx)
		}
		c.emitAt(tok.Line, OP_SET_PROPERTY, c.addString(tok.Lexeme))
		return
	}
	c.emitAt(tok.Line, OP_SET_GLOBAL, c.addString(tok.Lexeme))
}

func (c *Compiler) VisitCall(n ast.Call) any {
	c.compileExpr(n.Callee)
	named := false
	for _, a := range n.Args {
		if a.Label != "" {
			named = true
		}
	}
	for _, a := range n.Args {
		c.compileExpr(a.Value)
	}
	if named {
		labels := make([]int, len(n.Args))
		for i, a := range n.Args {
			if a.Label == "" || a.Label == "_" {
				labels[i] = NoLabel
			} else {
				labels[i] = c.addString(a.Label)
			}
		}
		operands := append([]int{len(n.Args)}, labels...)
		c.emit(OP_CALL_NAMED, operands...)
		return nil
	}
	c.emit(OP_CALL, len(n.Args))
	return nil
}

func (c *Compiler) VisitGet(n ast.Get) any {
	c.compileExpr(n.Object)
	if n.Optional {
		c.emitAt(n.Name.Line, OP_OPTIONAL_CHAIN, c.addString(n.Name.Lexeme))
		return nil
	}
	c.emitAt(n.Name.Line, OP_GET_PROPERTY, c.addString(n.Name.Lexeme))
	return nil
}

func (c *Compiler) VisitSet(n ast.Set) any {
	c.compileExpr(n.Object)
	c.compileExpr(n.Value)
	c.emit(OP_COPY_VALUE)
	c.emitAt(n.Name.Line, OP_SET_PROPERTY, c.addString(n.Name.Lexeme))
	return nil
}

func (c *Compiler) VisitSubscriptGet(n ast.SubscriptGet) any {
	c.compileExpr(n.Object)
	c.compileExpr(n.Index)
	c.emit(OP_GET_SUBSCRIPT)
	return nil
}

func (c *Compiler) VisitSubscriptSet(n ast.SubscriptSet) any {
	c.compileExpr(n.Object)
	c.compileExpr(n.Index)
	c.compileExpr(n.Value)
	c.emit(OP_COPY_VALUE)
	c.emit(OP_SET_SUBSCRIPT)
	return nil
}

func (c *Compiler) VisitSelfExpr(n ast.SelfExpr) any {
	c.loadName(n.Keyword)
	return nil
}

func (c *Compiler) VisitSuperExpr(n ast.SuperExpr) any {
	c.emitAt(n.Method.Line, OP_SUPER, c.addString(n.Method.Lexeme))
	return nil
}

func (c *Compiler) VisitArrayLiteral(n ast.ArrayLiteral) any {
	for _, e := range n.Elements {
		c.compileExpr(e)
	}
	c.emit(OP_ARRAY, len(n.Elements))
	return nil
}

func (c *Compiler) VisitDictLiteral(n ast.DictLiteral) any {
	for _, e := range n.Entries {
		c.compileExpr(e.Key)
		c.compileExpr(e.Value)
	}
	c.emit(OP_DICT, len(n.Entries))
	return nil
}

func (c *Compiler) VisitTupleLiteral(n ast.TupleLiteral) any {
	labels := make([]int, len(n.Elements))
	for i, el := range n.Elements {
		c.compileExpr(el.Value)
		if el.Label == "" {
			labels[i] = NoLabel
		} else {
			labels[i] = c.addString(el.Label)
		}
	}
	operands := append([]int{len(n.Elements)}, labels...)
	c.emit(OP_TUPLE, operands...)
	return nil
}

func (c *Compiler) VisitTupleIndex(n ast.TupleIndex) any {
	c.compileExpr(n.Object)
	c.emit(OP_GET_TUPLE_INDEX, n.Index)
	return nil
}

func (c *Compiler) VisitRange(n ast.Range) any {
	c.compileExpr(n.Start)
	c.compileExpr(n.End)
	if n.Inclusive {
		c.emit(OP_RANGE_INCLUSIVE)
	} else {
		c.emit(OP_RANGE_EXCLUSIVE)
	}
	return nil
}

func (c *Compiler) VisitIsExpr(n ast.IsExpr) any {
	c.compileExpr(n.Value)
	c.emit(OP_TYPE_CHECK, c.addString(n.TypeName))
	return nil
}

func (c *Compiler) VisitAsExpr(n ast.AsExpr) any {
	c.compileExpr(n.Value)
	si := c.addString(n.TypeName)
	switch {
	case n.Optional:
		c.emit(OP_TYPE_CAST_OPTIONAL, si)
	case n.Forced:
		c.emit(OP_TYPE_CAST_FORCED, si)
	default:
		c.emit(OP_TYPE_CAST, si)
	}
	return nil
}

// VisitStringInterpolation lowers `"...\(expr)..."` into a chain of String
// concatenations, exactly as spec §4.6 describes: operands coerced to
// String by the VM's ADD implementation whenever either side is a String.
func (c *Compiler) VisitStringInterpolation(n ast.StringInterpolation) any {
	c.emit(OP_STRING, c.addString(n.Segments[0]))
	for i, e := range n.Exprs {
		c.compileExpr(e)
		c.emit(OP_ADD)
		c.emit(OP_STRING, c.addString(n.Segments[i+1]))
		c.emit(OP_ADD)
	}
	return nil
}

// VisitClosure compiles a closure body in a child compiler so free
// identifiers resolve upward via resolveUpvalue, per spec §4.5.2.
func (c *Compiler) VisitClosure(n ast.Closure) any {
	child := newChildCompiler(c, "closure")
	child.beginScope()
	for _, p := range n.Params {
		child.declareLocal(p.Name)
	}
	for _, s := range n.Body {
		s.Accept(child)
	}
	child.emit(OP_NIL)
	child.emit(OP_RETURN)

	proto := FunctionPrototype{
		Name:          child.functionName,
		Code:          child.code,
		LineInfo:      child.lineInfo,
		MaxStackDepth: child.maxStackDepth,
	}
	for _, p := range n.Params {
		proto.ParamNames = append(proto.ParamNames, p.Name)
		proto.ParamLabels = append(proto.ParamLabels, p.Label)
		proto.ParamDefaults = append(proto.ParamDefaults, compileDefault(child, p.Default))
	}
	fi := c.addFunction(proto)

	if len(child.upvalues) == 0 {
		c.emit(OP_FUNCTION, fi)
		return nil
	}
	operands := []int{fi, len(child.upvalues)}
	for _, u := range child.upvalues {
		if u.IsLocal {
			operands = append(operands, 1, u.Index)
		} else {
			operands = append(operands, 0, u.Index)
		}
	}
	c.emit(OP_CLOSURE, operands...)
	return nil
}

// compileDefault validates and encodes a parameter's default-value
// expression: spec §4.5.2 restricts these to literal constants or their
// unary negation, materialized by the VM at call time rather than
// re-executed as arbitrary code.
func compileDefault(c *Compiler, e ast.Expression) DefaultValue {
	if e == nil {
		return DefaultValue{}
	}
	neg := false
	if u, ok := e.(ast.Unary); ok && u.Operator.Type == token.MINUS {
		neg = true
		e = u.Right
	}
	lit, ok := e.(ast.Literal)
	if !ok {
		c.fail(0, "default parameter values must be literal constants")
		return DefaultValue{}
	}
	switch v := lit.Value.(type) {
	case int64:
		if neg {
			v = -v
		}
		return DefaultValue{HasValue: true, Kind: 'i', Int: v}
	case float64:
		if neg {
			v = -v
		}
		return DefaultValue{HasValue: true, Kind: 'f', Float: v}
	case bool:
		return DefaultValue{HasValue: true, Kind: 'b', Bool: v}
	case string:
		return DefaultValue{HasValue: true, Kind: 's', Str: v}
	case nil:
		return DefaultValue{HasValue: true, Kind: 0}
	}
	c.fail(0, "unsupported default parameter literal type")
	return DefaultValue{}
}
