package analyzer

import (
	"fmt"

	"swiftscript/ast"
	"swiftscript/token"
)

// Checker is Pass C: it walks the AST maintaining a scope stack, a
// function-context stack (for return-type checking), a generic-
// parameter-name stack, a set of `let` constants, and the current
// type context (for access-control checks), implementing both
// ast.ExpressionVisitor and ast.StmtVisitor.
type Checker struct {
	reg     *Registry
	globals map[string]ast.TypeRef

	scopes       []scope
	funcStack    []funcContext
	genericNames []map[string]bool
	loopDepth    int

	currentType     string // "" outside any type body
	currentMutating bool

	errors   []TypeError
	warnings []Warning
}

func newChecker(reg *Registry, globals map[string]ast.TypeRef) *Checker {
	return &Checker{reg: reg, globals: globals}
}

func (c *Checker) errorAt(tok token.Token, format string, args ...any) {
	c.errors = append(c.errors, newTypeError(tok, format, args...))
}

func (c *Checker) warnAt(tok token.Token, format string, args ...any) {
	c.warnings = append(c.warnings, Warning{Line: tok.Line, Column: tok.Column, Message: sprintf(format, args...)})
}

func (c *Checker) inGeneric(name string) bool {
	for i := len(c.genericNames) - 1; i >= 0; i-- {
		if c.genericNames[i][name] {
			return true
		}
	}
	return false
}

func (c *Checker) checkAll(statements []ast.Stmt) {
	c.pushScope()
	for _, s := range statements {
		s.Accept(c)
	}
	c.popScope()
}

func (c *Checker) checkBlock(stmts []ast.Stmt) {
	c.pushScope()
	for _, s := range stmts {
		s.Accept(c)
	}
	c.popScope()
}

func (c *Checker) typeOf(e ast.Expression) ast.TypeRef {
	if e == nil {
		return anyType
	}
	result := e.Accept(c)
	if t, ok := result.(ast.TypeRef); ok {
		return t
	}
	return anyType
}

// --- Expressions ---

func (c *Checker) VisitBinary(n ast.Binary) any {
	left := c.typeOf(n.Left)
	right := c.typeOf(n.Right)
	op := n.Operator.Lexeme

	switch op {
	case "+":
		if left.Name == "String" || right.Name == "String" {
			return stringType
		}
		fallthrough
	case "-", "*", "/", "%":
		if isNumeric(left) && isNumeric(right) {
			if left.Name == "Float" || right.Name == "Float" {
				return floatType
			}
			return intType
		}
		if m, ok := c.userOperatorMethod(left, op, right); ok {
			if m.ReturnType != nil {
				return *m.ReturnType
			}
			return anyType
		}
		if !isUnknown(left) && !isUnknown(right) {
			c.errorAt(n.Operator, "operator '%s' requires numeric operands", op)
		}
		return anyType
	case "==", "!=":
		return boolType
	case "<", "<=", ">", ">=":
		if isNumeric(left) && isNumeric(right) || (left.Name == "String" && right.Name == "String") {
			return boolType
		}
		if m, ok := c.userOperatorMethod(left, op, right); ok {
			if m.ReturnType != nil {
				return *m.ReturnType
			}
		}
		return boolType
	case "&", "|", "^", "<<", ">>":
		if (left.Name == "Int" || isUnknown(left)) && (right.Name == "Int" || isUnknown(right)) {
			return intType
		}
		c.errorAt(n.Operator, "bitwise operator '%s' requires Int operands", op)
		return intType
	default:
		return anyType
	}
}

// userOperatorMethod resolves operator overloads: if the LHS is a user
// type with a method named after the operator whose sole parameter
// matches the RHS, that method's return type is the result type.
func (c *Checker) userOperatorMethod(left ast.TypeRef, op string, right ast.TypeRef) (MethodSig, bool) {
	e, ok := c.reg.Types[left.Name]
	if !ok {
		return MethodSig{}, false
	}
	m, ok := e.Methods[op]
	if !ok || len(m.Params) != 1 {
		return MethodSig{}, false
	}
	if !c.assignable(m.Params[0].Type, right) {
		return MethodSig{}, false
	}
	return m, true
}

func (c *Checker) VisitUnary(n ast.Unary) any {
	t := c.typeOf(n.Right)
	switch n.Operator.Lexeme {
	case "-":
		if isNumeric(t) || isUnknown(t) {
			return t
		}
		c.errorAt(n.Operator, "unary '-' requires a numeric operand")
		return anyType
	case "!":
		return boolType
	default:
		return t
	}
}

func (c *Checker) VisitLiteral(n ast.Literal) any {
	switch n.Value.(type) {
	case int64:
		return intType
	case float64:
		return floatType
	case string:
		return stringType
	case bool:
		return boolType
	case nil:
		return ast.TypeRef{}
	default:
		return anyType
	}
}

func (c *Checker) VisitGrouping(n ast.Grouping) any { return c.typeOf(n.Expression) }

func (c *Checker) VisitVariable(n ast.Variable) any {
	if b, ok := c.lookup(n.Name.Lexeme); ok {
		return b.typ
	}
	if t, ok := c.globals[n.Name.Lexeme]; ok {
		return t
	}
	if _, ok := c.reg.Types[n.Name.Lexeme]; ok {
		return ast.TypeRef{Name: n.Name.Lexeme}
	}
	if c.inGeneric(n.Name.Lexeme) {
		return anyType
	}
	c.errorAt(n.Name, "use of undeclared identifier '%s'", n.Name.Lexeme)
	return anyType
}

func (c *Checker) VisitAssign(n ast.Assign) any {
	valueType := c.typeOf(n.Value)
	if b, ok := c.lookup(n.Name.Lexeme); ok {
		if b.isConst {
			c.errorAt(n.Name, "cannot assign to 'let' constant '%s'", n.Name.Lexeme)
		} else if !c.assignable(b.typ, valueType) {
			c.errorAt(n.Name, "cannot assign value of incompatible type to '%s'", n.Name.Lexeme)
		}
		return b.typ
	}
	return valueType
}

func (c *Checker) VisitLogical(n ast.Logical) any {
	left := c.typeOf(n.Left)
	right := c.typeOf(n.Right)
	if (!isUnknown(left) && left.Name != "Bool") || (!isUnknown(right) && right.Name != "Bool") {
		c.errorAt(n.Operator, "logical operator '%s' requires Bool operands", n.Operator.Lexeme)
	}
	return boolType
}

func (c *Checker) VisitTernary(n ast.Ternary) any {
	c.typeOf(n.Condition)
	thenType := c.typeOf(n.Then)
	c.typeOf(n.Else)
	return thenType
}

func (c *Checker) VisitNilCoalesce(n ast.NilCoalesce) any {
	left := c.typeOf(n.Left)
	if !left.IsOptional && !isUnknown(left) {
		return left
	}
	return unwrapOptional(left)
}

func (c *Checker) VisitForceUnwrap(n ast.ForceUnwrap) any {
	t := c.typeOf(n.Value)
	if !t.IsOptional && !isUnknown(t) {
		tok := firstToken(n.Value)
		c.errorAt(tok, "'!' can only be applied to an optional value")
	}
	return unwrapOptional(t)
}

func (c *Checker) VisitCall(n ast.Call) any {
	calleeType := c.typeOf(n.Callee)
	for _, a := range n.Args {
		c.typeOf(a.Value)
	}
	c.checkMutatingCallOnLet(n)
	c.checkMutatingCallOnSelf(n)
	if calleeType.IsFunction && calleeType.FuncReturn != nil {
		return *calleeType.FuncReturn
	}
	return anyType
}

// isCurrentStruct reports whether the type body currently being checked is
// a struct — property observers and the `self`-is-a-copy invariant below
// only apply to struct methods, matching Swift's own "mutating" rule for
// value types (class instances are references, so their methods are
// always free to write through self).
func (c *Checker) isCurrentStruct() bool {
	e, ok := c.reg.Types[c.currentType]
	return ok && e.Kind == KindStruct
}

// checkMutatingCallOnSelf rejects calling a `mutating` method on `self`
// from within a non-mutating struct method: spec §3's invariant that
// `self` inside such a method is an independent copy means any method
// that would write through it cannot be called there.
func (c *Checker) checkMutatingCallOnSelf(n ast.Call) {
	if !c.isCurrentStruct() || c.currentMutating {
		return
	}
	get, ok := n.Callee.(ast.Get)
	if !ok {
		return
	}
	if _, ok := get.Object.(ast.SelfExpr); !ok {
		return
	}
	e, ok := c.reg.Types[c.currentType]
	if !ok {
		return
	}
	m, ok := e.Methods[get.Name.Lexeme]
	if ok && m.IsMutating {
		c.errorAt(get.Name, "cannot call mutating method '%s' on 'self' in a non-mutating method", get.Name.Lexeme)
	}
}

// checkMutatingCallOnLet rejects calling a `mutating` method through a
// `let`-bound instance variable: the receiver's stored fields may not be
// reassigned, so any method registered as mutating can't run on it.
func (c *Checker) checkMutatingCallOnLet(n ast.Call) {
	get, ok := n.Callee.(ast.Get)
	if !ok {
		return
	}
	recv, ok := get.Object.(ast.Variable)
	if !ok {
		return
	}
	b, ok := c.lookup(recv.Name.Lexeme)
	if !ok || !b.isConst {
		return
	}
	base := unwrapOptional(b.typ)
	e, ok := c.reg.Types[base.Name]
	if !ok {
		return
	}
	m, ok := e.Methods[get.Name.Lexeme]
	if ok && m.IsMutating {
		c.errorAt(get.Name, "cannot use mutating method '%s' on 'let' constant '%s'", get.Name.Lexeme, recv.Name.Lexeme)
	}
}

func (c *Checker) VisitGet(n ast.Get) any {
	objType := c.typeOf(n.Object)
	if objType.IsOptional && !n.Optional {
		c.errorAt(n.Name, "value of optional type must be unwrapped with '?.' or '!' before accessing '%s'", n.Name.Lexeme)
	}
	base := unwrapOptional(objType)
	if e, ok := c.reg.Types[base.Name]; ok {
		if p, ok := e.Properties[n.Name.Lexeme]; ok {
			c.checkAccess(e.Name, p.Access, n.Name)
			if n.Optional {
				return optionalOf(p.Type)
			}
			return p.Type
		}
		if m, ok := e.Methods[n.Name.Lexeme]; ok {
			c.checkAccess(e.Name, m.Access, n.Name)
			return funcType(ast.FuncDecl{Params: m.Params, ReturnType: m.ReturnType})
		}
	}
	return anyType
}

// checkAccess rejects access to a private member from outside the
// declaring type's own methods; public/internal/fileprivate are
// recorded but, per the analyzer's scope, not distinguished further.
func (c *Checker) checkAccess(typeName string, access ast.AccessLevel, tok token.Token) {
	if access == ast.AccessPrivate && c.currentType != typeName {
		c.errorAt(tok, "'%s' is inaccessible due to 'private' protection level", tok.Lexeme)
	}
}

func (c *Checker) VisitSet(n ast.Set) any {
	objType := c.typeOf(n.Object)
	valType := c.typeOf(n.Value)
	if _, ok := n.Object.(ast.SelfExpr); ok && c.isCurrentStruct() && !c.currentMutating {
		c.errorAt(n.Name, "cannot assign to property '%s' of 'self' in a non-mutating method", n.Name.Lexeme)
	}
	base := unwrapOptional(objType)
	if e, ok := c.reg.Types[base.Name]; ok {
		if p, ok := e.Properties[n.Name.Lexeme]; ok {
			c.checkAccess(e.Name, p.Access, n.Name)
			if p.IsConst {
				c.errorAt(n.Name, "cannot assign to 'let' property '%s'", n.Name.Lexeme)
			} else if !c.assignable(p.Type, valType) {
				c.errorAt(n.Name, "cannot assign value of incompatible type to property '%s'", n.Name.Lexeme)
			}
		}
	}
	return valType
}

func (c *Checker) VisitSubscriptGet(n ast.SubscriptGet) any {
	c.typeOf(n.Object)
	c.typeOf(n.Index)
	return anyType
}

func (c *Checker) VisitSubscriptSet(n ast.SubscriptSet) any {
	c.typeOf(n.Object)
	c.typeOf(n.Index)
	return c.typeOf(n.Value)
}

func (c *Checker) VisitSelfExpr(n ast.SelfExpr) any {
	if c.currentType == "" {
		c.errorAt(n.Keyword, "'self' used outside of an instance context")
		return anyType
	}
	return ast.TypeRef{Name: c.currentType}
}

func (c *Checker) VisitSuperExpr(n ast.SuperExpr) any {
	e, ok := c.reg.Types[c.currentType]
	if !ok || e.Superclass == "" {
		c.errorAt(n.Keyword, "'super' used in a type with no superclass")
		return anyType
	}
	return ast.TypeRef{Name: e.Superclass}
}

func (c *Checker) VisitArrayLiteral(n ast.ArrayLiteral) any {
	var elem ast.TypeRef
	for i, e := range n.Elements {
		t := c.typeOf(e)
		if i == 0 {
			elem = t
		}
	}
	return ast.TypeRef{IsArray: true, ArrayElement: &elem}
}

func (c *Checker) VisitDictLiteral(n ast.DictLiteral) any {
	var k, v ast.TypeRef
	for i, e := range n.Entries {
		kt := c.typeOf(e.Key)
		vt := c.typeOf(e.Value)
		if i == 0 {
			k, v = kt, vt
		}
	}
	return ast.TypeRef{IsDictionary: true, DictKey: &k, DictValue: &v}
}

func (c *Checker) VisitTupleLiteral(n ast.TupleLiteral) any {
	labels := make([]string, len(n.Elements))
	elems := make([]ast.TypeRef, len(n.Elements))
	for i, el := range n.Elements {
		labels[i] = el.Label
		elems[i] = c.typeOf(el.Value)
	}
	return ast.TypeRef{IsTuple: true, TupleLabels: labels, TupleElems: elems}
}

func (c *Checker) VisitTupleIndex(n ast.TupleIndex) any {
	t := c.typeOf(n.Object)
	if t.IsTuple && n.Index < len(t.TupleElems) {
		return t.TupleElems[n.Index]
	}
	return anyType
}

func (c *Checker) VisitClosure(n ast.Closure) any {
	c.pushScope()
	for _, p := range n.Params {
		c.declare(p.Name, p.Type, false)
	}
	ret := &voidType
	if n.ReturnType != nil {
		ret = n.ReturnType
	}
	c.funcStack = append(c.funcStack, funcContext{returnType: ret})
	for _, s := range n.Body {
		s.Accept(c)
	}
	c.funcStack = c.funcStack[:len(c.funcStack)-1]
	c.popScope()

	params := make([]ast.TypeRef, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.Type
	}
	return ast.TypeRef{IsFunction: true, FuncParams: params, FuncReturn: ret}
}

func (c *Checker) VisitRange(n ast.Range) any {
	c.typeOf(n.Start)
	c.typeOf(n.End)
	return ast.TypeRef{Name: "Range"}
}

func (c *Checker) VisitIsExpr(n ast.IsExpr) any {
	c.typeOf(n.Value)
	c.specializeIfGeneric(n.TypeName)
	return boolType
}

func (c *Checker) VisitAsExpr(n ast.AsExpr) any {
	c.typeOf(n.Value)
	c.specializeIfGeneric(n.TypeName)
	target := ast.TypeRef{Name: n.TypeName}
	if n.Optional {
		return optionalOf(target)
	}
	return target
}

func (c *Checker) VisitStringInterpolation(n ast.StringInterpolation) any {
	for _, e := range n.Exprs {
		c.typeOf(e)
	}
	return stringType
}

func firstToken(e ast.Expression) token.Token {
	switch v := e.(type) {
	case ast.Variable:
		return v.Name
	case ast.Get:
		return v.Name
	case ast.Binary:
		return v.Operator
	case ast.Unary:
		return v.Operator
	default:
		return token.Token{}
	}
}

func sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
