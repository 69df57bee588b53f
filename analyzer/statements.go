package analyzer

import (
	"swiftscript/ast"
	"swiftscript/token"
)

func (c *Checker) VisitExpressionStmt(n ast.ExpressionStmt) any {
	c.typeOf(n.Expression)
	return nil
}

func (c *Checker) VisitPrintStmt(n ast.PrintStmt) any {
	for _, a := range n.Arguments {
		c.typeOf(a)
	}
	return nil
}

func (c *Checker) VisitVarDecl(n ast.VarDecl) any {
	declared := anyType
	if n.Type != nil {
		declared = *n.Type
		c.specializeTypeRef(declared)
	}
	if n.Initializer != nil {
		initType := c.typeOf(n.Initializer)
		if n.Type == nil {
			declared = initType
		} else if !c.assignable(declared, initType) {
			c.errorAt(n.Name, "cannot initialize '%s' of type '%s' with a value of incompatible type", n.Name.Lexeme, declared.Mangled())
		}
	}
	c.declare(n.Name.Lexeme, declared, n.IsConst)

	if n.Getter != nil {
		c.funcStack = append(c.funcStack, funcContext{returnType: &declared})
		c.checkBlock(n.Getter)
		c.funcStack = c.funcStack[:len(c.funcStack)-1]
	}
	if n.Setter != nil {
		c.pushScope()
		paramName := n.SetterParam
		if paramName == "" {
			paramName = "newValue"
		}
		c.declare(paramName, declared, false)
		for _, s := range n.Setter {
			s.Accept(c)
		}
		c.popScope()
	}
	if n.WillSet != nil {
		c.pushScope()
		c.declare("newValue", declared, true)
		for _, s := range n.WillSet {
			s.Accept(c)
		}
		c.popScope()
	}
	if n.DidSet != nil {
		c.pushScope()
		c.declare("oldValue", declared, true)
		for _, s := range n.DidSet {
			s.Accept(c)
		}
		c.popScope()
	}
	return nil
}

func (c *Checker) VisitBlockStmt(n ast.BlockStmt) any {
	c.checkBlock(n.Statements)
	return nil
}

// checkConditions type-checks each clause of an if/guard/while condition
// list and declares every optional-binding name in the current scope.
func (c *Checker) checkConditions(conds []ast.Condition) {
	for _, cond := range conds {
		switch {
		case cond.Binding != nil:
			t := c.typeOf(cond.Binding.Value)
			c.declare(cond.Binding.Name, unwrapOptional(t), false)
		case cond.Pattern != nil:
			c.checkPattern(cond.Pattern)
			c.typeOf(cond.Boolean)
		default:
			c.typeOf(cond.Boolean)
		}
	}
}

func (c *Checker) VisitIfStmt(n ast.IfStmt) any {
	c.pushScope()
	c.checkConditions(n.Conditions)
	c.checkBlock(n.Then)
	if n.Else != nil {
		c.checkBlock(n.Else)
	}
	c.popScope()
	return nil
}

// alwaysExits reports whether a statement list is guaranteed to leave
// the enclosing function/loop: it ends in return/throw/break/continue,
// or an if whose every branch exits (the "statically exiting" rule
// guard's else-body must satisfy).
func alwaysExits(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	switch last := stmts[len(stmts)-1].(type) {
	case ast.ReturnStmt, ast.ThrowStmt, ast.BreakStmt, ast.ContinueStmt:
		return true
	case ast.IfStmt:
		if last.Else == nil {
			return false
		}
		return alwaysExits(last.Then) && alwaysExits(last.Else)
	case ast.BlockStmt:
		return alwaysExits(last.Statements)
	default:
		return false
	}
}

func (c *Checker) VisitGuardStmt(n ast.GuardStmt) any {
	c.checkConditions(n.Conditions)
	if !alwaysExits(n.Else) {
		c.errors = append(c.errors, TypeError{Message: "'guard' body must exit the current scope (return, throw, break, or continue)"})
	}
	c.checkBlock(n.Else)
	return nil
}

func (c *Checker) VisitWhileStmt(n ast.WhileStmt) any {
	c.pushScope()
	c.checkConditions(n.Conditions)
	c.loopDepth++
	c.checkBlock(n.Body)
	c.loopDepth--
	c.popScope()
	return nil
}

func (c *Checker) VisitRepeatWhileStmt(n ast.RepeatWhileStmt) any {
	c.loopDepth++
	c.checkBlock(n.Body)
	c.loopDepth--
	c.typeOf(n.Condition)
	return nil
}

func (c *Checker) VisitForInStmt(n ast.ForInStmt) any {
	seqType := c.typeOf(n.Sequence)
	elemType := anyType
	if seqType.IsArray && seqType.ArrayElement != nil {
		elemType = *seqType.ArrayElement
	}
	c.pushScope()
	c.declare(n.Name, elemType, false)
	c.loopDepth++
	c.checkBlock(n.Body)
	c.loopDepth--
	c.popScope()
	return nil
}

func (c *Checker) VisitSwitchStmt(n ast.SwitchStmt) any {
	c.typeOf(n.Subject)
	for _, cs := range n.Cases {
		c.pushScope()
		for _, pat := range cs.Patterns {
			c.checkPattern(pat)
		}
		if cs.Where != nil {
			c.typeOf(cs.Where)
		}
		for _, s := range cs.Body {
			s.Accept(c)
		}
		c.popScope()
	}
	return nil
}

func (c *Checker) checkPattern(pat ast.Pattern) {
	switch p := pat.(type) {
	case ast.ExpressionPattern:
		c.typeOf(p.Value)
	case ast.EnumCasePattern:
		for _, b := range p.Bindings {
			if b.Name != "_" {
				c.declare(b.Name, anyType, false)
			}
		}
	}
}

func (c *Checker) VisitBreakStmt(n ast.BreakStmt) any {
	if c.loopDepth == 0 {
		c.errorAt(n.Keyword, "'break' used outside of a loop")
	}
	return nil
}

func (c *Checker) VisitContinueStmt(n ast.ContinueStmt) any {
	if c.loopDepth == 0 {
		c.errorAt(n.Keyword, "'continue' used outside of a loop")
	}
	return nil
}

func (c *Checker) VisitReturnStmt(n ast.ReturnStmt) any {
	valueType := anyType
	if n.Value != nil {
		valueType = c.typeOf(n.Value)
	}
	if len(c.funcStack) > 0 {
		ctx := c.funcStack[len(c.funcStack)-1]
		if ctx.returnType != nil && !c.assignable(*ctx.returnType, valueType) {
			c.errorAt(n.Keyword, "cannot convert return expression to expected return type")
		}
	}
	return nil
}

func (c *Checker) VisitThrowStmt(n ast.ThrowStmt) any {
	c.typeOf(n.Value)
	return nil
}

func (c *Checker) VisitDoCatchStmt(n ast.DoCatchStmt) any {
	c.checkBlock(n.Body)
	for _, cat := range n.Catches {
		c.pushScope()
		if cat.Name != "" {
			c.declare(cat.Name, anyType, true)
		}
		for _, s := range cat.Body {
			s.Accept(c)
		}
		c.popScope()
	}
	return nil
}

// checkAttributes enforces the builtin attributes registered in Pass A:
// Obsolete rejects the declaration outright, Deprecated only warns.
func (c *Checker) checkAttributes(name string, attrs []ast.Attribute) {
	for _, a := range attrs {
		entry, ok := c.reg.Attributes[a.Name]
		if !ok {
			continue
		}
		loc := token.Token{Line: 0, Column: 0, Lexeme: name}
		if entry.IsError {
			c.errorAt(loc, "'%s' is obsolete and cannot be used", name)
		}
		if entry.IsWarn {
			c.warnAt(loc, "'%s' is deprecated", name)
		}
	}
}

func (c *Checker) VisitFuncDecl(n ast.FuncDecl) any {
	c.checkAttributes(n.Name, n.Attributes)
	c.pushScope()
	if len(n.Generics) > 0 {
		names := map[string]bool{}
		for _, g := range n.Generics {
			names[g.Name] = true
		}
		c.genericNames = append(c.genericNames, names)
	}
	for _, p := range n.Params {
		c.declare(p.Name, p.Type, false)
		if p.Default != nil {
			c.typeOf(p.Default)
		}
	}
	ret := &voidType
	if n.ReturnType != nil {
		ret = n.ReturnType
	}
	c.funcStack = append(c.funcStack, funcContext{returnType: ret, isInit: n.IsInit, isMutating: n.IsMutating})
	savedMutating := c.currentMutating
	c.currentMutating = n.IsMutating
	for _, s := range n.Body {
		s.Accept(c)
	}
	c.currentMutating = savedMutating
	c.funcStack = c.funcStack[:len(c.funcStack)-1]
	if len(n.Generics) > 0 {
		c.genericNames = c.genericNames[:len(c.genericNames)-1]
	}
	c.popScope()
	return nil
}

func (c *Checker) checkTypeBody(typeName string, properties []ast.VarDecl, methods []ast.FuncDecl) {
	saved := c.currentType
	c.currentType = typeName
	c.pushScope()
	c.declare("self", ast.TypeRef{Name: typeName}, false)
	for _, p := range properties {
		p.Accept(c)
	}
	for _, m := range methods {
		m.Accept(c)
	}
	c.popScope()
	c.currentType = saved
}

func (c *Checker) VisitClassDecl(n ast.ClassDecl) any {
	c.checkTypeBody(n.Name, n.Properties, n.Methods)
	if n.Deinit != nil {
		saved := c.currentType
		c.currentType = n.Name
		c.checkBlock(n.Deinit)
		c.currentType = saved
	}
	return nil
}

func (c *Checker) VisitStructDecl(n ast.StructDecl) any {
	c.checkTypeBody(n.Name, n.Properties, n.Methods)
	return nil
}

func (c *Checker) VisitEnumDecl(n ast.EnumDecl) any {
	saved := c.currentType
	c.currentType = n.Name
	c.pushScope()
	c.declare("self", ast.TypeRef{Name: n.Name}, false)
	for _, cs := range n.Cases {
		if cs.RawValue != nil {
			c.typeOf(cs.RawValue)
		}
	}
	for _, m := range n.Methods {
		m.Accept(c)
	}
	c.popScope()
	c.currentType = saved
	return nil
}

func (c *Checker) VisitProtocolDecl(n ast.ProtocolDecl) any { return nil }

func (c *Checker) VisitExtensionDecl(n ast.ExtensionDecl) any {
	c.checkTypeBody(n.TypeName, n.Properties, n.Methods)
	return nil
}

func (c *Checker) VisitImportDecl(n ast.ImportDecl) any { return nil }
