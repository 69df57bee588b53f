package compiler

import "swiftscript/ast"

func (c *Compiler) compileBlock(stmts []ast.Stmt) {
	for _, s := range stmts {
		s.Accept(c)
	}
}

func (c *Compiler) VisitExpressionStmt(n ast.ExpressionStmt) any {
	c.compileExpr(n.Expression)
	c.emit(OP_POP)
	return nil
}

func (c *Compiler) VisitPrintStmt(n ast.PrintStmt) any {
	for _, a := range n.Arguments {
		c.compileExpr(a)
		c.emit(OP_PRINT)
	}
	return nil
}

// VisitVarDecl compiles a stored property/local/global. At scope depth 0
// this defines a global by interned name; otherwise it declares a new
// local stack slot. Computed properties (non-nil Getter) and observed
// properties (WillSet/DidSet) are only meaningful inside a type body and
// are compiled there directly by compileProperty (see classes.go); a bare
// VisitVarDecl call always means a plain stored variable.
func (c *Compiler) VisitVarDecl(n ast.VarDecl) any {
	if n.Initializer != nil {
		c.compileExpr(n.Initializer)
	} else {
		c.emit(OP_NIL)
	}
	if c.scopeDepth == 0 {
		c.emitAt(n.Name.Line, OP_DEFINE_GLOBAL, c.addString(n.Name.Lexeme))
		return nil
	}
	c.declareLocal(n.Name.Lexeme)
	return nil
}

func (c *Compiler) VisitBlockStmt(n ast.BlockStmt) any {
	c.beginScope()
	c.compileBlock(n.Statements)
	c.endScope()
	return nil
}

// compileConditions ANDs together every clause of an if/guard/while
// condition list, returning the list of "false" jump operand positions to
// patch once the failure branch's address is known (one per boolean
// clause; optional bindings instead declare a local and only jump on nil).
func (c *Compiler) compileConditions(conds []ast.Condition) []int {
	var jumps []int
	for _, cond := range conds {
		switch {
		case cond.Binding != nil:
			c.compileExpr(cond.Binding.Value)
			jumps = append(jumps, c.emitJump(OP_JUMP_IF_NIL))
			c.declareLocal(cond.Binding.Name)
		case cond.Pattern != nil:
			jumps = append(jumps, c.compilePatternCondition(cond.Pattern, cond.Boolean))
		default:
			c.compileExpr(cond.Boolean)
			jumps = append(jumps, c.emitJump(OP_JUMP_IF_FALSE))
			c.emit(OP_POP)
		}
	}
	return jumps
}

// compilePatternCondition handles `case .some(let x) = expr` guard/if
// clauses: evaluate the subject into a held local slot (so it survives
// for both the match test and the binding extraction below), match it
// against the enum-case pattern, jump past the clause's bindings and the
// caller's body on failure, then — on the success path only — bind each
// captured associated value. Returns the jump-on-failure operand position
// for the caller to patch.
func (c *Compiler) compilePatternCondition(pat ast.Pattern, subject ast.Expression) int {
	c.compileExpr(subject)
	subjectSlot := c.declareLocal("$case")

	ec, isEnumCase := pat.(ast.EnumCasePattern)
	if isEnumCase {
		c.emit(OP_GET_LOCAL, subjectSlot)
		c.emit(OP_MATCH_ENUM_CASE, c.addString(ec.CaseName))
	} else {
		c.emit(OP_TRUE)
	}
	jump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emit(OP_POP)

	if isEnumCase {
		for i, b := range ec.Bindings {
			if b.Name == "_" {
				continue
			}
			c.emit(OP_GET_LOCAL, subjectSlot)
			c.emit(OP_GET_ASSOCIATED, i)
			c.declareLocal(b.Name)
		}
	}
	return jump
}

func (c *Compiler) VisitIfStmt(n ast.IfStmt) any {
	c.beginScope()
	jumps := c.compileConditions(n.Conditions)
	c.compileBlock(n.Then)
	elseEnd := c.emitJump(OP_JUMP)
	for _, j := range jumps {
		c.patchJump(j)
	}
	c.endScope()
	c.beginScope()
	c.compileBlock(n.Else)
	c.patchJump(elseEnd)
	c.endScope()
	return nil
}

// VisitGuardStmt compiles `guard cond1, cond2 else { ... }`: the analyzer
// has already proven Else exits; the success path jumps over Else to the
// statement after the guard.
func (c *Compiler) VisitGuardStmt(n ast.GuardStmt) any {
	jumps := c.compileConditions(n.Conditions)
	ok := c.emitJump(OP_JUMP)
	for _, j := range jumps {
		c.patchJump(j)
	}
	c.beginScope()
	c.compileBlock(n.Else)
	c.endScope()
	c.patchJump(ok)
	return nil
}

func (c *Compiler) VisitWhileStmt(n ast.WhileStmt) any {
	loopStart := len(c.code)
	c.loops = append(c.loops, loopState{loopStart: loopStart, scopeDepth: c.scopeDepth})

	c.beginScope()
	jumps := c.compileConditions(n.Conditions)
	c.compileBlock(n.Body)
	c.endScope()
	c.emitLoop(loopStart)
	for _, j := range jumps {
		c.patchJump(j)
	}

	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
	return nil
}

func (c *Compiler) VisitRepeatWhileStmt(n ast.RepeatWhileStmt) any {
	loopStart := len(c.code)
	c.loops = append(c.loops, loopState{loopStart: loopStart, scopeDepth: c.scopeDepth})

	c.beginScope()
	c.compileBlock(n.Body)
	c.endScope()
	c.compileExpr(n.Condition)
	backJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emit(OP_POP)
	c.emitLoop(loopStart)
	c.patchJump(backJump)
	c.emit(OP_POP)

	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
	return nil
}

// VisitForInStmt compiles `for name in sequence { ... }`. A Range sequence
// follows the counted-loop pattern of spec §4.5.2; any other sequence
// falls back to the array-indexing pattern against `$array`/`$index`.
func (c *Compiler) VisitForInStmt(n ast.ForInStmt) any {
	c.beginScope()
	if rng, ok := n.Sequence.(ast.Range); ok {
		c.compileForInRange(n, rng)
	} else {
		c.compileForInArray(n)
	}
	c.endScope()
	return nil
}

func (c *Compiler) compileForInRange(n ast.ForInStmt, rng ast.Range) {
	c.compileExpr(rng.Start)
	varSlot := c.declareLocal(n.Name)
	c.compileExpr(rng.End)
	endSlot := c.declareLocal("$end")

	loopStart := len(c.code)
	c.loops = append(c.loops, loopState{loopStart: loopStart, scopeDepth: c.scopeDepth})

	c.emit(OP_GET_LOCAL, varSlot)
	c.emit(OP_GET_LOCAL, endSlot)
	if rng.Inclusive {
		c.emit(OP_LESS_EQUAL)
	} else {
		c.emit(OP_LESS)
	}
	exitJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emit(OP_POP)

	c.beginScope()
	c.compileBlock(n.Body)
	c.endScope()

	c.emit(OP_GET_LOCAL, varSlot)
	c.emit(OP_CONSTANT, c.addConstant(int64(1)))
	c.emit(OP_ADD)
	c.emit(OP_SET_LOCAL, varSlot)
	c.emit(OP_POP)
	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.emit(OP_POP)

	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
}

func (c *Compiler) compileForInArray(n ast.ForInStmt) {
	c.compileExpr(n.Sequence)
	arraySlot := c.declareLocal("$array")
	c.emit(OP_CONSTANT, c.addConstant(int64(0)))
	indexSlot := c.declareLocal("$index")

	loopStart := len(c.code)
	c.loops = append(c.loops, loopState{loopStart: loopStart, scopeDepth: c.scopeDepth})

	c.emit(OP_GET_LOCAL, arraySlot)
	c.emitAt(0, OP_GET_PROPERTY, c.addString("count"))
	c.emit(OP_GET_LOCAL, indexSlot)
	c.emit(OP_GREATER)
	exitJump := c.emitJump(OP_JUMP_IF_FALSE)
	c.emit(OP_POP)

	c.beginScope()
	c.emit(OP_GET_LOCAL, arraySlot)
	c.emit(OP_GET_LOCAL, indexSlot)
	c.emit(OP_GET_SUBSCRIPT)
	c.declareLocal(n.Name)
	c.compileBlock(n.Body)
	c.endScope()

	c.emit(OP_GET_LOCAL, indexSlot)
	c.emit(OP_CONSTANT, c.addConstant(int64(1)))
	c.emit(OP_ADD)
	c.emit(OP_SET_LOCAL, indexSlot)
	c.emit(OP_POP)
	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.emit(OP_POP)

	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	for _, b := range loop.breaks {
		c.patchJump(b)
	}
}

// VisitSwitchStmt stashes the subject, then chains each case's patterns
// as conditional jumps to its shared body, per spec §4.5.2. No fall-
// through: each body ends with a jump past every remaining case.
func (c *Compiler) VisitSwitchStmt(n ast.SwitchStmt) any {
	c.beginScope()
	c.compileExpr(n.Subject)
	subjectSlot := c.declareLocal("$switch")

	var bodyEnds []int
	for _, sw := range n.Cases {
		var nextCase []int
		matched := false
		for _, pat := range sw.Patterns {
			if _, isWild := pat.(ast.WildcardPattern); isWild {
				matched = true
				continue
			}
			c.emit(OP_GET_LOCAL, subjectSlot)
			c.compileCasePattern(pat)
			goToBody := c.emitJump(OP_JUMP_IF_FALSE)
			c.emit(OP_POP)
			skipFalseBody := c.emitJump(OP_JUMP)
			c.patchJump(goToBody)
			c.emit(OP_POP)
			nextCase = append(nextCase, c.emitJump(OP_JUMP))
			c.patchJump(skipFalseBody)
		}
		_ = matched

		c.beginScope()
		for _, pat := range sw.Patterns {
			if ec, ok := pat.(ast.EnumCasePattern); ok {
				for i, b := range ec.Bindings {
					if b.Name == "_" {
						continue
					}
					c.emit(OP_GET_LOCAL, subjectSlot)
					c.emit(OP_GET_ASSOCIATED, i)
					c.declareLocal(b.Name)
				}
				break
			}
		}
		if sw.Where != nil {
			c.compileExpr(sw.Where)
			skipBody := c.emitJump(OP_JUMP_IF_FALSE)
			c.emit(OP_POP)
			c.compileBlock(sw.Body)
			bodyEnds = append(bodyEnds, c.emitJump(OP_JUMP))
			c.patchJump(skipBody)
			c.emit(OP_POP)
		} else {
			c.compileBlock(sw.Body)
			bodyEnds = append(bodyEnds, c.emitJump(OP_JUMP))
		}
		c.endScope()

		for _, j := range nextCase {
			c.patchJump(j)
		}
	}
	for _, j := range bodyEnds {
		c.patchJump(j)
	}
	c.endScope()
	return nil
}

// compileCasePattern leaves a Bool on TOS comparing against the already-
// pushed subject copy (GET_LOCAL $switch), for switch's per-pattern jump.
func (c *Compiler) compileCasePattern(pat ast.Pattern) {
	switch p := pat.(type) {
	case ast.ExpressionPattern:
		c.compileExpr(p.Value)
		c.emit(OP_EQUAL)
	case ast.EnumCasePattern:
		c.emit(OP_MATCH_ENUM_CASE, c.addString(p.CaseName))
	default:
		c.emit(OP_POP)
		c.emit(OP_TRUE)
	}
}

func (c *Compiler) VisitBreakStmt(n ast.BreakStmt) any {
	if len(c.loops) == 0 {
		c.fail(n.Keyword.Line, "'break' outside of a loop")
		return nil
	}
	j := c.emitJump(OP_JUMP)
	top := len(c.loops) - 1
	c.loops[top].breaks = append(c.loops[top].breaks, j)
	return nil
}

func (c *Compiler) VisitContinueStmt(n ast.ContinueStmt) any {
	if len(c.loops) == 0 {
		c.fail(n.Keyword.Line, "'continue' outside of a loop")
		return nil
	}
	c.emitLoop(c.loops[len(c.loops)-1].loopStart)
	return nil
}

func (c *Compiler) VisitReturnStmt(n ast.ReturnStmt) any {
	if n.Value != nil {
		c.compileExpr(n.Value)
	} else {
		c.emit(OP_NIL)
	}
	c.emitAt(n.Keyword.Line, OP_RETURN)
	return nil
}

func (c *Compiler) VisitThrowStmt(n ast.ThrowStmt) any {
	c.compileExpr(n.Value)
	c.emitAt(n.Keyword.Line, OP_THROW)
	return nil
}

// VisitDoCatchStmt: SwiftScript's VM unwinds a throw all the way to
// execute() (spec §7: "no user-level try/catch is implemented in the VM
// beyond the syntactic do/catch placeholders, reserved for future work").
// The parser accepts the syntax; the compiler reflects that scope by
// compiling the `do` body only, exactly as spec §4.2/§7 frame it.
func (c *Compiler) VisitDoCatchStmt(n ast.DoCatchStmt) any {
	c.beginScope()
	c.compileBlock(n.Body)
	c.endScope()
	return nil
}

func (c *Compiler) VisitImportDecl(n ast.ImportDecl) any {
	return nil
}

// VisitFuncDecl compiles a top-level or nested (non-method) function
// declaration: a child compiler with no implicit `self`, storing the
// resulting FUNCTION/CLOSURE value into the declaring scope exactly like a
// VarDecl would (spec §4.5.2's closure pattern, without the method
// receiver).
func (c *Compiler) VisitFuncDecl(n ast.FuncDecl) any {
	child := newChildCompiler(c, n.Name)
	child.beginScope()
	for _, p := range n.Params {
		child.declareLocal(p.Name)
	}
	child.compileBlock(n.Body)
	child.emit(OP_NIL)
	child.emit(OP_RETURN)

	proto := FunctionPrototype{
		Name:          n.Name,
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
	} else {
		operands := []int{fi, len(child.upvalues)}
		for _, u := range child.upvalues {
			if u.IsLocal {
				operands = append(operands, 1, u.Index)
			} else {
				operands = append(operands, 0, u.Index)
			}
		}
		c.emit(OP_CLOSURE, operands...)
	}

	if c.scopeDepth == 0 {
		c.emit(OP_DEFINE_GLOBAL, c.addString(n.Name))
	} else {
		c.declareLocal(n.Name)
	}
	return nil
}
