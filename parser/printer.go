package parser

import (
	"fmt"

	"github.com/xlab/treeprint"

	"swiftscript/ast"
)

// astPrinter implements ast.ExpressionVisitor and ast.StmtVisitor, building
// a human-readable tree (rather than the teacher's flat JSON dump) via
// github.com/xlab/treeprint. tree always points at the branch new nodes
// should attach to; visiting a node's children temporarily repoints it at
// that node's own branch, then restores it.
type astPrinter struct {
	tree treeprint.Tree
}

// Print renders the parsed program as an indented tree and returns it.
func Print(statements []ast.Stmt) string {
	root := treeprint.New()
	p := &astPrinter{tree: root}
	for _, stmt := range statements {
		stmt.Accept(p)
	}
	return root.String()
}

func (p *astPrinter) leaf(label string) any {
	p.tree.AddNode(label)
	return nil
}

func (p *astPrinter) branch(label string, visitChildren func()) any {
	b := p.tree.AddBranch(label)
	saved := p.tree
	p.tree = b
	visitChildren()
	p.tree = saved
	return nil
}

func (p *astPrinter) acceptStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		s.Accept(p)
	}
}

// --- Expressions ---

func (p *astPrinter) VisitBinary(n ast.Binary) any {
	return p.branch(fmt.Sprintf("Binary(%s)", n.Operator.Lexeme), func() {
		n.Left.Accept(p)
		n.Right.Accept(p)
	})
}

func (p *astPrinter) VisitUnary(n ast.Unary) any {
	return p.branch(fmt.Sprintf("Unary(%s)", n.Operator.Lexeme), func() {
		n.Right.Accept(p)
	})
}

func (p *astPrinter) VisitLiteral(n ast.Literal) any {
	return p.leaf(fmt.Sprintf("Literal(%v)", n.Value))
}

func (p *astPrinter) VisitGrouping(n ast.Grouping) any {
	return p.branch("Grouping", func() { n.Expression.Accept(p) })
}

func (p *astPrinter) VisitVariable(n ast.Variable) any {
	return p.leaf(fmt.Sprintf("Variable(%s)", n.Name.Lexeme))
}

func (p *astPrinter) VisitAssign(n ast.Assign) any {
	return p.branch(fmt.Sprintf("Assign(%s)", n.Name.Lexeme), func() { n.Value.Accept(p) })
}

func (p *astPrinter) VisitLogical(n ast.Logical) any {
	return p.branch(fmt.Sprintf("Logical(%s)", n.Operator.Lexeme), func() {
		n.Left.Accept(p)
		n.Right.Accept(p)
	})
}

func (p *astPrinter) VisitTernary(n ast.Ternary) any {
	return p.branch("Ternary", func() {
		n.Condition.Accept(p)
		n.Then.Accept(p)
		n.Else.Accept(p)
	})
}

func (p *astPrinter) VisitNilCoalesce(n ast.NilCoalesce) any {
	return p.branch("NilCoalesce", func() {
		n.Left.Accept(p)
		n.Right.Accept(p)
	})
}

func (p *astPrinter) VisitForceUnwrap(n ast.ForceUnwrap) any {
	return p.branch("ForceUnwrap", func() { n.Value.Accept(p) })
}

func (p *astPrinter) VisitCall(n ast.Call) any {
	return p.branch("Call", func() {
		n.Callee.Accept(p)
		for _, a := range n.Args {
			label := "Arg"
			if a.Label != "" {
				label = fmt.Sprintf("Arg(%s)", a.Label)
			}
			p.branch(label, func() { a.Value.Accept(p) })
		}
	})
}

func (p *astPrinter) VisitGet(n ast.Get) any {
	label := fmt.Sprintf("Get(.%s)", n.Name.Lexeme)
	if n.Optional {
		label = fmt.Sprintf("Get(?.%s)", n.Name.Lexeme)
	}
	return p.branch(label, func() { n.Object.Accept(p) })
}

func (p *astPrinter) VisitSet(n ast.Set) any {
	return p.branch(fmt.Sprintf("Set(.%s)", n.Name.Lexeme), func() {
		n.Object.Accept(p)
		n.Value.Accept(p)
	})
}

func (p *astPrinter) VisitSubscriptGet(n ast.SubscriptGet) any {
	return p.branch("SubscriptGet", func() {
		n.Object.Accept(p)
		n.Index.Accept(p)
	})
}

func (p *astPrinter) VisitSubscriptSet(n ast.SubscriptSet) any {
	return p.branch("SubscriptSet", func() {
		n.Object.Accept(p)
		n.Index.Accept(p)
		n.Value.Accept(p)
	})
}

func (p *astPrinter) VisitSelfExpr(n ast.SelfExpr) any {
	return p.leaf("Self")
}

func (p *astPrinter) VisitSuperExpr(n ast.SuperExpr) any {
	return p.leaf(fmt.Sprintf("Super(.%s)", n.Method.Lexeme))
}

func (p *astPrinter) VisitArrayLiteral(n ast.ArrayLiteral) any {
	return p.branch("ArrayLiteral", func() {
		for _, e := range n.Elements {
			e.Accept(p)
		}
	})
}

func (p *astPrinter) VisitDictLiteral(n ast.DictLiteral) any {
	return p.branch("DictLiteral", func() {
		for _, e := range n.Entries {
			p.branch("Entry", func() {
				e.Key.Accept(p)
				e.Value.Accept(p)
			})
		}
	})
}

func (p *astPrinter) VisitTupleLiteral(n ast.TupleLiteral) any {
	return p.branch("TupleLiteral", func() {
		for _, e := range n.Elements {
			label := "Elem"
			if e.Label != "" {
				label = fmt.Sprintf("Elem(%s)", e.Label)
			}
			p.branch(label, func() { e.Value.Accept(p) })
		}
	})
}

func (p *astPrinter) VisitTupleIndex(n ast.TupleIndex) any {
	return p.branch(fmt.Sprintf("TupleIndex(.%d)", n.Index), func() { n.Object.Accept(p) })
}

func (p *astPrinter) VisitClosure(n ast.Closure) any {
	return p.branch("Closure", func() { p.acceptStmts(n.Body) })
}

func (p *astPrinter) VisitRange(n ast.Range) any {
	label := "Range(..<)"
	if n.Inclusive {
		label = "Range(...)"
	}
	return p.branch(label, func() {
		n.Start.Accept(p)
		n.End.Accept(p)
	})
}

func (p *astPrinter) VisitIsExpr(n ast.IsExpr) any {
	return p.branch(fmt.Sprintf("Is(%s)", n.TypeName), func() { n.Value.Accept(p) })
}

func (p *astPrinter) VisitAsExpr(n ast.AsExpr) any {
	suffix := ""
	if n.Optional {
		suffix = "?"
	} else if n.Forced {
		suffix = "!"
	}
	return p.branch(fmt.Sprintf("As%s(%s)", suffix, n.TypeName), func() { n.Value.Accept(p) })
}

func (p *astPrinter) VisitStringInterpolation(n ast.StringInterpolation) any {
	return p.branch("StringInterpolation", func() {
		for i, seg := range n.Segments {
			p.leaf(fmt.Sprintf("Segment(%q)", seg))
			if i < len(n.Exprs) {
				n.Exprs[i].Accept(p)
			}
		}
	})
}

// --- Statements ---

func (p *astPrinter) VisitExpressionStmt(n ast.ExpressionStmt) any {
	return p.branch("ExpressionStmt", func() { n.Expression.Accept(p) })
}

func (p *astPrinter) VisitPrintStmt(n ast.PrintStmt) any {
	return p.branch("PrintStmt", func() {
		for _, a := range n.Arguments {
			a.Accept(p)
		}
	})
}

func (p *astPrinter) VisitVarDecl(n ast.VarDecl) any {
	kind := "var"
	if n.IsConst {
		kind = "let"
	}
	return p.branch(fmt.Sprintf("%s %s", kind, n.Name.Lexeme), func() {
		if n.Initializer != nil {
			n.Initializer.Accept(p)
		}
		if n.Getter != nil {
			p.branch("get", func() { p.acceptStmts(n.Getter) })
		}
		if n.Setter != nil {
			p.branch("set", func() { p.acceptStmts(n.Setter) })
		}
		if n.WillSet != nil {
			p.branch("willSet", func() { p.acceptStmts(n.WillSet) })
		}
		if n.DidSet != nil {
			p.branch("didSet", func() { p.acceptStmts(n.DidSet) })
		}
	})
}

func (p *astPrinter) VisitBlockStmt(n ast.BlockStmt) any {
	return p.branch("Block", func() { p.acceptStmts(n.Statements) })
}

func (p *astPrinter) visitConditions(conds []ast.Condition) {
	for _, c := range conds {
		switch {
		case c.Binding != nil:
			p.branch(fmt.Sprintf("let %s =", c.Binding.Name), func() { c.Binding.Value.Accept(p) })
		case c.Pattern != nil:
			p.branch("case", func() { c.Boolean.Accept(p) })
		default:
			c.Boolean.Accept(p)
		}
	}
}

func (p *astPrinter) VisitIfStmt(n ast.IfStmt) any {
	return p.branch("If", func() {
		p.branch("cond", func() { p.visitConditions(n.Conditions) })
		p.branch("then", func() { p.acceptStmts(n.Then) })
		if n.Else != nil {
			p.branch("else", func() { p.acceptStmts(n.Else) })
		}
	})
}

func (p *astPrinter) VisitGuardStmt(n ast.GuardStmt) any {
	return p.branch("Guard", func() {
		p.branch("cond", func() { p.visitConditions(n.Conditions) })
		p.branch("else", func() { p.acceptStmts(n.Else) })
	})
}

func (p *astPrinter) VisitWhileStmt(n ast.WhileStmt) any {
	return p.branch("While", func() {
		p.branch("cond", func() { p.visitConditions(n.Conditions) })
		p.branch("body", func() { p.acceptStmts(n.Body) })
	})
}

func (p *astPrinter) VisitRepeatWhileStmt(n ast.RepeatWhileStmt) any {
	return p.branch("RepeatWhile", func() {
		p.branch("body", func() { p.acceptStmts(n.Body) })
		p.branch("cond", func() { n.Condition.Accept(p) })
	})
}

func (p *astPrinter) VisitForInStmt(n ast.ForInStmt) any {
	return p.branch(fmt.Sprintf("ForIn(%s)", n.Name), func() {
		p.branch("sequence", func() { n.Sequence.Accept(p) })
		p.branch("body", func() { p.acceptStmts(n.Body) })
	})
}

func patternLabel(pat ast.Pattern) string {
	switch v := pat.(type) {
	case ast.WildcardPattern:
		return "_"
	case ast.EnumCasePattern:
		return fmt.Sprintf(".%s", v.CaseName)
	case ast.ExpressionPattern:
		return "expr"
	default:
		return "pattern"
	}
}

func (p *astPrinter) VisitSwitchStmt(n ast.SwitchStmt) any {
	return p.branch("Switch", func() {
		p.branch("subject", func() { n.Subject.Accept(p) })
		for _, c := range n.Cases {
			var labels []string
			for _, pat := range c.Patterns {
				labels = append(labels, patternLabel(pat))
			}
			p.branch(fmt.Sprintf("case %v", labels), func() {
				if c.Where != nil {
					p.branch("where", func() { c.Where.Accept(p) })
				}
				p.acceptStmts(c.Body)
			})
		}
	})
}

func (p *astPrinter) VisitBreakStmt(n ast.BreakStmt) any       { return p.leaf("Break") }
func (p *astPrinter) VisitContinueStmt(n ast.ContinueStmt) any { return p.leaf("Continue") }

func (p *astPrinter) VisitReturnStmt(n ast.ReturnStmt) any {
	return p.branch("Return", func() {
		if n.Value != nil {
			n.Value.Accept(p)
		}
	})
}

func (p *astPrinter) VisitThrowStmt(n ast.ThrowStmt) any {
	return p.branch("Throw", func() { n.Value.Accept(p) })
}

func (p *astPrinter) VisitDoCatchStmt(n ast.DoCatchStmt) any {
	return p.branch("DoCatch", func() {
		p.branch("do", func() { p.acceptStmts(n.Body) })
		for _, c := range n.Catches {
			label := "catch"
			if c.Name != "" {
				label = fmt.Sprintf("catch(%s)", c.Name)
			}
			p.branch(label, func() { p.acceptStmts(c.Body) })
		}
	})
}

func (p *astPrinter) VisitFuncDecl(n ast.FuncDecl) any {
	return p.branch(fmt.Sprintf("func %s", n.Name), func() { p.acceptStmts(n.Body) })
}

func (p *astPrinter) VisitClassDecl(n ast.ClassDecl) any {
	return p.branch(fmt.Sprintf("class %s", n.Name), func() {
		for _, prop := range n.Properties {
			prop.Accept(p)
		}
		for _, m := range n.Methods {
			m.Accept(p)
		}
		if n.Deinit != nil {
			p.branch("deinit", func() { p.acceptStmts(n.Deinit) })
		}
	})
}

func (p *astPrinter) VisitStructDecl(n ast.StructDecl) any {
	return p.branch(fmt.Sprintf("struct %s", n.Name), func() {
		for _, prop := range n.Properties {
			prop.Accept(p)
		}
		for _, m := range n.Methods {
			m.Accept(p)
		}
	})
}

func (p *astPrinter) VisitEnumDecl(n ast.EnumDecl) any {
	return p.branch(fmt.Sprintf("enum %s", n.Name), func() {
		for _, c := range n.Cases {
			p.leaf(fmt.Sprintf("case %s", c.Name))
		}
		for _, m := range n.Methods {
			m.Accept(p)
		}
	})
}

func (p *astPrinter) VisitProtocolDecl(n ast.ProtocolDecl) any {
	return p.branch(fmt.Sprintf("protocol %s", n.Name), func() {
		for _, m := range n.Methods {
			p.leaf(fmt.Sprintf("func %s", m.Name))
		}
		for _, pr := range n.Properties {
			p.leaf(fmt.Sprintf("var %s", pr.Name))
		}
	})
}

func (p *astPrinter) VisitExtensionDecl(n ast.ExtensionDecl) any {
	return p.branch(fmt.Sprintf("extension %s", n.TypeName), func() {
		for _, prop := range n.Properties {
			prop.Accept(p)
		}
		for _, m := range n.Methods {
			m.Accept(p)
		}
	})
}

func (p *astPrinter) VisitImportDecl(n ast.ImportDecl) any {
	return p.leaf(fmt.Sprintf("import %s", n.ModuleName))
}
