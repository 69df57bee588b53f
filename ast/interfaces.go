// interfaces.go defines the visitor interfaces every piece of code that
// walks the AST (the analyzer, the bytecode compiler, the AST printer) must
// implement, following informatter-nilan's Accept/Visit convention.
package ast

// Expression is the base interface for every expression node. Expressions
// always evaluate to a value.
type Expression interface {
	Accept(v ExpressionVisitor) any
}

// Stmt is the base interface for every statement and declaration node.
// SwiftScript treats declarations (var/func/class/struct/enum/protocol/
// extension/import) as statements, exactly as the teacher's VarStmt does.
type Stmt interface {
	Accept(v StmtVisitor) any
}

// ExpressionVisitor has one Visit method per Expression node kind.
type ExpressionVisitor interface {
	VisitBinary(Binary) any
	VisitUnary(Unary) any
	VisitLiteral(Literal) any
	VisitGrouping(Grouping) any
	VisitVariable(Variable) any
	VisitAssign(Assign) any
	VisitLogical(Logical) any
	VisitTernary(Ternary) any
	VisitNilCoalesce(NilCoalesce) any
	VisitForceUnwrap(ForceUnwrap) any
	VisitCall(Call) any
	VisitGet(Get) any
	VisitSet(Set) any
	VisitSubscriptGet(SubscriptGet) any
	VisitSubscriptSet(SubscriptSet) any
	VisitSelfExpr(SelfExpr) any
	VisitSuperExpr(SuperExpr) any
	VisitArrayLiteral(ArrayLiteral) any
	VisitDictLiteral(DictLiteral) any
	VisitTupleLiteral(TupleLiteral) any
	VisitTupleIndex(TupleIndex) any
	VisitClosure(Closure) any
	VisitRange(Range) any
	VisitIsExpr(IsExpr) any
	VisitAsExpr(AsExpr) any
	VisitStringInterpolation(StringInterpolation) any
}

// StmtVisitor has one Visit method per statement/declaration node kind.
type StmtVisitor interface {
	VisitExpressionStmt(ExpressionStmt) any
	VisitPrintStmt(PrintStmt) any
	VisitVarDecl(VarDecl) any
	VisitBlockStmt(BlockStmt) any
	VisitIfStmt(IfStmt) any
	VisitGuardStmt(GuardStmt) any
	VisitWhileStmt(WhileStmt) any
	VisitRepeatWhileStmt(RepeatWhileStmt) any
	VisitForInStmt(ForInStmt) any
	VisitSwitchStmt(SwitchStmt) any
	VisitBreakStmt(BreakStmt) any
	VisitContinueStmt(ContinueStmt) any
	VisitReturnStmt(ReturnStmt) any
	VisitThrowStmt(ThrowStmt) any
	VisitDoCatchStmt(DoCatchStmt) any
	VisitFuncDecl(FuncDecl) any
	VisitClassDecl(ClassDecl) any
	VisitStructDecl(StructDecl) any
	VisitEnumDecl(EnumDecl) any
	VisitProtocolDecl(ProtocolDecl) any
	VisitExtensionDecl(ExtensionDecl) any
	VisitImportDecl(ImportDecl) any
}
