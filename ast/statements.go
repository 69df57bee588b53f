// statements.go contains every statement and declaration AST node.
package ast

import "swiftscript/token"

// ExpressionStmt is an expression evaluated for its side effects.
type ExpressionStmt struct {
	Expression Expression
}

func (n ExpressionStmt) Accept(v StmtVisitor) any { return v.VisitExpressionStmt(n) }

// PrintStmt represents the builtin `print(...)` surfaced as its own
// statement kind, matching the teacher's dedicated PrintStmt.
type PrintStmt struct {
	Arguments []Expression
}

func (n PrintStmt) Accept(v StmtVisitor) any { return v.VisitPrintStmt(n) }

// VarDecl represents `let`/`var name: Type = initializer`, with optional
// willSet/didSet observer bodies for a stored property and an optional
// computed-property getter/setter pair in place of Initializer.
type VarDecl struct {
	Name        token.Token
	IsConst     bool // true for `let`, false for `var`
	Type        *TypeRef
	Initializer Expression

	// Computed property support: non-nil Getter marks this as computed.
	Getter []Stmt
	Setter []Stmt
	SetterParam string // name bound inside Setter, defaults to "newValue"

	WillSet []Stmt
	DidSet  []Stmt

	Access AccessLevel
}

func (n VarDecl) Accept(v StmtVisitor) any { return v.VisitVarDecl(n) }

// BlockStmt is a `{ ... }` sequence of statements introducing a new scope.
type BlockStmt struct {
	Statements []Stmt
}

func (n BlockStmt) Accept(v StmtVisitor) any { return v.VisitBlockStmt(n) }

// OptionalBinding is the `let name = expr` clause of an `if let`/`guard
// let`/`while let` condition. Plain boolean conditions have no
// OptionalBinding (Condition.Binding is nil).
type OptionalBinding struct {
	Name  string
	Value Expression
}

// Condition is one clause of an `if`/`guard`/`while` condition list: either
// a boolean expression or an optional binding (possibly followed by a
// `case let` pattern match via Pattern).
type Condition struct {
	Binding   *OptionalBinding
	Pattern   Pattern // non-nil for `case .some(let x) = expr`
	Boolean   Expression
}

// IfStmt represents `if cond1, cond2 { ... } else { ... }`. Else is nil
// when absent; it holds a single IfStmt wrapped in a slice for `else if`.
type IfStmt struct {
	Conditions []Condition
	Then       []Stmt
	Else       []Stmt
}

func (n IfStmt) Accept(v StmtVisitor) any { return v.VisitIfStmt(n) }

// GuardStmt represents `guard cond1, cond2 else { ... }`; the Else branch
// must exit the enclosing scope (return/break/continue/throw), checked by
// the analyzer rather than the parser.
type GuardStmt struct {
	Conditions []Condition
	Else       []Stmt
}

func (n GuardStmt) Accept(v StmtVisitor) any { return v.VisitGuardStmt(n) }

// WhileStmt represents `while cond1, cond2 { ... }`.
type WhileStmt struct {
	Conditions []Condition
	Body       []Stmt
}

func (n WhileStmt) Accept(v StmtVisitor) any { return v.VisitWhileStmt(n) }

// RepeatWhileStmt represents `repeat { ... } while cond`.
type RepeatWhileStmt struct {
	Body      []Stmt
	Condition Expression
}

func (n RepeatWhileStmt) Accept(v StmtVisitor) any { return v.VisitRepeatWhileStmt(n) }

// ForInStmt represents `for name in sequence { ... }`.
type ForInStmt struct {
	Name     string
	Sequence Expression
	Body     []Stmt
}

func (n ForInStmt) Accept(v StmtVisitor) any { return v.VisitForInStmt(n) }

// Pattern is a switch-case match pattern: either a plain expression
// (ExpressionPattern), an enum-case pattern with optional associated-value
// bindings (EnumCasePattern), or the wildcard `_` (WildcardPattern).
type Pattern interface {
	isPattern()
}

// ExpressionPattern matches when the case expression equals the subject.
type ExpressionPattern struct {
	Value Expression
}

func (ExpressionPattern) isPattern() {}

// EnumCasePattern matches `.caseName(let a, let b)`, binding each named
// associated value into a fresh `let` local for the case body.
type EnumCasePattern struct {
	CaseName string
	Bindings []PatternBinding
}

func (EnumCasePattern) isPattern() {}

// PatternBinding names one captured associated value; Name == "_" discards
// it without introducing a local.
type PatternBinding struct {
	Name string
}

// WildcardPattern matches unconditionally, used for the `default` case.
type WildcardPattern struct{}

func (WildcardPattern) isPattern() {}

// SwitchCase is one `case pattern1, pattern2 where guard: body` arm, or the
// final `default: body` arm (Patterns holding a single WildcardPattern).
type SwitchCase struct {
	Patterns []Pattern
	Where    Expression // nil if the case has no `where` guard
	Body     []Stmt
}

// SwitchStmt represents `switch subject { case ...: ...; default: ... }`.
// The analyzer type-checks each case's patterns and body; it does not
// check that the cases are exhaustive.
type SwitchStmt struct {
	Subject Expression
	Cases   []SwitchCase
}

func (n SwitchStmt) Accept(v StmtVisitor) any { return v.VisitSwitchStmt(n) }

// BreakStmt represents `break`.
type BreakStmt struct {
	Keyword token.Token
}

func (n BreakStmt) Accept(v StmtVisitor) any { return v.VisitBreakStmt(n) }

// ContinueStmt represents `continue`.
type ContinueStmt struct {
	Keyword token.Token
}

func (n ContinueStmt) Accept(v StmtVisitor) any { return v.VisitContinueStmt(n) }

// ReturnStmt represents `return` or `return value`.
type ReturnStmt struct {
	Keyword token.Token
	Value   Expression // nil for a bare `return`
}

func (n ReturnStmt) Accept(v StmtVisitor) any { return v.VisitReturnStmt(n) }

// ThrowStmt represents `throw value`.
type ThrowStmt struct {
	Keyword token.Token
	Value   Expression
}

func (n ThrowStmt) Accept(v StmtVisitor) any { return v.VisitThrowStmt(n) }

// CatchClause is one `catch name { ... }` or bare `catch { ... }` arm of a
// do/catch statement; Name is "" when the thrown value isn't bound.
type CatchClause struct {
	Name string
	Body []Stmt
}

// DoCatchStmt represents `do { ... } catch name { ... }`.
type DoCatchStmt struct {
	Body    []Stmt
	Catches []CatchClause
}

func (n DoCatchStmt) Accept(v StmtVisitor) any { return v.VisitDoCatchStmt(n) }

// FuncDecl represents a top-level function, method, or initializer
// (IsInit true, Name ignored in favor of the synthesized "init" selector).
type FuncDecl struct {
	Name       string
	Generics   []GenericParam
	Params     []Param
	ReturnType *TypeRef
	Body       []Stmt
	Attributes []Attribute

	IsStatic   bool
	IsMutating bool
	IsInit     bool
	Access     AccessLevel
}

func (n FuncDecl) Accept(v StmtVisitor) any { return v.VisitFuncDecl(n) }

// ClassDecl represents `class Name: Super, Protocol { ... }`.
type ClassDecl struct {
	Name       string
	Generics   []GenericParam
	Superclass string // "" if none
	Protocols  []string
	Properties []VarDecl
	Methods    []FuncDecl
	Deinit     []Stmt // nil if no deinitializer
	Access     AccessLevel
}

func (n ClassDecl) Accept(v StmtVisitor) any { return v.VisitClassDecl(n) }

// StructDecl represents `struct Name: Protocol { ... }`. Structs have
// value semantics and no inheritance, per spec §4.
type StructDecl struct {
	Name       string
	Generics   []GenericParam
	Protocols  []string
	Properties []VarDecl
	Methods    []FuncDecl
	Access     AccessLevel
}

func (n StructDecl) Accept(v StmtVisitor) any { return v.VisitStructDecl(n) }

// EnumDecl represents `enum Name: RawType { case ... }`.
type EnumDecl struct {
	Name      string
	Generics  []GenericParam
	RawType   string // "" if this is not a raw-value enum
	Protocols []string
	Cases     []EnumCaseDecl
	Methods   []FuncDecl
	Access    AccessLevel
}

func (n EnumDecl) Accept(v StmtVisitor) any { return v.VisitEnumDecl(n) }

// ProtocolDecl represents `protocol Name { ... }`, a set of method and
// property requirements with no implementation.
type ProtocolDecl struct {
	Name       string
	Inherits   []string
	Methods    []FuncSig
	Properties []PropertyReq
	Access     AccessLevel
}

func (n ProtocolDecl) Accept(v StmtVisitor) any { return v.VisitProtocolDecl(n) }

// ExtensionDecl represents `extension Name: Protocol { ... }`, adding
// methods/computed-properties/conformances to a previously declared type.
type ExtensionDecl struct {
	TypeName   string
	Protocols  []string
	Properties []VarDecl
	Methods    []FuncDecl
}

func (n ExtensionDecl) Accept(v StmtVisitor) any { return v.VisitExtensionDecl(n) }

// ImportDecl represents `import "path"`; ModuleName holds the string
// literal's path.
type ImportDecl struct {
	Keyword    token.Token
	ModuleName string
}

func (n ImportDecl) Accept(v StmtVisitor) any { return v.VisitImportDecl(n) }
