// Package compiler walks a type-checked AST and emits SwiftScript bytecode:
// a self-contained Assembly the VM can execute directly or reload from disk.
package compiler

import (
	"swiftscript/ast"
)

// local is one lexically-scoped stack slot: its name, the scope depth it
// was declared at, and whether a child closure captured it (forcing the
// VM to box it into an Upvalue on scope exit via OP_CLOSE_UPVALUE).
type local struct {
	name      string
	depth     int
	isCaptured bool
}

// loopState tracks one active loop's back-edge target and the jump
// patch-list for any `break` seen inside it (continue targets loopStart
// directly; break needs patching once the loop's exit point is known).
type loopState struct {
	loopStart  int
	scopeDepth int
	breaks     []int
}

// Compiler is a single function/method/closure/top-level body's bytecode
// emitter. Nested functions get a child Compiler chained via enclosing,
// which resolveUpvalue walks to capture identifiers from outer scopes.
type Compiler struct {
	enclosing *Compiler

	constants []any
	strings   []string
	stringIdx map[string]int

	functions     []FunctionPrototype
	protocolDescs []ProtocolDescriptor

	code     Instructions
	lineInfo []int

	locals     []local
	scopeDepth int
	upvalues   []UpvalueDescriptor

	loops []loopState

	// bookkeeping flags mirrored from the teacher's single-compiler idiom,
	// generalized to the full OOP surface (spec §4.5).
	allowImplicitSelfProperty bool
	currentClassProperties    map[string]bool
	currentClassHasSuper      bool
	inStructMethod            bool
	inMutatingMethod          bool
	currentTypeName           string

	functionName  string
	isInitializer bool
	isMethod      bool

	maxStackDepth int
	stackDepth    int

	errors []error
}

// New creates the top-level compiler for a freshly parsed, analyzed
// program. Local slots are numbered from the frame's stack base, so the
// first declared local (a method's `self`, or a function's first
// parameter) occupies slot 0.
func New() *Compiler {
	c := &Compiler{
		stringIdx: map[string]int{},
		locals:    nil,
	}
	return c
}

func newChildCompiler(enclosing *Compiler, name string) *Compiler {
	return &Compiler{
		enclosing: enclosing,
		stringIdx: map[string]int{},
		locals:    nil,
		functionName: name,
	}
}

// Compile emits bytecode for a whole program's top-level statements and
// assembles the final, read-only Assembly for the VM.
func Compile(statements []ast.Stmt) (*Assembly, error) {
	c := New()
	for _, s := range statements {
		s.Accept(c)
	}
	c.emit(OP_HALT)

	asm := &Assembly{
		Code:          c.code,
		LineInfo:      c.lineInfo,
		Constants:     c.constants,
		Strings:       c.strings,
		Functions:     c.functions,
		Protocols:     c.protocolDescs,
		EntryFunction: -1,
	}
	if len(c.errors) > 0 {
		return asm, c.errors[0]
	}
	populateMetadata(asm)
	resolveEntryPoint(asm)
	return asm, nil
}

func (c *Compiler) fail(line int, format string, args ...any) {
	c.errors = append(c.errors, newCompilerError(line, format, args...))
}

// --- emission helpers -------------------------------------------------

func (c *Compiler) emit(op Opcode, operands ...int) int {
	ins := MakeInstruction(op, operands...)
	pos := len(c.code)
	c.code = append(c.code, ins...)
	for range ins {
		c.lineInfo = append(c.lineInfo, 0)
	}
	c.trackStack(op)
	return pos
}

func (c *Compiler) emitAt(line int, op Opcode, operands ...int) int {
	ins := MakeInstruction(op, operands...)
	pos := len(c.code)
	c.code = append(c.code, ins...)
	for range ins {
		c.lineInfo = append(c.lineInfo, line)
	}
	c.trackStack(op)
	return pos
}

// trackStack keeps a rough running high-water mark for MaxStackDepth; it
// isn't a precise stack-effect table, just enough to size the VM's
// preallocated value stack sensibly.
func (c *Compiler) trackStack(op Opcode) {
	switch op {
	case OP_POP, OP_SET_LOCAL, OP_SET_GLOBAL, OP_SET_UPVALUE, OP_RETURN, OP_DEFINE_GLOBAL:
		c.stackDepth--
	case OP_NIL, OP_TRUE, OP_FALSE, OP_CONSTANT, OP_STRING, OP_DUP,
		OP_GET_LOCAL, OP_GET_GLOBAL, OP_GET_UPVALUE:
		c.stackDepth++
	}
	if c.stackDepth > c.maxStackDepth {
		c.maxStackDepth = c.stackDepth
	}
	if c.stackDepth < 0 {
		c.stackDepth = 0
	}
}

// emitJump emits a forward jump with a placeholder offset, returning the
// position of the operand to patch once the target address is known.
func (c *Compiler) emitJump(op Opcode) int {
	c.emit(op, 0xFFFF)
	return len(c.code) - 2
}

func (c *Compiler) patchJump(operandPos int) {
	target := len(c.code)
	if target > 0xFFFF {
		c.fail(0, "jump target exceeds 16-bit offset limit")
		return
	}
	c.code[operandPos] = byte(target >> 8)
	c.code[operandPos+1] = byte(target)
}

// emitLoop emits a backward jump to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	offset := len(c.code) - loopStart + 3
	if offset > 0xFFFF {
		c.fail(0, "loop body too large for a 16-bit back-offset")
		return
	}
	c.emit(OP_LOOP, offset)
}

// --- constant / string pools --------------------------------------------

func (c *Compiler) addConstant(v any) int {
	for i, existing := range c.constants {
		if existing == v {
			return i
		}
	}
	if len(c.constants) >= 0xFFFF {
		c.fail(0, "more than 65535 constants in one compilation")
	}
	c.constants = append(c.constants, v)
	return len(c.constants) - 1
}

func (c *Compiler) addString(s string) int {
	if i, ok := c.stringIdx[s]; ok {
		return i
	}
	if len(c.strings) >= 0xFFFF {
		c.fail(0, "more than 65535 interned strings in one compilation")
	}
	idx := len(c.strings)
	c.strings = append(c.strings, s)
	c.stringIdx[s] = idx
	return idx
}

func (c *Compiler) addFunction(proto FunctionPrototype) int {
	if len(c.root().functions) >= 0xFFFF {
		c.fail(0, "more than 65535 function prototypes in one compilation")
	}
	root := c.root()
	root.functions = append(root.functions, proto)
	return len(root.functions) - 1
}

// root walks to the outermost enclosing compiler: every Compiler in a
// nested chain shares one Assembly's function table.
func (c *Compiler) root() *Compiler {
	r := c
	for r.enclosing != nil {
		r = r.enclosing
	}
	return r
}

// --- scope / locals -------------------------------------------------

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		if last.isCaptured {
			c.emit(OP_CLOSE_UPVALUE)
		} else {
			c.emit(OP_POP)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) declareLocal(name string) int {
	if len(c.locals) >= 0xFFFF {
		c.fail(0, "more than 65535 locals in one function")
	}
	c.locals = append(c.locals, local{name: name, depth: c.scopeDepth})
	return len(c.locals) - 1
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// resolveUpvalue implements the closure-capture walk of spec §4.5.2: a
// free identifier resolves in the enclosing compiler, marking the
// referenced local captured and recording an upvalue descriptor.
func (c *Compiler) resolveUpvalue(name string) (int, bool) {
	if c.enclosing == nil {
		return 0, false
	}
	if slot, ok := c.enclosing.resolveLocal(name); ok {
		c.enclosing.locals[slot].isCaptured = true
		return c.addUpvalue(slot, true), true
	}
	if idx, ok := c.enclosing.resolveUpvalue(name); ok {
		return c.addUpvalue(idx, false), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(index int, isLocal bool) int {
	for i, u := range c.upvalues {
		if u.Index == index && u.IsLocal == isLocal {
			return i
		}
	}
	c.upvalues = append(c.upvalues, UpvalueDescriptor{Index: index, IsLocal: isLocal})
	return len(c.upvalues) - 1
}
