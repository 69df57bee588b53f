package analyzer

import "swiftscript/ast"

// binding is a single lexically-scoped name: its declared (or inferred)
// type and whether it was introduced with `let`.
type binding struct {
	typ     ast.TypeRef
	isConst bool
}

// scope is one lexical block's bindings; scopes chain into a stack in
// Checker.scopes, innermost last.
type scope map[string]binding

// funcContext tracks the enclosing function/method/closure/initializer
// while checking its body, for `return` type-checking and `mutating`
// enforcement.
type funcContext struct {
	returnType *ast.TypeRef
	isInit     bool
	isMutating bool
}

// pushScope/popScope/declare/lookup/assign implement the lexical scope
// stack Pass C walks down into blocks and back out of, mirroring the
// teacher's nested-Environment idiom in interpreter/environment.go but
// tracking static types and let/var instead of runtime values.
func (c *Checker) pushScope() { c.scopes = append(c.scopes, scope{}) }
func (c *Checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) declare(name string, typ ast.TypeRef, isConst bool) {
	c.scopes[len(c.scopes)-1][name] = binding{typ: typ, isConst: isConst}
}

func (c *Checker) lookup(name string) (binding, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}
