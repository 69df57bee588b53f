package analyzer

import "swiftscript/ast"

var anyType = ast.TypeRef{Name: "Any"}
var voidType = ast.TypeRef{Name: "Void"}
var boolType = ast.TypeRef{Name: "Bool"}
var intType = ast.TypeRef{Name: "Int"}
var floatType = ast.TypeRef{Name: "Float"}
var stringType = ast.TypeRef{Name: "String"}

func isUnknown(t ast.TypeRef) bool { return t.Name == "" || t.Name == "Any" }

func optionalOf(t ast.TypeRef) ast.TypeRef {
	return ast.TypeRef{IsOptional: true, Name: "Optional", Generics: []ast.TypeRef{t}}
}

func unwrapOptional(t ast.TypeRef) ast.TypeRef {
	if t.IsOptional && len(t.Generics) == 1 {
		return t.Generics[0]
	}
	return t
}

func isNumeric(t ast.TypeRef) bool { return t.Name == "Int" || t.Name == "Float" }

func sameType(a, b ast.TypeRef) bool {
	return a.Mangled() == b.Mangled() && a.IsOptional == b.IsOptional
}

// assignable implements the expected/actual compatibility rule from
// the checking pass: unknown on either side always matches; optional
// expected accepts nil or its assignable base; equal types match;
// expected superclass/protocol of actual matches via the registry;
// function types match pointwise.
func (c *Checker) assignable(expected, actual ast.TypeRef) bool {
	if isUnknown(expected) || isUnknown(actual) {
		return true
	}
	if expected.IsOptional {
		inner := unwrapOptional(expected)
		return c.assignable(inner, unwrapOptional(actual))
	}
	if sameType(expected, actual) {
		return true
	}
	if expected.IsFunction && actual.IsFunction {
		if len(expected.FuncParams) != len(actual.FuncParams) {
			return false
		}
		for i := range expected.FuncParams {
			if !c.assignable(expected.FuncParams[i], actual.FuncParams[i]) {
				return false
			}
		}
		if expected.FuncReturn != nil && actual.FuncReturn != nil {
			return c.assignable(*expected.FuncReturn, *actual.FuncReturn)
		}
		return true
	}
	if c.reg.IsSubclass(actual.Name, expected.Name) {
		return true
	}
	if e, ok := c.reg.Types[expected.Name]; ok && e.Kind == KindProtocol {
		return c.reg.ConformsTo(actual.Name, expected.Name)
	}
	return false
}
