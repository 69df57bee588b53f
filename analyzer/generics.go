package analyzer

import (
	"strings"

	"swiftscript/ast"
)

// specializeIfGeneric mangles `Name<T1,...>`-shaped type names the
// parser already encoded via TypeRef.Mangled, instantiating the
// template once per distinct mangled name and registering the
// specialized entry under that name so later lookups (and the
// compiler's own mangling) find it directly.
func (c *Checker) specializeIfGeneric(mangledOrPlain string) {
	if !strings.Contains(mangledOrPlain, "_") {
		return
	}
	if _, exists := c.reg.Types[mangledOrPlain]; exists {
		return
	}
	parts := strings.SplitN(mangledOrPlain, "_", 2)
	templateName := parts[0]
	_, isTemplate := c.reg.Templates[templateName]
	if !isTemplate {
		return
	}
	c.specializeType(templateName, mangledOrPlain)
}

// specializeTypeRef drives specialization from a full TypeRef (used by
// VarDecl/Param type annotations), validating each type argument
// against the template's `where`-style generic constraints before
// substituting type parameters through properties and methods.
func (c *Checker) specializeTypeRef(t ast.TypeRef) {
	if len(t.Generics) == 0 {
		return
	}
	for _, g := range t.Generics {
		c.specializeTypeRef(g)
	}
	if _, exists := c.reg.Templates[t.Name]; !exists {
		return
	}
	mangled := t.Mangled()
	if _, exists := c.reg.Types[mangled]; exists {
		return
	}
	c.specializeType(t.Name, mangled)
}

func (c *Checker) specializeType(templateName, mangledName string) {
	template := c.reg.Templates[templateName]
	args := strings.Split(strings.TrimPrefix(mangledName, templateName+"_"), "_")

	substitution := make(map[string]string)
	var generics []ast.GenericParam
	switch d := template.(type) {
	case ast.ClassDecl:
		generics = d.Generics
	case ast.StructDecl:
		generics = d.Generics
	case ast.EnumDecl:
		generics = d.Generics
	}
	for i, gp := range generics {
		if i < len(args) {
			substitution[gp.Name] = args[i]
			if len(gp.Constraints) > 0 && !c.conformsToAll(args[i], gp.Constraints) {
				c.errors = append(c.errors, TypeError{Message: sprintf("type '%s' does not satisfy the constraints of generic parameter '%s' of '%s'", args[i], gp.Name, templateName)})
			}
		}
	}

	switch d := template.(type) {
	case ast.StructDecl:
		e := newTypeEntry(mangledName, KindStruct)
		e.Protocols = d.Protocols
		e.TemplateOf = templateName
		for _, p := range d.Properties {
			sig := propertySig(p)
			sig.Type = substituteType(sig.Type, substitution)
			e.Properties[p.Name.Lexeme] = sig
		}
		for _, m := range d.Methods {
			sig := methodSig(m)
			sig.ReturnType = substituteTypePtr(sig.ReturnType, substitution)
			e.Methods[m.Name] = sig
		}
		c.reg.Types[mangledName] = e
	case ast.ClassDecl:
		e := newTypeEntry(mangledName, KindClass)
		e.Superclass = d.Superclass
		e.Protocols = d.Protocols
		e.TemplateOf = templateName
		for _, p := range d.Properties {
			sig := propertySig(p)
			sig.Type = substituteType(sig.Type, substitution)
			e.Properties[p.Name.Lexeme] = sig
		}
		for _, m := range d.Methods {
			sig := methodSig(m)
			sig.ReturnType = substituteTypePtr(sig.ReturnType, substitution)
			e.Methods[m.Name] = sig
		}
		c.reg.Types[mangledName] = e
	case ast.EnumDecl:
		e := newTypeEntry(mangledName, KindEnum)
		e.Protocols = d.Protocols
		e.TemplateOf = templateName
		for _, cs := range d.Cases {
			e.Cases[cs.Name] = cs
		}
		c.reg.Types[mangledName] = e
	}
}

func (c *Checker) conformsToAll(typeName string, constraints []string) bool {
	for _, constraint := range constraints {
		if !c.reg.ConformsTo(typeName, constraint) {
			return false
		}
	}
	return true
}

func substituteType(t ast.TypeRef, sub map[string]string) ast.TypeRef {
	if replacement, ok := sub[t.Name]; ok {
		t.Name = replacement
	}
	for i := range t.Generics {
		t.Generics[i] = substituteType(t.Generics[i], sub)
	}
	return t
}

func substituteTypePtr(t *ast.TypeRef, sub map[string]string) *ast.TypeRef {
	if t == nil {
		return nil
	}
	substituted := substituteType(*t, sub)
	return &substituted
}
