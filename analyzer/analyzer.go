// Package analyzer implements SwiftScript's three-pass semantic
// analyzer: a type registry pass, a global-symbol declaration pass, and
// a statement/expression checking pass that accumulates TypeErrors
// instead of stopping at the first one, mirroring the parser's
// error-accumulation-plus-continue idiom.
package analyzer

import (
	"fmt"
	"os"

	"swiftscript/ast"
)

// Analyzer runs the three passes over a splice-ordered statement list
// (imports already spliced ahead of the current module by the loader)
// and reports either nil or an aggregated *TypeCheckError.
type Analyzer struct {
	Registry *Registry
	Globals  map[string]ast.TypeRef
}

func New() *Analyzer {
	return &Analyzer{
		Registry: NewRegistry(),
		Globals:  make(map[string]ast.TypeRef),
	}
}

// Analyze runs Pass A, B, and C over statements in order. Warnings
// (Deprecated-attribute usages) are printed to stderr whether or not
// errors were found;
// errors are aggregated into one TypeCheckError.
func (a *Analyzer) Analyze(statements []ast.Stmt) error {
	var pendingExtensions []ast.ExtensionDecl
	for _, stmt := range statements {
		a.Registry.RegisterDecl(stmt, &pendingExtensions)
	}
	a.Registry.ApplyExtensions(pendingExtensions)
	a.Registry.ComputeDescendants()

	a.Globals["readLine"] = ast.TypeRef{
		IsFunction: true,
		FuncReturn: &ast.TypeRef{IsOptional: true, Name: "Optional", Generics: []ast.TypeRef{{Name: "String"}}},
	}
	for _, stmt := range statements {
		switch d := stmt.(type) {
		case ast.ClassDecl:
			a.Globals[d.Name] = ast.TypeRef{Name: d.Name}
		case ast.StructDecl:
			a.Globals[d.Name] = ast.TypeRef{Name: d.Name}
		case ast.EnumDecl:
			a.Globals[d.Name] = ast.TypeRef{Name: d.Name}
		case ast.FuncDecl:
			a.Globals[d.Name] = funcType(d)
		}
	}

	checker := newChecker(a.Registry, a.Globals)
	checker.checkAll(statements)

	for _, w := range checker.warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}
	if len(checker.errors) > 0 {
		return TypeCheckError{Errors: checker.errors}
	}
	return nil
}

func funcType(d ast.FuncDecl) ast.TypeRef {
	params := make([]ast.TypeRef, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.Type
	}
	ret := &ast.TypeRef{Name: "Void"}
	if d.ReturnType != nil {
		ret = d.ReturnType
	}
	return ast.TypeRef{IsFunction: true, FuncParams: params, FuncReturn: ret}
}
