// Package module resolves and loads the `import "path"` declarations a
// SwiftScript file may contain, lexing and parsing each dependency
// independently and splicing its top-level statements ahead of the
// importing module's own statements so that cross-module symbols are
// resolvable by the single declaration-collection pass that follows.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"swiftscript/ast"
	"swiftscript/lexer"
	"swiftscript/parser"
)

// Resolver loads the source text behind an import key. Implementations
// may back it with an embedded filesystem, a network fetch, or an
// in-memory fixture map; ResolveAndLoad returns the key's canonical
// full path (used for cycle detection and diagnostics) and its source.
type Resolver interface {
	ResolveAndLoad(key string) (fullPath string, source string, err error)
}

// FileResolver resolves import keys as filesystem paths relative to
// BaseDir, appending ".ss" when the key carries no extension.
type FileResolver struct {
	BaseDir string
}

func (r FileResolver) ResolveAndLoad(key string) (string, string, error) {
	path := key
	if filepath.Ext(path) == "" {
		path += ".ss"
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("💥 failed to load module %q: %w", key, err)
	}
	return path, string(data), nil
}

// LoadError reports a module-loading failure: an unresolvable import,
// a lex/parse error inside an imported file, or a circular import.
type LoadError struct {
	Key     string
	Message string
}

func (e LoadError) Error() string {
	return fmt.Sprintf("💥 module error: %s (%s)", e.Message, e.Key)
}

// Loader walks a module's import graph, lexing and parsing each
// dependency exactly once and exposing the combined, splice-ordered
// statement list.
type Loader struct {
	resolver Resolver
	loaded   map[string][]ast.Stmt // fullPath -> parsed statements, memoized
	order    []string              // fullPath load order, dependencies first
	inFlight map[string]bool       // cycle detection
}

func NewLoader(resolver Resolver) *Loader {
	return &Loader{
		resolver: resolver,
		loaded:   make(map[string][]ast.Stmt),
		inFlight: make(map[string]bool),
	}
}

// Load parses source as the root module, resolving and splicing every
// transitively imported module's statements ahead of it. The returned
// slice is ready for the analyzer's declaration-collection pass.
func (l *Loader) Load(rootPath string, source string) ([]ast.Stmt, error) {
	rootStmts, err := parseSource(source)
	if err != nil {
		return nil, err
	}
	l.inFlight[rootPath] = true
	defer delete(l.inFlight, rootPath)

	var spliced []ast.Stmt
	for _, stmt := range rootStmts {
		imp, ok := stmt.(ast.ImportDecl)
		if !ok {
			spliced = append(spliced, stmt)
			continue
		}
		depStmts, err := l.resolve(imp)
		if err != nil {
			return nil, err
		}
		spliced = append(spliced, depStmts...)
	}
	l.loaded[rootPath] = rootStmts
	l.order = append(l.order, rootPath)
	return spliced, nil
}

// resolve loads, memoizes, and recursively splices a single import key.
func (l *Loader) resolve(imp ast.ImportDecl) ([]ast.Stmt, error) {
	fullPath, source, err := l.resolver.ResolveAndLoad(imp.ModuleName)
	if err != nil {
		return nil, err
	}
	if cached, ok := l.loaded[fullPath]; ok {
		return cached, nil
	}
	if l.inFlight[fullPath] {
		return nil, LoadError{Key: imp.ModuleName, Message: "circular import detected"}
	}
	l.inFlight[fullPath] = true
	defer delete(l.inFlight, fullPath)

	stmts, err := parseSource(source)
	if err != nil {
		return nil, err
	}

	var spliced []ast.Stmt
	for _, stmt := range stmts {
		nested, ok := stmt.(ast.ImportDecl)
		if !ok {
			spliced = append(spliced, stmt)
			continue
		}
		nestedStmts, err := l.resolve(nested)
		if err != nil {
			return nil, err
		}
		spliced = append(spliced, nestedStmts...)
	}

	l.loaded[fullPath] = spliced
	l.order = append(l.order, fullPath)
	return spliced, nil
}

// Namespace returns the file-stem identifier a module's public
// function declarations are exposed under once compiled, e.g.
// "utils/Strings.ss" exports under the identifier "Strings".
func Namespace(fullPath string) string {
	base := filepath.Base(fullPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base
}

func parseSource(source string) ([]ast.Stmt, error) {
	lex := lexer.New(source)
	tokens, err := lex.Scan()
	if err != nil {
		return nil, err
	}
	p := parser.Make(tokens)
	stmts, errs := p.Parse()
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, LoadError{Message: strings.Join(msgs, "\n")}
	}
	return stmts, nil
}
