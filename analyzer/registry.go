package analyzer

import "swiftscript/ast"

// TypeKind distinguishes the user-declarable nominal type kinds.
type TypeKind int

const (
	KindBuiltin TypeKind = iota
	KindClass
	KindStruct
	KindEnum
	KindProtocol
)

// MethodSig is a flattened, type-registry view of a method or
// initializer, independent of the FuncDecl body.
type MethodSig struct {
	Name       string
	Params     []ast.Param
	ReturnType *ast.TypeRef
	IsStatic   bool
	IsMutating bool
	Access     ast.AccessLevel
}

// PropertySig mirrors a property declaration's externally-visible shape.
type PropertySig struct {
	Name      string
	Type      ast.TypeRef
	IsConst   bool
	HasSetter bool // true for `var`, computed-with-set, or observed
	Access    ast.AccessLevel
}

// TypeEntry is one registered nominal type: a builtin, or a user
// class/struct/enum/protocol, possibly generic.
type TypeEntry struct {
	Name       string
	Kind       TypeKind
	Superclass string   // class only
	Protocols  []string // declared conformances, direct only
	Generics   []ast.GenericParam

	Properties map[string]PropertySig
	Methods    map[string]MethodSig
	Cases      map[string]ast.EnumCaseDecl // enum only
	RawType    string                      // enum only, "" if none

	// TemplateOf, when non-empty, is the name of the generic template
	// a specialized type like "Box_Int" was instantiated from.
	TemplateOf string
}

func newTypeEntry(name string, kind TypeKind) *TypeEntry {
	return &TypeEntry{
		Name:       name,
		Kind:       kind,
		Properties: make(map[string]PropertySig),
		Methods:    make(map[string]MethodSig),
		Cases:      make(map[string]ast.EnumCaseDecl),
	}
}

// AttributeEntry describes a builtin attribute's enforcement behavior.
type AttributeEntry struct {
	Name     string
	IsError  bool // Obsolete: using the annotated symbol is an error
	IsWarn   bool // Deprecated: using the annotated symbol emits a warning
}

// Registry is the Pass A type registry: every nominal type (builtin and
// user-declared), every protocol's descendant closure, and the builtin
// attribute table.
type Registry struct {
	Types      map[string]*TypeEntry
	Attributes map[string]AttributeEntry
	// descendants[p] lists every protocol/class that (transitively)
	// conforms to or inherits from p, computed after Pass A completes.
	descendants map[string][]string
	// Templates holds generic struct/class/enum declarations by name,
	// for later specialization when `Name<Args>` is encountered.
	Templates map[string]ast.Stmt
}

func NewRegistry() *Registry {
	r := &Registry{
		Types:       make(map[string]*TypeEntry),
		Attributes:  make(map[string]AttributeEntry),
		descendants: make(map[string][]string),
		Templates:   make(map[string]ast.Stmt),
	}
	r.registerBuiltins()
	return r
}

var numericConformances = []string{"Equatable", "Comparable", "Numeric", "SignedNumeric", "Hashable", "CustomStringConvertible"}

func (r *Registry) registerBuiltins() {
	for _, name := range []string{"Int", "Float", "Bool", "String", "Array", "Dictionary", "Void", "Any"} {
		e := newTypeEntry(name, KindBuiltin)
		r.Types[name] = e
	}
	r.Types["Int"].Protocols = numericConformances
	r.Types["Float"].Protocols = numericConformances
	r.Types["Bool"].Protocols = []string{"Equatable", "Hashable", "CustomStringConvertible"}
	r.Types["String"].Protocols = []string{"Equatable", "Comparable", "Hashable", "CustomStringConvertible"}

	arr := r.Types["Array"]
	arr.Properties["count"] = PropertySig{Name: "count", Type: ast.TypeRef{Name: "Int"}}
	arr.Properties["isEmpty"] = PropertySig{Name: "isEmpty", Type: ast.TypeRef{Name: "Bool"}}
	arr.Methods["append"] = MethodSig{Name: "append", Params: []ast.Param{{Name: "element", Type: ast.TypeRef{Name: "Any"}}}, ReturnType: &ast.TypeRef{Name: "Void"}, IsMutating: true}

	for _, p := range []string{"Equatable", "Comparable", "Hashable", "Numeric", "SignedNumeric", "CustomStringConvertible"} {
		e := newTypeEntry(p, KindProtocol)
		r.Types[p] = e
	}
	r.Types["Comparable"].Protocols = []string{"Equatable"}
	r.Types["Hashable"].Protocols = []string{"Equatable"}
	r.Types["SignedNumeric"].Protocols = []string{"Numeric"}

	r.Attributes["Range"] = AttributeEntry{Name: "Range"}
	r.Attributes["Obsolete"] = AttributeEntry{Name: "Obsolete", IsError: true}
	r.Attributes["Deprecated"] = AttributeEntry{Name: "Deprecated", IsWarn: true}
}

// RegisterDecl populates the registry from a single top-level
// declaration; extensions are deferred to a second pass over
// pendingExtensions since they may precede or follow the type they
// extend in source order.
func (r *Registry) RegisterDecl(decl ast.Stmt, pendingExtensions *[]ast.ExtensionDecl) {
	switch d := decl.(type) {
	case ast.ClassDecl:
		e := newTypeEntry(d.Name, KindClass)
		e.Superclass = d.Superclass
		e.Protocols = d.Protocols
		e.Generics = d.Generics
		for _, p := range d.Properties {
			e.Properties[p.Name.Lexeme] = propertySig(p)
		}
		for _, m := range d.Methods {
			e.Methods[m.Name] = methodSig(m)
		}
		r.Types[d.Name] = e
		if len(d.Generics) > 0 {
			r.Templates[d.Name] = d
		}
	case ast.StructDecl:
		e := newTypeEntry(d.Name, KindStruct)
		e.Protocols = d.Protocols
		e.Generics = d.Generics
		for _, p := range d.Properties {
			e.Properties[p.Name.Lexeme] = propertySig(p)
		}
		for _, m := range d.Methods {
			e.Methods[m.Name] = methodSig(m)
		}
		r.Types[d.Name] = e
		if len(d.Generics) > 0 {
			r.Templates[d.Name] = d
		}
	case ast.EnumDecl:
		e := newTypeEntry(d.Name, KindEnum)
		e.Protocols = d.Protocols
		e.Generics = d.Generics
		e.RawType = d.RawType
		for _, c := range d.Cases {
			e.Cases[c.Name] = c
		}
		for _, m := range d.Methods {
			e.Methods[m.Name] = methodSig(m)
		}
		r.Types[d.Name] = e
		if len(d.Generics) > 0 {
			r.Templates[d.Name] = d
		}
	case ast.ProtocolDecl:
		e := newTypeEntry(d.Name, KindProtocol)
		e.Protocols = d.Inherits
		for _, m := range d.Methods {
			e.Methods[m.Name] = MethodSig{Name: m.Name, Params: m.Params, ReturnType: m.ReturnType, IsStatic: m.IsStatic, IsMutating: m.IsMutating}
		}
		for _, p := range d.Properties {
			e.Properties[p.Name] = PropertySig{Name: p.Name, Type: p.Type, HasSetter: p.HasSetter}
		}
		r.Types[d.Name] = e
	case ast.ExtensionDecl:
		*pendingExtensions = append(*pendingExtensions, d)
	}
}

// ApplyExtensions merges each deferred extension's members into the
// registry entry of the type it extends.
func (r *Registry) ApplyExtensions(exts []ast.ExtensionDecl) {
	for _, ext := range exts {
		e, ok := r.Types[ext.TypeName]
		if !ok {
			continue
		}
		e.Protocols = append(e.Protocols, ext.Protocols...)
		for _, p := range ext.Properties {
			e.Properties[p.Name.Lexeme] = propertySig(p)
		}
		for _, m := range ext.Methods {
			e.Methods[m.Name] = methodSig(m)
		}
	}
}

// ComputeDescendants builds the parent->descendants transitive closure
// over every registered protocol/class relationship, so a query like
// "does X conform to Equatable" can walk ancestors from X instead.
func (r *Registry) ComputeDescendants() {
	for name, e := range r.Types {
		for _, parent := range e.Protocols {
			r.descendants[parent] = append(r.descendants[parent], name)
		}
		if e.Superclass != "" {
			r.descendants[e.Superclass] = append(r.descendants[e.Superclass], name)
		}
	}
}

// ConformsTo reports whether typeName conforms to (or inherits, or
// equals) target, walking superclasses and declared protocol lists
// plus protocol-to-protocol inheritance transitively.
func (r *Registry) ConformsTo(typeName, target string) bool {
	if typeName == target {
		return true
	}
	visited := map[string]bool{}
	var walk func(string) bool
	walk = func(n string) bool {
		if visited[n] {
			return false
		}
		visited[n] = true
		e, ok := r.Types[n]
		if !ok {
			return false
		}
		if e.Superclass == target {
			return true
		}
		for _, p := range e.Protocols {
			if p == target || walk(p) {
				return true
			}
		}
		if e.Superclass != "" && walk(e.Superclass) {
			return true
		}
		return false
	}
	return walk(typeName)
}

// IsSubclass reports whether sub is target or a (possibly indirect)
// subclass of target.
func (r *Registry) IsSubclass(sub, target string) bool {
	if sub == target {
		return true
	}
	seen := map[string]bool{}
	cur := sub
	for {
		e, ok := r.Types[cur]
		if !ok || e.Superclass == "" || seen[cur] {
			return false
		}
		seen[cur] = true
		if e.Superclass == target {
			return true
		}
		cur = e.Superclass
	}
}

func propertySig(p ast.VarDecl) PropertySig {
	t := ast.TypeRef{}
	if p.Type != nil {
		t = *p.Type
	}
	hasSetter := !p.IsConst
	if p.Getter != nil {
		hasSetter = p.Setter != nil
	}
	return PropertySig{Name: p.Name.Lexeme, Type: t, IsConst: p.IsConst, HasSetter: hasSetter, Access: p.Access}
}

func methodSig(m ast.FuncDecl) MethodSig {
	return MethodSig{Name: m.Name, Params: m.Params, ReturnType: m.ReturnType, IsStatic: m.IsStatic, IsMutating: m.IsMutating, Access: m.Access}
}
