// types.go contains the plain-data node kinds shared across declarations:
// type annotations, parameters, attributes and access levels. These are
// not Expression/Stmt nodes themselves (they carry no Accept method) since
// nothing ever needs to visit a bare type annotation polymorphically.
package ast

// AccessLevel models the subset of Swift's access-control ladder the
// analyzer actually distinguishes (spec §4.4: "enforced only between
// 'private' and 'non-private'"). The remaining levels are still recorded so
// a reader can see where the rest of the ladder would slot in.
type AccessLevel int

const (
	AccessInternal AccessLevel = iota
	AccessPublic
	AccessPrivate
	AccessFileprivate
)

// TypeRef is a parsed type annotation: "Int", "String?", "[Int]",
// "[String: Int]", "(Int) -> Bool", or "Pair<Int, String>".
type TypeRef struct {
	Name       string
	Generics   []TypeRef
	IsOptional bool

	IsArray      bool
	ArrayElement *TypeRef

	IsDictionary bool
	DictKey      *TypeRef
	DictValue    *TypeRef

	IsFunction bool
	FuncParams []TypeRef
	FuncReturn *TypeRef

	IsTuple     bool
	TupleLabels []string
	TupleElems  []TypeRef
}

// Mangled returns the analyzer's generic-specialization name:
// Name<T1,T2> mangles to Name_T1_T2, per spec §4.4/§9.
func (t TypeRef) Mangled() string {
	if len(t.Generics) == 0 {
		return t.Name
	}
	name := t.Name
	for _, g := range t.Generics {
		name += "_" + g.Mangled()
	}
	return name
}

// Param is a single function/method/initializer parameter.
type Param struct {
	Label   string // external argument label ("_" = no label, "" = same as Name)
	Name    string // internal binding name
	Type    TypeRef
	Default Expression // nil if the parameter has no default
}

// Attribute is a parsed `[Name(args, ...)]` annotation preceding a
// declaration. The parser records attributes but does not validate them;
// the analyzer looks up well-known ones (Range, Obsolete, Deprecated).
type Attribute struct {
	Name string
	Args []Expression
}

// GenericParam is a single `<T: Constraint, U where ...>` type parameter.
type GenericParam struct {
	Name        string
	Constraints []string // protocol/superclass names this parameter must conform to
}

// EnumCaseDecl is a single `case name(label: Type, ...)` or `case name = raw`
// arm of an enum declaration.
type EnumCaseDecl struct {
	Name        string
	RawValue    Expression // non-nil for `case ok = 1`
	AssocParams []Param    // non-nil for `case ok(v: Int)`
}

// FuncSig is the shape of a protocol method requirement: a name and
// parameter/return types with no body.
type FuncSig struct {
	Name       string
	Params     []Param
	ReturnType *TypeRef
	IsStatic   bool
	IsMutating bool
}

// PropertyReq is a protocol property requirement: a name, type, and whether
// a setter is required in addition to a getter.
type PropertyReq struct {
	Name       string
	Type       TypeRef
	HasSetter  bool
}
