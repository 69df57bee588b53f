package vm

import (
	"fmt"
	"strings"

	"swiftscript/compiler"
)

// ObjectKind tags Object's active payload field (spec §3's Object variants).
type ObjectKind byte

const (
	ObjString ObjectKind = iota
	ObjList
	ObjMap
	ObjTuple
	ObjFunction
	ObjClosure
	ObjUpvalue
	ObjBoundMethod
	ObjClass
	ObjInstance
	ObjStruct
	ObjStructInstance
	ObjEnum
	ObjEnumCase
	ObjProtocol
	ObjNative
	ObjBuiltinMethod
)

// Object is the common header + variant payload described in spec §3: kind
// tag, strong count, weak-ref back-list, is_dead flag, intrusive `next`
// pointer for the VM's object registry, tracked byte size.
type Object struct {
	Kind        ObjectKind
	StrongCount int
	WeakRefs    []*Value
	IsDead      bool
	Next        *Object
	Size        int

	Str  string
	List []Value
	Map  *OrderedMap

	Tuple       []Value
	TupleLabels []string

	Fn      *FunctionObj
	Closure *ClosureObj
	Upvalue *UpvalueObj

	BoundMethod *BoundMethodObj

	Class          *ClassObj
	Instance       *InstanceObj
	Struct         *StructObj
	StructInstance *StructInstanceObj
	Enum           *EnumObj
	EnumCase       *EnumCaseObj
	Protocol       *ProtocolObj

	Native        *NativeObj
	BuiltinMethod *BuiltinMethodObj
}

// OrderedMap backs the Map object variant: "insertion-ordered mapping from
// string keys to Values" (spec §3).
type OrderedMap struct {
	keys   []string
	values map[string]Value
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: map[string]Value{}}
}

func (m *OrderedMap) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Set(key string, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *OrderedMap) Keys() []string { return m.keys }
func (m *OrderedMap) Len() int       { return len(m.keys) }

// FunctionObj is the Function object variant: a prototype reference plus
// its index in Assembly.Functions.
type FunctionObj struct {
	Proto *compiler.FunctionPrototype
	Index int // index into Assembly.Functions, used as a stable identity
}

// ClosureObj is Function + captured upvalue slots.
type ClosureObj struct {
	Fn       *FunctionObj
	Upvalues []*Object // each an ObjUpvalue Object
}

// UpvalueObj either points to a live stack slot or, once closed, owns a
// closed-over Value.
type UpvalueObj struct {
	Location *Value // points into the VM's value stack while open
	Closed   Value
	IsClosed bool
}

func (u *UpvalueObj) Get() Value {
	if u.IsClosed {
		return u.Closed
	}
	return *u.Location
}

func (u *UpvalueObj) Set(v Value) {
	if u.IsClosed {
		u.Closed = v
		return
	}
	*u.Location = v
}

// BoundMethodObj pairs a receiver with a method Value, carrying the
// `mutating` flag so CALL can remember whether to write `self` back.
type BoundMethodObj struct {
	Receiver  Value
	Method    Value
	Mutating  bool
	IsBuiltin bool
	Builtin   string
}

// ClassObj: name, optional superclass reference, instance/static method
// maps, static-property map, computed-property accessor map, observer maps.
type ClassObj struct {
	Name              string
	Super             *ClassObj
	InstanceMethods   map[string]*FunctionObj
	StaticMethods     map[string]*FunctionObj
	StaticProperties  map[string]Value
	ComputedGetters   map[string]*FunctionObj
	ComputedSetters   map[string]*FunctionObj
	WillSetObservers  map[string]*FunctionObj
	DidSetObservers   map[string]*FunctionObj
	DefaultFieldOrder []string
	DefaultFields     map[string]Value
}

func (c *ClassObj) lookupInstanceMethod(name string) (*FunctionObj, *ClassObj) {
	for cur := c; cur != nil; cur = cur.Super {
		if fn, ok := cur.InstanceMethods[name]; ok {
			return fn, cur
		}
	}
	return nil, nil
}

// InstanceObj: class pointer + field map.
type InstanceObj struct {
	Class  *ClassObj
	Fields *OrderedMap
}

// StructObj: type descriptor with a mutating-method name set (value types
// need to know which methods are allowed to rebind `self`).
type StructObj struct {
	Name              string
	InstanceMethods   map[string]*FunctionObj
	MutatingMethods   map[string]bool
	StaticMethods     map[string]*FunctionObj
	StaticProperties  map[string]Value
	ComputedGetters   map[string]*FunctionObj
	ComputedSetters   map[string]*FunctionObj
	DefaultFieldOrder []string
	DefaultFields     map[string]Value
}

// StructInstanceObj: struct-type pointer + field map; supports deep copy
// (Clone) for SwiftScript's value semantics.
type StructInstanceObj struct {
	Struct *StructObj
	Fields *OrderedMap
}

func (s *StructInstanceObj) Clone() *StructInstanceObj {
	cloned := NewOrderedMap()
	for _, k := range s.Fields.Keys() {
		v, _ := s.Fields.Get(k)
		cloned.Set(k, v)
	}
	return &StructInstanceObj{Struct: s.Struct, Fields: cloned}
}

// EnumObj: name, ordered case descriptors, method map, optional raw-value
// type name.
type EnumObj struct {
	Name        string
	CaseOrder   []string
	Cases       map[string]*EnumCaseDescriptor
	Methods     map[string]*FunctionObj
	StaticProps map[string]Value
	RawType     string
}

type EnumCaseDescriptor struct {
	Name         string
	RawValue     Value
	AssocLabels  []string
}

// EnumCaseObj: enum-type pointer, case name, optional raw value, ordered
// associated-value labels and values.
type EnumCaseObj struct {
	Enum        *EnumObj
	CaseName    string
	RawValue    Value
	AssocLabels []string
	AssocValues []Value
}

// ProtocolObj: name, method requirements, property requirements, inherited
// protocol names.
type ProtocolObj struct {
	Name       string
	Inherits   []string
	Methods    []string
	Properties []string
}

// NativeObj: opaque pointer, type-name, type-info descriptor, ownership
// flag, optional release callback (spec §3; embedding-layer hook point).
type NativeObj struct {
	Ptr        any
	TypeName_  string
	Owned      bool
	OnRelease  func(any)
	GetterFunc func(name string) (Value, bool)
}

// BuiltinMethodObj: receiver + builtin name, e.g. list.append.
type BuiltinMethodObj struct {
	Receiver Value
	Name     string
}

func (o *Object) TypeName() string {
	switch o.Kind {
	case ObjString:
		return "String"
	case ObjList:
		return "Array"
	case ObjMap:
		return "Dictionary"
	case ObjTuple:
		return "Tuple"
	case ObjFunction, ObjClosure:
		return "Function"
	case ObjBoundMethod:
		return "Function"
	case ObjClass:
		return o.Class.Name
	case ObjInstance:
		return o.Instance.Class.Name
	case ObjStruct:
		return o.Struct.Name
	case ObjStructInstance:
		return o.StructInstance.Struct.Name
	case ObjEnum:
		return o.Enum.Name
	case ObjEnumCase:
		return o.EnumCase.Enum.Name
	case ObjProtocol:
		return o.Protocol.Name
	case ObjNative:
		return o.Native.TypeName_
	case ObjBuiltinMethod:
		return "Function"
	}
	return "Object"
}

func (o *Object) ToDisplayString() string {
	switch o.Kind {
	case ObjString:
		return o.Str
	case ObjList:
		parts := make([]string, len(o.List))
		for i, v := range o.List {
			parts[i] = v.ToDisplayString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ObjMap:
		parts := make([]string, 0, o.Map.Len())
		for _, k := range o.Map.Keys() {
			v, _ := o.Map.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, v.ToDisplayString()))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ObjTuple:
		parts := make([]string, len(o.Tuple))
		for i, v := range o.Tuple {
			if i < len(o.TupleLabels) && o.TupleLabels[i] != "" {
				parts[i] = o.TupleLabels[i] + ": " + v.ToDisplayString()
			} else {
				parts[i] = v.ToDisplayString()
			}
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ObjInstance:
		return o.Instance.Class.Name + "()"
	case ObjStructInstance:
		return o.StructInstance.Struct.Name + "()"
	case ObjEnumCase:
		if len(o.EnumCase.AssocValues) == 0 {
			return o.EnumCase.Enum.Name + "." + o.EnumCase.CaseName
		}
		parts := make([]string, len(o.EnumCase.AssocValues))
		for i, v := range o.EnumCase.AssocValues {
			parts[i] = v.ToDisplayString()
		}
		return o.EnumCase.Enum.Name + "." + o.EnumCase.CaseName + "(" + strings.Join(parts, ", ") + ")"
	case ObjFunction, ObjClosure, ObjBoundMethod:
		return "<function>"
	default:
		return "<" + o.TypeName() + ">"
	}
}
