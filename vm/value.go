package vm

import "fmt"

// ValueKind tags a Value's active field, mirroring spec §3's "tagged union
// of {nil, bool, int64, float64, object reference}".
type ValueKind byte

const (
	KindNil ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindObject
)

// RefKind distinguishes how a Value holds its Object pointer. Only strong
// refs participate in the retain/release count; weak refs are nulled when
// their target dies (see rc.go); unowned refs are never retained or nulled
// (the programmer is trusted not to outlive the referent).
type RefKind byte

const (
	RefStrong RefKind = iota
	RefWeak
	RefUnowned
)

// Value is a stack slot / local / field's runtime representation. Equality
// on primitives is structural; on object references it is identity (spec §3).
type Value struct {
	Kind    ValueKind
	Bool    bool
	Int     int64
	Float   float64
	Obj     *Object
	RefKind RefKind
}

func Nil() Value                 { return Value{Kind: KindNil} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value          { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value      { return Value{Kind: KindFloat, Float: f} }
func Obj(o *Object) Value        { return Value{Kind: KindObject, Obj: o, RefKind: RefStrong} }
func WeakObj(o *Object) Value    { return Value{Kind: KindObject, Obj: o, RefKind: RefWeak} }
func UnownedObj(o *Object) Value { return Value{Kind: KindObject, Obj: o, RefKind: RefUnowned} }

func (v Value) IsNil() bool    { return v.Kind == KindNil }
func (v Value) IsTruthy() bool { return v.Kind == KindBool && v.Bool || v.Kind != KindBool && v.Kind != KindNil }

// Equal implements Value's structural-for-primitives, identity-for-objects
// equality rule.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		if (v.Kind == KindInt && other.Kind == KindFloat) || (v.Kind == KindFloat && other.Kind == KindInt) {
			return v.AsFloat() == other.AsFloat()
		}
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindObject:
		return v.Obj == other.Obj
	}
	return false
}

func (v Value) AsFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// ToDisplayString implements the VM-level `to_string()` used by string
// interpolation and `print` (spec §4.6 "String interpolation").
func (v Value) ToDisplayString() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindObject:
		if v.Obj == nil {
			return "nil"
		}
		return v.Obj.ToDisplayString()
	}
	return ""
}

// TypeName reports the runtime type name used by TYPE_CHECK/TYPE_CAST and
// by diagnostic messages.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNil:
		return "Nil"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindObject:
		if v.Obj == nil {
			return "Nil"
		}
		return v.Obj.TypeName()
	}
	return "Any"
}
