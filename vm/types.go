package vm

import "swiftscript/compiler"

// matchesType implements the runtime half of `is`/`as` (spec §4.6's TYPE_CHECK/
// TYPE_CAST*): builtin primitive names check Value.Kind directly; everything
// else walks the receiver's class-superclass chain, or compares a struct/enum
// instance's own type name (SwiftScript structs and enums don't support
// subtyping, so no chain walk is needed there).
func matchesType(v Value, typeName string) bool {
	switch typeName {
	case "Int":
		return v.Kind == KindInt
	case "Float":
		return v.Kind == KindFloat
	case "Bool":
		return v.Kind == KindBool
	case "String":
		return isString(v)
	case "Array":
		return isListVal(v)
	case "Dictionary":
		return v.Kind == KindObject && v.Obj != nil && v.Obj.Kind == ObjMap
	case "Void":
		return v.IsNil()
	case "Any":
		return true
	}
	if v.Kind != KindObject || v.Obj == nil {
		return false
	}
	switch v.Obj.Kind {
	case ObjInstance:
		for c := v.Obj.Instance.Class; c != nil; c = c.Super {
			if c.Name == typeName {
				return true
			}
		}
		return false
	case ObjStructInstance:
		return v.Obj.StructInstance.Struct.Name == typeName
	case ObjEnumCase:
		return v.Obj.EnumCase.Enum.Name == typeName
	}
	return false
}

// typeCast implements TYPE_CAST (plain `as` upcast, compiler-verified safe
// so it never fails at runtime), TYPE_CAST_OPTIONAL (`as?`, nil on
// mismatch) and TYPE_CAST_FORCED (`as!`, a runtime error on mismatch).
func (vm *VM) typeCast(f *CallFrame, op compiler.Opcode, typeName string) error {
	v := vm.pop()
	switch op {
	case compiler.OP_TYPE_CAST:
		vm.push(v)
	case compiler.OP_TYPE_CAST_OPTIONAL:
		if matchesType(v, typeName) {
			vm.push(v)
		} else {
			vm.push(Nil())
		}
	case compiler.OP_TYPE_CAST_FORCED:
		if !matchesType(v, typeName) {
			return vm.runtimeErr(f, "could not cast value of type '%s' to '%s'", v.TypeName(), typeName)
		}
		vm.push(v)
	}
	return nil
}
