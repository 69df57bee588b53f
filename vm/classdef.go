package vm

import (
	"strings"

	"swiftscript/compiler"
)

// methodShortName strips compileMethod's "TypeName::method" qualifier
// (used by resolveSuper to recover the defining type) back to the bare
// method name used as a map key.
func methodShortName(qualified string) string {
	if i := strings.LastIndex(qualified, "::"); i >= 0 {
		return qualified[i+2:]
	}
	return qualified
}

// defineMethod implements OP_METHOD: TOS is the class/enum/protocol object
// under construction (left there by CLASS/ENUM and never popped until the
// declaration's closing DEFINE_GLOBAL — spec §4.5.2's "the being-built type
// object stays on top of stack throughout its declaration body").
func (vm *VM) defineMethod(f *CallFrame, fi int) {
	proto := &vm.asm.Functions[fi]
	name := methodShortName(proto.Name)
	fn := &FunctionObj{Proto: proto, Index: fi}
	target := vm.peek(0)
	if target.Kind != KindObject || target.Obj == nil {
		return
	}
	switch target.Obj.Kind {
	case ObjClass:
		target.Obj.Class.InstanceMethods[name] = fn
	case ObjEnum:
		target.Obj.Enum.Methods[name] = fn
	}
}

func (vm *VM) defineStructMethod(f *CallFrame, fi int, mutating bool) {
	proto := &vm.asm.Functions[fi]
	name := methodShortName(proto.Name)
	fn := &FunctionObj{Proto: proto, Index: fi}
	target := vm.peek(0)
	if target.Kind != KindObject || target.Obj == nil || target.Obj.Kind != ObjStruct {
		return
	}
	target.Obj.Struct.InstanceMethods[name] = fn
	target.Obj.Struct.MutatingMethods[name] = mutating
}

// defineProperty registers a plain stored property's default value (TOS)
// against the type under construction (TOS-1), as a static property when
// PropertyFlagStatic is set, otherwise as a per-instance default applied
// by construct/constructStruct.
func (vm *VM) defineProperty(f *CallFrame, name string, flags int) {
	initVal := vm.pop()
	target := vm.peek(0)
	isStatic := flags&compiler.PropertyFlagStatic != 0
	if target.Kind != KindObject || target.Obj == nil {
		return
	}
	switch target.Obj.Kind {
	case ObjClass:
		if isStatic {
			target.Obj.Class.StaticProperties[name] = initVal
		} else {
			target.Obj.Class.DefaultFieldOrder = append(target.Obj.Class.DefaultFieldOrder, name)
			target.Obj.Class.DefaultFields[name] = initVal
		}
	case ObjStruct:
		if isStatic {
			target.Obj.Struct.StaticProperties[name] = initVal
		} else {
			target.Obj.Struct.DefaultFieldOrder = append(target.Obj.Struct.DefaultFieldOrder, name)
			target.Obj.Struct.DefaultFields[name] = initVal
		}
	}
}

// defineObservedProperty is defineProperty plus willSet/didSet hooks.
// Structs carry no observer maps (SwiftScript's property observers only
// apply to class-stored properties per the original Swift semantics this
// mirrors), so a struct property with observers degrades to a plain field.
func (vm *VM) defineObservedProperty(f *CallFrame, name string, flags, willFi, didFi int) {
	initVal := vm.pop()
	target := vm.peek(0)
	if target.Kind != KindObject || target.Obj == nil {
		return
	}
	isStatic := flags&compiler.PropertyFlagStatic != 0
	if target.Obj.Kind == ObjStruct {
		if isStatic {
			target.Obj.Struct.StaticProperties[name] = initVal
		} else {
			target.Obj.Struct.DefaultFieldOrder = append(target.Obj.Struct.DefaultFieldOrder, name)
			target.Obj.Struct.DefaultFields[name] = initVal
		}
		return
	}
	if target.Obj.Kind != ObjClass {
		return
	}
	cls := target.Obj.Class
	if isStatic {
		cls.StaticProperties[name] = initVal
		return
	}
	cls.DefaultFieldOrder = append(cls.DefaultFieldOrder, name)
	cls.DefaultFields[name] = initVal
	if willFi != compiler.NoLabel {
		proto := &vm.asm.Functions[willFi]
		cls.WillSetObservers[name] = &FunctionObj{Proto: proto, Index: willFi}
	}
	if didFi != compiler.NoLabel {
		proto := &vm.asm.Functions[didFi]
		cls.DidSetObservers[name] = &FunctionObj{Proto: proto, Index: didFi}
	}
}

func (vm *VM) defineComputedProperty(f *CallFrame, name string, getFi, setFi int) {
	target := vm.peek(0)
	if target.Kind != KindObject || target.Obj == nil {
		return
	}
	getProto := &vm.asm.Functions[getFi]
	getter := &FunctionObj{Proto: getProto, Index: getFi}
	var setter *FunctionObj
	if setFi != compiler.NoLabel {
		setProto := &vm.asm.Functions[setFi]
		setter = &FunctionObj{Proto: setProto, Index: setFi}
	}
	switch target.Obj.Kind {
	case ObjClass:
		target.Obj.Class.ComputedGetters[name] = getter
		if setter != nil {
			target.Obj.Class.ComputedSetters[name] = setter
		}
	case ObjStruct:
		target.Obj.Struct.ComputedGetters[name] = getter
		if setter != nil {
			target.Obj.Struct.ComputedSetters[name] = setter
		}
	}
}

// defineEnumCase implements OP_ENUM_CASE: TOS is the raw value (or nil)
// pushed by VisitEnumDecl just ahead of this instruction, TOS-1 is the
// enum under construction. Registers a case descriptor; actual EnumCase
// values (with associated values attached, if any) are created later by
// GET_PROPERTY/CALL (newEnumCaseValue/constructEnumCase).
func (vm *VM) defineEnumCase(f *CallFrame) error {
	si := vm.readShort(f)
	n := vm.readShort(f)
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		li := vm.readShort(f)
		if li != compiler.NoLabel {
			labels[i] = vm.asm.Strings[li]
		}
	}
	rawValue := vm.pop()
	target := vm.peek(0)
	if target.Kind != KindObject || target.Obj == nil || target.Obj.Kind != ObjEnum {
		return vm.runtimeErr(f, "ENUM_CASE outside an enum declaration")
	}
	name := vm.asm.Strings[si]
	desc := &EnumCaseDescriptor{Name: name, RawValue: rawValue, AssocLabels: labels}
	target.Obj.Enum.Cases[name] = desc
	target.Obj.Enum.CaseOrder = append(target.Obj.Enum.CaseOrder, name)
	return nil
}

// newEnumCaseValue materializes a bare case reference (spec's `.red` with
// no associated values, or `.some` awaiting a CALL to supply them).
func (vm *VM) newEnumCaseValue(enum *EnumObj, desc *EnumCaseDescriptor, assocValues []Value) Value {
	o := &Object{Kind: ObjEnumCase, EnumCase: &EnumCaseObj{
		Enum:        enum,
		CaseName:    desc.Name,
		RawValue:    desc.RawValue,
		AssocLabels: desc.AssocLabels,
		AssocValues: assocValues,
	}}
	return Obj(vm.registry.allocate(o, 48))
}
