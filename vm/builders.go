package vm

import "swiftscript/compiler"

// newString allocates a fresh String object. Interning isn't attempted —
// the string pool (Assembly.Strings) already dedups source literals; values
// built at runtime (concatenation, to_string) get their own object.
func (vm *VM) newString(s string) Value {
	o := &Object{Kind: ObjString, Str: s}
	return Obj(vm.registry.allocate(o, len(s)+16))
}

func (vm *VM) newList(elems []Value) Value {
	o := &Object{Kind: ObjList, List: elems}
	return Obj(vm.registry.allocate(o, 24+len(elems)*8))
}

func (vm *VM) newMap(m *OrderedMap) Value {
	o := &Object{Kind: ObjMap, Map: m}
	return Obj(vm.registry.allocate(o, 24+m.Len()*16))
}

func (vm *VM) newTuple(elems []Value, labels []string) Value {
	o := &Object{Kind: ObjTuple, Tuple: elems, TupleLabels: labels}
	return Obj(vm.registry.allocate(o, 24+len(elems)*8))
}

// newRange represents `a...b` / `a..<b` as a Tuple object labeled
// lowerBound/upperBound/isInclusive: spec's Object variant list has no
// dedicated Range kind (ranges are consumed directly by the for-in
// compile pattern — spec §4.5.1), so a range reaching the VM as an
// ordinary expression value (e.g. `let r = 1...5`) reuses Tuple rather
// than introducing an eighteenth object kind.
func (vm *VM) newRange(start, end Value, inclusive bool) Value {
	return vm.newTuple([]Value{start, end, Bool(inclusive)}, []string{"lowerBound", "upperBound", "isInclusive"})
}

func (vm *VM) newClass(name string) Value {
	o := &Object{Kind: ObjClass, Class: &ClassObj{
		Name:             name,
		InstanceMethods:  map[string]*FunctionObj{},
		StaticMethods:    map[string]*FunctionObj{},
		StaticProperties: map[string]Value{},
		ComputedGetters:  map[string]*FunctionObj{},
		ComputedSetters:  map[string]*FunctionObj{},
		WillSetObservers: map[string]*FunctionObj{},
		DidSetObservers:  map[string]*FunctionObj{},
		DefaultFields:    map[string]Value{},
	}}
	return Obj(vm.registry.allocate(o, 64))
}

func (vm *VM) newStruct(name string) Value {
	o := &Object{Kind: ObjStruct, Struct: &StructObj{
		Name:             name,
		InstanceMethods:  map[string]*FunctionObj{},
		MutatingMethods:  map[string]bool{},
		StaticMethods:    map[string]*FunctionObj{},
		StaticProperties: map[string]Value{},
		ComputedGetters:  map[string]*FunctionObj{},
		ComputedSetters:  map[string]*FunctionObj{},
		DefaultFields:    map[string]Value{},
	}}
	return Obj(vm.registry.allocate(o, 64))
}

func (vm *VM) newEnum(name string) Value {
	o := &Object{Kind: ObjEnum, Enum: &EnumObj{
		Name:        name,
		Cases:       map[string]*EnumCaseDescriptor{},
		Methods:     map[string]*FunctionObj{},
		StaticProps: map[string]Value{},
	}}
	return Obj(vm.registry.allocate(o, 64))
}

func (vm *VM) newProtocol(desc compiler.ProtocolDescriptor) Value {
	o := &Object{Kind: ObjProtocol, Protocol: &ProtocolObj{
		Name:       desc.Name,
		Inherits:   desc.Inherits,
		Methods:    desc.MethodNames,
		Properties: desc.PropertyNames,
	}}
	return Obj(vm.registry.allocate(o, 48))
}

func (vm *VM) makeFunctionObject(fi int) *Object {
	proto := &vm.asm.Functions[fi]
	return &Object{Kind: ObjFunction, Fn: &FunctionObj{Proto: proto, Index: fi}}
}
