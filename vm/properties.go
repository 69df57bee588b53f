package vm

import "strings"

var listBuiltins = map[string]bool{"count": true, "isEmpty": true, "append": true}
var mapBuiltins = map[string]bool{"count": true, "isEmpty": true}

// getProperty implements spec §4.6's ten-branch GET_PROPERTY dispatch,
// one case per receiver kind.
func (vm *VM) getProperty(f *CallFrame, recv Value, name string) (Value, error) {
	if recv.Kind != KindObject || recv.Obj == nil {
		return Nil(), vm.runtimeErr(f, "cannot access property '%s' on a %s", name, recv.TypeName())
	}
	o := recv.Obj
	switch o.Kind {
	case ObjList:
		switch name {
		case "count":
			return Int(int64(len(o.List))), nil
		case "isEmpty":
			return Bool(len(o.List) == 0), nil
		case "append":
			return vm.newBoundBuiltin(recv, "append"), nil
		}
		return Nil(), vm.runtimeErr(f, "Array has no member '%s'", name)
	case ObjMap:
		switch name {
		case "count":
			return Int(int64(o.Map.Len())), nil
		case "isEmpty":
			return Bool(o.Map.Len() == 0), nil
		}
		v, ok := o.Map.Get(name)
		if !ok {
			return Nil(), nil
		}
		return v, nil
	case ObjInstance:
		if v, ok := o.Instance.Fields.Get(name); ok {
			return v, nil
		}
		if fn, owner := o.Instance.Class.lookupInstanceMethod(name); fn != nil {
			_ = owner
			return vm.newBoundMethod(recv, Obj(vm.registry.allocate(&Object{Kind: ObjFunction, Fn: fn}, 32)), false), nil
		}
		if getter, ok := lookupClassComputed(o.Instance.Class, name); ok {
			return vm.invokeAccessor(f, getter, recv, Value{})
		}
		return Nil(), nil
	case ObjClass:
		if fn, ok := o.Class.StaticMethods[name]; ok {
			return Obj(vm.registry.allocate(&Object{Kind: ObjFunction, Fn: fn}, 32)), nil
		}
		if v, ok := o.Class.StaticProperties[name]; ok {
			return v, nil
		}
		if fn, _ := o.Class.lookupInstanceMethod(name); fn != nil {
			return Obj(vm.registry.allocate(&Object{Kind: ObjFunction, Fn: fn}, 32)), nil
		}
		return Nil(), vm.runtimeErr(f, "%s has no member '%s'", o.Class.Name, name)
	case ObjStruct:
		if fn, ok := o.Struct.StaticMethods[name]; ok {
			return Obj(vm.registry.allocate(&Object{Kind: ObjFunction, Fn: fn}, 32)), nil
		}
		if v, ok := o.Struct.StaticProperties[name]; ok {
			return v, nil
		}
		if fn, ok := o.Struct.InstanceMethods[name]; ok {
			return Obj(vm.registry.allocate(&Object{Kind: ObjFunction, Fn: fn}, 32)), nil
		}
		return Nil(), vm.runtimeErr(f, "%s has no member '%s'", o.Struct.Name, name)
	case ObjStructInstance:
		if v, ok := o.StructInstance.Fields.Get(name); ok {
			return v, nil
		}
		st := o.StructInstance.Struct
		if fn, ok := st.InstanceMethods[name]; ok {
			mutating := st.MutatingMethods[name]
			return vm.newBoundMethod(recv, Obj(vm.registry.allocate(&Object{Kind: ObjFunction, Fn: fn}, 32)), mutating), nil
		}
		if getter, ok := st.ComputedGetters[name]; ok {
			return vm.invokeAccessor(f, getter, recv, Value{})
		}
		return Nil(), vm.runtimeErr(f, "%s has no member '%s'", st.Name, name)
	case ObjEnum:
		if desc, ok := o.Enum.Cases[name]; ok {
			return vm.newEnumCaseValue(o.Enum, desc, nil), nil
		}
		if fn, ok := o.Enum.Methods[name]; ok {
			return Obj(vm.registry.allocate(&Object{Kind: ObjFunction, Fn: fn}, 32)), nil
		}
		if v, ok := o.Enum.StaticProps[name]; ok {
			return v, nil
		}
		return Nil(), vm.runtimeErr(f, "%s has no case or member '%s'", o.Enum.Name, name)
	case ObjEnumCase:
		if name == "rawValue" {
			return o.EnumCase.RawValue, nil
		}
		for i, l := range o.EnumCase.AssocLabels {
			if l == name {
				return o.EnumCase.AssocValues[i], nil
			}
		}
		if fn, ok := o.EnumCase.Enum.Methods[name]; ok {
			return vm.newBoundMethod(recv, Obj(vm.registry.allocate(&Object{Kind: ObjFunction, Fn: fn}, 32)), false), nil
		}
		return Nil(), vm.runtimeErr(f, "enum case has no member '%s'", name)
	case ObjTuple:
		for i, l := range o.TupleLabels {
			if l == name {
				return o.Tuple[i], nil
			}
		}
		return Nil(), vm.runtimeErr(f, "tuple has no label '%s'", name)
	case ObjNative:
		if o.Native.GetterFunc != nil {
			if v, ok := o.Native.GetterFunc(name); ok {
				return v, nil
			}
		}
		return Nil(), vm.runtimeErr(f, "%s has no member '%s'", o.Native.TypeName_, name)
	}
	return Nil(), vm.runtimeErr(f, "cannot access property '%s' on a %s", name, o.TypeName())
}

func lookupClassComputed(c *ClassObj, name string) (*FunctionObj, bool) {
	for cur := c; cur != nil; cur = cur.Super {
		if fn, ok := cur.ComputedGetters[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// setProperty: fields only, with willSet/didSet observer and computed-
// setter dispatch (spec §4.6 SET_PROPERTY).
func (vm *VM) setProperty(f *CallFrame, recv Value, name string, v Value) error {
	if recv.Kind != KindObject || recv.Obj == nil {
		return vm.runtimeErr(f, "cannot set property '%s' on a %s", name, recv.TypeName())
	}
	o := recv.Obj
	switch o.Kind {
	case ObjInstance:
		if setter, ok := lookupClassSetter(o.Instance.Class, name); ok {
			_, err := vm.invokeAccessor(f, setter, recv, v)
			return err
		}
		if will, ok := lookupClassObserver(o.Instance.Class.WillSetObservers, o.Instance.Class, name); ok {
			if _, err := vm.invokeAccessor(f, will, recv, v); err != nil {
				return err
			}
		}
		old, _ := o.Instance.Fields.Get(name)
		vm.releaseIfStrong(old)
		vm.retainIfStrong(v)
		o.Instance.Fields.Set(name, v)
		if did, ok := lookupClassObserver(o.Instance.Class.DidSetObservers, o.Instance.Class, name); ok {
			if _, err := vm.invokeAccessor(f, did, recv, old); err != nil {
				return err
			}
		}
		return nil
	case ObjStructInstance:
		st := o.StructInstance.Struct
		if setter, ok := st.ComputedSetters[name]; ok {
			_, err := vm.invokeAccessor(f, setter, recv, v)
			return err
		}
		old, _ := o.StructInstance.Fields.Get(name)
		vm.releaseIfStrong(old)
		vm.retainIfStrong(v)
		o.StructInstance.Fields.Set(name, v)
		return nil
	case ObjClass:
		o.Class.StaticProperties[name] = v
		return nil
	case ObjStruct:
		o.Struct.StaticProperties[name] = v
		return nil
	}
	return vm.runtimeErr(f, "cannot set property '%s' on a %s", name, o.TypeName())
}

func lookupClassSetter(c *ClassObj, name string) (*FunctionObj, bool) {
	for cur := c; cur != nil; cur = cur.Super {
		if fn, ok := cur.ComputedSetters[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

func lookupClassObserver(m map[string]*FunctionObj, c *ClassObj, name string) (*FunctionObj, bool) {
	if fn, ok := m[name]; ok {
		return fn, true
	}
	return nil, false
}

// resolveSuper looks up method in the parent of the class that defines the
// currently executing method (recovered from the "Type::method" function-
// prototype name convention compileMethod uses), then binds it to the
// current self (spec's SUPER <method>).
func (vm *VM) resolveSuper(f *CallFrame, method string) error {
	parts := strings.SplitN(f.FunctionName, "::", 2)
	if len(parts) != 2 {
		return vm.runtimeErr(f, "'super' used outside a method")
	}
	typeName := parts[0]
	classVal, ok := vm.globals[typeName]
	if !ok || classVal.Kind != KindObject || classVal.Obj.Kind != ObjClass {
		return vm.runtimeErr(f, "'super' used outside a class method")
	}
	super := classVal.Obj.Class.Super
	if super == nil {
		return vm.runtimeErr(f, "'%s' has no superclass", typeName)
	}
	fn, _ := super.lookupInstanceMethod(method)
	if fn == nil {
		return vm.runtimeErr(f, "superclass has no method '%s'", method)
	}
	self := vm.stack[f.StackBase]
	vm.push(vm.newBoundMethod(self, Obj(vm.registry.allocate(&Object{Kind: ObjFunction, Fn: fn}, 32)), false))
	return nil
}

func (vm *VM) newBoundMethod(recv, method Value, mutating bool) Value {
	o := &Object{Kind: ObjBoundMethod, BoundMethod: &BoundMethodObj{Receiver: recv, Method: method, Mutating: mutating}}
	return Obj(vm.registry.allocate(o, 32))
}

func (vm *VM) newBoundBuiltin(recv Value, name string) Value {
	o := &Object{Kind: ObjBoundMethod, BoundMethod: &BoundMethodObj{Receiver: recv, IsBuiltin: true, Builtin: name}}
	return Obj(vm.registry.allocate(o, 32))
}
