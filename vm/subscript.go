package vm

func (vm *VM) getSubscript(f *CallFrame) error {
	index := vm.pop()
	recv := vm.pop()
	if recv.Kind != KindObject || recv.Obj == nil {
		return vm.runtimeErr(f, "cannot subscript a %s", recv.TypeName())
	}
	switch recv.Obj.Kind {
	case ObjList:
		if index.Kind != KindInt {
			return vm.runtimeErr(f, "array subscript requires an Int index")
		}
		i := int(index.Int)
		if i < 0 || i >= len(recv.Obj.List) {
			return vm.runtimeErr(f, "array index %d out of range", i)
		}
		vm.push(recv.Obj.List[i])
	case ObjMap:
		key := index.ToDisplayString()
		v, ok := recv.Obj.Map.Get(key)
		if !ok {
			vm.push(Nil())
			return nil
		}
		vm.push(v)
	default:
		return vm.runtimeErr(f, "cannot subscript a %s", recv.TypeName())
	}
	return nil
}

func (vm *VM) setSubscript(f *CallFrame) error {
	value := vm.pop()
	index := vm.pop()
	recv := vm.pop()
	value = vm.copyForStore(value)
	if recv.Kind != KindObject || recv.Obj == nil {
		return vm.runtimeErr(f, "cannot subscript a %s", recv.TypeName())
	}
	switch recv.Obj.Kind {
	case ObjList:
		if index.Kind != KindInt {
			return vm.runtimeErr(f, "array subscript requires an Int index")
		}
		i := int(index.Int)
		if i < 0 || i >= len(recv.Obj.List) {
			return vm.runtimeErr(f, "array index %d out of range", i)
		}
		vm.releaseIfStrong(recv.Obj.List[i])
		vm.retainIfStrong(value)
		recv.Obj.List[i] = value
	case ObjMap:
		key := index.ToDisplayString()
		if old, ok := recv.Obj.Map.Get(key); ok {
			vm.releaseIfStrong(old)
		}
		vm.retainIfStrong(value)
		recv.Obj.Map.Set(key, value)
	default:
		return vm.runtimeErr(f, "cannot subscript a %s", recv.TypeName())
	}
	return nil
}

func (vm *VM) retainIfStrong(v Value) {
	if v.Kind == KindObject && v.RefKind == RefStrong {
		vm.registry.retain(v.Obj)
	}
}

func (vm *VM) releaseIfStrong(v Value) {
	if v.Kind == KindObject && v.RefKind == RefStrong {
		vm.registry.release(v.Obj, vm)
	}
}
