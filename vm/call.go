package vm

import "swiftscript/compiler"

// pushFrame installs a new CallFrame for proto, laying down the receiver
// (if any) and bound argument values as the frame's locals starting at the
// current stack top — the "StackBase" spec §4.6 describes.
func (vm *VM) pushFrame(proto *compiler.FunctionPrototype, closure *ClosureObj, receiver Value, hasReceiver, mutating bool, bound []Value) {
	base := len(vm.stack)
	if hasReceiver {
		vm.push(receiver)
	}
	for _, v := range bound {
		vm.push(v)
	}
	f := &CallFrame{
		StackBase:     base,
		Code:          proto.Code,
		LineInfo:      proto.LineInfo,
		FunctionName:  proto.Name,
		Closure:       closure,
		IsInitializer: proto.IsInitializer,
		IsMutating:    mutating,
		HasReceiver:   hasReceiver,
	}
	if hasReceiver {
		f.ReceiverIndex = base
	}
	vm.frames = append(vm.frames, f)
}

// bindArgs reorders/completes a call's arguments against proto's parameter
// list: positional calls fill left-to-right, labeled calls (OP_CALL_NAMED)
// match each argument to the first unfilled parameter sharing its label,
// and anything still unfilled falls back to the parameter's compiled
// default (spec §4.5.1 default-parameter materialization).
func (vm *VM) bindArgs(proto *compiler.FunctionPrototype, args []Value, labels []string, line int) ([]Value, error) {
	n := len(proto.ParamNames)
	bound := make([]Value, n)
	filled := make([]bool, n)

	if labels == nil {
		for i := 0; i < n && i < len(args); i++ {
			bound[i] = args[i]
			filled[i] = true
		}
	} else {
		nextPositional := 0
		for ai, a := range args {
			lbl := ""
			if ai < len(labels) {
				lbl = labels[ai]
			}
			if lbl == "" {
				for nextPositional < n && filled[nextPositional] {
					nextPositional++
				}
				if nextPositional < n {
					bound[nextPositional] = a
					filled[nextPositional] = true
				}
				continue
			}
			for pi, pl := range proto.ParamLabels {
				if pl == lbl && !filled[pi] {
					bound[pi] = a
					filled[pi] = true
					break
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		if filled[i] {
			continue
		}
		d := proto.ParamDefaults[i]
		if !d.HasValue {
			return nil, newRuntimeError(line, "missing argument for parameter '%s'", proto.ParamNames[i])
		}
		bound[i] = vm.defaultToValue(d)
	}
	return bound, nil
}

func (vm *VM) defaultToValue(d compiler.DefaultValue) Value {
	switch d.Kind {
	case 'i':
		return Int(d.Int)
	case 'f':
		return Float(d.Float)
	case 'b':
		return Bool(d.Bool)
	case 's':
		return vm.newString(d.Str)
	}
	return Nil()
}

// call dispatches OP_CALL/OP_CALL_NAMED by callee kind (spec §4.6's "CALL
// dispatch per callee kind"): free function, closure, bound method
// (including builtin receiver methods), type object (construction), or a
// bare enum case being supplied its associated values.
func (vm *VM) call(callee Value, args []Value, labels []string, line int) error {
	if callee.Kind != KindObject || callee.Obj == nil {
		return newRuntimeError(line, "cannot call a value of type %s", callee.TypeName())
	}
	switch callee.Obj.Kind {
	case ObjFunction:
		proto := callee.Obj.Fn.Proto
		bound, err := vm.bindArgs(proto, args, labels, line)
		if err != nil {
			return err
		}
		vm.pushFrame(proto, nil, Value{}, false, false, bound)
		return nil
	case ObjClosure:
		proto := callee.Obj.Closure.Fn.Proto
		bound, err := vm.bindArgs(proto, args, labels, line)
		if err != nil {
			return err
		}
		vm.pushFrame(proto, callee.Obj.Closure, Value{}, false, false, bound)
		return nil
	case ObjBoundMethod:
		return vm.callBound(callee.Obj.BoundMethod, args, labels, line)
	case ObjClass:
		return vm.construct(callee.Obj.Class, args, labels, line)
	case ObjStruct:
		return vm.constructStruct(callee.Obj.Struct, args, labels, line)
	case ObjEnumCase:
		return vm.constructEnumCase(callee.Obj.EnumCase, args, line)
	}
	return newRuntimeError(line, "cannot call a value of type %s", callee.Obj.TypeName())
}

func (vm *VM) callBound(bm *BoundMethodObj, args []Value, labels []string, line int) error {
	if bm.IsBuiltin {
		return vm.callBuiltin(bm.Receiver, bm.Builtin, args, line)
	}
	if bm.Method.Kind != KindObject || bm.Method.Obj == nil {
		return newRuntimeError(line, "malformed bound method")
	}
	var proto *compiler.FunctionPrototype
	var closure *ClosureObj
	switch bm.Method.Obj.Kind {
	case ObjFunction:
		proto = bm.Method.Obj.Fn.Proto
	case ObjClosure:
		proto = bm.Method.Obj.Closure.Fn.Proto
		closure = bm.Method.Obj.Closure
	default:
		return newRuntimeError(line, "malformed bound method")
	}
	bound, err := vm.bindArgs(proto, args, labels, line)
	if err != nil {
		return err
	}
	receiver := bm.Receiver
	if !bm.Mutating {
		// spec §3: `self` inside a non-mutating struct method is an
		// independent copy, so the receiver is cloned at the call
		// boundary rather than shared with the caller's value.
		receiver = vm.copyForStore(receiver)
	}
	vm.pushFrame(proto, closure, receiver, true, bm.Mutating, bound)
	return nil
}

// callBuiltin runs a receiver-method that has no compiled body (list
// mutation helpers; spec §4.6's "GET_PROPERTY on a List yields a bound
// builtin method"). Builtins run synchronously and push their result
// directly, since there's no bytecode frame to RETURN from.
func (vm *VM) callBuiltin(recv Value, name string, args []Value, line int) error {
	if recv.Kind != KindObject || recv.Obj == nil || recv.Obj.Kind != ObjList {
		return newRuntimeError(line, "'%s' is not an Array method", name)
	}
	switch name {
	case "append":
		if len(args) != 1 {
			return newRuntimeError(line, "append expects 1 argument")
		}
		v := vm.copyForStore(args[0])
		vm.retainIfStrong(v)
		recv.Obj.List = append(recv.Obj.List, v)
		vm.push(Nil())
		return nil
	}
	return newRuntimeError(line, "unknown Array method '%s'", name)
}

// construct builds a fresh class instance, seeding its fields from the
// class hierarchy's default values (base class first, so a subclass's
// defaults take precedence), then runs `init` if one is defined.
func (vm *VM) construct(cls *ClassObj, args []Value, labels []string, line int) error {
	inst := &Object{Kind: ObjInstance, Instance: &InstanceObj{Class: cls, Fields: NewOrderedMap()}}
	var chain []*ClassObj
	for c := cls; c != nil; c = c.Super {
		chain = append(chain, c)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		for _, k := range c.DefaultFieldOrder {
			inst.Instance.Fields.Set(k, c.DefaultFields[k])
		}
	}
	instVal := Obj(vm.registry.allocate(inst, 64))

	fn, _ := cls.lookupInstanceMethod("init")
	if fn == nil {
		vm.push(instVal)
		return nil
	}
	bound, err := vm.bindArgs(fn.Proto, args, labels, line)
	if err != nil {
		return err
	}
	vm.pushFrame(fn.Proto, nil, instVal, true, true, bound)
	return nil
}

func (vm *VM) constructStruct(st *StructObj, args []Value, labels []string, line int) error {
	inst := &Object{Kind: ObjStructInstance, StructInstance: &StructInstanceObj{Struct: st, Fields: NewOrderedMap()}}
	for _, k := range st.DefaultFieldOrder {
		inst.StructInstance.Fields.Set(k, st.DefaultFields[k])
	}
	instVal := Obj(vm.registry.allocate(inst, 64))

	fn, ok := st.InstanceMethods["init"]
	if !ok {
		vm.push(instVal)
		return nil
	}
	bound, err := vm.bindArgs(fn.Proto, args, labels, line)
	if err != nil {
		return err
	}
	vm.pushFrame(fn.Proto, nil, instVal, true, true, bound)
	return nil
}

// constructEnumCase supplies associated values to a bare case reference
// (itself produced by GET_PROPERTY on an Enum with no values yet attached),
// yielding the fully-formed case value.
func (vm *VM) constructEnumCase(ec *EnumCaseObj, args []Value, line int) error {
	if len(args) != len(ec.AssocLabels) {
		return newRuntimeError(line, "case '%s' expects %d associated value(s), got %d", ec.CaseName, len(ec.AssocLabels), len(args))
	}
	vals := make([]Value, len(args))
	copy(vals, args)
	o := &Object{Kind: ObjEnumCase, EnumCase: &EnumCaseObj{
		Enum: ec.Enum, CaseName: ec.CaseName, RawValue: ec.RawValue,
		AssocLabels: ec.AssocLabels, AssocValues: vals,
	}}
	vm.push(Obj(vm.registry.allocate(o, 48)))
	return nil
}

// doReturn unwinds the current frame: an initializer's implicit return
// value is its receiver (spec: "RETURN from an initializer yields self"),
// not whatever its body left on the stack, since SwiftScript inits have no
// explicit return statement.
func (vm *VM) doReturn(floor int) error {
	f := vm.currentFrame()
	retVal := vm.pop()
	if f.IsInitializer {
		retVal = vm.stack[f.ReceiverIndex]
	}
	vm.closeUpvalues(f.StackBase)
	for len(vm.stack) > f.StackBase {
		vm.pop()
	}
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.push(retVal)
	return nil
}

// makeClosure builds a ClosureObj, resolving each upvalue either to an
// already-open Upvalue for a live enclosing-frame stack slot (sharing it
// with any sibling closure capturing the same local) or to the enclosing
// closure's own already-resolved upvalue (spec §4.5.1 upvalue capture).
func (vm *VM) makeClosure(f *CallFrame) error {
	fi := vm.readShort(f)
	nUp := vm.readShort(f)
	proto := &vm.asm.Functions[fi]
	fn := &FunctionObj{Proto: proto, Index: fi}
	upvalues := make([]*Object, nUp)
	for i := 0; i < nUp; i++ {
		isLocal := vm.readByte(f) != 0
		index := vm.readShort(f)
		if isLocal {
			slot := f.StackBase + index
			upvalues[i] = vm.captureUpvalue(slot)
		} else {
			if f.Closure == nil || index >= len(f.Closure.Upvalues) {
				return vm.runtimeErr(f, "invalid upvalue reference")
			}
			upvalues[i] = f.Closure.Upvalues[index]
		}
	}
	closure := &ClosureObj{Fn: fn, Upvalues: upvalues}
	vm.push(Obj(vm.registry.allocate(&Object{Kind: ObjClosure, Closure: closure}, 48)))
	return nil
}

func (vm *VM) captureUpvalue(slot int) *Object {
	if existing, ok := vm.openUpvalues[slot]; ok {
		return existing
	}
	up := &UpvalueObj{Location: &vm.stack[slot]}
	obj := vm.registry.allocate(&Object{Kind: ObjUpvalue, Upvalue: up}, 32)
	vm.openUpvalues[slot] = obj
	return obj
}

// closeUpvalues closes every still-open upvalue at or above the given
// absolute stack slot, copying its referent off the stack so it survives
// the frame being popped (spec's "open while the stack slot is live").
func (vm *VM) closeUpvalues(from int) {
	for slot, obj := range vm.openUpvalues {
		if slot < from {
			continue
		}
		obj.Upvalue.Closed = *obj.Upvalue.Location
		obj.Upvalue.IsClosed = true
		obj.Upvalue.Location = nil
		delete(vm.openUpvalues, slot)
	}
}

// invokeAccessor runs a computed-property getter/setter or a willSet/
// didSet observer body to completion and returns its produced value. These
// are synchronous, nested calls: spec's "CALL within a CALL" for property
// access, which never appears as its own opcode.
func (vm *VM) invokeAccessor(f *CallFrame, fn *FunctionObj, recv Value, arg Value) (Value, error) {
	var bound []Value
	if len(fn.Proto.ParamNames) > 0 {
		bound = []Value{arg}
	}
	vm.pushFrame(fn.Proto, nil, recv, true, false, bound)
	floor := len(vm.frames) - 1
	if err := vm.loop(floor); err != nil {
		return Nil(), err
	}
	return vm.pop(), nil
}

// runDeinit invokes a dying class instance's deinit method, if it declared
// one (spec §5's "finalization invokes deinit"). Called from the registry
// with the object already marked dead, so push/pop's retain/release calls
// on it are safely no-ops (rc.go guards every mutation on IsDead).
func (vm *VM) runDeinit(o *Object) {
	if o.Instance == nil {
		return
	}
	fn, _ := o.Instance.Class.lookupInstanceMethod("deinit")
	if fn == nil {
		return
	}
	recv := Value{Kind: KindObject, Obj: o, RefKind: RefStrong}
	vm.pushFrame(fn.Proto, nil, recv, true, false, nil)
	floor := len(vm.frames) - 1
	if err := vm.loop(floor); err != nil {
		return
	}
	vm.pop()
}
