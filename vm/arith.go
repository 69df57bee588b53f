package vm

import "swiftscript/compiler"

// binaryArith implements +,-,*,/,% across Int/Float/String (spec's Int
// arithmetic wraps modulo 2^63 and truncates division toward zero per §9's
// "Open question — numeric overflow"; division by zero raises a runtime
// error rather than following IEEE, the other documented choice that
// section leaves open).
func (vm *VM) binaryArith(f *CallFrame, op compiler.Opcode) error {
	r, l := vm.pop(), vm.pop()

	if op == compiler.OP_ADD && (isString(l) || isString(r)) {
		vm.push(vm.newString(l.ToDisplayString() + r.ToDisplayString()))
		return nil
	}
	if op == compiler.OP_ADD && isListVal(l) && isListVal(r) {
		combined := append(append([]Value{}, l.Obj.List...), r.Obj.List...)
		vm.push(vm.newList(combined))
		return nil
	}

	if l.Kind == KindInt && r.Kind == KindInt {
		switch op {
		case compiler.OP_ADD:
			vm.push(Int(l.Int + r.Int))
		case compiler.OP_SUBTRACT:
			vm.push(Int(l.Int - r.Int))
		case compiler.OP_MULTIPLY:
			vm.push(Int(l.Int * r.Int))
		case compiler.OP_DIVIDE:
			if r.Int == 0 {
				return vm.runtimeErr(f, "division by zero")
			}
			vm.push(Int(l.Int / r.Int))
		case compiler.OP_MODULO:
			if r.Int == 0 {
				return vm.runtimeErr(f, "division by zero")
			}
			vm.push(Int(l.Int % r.Int))
		}
		return nil
	}

	if isNumeric(l) && isNumeric(r) {
		lf, rf := l.AsFloat(), r.AsFloat()
		switch op {
		case compiler.OP_ADD:
			vm.push(Float(lf + rf))
		case compiler.OP_SUBTRACT:
			vm.push(Float(lf - rf))
		case compiler.OP_MULTIPLY:
			vm.push(Float(lf * rf))
		case compiler.OP_DIVIDE:
			if rf == 0 {
				return vm.runtimeErr(f, "division by zero")
			}
			vm.push(Float(lf / rf))
		case compiler.OP_MODULO:
			return vm.runtimeErr(f, "'%%' requires Int operands")
		}
		return nil
	}

	return vm.runtimeErr(f, "cannot apply operator to %s and %s", l.TypeName(), r.TypeName())
}

func (vm *VM) binaryBitwise(f *CallFrame, op compiler.Opcode) error {
	r, l := vm.pop(), vm.pop()
	if l.Kind != KindInt || r.Kind != KindInt {
		return vm.runtimeErr(f, "bitwise operators require Int operands, got %s and %s", l.TypeName(), r.TypeName())
	}
	switch op {
	case compiler.OP_BITWISE_AND:
		vm.push(Int(l.Int & r.Int))
	case compiler.OP_BITWISE_OR:
		vm.push(Int(l.Int | r.Int))
	case compiler.OP_BITWISE_XOR:
		vm.push(Int(l.Int ^ r.Int))
	case compiler.OP_LEFT_SHIFT:
		vm.push(Int(l.Int << uint(r.Int)))
	case compiler.OP_RIGHT_SHIFT:
		vm.push(Int(l.Int >> uint(r.Int)))
	}
	return nil
}

func (vm *VM) compare(f *CallFrame, op compiler.Opcode) error {
	r, l := vm.pop(), vm.pop()

	if isString(l) && isString(r) {
		ls, rs := l.Obj.Str, r.Obj.Str
		switch op {
		case compiler.OP_LESS:
			vm.push(Bool(ls < rs))
		case compiler.OP_GREATER:
			vm.push(Bool(ls > rs))
		case compiler.OP_LESS_EQUAL:
			vm.push(Bool(ls <= rs))
		case compiler.OP_GREATER_EQUAL:
			vm.push(Bool(ls >= rs))
		}
		return nil
	}

	if !isNumeric(l) || !isNumeric(r) {
		return vm.runtimeErr(f, "cannot compare %s and %s", l.TypeName(), r.TypeName())
	}
	lf, rf := l.AsFloat(), r.AsFloat()
	switch op {
	case compiler.OP_LESS:
		vm.push(Bool(lf < rf))
	case compiler.OP_GREATER:
		vm.push(Bool(lf > rf))
	case compiler.OP_LESS_EQUAL:
		vm.push(Bool(lf <= rf))
	case compiler.OP_GREATER_EQUAL:
		vm.push(Bool(lf >= rf))
	}
	return nil
}

func isNumeric(v Value) bool { return v.Kind == KindInt || v.Kind == KindFloat }
func isString(v Value) bool  { return v.Kind == KindObject && v.Obj != nil && v.Obj.Kind == ObjString }
func isListVal(v Value) bool { return v.Kind == KindObject && v.Obj != nil && v.Obj.Kind == ObjList }
