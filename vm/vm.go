package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"swiftscript/compiler"
)

// VM is a stack-based bytecode interpreter for one compiled Assembly (spec
// §4.6). It owns the value stack, the call-frame stack, the globals table,
// and the intrusive object registry.
type VM struct {
	asm    *compiler.Assembly
	stack  []Value
	frames []*CallFrame

	globals map[string]Value

	registry   *Registry
	collecting bool

	// openUpvalues maps an absolute stack slot to the still-open Upvalue
	// object pointing at it, so repeated captures of the same local share
	// one Upvalue (spec's "open while the stack slot is live").
	openUpvalues map[int]*Object

	out    io.Writer
	in     *bufio.Reader
	stats  Stats
}

// New creates a VM ready to execute asm. out defaults to os.Stdout and in
// to os.Stdin when nil, matching the embedding contract's "print output is
// redirectable via a callback; default is process stdout" (spec §4.6/§6).
func New(asm *compiler.Assembly, out io.Writer, in io.Reader) *VM {
	if out == nil {
		out = os.Stdout
	}
	if in == nil {
		in = os.Stdin
	}
	return &VM{
		asm:          asm,
		globals:      map[string]Value{},
		registry:     newRegistry(),
		openUpvalues: map[int]*Object{},
		out:          out,
		in:           bufio.NewReader(in),
	}
}

// Run executes the VM's Assembly top-level code, then — if it names an
// entry function (spec §4.5.4's `main` resolution) — calls it. Every live
// object is finalized via a final drain before returning (spec §5: "the
// top-level execute(), which performs a final run_cleanup() before
// returning").
func (vm *VM) Run() error {
	if err := vm.RunAssembly(vm.asm); err != nil {
		vm.registry.drainAll(vm)
		return err
	}
	vm.registry.drainAll(vm)
	return nil
}

// RunAssembly executes one compiled chunk against this VM's existing
// globals and registry, without draining afterward — what the REPL uses
// to run each buffered line while keeping previously declared globals (and
// the objects they reference) alive across chunks. A closure captured in
// one chunk and invoked from a later one still runs its own saved code
// (CallFrame.Code is a direct copy), but any OP_STRING/OP_CONSTANT inside
// it resolves against whichever Assembly is current when it runs, since
// the VM holds only one `asm` pointer at a time — the same recompile-the-
// new-input-each-line tradeoff the REPL's buffering already makes.
func (vm *VM) RunAssembly(asm *compiler.Assembly) error {
	vm.asm = asm
	vm.frames = append(vm.frames, &CallFrame{
		Code:         asm.Code,
		LineInfo:     asm.LineInfo,
		BodyIndex:    -1,
		FunctionName: "<script>",
	})
	floor := len(vm.frames) - 1
	if err := vm.loop(floor); err != nil {
		return err
	}

	if asm.EntryFunction >= 0 && asm.EntryFunction < len(asm.Functions) {
		fi := asm.EntryFunction
		fn := vm.makeFunctionObject(fi)
		callee := Obj(vm.registry.allocate(fn, 32))
		callFloor := len(vm.frames)
		if err := vm.call(callee, nil, nil, 0); err != nil {
			return err
		}
		if err := vm.loop(callFloor); err != nil {
			return err
		}
	}
	vm.registry.maybeCleanup(vm)
	return nil
}

func (vm *VM) currentFrame() *CallFrame { return vm.frames[len(vm.frames)-1] }

func (vm *VM) readByte(f *CallFrame) int {
	b := int(f.Code[f.IP])
	f.IP++
	return b
}

func (vm *VM) readShort(f *CallFrame) int {
	v := compiler.ReadOperand(f.Code, f.IP, 2)
	f.IP += 2
	return v
}

func (vm *VM) currentLine(f *CallFrame) int {
	if f.IP >= 0 && f.IP < len(f.LineInfo) {
		return f.LineInfo[f.IP]
	}
	return 0
}

// push retains a strong object reference as it enters the stack (spec
// §4.6: "push(Value) retains if strong ref to object").
func (vm *VM) push(v Value) {
	if v.Kind == KindObject && v.RefKind == RefStrong {
		vm.registry.retain(v.Obj)
	}
	vm.stack = append(vm.stack, v)
}

// pop releases a strong object reference as it leaves the stack.
func (vm *VM) pop() Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	if v.Kind == KindObject && v.RefKind == RefStrong {
		vm.registry.release(v.Obj, vm)
	}
	vm.registry.maybeCleanup(vm)
	return v
}

// popN returns the top n values without individually retaining/releasing
// (they're being handed straight to a callee's locals, not discarded).
func (vm *VM) popN(n int) []Value {
	base := len(vm.stack) - n
	out := make([]Value, n)
	copy(out, vm.stack[base:])
	vm.stack = vm.stack[:base]
	return out
}

func (vm *VM) peek(offset int) Value {
	return vm.stack[len(vm.stack)-1-offset]
}

func (vm *VM) runtimeErr(f *CallFrame, format string, args ...any) error {
	return newRuntimeError(vm.currentLine(f), format, args...)
}

// loop runs the decode/dispatch cycle until the frame stack depth drops to
// floor (a RETURN unwound back past the frame that was active when loop
// was entered) or OP_HALT is reached (top-level termination).
func (vm *VM) loop(floor int) error {
	for len(vm.frames) > floor {
		f := vm.currentFrame()
		if f.IP >= len(f.Code) {
			return nil
		}
		op := compiler.Opcode(f.Code[f.IP])
		f.IP++

		switch op {
		case compiler.OP_NIL:
			vm.push(Nil())
		case compiler.OP_TRUE:
			vm.push(Bool(true))
		case compiler.OP_FALSE:
			vm.push(Bool(false))
		case compiler.OP_CONSTANT:
			ci := vm.readShort(f)
			vm.push(constantToValue(vm.asm.Constants[ci]))
		case compiler.OP_STRING:
			si := vm.readShort(f)
			vm.push(vm.newString(vm.asm.Strings[si]))
		case compiler.OP_POP:
			vm.pop()
		case compiler.OP_DUP:
			vm.push(vm.peek(0))
		case compiler.OP_COPY_VALUE:
			top := vm.pop()
			vm.push(vm.copyForStore(top))

		case compiler.OP_ADD, compiler.OP_SUBTRACT, compiler.OP_MULTIPLY, compiler.OP_DIVIDE, compiler.OP_MODULO:
			if err := vm.binaryArith(f, op); err != nil {
				return err
			}
		case compiler.OP_NEGATE:
			v := vm.pop()
			switch v.Kind {
			case KindInt:
				vm.push(Int(-v.Int))
			case KindFloat:
				vm.push(Float(-v.Float))
			default:
				return vm.runtimeErr(f, "cannot negate a %s", v.TypeName())
			}
		case compiler.OP_NOT:
			v := vm.pop()
			vm.push(Bool(!v.IsTruthy()))
		case compiler.OP_AND:
			r, l := vm.pop(), vm.pop()
			vm.push(Bool(l.IsTruthy() && r.IsTruthy()))
		case compiler.OP_OR:
			r, l := vm.pop(), vm.pop()
			vm.push(Bool(l.IsTruthy() || r.IsTruthy()))
		case compiler.OP_BITWISE_AND, compiler.OP_BITWISE_OR, compiler.OP_BITWISE_XOR, compiler.OP_LEFT_SHIFT, compiler.OP_RIGHT_SHIFT:
			if err := vm.binaryBitwise(f, op); err != nil {
				return err
			}
		case compiler.OP_BITWISE_NOT:
			v := vm.pop()
			if v.Kind != KindInt {
				return vm.runtimeErr(f, "bitwise not requires an Int, got %s", v.TypeName())
			}
			vm.push(Int(^v.Int))
		case compiler.OP_EQUAL:
			r, l := vm.pop(), vm.pop()
			vm.push(Bool(l.Equal(r)))
		case compiler.OP_NOT_EQUAL:
			r, l := vm.pop(), vm.pop()
			vm.push(Bool(!l.Equal(r)))
		case compiler.OP_LESS, compiler.OP_GREATER, compiler.OP_LESS_EQUAL, compiler.OP_GREATER_EQUAL:
			if err := vm.compare(f, op); err != nil {
				return err
			}

		case compiler.OP_GET_LOCAL:
			slot := vm.readShort(f)
			vm.push(vm.stack[f.StackBase+slot])
		case compiler.OP_SET_LOCAL:
			slot := vm.readShort(f)
			v := vm.copyForStore(vm.peek(0))
			vm.assignSlot(f.StackBase+slot, v)
		case compiler.OP_GET_GLOBAL:
			si := vm.readShort(f)
			name := vm.asm.Strings[si]
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeErr(f, "undefined global '%s'", name)
			}
			vm.push(v)
		case compiler.OP_SET_GLOBAL:
			si := vm.readShort(f)
			name := vm.asm.Strings[si]
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeErr(f, "undefined global '%s'", name)
			}
			vm.setGlobal(name, vm.copyForStore(vm.peek(0)))
		case compiler.OP_DEFINE_GLOBAL:
			si := vm.readShort(f)
			vm.setGlobal(vm.asm.Strings[si], vm.copyForStore(vm.pop()))
		case compiler.OP_GET_UPVALUE:
			ui := vm.readShort(f)
			vm.push(f.Closure.Upvalues[ui].Upvalue.Get())
		case compiler.OP_SET_UPVALUE:
			ui := vm.readShort(f)
			f.Closure.Upvalues[ui].Upvalue.Set(vm.copyForStore(vm.peek(0)))
		case compiler.OP_CLOSE_UPVALUE:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case compiler.OP_JUMP:
			target := vm.readShort(f)
			f.IP = target
		case compiler.OP_JUMP_IF_FALSE:
			target := vm.readShort(f)
			if !vm.peek(0).IsTruthy() {
				f.IP = target
			}
		case compiler.OP_JUMP_IF_NIL:
			target := vm.readShort(f)
			if vm.peek(0).IsNil() {
				f.IP = target
			}
		case compiler.OP_LOOP:
			offset := vm.readShort(f)
			f.IP -= offset
		case compiler.OP_RETURN:
			if err := vm.doReturn(floor); err != nil {
				return err
			}
			continue
		case compiler.OP_HALT:
			return nil

		case compiler.OP_CALL:
			argc := vm.readByte(f)
			args := vm.popN(argc)
			callee := vm.pop()
			if err := vm.call(callee, args, nil, vm.currentLine(f)); err != nil {
				return err
			}
		case compiler.OP_CALL_NAMED:
			argc := vm.readByte(f)
			labels := make([]string, argc)
			for i := 0; i < argc; i++ {
				li := vm.readShort(f)
				if li != compiler.NoLabel {
					labels[i] = vm.asm.Strings[li]
				}
			}
			args := vm.popN(argc)
			callee := vm.pop()
			if err := vm.call(callee, args, labels, vm.currentLine(f)); err != nil {
				return err
			}

		case compiler.OP_RANGE_INCLUSIVE, compiler.OP_RANGE_EXCLUSIVE:
			end, start := vm.pop(), vm.pop()
			vm.push(vm.newRange(start, end, op == compiler.OP_RANGE_INCLUSIVE))
		case compiler.OP_ARRAY:
			n := vm.readShort(f)
			elems := vm.popN(n)
			vm.push(vm.newList(elems))
		case compiler.OP_DICT:
			n := vm.readShort(f)
			entries := vm.popN(n * 2)
			m := NewOrderedMap()
			for i := 0; i < n; i++ {
				k, v := entries[i*2], entries[i*2+1]
				m.Set(k.ToDisplayString(), v)
			}
			vm.push(vm.newMap(m))
		case compiler.OP_TUPLE:
			n := vm.readShort(f)
			labels := make([]string, n)
			for i := 0; i < n; i++ {
				li := vm.readShort(f)
				if li != compiler.NoLabel {
					labels[i] = vm.asm.Strings[li]
				}
			}
			elems := vm.popN(n)
			vm.push(vm.newTuple(elems, labels))
		case compiler.OP_GET_SUBSCRIPT:
			if err := vm.getSubscript(f); err != nil {
				return err
			}
		case compiler.OP_SET_SUBSCRIPT:
			if err := vm.setSubscript(f); err != nil {
				return err
			}
		case compiler.OP_GET_TUPLE_INDEX:
			i := vm.readShort(f)
			t := vm.pop()
			if t.Kind != KindObject || t.Obj.Kind != ObjTuple || i >= len(t.Obj.Tuple) {
				return vm.runtimeErr(f, "tuple index %d out of range", i)
			}
			vm.push(t.Obj.Tuple[i])
		case compiler.OP_GET_TUPLE_LABEL:
			si := vm.readShort(f)
			name := vm.asm.Strings[si]
			t := vm.pop()
			if t.Kind != KindObject || t.Obj.Kind != ObjTuple {
				return vm.runtimeErr(f, "property access on non-tuple")
			}
			found := false
			for i, l := range t.Obj.TupleLabels {
				if l == name {
					vm.push(t.Obj.Tuple[i])
					found = true
					break
				}
			}
			if !found {
				return vm.runtimeErr(f, "tuple has no label '%s'", name)
			}

		case compiler.OP_UNWRAP:
			v := vm.pop()
			if v.IsNil() {
				return vm.runtimeErr(f, "unexpectedly found nil while unwrapping an Optional value")
			}
			vm.push(v)
		case compiler.OP_OPTIONAL_CHAIN:
			si := vm.readShort(f)
			obj := vm.pop()
			if obj.IsNil() {
				vm.push(Nil())
				continue
			}
			v, err := vm.getProperty(f, obj, vm.asm.Strings[si])
			if err != nil {
				return err
			}
			vm.push(v)
		case compiler.OP_NIL_COALESCE:
			fallback, v := vm.pop(), vm.pop()
			if v.IsNil() {
				vm.push(fallback)
			} else {
				vm.push(v)
			}

		case compiler.OP_CLASS:
			si := vm.readShort(f)
			vm.push(vm.newClass(vm.asm.Strings[si]))
		case compiler.OP_INHERIT:
			sub := vm.pop()
			super := vm.pop()
			if super.Kind != KindObject || super.Obj.Kind != ObjClass {
				return vm.runtimeErr(f, "superclass must be a class")
			}
			sub.Obj.Class.Super = super.Obj.Class
			vm.push(sub)
		case compiler.OP_STRUCT:
			si := vm.readShort(f)
			vm.push(vm.newStruct(vm.asm.Strings[si]))
		case compiler.OP_ENUM:
			si := vm.readShort(f)
			vm.push(vm.newEnum(vm.asm.Strings[si]))
		case compiler.OP_ENUM_CASE:
			if err := vm.defineEnumCase(f); err != nil {
				return err
			}
		case compiler.OP_PROTOCOL:
			pi := vm.readShort(f)
			vm.push(vm.newProtocol(vm.asm.Protocols[pi]))
		case compiler.OP_FUNCTION:
			fi := vm.readShort(f)
			obj := vm.registry.allocate(vm.makeFunctionObject(fi), 32)
			vm.push(Obj(obj))
		case compiler.OP_CLOSURE:
			if err := vm.makeClosure(f); err != nil {
				return err
			}
		case compiler.OP_METHOD:
			fi := vm.readShort(f)
			vm.defineMethod(f, fi)
		case compiler.OP_STRUCT_METHOD:
			fi := vm.readShort(f)
			mutating := vm.readByte(f) != 0
			vm.defineStructMethod(f, fi, mutating)
		case compiler.OP_DEFINE_PROPERTY:
			si := vm.readShort(f)
			flags := vm.readByte(f)
			vm.defineProperty(f, vm.asm.Strings[si], flags)
		case compiler.OP_DEFINE_PROPERTY_WITH_OBSERVERS:
			si := vm.readShort(f)
			flags := vm.readByte(f)
			willFi := vm.readShort(f)
			didFi := vm.readShort(f)
			vm.defineObservedProperty(f, vm.asm.Strings[si], flags, willFi, didFi)
		case compiler.OP_DEFINE_COMPUTED_PROPERTY:
			si := vm.readShort(f)
			getFi := vm.readShort(f)
			setFi := vm.readShort(f)
			vm.defineComputedProperty(f, vm.asm.Strings[si], getFi, setFi)
		case compiler.OP_GET_PROPERTY:
			si := vm.readShort(f)
			obj := vm.pop()
			v, err := vm.getProperty(f, obj, vm.asm.Strings[si])
			if err != nil {
				return err
			}
			vm.push(v)
		case compiler.OP_SET_PROPERTY:
			si := vm.readShort(f)
			v := vm.pop()
			obj := vm.pop()
			if err := vm.setProperty(f, obj, vm.asm.Strings[si], v); err != nil {
				return err
			}
		case compiler.OP_SUPER:
			si := vm.readShort(f)
			if err := vm.resolveSuper(f, vm.asm.Strings[si]); err != nil {
				return err
			}

		case compiler.OP_MATCH_ENUM_CASE:
			si := vm.readShort(f)
			v := vm.pop()
			name := vm.asm.Strings[si]
			vm.push(Bool(v.Kind == KindObject && v.Obj != nil && v.Obj.Kind == ObjEnumCase && v.Obj.EnumCase.CaseName == name))
		case compiler.OP_GET_ASSOCIATED:
			i := vm.readShort(f)
			v := vm.pop()
			if v.Kind != KindObject || v.Obj.Kind != ObjEnumCase || i >= len(v.Obj.EnumCase.AssocValues) {
				return vm.runtimeErr(f, "not an enum case with associated value %d", i)
			}
			vm.push(v.Obj.EnumCase.AssocValues[i])
		case compiler.OP_TYPE_CAST, compiler.OP_TYPE_CAST_OPTIONAL, compiler.OP_TYPE_CAST_FORCED:
			si := vm.readShort(f)
			if err := vm.typeCast(f, op, vm.asm.Strings[si]); err != nil {
				return err
			}
		case compiler.OP_TYPE_CHECK:
			si := vm.readShort(f)
			v := vm.pop()
			vm.push(Bool(matchesType(v, vm.asm.Strings[si])))

		case compiler.OP_PRINT:
			v := vm.pop()
			fmt.Fprintln(vm.out, v.ToDisplayString())
		case compiler.OP_READ_LINE:
			line, _ := vm.in.ReadString('\n')
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				vm.push(Nil())
			} else {
				vm.push(vm.newString(line))
			}
		case compiler.OP_THROW:
			v := vm.pop()
			return vm.runtimeErr(f, "Uncaught error: %s", v.ToDisplayString())

		default:
			return vm.runtimeErr(f, "unknown opcode %d", op)
		}
	}
	return nil
}

func constantToValue(c any) Value {
	switch v := c.(type) {
	case int64:
		return Int(v)
	case float64:
		return Float(v)
	case bool:
		return Bool(v)
	}
	return Nil()
}

// assignSlot stores into an existing stack slot, releasing whatever strong
// object reference it previously held and retaining the new one (the
// "atomic with the assignment" rule spec §5 requires of globals applies
// here too).
func (vm *VM) assignSlot(slot int, v Value) {
	old := vm.stack[slot]
	if v.Kind == KindObject && v.RefKind == RefStrong {
		vm.registry.retain(v.Obj)
	}
	vm.stack[slot] = v
	if old.Kind == KindObject && old.RefKind == RefStrong {
		vm.registry.release(old.Obj, vm)
	}
}

func (vm *VM) setGlobal(name string, v Value) {
	old, had := vm.globals[name]
	if v.Kind == KindObject && v.RefKind == RefStrong {
		vm.registry.retain(v.Obj)
	}
	vm.globals[name] = v
	if had && old.Kind == KindObject && old.RefKind == RefStrong {
		vm.registry.release(old.Obj, vm)
	}
}

// copyForStore gives struct values copy-on-assignment semantics: cloning
// happens at the point a StructInstance is bound to a local/global/field/
// parameter, not at method-dispatch time, so a mutating method can simply
// mutate its receiver's Fields map in place and have that mutation visible
// through every alias that hasn't since been copied elsewhere.
func (vm *VM) copyForStore(v Value) Value {
	if v.Kind == KindObject && v.Obj != nil && v.Obj.Kind == ObjStructInstance {
		clone := &Object{Kind: ObjStructInstance, StructInstance: v.Obj.StructInstance.Clone()}
		return Obj(vm.registry.allocate(clone, 48))
	}
	return v
}
