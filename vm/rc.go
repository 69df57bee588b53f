package vm

// Registry is the VM's intrusive object list and the sole deallocation
// authority (spec §3 invariant: "every live object is reachable from the
// intrusive registry"). It also owns the deferred-release queue described
// in spec §4.6's "Allocation and RC".
type Registry struct {
	head        *Object
	deferred    []*Object
	opsSinceGC  int
	totalBytes  int64
	liveObjects int
}

// gcThreshold is the per-op counter spec §4.6 calls "a per-op counter
// exceeds a threshold" before draining the deferred queue.
const gcThreshold = 64

func newRegistry() *Registry { return &Registry{} }

// allocate inserts a freshly constructed Object into the registry. Its
// initial strong count is zero until something retains it (typically the
// VM pushing it onto the stack).
func (r *Registry) allocate(o *Object, size int) *Object {
	o.Next = r.head
	o.Size = size
	r.head = o
	r.totalBytes += int64(size)
	r.liveObjects++
	return o
}

// retain increments an object's strong count. Called whenever a Value
// carrying a strong ref is pushed, stored into a local/global/field, or
// copied.
func (r *Registry) retain(o *Object) {
	if o == nil || o.IsDead {
		return
	}
	o.StrongCount++
}

// release decrements an object's strong count; a count that reaches zero
// is queued for deferred destruction rather than freed immediately (spec
// §4.6, §5: "batched at cleanup points rather than inline").
func (r *Registry) release(o *Object, vm *VM) {
	if o == nil || o.IsDead {
		return
	}
	o.StrongCount--
	if o.StrongCount <= 0 {
		o.StrongCount = 0
		r.deferred = append(r.deferred, o)
	}
	r.opsSinceGC++
	if r.opsSinceGC >= gcThreshold {
		r.runCleanup(vm)
	}
}

// maybeCleanup is invoked from the VM's decode loop after pops, matching
// spec §5's "periodically ... a per-op counter exceeds a threshold".
func (r *Registry) maybeCleanup(vm *VM) {
	if len(r.deferred) > 0 && r.opsSinceGC >= gcThreshold {
		r.runCleanup(vm)
	}
}

// runCleanup drains the deferred queue, reentrancy-guarded: releases
// discovered while a destructor runs are re-queued rather than processed
// inline (spec §5's "is_collecting_ flag").
func (r *Registry) runCleanup(vm *VM) {
	if vm.collecting {
		return
	}
	vm.collecting = true
	defer func() { vm.collecting = false }()

	r.opsSinceGC = 0
	for len(r.deferred) > 0 {
		batch := r.deferred
		r.deferred = nil
		for _, o := range batch {
			r.destroy(o, vm)
		}
	}
}

// destroy runs an object's finalizer (invoking `deinit` for class
// instances), nulls its weak refs, releases children (which may re-enqueue
// into r.deferred), unlinks it from the registry, and marks it dead.
func (r *Registry) destroy(o *Object, vm *VM) {
	if o.IsDead {
		return
	}
	if o.StrongCount > 0 {
		return // resurrected by a retain before cleanup ran
	}
	o.IsDead = true

	if o.Kind == ObjInstance {
		vm.runDeinit(o)
	}

	for _, wr := range o.WeakRefs {
		wr.Obj = nil
		wr.Kind = KindNil
	}
	o.WeakRefs = nil

	r.releaseChildren(o, vm)
	r.unlink(o)
	r.liveObjects--
	r.totalBytes -= int64(o.Size)
}

func (r *Registry) releaseChildren(o *Object, vm *VM) {
	releaseValue := func(v Value) {
		if v.Kind == KindObject && v.RefKind == RefStrong {
			r.release(v.Obj, vm)
		}
	}
	switch o.Kind {
	case ObjList:
		for _, v := range o.List {
			releaseValue(v)
		}
	case ObjMap:
		for _, k := range o.Map.Keys() {
			v, _ := o.Map.Get(k)
			releaseValue(v)
		}
	case ObjTuple:
		for _, v := range o.Tuple {
			releaseValue(v)
		}
	case ObjInstance:
		for _, k := range o.Instance.Fields.Keys() {
			v, _ := o.Instance.Fields.Get(k)
			releaseValue(v)
		}
	case ObjStructInstance:
		for _, k := range o.StructInstance.Fields.Keys() {
			v, _ := o.StructInstance.Fields.Get(k)
			releaseValue(v)
		}
	case ObjClosure:
		for _, up := range o.Closure.Upvalues {
			r.release(up, vm)
		}
	case ObjUpvalue:
		if o.Upvalue.IsClosed {
			releaseValue(o.Upvalue.Closed)
		}
	case ObjBoundMethod:
		releaseValue(o.BoundMethod.Receiver)
	case ObjEnumCase:
		for _, v := range o.EnumCase.AssocValues {
			releaseValue(v)
		}
	}
}

func (r *Registry) unlink(o *Object) {
	if r.head == o {
		r.head = o.Next
		return
	}
	for cur := r.head; cur != nil; cur = cur.Next {
		if cur.Next == o {
			cur.Next = o.Next
			return
		}
	}
}

// drainAll is called on VM destruction: exhaust the deferred queue, then
// run deinit on every Instance still left in the registry, then free
// everything (spec §4.6 "Lifecycle").
func (r *Registry) drainAll(vm *VM) {
	r.runCleanup(vm)
	for o := r.head; o != nil; {
		next := o.Next
		o.StrongCount = 0
		r.destroy(o, vm)
		o = next
	}
}
