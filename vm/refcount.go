package vm

// Dup duplicates a borrowed handle into a new owning handle aliasing the
// same storage: the heap object's count is incremented, inline values
// pass through untouched. O(1); never triggers collection.
func (rt *Runtime) Dup(v Const) Value {
	if v.Tag().HasRefCount() {
		rt.header(v.Ref()).RefCount++
	}
	return unconst(v)
}

// Free releases an owning handle. For reference-counted values the count
// is decremented; at zero the object's finalizer runs exactly once and
// its outgoing references are released. Cascades are drained iteratively
// through an explicit stack, so releasing an arbitrarily long chain uses
// constant Go stack. A no-op for inline tags. O(1) amortized; never
// triggers collection.
//
// Releasing the same owning handle twice is a programming error. The
// fast path does not defend against it; when the slot has already been
// recycled the attempt panics rather than corrupting the arena.
func (rt *Runtime) Free(v Value) {
	c := v.Borrow()
	if !c.Tag().HasRefCount() {
		return
	}
	ref := c.Ref()
	s := &rt.slots[ref]
	// While the collector is breaking cycles, edges into condemned
	// objects are dropped without touching their counts; the sweep owns
	// their finalization (and may have recycled them already).
	if rt.phase == gcPhaseRemoveCycles && (!s.live || s.hdr.color == gcColorWhite) {
		return
	}
	if !s.live {
		panic("vm: release of dead heap object (double free?)")
	}
	s.hdr.RefCount--
	if s.hdr.RefCount > 0 {
		return
	}

	rt.pendingFree = append(rt.pendingFree, ref)
	if rt.freeing {
		return // an outer Free is draining already
	}
	rt.freeing = true
	for len(rt.pendingFree) > 0 {
		n := len(rt.pendingFree) - 1
		next := rt.pendingFree[n]
		rt.pendingFree = rt.pendingFree[:n]
		rt.finalizeSlot(next)
	}
	rt.freeing = false
}

// FreeConst is a convenience for releasing a handle the caller obtained
// as owning but holds in borrowed shape. It exists for call sites that
// tracked the ownership transfer out of band; prefer Free.
func (rt *Runtime) FreeConst(c Const) { rt.Free(unconst(c)) }

// finalizeSlot reclaims one heap object whose count reached zero (or
// which the collector condemned): runs the class finalizer, releases the
// kind's outgoing references and atoms, clears weak handles, and recycles
// the arena cell. Child releases go through Free and are queued on
// pendingFree, keeping the cascade iterative.
func (rt *Runtime) finalizeSlot(ref RefID) {
	s := &rt.slots[ref]
	if rt.dumpFlags&DumpFree != 0 {
		log.Debugf("free %s ref=%d class=%s", s.tag, ref, rt.ClassName(s.hdr.ClassID))
	}

	// The class finalizer runs while the slot is still live so it can
	// reach its own payload through the normal accessors.
	if e := rt.classes[s.hdr.ClassID]; e.registered && e.def.Finalizer != nil {
		e.def.Finalizer(rt, rt.slotValue(ref).Borrow())
	}

	// Dead from here on; mark before touching children so diagnostics
	// never observe the object as live mid-teardown.
	s.live = false

	rt.clearWeakRefs(ref)

	switch d := s.data.(type) {
	case *stringData:
		// no outgoing references
	case *symbolData:
		rt.atoms.detachSymbol(d.atom)
		rt.FreeAtom(d.atom)
	case *bigIntData:
		// no outgoing references
	case *objectData:
		rt.Free(d.proto)
		for i := range d.props {
			rt.FreeAtom(d.props[i].key)
			rt.Free(d.props[i].value)
		}
		d.props = nil
		d.opaque = nil
	case *moduleData:
		rt.FreeAtom(d.name)
		for i := range d.exports {
			rt.FreeAtom(d.exports[i].name)
			rt.Free(d.exports[i].value)
		}
		d.exports = nil
	case *funcBytecodeData:
		rt.FreeAtom(d.name)
		for i := range d.constants {
			rt.Free(d.constants[i])
		}
		d.constants = nil
	}

	rt.recycleSlot(ref)
}
