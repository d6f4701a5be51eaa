package vm

// WeakRef observes a heap value without keeping it alive. The reference
// count of the target is untouched; when the target is reclaimed, by
// refcounting or by a collection pass, every weak reference to it is
// cleared before the finalizer runs.
type WeakRef struct {
	rt    *Runtime
	tag   Tag
	ref   RefID
	alive bool
}

// NewWeakRef creates a weak reference to a heap value. target is
// borrowed and must be reference-counted and live.
func (rt *Runtime) NewWeakRef(target Const) (*WeakRef, error) {
	if !target.HasRefCount() {
		return nil, ErrNotObject
	}
	if !rt.IsLiveObject(target) {
		return nil, ErrNotObject
	}
	w := &WeakRef{rt: rt, tag: target.Tag(), ref: target.Ref(), alive: true}
	rt.weakRefs[w.ref] = append(rt.weakRefs[w.ref], w)
	return w, nil
}

// Deref returns an owning reference to the target, or Undefined when the
// target has been reclaimed or the reference was cleared.
func (w *WeakRef) Deref() Value {
	if !w.alive {
		return Undefined
	}
	return w.rt.Dup(mkRef(w.tag, w.ref).Borrow())
}

// IsAlive reports whether the target is still reachable through this
// reference.
func (w *WeakRef) IsAlive() bool { return w.alive }

// Clear detaches the reference without touching the target.
func (w *WeakRef) Clear() {
	if !w.alive {
		return
	}
	w.alive = false
	refs := w.rt.weakRefs[w.ref]
	for i, o := range refs {
		if o == w {
			w.rt.weakRefs[w.ref] = append(refs[:i], refs[i+1:]...)
			break
		}
	}
	if len(w.rt.weakRefs[w.ref]) == 0 {
		delete(w.rt.weakRefs, w.ref)
	}
}

// clearWeakRefs invalidates every weak reference to ref. Called from the
// finalize path for all reclaimed slots.
func (rt *Runtime) clearWeakRefs(ref RefID) {
	refs, ok := rt.weakRefs[ref]
	if !ok {
		return
	}
	for _, w := range refs {
		w.alive = false
	}
	delete(rt.weakRefs, ref)
}
