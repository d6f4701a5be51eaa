package vm

import "testing"

func TestWeakRefDoesNotKeepAlive(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	v, err := rt.NewString("observed")
	if err != nil {
		t.Fatal(err)
	}
	w, err := rt.NewWeakRef(v.Borrow())
	if err != nil {
		t.Fatal(err)
	}
	if got := rt.RefCountOf(v.Borrow()); got != 1 {
		t.Errorf("weak ref changed the count: %d", got)
	}

	d := w.Deref()
	if s, _ := rt.StringView(d.Borrow()); s != "observed" {
		t.Errorf("Deref = %q", s)
	}
	rt.Free(d)

	rt.Free(v)
	if w.IsAlive() {
		t.Error("weak ref alive after target reclaim")
	}
	if !w.Deref().IsUndefined() {
		t.Error("Deref of a dead target should be Undefined")
	}
}

func TestWeakRefClearedByCollector(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()
	rt.SetGCThreshold(0)

	key, err := rt.NewAtom("peer")
	if err != nil {
		t.Fatal(err)
	}
	defer rt.FreeAtom(key)

	a, err := rt.NewObject()
	if err != nil {
		t.Fatal(err)
	}
	b, err := rt.NewObject()
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.SetProperty(a.Borrow(), key, rt.Dup(b.Borrow())); err != nil {
		t.Fatal(err)
	}
	if err := rt.SetProperty(b.Borrow(), key, rt.Dup(a.Borrow())); err != nil {
		t.Fatal(err)
	}
	w, err := rt.NewWeakRef(a.Borrow())
	if err != nil {
		t.Fatal(err)
	}
	rt.Free(a)
	rt.Free(b)

	if !w.IsAlive() {
		t.Fatal("cycle member dead before any pass")
	}
	rt.RunGC()
	if w.IsAlive() {
		t.Error("weak ref survived collection of its target")
	}
}

func TestWeakRefSlotReuseDoesNotResurrect(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	v, err := rt.NewString("first")
	if err != nil {
		t.Fatal(err)
	}
	w, err := rt.NewWeakRef(v.Borrow())
	if err != nil {
		t.Fatal(err)
	}
	rt.Free(v)

	// the arena cell is recycled for an unrelated object
	other, err := rt.NewString("second")
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Free(other)

	if w.IsAlive() {
		t.Error("weak ref revived by slot reuse")
	}
	if !w.Deref().IsUndefined() {
		t.Error("Deref observed an unrelated object")
	}
}

func TestWeakRefClear(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	v, err := rt.NewString("target")
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Free(v)

	w, err := rt.NewWeakRef(v.Borrow())
	if err != nil {
		t.Fatal(err)
	}
	w.Clear()
	if w.IsAlive() {
		t.Error("alive after Clear")
	}
	if !w.Deref().IsUndefined() {
		t.Error("Deref after Clear should be Undefined")
	}
	w.Clear() // idempotent
	if !rt.IsLiveObject(v.Borrow()) {
		t.Error("Clear touched the target")
	}
}

func TestWeakRefRejectsInlineValues(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	if _, err := rt.NewWeakRef(FromInt32(1).Borrow()); err == nil {
		t.Error("weak ref to an inline value should fail")
	}
	if _, err := rt.NewWeakRef(Null.Borrow()); err == nil {
		t.Error("weak ref to Null should fail")
	}
}

func TestMultipleWeakRefsToOneTarget(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	v, err := rt.NewString("shared")
	if err != nil {
		t.Fatal(err)
	}
	w1, err := rt.NewWeakRef(v.Borrow())
	if err != nil {
		t.Fatal(err)
	}
	w2, err := rt.NewWeakRef(v.Borrow())
	if err != nil {
		t.Fatal(err)
	}

	w1.Clear()
	if !w2.IsAlive() {
		t.Error("clearing one ref affected another")
	}
	rt.Free(v)
	if w2.IsAlive() {
		t.Error("remaining ref survived target reclaim")
	}
}
