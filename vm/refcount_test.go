package vm

import "testing"

func TestDupFreeBalance(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	v, err := rt.NewString("counted")
	if err != nil {
		t.Fatal(err)
	}
	if got := rt.RefCountOf(v.Borrow()); got != 1 {
		t.Fatalf("fresh object count = %d, want 1", got)
	}

	d := rt.Dup(v.Borrow())
	if got := rt.RefCountOf(v.Borrow()); got != 2 {
		t.Errorf("count after Dup = %d, want 2", got)
	}

	rt.Free(d)
	if got := rt.RefCountOf(v.Borrow()); got != 1 {
		t.Errorf("count after Free = %d, want 1", got)
	}
	if !rt.IsLiveObject(v.Borrow()) {
		t.Error("object reclaimed while a reference remains")
	}

	rt.Free(v)
	if rt.IsLiveObject(v.Borrow()) {
		t.Error("object still live after last Free")
	}
}

func TestDupInlineIsNoop(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	for _, v := range []Value{Null, Undefined, True, FromInt32(3), FromFloat64(2.5)} {
		d := rt.Dup(v.Borrow())
		if !StrictEq(d.Borrow(), v.Borrow()) && !v.Borrow().IsNaN() {
			t.Errorf("Dup changed inline value %v", v.Tag())
		}
		rt.Free(d) // must be harmless
	}
}

func TestFreeReleasesChildren(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	child, err := rt.NewString("child")
	if err != nil {
		t.Fatal(err)
	}
	parent, err := rt.NewObject()
	if err != nil {
		t.Fatal(err)
	}
	key, err := rt.NewAtom("k")
	if err != nil {
		t.Fatal(err)
	}
	defer rt.FreeAtom(key)

	// parent takes over our reference to child
	if err := rt.SetProperty(parent.Borrow(), key, child); err != nil {
		t.Fatal(err)
	}
	if got := rt.RefCountOf(child.Borrow()); got != 1 {
		t.Fatalf("child count = %d, want 1", got)
	}

	rt.Free(parent)
	if rt.IsLiveObject(child.Borrow()) {
		t.Error("child survived release of its only owner")
	}
}

// A long ownership chain must be reclaimed without deep recursion when
// its head is released.
func TestFreeLongChainIterative(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()
	rt.SetGCThreshold(0)

	key, err := rt.NewAtom("next")
	if err != nil {
		t.Fatal(err)
	}
	defer rt.FreeAtom(key)

	const n = 1000
	head := Null
	for i := 0; i < n; i++ {
		node, err := rt.NewObject()
		if err != nil {
			t.Fatal(err)
		}
		if err := rt.SetProperty(node.Borrow(), key, head); err != nil {
			t.Fatal(err)
		}
		head = node
	}
	if got := rt.LiveObjectCount(); got != n {
		t.Fatalf("live count = %d, want %d", got, n)
	}

	rt.Free(head)
	if got := rt.LiveObjectCount(); got != 0 {
		t.Errorf("live count after releasing chain head = %d, want 0", got)
	}
}

func TestDoubleFreePanics(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	v, err := rt.NewString("once")
	if err != nil {
		t.Fatal(err)
	}
	rt.Free(v)

	defer func() {
		if recover() == nil {
			t.Error("double free did not panic")
		}
	}()
	rt.Free(v)
}

func TestSlotReuseAfterFree(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	a, err := rt.NewString("first")
	if err != nil {
		t.Fatal(err)
	}
	ref := a.Ref()
	rt.Free(a)

	b, err := rt.NewString("second")
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Free(b)
	if b.Ref() != ref {
		t.Errorf("freed slot not reused: got ref %d, want %d", b.Ref(), ref)
	}
	if s, _ := rt.StringView(b.Borrow()); s != "second" {
		t.Errorf("reused slot carries stale data: %q", s)
	}
}

func TestFinalizerHookRuns(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	finalized := 0
	var id ClassID
	rt.NewClassID(&id)
	err := rt.NewClass(id, ClassDef{
		Name: "Tracked",
		Finalizer: func(rt *Runtime, val Const) {
			finalized++
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	v, err := rt.NewObjectClass(id)
	if err != nil {
		t.Fatal(err)
	}
	d := rt.Dup(v.Borrow())
	rt.Free(d)
	if finalized != 0 {
		t.Fatal("finalizer ran while references remain")
	}
	rt.Free(v)
	if finalized != 1 {
		t.Errorf("finalizer ran %d times, want 1", finalized)
	}
}

type handleState struct{ closed bool }

func TestFinalizerSeesOwnPayload(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	var id ClassID
	rt.NewClassID(&id)
	var got *handleState
	err := rt.NewClass(id, ClassDef{
		Name: "Handle",
		Finalizer: func(rt *Runtime, val Const) {
			got, _ = rt.GetObjectOpaque(val, id).(*handleState)
			if got != nil {
				got.closed = true
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	v, err := rt.NewObjectClass(id)
	if err != nil {
		t.Fatal(err)
	}
	st := &handleState{}
	if err := rt.SetObjectOpaque(v.Borrow(), st); err != nil {
		t.Fatal(err)
	}

	rt.Free(v)
	if got != st {
		t.Fatal("finalizer could not reach the object's native payload")
	}
	if !st.closed {
		t.Error("payload untouched by finalizer")
	}
}
