package vm

// property is one entry of an object's ordered property list. The key
// atom and the value are both owned by the object.
type property struct {
	key   Atom
	value Value
}

// objectData is the payload of a heap object: a prototype link, an
// ordered property list, and an optional native payload for user
// classes.
type objectData struct {
	proto  Value // Null when absent
	props  []property
	opaque any
}

const (
	objectBaseSize = 64
	propertySize   = 24
)

// NewObject creates a plain object with a Null prototype. The result is
// owning.
func (rt *Runtime) NewObject() (Value, error) {
	return rt.NewObjectClass(ClassObject)
}

// NewObjectClass creates an object of the given registered class. The
// result is owning.
func (rt *Runtime) NewObjectClass(id ClassID) (Value, error) {
	if !rt.IsRegisteredClass(id) {
		panic("vm: NewObjectClass with unregistered class")
	}
	ref, err := rt.allocSlot(TagObject, id, objectBaseSize, &objectData{proto: Null})
	if err != nil {
		return Exception, err
	}
	return mkRef(TagObject, ref), nil
}

func (rt *Runtime) objectData(c Const) (*objectData, error) {
	if !c.IsObject() || !rt.IsLiveObject(c) {
		return nil, ErrNotObject
	}
	return rt.slots[c.Ref()].data.(*objectData), nil
}

// SetObjectOpaque attaches a native payload to an object. obj is
// borrowed.
func (rt *Runtime) SetObjectOpaque(obj Const, opaque any) error {
	d, err := rt.objectData(obj)
	if err != nil {
		return err
	}
	d.opaque = opaque
	return nil
}

// GetObjectOpaque returns the native payload of an object, but only when
// the object's class matches id. obj is borrowed.
func (rt *Runtime) GetObjectOpaque(obj Const, id ClassID) any {
	d, err := rt.objectData(obj)
	if err != nil {
		return nil
	}
	if rt.slots[obj.Ref()].hdr.ClassID != id {
		return nil
	}
	return d.opaque
}

// ClassIDOf returns the class of a heap value, or ClassInvalid for
// non-heap or dead values. c is borrowed.
func (rt *Runtime) ClassIDOf(c Const) ClassID {
	if !c.HasRefCount() || !rt.IsLiveObject(c) {
		return ClassInvalid
	}
	return rt.slots[c.Ref()].hdr.ClassID
}

// SetPrototype replaces an object's prototype link. proto is consumed
// and must be an object or Null; the previous prototype is released.
// obj is borrowed.
func (rt *Runtime) SetPrototype(obj Const, proto Value) error {
	d, err := rt.objectData(obj)
	if err != nil {
		rt.Free(proto)
		return err
	}
	if !proto.Borrow().IsNull() && !proto.Borrow().IsObject() {
		rt.Free(proto)
		return ErrNotObject
	}
	old := d.proto
	d.proto = proto
	rt.Free(old)
	return nil
}

// Prototype returns an object's prototype as a borrowed reference, or
// Null. obj is borrowed.
func (rt *Runtime) Prototype(obj Const) (Const, error) {
	d, err := rt.objectData(obj)
	if err != nil {
		return Null.Borrow(), err
	}
	return d.proto.Borrow(), nil
}

// SetProperty defines or overwrites a property. value is consumed even
// on error; key is duplicated; a replaced previous value is released.
// obj is borrowed.
func (rt *Runtime) SetProperty(obj Const, key Atom, value Value) error {
	d, err := rt.objectData(obj)
	if err != nil {
		rt.Free(value)
		return err
	}
	for i := range d.props {
		if d.props[i].key == key {
			old := d.props[i].value
			d.props[i].value = value
			rt.Free(old)
			return nil
		}
	}
	if err := rt.resizeSlot(obj.Ref(), objectBaseSize+(len(d.props)+1)*propertySize); err != nil {
		rt.Free(value)
		return err
	}
	d.props = append(d.props, property{key: rt.DupAtom(key), value: value})
	return nil
}

// GetProperty returns an owning reference to a property value, or
// Undefined when the key is absent. The prototype chain is not walked.
// obj is borrowed.
func (rt *Runtime) GetProperty(obj Const, key Atom) (Value, error) {
	d, err := rt.objectData(obj)
	if err != nil {
		return Exception, err
	}
	for i := range d.props {
		if d.props[i].key == key {
			return rt.Dup(d.props[i].value.Borrow()), nil
		}
	}
	return Undefined, nil
}

// HasProperty reports whether the object itself defines key. obj is
// borrowed.
func (rt *Runtime) HasProperty(obj Const, key Atom) bool {
	d, err := rt.objectData(obj)
	if err != nil {
		return false
	}
	for i := range d.props {
		if d.props[i].key == key {
			return true
		}
	}
	return false
}

// DeleteProperty removes a property, releasing its value and key atom.
// It reports whether the key was present. obj is borrowed.
func (rt *Runtime) DeleteProperty(obj Const, key Atom) (bool, error) {
	d, err := rt.objectData(obj)
	if err != nil {
		return false, err
	}
	for i := range d.props {
		if d.props[i].key == key {
			rt.Free(d.props[i].value)
			rt.FreeAtom(d.props[i].key)
			d.props = append(d.props[:i], d.props[i+1:]...)
			// shrinking cannot exceed the budget
			_ = rt.resizeSlot(obj.Ref(), objectBaseSize+len(d.props)*propertySize)
			return true, nil
		}
	}
	return false, nil
}

// PropertyCount returns the number of own properties. obj is borrowed.
func (rt *Runtime) PropertyCount(obj Const) int {
	d, err := rt.objectData(obj)
	if err != nil {
		return 0
	}
	return len(d.props)
}

// PropertyKeys returns the own property key atoms in definition order.
// The atoms are borrowed; callers that retain them must DupAtom. obj is
// borrowed.
func (rt *Runtime) PropertyKeys(obj Const) []Atom {
	d, err := rt.objectData(obj)
	if err != nil {
		return nil
	}
	keys := make([]Atom, len(d.props))
	for i := range d.props {
		keys[i] = d.props[i].key
	}
	return keys
}
