package vm

import "fmt"

// ClassID identifies a registered heap-object kind within one runtime.
type ClassID uint32

const (
	// ClassInvalid is never a registered class.
	ClassInvalid ClassID = 0

	// Built-in kinds. Registered automatically by NewRuntime.
	ClassObject           ClassID = 1
	ClassString           ClassID = 2
	ClassSymbol           ClassID = 3
	ClassBigInt           ClassID = 4
	ClassModule           ClassID = 5
	ClassFunctionBytecode ClassID = 6

	// firstUserClassID is where NewClassID starts handing out IDs.
	firstUserClassID ClassID = 16
)

// MarkFunc is the callback handed to Mark hooks during a collection pass.
// Implementations of ClassGCMark must invoke it (directly or through
// MarkValue) for every reference-counted Value the object holds.
type MarkFunc func(rt *Runtime, v Const)

// ClassFinalizer runs exactly once when an object of the class is
// reclaimed, either because its count reached zero or because the cycle
// collector found it unreachable. val is borrowed; the finalizer must not
// release it or allocate through the runtime.
type ClassFinalizer func(rt *Runtime, val Const)

// ClassGCMark reports the object's outgoing references to the collector.
// val is borrowed.
type ClassGCMark func(rt *Runtime, val Const, mark MarkFunc)

// ClassDef describes a heap-object kind registered with NewClass.
type ClassDef struct {
	Name      string
	Finalizer ClassFinalizer
	Mark      ClassGCMark
}

type classEntry struct {
	def        ClassDef
	registered bool
}

// NewClassID allocates a fresh class ID for this runtime. *pid is
// returned unchanged if it already holds an ID allocated by this
// runtime, so a shared global can be initialized once.
func (rt *Runtime) NewClassID(pid *ClassID) ClassID {
	if *pid >= firstUserClassID && *pid < rt.nextClassID {
		return *pid
	}
	id := rt.nextClassID
	rt.nextClassID++
	*pid = id
	return id
}

// NewClass registers def under id. Registering the same ID twice is an
// error; IDs must come from NewClassID or be one of the built-in classes.
func (rt *Runtime) NewClass(id ClassID, def ClassDef) error {
	if id == ClassInvalid || id >= rt.nextClassID {
		return fmt.Errorf("vm: class id %d not allocated", id)
	}
	rt.growClasses(id)
	if rt.classes[id].registered {
		return fmt.Errorf("vm: class %d (%q) already registered", id, rt.classes[id].def.Name)
	}
	rt.classes[id] = classEntry{def: def, registered: true}
	return nil
}

// IsRegisteredClass reports whether id has been registered on rt.
func (rt *Runtime) IsRegisteredClass(id ClassID) bool {
	return int(id) < len(rt.classes) && rt.classes[id].registered
}

// ClassName returns the registered name for id, or "" if unregistered.
func (rt *Runtime) ClassName(id ClassID) string {
	if !rt.IsRegisteredClass(id) {
		return ""
	}
	return rt.classes[id].def.Name
}

func (rt *Runtime) growClasses(id ClassID) {
	for int(id) >= len(rt.classes) {
		rt.classes = append(rt.classes, classEntry{})
	}
}

func (rt *Runtime) registerBuiltinClasses() {
	builtin := []struct {
		id   ClassID
		name string
	}{
		{ClassObject, "Object"},
		{ClassString, "String"},
		{ClassSymbol, "Symbol"},
		{ClassBigInt, "BigInt"},
		{ClassModule, "Module"},
		{ClassFunctionBytecode, "FunctionBytecode"},
	}
	rt.growClasses(firstUserClassID - 1)
	for _, b := range builtin {
		rt.classes[b.id] = classEntry{def: ClassDef{Name: b.name}, registered: true}
	}
	rt.nextClassID = firstUserClassID
}

// MarkValue forwards v to mark if it is reference-counted. Mark hooks use
// it so they do not need to test the tag class themselves.
func MarkValue(rt *Runtime, v Const, mark MarkFunc) {
	if v.Tag().HasRefCount() {
		mark(rt, v)
	}
}
