package vm

// moduleExport is one named binding of a module. Both the atom and the
// value are owned by the module.
type moduleExport struct {
	name  Atom
	value Value
}

// moduleData is the payload of a module record: an interned name and an
// ordered export list.
type moduleData struct {
	name    Atom
	exports []moduleExport
}

// funcBytecodeData is the payload of a compiled function: a name, an
// opaque code blob, and the constant pool the code indexes into. The
// constants are owned and may reference other heap values, which is how
// compiled functions participate in cycles.
type funcBytecodeData struct {
	name      Atom
	code      []byte
	constants []Value
}

const (
	moduleBaseSize       = 48
	moduleExportSize     = 16
	funcBytecodeBaseSize = 64
)

// NewModule creates an empty module named by the interned name. The
// result is owning.
func (rt *Runtime) NewModule(name string) (Value, error) {
	atom, err := rt.NewAtom(name)
	if err != nil {
		return Exception, err
	}
	ref, err := rt.allocSlot(TagModule, ClassModule, moduleBaseSize, &moduleData{name: atom})
	if err != nil {
		rt.FreeAtom(atom)
		return Exception, err
	}
	return mkRef(TagModule, ref), nil
}

func (rt *Runtime) moduleData(c Const) (*moduleData, error) {
	if !c.IsModule() || !rt.IsLiveObject(c) {
		return nil, ErrNotModule
	}
	return rt.slots[c.Ref()].data.(*moduleData), nil
}

// ModuleName returns the module's name. m is borrowed.
func (rt *Runtime) ModuleName(m Const) (string, error) {
	d, err := rt.moduleData(m)
	if err != nil {
		return "", err
	}
	return rt.AtomString(d.name), nil
}

// AddModuleExport appends a named binding. value is consumed even on
// error; re-exporting an existing name replaces and releases the
// previous value. m is borrowed.
func (rt *Runtime) AddModuleExport(m Const, name string, value Value) error {
	d, err := rt.moduleData(m)
	if err != nil {
		rt.Free(value)
		return err
	}
	atom, err := rt.NewAtom(name)
	if err != nil {
		rt.Free(value)
		return err
	}
	for i := range d.exports {
		if d.exports[i].name == atom {
			rt.FreeAtom(atom)
			old := d.exports[i].value
			d.exports[i].value = value
			rt.Free(old)
			return nil
		}
	}
	if err := rt.resizeSlot(m.Ref(), moduleBaseSize+(len(d.exports)+1)*moduleExportSize); err != nil {
		rt.FreeAtom(atom)
		rt.Free(value)
		return err
	}
	d.exports = append(d.exports, moduleExport{name: atom, value: value})
	return nil
}

// ModuleExport returns an owning reference to a named binding, or
// Undefined when the name is not exported. m is borrowed.
func (rt *Runtime) ModuleExport(m Const, name string) (Value, error) {
	d, err := rt.moduleData(m)
	if err != nil {
		return Exception, err
	}
	for i := range d.exports {
		if rt.AtomString(d.exports[i].name) == name {
			return rt.Dup(d.exports[i].value.Borrow()), nil
		}
	}
	return Undefined, nil
}

// ModuleExportCount returns the number of bindings. m is borrowed.
func (rt *Runtime) ModuleExportCount(m Const) int {
	d, err := rt.moduleData(m)
	if err != nil {
		return 0
	}
	return len(d.exports)
}

// NewFunctionBytecode creates a compiled-function record. The code blob
// is copied; the constants slice is consumed, element by element, even
// on error. The result is owning.
func (rt *Runtime) NewFunctionBytecode(name string, code []byte, constants []Value) (Value, error) {
	atom, err := rt.NewAtom(name)
	if err != nil {
		for _, c := range constants {
			rt.Free(c)
		}
		return Exception, err
	}
	d := &funcBytecodeData{
		name:      atom,
		code:      append([]byte(nil), code...),
		constants: append([]Value(nil), constants...),
	}
	size := funcBytecodeBaseSize + len(d.code) + len(d.constants)*16
	ref, err := rt.allocSlot(TagFunctionBytecode, ClassFunctionBytecode, size, d)
	if err != nil {
		rt.FreeAtom(atom)
		for _, c := range d.constants {
			rt.Free(c)
		}
		return Exception, err
	}
	return mkRef(TagFunctionBytecode, ref), nil
}

func (rt *Runtime) funcData(c Const) (*funcBytecodeData, bool) {
	if !c.IsFunctionBytecode() || !rt.IsLiveObject(c) {
		return nil, false
	}
	return rt.slots[c.Ref()].data.(*funcBytecodeData), true
}

// FunctionName returns the compiled function's name, or "". fn is
// borrowed.
func (rt *Runtime) FunctionName(fn Const) string {
	d, ok := rt.funcData(fn)
	if !ok {
		return ""
	}
	return rt.AtomString(d.name)
}

// FunctionCode returns a borrowed view of the code blob. fn is borrowed.
func (rt *Runtime) FunctionCode(fn Const) []byte {
	d, ok := rt.funcData(fn)
	if !ok {
		return nil
	}
	return d.code
}

// FunctionConstant returns an owning reference to constant-pool entry i,
// or Undefined when out of range. fn is borrowed.
func (rt *Runtime) FunctionConstant(fn Const, i int) Value {
	d, ok := rt.funcData(fn)
	if !ok || i < 0 || i >= len(d.constants) {
		return Undefined
	}
	return rt.Dup(d.constants[i].Borrow())
}

// FunctionConstantCount returns the size of the constant pool. fn is
// borrowed.
func (rt *Runtime) FunctionConstantCount(fn Const) int {
	d, ok := rt.funcData(fn)
	if !ok {
		return 0
	}
	return len(d.constants)
}
