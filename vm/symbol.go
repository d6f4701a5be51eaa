package vm

// symbolData is the payload of a symbol object. Each symbol owns one
// non-deduplicated atom entry carrying its description and identity;
// ValueToAtom hands out duplicates of that entry, so atoms derived from
// the same symbol always compare equal without consulting the text.
type symbolData struct {
	desc string
	atom Atom
}

const symbolBaseSize = 32

// NewSymbol allocates a fresh symbol with the given description. Two
// symbols never compare equal, regardless of description. The result is
// owning.
func (rt *Runtime) NewSymbol(desc string) (Value, error) {
	d := &symbolData{desc: desc}
	ref, err := rt.allocSlot(TagSymbol, ClassSymbol, symbolBaseSize+len(desc), d)
	if err != nil {
		return Exception, err
	}
	a, err := rt.newSymbolAtom(desc, ref)
	if err != nil {
		rt.Free(mkRef(TagSymbol, ref))
		return Exception, err
	}
	d.atom = a
	return mkRef(TagSymbol, ref), nil
}

// SymbolDescription returns the description of a symbol, or "" when c is
// not a live symbol. c is borrowed.
func (rt *Runtime) SymbolDescription(c Const) string {
	if c.Tag() != TagSymbol || !rt.IsLiveObject(c) {
		return ""
	}
	return rt.slots[c.Ref()].data.(*symbolData).desc
}
