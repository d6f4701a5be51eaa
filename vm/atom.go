package vm

import "strconv"

// Atom is an interned, reference-counted handle to a short string used as
// a property key or identifier. Atoms carry their own count, independent
// of Value counts, and follow the same owning/borrowed protocol: NewAtom
// and DupAtom return owning handles that must be released with FreeAtom.
//
// Atoms whose top bit is set are array-index atoms: the index is encoded
// directly in the handle, no table entry exists and no counting applies.
// Two atoms for the same index are therefore always identical, without
// any text parsing.
type Atom uint32

// AtomNull is the reserved invalid atom.
const AtomNull Atom = 0

const (
	atomTagInt Atom = 1 << 31
	atomMaxInt      = 1<<31 - 1
)

type atomKind uint8

const (
	atomKindString atomKind = iota
	atomKindSymbol
)

// per-entry bookkeeping overhead charged to the allocator, on top of the
// string bytes.
const atomEntryOverhead = 24

type atomEntry struct {
	refCount int32
	kind     atomKind
	str      string
	sym      RefID // live symbol slot for symbol entries, else refNull
}

type atomTable struct {
	entries  []atomEntry
	byName   map[string]Atom
	freeList []Atom
}

func (t *atomTable) init() {
	t.entries = make([]atomEntry, 1) // entry 0 reserved for AtomNull
	t.byName = make(map[string]Atom)
}

func (t *atomTable) liveCount() int {
	n := 0
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i].refCount > 0 {
			n++
		}
	}
	return n
}

func (t *atomTable) byteSize() int64 {
	var size int64
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i].refCount > 0 {
			size += int64(len(t.entries[i].str) + atomEntryOverhead)
		}
	}
	return size
}

func (t *atomTable) dump() {
	for i := 1; i < len(t.entries); i++ {
		e := &t.entries[i]
		if e.refCount > 0 {
			log.Infof("atom %d count=%d %q", i, e.refCount, e.str)
		}
	}
}

// detachSymbol severs the entry's link to a symbol slot that is being
// finalized. The entry itself stays alive as long as atom handles to it
// remain.
func (t *atomTable) detachSymbol(a Atom) {
	if a&atomTagInt == 0 && a != AtomNull {
		t.entries[a].sym = refNull
	}
}

// canonicalIndex reports whether s is the canonical decimal form of an
// array index that fits the tagged-atom range.
func canonicalIndex(s string) (uint32, bool) {
	if len(s) == 0 || len(s) > 10 {
		return 0, false
	}
	if s[0] == '0' && len(s) > 1 {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n > atomMaxInt {
		return 0, false
	}
	return uint32(n), true
}

// NewAtom interns text and returns an owning atom handle. Interning the
// same text while a prior handle is live returns the identical atom with
// its count incremented.
func (rt *Runtime) NewAtom(text string) (Atom, error) {
	if n, ok := canonicalIndex(text); ok {
		return atomTagInt | Atom(n), nil
	}
	if a, ok := rt.atoms.byName[text]; ok {
		rt.atoms.entries[a].refCount++
		return a, nil
	}
	if err := rt.alloc.Allocate(len(text) + atomEntryOverhead); err != nil {
		return AtomNull, err
	}
	a := rt.atoms.allocEntry(atomEntry{refCount: 1, kind: atomKindString, str: text})
	rt.atoms.byName[text] = a
	return a, nil
}

// NewAtomUInt32 is the fast path for array-index-shaped keys: for indices
// in the tagged range it allocates nothing and cannot fail. Larger values
// fall back to text interning; AtomNull is returned on memory exhaustion.
func (rt *Runtime) NewAtomUInt32(n uint32) Atom {
	if n <= atomMaxInt {
		return atomTagInt | Atom(n)
	}
	a, err := rt.NewAtom(strconv.FormatUint(uint64(n), 10))
	if err != nil {
		return AtomNull
	}
	return a
}

// newSymbolAtom allocates a non-deduplicated entry carrying a symbol's
// description and identity. Owned by the symbol object.
func (rt *Runtime) newSymbolAtom(desc string, sym RefID) (Atom, error) {
	if err := rt.alloc.Allocate(len(desc) + atomEntryOverhead); err != nil {
		return AtomNull, err
	}
	return rt.atoms.allocEntry(atomEntry{refCount: 1, kind: atomKindSymbol, str: desc, sym: sym}), nil
}

func (t *atomTable) allocEntry(e atomEntry) Atom {
	if n := len(t.freeList); n > 0 {
		a := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[a] = e
		return a
	}
	t.entries = append(t.entries, e)
	return Atom(len(t.entries) - 1)
}

// DupAtom returns a new owning handle for a.
func (rt *Runtime) DupAtom(a Atom) Atom {
	if a == AtomNull || a&atomTagInt != 0 {
		return a
	}
	rt.atoms.entries[a].refCount++
	return a
}

// FreeAtom releases an owning atom handle. When the last handle goes, the
// table entry is reclaimed and its slot becomes reusable; a later intern
// of the same text may allocate a fresh, non-aliasing atom.
func (rt *Runtime) FreeAtom(a Atom) {
	if a == AtomNull || a&atomTagInt != 0 {
		return
	}
	e := &rt.atoms.entries[a]
	e.refCount--
	if e.refCount > 0 {
		return
	}
	if e.kind == atomKindString {
		delete(rt.atoms.byName, e.str)
	}
	rt.alloc.Free(len(e.str) + atomEntryOverhead)
	*e = atomEntry{}
	rt.atoms.freeList = append(rt.atoms.freeList, a)
}

// AtomString returns the text of a as a borrowed view: O(1) for interned
// entries; array-index atoms format on demand. The view is valid while
// the caller holds an atom handle.
func (rt *Runtime) AtomString(a Atom) string {
	if a == AtomNull {
		return ""
	}
	if a&atomTagInt != 0 {
		return strconv.FormatUint(uint64(a&^atomTagInt), 10)
	}
	return rt.atoms.entries[a].str
}

// AtomToValue wraps a as a Value: symbol entries yield the live symbol
// (Undefined if it has been reclaimed), everything else a fresh string.
// The result is owning. a is borrowed.
func (rt *Runtime) AtomToValue(a Atom) (Value, error) {
	if a&atomTagInt == 0 && a != AtomNull {
		e := &rt.atoms.entries[a]
		if e.kind == atomKindSymbol {
			if e.sym == refNull {
				return Undefined, nil
			}
			return rt.Dup(rt.slotValue(e.sym).Borrow()), nil
		}
	}
	return rt.NewString(rt.AtomString(a))
}

// ValueToAtom converts v to an owning atom: non-negative inline integers
// take the index fast path, strings intern their text, symbols return
// their identity atom (so two conversions of the same symbol compare
// equal), other inline kinds intern their printed form. v is borrowed.
func (rt *Runtime) ValueToAtom(v Const) (Atom, error) {
	switch tag := v.NormTag(); tag {
	case TagInt:
		if n := v.Int32(); n >= 0 {
			return rt.NewAtomUInt32(uint32(n)), nil
		}
		return rt.NewAtom(strconv.FormatInt(int64(v.Int32()), 10))
	case TagString:
		s, _ := rt.StringView(v)
		return rt.NewAtom(s)
	case TagSymbol:
		d := rt.slots[v.Ref()].data.(*symbolData)
		return rt.DupAtom(d.atom), nil
	case TagBool:
		if v.Bool() {
			return rt.NewAtom("true")
		}
		return rt.NewAtom("false")
	case TagNull:
		return rt.NewAtom("null")
	case TagUndefined:
		return rt.NewAtom("undefined")
	case TagFloat64:
		return rt.NewAtom(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	default:
		return AtomNull, errAtomConversion(tag)
	}
}

// AtomCount returns the number of live interned entries (array-index
// atoms are not entries and are not counted).
func (rt *Runtime) AtomCount() int { return rt.atoms.liveCount() }
