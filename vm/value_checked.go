//go:build corvid_checked

package vm

// Checked layout: a diagnostic build that exists purely to catch ownership
// bugs at compile time. Value and Const are distinct defined types here,
// so passing an owning handle where a borrowed one is expected (or vice
// versa) without an explicit Borrow/unconst is a type error. The physical
// encoding packs the tag into the low five bits of a pointer-sized word;
// float semantics are not runnable under this layout.
//
// Rules, identical to the contract documented in value.go:
//
//   - a function with a Value parameter takes ownership; the caller must
//     not release it
//   - a function with a Const parameter does not take ownership; the
//     caller retains the release obligation
//   - a function returning Value transfers ownership to the caller
//   - a function returning Const grants only transient access
type Value struct{ w uint64 }

// Const is the borrowed flavor of Value. Distinct from Value under this
// layout only.
type Const struct{ w uint64 }

func mkVal(tag Tag, v int32) Value {
	return Value{w: uint64(uint32(tag))&0x1f | uint64(uint32(v))<<5}
}

func mkRef(tag Tag, ref RefID) Value {
	return Value{w: uint64(uint32(tag))&0x1f | uint64(ref)<<5}
}

// fromFloat64 produces a typed handle with no runnable float semantics.
func fromFloat64(f float64) Value { return mkVal(TagFloat64, int32(f)) }

// unconst converts a borrowed handle back to an owning one. Callers take
// on the release obligation; only Dup and the constructors may use it.
func unconst(c Const) Value { return Value{w: c.w} }

// Borrow returns the borrowed flavor of v. The holder of the result must
// not release it.
func (v Value) Borrow() Const { return Const{w: v.w} }

// Tag returns the raw tag of c, sign-extended from its 5-bit storage.
func (c Const) Tag() Tag { return Tag(int32(c.w&0x1f) << 27 >> 27) }

// NormTag returns the normalized tag: identical to Tag under this layout.
func (c Const) NormTag() Tag { return c.Tag() }

func (c Const) Int32() int32 { return int32(uint32(c.w >> 5)) }

func (c Const) Float64() float64 { return float64(int32(uint32(c.w >> 5))) }

func (c Const) Ref() RefID { return RefID(uint32(c.w >> 5)) }

func (c Const) IsNaN() bool { return false }
