//go:build !corvid_nanbox && !corvid_checked

package vm

import "math"

// Value represents a Corvid value using the struct layout: an explicit
// (payload, tag) pair. This is the portable default: largest footprint,
// no bit tricks, unambiguous on every architecture.
//
// The payload field holds, depending on the tag:
//   - Float64: the raw IEEE 754 bits
//   - Int, Bool, CatchOffset, ShortBigInt: a 32-bit integer in the low bits
//   - reference-counted tags: the heap arena RefID in the low bits
type Value struct {
	bits uint64
	tag  int64
}

// Const is the borrowed flavor of Value. In the runnable layouts it is an
// alias; the corvid_checked layout makes it a distinct type so that
// flavor misuse is a compile error. See the ownership rules in value.go.
type Const = Value

func mkVal(tag Tag, v int32) Value {
	return Value{bits: uint64(uint32(v)), tag: int64(tag)}
}

func mkRef(tag Tag, ref RefID) Value {
	return Value{bits: uint64(ref), tag: int64(tag)}
}

func fromFloat64(f float64) Value {
	return Value{bits: normalizeNaN(math.Float64bits(f)), tag: int64(TagFloat64)}
}

// unconst converts a borrowed handle back to an owning one. Callers take
// on the release obligation; only Dup and the constructors may use it.
func unconst(c Const) Value { return c }

// Borrow returns the borrowed flavor of v. The holder of the result must
// not release it.
func (v Value) Borrow() Const { return v }

// Tag returns the raw tag of c.
func (c Const) Tag() Tag { return Tag(int32(c.tag)) }

// NormTag returns the normalized tag: identical to Tag under this layout.
// Under NaN-boxing it folds every float bit pattern to TagFloat64.
func (c Const) NormTag() Tag { return Tag(int32(c.tag)) }

// Int32 returns the 32-bit integer payload. Only meaningful for the
// inline integer-carrying tags.
func (c Const) Int32() int32 { return int32(uint32(c.bits)) }

// Float64 returns the float64 payload. Only meaningful for TagFloat64.
func (c Const) Float64() float64 { return math.Float64frombits(c.bits) }

// Ref returns the heap arena index payload. Only meaningful for
// reference-counted tags.
func (c Const) Ref() RefID { return RefID(uint32(c.bits)) }

// IsNaN reports whether c is the float64 NaN value.
func (c Const) IsNaN() bool {
	return Tag(int32(c.tag)) == TagFloat64 && c.bits&^float64SignMask > float64ExpMask
}
