//go:build corvid_nanbox

package vm

import "math"

// Value represents a Corvid value using NaN-boxing: a single 64-bit word.
//
// Non-float values carry their tag in the high 32 bits and their payload
// (32-bit integer or heap arena RefID) in the low 32 bits. Float64 values
// occupy the entire word with an additive offset applied so that every
// normalized IEEE 754 bit pattern lands in the tag range at or above
// TagFloat64. NaN payloads are canonicalized on construction, so no two
// distinct NaNs are observably different and a float can never decode as
// a pointer or integer tag.
type Value uint64

// Const is the borrowed flavor of Value. In the runnable layouts it is an
// alias; the corvid_checked layout makes it a distinct type so that flavor
// misuse is a compile error. See the ownership rules in value.go.
type Const = Value

// float64TagAddend shifts float64 bit patterns above the tag enumeration.
// It is derived from TagFirst, preserving the invariant (reference-counted
// tags at the bottom, floats occupying the top of the range) rather than
// any particular constant.
const float64TagAddend = 0x7ff80000 - int64(TagFirst) + 1

// nanEncoded is the encoded form of the canonical quiet NaN. The
// subtraction wraps below zero, so it must happen outside constant
// context.
var nanEncoded = encodeNaNBits()

func encodeNaNBits() uint64 {
	bits := canonicalNaNBits
	return bits - uint64(float64TagAddend)<<32
}

func mkVal(tag Tag, v int32) Value {
	return Value(uint64(uint32(tag))<<32 | uint64(uint32(v)))
}

func mkRef(tag Tag, ref RefID) Value {
	return Value(uint64(uint32(tag))<<32 | uint64(ref))
}

func fromFloat64(f float64) Value {
	bits := math.Float64bits(f)
	if bits&^float64SignMask > float64ExpMask {
		return Value(nanEncoded)
	}
	return Value(bits - uint64(float64TagAddend)<<32)
}

// unconst converts a borrowed handle back to an owning one. Callers take
// on the release obligation; only Dup and the constructors may use it.
func unconst(c Const) Value { return c }

// Borrow returns the borrowed flavor of v. The holder of the result must
// not release it.
func (v Value) Borrow() Const { return v }

// Tag returns the raw tag of c. Any raw tag for which IsFloat64 holds is
// in truth a float64 bit pattern; use NormTag to fold those.
func (c Const) Tag() Tag { return Tag(int32(uint32(uint64(c) >> 32))) }

// NormTag returns the normalized tag: TagFloat64 for every float bit
// pattern, the raw tag otherwise.
func (c Const) NormTag() Tag {
	tag := c.Tag()
	if tag.IsFloat64() {
		return TagFloat64
	}
	return tag
}

// Int32 returns the 32-bit integer payload. Only meaningful for the
// inline integer-carrying tags.
func (c Const) Int32() int32 { return int32(uint32(uint64(c))) }

// Float64 returns the float64 payload. Only meaningful when NormTag
// reports TagFloat64.
func (c Const) Float64() float64 {
	return math.Float64frombits(uint64(c) + uint64(float64TagAddend)<<32)
}

// Ref returns the heap arena index payload. Only meaningful for
// reference-counted tags.
func (c Const) Ref() RefID { return RefID(uint32(uint64(c))) }

// IsNaN reports whether c is the float64 NaN value. Canonicalization
// guarantees there is exactly one NaN encoding.
func (c Const) IsNaN() bool { return uint64(c) == nanEncoded }
