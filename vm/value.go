package vm

import "math"

// Ownership contract
//
// Every Value handed across an API boundary is either owning or borrowed:
//
//   - a function with a Value parameter takes ownership; the caller must
//     not release it afterwards
//   - a function with a Const parameter does not take ownership; the
//     caller keeps the release obligation
//   - a function returning Value transfers ownership; the caller must
//     eventually release it with Runtime.Free
//   - a function returning Const grants only transient access, valid no
//     longer than the lender's reference
//
// In the runnable layouts Const is a type alias of Value, so the contract
// is documentation plus discipline. Building with -tags corvid_checked
// makes Const a distinct type and turns flavor misuse into a compile
// error. Releasing the same owning handle twice is a programming error in
// every layout; the core deliberately does not defend against it at
// runtime.

// IEEE 754 float64 bit masks.
const (
	float64SignMask  uint64 = 0x8000000000000000
	float64ExpMask   uint64 = 0x7ff0000000000000
	canonicalNaNBits uint64 = 0x7ff8000000000000
)

// normalizeNaN replaces any NaN bit pattern (quiet or signaling, any
// payload) with the single canonical quiet NaN. Required for the NaN-boxed
// layout; applied under every layout so that observable behavior matches.
func normalizeNaN(bits uint64) uint64 {
	if bits&^float64SignMask > float64ExpMask {
		return canonicalNaNBits
	}
	return bits
}

// Inline singletons. These carry no heap storage and may be used freely
// in both owning and borrowed positions; releasing them is a no-op.
var (
	Null          = mkVal(TagNull, 0)
	Undefined     = mkVal(TagUndefined, 0)
	True          = mkVal(TagBool, 1)
	False         = mkVal(TagBool, 0)
	Uninitialized = mkVal(TagUninitialized, 0)

	// Exception is the distinguished failure marker: operations that
	// fail with a pending context exception return it instead of a
	// result value.
	Exception = mkVal(TagException, 0)

	// NaN is the canonical quiet NaN value.
	NaN = fromFloat64(math.NaN())
)

// ---------------------------------------------------------------------------
// Construction (pure; no heap allocation)
// ---------------------------------------------------------------------------

// FromBool returns the boolean Value for b.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// FromInt32 returns an inline integer Value.
func FromInt32(n int32) Value { return mkVal(TagInt, n) }

// FromFloat64 returns a float64 Value. NaN payloads are canonicalized.
func FromFloat64(f float64) Value { return fromFloat64(f) }

// FromInt64 returns an inline integer Value when n fits in 32 bits,
// otherwise a float64 Value.
func FromInt64(n int64) Value {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return mkVal(TagInt, int32(n))
	}
	return fromFloat64(float64(n))
}

// FromUint32 returns an inline integer Value when n fits in 31 bits,
// otherwise a float64 Value.
func FromUint32(n uint32) Value {
	if n <= math.MaxInt32 {
		return mkVal(TagInt, int32(n))
	}
	return fromFloat64(float64(n))
}

// FromNumber returns the canonical numeric Value for f: an inline integer
// when f is integral, in 32-bit range and not negative zero, else a
// float64 Value.
func FromNumber(f float64) Value {
	n := int32(f)
	if float64(n) == f && !(n == 0 && math.Signbit(f)) {
		return mkVal(TagInt, n)
	}
	return fromFloat64(f)
}

// FromCatchOffset returns the internal catch-offset marker Value.
func FromCatchOffset(off int32) Value { return mkVal(TagCatchOffset, off) }

// FromShortBigInt returns the compact inline big-integer Value for n.
// Callers wanting range-checked promotion should use Runtime.NewBigInt64.
func FromShortBigInt(n int32) Value { return mkVal(TagShortBigInt, n) }

// ---------------------------------------------------------------------------
// Inspection (borrowed; never consumes ownership)
// ---------------------------------------------------------------------------

// HasRefCount reports whether c owns a reference-counted heap object.
func (c Const) HasRefCount() bool { return c.Tag().HasRefCount() }

// IsNumber reports whether c is an inline integer or a float64.
func (c Const) IsNumber() bool {
	tag := c.Tag()
	return tag == TagInt || tag.IsFloat64()
}

// IsInt reports whether c is an inline integer.
func (c Const) IsInt() bool { return c.Tag() == TagInt }

// IsFloat reports whether c is a float64.
func (c Const) IsFloat() bool { return c.NormTag() == TagFloat64 }

// IsBigInt reports whether c is a big integer, in either the heap or the
// compact inline representation.
func (c Const) IsBigInt() bool {
	tag := c.Tag()
	return tag == TagBigInt || tag == TagShortBigInt
}

// IsShortBigInt reports whether c is the compact inline big-integer form.
// This is the only observable distinction between the two representations.
func (c Const) IsShortBigInt() bool { return c.Tag() == TagShortBigInt }

// IsBool reports whether c is a boolean.
func (c Const) IsBool() bool { return c.Tag() == TagBool }

// IsNull reports whether c is null.
func (c Const) IsNull() bool { return c.Tag() == TagNull }

// IsUndefined reports whether c is undefined.
func (c Const) IsUndefined() bool { return c.Tag() == TagUndefined }

// IsUninitialized reports whether c is the internal TDZ marker.
func (c Const) IsUninitialized() bool { return c.Tag() == TagUninitialized }

// IsException reports whether c is the distinguished failure marker.
func (c Const) IsException() bool { return c.Tag() == TagException }

// IsString reports whether c is a heap string.
func (c Const) IsString() bool { return c.Tag() == TagString }

// IsSymbol reports whether c is a symbol.
func (c Const) IsSymbol() bool { return c.Tag() == TagSymbol }

// IsObject reports whether c is a generic heap object.
func (c Const) IsObject() bool { return c.Tag() == TagObject }

// IsModule reports whether c is an internal module record.
func (c Const) IsModule() bool { return c.Tag() == TagModule }

// IsFunctionBytecode reports whether c is an internal compiled-function
// record.
func (c Const) IsFunctionBytecode() bool { return c.Tag() == TagFunctionBytecode }

// Bool returns the boolean payload. Only meaningful for TagBool.
func (c Const) Bool() bool { return c.Int32() != 0 }

// ShortBigInt returns the compact big-integer payload. Only meaningful
// for TagShortBigInt.
func (c Const) ShortBigInt() int32 { return c.Int32() }

// Number returns the numeric payload of an inline integer or float64.
// Panics if c is not a number.
func (c Const) Number() float64 {
	tag := c.Tag()
	if tag == TagInt {
		return float64(c.Int32())
	}
	if tag.IsFloat64() {
		return c.Float64()
	}
	panic("vm: Number called on non-number " + tag.String())
}

// TypeOf returns the tag class of c as a name: "number", "boolean",
// "null", "undefined", "string", "symbol", "object", "bigint" or
// "exception". Internal markers report their tag name.
func (c Const) TypeOf() string {
	switch tag := c.NormTag(); tag {
	case TagInt, TagFloat64:
		return "number"
	case TagBool:
		return "boolean"
	case TagBigInt, TagShortBigInt:
		return "bigint"
	case TagObject, TagModule, TagFunctionBytecode:
		return "object"
	default:
		return tag.String()
	}
}

// ---------------------------------------------------------------------------
// Equality
// ---------------------------------------------------------------------------

// StrictEq reports strict equality of two borrowed handles: numbers by
// numeric value (an inline integer equals the same-valued float; NaN is
// unequal to itself), reference-counted kinds by heap identity, every
// other inline kind by tag and payload. Big-integer equality across the
// inline/heap split needs the runtime; see Runtime.BigIntEqual.
func StrictEq(a, b Const) bool {
	at, bt := a.NormTag(), b.NormTag()
	if at == TagInt && bt == TagInt {
		return a.Int32() == b.Int32()
	}
	if (at == TagInt || at == TagFloat64) && (bt == TagInt || bt == TagFloat64) {
		return a.Number() == b.Number()
	}
	if at != bt {
		return false
	}
	if at.HasRefCount() {
		return a.Ref() == b.Ref()
	}
	return a.Int32() == b.Int32()
}
