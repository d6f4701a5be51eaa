package vm

import (
	"math"
	"testing"
)

// ---------------------------------------------------------------------------
// Float tests
// ---------------------------------------------------------------------------

func TestFloatRoundTrip(t *testing.T) {
	tests := []float64{
		0.0,
		-0.0,
		1.0,
		-1.0,
		3.14159265358979,
		-3.14159265358979,
		math.MaxFloat64,
		math.SmallestNonzeroFloat64,
		-math.MaxFloat64,
		-math.SmallestNonzeroFloat64,
		math.Inf(1),
		math.Inf(-1),
	}

	for _, f := range tests {
		v := FromFloat64(f)
		if !v.IsFloat() {
			t.Errorf("FromFloat64(%v).IsFloat() = false, want true", f)
			continue
		}
		got := v.Float64()
		if got != f {
			t.Errorf("FromFloat64(%v).Float64() = %v, want %v", f, got, f)
		}
	}
}

func TestNegativeZeroPreserved(t *testing.T) {
	v := FromFloat64(math.Copysign(0, -1))
	got := v.Float64()
	if got != 0 || !math.Signbit(got) {
		t.Errorf("negative zero round trip got %v (signbit %v)", got, math.Signbit(got))
	}
}

func TestNaNCanonicalized(t *testing.T) {
	// every NaN payload must collapse to the same canonical value
	payloads := []uint64{
		0x7ff8000000000000, // canonical quiet NaN
		0xfff8000000000000, // negative quiet NaN
		0x7ff0000000000001, // signaling NaN
		0x7fffffffffffffff, // max payload
		0xfff123456789abcd,
	}
	for _, bits := range payloads {
		v := FromFloat64(math.Float64frombits(bits))
		if !v.IsFloat() {
			t.Errorf("NaN %#x not a float", bits)
			continue
		}
		if !v.Borrow().IsNaN() {
			t.Errorf("NaN %#x: IsNaN() = false", bits)
		}
		got := math.Float64bits(v.Float64())
		if got != canonicalNaNBits {
			t.Errorf("NaN %#x round trip = %#x, want %#x", bits, got, canonicalNaNBits)
		}
	}
}

func TestNaNGlobal(t *testing.T) {
	if !NaN.Borrow().IsNaN() {
		t.Error("NaN.IsNaN() = false")
	}
	if !math.IsNaN(NaN.Float64()) {
		t.Error("NaN.Float64() is not NaN")
	}
}

// ---------------------------------------------------------------------------
// Inline value tests
// ---------------------------------------------------------------------------

func TestIntRoundTrip(t *testing.T) {
	tests := []int32{0, 1, -1, 42, -42, math.MaxInt32, math.MinInt32}
	for _, n := range tests {
		v := FromInt32(n)
		if !v.IsInt() {
			t.Errorf("FromInt32(%d).IsInt() = false", n)
		}
		if got := v.Int32(); got != n {
			t.Errorf("FromInt32(%d).Int32() = %d", n, got)
		}
	}
}

func TestBoolRoundTrip(t *testing.T) {
	if !FromBool(true).Bool() {
		t.Error("FromBool(true).Bool() = false")
	}
	if FromBool(false).Bool() {
		t.Error("FromBool(false).Bool() = true")
	}
	if !StrictEq(FromBool(true).Borrow(), True.Borrow()) {
		t.Error("FromBool(true) != True")
	}
	if !StrictEq(FromBool(false).Borrow(), False.Borrow()) {
		t.Error("FromBool(false) != False")
	}
}

func TestShortBigIntRoundTrip(t *testing.T) {
	tests := []int32{0, 1, -1, math.MaxInt32, math.MinInt32}
	for _, n := range tests {
		v := FromShortBigInt(n)
		if !v.IsShortBigInt() || !v.IsBigInt() {
			t.Errorf("FromShortBigInt(%d) type checks failed", n)
		}
		if got := v.ShortBigInt(); got != n {
			t.Errorf("FromShortBigInt(%d).ShortBigInt() = %d", n, got)
		}
	}
}

func TestCatchOffsetRoundTrip(t *testing.T) {
	v := FromCatchOffset(1234)
	if v.Tag() != TagCatchOffset {
		t.Errorf("tag = %v, want %v", v.Tag(), TagCatchOffset)
	}
	if got := v.Int32(); got != 1234 {
		t.Errorf("Int32() = %d, want 1234", got)
	}
}

func TestTypeCheckMatrix(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		tag  Tag
	}{
		{"null", Null, TagNull},
		{"undefined", Undefined, TagUndefined},
		{"true", True, TagBool},
		{"false", False, TagBool},
		{"uninitialized", Uninitialized, TagUninitialized},
		{"exception", Exception, TagException},
		{"int", FromInt32(7), TagInt},
		{"shortbigint", FromShortBigInt(7), TagShortBigInt},
		{"catchoffset", FromCatchOffset(7), TagCatchOffset},
	}
	for _, tc := range tests {
		if got := tc.v.Tag(); got != tc.tag {
			t.Errorf("%s: Tag() = %v, want %v", tc.name, got, tc.tag)
		}
		if tc.v.HasRefCount() {
			t.Errorf("%s: HasRefCount() = true", tc.name)
		}
	}

	if !Null.IsNull() || Null.IsUndefined() {
		t.Error("Null misclassified")
	}
	if !Undefined.IsUndefined() || Undefined.IsNull() {
		t.Error("Undefined misclassified")
	}
	if !Uninitialized.IsUninitialized() {
		t.Error("Uninitialized misclassified")
	}
	if !Exception.IsException() {
		t.Error("Exception misclassified")
	}
	if !FromInt32(1).IsNumber() || !FromFloat64(1.5).IsNumber() {
		t.Error("IsNumber misclassified")
	}
	if FromBool(true).IsNumber() {
		t.Error("bool counted as number")
	}
}

func TestFromInt64Selection(t *testing.T) {
	if v := FromInt64(42); !v.IsInt() || v.Int32() != 42 {
		t.Error("small int64 should use the int representation")
	}
	if v := FromInt64(math.MaxInt32 + 1); !v.IsFloat() || v.Float64() != float64(math.MaxInt32+1) {
		t.Error("large int64 should fall back to float")
	}
	if v := FromInt64(math.MinInt32 - 1); !v.IsFloat() {
		t.Error("negative out-of-range int64 should fall back to float")
	}
}

func TestFromUint32Selection(t *testing.T) {
	if v := FromUint32(7); !v.IsInt() {
		t.Error("small uint32 should use the int representation")
	}
	if v := FromUint32(math.MaxUint32); !v.IsFloat() || v.Float64() != float64(uint32(math.MaxUint32)) {
		t.Error("large uint32 should fall back to float")
	}
}

func TestFromNumberSelection(t *testing.T) {
	if v := FromNumber(3); !v.IsInt() || v.Int32() != 3 {
		t.Error("integral float should collapse to int")
	}
	if v := FromNumber(3.5); !v.IsFloat() {
		t.Error("fractional float must stay float")
	}
	// -0 is not representable as an int
	if v := FromNumber(math.Copysign(0, -1)); !v.IsFloat() || !math.Signbit(v.Float64()) {
		t.Error("negative zero must stay float")
	}
	if v := FromNumber(1e10); !v.IsFloat() {
		t.Error("out-of-range integral float must stay float")
	}
	if v := FromNumber(math.NaN()); !v.Borrow().IsNaN() {
		t.Error("NaN must stay float")
	}
}

func TestNumber(t *testing.T) {
	if got := FromInt32(-5).Number(); got != -5 {
		t.Errorf("Number() = %v, want -5", got)
	}
	if got := FromFloat64(2.5).Number(); got != 2.5 {
		t.Errorf("Number() = %v, want 2.5", got)
	}
}

// ---------------------------------------------------------------------------
// Strict equality
// ---------------------------------------------------------------------------

func TestStrictEqInline(t *testing.T) {
	if !StrictEq(FromInt32(3).Borrow(), FromInt32(3).Borrow()) {
		t.Error("equal ints not equal")
	}
	if StrictEq(FromInt32(3).Borrow(), FromInt32(4).Borrow()) {
		t.Error("distinct ints equal")
	}
	if !StrictEq(FromInt32(3).Borrow(), FromFloat64(3).Borrow()) {
		t.Error("int 3 and float 3 carry the same number")
	}
	if StrictEq(FromInt32(3).Borrow(), FromFloat64(3.5).Borrow()) {
		t.Error("3 equals 3.5")
	}
	if StrictEq(Null.Borrow(), Undefined.Borrow()) {
		t.Error("Null equals Undefined")
	}
	if StrictEq(NaN.Borrow(), NaN.Borrow()) {
		t.Error("NaN must not equal itself")
	}
	// but two -0 are the same handle
	nz := FromFloat64(math.Copysign(0, -1))
	if !StrictEq(nz.Borrow(), nz.Borrow()) {
		t.Error("-0 not equal to itself")
	}
}

func TestStrictEqHeap(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	a, err := rt.NewString("hello")
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Free(a)
	b := rt.Dup(a.Borrow())
	defer rt.Free(b)
	c, err := rt.NewString("hello")
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Free(c)

	if !StrictEq(a.Borrow(), b.Borrow()) {
		t.Error("dup of a string must compare equal to it")
	}
	if StrictEq(a.Borrow(), c.Borrow()) {
		t.Error("identity comparison must distinguish separate heap strings")
	}
}

func TestTypeOf(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	obj, err := rt.NewObject()
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Free(obj)

	tests := []struct {
		v    Const
		want string
	}{
		{FromInt32(1).Borrow(), "number"},
		{FromFloat64(1.5).Borrow(), "number"},
		{FromShortBigInt(1).Borrow(), "bigint"},
		{True.Borrow(), "boolean"},
		{Null.Borrow(), "null"},
		{Undefined.Borrow(), "undefined"},
		{obj.Borrow(), "object"},
	}
	for _, tc := range tests {
		if got := tc.v.TypeOf(); got != tc.want {
			t.Errorf("TypeOf(%v) = %q, want %q", tc.v.Tag(), got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Tag predicates
// ---------------------------------------------------------------------------

func TestTagHasRefCount(t *testing.T) {
	counted := []Tag{TagBigInt, TagSymbol, TagString, TagModule, TagFunctionBytecode, TagObject}
	for _, tag := range counted {
		if !tag.HasRefCount() {
			t.Errorf("%v.HasRefCount() = false", tag)
		}
	}
	inline := []Tag{TagInt, TagBool, TagNull, TagUndefined, TagUninitialized,
		TagCatchOffset, TagException, TagShortBigInt, TagFloat64}
	for _, tag := range inline {
		if tag.HasRefCount() {
			t.Errorf("%v.HasRefCount() = true", tag)
		}
	}
}

func TestTagIsFloat64(t *testing.T) {
	if !TagFloat64.IsFloat64() {
		t.Error("TagFloat64.IsFloat64() = false")
	}
	for _, tag := range []Tag{TagInt, TagObject, TagString, TagShortBigInt} {
		if tag.IsFloat64() {
			t.Errorf("%v.IsFloat64() = true", tag)
		}
	}
}
