package vm

import "math/big"

// Big integers have two bit-compatible representations: the compact
// inline form (TagShortBigInt, 32-bit payload, no heap allocation) and
// the heap form over math/big. Construction and arithmetic normalize
// transparently: results that fit the inline range come back inline,
// larger ones are promoted to the heap. Every operation here accepts
// either form, so callers cannot tell them apart except through the
// explicit IsShortBigInt query.

// bigIntData is the payload of a heap big integer. The stored value is
// never mutated after construction.
type bigIntData struct {
	i *big.Int
}

const bigIntBaseSize = 48

// NewBigInt64 returns the big-integer Value for n, inline when it fits.
// The result is owning.
func (rt *Runtime) NewBigInt64(n int64) (Value, error) {
	if n >= -1<<31 && n <= 1<<31-1 {
		return FromShortBigInt(int32(n)), nil
	}
	return rt.newHeapBigInt(big.NewInt(n))
}

// NewBigUint64 returns the big-integer Value for n, inline when it fits.
// The result is owning.
func (rt *Runtime) NewBigUint64(n uint64) (Value, error) {
	if n <= 1<<31-1 {
		return FromShortBigInt(int32(n)), nil
	}
	return rt.newHeapBigInt(new(big.Int).SetUint64(n))
}

// NewBigInt returns the big-integer Value for i, copying it. The result
// is owning.
func (rt *Runtime) NewBigInt(i *big.Int) (Value, error) {
	if i.IsInt64() {
		if n := i.Int64(); n >= -1<<31 && n <= 1<<31-1 {
			return FromShortBigInt(int32(n)), nil
		}
	}
	return rt.newHeapBigInt(new(big.Int).Set(i))
}

func (rt *Runtime) newHeapBigInt(i *big.Int) (Value, error) {
	size := bigIntBaseSize + len(i.Bits())*8
	ref, err := rt.allocSlot(TagBigInt, ClassBigInt, size, &bigIntData{i: i})
	if err != nil {
		return Exception, err
	}
	return mkRef(TagBigInt, ref), nil
}

// ToBigInt returns the numeric value of a big integer in either
// representation, as a copy the caller may mutate. ok is false when c is
// not a big integer. c is borrowed.
func (rt *Runtime) ToBigInt(c Const) (*big.Int, bool) {
	switch c.Tag() {
	case TagShortBigInt:
		return big.NewInt(int64(c.ShortBigInt())), true
	case TagBigInt:
		if !rt.IsLiveObject(c) {
			return nil, false
		}
		return new(big.Int).Set(rt.slots[c.Ref()].data.(*bigIntData).i), true
	default:
		return nil, false
	}
}

// bigIntView avoids the defensive copy for internal read-only use.
func (rt *Runtime) bigIntView(c Const) (*big.Int, bool) {
	switch c.Tag() {
	case TagShortBigInt:
		return big.NewInt(int64(c.ShortBigInt())), true
	case TagBigInt:
		if !rt.IsLiveObject(c) {
			return nil, false
		}
		return rt.slots[c.Ref()].data.(*bigIntData).i, true
	default:
		return nil, false
	}
}

// BigIntEqual reports numeric equality of two big integers, independent
// of representation. Both arguments are borrowed.
func (rt *Runtime) BigIntEqual(a, b Const) bool {
	return rt.BigIntCmp(a, b) == 0
}

// BigIntCmp compares two big integers numerically (-1, 0, +1),
// independent of representation. Both arguments are borrowed.
func (rt *Runtime) BigIntCmp(a, b Const) int {
	if a.Tag() == TagShortBigInt && b.Tag() == TagShortBigInt {
		av, bv := a.ShortBigInt(), b.ShortBigInt()
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
	av, aok := rt.bigIntView(a)
	bv, bok := rt.bigIntView(b)
	if !aok || !bok {
		panic("vm: BigIntCmp on non-bigint")
	}
	return av.Cmp(bv)
}

// BigIntAdd returns a + b, normalized: inline when the sum fits, heap
// otherwise. Both arguments are borrowed; the result is owning.
func (rt *Runtime) BigIntAdd(a, b Const) (Value, error) {
	if a.Tag() == TagShortBigInt && b.Tag() == TagShortBigInt {
		// 32-bit operands cannot overflow int64
		return rt.NewBigInt64(int64(a.ShortBigInt()) + int64(b.ShortBigInt()))
	}
	av, aok := rt.bigIntView(a)
	bv, bok := rt.bigIntView(b)
	if !aok || !bok {
		return Exception, ErrNotBigInt
	}
	return rt.NewBigInt(new(big.Int).Add(av, bv))
}

// BigIntMul returns a * b, normalized like BigIntAdd. Both arguments are
// borrowed; the result is owning.
func (rt *Runtime) BigIntMul(a, b Const) (Value, error) {
	if a.Tag() == TagShortBigInt && b.Tag() == TagShortBigInt {
		return rt.NewBigInt64(int64(a.ShortBigInt()) * int64(b.ShortBigInt()))
	}
	av, aok := rt.bigIntView(a)
	bv, bok := rt.bigIntView(b)
	if !aok || !bok {
		return Exception, ErrNotBigInt
	}
	return rt.NewBigInt(new(big.Int).Mul(av, bv))
}

// BigIntNeg returns -a, normalized. a is borrowed; the result is owning.
func (rt *Runtime) BigIntNeg(a Const) (Value, error) {
	av, ok := rt.bigIntView(a)
	if !ok {
		return Exception, ErrNotBigInt
	}
	return rt.NewBigInt(new(big.Int).Neg(av))
}

// BigIntString formats a big integer in base 10, independent of
// representation. a is borrowed.
func (rt *Runtime) BigIntString(a Const) string {
	av, ok := rt.bigIntView(a)
	if !ok {
		return ""
	}
	return av.String()
}
