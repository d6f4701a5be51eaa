package vm

// Tag identifies the kind of a Value.
//
// The numeric layout is load-bearing: every reference-counted tag is
// negative, so a single unsigned comparison against TagFirst separates
// the reference-counted kinds from the inline kinds on the release fast
// path. Under the NaN-boxed layout, every raw tag at or above TagFloat64
// is actually a float64 bit pattern, which is how the encoding reclaims
// the full 64-bit space.
type Tag int32

const (
	// Reference-counted tags. All negative; TagFirst is the lowest.
	TagFirst            Tag = -9
	TagBigInt           Tag = -9
	TagSymbol           Tag = -8
	TagString           Tag = -7
	TagModule           Tag = -3 // internal module record
	TagFunctionBytecode Tag = -2 // internal compiled-function record
	TagObject           Tag = -1

	// Inline tags. Never own heap memory.
	TagInt           Tag = 0
	TagBool          Tag = 1
	TagNull          Tag = 2
	TagUndefined     Tag = 3
	TagUninitialized Tag = 4 // TDZ marker
	TagCatchOffset   Tag = 5 // internal interpreter marker
	TagException     Tag = 6 // distinguished failure marker
	TagShortBigInt   Tag = 7 // big integer small enough for an inline payload
	TagFloat64       Tag = 8
)

// HasRefCount reports whether values carrying this tag own a heap object.
func (t Tag) HasRefCount() bool {
	first := int32(TagFirst)
	return uint32(t) >= uint32(first)
}

// IsFloat64 reports whether this raw tag denotes a float64 payload. Under
// the NaN-boxed layout any tag at or above TagFloat64 (in the unsigned
// distance from TagFirst) is a float; the other layouts only ever produce
// TagFloat64 itself, for which this test degenerates to equality.
func (t Tag) IsFloat64() bool {
	return uint32(t-TagFirst) >= uint32(TagFloat64-TagFirst)
}

// String returns a human-readable name for the tag.
func (t Tag) String() string {
	switch t {
	case TagBigInt:
		return "bigint"
	case TagSymbol:
		return "symbol"
	case TagString:
		return "string"
	case TagModule:
		return "module"
	case TagFunctionBytecode:
		return "function bytecode"
	case TagObject:
		return "object"
	case TagInt:
		return "int"
	case TagBool:
		return "bool"
	case TagNull:
		return "null"
	case TagUndefined:
		return "undefined"
	case TagUninitialized:
		return "uninitialized"
	case TagCatchOffset:
		return "catch offset"
	case TagException:
		return "exception"
	case TagShortBigInt:
		return "short bigint"
	default:
		if t.IsFloat64() {
			return "float64"
		}
		return "unknown"
	}
}

// RefID is a stable index into the runtime's heap arena. Reference-counted
// Values carry a RefID payload instead of a raw pointer, so all physical
// encodings share one payload model and the arena can be traversed by the
// cycle collector without dangling-pointer risk.
type RefID uint32

// refNull is the reserved invalid arena index.
const refNull RefID = 0
