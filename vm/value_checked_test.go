//go:build corvid_checked

package vm

import "testing"

func TestCheckedTagRoundTrip(t *testing.T) {
	tags := []Tag{TagBigInt, TagSymbol, TagString, TagModule, TagFunctionBytecode,
		TagObject, TagInt, TagBool, TagNull, TagUndefined, TagUninitialized,
		TagCatchOffset, TagException, TagShortBigInt, TagFloat64}
	for _, tag := range tags {
		v := mkVal(tag, 0)
		if got := v.Borrow().Tag(); got != tag {
			t.Errorf("tag %d decodes as %d", tag, got)
		}
		if got := v.Borrow().Tag().HasRefCount(); got != tag.HasRefCount() {
			t.Errorf("tag %d: HasRefCount after round trip = %v, want %v",
				tag, got, tag.HasRefCount())
		}
	}
}

func TestCheckedPayloadRoundTrip(t *testing.T) {
	if got := mkVal(TagInt, -123).Borrow().Int32(); got != -123 {
		t.Errorf("Int32 payload = %d, want -123", got)
	}
	if got := mkRef(TagObject, 42).Borrow().Ref(); got != 42 {
		t.Errorf("Ref payload = %d, want 42", got)
	}
	if got := mkRef(TagBigInt, 7).Borrow().Ref(); got != 7 {
		t.Errorf("bigint Ref payload = %d, want 7", got)
	}
}
