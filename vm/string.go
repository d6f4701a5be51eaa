package vm

// stringData is the payload of a heap string. Go strings are immutable,
// so the view handed out by StringView stays valid for the object's
// lifetime.
type stringData struct {
	str string
}

const stringBaseSize = 32

// NewString allocates a heap string. The result is owning.
func (rt *Runtime) NewString(s string) (Value, error) {
	ref, err := rt.allocSlot(TagString, ClassString, stringBaseSize+len(s), &stringData{str: s})
	if err != nil {
		return Exception, err
	}
	return mkRef(TagString, ref), nil
}

// StringView returns the text of a heap string as a borrowed view, valid
// while the caller's reference is. ok is false when c is not a live
// string. c is borrowed.
func (rt *Runtime) StringView(c Const) (string, bool) {
	if c.Tag() != TagString || !rt.IsLiveObject(c) {
		return "", false
	}
	return rt.slots[c.Ref()].data.(*stringData).str, true
}

// StringLen returns the byte length of a heap string, or 0 when c is not
// one. c is borrowed.
func (rt *Runtime) StringLen(c Const) int {
	s, _ := rt.StringView(c)
	return len(s)
}
