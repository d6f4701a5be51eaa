package vm

// Context is a reference-counted execution scope attached to a Runtime.
// Each context owns a global object and a pending-exception register.
// Contexts on the same runtime see the same heap and atom table;
// isolation happens at the Runtime level, not here.
type Context struct {
	rt        *Runtime
	refCount  int32
	global    Value
	exception Value
	oomError  Value // preallocated so throwing it never allocates
	opaque    any
}

// NewContext creates a context with a fresh global object and a
// reference count of one.
func (rt *Runtime) NewContext() (*Context, error) {
	global, err := rt.NewObject()
	if err != nil {
		return nil, err
	}
	oom, err := rt.NewString("out of memory")
	if err != nil {
		rt.Free(global)
		return nil, err
	}
	rt.liveContexts++
	return &Context{
		rt:        rt,
		refCount:  1,
		global:    global,
		exception: Undefined,
		oomError:  oom,
	}, nil
}

// Runtime returns the owning runtime.
func (ctx *Context) Runtime() *Runtime { return ctx.rt }

// Dup increments the context's reference count and returns it.
func (ctx *Context) Dup() *Context {
	ctx.refCount++
	return ctx
}

// Free decrements the reference count. When it reaches zero the global
// object and any pending exception are released and the context detaches
// from its runtime.
func (ctx *Context) Free() {
	ctx.refCount--
	if ctx.refCount > 0 {
		return
	}
	if ctx.refCount < 0 {
		panic("vm: Context freed more often than duplicated")
	}
	ctx.rt.Free(ctx.global)
	ctx.global = Undefined
	ctx.rt.Free(ctx.exception)
	ctx.exception = Undefined
	ctx.rt.Free(ctx.oomError)
	ctx.oomError = Undefined
	ctx.rt.liveContexts--
	ctx.opaque = nil
}

// Global returns a borrowed reference to the context's global object.
func (ctx *Context) Global() Const {
	return ctx.global.Borrow()
}

// SetOpaque attaches a native payload to the context.
func (ctx *Context) SetOpaque(opaque any) { ctx.opaque = opaque }

// Opaque returns the native payload attached with SetOpaque.
func (ctx *Context) Opaque() any { return ctx.opaque }

// Throw records v as the pending exception, consuming it, and returns
// the Exception marker. A previously pending exception is replaced and
// released.
func (ctx *Context) Throw(v Value) Value {
	old := ctx.exception
	ctx.exception = v
	ctx.rt.Free(old)
	return Exception
}

// ThrowOutOfMemory records an out-of-memory condition as the pending
// exception. The error value was allocated up front, so this path never
// allocates.
func (ctx *Context) ThrowOutOfMemory() Value {
	return ctx.Throw(ctx.rt.Dup(ctx.oomError.Borrow()))
}

// HasException reports whether an exception is pending.
func (ctx *Context) HasException() bool {
	return !ctx.exception.Borrow().IsUndefined()
}

// TakeException returns the pending exception as an owning reference and
// clears the register, or Undefined when nothing is pending.
func (ctx *Context) TakeException() Value {
	e := ctx.exception
	ctx.exception = Undefined
	return e
}

// -----------------------------------------------------------------------
// Allocation conveniences. These forward to the runtime; on failure they
// record the error as a pending out-of-memory exception so call sites
// can test a single Exception result.
// -----------------------------------------------------------------------

// NewString allocates a string value; see Runtime.NewString.
func (ctx *Context) NewString(s string) Value {
	v, err := ctx.rt.NewString(s)
	if err != nil {
		return ctx.ThrowOutOfMemory()
	}
	return v
}

// NewObject creates a plain object; see Runtime.NewObject.
func (ctx *Context) NewObject() Value {
	v, err := ctx.rt.NewObject()
	if err != nil {
		return ctx.ThrowOutOfMemory()
	}
	return v
}

// NewSymbol creates a symbol; see Runtime.NewSymbol.
func (ctx *Context) NewSymbol(desc string) Value {
	v, err := ctx.rt.NewSymbol(desc)
	if err != nil {
		return ctx.ThrowOutOfMemory()
	}
	return v
}

// NewBigInt64 creates a big integer; see Runtime.NewBigInt64.
func (ctx *Context) NewBigInt64(n int64) Value {
	v, err := ctx.rt.NewBigInt64(n)
	if err != nil {
		return ctx.ThrowOutOfMemory()
	}
	return v
}

// DupValue forwards to Runtime.Dup.
func (ctx *Context) DupValue(c Const) Value { return ctx.rt.Dup(c) }

// FreeValue forwards to Runtime.Free.
func (ctx *Context) FreeValue(v Value) { ctx.rt.Free(v) }
