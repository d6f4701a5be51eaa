package vm

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("corvid.vm")

// DumpFlags select which internal events the runtime reports through the
// logger. All dumps are off by default.
type DumpFlags uint32

const (
	DumpFree   DumpFlags = 1 << iota // every heap object release
	DumpGC                           // every collection pass
	DumpGCFree                       // objects reclaimed by the collector
	DumpLeaks                        // objects still live at Close
	DumpAtoms                        // atom table contents at Close
	DumpMem                          // memory usage at Close
)

// ParseDumpFlags converts flag names ("free", "gc", "gc-free", "leaks",
// "atoms", "mem") into a DumpFlags mask.
func ParseDumpFlags(names []string) (DumpFlags, error) {
	var flags DumpFlags
	for _, name := range names {
		switch strings.ToLower(name) {
		case "free":
			flags |= DumpFree
		case "gc":
			flags |= DumpGC
		case "gc-free":
			flags |= DumpGCFree
		case "leaks":
			flags |= DumpLeaks
		case "atoms":
			flags |= DumpAtoms
		case "mem":
			flags |= DumpMem
		default:
			return 0, fmt.Errorf("vm: unknown dump flag %q", name)
		}
	}
	return flags, nil
}

// noCopy makes `go vet` flag copies of the containing struct.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

type gcPhase uint8

const (
	gcPhaseNone gcPhase = iota
	gcPhaseDecref
	gcPhaseRemoveCycles
)

type gcColor uint8

const (
	gcColorNone  gcColor = iota
	gcColorWhite         // reclamation candidate during a pass
	gcColorBlack         // proven reachable during a pass
)

// Header is the common prefix of every reference-counted heap object: the
// live count, the kind discriminant and the collector's color byte.
type Header struct {
	RefCount int32
	ClassID  ClassID
	color    gcColor
}

// slot is one arena cell. A live slot owns exactly one heap object; dead
// slots sit on the free list for reuse with the same RefID.
type slot struct {
	hdr  Header
	tag  Tag
	live bool
	size int // bytes accounted against the allocator
	data any
}

// DefaultGCThreshold is the allocation count between automatic collection
// passes. Use SetGCThreshold(0) to disable automatic collection.
const DefaultGCThreshold = 4096

// Runtime owns one heap: the object arena, the atom table, the class
// registry and the allocator. It is the unit of isolation: independent
// runtimes share nothing and may live on different goroutines, but a
// single Runtime is strictly single-mutator: the caller must serialize
// all operations on it and on every Context attached to it. The noCopy
// marker makes accidental copies a vet error.
type Runtime struct {
	noCopy noCopy

	id    string
	alloc Allocator

	slots     []slot
	freeSlots []RefID
	liveCount int

	allocsSinceGC int
	gcThreshold   int
	gcRuns        uint64
	inGC          bool
	phase         gcPhase

	// iterative release machinery; see Free
	freeing     bool
	pendingFree []RefID

	classes     []classEntry
	nextClassID ClassID

	atoms atomTable

	weakRefs map[RefID][]*WeakRef

	liveContexts int

	memUsed  int64
	memCount int64
	memLimit int64

	dumpFlags  DumpFlags
	finalizers []func(*Runtime)
	opaque     any
}

// NewRuntime creates a runtime with the default budget allocator and no
// memory limit.
func NewRuntime() *Runtime {
	return NewRuntimeWithAllocator(NewBudgetAllocator(0))
}

// NewRuntimeWithAllocator creates a runtime using the given allocation
// policy. The allocator must not be shared between runtimes.
func NewRuntimeWithAllocator(alloc Allocator) *Runtime {
	rt := &Runtime{
		id:          uuid.NewString(),
		alloc:       alloc,
		slots:       make([]slot, 1), // slot 0 reserved as refNull
		gcThreshold: DefaultGCThreshold,
		weakRefs:    make(map[RefID][]*WeakRef),
	}
	rt.registerBuiltinClasses()
	rt.atoms.init()
	return rt
}

// InstanceID returns the unique identifier of this runtime instance, used
// to correlate log lines and snapshots.
func (rt *Runtime) InstanceID() string { return rt.id }

// SetMemoryLimit sets the byte budget. 0 disables the limit. Only
// effective for allocators supporting it; the default one does.
func (rt *Runtime) SetMemoryLimit(limit int64) {
	rt.memLimit = limit
	if a, ok := rt.alloc.(interface{ setLimit(int64) }); ok {
		a.setLimit(limit)
	}
}

// SetGCThreshold sets the number of heap-object allocations between
// automatic collection passes. 0 disables automatic collection.
func (rt *Runtime) SetGCThreshold(n int) { rt.gcThreshold = n }

// GCThreshold returns the current automatic collection threshold.
func (rt *Runtime) GCThreshold() int { return rt.gcThreshold }

// SetDumpFlags selects which internal events are logged.
func (rt *Runtime) SetDumpFlags(flags DumpFlags) { rt.dumpFlags = flags }

// GetDumpFlags returns the current dump flag mask.
func (rt *Runtime) GetDumpFlags() DumpFlags { return rt.dumpFlags }

// SetOpaque attaches caller data to the runtime.
func (rt *Runtime) SetOpaque(opaque any) { rt.opaque = opaque }

// Opaque returns the data attached with SetOpaque.
func (rt *Runtime) Opaque() any { return rt.opaque }

// AddFinalizer registers fn to run at the very end of Close, in LIFO
// order. Intended for cleanup of resources associated with the runtime;
// the runtime is no longer usable when fn runs.
func (rt *Runtime) AddFinalizer(fn func(*Runtime)) {
	rt.finalizers = append(rt.finalizers, fn)
}

// Close tears the runtime down: runs a final collection pass, reports
// leaked objects and atoms according to the dump flags, and runs the
// registered finalizers in LIFO order. The runtime must not be used
// afterwards. Contexts still attached at Close are a caller bug and are
// logged.
func (rt *Runtime) Close() {
	rt.RunGC()

	if rt.liveContexts > 0 {
		log.Warningf("runtime %s closed with %d live context(s)", rt.id, rt.liveContexts)
	}
	if rt.liveCount > 0 && rt.dumpFlags&DumpLeaks != 0 {
		for ref := range rt.slots {
			s := &rt.slots[ref]
			if s.live {
				log.Warningf("leaked %s (class %s, ref %d, count %d)",
					s.tag, rt.ClassName(s.hdr.ClassID), ref, s.hdr.RefCount)
			}
		}
	}
	if rt.dumpFlags&DumpAtoms != 0 {
		rt.atoms.dump()
	}
	if rt.dumpFlags&DumpMem != 0 {
		u := rt.ComputeMemoryUsage()
		log.Infof("memory at close: %s", u)
	}

	for i := len(rt.finalizers) - 1; i >= 0; i-- {
		rt.finalizers[i](rt)
	}
	rt.finalizers = nil
}

// ---------------------------------------------------------------------------
// Arena
// ---------------------------------------------------------------------------

// allocSlot reserves budget and an arena cell for a new heap object. The
// collection threshold is checked before anything is built, so a pass
// triggered here can never observe a half-constructed object.
func (rt *Runtime) allocSlot(tag Tag, classID ClassID, size int, data any) (RefID, error) {
	rt.maybeRunGC()

	if err := rt.alloc.Allocate(size); err != nil {
		return refNull, err
	}

	var ref RefID
	if n := len(rt.freeSlots); n > 0 {
		ref = rt.freeSlots[n-1]
		rt.freeSlots = rt.freeSlots[:n-1]
	} else {
		rt.slots = append(rt.slots, slot{})
		ref = RefID(len(rt.slots) - 1)
	}

	rt.slots[ref] = slot{
		hdr:  Header{RefCount: 1, ClassID: classID},
		tag:  tag,
		live: true,
		size: size,
		data: data,
	}
	rt.liveCount++
	rt.allocsSinceGC++
	rt.memUsed += int64(rt.alloc.UsableSize(size))
	rt.memCount++
	return ref, nil
}

// recycleSlot returns a finalized slot's budget and cell. The caller has
// already released the object's children.
func (rt *Runtime) recycleSlot(ref RefID) {
	s := &rt.slots[ref]
	rt.alloc.Free(s.size)
	rt.memUsed -= int64(rt.alloc.UsableSize(s.size))
	rt.memCount--
	rt.liveCount--
	*s = slot{}
	rt.freeSlots = append(rt.freeSlots, ref)
}

// resizeSlot adjusts the accounted size of a live slot, for payloads that
// grow after construction.
func (rt *Runtime) resizeSlot(ref RefID, size int) error {
	s := &rt.slots[ref]
	if err := rt.alloc.Reallocate(s.size, size); err != nil {
		return err
	}
	rt.memUsed += int64(rt.alloc.UsableSize(size) - rt.alloc.UsableSize(s.size))
	s.size = size
	return nil
}

func (rt *Runtime) header(ref RefID) *Header { return &rt.slots[ref].hdr }

// slotValue rebuilds the owning-shaped handle for a live slot. Borrowed
// unless the caller pairs it with a count increment.
func (rt *Runtime) slotValue(ref RefID) Value { return mkRef(rt.slots[ref].tag, ref) }

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

// IsLiveObject reports whether the heap object behind c has not been
// reclaimed. Diagnostic only: a true result is stale as soon as the
// caller releases anything. c is borrowed.
func (rt *Runtime) IsLiveObject(c Const) bool {
	if !c.Tag().HasRefCount() {
		return false
	}
	ref := c.Ref()
	return int(ref) < len(rt.slots) && rt.slots[ref].live
}

// RefCountOf returns the stored live count of the heap object behind c,
// or 0 for inline values. Diagnostic only. c is borrowed.
func (rt *Runtime) RefCountOf(c Const) int32 {
	if !rt.IsLiveObject(c) {
		return 0
	}
	return rt.slots[c.Ref()].hdr.RefCount
}

// HeapObject describes one live arena object for heap iteration.
type HeapObject struct {
	Ref       RefID
	Tag       Tag
	Class     ClassID
	ClassName string
	RefCount  int32
	Size      int
}

// VisitHeap calls fn for every live heap object. fn must not allocate,
// release values, or run the collector.
func (rt *Runtime) VisitHeap(fn func(HeapObject)) {
	for ref := 1; ref < len(rt.slots); ref++ {
		s := &rt.slots[ref]
		if !s.live {
			continue
		}
		fn(HeapObject{
			Ref:       RefID(ref),
			Tag:       s.tag,
			Class:     s.hdr.ClassID,
			ClassName: rt.ClassName(s.hdr.ClassID),
			RefCount:  s.hdr.RefCount,
			Size:      s.size,
		})
	}
}

// ChildRefs returns the arena indices of every heap object directly
// referenced by the object at ref, via the same mark dispatch the
// collector uses. Diagnostic only.
func (rt *Runtime) ChildRefs(ref RefID) []RefID {
	if int(ref) >= len(rt.slots) || !rt.slots[ref].live {
		return nil
	}
	var children []RefID
	rt.markChildren(ref, func(_ *Runtime, v Const) {
		children = append(children, v.Ref())
	})
	return children
}
