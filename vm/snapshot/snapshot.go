// Package snapshot captures a point-in-time image of a runtime's heap
// graph for offline inspection: every live object with its kind, class,
// reference count and outgoing edges, plus the memory accounting
// totals. Snapshots serialize to canonical CBOR for deterministic,
// diff-friendly encoding.
package snapshot

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/corvid-lang/corvid/vm"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Object is one live heap object in a snapshot. Children holds the
// arena indices of the objects it references, in mark order.
type Object struct {
	Ref      uint32   `cbor:"ref"`
	Tag      string   `cbor:"tag"`
	Class    string   `cbor:"class"`
	RefCount int32    `cbor:"refcount"`
	Size     int      `cbor:"size"`
	Children []uint32 `cbor:"children,omitempty"`
}

// Snapshot is a complete heap image.
type Snapshot struct {
	RuntimeID  string   `cbor:"runtime_id"`
	TakenAt    int64    `cbor:"taken_at"` // unix nanoseconds
	GCRuns     uint64   `cbor:"gc_runs"`
	AtomCount  int      `cbor:"atom_count"`
	MemoryUsed int64    `cbor:"memory_used"`
	Objects    []Object `cbor:"objects"`
}

// Capture walks the runtime's heap and returns its image. The runtime
// must not be mutated during the walk.
func Capture(rt *vm.Runtime) *Snapshot {
	u := rt.ComputeMemoryUsage()
	s := &Snapshot{
		RuntimeID:  rt.InstanceID(),
		TakenAt:    time.Now().UnixNano(),
		GCRuns:     rt.GCRuns(),
		AtomCount:  rt.AtomCount(),
		MemoryUsed: u.MemoryUsedSize,
	}
	rt.VisitHeap(func(o vm.HeapObject) {
		rec := Object{
			Ref:      uint32(o.Ref),
			Tag:      o.Tag.String(),
			Class:    o.ClassName,
			RefCount: o.RefCount,
			Size:     o.Size,
		}
		for _, c := range rt.ChildRefs(o.Ref) {
			rec.Children = append(rec.Children, uint32(c))
		}
		s.Objects = append(s.Objects, rec)
	})
	return s
}

// Marshal serializes a Snapshot to canonical CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return &s, nil
}
