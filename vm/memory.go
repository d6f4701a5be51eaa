package vm

import (
	"fmt"
	"strings"
)

// MemoryUsage is a point-in-time accounting of a runtime's heap, broken
// down by object kind. Sizes are the bytes charged to the allocator,
// including its rounding.
type MemoryUsage struct {
	MemoryUsedSize  int64
	MemoryUsedCount int64
	MallocLimit     int64

	ObjectCount   int64
	ObjectSize    int64
	PropertyCount int64

	StringCount int64
	StringSize  int64

	SymbolCount int64
	SymbolSize  int64

	BigIntCount int64
	BigIntSize  int64

	ModuleCount int64
	ModuleSize  int64

	FunctionCount int64
	FunctionSize  int64

	AtomCount int64
	AtomSize  int64
}

// ComputeMemoryUsage walks the arena and the atom table. The runtime
// must not be mutated during the walk.
func (rt *Runtime) ComputeMemoryUsage() MemoryUsage {
	u := MemoryUsage{
		MemoryUsedSize:  rt.memUsed,
		MemoryUsedCount: rt.memCount,
		MallocLimit:     rt.memLimit,
		AtomCount:       int64(rt.atoms.liveCount()),
		AtomSize:        rt.atoms.byteSize(),
	}
	for ref := 1; ref < len(rt.slots); ref++ {
		s := &rt.slots[ref]
		if !s.live {
			continue
		}
		size := int64(rt.alloc.UsableSize(s.size))
		switch d := s.data.(type) {
		case *objectData:
			u.ObjectCount++
			u.ObjectSize += size
			u.PropertyCount += int64(len(d.props))
		case *stringData:
			u.StringCount++
			u.StringSize += size
		case *symbolData:
			u.SymbolCount++
			u.SymbolSize += size
		case *bigIntData:
			u.BigIntCount++
			u.BigIntSize += size
		case *moduleData:
			u.ModuleCount++
			u.ModuleSize += size
		case *funcBytecodeData:
			u.FunctionCount++
			u.FunctionSize += size
		}
	}
	return u
}

// String renders the usage report, one kind per line.
func (u MemoryUsage) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "memory used: %d bytes in %d block(s)", u.MemoryUsedSize, u.MemoryUsedCount)
	if u.MallocLimit > 0 {
		fmt.Fprintf(&b, " (limit %d)", u.MallocLimit)
	}
	line := func(name string, count, size int64) {
		if count > 0 {
			fmt.Fprintf(&b, "\n  %-10s %6d  %8d bytes", name, count, size)
		}
	}
	line("objects", u.ObjectCount, u.ObjectSize)
	if u.PropertyCount > 0 {
		fmt.Fprintf(&b, "\n  %-10s %6d", "properties", u.PropertyCount)
	}
	line("strings", u.StringCount, u.StringSize)
	line("symbols", u.SymbolCount, u.SymbolSize)
	line("bigints", u.BigIntCount, u.BigIntSize)
	line("modules", u.ModuleCount, u.ModuleSize)
	line("functions", u.FunctionCount, u.FunctionSize)
	line("atoms", u.AtomCount, u.AtomSize)
	return b.String()
}

// MemoryUsed returns the bytes currently charged to the allocator.
func (rt *Runtime) MemoryUsed() int64 { return rt.memUsed }

// LiveObjectCount returns the number of live arena objects.
func (rt *Runtime) LiveObjectCount() int { return rt.liveCount }
