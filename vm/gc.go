package vm

import "time"

// The cycle collector is a trial-deletion trace over the live arena.
// Plain counting reclaims every acyclic structure; this pass exists only
// to break reference cycles. Three phases:
//
//  1. decref: every edge between arena objects decrements its target's
//     count. Counts now reflect external references only: references
//     held by contexts and native handles live outside the arena and are
//     never decremented.
//  2. scan: objects whose count stayed positive are roots. Everything
//     reachable from a root is marked black, and all counts removed in
//     phase 1 are restored, including those held by objects that stay
//     white. The traversal is iterative.
//  3. sweep: objects still white are unreachable despite their nonzero
//     stored counts (pure cycles). Each is finalized exactly once; edges
//     between condemned objects are dropped rather than followed, so no
//     finalizer ever touches an already-finalized peer.
//
// The pass runs only from RunGC or from the allocation-count threshold
// check at the start of heap-object construction, never from inside
// Dup, Free, or a mark callback.

// GCStats describes one collection pass.
type GCStats struct {
	Live     int           // live objects before the pass
	Freed    int           // objects reclaimed by the pass
	Duration time.Duration
	Runs     uint64 // total passes performed by this runtime
}

// maybeRunGC triggers a pass when the allocation-count threshold has been
// crossed. Called only at the safe point before a new object exists.
func (rt *Runtime) maybeRunGC() {
	if rt.gcThreshold > 0 && rt.allocsSinceGC >= rt.gcThreshold && !rt.inGC {
		rt.RunGC()
	}
}

// RunGC performs an immediate collection pass and returns its statistics.
// Must not be called from finalizers or mark callbacks.
func (rt *Runtime) RunGC() GCStats {
	if rt.inGC {
		panic("vm: reentrant collection pass")
	}
	rt.inGC = true
	start := time.Now()
	before := rt.liveCount

	rt.gcDecref()
	rt.gcScan()
	freed := rt.gcSweep()
	rt.gcReset()

	rt.allocsSinceGC = 0
	rt.gcRuns++
	rt.inGC = false

	stats := GCStats{
		Live:     before,
		Freed:    freed,
		Duration: time.Since(start),
		Runs:     rt.gcRuns,
	}
	if rt.dumpFlags&DumpGC != 0 {
		log.Infof("gc pass %d: %d live, %d freed in %s", stats.Runs, stats.Live, stats.Freed, stats.Duration)
	}
	return stats
}

// GCRuns returns the number of collection passes performed so far.
func (rt *Runtime) GCRuns() uint64 { return rt.gcRuns }

func (rt *Runtime) gcDecref() {
	rt.phase = gcPhaseDecref
	for ref := 1; ref < len(rt.slots); ref++ {
		if rt.slots[ref].live {
			rt.slots[ref].hdr.color = gcColorWhite
		}
	}
	for ref := 1; ref < len(rt.slots); ref++ {
		if !rt.slots[ref].live {
			continue
		}
		rt.markChildren(RefID(ref), func(_ *Runtime, v Const) {
			rt.header(v.Ref()).RefCount--
		})
	}
}

func (rt *Runtime) gcScan() {
	var stack []RefID
	for ref := 1; ref < len(rt.slots); ref++ {
		s := &rt.slots[ref]
		if s.live && s.hdr.color == gcColorWhite && s.hdr.RefCount > 0 {
			s.hdr.color = gcColorBlack
			stack = append(stack, RefID(ref))
		}
	}
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		rt.markChildren(ref, func(_ *Runtime, v Const) {
			h := rt.header(v.Ref())
			h.RefCount++ // restore the count removed in the decref phase
			if h.color == gcColorWhite {
				h.color = gcColorBlack
				stack = append(stack, v.Ref())
			}
		})
	}

	// Restore the counts held by the condemned objects as well, without
	// rescuing anything: the sweep releases their outgoing edges through
	// the normal path, and that decrement must cancel against a restored
	// count, not compound the one from the decref phase.
	for ref := 1; ref < len(rt.slots); ref++ {
		s := &rt.slots[ref]
		if !s.live || s.hdr.color != gcColorWhite {
			continue
		}
		rt.markChildren(RefID(ref), func(_ *Runtime, v Const) {
			rt.header(v.Ref()).RefCount++
		})
	}
}

func (rt *Runtime) gcSweep() int {
	rt.phase = gcPhaseRemoveCycles
	freed := 0
	for ref := 1; ref < len(rt.slots); ref++ {
		s := &rt.slots[ref]
		if !s.live || s.hdr.color != gcColorWhite {
			continue
		}
		if rt.dumpFlags&DumpGCFree != 0 {
			log.Debugf("gc free %s ref=%d class=%s count=%d",
				s.tag, ref, rt.ClassName(s.hdr.ClassID), s.hdr.RefCount)
		}
		rt.finalizeSlot(RefID(ref))
		freed++
	}
	rt.phase = gcPhaseNone
	return freed
}

func (rt *Runtime) gcReset() {
	for ref := 1; ref < len(rt.slots); ref++ {
		if rt.slots[ref].live {
			rt.slots[ref].hdr.color = gcColorNone
		}
	}
}

// markChildren invokes mark for every reference-counted Value the object
// at ref holds: the kind's own references plus, for objects, the user
// class's Mark hook.
func (rt *Runtime) markChildren(ref RefID, mark MarkFunc) {
	s := &rt.slots[ref]
	switch d := s.data.(type) {
	case *objectData:
		MarkValue(rt, d.proto.Borrow(), mark)
		for i := range d.props {
			MarkValue(rt, d.props[i].value.Borrow(), mark)
		}
		if e := rt.classes[s.hdr.ClassID]; e.registered && e.def.Mark != nil {
			e.def.Mark(rt, rt.slotValue(ref).Borrow(), mark)
		}
	case *moduleData:
		for i := range d.exports {
			MarkValue(rt, d.exports[i].value.Borrow(), mark)
		}
	case *funcBytecodeData:
		for i := range d.constants {
			MarkValue(rt, d.constants[i].Borrow(), mark)
		}
	}
}
