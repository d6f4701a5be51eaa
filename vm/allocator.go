package vm

import "errors"

// ErrOutOfMemory is returned by every allocating operation once the
// configured byte budget would be exceeded. It surfaces at the allocation
// call site; nothing is partially constructed when it is returned.
var ErrOutOfMemory = errors.New("vm: out of memory")

// Allocator is the injectable memory-accounting policy for a runtime. The
// Go runtime performs the physical allocation; the Allocator decides
// whether the byte budget admits it and tracks usable sizes. All methods
// are called from the single mutator only.
type Allocator interface {
	// Allocate reserves size bytes, or returns ErrOutOfMemory.
	Allocate(size int) error
	// AllocateZeroed reserves count*size bytes, or returns ErrOutOfMemory.
	AllocateZeroed(count, size int) error
	// Reallocate adjusts a prior reservation from oldSize to newSize.
	Reallocate(oldSize, newSize int) error
	// Free returns size bytes to the budget.
	Free(size int)
	// UsableSize reports the accounted size for a requested size.
	UsableSize(size int) int
}

// budgetAllocator is the default Allocator: a plain byte budget with
// malloc-ish size rounding. A limit of 0 disables the budget.
type budgetAllocator struct {
	limit int64
	used  int64
}

// NewBudgetAllocator returns an Allocator enforcing the given byte limit.
// Use 0 for no limit.
func NewBudgetAllocator(limit int64) Allocator {
	return &budgetAllocator{limit: limit}
}

func (a *budgetAllocator) Allocate(size int) error {
	n := int64(a.UsableSize(size))
	if a.limit > 0 && a.used+n > a.limit {
		return ErrOutOfMemory
	}
	a.used += n
	return nil
}

func (a *budgetAllocator) AllocateZeroed(count, size int) error {
	if count > 0 && size > 0 && count > int(^uint(0)>>1)/size {
		return ErrOutOfMemory
	}
	return a.Allocate(count * size)
}

func (a *budgetAllocator) Reallocate(oldSize, newSize int) error {
	old, next := int64(a.UsableSize(oldSize)), int64(a.UsableSize(newSize))
	if a.limit > 0 && a.used-old+next > a.limit {
		return ErrOutOfMemory
	}
	a.used += next - old
	return nil
}

func (a *budgetAllocator) Free(size int) {
	a.used -= int64(a.UsableSize(size))
	if a.used < 0 {
		a.used = 0
	}
}

// UsableSize rounds up to the 16-byte granularity the accounting assumes.
func (a *budgetAllocator) UsableSize(size int) int {
	if size <= 0 {
		return 0
	}
	return (size + 15) &^ 15
}

func (a *budgetAllocator) setLimit(limit int64) { a.limit = limit }
