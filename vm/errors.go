package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotObject is returned by object operations applied to a Value
	// that is not a live generic object.
	ErrNotObject = errors.New("vm: not an object")

	// ErrNotModule is returned by module operations applied to a Value
	// that is not a live module record.
	ErrNotModule = errors.New("vm: not a module")

	// ErrNotBigInt is returned by big-integer operations applied to a
	// Value that is not a big integer in either representation.
	ErrNotBigInt = errors.New("vm: not a bigint")
)

func errAtomConversion(tag Tag) error {
	return fmt.Errorf("vm: cannot convert %s to atom", tag)
}
