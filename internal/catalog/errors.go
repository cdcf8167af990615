package catalog

import (
	"errors"
	"fmt"
)

// Catalog errors.
var (
	// ErrEmptyCatalog is returned when no included entry produced a variant.
	ErrEmptyCatalog = errors.New("catalog is empty: no object-set entry has include: true")

	// ErrUnknownSpawnAxis is matched by every UnknownSpawnAxisError.
	ErrUnknownSpawnAxis = errors.New("unknown spawn axis")

	// ErrDuplicateName is matched by every DuplicateNameError.
	ErrDuplicateName = errors.New("duplicate variant name")
)

// UnknownSpawnAxisError names an entry's spawn axis that is not x, y or z.
type UnknownSpawnAxisError struct {
	Entry string
	Axis  string
}

func (e *UnknownSpawnAxisError) Error() string {
	return fmt.Sprintf("entry %q: spawn axis %q is not one of x, y, z", e.Entry, e.Axis)
}

func (e *UnknownSpawnAxisError) Is(target error) bool {
	return target == ErrUnknownSpawnAxis
}

// DuplicateNameError reports two variants that would share a name.
type DuplicateNameError struct {
	Name string
	// First and Second are the positions of the colliding variants.
	First, Second int
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("variant name %q generated twice (positions %d and %d)", e.Name, e.First, e.Second)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}
