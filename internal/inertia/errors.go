package inertia

import (
	"errors"
	"fmt"
)

// ErrUnsupportedShapeKind is matched by every UnsupportedShapeKindError.
var ErrUnsupportedShapeKind = errors.New("unsupported shape kind")

// UnsupportedShapeKindError names the shape kind that is not cuboid, sphere, cylinder or ellipsoid.
type UnsupportedShapeKindError struct {
	Kind string
}

func (e *UnsupportedShapeKindError) Error() string {
	return fmt.Sprintf("unsupported shape kind %q (want one of %v)", e.Kind, Kinds)
}

// Is lets errors.Is match the sentinel.
func (e *UnsupportedShapeKindError) Is(target error) bool {
	return target == ErrUnsupportedShapeKind
}
