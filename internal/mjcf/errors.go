package mjcf

import (
	"errors"
	"fmt"
)

// Patch errors.
var (
	// ErrAnchorNotFound is returned when an injection anchor matches no element.
	ErrAnchorNotFound = errors.New("anchor not found")

	// ErrAmbiguousAnchor is returned when an injection anchor matches more than one element.
	ErrAmbiguousAnchor = errors.New("anchor is ambiguous")

	// ErrTooManyGeoms is returned when a body has more geoms than there are labels to name them.
	ErrTooManyGeoms = errors.New("body has more geoms than labels")
)

// AnchorNotFoundError names the anchor that matched nothing.
type AnchorNotFoundError struct {
	Tag string
}

func (e *AnchorNotFoundError) Error() string {
	return fmt.Sprintf("anchor <%s> not found", e.Tag)
}

func (e *AnchorNotFoundError) Is(target error) bool {
	return target == ErrAnchorNotFound
}

// AmbiguousAnchorError names the anchor and how many elements it matched.
type AmbiguousAnchorError struct {
	Tag   string
	Count int
}

func (e *AmbiguousAnchorError) Error() string {
	return fmt.Sprintf("anchor <%s> is ambiguous: %d matches, want exactly 1", e.Tag, e.Count)
}

func (e *AmbiguousAnchorError) Is(target error) bool {
	return target == ErrAmbiguousAnchor
}
