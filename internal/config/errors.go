package config

import "errors"

// Configuration errors.
var (
	// ErrInvalidConfig is returned when the tool config fails validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidObjectSet is returned when the object-set file fails validation.
	ErrInvalidObjectSet = errors.New("invalid object set")

	// ErrInvalidAlign is returned when an inertial alignment is not a permutation of x, y, z.
	ErrInvalidAlign = errors.New("alignment must be a permutation of x, y, z")
)
