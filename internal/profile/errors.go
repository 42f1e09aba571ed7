package profile

import "errors"

// Domain errors for the profile package.
var (
	// ErrNotFound is returned when a profile ID does not exist.
	ErrNotFound = errors.New("profile: not found")

	// ErrExists is returned when creating a profile with an ID that already exists.
	ErrExists = errors.New("profile: already exists")

	// ErrInvalid is returned when profile validation fails.
	ErrInvalid = errors.New("profile: invalid")
)
