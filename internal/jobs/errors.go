package jobs

import "errors"

var (
	// ErrNotFound marks an unknown job id or a not-yet-produced artifact.
	ErrNotFound = errors.New("job not found")
	// ErrAlreadyExists marks a job id collision. Identifiers are random
	// UUIDs, so hitting this means an invariant was violated upstream.
	ErrAlreadyExists = errors.New("job already exists")
)
