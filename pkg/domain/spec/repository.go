package spec

import "errors"

// ErrNotFound is returned by LoadSpec when no specification has been saved.
var ErrNotFound = errors.New("no specification found")

// Repository handles persistence of specifications. It is implemented
// outside the compiler, which only ever reads a snapshot.
type Repository interface {
	SaveSpec(s *Specification) error
	LoadSpec() (*Specification, error)
}
