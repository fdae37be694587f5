package domain

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError is returned when an entity lookup misses.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// DuplicateIDError is returned when a create reuses an existing identifier.
type DuplicateIDError struct {
	Entity EntityType
	ID     string
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.ID)
}

// InvalidReferenceError is returned when a create or update carries a
// reference that does not resolve to an existing entity.
type InvalidReferenceError struct {
	Entity EntityType // kind holding the reference
	ID     string     // id of the referencing entity, may be empty on create
	Ref    EntityType // kind being referenced
	RefID  string     // dangling identifier
}

func (e InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s %q references unknown %s %q", e.Entity, e.ID, e.Ref, e.RefID)
}

// MalformedIntervalError is returned when a timeslot's start is not strictly
// before its end.
type MalformedIntervalError struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (e MalformedIntervalError) Error() string {
	return fmt.Sprintf("malformed interval: start %s not before end %s", e.Start, e.End)
}

// ReferencedError blocks a delete while dependent surgeries still reference
// the entity. DependentIDs lists the blocking surgery identifiers so callers
// can surface them for resolution.
type ReferencedError struct {
	Entity       EntityType
	ID           string
	DependentIDs []string
}

func (e ReferencedError) Error() string {
	return fmt.Sprintf("%s %q is referenced by existing entities: %s",
		e.Entity, e.ID, strings.Join(e.DependentIDs, ", "))
}

// ErrNoneAvailable is returned by slot suggestion when no candidate fits.
var ErrNoneAvailable = errors.New("no free timeslot available")

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
