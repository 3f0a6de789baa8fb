// Package apperr defines the error values shared across layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNoActiveTab    = errors.New("no active tab")
	ErrSaveInProgress = errors.New("save already in progress")
	ErrCycle          = errors.New("location hierarchy cycle")
	ErrReferenced     = errors.New("entity is still referenced")
)

// ReferencedError rejects deleting an entity that documents still reference.
type ReferencedError struct {
	Kind  string
	ID    string
	Count int
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("%s %s is referenced by %d document(s)", e.Kind, e.ID, e.Count)
}

// Is makes errors.Is(err, ErrReferenced) match.
func (e *ReferencedError) Is(target error) bool {
	return target == ErrReferenced
}
