package tree

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. Each typed error below unwraps to one.
var (
	ErrDanglingParent   = errors.New("dangling parent")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrNotFound         = errors.New("node not found")
	ErrCycle            = errors.New("parent cycle")
	ErrLocationNotClean = errors.New("location not clean")
	ErrPathConflict     = errors.New("path conflict")
)

// DanglingParentError reports a record whose parent id is not in the input.
type DanglingParentError struct {
	ID       int
	ParentID int
}

func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("node %d: parent %d does not exist", e.ID, e.ParentID)
}

func (e *DanglingParentError) Unwrap() error { return ErrDanglingParent }

// DuplicateIDError reports two records sharing an id.
type DuplicateIDError struct {
	ID int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate node id %d", e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

// NotFoundError reports a Trunk query for an unknown id.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CycleError reports a parent chain that leads back to itself.
type CycleError struct {
	ID int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("node %d: parent chain forms a cycle", e.ID)
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// LocationNotCleanError is returned when the imprint root already has content.
// Its message is meant for the operator.
type LocationNotCleanError struct {
	Dir string
}

func (e *LocationNotCleanError) Error() string {
	return fmt.Sprintf("%s contains files.\nTry another --target, or delete them.", e.Dir)
}

func (e *LocationNotCleanError) Unwrap() error { return ErrLocationNotClean }

// PathConflictError reports two nodes rendering to the same path.
type PathConflictError struct {
	Path   string
	First  int
	Second int
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("nodes %d and %d both render to %s", e.First, e.Second, e.Path)
}

func (e *PathConflictError) Unwrap() error { return ErrPathConflict }
