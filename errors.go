package stratum

import (
	"github.com/featurebasedb/stratum/errors"
)

const (
	// ErrConflict marks a transient cross-session conflict: a concurrent
	// update, or a row that vanished between lookup and use. Retried inside
	// the executor until the session's lock timeout is spent.
	ErrConflict errors.Code = "Conflict"

	// ErrLockTimeout is a Conflict whose retry budget ran out. Terminal.
	ErrLockTimeout errors.Code = "LockTimeout"

	// ErrCancelled is a user-initiated cooperative cancellation. Terminal.
	ErrCancelled errors.Code = "Cancelled"

	// ErrOutOfResources marks an attempt that failed for lack of memory or
	// disk and may have partially mutated state; the database is shut down
	// before the error surfaces. Terminal.
	ErrOutOfResources errors.Code = "OutOfResources"

	// ErrDefinitionConflict marks a conflict against a schema change.
	// Terminal on first occurrence, regardless of retry budget.
	ErrDefinitionConflict errors.Code = "DefinitionConflict"

	// ErrDeadlock is classified as a generic failure but forces a full
	// session rollback instead of a savepoint rollback.
	ErrDeadlock errors.Code = "Deadlock"

	// ErrStatement wraps any unclassified failure, with the statement text
	// attached for diagnostics.
	ErrStatement errors.Code = "Statement"
)

// NewConcurrentUpdateError reports that another session modified a row this
// statement touched.
func NewConcurrentUpdateError(table string) error {
	return errors.Newf(ErrConflict, "concurrent update on table %s", table)
}

// NewRowVanishedError reports that a row found by a primary-key lookup or
// scheduled for delete disappeared before it could be used.
func NewRowVanishedError(table string) error {
	return errors.Newf(ErrConflict, "row vanished from table %s", table)
}

// NewCancelledError reports a cooperative cancellation.
func NewCancelledError() error {
	return errors.New(ErrCancelled, "statement cancelled")
}

// failureKind is the closed classification every storage-layer error maps
// onto. classify is total: anything unrecognized is generic.
type failureKind int

const (
	kindGeneric failureKind = iota
	kindConflict
	kindOutOfResources
	kindCancelled
	kindDefinitionConflict
)

func classify(err error) failureKind {
	switch {
	case errors.Is(err, ErrConflict):
		return kindConflict
	case errors.Is(err, ErrOutOfResources):
		return kindOutOfResources
	case errors.Is(err, ErrCancelled):
		return kindCancelled
	case errors.Is(err, ErrDefinitionConflict):
		return kindDefinitionConflict
	default:
		return kindGeneric
	}
}
