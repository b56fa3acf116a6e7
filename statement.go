package stratum

import (
	"time"
)

// Value is a parameter or column value. Equality between values is the
// session's business (ValuesEqual); the execution core never compares values
// itself.
type Value interface{}

// Result is a materialized or streaming result set, or an update count,
// produced by running a statement. The statement implementation owns the
// concrete type; the execution core only moves results around.
type Result interface {
	// Close releases the result's resources. Closing twice is allowed.
	Close() error

	// Open reports whether the result is still consumable.
	Open() bool

	// Clone returns a shallow copy sharing the underlying row storage but
	// with its own cursor state, positioned before the first row.
	Clone() Result

	// Streaming reports whether rows are produced lazily as the caller
	// consumes them. Completion hooks are deferred while a streaming result
	// is still open.
	Streaming() bool
}

// Table is the execution core's view of one table a statement reads: enough
// to detect staleness of a cached result.
type Table interface {
	Name() string

	// MaxModificationID returns the highest global modification id that
	// changed this table's data or metadata.
	MaxModificationID() int64

	// Deterministic reports whether reading the table twice without
	// intervening writes yields the same rows. Tables exposing live session
	// or random state return false.
	Deterministic() bool
}

// Savepoint is an opaque rollback token issued by a session.
type Savepoint interface{}

// Session is the per-connection state the executor needs: transaction
// control, the configured lock timeout, the cooperative cancel flag, and the
// engine's value equality semantics.
type Session interface {
	ID() uint64

	AutoCommit() bool

	// LockTimeout is the budget for retrying conflicting statements,
	// measured from the first observed conflict.
	LockTimeout() time.Duration

	// AddSavepoint captures a rollback point within the open transaction.
	AddSavepoint() (Savepoint, error)

	// RollbackTo undoes work back to a savepoint without aborting the
	// transaction.
	RollbackTo(sp Savepoint) error

	// Rollback aborts the whole transaction.
	Rollback() error

	Commit() error

	// Canceled reports the cooperative cancel flag. The flag may be set by
	// another goroutine at any time.
	Canceled() bool

	// Cancel sets the cooperative cancel flag.
	Cancel()

	// ClearCancel clears the flag; the executor clears it when it converts
	// the flag into a Cancelled error, so the next statement starts clean.
	ClearCancel()

	// ValuesEqual compares two values under the engine's equality semantics,
	// including value-type compatibility.
	ValuesEqual(a, b Value) bool
}

// DB is the database-wide state the executor consults: global modification
// counters, the exclusive-access gate, the power-off signal, and the
// emergency stop.
type DB interface {
	// DataModificationID is a monotonically increasing counter bumped on
	// every data change. Read without locks; an approximate snapshot is
	// fine because staleness comparisons are conservative.
	DataModificationID() int64

	// MetaModificationID is the same for schema changes.
	MetaModificationID() int64

	// WaitExclusive blocks while the database is in exclusive-access mode,
	// unless sess is the session holding it.
	WaitExclusive(sess Session)

	// CheckPowerOff returns a non-nil error when the database has tripped
	// its power-off signal and no further work may start.
	CheckPowerOff() error

	// ShutdownImmediately stops the database without cleanup. Called when a
	// failed attempt may have left partial state behind that must never
	// become visible.
	ShutdownImmediately()
}

// Statement is a prepared statement body. Preparation (parsing, compiling,
// plan materialization) happens upstream; the executor only drives Run to
// completion.
type Statement interface {
	// Text returns the statement's SQL text, for diagnostics only.
	Text() string

	IsQuery() bool
	IsTransactional() bool
	IsReadOnly() bool

	// IsDefinition reports whether the statement alters the schema. Fixed
	// at prepare time; definition statements are never retried.
	IsDefinition() bool

	// IsCompound reports a union-typed (multi-part) statement. Compound
	// statements bypass the result cache.
	IsCompound() bool

	Parameters() []Value

	// Tables returns every table the statement reads.
	Tables() []Table

	// Deterministic reports whether the statement is fully deterministic
	// and session-independent. Memoized by the result cache on first use.
	Deterministic() bool

	// Run performs one attempt of the statement. Implementations call
	// ec.Tick once per row scanned so long scans stay cancellable.
	Run(ec *ExecContext, limit int) (Result, error)
}
