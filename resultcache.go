package stratum

import (
	"context"
)

// ResultCache memoizes the last result of one prepared statement so an
// unchanged deterministic query can skip re-execution. Each prepared
// statement owns one ResultCache; like the statement itself, it is used by a
// single session at a time and needs no locking of its own.
type ResultCache struct {
	exec *Executor
	stmt Statement

	// decided/disabled implement the one-time determinism check. disabled
	// only ever goes false -> true for the statement's lifetime.
	decided  bool
	disabled bool

	result Result
	modID  int64
	params []Value
	limit  int
}

// NewResultCache returns a cache for stmt executing through exec.
func NewResultCache(exec *Executor, stmt Statement) *ResultCache {
	return &ResultCache{exec: exec, stmt: stmt}
}

// Disabled reports whether caching is permanently off for this statement.
func (rc *ResultCache) Disabled() bool { return rc.disabled }

// Query returns the statement's result for limit, reusing the cached result
// when nothing it depends on can have changed: same limit, equal parameters,
// and no table read by the statement modified past the cached snapshot. On
// reuse the caller gets a shallow copy with its own cursor; otherwise the old
// result is closed, the statement re-executes, and the new result is cached
// with the modification snapshot observed before execution began.
func (rc *ResultCache) Query(ctx context.Context, sess Session, limit int) (Result, error) {
	if !rc.decided {
		rc.decided = true
		// Compound statements execute unconditionally because their combined
		// parameter model is not tracked here; anything non-deterministic or
		// session-dependent can never be reused.
		rc.disabled = rc.stmt.IsCompound() ||
			!rc.stmt.IsReadOnly() ||
			!rc.stmt.Deterministic()
	}

	if rc.disabled {
		return rc.exec.Execute(ctx, sess, rc.stmt, limit)
	}

	if rc.result != nil && rc.result.Open() &&
		rc.limit == limit && rc.paramsEqual(sess) {
		if maxMod, ok := rc.maxModificationID(); ok && maxMod <= rc.modID {
			CounterResultCacheHits.Inc()
			return rc.result.Clone(), nil
		}
	}
	CounterResultCacheMisses.Inc()

	// The old result is superseded now, whether or not the new execution
	// manages to produce a cacheable one.
	if rc.result != nil {
		_ = rc.result.Close()
		rc.result = nil
	}

	// Snapshot before execution: a write racing the execution makes the
	// entry look stale, which costs a recomputation but never reuse of
	// stale data.
	modID, ok := rc.maxModificationID()

	res, err := rc.exec.Execute(ctx, sess, rc.stmt, limit)
	if err != nil {
		return nil, err
	}

	if ok && rc.stmt.IsQuery() {
		rc.result = res
		rc.modID = modID
		rc.params = append([]Value(nil), rc.stmt.Parameters()...)
		rc.limit = limit
	}
	return res, nil
}

// Close drops the cached result, if any.
func (rc *ResultCache) Close() error {
	if rc.result == nil {
		return nil
	}
	err := rc.result.Close()
	rc.result = nil
	return err
}

// paramsEqual compares the statement's current parameter values against the
// ones the cached result was computed with, under the engine's equality
// semantics.
func (rc *ResultCache) paramsEqual(sess Session) bool {
	params := rc.stmt.Parameters()
	if len(params) != len(rc.params) {
		return false
	}
	for i, p := range params {
		if !sess.ValuesEqual(p, rc.params[i]) {
			return false
		}
	}
	return true
}

// maxModificationID returns the highest modification id the statement's
// reads depend on: the global metadata counter (a schema change can redefine
// what the statement means) plus every table it reads. A statement reporting
// no tables falls back to the global data counter, so any write anywhere
// counts. ok is false when any table is non-deterministic; such a snapshot is
// always stale and the read can never be reused.
func (rc *ResultCache) maxModificationID() (max int64, ok bool) {
	max = rc.exec.db.MetaModificationID()
	tables := rc.stmt.Tables()
	if len(tables) == 0 {
		if id := rc.exec.db.DataModificationID(); id > max {
			max = id
		}
		return max, true
	}
	for _, t := range tables {
		if !t.Deterministic() {
			return 0, false
		}
		if id := t.MaxModificationID(); id > max {
			max = id
		}
	}
	return max, true
}
