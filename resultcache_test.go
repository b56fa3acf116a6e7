package stratum

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/featurebasedb/stratum/errors"
)

// cachedStatement returns a deterministic read-only query over one table,
// yielding a fresh fakeResult per execution.
func cachedStatement(tables ...Table) *scriptStatement {
	return &scriptStatement{
		text:          "SELECT a FROM t WHERE b = ?",
		query:         true,
		readOnly:      true,
		deterministic: true,
		params:        []Value{int64(42)},
		tables:        tables,
	}
}

func newCacheHarness(t *testing.T) (*Executor, *fakeDB, *fakeSession) {
	t.Helper()
	db := &fakeDB{}
	e, _ := newTestExecutor(t, db)
	return e, db, &fakeSession{id: 1, lockTimeout: time.Hour}
}

func TestResultCache_HitReturnsShallowCopy(t *testing.T) {
	e, _, sess := newCacheHarness(t)
	table := &fakeTable{name: "t", modID: 10, deterministic: true}
	stmt := cachedStatement(table)
	rc := NewResultCache(e, stmt)

	first, err := rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)

	second, err := rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)

	assert.Equal(t, 1, stmt.attempts, "second call must not re-execute")
	require.NotSame(t, first, second, "hit yields a distinct result instance")
	assert.Equal(t, 1, first.(*fakeResult).clones)
	assert.False(t, rc.Disabled())
}

func TestResultCache_WriteForcesRecompute(t *testing.T) {
	e, _, sess := newCacheHarness(t)
	table := &fakeTable{name: "t", modID: 10, deterministic: true}
	stmt := cachedStatement(table)
	rc := NewResultCache(e, stmt)

	first, err := rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)

	// A write to any table the statement reads bumps its modification id
	// past the cached snapshot.
	table.modID = 11

	_, err = rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, stmt.attempts)
	assert.False(t, first.(*fakeResult).Open(), "superseded result is closed")
}

func TestResultCache_SchemaChangeForcesRecompute(t *testing.T) {
	e, db, sess := newCacheHarness(t)
	table := &fakeTable{name: "t", modID: 10, deterministic: true}
	stmt := cachedStatement(table)
	rc := NewResultCache(e, stmt)

	_, err := rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)

	// A DDL statement anywhere can redefine what the query means, even if
	// the table it reads was untouched.
	db.metaMod = 20

	_, err = rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, stmt.attempts)
}

func TestResultCache_NoTableDependencies(t *testing.T) {
	e, db, sess := newCacheHarness(t)
	db.dataMod = 5
	stmt := cachedStatement() // no tables reported
	rc := NewResultCache(e, stmt)

	_, err := rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)
	_, err = rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, stmt.attempts, "reused while nothing changed")

	// Without a dependency list every data write counts.
	db.dataMod = 6
	_, err = rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, stmt.attempts)
}

func TestResultCache_ParameterOrLimitChangeMisses(t *testing.T) {
	e, _, sess := newCacheHarness(t)
	table := &fakeTable{name: "t", modID: 10, deterministic: true}

	t.Run("parameters", func(t *testing.T) {
		stmt := cachedStatement(table)
		rc := NewResultCache(e, stmt)

		_, err := rc.Query(context.Background(), sess, 100)
		require.NoError(t, err)

		stmt.params = []Value{int64(43)}
		_, err = rc.Query(context.Background(), sess, 100)
		require.NoError(t, err)
		assert.Equal(t, 2, stmt.attempts)
	})

	t.Run("limit", func(t *testing.T) {
		stmt := cachedStatement(table)
		rc := NewResultCache(e, stmt)

		_, err := rc.Query(context.Background(), sess, 100)
		require.NoError(t, err)

		_, err = rc.Query(context.Background(), sess, 50)
		require.NoError(t, err)
		assert.Equal(t, 2, stmt.attempts)
	})
}

func TestResultCache_DisabledStatements(t *testing.T) {
	e, _, sess := newCacheHarness(t)
	table := &fakeTable{name: "t", modID: 10, deterministic: true}

	tests := []struct {
		name   string
		mutate func(*scriptStatement)
	}{
		{name: "non-deterministic", mutate: func(s *scriptStatement) { s.deterministic = false }},
		{name: "not-read-only", mutate: func(s *scriptStatement) { s.readOnly = false }},
		{name: "compound", mutate: func(s *scriptStatement) { s.compound = true }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			stmt := cachedStatement(table)
			test.mutate(stmt)
			rc := NewResultCache(e, stmt)

			_, err := rc.Query(context.Background(), sess, 100)
			require.NoError(t, err)
			_, err = rc.Query(context.Background(), sess, 100)
			require.NoError(t, err)

			assert.Equal(t, 2, stmt.attempts)
			assert.True(t, rc.Disabled())
		})
	}
}

func TestResultCache_NonDeterministicTableNeverReused(t *testing.T) {
	e, _, sess := newCacheHarness(t)
	// The statement is deterministic but reads a table exposing live state;
	// its snapshot counts as always stale.
	live := &fakeTable{name: "sessions", modID: 10, deterministic: false}
	stmt := cachedStatement(live)
	rc := NewResultCache(e, stmt)

	_, err := rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)
	_, err = rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)

	assert.Equal(t, 2, stmt.attempts)
	assert.False(t, rc.Disabled(), "not disabled, just never fresh")
}

func TestResultCache_SupersededEvenOnFailure(t *testing.T) {
	e, _, sess := newCacheHarness(t)
	table := &fakeTable{name: "t", modID: 10, deterministic: true}
	stmt := cachedStatement(table)
	stmt.outcomes = []attemptOutcome{
		{res: &fakeResult{rows: []int{1}}},
		{err: errors.Errorf("storage hiccup")},
		{res: &fakeResult{rows: []int{2}}},
	}
	rc := NewResultCache(e, stmt)

	first, err := rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)

	table.modID = 11
	_, err = rc.Query(context.Background(), sess, 100)
	require.Error(t, err)
	assert.False(t, first.(*fakeResult).Open(),
		"old result is closed even when the new execution fails")

	// Next call executes again rather than serving anything stale.
	table.modID = 12
	_, err = rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, stmt.attempts)
}

func TestResultCache_ClosedResultNotReused(t *testing.T) {
	e, _, sess := newCacheHarness(t)
	table := &fakeTable{name: "t", modID: 10, deterministic: true}
	stmt := cachedStatement(table)
	rc := NewResultCache(e, stmt)

	first, err := rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	_, err = rc.Query(context.Background(), sess, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, stmt.attempts)
}
