package stratum

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/featurebasedb/stratum/errors"
	"github.com/featurebasedb/stratum/logger"
	"github.com/featurebasedb/stratum/tracing"
)

// Executor drives prepared statements to completion: it gates on
// exclusive-access mode, serializes statements within a session, retries
// transient conflicts against the session's lock timeout, classifies every
// failure, and runs completion hooks on the way out. It never spawns
// goroutines of its own; Execute runs entirely on the calling goroutine and
// returns exactly once.
type Executor struct {
	db DB

	logger           logger.Logger
	longQueryTime    time.Duration
	rowCheckInterval int64
	nowFn            func() time.Time

	mu    sync.Mutex
	slots map[uint64]*sessionSlot
}

// ExecutorOption is a functional option for Executor.
type ExecutorOption func(e *Executor) error

func OptExecutorLogger(l logger.Logger) ExecutorOption {
	return func(e *Executor) error {
		e.logger = l
		return nil
	}
}

func OptExecutorConfig(c *Config) ExecutorOption {
	return func(e *Executor) error {
		if c.RowCheckInterval <= 0 {
			return errors.Errorf("row-check-interval must be positive, got %d", c.RowCheckInterval)
		}
		e.longQueryTime = time.Duration(c.LongQueryTime)
		e.rowCheckInterval = int64(c.RowCheckInterval)
		return nil
	}
}

// optExecutorNowFn injects a clock, for tests.
func optExecutorNowFn(now func() time.Time) ExecutorOption {
	return func(e *Executor) error {
		e.nowFn = now
		return nil
	}
}

// NewExecutor returns a new Executor for db.
func NewExecutor(db DB, opts ...ExecutorOption) (*Executor, error) {
	e := &Executor{
		db:               db,
		logger:           logger.NopLogger,
		longQueryTime:    defaultLongQueryTime,
		rowCheckInterval: defaultRowCheckInterval,
		nowFn:            time.Now,
		slots:            make(map[uint64]*sessionSlot),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// sessionSlot carries the per-session execution right and the current
// statement marker. The marker has one writer (the owning session's
// goroutine) and concurrent readers (cancellation requests), so it gets its
// own lock separate from the execution right.
type sessionSlot struct {
	running sync.Mutex

	curMu   sync.Mutex
	current Statement
}

func (s *sessionSlot) setCurrent(stmt Statement) {
	s.curMu.Lock()
	s.current = stmt
	s.curMu.Unlock()
}

func (s *sessionSlot) currentStatement() Statement {
	s.curMu.Lock()
	defer s.curMu.Unlock()
	return s.current
}

func (e *Executor) slot(sess Session) *sessionSlot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.slots[sess.ID()]
	if !ok {
		s = &sessionSlot{}
		e.slots[sess.ID()] = s
	}
	return s
}

// CancelSession requests cooperative cancellation of the statement currently
// running on sess, if any. It returns the statement it targeted, or nil when
// the session was idle. The running statement observes the flag at its next
// polling point.
func (e *Executor) CancelSession(sess Session) Statement {
	e.mu.Lock()
	s := e.slots[sess.ID()]
	e.mu.Unlock()
	if s == nil {
		return nil
	}
	stmt := s.currentStatement()
	if stmt == nil {
		return nil
	}
	sess.Cancel()
	return stmt
}

// ExecContext is the per-attempt state handed to Statement.Run. Statement
// implementations call Tick once per row scanned; every rowCheckInterval rows
// it polls the cooperative cancel flag and the context.
type ExecContext struct {
	ctx      context.Context
	sess     Session
	interval int64
	rows     int64
}

// Context returns the context the statement runs under.
func (ec *ExecContext) Context() context.Context { return ec.ctx }

// Session returns the session driving the statement.
func (ec *ExecContext) Session() Session { return ec.sess }

// Tick counts one scanned row and polls for cancellation at the configured
// interval. A non-nil return must abort the attempt.
func (ec *ExecContext) Tick() error {
	ec.rows++
	if ec.rows%ec.interval != 0 {
		return nil
	}
	if err := ec.ctx.Err(); err != nil {
		return errors.Wrap(err, ErrCancelled, "statement context done")
	}
	if ec.sess.Canceled() {
		ec.sess.ClearCancel()
		return NewCancelledError()
	}
	return nil
}

// retryDecision is what the retry policy says to do with one more conflict.
type retryDecision int

const (
	retryAgain retryDecision = iota
	retryExpired
)

// retryState tracks the conflict budget for one Execute call. The clock
// starts at the first observed conflict, not at statement entry, and every
// fresh Execute starts with an unspent budget.
type retryState struct {
	timeout       time.Duration
	firstConflict time.Time
}

func (r *retryState) observe(now time.Time) retryDecision {
	if r.firstConflict.IsZero() {
		r.firstConflict = now
		return retryAgain
	}
	if now.Sub(r.firstConflict) > r.timeout {
		return retryExpired
	}
	return retryAgain
}

// Execute runs stmt on sess to completion and returns exactly once, with a
// result or one terminal error. Conflicts are resolved inside the loop and
// never escape except as ErrLockTimeout; retries are invisible to the caller
// beyond latency.
func (e *Executor) Execute(ctx context.Context, sess Session, stmt Statement, limit int) (res Result, err error) {
	span, ctx := tracing.StartSpanFromContext(ctx, "Executor.Execute")
	span.LogKV("statement", stmt.Text())
	defer span.Finish()

	// Block while the database is held exclusively by another session.
	e.db.WaitExclusive(sess)

	// One statement body per session at a time. The current-statement
	// marker lets a concurrent CancelSession find us.
	slot := e.slot(sess)
	slot.running.Lock()
	slot.setCurrent(stmt)

	execID := uuid.NewString()
	start := e.nowFn()

	defer func() {
		slot.setCurrent(nil)
		slot.running.Unlock()
		if res != nil && res.Streaming() && res.Open() {
			// Hooks wait until the caller drains the streaming result.
			return
		}
		e.finish(sess, stmt, execID, e.nowFn().Sub(start))
	}()

	isUpdate := !stmt.IsQuery()

	var sp Savepoint
	if isUpdate && stmt.IsTransactional() {
		sp, err = sess.AddSavepoint()
		if err != nil {
			return nil, err
		}
	}

	retry := retryState{timeout: sess.LockTimeout()}

	for {
		if err := e.db.CheckPowerOff(); err != nil {
			return nil, err
		}
		if err := e.checkCancel(ctx, sess); err != nil {
			CounterStatementCancels.Inc()
			return nil, err
		}

		ec := &ExecContext{ctx: ctx, sess: sess, interval: e.rowCheckInterval}
		result, runErr := stmt.Run(ec, limit)
		if runErr == nil {
			return result, nil
		}

		switch classify(runErr) {
		case kindConflict:
			if stmt.IsDefinition() {
				// Schema-altering statements never retry.
				return nil, runErr
			}
			if retry.observe(e.nowFn()) == retryExpired {
				CounterLockTimeouts.Inc()
				return nil, errors.Wrap(runErr, ErrLockTimeout,
					fmt.Sprintf("lock timeout exceeded executing %q", stmt.Text()))
			}
			CounterStatementRetries.Inc()

		case kindCancelled:
			CounterStatementCancels.Inc()
			return nil, runErr

		case kindOutOfResources:
			// The failed attempt may have partially mutated state; stop the
			// database before any of it can become visible.
			CounterEmergencyShutdowns.Inc()
			e.logger.Errorf("out of resources executing statement [%s], shutting down: %v", execID, runErr)
			e.db.ShutdownImmediately()
			return nil, runErr

		case kindDefinitionConflict:
			return nil, runErr

		default:
			if isUpdate {
				if rbErr := e.rollbackAttempt(sess, sp, runErr); rbErr != nil {
					e.logger.Errorf("rollback after failed statement [%s]: %v", execID, rbErr)
				}
			}
			return nil, errors.Wrap(runErr, ErrStatement,
				fmt.Sprintf("executing %q after %d rows [%s]", stmt.Text(), ec.rows, execID))
		}
	}
}

// rollbackAttempt undoes a failed update attempt: back to the savepoint
// normally, the whole session on deadlock, since the deadlock victim's locks
// are already gone.
func (e *Executor) rollbackAttempt(sess Session, sp Savepoint, cause error) error {
	if errors.Is(cause, ErrDeadlock) {
		return sess.Rollback()
	}
	if sp != nil {
		return sess.RollbackTo(sp)
	}
	return nil
}

// checkCancel is the loop-entry cancellation poll.
func (e *Executor) checkCancel(ctx context.Context, sess Session) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, ErrCancelled, "statement context done")
	}
	if sess.Canceled() {
		sess.ClearCancel()
		return NewCancelledError()
	}
	return nil
}

// finish runs the completion hooks shared by every exit path: duration
// metrics, slow-statement logging, auto-commit.
func (e *Executor) finish(sess Session, stmt Statement, execID string, elapsed time.Duration) {
	HistogramStatementSeconds.Observe(elapsed.Seconds())

	if e.longQueryTime > 0 && elapsed > e.longQueryTime {
		e.logger.Printf("statement duration %v exceeds %v [%s]: %s",
			elapsed, e.longQueryTime, execID, stmt.Text())
	}

	if stmt.IsTransactional() && sess.AutoCommit() {
		if err := sess.Commit(); err != nil {
			e.logger.Errorf("auto-commit after statement [%s]: %v", execID, err)
		}
	}
}
