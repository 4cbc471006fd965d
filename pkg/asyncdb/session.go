package asyncdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cnfairydream/duckdb-extra-asyncio/internal/observability"
	"github.com/cnfairydream/duckdb-extra-asyncio/internal/tracing"
	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/asyncdb/driver"
	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/taskagent"
)

// Session wraps a synchronous connection handle behind an asynchronous
// surface. Every operation that touches the handle is funneled through the
// session's agent, so the handle is only ever accessed from the agent's
// worker. The session owns both the handle and the agent exclusively.
type Session struct {
	id     string
	target string
	conn   driver.Conn
	agent  *taskagent.Agent
	logger zerolog.Logger
	closed atomic.Bool
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the base logger for the session
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Open connects to the target eagerly and returns a session with an idle
// agent. The agent is started lazily by the first forwarded operation, or
// explicitly through Do. Options are driver-specific and passed through
// opaquely.
func Open(connector driver.Connector, target string, options map[string]string, opts ...Option) (*Session, error) {
	observability.EnsureRegistered()

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	s := &Session{
		id:     id,
		target: target,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("session_id", id).Logger()

	start := time.Now()
	conn, err := connector.Connect(target, options)
	if err != nil {
		return nil, fmt.Errorf("connect %q: %w", target, err)
	}
	s.conn = conn
	s.agent = taskagent.New()

	observability.SessionOpened(time.Since(start))
	s.logger.Debug().Str("target", target).Msg("Session opened")

	return s, nil
}

// ID returns the session's identifier
func (s *Session) ID() string {
	return s.id
}

// Agent exposes the session's serialization agent. Cursors share it; no
// other component may bypass it to reach the handle.
func (s *Session) Agent() *taskagent.Agent {
	return s.agent
}

// execute funnels one blocking operation through the agent: start the agent
// if it is idle, submit, await resolution. Errors raised by the operation
// come back verbatim.
func (s *Session) execute(ctx context.Context, op taskagent.Task) (interface{}, error) {
	if err := s.agent.Start(); err != nil {
		return nil, err
	}
	ctx = tracing.WithSessionID(ctx, s.id)
	return s.agent.Submit(ctx, op).Await(ctx)
}

// exec0 forwards a bare handle call with no result value
func (s *Session) exec0(ctx context.Context, fn func() error) error {
	_, err := s.execute(ctx, func(context.Context) (interface{}, error) {
		return nil, fn()
	})
	return err
}

// Execute runs a statement through the agent and returns an asynchronous
// cursor over its result set, sharing this session's agent.
func (s *Session) Execute(ctx context.Context, query string, args ...interface{}) (*Cursor, error) {
	value, err := s.execute(ctx, func(context.Context) (interface{}, error) {
		return s.conn.Execute(query, args)
	})
	if err != nil {
		return nil, err
	}
	return newCursor(s, value.(driver.Cursor)), nil
}

// ExecuteMany runs a statement once per argument set.
func (s *Session) ExecuteMany(ctx context.Context, query string, argSets [][]interface{}) (*Cursor, error) {
	value, err := s.execute(ctx, func(context.Context) (interface{}, error) {
		return s.conn.ExecuteMany(query, argSets)
	})
	if err != nil {
		return nil, err
	}
	return newCursor(s, value.(driver.Cursor)), nil
}

// Begin starts a transaction
func (s *Session) Begin(ctx context.Context) error {
	return s.exec0(ctx, s.conn.Begin)
}

// Commit commits the current transaction
func (s *Session) Commit(ctx context.Context) error {
	return s.exec0(ctx, s.conn.Commit)
}

// Rollback rolls back the current transaction
func (s *Session) Rollback(ctx context.Context) error {
	return s.exec0(ctx, s.conn.Rollback)
}

// Checkpoint flushes the write-ahead log
func (s *Session) Checkpoint(ctx context.Context) error {
	err := s.exec0(ctx, s.conn.Checkpoint)
	observability.RecordCheckpoint(err == nil)
	return err
}

// LoadExtension loads an engine extension
func (s *Session) LoadExtension(ctx context.Context, path string) error {
	return s.exec0(ctx, func() error {
		return s.conn.LoadExtension(path)
	})
}

// CreateFunction registers a user-defined scalar function
func (s *Session) CreateFunction(ctx context.Context, name string, impl interface{}) error {
	return s.exec0(ctx, func() error {
		return s.conn.RegisterFunc(name, impl)
	})
}

// RemoveFunction removes a previously registered function
func (s *Session) RemoveFunction(ctx context.Context, name string) error {
	return s.exec0(ctx, func() error {
		return s.conn.UnregisterFunc(name)
	})
}

// Cursor returns a new asynchronous cursor sharing this session's agent.
// The cursor handle is derived directly from the connection; handle
// creation is cheap and non-blocking, so it happens outside the queue.
func (s *Session) Cursor() (*Cursor, error) {
	return NewCursor(s, nil)
}

// RowCount reads the handle's last-known affected-row count directly,
// bypassing the agent. The read performs no blocking I/O; a caller may
// observe a stale value while an operation is in flight.
func (s *Session) RowCount() int64 {
	return s.conn.RowCount()
}

// Close submits the handle's close through the agent, awaits it, then stops
// the agent. The agent is retired with the session; a closed session cannot
// be reused.
func (s *Session) Close(ctx context.Context) error {
	err := s.exec0(ctx, s.conn.Close)
	s.agent.Stop()

	if s.closed.CompareAndSwap(false, true) {
		observability.SessionClosed()
		s.logger.Debug().Msg("Session closed")
	}
	return err
}

// Do runs fn within the session scope: the agent is started on entry, and
// the session is closed then the agent stopped on every exit path,
// including a failing fn. The deferred close runs on a fresh context so
// release is guaranteed even when ctx is already cancelled.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context, s *Session) error) (err error) {
	if startErr := s.agent.Start(); startErr != nil {
		return startErr
	}
	defer func() {
		closeErr := s.Close(context.Background())
		if err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, s)
}
