package asyncdb

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cnfairydream/duckdb-extra-asyncio/internal/observability"
	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/asyncdb/driver"
)

// Cursor wraps a synchronous cursor handle behind the same bridging
// contract as Session, without owning a worker: every forwarded operation
// goes through the parent session's agent.
type Cursor struct {
	session *Session
	cur     driver.Cursor
	logger  zerolog.Logger
}

// NewCursor wraps a cursor handle for the given session. When handle is
// nil, a fresh one is derived from the session's connection. Handle
// creation is cheap and non-blocking, so it happens outside the queue.
func NewCursor(s *Session, handle driver.Cursor) (*Cursor, error) {
	if handle == nil {
		derived, err := s.conn.Cursor()
		if err != nil {
			return nil, err
		}
		handle = derived
	}
	return newCursor(s, handle), nil
}

func newCursor(s *Session, handle driver.Cursor) *Cursor {
	return &Cursor{
		session: s,
		cur:     handle,
		logger:  s.logger.With().Str("component", "cursor").Logger(),
	}
}

// execute routes through the session so lazy agent start lives in one place
func (c *Cursor) execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	return c.session.execute(ctx, func(context.Context) (interface{}, error) {
		return fn()
	})
}

func (c *Cursor) exec0(ctx context.Context, fn func() error) error {
	_, err := c.execute(ctx, func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// Execute runs a statement on this cursor
func (c *Cursor) Execute(ctx context.Context, query string, args ...interface{}) error {
	return c.exec0(ctx, func() error {
		return c.cur.Execute(query, args)
	})
}

// ExecuteMany runs a statement once per argument set
func (c *Cursor) ExecuteMany(ctx context.Context, query string, argSets [][]interface{}) error {
	return c.exec0(ctx, func() error {
		return c.cur.ExecuteMany(query, argSets)
	})
}

// FetchOne returns the next row, or a nil row once the result set is
// exhausted.
func (c *Cursor) FetchOne(ctx context.Context) (driver.Row, error) {
	value, err := c.execute(ctx, func() (interface{}, error) {
		return c.cur.FetchOne()
	})
	if err != nil {
		return nil, err
	}
	row, _ := value.(driver.Row)
	if row != nil {
		observability.RecordRowsFetched(c.session.id, 1)
	}
	return row, nil
}

// FetchMany returns up to n rows; an empty slice means exhausted.
func (c *Cursor) FetchMany(ctx context.Context, n int) ([]driver.Row, error) {
	value, err := c.execute(ctx, func() (interface{}, error) {
		return c.cur.FetchMany(n)
	})
	if err != nil {
		return nil, err
	}
	rows, _ := value.([]driver.Row)
	observability.RecordRowsFetched(c.session.id, len(rows))
	return rows, nil
}

// FetchAll drains the remaining rows
func (c *Cursor) FetchAll(ctx context.Context) ([]driver.Row, error) {
	value, err := c.execute(ctx, func() (interface{}, error) {
		return c.cur.FetchAll()
	})
	if err != nil {
		return nil, err
	}
	rows, _ := value.([]driver.Row)
	observability.RecordRowsFetched(c.session.id, len(rows))
	return rows, nil
}

// FetchColumns drains the remaining rows into a columnar layout keyed by
// column name.
func (c *Cursor) FetchColumns(ctx context.Context) (map[string][]interface{}, error) {
	value, err := c.execute(ctx, func() (interface{}, error) {
		return c.cur.FetchColumns()
	})
	if err != nil {
		return nil, err
	}
	cols, _ := value.(map[string][]interface{})
	return cols, nil
}

// Columns returns the column names of the current result set
func (c *Cursor) Columns(ctx context.Context) ([]string, error) {
	value, err := c.execute(ctx, func() (interface{}, error) {
		return c.cur.Columns(), nil
	})
	if err != nil {
		return nil, err
	}
	cols, _ := value.([]string)
	return cols, nil
}

// Close closes the cursor handle. The shared agent stays with the session.
func (c *Cursor) Close(ctx context.Context) error {
	return c.exec0(ctx, c.cur.Close)
}

// Do runs fn within the cursor scope; the cursor is closed on every exit
// path. The shared agent is left running; its ownership stays with the
// session.
func (c *Cursor) Do(ctx context.Context, fn func(ctx context.Context, c *Cursor) error) (err error) {
	defer func() {
		closeErr := c.Close(context.Background())
		if err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, c)
}
