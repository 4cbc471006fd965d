package asyncdb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/asyncdb/driver"
)

// fakeConnector hands out a single fakeConn and remembers what it was asked
// to open.
type fakeConnector struct {
	conn       *fakeConn
	connectErr error
	gotTarget  string
	gotOptions map[string]string
}

func (f *fakeConnector) Connect(target string, options map[string]string) (driver.Conn, error) {
	f.gotTarget = target
	f.gotOptions = options
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	if f.conn == nil {
		f.conn = newFakeConn()
	}
	return f.conn, nil
}

// fakeConn records every handle call in order.
type fakeConn struct {
	mu       sync.Mutex
	calls    []string
	rowcount int64
	closed   bool
	failWith error
	rows     []driver.Row
	columns  []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{columns: []string{"id", "name"}}
}

func (c *fakeConn) record(call string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	if c.closed {
		return errors.New("connection closed")
	}
	return c.failWith
}

func (c *fakeConn) callLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *fakeConn) Execute(query string, args []interface{}) (driver.Cursor, error) {
	if err := c.record(fmt.Sprintf("execute:%s", query)); err != nil {
		return nil, err
	}
	return newFakeCursor(c, c.rows, c.columns), nil
}

func (c *fakeConn) ExecuteMany(query string, argSets [][]interface{}) (driver.Cursor, error) {
	if err := c.record(fmt.Sprintf("executemany:%s:%d", query, len(argSets))); err != nil {
		return nil, err
	}
	return newFakeCursor(c, c.rows, c.columns), nil
}

func (c *fakeConn) Cursor() (driver.Cursor, error) {
	if err := c.record("cursor"); err != nil {
		return nil, err
	}
	return newFakeCursor(c, c.rows, c.columns), nil
}

func (c *fakeConn) Begin() error      { return c.record("begin") }
func (c *fakeConn) Commit() error     { return c.record("commit") }
func (c *fakeConn) Rollback() error   { return c.record("rollback") }
func (c *fakeConn) Checkpoint() error { return c.record("checkpoint") }

func (c *fakeConn) LoadExtension(path string) error {
	return c.record("load_extension:" + path)
}

func (c *fakeConn) RegisterFunc(name string, impl interface{}) error {
	return c.record("register_func:" + name)
}

func (c *fakeConn) UnregisterFunc(name string) error {
	return c.record("unregister_func:" + name)
}

func (c *fakeConn) RowCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rowcount
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "close")
	if c.closed {
		return errors.New("connection closed")
	}
	c.closed = true
	return nil
}

// fakeCursor serves a fixed result set and records requested fetch sizes.
type fakeCursor struct {
	conn       *fakeConn
	mu         sync.Mutex
	rows       []driver.Row
	pos        int
	columns    []string
	fetchSizes []int
	fetchErr   error
	closed     bool
}

func newFakeCursor(conn *fakeConn, rows []driver.Row, columns []string) *fakeCursor {
	return &fakeCursor{conn: conn, rows: rows, columns: columns}
}

func (c *fakeCursor) fetchCalls() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.fetchSizes))
	copy(out, c.fetchSizes)
	return out
}

func (c *fakeCursor) Execute(query string, args []interface{}) error {
	return c.conn.record("cursor.execute:" + query)
}

func (c *fakeCursor) ExecuteMany(query string, argSets [][]interface{}) error {
	return c.conn.record(fmt.Sprintf("cursor.executemany:%s:%d", query, len(argSets)))
}

func (c *fakeCursor) FetchOne() (driver.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	if c.pos >= len(c.rows) {
		return nil, nil
	}
	row := c.rows[c.pos]
	c.pos++
	return row, nil
}

func (c *fakeCursor) FetchMany(n int) ([]driver.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchSizes = append(c.fetchSizes, n)
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	remaining := len(c.rows) - c.pos
	if remaining == 0 {
		return []driver.Row{}, nil
	}
	if n > remaining {
		n = remaining
	}
	batch := c.rows[c.pos : c.pos+n]
	c.pos += n
	return batch, nil
}

func (c *fakeCursor) FetchAll() ([]driver.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	batch := c.rows[c.pos:]
	c.pos = len(c.rows)
	return batch, nil
}

func (c *fakeCursor) FetchColumns() (map[string][]interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	out := make(map[string][]interface{}, len(c.columns))
	for i, name := range c.columns {
		for _, row := range c.rows[c.pos:] {
			if i < len(row) {
				out[name] = append(out[name], row[i])
			}
		}
	}
	c.pos = len(c.rows)
	return out, nil
}

func (c *fakeCursor) Columns() []string {
	return c.columns
}

func (c *fakeCursor) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.conn.record("cursor.close")
}

// makeRows builds n distinct rows.
func makeRows(n int) []driver.Row {
	rows := make([]driver.Row, n)
	for i := 0; i < n; i++ {
		rows[i] = driver.Row{i, fmt.Sprintf("row-%d", i)}
	}
	return rows
}
