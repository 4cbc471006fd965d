// Package sqlitedriver implements asyncdb's driver surface on top of
// database/sql with the go-sqlite3 engine. One pinned connection backs each
// handle, matching the one-handle-per-session ownership model upstream.
package sqlitedriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/asyncdb/driver"
)

// ErrUnsupported marks capabilities the underlying engine binding cannot
// provide. It is surfaced verbatim to the submitting caller.
var ErrUnsupported = errors.New("sqlitedriver: operation not supported")

// dsnAliases maps portable option keys to go-sqlite3 DSN parameters.
// Unrecognized keys are passed through untouched.
var dsnAliases = map[string]string{
	"journal_mode": "_journal_mode",
	"busy_timeout": "_busy_timeout",
	"foreign_keys": "_foreign_keys",
	"synchronous":  "_synchronous",
}

var vecOnce sync.Once

// Connector opens sqlite-backed connection handles.
type Connector struct{}

// New returns a Connector.
func New() *Connector {
	return &Connector{}
}

// Connect opens a handle for the target database file (or ":memory:").
// The option "vector" set to "on" loads the sqlite-vec extension for every
// subsequent connection in the process.
func (*Connector) Connect(target string, options map[string]string) (driver.Conn, error) {
	if options["vector"] == "on" {
		vecOnce.Do(sqlite_vec.Auto)
	}

	dsn := buildDSN(target, options)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	pinned, err := db.Conn(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Debug().Str("target", target).Msg("SQLite handle opened")

	return &conn{db: db, pinned: pinned}, nil
}

func buildDSN(target string, options map[string]string) string {
	params := url.Values{}
	for key, value := range options {
		if key == "vector" {
			continue
		}
		if alias, ok := dsnAliases[key]; ok {
			key = alias
		}
		params.Set(key, value)
	}
	if len(params) == 0 {
		return target
	}
	return target + "?" + params.Encode()
}

// conn is a single pinned database/sql connection.
type conn struct {
	db       *sql.DB
	pinned   *sql.Conn
	rowcount atomic.Int64
}

func (c *conn) Execute(query string, args []interface{}) (driver.Cursor, error) {
	cur := &cursor{conn: c}
	if err := cur.Execute(query, args); err != nil {
		return nil, err
	}
	return cur, nil
}

func (c *conn) ExecuteMany(query string, argSets [][]interface{}) (driver.Cursor, error) {
	cur := &cursor{conn: c}
	if err := cur.ExecuteMany(query, argSets); err != nil {
		return nil, err
	}
	return cur, nil
}

func (c *conn) Cursor() (driver.Cursor, error) {
	return &cursor{conn: c}, nil
}

// exec runs a non-row-returning statement and records its affected-row
// count.
func (c *conn) exec(query string, args []interface{}) error {
	res, err := c.pinned.ExecContext(context.Background(), query, args...)
	if err != nil {
		return err
	}
	if n, raErr := res.RowsAffected(); raErr == nil {
		c.rowcount.Store(n)
	}
	return nil
}

func (c *conn) Begin() error {
	return c.exec("BEGIN", nil)
}

func (c *conn) Commit() error {
	return c.exec("COMMIT", nil)
}

func (c *conn) Rollback() error {
	return c.exec("ROLLBACK", nil)
}

func (c *conn) Checkpoint() error {
	_, err := c.pinned.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// raw reaches the underlying go-sqlite3 connection.
func (c *conn) raw(fn func(*sqlite3.SQLiteConn) error) error {
	return c.pinned.Raw(func(dc interface{}) error {
		sc, ok := dc.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("sqlitedriver: unexpected driver connection %T", dc)
		}
		return fn(sc)
	})
}

func (c *conn) LoadExtension(path string) error {
	return c.raw(func(sc *sqlite3.SQLiteConn) error {
		return sc.LoadExtension(path, "")
	})
}

func (c *conn) RegisterFunc(name string, impl interface{}) error {
	return c.raw(func(sc *sqlite3.SQLiteConn) error {
		return sc.RegisterFunc(name, impl, true)
	})
}

func (c *conn) UnregisterFunc(name string) error {
	return fmt.Errorf("%w: unregister function %q", ErrUnsupported, name)
}

// RowCount reports the affected-row count of the most recent statement.
// It is read without touching the engine, so it is safe outside the queue.
func (c *conn) RowCount() int64 {
	return c.rowcount.Load()
}

func (c *conn) Close() error {
	connErr := c.pinned.Close()
	dbErr := c.db.Close()
	if connErr != nil {
		return connErr
	}
	return dbErr
}

// returnsRows reports whether a statement produces a result set.
func returnsRows(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "VALUES", "PRAGMA", "EXPLAIN"} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// cursor wraps the result set of the cursor's most recent statement. It
// shares the pinned connection; serialization is the caller's concern,
// which asyncdb guarantees by funneling all cursor work through one agent.
type cursor struct {
	conn    *conn
	rows    *sql.Rows
	columns []string
}

func (cur *cursor) Execute(query string, args []interface{}) error {
	cur.reset()

	if !returnsRows(query) {
		return cur.conn.exec(query, args)
	}

	rows, err := cur.conn.pinned.QueryContext(context.Background(), query, args...)
	if err != nil {
		return err
	}
	cur.rows = rows
	cur.columns, err = rows.Columns()
	if err != nil {
		cur.reset()
		return err
	}
	return nil
}

func (cur *cursor) ExecuteMany(query string, argSets [][]interface{}) error {
	cur.reset()

	var total int64
	for _, args := range argSets {
		res, err := cur.conn.pinned.ExecContext(context.Background(), query, args...)
		if err != nil {
			return err
		}
		if n, raErr := res.RowsAffected(); raErr == nil {
			total += n
		}
	}
	cur.conn.rowcount.Store(total)
	return nil
}

func (cur *cursor) FetchOne() (driver.Row, error) {
	if cur.rows == nil {
		return nil, nil
	}
	if !cur.rows.Next() {
		if err := cur.rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return scanRow(cur.rows, len(cur.columns))
}

func (cur *cursor) FetchMany(n int) ([]driver.Row, error) {
	batch := make([]driver.Row, 0, n)
	for len(batch) < n {
		row, err := cur.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		batch = append(batch, row)
	}
	return batch, nil
}

func (cur *cursor) FetchAll() ([]driver.Row, error) {
	var all []driver.Row
	for {
		row, err := cur.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return all, nil
		}
		all = append(all, row)
	}
}

func (cur *cursor) FetchColumns() (map[string][]interface{}, error) {
	out := make(map[string][]interface{}, len(cur.columns))
	for {
		row, err := cur.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return out, nil
		}
		for i, name := range cur.columns {
			out[name] = append(out[name], row[i])
		}
	}
}

func (cur *cursor) Columns() []string {
	return cur.columns
}

func (cur *cursor) Close() error {
	rows := cur.rows
	cur.rows = nil
	cur.columns = nil
	if rows != nil {
		return rows.Close()
	}
	return nil
}

func (cur *cursor) reset() {
	if cur.rows != nil {
		cur.rows.Close()
		cur.rows = nil
		cur.columns = nil
	}
}

func scanRow(rows *sql.Rows, width int) (driver.Row, error) {
	values := make(driver.Row, width)
	ptrs := make([]interface{}, width)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}
