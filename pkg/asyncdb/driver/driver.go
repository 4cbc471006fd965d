// Package driver defines the narrow synchronous surface asyncdb consumes.
// Implementations wrap a concrete engine; the façade never reaches past
// these interfaces.
package driver

// Row is a single result row.
type Row []interface{}

// Connector opens connection handles for a target database.
type Connector interface {
	// Connect opens a handle. Options are driver-specific and passed
	// through opaquely; unrecognized keys are the driver's concern.
	Connect(target string, options map[string]string) (Conn, error)
}

// Conn is a synchronous connection handle. Every method may block and may
// fail; apart from Cursor and RowCount, methods are only ever invoked from
// a single worker goroutine at a time.
type Conn interface {
	// Execute runs a statement and returns a cursor over its result set.
	Execute(query string, args []interface{}) (Cursor, error)

	// ExecuteMany runs a statement once per argument set.
	ExecuteMany(query string, argSets [][]interface{}) (Cursor, error)

	// Cursor derives a new cursor handle from the connection. Handle
	// creation is cheap and performs no blocking I/O.
	Cursor() (Cursor, error)

	Begin() error
	Commit() error
	Rollback() error

	// Checkpoint flushes the write-ahead log.
	Checkpoint() error

	// LoadExtension loads an engine extension from the given path.
	LoadExtension(path string) error

	// RegisterFunc registers a user-defined scalar function.
	RegisterFunc(name string, impl interface{}) error

	// UnregisterFunc removes a previously registered function.
	UnregisterFunc(name string) error

	// RowCount reports the affected-row count of the most recent
	// statement. Reading it performs no I/O and never blocks.
	RowCount() int64

	Close() error
}

// Cursor is a synchronous cursor handle over a result set.
type Cursor interface {
	Execute(query string, args []interface{}) error
	ExecuteMany(query string, argSets [][]interface{}) error

	// FetchOne returns the next row, or a nil row once the result set is
	// exhausted.
	FetchOne() (Row, error)

	// FetchMany returns up to n rows; an empty slice means exhausted.
	FetchMany(n int) ([]Row, error)

	// FetchAll drains the remaining rows.
	FetchAll() ([]Row, error)

	// FetchColumns drains the remaining rows into a columnar layout keyed
	// by column name.
	FetchColumns() (map[string][]interface{}, error)

	// Columns returns the column names of the current result set.
	Columns() []string

	Close() error
}
