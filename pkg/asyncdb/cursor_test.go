package asyncdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/asyncdb/driver"
	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/taskagent"
)

func TestSessionCursorDerivesHandle(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	cursor, err := s.Cursor()
	require.NoError(t, err)
	require.NotNil(t, cursor)

	// Derivation happens directly, outside the queue
	assert.Contains(t, conn.callLog(), "cursor")
	assert.Equal(t, taskagent.StateUnstarted, s.Agent().State())
}

func TestNewCursorWithSuppliedHandle(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	handle := newFakeCursor(conn, makeRows(2), conn.columns)
	cursor, err := NewCursor(s, handle)
	require.NoError(t, err)

	// No derivation call when the handle is caller-supplied
	assert.NotContains(t, conn.callLog(), "cursor")

	row, err := cursor.FetchOne(context.Background())
	require.NoError(t, err)
	assert.Equal(t, driver.Row{0, "row-0"}, row)
}

func TestCursorExecuteForwarded(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	cursor, err := s.Cursor()
	require.NoError(t, err)

	require.NoError(t, cursor.Execute(context.Background(), "SELECT * FROM t"))
	assert.Contains(t, conn.callLog(), "cursor.execute:SELECT * FROM t")

	require.NoError(t, cursor.ExecuteMany(context.Background(), "INSERT INTO t VALUES (?)", [][]interface{}{{1}, {2}}))
	assert.Contains(t, conn.callLog(), "cursor.executemany:INSERT INTO t VALUES (?):2")
}

func TestCursorFetchVariants(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	conn.rows = makeRows(5)
	cursor, err := s.Cursor()
	require.NoError(t, err)

	ctx := context.Background()

	row, err := cursor.FetchOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, driver.Row{0, "row-0"}, row)

	batch, err := cursor.FetchMany(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	rest, err := cursor.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	// Exhausted: FetchOne reports a nil row
	row, err = cursor.FetchOne(ctx)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestCursorFetchColumns(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	conn.rows = makeRows(3)
	cursor, err := s.Cursor()
	require.NoError(t, err)

	cols, err := cursor.FetchColumns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []interface{}{0, 1, 2}, cols["id"])
	assert.Equal(t, []interface{}{"row-0", "row-1", "row-2"}, cols["name"])
}

func TestCursorColumns(t *testing.T) {
	s, _ := openFakeSession(t)
	defer s.Close(context.Background())

	cursor, err := s.Cursor()
	require.NoError(t, err)

	names, err := cursor.Columns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, names)
}

func TestCursorCloseLeavesAgentRunning(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	cursor, err := s.Cursor()
	require.NoError(t, err)

	require.NoError(t, cursor.Close(context.Background()))

	// Closing the cursor never stops the shared agent
	assert.Contains(t, conn.callLog(), "cursor.close")
	assert.Equal(t, taskagent.StateRunning, s.Agent().State())
}

func TestCursorDoClosesOnFailure(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	cursor, err := s.Cursor()
	require.NoError(t, err)

	wantErr := errors.New("body failed")
	err = cursor.Do(context.Background(), func(ctx context.Context, c *Cursor) error {
		return wantErr
	})

	assert.Equal(t, wantErr, err)
	assert.Contains(t, conn.callLog(), "cursor.close")
	assert.Equal(t, taskagent.StateRunning, s.Agent().State())
}

func TestCursorFetchErrorPassThrough(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	cursor, err := s.Cursor()
	require.NoError(t, err)

	wantErr := errors.New("result set invalidated")
	cursor.cur.(*fakeCursor).fetchErr = wantErr

	_, err = cursor.FetchMany(context.Background(), 10)
	assert.Equal(t, wantErr, err)

	// Session operations still execute afterwards
	_, err = s.Execute(context.Background(), "SELECT 1")
	assert.NoError(t, err)
	assert.Contains(t, conn.callLog(), "execute:SELECT 1")
}

func TestSessionAndCursorShareOneAgent(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	cursor, err := s.Cursor()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Begin(ctx))
	require.NoError(t, cursor.Execute(ctx, "SELECT 1"))
	require.NoError(t, s.Commit(ctx))

	// Interleaved session and cursor work serializes through one queue
	assert.Equal(t, []string{"cursor", "begin", "cursor.execute:SELECT 1", "commit"}, conn.callLog())
}
