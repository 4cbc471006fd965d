package asyncdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowIterBatchedTermination(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	conn.rows = makeRows(250)
	cursor, err := s.Cursor()
	require.NoError(t, err)

	it := cursor.Rows(context.Background())
	count := 0
	for it.Next() {
		assert.Equal(t, count, it.Row()[0])
		count++
	}
	require.NoError(t, it.Err())
	assert.Equal(t, 250, count)

	// Batches of 100, 100, 50, then the empty batch that terminates
	fc := cursor.cur.(*fakeCursor)
	assert.Equal(t, []int{100, 100, 100, 100}, fc.fetchCalls())

	// No further fetch after the empty batch is observed
	assert.False(t, it.Next())
	assert.Len(t, fc.fetchCalls(), 4)
}

func TestRowIterPullsLazily(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	conn.rows = makeRows(250)
	cursor, err := s.Cursor()
	require.NoError(t, err)
	fc := cursor.cur.(*fakeCursor)

	it := cursor.Rows(context.Background())

	// The first batch covers the first 100 rows
	for i := 0; i < 100; i++ {
		require.True(t, it.Next())
	}
	assert.Len(t, fc.fetchCalls(), 1)

	// The next batch is requested only once the current one is consumed
	require.True(t, it.Next())
	assert.Len(t, fc.fetchCalls(), 2)
}

func TestRowIterEmptyResultSet(t *testing.T) {
	s, _ := openFakeSession(t)
	defer s.Close(context.Background())

	cursor, err := s.Cursor()
	require.NoError(t, err)

	it := cursor.Rows(context.Background())
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestRowIterErrorStopsIteration(t *testing.T) {
	s, conn := openFakeSession(t)
	defer s.Close(context.Background())

	conn.rows = makeRows(10)
	cursor, err := s.Cursor()
	require.NoError(t, err)

	wantErr := errors.New("result set invalidated")
	cursor.cur.(*fakeCursor).fetchErr = wantErr

	it := cursor.Rows(context.Background())
	assert.False(t, it.Next())
	assert.Equal(t, wantErr, it.Err())

	// Terminated for good
	assert.False(t, it.Next())
}
