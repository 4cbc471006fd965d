package asyncdb

import (
	"context"

	"github.com/cnfairydream/duckdb-extra-asyncio/pkg/asyncdb/driver"
)

// fetchBatchSize is the number of rows pulled per round trip during
// asynchronous iteration.
const fetchBatchSize = 100

// RowIter is a lazy, finite, non-restartable sequence of result rows,
// pulled one batch at a time. The next batch is not requested until the
// current one is consumed, so iteration never fetches the result set
// eagerly.
//
//	it := cursor.Rows(ctx)
//	for it.Next() {
//		row := it.Row()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type RowIter struct {
	ctx    context.Context
	cursor *Cursor
	batch  []driver.Row
	pos    int
	err    error
	done   bool
}

// Rows returns a streaming iterator over the cursor's result set.
func (c *Cursor) Rows(ctx context.Context) *RowIter {
	return &RowIter{ctx: ctx, cursor: c}
}

// Next advances the iterator, fetching the next batch when the current one
// is exhausted. An empty batch terminates the sequence; once Next has
// returned false no further fetch is issued.
func (it *RowIter) Next() bool {
	if it.done {
		return false
	}
	if it.pos >= len(it.batch) {
		batch, err := it.cursor.FetchMany(it.ctx, fetchBatchSize)
		if err != nil {
			it.err = err
			it.done = true
			return false
		}
		if len(batch) == 0 {
			it.done = true
			return false
		}
		it.batch = batch
		it.pos = 0
	}
	it.pos++
	return true
}

// Row returns the row positioned by the last successful Next.
func (it *RowIter) Row() driver.Row {
	return it.batch[it.pos-1]
}

// Err returns the error that terminated iteration, if any.
func (it *RowIter) Err() error {
	return it.err
}
