package scan

import (
	"context"
	"slices"
	"time"

	"HTAPDB/types"

	"github.com/pkg/errors"
)

// source yields batches of rows that already passed the predicate.
type source interface {
	next(ctx context.Context) ([]types.Row, bool, error)
	// close stops background readers and waits for them.
	close() error
}

/*
RowIterator pulls rows out of a scan:

	it, err := s.Scan(ctx, opts)
	defer it.Close()
	for it.Next() {
		use(it.Row())
	}
	if err := it.Err(); ...

Offset and limit are applied here, after filtering. The iterator closes itself
when it runs dry or fails; Close is only required when stopping early, and is
always safe to call. A RowIterator is not safe for concurrent use.
*/
type RowIterator struct {
	ctx   context.Context
	src   source
	batch []types.Row
	pos   int
	row   types.Row

	skip      int
	remaining int // -1 when unlimited

	err     error
	closed  bool
	start   time.Time
	elapsed time.Duration
	base    Stats
	depth   int
	c       *counters

	afterClose []func()
}

func newIterator(ctx context.Context, src source, opts ScanOptions, base Stats, c *counters, start time.Time) *RowIterator {
	it := &RowIterator{
		ctx:       ctx,
		src:       src,
		skip:      opts.Offset,
		remaining: -1,
		start:     start,
		base:      base,
		depth:     opts.readAhead(),
		c:         c,
	}
	if opts.Limit > 0 {
		it.remaining = opts.Limit
	}
	return it
}

func (it *RowIterator) Next() bool {
	if it.closed {
		return false
	}
	for {
		if it.remaining == 0 {
			it.finish(nil)
			return false
		}
		if it.pos < len(it.batch) {
			r := it.batch[it.pos]
			it.pos++
			if it.skip > 0 {
				it.skip--
				continue
			}
			if it.remaining > 0 {
				it.remaining--
			}
			it.row = r
			it.c.returned.Add(1)
			return true
		}

		batch, ok, err := it.src.next(it.ctx)
		if err != nil {
			it.finish(err)
			return false
		}
		if !ok {
			it.finish(nil)
			return false
		}
		it.batch, it.pos = batch, 0
	}
}

// Row is the current row. Valid after Next returned true.
func (it *RowIterator) Row() types.Row { return it.row }

func (it *RowIterator) Err() error { return it.err }

// Close stops the scan and releases everything it holds.
func (it *RowIterator) Close() error {
	it.finish(nil)
	return it.err
}

// Stats reports counters so far; final once the iterator is closed.
func (it *RowIterator) Stats() Stats {
	elapsed := it.elapsed
	if !it.closed {
		elapsed = time.Since(it.start)
	}
	return it.c.snapshot(it.base, it.depth, elapsed)
}

// AfterClose registers fn to run once the scan has fully stopped.
func (it *RowIterator) AfterClose(fn func()) {
	if it.closed {
		fn()
		return
	}
	it.afterClose = append(it.afterClose, fn)
}

func (it *RowIterator) finish(err error) {
	if it.closed {
		return
	}
	it.closed = true
	it.batch = nil
	closeErr := it.src.close()
	it.elapsed = time.Since(it.start)
	if err == nil && closeErr != nil && !errors.Is(closeErr, context.Canceled) {
		err = closeErr
	}
	if err != nil && it.err == nil {
		it.err = err
	}
	for _, fn := range slices.Backward(it.afterClose) {
		fn()
	}
	it.afterClose = nil
}

// emptySource is a scan over nothing.
type emptySource struct{}

func (emptySource) next(context.Context) ([]types.Row, bool, error) { return nil, false, nil }

func (emptySource) close() error { return nil }

// sliceSource serves rows that were materialized up front.
type sliceSource struct {
	rows []types.Row
	done bool
}

func (s *sliceSource) next(context.Context) ([]types.Row, bool, error) {
	if s.done {
		return nil, false, nil
	}
	s.done = true
	return s.rows, true, nil
}

func (s *sliceSource) close() error { return nil }
