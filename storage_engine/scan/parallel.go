package scan

import (
	"context"
	"sync/atomic"

	"HTAPDB/types"

	"golang.org/x/sync/errgroup"
)

/*
Parallel scan

The leaf snapshot is cut into contiguous chunks of ceil(n/workers) leaves, one
chunk per worker. Each worker runs its own read-ahead stream over its chunk and
sends filtered batches on a shared channel:

	snapshot  [l0 l1 l2 | l3 l4 l5 | l6 l7]
	              w0         w1       w2
	                \        |        /
	                 results channel  -> RowIterator

Without ordering, batches are passed on in completion order. When the caller
asked for key order, batches of chunk k+1 are held back until chunk k has sent
its last one, which restores leaf order because chunks are contiguous.
*/

type batch struct {
	chunk int
	rows  []types.Row
	last  bool
}

type parallelSource struct {
	results chan batch
	cancel  context.CancelFunc
	workers int
	waitErr error // set before results is closed

	ordered   bool
	nextChunk int
	pending   map[int][][]types.Row
	finished  map[int]bool
	queue     [][]types.Row

	// quota stops workers once offset+limit rows are queued for the consumer.
	quota   int64
	emitted atomic.Int64
}

func (s *Scanner) startParallel(ctx context.Context, leaves []int64, opts ScanOptions, f *filter) *parallelSource {
	workers := min(opts.workers(), len(leaves))
	size := (len(leaves) + workers - 1) / workers
	chunks := (len(leaves) + size - 1) / size

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	ps := &parallelSource{
		results:  make(chan batch, chunks*2),
		cancel:   cancel,
		workers:  chunks,
		ordered:  opts.orderedByKey(),
		pending:  make(map[int][][]types.Row),
		finished: make(map[int]bool),
	}
	if opts.Limit > 0 && !opts.needsSort() && !ps.ordered {
		ps.quota = int64(opts.Offset + opts.Limit)
	}

	depth := opts.readAhead()
	for k := 0; k < chunks; k++ {
		ids := leaves[k*size : min((k+1)*size, len(leaves))]
		g.Go(func() error {
			return ps.work(gctx, g, s.pages, k, ids, depth, f)
		})
	}
	go func() {
		ps.waitErr = g.Wait()
		close(ps.results)
	}()
	return ps
}

func (ps *parallelSource) work(ctx context.Context, g *errgroup.Group, pages PageReader, chunk int, ids []int64, depth int, f *filter) error {
	stream := listStream(ctx, g, pages, ids, depth, &f.c.ra)
	for {
		if ps.quota > 0 && ps.emitted.Load() >= ps.quota {
			break
		}
		p, ok, err := stream.next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		rows := f.apply(p)
		if len(rows) == 0 {
			continue
		}
		if err := ps.send(ctx, batch{chunk: chunk, rows: rows}); err != nil {
			return err
		}
		ps.emitted.Add(int64(len(rows)))
	}
	if ps.quota > 0 && ps.emitted.Load() >= ps.quota {
		// Enough rows are on their way; stop the other workers.
		ps.cancel()
	}
	return ps.send(ctx, batch{chunk: chunk, last: true})
}

func (ps *parallelSource) send(ctx context.Context, b batch) error {
	select {
	case ps.results <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ps *parallelSource) next(ctx context.Context) ([]types.Row, bool, error) {
	for {
		if len(ps.queue) > 0 {
			rows := ps.queue[0]
			ps.queue = ps.queue[1:]
			return rows, true, nil
		}
		var b batch
		var ok bool
		select {
		case b, ok = <-ps.results:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
		if !ok {
			if ps.waitErr != nil && !(ps.quota > 0 && ps.emitted.Load() >= ps.quota) {
				return nil, false, ps.waitErr
			}
			return nil, false, nil
		}
		if !ps.ordered {
			if !b.last {
				return b.rows, true, nil
			}
			continue
		}
		ps.accept(b)
	}
}

// accept routes a batch through the chunk-order buffer into queue.
func (ps *parallelSource) accept(b batch) {
	if b.chunk != ps.nextChunk {
		if b.last {
			ps.finished[b.chunk] = true
		} else {
			ps.pending[b.chunk] = append(ps.pending[b.chunk], b.rows)
		}
		return
	}
	if !b.last {
		ps.queue = append(ps.queue, b.rows)
		return
	}
	// Current chunk is complete; release every buffered chunk that follows.
	for {
		ps.nextChunk++
		ps.queue = append(ps.queue, ps.pending[ps.nextChunk]...)
		delete(ps.pending, ps.nextChunk)
		if !ps.finished[ps.nextChunk] {
			return
		}
		delete(ps.finished, ps.nextChunk)
	}
}

func (ps *parallelSource) close() error {
	ps.cancel()
	for range ps.results {
	}
	return ps.waitErr
}
