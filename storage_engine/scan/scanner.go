package scan

import (
	"context"
	"slices"
	"time"

	"HTAPDB/logging"
	"HTAPDB/types"

	"go.uber.org/zap"
)

// LeafSource lists leaf page ids in key order. The returned slice must not
// change after it is handed out.
type LeafSource interface {
	Snapshot() []int64
}

// Scanner runs full-table scans over the leaf level. It takes no locks; the
// caller keeps the tree structure stable until the iterator is closed.
type Scanner struct {
	pages  PageReader
	leaves LeafSource
	log    *zap.Logger
}

func NewScanner(pages PageReader, leaves LeafSource) *Scanner {
	return &Scanner{pages: pages, leaves: leaves, log: logging.WithComponent("scan")}
}

// Scan starts a scan. Sequential scans follow NextLeaf links from the first
// registered leaf; parallel scans split a registry snapshot between workers.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) (*RowIterator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	c := &counters{}

	// Sorting needs the ordering column, so projection waits until after it.
	proj := opts.Projection
	if opts.needsSort() {
		proj = nil
	}
	f := &filter{pred: opts.Predicate, proj: proj, c: c}

	leaves := s.leaves.Snapshot()
	var src source
	var base Stats
	switch {
	case len(leaves) == 0:
		src = emptySource{}
		base = Stats{Mode: ModeSequential, Workers: 1}
	case opts.Parallel:
		ps := s.startParallel(ctx, leaves, opts, f)
		src = ps
		base = Stats{Mode: ModeParallel, Workers: ps.workers, Leaves: len(leaves)}
	default:
		src = s.startSequential(ctx, leaves[0], opts, f)
		base = Stats{Mode: ModeSequential, Workers: 1, Leaves: len(leaves)}
	}

	if opts.needsSort() {
		rows, err := drain(ctx, src)
		if err != nil {
			return nil, err
		}
		sortRows(rows, *opts.OrderBy)
		if opts.Projection != nil {
			for i := range rows {
				rows[i] = rows[i].Project(opts.Projection)
			}
		}
		src = &sliceSource{rows: rows}
	}

	if ce := s.log.Check(zap.DebugLevel, "scan started"); ce != nil {
		ce.Write(zap.String("mode", string(base.Mode)), zap.Int("workers", base.Workers),
			zap.Int("leaves", len(leaves)), zap.Int("read_ahead", opts.readAhead()))
	}
	return newIterator(ctx, src, opts, base, c, start), nil
}

func drain(ctx context.Context, src source) ([]types.Row, error) {
	var rows []types.Row
	for {
		batch, ok, err := src.next(ctx)
		if err != nil {
			src.close()
			return nil, err
		}
		if !ok {
			return rows, src.close()
		}
		rows = append(rows, batch...)
	}
}

// sortRows orders rows by one column, NULLs first, ties broken by key.
func sortRows(rows []types.Row, ob OrderBy) {
	slices.SortStableFunc(rows, func(a, b types.Row) int {
		r := 0
		if ob.Column != KeyColumn {
			va, vb := a.Get(ob.Column), b.Get(ob.Column)
			switch {
			case types.Less(va, vb):
				r = -1
			case types.Less(vb, va):
				r = 1
			}
		}
		if r == 0 {
			switch {
			case a.ID < b.ID:
				r = -1
			case a.ID > b.ID:
				r = 1
			}
		}
		if ob.Desc {
			r = -r
		}
		return r
	})
}
