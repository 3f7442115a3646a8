package storageengine

import (
	"context"

	"HTAPDB/storage_engine/scan"
	"HTAPDB/types"
)

/*
Read path

	Get(key)           latch.RLock → descend → binary search in leaf
	Scan(ctx, opts)    latch.RLock held until the iterator closes
	     ├── sequential: first registered leaf, follow NextLeaf with read-ahead
	     └── parallel:   registry snapshot → chunks → errgroup workers → fan-in
*/

func (se *StorageEngine) Get(key uint64) (types.Row, error) {
	se.latch.RLock()
	defer se.latch.RUnlock()
	if se.closed {
		return types.Row{}, types.ClosedError("get")
	}
	return se.Tree.Get(se.root, key)
}

// GetRange returns rows with lo <= key <= hi in key order.
func (se *StorageEngine) GetRange(lo, hi uint64) ([]types.Row, error) {
	se.latch.RLock()
	defer se.latch.RUnlock()
	if se.closed {
		return nil, types.ClosedError("range")
	}
	var rows []types.Row
	err := se.Tree.RangeScan(se.root, lo, hi, func(r types.Row) bool {
		rows = append(rows, r)
		return true
	})
	return rows, err
}

// Scan starts a full scan. The tree cannot change until the iterator is
// closed or drained, so a goroutine holding an open iterator must not write.
func (se *StorageEngine) Scan(ctx context.Context, opts scan.ScanOptions) (*scan.RowIterator, error) {
	se.latch.RLock()
	if se.closed {
		se.latch.RUnlock()
		return nil, types.ClosedError("scan")
	}
	it, err := se.Scanner.Scan(ctx, se.scanDefaults(opts))
	if err != nil {
		se.latch.RUnlock()
		return nil, err
	}
	it.AfterClose(se.latch.RUnlock)
	return it, nil
}

// ScanAll runs a scan to completion and returns every row it produced.
func (se *StorageEngine) ScanAll(ctx context.Context, opts scan.ScanOptions) (scan.Result, error) {
	it, err := se.Scan(ctx, opts)
	if err != nil {
		return scan.Result{}, err
	}
	return scan.Collect(it)
}

// Aggregate computes fn over col for the rows opts selects.
func (se *StorageEngine) Aggregate(ctx context.Context, opts scan.ScanOptions, fn scan.AggFunc, col int) (types.Value, error) {
	vals, err := se.AggregateMany(ctx, opts, scan.Aggregate{Func: fn, Column: col})
	if err != nil {
		return types.Null(), err
	}
	return vals[0], nil
}

// AggregateMany computes several aggregates in one pass.
func (se *StorageEngine) AggregateMany(ctx context.Context, opts scan.ScanOptions, aggs ...scan.Aggregate) ([]types.Value, error) {
	// Aggregates see every matching row; ordering and projection do not apply.
	opts.OrderBy = nil
	opts.Projection = nil
	it, err := se.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}
	return scan.RunAggregates(it, aggs)
}

// Count is the number of rows in the table.
func (se *StorageEngine) Count(ctx context.Context) (int64, error) {
	v, err := se.Aggregate(ctx, scan.ScanOptions{}, scan.AggCount, scan.KeyColumn)
	if err != nil {
		return 0, err
	}
	return v.AsInt(), nil
}

func (se *StorageEngine) scanDefaults(opts scan.ScanOptions) scan.ScanOptions {
	if opts.Workers == 0 {
		opts.Workers = se.cfg.Workers()
	}
	// 0 on either side leaves the scan's default depth in place
	if opts.ReadAhead == 0 && se.cfg.ReadAheadPages > 0 {
		opts.ReadAhead = se.cfg.ReadAheadPages
	}
	return opts
}

// LastKey returns the largest key in the table.
func (se *StorageEngine) LastKey() (uint64, bool, error) {
	se.latch.RLock()
	defer se.latch.RUnlock()
	if se.closed {
		return 0, false, types.ClosedError("last key")
	}
	leaves := se.Registry.Snapshot()
	for i := len(leaves) - 1; i >= 0; i-- {
		leaf, err := se.StorageManager.ReadPage(leaves[i])
		if err != nil {
			return 0, false, err
		}
		if n := len(leaf.Keys); n > 0 {
			return leaf.Keys[n-1], true, nil
		}
	}
	return 0, false, nil
}
