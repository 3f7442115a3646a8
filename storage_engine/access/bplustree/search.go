package bplus

import "HTAPDB/types"

// Get returns the row stored under key.
func (t *TreeOperations) Get(root int64, key uint64) (types.Row, error) {
	leaf, err := t.findLeafPage(root, key)
	if err != nil {
		return types.Row{}, err
	}
	idx, found := leaf.Search(key)
	if !found {
		return types.Row{}, types.NotFoundError("get", key)
	}
	return leaf.Rows[idx].Clone(), nil
}

// RangeScan calls fn for every row with lo <= key <= hi in key order, following
// leaf links from the leaf holding lo. fn returning false stops the walk.
func (t *TreeOperations) RangeScan(root int64, lo, hi uint64, fn func(types.Row) bool) error {
	if lo > hi {
		return nil
	}
	leaf, err := t.findLeafPage(root, lo)
	if err != nil {
		return err
	}
	idx, _ := leaf.Search(lo)
	for {
		for ; idx < len(leaf.Rows); idx++ {
			if leaf.Keys[idx] > hi {
				return nil
			}
			if !fn(leaf.Rows[idx].Clone()) {
				return nil
			}
		}
		if leaf.NextLeaf == 0 {
			return nil
		}
		if leaf, err = t.sm.ReadPage(leaf.NextLeaf); err != nil {
			return err
		}
		idx = 0
	}
}
