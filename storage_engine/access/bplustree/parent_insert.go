package bplus

import (
	"HTAPDB/storage_engine/page"
	"HTAPDB/types"
)

// insertIntoParent inserts sep and right into the parent of left.
// If the parent overflows, it splits and propagates upward.
func (o *opContext) insertIntoParent(root int64, left *page.Page, sep uint64, right *page.Page) (int64, error) {
	if left.IsRoot() {
		return o.createNewRoot(left, sep, right)
	}

	parent, err := o.fetch(left.ParentID)
	if err != nil {
		return root, err
	}
	idx := parent.IndexOfChild(left.ID)
	if idx < 0 {
		return root, types.CorruptPageError(parent.ID, "child %d missing from its parent", left.ID)
	}

	parent.InsertChild(idx, sep, right.ID)
	right.ParentID = parent.ID
	if err := o.dirty(parent, right); err != nil {
		return root, err
	}

	if parent.NumKeys() <= o.t.maxKeys {
		return root, nil
	}
	return o.splitInternal(root, parent)
}
