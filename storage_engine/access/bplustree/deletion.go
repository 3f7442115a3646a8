package bplus

import (
	"slices"

	"HTAPDB/logging"
	"HTAPDB/storage_engine/page"
	"HTAPDB/types"

	"go.uber.org/zap"
)

/*
Delete and rebalance.

A non-root node underflows when it holds fewer than minKeys (maxKeys/2) keys.
Fix-up, in order of preference:

	borrow  one entry from the richer adjacent sibling that has more than
	        minKeys (the left sibling wins a tie), rotating through the parent
	merge   with the left sibling if there is one, else absorb the right sibling;
	        the parent loses one separator and may underflow in turn

When the root is an internal node left with no keys, its only child becomes the
root. Merged-away pages stay in the file unreferenced.
*/

// Delete removes key and returns the root afterwards.
func (t *TreeOperations) Delete(root int64, key uint64) (int64, error) {
	op := t.begin("delete")
	defer op.end()

	leaf, err := op.descend(root, key)
	if err != nil {
		return root, err
	}
	idx, found := leaf.Search(key)
	if !found {
		return root, types.NotFoundError("delete", key)
	}

	leaf.RemoveAt(idx)
	if err := op.dirty(leaf); err != nil {
		return root, err
	}
	if ce := t.log.Check(zap.DebugLevel, "delete"); ce != nil {
		ce.Write(logging.Key(key), logging.PageID(leaf.ID), zap.Int("keys", leaf.NumKeys()))
	}
	return op.rebalance(root, leaf)
}

func (o *opContext) rebalance(root int64, node *page.Page) (int64, error) {
	if node.IsRoot() {
		return o.collapseRoot(root, node)
	}
	if node.NumKeys() >= o.t.minKeys {
		return root, nil
	}

	parent, err := o.fetch(node.ParentID)
	if err != nil {
		return root, err
	}
	i := parent.IndexOfChild(node.ID)
	if i < 0 {
		return root, types.CorruptPageError(parent.ID, "child %d missing from its parent", node.ID)
	}

	var left, right *page.Page
	if i > 0 {
		if left, err = o.fetch(parent.Children[i-1]); err != nil {
			return root, err
		}
	}
	if i < len(parent.Children)-1 {
		if right, err = o.fetch(parent.Children[i+1]); err != nil {
			return root, err
		}
	}

	leftSpare := left != nil && left.NumKeys() > o.t.minKeys
	rightSpare := right != nil && right.NumKeys() > o.t.minKeys
	switch {
	case leftSpare && (!rightSpare || left.NumKeys() >= right.NumKeys()):
		return root, o.borrowFromLeft(parent, i, left, node)
	case rightSpare:
		return root, o.borrowFromRight(parent, i, node, right)
	case left != nil:
		if err := o.merge(parent, i-1, left, node); err != nil {
			return root, err
		}
	case right != nil:
		if err := o.merge(parent, i, node, right); err != nil {
			return root, err
		}
	default:
		return root, types.CorruptPageError(parent.ID, "internal node with a single child")
	}
	return o.rebalance(root, parent)
}

// collapseRoot promotes the only child of an empty internal root.
func (o *opContext) collapseRoot(root int64, node *page.Page) (int64, error) {
	if node.IsLeaf || node.NumKeys() > 0 {
		return root, nil
	}
	child := node.Children[0]
	if err := o.setParent(child, page.NullPageID); err != nil {
		return root, err
	}
	o.log.Info("root collapsed", zap.Int64("old_root", node.ID), zap.Int64("new_root", child))
	return child, nil
}

// borrowFromLeft moves left's last entry to the front of node (node is child i).
func (o *opContext) borrowFromLeft(parent *page.Page, i int, left, node *page.Page) error {
	last := left.NumKeys() - 1
	if node.IsLeaf {
		row := left.Rows[last]
		left.RemoveAt(last)
		node.InsertRow(0, row)
		parent.Keys[i-1] = node.Keys[0]
	} else {
		moved := left.Children[last+1]
		node.Keys = slices.Insert(node.Keys, 0, parent.Keys[i-1])
		node.Children = slices.Insert(node.Children, 0, moved)
		parent.Keys[i-1] = left.Keys[last]
		left.Keys = left.Keys[:last]
		left.Children = left.Children[:last+1]
		if err := o.setParent(moved, node.ID); err != nil {
			return err
		}
	}
	return o.dirty(left, node, parent)
}

// borrowFromRight moves right's first entry to the end of node (node is child i).
func (o *opContext) borrowFromRight(parent *page.Page, i int, node, right *page.Page) error {
	if node.IsLeaf {
		row := right.Rows[0]
		right.RemoveAt(0)
		node.InsertRow(node.NumKeys(), row)
		parent.Keys[i] = right.Keys[0]
	} else {
		moved := right.Children[0]
		node.Keys = append(node.Keys, parent.Keys[i])
		node.Children = append(node.Children, moved)
		parent.Keys[i] = right.Keys[0]
		right.Keys = slices.Delete(right.Keys, 0, 1)
		right.Children = slices.Delete(right.Children, 0, 1)
		if err := o.setParent(moved, node.ID); err != nil {
			return err
		}
	}
	return o.dirty(right, node, parent)
}

// merge folds right into left. sep is the index of their separator in parent.
func (o *opContext) merge(parent *page.Page, sep int, left, right *page.Page) error {
	if left.IsLeaf {
		left.Keys = append(left.Keys, right.Keys...)
		left.Rows = append(left.Rows, right.Rows...)
		left.NextLeaf = right.NextLeaf
		if err := o.t.registry.Remove(right.ID); err != nil {
			return err
		}
	} else {
		left.Keys = append(left.Keys, parent.Keys[sep])
		left.Keys = append(left.Keys, right.Keys...)
		left.Children = append(left.Children, right.Children...)
		for _, childID := range right.Children {
			if err := o.setParent(childID, left.ID); err != nil {
				return err
			}
		}
	}
	parent.RemoveAt(sep)

	right.Keys, right.Rows, right.Children = nil, nil, nil
	right.NextLeaf = page.NullPageID
	if !right.IsLeaf {
		right.Children = []int64{page.NullPageID}
	}

	o.log.Debug("merge", logging.PageID(left.ID), zap.Int64("absorbed", right.ID))
	return o.dirty(left, right, parent)
}
