package bplus

import (
	"HTAPDB/storage_engine/page"
	"HTAPDB/types"
)

// FindLeaf descends from root to the leaf whose key range holds key.
func (t *TreeOperations) FindLeaf(root int64, key uint64) (int64, error) {
	leaf, err := t.findLeafPage(root, key)
	if err != nil {
		return 0, err
	}
	return leaf.ID, nil
}

// findLeafPage is the read-only descent used by lookups; nothing is pinned.
func (t *TreeOperations) findLeafPage(root int64, key uint64) (*page.Page, error) {
	if root == page.NullPageID {
		return nil, types.NewError(types.KindInvalidArgument, "find leaf", nil)
	}
	id := root
	for {
		node, err := t.sm.ReadPage(id)
		if err != nil {
			return nil, err
		}
		if node.IsLeaf {
			return node, nil
		}
		if len(node.Children) == 0 {
			return nil, types.CorruptPageError(id, "internal node has no children")
		}
		id = node.Children[node.ChildIndex(key)]
	}
}

// descend is findLeafPage for mutations: every node on the path stays pinned
// in o until the operation ends.
func (o *opContext) descend(root int64, key uint64) (*page.Page, error) {
	if root == page.NullPageID {
		return nil, types.NewError(types.KindInvalidArgument, "find leaf", nil)
	}
	id := root
	for {
		node, err := o.fetch(id)
		if err != nil {
			return nil, err
		}
		if node.IsLeaf {
			return node, nil
		}
		if len(node.Children) == 0 {
			return nil, types.CorruptPageError(id, "internal node has no children")
		}
		id = node.Children[node.ChildIndex(key)]
	}
}

// LeftmostLeaf follows the first child down from root.
func (t *TreeOperations) LeftmostLeaf(root int64) (int64, error) {
	id := root
	for {
		node, err := t.sm.ReadPage(id)
		if err != nil {
			return 0, err
		}
		if node.IsLeaf {
			return id, nil
		}
		if len(node.Children) == 0 {
			return 0, types.CorruptPageError(id, "internal node has no children")
		}
		id = node.Children[0]
	}
}
