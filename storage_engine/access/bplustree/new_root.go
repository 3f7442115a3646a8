package bplus

import (
	"HTAPDB/storage_engine/page"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// createNewRoot creates a new root internal node with left and right as its
// two children, separated by sep, and returns its id.
func (o *opContext) createNewRoot(left *page.Page, sep uint64, right *page.Page) (int64, error) {
	root, err := o.alloc(false)
	if err != nil {
		return left.ID, errors.Wrap(err, "createNewRoot: failed to allocate new root")
	}

	root.Keys = append(root.Keys, sep)
	root.Children = append(root.Children, left.ID, right.ID)
	left.ParentID = root.ID
	right.ParentID = root.ID
	if err := o.dirty(root, left, right); err != nil {
		return left.ID, err
	}

	o.log.Info("root split", zap.Int64("old_root", left.ID), zap.Int64("new_root", root.ID))
	return root.ID, nil
}

// CreateRoot allocates the empty leaf that starts a new tree and registers it
// as the only leaf.
func (t *TreeOperations) CreateRoot() (int64, error) {
	op := t.begin("create root")
	defer op.end()

	leaf, err := op.alloc(true)
	if err != nil {
		return page.NullPageID, err
	}
	t.registry.Reset([]int64{leaf.ID})
	t.log.Info("created root leaf", zap.Int64("root", leaf.ID))
	return leaf.ID, nil
}
