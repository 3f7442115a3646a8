package bplus

import (
	"HTAPDB/logging"
	"HTAPDB/storage_engine/page"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// splitLeaf splits an overflowing leaf, registers the new right sibling right
// after it and pushes the separator into the parent.
func (o *opContext) splitLeaf(root int64, leaf *page.Page) (int64, error) {
	right, err := o.alloc(true)
	if err != nil {
		return root, errors.Wrap(err, "splitLeaf: failed to allocate right sibling")
	}

	sep := leaf.SplitLeaf(right)
	if err := o.dirty(leaf, right); err != nil {
		return root, err
	}
	if err := o.t.registry.InsertAfter(leaf.ID, right.ID); err != nil {
		return root, err
	}
	o.log.Debug("leaf split", logging.PageID(leaf.ID), zap.Int64("right", right.ID), logging.Key(sep))

	return o.insertIntoParent(root, leaf, sep, right)
}
