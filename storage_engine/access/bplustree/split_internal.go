package bplus

import (
	"HTAPDB/logging"
	"HTAPDB/storage_engine/page"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// splitInternal splits a full internal node and promotes the middle key.
func (o *opContext) splitInternal(root int64, node *page.Page) (int64, error) {
	right, err := o.alloc(false)
	if err != nil {
		return root, errors.Wrap(err, "splitInternal: failed to allocate right sibling")
	}

	promoted := node.SplitInternal(right)

	// Update parent pointers of moved children.
	for _, childID := range right.Children {
		if err := o.setParent(childID, right.ID); err != nil {
			return root, errors.Wrapf(err, "splitInternal: failed to reparent child %d", childID)
		}
	}
	if err := o.dirty(node, right); err != nil {
		return root, err
	}
	o.log.Debug("internal split", logging.PageID(node.ID), zap.Int64("right", right.ID), logging.Key(promoted))

	return o.insertIntoParent(root, node, promoted, right)
}
