package bplus

import (
	"HTAPDB/logging"
	"HTAPDB/storage_engine/page"

	"go.uber.org/zap"
)

// opContext is the set of pages one tree operation is working on.
//
// Each page is fetched once and pinned until end(), so the operation always
// mutates the resident copy and the pool cannot evict it halfway through a
// split or merge. Pages touched only to rewrite a parent pointer are released
// right away to keep the pin count bounded by the tree height.
type opContext struct {
	t      *TreeOperations
	pinned map[int64]*page.Page
	log    *zap.Logger
}

func (t *TreeOperations) begin(name string) *opContext {
	return &opContext{t: t, pinned: make(map[int64]*page.Page, 8), log: logging.WithOp(t.log, name)}
}

func (o *opContext) fetch(id int64) (*page.Page, error) {
	if p, ok := o.pinned[id]; ok {
		return p, nil
	}
	p, err := o.t.sm.ReadPagePinned(id)
	if err != nil {
		return nil, err
	}
	o.pinned[id] = p
	return p, nil
}

// alloc creates a new node; it comes back pinned and dirty.
func (o *opContext) alloc(leaf bool) (*page.Page, error) {
	p, err := o.t.sm.NewPage(leaf)
	if err != nil {
		return nil, err
	}
	o.pinned[p.ID] = p
	return p, nil
}

func (o *opContext) dirty(pages ...*page.Page) error {
	for _, p := range pages {
		if err := o.t.sm.MarkDirty(p); err != nil {
			return err
		}
	}
	return nil
}

// setParent rewrites the parent pointer of child.
func (o *opContext) setParent(childID, parentID int64) error {
	_, held := o.pinned[childID]
	child, err := o.fetch(childID)
	if err != nil {
		return err
	}
	child.ParentID = parentID
	if err := o.dirty(child); err != nil {
		return err
	}
	if !held {
		o.release(childID)
	}
	return nil
}

func (o *opContext) release(id int64) {
	if _, ok := o.pinned[id]; ok {
		o.t.sm.Unpin(id)
		delete(o.pinned, id)
	}
}

func (o *opContext) end() {
	for id := range o.pinned {
		o.t.sm.Unpin(id)
	}
	clear(o.pinned)
}
