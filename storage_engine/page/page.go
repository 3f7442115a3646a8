package page

import (
	"slices"

	"HTAPDB/types"
)

const (
	PageSize       = 4096
	HeaderSize     = 48
	Magic          = 0xDEADBEEF
	MaxKeysPerNode = 32
	MaxBodySize    = PageSize - HeaderSize

	// NullPageID marks an absent parent / next-leaf / child. Page 0 is the meta page,
	// so no tree node ever has id 0.
	NullPageID int64 = 0
)

/*
Page is the in-memory form of one B+Tree node.

Relationships are page ids, never pointers: the parent, the children of an
internal node and the next leaf are all looked up through the buffer pool.

	leaf:     Keys[i] == Rows[i].ID, NextLeaf links to the right sibling
	internal: len(Children) == len(Keys)+1, child i holds keys in [Keys[i-1], Keys[i])

The dirty flag lives in the buffer pool, not here.
*/
type Page struct {
	ID       int64
	IsLeaf   bool
	ParentID int64
	NextLeaf int64
	Keys     []uint64
	Rows     []types.Row
	Children []int64
}

func NewLeaf(id int64) *Page {
	return &Page{ID: id, IsLeaf: true}
}

func NewInternal(id int64) *Page {
	return &Page{ID: id}
}

func (p *Page) Type() types.PageType {
	if p.IsLeaf {
		return types.PageTypeLeaf
	}
	return types.PageTypeInternal
}

func (p *Page) NumKeys() int { return len(p.Keys) }

func (p *Page) IsRoot() bool { return p.ParentID == NullPageID }

// BodySize is the number of bytes the node needs after the header.
func (p *Page) BodySize() int {
	n := len(p.Keys) * 8
	if p.IsLeaf {
		for _, r := range p.Rows {
			n += types.RowPayloadSize(r.Values)
		}
		return n
	}
	return n + len(p.Children)*8
}

// MaxRowPayload is the largest encoded row a leaf can hold when it may carry
// up to maxKeys rows.
func MaxRowPayload(maxKeys int) int {
	if maxKeys <= 0 {
		maxKeys = MaxKeysPerNode
	}
	return (MaxBodySize - maxKeys*8) / maxKeys
}

func (p *Page) Clone() *Page {
	c := &Page{
		ID:       p.ID,
		IsLeaf:   p.IsLeaf,
		ParentID: p.ParentID,
		NextLeaf: p.NextLeaf,
		Keys:     slices.Clone(p.Keys),
		Children: slices.Clone(p.Children),
	}
	if p.Rows != nil {
		c.Rows = make([]types.Row, len(p.Rows))
		for i, r := range p.Rows {
			c.Rows[i] = r.Clone()
		}
	}
	return c
}

// Equal compares the persisted content of two pages.
func (p *Page) Equal(o *Page) bool {
	if p.ID != o.ID || p.IsLeaf != o.IsLeaf || p.ParentID != o.ParentID || p.NextLeaf != o.NextLeaf {
		return false
	}
	if !slices.Equal(p.Keys, o.Keys) || len(p.Children) != len(o.Children) || len(p.Rows) != len(o.Rows) {
		return false
	}
	if !slices.Equal(p.Children, o.Children) {
		return false
	}
	for i := range p.Rows {
		if !p.Rows[i].Equal(o.Rows[i]) {
			return false
		}
	}
	return true
}
