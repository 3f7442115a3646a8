package page

import (
	"slices"
	"sort"

	"HTAPDB/types"
)

// Search returns the slot of key in p.Keys, or the slot it would be inserted at.
func (p *Page) Search(key uint64) (int, bool) {
	i := sort.Search(len(p.Keys), func(i int) bool { return p.Keys[i] >= key })
	return i, i < len(p.Keys) && p.Keys[i] == key
}

// ChildIndex picks the child of an internal node whose range holds key.
// Keys equal to a separator belong to the right side.
func (p *Page) ChildIndex(key uint64) int {
	return sort.Search(len(p.Keys), func(i int) bool { return p.Keys[i] > key })
}

// IndexOfChild returns the slot of childID in p.Children, or -1.
func (p *Page) IndexOfChild(childID int64) int {
	return slices.Index(p.Children, childID)
}

// InsertRow puts row at slot i of a leaf.
func (p *Page) InsertRow(i int, row types.Row) {
	p.Keys = insert(p.Keys, i, row.ID)
	p.Rows = insert(p.Rows, i, row)
}

// InsertChild inserts separator key at slot i and the child to its right.
func (p *Page) InsertChild(i int, key uint64, child int64) {
	p.Keys = insert(p.Keys, i, key)
	p.Children = insert(p.Children, i+1, child)
}

// RemoveAt drops slot i. For internal nodes it removes Keys[i] and Children[i+1].
func (p *Page) RemoveAt(i int) {
	p.Keys = remove(p.Keys, i)
	if p.IsLeaf {
		p.Rows = remove(p.Rows, i)
		return
	}
	p.Children = remove(p.Children, i+1)
}

// SplitLeaf moves the upper half of a leaf into right, an empty leaf that was
// just allocated, and returns the separator (right's first key). The leaf
// chain becomes p -> right -> p's old next.
func (p *Page) SplitLeaf(right *Page) uint64 {
	mid := len(p.Keys) / 2

	right.IsLeaf = true
	right.Keys = slices.Clone(p.Keys[mid:])
	right.Rows = slices.Clone(p.Rows[mid:])
	right.ParentID = p.ParentID
	right.NextLeaf = p.NextLeaf

	p.Keys = slices.Clip(p.Keys[:mid])
	p.Rows = slices.Clip(p.Rows[:mid])
	p.NextLeaf = right.ID

	return right.Keys[0]
}

// SplitInternal moves the keys and children right of the median into right and
// returns the promoted median key, which leaves both halves. Moved children
// still name p as their parent; the caller fixes them.
func (p *Page) SplitInternal(right *Page) uint64 {
	mid := len(p.Keys) / 2
	promoted := p.Keys[mid]

	right.IsLeaf = false
	right.Keys = slices.Clone(p.Keys[mid+1:])
	right.Children = slices.Clone(p.Children[mid+1:])
	right.ParentID = p.ParentID

	p.Keys = slices.Clip(p.Keys[:mid])
	p.Children = slices.Clip(p.Children[:mid+1])

	return promoted
}
