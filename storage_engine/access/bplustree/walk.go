package bplus

import (
	"HTAPDB/storage_engine/page"

	"github.com/pkg/errors"
)

// Height is the number of levels, 1 for a tree whose root is a leaf.
func (t *TreeOperations) Height(root int64) (int, error) {
	h := 0
	id := root
	for {
		node, err := t.sm.ReadPage(id)
		if err != nil {
			return 0, err
		}
		h++
		if node.IsLeaf {
			return h, nil
		}
		id = node.Children[0]
	}
}

// LeafChain walks NextLeaf links from the leftmost leaf.
func (t *TreeOperations) LeafChain(root int64) ([]int64, error) {
	first, err := t.LeftmostLeaf(root)
	if err != nil {
		return nil, err
	}
	limit := t.sm.Disk().NextPageID()
	chain := make([]int64, 0, t.registry.Count())
	for id := first; id != page.NullPageID; {
		if int64(len(chain)) >= limit {
			return nil, errors.Errorf("leaf chain from %d does not terminate", first)
		}
		chain = append(chain, id)
		leaf, err := t.sm.ReadPage(id)
		if err != nil {
			return nil, err
		}
		if !leaf.IsLeaf {
			return nil, errors.Errorf("leaf chain reaches internal page %d", id)
		}
		id = leaf.NextLeaf
	}
	return chain, nil
}

// RebuildRegistry replaces the registry with the current leaf chain.
func (t *TreeOperations) RebuildRegistry(root int64) error {
	chain, err := t.LeafChain(root)
	if err != nil {
		return err
	}
	t.registry.Reset(chain)
	t.log.Info("leaf registry rebuilt")
	return nil
}

// TreeReport summarizes a validated tree.
type TreeReport struct {
	Height   int
	Internal int
	Leaves   int
	Rows     int
}

// Validate checks every structural invariant reachable from root: ascending
// keys inside their separator bounds, child count = key count + 1, parent
// pointers, occupancy, uniform leaf depth, a leaf chain equal to the in-order
// leaves, and a registry equal to the chain.
func (t *TreeOperations) Validate(root int64) (TreeReport, error) {
	v := validator{t: t, root: root, leafDepth: -1}
	if err := v.node(root, page.NullPageID, 0, nil, nil); err != nil {
		return TreeReport{}, err
	}
	chain, err := t.LeafChain(root)
	if err != nil {
		return TreeReport{}, err
	}
	if len(chain) != len(v.leaves) {
		return TreeReport{}, errors.Errorf("leaf chain has %d leaves, tree has %d", len(chain), len(v.leaves))
	}
	for i := range chain {
		if chain[i] != v.leaves[i] {
			return TreeReport{}, errors.Errorf("leaf chain position %d is %d, in-order leaf is %d", i, chain[i], v.leaves[i])
		}
	}
	if err := t.registry.Validate(chain); err != nil {
		return TreeReport{}, err
	}
	v.report.Height = v.leafDepth + 1
	v.report.Leaves = len(v.leaves)
	return v.report, nil
}

type validator struct {
	t         *TreeOperations
	root      int64
	leafDepth int
	leaves    []int64
	report    TreeReport
}

// node checks the subtree at id; lo/hi bound its keys as lo <= k < hi.
func (v *validator) node(id, parent int64, depth int, lo, hi *uint64) error {
	n, err := v.t.sm.ReadPage(id)
	if err != nil {
		return err
	}
	if n.ParentID != parent {
		return errors.Errorf("page %d: parent is %d, expected %d", id, n.ParentID, parent)
	}
	if n.NumKeys() > v.t.maxKeys {
		return errors.Errorf("page %d: %d keys exceeds max %d", id, n.NumKeys(), v.t.maxKeys)
	}
	if id != v.root && n.NumKeys() < v.t.minKeys {
		return errors.Errorf("page %d: %d keys below min %d", id, n.NumKeys(), v.t.minKeys)
	}
	for i, k := range n.Keys {
		if i > 0 && n.Keys[i-1] >= k {
			return errors.Errorf("page %d: keys not strictly ascending at %d", id, i)
		}
		if (lo != nil && k < *lo) || (hi != nil && k >= *hi) {
			return errors.Errorf("page %d: key %d outside separator bounds", id, k)
		}
	}

	if n.IsLeaf {
		if v.leafDepth == -1 {
			v.leafDepth = depth
		} else if v.leafDepth != depth {
			return errors.Errorf("leaf %d at depth %d, other leaves at %d", id, depth, v.leafDepth)
		}
		for i, r := range n.Rows {
			if r.ID != n.Keys[i] {
				return errors.Errorf("leaf %d: row %d id %d does not match key %d", id, i, r.ID, n.Keys[i])
			}
		}
		v.leaves = append(v.leaves, id)
		v.report.Rows += n.NumKeys()
		return nil
	}

	if len(n.Children) != n.NumKeys()+1 {
		return errors.Errorf("page %d: %d children for %d keys", id, len(n.Children), n.NumKeys())
	}
	if id == v.root && n.NumKeys() == 0 {
		return errors.Errorf("internal root %d has no keys", id)
	}
	v.report.Internal++
	for i, c := range n.Children {
		clo, chi := lo, hi
		if i > 0 {
			clo = &n.Keys[i-1]
		}
		if i < n.NumKeys() {
			chi = &n.Keys[i]
		}
		if err := v.node(c, id, depth+1, clo, chi); err != nil {
			return err
		}
	}
	return nil
}
