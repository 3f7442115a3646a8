package bplus

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a level-order listing of the tree rooted at root to w. With
// rows set, every leaf row is printed under its leaf.
func (t *TreeOperations) Dump(w io.Writer, root int64, rows bool) error {
	p := func(format string, args ...any) { fmt.Fprintf(w, format, args...) }

	p("  root page id = %d, max keys = %d, min keys = %d\n", root, t.maxKeys, t.minKeys)
	if root == 0 {
		p("  (empty tree)\n")
		return nil
	}

	queue := []int64{root}
	level := 0
	for len(queue) > 0 {
		size := len(queue)
		p("  Level %d:\n", level)
		for _, id := range queue[:size] {
			node, err := t.sm.ReadPage(id)
			if err != nil {
				p("    [page %d] read error: %v\n", id, err)
				continue
			}
			if !node.IsLeaf {
				p("    [page %d] INTERNAL parent=%d keys=%v children=%v\n", id, node.ParentID, node.Keys, node.Children)
				queue = append(queue, node.Children...)
				continue
			}
			p("    [page %d] LEAF parent=%d numKeys=%d next=%d\n", id, node.ParentID, node.NumKeys(), node.NextLeaf)
			if !rows {
				continue
			}
			for _, r := range node.Rows {
				vals := make([]string, len(r.Values))
				for i, v := range r.Values {
					vals[i] = v.String()
				}
				p("      %d -> (%s)\n", r.ID, strings.Join(vals, ", "))
			}
		}
		p("  ---\n")
		queue = queue[size:]
		level++
	}
	return nil
}
