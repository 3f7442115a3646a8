package scan

import (
	"HTAPDB/storage_engine/page"
	"HTAPDB/types"
)

// filter turns one leaf into the rows a scan keeps from it. Rows are copied so
// callers never alias page memory.
type filter struct {
	pred Predicate
	proj []int
	c    *counters
}

func (f *filter) apply(p *page.Page) []types.Row {
	f.c.pages.Add(1)
	f.c.scanned.Add(int64(len(p.Rows)))

	out := make([]types.Row, 0, len(p.Rows))
	for _, r := range p.Rows {
		if f.pred != nil && !f.pred.Match(r) {
			continue
		}
		if f.proj != nil {
			out = append(out, r.Project(f.proj))
		} else {
			out = append(out, r.Clone())
		}
	}
	f.c.matched.Add(int64(len(out)))
	return out
}
