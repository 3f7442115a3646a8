package leafregistry

import (
	"slices"
	"sync"
	"sync/atomic"

	"HTAPDB/logging"
	"HTAPDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
Leaf page registry: every leaf page id in leaf-chain order.

The list is copy-on-write. Writers (tree operations, one at a time) build a new
slice and swap it in; Snapshot hands out the current slice without copying, and
that slice never changes afterwards. A parallel scan therefore works on one
consistent leaf set no matter what happens to the tree after it started.
*/

type Registry struct {
	mu  sync.Mutex // serializes writers
	ids atomic.Pointer[[]int64]
	log *zap.Logger
}

func New() *Registry {
	r := &Registry{log: logging.WithComponent("leafregistry")}
	empty := []int64{}
	r.ids.Store(&empty)
	return r
}

// Snapshot returns the current leaf ids in key order. Do not modify the result.
func (r *Registry) Snapshot() []int64 {
	return *r.ids.Load()
}

func (r *Registry) Count() int {
	return len(r.Snapshot())
}

// First returns the leftmost leaf.
func (r *Registry) First() (int64, bool) {
	ids := r.Snapshot()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

func (r *Registry) Contains(id int64) bool {
	return slices.Contains(r.Snapshot(), id)
}

// Batch returns up to size ids starting at position start.
func (r *Registry) Batch(start, size int) []int64 {
	ids := r.Snapshot()
	if start < 0 || start >= len(ids) || size <= 0 {
		return nil
	}
	end := min(start+size, len(ids))
	return ids[start:end:end]
}

// Reset replaces the whole list.
func (r *Registry) Reset(ids []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := slices.Clone(ids)
	if next == nil {
		next = []int64{}
	}
	r.ids.Store(&next)
}

// InsertAfter records that leaf right was split off leaf left and follows it.
func (r *Registry) InsertAfter(left, right int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.ids.Load()
	i := slices.Index(cur, left)
	if i < 0 {
		return types.NewError(types.KindInvalidArgument, "registry insert",
			errors.Errorf("leaf %d is not registered", left))
	}
	next := make([]int64, 0, len(cur)+1)
	next = append(next, cur[:i+1]...)
	next = append(next, right)
	next = append(next, cur[i+1:]...)
	r.ids.Store(&next)
	r.log.Debug("leaf added", zap.Int64("after", left), logging.PageID(right), zap.Int("leaves", len(next)))
	return nil
}

// Remove drops a leaf that was merged away.
func (r *Registry) Remove(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.ids.Load()
	i := slices.Index(cur, id)
	if i < 0 {
		return types.NewError(types.KindInvalidArgument, "registry remove",
			errors.Errorf("leaf %d is not registered", id))
	}
	next := make([]int64, 0, len(cur)-1)
	next = append(next, cur[:i]...)
	next = append(next, cur[i+1:]...)
	r.ids.Store(&next)
	r.log.Debug("leaf removed", logging.PageID(id), zap.Int("leaves", len(next)))
	return nil
}

// Validate checks the registry against the leaf chain walked from the leftmost leaf.
func (r *Registry) Validate(chain []int64) error {
	ids := r.Snapshot()
	n := min(len(ids), len(chain))
	for i := 0; i < n; i++ {
		if ids[i] != chain[i] {
			return errors.Errorf("leaf registry diverges at position %d: registry has %d, chain has %d",
				i, ids[i], chain[i])
		}
	}
	if len(ids) != len(chain) {
		return errors.Errorf("leaf registry has %d leaves, chain has %d", len(ids), len(chain))
	}
	return nil
}
