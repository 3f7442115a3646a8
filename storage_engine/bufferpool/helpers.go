package bufferpool

import (
	"fmt"
	"slices"

	"HTAPDB/storage_engine/page"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

/*
This file holds helper functions for the bufferpool
*/

// DirtyPages returns the ids of all dirty resident pages in ascending order.
func (bp *BufferPool) DirtyPages() []int64 {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	ids := make([]int64, 0)
	for id, f := range bp.frames {
		if f.dirty {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// DirtySnapshot captures every dirty page with its current generation. The
// caller encodes the pages, writes them, then calls ClearDirtyIf per entry.
func (bp *BufferPool) DirtySnapshot() []DirtyEntry {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	entries := make([]DirtyEntry, 0)
	for id, f := range bp.frames {
		if f.dirty {
			entries = append(entries, DirtyEntry{ID: id, Generation: f.gen, Page: f.page})
		}
	}
	slices.SortFunc(entries, func(a, b DirtyEntry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return entries
}

// Stats returns buffer pool statistics
func (bp *BufferPool) Stats() BufferPoolStats {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	stats := BufferPoolStats{
		Resident:        len(bp.frames),
		Capacity:        bp.capacity,
		Hits:            bp.hits,
		Misses:          bp.misses,
		Evictions:       bp.evictions,
		DirtyWritebacks: bp.dirtyWritebacks,
	}
	for _, f := range bp.frames {
		if f.pins > 0 {
			stats.PinnedPages++
		}
		if f.dirty {
			stats.DirtyPages++
		}
	}
	if total := bp.hits + bp.misses; total > 0 {
		stats.HitRate = float64(bp.hits) / float64(total)
	}
	return stats
}

func (s BufferPoolStats) String() string {
	return fmt.Sprintf("%d/%d pages (%s), %d dirty, %d pinned, hit rate %.1f%%, %s evictions",
		s.Resident, s.Capacity, humanize.Bytes(uint64(s.Resident)*page.PageSize),
		s.DirtyPages, s.PinnedPages, s.HitRate*100, humanize.Comma(s.Evictions))
}

// Reset writes back every dirty page and empties the pool.
func (bp *BufferPool) Reset() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for _, f := range bp.frames {
		if f.dirty && bp.flusher != nil {
			if err := bp.flusher.WritePage(f.page); err != nil {
				return errors.Wrap(err, "failed to flush page during reset")
			}
		}
	}
	bp.frames = make(map[int64]*frame, bp.capacity)
	bp.lru.Init()
	return nil
}

// Size returns the current number of pages in the buffer pool
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.frames)
}

// Capacity returns the maximum capacity of the buffer pool
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}
