package bufferpool

import (
	"container/list"
	"sync"

	"HTAPDB/storage_engine/page"

	"go.uber.org/zap"
)

// ############################################# BUFFER POOL #############################################

// BufferPool caches decoded pages with LRU eviction and a dirty set.
// One mutex guards the map, the LRU list, dirty flags and pin counts; scan
// workers and the mutating operator all go through it.
type BufferPool struct {
	frames   map[int64]*frame
	lru      *list.List // front = most recently used, values are page ids
	capacity int
	flusher  PageFlusher
	mu       sync.Mutex

	hits            int64
	misses          int64
	evictions       int64
	dirtyWritebacks int64

	log *zap.Logger
}

type frame struct {
	page  *page.Page
	elem  *list.Element
	dirty bool
	gen   uint64 // bumped by every MarkDirty
	pins  int32
}

// small interface so bufferpool doesn't import the storage manager
type PageFlusher interface {
	WritePage(p *page.Page) error
}

// DirtyEntry is one page captured by DirtySnapshot.
type DirtyEntry struct {
	ID         int64
	Generation uint64
	Page       *page.Page
}

type BufferPoolStats struct {
	Resident        int
	Capacity        int
	DirtyPages      int
	PinnedPages     int
	Hits            int64
	Misses          int64
	Evictions       int64
	DirtyWritebacks int64
	HitRate         float64
}
