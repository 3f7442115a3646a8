package bufferpool

import (
	"container/list"

	"HTAPDB/logging"
	"HTAPDB/storage_engine/page"
	"HTAPDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
This file is the main file of the bufferpool
The buffer pool works on LRU based caching mechanism and holds a PageFlusher
(the storage manager) for writing dirty victims back before they are dropped.
On a miss the caller loads the page through the storage manager and Puts it.

Eviction prefers the coldest clean unpinned page. Only when every unpinned page
is dirty is the coldest dirty one written out and then dropped, so a dirty
page's bytes always reach the file before its frame is reused.

Pins are held by a tree operation for the pages it is modifying; scans never pin.
*/

// NewBufferPool creates a new buffer pool with the given capacity
func NewBufferPool(capacity int) *BufferPool {
	return &BufferPool{
		frames:   make(map[int64]*frame, capacity),
		lru:      list.New(),
		capacity: capacity,
		log:      logging.WithComponent("bufferpool"),
	}
}

func (bp *BufferPool) SetFlusher(f PageFlusher) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.flusher = f
}

// Get returns the resident page for id and refreshes its LRU position.
func (bp *BufferPool) Get(pageID int64) (*page.Page, bool) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.getLocked(pageID, false)
}

// GetPinned is Get plus a pin, atomically.
func (bp *BufferPool) GetPinned(pageID int64) (*page.Page, bool) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.getLocked(pageID, true)
}

func (bp *BufferPool) getLocked(pageID int64, pin bool) (*page.Page, bool) {
	f, ok := bp.frames[pageID]
	if !ok {
		bp.misses++
		if ce := bp.log.Check(zap.DebugLevel, "miss"); ce != nil {
			ce.Write(logging.PageID(pageID))
		}
		return nil, false
	}
	bp.hits++
	bp.lru.MoveToFront(f.elem)
	if pin {
		f.pins++
	}
	return f.page, true
}

// Contains reports residency without touching LRU order or counters.
func (bp *BufferPool) Contains(pageID int64) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	_, ok := bp.frames[pageID]
	return ok
}

// Put makes p resident. If another copy of the same id is already resident
// that copy wins and is returned, so two loaders racing on one miss end up
// sharing a single page.
func (bp *BufferPool) Put(p *page.Page) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.insertLocked(p, false, false)
}

// PutPinned is Put plus a pin on the resident copy.
func (bp *BufferPool) PutPinned(p *page.Page) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.insertLocked(p, true, false)
}

// PutNew registers a freshly allocated page: resident, pinned and dirty.
func (bp *BufferPool) PutNew(p *page.Page) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if _, exists := bp.frames[p.ID]; exists {
		return types.NewError(types.KindInvalidArgument, "put new page",
			errors.Errorf("page %d is already resident", p.ID))
	}
	_, err := bp.insertLocked(p, true, true)
	return err
}

func (bp *BufferPool) insertLocked(p *page.Page, pin, dirty bool) (*page.Page, error) {
	if f, exists := bp.frames[p.ID]; exists {
		bp.lru.MoveToFront(f.elem)
		if pin {
			f.pins++
		}
		if dirty {
			f.dirty = true
			f.gen++
		}
		return f.page, nil
	}

	for len(bp.frames) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	f := &frame{page: p, elem: bp.lru.PushFront(p.ID)}
	if pin {
		f.pins = 1
	}
	if dirty {
		f.dirty = true
		f.gen = 1
	}
	bp.frames[p.ID] = f
	return p, nil
}

// evictLocked drops one frame: the coldest clean unpinned one, else the coldest
// dirty unpinned one after writing it out.
func (bp *BufferPool) evictLocked() error {
	var dirtyVictim *frame
	for e := bp.lru.Back(); e != nil; e = e.Prev() {
		f := bp.frames[e.Value.(int64)]
		if f.pins > 0 {
			continue
		}
		if !f.dirty {
			bp.dropLocked(f)
			if ce := bp.log.Check(zap.DebugLevel, "evict"); ce != nil {
				ce.Write(logging.PageID(f.page.ID), zap.Bool("dirty", false))
			}
			return nil
		}
		if dirtyVictim == nil {
			dirtyVictim = f
		}
	}

	if dirtyVictim == nil {
		return types.PoolExhaustedError(bp.capacity)
	}
	if bp.flusher == nil {
		return types.NewError(types.KindIO, "evict", errors.New("no flusher set for dirty page write-back"))
	}
	if err := bp.flusher.WritePage(dirtyVictim.page); err != nil {
		return errors.Wrapf(err, "write back page %d before eviction", dirtyVictim.page.ID)
	}
	bp.dirtyWritebacks++
	bp.log.Debug("evict", logging.PageID(dirtyVictim.page.ID), zap.Bool("dirty", true))
	bp.dropLocked(dirtyVictim)
	return nil
}

func (bp *BufferPool) dropLocked(f *frame) {
	bp.lru.Remove(f.elem)
	delete(bp.frames, f.page.ID)
	bp.evictions++
}

// Unpin releases one pin on pageID.
func (bp *BufferPool) Unpin(pageID int64) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if f, ok := bp.frames[pageID]; ok && f.pins > 0 {
		f.pins--
	}
}

// MarkDirty flags a resident page as modified.
func (bp *BufferPool) MarkDirty(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	f, ok := bp.frames[pageID]
	if !ok {
		return types.NewError(types.KindInvalidArgument, "mark dirty",
			errors.Errorf("page %d not in buffer pool", pageID))
	}
	f.dirty = true
	f.gen++
	return nil
}

func (bp *BufferPool) IsDirty(pageID int64) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	f, ok := bp.frames[pageID]
	return ok && f.dirty
}

// ClearDirty unconditionally clears the dirty flag.
func (bp *BufferPool) ClearDirty(pageID int64) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if f, ok := bp.frames[pageID]; ok {
		f.dirty = false
	}
}

// ClearDirtyIf clears the dirty flag only if nobody marked the page dirty since
// the snapshot that produced generation. It reports whether the flag was cleared.
func (bp *BufferPool) ClearDirtyIf(pageID int64, generation uint64) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	f, ok := bp.frames[pageID]
	if !ok || !f.dirty || f.gen != generation {
		return false
	}
	f.dirty = false
	return true
}
