package storagemanager

import (
	"HTAPDB/logging"
	"HTAPDB/storage_engine/bufferpool"
	diskmanager "HTAPDB/storage_engine/disk_manager"
	"HTAPDB/storage_engine/page"
	"HTAPDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
Storage manager: page-level I/O on top of the disk manager and buffer pool.

	ReadPage     pool hit, else ReadBlock + Decode + Put
	WritePage    Encode + WriteBlock (also the pool's eviction write-back)
	NewPage      AllocatePage + resident, pinned, dirty
	FlushDirty   snapshot dirty set, write each page, clear only unchanged flags
*/

func New(disk *diskmanager.DiskManager, pool *bufferpool.BufferPool) *StorageManager {
	sm := &StorageManager{
		disk: disk,
		pool: pool,
		log:  logging.WithComponent("storagemanager"),
	}
	pool.SetFlusher(sm)
	return sm
}

// Open opens the database file and wraps it with a pool of poolCapacity pages.
func Open(path string, poolCapacity int, opts diskmanager.Options) (*StorageManager, error) {
	disk, err := diskmanager.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return New(disk, bufferpool.NewBufferPool(poolCapacity)), nil
}

func (sm *StorageManager) Pool() *bufferpool.BufferPool { return sm.pool }

func (sm *StorageManager) Disk() *diskmanager.DiskManager { return sm.disk }

// ReadPage returns page id, from the pool if resident.
func (sm *StorageManager) ReadPage(id int64) (*page.Page, error) {
	if p, ok := sm.pool.Get(id); ok {
		return p, nil
	}
	p, err := sm.load(id)
	if err != nil {
		return nil, err
	}
	return sm.pool.Put(p)
}

// ReadPagePinned is ReadPage that also pins the page; release with Unpin.
func (sm *StorageManager) ReadPagePinned(id int64) (*page.Page, error) {
	if p, ok := sm.pool.GetPinned(id); ok {
		return p, nil
	}
	p, err := sm.load(id)
	if err != nil {
		return nil, err
	}
	return sm.pool.PutPinned(p)
}

func (sm *StorageManager) load(id int64) (*page.Page, error) {
	buf, err := sm.disk.ReadBlock(id)
	if err != nil {
		return nil, err
	}
	p, err := page.Decode(buf)
	if err == nil && p.ID != id {
		err = types.CorruptPageError(id, "slot holds page %d", p.ID)
	}
	if err != nil {
		logging.WithPage(sm.log, id).Error("unreadable page", zap.Error(err))
		return nil, errors.Wrapf(err, "read page %d", id)
	}
	return p, nil
}

// WritePage serializes p and writes it to its slot. It does not touch the
// dirty flag; it is also the pool's write-back path during eviction.
func (sm *StorageManager) WritePage(p *page.Page) error {
	buf, err := page.Encode(p)
	if err != nil {
		return err
	}
	return sm.disk.WriteBlock(p.ID, buf)
}

// NewPage allocates a slot and returns an empty node for it, resident, pinned
// and dirty.
func (sm *StorageManager) NewPage(leaf bool) (*page.Page, error) {
	id, err := sm.disk.AllocatePage()
	if err != nil {
		return nil, err
	}
	var p *page.Page
	if leaf {
		p = page.NewLeaf(id)
	} else {
		p = page.NewInternal(id)
	}
	if err := sm.pool.PutNew(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (sm *StorageManager) AllocatePage() (int64, error) {
	return sm.disk.AllocatePage()
}

func (sm *StorageManager) MarkDirty(p *page.Page) error {
	return sm.pool.MarkDirty(p.ID)
}

func (sm *StorageManager) Unpin(id int64) {
	sm.pool.Unpin(id)
}

// FlushDirtyPages writes every dirty page and clears its flag. A page marked
// dirty again after its snapshot keeps the flag and is written next time.
func (sm *StorageManager) FlushDirtyPages() error {
	sm.flushMu.Lock()
	defer sm.flushMu.Unlock()

	entries := sm.pool.DirtySnapshot()
	flushed := 0
	for _, e := range entries {
		if err := sm.WritePage(e.Page); err != nil {
			return errors.Wrapf(err, "flush page %d", e.ID)
		}
		if sm.pool.ClearDirtyIf(e.ID, e.Generation) {
			flushed++
		}
	}
	if len(entries) > 0 {
		sm.log.Debug("flushed dirty pages", zap.Int("written", len(entries)), zap.Int("cleared", flushed))
	}
	return nil
}

// Prefetch hints the kernel about upcoming reads of the non-resident ids,
// coalescing adjacent slots into one request. It returns how many were hinted.
func (sm *StorageManager) Prefetch(ids []int64) int {
	hinted := 0
	var runStart, runLen int64
	flush := func() {
		if runLen > 0 {
			sm.disk.Advise(runStart, runLen)
			hinted += int(runLen)
		}
		runLen = 0
	}
	for _, id := range ids {
		if sm.pool.Contains(id) {
			flush()
			continue
		}
		if runLen > 0 && id == runStart+runLen {
			runLen++
			continue
		}
		flush()
		runStart, runLen = id, 1
	}
	flush()
	return hinted
}

func (sm *StorageManager) RootID() int64 { return sm.disk.RootID() }

func (sm *StorageManager) SetRootID(id int64) error { return sm.disk.SetRootID(id) }

func (sm *StorageManager) Sync() error { return sm.disk.Sync() }

// Close flushes dirty pages, empties the pool and closes the file.
func (sm *StorageManager) Close() error {
	flushErr := sm.FlushDirtyPages()
	if flushErr == nil {
		flushErr = sm.pool.Reset()
	}
	closeErr := sm.disk.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (sm *StorageManager) Stats() Stats {
	return Stats{Pool: sm.pool.Stats(), Disk: sm.disk.Stats()}
}

// IsResident reports whether id is in the pool without touching LRU order.
func (sm *StorageManager) IsResident(id int64) bool { return sm.pool.Contains(id) }
