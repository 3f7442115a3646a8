package diskmanager

import (
	"bytes"
	"os"
	"path/filepath"

	"HTAPDB/logging"
	"HTAPDB/storage_engine/page"
	"HTAPDB/types"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
This is main file for disk manager
It owns:
the database file handle (os.File)
reading/writing raw PageSize slots at id*PageSize (ReadAt, WriteAt)
the persisted page allocator and root id in meta page 0
the raw block cache and read-ahead hints to the kernel

It knows nothing about the buffer pool or the node format; the storage manager
decodes what it returns and hands it to the pool.
*/

// Open opens or creates the database file at path.
func Open(path string, opts Options) (*DiskManager, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, types.IOError("open", 0, errors.Wrapf(err, "create dir %s", dir))
		}
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, types.IOError("open", 0, errors.Wrapf(err, "open %s", path))
	}

	dm := &DiskManager{
		path: path,
		file: file,
		fd:   int(file.Fd()),
		log:  logging.WithComponent("diskmanager"),
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, types.IOError("open", 0, errors.Wrap(err, "stat"))
	}

	if stat.Size() == 0 {
		dm.meta = metaPage{Version: metaVersion, NextPageID: 1}
		if err := dm.writeMeta(); err != nil {
			file.Close()
			return nil, err
		}
		dm.log.Info("created database file", zap.String("path", path))
	} else {
		if err := dm.readMeta(); err != nil {
			file.Close()
			return nil, err
		}
		// never hand out an id that already has bytes behind it
		if slots := stat.Size() / page.PageSize; slots > dm.meta.NextPageID {
			dm.meta.NextPageID = slots
		}
		dm.log.Info("opened database file",
			zap.String("path", path),
			zap.String("size", humanize.Bytes(uint64(stat.Size()))),
			zap.Int64("next_page_id", dm.meta.NextPageID),
			zap.Int64("root_page_id", dm.meta.RootPageID))
	}

	if opts.BlockCacheBytes > 0 {
		if dm.cache, err = newBlockCache(opts.BlockCacheBytes); err != nil {
			file.Close()
			return nil, err
		}
	}
	return dm, nil
}

func (dm *DiskManager) Path() string { return dm.path }

// ReadBlock returns the raw PageSize bytes of slot id. The returned slice may be
// shared with the block cache and must not be modified.
func (dm *DiskManager) ReadBlock(id int64) ([]byte, error) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	if dm.file == nil {
		return nil, types.NewError(types.KindClosed, "read page", nil)
	}
	if id <= 0 || id >= dm.meta.NextPageID {
		return nil, types.NewError(types.KindInvalidArgument, "read page",
			errors.Errorf("page id %d outside allocated range [1, %d)", id, dm.meta.NextPageID))
	}

	if b, ok := dm.cacheGet(id); ok {
		dm.stats.cacheHits.Add(1)
		return b, nil
	}

	buf := make([]byte, page.PageSize)
	n, err := dm.file.ReadAt(buf, id*page.PageSize)
	if err != nil && n == 0 {
		return nil, types.IOError("read page", id, err)
	}
	// short read past EOF: the tail of the slot is zero
	clear(buf[n:])
	dm.stats.reads.Add(1)

	dm.cacheSet(id, buf)
	return buf, nil
}

// WriteBlock writes one slot. buf must be exactly PageSize bytes.
func (dm *DiskManager) WriteBlock(id int64, buf []byte) error {
	if len(buf) != page.PageSize {
		return types.NewError(types.KindInvalidArgument, "write page",
			errors.Errorf("page data size %d does not match page size %d", len(buf), page.PageSize))
	}

	dm.mu.RLock()
	defer dm.mu.RUnlock()

	if dm.file == nil {
		return types.NewError(types.KindClosed, "write page", nil)
	}
	if id <= 0 || id >= dm.meta.NextPageID {
		return types.NewError(types.KindInvalidArgument, "write page",
			errors.Errorf("page id %d outside allocated range [1, %d)", id, dm.meta.NextPageID))
	}

	if _, err := dm.file.WriteAt(buf, id*page.PageSize); err != nil {
		return types.IOError("write page", id, err)
	}
	dm.stats.writes.Add(1)
	dm.cacheRefresh(id, bytes.Clone(buf))
	return nil
}

// AllocatePage hands out the next page id. The counter is persisted in the meta
// page before returning and the new slot is zeroed on disk until first written.
func (dm *DiskManager) AllocatePage() (int64, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.file == nil {
		return 0, types.NewError(types.KindClosed, "allocate page", nil)
	}

	id := dm.meta.NextPageID
	if _, err := dm.file.WriteAt(make([]byte, page.PageSize), id*page.PageSize); err != nil {
		return 0, types.IOError("allocate page", id, err)
	}
	dm.meta.NextPageID++
	if err := dm.writeMeta(); err != nil {
		dm.meta.NextPageID--
		return 0, err
	}
	dm.cacheRefresh(id, nil)
	dm.stats.allocations.Add(1)
	dm.log.Debug("allocated page", logging.PageID(id))
	return id, nil
}

// NextPageID is the id AllocatePage will return next; every id below it is allocated.
func (dm *DiskManager) NextPageID() int64 {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.meta.NextPageID
}

func (dm *DiskManager) RootID() int64 {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.meta.RootPageID
}

// SetRootID persists a new root page id.
func (dm *DiskManager) SetRootID(id int64) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.file == nil {
		return types.NewError(types.KindClosed, "set root", nil)
	}
	prev := dm.meta.RootPageID
	dm.meta.RootPageID = id
	if err := dm.writeMeta(); err != nil {
		dm.meta.RootPageID = prev
		return err
	}
	return nil
}

// Sync flushes file buffers to stable storage.
func (dm *DiskManager) Sync() error {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	if dm.file == nil {
		return nil
	}
	if err := dm.file.Sync(); err != nil {
		return types.IOError("sync", 0, err)
	}
	return nil
}

// Close persists the meta page, syncs and closes the file.
func (dm *DiskManager) Close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.file == nil {
		return nil // already closed
	}

	var firstErr error
	if err := dm.writeMeta(); err != nil {
		firstErr = err
	}
	if err := dm.file.Sync(); err != nil && firstErr == nil {
		firstErr = types.IOError("close", 0, err)
	}
	if err := dm.file.Close(); err != nil && firstErr == nil {
		firstErr = types.IOError("close", 0, err)
	}
	dm.file = nil
	if dm.cache != nil {
		dm.cache.Close()
		dm.cache = nil
	}
	dm.log.Info("closed database file", zap.String("path", dm.path))
	return firstErr
}

func (dm *DiskManager) Stats() DiskStats {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	s := DiskStats{
		Path:         dm.path,
		NextPageID:   dm.meta.NextPageID,
		RootPageID:   dm.meta.RootPageID,
		Reads:        dm.stats.reads.Load(),
		Writes:       dm.stats.writes.Load(),
		Allocations:  dm.stats.allocations.Load(),
		CacheHits:    dm.stats.cacheHits.Load(),
		AdvisedPages: dm.stats.advised.Load(),
	}
	if dm.file != nil {
		if st, err := dm.file.Stat(); err == nil {
			s.FileBytes = st.Size()
		}
	}
	if dm.cache != nil && dm.cache.Metrics != nil {
		s.CacheHitRatio = dm.cache.Metrics.Ratio()
	}
	return s
}

func (s DiskStats) String() string {
	return humanize.Bytes(uint64(s.FileBytes)) + " on disk, " +
		humanize.Comma(s.NextPageID-1) + " pages, " +
		humanize.Comma(s.Reads) + " reads, " +
		humanize.Comma(s.Writes) + " writes, " +
		humanize.Comma(s.CacheHits) + " block cache hits"
}
