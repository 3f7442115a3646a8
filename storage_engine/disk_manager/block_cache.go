package diskmanager

import (
	"HTAPDB/storage_engine/page"
	"HTAPDB/types"

	"github.com/dgraph-io/ristretto/v2"
)

/*
Block cache: raw slot images keyed by page id, sitting between the buffer pool
and the file. Pages evicted from the pool by a scan are usually re-read by the
next scan; serving those from memory skips the read syscall and keeps the pool
small.

Reads populate it, writes refresh it. Ristretto applies sets asynchronously, so
the write path drains pending sets before replacing an entry, otherwise an older
image queued by a reader could land after the new one.
*/

func newBlockCache(maxBytes int64) (*ristretto.Cache[int64, []byte], error) {
	slots := maxBytes / page.PageSize
	if slots < 1 {
		slots = 1
	}
	cache, err := ristretto.NewCache(&ristretto.Config[int64, []byte]{
		NumCounters: slots * 10,
		MaxCost:     maxBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, types.NewError(types.KindInvalidArgument, "block cache", err)
	}
	return cache, nil
}

func (dm *DiskManager) cacheGet(id int64) ([]byte, bool) {
	if dm.cache == nil {
		return nil, false
	}
	return dm.cache.Get(id)
}

func (dm *DiskManager) cacheSet(id int64, buf []byte) {
	if dm.cache == nil {
		return
	}
	dm.cache.Set(id, buf, page.PageSize)
}

// cacheRefresh replaces the cached image of id with buf, or drops it when buf is nil.
func (dm *DiskManager) cacheRefresh(id int64, buf []byte) {
	if dm.cache == nil {
		return
	}
	dm.cacheMu.Lock()
	defer dm.cacheMu.Unlock()

	dm.cache.Wait()
	dm.cache.Del(id)
	if buf != nil {
		dm.cache.Set(id, buf, page.PageSize)
		dm.cache.Wait()
	}
}
