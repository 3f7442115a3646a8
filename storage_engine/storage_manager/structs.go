package storagemanager

import (
	"sync"

	"HTAPDB/storage_engine/bufferpool"
	diskmanager "HTAPDB/storage_engine/disk_manager"

	"go.uber.org/zap"
)

// StorageManager is the only path between tree nodes and the file: every read
// goes through the buffer pool, every miss is decoded here and inserted into it.
type StorageManager struct {
	disk    *diskmanager.DiskManager
	pool    *bufferpool.BufferPool
	flushMu sync.Mutex // one FlushDirtyPages at a time
	log     *zap.Logger
}

type Stats struct {
	Pool bufferpool.BufferPoolStats
	Disk diskmanager.DiskStats
}

func (s Stats) String() string {
	return "pool: " + s.Pool.String() + "; disk: " + s.Disk.String()
}
