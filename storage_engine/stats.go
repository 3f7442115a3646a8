package storageengine

import (
	"fmt"

	"HTAPDB/storage_engine/page"
	storagemanager "HTAPDB/storage_engine/storage_manager"
	"HTAPDB/types"

	"github.com/dustin/go-humanize"
)

type EngineStats struct {
	Root     int64
	Height   int
	Leaves   int
	MaxKeys  int
	Storage  storagemanager.Stats
	FileSize uint64
}

func (s EngineStats) String() string {
	return fmt.Sprintf("root=%d height=%d leaves=%s max_keys=%d file=%s\n%s",
		s.Root, s.Height, humanize.Comma(int64(s.Leaves)), s.MaxKeys,
		humanize.IBytes(s.FileSize), s.Storage)
}

func (se *StorageEngine) Stats() (EngineStats, error) {
	se.latch.RLock()
	defer se.latch.RUnlock()
	if se.closed {
		return EngineStats{}, types.ClosedError("stats")
	}
	h, err := se.Tree.Height(se.root)
	if err != nil {
		return EngineStats{}, err
	}
	st := se.StorageManager.Stats()
	return EngineStats{
		Root:     se.root,
		Height:   h,
		Leaves:   se.Registry.Count(),
		MaxKeys:  se.Tree.MaxKeys(),
		Storage:  st,
		FileSize: uint64(se.StorageManager.Disk().NextPageID()) * page.PageSize,
	}, nil
}
