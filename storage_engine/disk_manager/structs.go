package diskmanager

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"
)

// ############################################# DISK MANAGER #############################################

// DiskManager owns the database file: raw PageSize slots addressed by page id,
// the meta page (slot 0) carrying the allocator and the root id, and an
// optional block cache of raw slot images in front of the file.
type DiskManager struct {
	path string
	file *os.File
	fd   int

	meta metaPage
	mu   sync.RWMutex // guards file handle and meta

	cache   *ristretto.Cache[int64, []byte] // nil when disabled
	cacheMu sync.Mutex                      // serializes write-path cache refreshes

	stats diskCounters
	log   *zap.Logger
}

type Options struct {
	// BlockCacheBytes bounds the raw block cache. Zero disables it.
	BlockCacheBytes int64
}

// ############################################# META PAGE #############################################

// metaPage is the decoded form of slot 0.
type metaPage struct {
	Version    uint32
	NextPageID int64
	RootPageID int64
}

// ############################################# STATS #############################################

type diskCounters struct {
	reads       atomic.Int64
	writes      atomic.Int64
	allocations atomic.Int64
	cacheHits   atomic.Int64
	advised     atomic.Int64
}

type DiskStats struct {
	Path          string
	FileBytes     int64
	NextPageID    int64
	RootPageID    int64
	Reads         int64
	Writes        int64
	Allocations   int64
	CacheHits     int64
	AdvisedPages  int64
	CacheHitRatio float64
}
