package checkpoint

import (
	"sync"

	"go.uber.org/zap"
)

// CheckpointManager records flush points of the database and can run flushes
// in the background on a timer.
type CheckpointManager struct {
	checkpointPath string
	mu             sync.RWMutex

	stop chan struct{}
	done chan struct{}
	log  *zap.Logger
}

// Checkpoint describes the file state after a completed flush.
type Checkpoint struct {
	Timestamp  int64 `json:"timestamp"`
	RootPageID int64 `json:"root_page_id"`
	NextPageID int64 `json:"next_page_id"`
	Leaves     int   `json:"leaves"`
	// Clean is set only by the final flush of Close. A checkpoint that is not
	// clean on open means the last session ended without closing.
	Clean bool `json:"clean"`
}
