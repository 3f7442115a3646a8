package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"HTAPDB/logging"
	"HTAPDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
The checkpoint file sits next to the database and is rewritten after every
flush. It is a record, not a recovery log: pages are the source of truth, and
the file only tells the next Open where the last session stopped and whether
it closed cleanly.

	Start(interval, flush)
	     ↓ every interval
	flush() → Checkpoint → Save (tmp + fsync + rename + dir fsync)
*/

func NewCheckpointManager(path string) *CheckpointManager {
	return &CheckpointManager{
		checkpointPath: path,
		log:            logging.WithComponent("checkpoint"),
	}
}

func (cm *CheckpointManager) Path() string { return cm.checkpointPath }

// SaveCheckpoint atomically replaces the checkpoint file.
func (cm *CheckpointManager) SaveCheckpoint(cp Checkpoint) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cp.Timestamp == 0 {
		cp.Timestamp = time.Now().Unix()
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal checkpoint")
	}

	// tmp, fsync, rename: the file is either the old checkpoint or the new one.
	tempPath := cm.checkpointPath + ".tmp"
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return types.NewError(types.KindIO, "save checkpoint", err)
	}
	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return types.NewError(types.KindIO, "save checkpoint", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return types.NewError(types.KindIO, "save checkpoint", err)
	}
	if err := tempFile.Close(); err != nil {
		return types.NewError(types.KindIO, "save checkpoint", err)
	}
	if err := os.Rename(tempPath, cm.checkpointPath); err != nil {
		return types.NewError(types.KindIO, "save checkpoint", err)
	}
	if dir, err := os.Open(filepath.Dir(cm.checkpointPath)); err == nil {
		dir.Sync()
		dir.Close()
	}

	cm.log.Debug("checkpoint saved",
		zap.Int64("root", cp.RootPageID),
		zap.Int64("next_page_id", cp.NextPageID),
		zap.Bool("clean", cp.Clean))
	return nil
}

// LoadCheckpoint returns the last checkpoint, or nil if there is none.
func (cm *CheckpointManager) LoadCheckpoint() (*Checkpoint, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	data, err := os.ReadFile(cm.checkpointPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewError(types.KindIO, "load checkpoint", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		cm.log.Warn("checkpoint file corrupted, ignoring", zap.String("path", cm.checkpointPath), zap.Error(err))
		return nil, nil
	}
	return &cp, nil
}

// Start calls flush every interval until Stop. Failures are logged and the
// timer keeps running.
func (cm *CheckpointManager) Start(interval time.Duration, flush func() error) {
	if interval <= 0 || cm.stop != nil {
		return
	}
	cm.stop = make(chan struct{})
	cm.done = make(chan struct{})
	go func() {
		defer close(cm.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := flush(); err != nil {
					cm.log.Error("background checkpoint failed", zap.Error(err))
				}
			case <-cm.stop:
				return
			}
		}
	}()
	cm.log.Info("background checkpoints started", zap.Duration("interval", interval))
}

// Stop ends background checkpoints and waits for a running one to finish.
func (cm *CheckpointManager) Stop() {
	if cm.stop == nil {
		return
	}
	close(cm.stop)
	<-cm.done
	cm.stop = nil
}
