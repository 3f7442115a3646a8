package storageengine

import (
	"io"
	"os"
	"time"

	"HTAPDB/config"
	"HTAPDB/logging"
	bplus "HTAPDB/storage_engine/access/bplustree"
	"HTAPDB/storage_engine/catalog"
	checkpoint "HTAPDB/storage_engine/checkpoint_manager"
	diskmanager "HTAPDB/storage_engine/disk_manager"
	leafregistry "HTAPDB/storage_engine/leaf_registry"
	"HTAPDB/storage_engine/page"
	"HTAPDB/storage_engine/scan"
	storagemanager "HTAPDB/storage_engine/storage_manager"
	"HTAPDB/types"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
The main file of the storage engine. Open wires every layer together:

	config.Config
	     ↓
	DiskManager (file, meta page, block cache)
	     ↓
	BufferPool ← StorageManager (decode/encode, flush)
	     ↓
	TreeOperations (B+Tree algorithms) ── LeafRegistry (leaf ids in order)
	     ↓                                   ↓
	StorageEngine (root id, structure latch) ── Scanner

A fresh file gets an empty root leaf. An existing file keeps its persisted root,
and the leaf registry is loaded from <db>.leaves or rebuilt from the leaf chain.
*/

func Open(cfg config.Config) (*StorageEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, types.NewError(types.KindInvalidArgument, "open", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, types.NewError(types.KindIO, "open", errors.Wrapf(err, "create data dir %s", cfg.DataDir))
	}

	sm, err := storagemanager.Open(cfg.Path(), cfg.PoolCapacity, diskmanager.Options{BlockCacheBytes: cfg.BlockCacheBytes})
	if err != nil {
		return nil, err
	}
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		sm.Close()
		return nil, types.NewError(types.KindInvalidArgument, "open", err)
	}

	cm, err := catalog.NewCatalogManager(cfg.SchemaPath())
	if err != nil {
		sm.Close()
		return nil, err
	}

	registry := leafregistry.New()
	se := &StorageEngine{
		cfg:            cfg,
		StorageManager: sm,
		CatalogManager: cm,
		Registry:       registry,
		Tree:           bplus.NewTreeOperations(sm, registry, cfg.MaxKeysPerNode),
		Scanner:        scan.NewScanner(sm, registry),
		Checkpoints:    checkpoint.NewCheckpointManager(cfg.CheckpointPath()),
		ids:            node,
		log:            logging.WithComponent("engine"),
	}

	if err := se.loadRoot(); err != nil {
		sm.Close()
		return nil, err
	}
	se.Checkpoints.Start(time.Duration(cfg.CheckpointMillis)*time.Millisecond, se.Flush)
	se.log.Info("storage engine opened",
		zap.String("path", cfg.Path()),
		zap.Int64("root", se.root),
		zap.Int("leaves", registry.Count()),
		zap.Int("pool_capacity", cfg.PoolCapacity),
		zap.Int("max_keys", se.Tree.MaxKeys()))
	return se, nil
}

func (se *StorageEngine) loadRoot() error {
	last, err := se.Checkpoints.LoadCheckpoint()
	if err != nil {
		return err
	}

	root := se.StorageManager.RootID()
	if root == page.NullPageID {
		// ── Fresh file: one empty leaf is the whole tree ─────────────────────
		id, err := se.Tree.CreateRoot()
		if err != nil {
			return errors.Wrap(err, "create root")
		}
		se.root = id
		if err := se.StorageManager.SetRootID(id); err != nil {
			return err
		}
		return se.flushLocked()
	}
	se.root = root

	// ── Existing file after a clean close: the saved registry is current ─────
	regPath := se.cfg.RegistryPath()
	if last != nil && last.Clean && last.RootPageID == root {
		err := se.Registry.Load(regPath)
		if err == nil && se.Registry.Count() == last.Leaves && se.firstLeafMatches() {
			return se.markOpen()
		}
		se.log.Warn("leaf registry does not match the last checkpoint, rebuilding", zap.Error(err))
	} else if last != nil {
		se.log.Warn("previous session did not close cleanly, checking leaf registry",
			zap.Time("last_checkpoint", time.Unix(last.Timestamp, 0)))
	}

	// ── Otherwise trust the registry file only if it matches the leaf chain ──
	if err := se.Registry.Load(regPath); err == nil {
		chain, err := se.Tree.LeafChain(root)
		if err != nil {
			return errors.Wrap(err, "walk leaf chain")
		}
		if err := se.Registry.Validate(chain); err == nil {
			return se.markOpen()
		}
		se.log.Warn("leaf registry file is stale, rebuilding", zap.String("path", regPath))
	} else if !errors.Is(err, os.ErrNotExist) {
		se.log.Warn("leaf registry file unreadable, rebuilding", zap.Error(err))
	}
	if err := se.Tree.RebuildRegistry(root); err != nil {
		return errors.Wrap(err, "walk leaf chain")
	}
	return se.markOpen()
}

func (se *StorageEngine) firstLeafMatches() bool {
	first, ok := se.Registry.First()
	if !ok {
		return false
	}
	leftmost, err := se.Tree.LeftmostLeaf(se.root)
	return err == nil && leftmost == first
}

// markOpen records a checkpoint that is not clean, so a crash before Close is
// noticed by the next Open.
func (se *StorageEngine) markOpen() error {
	return se.Checkpoints.SaveCheckpoint(se.checkpointState())
}

func (se *StorageEngine) checkpointState() checkpoint.Checkpoint {
	return checkpoint.Checkpoint{
		RootPageID: se.root,
		NextPageID: se.StorageManager.Disk().NextPageID(),
		Leaves:     se.Registry.Count(),
		Clean:      se.closed,
	}
}

// Flush writes every dirty page, syncs the file and saves the leaf registry.
func (se *StorageEngine) Flush() error {
	se.latch.RLock()
	defer se.latch.RUnlock()
	if se.closed {
		return types.ClosedError("flush")
	}
	return se.flushLocked()
}

// flushLocked needs the latch in either mode.
func (se *StorageEngine) flushLocked() error {
	se.flushMu.Lock()
	defer se.flushMu.Unlock()

	if err := se.StorageManager.FlushDirtyPages(); err != nil {
		return err
	}
	if err := se.StorageManager.Sync(); err != nil {
		return err
	}
	if err := se.Registry.Save(se.cfg.RegistryPath()); err != nil {
		return err
	}
	return se.Checkpoints.SaveCheckpoint(se.checkpointState())
}

// Close flushes and closes the file. It waits for open scans to finish.
func (se *StorageEngine) Close() error {
	se.Checkpoints.Stop()

	se.latch.Lock()
	defer se.latch.Unlock()
	if se.closed {
		return nil
	}
	se.closed = true

	flushErr := se.flushLocked()
	closeErr := se.StorageManager.Close()
	se.log.Info("storage engine closed", zap.String("path", se.cfg.Path()))
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (se *StorageEngine) Config() config.Config { return se.cfg }

func (se *StorageEngine) Schema() types.Schema { return se.CatalogManager.Schema() }

// SetSchema names the columns and makes InsertValues check rows against them.
func (se *StorageEngine) SetSchema(schema types.Schema) error {
	return se.CatalogManager.SetSchema(schema)
}

// RootPageID is the current root page.
func (se *StorageEngine) RootPageID() int64 {
	se.latch.RLock()
	defer se.latch.RUnlock()
	return se.root
}

func (se *StorageEngine) Height() (int, error) {
	se.latch.RLock()
	defer se.latch.RUnlock()
	if se.closed {
		return 0, types.ClosedError("height")
	}
	return se.Tree.Height(se.root)
}

// CheckConsistency validates the whole tree, its leaf chain and the registry.
func (se *StorageEngine) CheckConsistency() (bplus.TreeReport, error) {
	se.latch.RLock()
	defer se.latch.RUnlock()
	if se.closed {
		return bplus.TreeReport{}, types.ClosedError("check")
	}
	return se.Tree.Validate(se.root)
}

// DumpTree prints the tree level by level, with rows when rows is set.
func (se *StorageEngine) DumpTree(w io.Writer, rows bool) error {
	se.latch.RLock()
	defer se.latch.RUnlock()
	if se.closed {
		return types.ClosedError("dump")
	}
	return se.Tree.Dump(w, se.root, rows)
}
