package storageengine

import (
	"sync"

	"HTAPDB/config"
	bplus "HTAPDB/storage_engine/access/bplustree"
	"HTAPDB/storage_engine/catalog"
	checkpoint "HTAPDB/storage_engine/checkpoint_manager"
	leafregistry "HTAPDB/storage_engine/leaf_registry"
	"HTAPDB/storage_engine/scan"
	storagemanager "HTAPDB/storage_engine/storage_manager"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

type StorageEngine struct {
	cfg config.Config

	StorageManager *storagemanager.StorageManager
	CatalogManager *catalog.CatalogManager
	Registry       *leafregistry.Registry
	Tree           *bplus.TreeOperations
	Scanner        *scan.Scanner
	Checkpoints    *checkpoint.CheckpointManager

	ids *snowflake.Node

	// latch guards the tree structure and root. Mutations hold it
	// exclusively; every open scan iterator holds it shared.
	latch  sync.RWMutex
	root   int64
	closed bool

	flushMu sync.Mutex // Flush runs under the shared latch, so flushes serialize here

	log *zap.Logger
}

// Outcome is what a mutation did to the tree.
type Outcome struct {
	Affected int
	NewRoot  int64
}
