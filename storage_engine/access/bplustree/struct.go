// Structure of B+ Tree
/*
Tree
 ├── Internal Node (keys + child page ids)
 │      └── Child Internal Nodes ...
 │             └── Leaf Nodes (keys + rows + next leaf id)


- keys: sorted ascending order, uint64 row ids
- internal nodes: children length == len(keys)+1
- leaf nodes: rows length == len(keys)
- leaf nodes linked with `NextLeaf` for scans, mirrored by the leaf registry
- all leaf nodes at same depth
- every relationship is a page id resolved through the storage manager

The root page id is not stored here. The executor owns it, passes it in, and
persists whatever Insert/Delete return as the new root.
*/
package bplus

import (
	"HTAPDB/logging"
	leafregistry "HTAPDB/storage_engine/leaf_registry"
	"HTAPDB/storage_engine/page"
	storagemanager "HTAPDB/storage_engine/storage_manager"

	"go.uber.org/zap"
)

const (
	DefaultMaxKeys = page.MaxKeysPerNode
	minMaxKeys     = 3
)

type TreeOperations struct {
	sm       *storagemanager.StorageManager
	registry *leafregistry.Registry
	maxKeys  int
	minKeys  int
	log      *zap.Logger
}

// NewTreeOperations builds tree algorithms over sm with nodes of at most
// maxKeys keys. Non-root nodes keep at least maxKeys/2.
func NewTreeOperations(sm *storagemanager.StorageManager, registry *leafregistry.Registry, maxKeys int) *TreeOperations {
	if maxKeys < minMaxKeys || maxKeys > page.MaxKeysPerNode {
		maxKeys = DefaultMaxKeys
	}
	return &TreeOperations{
		sm:       sm,
		registry: registry,
		maxKeys:  maxKeys,
		minKeys:  maxKeys / 2,
		log:      logging.WithComponent("bplus"),
	}
}

func (t *TreeOperations) MaxKeys() int { return t.maxKeys }

func (t *TreeOperations) MinKeys() int { return t.minKeys }

func (t *TreeOperations) Registry() *leafregistry.Registry { return t.registry }

func (t *TreeOperations) Storage() *storagemanager.StorageManager { return t.sm }

// MaxRowPayload is the largest encoded row this tree accepts.
func (t *TreeOperations) MaxRowPayload() int { return page.MaxRowPayload(t.maxKeys) }
