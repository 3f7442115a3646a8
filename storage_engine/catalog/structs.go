package catalog

import (
	"sync"

	"HTAPDB/types"

	"go.uber.org/zap"
)

// CatalogManager keeps the column layout of the table stored in one database
// file. It lives in a JSON file next to the database.
type CatalogManager struct {
	path   string
	mu     sync.RWMutex
	schema types.Schema
	log    *zap.Logger
}
