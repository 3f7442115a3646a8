package storageengine

import (
	"HTAPDB/storage_engine/scan"
	"HTAPDB/types"
)

/*
Updates never move a row: the key is fixed and only the values under it are
replaced, so the tree shape stays the same.
*/

// Update replaces the values stored under key with row.Values.
func (se *StorageEngine) Update(key uint64, row types.Row) error {
	_, err := se.Execute(UpdateOp{Key: key, Row: row})
	return err
}

// UpdateWhere rewrites every row matching pred and returns how many changed.
func (se *StorageEngine) UpdateWhere(pred scan.Predicate, set func(types.Row) types.Row) (int, error) {
	out, err := se.Execute(UpdateWhereOp{Predicate: pred, Set: set})
	return out.Affected, err
}
