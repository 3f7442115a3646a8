package storageengine

import (
	"HTAPDB/types"
)

/*
Insert path

	StorageEngine.Insert(row)
	     ↓  latch.Lock
	InsertOp.Execute
	     ├── RowTooLarge check against the leaf payload limit
	     ├── descend to the leaf owning row.ID (DuplicateKey if present)
	     ├── insert in sorted position, mark dirty
	     └── overflow → split leaf → separator into parent → maybe new root
	     ↓
	root persisted if it changed
*/

func (se *StorageEngine) Insert(row types.Row) error {
	_, err := se.Execute(InsertOp{Row: row})
	return err
}

// InsertBatch inserts rows in order. Rows before a failing one stay inserted;
// the returned count says how many.
func (se *StorageEngine) InsertBatch(rows []types.Row) (int, error) {
	out, err := se.Execute(InsertBatchOp{Rows: rows})
	return out.Affected, err
}

// InsertValues checks values against the schema, stores them under a freshly
// generated row id and returns it.
func (se *StorageEngine) InsertValues(values ...types.Value) (uint64, error) {
	if err := se.CatalogManager.CheckRow(values); err != nil {
		return 0, err
	}
	id := se.NextRowID()
	if err := se.Insert(types.NewRow(id, values...)); err != nil {
		return 0, err
	}
	return id, nil
}
