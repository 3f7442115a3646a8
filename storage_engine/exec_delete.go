package storageengine

import (
	"HTAPDB/storage_engine/scan"
)

/*
Delete path

	StorageEngine.Delete(key)
	     ↓  latch.Lock
	DeleteOp.Execute
	     ├── descend to the leaf owning key (NotFound if absent)
	     ├── remove slot, mark dirty
	     └── underflow → borrow from a sibling, else merge
	              └── parent underflow repeats one level up,
	                  an empty root with one child is collapsed
*/

func (se *StorageEngine) Delete(key uint64) error {
	_, err := se.Execute(DeleteOp{Key: key})
	return err
}

// DeleteWhere removes every row matching pred and returns how many went.
func (se *StorageEngine) DeleteWhere(pred scan.Predicate) (int, error) {
	out, err := se.Execute(DeleteWhereOp{Predicate: pred})
	return out.Affected, err
}
