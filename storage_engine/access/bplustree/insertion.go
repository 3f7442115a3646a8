package bplus

import (
	"HTAPDB/logging"
	"HTAPDB/types"

	"go.uber.org/zap"
)

// Insert adds row under row.ID and returns the root afterwards, which differs
// from root only when the old root split.
func (t *TreeOperations) Insert(root int64, row types.Row) (int64, error) {
	if size := types.RowPayloadSize(row.Values); size > t.MaxRowPayload() {
		return root, types.RowTooLargeError(row.ID, size, t.MaxRowPayload())
	}

	op := t.begin("insert")
	defer op.end()

	leaf, err := op.descend(root, row.ID)
	if err != nil {
		return root, err
	}
	idx, found := leaf.Search(row.ID)
	if found {
		return root, types.DuplicateKeyError("insert", row.ID)
	}

	leaf.InsertRow(idx, row.Clone())
	if err := op.dirty(leaf); err != nil {
		return root, err
	}
	if ce := t.log.Check(zap.DebugLevel, "insert"); ce != nil {
		ce.Write(logging.Key(row.ID), logging.PageID(leaf.ID), zap.Int("keys", leaf.NumKeys()))
	}

	if leaf.NumKeys() <= t.maxKeys {
		return root, nil
	}
	return op.splitLeaf(root, leaf)
}

// Update replaces the values stored under key. The key itself never changes.
func (t *TreeOperations) Update(root int64, key uint64, values []types.Value) error {
	if size := types.RowPayloadSize(values); size > t.MaxRowPayload() {
		return types.RowTooLargeError(key, size, t.MaxRowPayload())
	}

	op := t.begin("update")
	defer op.end()

	leaf, err := op.descend(root, key)
	if err != nil {
		return err
	}
	idx, found := leaf.Search(key)
	if !found {
		return types.NotFoundError("update", key)
	}
	leaf.Rows[idx] = types.Row{ID: key, Values: append([]types.Value(nil), values...)}
	return op.dirty(leaf)
}
