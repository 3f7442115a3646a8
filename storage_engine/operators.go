package storageengine

import (
	"math"

	bplus "HTAPDB/storage_engine/access/bplustree"
	"HTAPDB/storage_engine/page"
	"HTAPDB/storage_engine/scan"
	"HTAPDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
Operators are the mutations the engine knows how to run. Each one gets the
tree algorithms and the current root, and reports how many rows it touched
and the root afterwards:

	Execute(op)
	     ↓  latch.Lock
	op.Execute(tree, root) → Outcome{Affected, NewRoot}
	     ↓
	root changed? → persist to meta page
	     ↓
	FlushEveryWrite? → flush

An operator that fails part way still reports the root it left behind, since
rows written before the failure stay written.
*/
type Operator interface {
	Execute(ops *bplus.TreeOperations, root int64) (Outcome, error)
}

type InsertOp struct {
	Row types.Row
}

func (o InsertOp) Execute(ops *bplus.TreeOperations, root int64) (Outcome, error) {
	newRoot, err := ops.Insert(root, o.Row)
	if err != nil {
		return Outcome{NewRoot: newRoot}, err
	}
	return Outcome{Affected: 1, NewRoot: newRoot}, nil
}

// InsertBatchOp inserts rows in order and stops at the first failure.
type InsertBatchOp struct {
	Rows []types.Row
}

func (o InsertBatchOp) Execute(ops *bplus.TreeOperations, root int64) (Outcome, error) {
	out := Outcome{NewRoot: root}
	for i, row := range o.Rows {
		newRoot, err := ops.Insert(out.NewRoot, row)
		out.NewRoot = newRoot
		if err != nil {
			return out, errors.Wrapf(err, "batch row %d of %d", i, len(o.Rows))
		}
		out.Affected++
	}
	return out, nil
}

// UpdateOp replaces the values under Key. Row.ID is ignored.
type UpdateOp struct {
	Key uint64
	Row types.Row
}

func (o UpdateOp) Execute(ops *bplus.TreeOperations, root int64) (Outcome, error) {
	if err := ops.Update(root, o.Key, o.Row.Values); err != nil {
		return Outcome{NewRoot: root}, err
	}
	return Outcome{Affected: 1, NewRoot: root}, nil
}

// UpdateWhereOp rewrites every row matching Predicate with Set(row). Keys never
// change, whatever Set returns as the id.
type UpdateWhereOp struct {
	Predicate scan.Predicate
	Set       func(types.Row) types.Row
}

func (o UpdateWhereOp) Execute(ops *bplus.TreeOperations, root int64) (Outcome, error) {
	if o.Set == nil {
		return Outcome{NewRoot: root}, types.NewError(types.KindInvalidArgument, "update where", errors.New("Set is nil"))
	}
	matches, err := matching(ops, root, o.Predicate)
	if err != nil {
		return Outcome{NewRoot: root}, err
	}
	out := Outcome{NewRoot: root}
	for _, row := range matches {
		next := o.Set(row.Clone())
		if err := ops.Update(root, row.ID, next.Values); err != nil {
			return out, err
		}
		out.Affected++
	}
	return out, nil
}

type DeleteOp struct {
	Key uint64
}

func (o DeleteOp) Execute(ops *bplus.TreeOperations, root int64) (Outcome, error) {
	newRoot, err := ops.Delete(root, o.Key)
	if err != nil {
		return Outcome{NewRoot: newRoot}, err
	}
	return Outcome{Affected: 1, NewRoot: newRoot}, nil
}

// DeleteWhereOp removes every row matching Predicate.
type DeleteWhereOp struct {
	Predicate scan.Predicate
}

func (o DeleteWhereOp) Execute(ops *bplus.TreeOperations, root int64) (Outcome, error) {
	matches, err := matching(ops, root, o.Predicate)
	if err != nil {
		return Outcome{NewRoot: root}, err
	}
	out := Outcome{NewRoot: root}
	for _, row := range matches {
		newRoot, err := ops.Delete(out.NewRoot, row.ID)
		out.NewRoot = newRoot
		if err != nil {
			return out, err
		}
		out.Affected++
	}
	return out, nil
}

// matching collects the rows a predicate selects before any of them changes,
// so the walk never sees its own edits.
func matching(ops *bplus.TreeOperations, root int64, pred scan.Predicate) ([]types.Row, error) {
	var rows []types.Row
	err := ops.RangeScan(root, 0, math.MaxUint64, func(row types.Row) bool {
		if pred == nil || pred.Match(row) {
			rows = append(rows, row)
		}
		return true
	})
	return rows, err
}

// Execute runs op under the structure latch and records the new root.
func (se *StorageEngine) Execute(op Operator) (Outcome, error) {
	se.latch.Lock()
	defer se.latch.Unlock()
	if se.closed {
		return Outcome{}, types.ClosedError("execute")
	}

	out, err := op.Execute(se.Tree, se.root)
	if out.NewRoot != page.NullPageID && out.NewRoot != se.root {
		if perr := se.setRootLocked(out.NewRoot); perr != nil && err == nil {
			err = perr
		}
	}
	out.NewRoot = se.root
	if err != nil {
		return out, err
	}
	if se.cfg.FlushEveryWrite && out.Affected > 0 {
		if err := se.flushLocked(); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (se *StorageEngine) setRootLocked(root int64) error {
	old := se.root
	se.root = root
	if err := se.StorageManager.SetRootID(root); err != nil {
		return err
	}
	se.log.Debug("root changed", zap.Int64("old_root", old), zap.Int64("new_root", root))
	return nil
}
