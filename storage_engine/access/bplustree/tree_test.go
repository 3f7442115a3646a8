package bplus

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	diskmanager "HTAPDB/storage_engine/disk_manager"
	leafregistry "HTAPDB/storage_engine/leaf_registry"
	storagemanager "HTAPDB/storage_engine/storage_manager"
	"HTAPDB/types"
)

func newTestTree(t *testing.T, maxKeys, poolCapacity int) (*TreeOperations, int64) {
	t.Helper()
	sm, err := storagemanager.Open(filepath.Join(t.TempDir(), "tree.db"), poolCapacity, diskmanager.Options{})
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { sm.Close() })

	tree := NewTreeOperations(sm, leafregistry.New(), maxKeys)
	root, err := tree.CreateRoot()
	if err != nil {
		t.Fatalf("Failed to create root: %v", err)
	}
	return tree, root
}

func rowFor(key uint64) types.Row {
	return types.NewRow(key, types.Int(int64(key)*10), types.Text("user"))
}

func mustValidate(t *testing.T, tree *TreeOperations, root int64) TreeReport {
	t.Helper()
	rep, err := tree.Validate(root)
	if err != nil {
		t.Fatalf("Tree invalid: %v", err)
	}
	return rep
}

// TestRandomInsertOrder tests keys 1..1000 inserted in random order with a small pool
func TestRandomInsertOrder(t *testing.T) {
	tree, root := newTestTree(t, 4, 64)
	rng := rand.New(rand.NewSource(42))

	keys := rng.Perm(1000)
	var err error
	for _, k := range keys {
		if root, err = tree.Insert(root, rowFor(uint64(k+1))); err != nil {
			t.Fatalf("Failed to insert %d: %v", k+1, err)
		}
	}

	rep := mustValidate(t, tree, root)
	if rep.Rows != 1000 {
		t.Errorf("Row count mismatch: expected 1000, got %d", rep.Rows)
	}

	// leaf chain yields 1..1000 in order
	next := uint64(1)
	err = tree.RangeScan(root, 0, ^uint64(0), func(r types.Row) bool {
		if r.ID != next {
			t.Errorf("Scan order mismatch: expected %d, got %d", next, r.ID)
			return false
		}
		next++
		return true
	})
	if err != nil {
		t.Fatalf("Failed to scan: %v", err)
	}
	if next != 1001 {
		t.Errorf("Scan ended early at %d", next)
	}

	for _, k := range []uint64{1, 500, 1000} {
		row, err := tree.Get(root, k)
		if err != nil {
			t.Fatalf("Failed to get %d: %v", k, err)
		}
		if !row.Equal(rowFor(k)) {
			t.Errorf("Row %d mismatch: %v", k, row)
		}
	}
}

func TestDuplicateKey(t *testing.T) {
	tree, root := newTestTree(t, 4, 64)
	root, err := tree.Insert(root, rowFor(7))
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	before, _ := tree.Get(root, 7)

	_, err = tree.Insert(root, types.NewRow(7, types.Text("other")))
	if !errors.Is(err, types.ErrDuplicateKey) {
		t.Fatalf("Expected duplicate key, got %v", err)
	}
	after, _ := tree.Get(root, 7)
	if !after.Equal(before) {
		t.Errorf("Duplicate insert modified the row: %v", after)
	}
}

func TestDeleteAndNotFound(t *testing.T) {
	tree, root := newTestTree(t, 4, 64)
	var err error
	for k := uint64(1); k <= 50; k++ {
		if root, err = tree.Insert(root, rowFor(k)); err != nil {
			t.Fatalf("Failed to insert %d: %v", k, err)
		}
	}

	if root, err = tree.Delete(root, 25); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := tree.Get(root, 25); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Get after delete: expected not found, got %v", err)
	}
	if _, err := tree.Delete(root, 25); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Second delete: expected not found, got %v", err)
	}
	if err := tree.Update(root, 999, rowFor(999).Values); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Update of missing key: expected not found, got %v", err)
	}
	if rep := mustValidate(t, tree, root); rep.Rows != 49 {
		t.Errorf("Row count mismatch: expected 49, got %d", rep.Rows)
	}

	// delete everything: the tree collapses back to a single leaf
	for k := uint64(1); k <= 50; k++ {
		if k == 25 {
			continue
		}
		if root, err = tree.Delete(root, k); err != nil {
			t.Fatalf("Failed to delete %d: %v", k, err)
		}
	}
	rep := mustValidate(t, tree, root)
	if rep.Height != 1 || rep.Rows != 0 || rep.Leaves != 1 {
		t.Errorf("Empty tree mismatch: %+v", rep)
	}
}

// TestHeightGrowsByOnePerRootSplit tests that every root change adds exactly one level
func TestHeightGrowsByOnePerRootSplit(t *testing.T) {
	tree, root := newTestTree(t, 4, 64)
	height := 1
	splits := 0
	for k := uint64(1); k <= 500; k++ {
		next, err := tree.Insert(root, rowFor(k))
		if err != nil {
			t.Fatalf("Failed to insert %d: %v", k, err)
		}
		if next != root {
			splits++
			h, err := tree.Height(next)
			if err != nil {
				t.Fatalf("Failed to get height: %v", err)
			}
			if h != height+1 {
				t.Fatalf("Height after root split %d: expected %d, got %d", splits, height+1, h)
			}
			height = h
			root = next
		}
	}
	if splits < 3 {
		t.Errorf("Expected several root splits, got %d", splits)
	}
	if rep := mustValidate(t, tree, root); rep.Height != height {
		t.Errorf("Validate height %d, tracked %d", rep.Height, height)
	}
}

// TestRandomInsertDelete tests a mixed workload against a map model
func TestRandomInsertDelete(t *testing.T) {
	tree, root := newTestTree(t, 5, 64)
	rng := rand.New(rand.NewSource(7))
	model := make(map[uint64]bool)

	var err error
	for i := 0; i < 3000; i++ {
		k := uint64(rng.Intn(400) + 1)
		if model[k] && rng.Intn(2) == 0 {
			if root, err = tree.Delete(root, k); err != nil {
				t.Fatalf("Failed to delete %d: %v", k, err)
			}
			delete(model, k)
			continue
		}
		root, err = tree.Insert(root, rowFor(k))
		switch {
		case model[k] && !errors.Is(err, types.ErrDuplicateKey):
			t.Fatalf("Insert of existing %d: expected duplicate, got %v", k, err)
		case !model[k] && err != nil:
			t.Fatalf("Failed to insert %d: %v", k, err)
		}
		model[k] = true

		if i%500 == 0 {
			mustValidate(t, tree, root)
		}
	}

	rep := mustValidate(t, tree, root)
	if rep.Rows != len(model) {
		t.Errorf("Row count mismatch: expected %d, got %d", len(model), rep.Rows)
	}
	for k := range model {
		if _, err := tree.Get(root, k); err != nil {
			t.Errorf("Missing key %d: %v", k, err)
		}
	}
}

func TestRowTooLarge(t *testing.T) {
	tree, root := newTestTree(t, 4, 64)
	huge := types.NewRow(1, types.Text(string(make([]byte, tree.MaxRowPayload()+1))))
	if _, err := tree.Insert(root, huge); !errors.Is(err, types.ErrRowTooLarge) {
		t.Errorf("Expected row too large, got %v", err)
	}
}

func TestRebuildRegistry(t *testing.T) {
	tree, root := newTestTree(t, 4, 64)
	var err error
	for k := uint64(1); k <= 100; k++ {
		if root, err = tree.Insert(root, rowFor(k)); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}
	want := tree.Registry().Snapshot()
	tree.Registry().Reset(nil)
	if err := tree.RebuildRegistry(root); err != nil {
		t.Fatalf("Failed to rebuild: %v", err)
	}
	got := tree.Registry().Snapshot()
	if len(got) != len(want) {
		t.Fatalf("Leaf count mismatch: expected %d, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Leaf %d mismatch: expected %d, got %d", i, want[i], got[i])
		}
	}
}
