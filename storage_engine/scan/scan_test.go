package scan

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	bplus "HTAPDB/storage_engine/access/bplustree"
	diskmanager "HTAPDB/storage_engine/disk_manager"
	leafregistry "HTAPDB/storage_engine/leaf_registry"
	storagemanager "HTAPDB/storage_engine/storage_manager"
	"HTAPDB/types"
)

const (
	colAge = iota
	colCity
	colScore
)

var cities = []string{"Pune", "Delhi", "Mumbai", "Goa"}

func fixtureRow(k uint64) types.Row {
	score := types.Float(float64(k) / 2)
	if k%10 == 0 {
		score = types.Null()
	}
	return types.NewRow(k, types.Int(int64(k%100)), types.Text(cities[k%4]), score)
}

// buildTable inserts keys 1..n and returns a scanner over the result.
func buildTable(t testing.TB, n, poolCapacity int) *Scanner {
	t.Helper()
	sm, err := storagemanager.Open(filepath.Join(t.TempDir(), "scan.db"), poolCapacity, diskmanager.Options{})
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { sm.Close() })

	reg := leafregistry.New()
	tree := bplus.NewTreeOperations(sm, reg, 0)
	root, err := tree.CreateRoot()
	if err != nil {
		t.Fatalf("Failed to create root: %v", err)
	}
	for k := uint64(1); k <= uint64(n); k++ {
		if root, err = tree.Insert(root, fixtureRow(k)); err != nil {
			t.Fatalf("Failed to insert %d: %v", k, err)
		}
	}
	if err := sm.FlushDirtyPages(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}
	return NewScanner(sm, reg)
}

func collectIDs(t testing.TB, s *Scanner, opts ScanOptions) ([]uint64, Stats) {
	t.Helper()
	it, err := s.Scan(context.Background(), opts)
	if err != nil {
		t.Fatalf("Failed to start scan: %v", err)
	}
	res, err := Collect(it)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	ids := make([]uint64, len(res.Rows))
	for i, r := range res.Rows {
		ids[i] = r.ID
	}
	return ids, res.Stats
}

// TestSequentialParallelEquivalence tests that every mode returns the same row set
func TestSequentialParallelEquivalence(t *testing.T) {
	s := buildTable(t, 5000, 64)
	pred := And(Ge(colAge, types.Int(40)), Ne(colCity, types.Text("Goa")))

	want, seqStats := collectIDs(t, s, ScanOptions{Predicate: pred})
	if !slices.IsSorted(want) {
		t.Errorf("Sequential scan is not in key order")
	}
	if seqStats.TotalScanned != 5000 {
		t.Errorf("Sequential scanned %d rows, expected 5000", seqStats.TotalScanned)
	}

	for _, workers := range []int{1, 3, 8} {
		for _, ra := range []int{-1, 0, 2} {
			got, st := collectIDs(t, s, ScanOptions{Predicate: pred, Parallel: true, Workers: workers, ReadAhead: ra})
			slices.Sort(got)
			if !slices.Equal(got, want) {
				t.Errorf("workers=%d readahead=%d: %d rows, expected %d", workers, ra, len(got), len(want))
			}
			if st.Matched != int64(len(want)) || st.TotalScanned != 5000 {
				t.Errorf("workers=%d readahead=%d: stats mismatch %+v", workers, ra, st)
			}
			if st.Mode != ModeParallel {
				t.Errorf("Expected parallel mode, got %s", st.Mode)
			}
		}
	}
}

// TestParallelScanLarge tests a 50k row table with 8 workers and a pool far smaller than the table
func TestParallelScanLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("large table")
	}
	s := buildTable(t, 50000, 128)

	ids, st := collectIDs(t, s, ScanOptions{
		Parallel: true,
		Workers:  8,
		OrderBy:  &OrderBy{Column: KeyColumn},
	})
	if len(ids) != 50000 {
		t.Fatalf("Row count mismatch: expected 50000, got %d", len(ids))
	}
	for i, id := range ids {
		if id != uint64(i+1) {
			t.Fatalf("Key order broken at %d: got %d", i, id)
		}
	}
	if st.Workers != 8 {
		t.Errorf("Workers mismatch: expected 8, got %d", st.Workers)
	}
	if st.PagesRead != int64(st.Leaves) {
		t.Errorf("Pages read %d, leaves %d", st.PagesRead, st.Leaves)
	}
	if st.ReadAhead.PagesDelivered != st.PagesRead {
		t.Errorf("Read-ahead delivered %d pages, read %d", st.ReadAhead.PagesDelivered, st.PagesRead)
	}
}

func TestLimitOffset(t *testing.T) {
	s := buildTable(t, 1000, 64)

	// Test 1: sequential scans come out in key order
	ids, st := collectIDs(t, s, ScanOptions{Offset: 10, Limit: 5})
	if !slices.Equal(ids, []uint64{11, 12, 13, 14, 15}) {
		t.Errorf("Sequential window mismatch: %v", ids)
	}
	if st.Returned != 5 {
		t.Errorf("Returned mismatch: expected 5, got %d", st.Returned)
	}

	// Test 2: parallel in key order gives the same window
	ids, _ = collectIDs(t, s, ScanOptions{Offset: 10, Limit: 5, Parallel: true, Workers: 4, OrderBy: &OrderBy{Column: KeyColumn}})
	if !slices.Equal(ids, []uint64{11, 12, 13, 14, 15}) {
		t.Errorf("Ordered parallel window mismatch: %v", ids)
	}

	// Test 3: unordered parallel returns exactly limit distinct matching rows
	pred := Eq(colCity, types.Text("Delhi"))
	ids, _ = collectIDs(t, s, ScanOptions{Predicate: pred, Limit: 7, Parallel: true, Workers: 4})
	if len(ids) != 7 {
		t.Fatalf("Expected 7 rows, got %d", len(ids))
	}
	seen := map[uint64]bool{}
	for _, id := range ids {
		if id%4 != 1 || seen[id] {
			t.Errorf("Unexpected or repeated row %d", id)
		}
		seen[id] = true
	}

	// Test 4: offset past the end
	if ids, _ := collectIDs(t, s, ScanOptions{Offset: 5000}); len(ids) != 0 {
		t.Errorf("Expected no rows past the end, got %d", len(ids))
	}

	if _, err := s.Scan(context.Background(), ScanOptions{Limit: -1}); types.KindOf(err) != types.KindInvalidArgument {
		t.Errorf("Negative limit should be rejected, got %v", err)
	}
}

func TestOrderByColumn(t *testing.T) {
	s := buildTable(t, 300, 64)

	it, err := s.Scan(context.Background(), ScanOptions{
		OrderBy:    &OrderBy{Column: colScore},
		Projection: []int{colScore},
		Parallel:   true,
		Workers:    3,
	})
	if err != nil {
		t.Fatalf("Failed to start scan: %v", err)
	}
	res, err := Collect(it)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(res.Rows) != 300 {
		t.Fatalf("Row count mismatch: %d", len(res.Rows))
	}
	// 30 NULL scores first, in key order, then ascending scores
	for i := 0; i < 30; i++ {
		r := res.Rows[i]
		if !r.Get(0).IsNull() || r.ID != uint64(10*(i+1)) {
			t.Fatalf("Row %d: expected NULL score for key %d, got %v", i, 10*(i+1), r)
		}
	}
	for i := 31; i < len(res.Rows); i++ {
		if res.Rows[i-1].Get(0).AsFloat() > res.Rows[i].Get(0).AsFloat() {
			t.Fatalf("Scores out of order at %d", i)
		}
	}
	if len(res.Rows[0].Values) != 1 {
		t.Errorf("Projection not applied after sort: %v", res.Rows[0])
	}

	// descending key
	ids, _ := collectIDs(t, s, ScanOptions{OrderBy: &OrderBy{Column: KeyColumn, Desc: true}, Limit: 3})
	if !slices.Equal(ids, []uint64{300, 299, 298}) {
		t.Errorf("Descending key mismatch: %v", ids)
	}
}

func TestScanEmptyTable(t *testing.T) {
	s := NewScanner(nil, leafregistry.New())
	ids, st := collectIDs(t, s, ScanOptions{Parallel: true})
	if len(ids) != 0 || st.TotalScanned != 0 {
		t.Errorf("Empty table returned %d rows", len(ids))
	}
}

// TestEarlyCloseRunsHooks tests that closing mid-scan stops workers before hooks run
func TestEarlyCloseRunsHooks(t *testing.T) {
	s := buildTable(t, 3000, 64)
	for _, parallel := range []bool{false, true} {
		it, err := s.Scan(context.Background(), ScanOptions{Parallel: parallel, Workers: 4})
		if err != nil {
			t.Fatalf("Failed to start scan: %v", err)
		}
		released := 0
		it.AfterClose(func() { released++ })
		for i := 0; i < 10 && it.Next(); i++ {
		}
		if err := it.Close(); err != nil {
			t.Errorf("parallel=%v: close returned %v", parallel, err)
		}
		it.Close()
		if released != 1 {
			t.Errorf("parallel=%v: hook ran %d times", parallel, released)
		}
		if it.Next() {
			t.Errorf("parallel=%v: Next after Close returned true", parallel)
		}
	}
}

func TestScanCancelled(t *testing.T) {
	s := buildTable(t, 3000, 64)
	for _, parallel := range []bool{false, true} {
		ctx, cancel := context.WithCancel(context.Background())
		it, err := s.Scan(ctx, ScanOptions{Parallel: parallel, Workers: 4})
		if err != nil {
			t.Fatalf("Failed to start scan: %v", err)
		}
		it.Next()
		cancel()
		for it.Next() {
		}
		if !errors.Is(it.Err(), context.Canceled) {
			t.Errorf("parallel=%v: expected context.Canceled, got %v", parallel, it.Err())
		}
	}
}

func TestAggregates(t *testing.T) {
	s := buildTable(t, 100, 64)
	it, err := s.Scan(context.Background(), ScanOptions{Parallel: true, Workers: 4})
	if err != nil {
		t.Fatalf("Failed to start scan: %v", err)
	}
	vals, err := RunAggregates(it, []Aggregate{
		Count(), CountOf(colScore), Sum(colAge), Avg(colAge),
		Min(colScore), Max(KeyColumn), CountDistinct(colCity),
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	// ages are 1..99 then 0
	want := []types.Value{
		types.Int(100), types.Int(90), types.Int(4950), types.Float(49.5),
		types.Float(0.5), types.Int(100), types.Int(4),
	}
	for i := range want {
		if !vals[i].Equal(want[i]) {
			t.Errorf("Aggregate %d mismatch: expected %v, got %s %v", i, want[i], vals[i].Kind(), vals[i])
		}
	}

	// SUM over a float column, and results over no rows
	it, _ = s.Scan(context.Background(), ScanOptions{Predicate: KeyRange(1, 4)})
	vals, err = RunAggregates(it, []Aggregate{Sum(colScore)})
	if err != nil || !vals[0].Equal(types.Float(5)) {
		t.Errorf("Float sum mismatch: %v %v", vals, err)
	}
	it, _ = s.Scan(context.Background(), ScanOptions{Predicate: KeyRange(500, 600)})
	vals, err = RunAggregates(it, []Aggregate{Count(), Sum(colAge), Min(colAge)})
	if err != nil || vals[0].AsInt() != 0 || !vals[1].IsNull() || !vals[2].IsNull() {
		t.Errorf("Empty aggregate mismatch: %v %v", vals, err)
	}

	it, _ = s.Scan(context.Background(), ScanOptions{})
	if _, err := RunAggregates(it, []Aggregate{Sum(colCity)}); types.KindOf(err) != types.KindInvalidArgument {
		t.Errorf("SUM over text should fail, got %v", err)
	}
}

func BenchmarkSequentialScan(b *testing.B) {
	s := buildTable(b, 20000, 256)
	pred := Gt(colAge, types.Int(50))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collectIDs(b, s, ScanOptions{Predicate: pred})
	}
}

func BenchmarkParallelScan(b *testing.B) {
	s := buildTable(b, 20000, 256)
	pred := Gt(colAge, types.Int(50))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collectIDs(b, s, ScanOptions{Predicate: pred, Parallel: true, Workers: 8})
	}
}
