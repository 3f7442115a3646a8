package bufferpool

import (
	"errors"
	"sync"
	"testing"

	"HTAPDB/storage_engine/page"
	"HTAPDB/types"
)

// recordingFlusher stands in for the storage manager and remembers every write.
type recordingFlusher struct {
	mu      sync.Mutex
	written map[int64]*page.Page
	fail    error
}

func newRecordingFlusher() *recordingFlusher {
	return &recordingFlusher{written: make(map[int64]*page.Page)}
}

func (f *recordingFlusher) WritePage(p *page.Page) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.written[p.ID] = p.Clone()
	return nil
}

func (f *recordingFlusher) wrote(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.written[id]
	return ok
}

// TestBufferPoolGetPut tests basic Get/Put operations
func TestBufferPoolGetPut(t *testing.T) {
	bp := NewBufferPool(4)

	// Test 1: miss on an empty pool
	if _, ok := bp.Get(1); ok {
		t.Errorf("Expected miss on empty pool")
	}

	// Test 2: Put then Get returns the same page
	p := page.NewLeaf(1)
	got, err := bp.Put(p)
	if err != nil {
		t.Fatalf("Failed to put page: %v", err)
	}
	if got != p {
		t.Errorf("Put should return the inserted page")
	}
	if cached, ok := bp.Get(1); !ok || cached != p {
		t.Errorf("Get should return the resident page")
	}

	// Test 3: a second Put of the same id keeps the first copy
	dup := page.NewLeaf(1)
	got, err = bp.Put(dup)
	if err != nil {
		t.Fatalf("Failed to put duplicate: %v", err)
	}
	if got != p {
		t.Errorf("Resident copy should win over a racing loader")
	}

	stats := bp.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Counter mismatch: expected 1 hit 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
}

// TestBufferPoolEviction tests that clean pages go first and dirty victims are written back
func TestBufferPoolEviction(t *testing.T) {
	fl := newRecordingFlusher()
	bp := NewBufferPool(3)
	bp.SetFlusher(fl)

	for id := int64(1); id <= 3; id++ {
		if _, err := bp.Put(page.NewLeaf(id)); err != nil {
			t.Fatalf("Failed to put page %d: %v", id, err)
		}
	}
	// 1 is the coldest page but dirty, so clean 2 must be evicted first
	if err := bp.MarkDirty(1); err != nil {
		t.Fatalf("Failed to mark dirty: %v", err)
	}
	if _, err := bp.Put(page.NewLeaf(4)); err != nil {
		t.Fatalf("Failed to put page 4: %v", err)
	}
	if bp.Contains(2) {
		t.Errorf("Expected clean page 2 to be evicted")
	}
	if !bp.Contains(1) {
		t.Errorf("Dirty page 1 should survive while a clean victim exists")
	}
	if fl.wrote(1) {
		t.Errorf("No write-back expected yet")
	}

	// every unpinned page dirty: the coldest dirty one is written, then dropped
	for _, id := range []int64{3, 4} {
		if err := bp.MarkDirty(id); err != nil {
			t.Fatalf("Failed to mark %d dirty: %v", id, err)
		}
	}
	if _, err := bp.Put(page.NewLeaf(5)); err != nil {
		t.Fatalf("Failed to put page 5: %v", err)
	}
	if bp.Contains(1) {
		t.Errorf("Expected dirty page 1 to be evicted")
	}
	if !fl.wrote(1) {
		t.Errorf("Dirty victim must be written before it is dropped")
	}
	if s := bp.Stats(); s.DirtyWritebacks != 1 || s.Evictions != 2 {
		t.Errorf("Stats mismatch: writebacks %d evictions %d", s.DirtyWritebacks, s.Evictions)
	}
}

func TestBufferPoolWritebackFailureKeepsPage(t *testing.T) {
	fl := newRecordingFlusher()
	fl.fail = types.IOError("write block", 1, errors.New("disk full"))
	bp := NewBufferPool(1)
	bp.SetFlusher(fl)

	if _, err := bp.Put(page.NewLeaf(1)); err != nil {
		t.Fatalf("Failed to put page: %v", err)
	}
	bp.MarkDirty(1)
	if _, err := bp.Put(page.NewLeaf(2)); !errors.Is(err, types.ErrIO) {
		t.Fatalf("Expected io error, got %v", err)
	}
	if !bp.Contains(1) || !bp.IsDirty(1) {
		t.Errorf("Failed write-back must leave the dirty page resident")
	}
}

func TestBufferPoolExhausted(t *testing.T) {
	bp := NewBufferPool(2)
	bp.SetFlusher(newRecordingFlusher())

	for id := int64(1); id <= 2; id++ {
		if _, err := bp.PutPinned(page.NewLeaf(id)); err != nil {
			t.Fatalf("Failed to put pinned page %d: %v", id, err)
		}
	}
	_, err := bp.Put(page.NewLeaf(3))
	if !errors.Is(err, types.ErrPoolExhausted) {
		t.Fatalf("Expected PoolExhausted, got %v", err)
	}

	bp.Unpin(1)
	if _, err := bp.Put(page.NewLeaf(3)); err != nil {
		t.Fatalf("Put after unpin failed: %v", err)
	}
	if bp.Contains(1) || !bp.Contains(2) {
		t.Errorf("Expected unpinned page 1 evicted and pinned page 2 kept")
	}
}

func TestPutNew(t *testing.T) {
	bp := NewBufferPool(2)
	p := page.NewLeaf(7)
	if err := bp.PutNew(p); err != nil {
		t.Fatalf("Failed to put new page: %v", err)
	}
	if !bp.IsDirty(7) {
		t.Errorf("New page should be dirty")
	}
	if s := bp.Stats(); s.PinnedPages != 1 {
		t.Errorf("New page should be pinned, got %d pinned", s.PinnedPages)
	}
	if err := bp.PutNew(page.NewLeaf(7)); types.KindOf(err) != types.KindInvalidArgument {
		t.Errorf("Second PutNew of the same id should fail, got %v", err)
	}
}

// TestClearDirtyIf tests that a page re-dirtied after a snapshot keeps its flag
func TestClearDirtyIf(t *testing.T) {
	bp := NewBufferPool(4)
	for id := int64(1); id <= 2; id++ {
		bp.Put(page.NewLeaf(id))
		bp.MarkDirty(id)
	}

	snap := bp.DirtySnapshot()
	if len(snap) != 2 || snap[0].ID != 1 || snap[1].ID != 2 {
		t.Fatalf("Snapshot mismatch: %+v", snap)
	}

	// page 2 changes between the snapshot and the write completing
	bp.MarkDirty(2)

	for _, e := range snap {
		bp.ClearDirtyIf(e.ID, e.Generation)
	}
	if bp.IsDirty(1) {
		t.Errorf("Page 1 should be clean")
	}
	if !bp.IsDirty(2) {
		t.Errorf("Page 2 was re-dirtied and must stay dirty")
	}
	if ids := bp.DirtyPages(); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("DirtyPages mismatch: %v", ids)
	}
}

func TestBufferPoolConcurrentAccess(t *testing.T) {
	bp := NewBufferPool(16)
	bp.SetFlusher(newRecordingFlusher())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				id := int64((w*500+i)%64 + 1)
				if _, ok := bp.Get(id); !ok {
					if _, err := bp.Put(page.NewLeaf(id)); err != nil {
						t.Errorf("Put %d: %v", id, err)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()

	if bp.Size() > bp.Capacity() {
		t.Errorf("Pool exceeded capacity: %d > %d", bp.Size(), bp.Capacity())
	}
}
