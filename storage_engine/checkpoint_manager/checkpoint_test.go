package checkpoint

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// TestCheckpointSaveLoad tests round-tripping the checkpoint file
func TestCheckpointSaveLoad(t *testing.T) {
	cm := NewCheckpointManager(filepath.Join(t.TempDir(), "db.checkpoint.json"))

	// Test 1: nothing saved yet
	cp, err := cm.LoadCheckpoint()
	if err != nil || cp != nil {
		t.Fatalf("Expected no checkpoint, got %+v %v", cp, err)
	}

	// Test 2: save then load
	want := Checkpoint{RootPageID: 9, NextPageID: 40, Leaves: 12, Clean: true}
	if err := cm.SaveCheckpoint(want); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}
	cp, err = cm.LoadCheckpoint()
	if err != nil || cp == nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}
	if cp.RootPageID != 9 || cp.NextPageID != 40 || cp.Leaves != 12 || !cp.Clean {
		t.Errorf("Checkpoint mismatch: %+v", cp)
	}
	if cp.Timestamp == 0 {
		t.Errorf("Timestamp should be filled in")
	}
	if _, err := os.Stat(cm.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp file left behind")
	}

	// Test 3: a corrupt file reads as no checkpoint
	if err := os.WriteFile(cm.Path(), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("Failed to corrupt file: %v", err)
	}
	if cp, err := cm.LoadCheckpoint(); err != nil || cp != nil {
		t.Errorf("Corrupt checkpoint should be ignored, got %+v %v", cp, err)
	}
}

func TestBackgroundFlush(t *testing.T) {
	cm := NewCheckpointManager(filepath.Join(t.TempDir(), "cp.json"))
	var calls atomic.Int32
	cm.Start(5*time.Millisecond, func() error {
		calls.Add(1)
		return nil
	})

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("Flush called %d times", calls.Load())
		}
		time.Sleep(time.Millisecond)
	}
	cm.Stop()
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != after {
		t.Errorf("Flush ran after Stop")
	}
	cm.Stop()
}
