//go:build !linux

package diskmanager

// Advise is a no-op where posix_fadvise is unavailable.
func (dm *DiskManager) Advise(first, n int64) {}

func (dm *DiskManager) AdviseSequential() {}
