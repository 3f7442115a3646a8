//go:build linux

package diskmanager

import (
	"HTAPDB/storage_engine/page"

	"golang.org/x/sys/unix"
)

// Advise tells the kernel that slots [first, first+n) will be read soon so the
// page cache can start fetching them while the current page is processed.
func (dm *DiskManager) Advise(first, n int64) {
	if n <= 0 {
		return
	}
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	if dm.file == nil {
		return
	}
	if err := unix.Fadvise(dm.fd, first*page.PageSize, n*page.PageSize, unix.FADV_WILLNEED); err != nil {
		dm.log.Debug("fadvise failed")
		return
	}
	dm.stats.advised.Add(n)
}

// AdviseSequential marks the whole file as read front to back.
func (dm *DiskManager) AdviseSequential() {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	if dm.file == nil {
		return
	}
	_ = unix.Fadvise(dm.fd, 0, 0, unix.FADV_SEQUENTIAL)
}
