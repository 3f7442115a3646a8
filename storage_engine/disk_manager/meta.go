package diskmanager

import (
	"encoding/binary"

	"HTAPDB/storage_engine/page"
	"HTAPDB/types"

	"github.com/cespare/xxhash/v2"
)

/*
META PAGE (slot 0)

	0   magic      u32  "HTAP"
	4   version    u32
	8   nextPageID u64  every id below it is allocated
	16  rootPageID u64  0 until the first root is created
	24  checksum   u64  xxhash64 of bytes [0, 24)

Written through on every allocation and root change, so a restart never hands
out a live id again.
*/

const (
	metaMagic   = 0x48544150
	metaVersion = 1
	metaLen     = 24
)

// writeMeta writes slot 0. Caller holds dm.mu for writing.
func (dm *DiskManager) writeMeta() error {
	buf := make([]byte, page.PageSize)
	binary.LittleEndian.PutUint32(buf[0:], metaMagic)
	binary.LittleEndian.PutUint32(buf[4:], dm.meta.Version)
	binary.LittleEndian.PutUint64(buf[8:], uint64(dm.meta.NextPageID))
	binary.LittleEndian.PutUint64(buf[16:], uint64(dm.meta.RootPageID))
	binary.LittleEndian.PutUint64(buf[metaLen:], xxhash.Sum64(buf[:metaLen]))

	if _, err := dm.file.WriteAt(buf, 0); err != nil {
		return types.IOError("write meta", 0, err)
	}
	return nil
}

// readMeta loads slot 0. Caller holds dm.mu for writing.
func (dm *DiskManager) readMeta() error {
	buf := make([]byte, page.PageSize)
	if _, err := dm.file.ReadAt(buf, 0); err != nil {
		return types.IOError("read meta", 0, err)
	}
	if binary.LittleEndian.Uint32(buf[0:]) != metaMagic {
		return types.CorruptPageError(0, "not a database file: bad meta magic")
	}
	if xxhash.Sum64(buf[:metaLen]) != binary.LittleEndian.Uint64(buf[metaLen:]) {
		return types.CorruptPageError(0, "meta page checksum mismatch")
	}
	dm.meta = metaPage{
		Version:    binary.LittleEndian.Uint32(buf[4:]),
		NextPageID: int64(binary.LittleEndian.Uint64(buf[8:])),
		RootPageID: int64(binary.LittleEndian.Uint64(buf[16:])),
	}
	if dm.meta.Version != metaVersion {
		return types.CorruptPageError(0, "unsupported format version %d", dm.meta.Version)
	}
	if dm.meta.NextPageID < 1 {
		dm.meta.NextPageID = 1
	}
	return nil
}
