package leafregistry

import (
	"encoding/binary"
	"os"

	"HTAPDB/types"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
REGISTRY FILE

	magic    u32  "LEAF"
	count    u64
	ids      count * u64
	checksum u64  xxhash64 of everything before it

Saved next to the database file on flush so a reopen does not have to walk the
leaf chain. It is only a cache: a missing or stale file is rebuilt from the tree.
*/

const fileMagic = 0x4C454146

// Save writes the registry to path via a temp file and rename.
func (r *Registry) Save(path string) error {
	ids := r.Snapshot()
	buf := make([]byte, 0, 4+8+len(ids)*8+8)
	buf = binary.LittleEndian.AppendUint32(buf, fileMagic)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(ids)))
	for _, id := range ids {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(id))
	}
	buf = binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(buf))

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return types.IOError("save registry", 0, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return types.IOError("save registry", 0, err)
	}
	r.log.Debug("registry saved", zap.String("path", path), zap.Int("leaves", len(ids)))
	return nil
}

// Load replaces the registry with the contents of path.
func (r *Registry) Load(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return types.IOError("load registry", 0, err)
	}
	if len(buf) < 4+8+8 {
		return types.DecodeError("registry file is %d bytes", len(buf))
	}
	if binary.LittleEndian.Uint32(buf) != fileMagic {
		return types.DecodeError("bad registry magic")
	}
	body, sum := buf[:len(buf)-8], binary.LittleEndian.Uint64(buf[len(buf)-8:])
	if xxhash.Sum64(body) != sum {
		return types.DecodeError("registry checksum mismatch")
	}
	count := binary.LittleEndian.Uint64(body[4:])
	if uint64(len(body)-12) != count*8 {
		return errors.Wrapf(types.DecodeError("registry count %d does not match %d bytes", count, len(body)-12), "load %s", path)
	}
	ids := make([]int64, count)
	for i := range ids {
		ids[i] = int64(binary.LittleEndian.Uint64(body[12+i*8:]))
	}
	r.Reset(ids)
	return nil
}
