package page

import (
	"encoding/binary"

	"HTAPDB/types"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

/*
PAGE LAYOUT (PageSize bytes, little-endian)

	 0  magic        u32   0xDEADBEEF
	 4  flags        u8    bit0 = leaf
	 5  reserved     u8
	 6  numKeys      u16
	 8  pageID       u64
	16  parentID     u64   0 for the root
	24  nextLeaf     u64   0 for the last leaf and for internal nodes
	32  bodyLen      u32
	36  reserved     u32
	40  checksum     u64   xxhash64 of the body
	48  body

BODY
	keys       numKeys * u64
	leaf:      numKeys rows, each u16 column count + encoded values
	internal:  (numKeys+1) * u64 child ids

The rest of the slot is zero.
*/

const (
	offMagic    = 0
	offFlags    = 4
	offNumKeys  = 6
	offPageID   = 8
	offParent   = 16
	offNextLeaf = 24
	offBodyLen  = 32
	offChecksum = 40

	flagLeaf = 1 << 0
)

// Encode serializes p into a fresh PageSize block.
func Encode(p *Page) ([]byte, error) {
	buf := make([]byte, PageSize)
	if err := EncodeInto(p, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeInto serializes p into buf, which must be exactly PageSize bytes.
func EncodeInto(p *Page, buf []byte) error {
	if len(buf) != PageSize {
		return types.NewError(types.KindInvalidArgument, "encode page",
			errors.Errorf("buffer is %d bytes, want %d", len(buf), PageSize))
	}
	if len(p.Keys) > MaxKeysPerNode {
		return types.NewError(types.KindInvalidArgument, "encode page",
			errors.Errorf("page %d has %d keys, max %d", p.ID, len(p.Keys), MaxKeysPerNode))
	}
	if p.IsLeaf && len(p.Rows) != len(p.Keys) {
		return types.NewError(types.KindInvalidArgument, "encode page",
			errors.Errorf("leaf %d has %d keys but %d rows", p.ID, len(p.Keys), len(p.Rows)))
	}
	if !p.IsLeaf && len(p.Children) != len(p.Keys)+1 {
		return types.NewError(types.KindInvalidArgument, "encode page",
			errors.Errorf("internal %d has %d keys but %d children", p.ID, len(p.Keys), len(p.Children)))
	}
	size := p.BodySize()
	if size > MaxBodySize {
		return types.NewError(types.KindRowTooLarge, "encode page",
			errors.Errorf("page %d body is %d bytes, max %d", p.ID, size, MaxBodySize))
	}

	body := buf[HeaderSize:HeaderSize]
	for _, k := range p.Keys {
		body = binary.LittleEndian.AppendUint64(body, k)
	}
	if p.IsLeaf {
		for _, r := range p.Rows {
			body = types.EncodeRowValues(body, r.Values)
		}
	} else {
		for _, c := range p.Children {
			body = binary.LittleEndian.AppendUint64(body, uint64(c))
		}
	}
	clear(buf[HeaderSize+len(body):])

	var flags byte
	if p.IsLeaf {
		flags |= flagLeaf
	}
	binary.LittleEndian.PutUint32(buf[offMagic:], Magic)
	buf[offFlags] = flags
	buf[offFlags+1] = 0
	binary.LittleEndian.PutUint16(buf[offNumKeys:], uint16(len(p.Keys)))
	binary.LittleEndian.PutUint64(buf[offPageID:], uint64(p.ID))
	binary.LittleEndian.PutUint64(buf[offParent:], uint64(p.ParentID))
	binary.LittleEndian.PutUint64(buf[offNextLeaf:], uint64(p.NextLeaf))
	binary.LittleEndian.PutUint32(buf[offBodyLen:], uint32(len(body)))
	binary.LittleEndian.PutUint32(buf[offBodyLen+4:], 0)
	binary.LittleEndian.PutUint64(buf[offChecksum:], xxhash.Sum64(body))
	return nil
}

// Decode parses a PageSize block. Any structural mismatch is a CorruptPage error.
func Decode(buf []byte) (*Page, error) {
	if len(buf) != PageSize {
		return nil, types.CorruptPageError(0, "slot is %d bytes, want %d", len(buf), PageSize)
	}
	magic := binary.LittleEndian.Uint32(buf[offMagic:])
	id := int64(binary.LittleEndian.Uint64(buf[offPageID:]))
	if magic != Magic {
		if magic == 0 && isZero(buf) {
			return nil, types.CorruptPageError(id, "slot was allocated but never written")
		}
		return nil, types.CorruptPageError(id, "bad magic 0x%08x", magic)
	}

	numKeys := int(binary.LittleEndian.Uint16(buf[offNumKeys:]))
	if numKeys > MaxKeysPerNode {
		return nil, types.CorruptPageError(id, "key count %d exceeds max %d", numKeys, MaxKeysPerNode)
	}
	bodyLen := int(binary.LittleEndian.Uint32(buf[offBodyLen:]))
	if bodyLen > MaxBodySize {
		return nil, types.CorruptPageError(id, "body length %d exceeds page", bodyLen)
	}
	body := buf[HeaderSize : HeaderSize+bodyLen]
	if sum := xxhash.Sum64(body); sum != binary.LittleEndian.Uint64(buf[offChecksum:]) {
		return nil, types.CorruptPageError(id, "checksum mismatch")
	}

	p := &Page{
		ID:       id,
		IsLeaf:   buf[offFlags]&flagLeaf != 0,
		ParentID: int64(binary.LittleEndian.Uint64(buf[offParent:])),
		NextLeaf: int64(binary.LittleEndian.Uint64(buf[offNextLeaf:])),
	}

	if numKeys*8 > len(body) {
		return nil, types.CorruptPageError(id, "%d keys do not fit in %d body bytes", numKeys, len(body))
	}
	p.Keys = make([]uint64, numKeys)
	for i := range p.Keys {
		p.Keys[i] = binary.LittleEndian.Uint64(body[i*8:])
	}
	rest := body[numKeys*8:]

	if p.IsLeaf {
		p.Rows = make([]types.Row, numKeys)
		for i := 0; i < numKeys; i++ {
			vals, n, err := types.DecodeRowValues(rest)
			if err != nil {
				return nil, types.NewError(types.KindCorruptPage, "decode page",
					errors.Wrapf(err, "page %d row %d", id, i))
			}
			p.Rows[i] = types.Row{ID: p.Keys[i], Values: vals}
			rest = rest[n:]
		}
	} else {
		if len(rest) != (numKeys+1)*8 {
			return nil, types.CorruptPageError(id, "internal node needs %d child bytes, have %d", (numKeys+1)*8, len(rest))
		}
		p.Children = make([]int64, numKeys+1)
		for i := range p.Children {
			p.Children[i] = int64(binary.LittleEndian.Uint64(rest[i*8:]))
		}
		rest = nil
	}
	if len(rest) != 0 {
		return nil, types.CorruptPageError(id, "%d trailing body bytes", len(rest))
	}
	return p, nil
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
