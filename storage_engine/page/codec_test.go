package page

import (
	"encoding/binary"
	"errors"
	"testing"

	"HTAPDB/types"
)

func sampleLeaf() *Page {
	p := NewLeaf(7)
	p.ParentID = 3
	p.NextLeaf = 9
	for i := uint64(1); i <= 5; i++ {
		p.InsertRow(int(i-1), types.NewRow(i*10, types.Int(int64(i)), types.Text("row"), types.Null()))
	}
	return p
}

// TestPageRoundTrip tests that leaf and internal nodes survive Encode/Decode
func TestPageRoundTrip(t *testing.T) {
	// Test 1: leaf
	leaf := sampleLeaf()
	buf, err := Encode(leaf)
	if err != nil {
		t.Fatalf("Failed to encode leaf: %v", err)
	}
	if len(buf) != PageSize {
		t.Fatalf("Encoded size mismatch: expected %d, got %d", PageSize, len(buf))
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Failed to decode leaf: %v", err)
	}
	if !got.Equal(leaf) {
		t.Errorf("Leaf mismatch after round trip: %+v", got)
	}

	// Test 2: internal
	in := NewInternal(4)
	in.Keys = []uint64{100, 200}
	in.Children = []int64{5, 6, 8}
	buf, err = Encode(in)
	if err != nil {
		t.Fatalf("Failed to encode internal: %v", err)
	}
	got, err = Decode(buf)
	if err != nil {
		t.Fatalf("Failed to decode internal: %v", err)
	}
	if !got.Equal(in) || got.IsLeaf {
		t.Errorf("Internal mismatch after round trip: %+v", got)
	}

	// Test 3: EncodeInto reuses a dirty buffer
	for i := range buf {
		buf[i] = 0xAB
	}
	if err := EncodeInto(leaf, buf); err != nil {
		t.Fatalf("Failed to encode into buffer: %v", err)
	}
	if got, err = Decode(buf); err != nil || !got.Equal(leaf) {
		t.Errorf("EncodeInto round trip failed: %v", err)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	good, err := Encode(sampleLeaf())
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(b []byte) []byte
	}{
		{"short slot", func(b []byte) []byte { return b[:100] }},
		{"zero slot", func(b []byte) []byte { return make([]byte, PageSize) }},
		{"bad magic", func(b []byte) []byte { binary.LittleEndian.PutUint32(b, 0x12345678); return b }},
		{"flipped body byte", func(b []byte) []byte { b[HeaderSize+3] ^= 0xFF; return b }},
		{"key count too big", func(b []byte) []byte { binary.LittleEndian.PutUint16(b[offNumKeys:], MaxKeysPerNode+1); return b }},
		{"body length too big", func(b []byte) []byte { binary.LittleEndian.PutUint32(b[offBodyLen:], PageSize); return b }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := tt.mutate(append([]byte(nil), good...))
			_, err := Decode(buf)
			if !errors.Is(err, types.ErrCorruptPage) {
				t.Errorf("Decode expected CorruptPage, got %v", err)
			}
		})
	}
}

func TestEncodeRejectsInvalidNodes(t *testing.T) {
	p := NewLeaf(1)
	p.Keys = []uint64{1}
	if _, err := Encode(p); types.KindOf(err) != types.KindInvalidArgument {
		t.Errorf("keys without rows: expected invalid argument, got %v", err)
	}

	in := NewInternal(2)
	in.Keys = []uint64{5}
	in.Children = []int64{3}
	if _, err := Encode(in); types.KindOf(err) != types.KindInvalidArgument {
		t.Errorf("missing child: expected invalid argument, got %v", err)
	}

	big := NewLeaf(3)
	for i := 0; i < 4; i++ {
		big.InsertRow(i, types.NewRow(uint64(i), types.Text(string(make([]byte, 1500)))))
	}
	if _, err := Encode(big); types.KindOf(err) != types.KindRowTooLarge {
		t.Errorf("oversized body: expected row too large, got %v", err)
	}
}

// TestSplitLeaf tests the halves and chain links produced by a leaf split
func TestSplitLeaf(t *testing.T) {
	p := sampleLeaf()
	right := NewLeaf(8)

	sep := p.SplitLeaf(right)
	if sep != 30 {
		t.Errorf("Separator mismatch: expected 30, got %d", sep)
	}
	if p.NumKeys() != 2 || right.NumKeys() != 3 {
		t.Errorf("Split sizes mismatch: expected 2/3, got %d/%d", p.NumKeys(), right.NumKeys())
	}
	if p.NextLeaf != 8 || right.NextLeaf != 9 {
		t.Errorf("Chain mismatch: left.next=%d right.next=%d", p.NextLeaf, right.NextLeaf)
	}
	if right.ParentID != p.ParentID {
		t.Errorf("Parent mismatch: expected %d, got %d", p.ParentID, right.ParentID)
	}
	for i, k := range right.Keys {
		if right.Rows[i].ID != k {
			t.Errorf("Right row %d has id %d under key %d", i, right.Rows[i].ID, k)
		}
	}

	// appending to the left half must not clobber the right half
	p.InsertRow(2, types.NewRow(25))
	if right.Keys[0] != 30 {
		t.Errorf("Left append overwrote right half: %v", right.Keys)
	}
}

func TestSplitInternal(t *testing.T) {
	p := NewInternal(1)
	p.Keys = []uint64{10, 20, 30, 40, 50}
	p.Children = []int64{2, 3, 4, 5, 6, 7}
	right := NewInternal(9)

	promoted := p.SplitInternal(right)
	if promoted != 30 {
		t.Errorf("Promoted key mismatch: expected 30, got %d", promoted)
	}
	if len(p.Keys) != 2 || len(p.Children) != 3 {
		t.Errorf("Left half mismatch: keys %v children %v", p.Keys, p.Children)
	}
	if len(right.Keys) != 2 || len(right.Children) != 3 || right.Children[0] != 5 {
		t.Errorf("Right half mismatch: keys %v children %v", right.Keys, right.Children)
	}
}

func TestSearchAndChildIndex(t *testing.T) {
	p := NewInternal(1)
	p.Keys = []uint64{10, 20}
	p.Children = []int64{2, 3, 4}

	cases := map[uint64]int{5: 0, 10: 1, 15: 1, 20: 2, 99: 2}
	for key, want := range cases {
		if got := p.ChildIndex(key); got != want {
			t.Errorf("ChildIndex(%d) = %d, want %d", key, got, want)
		}
	}
	if i, ok := p.Search(20); !ok || i != 1 {
		t.Errorf("Search(20) = %d,%v", i, ok)
	}
	if i, ok := p.Search(15); ok || i != 1 {
		t.Errorf("Search(15) = %d,%v", i, ok)
	}

	p.RemoveAt(0)
	if len(p.Keys) != 1 || p.Keys[0] != 20 || len(p.Children) != 2 || p.Children[1] != 4 {
		t.Errorf("RemoveAt mismatch: keys %v children %v", p.Keys, p.Children)
	}
}
