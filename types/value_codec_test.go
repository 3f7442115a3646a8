package types

import (
	"errors"
	"math"
	"testing"
	"time"
	"unicode/utf8"
)

func sampleValues() []Value {
	return []Value{
		Null(),
		Int(0), Int(-1), Int(math.MaxInt64), Int(math.MinInt64),
		SmallInt(-32768), SmallInt(32767),
		TinyInt(-128), TinyInt(127),
		Float(3.25), Float(-0.0), Float(math.Inf(1)), Float(math.NaN()),
		Bool(true), Bool(false),
		Text(""), Text("hello"), Text("héllo wörld"),
		Decimal("12345.6789"),
		JSON(`{"a":[1,2,3]}`),
		Binary(nil), Binary([]byte{0, 1, 2, 0xff}),
		Date(19000), Date(-1),
		Time(0), Time(86399999),
		Timestamp(time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC)),
		UUID([16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}),
		Char('a'), Char('é'), Char('😀'), Char(utf8.RuneError),
	}
}

// TestValueRoundTrip checks decode(encode(v)) == v for every kind
func TestValueRoundTrip(t *testing.T) {
	for _, v := range sampleValues() {
		buf := EncodeValue(nil, v)
		if len(buf) != EncodedSize(v) {
			t.Errorf("%s %v: EncodedSize %d, encoded %d bytes", v.Kind(), v, EncodedSize(v), len(buf))
		}
		got, n, err := DecodeValue(buf)
		if err != nil {
			t.Fatalf("Failed to decode %s %v: %v", v.Kind(), v, err)
		}
		if n != len(buf) {
			t.Errorf("%s %v: consumed %d of %d bytes", v.Kind(), v, n, len(buf))
		}
		if !got.Equal(v) {
			t.Errorf("Round trip mismatch: expected %s %v, got %s %v", v.Kind(), v, got.Kind(), got)
		}
	}
}

// TestCharInvalidRune checks that runes with no UTF-8 encoding are stored as U+FFFD
func TestCharInvalidRune(t *testing.T) {
	for _, r := range []rune{0xD800, 0xDFFF, utf8.MaxRune + 1, -1} {
		v := Char(r)
		if v.AsRune() != utf8.RuneError {
			t.Errorf("Char(%#x): expected RuneError, got %#x", r, v.AsRune())
		}
		buf := EncodeValue(nil, v)
		if len(buf) != EncodedSize(v) {
			t.Errorf("Char(%#x): EncodedSize %d, encoded %d bytes", r, EncodedSize(v), len(buf))
		}
		got, _, err := DecodeValue(buf)
		if err != nil || !got.Equal(v) {
			t.Errorf("Char(%#x): decoded %v, %v", r, got, err)
		}
	}
}

func TestRowValuesRoundTrip(t *testing.T) {
	values := sampleValues()
	buf := EncodeRowValues([]byte{0xAA}, values)
	if len(buf)-1 != RowPayloadSize(values) {
		t.Fatalf("RowPayloadSize %d, encoded %d", RowPayloadSize(values), len(buf)-1)
	}

	got, n, err := DecodeRowValues(buf[1:])
	if err != nil {
		t.Fatalf("Failed to decode row: %v", err)
	}
	if n != len(buf)-1 {
		t.Errorf("consumed %d of %d bytes", n, len(buf)-1)
	}
	a, b := NewRow(7, values...), NewRow(7, got...)
	if !a.Equal(b) {
		t.Errorf("row mismatch:\n%v\n%v", values, got)
	}
}

func TestDecodeValueErrors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"unknown tag", []byte{6}},
		{"unknown high tag", []byte{99}},
		{"short int", []byte{byte(KindInteger), 1, 2, 3}},
		{"short float", []byte{byte(KindFloat), 0}},
		{"bad bool", []byte{byte(KindBoolean), 2}},
		{"short text len", []byte{byte(KindText), 5, 0}},
		{"text overrun", []byte{byte(KindText), 5, 0, 0, 0, 'a', 'b'}},
		{"short uuid", append([]byte{byte(KindUUID)}, make([]byte, 15)...)},
		{"zero char", []byte{byte(KindChar), 0}},
		{"bad utf8 char", []byte{byte(KindChar), 2, 0xff, 0xfe}},
		{"bad single byte char", []byte{byte(KindChar), 1, 0xff}},
		{"surrogate char", []byte{byte(KindChar), 3, 0xed, 0xa0, 0x80}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeValue(tc.in)
			if err == nil {
				t.Fatalf("expected decode error for %v", tc.in)
			}
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected DecodeError, got %v", err)
			}
		})
	}
}

func TestDecodeRowTruncated(t *testing.T) {
	buf := EncodeRowValues(nil, []Value{Int(1), Text("abc")})
	for cut := 0; cut < len(buf); cut++ {
		if _, _, err := DecodeRowValues(buf[:cut]); err == nil {
			t.Errorf("decode of %d/%d bytes succeeded", cut, len(buf))
		}
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b Value
		want int
	}{
		{Null(), Null(), 0},
		{Null(), Int(-5), -1},
		{Text("a"), Null(), 1},
		{Int(1), Int(2), -1},
		{TinyInt(5), Int(5), 0},
		{SmallInt(7), Float(6.5), 1},
		{Float(1.5), Int(2), -1},
		{Text("abc"), Text("abd"), -1},
		{Decimal("10.5"), Decimal("9.75"), 1},
		{Bool(false), Bool(true), -1},
		{Date(10), Date(10), 0},
		{Binary([]byte{1}), Binary([]byte{1, 0}), -1},
	}
	for _, tc := range cases {
		got, err := Compare(tc.a, tc.b)
		if err != nil {
			t.Fatalf("Compare(%v, %v): %v", tc.a, tc.b, err)
		}
		if got != tc.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}

	if _, err := Compare(Text("1"), Int(1)); err == nil {
		t.Error("expected error comparing TEXT with INTEGER")
	}
}
