package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

// Kind is the type tag of a Value. The numeric values are the on-disk tags.
type Kind uint8

const (
	KindNull      Kind = 0
	KindInteger   Kind = 1
	KindText      Kind = 2
	KindFloat     Kind = 3
	KindBoolean   Kind = 4
	KindSmallInt  Kind = 5
	KindDecimal   Kind = 7
	KindBinary    Kind = 8
	KindDate      Kind = 9
	KindTime      Kind = 10
	KindTimestamp Kind = 11
	KindJSON      Kind = 13
	KindUUID      Kind = 14
	KindChar      Kind = 16
	KindTinyInt   Kind = 17
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInteger:
		return "INTEGER"
	case KindText:
		return "TEXT"
	case KindFloat:
		return "FLOAT"
	case KindBoolean:
		return "BOOLEAN"
	case KindSmallInt:
		return "SMALLINT"
	case KindDecimal:
		return "DECIMAL"
	case KindBinary:
		return "BINARY"
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindTimestamp:
		return "TIMESTAMP"
	case KindJSON:
		return "JSON"
	case KindUUID:
		return "UUID"
	case KindChar:
		return "CHAR"
	case KindTinyInt:
		return "TINYINT"
	}
	return fmt.Sprintf("KIND(%d)", uint8(k))
}

func (k Kind) valid() bool {
	switch k {
	case KindNull, KindInteger, KindText, KindFloat, KindBoolean, KindSmallInt, KindDecimal,
		KindBinary, KindDate, KindTime, KindTimestamp, KindJSON, KindUUID, KindChar, KindTinyInt:
		return true
	}
	return false
}

// Value is an immutable scalar column value.
// Integers of every width live in num, Float in flt, the textual kinds in str and
// Binary/UUID in raw. Constructors copy byte slices in, accessors copy them out.
type Value struct {
	kind Kind
	num  int64
	flt  float64
	str  string
	raw  []byte
}

func Null() Value { return Value{kind: KindNull} }
func Int(v int64) Value { return Value{kind: KindInteger, num: v} }
func SmallInt(v int16) Value { return Value{kind: KindSmallInt, num: int64(v)} }
func TinyInt(v int8) Value { return Value{kind: KindTinyInt, num: int64(v)} }
func Float(v float64) Value { return Value{kind: KindFloat, flt: v} }
func Text(v string) Value { return Value{kind: KindText, str: v} }
func Decimal(v string) Value { return Value{kind: KindDecimal, str: v} }
func JSON(v string) Value { return Value{kind: KindJSON, str: v} }
// Char stores r; surrogates and out-of-range runes become utf8.RuneError, as
// in a string(rune) conversion.
func Char(r rune) Value {
	if !utf8.ValidRune(r) {
		r = utf8.RuneError
	}
	return Value{kind: KindChar, num: int64(r)}
}
func Date(daysSinceEpoch int32) Value { return Value{kind: KindDate, num: int64(daysSinceEpoch)} }

func Bool(v bool) Value {
	if v {
		return Value{kind: KindBoolean, num: 1}
	}
	return Value{kind: KindBoolean}
}

// Time is milliseconds since midnight.
func Time(msSinceMidnight uint32) Value { return Value{kind: KindTime, num: int64(msSinceMidnight)} }

// Timestamp is microseconds since the unix epoch.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, num: t.UnixMicro()} }

func TimestampMicros(us int64) Value { return Value{kind: KindTimestamp, num: us} }

func Binary(b []byte) Value {
	return Value{kind: KindBinary, raw: bytes.Clone(b)}
}

func UUID(u [16]byte) Value {
	return Value{kind: KindUUID, raw: append([]byte(nil), u[:]...)}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) AsInt() int64 { return v.num }
func (v Value) AsFloat() float64 {
	if v.kind == KindFloat {
		return v.flt
	}
	return float64(v.num)
}
func (v Value) AsText() string { return v.str }
func (v Value) AsBool() bool { return v.num != 0 }
func (v Value) AsRune() rune { return rune(v.num) }
func (v Value) AsBytes() []byte {
	return bytes.Clone(v.raw)
}
func (v Value) AsTime() time.Time {
	return time.UnixMicro(v.num).UTC()
}

func (v Value) AsUUID() [16]byte {
	var u [16]byte
	copy(u[:], v.raw)
	return u
}

// IsNumeric reports whether the value takes part in cross-width numeric comparison.
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindInteger, KindSmallInt, KindTinyInt, KindFloat:
		return true
	}
	return false
}

// Equal is kind-exact equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindFloat:
		return math.Float64bits(v.flt) == math.Float64bits(o.flt)
	case KindText, KindDecimal, KindJSON:
		return v.str == o.str
	case KindBinary, KindUUID:
		return bytes.Equal(v.raw, o.raw)
	default:
		return v.num == o.num
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInteger, KindSmallInt, KindTinyInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.num != 0)
	case KindText, KindDecimal, KindJSON:
		return v.str
	case KindChar:
		return string(rune(v.num))
	case KindBinary:
		return "0x" + hex.EncodeToString(v.raw)
	case KindUUID:
		h := hex.EncodeToString(v.raw)
		if len(h) != 32 {
			return h
		}
		return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
	case KindDate:
		return time.Unix(v.num*86400, 0).UTC().Format("2006-01-02")
	case KindTime:
		d := time.Duration(v.num) * time.Millisecond
		return fmt.Sprintf("%02d:%02d:%02d.%03d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60, v.num%1000)
	case KindTimestamp:
		return v.AsTime().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("<%s>", v.kind)
}
