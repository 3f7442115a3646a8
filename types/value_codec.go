package types

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

/*
Value wire format (little-endian):

	tag u8 | payload

	NULL                        no payload
	INTEGER, TIMESTAMP          i64
	FLOAT                       f64 bits
	BOOLEAN, TINYINT            1 byte
	SMALLINT                    i16
	DATE                        i32
	TIME                        u32
	UUID                        16 bytes
	TEXT, DECIMAL, JSON, BINARY u32 length | bytes
	CHAR                        u8 length | utf8 bytes

Rows are encoded as u16 column count followed by each value, so a page
decoder can walk a row without a schema.
*/

// EncodedSize returns the number of bytes EncodeValue appends for v.
func EncodedSize(v Value) int {
	switch v.kind {
	case KindNull:
		return 1
	case KindInteger, KindTimestamp, KindFloat:
		return 1 + 8
	case KindBoolean, KindTinyInt:
		return 1 + 1
	case KindSmallInt:
		return 1 + 2
	case KindDate, KindTime:
		return 1 + 4
	case KindUUID:
		return 1 + 16
	case KindText, KindDecimal, KindJSON:
		return 1 + 4 + len(v.str)
	case KindBinary:
		return 1 + 4 + len(v.raw)
	case KindChar:
		return 1 + 1 + utf8.RuneLen(rune(v.num))
	}
	return 1
}

// EncodeValue appends the encoding of v to dst.
func EncodeValue(dst []byte, v Value) []byte {
	dst = append(dst, byte(v.kind))
	switch v.kind {
	case KindNull:
	case KindInteger, KindTimestamp:
		dst = binary.LittleEndian.AppendUint64(dst, uint64(v.num))
	case KindFloat:
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.flt))
	case KindBoolean, KindTinyInt:
		dst = append(dst, byte(v.num))
	case KindSmallInt:
		dst = binary.LittleEndian.AppendUint16(dst, uint16(v.num))
	case KindDate, KindTime:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(v.num))
	case KindUUID:
		var u [16]byte
		copy(u[:], v.raw)
		dst = append(dst, u[:]...)
	case KindText, KindDecimal, KindJSON:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.str)))
		dst = append(dst, v.str...)
	case KindBinary:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.raw)))
		dst = append(dst, v.raw...)
	case KindChar:
		dst = append(dst, byte(utf8.RuneLen(rune(v.num))))
		dst = utf8.AppendRune(dst, rune(v.num))
	}
	return dst
}

// DecodeValue decodes one value from the front of b and reports how many bytes it used.
func DecodeValue(b []byte) (Value, int, error) {
	if len(b) < 1 {
		return Value{}, 0, DecodeError("empty input")
	}
	kind := Kind(b[0])
	if !kind.valid() {
		return Value{}, 0, DecodeError("unknown value tag %d", b[0])
	}
	p := b[1:]

	need := func(n int) error {
		if len(p) < n {
			return DecodeError("%s needs %d bytes, have %d", kind, n, len(p))
		}
		return nil
	}

	switch kind {
	case KindNull:
		return Null(), 1, nil
	case KindInteger, KindTimestamp:
		if err := need(8); err != nil {
			return Value{}, 0, err
		}
		return Value{kind: kind, num: int64(binary.LittleEndian.Uint64(p))}, 9, nil
	case KindFloat:
		if err := need(8); err != nil {
			return Value{}, 0, err
		}
		return Float(math.Float64frombits(binary.LittleEndian.Uint64(p))), 9, nil
	case KindBoolean:
		if err := need(1); err != nil {
			return Value{}, 0, err
		}
		if p[0] > 1 {
			return Value{}, 0, DecodeError("invalid boolean byte %d", p[0])
		}
		return Bool(p[0] == 1), 2, nil
	case KindTinyInt:
		if err := need(1); err != nil {
			return Value{}, 0, err
		}
		return TinyInt(int8(p[0])), 2, nil
	case KindSmallInt:
		if err := need(2); err != nil {
			return Value{}, 0, err
		}
		return SmallInt(int16(binary.LittleEndian.Uint16(p))), 3, nil
	case KindDate:
		if err := need(4); err != nil {
			return Value{}, 0, err
		}
		return Date(int32(binary.LittleEndian.Uint32(p))), 5, nil
	case KindTime:
		if err := need(4); err != nil {
			return Value{}, 0, err
		}
		return Time(binary.LittleEndian.Uint32(p)), 5, nil
	case KindUUID:
		if err := need(16); err != nil {
			return Value{}, 0, err
		}
		var u [16]byte
		copy(u[:], p[:16])
		return UUID(u), 17, nil
	case KindText, KindDecimal, KindJSON, KindBinary:
		if err := need(4); err != nil {
			return Value{}, 0, err
		}
		n := int(binary.LittleEndian.Uint32(p))
		p = p[4:]
		if n > len(p) {
			return Value{}, 0, DecodeError("%s length %d exceeds remaining %d bytes", kind, n, len(p))
		}
		if kind == KindBinary {
			return Binary(p[:n]), 5 + n, nil
		}
		return Value{kind: kind, str: string(p[:n])}, 5 + n, nil
	case KindChar:
		if err := need(1); err != nil {
			return Value{}, 0, err
		}
		n := int(p[0])
		p = p[1:]
		if n == 0 || n > utf8.UTFMax || n > len(p) {
			return Value{}, 0, DecodeError("invalid char length %d", n)
		}
		// a valid U+FFFD decodes to RuneError with size 3; bad bytes give size 1
		r, size := utf8.DecodeRune(p[:n])
		if size != n || (r == utf8.RuneError && n == 1) {
			return Value{}, 0, DecodeError("invalid utf8 in char")
		}
		return Char(r), 2 + n, nil
	}
	return Value{}, 0, DecodeError("unhandled value tag %d", b[0])
}

// RowPayloadSize is the encoded size of a row's values, excluding its id.
func RowPayloadSize(values []Value) int {
	n := 2
	for _, v := range values {
		n += EncodedSize(v)
	}
	return n
}

// EncodeRowValues appends the column count and each value.
func EncodeRowValues(dst []byte, values []Value) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(values)))
	for _, v := range values {
		dst = EncodeValue(dst, v)
	}
	return dst
}

// DecodeRowValues is the inverse of EncodeRowValues.
func DecodeRowValues(b []byte) ([]Value, int, error) {
	if len(b) < 2 {
		return nil, 0, DecodeError("row header needs 2 bytes, have %d", len(b))
	}
	count := int(binary.LittleEndian.Uint16(b))
	off := 2
	values := make([]Value, 0, count)
	for i := 0; i < count; i++ {
		v, n, err := DecodeValue(b[off:])
		if err != nil {
			return nil, 0, err
		}
		values = append(values, v)
		off += n
	}
	return values, off, nil
}
