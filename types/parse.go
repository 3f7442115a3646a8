package types

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ParseKind accepts a kind name as printed by Kind.String, case-insensitively,
// plus the common aliases INT, BOOL, STRING and VARCHAR.
func ParseKind(name string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NULL":
		return KindNull, nil
	case "INTEGER", "INT", "BIGINT":
		return KindInteger, nil
	case "TEXT", "STRING", "VARCHAR":
		return KindText, nil
	case "FLOAT", "DOUBLE", "REAL":
		return KindFloat, nil
	case "BOOLEAN", "BOOL":
		return KindBoolean, nil
	case "SMALLINT":
		return KindSmallInt, nil
	case "DECIMAL", "NUMERIC":
		return KindDecimal, nil
	case "BINARY", "BLOB":
		return KindBinary, nil
	case "DATE":
		return KindDate, nil
	case "TIME":
		return KindTime, nil
	case "TIMESTAMP":
		return KindTimestamp, nil
	case "JSON":
		return KindJSON, nil
	case "UUID":
		return KindUUID, nil
	case "CHAR":
		return KindChar, nil
	case "TINYINT":
		return KindTinyInt, nil
	}
	return KindNull, NewError(KindInvalidArgument, "parse kind", errors.Errorf("unknown type %q", name))
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, errors.Errorf("invalid kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseValue reads s as a value of kind k. "NULL" (any case) is NULL for every kind.
func ParseValue(k Kind, s string) (Value, error) {
	if strings.EqualFold(s, "null") {
		return Null(), nil
	}
	fail := func(err error) (Value, error) {
		return Null(), NewError(KindInvalidArgument, "parse value", errors.Wrapf(err, "%q as %s", s, k))
	}
	switch k {
	case KindNull:
		return fail(errors.New("only NULL is a NULL"))
	case KindInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fail(err)
		}
		return Int(n), nil
	case KindSmallInt:
		n, err := strconv.ParseInt(s, 10, 16)
		if err != nil {
			return fail(err)
		}
		return SmallInt(int16(n)), nil
	case KindTinyInt:
		n, err := strconv.ParseInt(s, 10, 8)
		if err != nil {
			return fail(err)
		}
		return TinyInt(int8(n)), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fail(err)
		}
		return Float(f), nil
	case KindBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fail(err)
		}
		return Bool(b), nil
	case KindText:
		return Text(s), nil
	case KindJSON:
		return JSON(s), nil
	case KindDecimal:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return fail(err)
		}
		return Decimal(s), nil
	case KindChar:
		r := []rune(s)
		if len(r) != 1 {
			return fail(errors.New("want exactly one character"))
		}
		return Char(r[0]), nil
	case KindBinary:
		b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return fail(err)
		}
		return Binary(b), nil
	case KindUUID:
		b, err := hex.DecodeString(strings.ReplaceAll(s, "-", ""))
		if err != nil {
			return fail(err)
		}
		if len(b) != 16 {
			return fail(errors.New("uuid needs 16 bytes"))
		}
		var u [16]byte
		copy(u[:], b)
		return UUID(u), nil
	case KindDate:
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return fail(err)
		}
		return Date(int32(t.Unix() / 86400)), nil
	case KindTime:
		t, err := time.Parse("15:04:05.000", s)
		if err != nil {
			if t, err = time.Parse("15:04:05", s); err != nil {
				return fail(err)
			}
		}
		ms := (t.Hour()*3600+t.Minute()*60+t.Second())*1000 + t.Nanosecond()/int(time.Millisecond)
		return Time(uint32(ms)), nil
	case KindTimestamp:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fail(err)
		}
		return Timestamp(t), nil
	}
	return fail(errors.Errorf("unsupported kind %d", uint8(k)))
}

// InferValue guesses a kind for untyped input: integers, floats, booleans and
// NULL are recognized, anything else is TEXT.
func InferValue(s string) Value {
	if strings.EqualFold(s, "null") {
		return Null()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f)
	}
	if b, err := strconv.ParseBool(s); err == nil && len(s) > 1 {
		return Bool(b)
	}
	return Text(s)
}
