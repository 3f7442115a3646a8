package types

import (
	"bytes"
	"cmp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Compare orders two values. NULL sorts before everything, integer widths and
// FLOAT compare numerically with each other, other kinds only compare with
// themselves.
func Compare(a, b Value) (int, error) {
	switch {
	case a.kind == KindNull && b.kind == KindNull:
		return 0, nil
	case a.kind == KindNull:
		return -1, nil
	case b.kind == KindNull:
		return 1, nil
	}

	if a.IsNumeric() && b.IsNumeric() {
		if a.kind != KindFloat && b.kind != KindFloat {
			return cmp.Compare(a.num, b.num), nil
		}
		return cmp.Compare(a.AsFloat(), b.AsFloat()), nil
	}

	if a.kind != b.kind {
		return 0, NewError(KindInvalidArgument, "compare",
			errors.Errorf("cannot compare %s with %s", a.kind, b.kind))
	}

	switch a.kind {
	case KindText, KindJSON:
		return strings.Compare(a.str, b.str), nil
	case KindDecimal:
		af, aerr := strconv.ParseFloat(a.str, 64)
		bf, berr := strconv.ParseFloat(b.str, 64)
		if aerr == nil && berr == nil {
			return cmp.Compare(af, bf), nil
		}
		return strings.Compare(a.str, b.str), nil
	case KindBinary, KindUUID:
		return bytes.Compare(a.raw, b.raw), nil
	default:
		return cmp.Compare(a.num, b.num), nil
	}
}

// Less is Compare for sorting; incomparable pairs fall back to tag order.
func Less(a, b Value) bool {
	c, err := Compare(a, b)
	if err != nil {
		return a.kind < b.kind
	}
	return c < 0
}
