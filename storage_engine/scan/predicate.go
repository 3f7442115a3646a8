package scan

import (
	"cmp"
	"math"
	"regexp"
	"strconv"
	"strings"

	"HTAPDB/types"
)

// Predicate filters rows during a scan. Implementations must be safe for
// concurrent use; parallel workers share one.
type Predicate interface {
	Match(row types.Row) bool
}

type PredicateFunc func(row types.Row) bool

func (f PredicateFunc) Match(row types.Row) bool { return f(row) }

func column(row types.Row, col int) types.Value {
	if col == KeyColumn {
		return keyValue(row.ID)
	}
	return row.Get(col)
}

// keyValue is the row id as a Value. Ids above MaxInt64 do not fit an INTEGER
// and come back as DECIMAL text.
func keyValue(id uint64) types.Value {
	if id <= math.MaxInt64 {
		return types.Int(int64(id))
	}
	return types.Decimal(strconv.FormatUint(id, 10))
}

// compareKey orders a row id against v in uint64 space. ok is false when v
// cannot be compared with an id.
func compareKey(id uint64, v types.Value) (r int, ok bool) {
	switch v.Kind() {
	case types.KindInteger, types.KindSmallInt, types.KindTinyInt:
		if v.AsInt() < 0 {
			return 1, true
		}
		return cmp.Compare(id, uint64(v.AsInt())), true
	case types.KindFloat:
		f := v.AsFloat()
		switch {
		case math.IsNaN(f):
			return 0, false
		case f < 0:
			return 1, true
		case f >= math.MaxUint64:
			return -1, true
		case f == math.Trunc(f):
			return cmp.Compare(id, uint64(f)), true
		}
		return cmp.Compare(float64(id), f), true
	case types.KindDecimal:
		u, err := strconv.ParseUint(v.AsText(), 10, 64)
		if err != nil {
			return 0, false
		}
		return cmp.Compare(id, u), true
	}
	return 0, false
}

type cmpOp uint8

const (
	opEq cmpOp = iota
	opNe
	opLt
	opLe
	opGt
	opGe
)

type compare struct {
	col int
	op  cmpOp
	val types.Value
}

// Comparisons involving NULL never match, as in SQL.
func (c compare) Match(row types.Row) bool {
	if c.val.IsNull() {
		return false
	}
	var r int
	if c.col == KeyColumn {
		var ok bool
		if r, ok = compareKey(row.ID, c.val); !ok {
			return false
		}
	} else {
		v := row.Get(c.col)
		if v.IsNull() {
			return false
		}
		var err error
		if r, err = types.Compare(v, c.val); err != nil {
			return false
		}
	}
	switch c.op {
	case opEq:
		return r == 0
	case opNe:
		return r != 0
	case opLt:
		return r < 0
	case opLe:
		return r <= 0
	case opGt:
		return r > 0
	case opGe:
		return r >= 0
	}
	return false
}

func Eq(col int, v types.Value) Predicate { return compare{col, opEq, v} }
func Ne(col int, v types.Value) Predicate { return compare{col, opNe, v} }
func Lt(col int, v types.Value) Predicate { return compare{col, opLt, v} }
func Le(col int, v types.Value) Predicate { return compare{col, opLe, v} }
func Gt(col int, v types.Value) Predicate { return compare{col, opGt, v} }
func Ge(col int, v types.Value) Predicate { return compare{col, opGe, v} }

// Between is inclusive on both ends.
func Between(col int, lo, hi types.Value) Predicate {
	return And(Ge(col, lo), Le(col, hi))
}

// KeyRange matches lo <= id <= hi.
func KeyRange(lo, hi uint64) Predicate {
	return PredicateFunc(func(row types.Row) bool { return row.ID >= lo && row.ID <= hi })
}

type in struct {
	col    int
	vals   []types.Value
	negate bool
}

func (p in) Match(row types.Row) bool {
	if p.col == KeyColumn {
		for _, c := range p.vals {
			if r, ok := compareKey(row.ID, c); ok && r == 0 {
				return !p.negate
			}
		}
		return p.negate
	}
	v := row.Get(p.col)
	if v.IsNull() {
		return false
	}
	for _, c := range p.vals {
		if r, err := types.Compare(v, c); err == nil && r == 0 {
			return !p.negate
		}
	}
	return p.negate
}

func In(col int, vals ...types.Value) Predicate { return in{col: col, vals: vals} }
func NotIn(col int, vals ...types.Value) Predicate { return in{col: col, vals: vals, negate: true} }

func IsNull(col int) Predicate {
	return PredicateFunc(func(row types.Row) bool { return column(row, col).IsNull() })
}

func IsNotNull(col int) Predicate {
	return PredicateFunc(func(row types.Row) bool { return !column(row, col).IsNull() })
}

type like struct {
	col int
	re  *regexp.Regexp
}

func (p like) Match(row types.Row) bool {
	v := column(row, p.col)
	switch v.Kind() {
	case types.KindText, types.KindJSON, types.KindDecimal:
		return p.re.MatchString(v.AsText())
	case types.KindChar:
		return p.re.MatchString(string(v.AsRune()))
	}
	return false
}

// Like matches text columns against a SQL pattern: % is any run, _ is one rune.
func Like(col int, pattern string) Predicate {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return like{col: col, re: regexp.MustCompile(b.String())}
}

type and []Predicate

func (ps and) Match(row types.Row) bool {
	for _, p := range ps {
		if !p.Match(row) {
			return false
		}
	}
	return true
}

type or []Predicate

func (ps or) Match(row types.Row) bool {
	for _, p := range ps {
		if p.Match(row) {
			return true
		}
	}
	return false
}

func And(ps ...Predicate) Predicate { return and(ps) }
func Or(ps ...Predicate) Predicate { return or(ps) }

func Not(p Predicate) Predicate {
	return PredicateFunc(func(row types.Row) bool { return !p.Match(row) })
}

// Func wraps an arbitrary row test.
func Func(fn func(row types.Row) bool) Predicate { return PredicateFunc(fn) }
