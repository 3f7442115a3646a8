package scan

import (
	"fmt"
	"math/bits"
	"strconv"

	"HTAPDB/types"

	"github.com/pkg/errors"
)

type AggFunc uint8

const (
	AggCount AggFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
	AggCountDistinct
)

func (f AggFunc) String() string {
	switch f {
	case AggCount:
		return "COUNT"
	case AggSum:
		return "SUM"
	case AggAvg:
		return "AVG"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	case AggCountDistinct:
		return "COUNT_DISTINCT"
	}
	return fmt.Sprintf("AggFunc(%d)", uint8(f))
}

// Aggregate is one output column. COUNT over KeyColumn counts rows; every
// other aggregate skips NULLs.
type Aggregate struct {
	Func   AggFunc
	Column int
}

func (a Aggregate) String() string {
	if a.Column == KeyColumn {
		if a.Func == AggCount {
			return "COUNT(*)"
		}
		return a.Func.String() + "(id)"
	}
	return fmt.Sprintf("%s(#%d)", a.Func, a.Column)
}

func Count() Aggregate { return Aggregate{AggCount, KeyColumn} }
func CountOf(col int) Aggregate { return Aggregate{AggCount, col} }
func Sum(col int) Aggregate { return Aggregate{AggSum, col} }
func Avg(col int) Aggregate { return Aggregate{AggAvg, col} }
func Min(col int) Aggregate { return Aggregate{AggMin, col} }
func Max(col int) Aggregate { return Aggregate{AggMax, col} }
func CountDistinct(col int) Aggregate { return Aggregate{AggCountDistinct, col} }

type accumulator struct {
	agg      Aggregate
	n        int64
	isum     int64
	fsum     float64
	float    bool
	best     types.Value
	distinct map[string]struct{}

	// row id aggregates stay in uint64
	usum     uint64
	overflow bool
	ukey     uint64
}

func (a *accumulator) addKey(id uint64) {
	switch a.agg.Func {
	case AggSum, AggAvg:
		var carry uint64
		a.usum, carry = bits.Add64(a.usum, id, 0)
		a.overflow = a.overflow || carry != 0
		a.fsum += float64(id)
	case AggMin, AggMax:
		if a.n == 0 || (a.agg.Func == AggMin && id < a.ukey) || (a.agg.Func == AggMax && id > a.ukey) {
			a.ukey = id
		}
	case AggCountDistinct:
		if a.distinct == nil {
			a.distinct = make(map[string]struct{})
		}
		a.distinct[strconv.FormatUint(id, 10)] = struct{}{}
	}
	a.n++
}

func (a *accumulator) keyResult() types.Value {
	switch a.agg.Func {
	case AggSum:
		if a.n == 0 {
			return types.Null()
		}
		if a.overflow {
			return types.Float(a.fsum)
		}
		return keyValue(a.usum)
	case AggMin, AggMax:
		if a.n == 0 {
			return types.Null()
		}
		return keyValue(a.ukey)
	}
	return types.Null()
}

func (a *accumulator) add(row types.Row) error {
	if a.agg.Column == KeyColumn {
		a.addKey(row.ID)
		return nil
	}
	v := column(row, a.agg.Column)
	if v.IsNull() {
		return nil
	}
	switch a.agg.Func {
	case AggCount:
	case AggSum, AggAvg:
		if !v.IsNumeric() {
			return types.NewError(types.KindInvalidArgument, "aggregate",
				errors.Errorf("%s over %s column", a.agg.Func, v.Kind()))
		}
		if v.Kind() == types.KindFloat {
			a.float = true
		} else {
			a.isum += v.AsInt()
		}
		a.fsum += v.AsFloat()
	case AggMin, AggMax:
		if a.n == 0 {
			a.best = v
			break
		}
		c, err := types.Compare(v, a.best)
		if err != nil {
			return err
		}
		if (a.agg.Func == AggMin && c < 0) || (a.agg.Func == AggMax && c > 0) {
			a.best = v
		}
	case AggCountDistinct:
		if a.distinct == nil {
			a.distinct = make(map[string]struct{})
		}
		a.distinct[v.Kind().String()+":"+v.String()] = struct{}{}
	}
	a.n++
	return nil
}

func (a *accumulator) result() types.Value {
	if a.agg.Column == KeyColumn {
		switch a.agg.Func {
		case AggSum, AggMin, AggMax:
			return a.keyResult()
		}
	}
	switch a.agg.Func {
	case AggCount:
		return types.Int(a.n)
	case AggSum:
		if a.n == 0 {
			return types.Null()
		}
		if a.float {
			return types.Float(a.fsum)
		}
		return types.Int(a.isum)
	case AggAvg:
		if a.n == 0 {
			return types.Null()
		}
		return types.Float(a.fsum / float64(a.n))
	case AggMin, AggMax:
		if a.n == 0 {
			return types.Null()
		}
		return a.best
	case AggCountDistinct:
		return types.Int(int64(len(a.distinct)))
	}
	return types.Null()
}

// RunAggregates consumes it and returns one value per aggregate. It closes it.
func RunAggregates(it *RowIterator, aggs []Aggregate) ([]types.Value, error) {
	defer it.Close()
	if len(aggs) == 0 {
		return nil, types.NewError(types.KindInvalidArgument, "aggregate", errors.New("no aggregates"))
	}
	accs := make([]*accumulator, len(aggs))
	for i, a := range aggs {
		if a.Func > AggCountDistinct {
			return nil, types.NewError(types.KindInvalidArgument, "aggregate", errors.Errorf("unknown aggregate %d", a.Func))
		}
		accs[i] = &accumulator{agg: a}
	}
	for it.Next() {
		row := it.Row()
		for _, acc := range accs {
			if err := acc.add(row); err != nil {
				return nil, err
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	out := make([]types.Value, len(accs))
	for i, acc := range accs {
		out[i] = acc.result()
	}
	return out, nil
}
