package scan

import (
	"runtime"

	"HTAPDB/types"

	"github.com/pkg/errors"
)

// KeyColumn addresses the row id wherever a column index is expected.
const KeyColumn = -1

const DefaultReadAhead = 8

type OrderBy struct {
	Column int // KeyColumn for the row id
	Desc   bool
}

// ScanOptions controls one scan. The zero value is a sequential full scan.
type ScanOptions struct {
	Predicate  Predicate // nil matches every row
	Projection []int     // nil keeps every column
	Limit      int       // 0 = no limit
	Offset     int
	OrderBy    *OrderBy

	Parallel bool
	Workers  int // 0 = GOMAXPROCS, only used when Parallel
	// ReadAhead is how many pages each reader keeps in flight ahead of the
	// consumer. 0 means DefaultReadAhead, negative disables read-ahead.
	ReadAhead int
}

func (o ScanOptions) validate() error {
	if o.Limit < 0 || o.Offset < 0 {
		return types.NewError(types.KindInvalidArgument, "scan",
			errors.Errorf("limit and offset must be >= 0, got %d/%d", o.Limit, o.Offset))
	}
	if o.Workers < 0 {
		return types.NewError(types.KindInvalidArgument, "scan", errors.Errorf("workers must be >= 0"))
	}
	for _, c := range o.Projection {
		if c < 0 {
			return types.NewError(types.KindInvalidArgument, "scan", errors.Errorf("projection column %d", c))
		}
	}
	return nil
}

func (o ScanOptions) readAhead() int {
	switch {
	case o.ReadAhead == 0:
		return DefaultReadAhead
	case o.ReadAhead < 0:
		return 0
	}
	return o.ReadAhead
}

func (o ScanOptions) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// orderedByKey reports whether the result must come out in ascending key order,
// which the leaf chain already provides.
func (o ScanOptions) orderedByKey() bool {
	return o.OrderBy != nil && o.OrderBy.Column == KeyColumn && !o.OrderBy.Desc
}

// needsSort reports whether rows must be materialized and sorted.
func (o ScanOptions) needsSort() bool {
	return o.OrderBy != nil && !o.orderedByKey()
}
