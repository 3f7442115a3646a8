package scan

import "HTAPDB/types"

type Result struct {
	Rows  []types.Row
	Stats Stats
}

// Collect drains it into memory and closes it.
func Collect(it *RowIterator) (Result, error) {
	defer it.Close()
	var rows []types.Row
	for it.Next() {
		rows = append(rows, it.Row())
	}
	if err := it.Err(); err != nil {
		return Result{}, err
	}
	it.Close()
	return Result{Rows: rows, Stats: it.Stats()}, nil
}
