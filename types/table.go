package types

import "strings"

// ColumnDef describes one column. Rows carry values by position; the catalog
// maps positions to names and checks kinds on InsertValues.
type ColumnDef struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Nullable bool   `json:"nullable"`
}

type Schema struct {
	Columns []ColumnDef `json:"columns"`
}

// ColumnIndex returns the position of the named column, or -1.
func (s Schema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// Project returns the schema restricted to cols.
func (s Schema) Project(cols []int) Schema {
	if cols == nil {
		return s
	}
	out := Schema{Columns: make([]ColumnDef, 0, len(cols))}
	for _, c := range cols {
		if c >= 0 && c < len(s.Columns) {
			out.Columns = append(out.Columns, s.Columns[c])
		} else {
			out.Columns = append(out.Columns, ColumnDef{Name: "?", Kind: KindNull, Nullable: true})
		}
	}
	return out
}

// Headers returns "id" followed by the column names.
func (s Schema) Headers() []string {
	h := []string{"id"}
	for _, c := range s.Columns {
		h = append(h, c.Name)
	}
	return h
}
