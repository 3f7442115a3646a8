package types

// Row is one record: a unique 64-bit id, which is also its B+Tree key, plus
// its column values in schema order.
type Row struct {
	ID     uint64
	Values []Value
}

func NewRow(id uint64, values ...Value) Row {
	return Row{ID: id, Values: values}
}

// Get returns column i, or NULL when the row is shorter than i.
func (r Row) Get(i int) Value {
	if i < 0 || i >= len(r.Values) {
		return Null()
	}
	return r.Values[i]
}

// Project keeps only the listed columns, in the listed order.
func (r Row) Project(cols []int) Row {
	if cols == nil {
		return r
	}
	out := Row{ID: r.ID, Values: make([]Value, len(cols))}
	for i, c := range cols {
		out.Values[i] = r.Get(c)
	}
	return out
}

func (r Row) Clone() Row {
	vals := make([]Value, len(r.Values))
	copy(vals, r.Values)
	return Row{ID: r.ID, Values: vals}
}

func (r Row) Equal(o Row) bool {
	if r.ID != o.ID || len(r.Values) != len(o.Values) {
		return false
	}
	for i := range r.Values {
		if !r.Values[i].Equal(o.Values[i]) {
			return false
		}
	}
	return true
}
