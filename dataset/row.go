package dataset

// Row is one record of a dataset: values in query column order, with the
// column names kept alongside so row cleaners can address fields by name.
type Row struct {
	Columns []string
	Values  []any
}

// NewRow builds a row from parallel column/value slices.
func NewRow(columns []string, values []any) Row {
	return Row{Columns: columns, Values: values}
}

// Values builds a row without column names (header-less static rows, tests).
func Values(values ...any) Row {
	return Row{Values: values}
}

func (r Row) Len() int { return len(r.Values) }

func (r Row) index(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Get returns the value of column name.
func (r Row) Get(name string) (any, bool) {
	i := r.index(name)
	if i < 0 || i >= len(r.Values) {
		return nil, false
	}
	return r.Values[i], true
}

// Set replaces the value of column name, appending the column when missing.
// Column slices are shared between the rows of a dataset, so appending copies.
func (r *Row) Set(name string, v any) {
	if i := r.index(name); i >= 0 && i < len(r.Values) {
		r.Values[i] = v
		return
	}
	cols := make([]string, len(r.Columns), len(r.Columns)+1)
	copy(cols, r.Columns)
	r.Columns = append(cols, name)
	r.Values = append(r.Values, v)
}

// Clone returns a deep copy of the row's slices.
func (r Row) Clone() Row {
	cols := make([]string, len(r.Columns))
	copy(cols, r.Columns)
	vals := make([]any, len(r.Values))
	copy(vals, r.Values)
	return Row{Columns: cols, Values: vals}
}
