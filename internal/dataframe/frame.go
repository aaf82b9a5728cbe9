// Package dataframe holds the in-memory tabular representation shared by the
// caching layers and the plot strategies. A Frame is a column-typed, row-major
// table; cells are restricted to the scalar types the merge pipeline emits.
package dataframe

import (
	"fmt"
)

// ColumnType enumerates the cell types a Frame column may carry.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeBool   ColumnType = "bool"
)

// Column pairs a column name with its declared cell type.
type Column struct {
	Name string
	Type ColumnType
}

// Frame is a bounded, column-typed table. It is not safe for concurrent
// mutation; the caches hand out deep copies so callers never share one.
type Frame struct {
	cols []Column
	rows [][]any
}

// New builds an empty frame with the given column schema.
func New(cols ...Column) *Frame {
	schema := make([]Column, len(cols))
	copy(schema, cols)
	return &Frame{cols: schema}
}

// AppendRow adds one row, checking arity and cell types against the schema.
func (f *Frame) AppendRow(cells ...any) error {
	if len(cells) != len(f.cols) {
		return fmt.Errorf("dataframe: row has %d cells, schema has %d columns", len(cells), len(f.cols))
	}
	row := make([]any, len(cells))
	for i, cell := range cells {
		if err := checkCell(f.cols[i], cell); err != nil {
			return err
		}
		row[i] = cell
	}
	f.rows = append(f.rows, row)
	return nil
}

func checkCell(col Column, cell any) error {
	if cell == nil {
		return nil
	}
	ok := false
	switch col.Type {
	case TypeString:
		_, ok = cell.(string)
	case TypeInt:
		_, ok = cell.(int)
	case TypeFloat:
		_, ok = cell.(float64)
	case TypeBool:
		_, ok = cell.(bool)
	default:
		return fmt.Errorf("dataframe: column %q has unknown type %q", col.Name, col.Type)
	}
	if !ok {
		return fmt.Errorf("dataframe: column %q expects %s, got %T", col.Name, col.Type, cell)
	}
	return nil
}

// NumRows reports the row count.
func (f *Frame) NumRows() int { return len(f.rows) }

// NumCols reports the column count.
func (f *Frame) NumCols() int { return len(f.cols) }

// Shape returns (rows, cols).
func (f *Frame) Shape() (int, int) { return len(f.rows), len(f.cols) }

// Columns returns a copy of the column schema.
func (f *Frame) Columns() []Column {
	out := make([]Column, len(f.cols))
	copy(out, f.cols)
	return out
}

// ColumnIndex returns the position of the named column, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Row returns a copy of row i.
func (f *Frame) Row(i int) []any {
	out := make([]any, len(f.rows[i]))
	copy(out, f.rows[i])
	return out
}

// Column returns a copy of the named column's cells, or nil when absent.
func (f *Frame) Column(name string) []any {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]any, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row[idx])
	}
	return out
}

// RowMap returns row i keyed by column name. Strategies feed these maps to
// filter expressions.
func (f *Frame) RowMap(i int) map[string]any {
	out := make(map[string]any, len(f.cols))
	for c, col := range f.cols {
		out[col.Name] = f.rows[i][c]
	}
	return out
}

// Clone returns a deep copy. Cells are scalars, so copying rows suffices.
func (f *Frame) Clone() *Frame {
	out := New(f.cols...)
	out.rows = make([][]any, len(f.rows))
	for i, row := range f.rows {
		dup := make([]any, len(row))
		copy(dup, row)
		out.rows[i] = dup
	}
	return out
}

// Equal reports whether two frames share schema and cell values.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || len(f.cols) != len(other.cols) || len(f.rows) != len(other.rows) {
		return false
	}
	for i, col := range f.cols {
		if other.cols[i] != col {
			return false
		}
	}
	for i, row := range f.rows {
		for j, cell := range row {
			if other.rows[i][j] != cell {
				return false
			}
		}
	}
	return true
}

// EstimateSize approximates the in-memory footprint in bytes. The frame cache
// uses it to decide whether a payload is worth compressing; precision is not
// required, stability is.
func (f *Frame) EstimateSize() int {
	size := 0
	for _, col := range f.cols {
		size += len(col.Name) + 16
	}
	for _, row := range f.rows {
		size += 24 // slice header
		for _, cell := range row {
			switch v := cell.(type) {
			case string:
				size += len(v) + 16
			case int, float64:
				size += 16
			case bool:
				size += 8
			default:
				size += 16
			}
		}
	}
	return size
}
