// Package table holds the tabular data model shared by the ingestion and
// normalization layers, plus the CBC column alias resolver.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell is a single tabular value. Raw preserves the text as parsed from the
// source file; Num/Valid carry the numeric interpretation once a typed parse
// has been applied. A cell with Valid == false and an empty numeric meaning is
// treated as missing.
type Cell struct {
	Raw   string
	Num   float64
	Valid bool
}

// Missing reports whether the cell holds no usable numeric value.
func (c Cell) Missing() bool { return !c.Valid }

// Float returns the numeric value and whether one is present.
func (c Cell) Float() (float64, bool) { return c.Num, c.Valid }

// String renders the cell for export: the numeric value when typed, the raw
// text otherwise.
func (c Cell) String() string {
	if c.Valid {
		return strconv.FormatFloat(c.Num, 'g', -1, 64)
	}
	return c.Raw
}

// RawCell builds an untyped cell from source text.
func RawCell(s string) Cell { return Cell{Raw: s} }

// NumCell builds a typed numeric cell.
func NumCell(v float64) Cell {
	return Cell{Raw: strconv.FormatFloat(v, 'g', -1, 64), Num: v, Valid: true}
}

// Table is an ordered sequence of named columns with positionally indexed
// rows. The row position is the only row identity the pipeline carries; it is
// reset to a dense 0-based order by normalization.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// New creates an empty table with the given column names.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// FromRecords builds a table from a header row plus string records, padding
// ragged records to the header width.
func FromRecords(header []string, records [][]string) *Table {
	t := New(header...)
	for _, rec := range records {
		row := make([]Cell, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = RawCell(strings.TrimSpace(rec[i]))
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.Columns) }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// Cell returns the cell at (row, column name). The second result is false when
// the column does not exist.
func (t *Table) Cell(row int, name string) (Cell, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Cell{}, false
	}
	return t.Rows[row][idx], true
}

// SetCell replaces the cell at (row, column index).
func (t *Table) SetCell(row, col int, c Cell) {
	t.Rows[row][col] = c
}

// AppendRow adds one row; it must match the column count.
func (t *Table) AppendRow(cells []Cell) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Columns))
	}
	t.Rows = append(t.Rows, cells)
	return nil
}

// AppendColumn adds a column with one cell per existing row.
func (t *Table) AppendColumn(name string, cells []Cell) error {
	if len(cells) != len(t.Rows) {
		return fmt.Errorf("column %q has %d cells, table has %d rows", name, len(cells), len(t.Rows))
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], cells[i])
	}
	return nil
}

// Rename applies a column rename mapping in place. Names absent from the map
// pass through unchanged.
func (t *Table) Rename(mapping map[string]string) {
	for i, c := range t.Columns {
		if canon, ok := mapping[c]; ok {
			t.Columns[i] = canon
		}
	}
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.Columns...)
	out.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]Cell(nil), row...)
	}
	return out
}

// Equal reports structural equality of columns and cells.
func (t *Table) Equal(other *Table) bool {
	if other == nil || len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != other.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		for j := range t.Rows[i] {
			if t.Rows[i][j] != other.Rows[i][j] {
				return false
			}
		}
	}
	return true
}
