// Package ingest turns raw uploaded bytes plus a filename into a raw Table,
// regardless of source format. Dispatch is strictly by filename extension;
// formats with more than one viable engine try an ordered strategy list and
// surface every engine's failure when all of them fail.
package ingest

import (
	"path/filepath"
	"strings"

	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

// Reader parses one upload format into a raw table.
type Reader interface {
	CanRead(filename string) bool
	Read(data []byte) (*table.Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(spreadsheetReader{})
	Register(pdfReader{})
}

// Parse selects a reader by filename extension, parses the upload and applies
// the vertical-format pivot. Fails with *EmptyFileError on zero bytes,
// *UnsupportedFormatError on an unknown extension and *EmptyDataError when
// parsing yields no rows or no columns.
func Parse(data []byte, filename string) (*table.Table, error) {
	if len(data) == 0 {
		return nil, &EmptyFileError{Filename: filename}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, r := range registry {
		if !r.CanRead(filename) {
			continue
		}
		t, err := r.Read(data)
		if err != nil {
			return nil, err
		}
		t = PivotVertical(t)
		if t.NumRows() == 0 || t.NumCols() == 0 {
			return nil, &EmptyDataError{Filename: filename}
		}
		return t, nil
	}
	return nil, &UnsupportedFormatError{Ext: ext}
}

// PivotVertical detects the one-parameter-per-row layout (a "Parameter" and a
// "Value" column, matched case/whitespace-insensitively) and pivots it into a
// single-row horizontal table whose column names are the Parameter values.
// Tables already horizontal pass through unchanged.
func PivotVertical(t *table.Table) *table.Table {
	paramIdx, valueIdx := -1, -1
	for i, c := range t.Columns {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "parameter":
			if paramIdx < 0 {
				paramIdx = i
			}
		case "value":
			if valueIdx < 0 {
				valueIdx = i
			}
		}
	}
	if paramIdx < 0 || valueIdx < 0 {
		return t
	}
	out := table.New()
	row := make([]table.Cell, 0, len(t.Rows))
	for _, r := range t.Rows {
		out.Columns = append(out.Columns, strings.TrimSpace(r[paramIdx].Raw))
		row = append(row, r[valueIdx])
	}
	out.Rows = append(out.Rows, row)
	return out
}

// tableFromRows builds a raw table from sheet-style string rows; the first
// non-empty row becomes the header.
func tableFromRows(rows [][]string) *table.Table {
	start := -1
	for i, r := range rows {
		if !rowEmpty(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return table.New()
	}
	header := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		header[i] = strings.TrimSpace(h)
	}
	return table.FromRecords(header, rows[start+1:])
}

func rowEmpty(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
