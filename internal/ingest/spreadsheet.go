package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

// maxSheetRows bounds legacy-engine reads; CBC sheets are tiny and anything
// beyond this is not a lab export.
const maxSheetRows = 65536

type spreadsheetReader struct{}

func (spreadsheetReader) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xls")
}

// Read tries the primary engine first and falls back to the legacy engine,
// returning both failure messages when neither can parse the upload.
func (spreadsheetReader) Read(data []byte) (*table.Table, error) {
	rows, primaryErr := readWorkbookXLSX(data)
	if primaryErr == nil {
		return tableFromRows(rows), nil
	}
	rows, legacyErr := readWorkbookXLS(data)
	if legacyErr == nil {
		return tableFromRows(rows), nil
	}
	return nil, fmt.Errorf("read spreadsheet: primary engine: %v; legacy engine: %v", primaryErr, legacyErr)
}

// readWorkbookXLSX extracts the first sheet of an OOXML workbook.
func readWorkbookXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// readWorkbookXLS extracts the first sheet of a legacy BIFF workbook.
func readWorkbookXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}
	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow) && i < maxSheetRows; i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		rows = append(rows, legacyRowCells(row.FirstCol(), row.LastCol(), row.Col))
	}
	return rows, nil
}

// legacyRowCells collects one BIFF row as strings, padding columns before
// firstCol with empties. lastCol follows the ROW record's colMac field: the
// last defined column plus one, so the bound is exclusive.
func legacyRowCells(firstCol, lastCol int, col func(int) string) []string {
	if lastCol < firstCol {
		lastCol = firstCol
	}
	cells := make([]string, firstCol, lastCol)
	for j := firstCol; j < lastCol; j++ {
		cells = append(cells, col(j))
	}
	return cells
}
