package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

// cellGap is the horizontal whitespace, in points, that separates two table
// cells in the layout-aware extractor. Narrower gaps are treated as word
// breaks inside one cell.
const cellGap = 10.0

type pdfReader struct{}

func (pdfReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// Read extracts the first non-empty table, scanning pages in order. The
// layout-aware extractor runs first; on failure or when it finds no table,
// the heuristic text extractor takes over. Both failure messages are
// surfaced when neither succeeds.
func (pdfReader) Read(data []byte) (*table.Table, error) {
	t, layoutErr := extractByLayout(data)
	if layoutErr == nil {
		return t, nil
	}
	t, textErr := extractByText(data)
	if textErr == nil {
		return t, nil
	}
	return nil, fmt.Errorf("extract pdf table: layout extractor: %v; heuristic extractor: %v", layoutErr, textErr)
}

// extractByLayout reconstructs table rows from positioned text fragments,
// clustering fragments into cells on horizontal gaps.
func extractByLayout(data []byte) (*table.Table, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum, err)
		}
		var records [][]string
		for _, row := range rows {
			cells := clusterRow(row.Content)
			if len(cells) > 0 {
				records = append(records, cells)
			}
		}
		if t := tableFromRecords(records); t != nil {
			return t, nil
		}
	}
	return nil, errors.New("no tables found")
}

// clusterRow merges positioned fragments left to right, starting a new cell
// whenever the gap to the previous fragment exceeds cellGap.
func clusterRow(texts []pdf.Text) []string {
	if len(texts) == 0 {
		return nil
	}
	sorted := append([]pdf.Text(nil), texts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []string
	var cur strings.Builder
	prevEnd := sorted[0].X
	for i, frag := range sorted {
		if i > 0 && frag.X-prevEnd > cellGap {
			cells = appendCell(cells, cur.String())
			cur.Reset()
		}
		cur.WriteString(frag.S)
		prevEnd = frag.X + frag.W
	}
	return appendCell(cells, cur.String())
}

func appendCell(cells []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return cells
	}
	return append(cells, s)
}

var multiSpace = regexp.MustCompile(`\s{2,}`)

// extractByText is the fallback strategy: plain page text split into lines,
// columns split on runs of whitespace. It recovers simple exports where the
// layout extractor cannot resolve positions.
func extractByText(data []byte) (*table.Table, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return nil, err
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	var records [][]string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		records = append(records, multiSpace.Split(line, -1))
	}
	if t := tableFromRecords(records); t != nil {
		return t, nil
	}
	return nil, errors.New("no tables found")
}

// tableFromRecords accepts extracted records as a table when they form at
// least a header row plus one data row of two or more columns; anything less
// is prose, not a table.
func tableFromRecords(records [][]string) *table.Table {
	var filtered [][]string
	for _, rec := range records {
		if len(rec) >= 2 {
			filtered = append(filtered, rec)
		}
	}
	if len(filtered) < 2 {
		return nil
	}
	return tableFromRows(filtered)
}
