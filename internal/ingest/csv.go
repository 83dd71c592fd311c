package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

type csvReader struct{}

func (csvReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".csv")
}

func (csvReader) Read(data []byte) (*table.Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read csv row %d: %w", len(records)+1, err)
		}
		records = append(records, append([]string(nil), rec...))
	}
	return tableFromRows(records), nil
}

// sniffDelimiter picks the delimiter among comma, semicolon and tab by
// counting candidates on the first line, quoted sections excluded.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	counts := map[rune]int{',': 0, ';': 0, '\t': 0}
	inQuotes := false
	for _, b := range string(line) {
		switch {
		case b == '"':
			inQuotes = !inQuotes
		case !inQuotes:
			if _, ok := counts[b]; ok {
				counts[b]++
			}
		}
	}
	best, bestN := ',', counts[',']
	for _, cand := range []rune{';', '\t'} {
		if counts[cand] > bestN {
			best, bestN = cand, counts[cand]
		}
	}
	return best
}
