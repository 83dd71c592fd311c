// Package schema converts a raw parsed table into the canonical sample set
// the model consumes: columns renamed to canonical CBC parameters, values
// typed, sex encodings unified, and rows with gaps in required features
// dropped.
package schema

import (
	"strconv"
	"strings"

	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

// diagnosisColumn is the one column exempt from numeric coercion.
const diagnosisColumn = "Diagnosis"

// Normalize applies alias renaming, sex recoding and numeric coercion, then
// validates completeness against the required feature list. Rows missing any
// required feature are dropped; the surviving rows keep their relative order
// under a fresh dense index. The input table is not modified.
//
// Fails with *SchemaError when a required feature has no column at all, and
// with *EmptyResultError when no row survives the drop.
func Normalize(t *table.Table, required []string, aliases table.AliasTable) (*table.Table, error) {
	out := t.Clone()
	out.Rename(aliases.RenameMap(out.Columns))

	sexIdx := out.ColumnIndex(table.ColSex)
	if sexIdx >= 0 {
		normalizeSexColumn(out, sexIdx)
	}

	// The sex column is fully typed above; re-parsing its raw text here
	// would revive unmapped values that recoding turned into missing.
	for col, name := range out.Columns {
		if name == diagnosisColumn || col == sexIdx {
			continue
		}
		for row := range out.Rows {
			out.SetCell(row, col, coerceNumeric(out.Rows[row][col]))
		}
	}

	var missing []string
	for _, name := range required {
		if !out.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	reqIdx := make([]int, len(required))
	for i, name := range required {
		reqIdx[i] = out.ColumnIndex(name)
	}
	kept := out.Rows[:0]
	for _, row := range out.Rows {
		complete := true
		for _, idx := range reqIdx {
			if row[idx].Missing() {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, row)
		}
	}
	out.Rows = kept
	if len(out.Rows) == 0 {
		return nil, &EmptyResultError{}
	}
	return out, nil
}

// missingMarkers are raw spellings treated as absent values before any
// numeric parse is attempted.
var missingMarkers = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true, "-": true,
}

// coerceNumeric applies the typed-parse-with-missing-on-failure step: an
// already-typed cell passes through, everything else is parsed from its raw
// text. Unparseable values become missing, never a default.
func coerceNumeric(c table.Cell) table.Cell {
	if c.Valid {
		return c
	}
	v, ok := parseFloat(c.Raw)
	if !ok {
		return table.Cell{Raw: c.Raw}
	}
	return table.Cell{Raw: c.Raw, Num: v, Valid: true}
}

// parseFloat accepts plain floats plus the comma-decimal spelling seen in
// some exported lab sheets.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if missingMarkers[strings.ToLower(s)] {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

var sexStrings = map[string]float64{
	"F": 0, "FEMALE": 0, "0": 0,
	"M": 1, "MALE": 1, "1": 1,
}

// normalizeSexColumn unifies sex encodings to {0 female, 1 male}. A column
// whose every non-missing value parses numerically is treated as numeric:
// distinct values {0,1} pass through, {1,2} shift down by one, anything else
// is kept as parsed. Otherwise string mapping applies, with unmapped values
// becoming missing.
func normalizeSexColumn(t *table.Table, col int) {
	numeric := true
	distinct := make(map[float64]bool)
	parsed := make([]table.Cell, len(t.Rows))
	for row := range t.Rows {
		c := coerceNumeric(t.Rows[row][col])
		parsed[row] = c
		if c.Valid {
			distinct[c.Num] = true
		} else if !isMissingRaw(t.Rows[row][col].Raw) {
			numeric = false
		}
	}

	if numeric {
		shift := len(distinct) == 2 && distinct[1] && distinct[2]
		for row, c := range parsed {
			if shift && c.Valid {
				c.Num--
			}
			t.SetCell(row, col, c)
		}
		return
	}

	for row := range t.Rows {
		key := strings.ToUpper(strings.TrimSpace(t.Rows[row][col].Raw))
		if v, ok := sexStrings[key]; ok {
			t.SetCell(row, col, table.Cell{Raw: t.Rows[row][col].Raw, Num: v, Valid: true})
		} else {
			t.SetCell(row, col, table.Cell{Raw: t.Rows[row][col].Raw})
		}
	}
}

func isMissingRaw(s string) bool {
	return missingMarkers[strings.ToLower(strings.TrimSpace(s))]
}
