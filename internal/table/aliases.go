package table

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Canonical CBC parameter names understood by the model and the report engine.
const (
	ColTLC  = "TLC"
	ColPCV  = "PCV"
	ColRBC  = "RBC"
	ColHGB  = "HGB"
	ColMCV  = "MCV"
	ColMCH  = "MCH"
	ColMCHC = "MCHC"
	ColPLT  = "PLT"
	ColRDW  = "RDW"
	ColAge  = "Age"
	ColSex  = "Sex"
	ColID   = "ID"
)

// StandardFeatures lists the eight CBC values reported per sample, in display
// order.
var StandardFeatures = []string{ColRBC, ColHGB, ColPCV, ColMCV, ColMCH, ColMCHC, ColTLC, ColPLT}

// Alias binds a canonical parameter name to its accepted spelling variants,
// in match-priority order.
type Alias struct {
	Canonical string
	Variants  []string
}

// AliasTable is the ordered set of alias entries. Order matters twice: entries
// are resolved top to bottom, and within an entry variants are tried in
// declared order with the first match winning.
type AliasTable []Alias

// DefaultAliases returns the built-in CBC alias table.
func DefaultAliases() AliasTable {
	return AliasTable{
		{ColTLC, []string{"tlc", "wbc", "white blood cells", "whitebloodcells", "w.b.c"}},
		{ColPCV, []string{"pcv", "hct", "hematocrit"}},
		{ColRBC, []string{"rbc", "red blood cells", "redbloodcells"}},
		{ColHGB, []string{"hgb", "hb", "hemoglobin", "haemoglobin"}},
		{ColMCV, []string{"mcv"}},
		{ColMCH, []string{"mch"}},
		{ColMCHC, []string{"mchc"}},
		{ColPLT, []string{"plt", "platelets", "platelet", "platelet count"}},
		{ColRDW, []string{"rdw", "rdw-cv", "rdw_cv", "rdwcv", "rdw_sd", "rdwsd"}},
		{ColAge, []string{"age", "years", "age (y)"}},
		{ColSex, []string{"sex", "gender", "m/f", "male/female"}},
		{ColID, []string{"id", "sample id", "sampleid", "record id", "patient id", "no"}},
	}
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader reduces a column heading to its comparison key: diacritics
// folded, lower-cased, with spaces, dots, hyphens and underscores stripped.
func NormalizeHeader(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		switch r {
		case ' ', '.', '-', '_':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RenameMap computes original column name → canonical name for the given
// input columns. Greedy, order-sensitive: each canonical name claims at most
// one column, the first column matching the earliest-declared variant. Columns
// already claimed by an earlier canonical name are skipped; unmatched columns
// do not appear in the map.
func (a AliasTable) RenameMap(columns []string) map[string]string {
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = NormalizeHeader(c)
	}
	mapping := make(map[string]string)
	claimed := make(map[int]bool)
	for _, entry := range a {
	variants:
		for _, v := range entry.Variants {
			vk := NormalizeHeader(v)
			for i, k := range keys {
				if claimed[i] || k != vk {
					continue
				}
				mapping[columns[i]] = entry.Canonical
				claimed[i] = true
				break variants
			}
		}
	}
	return mapping
}

// ExtendFromFile merges extra variants from a YAML file keyed by canonical
// name. Unknown canonical names are rejected so typos surface instead of
// silently registering dead aliases. A missing file is not an error.
func (a AliasTable) ExtendFromFile(path string) (AliasTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return a, nil
		}
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	var extra map[string][]string
	if err := yaml.Unmarshal(b, &extra); err != nil {
		return nil, fmt.Errorf("parse alias file: %w", err)
	}
	out := make(AliasTable, len(a))
	known := make(map[string]int, len(a))
	for i, e := range a {
		out[i] = Alias{Canonical: e.Canonical, Variants: append([]string(nil), e.Variants...)}
		known[e.Canonical] = i
	}
	for canon, variants := range extra {
		idx, ok := known[canon]
		if !ok {
			return nil, fmt.Errorf("alias file: unknown canonical parameter %q", canon)
		}
		out[idx].Variants = append(out[idx].Variants, variants...)
	}
	return out, nil
}
