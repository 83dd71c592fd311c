package report_test

import (
	"strings"
	"testing"

	"github.com/Rawan567/blood-diagnosis-api/internal/report"
	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

func TestPhenotypeBoundaries(t *testing.T) {
	cases := []struct {
		mcv  float64
		want string
	}{
		{79.9, "Microcytic"},
		{80.0, "Normocytic"},
		{100.0, "Normocytic"},
		{100.1, "Macrocytic"},
	}
	for _, tc := range cases {
		got, ok := report.Phenotype(report.Values{table.ColMCV: tc.mcv})
		if !ok {
			t.Fatalf("MCV %v: phenotype should be determined", tc.mcv)
		}
		if !strings.HasPrefix(got, tc.want) {
			t.Fatalf("MCV %v: expected %s phenotype, got %q", tc.mcv, tc.want, got)
		}
	}
}

func TestPhenotypeMissingMCV(t *testing.T) {
	got, ok := report.Phenotype(report.Values{})
	if ok || got != "Undetermined" {
		t.Fatalf("expected undetermined phenotype, got %q (%v)", got, ok)
	}
}

func TestSynthesizeNotAnemic(t *testing.T) {
	out := report.Synthesize(report.Values{table.ColMCV: 70, table.ColHGB: 9}, false)
	if !strings.Contains(out, "Not Anemic") {
		t.Fatalf("expected reassurance message, got: %q", out)
	}
	if strings.Contains(out, "Classification") || strings.Contains(out, "Suggested Tests") {
		t.Fatalf("negative report must carry no phenotype analysis: %q", out)
	}
}

func TestSynthesizeMicrocytic(t *testing.T) {
	v := report.Values{
		table.ColRBC: 3.0, table.ColHGB: 9.0, table.ColPCV: 30, table.ColMCV: 70,
		table.ColMCH: 25, table.ColMCHC: 30, table.ColTLC: 6, table.ColPLT: 200,
	}
	out := report.Synthesize(v, true)
	for _, want := range []string{
		"Anemia Detected",
		"Microcytic",
		"Hypochromia",
		"occult blood",
		"Hb: 9.0 g/dL",
		"MCV: 70.0 fL",
		"Repeat CBC for confirmation",
		"Red Flags",
		"does not constitute a final diagnosis",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestSynthesizeMacrocyticTests(t *testing.T) {
	out := report.Synthesize(report.Values{table.ColMCV: 110, table.ColHGB: 10}, true)
	if !strings.Contains(out, "Macrocytic") || !strings.Contains(out, "B12") {
		t.Fatalf("expected macrocytic workup:\n%s", out)
	}
	if strings.Contains(out, "occult blood") {
		t.Fatalf("microcytic tests must not appear for macrocytic sample")
	}
}

func TestSynthesizeNormocyticTests(t *testing.T) {
	out := report.Synthesize(report.Values{table.ColMCV: 90, table.ColHGB: 10}, true)
	if !strings.Contains(out, "Normocytic") || !strings.Contains(out, "Kidney function") {
		t.Fatalf("expected normocytic workup:\n%s", out)
	}
}

func TestSynthesizeUndeterminedSkipsExtras(t *testing.T) {
	out := report.Synthesize(report.Values{table.ColHGB: 9.5}, true)
	if !strings.Contains(out, "Undetermined") {
		t.Fatalf("expected undetermined classification:\n%s", out)
	}
	for _, extra := range []string{"occult blood", "B12", "Kidney function"} {
		if strings.Contains(out, extra) {
			t.Fatalf("MCV-specific test %q must not appear without MCV:\n%s", extra, out)
		}
	}
	if !strings.Contains(out, "Repeat CBC for confirmation") {
		t.Fatalf("base panel must always appear:\n%s", out)
	}
}

func TestSynthesizeElevatedRDWHint(t *testing.T) {
	out := report.Synthesize(report.Values{table.ColMCV: 85, table.ColRDW: 16}, true)
	if !strings.Contains(out, "Elevated RDW") {
		t.Fatalf("expected RDW hint:\n%s", out)
	}
	out = report.Synthesize(report.Values{table.ColMCV: 85, table.ColRDW: 14.5}, true)
	if strings.Contains(out, "Elevated RDW") {
		t.Fatalf("RDW 14.5 is not elevated (strict inequality):\n%s", out)
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	v := report.Values{table.ColMCV: 75.25, table.ColHGB: 8.456, table.ColMCHC: 31}
	a := report.Synthesize(v, true)
	b := report.Synthesize(v, true)
	if a != b {
		t.Fatalf("report synthesis must be deterministic")
	}
}

func TestFromRow(t *testing.T) {
	tbl := table.FromRecords([]string{"MCV", "Note"}, [][]string{{"85", "ok"}})
	tbl.SetCell(0, 0, table.NumCell(85))
	v := report.FromRow(tbl, 0)
	if v[table.ColMCV] != 85 {
		t.Fatalf("expected MCV collected, got %v", v)
	}
	if _, ok := v["Note"]; ok {
		t.Fatalf("untyped cells must not be collected")
	}
}
