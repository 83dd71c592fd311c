// Package report renders the deterministic clinical advisory for a
// classified CBC sample. The synthesis is a pure function of the sample
// values and the binary prediction: identical inputs produce byte-identical
// text.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

// Values holds the canonical CBC fields of one sample. A field that is
// absent, or present as NaN, is treated as missing.
type Values map[string]float64

// FromRow collects the typed canonical fields of one table row.
func FromRow(t *table.Table, row int) Values {
	v := Values{}
	for _, name := range t.Columns {
		if c, ok := t.Cell(row, name); ok && !c.Missing() {
			v[name] = c.Num
		}
	}
	return v
}

func (v Values) get(name string) (float64, bool) {
	f, ok := v[name]
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Anemia phenotype boundaries on MCV, in fL. Both boundaries are inclusive
// on the normocytic side.
const (
	mcvMicrocyticBelow = 80
	mcvMacrocyticAbove = 100
)

// Supporting-observation thresholds.
const (
	mchcHypochromiaBelow = 32
	rdwElevatedAbove     = 14.5
)

const phenotypeUndetermined = "Undetermined"

// Phenotype classifies the anemia morphology from MCV. The second result is
// false when MCV is missing and the phenotype cannot be determined.
func Phenotype(v Values) (string, bool) {
	mcv, ok := v.get(table.ColMCV)
	if !ok {
		return phenotypeUndetermined, false
	}
	switch {
	case mcv < mcvMicrocyticBelow:
		return "Microcytic Anemia (often iron deficiency)", true
	case mcv > mcvMacrocyticAbove:
		return "Macrocytic Anemia (may indicate B12/folate deficiency or other causes)", true
	default:
		return "Normocytic Anemia (may be related to chronic disease/acute bleeding/kidney issues)", true
	}
}

// hints lists the supporting observations independent of phenotype.
func hints(v Values) []string {
	var out []string
	if mchc, ok := v.get(table.ColMCHC); ok && mchc < mchcHypochromiaBelow {
		out = append(out, "Hypochromia (supports iron deficiency)")
	}
	if rdw, ok := v.get(table.ColRDW); ok && rdw > rdwElevatedAbove {
		out = append(out, "Elevated RDW → significant variation in cell size")
	}
	return out
}

var baseTests = []string{
	"Repeat CBC for confirmation",
	"Ferritin + Serum Iron + TIBC/Transferrin Saturation",
	"CRP/ESR if inflammatory/chronic disease is suspected",
}

var microcyticTests = []string{
	"Fecal occult blood test (FOBT) based on age and symptoms",
	"Evaluate for uterine bleeding/malabsorption if needed",
}

var macrocyticTests = []string{
	"Vitamin B12 and folate levels",
	"Thyroid function tests (TSH)",
	"Liver function tests (LFTs)",
}

var normocyticTests = []string{
	"Kidney function tests (Creatinine/eGFR)",
	"Screen for chronic diseases or acute bleeding",
}

var lifestyle = []string{
	"Increase iron-rich foods: liver, red meat, lentils, beans, spinach",
	"Take vitamin C with meals to improve iron absorption",
	"Avoid tea and coffee immediately after iron-rich meals (preferably wait 1-2 hours)",
}

var redFlags = []string{
	"Frequent dizziness/fainting, severe shortness of breath, chest pain",
	"Severe drop in hemoglobin",
	"Visible bleeding: bloody vomit, black stools, severe uterine bleeding",
}

const disclaimer = "⚠️ Important Notice: This is an automated advisory report and does not constitute a final diagnosis." +
	" All treatment decisions are the responsibility of the treating physician."

// Synthesize renders the advisory for one sample. The branch taken is solely
// a function of the binary label; the probability never changes the text.
func Synthesize(v Values, anemic bool) string {
	if !anemic {
		return "Result: Not Anemic ✅\n" +
			"Note: A healthy lifestyle, adequate hydration, and periodic CBC tests as advised by your doctor are recommended."
	}

	phenotype, determined := Phenotype(v)
	var extraTests []string
	if determined {
		mcv, _ := v.get(table.ColMCV)
		switch {
		case mcv < mcvMicrocyticBelow:
			extraTests = microcyticTests
		case mcv > mcvMacrocyticAbove:
			extraTests = macrocyticTests
		default:
			extraTests = normocyticTests
		}
	}

	var lines []string
	lines = append(lines, "Result: Anemia Detected 🩸")
	if hgb, ok := v.get(table.ColHGB); ok {
		lines = append(lines, fmt.Sprintf("Hb: %.1f g/dL", hgb))
	}
	if mcv, ok := v.get(table.ColMCV); ok {
		lines = append(lines, fmt.Sprintf("MCV: %.1f fL", mcv))
	}
	lines = append(lines, "Expected Classification: "+phenotype)
	if h := hints(v); len(h) > 0 {
		lines = append(lines, "Supporting Observations: "+strings.Join(h, "; "))
	}

	lines = append(lines, "\n🔬 Suggested Tests (according to physician's evaluation):")
	for _, t := range baseTests {
		lines = append(lines, "- "+t)
	}
	for _, t := range extraTests {
		lines = append(lines, "- "+t)
	}

	lines = append(lines, "\n🍽️ Lifestyle Recommendations:")
	for _, tip := range lifestyle {
		lines = append(lines, "- "+tip)
	}

	lines = append(lines, "\n🚩 Red Flags Requiring Urgent Medical Attention:")
	for _, f := range redFlags {
		lines = append(lines, "- "+f)
	}

	lines = append(lines, "\n"+disclaimer)
	return strings.Join(lines, "\n")
}
