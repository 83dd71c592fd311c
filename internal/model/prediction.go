package model

import "fmt"

// Labels produced by the anemia classifier.
const (
	LabelNormal = 0
	LabelAnemia = 1
)

// Prediction is one classified sample: positional row identity, the binary
// label and both class probabilities. Neither probability is ever discarded;
// downstream consumers pick the view they need.
type Prediction struct {
	RowIndex   int
	Label      int
	ProbNormal float64
	ProbAnemia float64
}

// Anemic reports whether the positive class was predicted.
func (p Prediction) Anemic() bool { return p.Label == LabelAnemia }

// Diagnosis renders the label for the annotated export.
func (p Prediction) Diagnosis() string {
	if p.Anemic() {
		return "Anemia"
	}
	return "Normal"
}

// AnemiaPercent is the positive-class probability as a percentage.
func (p Prediction) AnemiaPercent() float64 { return p.ProbAnemia * 100 }

// Confidence is the winning class probability.
func (p Prediction) Confidence() float64 {
	if p.ProbAnemia > p.ProbNormal {
		return p.ProbAnemia
	}
	return p.ProbNormal
}

// ConfidenceTier buckets the winning probability for display.
func (p Prediction) ConfidenceTier() string {
	if p.Confidence() > 0.8 {
		return "High"
	}
	return "Medium"
}

// FormatPercent renders the positive-class probability as "NN.NN%".
func (p Prediction) FormatPercent() string {
	return fmt.Sprintf("%.2f%%", p.AnemiaPercent())
}
