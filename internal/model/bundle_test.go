package model_test

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Rawan567/blood-diagnosis-api/internal/model"
	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

// fakeClassifier returns a fixed label and probability pair for every row.
type fakeClassifier struct {
	label  int
	probs  [2]float64
	closed bool
}

func (f *fakeClassifier) Predict(X *mat.Dense) ([]int, error) {
	rows, _ := X.Dims()
	out := make([]int, rows)
	for i := range out {
		out[i] = f.label
	}
	return out, nil
}

func (f *fakeClassifier) PredictProba(X *mat.Dense) (*mat.Dense, error) {
	rows, _ := X.Dims()
	out := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, f.probs[0])
		out.Set(i, 1, f.probs[1])
	}
	return out, nil
}

func (f *fakeClassifier) Close() error {
	f.closed = true
	return nil
}

var testFeatures = []string{table.ColRBC, table.ColHGB}

func writeAssets(t *testing.T, dir string, withModel bool) {
	t.Helper()
	if withModel {
		if err := os.WriteFile(filepath.Join(dir, "anemia_classifier.onnx"), []byte("stub"), 0o644); err != nil {
			t.Fatalf("write model: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "scaler.json"), []byte(`{"mean":[4.5,13.0],"scale":[0.5,1.5]}`), 0o644); err != nil {
		t.Fatalf("write scaler: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "used_features.json"), []byte(`["RBC","HGB"]`), 0o644); err != nil {
		t.Fatalf("write features: %v", err)
	}
}

func TestBundleLoadMissingModel(t *testing.T) {
	dir := t.TempDir()
	writeAssets(t, dir, false)
	b := model.NewBundle(model.WithAssetDir(dir))
	err := b.Load()
	var ame *model.AssetMissingError
	if !errors.As(err, &ame) {
		t.Fatalf("expected AssetMissingError, got %v", err)
	}
	if ame.Kind != "model" {
		t.Fatalf("expected first missing asset to be the model, got %q", ame.Kind)
	}
	if b.IsLoaded() {
		t.Fatalf("bundle must stay unloaded after failure")
	}
}

func TestBundleLoadAndRetry(t *testing.T) {
	dir := t.TempDir()
	writeAssets(t, dir, true)
	calls := 0
	opener := func(path string) (model.Classifier, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("backend unavailable")
		}
		return &fakeClassifier{label: 0, probs: [2]float64{0.7, 0.3}}, nil
	}
	b := model.NewBundle(model.WithAssetDir(dir), model.WithClassifierOpener(opener))

	if err := b.Load(); err == nil {
		t.Fatalf("expected first load to fail")
	}
	if b.IsLoaded() {
		t.Fatalf("failed load must not poison the bundle as loaded")
	}
	if err := b.Load(); err != nil {
		t.Fatalf("retry load: %v", err)
	}
	if !b.IsLoaded() {
		t.Fatalf("bundle should be loaded")
	}
	// Idempotent: no third open.
	if err := b.Load(); err != nil {
		t.Fatalf("repeat load: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 opener calls, got %d", calls)
	}
	got := b.Features()
	if len(got) != 2 || got[0] != table.ColRBC || got[1] != table.ColHGB {
		t.Fatalf("unexpected feature order: %v", got)
	}
}

func TestPredictBatch(t *testing.T) {
	clf := &fakeClassifier{label: 1, probs: [2]float64{0.1, 0.9}}
	scaler := &model.StandardScaler{Mean: []float64{4.5, 13}, Scale: []float64{0.5, 1.5}}
	b := model.NewLoadedBundle(clf, scaler, testFeatures)

	in := table.FromRecords([]string{"RBC", "HGB"}, [][]string{{"3.0", "9.0"}, {"4.6", "13.1"}})
	for r := range in.Rows {
		for c := range in.Rows[r] {
			v := in.Rows[r][c]
			in.SetCell(r, c, table.NumCell(mustFloat(t, v.Raw)))
		}
	}
	preds, err := b.PredictBatch(in)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}
	for i, p := range preds {
		if p.RowIndex != i {
			t.Fatalf("row order not preserved: %+v", p)
		}
		if p.Label != 1 || p.Diagnosis() != "Anemia" {
			t.Fatalf("unexpected label: %+v", p)
		}
		if math.Abs(p.ProbNormal+p.ProbAnemia-1) > 1e-6 {
			t.Fatalf("probabilities must sum to 1: %+v", p)
		}
		if p.ConfidenceTier() != "High" {
			t.Fatalf("0.9 should be High confidence, got %s", p.ConfidenceTier())
		}
		if p.FormatPercent() != "90.00%" {
			t.Fatalf("unexpected percent: %s", p.FormatPercent())
		}
	}
}

func TestPredictBatchMissingFeatureColumn(t *testing.T) {
	clf := &fakeClassifier{label: 0, probs: [2]float64{0.6, 0.4}}
	scaler := &model.StandardScaler{Mean: []float64{4.5, 13}, Scale: []float64{0.5, 1.5}}
	b := model.NewLoadedBundle(clf, scaler, testFeatures)

	in := table.FromRecords([]string{"RBC"}, [][]string{{"4.5"}})
	in.SetCell(0, 0, table.NumCell(4.5))
	if _, err := b.PredictBatch(in); err == nil {
		t.Fatalf("expected error for missing feature column")
	}
}

func mustFloat(t *testing.T, s string) float64 {
	t.Helper()
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}
