package model_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Rawan567/blood-diagnosis-api/internal/model"
)

func TestScalerTransform(t *testing.T) {
	s := &model.StandardScaler{
		Mean:  []float64{10, 100},
		Scale: []float64{2, 50},
	}
	X := mat.NewDense(2, 2, []float64{12, 150, 8, 50})
	got, err := s.Transform(X)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	want := []float64{1, 1, -1, -1}
	for i, w := range want {
		if v := got.At(i/2, i%2); math.Abs(v-w) > 1e-12 {
			t.Fatalf("cell %d: expected %v, got %v", i, w, v)
		}
	}
}

func TestScalerTransformZeroScale(t *testing.T) {
	s := &model.StandardScaler{Mean: []float64{5}, Scale: []float64{0}}
	X := mat.NewDense(1, 1, []float64{42})
	got, err := s.Transform(X)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if got.At(0, 0) != 0 {
		t.Fatalf("zero scale must map to zero, got %v", got.At(0, 0))
	}
}

func TestScalerTransformDimensionMismatch(t *testing.T) {
	s := &model.StandardScaler{Mean: []float64{1, 2}, Scale: []float64{1, 1}}
	if _, err := s.Transform(mat.NewDense(1, 3, []float64{1, 2, 3})); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestLoadScaler(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "scaler.json")
	if err := os.WriteFile(p, []byte(`{"mean":[1,2],"scale":[3,4]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := model.LoadScaler(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Mean) != 2 || s.Scale[1] != 4 {
		t.Fatalf("unexpected scaler: %+v", s)
	}
}

func TestLoadScalerMalformed(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "scaler.json")
	if err := os.WriteFile(p, []byte(`{"mean":[1,2],"scale":[3]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := model.LoadScaler(p); err == nil {
		t.Fatalf("expected error for mismatched lengths")
	}
}
