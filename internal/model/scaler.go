package model

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// StandardScaler is the fitted feature scaler: per-column mean and scale
// recorded at training time, applied column-wise at inference.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LoadScaler reads the fitted scaler parameters from a JSON asset.
func LoadScaler(path string) (*StandardScaler, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}
	var s StandardScaler
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scaler: %w", err)
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("scaler asset malformed: %d means, %d scales", len(s.Mean), len(s.Scale))
	}
	return &s, nil
}

// Transform standardizes each column of X with the fitted parameters. A zero
// scale maps the column to zero rather than dividing by it.
func (s *StandardScaler) Transform(X *mat.Dense) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != len(s.Mean) {
		return nil, fmt.Errorf("scaler fitted on %d features, input has %d", len(s.Mean), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if s.Scale[j] == 0 {
				out.Set(i, j, 0)
				continue
			}
			out.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out, nil
}
