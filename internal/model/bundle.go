// Package model owns the trained asset bundle (classifier, fitted scaler,
// ordered feature list) and converts canonical sample tables into
// predictions. The bundle loads lazily, exactly once on success, and is
// immutable afterwards; a failed load leaves it unloaded so a later request
// may retry.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

// Fixed asset names inside the bundle directory. The locations are part of
// the pipeline's contract and are not runtime-configurable.
const (
	modelAsset    = "anemia_classifier.onnx"
	scalerAsset   = "scaler.json"
	featuresAsset = "used_features.json"
)

// Classifier is the opaque trained model surface: hard labels plus a
// two-class probability row per sample.
type Classifier interface {
	Predict(X *mat.Dense) ([]int, error)
	PredictProba(X *mat.Dense) (*mat.Dense, error)
	Close() error
}

// ClassifierOpener constructs a Classifier from the model asset path.
type ClassifierOpener func(path string) (Classifier, error)

// Bundle is the process-wide model asset service.
type Bundle struct {
	mu     sync.Mutex
	loaded bool

	dir  string
	open ClassifierOpener

	clf      Classifier
	scaler   *StandardScaler
	features []string
}

// Option customizes bundle construction.
type Option func(*Bundle)

// WithAssetDir overrides the bundle directory. Intended for tests; the
// production location is fixed relative to the installation.
func WithAssetDir(dir string) Option {
	return func(b *Bundle) { b.dir = dir }
}

// WithClassifierOpener substitutes the classifier backend.
func WithClassifierOpener(open ClassifierOpener) Option {
	return func(b *Bundle) { b.open = open }
}

// NewBundle creates an unloaded bundle backed by the ONNX classifier and the
// default asset directory.
func NewBundle(opts ...Option) *Bundle {
	b := &Bundle{
		dir:  DefaultAssetDir(),
		open: func(path string) (Classifier, error) { return OpenONNXClassifier(path, "") },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewLoadedBundle wires a pre-built classifier, scaler and feature list,
// bypassing asset loading entirely. This is the substitution point for tests
// and for callers embedding their own model backend.
func NewLoadedBundle(clf Classifier, scaler *StandardScaler, features []string) *Bundle {
	return &Bundle{
		loaded:   true,
		clf:      clf,
		scaler:   scaler,
		features: append([]string(nil), features...),
	}
}

// DefaultAssetDir resolves the fixed bundle location relative to the
// installed executable.
func DefaultAssetDir() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("assets", "cbc")
	}
	return filepath.Join(filepath.Dir(exe), "assets", "cbc")
}

// IsLoaded reports whether the assets are resident.
func (b *Bundle) IsLoaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Load resolves and loads the three assets. Idempotent: after the first
// success every call is a no-op. Fails with *AssetMissingError naming the
// first missing asset; on any failure the bundle stays unloaded and Load may
// be called again.
func (b *Bundle) Load() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return nil
	}

	paths := []struct{ kind, path string }{
		{"model", filepath.Join(b.dir, modelAsset)},
		{"scaler", filepath.Join(b.dir, scalerAsset)},
		{"features", filepath.Join(b.dir, featuresAsset)},
	}
	for _, p := range paths {
		if _, err := os.Stat(p.path); err != nil {
			return &AssetMissingError{Kind: p.kind, Path: p.path}
		}
	}

	features, err := loadFeatureList(paths[2].path)
	if err != nil {
		return err
	}
	scaler, err := LoadScaler(paths[1].path)
	if err != nil {
		return err
	}
	clf, err := b.open(paths[0].path)
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}

	b.clf = clf
	b.scaler = scaler
	b.features = features
	b.loaded = true
	return nil
}

// Features returns the model-declared feature order. Empty until loaded.
func (b *Bundle) Features() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.features...)
}

// Close releases the classifier backend.
func (b *Bundle) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clf == nil {
		return nil
	}
	err := b.clf.Close()
	b.clf = nil
	b.loaded = false
	return err
}

// PredictBatch classifies every row of a canonical table, preserving row
// order and positional index. It loads the bundle first when needed.
func (b *Bundle) PredictBatch(t *table.Table) ([]Prediction, error) {
	if !b.IsLoaded() {
		if err := b.Load(); err != nil {
			return nil, err
		}
	}
	X, err := featureMatrix(t, b.features)
	if err != nil {
		return nil, err
	}
	scaled, err := b.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	labels, err := b.clf.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	probs, err := b.clf.PredictProba(scaled)
	if err != nil {
		return nil, fmt.Errorf("predict probabilities: %w", err)
	}
	rows, _ := probs.Dims()
	if len(labels) != t.NumRows() || rows != t.NumRows() {
		return nil, fmt.Errorf("classifier returned %d labels and %d probability rows for %d samples", len(labels), rows, t.NumRows())
	}

	out := make([]Prediction, t.NumRows())
	for i := range out {
		out[i] = Prediction{
			RowIndex:   i,
			Label:      labels[i],
			ProbNormal: probs.At(i, 0),
			ProbAnemia: probs.At(i, 1),
		}
	}
	return out, nil
}

// featureMatrix extracts the required features in model-declared order. The
// normalizer guarantees completeness; a gap here is a programming error, not
// a data error.
func featureMatrix(t *table.Table, features []string) (*mat.Dense, error) {
	if t.NumRows() == 0 || len(features) == 0 {
		return nil, fmt.Errorf("empty feature matrix: %d rows, %d features", t.NumRows(), len(features))
	}
	idx := make([]int, len(features))
	for i, name := range features {
		idx[i] = t.ColumnIndex(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("feature %q not present in table", name)
		}
	}
	X := mat.NewDense(t.NumRows(), len(features), nil)
	for r, row := range t.Rows {
		for c, col := range idx {
			v, ok := row[col].Float()
			if !ok {
				return nil, fmt.Errorf("row %d: feature %q is missing", r, features[c])
			}
			X.Set(r, c, v)
		}
	}
	return X, nil
}

func loadFeatureList(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature list: %w", err)
	}
	var features []string
	if err := json.Unmarshal(b, &features); err != nil {
		return nil, fmt.Errorf("parse feature list: %w", err)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("feature list asset %s is empty", path)
	}
	return features, nil
}
