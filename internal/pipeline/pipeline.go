// Package pipeline wires ingestion, normalization, inference and report
// synthesis into the entry points consumed by callers: file uploads, manual
// single-sample input and per-row advisory text.
package pipeline

import (
	"fmt"

	"github.com/Rawan567/blood-diagnosis-api/internal/ingest"
	"github.com/Rawan567/blood-diagnosis-api/internal/model"
	"github.com/Rawan567/blood-diagnosis-api/internal/report"
	"github.com/Rawan567/blood-diagnosis-api/internal/schema"
	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

// Annotation columns appended to the canonical table for export. Their
// names and order are a compatibility contract with downstream viewers.
const (
	predictedColumn = "Predicted_Anemia"
	diagnosisColumn = "Diagnosis"
)

// Pipeline runs the CBC flow against one model bundle.
type Pipeline struct {
	bundle  *model.Bundle
	aliases table.AliasTable
}

// Option customizes pipeline construction.
type Option func(*Pipeline)

// WithAliases substitutes the alias table, typically the defaults extended
// from a site-local override file.
func WithAliases(a table.AliasTable) Option {
	return func(p *Pipeline) { p.aliases = a }
}

// New builds a pipeline over the given bundle.
func New(bundle *model.Bundle, opts ...Option) *Pipeline {
	p := &Pipeline{bundle: bundle, aliases: table.DefaultAliases()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RowResult is the per-sample record handed to callers for display.
type RowResult struct {
	RowIndex       int                `json:"row_index"`
	Prediction     string             `json:"prediction"`
	PredictionCode int                `json:"prediction_code"`
	Probability    string             `json:"probability"`
	Confidence     string             `json:"confidence"`
	Values         map[string]float64 `json:"values"`
	Report         string             `json:"report"`
}

// Result is the artifact of one upload: the canonical table annotated with
// the prediction columns, the raw predictions, and display-ready rows.
type Result struct {
	Table       *table.Table
	Predictions []model.Prediction
	Rows        []RowResult
}

// IngestAndPredict parses uploaded bytes, normalizes the table against the
// required feature list (the model's own list when nil) and classifies every
// surviving row.
func (p *Pipeline) IngestAndPredict(data []byte, filename string, required []string) (*Result, error) {
	raw, err := ingest.Parse(data, filename)
	if err != nil {
		return nil, err
	}
	if required == nil {
		if err := p.bundle.Load(); err != nil {
			return nil, err
		}
		required = p.bundle.Features()
	}
	canonical, err := schema.Normalize(raw, required, p.aliases)
	if err != nil {
		return nil, err
	}
	preds, err := p.bundle.PredictBatch(canonical)
	if err != nil {
		return nil, err
	}
	return p.buildResult(canonical, preds)
}

// PredictSingle classifies one manually entered sample. Fields use canonical
// parameter names; RDW is optional alongside the eight standard values.
func (p *Pipeline) PredictSingle(fields map[string]float64) (model.Prediction, error) {
	for name := range fields {
		if !knownSingleField(name) {
			return model.Prediction{}, fmt.Errorf("unknown CBC field %q", name)
		}
	}
	t := table.New()
	row := make([]table.Cell, 0, len(fields))
	for _, name := range singleFieldOrder {
		if v, ok := fields[name]; ok {
			t.Columns = append(t.Columns, name)
			row = append(row, table.NumCell(v))
		}
	}
	t.Rows = append(t.Rows, row)

	if err := p.bundle.Load(); err != nil {
		return model.Prediction{}, err
	}
	canonical, err := schema.Normalize(t, p.bundle.Features(), p.aliases)
	if err != nil {
		return model.Prediction{}, err
	}
	preds, err := p.bundle.PredictBatch(canonical)
	if err != nil {
		return model.Prediction{}, err
	}
	return preds[0], nil
}

// SynthesizeReport renders the advisory for one row of a canonical table.
func (p *Pipeline) SynthesizeReport(t *table.Table, row int, pred model.Prediction) string {
	return report.Synthesize(report.FromRow(t, row), pred.Anemic())
}

var singleFieldOrder = []string{
	table.ColRBC, table.ColHGB, table.ColPCV, table.ColMCV,
	table.ColMCH, table.ColMCHC, table.ColTLC, table.ColPLT, table.ColRDW,
}

func knownSingleField(name string) bool {
	for _, f := range singleFieldOrder {
		if f == name {
			return true
		}
	}
	return false
}

// buildResult annotates the canonical table with the two prediction columns
// and assembles display rows.
func (p *Pipeline) buildResult(canonical *table.Table, preds []model.Prediction) (*Result, error) {
	annotated := canonical.Clone()
	predicted := make([]table.Cell, len(preds))
	diagnosis := make([]table.Cell, len(preds))
	for i, pr := range preds {
		predicted[i] = table.NumCell(float64(pr.Label))
		diagnosis[i] = table.RawCell(pr.Diagnosis())
	}
	if err := annotated.AppendColumn(predictedColumn, predicted); err != nil {
		return nil, err
	}
	if err := annotated.AppendColumn(diagnosisColumn, diagnosis); err != nil {
		return nil, err
	}

	rows := make([]RowResult, len(preds))
	for i, pr := range preds {
		values := make(map[string]float64, len(table.StandardFeatures))
		for _, name := range table.StandardFeatures {
			if c, ok := canonical.Cell(i, name); ok && !c.Missing() {
				values[name] = c.Num
			} else {
				values[name] = 0
			}
		}
		rows[i] = RowResult{
			RowIndex:       pr.RowIndex,
			Prediction:     pr.Diagnosis(),
			PredictionCode: pr.Label,
			Probability:    pr.FormatPercent(),
			Confidence:     pr.ConfidenceTier(),
			Values:         values,
			Report:         p.SynthesizeReport(canonical, i, pr),
		}
	}
	return &Result{Table: annotated, Predictions: preds, Rows: rows}, nil
}
