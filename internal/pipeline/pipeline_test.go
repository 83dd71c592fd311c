package pipeline_test

import (
	"encoding/csv"
	"math"
	"os"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Rawan567/blood-diagnosis-api/internal/model"
	"github.com/Rawan567/blood-diagnosis-api/internal/pipeline"
	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

type fakeClassifier struct {
	label int
	probs [2]float64
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

func (f *fakeClassifier) Close() error { return nil }

var features = []string{
	table.ColRBC, table.ColHGB, table.ColPCV, table.ColMCV,
	table.ColMCH, table.ColMCHC, table.ColTLC, table.ColPLT,
}

func testPipeline(label int, probs [2]float64) *pipeline.Pipeline {
	scaler := &model.StandardScaler{
		Mean:  []float64{4.5, 13, 40, 88, 28, 33, 7, 250},
		Scale: []float64{0.5, 1.5, 4, 6, 2, 1, 2, 60},
	}
	bundle := model.NewLoadedBundle(&fakeClassifier{label: label, probs: probs}, scaler, features)
	return pipeline.New(bundle)
}

const anemicCSV = "RBC,HGB,PCV,MCV,MCH,MCHC,TLC,PLT\n3.0,9.0,30,70,25,30,6,200\n"

func TestIngestAndPredictAnemic(t *testing.T) {
	p := testPipeline(1, [2]float64{0.1, 0.9})
	res, err := p.IngestAndPredict([]byte(anemicCSV), "cbc.csv", nil)
	if err != nil {
		t.Fatalf("ingest and predict: %v", err)
	}
	if len(res.Predictions) != 1 || len(res.Rows) != 1 {
		t.Fatalf("expected one result row, got %d/%d", len(res.Predictions), len(res.Rows))
	}

	pred := res.Predictions[0]
	if !pred.Anemic() {
		t.Fatalf("expected anemia prediction: %+v", pred)
	}
	if math.Abs(pred.ProbNormal+pred.ProbAnemia-1) > 1e-6 {
		t.Fatalf("probability pair must sum to 1: %+v", pred)
	}

	row := res.Rows[0]
	if row.Prediction != "Anemia" || row.PredictionCode != 1 {
		t.Fatalf("unexpected row result: %+v", row)
	}
	if row.Probability != "90.00%" || row.Confidence != "High" {
		t.Fatalf("unexpected confidence rendering: %+v", row)
	}
	for _, want := range []string{"Anemia Detected", "Microcytic", "Hypochromia", "occult blood"} {
		if !strings.Contains(row.Report, want) {
			t.Fatalf("report missing %q:\n%s", want, row.Report)
		}
	}
	if row.Values[table.ColHGB] != 9.0 || row.Values[table.ColPLT] != 200 {
		t.Fatalf("unexpected values map: %+v", row.Values)
	}
}

func TestIngestAndPredictAnnotationColumns(t *testing.T) {
	p := testPipeline(0, [2]float64{0.75, 0.25})
	res, err := p.IngestAndPredict([]byte(anemicCSV), "cbc.csv", nil)
	if err != nil {
		t.Fatalf("ingest and predict: %v", err)
	}
	cols := res.Table.Columns
	if cols[len(cols)-2] != "Predicted_Anemia" || cols[len(cols)-1] != "Diagnosis" {
		t.Fatalf("annotation contract broken: %v", cols)
	}
	if c, _ := res.Table.Cell(0, "Predicted_Anemia"); c.String() != "0" {
		t.Fatalf("expected Predicted_Anemia 0, got %q", c.String())
	}
	if c, _ := res.Table.Cell(0, "Diagnosis"); c.String() != "Normal" {
		t.Fatalf("expected Diagnosis Normal, got %q", c.String())
	}
	if res.Rows[0].Confidence != "Medium" {
		t.Fatalf("0.75 should be Medium confidence, got %s", res.Rows[0].Confidence)
	}
	if !strings.Contains(res.Rows[0].Report, "Not Anemic") {
		t.Fatalf("negative prediction must produce reassurance report")
	}
}

func TestIngestAndPredictVerticalUpload(t *testing.T) {
	vertical := "Parameter,Value\nRBC,3.0\nHGB,9.0\nPCV,30\nMCV,70\nMCH,25\nMCHC,30\nTLC,6\nPLT,200\n"
	p := testPipeline(1, [2]float64{0.2, 0.8})
	res, err := p.IngestAndPredict([]byte(vertical), "cbc.csv", nil)
	if err != nil {
		t.Fatalf("ingest and predict: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("vertical upload should yield one sample, got %d", len(res.Rows))
	}
	if res.Rows[0].Values[table.ColMCV] != 70 {
		t.Fatalf("pivoted values wrong: %+v", res.Rows[0].Values)
	}
}

func TestPredictSingle(t *testing.T) {
	p := testPipeline(1, [2]float64{0.1, 0.9})
	pred, err := p.PredictSingle(map[string]float64{
		table.ColRBC: 3.0, table.ColHGB: 9.0, table.ColPCV: 30, table.ColMCV: 70,
		table.ColMCH: 25, table.ColMCHC: 30, table.ColTLC: 6, table.ColPLT: 200,
	})
	if err != nil {
		t.Fatalf("predict single: %v", err)
	}
	if !pred.Anemic() || pred.RowIndex != 0 {
		t.Fatalf("unexpected prediction: %+v", pred)
	}
}

func TestPredictSingleUnknownField(t *testing.T) {
	p := testPipeline(0, [2]float64{0.9, 0.1})
	if _, err := p.PredictSingle(map[string]float64{"WBZ": 1}); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestExportCSV(t *testing.T) {
	p := testPipeline(1, [2]float64{0.3, 0.7})
	res, err := p.IngestAndPredict([]byte(anemicCSV), "cbc.csv", nil)
	if err != nil {
		t.Fatalf("ingest and predict: %v", err)
	}
	dir := t.TempDir()
	path, err := res.ExportCSV(dir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	base := strings.TrimSuffix(strings.TrimPrefix(path, dir+string(os.PathSeparator)), ".csv")
	if !strings.HasPrefix(base, "cbc_") {
		t.Fatalf("unexpected export name: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected header plus one row, got %d records", len(recs))
	}
	header := strings.Join(recs[0], ",")
	if !strings.HasSuffix(header, "Predicted_Anemia,Diagnosis") {
		t.Fatalf("export header missing annotation columns: %s", header)
	}
	last := recs[1][len(recs[1])-2:]
	if last[0] != "1" || last[1] != "Anemia" {
		t.Fatalf("export annotation values wrong: %v", last)
	}
}
