package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Rawan567/blood-diagnosis-api/internal/utils"
)

// ExportCSV writes the annotated table to dir as a standardized CSV named
// cbc_<timestamp>_<id>.csv and returns the full path. The file carries every
// canonical column plus Predicted_Anemia and Diagnosis.
func (r *Result) ExportCSV(dir string) (string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := fmt.Sprintf("cbc_%s_%s.csv",
		time.Now().Format("20060102_150405"), uuid.New().String()[:8])
	path := filepath.Join(dir, name)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(r.Table.Columns); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, r.Table.NumCols())
	for _, row := range r.Table.Rows {
		for i, c := range row {
			rec[i] = c.String()
		}
		if err := w.Write(rec); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}
