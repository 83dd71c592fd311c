package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Rawan567/blood-diagnosis-api/internal/utils"
)

var (
	analyzeOutDir  string
	analyzeJSON    bool
	analyzeReports bool
	analyzeNoSave  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze an uploaded CBC file and predict anemia per sample",
	Long: `Analyze parses a CBC results file (.csv, .xlsx, .xls or .pdf), normalizes
column names across lab formats, classifies every sample and writes the
annotated table (with Predicted_Anemia and Diagnosis columns) as CSV.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}
		debugf("analyzing %s (%d bytes)", path, len(data))
		res, err := p.IngestAndPredict(data, filepath.Base(path), nil)
		if err != nil {
			return err
		}

		if analyzeJSON {
			b, err := utils.PrettyJSON(res.Rows)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
		} else {
			for _, row := range res.Rows {
				fmt.Printf("sample %d: %s (%s, confidence %s)\n",
					row.RowIndex, row.Prediction, row.Probability, row.Confidence)
				if analyzeReports {
					fmt.Println(row.Report)
					fmt.Println()
				}
			}
		}

		if !analyzeNoSave {
			outDir := analyzeOutDir
			if outDir == "" {
				outDir = cfg.ExportDir
			}
			saved, err := res.ExportCSV(outDir)
			if err != nil {
				return fmt.Errorf("export results: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Annotated results saved to %s\n", saved)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOutDir, "out", "", "directory for the annotated CSV (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print per-sample results as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeReports, "reports", false, "print the clinical advisory for each sample")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "skip writing the annotated CSV")
	rootCmd.AddCommand(analyzeCmd)
}
