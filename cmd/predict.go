package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rawan567/blood-diagnosis-api/internal/report"
	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

var (
	predictValues = map[string]*float64{}
	predictReport bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict anemia for one manually entered CBC sample",
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := make(map[string]float64, len(predictValues))
		for name, v := range predictValues {
			if name == table.ColRDW && !cmd.Flags().Changed("rdw") {
				continue
			}
			fields[name] = *v
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}
		pred, err := p.PredictSingle(fields)
		if err != nil {
			return err
		}

		fmt.Printf("Prediction: %s\n", pred.Diagnosis())
		fmt.Printf("Anemia probability: %s (confidence %s)\n", pred.FormatPercent(), pred.ConfidenceTier())
		if predictReport {
			fmt.Println()
			fmt.Println(report.Synthesize(report.Values(fields), pred.Anemic()))
		}
		return nil
	},
}

func init() {
	required := []struct{ flag, col, help string }{
		{"rbc", table.ColRBC, "red blood cell count (million/µL)"},
		{"hgb", table.ColHGB, "hemoglobin (g/dL)"},
		{"pcv", table.ColPCV, "packed cell volume / hematocrit (%)"},
		{"mcv", table.ColMCV, "mean corpuscular volume (fL)"},
		{"mch", table.ColMCH, "mean corpuscular hemoglobin (pg)"},
		{"mchc", table.ColMCHC, "mean corpuscular hemoglobin concentration (g/dL)"},
		{"tlc", table.ColTLC, "total leukocyte count (thousand/µL)"},
		{"plt", table.ColPLT, "platelet count (thousand/µL)"},
	}
	for _, f := range required {
		v := new(float64)
		predictValues[f.col] = v
		predictCmd.Flags().Float64Var(v, f.flag, 0, f.help)
		_ = predictCmd.MarkFlagRequired(f.flag)
	}
	rdw := new(float64)
	predictValues[table.ColRDW] = rdw
	predictCmd.Flags().Float64Var(rdw, "rdw", 0, "red cell distribution width (%), optional")
	predictCmd.Flags().BoolVar(&predictReport, "report", false, "print the clinical advisory")
	rootCmd.AddCommand(predictCmd)
}
