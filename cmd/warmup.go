package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Load the model asset bundle ahead of the first prediction",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bundle.Load(); err != nil {
			return err
		}
		fmt.Printf("✓ Model bundle loaded (features: %v)\n", bundle.Features())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(warmupCmd)
}
