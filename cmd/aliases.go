package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Show the column spellings recognized for each CBC parameter",
	RunE: func(cmd *cobra.Command, args []string) error {
		aliases := table.DefaultAliases()
		if cfg != nil && cfg.AliasFile != "" {
			extended, err := aliases.ExtendFromFile(cfg.AliasFile)
			if err != nil {
				return err
			}
			aliases = extended
		}
		for _, a := range aliases {
			fmt.Printf("%-5s %s\n", a.Canonical, strings.Join(a.Variants, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aliasesCmd)
}
