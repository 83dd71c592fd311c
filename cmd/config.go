package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/Rawan567/blood-diagnosis-api/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or update the pipeline configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Print(string(b))
		return nil
	},
}

var (
	setOrtLibrary string
	setExportDir  string
	setAliasFile  string
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update configuration values and save",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("ort-library") {
			cfg.OrtLibraryPath = setOrtLibrary
		}
		if cmd.Flags().Changed("export-dir") {
			cfg.ExportDir = setExportDir
		}
		if cmd.Flags().Changed("alias-file") {
			cfg.AliasFile = setAliasFile
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("✓ Configuration saved")
		return nil
	},
}

func init() {
	configSetCmd.Flags().StringVar(&setOrtLibrary, "ort-library", "", "path to the ONNX runtime shared library")
	configSetCmd.Flags().StringVar(&setExportDir, "export-dir", "", "directory for annotated result CSVs")
	configSetCmd.Flags().StringVar(&setAliasFile, "alias-file", "", "YAML file extending the column aliases")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
