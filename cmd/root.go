package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/Rawan567/blood-diagnosis-api/internal/config"
	"github.com/Rawan567/blood-diagnosis-api/internal/model"
	"github.com/Rawan567/blood-diagnosis-api/internal/pipeline"
	"github.com/Rawan567/blood-diagnosis-api/internal/table"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global

	// Shared model bundle; one per process.
	bundle *model.Bundle
)

var rootCmd = &cobra.Command{
	Use:   "blooddx",
	Short: "BloodDx: CBC ingestion and anemia prediction pipeline",
	Long:  `BloodDx ingests CBC lab results (CSV, XLSX, XLS or PDF), reconciles heterogeneous lab schemas, runs the trained anemia classifier and renders a clinical advisory per sample.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.blooddx/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c
	if rootCmd.PersistentFlags().Changed("debug") {
		cfg.Debug = debug
	}
	bundle = model.NewBundle(model.WithClassifierOpener(func(path string) (model.Classifier, error) {
		return model.OpenONNXClassifier(path, cfg.OrtLibraryPath)
	}))
}

// newPipeline assembles the pipeline with the configured alias overrides.
func newPipeline() (*pipeline.Pipeline, error) {
	aliases := table.DefaultAliases()
	if cfg != nil && cfg.AliasFile != "" {
		extended, err := aliases.ExtendFromFile(cfg.AliasFile)
		if err != nil {
			return nil, err
		}
		aliases = extended
	}
	return pipeline.New(bundle, pipeline.WithAliases(aliases)), nil
}

func debugf(format string, args ...any) {
	if cfg != nil && cfg.Debug {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
