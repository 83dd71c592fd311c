package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure. Model asset locations are deliberately not
// configurable here: the bundle resolves them from the installation directory
// as part of its contract.
type Global struct {
	// OrtLibraryPath points at the ONNX runtime shared library when it is
	// not on the default search path.
	OrtLibraryPath string `mapstructure:"ort_library_path" yaml:"ort_library_path"`
	// ExportDir receives annotated result CSVs.
	ExportDir string `mapstructure:"export_dir" yaml:"export_dir"`
	// AliasFile optionally extends the built-in column aliases.
	AliasFile string `mapstructure:"alias_file" yaml:"alias_file"`
	Debug     bool   `mapstructure:"debug" yaml:"debug"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.blooddx/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("BLOODDX")
	v.AutomaticEnv()

	v.SetDefault("ort_library_path", "")
	v.SetDefault("export_dir", "")
	v.SetDefault("alias_file", "")
	v.SetDefault("debug", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ExportDir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		c.ExportDir = filepath.Join(dir, "exports")
	}
	return &c, nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".blooddx"), nil
}
