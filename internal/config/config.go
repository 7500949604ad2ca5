// Package config loads reach-plots settings from yaml files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Paths    PathsConfig         `mapstructure:"paths"    yaml:"paths"`
	Batch    BatchConfig         `mapstructure:"batch"    yaml:"batch"`
	Selected map[string][]string `mapstructure:"selected" yaml:"selected"` // tier -> areas
	Render   RenderConfig        `mapstructure:"render"   yaml:"render"`
	Report   ReportConfig        `mapstructure:"report"   yaml:"report"`
	Logging  LoggingConfig       `mapstructure:"logging"  yaml:"logging"`
}

// PathsConfig holds the input and output roots.
type PathsConfig struct {
	ResultsRoot string `mapstructure:"results_root" yaml:"results_root"`
	ImagesRoot  string `mapstructure:"images_root"  yaml:"images_root"`
}

// BatchConfig holds the file name tokens used by the batch requests.
type BatchConfig struct {
	Suffix           string   `mapstructure:"suffix"            yaml:"suffix"`
	GroupsSuffix     string   `mapstructure:"groups_suffix"     yaml:"groups_suffix"`
	CumulativeSuffix string   `mapstructure:"cumulative_suffix" yaml:"cumulative_suffix"`
	DetailTiers      []string `mapstructure:"detail_tiers"      yaml:"detail_tiers"`
}

// RenderConfig holds raster output settings. Width and Height are in pixels
// before scaling.
type RenderConfig struct {
	Scale  float64 `mapstructure:"scale"  yaml:"scale"`
	Width  int     `mapstructure:"width"  yaml:"width"`
	Height int     `mapstructure:"height" yaml:"height"`
}

// ReportConfig toggles the run manifest.
type ReportConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Tiers lists the regional centrality tiers in display order.
var Tiers = []string{"top", "mid", "base"}

// DefaultSelected is the curated area registry used when no config overrides it.
var DefaultSelected = map[string][]string{
	"top":  {"Aachen", "Halle (Saale)", "Heidelberg", "Osnabrück"},
	"mid":  {"Alfeld (Leine)", "Aue-Bad Schlema", "Bad Soden am Taunus", "Landau in der Pfalz"},
	"base": {"Ankum", "Kandern", "Kühlungsborn", "Seefeld"},
}

const envPrefix = "REACHPLOTS"

// Load reads config.yaml from ./config, ~/.reach-plots or /etc/reach-plots.
// A missing file is not an error. Environment variables override file values,
// e.g. REACHPLOTS_PATHS_RESULTS_ROOT.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".reach-plots"))
	v.AddConfigPath("/etc/reach-plots")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.results_root", "results")
	v.SetDefault("paths.images_root", "images")

	v.SetDefault("batch.suffix", "15-18-21_Sat_104")
	v.SetDefault("batch.groups_suffix", "[15, 18, 21]")
	v.SetDefault("batch.cumulative_suffix", "average")
	v.SetDefault("batch.detail_tiers", []string{"top"})

	for tier, areas := range DefaultSelected {
		v.SetDefault("selected."+tier, areas)
	}

	v.SetDefault("render.scale", 1.8)
	v.SetDefault("render.width", 700)
	v.SetDefault("render.height", 500)

	v.SetDefault("report.enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate rejects settings the renderer cannot work with.
func (c *Config) Validate() error {
	if c.Paths.ResultsRoot == "" || c.Paths.ImagesRoot == "" {
		return fmt.Errorf("paths.results_root and paths.images_root must be set")
	}
	if c.Render.Scale <= 0 {
		return fmt.Errorf("render.scale must be positive, got %v", c.Render.Scale)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render.width and render.height must be positive")
	}
	for _, tier := range c.Batch.DetailTiers {
		if _, ok := c.Selected[tier]; !ok {
			return fmt.Errorf("batch.detail_tiers names unknown tier %q", tier)
		}
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
