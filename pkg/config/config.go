// Package config handles loading and saving mhv configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/mhv/config.yaml
//   - State:  ~/.local/state/mhv/ (export output default)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/mhviz/pkg/model"
)

// DataDirEnvVar overrides DataConfig.Dir when set.
const DataDirEnvVar = "MHV_DATA_DIR"

// DataConfig locates the four datasets. Relative file names are resolved
// against Dir.
type DataConfig struct {
	Dir        string `yaml:"dir,omitempty"`
	Mental     string `yaml:"mental,omitempty"`
	GDP        string `yaml:"gdp,omitempty"`
	Population string `yaml:"population,omitempty"`
	Alcohol    string `yaml:"alcohol,omitempty"`
}

// MetadataConfig controls the country metadata fetch.
type MetadataConfig struct {
	URL             string        `yaml:"url,omitempty"`
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	OfflineFallback bool          `yaml:"offline_fallback,omitempty"` // use the built-in country table when the fetch fails
	Disabled        bool          `yaml:"disabled,omitempty"`
}

// ChartConfig holds chart geometry and the flag image source.
type ChartConfig struct {
	FlagURL        string `yaml:"flag_url,omitempty"` // {code} is replaced by the ISO2 code
	ScatterWidth   int    `yaml:"scatter_width,omitempty"`
	Width          int    `yaml:"width,omitempty"`
	Height         int    `yaml:"height,omitempty"`
	BinCount       int    `yaml:"bin_count,omitempty"`
	InnerRadius    int    `yaml:"inner_radius,omitempty"`
	TransitionMsec int    `yaml:"transition_ms,omitempty"`
}

// ServerConfig holds dashboard server settings.
type ServerConfig struct {
	Addr  string `yaml:"addr,omitempty"`
	Watch bool   `yaml:"watch,omitempty"`
}

// Config is the top-level configuration for mhv.
type Config struct {
	Data     DataConfig     `yaml:"data,omitempty"`
	Defaults model.Params   `yaml:"defaults,omitempty"`
	Metadata MetadataConfig `yaml:"metadata,omitempty"`
	Charts   ChartConfig    `yaml:"charts,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Data: DataConfig{
			Dir:        "data",
			Mental:     "MentalDisorder_Age.csv",
			GDP:        "gdp_ppp_per_capita.csv",
			Population: "country_population.csv",
			Alcohol:    "Alcohol_GDP.csv",
		},
		Defaults: model.DefaultParams(),
		Metadata: MetadataConfig{
			URL:     "https://restcountries.com/v3.1/all?fields=name,region,cca2,cca3",
			Timeout: 10 * time.Second,
		},
		Charts: ChartConfig{
			FlagURL:        "https://flagsapi.com/{code}/shiny/64.png",
			ScatterWidth:   1400,
			Width:          660,
			Height:         350,
			BinCount:       model.DefaultBinCount,
			InnerRadius:    60,
			TransitionMsec: 1000,
		},
		Server: ServerConfig{
			Addr: "localhost:8080",
		},
	}
}

// ConfigDir returns the XDG config directory for mhv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "mhv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mhv")
}

// StateDir returns the XDG state directory for mhv.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "mhv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "mhv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig().withEnv(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Fields missing from the file
// keep their defaults. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg.withEnv(), nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Data.Dir = expandHome(cfg.Data.Dir)
	cfg.Defaults = cfg.Defaults.Normalize()
	if cfg.Charts.BinCount <= 0 {
		cfg.Charts.BinCount = model.DefaultBinCount
	}
	return cfg.withEnv(), nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c Config) withEnv() Config {
	if dir := os.Getenv(DataDirEnvVar); dir != "" {
		c.Data.Dir = expandHome(dir)
	}
	return c
}

// Path resolves a dataset file name against the data directory.
func (d DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) || d.Dir == "" {
		return expandHome(name)
	}
	return filepath.Join(d.Dir, name)
}

// Files returns the resolved dataset paths in load order: mental, GDP,
// population, alcohol.
func (d DataConfig) Files() []string {
	return []string{d.Path(d.Mental), d.Path(d.GDP), d.Path(d.Population), d.Path(d.Alcohol)}
}

// FlagURLFor returns the flag image URL for an ISO2 code.
func (c ChartConfig) FlagURLFor(alpha2 string) string {
	return strings.ReplaceAll(c.FlagURL, "{code}", alpha2)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
