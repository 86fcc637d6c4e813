// Package hooks runs user commands around mhv exports.
// Hooks are configured in hooks.yaml next to config.yaml and run before
// (pre-export) and after (post-export) the CLI writes its output files.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/mhviz/pkg/config"
)

// Phase says when a hook runs.
type Phase string

const (
	// PreExport runs before any file is written. Failure cancels the export.
	PreExport Phase = "pre-export"
	// PostExport runs after all files are written. Failure is reported but
	// the files stay.
	PostExport Phase = "post-export"
)

// On-error policies.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// DefaultTimeout bounds a hook without an explicit timeout.
const DefaultTimeout = 30 * time.Second

// Hook is one configured command.
type Hook struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"` // run with sh -c
	Timeout time.Duration     `yaml:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"` // values may reference $VARS
	OnError string            `yaml:"on_error,omitempty"`
}

// Config holds the hooks of both phases.
type Config struct {
	Hooks ByPhase `yaml:"hooks"`
}

// ByPhase groups hooks by phase.
type ByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty"`
}

// ExportContext describes the export to the hooks through MHV_* variables.
type ExportContext struct {
	ExportPath   string // MHV_EXPORT_PATH: snapshot directory or first output file
	ExportFormat string // MHV_EXPORT_FORMAT: comma separated outputs, e.g. "svg,png,sqlite"
	CountryCount int    // MHV_COUNTRY_COUNT: countries in the scatter plot
	Year         int    // MHV_YEAR
	Issue        string // MHV_ISSUE
	Timestamp    time.Time
}

// ToEnv converts the context to environment assignments.
func (c ExportContext) ToEnv() []string {
	return []string{
		"MHV_EXPORT_PATH=" + c.ExportPath,
		"MHV_EXPORT_FORMAT=" + c.ExportFormat,
		fmt.Sprintf("MHV_COUNTRY_COUNT=%d", c.CountryCount),
		fmt.Sprintf("MHV_YEAR=%d", c.Year),
		"MHV_ISSUE=" + c.Issue,
		"MHV_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// DefaultPath is hooks.yaml in the mhv config directory.
func DefaultPath() string {
	dir := config.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "hooks.yaml")
}

// Load reads hooks from path. A missing file yields an empty Config.
// Hooks with an empty command are dropped and reported as warnings.
func Load(path string) (*Config, []string, error) {
	if path == "" {
		return &Config{}, nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil, nil
		}
		return nil, nil, fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var warnings []string
	cfg.Hooks.PreExport, warnings = normalize(cfg.Hooks.PreExport, PreExport, warnings)
	cfg.Hooks.PostExport, warnings = normalize(cfg.Hooks.PostExport, PostExport, warnings)
	return &cfg, warnings, nil
}

func normalize(hooks []Hook, phase Phase, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i, h := range hooks {
		if strings.TrimSpace(h.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		if h.OnError == "" {
			h.OnError = OnErrorContinue
			if phase == PreExport {
				h.OnError = OnErrorFail
			}
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, h)
	}
	return out, warnings
}

// Empty reports whether no hooks are configured.
func (c *Config) Empty() bool {
	return c == nil || len(c.Hooks.PreExport)+len(c.Hooks.PostExport) == 0
}

// For returns the hooks of phase.
func (c *Config) For(phase Phase) []Hook {
	if c == nil {
		return nil
	}
	switch phase {
	case PreExport:
		return c.Hooks.PreExport
	case PostExport:
		return c.Hooks.PostExport
	}
	return nil
}

// UnmarshalYAML accepts timeouts as durations ("5s") or bare seconds.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	type hookDTO struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}
	var dto hookDTO
	if err := node.Decode(&dto); err != nil {
		return err
	}
	*h = Hook{Name: dto.Name, Command: dto.Command, Env: dto.Env, OnError: dto.OnError}

	if dto.Timeout == "" {
		return nil
	}
	d, err := time.ParseDuration(dto.Timeout)
	if err == nil {
		h.Timeout = d
		return nil
	}
	var seconds float64
	if _, scanErr := fmt.Sscanf(dto.Timeout, "%f", &seconds); scanErr != nil {
		return fmt.Errorf("invalid timeout %q: %w", dto.Timeout, err)
	}
	h.Timeout = time.Duration(seconds * float64(time.Second))
	return nil
}
