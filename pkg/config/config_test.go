package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Defaults.Year != 2014 {
		t.Errorf("expected default year 2014, got %d", cfg.Defaults.Year)
	}
	if cfg.Defaults.Issue != "Schizophrenia" {
		t.Errorf("expected default issue Schizophrenia, got %q", cfg.Defaults.Issue)
	}
	if cfg.Defaults.GDPCeiling != 90000 {
		t.Errorf("expected GDP ceiling 90000, got %f", cfg.Defaults.GDPCeiling)
	}
	if cfg.Charts.BinCount != 20 {
		t.Errorf("expected 20 bins, got %d", cfg.Charts.BinCount)
	}
	if cfg.Metadata.Timeout != 10*time.Second {
		t.Errorf("expected 10s metadata timeout, got %v", cfg.Metadata.Timeout)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	t.Setenv(DataDirEnvVar, "")
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Data.Mental != "MentalDisorder_Age.csv" {
		t.Errorf("expected default config, got mental file %q", cfg.Data.Mental)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	t.Setenv(DataDirEnvVar, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
data:
  dir: ~/datasets
  alcohol: /abs/alcohol.xlsx
defaults:
  year: 2010
  issue: Depression
metadata:
  timeout: 3s
  offline_fallback: true
charts:
  bin_count: 0
server:
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "datasets"); cfg.Data.Dir != want {
		t.Errorf("expected expanded dir %q, got %q", want, cfg.Data.Dir)
	}
	if cfg.Data.GDP != "gdp_ppp_per_capita.csv" {
		t.Errorf("unset fields should keep defaults, got %q", cfg.Data.GDP)
	}
	if got := cfg.Data.Path(cfg.Data.Alcohol); got != "/abs/alcohol.xlsx" {
		t.Errorf("absolute paths must be preserved, got %q", got)
	}
	if cfg.Defaults.Year != 2010 || cfg.Defaults.Issue != "Depression" {
		t.Errorf("unexpected defaults %+v", cfg.Defaults)
	}
	if cfg.Defaults.GDPCeiling != 90000 {
		t.Errorf("GDP ceiling should keep its default, got %f", cfg.Defaults.GDPCeiling)
	}
	if cfg.Metadata.Timeout != 3*time.Second || !cfg.Metadata.OfflineFallback {
		t.Errorf("unexpected metadata config %+v", cfg.Metadata)
	}
	if cfg.Charts.BinCount != 20 {
		t.Errorf("non-positive bin count should reset to 20, got %d", cfg.Charts.BinCount)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %q", cfg.Server.Addr)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestDataDirEnvOverride(t *testing.T) {
	t.Setenv(DataDirEnvVar, "/srv/mhv")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Data.Dir != "/srv/mhv" {
		t.Errorf("expected env override, got %q", cfg.Data.Dir)
	}
	files := cfg.Data.Files()
	if len(files) != 4 || files[0] != "/srv/mhv/MentalDisorder_Age.csv" {
		t.Errorf("unexpected files %v", files)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	t.Setenv(DataDirEnvVar, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Data.Dir = "/data"
	cfg.Defaults.Year = 2005
	cfg.Server.Watch = true

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}
	if loaded.Data.Dir != "/data" || loaded.Defaults.Year != 2005 || !loaded.Server.Watch {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if loaded.Metadata.Timeout != cfg.Metadata.Timeout {
		t.Errorf("timeout round trip: got %v", loaded.Metadata.Timeout)
	}
}

func TestFlagURLFor(t *testing.T) {
	c := DefaultConfig().Charts
	if got := c.FlagURLFor("NO"); got != "https://flagsapi.com/NO/shiny/64.png" {
		t.Errorf("unexpected flag url %q", got)
	}
}
