package hooks

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeHooksFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hooks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write hooks.yaml: %v", err)
	}
	return path
}

func TestExportContextToEnv(t *testing.T) {
	ec := ExportContext{
		ExportPath:   "/tmp/charts",
		ExportFormat: "svg,png",
		CountryCount: 42,
		Year:         2014,
		Issue:        "Depression",
		Timestamp:    time.Date(2025, 11, 30, 10, 30, 0, 0, time.UTC),
	}
	env := ec.ToEnv()
	for _, want := range []string{
		"MHV_EXPORT_PATH=/tmp/charts",
		"MHV_EXPORT_FORMAT=svg,png",
		"MHV_COUNTRY_COUNT=42",
		"MHV_YEAR=2014",
		"MHV_ISSUE=Depression",
		"MHV_TIMESTAMP=2025-11-30T10:30:00Z",
	} {
		if !slices.Contains(env, want) {
			t.Errorf("missing %s in %v", want, env)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, warnings, err := Load(filepath.Join(t.TempDir(), "hooks.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing config, got: %v", err)
	}
	if !cfg.Empty() || len(warnings) != 0 {
		t.Errorf("expected no hooks, got %+v %v", cfg, warnings)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeHooksFile(t, `
hooks:
  pre-export:
    - command: echo pre
    - name: blank
      command: "   "
  post-export:
    - name: publish
      command: echo post
      timeout: 5s
    - command: echo slow
      timeout: 2
`)
	cfg, warnings, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "empty command") {
		t.Errorf("expected one empty command warning, got %v", warnings)
	}

	pre := cfg.For(PreExport)
	if len(pre) != 1 {
		t.Fatalf("expected 1 pre-export hook, got %d", len(pre))
	}
	if pre[0].Name != "pre-export-1" || pre[0].OnError != OnErrorFail || pre[0].Timeout != DefaultTimeout {
		t.Errorf("pre-export defaults not applied: %+v", pre[0])
	}

	post := cfg.For(PostExport)
	if len(post) != 2 {
		t.Fatalf("expected 2 post-export hooks, got %d", len(post))
	}
	if post[0].Timeout != 5*time.Second || post[0].OnError != OnErrorContinue {
		t.Errorf("unexpected post-export hook %+v", post[0])
	}
	if post[1].Timeout != 2*time.Second {
		t.Errorf("bare seconds timeout: got %v", post[1].Timeout)
	}
	if cfg.For(Phase("mid-export")) != nil {
		t.Error("unknown phase should have no hooks")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeHooksFile(t, "hooks: [unclosed")
	if _, _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestHookUnmarshalYAML_InvalidTimeout(t *testing.T) {
	var h Hook
	if err := yaml.Unmarshal([]byte("command: echo\ntimeout: soon\n"), &h); err == nil {
		t.Error("expected error for invalid timeout")
	}
}

func TestExecutor_RunsWithExportEnv(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PostExport: []Hook{{
		Name:    "env",
		Command: `echo "$MHV_EXPORT_PATH $MHV_COUNTRY_COUNT $TARGET"`,
		Env:     map[string]string{"TARGET": "${MHV_ISSUE}-out"},
		Timeout: 5 * time.Second,
		OnError: OnErrorFail,
	}}}}
	ex := NewExecutor(cfg, ExportContext{ExportPath: "/custom/path", CountryCount: 99, Issue: "Anxiety"})
	if err := ex.RunPostExport(context.Background()); err != nil {
		t.Fatal(err)
	}
	res := ex.Results()
	if len(res) != 1 || !res[0].Success {
		t.Fatalf("expected one successful run, got %+v", res)
	}
	if res[0].Stdout != "/custom/path 99 Anxiety-out" {
		t.Errorf("unexpected stdout %q", res[0].Stdout)
	}
}

func TestExecutor_PreExportStopsOnFail(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PreExport: []Hook{
		{Name: "fail", Command: "echo broken >&2; exit 3", Timeout: time.Second, OnError: OnErrorFail},
		{Name: "never", Command: "echo no", Timeout: time.Second, OnError: OnErrorFail},
	}}}
	ex := NewExecutor(cfg, ExportContext{})
	if err := ex.RunPreExport(context.Background()); err == nil {
		t.Fatal("expected error for failing pre-export hook")
	}
	res := ex.Results()
	if len(res) != 1 || res[0].Success || res[0].Stderr != "broken" {
		t.Errorf("expected the run to stop after the failing hook, got %+v", res)
	}
}

func TestExecutor_PostExportRunsAll(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PostExport: []Hook{
		{Name: "soft", Command: "exit 1", Timeout: time.Second, OnError: OnErrorContinue},
		{Name: "hard", Command: "exit 1", Timeout: time.Second, OnError: OnErrorFail},
		{Name: "ok", Command: "echo ok", Timeout: time.Second, OnError: OnErrorContinue},
	}}}
	ex := NewExecutor(cfg, ExportContext{})
	err := ex.RunPostExport(context.Background())
	if err == nil || !strings.Contains(err.Error(), `"hard"`) || strings.Contains(err.Error(), `"soft"`) {
		t.Errorf("expected only the fail-policy hook in the error, got %v", err)
	}
	res := ex.Results()
	if len(res) != 3 || res[2].Stdout != "ok" {
		t.Errorf("expected every hook to run, got %+v", res)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PreExport: []Hook{
		{Name: "sleep", Command: "sleep 5", Timeout: 100 * time.Millisecond, OnError: OnErrorFail},
	}}}
	ex := NewExecutor(cfg, ExportContext{})
	err := ex.RunPreExport(context.Background())
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
	res := ex.Results()[0]
	if res.Success || res.Duration < 100*time.Millisecond || res.Duration > 3*time.Second {
		t.Errorf("unexpected timeout result %+v", res)
	}
}

func TestExecutor_Summary(t *testing.T) {
	ex := NewExecutor(nil, ExportContext{})
	if got := ex.Summary(); got != "No hooks executed" {
		t.Errorf("empty summary = %q", got)
	}

	cfg := &Config{Hooks: ByPhase{PostExport: []Hook{
		{Name: "noisy", Command: "printf '%0500d' 0 >&2; exit 1", Timeout: time.Second, OnError: OnErrorContinue},
	}}}
	ex = NewExecutor(cfg, ExportContext{})
	_ = ex.RunPostExport(context.Background())
	summary := ex.Summary()
	if !strings.Contains(summary, "1 run, 1 failed") || !strings.Contains(summary, "noisy: FAILED") {
		t.Errorf("unexpected summary:\n%s", summary)
	}
	if strings.Contains(summary, strings.Repeat("0", 300)) {
		t.Error("stderr should be truncated in the summary")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate should keep short strings, got %q", got)
	}
	if got := truncate("abcdefghijklmnopqrstuvwxyz", 8); got != "abcde..." {
		t.Errorf("unexpected truncation output: %q", got)
	}
}
