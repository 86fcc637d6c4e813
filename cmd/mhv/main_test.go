package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/mhviz/pkg/config"
	"github.com/vanderheijden86/mhviz/pkg/dashboard"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/testutil"
)

// runCLI runs mhv offline against the sample datasets.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	data := testutil.WriteSampleData(t)
	base := []string{
		"-config", filepath.Join(t.TempDir(), "missing.yaml"),
		"-data", data.Dir,
		"-offline",
	}
	var stdout, stderr bytes.Buffer
	code := run(append(base, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "mhv v") {
		t.Errorf("unexpected version output %q", stdout.String())
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"-help"}, 0},
		{"unknown flag", []string{"-bogus"}, 2},
		{"positional argument", []string{"extra"}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tc.args, &stdout, &stderr); code != tc.want {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tc.want, stderr.String())
			}
		})
	}
}

func TestRun_BadSelection(t *testing.T) {
	code, _, stderr := runCLI(t, "-select", "planet:Mars")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	testutil.AssertContains(t, stderr, "invalid selection")
}

func TestRun_DefaultSummary(t *testing.T) {
	code, stdout, stderr := runCLI(t)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	testutil.AssertContains(t, stdout,
		"# Mental health, GDP and alcohol",
		"| Year | 2014 |",
		"| Selection | none |",
		"## Schizophrenia (GDP ≥ ",
	)
}

func TestRun_SummaryWithSelection(t *testing.T) {
	code, stdout, stderr := runCLI(t, "-summary", "-select", "country:NOR", "-year", "2010", "-issue", "Depression")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	testutil.AssertContains(t, stdout,
		"| Year | 2010 |",
		"| Issue | Depression |",
		"| Selection | Norway |",
		"Emphasized: NOR.",
	)
}

func TestRun_Bins(t *testing.T) {
	code, stdout, stderr := runCLI(t, "-bins", "-select", "country:NOR")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	testutil.AssertContains(t, stdout, "GDP range", "◀", "Reference: Norway: 7.5 L")
	if strings.Contains(stdout, "# Mental health") {
		t.Error("-bins alone should not print the summary")
	}
}

func TestRun_Exports(t *testing.T) {
	out := t.TempDir()
	code, stdout, stderr := runCLI(t,
		"-export", filepath.Join(out, "charts"),
		"-format", "all",
		"-sqlite", filepath.Join(out, "mhv.sqlite3"),
		"-xlsx", filepath.Join(out, "mhv.xlsx"),
		"-pdf", filepath.Join(out, "report.pdf"),
		"-summary-out", filepath.Join(out, "summary.md"),
		"-select", "continent:Europe",
	)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}

	for _, name := range []string{
		"charts/scatter_2014_schizophrenia.svg",
		"charts/scatter_2014_schizophrenia.png",
		"charts/histogram_2014_schizophrenia.svg",
		"charts/radial_2014_schizophrenia.png",
		"mhv.sqlite3",
		"mhv.xlsx",
		"report.pdf",
		"summary.md",
	} {
		path := filepath.Join(out, name)
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("expected %s to be written: %v", name, err)
		}
		if !strings.Contains(stdout, path) {
			t.Errorf("expected stdout to report %s", path)
		}
	}

	md, _ := os.ReadFile(filepath.Join(out, "summary.md"))
	testutil.AssertContains(t, string(md), "| Selection | Europe |")
}

func TestRun_ExportHooks(t *testing.T) {
	out := t.TempDir()
	marker := filepath.Join(out, "hooked.txt")
	hooksFile := filepath.Join(out, "hooks.yaml")
	yaml := "hooks:\n" +
		"  post-export:\n" +
		"    - name: record\n" +
		"      command: echo \"$MHV_EXPORT_FORMAT $MHV_YEAR\" > " + marker + "\n"
	if err := os.WriteFile(hooksFile, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runCLI(t, "-hooks", hooksFile, "-xlsx", filepath.Join(out, "mhv.xlsx"))
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	got, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("post-export hook did not run: %v", err)
	}
	if strings.TrimSpace(string(got)) != "xlsx 2014" {
		t.Errorf("hook saw %q", got)
	}

	os.Remove(marker)
	code, _, _ = runCLI(t, "-hooks", hooksFile, "-no-hooks", "-xlsx", filepath.Join(out, "mhv.xlsx"))
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("-no-hooks should skip hooks")
	}
}

func TestRun_PreExportHookCancels(t *testing.T) {
	out := t.TempDir()
	hooksFile := filepath.Join(out, "hooks.yaml")
	if err := os.WriteFile(hooksFile, []byte("hooks:\n  pre-export:\n    - name: gate\n      command: exit 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(out, "report.pdf")
	code, _, stderr := runCLI(t, "-hooks", hooksFile, "-pdf", target)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	testutil.AssertContains(t, stderr, `pre-export hook "gate" failed`)
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("a failing pre-export hook should cancel the export")
	}
}

func TestRun_BadFormat(t *testing.T) {
	code, _, stderr := runCLI(t, "-export", t.TempDir(), "-format", "gif")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	testutil.AssertContains(t, stderr, "unsupported format")
}

func TestRun_MissingData(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-config", filepath.Join(t.TempDir(), "missing.yaml"),
		"-data", filepath.Join(t.TempDir(), "nowhere"),
		"-offline",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("failed datasets should not be fatal, got exit code %d", code)
	}
	testutil.AssertContains(t, stderr.String(), "mental dataset", "failed to load")
	testutil.AssertContains(t, stdout.String(), "No countries match the current parameters.")
}

func TestParams(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-year", "1990", "-max-gdp", "40000"}, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	p := opts.params(model.DefaultParams())
	if p.Year != model.FirstYear {
		t.Errorf("year should clamp to %d, got %d", model.FirstYear, p.Year)
	}
	if p.GDPCeiling != 40000 || p.Issue != model.DefaultIssue {
		t.Errorf("unexpected params %+v", p)
	}
	if opts.hasAction() {
		t.Error("parameter flags are not actions")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Data.Dir = "/srv/data"
	cfg.Server.Addr = "0.0.0.0:9000"
	if err := config.SaveTo(cfg, path); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.DataDirEnvVar, "")

	var stderr bytes.Buffer
	opts, _ := parseFlags([]string{"-config", path, "-offline", "-watch"}, &stderr)
	got, err := loadConfig(opts)
	if err != nil {
		t.Fatal(err)
	}
	if got.Data.Dir != "/srv/data" || got.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("config file not applied: %+v", got)
	}
	if !got.Metadata.Disabled || !got.Metadata.OfflineFallback || !got.Server.Watch {
		t.Errorf("flag overrides not applied: %+v", got)
	}

	opts, _ = parseFlags([]string{"-config", path, "-data", "here", "-addr", ":1234"}, &stderr)
	got, _ = loadConfig(opts)
	if got.Data.Dir != "here" || got.Server.Addr != ":1234" {
		t.Errorf("flags should override the config file: %+v", got)
	}
}

func TestNewServer_LandingState(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data = testutil.WriteSampleData(t)
	cfg.Metadata.Disabled = true
	cfg.Metadata.OfflineFallback = true
	logger := log.New(io.Discard, "", 0)
	store, err := loadStore(context.Background(), cfg, logger, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	opts, _ := parseFlags([]string{"-serve", "-year", "2010", "-issue", "Depression", "-select", "country:NOR"}, &stderr)
	sel, err := model.ParseSelection(opts.selection)
	if err != nil {
		t.Fatal(err)
	}
	st := dashboard.State{Params: opts.params(cfg.Defaults), Selection: sel}
	srv, err := newServer(cfg, store, st, logger)
	if err != nil {
		t.Fatal(err)
	}

	stateAt := func(target string) dashboard.StateResponse {
		t.Helper()
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		var resp dashboard.StateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: %v", target, err)
		}
		return resp
	}

	landing := stateAt("/api/state")
	if landing.Params.Year != 2010 || landing.Params.Issue != "Depression" {
		t.Errorf("landing params = %+v, want the flag values", landing.Params)
	}
	if landing.Selection != "country:NOR" {
		t.Errorf("landing selection = %q, want country:NOR", landing.Selection)
	}

	changed := stateAt("/api/state?year=2012&sel=")
	if changed.Selection != "" || changed.Params.Issue != "Depression" {
		t.Errorf("after a control change got selection %q params %+v", changed.Selection, changed.Params)
	}
}

func TestPermalink(t *testing.T) {
	st := dashboard.State{Params: model.DefaultParams(), Selection: model.Country("NOR")}
	link := permalink(":8080", st)
	if !strings.HasPrefix(link, "http://localhost:8080/?") {
		t.Errorf("unexpected permalink %q", link)
	}
	testutil.AssertContains(t, link, "sel=country%3ANOR", "year=2014")
}

func TestCell(t *testing.T) {
	tests := []struct {
		s     string
		w     int
		right bool
		want  string
	}{
		{"abc", 5, false, "abc  "},
		{"abc", 5, true, "  abc"},
		{"abcdefgh", 5, false, "abcd…"},
		{"日本", 6, false, "日本  "},
	}
	for _, tc := range tests {
		got := cell(tc.s, tc.w, tc.right)
		if got != tc.want {
			t.Errorf("cell(%q, %d, %v) = %q, want %q", tc.s, tc.w, tc.right, got, tc.want)
		}
		if runewidth.StringWidth(got) != tc.w {
			t.Errorf("cell(%q) has width %d, want %d", tc.s, runewidth.StringWidth(got), tc.w)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	for in, ok := range map[string]bool{"0": true, "90000": true, "12.5": true, "-1": false, "lots": false} {
		if err := validateAmount(in); (err == nil) != ok {
			t.Errorf("validateAmount(%q) = %v", in, err)
		}
	}
}
