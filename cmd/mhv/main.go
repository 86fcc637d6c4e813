package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"

	"github.com/vanderheijden86/mhviz/pkg/config"
	"github.com/vanderheijden86/mhviz/pkg/dashboard"
	"github.com/vanderheijden86/mhviz/pkg/debug"
	"github.com/vanderheijden86/mhviz/pkg/export"
	"github.com/vanderheijden86/mhviz/pkg/hooks"
	"github.com/vanderheijden86/mhviz/pkg/loader"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/render"
	"github.com/vanderheijden86/mhviz/pkg/version"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cliOptions holds the parsed command line.
type cliOptions struct {
	configPath string
	dataDir    string
	offline    bool
	cpuProfile string
	version    bool

	serve bool
	addr  string
	watch bool
	copy  bool

	exportDir   string
	format      string
	sqlitePath  string
	xlsxPath    string
	pdfPath     string
	summary     bool
	summaryPath string
	bins        bool
	interactive bool
	hooksPath   string
	noHooks     bool

	year      int
	issue     string
	maxGDP    float64
	minGDP    float64
	selection string

	set map[string]bool // flags given explicitly
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	o := &cliOptions{}
	fs := flag.NewFlagSet("mhv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configPath, "config", "", "Config file (default: ~/.config/mhv/config.yaml)")
	fs.StringVar(&o.dataDir, "data", "", "Directory holding the four dataset files")
	fs.BoolVar(&o.offline, "offline", false, "Skip the country metadata API and use the built-in country table")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&o.version, "version", false, "Show version")

	fs.BoolVar(&o.serve, "serve", false, "Serve the interactive dashboard")
	fs.StringVar(&o.addr, "addr", "", "Dashboard listen address (default from config)")
	fs.BoolVar(&o.watch, "watch", false, "Reload datasets when a data file changes (with -serve)")
	fs.BoolVar(&o.copy, "copy", false, "Copy the dashboard permalink for the current state to the clipboard")

	fs.StringVar(&o.exportDir, "export", "", "Write chart snapshots to `DIR`")
	fs.StringVar(&o.format, "format", "svg", "Snapshot format: svg, png or all")
	fs.StringVar(&o.sqlitePath, "sqlite", "", "Write chart data to a SQLite database at `PATH`")
	fs.StringVar(&o.xlsxPath, "xlsx", "", "Write chart data to an XLSX workbook at `PATH`")
	fs.StringVar(&o.pdfPath, "pdf", "", "Write a PDF report to `PATH`")
	fs.BoolVar(&o.summary, "summary", false, "Print a markdown summary of the charts")
	fs.StringVar(&o.summaryPath, "summary-out", "", "Write the markdown summary to `PATH`")
	fs.BoolVar(&o.bins, "bins", false, "Print the histogram bins as a table")
	fs.BoolVar(&o.interactive, "interactive", false, "Choose parameters and selection with prompts")
	fs.StringVar(&o.hooksPath, "hooks", "", "Export hooks file (default: ~/.config/mhv/hooks.yaml)")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "Skip export hooks")

	fs.IntVar(&o.year, "year", 0, "Year to display")
	fs.StringVar(&o.issue, "issue", "", "Mental health issue column")
	fs.Float64Var(&o.maxGDP, "max-gdp", 0, "GDP per capita ceiling")
	fs.Float64Var(&o.minGDP, "min-gdp", 0, "Radial chart GDP floor")
	fs.StringVar(&o.selection, "select", "", "Selection: country:NOR, continent:Europe or bin:X0~X1")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: mhv [options]")
		fmt.Fprintln(stderr, "\nMental health prevalence, GDP and alcohol consumption charts.")
		fmt.Fprintln(stderr, "Without an action flag, prints the markdown summary.")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// hasAction reports whether any output flag was given.
func (o *cliOptions) hasAction() bool {
	return o.serve || o.exportDir != "" || o.sqlitePath != "" || o.xlsxPath != "" ||
		o.pdfPath != "" || o.summary || o.summaryPath != "" || o.bins || o.copy
}

// params applies the parameter flags over defaults.
func (o *cliOptions) params(defaults model.Params) model.Params {
	p := defaults
	if o.set["year"] {
		p.Year = o.year
	}
	if o.set["issue"] {
		p.Issue = o.issue
	}
	if o.set["max-gdp"] {
		p.GDPCeiling = o.maxGDP
	}
	if o.set["min-gdp"] {
		p.RadialMinGDP = o.minGDP
	}
	return p.Normalize()
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "mhv %s\n", version.Version)
		return 0
	}

	// CPU profiling support
	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", err)
	}

	sel, err := model.ParseSelection(opts.selection)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	params := opts.params(cfg.Defaults)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(stderr, "mhv: ", log.LstdFlags)
	store, err := loadStore(ctx, cfg, logger, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading datasets: %v\n", err)
		return 1
	}
	snap, err := store.Snapshot()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, r := range snap.Failed() {
		fmt.Fprintf(stderr, "Warning: %s dataset (%s) failed to load: %v\n", r.Kind, r.Path, r.Error)
	}

	if opts.interactive {
		params, sel, err = promptState(snap, params, sel)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	debug.Dump("params", params)

	st := dashboard.State{Params: params, Selection: sel}
	if opts.copy {
		link := permalink(cfg.Server.Addr, st)
		if err := clipboard.WriteAll(link); err != nil {
			fmt.Fprintf(stderr, "Warning: could not copy to clipboard: %v\n", err)
			fmt.Fprintln(stdout, link)
		} else {
			fmt.Fprintf(stdout, "Copied %s to clipboard\n", link)
		}
	}

	if opts.serve {
		srv, err := newServer(cfg, store, st, logger)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return serve(ctx, srv, cfg, store, logger, stderr)
	}

	v := views.Derive(snap.Datasets, params, cfg.Charts.BinCount)
	frame := render.NewFrame(v, sel, snap.Metadata.ContinentMap())
	if err := writeOutputs(ctx, opts, cfg, snap, frame, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(opts *cliOptions) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if opts.dataDir != "" {
		cfg.Data.Dir = opts.dataDir
	}
	if opts.offline {
		cfg.Metadata.Disabled = true
		cfg.Metadata.OfflineFallback = true
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.watch {
		cfg.Server.Watch = true
	}
	return cfg, err
}

// loadStore resolves country metadata and loads the datasets, showing a
// spinner on terminals.
func loadStore(ctx context.Context, cfg config.Config, logger *log.Logger, stderr io.Writer) (*dashboard.Store, error) {
	l := loader.New(cfg.Data)
	l.SetLogger(logger)
	mc := loader.NewMetadataClient(cfg.Metadata)
	mc.SetLogger(logger)

	var store *dashboard.Store
	err := withSpinner(stderr, "Loading datasets", func() error {
		store = dashboard.NewStore(l, mc.Resolve(ctx))
		store.SetLogger(logger)
		return store.Reload(ctx)
	})
	return store, err
}

// newServer builds the dashboard so its landing page shows st, the state
// given by the parameter and selection flags.
func newServer(cfg config.Config, store *dashboard.Store, st dashboard.State, logger *log.Logger) (*dashboard.Server, error) {
	cfg.Defaults = st.Params
	srv, err := dashboard.NewServer(store, cfg)
	if err != nil {
		return nil, err
	}
	srv.SetLogger(logger)
	srv.SetLandingSelection(st.Selection)
	return srv, nil
}

func serve(ctx context.Context, srv *dashboard.Server, cfg config.Config, store *dashboard.Store, logger *log.Logger, stderr io.Writer) int {
	if cfg.Server.Watch {
		w, err := dashboard.Watch(ctx, store, cfg.Data.Files())
		if err != nil {
			fmt.Fprintf(stderr, "Warning: file watching disabled: %v\n", err)
		} else if w.IsPolling() {
			logger.Printf("watching %d data files (polling)", len(w.Paths()))
		} else {
			logger.Printf("watching %d data files", len(w.Paths()))
		}
	}

	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// writesFiles reports whether any file output flag was given.
func (o *cliOptions) writesFiles() bool {
	return o.exportDir != "" || o.sqlitePath != "" || o.xlsxPath != "" || o.pdfPath != "" || o.summaryPath != ""
}

// exportContext describes the file outputs of o for export hooks.
func (o *cliOptions) exportContext(frame render.Frame) hooks.ExportContext {
	var path string
	var formats []string
	add := func(p, format string) {
		if p == "" {
			return
		}
		if path == "" {
			path = p
		}
		formats = append(formats, format)
	}
	if o.exportDir != "" {
		add(o.exportDir, o.format)
	}
	add(o.sqlitePath, "sqlite")
	add(o.xlsxPath, "xlsx")
	add(o.pdfPath, "pdf")
	add(o.summaryPath, "markdown")

	p := frame.Views.Params
	return hooks.ExportContext{
		ExportPath:   path,
		ExportFormat: strings.Join(formats, ","),
		CountryCount: len(frame.Views.Scatter.Points),
		Year:         p.Year,
		Issue:        p.Issue,
	}
}

// loadHooks returns the export hook executor, or nil when hooks are
// disabled or none are configured.
func loadHooks(opts *cliOptions, frame render.Frame, stderr io.Writer) (*hooks.Executor, error) {
	if opts.noHooks || !opts.writesFiles() {
		return nil, nil
	}
	path := opts.hooksPath
	if path == "" {
		path = hooks.DefaultPath()
	}
	hc, warnings, err := hooks.Load(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}
	if hc.Empty() {
		return nil, nil
	}
	return hooks.NewExecutor(hc, opts.exportContext(frame)), nil
}

// writeOutputs writes every requested file and terminal output for frame,
// running export hooks around the file outputs. With no action flag the
// markdown summary is printed.
func writeOutputs(ctx context.Context, opts *cliOptions, cfg config.Config, snap *dashboard.Snapshot, frame render.Frame, stdout, stderr io.Writer) error {
	renderOpts := dashboard.RenderOptions(cfg.Charts, snap.Metadata, nil)

	ex, err := loadHooks(opts, frame, stderr)
	if err != nil {
		return err
	}
	if ex != nil {
		if err := ex.RunPreExport(ctx); err != nil {
			fmt.Fprint(stderr, ex.Summary())
			return err
		}
	}

	if err := writeFiles(opts, renderOpts, frame, stdout); err != nil {
		return err
	}

	if ex != nil {
		err := ex.RunPostExport(ctx)
		if err != nil || debug.Enabled() {
			fmt.Fprint(stderr, ex.Summary())
		}
		if err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	}

	if opts.bins {
		fmt.Fprint(stdout, binTable(frame, terminalWidth(stdout)))
	}
	if opts.summary || !opts.hasAction() {
		md := export.GenerateSummary(frame, export.DefaultSummaryConfig())
		if err := printMarkdown(stdout, md); err != nil {
			return err
		}
	}
	return nil
}

func writeFiles(opts *cliOptions, renderOpts render.Options, frame render.Frame, stdout io.Writer) error {
	if opts.exportDir != "" {
		formats, err := export.ParseFormats(opts.format)
		if err != nil {
			return err
		}
		paths, err := export.SaveSnapshots(frame, renderOpts, export.SnapshotOptions{Dir: opts.exportDir, Formats: formats})
		if err != nil {
			return fmt.Errorf("export snapshots: %w", err)
		}
		for _, p := range paths {
			fmt.Fprintf(stdout, "Wrote %s\n", p)
		}
	}
	if opts.sqlitePath != "" {
		if err := export.NewSQLiteExporter(frame).Export(opts.sqlitePath); err != nil {
			return fmt.Errorf("export sqlite: %w", err)
		}
		fmt.Fprintf(stdout, "Wrote %s\n", opts.sqlitePath)
	}
	if opts.xlsxPath != "" {
		if err := export.SaveXLSX(opts.xlsxPath, frame); err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
		fmt.Fprintf(stdout, "Wrote %s\n", opts.xlsxPath)
	}
	if opts.pdfPath != "" {
		if err := export.SaveReport(opts.pdfPath, frame, export.ReportOptions{Render: renderOpts}); err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
		fmt.Fprintf(stdout, "Wrote %s\n", opts.pdfPath)
	}
	if opts.summaryPath != "" {
		if err := export.SaveSummary(frame, export.DefaultSummaryConfig(), opts.summaryPath); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		fmt.Fprintf(stdout, "Wrote %s\n", opts.summaryPath)
	}
	return nil
}

// permalink is the dashboard URL for st on addr.
func permalink(addr string, st dashboard.State) string {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	u := url.URL{Scheme: "http", Host: host, Path: "/", RawQuery: st.Query().Encode()}
	return u.String()
}
