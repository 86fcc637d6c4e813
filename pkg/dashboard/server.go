package dashboard

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/mhviz/pkg/config"
	"github.com/vanderheijden86/mhviz/pkg/debug"
	"github.com/vanderheijden86/mhviz/pkg/loader"
	"github.com/vanderheijden86/mhviz/pkg/metrics"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/render"
	"github.com/vanderheijden86/mhviz/pkg/version"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

//go:embed assets
var assets embed.FS

// Server renders the dashboard from a Store.
type Server struct {
	store   *Store
	cfg     config.Config
	page    *template.Template
	logger  *log.Logger
	router  chi.Router
	landing model.Selection
}

// NewServer builds the router and parses the page template.
func NewServer(store *Store, cfg config.Config) (*Server, error) {
	page, err := template.New("_root").Funcs(template.FuncMap{
		"formatNumber": render.FormatNumber,
	}).ParseFS(assets, "assets/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}

	s := &Server{
		store:  store,
		cfg:    cfg,
		page:   page,
		logger: log.New(io.Discard, "", 0),
	}
	s.router = s.routes()
	return s, nil
}

// SetLogger sets a custom logger for request logging.
func (s *Server) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// SetLandingSelection sets the selection of a request without query
// parameters. Any query, including a control panel change, replaces it.
func (s *Server) SetLandingSelection(sel model.Selection) {
	s.landing = sel
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	static, _ := fs.Sub(assets, "assets")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", s.handleIndex)
	r.Get("/charts/{chart}.{format}", s.handleChart)
	r.Get("/api/state", s.handleState)
	r.Get("/debug/metrics", s.handleMetrics)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer metrics.TimerWithCallback(metrics.Request, func(d time.Duration) {
			s.logger.Printf("%s %s %d %s", r.Method, r.URL.RequestURI(), ww.Status(), d.Round(time.Microsecond))
		})()
		next.ServeHTTP(ww, r)
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("dashboard listening on http://%s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// request resolves the snapshot and state of r, writing the error response
// itself when either is unavailable.
func (s *Server) request(w http.ResponseWriter, r *http.Request) (*Snapshot, State, bool) {
	snap, err := s.store.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return nil, State{}, false
	}
	q := r.URL.Query()
	st, err := ParseState(q, s.cfg.Defaults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, State{}, false
	}
	if len(q) == 0 {
		st.Selection = s.landing
		if s.landing.Kind == model.SelectContinent {
			st.Continent = s.landing.Continent
		}
	}
	return snap, st, true
}

func (s *Server) frame(snap *Snapshot, st State) render.Frame {
	v := views.Derive(snap.Datasets, st.Params, s.cfg.Charts.BinCount)
	debug.Log("frame generation=%d sel=%q continent=%q", snap.Generation, st.Selection, st.Continent)
	return render.NewFrame(v, st.Selection, snap.Metadata.ContinentMap())
}

func (s *Server) options(snap *Snapshot, st State) render.Options {
	return RenderOptions(s.cfg.Charts, snap.Metadata, func(sel model.Selection) string {
		return st.Href("/", sel)
	})
}

// RenderOptions builds chart options with flag images resolved through md.
// href may be nil for charts without links.
func RenderOptions(cfg config.ChartConfig, md *loader.Metadata, href func(model.Selection) string) render.Options {
	opts := render.DefaultOptions(cfg)
	if cfg.FlagURL != "" {
		opts.FlagURL = func(code string) string {
			a2 := md.Alpha2(code)
			if a2 == "" {
				return ""
			}
			return cfg.FlagURLFor(a2)
		}
	}
	opts.Href = href
	return opts
}

type chartPanel struct {
	ID      string
	Title   string
	SVG     template.HTML
	SVGHref string
	PNGHref string
}

type failedLoad struct {
	Kind, Path, Err string
}

type pageData struct {
	Title          string
	State          State
	Controls       views.Controls
	Charts         []chartPanel
	Failed         []failedLoad
	SelectionLabel string
	Active         bool
	ContinentValue string
	CountryValue   string
	YearMin        int
	YearMax        int
	ResetHref      string
	StateHref      string
	TransitionMs   int
	Generation     int
	Version        string
}

var chartTitles = map[render.Chart]struct{ id, title string }{
	render.ChartScatter:   {"chart", "Prevalence vs. GDP per capita"},
	render.ChartHistogram: {"histogram", "Alcohol consumption by GDP per capita"},
	render.ChartRadial:    {"radial-chart", "Prevalence by age group"},
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, st, ok := s.request(w, r)
	if !ok {
		return
	}
	f := s.frame(snap, st)
	opts := s.options(snap, st)

	data := pageData{
		Title:          "Mental health, GDP and alcohol",
		State:          st,
		Controls:       views.BuildControls(snap.Datasets, snap.Metadata, st.Params, st.Continent),
		SelectionLabel: selectionLabel(st.Selection, snap),
		Active:         !st.Selection.IsNone(),
		ContinentValue: views.AllContinents,
		CountryValue:   st.SelectedCountry(),
		ResetHref:      st.Href("/", model.None()),
		StateHref:      st.Href("/api/state", st.Selection),
		TransitionMs:   s.cfg.Charts.TransitionMsec,
		Generation:     snap.Generation,
		Version:        version.Version,
	}
	if st.Continent != "" {
		data.ContinentValue = st.Continent
	}
	data.YearMin, data.YearMax = snap.Datasets.YearRange()
	for _, fl := range snap.Failed() {
		data.Failed = append(data.Failed, failedLoad{Kind: fl.Kind.String(), Path: fl.Path, Err: fl.Error.Error()})
	}

	for _, c := range render.Charts {
		var buf bytes.Buffer
		if err := render.Render(&buf, c, render.FormatSVG, f, opts); err != nil {
			http.Error(w, fmt.Sprintf("render %s: %v", c, err), http.StatusInternalServerError)
			return
		}
		meta := chartTitles[c]
		q := st.Query().Encode()
		data.Charts = append(data.Charts, chartPanel{
			ID:      meta.id,
			Title:   meta.title,
			SVG:     InlineSVG(buf.Bytes()),
			SVGHref: "/charts/" + string(c) + ".svg?" + q,
			PNGHref: "/charts/" + string(c) + ".png?" + q,
		})
	}

	var out bytes.Buffer
	if err := s.page.ExecuteTemplate(&out, "index", data); err != nil {
		http.Error(w, fmt.Sprintf("template exec error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = out.WriteTo(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	chart, err := render.ParseChart(chi.URLParam(r, "chart"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	snap, st, ok := s.request(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, chart, format, s.frame(snap, st), s.options(snap, st)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if format == render.FormatPNG {
		w.Header().Set("Content-Type", "image/png")
	} else {
		w.Header().Set("Content-Type", "image/svg+xml")
	}
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, st, ok := s.request(w, r)
	if !ok {
		return
	}
	writeJSON(w, NewStateResponse(st, s.frame(snap, st), snap))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"enabled": metrics.Enabled(),
		"timings": metrics.AllTimingStats(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// InlineSVG strips the XML prolog and generator comment so an SVG document
// can be embedded in HTML.
func InlineSVG(doc []byte) template.HTML {
	if i := bytes.Index(doc, []byte("<svg")); i > 0 {
		doc = doc[i:]
	}
	return template.HTML(doc)
}

func selectionLabel(sel model.Selection, snap *Snapshot) string {
	switch sel.Kind {
	case model.SelectCountry:
		if c, ok := snap.Metadata.Lookup(sel.Code); ok {
			return c.Name
		}
		return sel.Code
	case model.SelectContinent:
		return sel.Continent
	case model.SelectBin:
		return fmt.Sprintf("GDP $%s - $%s", render.FormatNumber(sel.Bin.X0), render.FormatNumber(sel.Bin.X1))
	default:
		return "none"
	}
}
