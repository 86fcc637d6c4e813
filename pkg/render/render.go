// Package render draws the scatter, histogram and radial charts as SVG or
// PNG. Every chart is rendered in two steps: a pure layout pass that resolves
// scales, marks, tooltips and link targets, then an SVG or PNG pass that only
// paints the layout.
package render

import (
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/vanderheijden86/mhviz/pkg/config"
	"github.com/vanderheijden86/mhviz/pkg/highlight"
	"github.com/vanderheijden86/mhviz/pkg/metrics"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

// ErrUnsupportedFormat is returned for output formats other than svg and png.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ErrUnknownChart is returned for chart names other than scatter, histogram
// and radial.
var ErrUnknownChart = errors.New("unknown chart")

// Format is an output image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" or "png" in any case, with or without a dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatSVG, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q (want svg or png)", ErrUnsupportedFormat, s)
	}
}

// Chart names one of the three charts.
type Chart string

const (
	ChartScatter   Chart = "scatter"
	ChartHistogram Chart = "histogram"
	ChartRadial    Chart = "radial"
)

// Charts lists every chart in dashboard order.
var Charts = []Chart{ChartScatter, ChartHistogram, ChartRadial}

// ParseChart validates a chart name.
func ParseChart(s string) (Chart, error) {
	for _, c := range Charts {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownChart, s)
}

// Margin is the space between the SVG edge and the plot area.
type Margin struct {
	Top, Right, Bottom, Left int
}

// DefaultMargin matches the dashboard stylesheet.
var DefaultMargin = Margin{Top: 20, Right: 30, Bottom: 35, Left: 60}

// Geometry is the outer size of a chart plus its margins.
type Geometry struct {
	Width, Height int
	Margin        Margin
}

// Inner returns the plot area size.
func (g Geometry) Inner() (float64, float64) {
	return float64(g.Width - g.Margin.Left - g.Margin.Right), float64(g.Height - g.Margin.Top - g.Margin.Bottom)
}

// Options controls chart geometry and interactivity.
type Options struct {
	Scatter     Geometry
	Chart       Geometry // histogram and radial
	InnerRadius float64

	// FlagURL returns the image URL for a country's ISO3 code. When nil, or
	// when it returns "", markers are drawn as labelled tiles.
	FlagURL func(code string) string

	// Href returns the link target that applies a selection. When nil the
	// charts carry no links.
	Href func(model.Selection) string
}

// DefaultOptions derives options from chart configuration.
func DefaultOptions(cfg config.ChartConfig) Options {
	return Options{
		Scatter:     Geometry{Width: cfg.ScatterWidth, Height: cfg.Height, Margin: DefaultMargin},
		Chart:       Geometry{Width: cfg.Width, Height: cfg.Height, Margin: DefaultMargin},
		InnerRadius: float64(cfg.InnerRadius),
	}
}

func (o Options) href(sel model.Selection) string {
	if o.Href == nil {
		return ""
	}
	return html.EscapeString(o.Href(sel))
}

// Frame is everything needed to draw the charts for one dashboard state.
type Frame struct {
	Views        views.Views
	Instructions highlight.Instructions
}

// NewFrame computes the highlight instructions for sel over v.
func NewFrame(v views.Views, sel model.Selection, continents map[string]string) Frame {
	return Frame{Views: v, Instructions: highlight.Compute(sel, highlight.NewScene(v, continents))}
}

// Render draws one chart of f to w.
func Render(w io.Writer, chart Chart, format Format, f Frame, opts Options) error {
	defer metrics.Timer(metrics.Render)()

	switch format {
	case FormatSVG:
	case FormatPNG:
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}

	switch chart {
	case ChartScatter:
		l := layoutScatter(f.Views.Scatter, f.Instructions, opts)
		if format == FormatPNG {
			return scatterPNG(w, l)
		}
		return scatterSVG(w, l)
	case ChartHistogram:
		l := layoutHistogram(f.Views.Histogram, f.Instructions, opts)
		if format == FormatPNG {
			return histogramPNG(w, l)
		}
		return histogramSVG(w, l)
	case ChartRadial:
		l := layoutRadial(f.Views.Radial, opts)
		if format == FormatPNG {
			return radialPNG(w, l)
		}
		return radialSVG(w, l)
	default:
		return fmt.Errorf("%w %q", ErrUnknownChart, chart)
	}
}

// --- shared layout helpers -------------------------------------------------

type tick struct {
	Pos   float64
	Label string
}

func axisTicks(s Linear, count int, format func(float64) string) []tick {
	values := s.Ticks(count)
	out := make([]tick, len(values))
	for i, v := range values {
		out[i] = tick{Pos: s.At(v), Label: format(v)}
	}
	return out
}

// plainFormat formats tick values with just enough decimals for the tick
// step of [lo, hi].
func plainFormat(lo, hi float64, count int) func(float64) string {
	step := TickStep(lo, hi, count)
	prec := 0
	if step > 0 && step < 1 {
		prec = int(math.Ceil(-math.Log10(step) - 1e-9))
	}
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', prec, 64)
	}
}

// errWriter records the first write error; svgo and the PNG encoder helpers
// do not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

func round(v float64) int {
	return int(math.Round(v))
}
