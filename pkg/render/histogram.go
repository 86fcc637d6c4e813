package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/mhviz/pkg/highlight"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

type histogramBar struct {
	X, Y, W, H float64
	Fill       color.Color
	Selected   bool
	Tooltip    string
	Href       string
}

type referenceLine struct {
	Y     float64
	Label string
}

type histogramLayout struct {
	Geometry
	PlotW, PlotH float64
	XTicks       []tick
	YTicks       []tick
	XLabel       string
	YLabel       string
	Bars         []histogramBar
	Reference    *referenceLine
	ClearHref    string
}

func layoutHistogram(h views.Histogram, in highlight.Instructions, opts Options) histogramLayout {
	g := opts.Chart
	w, ph := g.Inner()
	xs := Linear{D0: h.XMin, D1: h.XMax, R0: 0, R1: w}
	ys := Linear{D0: 0, D1: h.YMax, R0: ph, R1: 0}

	l := histogramLayout{
		Geometry:  g,
		PlotW:     w,
		PlotH:     ph,
		XLabel:    "GDP per capita (PPP)",
		YLabel:    "Alcohol Consumption (liters per capita)",
		ClearHref: opts.href(model.None()),
	}
	if len(h.Bins) > 0 {
		l.XTicks = axisTicks(xs, 10, FormatNumber)
		l.YTicks = axisTicks(ys, 10, plainFormat(0, h.YMax, 10))
	}

	for i, b := range h.Bins {
		x0 := xs.At(b.X0)
		top := ys.At(b.MaxLiters())
		if h.YMax == 0 {
			top = ph
		}
		l.Bars = append(l.Bars, histogramBar{
			X:        x0,
			Y:        top,
			W:        math.Max(0, xs.At(b.X1)-x0-1),
			H:        ph - top,
			Fill:     YlOrRd.Scaled(float64(b.Count()), float64(h.MaxCount)),
			Selected: in.BinSelected(i),
			Tooltip:  histogramTooltip(b),
			Href:     opts.href(highlight.Toggle(in.Selection, model.Bin(b.BinRange))),
		})
	}

	if a := in.Annotation; a != nil && h.YMax > 0 {
		l.Reference = &referenceLine{Y: ys.At(a.Liters), Label: a.Label()}
	}
	return l
}

func histogramTooltip(b model.GdpBin) string {
	return strings.Join([]string{
		fmt.Sprintf("GDP Range: $%s - $%s", FormatNumber(b.X0), FormatNumber(b.X1)),
		fmt.Sprintf("Countries in range: %d", b.Count()),
		fmt.Sprintf("Max Alcohol Consumption: %.1f liters", b.MaxLiters()),
		fmt.Sprintf("Avg Alcohol Consumption: %.1f liters", views.MeanLiters(b)),
	}, "\n")
}

func histogramSVG(w io.Writer, l histogramLayout) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(l.Width, l.Height, `class="chart histogram"`)
	canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", l.Margin.Left, l.Margin.Top))

	openLink(canvas, l.ClearHref)
	canvas.Rect(0, 0, round(l.PlotW), round(l.PlotH), `class="background"`, "fill:transparent")
	closeLink(canvas, l.ClearHref)

	if len(l.Bars) == 0 {
		canvas.Text(round(l.PlotW/2), round(l.PlotH/2), "No data for this selection",
			`class="empty"`, "text-anchor:middle;font-size:12px;fill:"+css(colorSubtle))
	}

	canvas.Gid("bars")
	for _, b := range l.Bars {
		class := `class="bar"`
		style := "fill:" + css(b.Fill)
		if b.Selected {
			class = `class="bar selected"`
			style += ";stroke:" + css(colorSelected) + ";stroke-width:2"
		}
		openLink(canvas, b.Href)
		canvas.Group()
		canvas.Title(b.Tooltip)
		canvas.Rect(round(b.X), round(b.Y), round(b.W), round(b.H), class, style)
		canvas.Gend()
		closeLink(canvas, b.Href)
	}
	canvas.Gend()

	xAxisSVG(canvas, l.XTicks, l.PlotW, l.PlotH)
	yAxisSVG(canvas, l.YTicks, l.PlotH)
	axisLabelsSVG(canvas, l.XLabel, l.YLabel, l.PlotW, l.PlotH, l.Margin)

	if r := l.Reference; r != nil {
		y := round(r.Y)
		canvas.Line(0, y, round(l.PlotW), y, `class="highlight-line"`,
			"stroke:"+css(colorHighlight)+";stroke-width:2;stroke-dasharray:4,4")
		canvas.Text(round(l.PlotW)-4, y-6, r.Label, `class="highlight-label"`,
			"text-anchor:end;font-size:11px;fill:"+css(colorHighlight))
	}

	canvas.Gend()
	canvas.End()
	return ew.err
}
