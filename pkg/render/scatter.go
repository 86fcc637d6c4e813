package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/mhviz/pkg/highlight"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

type scatterMark struct {
	Code     string
	Country  string
	X, Y     float64 // top-left corner of the flag
	W, H     float64
	Emphasis highlight.Emphasis
	FlagURL  string
	Tooltip  string
	Href     string
}

type scatterLayout struct {
	Geometry
	PlotW, PlotH float64
	XTicks       []tick
	YTicks       []tick
	XLabel       string
	YLabel       string
	Marks        []scatterMark
	ClearHref    string
}

func layoutScatter(s views.Scatter, in highlight.Instructions, opts Options) scatterLayout {
	g := opts.Scatter
	w, h := g.Inner()
	xs := Linear{D0: 0, D1: s.XMax, R0: 0, R1: w}
	ys := Linear{D0: 0, D1: s.YMax, R0: h, R1: 0}

	l := scatterLayout{
		Geometry:  g,
		PlotW:     w,
		PlotH:     h,
		XTicks:    axisTicks(xs, 10, FormatNumber),
		YTicks:    axisTicks(ys, 10, plainFormat(0, s.YMax, 10)),
		XLabel:    "GDP per Capita",
		YLabel:    s.Params.Issue,
		ClearHref: opts.href(model.None()),
	}

	for _, pt := range s.Points {
		size := s.FlagSize(pt.Population)
		fh := size * 2 / 3
		m := scatterMark{
			Code:     pt.Code,
			Country:  pt.Country,
			X:        xs.At(pt.GDP) - size/2,
			Y:        ys.At(pt.Value) - fh/2,
			W:        size,
			H:        fh,
			Emphasis: in.Emphasis(pt.Code),
			Tooltip:  scatterTooltip(pt, s.Params.Issue),
			Href:     opts.href(highlight.Toggle(in.Selection, model.Country(pt.Code))),
		}
		if opts.FlagURL != nil {
			m.FlagURL = opts.FlagURL(pt.Code)
		}
		l.Marks = append(l.Marks, m)
	}
	// Emphasized flags paint last so they sit on top.
	sort.SliceStable(l.Marks, func(i, j int) bool {
		return l.Marks[i].Emphasis != highlight.Emphasized && l.Marks[j].Emphasis == highlight.Emphasized
	})
	return l
}

func scatterTooltip(pt model.ScatterPoint, issue string) string {
	return strings.Join([]string{
		"Country: " + pt.Country,
		"GDP per capita: $" + FormatNumber(pt.GDP),
		"Country population: " + FormatNumber(pt.Population),
		fmt.Sprintf("People with %s: %s (%.2f%%)", issue, FormatNumber(pt.Affected()), pt.Value),
	}, "\n")
}

func markStyle(e highlight.Emphasis) string {
	style := fmt.Sprintf("opacity:%g", e.Opacity())
	if f := e.Filter(); f != "" {
		style += ";filter:" + f
	}
	return style
}

func scatterSVG(w io.Writer, l scatterLayout) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(l.Width, l.Height, `class="chart scatter"`)
	canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", l.Margin.Left, l.Margin.Top))

	openLink(canvas, l.ClearHref)
	canvas.Rect(0, 0, round(l.PlotW), round(l.PlotH), `class="background"`, "fill:transparent")
	closeLink(canvas, l.ClearHref)

	xAxisSVG(canvas, l.XTicks, l.PlotW, l.PlotH)
	yAxisSVG(canvas, l.YTicks, l.PlotH)
	axisLabelsSVG(canvas, l.XLabel, l.YLabel, l.PlotW, l.PlotH, l.Margin)

	canvas.Gid("markers")
	for _, m := range l.Marks {
		openLink(canvas, m.Href)
		canvas.Group(
			fmt.Sprintf(`class="marker %s"`, m.Emphasis),
			fmt.Sprintf(`data-code="%s"`, m.Code),
			markStyle(m.Emphasis),
		)
		canvas.Title(m.Tooltip)
		x, y, fw, fh := round(m.X), round(m.Y), round(m.W), round(m.H)
		if m.FlagURL != "" {
			canvas.Image(x, y, fw, fh, m.FlagURL, `class="flag"`, `preserveAspectRatio="none"`)
		} else {
			canvas.Rect(x, y, fw, fh, `class="flag"`,
				fmt.Sprintf("fill:%s;stroke:%s", css(colorFlagTile), css(colorFlagBorder)))
			canvas.Text(x+fw/2, y+fh/2+4, m.Code, "text-anchor:middle;font-size:10px;fill:"+css(colorText))
		}
		canvas.Gend()
		closeLink(canvas, m.Href)
	}
	canvas.Gend()

	canvas.Gend()
	canvas.End()
	return ew.err
}

func openLink(canvas *svg.SVG, href string) {
	if href != "" {
		canvas.Link(href, "")
	}
}

func closeLink(canvas *svg.SVG, href string) {
	if href != "" {
		canvas.LinkEnd()
	}
}

func xAxisSVG(canvas *svg.SVG, ticks []tick, w, h float64) {
	canvas.Group(`class="axis x-axis"`, fmt.Sprintf(`transform="translate(0,%d)"`, round(h)))
	canvas.Line(0, 0, round(w), 0, "stroke:"+css(colorAxis))
	for _, t := range ticks {
		x := round(t.Pos)
		canvas.Line(x, 0, x, 6, "stroke:"+css(colorAxis))
		canvas.Text(x, 18, t.Label, "text-anchor:middle;font-size:10px;fill:"+css(colorSubtle))
	}
	canvas.Gend()
}

func yAxisSVG(canvas *svg.SVG, ticks []tick, h float64) {
	canvas.Group(`class="axis y-axis"`)
	canvas.Line(0, 0, 0, round(h), "stroke:"+css(colorAxis))
	for _, t := range ticks {
		y := round(t.Pos)
		canvas.Line(-6, y, 0, y, "stroke:"+css(colorAxis))
		canvas.Text(-9, y+3, t.Label, "text-anchor:end;font-size:10px;fill:"+css(colorSubtle))
	}
	canvas.Gend()
}

func axisLabelsSVG(canvas *svg.SVG, xLabel, yLabel string, w, h float64, m Margin) {
	canvas.Text(round(w/2), round(h)+m.Bottom-3, xLabel,
		`class="axis-label"`, "text-anchor:middle;font-size:12px;fill:"+css(colorText))
	canvas.Text(-round(h/2), -m.Left+14, yLabel,
		`class="axis-label"`, `transform="rotate(-90)"`, "text-anchor:middle;font-size:12px;fill:"+css(colorText))
}
