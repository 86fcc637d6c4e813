package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/mhviz/pkg/views"
)

const (
	radialPadding  = 0.1
	radialPadAngle = 0.02
	radialLabelGap = 30.0
)

type radialBar struct {
	Sector  Sector
	Fill    color.Color
	Label   string
	Tooltip string
}

type radialLayout struct {
	Geometry
	CX, CY float64
	Outer  float64
	Title  string
	Bars   []radialBar
}

func layoutRadial(r views.Radial, opts Options) radialLayout {
	g := opts.Chart
	w, h := g.Inner()
	inner := opts.InnerRadius
	outer := math.Max(inner+10, math.Min(w, h)/2-50)

	l := radialLayout{
		Geometry: g,
		CX:       float64(g.Width) / 2,
		CY:       float64(g.Height)/2 + 10,
		Outer:    outer,
		Title:    RadialTitle(r.Params.Issue, r.Threshold),
	}

	band := Band{N: len(r.Groups), R0: 0, R1: 2 * math.Pi, Padding: radialPadding}
	radius := Linear{D0: 0, D1: r.MaxValue, R0: inner, R1: outer}
	for i, grp := range r.Groups {
		start := band.Start(i)
		l.Bars = append(l.Bars, radialBar{
			Sector: Sector{
				Inner:     inner,
				Outer:     radius.At(grp.MeanPrevalence),
				Start:     start,
				End:       start + band.Width(),
				PadAngle:  radialPadAngle,
				PadRadius: inner,
			},
			Fill:    Purples.Scaled(grp.MeanPrevalence, r.MaxValue),
			Label:   grp.AgeGroup,
			Tooltip: fmt.Sprintf("Age Group: %s\n%s: %.2f%%", grp.AgeGroup, r.Params.Issue, grp.MeanPrevalence),
		})
	}
	return l
}

// labelTransform places an age-group label outside the ring, rotated along
// the bar and flipped on the left half so it reads upright.
func labelTransform(s Sector, radius float64) string {
	mid := (s.Start + s.End) / 2
	deg := mid*180/math.Pi - 90
	flip := 0
	if mid > math.Pi {
		flip = 180
	}
	return fmt.Sprintf(`transform="rotate(%.2f) translate(%.2f,0) rotate(%d)"`, deg, radius, flip)
}

func radialSVG(w io.Writer, l radialLayout) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(l.Width, l.Height, `class="chart radial"`)
	canvas.Text(l.Width/2, 18, l.Title, `class="chart-title"`,
		"text-anchor:middle;font-size:14px;font-weight:bold;fill:"+css(colorText))

	canvas.Gtransform(fmt.Sprintf("translate(%.2f,%.2f)", l.CX, l.CY))
	if len(l.Bars) == 0 {
		canvas.Text(0, 0, "No countries above the GDP threshold",
			`class="empty"`, "text-anchor:middle;font-size:12px;fill:"+css(colorSubtle))
	}
	for _, b := range l.Bars {
		canvas.Group()
		canvas.Title(b.Tooltip)
		canvas.Path(b.Sector.Path(), `class="radial-bar"`,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:0.5", css(b.Fill), css(colorAxis)))
		canvas.Gend()
		canvas.Text(0, 0, b.Label, `class="radial-label"`, labelTransform(b.Sector, l.Outer+radialLabelGap),
			"text-anchor:middle;dominant-baseline:middle;font-size:10px;fill:"+css(colorText))
	}
	canvas.Gend()
	canvas.End()
	return ew.err
}
