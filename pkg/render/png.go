package render

import (
	"image/color"
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/mhviz/pkg/highlight"
)

// PNG output mirrors the SVG layouts without links or tooltips. Flags are
// drawn as labelled tiles so rendering never touches the network.

func newPNG(g Geometry) *gg.Context {
	dc := gg.NewContext(g.Width, g.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	return dc
}

func withAlpha(c color.Color, a float64) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(math.Round(a * 255))}
}

func drawAxesPNG(dc *gg.Context, xt, yt []tick, w, h float64, xLabel, yLabel string, m Margin) {
	dc.SetColor(colorAxis)
	dc.SetLineWidth(1)
	dc.DrawLine(0, h, w, h)
	dc.DrawLine(0, 0, 0, h)
	dc.Stroke()

	for _, t := range xt {
		dc.SetColor(colorAxis)
		dc.DrawLine(t.Pos, h, t.Pos, h+6)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(t.Label, t.Pos, h+16, 0.5, 0.5)
	}
	for _, t := range yt {
		dc.SetColor(colorAxis)
		dc.DrawLine(-6, t.Pos, 0, t.Pos)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(t.Label, -9, t.Pos, 1, 0.5)
	}

	dc.SetColor(colorText)
	dc.DrawStringAnchored(xLabel, w/2, h+float64(m.Bottom)-6, 0.5, 0.5)
	dc.Push()
	dc.Translate(-float64(m.Left)+12, h/2)
	dc.Rotate(-math.Pi / 2)
	dc.DrawStringAnchored(yLabel, 0, 0, 0.5, 0.5)
	dc.Pop()
}

func scatterPNG(w io.Writer, l scatterLayout) error {
	dc := newPNG(l.Geometry)
	dc.Translate(float64(l.Margin.Left), float64(l.Margin.Top))
	drawAxesPNG(dc, l.XTicks, l.YTicks, l.PlotW, l.PlotH, l.XLabel, l.YLabel, l.Margin)

	for _, m := range l.Marks {
		alpha := m.Emphasis.Opacity()
		fill := color.Color(colorFlagTile)
		if m.Emphasis == highlight.Emphasized {
			fill = colorHighlight
		}
		dc.SetColor(withAlpha(fill, alpha))
		dc.DrawRectangle(m.X, m.Y, m.W, m.H)
		dc.Fill()
		dc.SetColor(withAlpha(colorFlagBorder, alpha))
		dc.SetLineWidth(1)
		dc.DrawRectangle(m.X, m.Y, m.W, m.H)
		dc.Stroke()
		dc.SetColor(withAlpha(colorText, alpha))
		dc.DrawStringAnchored(m.Code, m.X+m.W/2, m.Y+m.H/2, 0.5, 0.5)
	}
	return dc.EncodePNG(w)
}

func histogramPNG(w io.Writer, l histogramLayout) error {
	dc := newPNG(l.Geometry)
	dc.Translate(float64(l.Margin.Left), float64(l.Margin.Top))

	for _, b := range l.Bars {
		dc.SetColor(b.Fill)
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		dc.Fill()
		if b.Selected {
			dc.SetColor(colorSelected)
			dc.SetLineWidth(2)
			dc.DrawRectangle(b.X, b.Y, b.W, b.H)
			dc.Stroke()
		}
	}
	drawAxesPNG(dc, l.XTicks, l.YTicks, l.PlotW, l.PlotH, l.XLabel, l.YLabel, l.Margin)

	if r := l.Reference; r != nil {
		dc.SetColor(colorHighlight)
		dc.SetLineWidth(2)
		dc.SetDash(4, 4)
		dc.DrawLine(0, r.Y, l.PlotW, r.Y)
		dc.Stroke()
		dc.SetDash()
		dc.DrawStringAnchored(r.Label, l.PlotW-4, r.Y-8, 1, 0.5)
	}
	return dc.EncodePNG(w)
}

func radialPNG(w io.Writer, l radialLayout) error {
	dc := newPNG(l.Geometry)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(l.Title, float64(l.Width)/2, 14, 0.5, 0.5)
	dc.Translate(l.CX, l.CY)

	for _, b := range l.Bars {
		s := b.Sector
		o0, o1 := s.padded(s.Outer)
		i0, i1 := s.padded(s.Inner)
		// gg measures angles from 3 o'clock; sectors start at 12.
		q := math.Pi / 2
		dc.NewSubPath()
		dc.DrawArc(0, 0, s.Outer, o0-q, o1-q)
		dc.DrawArc(0, 0, s.Inner, i1-q, i0-q)
		dc.ClosePath()
		dc.SetColor(b.Fill)
		dc.FillPreserve()
		dc.SetColor(colorAxis)
		dc.SetLineWidth(0.5)
		dc.Stroke()

		mid := (s.Start + s.End) / 2
		lx, ly := polar(l.Outer+radialLabelGap, mid)
		dc.SetColor(colorText)
		dc.DrawStringAnchored(b.Label, lx, ly, 0.5, 0.5)
	}
	return dc.EncodePNG(w)
}
