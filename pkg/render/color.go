package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Ramp is a sequential color scheme sampled at evenly spaced stops.
type Ramp []colorful.Color

func mustRamp(hexes ...string) Ramp {
	r := make(Ramp, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("render: bad ramp color %q: %v", h, err))
		}
		r[i] = c
	}
	return r
}

// Sequential schemes used by the histogram and the radial chart.
var (
	YlOrRd  = mustRamp("#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#bd0026", "#800026")
	Purples = mustRamp("#fcfbfd", "#efedf5", "#dadaeb", "#bcbddc", "#9e9ac8", "#807dba", "#6a51a3", "#54278f", "#3f007d")
)

// At interpolates the ramp at t in [0, 1] (clamped) in Lab space.
func (r Ramp) At(t float64) colorful.Color {
	if math.IsNaN(t) || t <= 0 {
		return r[0]
	}
	if t >= 1 {
		return r[len(r)-1]
	}
	pos := t * float64(len(r)-1)
	i := int(pos)
	return r[i].BlendLab(r[i+1], pos-float64(i)).Clamped()
}

// Scaled maps v in [0, max] onto the ramp.
func (r Ramp) Scaled(v, max float64) colorful.Color {
	if max <= 0 {
		return r.At(0)
	}
	return r.At(v / max)
}

// Palette of fixed chart colors.
var (
	colorText       = color.RGBA{0x33, 0x33, 0x33, 0xff}
	colorSubtle     = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorAxis       = color.RGBA{0x99, 0x99, 0x99, 0xff}
	colorBackdrop   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorHighlight  = color.RGBA{0x1f, 0x77, 0xb4, 0xff}
	colorSelected   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorFlagTile   = color.RGBA{0xe8, 0xea, 0xf0, 0xff}
	colorFlagBorder = color.RGBA{0x55, 0x5d, 0x70, 0xff}
)

func css(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
