package render

import (
	"fmt"
	"math"
)

// Sector is an annular sector with angles measured clockwise from 12 o'clock,
// in radians.
type Sector struct {
	Inner, Outer float64
	Start, End   float64
	PadAngle     float64
	PadRadius    float64 // defaults to Inner
}

// polar returns the point at radius r and angle a around the origin.
func polar(r, a float64) (float64, float64) {
	return r * math.Sin(a), -r * math.Cos(a)
}

// padded returns the angle interval at radius r after removing the pad.
func (s Sector) padded(r float64) (float64, float64) {
	a0, a1 := s.Start, s.End
	if s.PadAngle <= 0 || r <= 0 {
		return a0, a1
	}
	rp := s.PadRadius
	if rp == 0 {
		rp = s.Inner
	}
	p := math.Asin(math.Min(1, rp/r*math.Sin(s.PadAngle/2)))
	if a1-a0 > 2*p {
		return a0 + p, a1 - p
	}
	mid := (a0 + a1) / 2
	return mid, mid
}

// Path returns the SVG path data of the sector, centred on the origin.
func (s Sector) Path() string {
	o0, o1 := s.padded(s.Outer)
	i0, i1 := s.padded(s.Inner)

	x0, y0 := polar(s.Outer, o0)
	x1, y1 := polar(s.Outer, o1)
	x2, y2 := polar(s.Inner, i1)
	x3, y3 := polar(s.Inner, i0)

	largeOuter := 0
	if o1-o0 > math.Pi {
		largeOuter = 1
	}
	largeInner := 0
	if i1-i0 > math.Pi {
		largeInner = 1
	}
	if s.Inner <= 0 {
		return fmt.Sprintf("M%.3f,%.3fA%.3f,%.3f,0,%d,1,%.3f,%.3fL0,0Z",
			x0, y0, s.Outer, s.Outer, largeOuter, x1, y1)
	}
	return fmt.Sprintf("M%.3f,%.3fA%.3f,%.3f,0,%d,1,%.3f,%.3fL%.3f,%.3fA%.3f,%.3f,0,%d,0,%.3f,%.3fZ",
		x0, y0, s.Outer, s.Outer, largeOuter, x1, y1,
		x2, y2, s.Inner, s.Inner, largeInner, x3, y3)
}

// Centroid returns the middle point of the sector.
func (s Sector) Centroid() (float64, float64) {
	return polar((s.Inner+s.Outer)/2, (s.Start+s.End)/2)
}
