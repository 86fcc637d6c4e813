// Package highlight computes the cross-chart highlight instructions for a
// selection. Compute is a pure function: the renderers apply its output and
// never look at the selection themselves.
package highlight

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/mhviz/pkg/metrics"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

// Emphasis is the visual state of a scatter marker.
type Emphasis int

const (
	Neutral Emphasis = iota
	Emphasized
	Dimmed
)

func (e Emphasis) String() string {
	switch e {
	case Emphasized:
		return "emphasized"
	case Dimmed:
		return "dimmed"
	default:
		return "neutral"
	}
}

// Opacity returns the marker opacity for e.
func (e Emphasis) Opacity() float64 {
	if e == Dimmed {
		return 0.3
	}
	return 1
}

// Filter returns the CSS filter for e, or "" for none.
func (e Emphasis) Filter() string {
	switch e {
	case Emphasized:
		return "brightness(1.2)"
	case Dimmed:
		return "brightness(0.4)"
	default:
		return ""
	}
}

// Marker is what the coordinator needs to know about a scatter marker.
type Marker struct {
	Code    string
	Country string
	GDP     float64
}

// Scene is the rendered state the selection is applied to.
type Scene struct {
	Markers     []Marker
	Bins        []model.GdpBin
	Consumption map[string]float64 // code -> liters for the active year
	Continents  map[string]string  // code -> continent
}

// NewScene builds a Scene from derived views and a code -> continent map.
func NewScene(v views.Views, continents map[string]string) Scene {
	s := Scene{
		Markers:     make([]Marker, len(v.Scatter.Points)),
		Bins:        v.Histogram.Bins,
		Consumption: v.Histogram.Consumption,
		Continents:  continents,
	}
	for i, pt := range v.Scatter.Points {
		s.Markers[i] = Marker{Code: pt.Code, Country: pt.Country, GDP: pt.GDP}
	}
	return s
}

// Annotation is the histogram reference line for a selected country.
type Annotation struct {
	Country string  `json:"country"`
	Code    string  `json:"code"`
	Liters  float64 `json:"liters"`
}

// Label returns the text drawn next to the reference line.
func (a Annotation) Label() string {
	return fmt.Sprintf("%s: %.1f L", a.Country, a.Liters)
}

// Instructions tell each renderer how to style its marks.
type Instructions struct {
	Selection   model.Selection
	Markers     map[string]Emphasis // code -> emphasis; absent means Neutral
	SelectedBin int                 // -1 when no bar is selected
	Annotation  *Annotation
}

// Emphasis returns the emphasis of the marker for code.
func (in Instructions) Emphasis(code string) Emphasis {
	return in.Markers[code]
}

// BinSelected reports whether bar i is selected.
func (in Instructions) BinSelected(i int) bool {
	return in.SelectedBin >= 0 && in.SelectedBin == i
}

// Active reports whether any mark is emphasized or dimmed.
func (in Instructions) Active() bool {
	return len(in.Markers) > 0 || in.SelectedBin >= 0 || in.Annotation != nil
}

// Toggle returns the selection after requested is clicked while current is
// active: re-requesting the current selection clears it.
func Toggle(current, requested model.Selection) model.Selection {
	return current.Toggle(requested)
}

// Compute derives the highlight instructions for sel over scene.
func Compute(sel model.Selection, scene Scene) Instructions {
	defer metrics.Timer(metrics.Highlight)()

	in := Instructions{Selection: sel, Markers: map[string]Emphasis{}, SelectedBin: -1}
	switch sel.Kind {
	case model.SelectCountry:
		m, ok := findMarker(scene.Markers, sel.Code)
		if !ok {
			return in
		}
		emphasize(in.Markers, scene.Markers, func(o Marker) bool { return o.Code == m.Code })
		in.SelectedBin = views.BinIndex(scene.Bins, m.GDP)
		if liters, ok := scene.Consumption[m.Code]; ok {
			in.Annotation = &Annotation{Country: m.Country, Code: m.Code, Liters: liters}
		}

	case model.SelectContinent:
		if !continentKnown(scene.Continents, sel.Continent) {
			return in
		}
		emphasize(in.Markers, scene.Markers, func(o Marker) bool {
			return strings.EqualFold(scene.Continents[o.Code], sel.Continent)
		})

	case model.SelectBin:
		in.SelectedBin = matchBin(scene.Bins, sel.Bin)
		inRange := func(o Marker) bool { return o.GDP >= sel.Bin.X0 && o.GDP < sel.Bin.X1 }
		if in.SelectedBin >= 0 {
			b := scene.Bins[in.SelectedBin]
			inRange = func(o Marker) bool { return b.Contains(o.GDP) }
		}
		emphasize(in.Markers, scene.Markers, inRange)
	}
	return in
}

func emphasize(dst map[string]Emphasis, markers []Marker, match func(Marker) bool) {
	for _, m := range markers {
		if match(m) {
			dst[m.Code] = Emphasized
		} else {
			dst[m.Code] = Dimmed
		}
	}
}

func findMarker(markers []Marker, code string) (Marker, bool) {
	for _, m := range markers {
		if strings.EqualFold(m.Code, code) {
			return m, true
		}
	}
	return Marker{}, false
}

func continentKnown(continents map[string]string, name string) bool {
	for _, c := range continents {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

func matchBin(bins []model.GdpBin, r model.BinRange) int {
	for i, b := range bins {
		if b.BinRange == r {
			return i
		}
	}
	return -1
}
