package views

import (
	"github.com/vanderheijden86/mhviz/pkg/debug"
	"github.com/vanderheijden86/mhviz/pkg/loader"
	"github.com/vanderheijden86/mhviz/pkg/metrics"
	"github.com/vanderheijden86/mhviz/pkg/model"
)

// AllContinents is the continent dropdown entry that clears the filter.
const AllContinents = "All"

// Views bundles the three chart views derived from one Params value.
type Views struct {
	Params    model.Params
	Scatter   Scatter
	Histogram Histogram
	Radial    Radial
}

// Derive computes all three views from the same parameters.
func Derive(ds *loader.Datasets, p model.Params, binCount int) Views {
	defer metrics.Timer(metrics.ViewDerive)()
	p = p.Normalize()
	v := Views{
		Params:    p,
		Scatter:   BuildScatter(ds, p),
		Histogram: BuildHistogram(ds, p, binCount),
		Radial:    BuildRadial(ds, p),
	}
	debug.Log("derived views year=%d issue=%q: %d markers, %d bins, %d age groups",
		p.Year, p.Issue, len(v.Scatter.Points), len(v.Histogram.Bins), len(v.Radial.Groups))
	return v
}

// GDPSlider describes the GDP ceiling control.
type GDPSlider struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Step  float64 `json:"step"`
	Value float64 `json:"value"`
}

// Controls holds the option lists of the control panel.
type Controls struct {
	Issues     []string            `json:"issues"`
	Years      []int               `json:"years"`
	Continents []string            `json:"continents"` // "All" first
	Countries  []model.CountryInfo `json:"countries"`  // filtered by continent
	GDP        GDPSlider           `json:"gdp"`
}

// BuildControls derives the dropdown and slider options. Countries are
// restricted to continent unless it is "" or "All". Without metadata the
// country list is empty and the continent list holds only "All".
func BuildControls(ds *loader.Datasets, md *loader.Metadata, p model.Params, continent string) Controls {
	p = p.Normalize()
	c := Controls{Issues: append([]string(nil), ds.Issues...)}

	first, last := ds.YearRange()
	for y := first; y <= last; y++ {
		c.Years = append(c.Years, y)
	}

	c.Continents = []string{AllContinents}
	if !md.Empty() {
		c.Continents = append(c.Continents, md.Continents...)
		c.Countries = md.CountriesIn(continent)
	}

	min := ds.MinPositiveGDP()
	c.GDP = GDPSlider{
		Min:   min,
		Max:   model.DefaultGDPCeiling,
		Step:  (model.DefaultGDPCeiling - min) / 100,
		Value: p.GDPCeiling,
	}
	return c
}
