// Package model holds the records, bins and control-panel parameters shared by
// the loader, the derived views, the highlight coordinator and the renderers.
package model

import (
	"fmt"
	"math"
)

// Dataset year range covered by the GDP and population tables.
const (
	FirstYear = 2002
	LastYear  = 2014
)

// Control panel defaults.
const (
	DefaultYear       = 2014
	DefaultIssue      = "Schizophrenia"
	DefaultGDPCeiling = 90000.0
	DefaultBinCount   = 20
)

// MentalRow is one row of the mental-disorder dataset: a country, a year, an
// age group and the prevalence (%) of every issue column present in the file.
type MentalRow struct {
	Country  string
	Code     string
	Year     int
	AgeGroup string
	Values   map[string]float64 // issue -> prevalence %, NaN when non-numeric
}

// Value returns the prevalence of issue, or NaN when the row has no numeric
// value for it.
func (r MentalRow) Value(issue string) float64 {
	v, ok := r.Values[issue]
	if !ok {
		return math.NaN()
	}
	return v
}

// YearSeries maps a year to a value for one country (GDP or population).
type YearSeries map[int]float64

// CountrySeries is a wide table keyed by country (name or code) then year.
type CountrySeries map[string]YearSeries

// Lookup returns the value for key/year and whether it is usable (present,
// finite and non-zero).
func (s CountrySeries) Lookup(key string, year int) (float64, bool) {
	ys, ok := s[key]
	if !ok {
		return 0, false
	}
	v, ok := ys[year]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return 0, false
	}
	return v, true
}

// AlcoholRow is one row of the alcohol consumption dataset.
type AlcoholRow struct {
	Country string
	Code    string
	Year    int
	Liters  float64
}

// CountryInfo is country metadata used for the dropdowns and the code ->
// continent map.
type CountryInfo struct {
	Name      string `json:"name"`
	Alpha2    string `json:"alpha2"`
	Alpha3    string `json:"alpha3"`
	Continent string `json:"continent"`
}

// ScatterPoint is a scatter-plot record: a CountryYearRecord projected to the
// fields the scatter chart needs.
type ScatterPoint struct {
	Country    string  `json:"country"`
	Code       string  `json:"code"`
	GDP        float64 `json:"gdp"`
	Population float64 `json:"population"`
	Value      float64 `json:"value"` // issue prevalence %
}

// Affected returns the number of people with the issue.
func (p ScatterPoint) Affected() float64 {
	return p.Value / 100 * p.Population
}

// AlcoholPoint is a histogram record: alcohol consumption joined with GDP.
type AlcoholPoint struct {
	Country string  `json:"country"`
	Code    string  `json:"code"`
	Year    int     `json:"year"`
	GDP     float64 `json:"gdp"`
	Liters  float64 `json:"liters"`
}

// BinRange is the GDP interval of a histogram bin. Bins are half-open
// [X0, X1) except the last bin of a histogram, which is closed at X1.
type BinRange struct {
	X0 float64 `json:"x0"`
	X1 float64 `json:"x1"`
}

// String renders the range as "x0-x1" with no fractional digits when the
// bounds are whole numbers.
func (r BinRange) String() string {
	return fmt.Sprintf("%s-%s", trimFloat(r.X0), trimFloat(r.X1))
}

// GdpBin is one histogram bucket.
type GdpBin struct {
	BinRange
	Closed  bool           `json:"closed"` // true for the last bin: X1 is inclusive
	Members []AlcoholPoint `json:"members"`
}

// Contains reports whether gdp falls in the bin.
func (b GdpBin) Contains(gdp float64) bool {
	if gdp < b.X0 {
		return false
	}
	if b.Closed {
		return gdp <= b.X1
	}
	return gdp < b.X1
}

// Count returns the number of member records.
func (b GdpBin) Count() int {
	return len(b.Members)
}

// MaxLiters returns the highest alcohol consumption among members (0 when empty).
func (b GdpBin) MaxLiters() float64 {
	max := 0.0
	for i, m := range b.Members {
		if i == 0 || m.Liters > max {
			max = m.Liters
		}
	}
	return max
}

// AgeGroupAggregate is one radial bar.
type AgeGroupAggregate struct {
	AgeGroup       string  `json:"age_group"`
	MeanPrevalence float64 `json:"mean_prevalence"`
}

// Params are the control-panel inputs every derived view is computed from.
type Params struct {
	Year         int     `json:"year" yaml:"year"`
	Issue        string  `json:"issue" yaml:"issue"`
	GDPCeiling   float64 `json:"gdp_ceiling" yaml:"gdp_ceiling"`
	RadialMinGDP float64 `json:"radial_min_gdp" yaml:"radial_min_gdp"`
}

// DefaultParams returns the initial control-panel state.
func DefaultParams() Params {
	return Params{
		Year:       DefaultYear,
		Issue:      DefaultIssue,
		GDPCeiling: DefaultGDPCeiling,
	}
}

// Normalize fills zero fields with defaults and clamps the year to the
// dataset range.
func (p Params) Normalize() Params {
	if p.Year == 0 {
		p.Year = DefaultYear
	}
	if p.Year < FirstYear {
		p.Year = FirstYear
	}
	if p.Year > LastYear {
		p.Year = LastYear
	}
	if p.Issue == "" {
		p.Issue = DefaultIssue
	}
	if p.GDPCeiling <= 0 {
		p.GDPCeiling = DefaultGDPCeiling
	}
	if p.RadialMinGDP < 0 {
		p.RadialMinGDP = 0
	}
	return p
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}
