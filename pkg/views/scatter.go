// Package views derives the chart-ready records of the three dashboard
// charts from the loaded datasets. Every function here is a pure
// transformation; nothing is cached between calls.
package views

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/vanderheijden86/mhviz/pkg/loader"
	"github.com/vanderheijden86/mhviz/pkg/model"
)

// Flag marker size range in pixels (width; height is two thirds of it).
const (
	FlagMinSize = 25.0
	FlagMaxSize = 90.0
)

// Scatter is the derived view behind the prevalence vs. GDP scatter plot.
type Scatter struct {
	Params model.Params
	Points []model.ScatterPoint

	XMax   float64 // x domain is [0, XMax], the GDP ceiling
	YMax   float64 // y domain is [0, YMax]
	PopMin float64
	PopMax float64
}

// BuildScatter joins the mental rows of the selected year with GDP and
// population by country name. Records missing any field, or with a zero
// prevalence, are dropped; a country keeps its first matching row.
func BuildScatter(ds *loader.Datasets, p model.Params) Scatter {
	p = p.Normalize()
	s := Scatter{Params: p, XMax: p.GDPCeiling}

	seen := make(map[string]bool)
	for _, row := range ds.Mental {
		if row.Year != p.Year || seen[row.Country] {
			continue
		}
		gdp, ok := ds.GDPByName.Lookup(row.Country, p.Year)
		if !ok || gdp > p.GDPCeiling {
			continue
		}
		pop, ok := ds.Population.Lookup(row.Country, p.Year)
		if !ok {
			continue
		}
		v := row.Value(p.Issue)
		if math.IsNaN(v) || v == 0 {
			continue
		}
		seen[row.Country] = true
		s.Points = append(s.Points, model.ScatterPoint{
			Country:    row.Country,
			Code:       row.Code,
			GDP:        gdp,
			Population: pop,
			Value:      v,
		})
	}

	if len(s.Points) == 0 {
		return s
	}
	values := make([]float64, len(s.Points))
	pops := make([]float64, len(s.Points))
	for i, pt := range s.Points {
		values[i] = pt.Value
		pops[i] = pt.Population
	}
	s.YMax = floats.Max(values)
	s.PopMin = floats.Min(pops)
	s.PopMax = floats.Max(pops)
	return s
}

// FlagSize maps a population onto the flag width with a square-root scale
// over [PopMin, PopMax].
func (s Scatter) FlagSize(pop float64) float64 {
	lo, hi := math.Sqrt(s.PopMin), math.Sqrt(s.PopMax)
	if hi == lo {
		return (FlagMinSize + FlagMaxSize) / 2
	}
	t := (math.Sqrt(pop) - lo) / (hi - lo)
	return FlagMinSize + t*(FlagMaxSize-FlagMinSize)
}

// Point returns the scatter point for an ISO3 code.
func (s Scatter) Point(code string) (model.ScatterPoint, bool) {
	for _, pt := range s.Points {
		if pt.Code == code {
			return pt, true
		}
	}
	return model.ScatterPoint{}, false
}
