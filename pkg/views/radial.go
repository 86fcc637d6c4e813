package views

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/mhviz/pkg/loader"
	"github.com/vanderheijden86/mhviz/pkg/model"
)

// Radial is the derived view behind the age-group radial bar chart.
type Radial struct {
	Params    model.Params
	Threshold float64
	Groups    []model.AgeGroupAggregate // first-seen age group order
	MaxValue  float64
}

// BuildRadial averages the issue prevalence per age group over the mental
// rows of the selected year whose country appears in the GDP table with a
// GDP at or above RadialMinGDP. Missing GDP counts as 0. Non-numeric values
// are ignored and age groups left without any value are dropped.
func BuildRadial(ds *loader.Datasets, p model.Params) Radial {
	p = p.Normalize()
	r := Radial{Params: p, Threshold: p.RadialMinGDP}

	var order []string
	values := make(map[string][]float64)
	for _, row := range ds.Mental {
		if row.Year != p.Year {
			continue
		}
		ys, ok := ds.GDPByName[row.Country]
		if !ok {
			continue
		}
		gdp := ys[p.Year]
		if math.IsNaN(gdp) {
			gdp = 0
		}
		if gdp < p.RadialMinGDP {
			continue
		}
		if _, seen := values[row.AgeGroup]; !seen {
			order = append(order, row.AgeGroup)
			values[row.AgeGroup] = nil
		}
		if v := row.Value(p.Issue); !math.IsNaN(v) {
			values[row.AgeGroup] = append(values[row.AgeGroup], v)
		}
	}

	for _, g := range order {
		xs := values[g]
		if len(xs) == 0 {
			continue
		}
		mean := stat.Mean(xs, nil)
		r.Groups = append(r.Groups, model.AgeGroupAggregate{AgeGroup: g, MeanPrevalence: mean})
		if mean > r.MaxValue {
			r.MaxValue = mean
		}
	}
	return r
}
