package views

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/mhviz/pkg/loader"
	"github.com/vanderheijden86/mhviz/pkg/model"
)

// Histogram is the derived view behind the alcohol vs. GDP histogram.
type Histogram struct {
	Params  model.Params
	MinGDP  float64 // lower GDP bound, the smallest positive GDP in the data
	Records []model.AlcoholPoint
	Bins    []model.GdpBin

	// Consumption is code -> liters for every alcohol row of the year that
	// joins with a GDP value, regardless of the GDP range. Annotations read it.
	Consumption map[string]float64

	XMin, XMax float64 // observed GDP extent of Records
	YMax       float64 // largest per-bin maximum consumption
	MaxCount   int
}

// BuildHistogram joins the alcohol rows with GDP by country code and year,
// keeps the selected year within [MinGDP, ceiling] and splits the result into
// binCount equal-width bins over the observed extent.
func BuildHistogram(ds *loader.Datasets, p model.Params, binCount int) Histogram {
	p = p.Normalize()
	h := Histogram{Params: p, MinGDP: ds.MinPositiveGDP(), Consumption: map[string]float64{}}

	for _, row := range ds.Alcohol {
		if row.Year != p.Year || math.IsNaN(row.Liters) {
			continue
		}
		gdp, ok := ds.GDPByCode.Lookup(row.Code, row.Year)
		if !ok {
			continue
		}
		if _, dup := h.Consumption[row.Code]; !dup {
			h.Consumption[row.Code] = row.Liters
		}
		if gdp < h.MinGDP || gdp > p.GDPCeiling {
			continue
		}
		h.Records = append(h.Records, model.AlcoholPoint{
			Country: row.Country,
			Code:    row.Code,
			Year:    row.Year,
			GDP:     gdp,
			Liters:  row.Liters,
		})
	}

	h.Bins = BinByGDP(h.Records, binCount)
	if len(h.Bins) > 0 {
		h.XMin = h.Bins[0].X0
		h.XMax = h.Bins[len(h.Bins)-1].X1
	}
	for _, b := range h.Bins {
		if b.Count() > h.MaxCount {
			h.MaxCount = b.Count()
		}
		if m := b.MaxLiters(); m > h.YMax {
			h.YMax = m
		}
	}
	return h
}

// BinByGDP partitions points into n equal-width bins spanning the observed
// GDP extent. Bins are half-open except the last, which is closed so the
// maximum has a home. A degenerate extent yields a single closed bin. Every
// point lands in exactly one bin.
func BinByGDP(points []model.AlcoholPoint, n int) []model.GdpBin {
	if len(points) == 0 {
		return nil
	}
	if n < 1 {
		n = model.DefaultBinCount
	}
	gdps := make([]float64, len(points))
	for i, pt := range points {
		gdps[i] = pt.GDP
	}
	lo, hi := floats.Min(gdps), floats.Max(gdps)
	if lo == hi {
		n = 1
	}

	edges := floats.Span(make([]float64, n+1), lo, hi)
	edges[n] = hi // Span accumulates rounding error at the top edge
	bins := make([]model.GdpBin, n)
	for i := range bins {
		bins[i].X0, bins[i].X1 = edges[i], edges[i+1]
	}
	bins[n-1].Closed = true

	for _, pt := range points {
		i := sort.Search(n, func(i int) bool { return edges[i+1] > pt.GDP })
		if i == n {
			i = n - 1
		}
		bins[i].Members = append(bins[i].Members, pt)
	}
	return bins
}

// IndexOf returns the index of the bin containing gdp, or -1.
func (h Histogram) IndexOf(gdp float64) int {
	return BinIndex(h.Bins, gdp)
}

// BinIndex returns the index of the bin in bins containing gdp, or -1.
func BinIndex(bins []model.GdpBin, gdp float64) int {
	for i, b := range bins {
		if b.Contains(gdp) {
			return i
		}
	}
	return -1
}

// MeanLiters returns the mean consumption of a bin's members (0 when empty).
func MeanLiters(b model.GdpBin) float64 {
	if b.Count() == 0 {
		return 0
	}
	xs := make([]float64, b.Count())
	for i, m := range b.Members {
		xs[i] = m.Liters
	}
	return stat.Mean(xs, nil)
}
