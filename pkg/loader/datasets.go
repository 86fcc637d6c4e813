package loader

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/vanderheijden86/mhviz/pkg/model"
)

// Column names of the source datasets.
const (
	ColCountry     = "Country"
	ColCountryName = "Country Name"
	ColCode        = "Code"
	ColYear        = "Year"
	ColAgeGroup    = "Age Group"
)

// AlcoholColumns lists accepted names for the alcohol consumption column.
// The published dataset ships with the first (misspelled) header.
var AlcoholColumns = []string{
	"Alcohol Consuption, liters per capita",
	"Alcohol Consumption, liters per capita",
	"Alcohol Consumption (liters per capita)",
}

// Datasets holds every parsed input. A dataset that failed to load is left
// empty so only the views that need it come out blank.
type Datasets struct {
	Mental []model.MentalRow
	Issues []string // numeric issue columns of the mental dataset, header order

	GDPByName  model.CountrySeries // keyed by "Country Name"
	GDPByCode  model.CountrySeries // keyed by "Code"
	Population model.CountrySeries // keyed by "Country Name"
	Alcohol    []model.AlcoholRow

	Years []int // year columns of the GDP table, ascending
}

// NewDatasets returns an empty, ready to fill Datasets.
func NewDatasets() *Datasets {
	return &Datasets{
		GDPByName:  model.CountrySeries{},
		GDPByCode:  model.CountrySeries{},
		Population: model.CountrySeries{},
	}
}

// YearRange returns the first and last year covered by the GDP table, or the
// default dataset range when GDP is unavailable.
func (d *Datasets) YearRange() (int, int) {
	if len(d.Years) == 0 {
		return model.FirstYear, model.LastYear
	}
	return d.Years[0], d.Years[len(d.Years)-1]
}

// MinPositiveGDP returns the smallest positive GDP value across all countries
// and years, or 0 when there is none.
func (d *Datasets) MinPositiveGDP() float64 {
	min := math.Inf(1)
	for _, ys := range d.GDPByCode {
		for _, v := range ys {
			if v > 0 && v < min {
				min = v
			}
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}

// ParseMental parses the mental-disorder table. Every column other than the
// four key columns is an issue column.
func ParseMental(t *Table) ([]model.MentalRow, []string, error) {
	idx, err := t.Require(ColCountry, ColCode, ColYear, ColAgeGroup)
	if err != nil {
		return nil, nil, fmt.Errorf("mental dataset: %w", err)
	}
	key := map[int]bool{idx[0]: true, idx[1]: true, idx[2]: true, idx[3]: true}

	var issues []string
	var issueCols []int
	for i, h := range t.Header {
		if key[i] || h == "" {
			continue
		}
		issues = append(issues, h)
		issueCols = append(issueCols, i)
	}

	rows := make([]model.MentalRow, 0, len(t.Rows))
	for _, rec := range t.Rows {
		year, err := strconv.Atoi(Cell(rec, idx[2]))
		if err != nil {
			continue
		}
		row := model.MentalRow{
			Country:  Cell(rec, idx[0]),
			Code:     Cell(rec, idx[1]),
			Year:     year,
			AgeGroup: Cell(rec, idx[3]),
			Values:   make(map[string]float64, len(issues)),
		}
		for j, col := range issueCols {
			row.Values[issues[j]] = ParseNumber(Cell(rec, col))
		}
		rows = append(rows, row)
	}
	return rows, issues, nil
}

// ParseYearSeries parses a wide country-by-year table keyed by keyCol. The
// returned years are the table's year columns in ascending order.
func ParseYearSeries(t *Table, keyCol string) (model.CountrySeries, []int, error) {
	idx, err := t.Require(keyCol)
	if err != nil {
		return nil, nil, err
	}
	cols := yearColumns(t)
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("%w: no year columns", ErrMissingColumn)
	}

	series := make(model.CountrySeries, len(t.Rows))
	for _, rec := range t.Rows {
		k := Cell(rec, idx[0])
		if k == "" {
			continue
		}
		ys := make(model.YearSeries, len(cols))
		for col, year := range cols {
			ys[year] = ParseNumber(Cell(rec, col))
		}
		series[k] = ys
	}

	years := make([]int, 0, len(cols))
	for _, y := range cols {
		years = append(years, y)
	}
	sort.Ints(years)
	return series, years, nil
}

// ParseGDP parses the GDP table into name- and code-keyed series.
func ParseGDP(t *Table) (byName, byCode model.CountrySeries, years []int, err error) {
	byName, years, err = ParseYearSeries(t, ColCountryName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("gdp dataset: %w", err)
	}
	byCode, _, err = ParseYearSeries(t, ColCode)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("gdp dataset: %w", err)
	}
	return byName, byCode, years, nil
}

// ParsePopulation parses the population table keyed by country name.
func ParsePopulation(t *Table) (model.CountrySeries, error) {
	s, _, err := ParseYearSeries(t, ColCountryName)
	if err != nil {
		return nil, fmt.Errorf("population dataset: %w", err)
	}
	return s, nil
}

// ParseAlcohol parses the alcohol consumption table.
func ParseAlcohol(t *Table) ([]model.AlcoholRow, error) {
	idx, err := t.Require(ColCountry, ColCode, ColYear)
	if err != nil {
		return nil, fmt.Errorf("alcohol dataset: %w", err)
	}
	liters := -1
	for _, name := range AlcoholColumns {
		if liters = t.Col(name); liters >= 0 {
			break
		}
	}
	if liters < 0 {
		return nil, fmt.Errorf("alcohol dataset: %w %q", ErrMissingColumn, AlcoholColumns[0])
	}

	rows := make([]model.AlcoholRow, 0, len(t.Rows))
	for _, rec := range t.Rows {
		year, err := strconv.Atoi(Cell(rec, idx[2]))
		if err != nil {
			continue
		}
		rows = append(rows, model.AlcoholRow{
			Country: Cell(rec, idx[0]),
			Code:    Cell(rec, idx[1]),
			Year:    year,
			Liters:  ParseNumber(Cell(rec, liters)),
		})
	}
	return rows, nil
}
