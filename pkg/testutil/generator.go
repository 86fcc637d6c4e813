// Package testutil provides dataset fixtures for tests. All generators
// produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/vanderheijden86/mhviz/pkg/model"
)

// FixtureCountry is one country of a fixture. GDP, Population and Liters are
// the values for the last fixture year; earlier years shrink by Growth per
// year.
type FixtureCountry struct {
	Name       string
	Code       string
	Continent  string
	GDP        float64
	Population float64
	Liters     float64
	Growth     float64 // fraction per year, default 0.01

	// NoEconomics leaves the country out of the GDP and population tables.
	NoEconomics bool
}

// GDPIn returns the country's GDP for year.
func (c FixtureCountry) GDPIn(year, last int) float64 {
	return c.GDP * c.factor(year, last)
}

// PopulationIn returns the country's population for year.
func (c FixtureCountry) PopulationIn(year, last int) float64 {
	return c.Population * c.factor(year, last)
}

func (c FixtureCountry) factor(year, last int) float64 {
	g := c.Growth
	if g == 0 {
		g = 0.01
	}
	return 1 - g*float64(last-year)
}

// SampleCountries returns the hand-picked fixture used across package tests.
// Qatar sits above the default GDP ceiling, Atlantis has no GDP or population
// rows, and Chad holds the smallest GDP.
func SampleCountries() []FixtureCountry {
	return []FixtureCountry{
		{Name: "Norway", Code: "NOR", Continent: "Europe", GDP: 65000, Population: 5_137_000, Liters: 7.5},
		{Name: "Germany", Code: "DEU", Continent: "Europe", GDP: 47000, Population: 80_980_000, Liters: 11.0},
		{Name: "United States", Code: "USA", Continent: "Americas", GDP: 54600, Population: 318_900_000, Liters: 9.0},
		{Name: "Brazil", Code: "BRA", Continent: "Americas", GDP: 15900, Population: 204_000_000, Liters: 7.8},
		{Name: "India", Code: "IND", Continent: "Asia", GDP: 5600, Population: 1_295_000_000, Liters: 4.3},
		{Name: "Japan", Code: "JPN", Continent: "Asia", GDP: 38000, Population: 127_300_000, Liters: 7.2},
		{Name: "Nigeria", Code: "NGA", Continent: "Africa", GDP: 5900, Population: 177_500_000, Liters: 9.1},
		{Name: "Australia", Code: "AUS", Continent: "Oceania", GDP: 45500, Population: 23_460_000, Liters: 10.6},
		{Name: "Qatar", Code: "QAT", Continent: "Asia", GDP: 137000, Population: 2_170_000, Liters: 1.0},
		{Name: "Chad", Code: "TCD", Continent: "Africa", GDP: 2100, Population: 13_600_000, Liters: 1.5},
		{Name: "Atlantis", Code: "ATL", Continent: "Europe", Liters: 3.0, NoEconomics: true},
	}
}

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed      int64 // Random seed for determinism
	FirstYear int
	LastYear  int
	Issues    []string
	AgeGroups []string
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		FirstYear: model.FirstYear,
		LastYear:  model.LastYear,
		Issues:    []string{"Schizophrenia", "Depression", "Anxiety disorders"},
		AgeGroups: []string{"10-14 years old", "15-49 years old", "50-69 years old"},
	}
}

// Generator creates dataset fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	def := DefaultConfig()
	if cfg.FirstYear == 0 {
		cfg.FirstYear = def.FirstYear
	}
	if cfg.LastYear == 0 {
		cfg.LastYear = def.LastYear
	}
	if len(cfg.Issues) == 0 {
		cfg.Issues = def.Issues
	}
	if len(cfg.AgeGroups) == 0 {
		cfg.AgeGroups = def.AgeGroups
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Config returns the generator configuration.
func (g *Generator) Config() GeneratorConfig {
	return g.cfg
}

// RandomCountries returns n synthetic countries with three letter codes
// "C00".."Cnn" and random economics.
func (g *Generator) RandomCountries(n int) []FixtureCountry {
	continents := []string{"Africa", "Americas", "Asia", "Europe", "Oceania"}
	out := make([]FixtureCountry, n)
	for i := range out {
		out[i] = FixtureCountry{
			Name:       fmt.Sprintf("Country %02d", i),
			Code:       fmt.Sprintf("C%02d", i),
			Continent:  continents[i%len(continents)],
			GDP:        500 + g.rng.Float64()*120000,
			Population: 1e5 + g.rng.Float64()*5e8,
			Liters:     g.rng.Float64() * 15,
		}
	}
	return out
}

// Prevalence returns the deterministic prevalence (%) written for a country,
// issue index, age group index and year.
func Prevalence(countryIdx, issueIdx, ageIdx, year int) float64 {
	v := 0.1 + 0.05*float64(countryIdx%7) + 0.3*float64(issueIdx) + 0.12*float64(ageIdx) + 0.001*float64(year%100)
	return float64(int(v*1e4+0.5)) / 1e4
}

// Fixture holds the CSV content of the four datasets.
type Fixture struct {
	Mental     string
	GDP        string
	Population string
	Alcohol    string
}

// Build renders the four datasets for countries.
func (g *Generator) Build(countries []FixtureCountry) Fixture {
	cfg := g.cfg
	var years []string
	for y := cfg.FirstYear; y <= cfg.LastYear; y++ {
		years = append(years, strconv.Itoa(y))
	}

	var mental, gdp, pop, alc strings.Builder

	mental.WriteString("Country,Code,Year,Age Group," + strings.Join(cfg.Issues, ",") + "\n")
	gdp.WriteString("Country Name,Code," + strings.Join(years, ",") + "\n")
	pop.WriteString("Country Name,Code," + strings.Join(years, ",") + "\n")
	alc.WriteString(`Country,Code,Year,"Alcohol Consuption, liters per capita"` + "\n")

	for ci, c := range countries {
		for y := cfg.FirstYear; y <= cfg.LastYear; y++ {
			for ai, age := range cfg.AgeGroups {
				vals := make([]string, len(cfg.Issues))
				for ii := range cfg.Issues {
					vals[ii] = num(Prevalence(ci, ii, ai, y))
				}
				fmt.Fprintf(&mental, "%s,%s,%d,%s,%s\n", csvField(c.Name), c.Code, y, age, strings.Join(vals, ","))
			}
			fmt.Fprintf(&alc, "%s,%s,%d,%s\n", csvField(c.Name), c.Code, y, num(c.Liters))
		}
		if c.NoEconomics {
			continue
		}
		gdpVals := make([]string, 0, len(years))
		popVals := make([]string, 0, len(years))
		for y := cfg.FirstYear; y <= cfg.LastYear; y++ {
			gdpVals = append(gdpVals, num(c.GDPIn(y, cfg.LastYear)))
			popVals = append(popVals, num(c.PopulationIn(y, cfg.LastYear)))
		}
		fmt.Fprintf(&gdp, "%s,%s,%s\n", csvField(c.Name), c.Code, strings.Join(gdpVals, ","))
		fmt.Fprintf(&pop, "%s,%s,%s\n", csvField(c.Name), c.Code, strings.Join(popVals, ","))
	}

	return Fixture{Mental: mental.String(), GDP: gdp.String(), Population: pop.String(), Alcohol: alc.String()}
}

// ContinentMap returns code -> continent for countries.
func ContinentMap(countries []FixtureCountry) map[string]string {
	m := make(map[string]string, len(countries))
	for _, c := range countries {
		m[c.Code] = c.Continent
	}
	return m
}

// CountryInfos returns metadata entries for countries.
func CountryInfos(countries []FixtureCountry) []model.CountryInfo {
	out := make([]model.CountryInfo, len(countries))
	for i, c := range countries {
		out[i] = model.CountryInfo{Name: c.Name, Alpha2: c.Code[:2], Alpha3: c.Code, Continent: c.Continent}
	}
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func csvField(s string) string {
	if strings.ContainsAny(s, ",\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
