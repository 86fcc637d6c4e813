package main

import (
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/mhviz/pkg/dashboard"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

// newForm creates a form that renders on stderr so stdout stays clean for
// the command's output. Without a terminal the form runs in accessible mode.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).
		WithTheme(huh.ThemeDracula()).
		WithProgramOptions(tea.WithOutput(os.Stderr))
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	return form
}

// promptState asks for the control panel values and a selection, starting
// from params and sel.
func promptState(snap *dashboard.Snapshot, params model.Params, sel model.Selection) (model.Params, model.Selection, error) {
	continent := views.AllContinents
	if sel.Kind == model.SelectContinent {
		continent = sel.Continent
	}
	controls := views.BuildControls(snap.Datasets, snap.Metadata, params, "")

	issue := params.Issue
	year := params.Year
	ceiling := strconv.FormatFloat(params.GDPCeiling, 'f', -1, 64)
	floor := strconv.FormatFloat(params.RadialMinGDP, 'f', -1, 64)

	yearOpts := make([]huh.Option[int], 0, len(controls.Years))
	for _, y := range controls.Years {
		yearOpts = append(yearOpts, huh.NewOption(strconv.Itoa(y), y))
	}

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Mental health issue").
				Options(huh.NewOptions(controls.Issues...)...).
				Value(&issue),
			huh.NewSelect[int]().
				Title("Year").
				Options(yearOpts...).
				Value(&year),
			huh.NewInput().
				Title("GDP per capita ceiling").
				Description(fmt.Sprintf("Between %.0f and %.0f", controls.GDP.Min, controls.GDP.Max)).
				Value(&ceiling).
				Validate(validateAmount),
			huh.NewInput().
				Title("Radial chart GDP floor").
				Value(&floor).
				Validate(validateAmount),
			huh.NewSelect[string]().
				Title("Continent").
				Options(huh.NewOptions(controls.Continents...)...).
				Value(&continent),
		),
	)
	if err := form.Run(); err != nil {
		return params, sel, err
	}

	params.Issue = issue
	params.Year = year
	params.GDPCeiling, _ = strconv.ParseFloat(ceiling, 64)
	params.RadialMinGDP, _ = strconv.ParseFloat(floor, 64)
	params = params.Normalize()

	countries := views.BuildControls(snap.Datasets, snap.Metadata, params, continent).Countries
	if len(countries) == 0 {
		return params, model.Continent(continent), nil
	}

	code := ""
	if sel.Kind == model.SelectCountry {
		code = sel.Code
	}
	opts := []huh.Option[string]{huh.NewOption("(whole continent)", "")}
	if continent == views.AllContinents {
		opts[0] = huh.NewOption("(no selection)", "")
	}
	for _, c := range countries {
		opts = append(opts, huh.NewOption(c.Name, c.Alpha3))
	}

	form = newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Highlight a country").
				Options(opts...).
				Height(12).
				Value(&code),
		),
	)
	if err := form.Run(); err != nil {
		return params, sel, err
	}

	if code != "" {
		return params, model.Country(code), nil
	}
	return params, model.Continent(continent), nil
}

func validateAmount(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if v < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
