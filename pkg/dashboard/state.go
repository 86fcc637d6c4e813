// Package dashboard serves the interactive HTML dashboard. Every control and
// every chart click is a link or form submission that carries the complete
// state in the URL; the server re-derives and re-renders all charts per
// request and stores nothing.
package dashboard

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

// ErrInvalidState is returned for malformed URL state.
var ErrInvalidState = errors.New("invalid dashboard state")

// URL query keys.
const (
	keyYear      = "year"
	keyIssue     = "issue"
	keyMaxGDP    = "max_gdp"
	keyMinGDP    = "min_gdp"
	keySelection = "sel"
	keyContinent = "continent"
	keyCountry   = "country"
)

// State is the complete dashboard state: control-panel parameters, the
// current selection and the continent that filters the country dropdown.
type State struct {
	Params    model.Params
	Selection model.Selection
	Continent string
}

// ParseState decodes URL query values on top of defaults.
//
// An explicit "sel" always wins. Otherwise the form fields decide: a country
// selects that country, a continent other than "All" selects the continent,
// and neither selects nothing.
func ParseState(q url.Values, defaults model.Params) (State, error) {
	s := State{Params: defaults}

	if v := strings.TrimSpace(q.Get(keyYear)); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return State{}, fmt.Errorf("%w: year %q", ErrInvalidState, v)
		}
		s.Params.Year = y
	}
	if v := strings.TrimSpace(q.Get(keyIssue)); v != "" {
		s.Params.Issue = v
	}
	var err error
	if s.Params.GDPCeiling, err = parseAmount(q, keyMaxGDP, s.Params.GDPCeiling); err != nil {
		return State{}, err
	}
	if s.Params.RadialMinGDP, err = parseAmount(q, keyMinGDP, s.Params.RadialMinGDP); err != nil {
		return State{}, err
	}

	s.Continent = strings.TrimSpace(q.Get(keyContinent))
	if strings.EqualFold(s.Continent, views.AllContinents) {
		s.Continent = ""
	}

	switch {
	case q.Has(keySelection):
		sel, err := model.ParseSelection(q.Get(keySelection))
		if err != nil {
			return State{}, fmt.Errorf("%w: %w", ErrInvalidState, err)
		}
		s.Selection = sel
	case strings.TrimSpace(q.Get(keyCountry)) != "":
		s.Selection = model.Country(strings.ToUpper(strings.TrimSpace(q.Get(keyCountry))))
	case s.Continent != "":
		s.Selection = model.Continent(s.Continent)
	}

	s.Params = s.Params.Normalize()
	return s, nil
}

func parseAmount(q url.Values, key string, def float64) (float64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidState, key, v)
	}
	return f, nil
}

// Query encodes the state. The selection is always present, possibly empty,
// so a cleared selection is not re-derived from the continent filter.
func (s State) Query() url.Values {
	q := url.Values{}
	q.Set(keyYear, strconv.Itoa(s.Params.Year))
	q.Set(keyIssue, s.Params.Issue)
	q.Set(keyMaxGDP, strconv.FormatFloat(s.Params.GDPCeiling, 'f', -1, 64))
	if s.Params.RadialMinGDP > 0 {
		q.Set(keyMinGDP, strconv.FormatFloat(s.Params.RadialMinGDP, 'f', -1, 64))
	}
	if s.Continent != "" {
		q.Set(keyContinent, s.Continent)
	}
	q.Set(keySelection, s.Selection.String())
	return q
}

// WithSelection returns a copy of s with sel as the selection.
func (s State) WithSelection(sel model.Selection) State {
	s.Selection = sel
	return s
}

// Href returns the URL of path carrying s with sel applied.
func (s State) Href(path string, sel model.Selection) string {
	return path + "?" + s.WithSelection(sel).Query().Encode()
}

// SelectedCountry returns the selected ISO3 code, or "".
func (s State) SelectedCountry() string {
	if s.Selection.Kind == model.SelectCountry {
		return s.Selection.Code
	}
	return ""
}
