package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SelectionKind identifies what the user has selected.
type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectCountry
	SelectContinent
	SelectBin
)

func (k SelectionKind) String() string {
	switch k {
	case SelectNone:
		return "none"
	case SelectCountry:
		return "country"
	case SelectContinent:
		return "continent"
	case SelectBin:
		return "bin"
	default:
		return fmt.Sprintf("SelectionKind(%d)", int(k))
	}
}

// ErrInvalidSelection is returned by ParseSelection for malformed input.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection is the single cross-chart selection state. The zero value is
// "nothing selected".
type Selection struct {
	Kind      SelectionKind
	Code      string   // SelectCountry: ISO3 code
	Continent string   // SelectContinent
	Bin       BinRange // SelectBin
}

// None is the empty selection.
func None() Selection { return Selection{} }

// Country selects one country by ISO3 code.
func Country(code string) Selection {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return None()
	}
	return Selection{Kind: SelectCountry, Code: code}
}

// Continent selects every country of a continent. "All" and "" clear the
// selection.
func Continent(name string) Selection {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "all") {
		return None()
	}
	return Selection{Kind: SelectContinent, Continent: name}
}

// Bin selects a histogram bin by its GDP range.
func Bin(r BinRange) Selection {
	return Selection{Kind: SelectBin, Bin: r}
}

// IsNone reports whether nothing is selected.
func (s Selection) IsNone() bool {
	return s.Kind == SelectNone
}

// Equal reports whether two selections pick the same thing. Only the fields
// relevant to the kind are compared.
func (s Selection) Equal(o Selection) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case SelectCountry:
		return s.Code == o.Code
	case SelectContinent:
		return strings.EqualFold(s.Continent, o.Continent)
	case SelectBin:
		return s.Bin == o.Bin
	default:
		return true
	}
}

// Toggle returns the selection that results from requesting next while s is
// current: requesting the current selection again clears it, anything else
// replaces it.
func (s Selection) Toggle(next Selection) Selection {
	if !next.IsNone() && s.Equal(next) {
		return None()
	}
	return next
}

// String encodes the selection for URLs and flags: "", "country:NOR",
// "continent:Europe" or "bin:40000~45000".
func (s Selection) String() string {
	switch s.Kind {
	case SelectCountry:
		return "country:" + s.Code
	case SelectContinent:
		return "continent:" + s.Continent
	case SelectBin:
		return "bin:" + strconv.FormatFloat(s.Bin.X0, 'f', -1, 64) + "~" + strconv.FormatFloat(s.Bin.X1, 'f', -1, 64)
	default:
		return ""
	}
}

// ParseSelection decodes the String form. Empty input and "none" yield None.
func ParseSelection(v string) (Selection, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "none" {
		return None(), nil
	}
	kind, arg, ok := strings.Cut(v, ":")
	if !ok || strings.TrimSpace(arg) == "" {
		return None(), fmt.Errorf("%w: %q", ErrInvalidSelection, v)
	}
	switch kind {
	case "country":
		return Country(arg), nil
	case "continent":
		return Continent(arg), nil
	case "bin":
		lo, hi, ok := strings.Cut(arg, "~")
		if !ok {
			return None(), fmt.Errorf("%w: bin %q needs x0~x1", ErrInvalidSelection, arg)
		}
		x0, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return None(), fmt.Errorf("%w: bin start %q", ErrInvalidSelection, lo)
		}
		x1, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return None(), fmt.Errorf("%w: bin end %q", ErrInvalidSelection, hi)
		}
		if x1 < x0 {
			return None(), fmt.Errorf("%w: bin end before start", ErrInvalidSelection)
		}
		return Bin(BinRange{X0: x0, X1: x1}), nil
	default:
		return None(), fmt.Errorf("%w: unknown kind %q", ErrInvalidSelection, kind)
	}
}
