package model

import (
	"errors"
	"testing"
)

func TestSelectionToggle(t *testing.T) {
	nor := Country("NOR")

	got := None().Toggle(nor)
	if !got.Equal(nor) {
		t.Fatalf("expected country selection, got %v", got)
	}
	if again := got.Toggle(nor); !again.IsNone() {
		t.Errorf("re-selecting the same country should clear, got %v", again)
	}

	swe := Country("SWE")
	if next := nor.Toggle(swe); !next.Equal(swe) {
		t.Errorf("selecting another country should replace, got %v", next)
	}

	bin := Bin(BinRange{X0: 40000, X1: 45000})
	if next := nor.Toggle(bin); !next.Equal(bin) {
		t.Errorf("a bin selection should replace a country selection, got %v", next)
	}
	if next := bin.Toggle(bin); !next.IsNone() {
		t.Errorf("re-selecting the same bin should clear, got %v", next)
	}
	if next := nor.Toggle(None()); !next.IsNone() {
		t.Errorf("background click should clear, got %v", next)
	}
}

func TestContinentAllClears(t *testing.T) {
	if s := Continent("All"); !s.IsNone() {
		t.Errorf("expected All to clear, got %v", s)
	}
	if s := Continent(""); !s.IsNone() {
		t.Errorf("expected empty continent to clear, got %v", s)
	}
	if s := Continent("europe"); !s.Equal(Continent("Europe")) {
		t.Error("continent comparison should be case-insensitive")
	}
}

func TestParseSelection_RoundTrip(t *testing.T) {
	cases := []Selection{
		None(),
		Country("nor"),
		Continent("Europe"),
		Bin(BinRange{X0: 40000, X1: 44500.5}),
	}
	for _, want := range cases {
		got, err := ParseSelection(want.String())
		if err != nil {
			t.Fatalf("ParseSelection(%q): %v", want.String(), err)
		}
		if !got.Equal(want) {
			t.Errorf("round trip %q: got %v want %v", want.String(), got, want)
		}
	}
}

func TestParseSelection_Invalid(t *testing.T) {
	for _, in := range []string{"country:", "planet:Mars", "bin:abc~1", "bin:5~1", "bin:100"} {
		if _, err := ParseSelection(in); !errors.Is(err, ErrInvalidSelection) {
			t.Errorf("ParseSelection(%q) error = %v, want ErrInvalidSelection", in, err)
		}
	}
}

func TestGdpBinContains(t *testing.T) {
	open := GdpBin{BinRange: BinRange{X0: 10, X1: 20}}
	if !open.Contains(10) || open.Contains(20) || open.Contains(9.99) {
		t.Error("open bin must be [x0, x1)")
	}
	closed := GdpBin{BinRange: BinRange{X0: 10, X1: 20}, Closed: true}
	if !closed.Contains(20) {
		t.Error("closed bin must include x1")
	}
}

func TestParamsNormalize(t *testing.T) {
	p := Params{Year: 1990, GDPCeiling: -1, RadialMinGDP: -5}.Normalize()
	if p.Year != FirstYear {
		t.Errorf("year clamp: got %d", p.Year)
	}
	if p.Issue != DefaultIssue || p.GDPCeiling != DefaultGDPCeiling || p.RadialMinGDP != 0 {
		t.Errorf("defaults not applied: %+v", p)
	}
	if got := (Params{Year: 2030}).Normalize().Year; got != LastYear {
		t.Errorf("upper clamp: got %d", got)
	}
}
