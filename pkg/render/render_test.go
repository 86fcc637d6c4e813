package render

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/vanderheijden86/mhviz/pkg/config"
	"github.com/vanderheijden86/mhviz/pkg/loader"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/testutil"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

func sampleViews(t *testing.T, p model.Params) views.Views {
	t.Helper()
	ds, _, err := loader.New(testutil.WriteSampleData(t)).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	return views.Derive(ds, p, model.DefaultBinCount)
}

func testOptions() Options {
	opts := DefaultOptions(config.DefaultConfig().Charts)
	opts.Href = func(sel model.Selection) string {
		return "/?year=2014&sel=" + url.QueryEscape(sel.String())
	}
	return opts
}

func renderString(t *testing.T, chart Chart, f Frame, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, chart, FormatSVG, f, opts); err != nil {
		t.Fatalf("Render(%s) failed: %v", chart, err)
	}
	return buf.String()
}

func sampleContinents() map[string]string {
	return testutil.ContinentMap(testutil.SampleCountries())
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"svg": FormatSVG, ".PNG": FormatPNG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := ParseChart("pie"); !errors.Is(err, ErrUnknownChart) {
		t.Errorf("expected ErrUnknownChart, got %v", err)
	}
}

func TestTicks(t *testing.T) {
	got := Ticks(0, 90000, 10)
	if len(got) != 10 || got[0] != 0 || got[9] != 90000 {
		t.Errorf("Ticks(0, 90000) = %v", got)
	}
	testutil.AssertClose(t, "TickStep(0, 1)", TickStep(0, 1, 10), 0.1, 1e-12)
	if got := Ticks(5, 5, 10); len(got) != 1 || got[0] != 5 {
		t.Errorf("degenerate ticks = %v", got)
	}
}

func TestBand(t *testing.T) {
	b := Band{N: 3, R0: 0, R1: 2 * math.Pi, Padding: 0.1}
	testutil.AssertClose(t, "first start", b.Start(0), b.step()*0.1, 1e-12)
	end := b.Start(2) + b.Width()
	testutil.AssertClose(t, "symmetric outer padding", 2*math.Pi-end, b.Start(0), 1e-12)
	if b.Start(1) <= b.Start(0)+b.Width() {
		t.Error("bands overlap")
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		1_295_000_000: "1.3B",
		5_137_000:     "5.1M",
		65_000:        "65.0K",
		999:           "999",
		0.4:           "0",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
	if got := RadialTitle("Schizophrenia", 50000); got != "Schizophrenia (GDP ≥ 50,000)" {
		t.Errorf("RadialTitle = %q", got)
	}
}

func TestRampEndpoints(t *testing.T) {
	if got := YlOrRd.At(0).Hex(); got != "#ffffcc" {
		t.Errorf("YlOrRd(0) = %s", got)
	}
	if got := YlOrRd.Scaled(5, 5).Hex(); got != "#800026" {
		t.Errorf("YlOrRd(1) = %s", got)
	}
	if got := Purples.Scaled(3, 0).Hex(); got != "#fcfbfd" {
		t.Errorf("zero max should map to the first stop, got %s", got)
	}
}

func TestSectorPath(t *testing.T) {
	s := Sector{Inner: 60, Outer: 97.5, Start: 0, End: math.Pi / 2, PadAngle: 0.02, PadRadius: 60}
	d := s.Path()
	if !strings.HasPrefix(d, "M") || !strings.HasSuffix(d, "Z") || strings.Count(d, "A") != 2 {
		t.Errorf("unexpected path %q", d)
	}
	x, y := s.Centroid()
	if x <= 0 || y >= 0 {
		t.Errorf("centroid of first quadrant sector should be up-right, got (%v, %v)", x, y)
	}
}

func TestScatterSVG_CountrySelection(t *testing.T) {
	v := sampleViews(t, model.DefaultParams())
	f := NewFrame(v, model.Country("NOR"), sampleContinents())
	opts := testOptions()
	opts.FlagURL = func(code string) string { return "/flags/" + code + ".png" }

	out := renderString(t, ChartScatter, f, opts)
	testutil.AssertWellFormedXML(t, out)
	testutil.AssertContains(t, out,
		`class="marker emphasized" data-code="NOR"`,
		`class="marker dimmed" data-code="DEU"`,
		"opacity:0.3;filter:brightness(0.4)",
		"filter:brightness(1.2)",
		`href="/flags/NOR.png"`,
		"Country: Norway",
		"GDP per capita: $65.0K",
		"GDP per Capita",
		// Clicking the selected flag again clears the selection.
		`xlink:href="/?year=2014&amp;sel="`,
		`xlink:href="/?year=2014&amp;sel=country%3ADEU"`,
	)
	if strings.Count(out, `class="flag"`) != len(v.Scatter.Points) {
		t.Errorf("expected one flag per point")
	}
	// Emphasized markers paint last.
	if strings.LastIndex(out, `class="marker dimmed"`) > strings.Index(out, `class="marker emphasized"`) {
		t.Error("emphasized marker should be drawn after dimmed markers")
	}
}

func TestScatterSVG_TilesWithoutFlags(t *testing.T) {
	v := sampleViews(t, model.DefaultParams())
	out := renderString(t, ChartScatter, NewFrame(v, model.None(), nil), DefaultOptions(config.DefaultConfig().Charts))
	testutil.AssertWellFormedXML(t, out)
	if strings.Contains(out, "<image") || strings.Contains(out, "xlink:href") {
		t.Error("no images or links expected without FlagURL and Href")
	}
	if strings.Contains(out, "dimmed") {
		t.Error("nothing should be dimmed without a selection")
	}
}

func TestHistogramSVG_Annotation(t *testing.T) {
	v := sampleViews(t, model.DefaultParams())
	f := NewFrame(v, model.Country("NOR"), sampleContinents())
	out := renderString(t, ChartHistogram, f, testOptions())

	testutil.AssertWellFormedXML(t, out)
	testutil.AssertContains(t, out,
		`class="bar selected"`,
		`class="highlight-line"`,
		"Norway: 7.5 L",
		"GDP per capita (PPP)",
		"Alcohol Consumption (liters per capita)",
		"Countries in range: 1",
	)
	if n := strings.Count(out, `class="bar`); n != len(v.Histogram.Bins) {
		t.Errorf("expected %d bars, got %d", len(v.Histogram.Bins), n)
	}
	if strings.Count(out, `class="bar selected"`) != 1 {
		t.Error("exactly one bar should be selected")
	}
}

func TestHistogramSVG_BinToggleLink(t *testing.T) {
	v := sampleViews(t, model.DefaultParams())
	first := v.Histogram.Bins[0].BinRange
	f := NewFrame(v, model.Bin(first), sampleContinents())
	out := renderString(t, ChartHistogram, f, testOptions())

	if strings.Contains(out, "highlight-line") {
		t.Error("bin selection draws no reference line")
	}
	// The selected bar links back to the cleared state.
	idx := strings.Index(out, `class="bar selected"`)
	if idx < 0 {
		t.Fatal("selected bar missing")
	}
	head := out[:idx]
	link := head[strings.LastIndex(head, "<a "):]
	if !strings.Contains(link, `sel="`) {
		t.Errorf("selected bar should link to an empty selection, got %q", link)
	}
}

func TestHistogramSVG_Empty(t *testing.T) {
	p := model.DefaultParams()
	p.GDPCeiling = 1
	v := sampleViews(t, p)
	out := renderString(t, ChartHistogram, NewFrame(v, model.None(), nil), testOptions())
	testutil.AssertWellFormedXML(t, out)
	testutil.AssertContains(t, out, "No data for this selection")
}

func TestRadialSVG(t *testing.T) {
	p := model.DefaultParams()
	p.RadialMinGDP = 50000
	v := sampleViews(t, p)
	out := renderString(t, ChartRadial, NewFrame(v, model.None(), nil), testOptions())

	testutil.AssertWellFormedXML(t, out)
	testutil.AssertContains(t, out, "Schizophrenia (GDP ≥ 50,000)", "Age Group: 10-14 years old", `class="radial-label"`)
	if n := strings.Count(out, `class="radial-bar"`); n != len(v.Radial.Groups) {
		t.Errorf("expected %d radial bars, got %d", len(v.Radial.Groups), n)
	}
}

func TestRenderPNG(t *testing.T) {
	p := model.DefaultParams()
	p.RadialMinGDP = 10000
	v := sampleViews(t, p)
	f := NewFrame(v, model.Country("NOR"), sampleContinents())
	opts := testOptions()

	for _, chart := range Charts {
		var buf bytes.Buffer
		if err := Render(&buf, chart, FormatPNG, f, opts); err != nil {
			t.Fatalf("Render(%s, png) failed: %v", chart, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			t.Fatalf("%s: invalid PNG: %v", chart, err)
		}
		want := opts.Chart
		if chart == ChartScatter {
			want = opts.Scatter
		}
		if b := img.Bounds(); b.Dx() != want.Width || b.Dy() != want.Height {
			t.Errorf("%s: size %v, want %dx%d", chart, b, want.Width, want.Height)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_WriteError(t *testing.T) {
	v := sampleViews(t, model.DefaultParams())
	err := Render(failingWriter{}, ChartHistogram, FormatSVG, NewFrame(v, model.None(), nil), testOptions())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected write error, got %v", err)
	}
	if err := Render(&bytes.Buffer{}, ChartRadial, Format("gif"), Frame{}, testOptions()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
