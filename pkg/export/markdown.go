package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/mhviz/pkg/highlight"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/render"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

// SummaryConfig controls GenerateSummary.
type SummaryConfig struct {
	Title     string
	TopN      int // scatter rows listed by prevalence
	Timestamp bool
}

// DefaultSummaryConfig returns the defaults used by the CLI.
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		Title:     "Mental health, GDP and alcohol",
		TopN:      10,
		Timestamp: true,
	}
}

// SelectionLabel names the selection of f for people: a country name, a
// continent, a GDP range or "none".
func SelectionLabel(f render.Frame) string {
	sel := f.Instructions.Selection
	switch sel.Kind {
	case model.SelectCountry:
		if pt, ok := f.Views.Scatter.Point(sel.Code); ok {
			return pt.Country
		}
		if a := f.Instructions.Annotation; a != nil {
			return a.Country
		}
		return sel.Code
	case model.SelectContinent:
		return sel.Continent
	case model.SelectBin:
		return fmt.Sprintf("GDP $%s - $%s", render.FormatNumber(sel.Bin.X0), render.FormatNumber(sel.Bin.X1))
	default:
		return "none"
	}
}

// GenerateSummary renders a markdown summary of the three charts of f.
func GenerateSummary(f render.Frame, cfg SummaryConfig) string {
	var sb strings.Builder
	v, in := f.Views, f.Instructions
	p := v.Params

	title := cfg.Title
	if title == "" {
		title = DefaultSummaryConfig().Title
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	if cfg.Timestamp {
		sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", time.Now().Format(time.RFC1123)))
	}

	sb.WriteString("| Parameter | Value |\n|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Year | %d |\n", p.Year))
	sb.WriteString(fmt.Sprintf("| Issue | %s |\n", p.Issue))
	sb.WriteString(fmt.Sprintf("| GDP ceiling | $%s |\n", render.FormatThousands(p.GDPCeiling)))
	sb.WriteString(fmt.Sprintf("| Radial GDP floor | $%s |\n", render.FormatThousands(p.RadialMinGDP)))
	sb.WriteString(fmt.Sprintf("| Selection | %s |\n\n", SelectionLabel(f)))

	writeScatterSection(&sb, v, in, cfg.TopN)
	writeHistogramSection(&sb, v, in)
	writeRadialSection(&sb, v)

	return sb.String()
}

func writeScatterSection(sb *strings.Builder, v views.Views, in highlight.Instructions, topN int) {
	sb.WriteString("## Prevalence vs. GDP per capita\n\n")
	if len(v.Scatter.Points) == 0 {
		sb.WriteString("No countries match the current parameters.\n\n")
		return
	}
	sb.WriteString(fmt.Sprintf("%d countries plotted.", len(v.Scatter.Points)))
	if emph := codesWith(in, highlight.Emphasized); len(emph) > 0 {
		sb.WriteString(fmt.Sprintf(" Emphasized: %s.", strings.Join(emph, ", ")))
	}
	sb.WriteString("\n\n")

	points := append([]model.ScatterPoint(nil), v.Scatter.Points...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Value > points[j].Value })
	if topN > 0 && len(points) > topN {
		points = points[:topN]
	}

	sb.WriteString(fmt.Sprintf("| Country | GDP per capita | Population | %s | People affected |\n", v.Params.Issue))
	sb.WriteString("|---------|---------------:|-----------:|---:|----------------:|\n")
	for _, pt := range points {
		name := truncateString(pt.Country, 30)
		if in.Emphasis(pt.Code) == highlight.Emphasized {
			name = "**" + name + "**"
		}
		sb.WriteString(fmt.Sprintf("| %s | $%s | %s | %.2f%% | %s |\n",
			name, render.FormatNumber(pt.GDP), render.FormatNumber(pt.Population), pt.Value, render.FormatNumber(pt.Affected())))
	}
	sb.WriteString("\n")
}

func writeHistogramSection(sb *strings.Builder, v views.Views, in highlight.Instructions) {
	sb.WriteString("## Alcohol consumption by GDP per capita\n\n")
	h := v.Histogram
	if len(h.Bins) == 0 {
		sb.WriteString("No data for this selection.\n\n")
		return
	}
	if a := in.Annotation; a != nil {
		sb.WriteString(fmt.Sprintf("Reference line: %s.\n\n", a.Label()))
	}

	sb.WriteString("| GDP range | Countries | Max liters | Mean liters | |\n")
	sb.WriteString("|-----------|----------:|-----------:|------------:|-|\n")
	for i, b := range h.Bins {
		rng := fmt.Sprintf("$%s - $%s", render.FormatNumber(b.X0), render.FormatNumber(b.X1))
		if in.BinSelected(i) {
			rng = "**" + rng + "**"
		}
		share := 0.0
		if h.MaxCount > 0 {
			share = float64(b.Count()) / float64(h.MaxCount)
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.1f | %.1f | %s |\n",
			rng, b.Count(), b.MaxLiters(), views.MeanLiters(b), barChart(share)))
	}
	sb.WriteString("\n")
}

func writeRadialSection(sb *strings.Builder, v views.Views) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", render.RadialTitle(v.Params.Issue, v.Radial.Threshold)))
	if len(v.Radial.Groups) == 0 {
		sb.WriteString("No countries above the GDP threshold.\n\n")
		return
	}
	sb.WriteString("| Age group | Mean prevalence | |\n|-----------|----------------:|-|\n")
	for _, g := range v.Radial.Groups {
		share := 0.0
		if v.Radial.MaxValue > 0 {
			share = g.MeanPrevalence / v.Radial.MaxValue
		}
		sb.WriteString(fmt.Sprintf("| %s | %.2f%% | %s |\n", g.AgeGroup, g.MeanPrevalence, barChart(share)))
	}
	sb.WriteString("\n")
}

func codesWith(in highlight.Instructions, e highlight.Emphasis) []string {
	var out []string
	for code, got := range in.Markers {
		if got == e {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// SaveSummary writes the markdown summary to filename.
func SaveSummary(f render.Frame, cfg SummaryConfig, filename string) error {
	return writeFileAtomic(filename, []byte(GenerateSummary(f, cfg)))
}

// barChart creates a mini bar for a 0-1 value
func barChart(value float64) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value*8 + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", 8-filled)
}

// truncateString truncates a string to maxLen runes with ellipsis.
// Uses rune-based counting to safely handle UTF-8 multi-byte characters.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
