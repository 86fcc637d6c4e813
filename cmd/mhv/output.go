package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/vanderheijden86/mhviz/pkg/render"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

const defaultWidth = 100

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or defaultWidth when w is not a
// terminal.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// printMarkdown renders md with glamour on terminals and writes it raw
// otherwise.
func printMarkdown(w io.Writer, md string) error {
	if !isTerminal(w) {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(terminalWidth(w), 120)),
	)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F25D94"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FD8D3C"))
)

// binTable renders the histogram bins as an aligned table that fits width.
func binTable(f render.Frame, width int) string {
	h := f.Views.Histogram
	var sb strings.Builder

	title := fmt.Sprintf("Alcohol consumption by GDP per capita, %d", f.Views.Params.Year)
	sb.WriteString(headerStyle.Render(title) + "\n")
	if len(h.Bins) == 0 {
		sb.WriteString(dimStyle.Render("No data for this selection") + "\n")
		return sb.String()
	}

	const rangeW, numW = 20, 8
	barW := width - rangeW - 3*numW - 8
	if barW < 10 {
		barW = 10
	}
	if barW > 40 {
		barW = 40
	}

	header := cell("GDP range", rangeW, false) + " " + cell("Count", numW, true) + " " +
		cell("Max L", numW, true) + " " + cell("Mean L", numW, true) + "  "
	sb.WriteString(dimStyle.Render(header) + "\n")

	for i, b := range h.Bins {
		rng := fmt.Sprintf("$%s-$%s", render.FormatNumber(b.X0), render.FormatNumber(b.X1))
		row := cell(rng, rangeW, false) + " " +
			cell(fmt.Sprintf("%d", b.Count()), numW, true) + " " +
			cell(fmt.Sprintf("%.1f", b.MaxLiters()), numW, true) + " " +
			cell(fmt.Sprintf("%.1f", views.MeanLiters(b)), numW, true) + "  "

		n := 0
		if h.MaxCount > 0 {
			n = b.Count() * barW / h.MaxCount
		}
		bar := barStyle.Render(strings.Repeat("█", n))
		if f.Instructions.BinSelected(i) {
			row = selectedStyle.Render(row)
			bar += selectedStyle.Render(" ◀")
		}
		sb.WriteString(row + bar + "\n")
	}
	if a := f.Instructions.Annotation; a != nil {
		sb.WriteString(selectedStyle.Render("Reference: "+a.Label()) + "\n")
	}
	return sb.String()
}

// cell pads or truncates s to exactly w display columns.
func cell(s string, w int, right bool) string {
	s = runewidth.Truncate(s, w, "…")
	if right {
		return runewidth.FillLeft(s, w)
	}
	return runewidth.FillRight(s, w)
}
