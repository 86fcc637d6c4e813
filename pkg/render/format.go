package render

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatNumber abbreviates large values: 1.2B, 3.4M, 5.6K, otherwise the
// value rounded to an integer.
func FormatNumber(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

var printer = message.NewPrinter(language.English)

// FormatThousands renders v with thousands separators and no fraction
// unless v has one, e.g. 12,500 or 1,234.5.
func FormatThousands(v float64) string {
	if v == math.Trunc(v) {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.1f", v)
}

// RadialTitle is the radial chart heading for an issue and GDP threshold.
func RadialTitle(issue string, threshold float64) string {
	return fmt.Sprintf("%s (GDP ≥ %s)", issue, FormatThousands(threshold))
}
