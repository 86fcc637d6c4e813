// Package export writes dashboard output to files: chart snapshots, a SQLite
// database, an XLSX workbook, a PDF report and a markdown summary. Every
// exporter works from a render.Frame, so an export shows exactly what the
// dashboard would show for the same parameters and selection.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/vanderheijden86/mhviz/pkg/metrics"
	"github.com/vanderheijden86/mhviz/pkg/render"
)

// ErrNoCharts is returned when a snapshot export selects no chart or format.
var ErrNoCharts = errors.New("no charts to export")

// SnapshotOptions controls chart snapshot export.
type SnapshotOptions struct {
	Dir     string
	Formats []render.Format // defaults to SVG
	Charts  []render.Chart  // defaults to every chart
}

// ParseFormats parses a -format flag value: "svg", "png" or "all".
func ParseFormats(s string) ([]render.Format, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return []render.Format{render.FormatSVG, render.FormatPNG}, nil
	}
	var out []render.Format
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := render.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", render.ErrUnsupportedFormat, s)
	}
	return out, nil
}

// SnapshotName returns the file name of one chart snapshot, e.g.
// "scatter_2014_schizophrenia.svg".
func SnapshotName(f render.Frame, chart render.Chart, format render.Format) string {
	p := f.Views.Params
	return fmt.Sprintf("%s_%d_%s.%s", chart, p.Year, slug(p.Issue), format)
}

// SaveSnapshots renders the selected charts of f in every selected format
// into Dir and returns the written paths in chart order.
func SaveSnapshots(f render.Frame, opts render.Options, so SnapshotOptions) ([]string, error) {
	defer metrics.Timer(metrics.Export)()

	formats := so.Formats
	if formats == nil {
		formats = []render.Format{render.FormatSVG}
	}
	charts := so.Charts
	if charts == nil {
		charts = render.Charts
	}
	if len(formats) == 0 || len(charts) == 0 {
		return nil, ErrNoCharts
	}
	if so.Dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(so.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	for _, c := range charts {
		for _, format := range formats {
			var buf bytes.Buffer
			if err := render.Render(&buf, c, format, f, opts); err != nil {
				return written, fmt.Errorf("render %s.%s: %w", c, format, err)
			}
			path := filepath.Join(so.Dir, SnapshotName(f, c, format))
			if err := writeFileAtomic(path, buf.Bytes()); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// slug lowercases s and joins its words with hyphens.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "chart"
	}
	return b.String()
}
