package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/vanderheijden86/mhviz/pkg/metrics"
	"github.com/vanderheijden86/mhviz/pkg/render"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

// Workbook sheet names.
const (
	SheetScatter   = "Scatter"
	SheetHistogram = "Histogram"
	SheetRadial    = "Radial"
	SheetParams    = "Parameters"
)

type sheet struct {
	name   string
	header []any
	rows   [][]any
	widths []float64
}

func workbookSheets(f render.Frame) []sheet {
	v, in := f.Views, f.Instructions

	scatter := sheet{
		name:   SheetScatter,
		header: []any{"Country", "Code", "GDP per capita", "Population", v.Params.Issue + " (%)", "People affected", "Emphasis"},
		widths: []float64{24, 8, 16, 16, 18, 18, 12},
	}
	for _, pt := range v.Scatter.Points {
		scatter.rows = append(scatter.rows, []any{
			pt.Country, pt.Code, pt.GDP, pt.Population, pt.Value, pt.Affected(), in.Emphasis(pt.Code).String(),
		})
	}

	hist := sheet{
		name:   SheetHistogram,
		header: []any{"GDP from", "GDP to", "Countries", "Max liters", "Mean liters", "Selected"},
		widths: []float64{14, 14, 12, 12, 12, 10},
	}
	for i, b := range v.Histogram.Bins {
		hist.rows = append(hist.rows, []any{
			b.X0, b.X1, b.Count(), b.MaxLiters(), views.MeanLiters(b), in.BinSelected(i),
		})
	}

	radial := sheet{
		name:   SheetRadial,
		header: []any{"Age group", "Mean prevalence (%)"},
		widths: []float64{22, 20},
	}
	for _, g := range v.Radial.Groups {
		radial.rows = append(radial.rows, []any{g.AgeGroup, g.MeanPrevalence})
	}

	params := sheet{
		name:   SheetParams,
		header: []any{"Parameter", "Value"},
		widths: []float64{20, 40},
		rows: [][]any{
			{"Year", v.Params.Year},
			{"Issue", v.Params.Issue},
			{"GDP ceiling", v.Params.GDPCeiling},
			{"Radial GDP floor", v.Params.RadialMinGDP},
			{"Radial title", render.RadialTitle(v.Params.Issue, v.Radial.Threshold)},
			{"Selection", in.Selection.String()},
		},
	}
	if a := in.Annotation; a != nil {
		params.rows = append(params.rows, []any{"Annotation", a.Label()})
	}

	return []sheet{scatter, hist, radial, params}
}

// WriteXLSX writes the chart data of f as a workbook with one sheet per
// chart plus a parameters sheet.
func WriteXLSX(w io.Writer, f render.Frame) error {
	defer metrics.Timer(metrics.Export)()

	wb := excelize.NewFile()
	defer wb.Close()

	bold, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0E0E0"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, s := range workbookSheets(f) {
		if i == 0 {
			if err := wb.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := wb.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(wb, s, bold); err != nil {
			return fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	wb.SetActiveSheet(0)

	if err := wb.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(wb *excelize.File, s sheet, headerStyle int) error {
	if err := wb.SetSheetRow(s.name, "A1", &s.header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := wb.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}
	for i, width := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := wb.SetColWidth(s.name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(path string, f render.Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteXLSX(out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
