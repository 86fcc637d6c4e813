package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/vanderheijden86/mhviz/pkg/metrics"
	"github.com/vanderheijden86/mhviz/pkg/render"
	"github.com/vanderheijden86/mhviz/pkg/version"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

// ReportOptions controls the PDF report.
type ReportOptions struct {
	Title  string
	Render render.Options
	Now    func() time.Time
}

// A4 landscape, millimetres.
const (
	pageMargin = 10.0
	lineHeight = 6.0
)

// WriteReport writes a PDF report of f: a header with the parameters and
// selection, the three charts as PNG images and the histogram bin table.
func WriteReport(w io.Writer, f render.Frame, opts ReportOptions) error {
	defer metrics.Timer(metrics.Export)()

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	title := opts.Title
	if title == "" {
		title = "Mental health, GDP and alcohol"
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("mhv "+version.Version, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 10, tr(title), "", 1, "L", false, 0, "")

	p := f.Views.Params
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, lineHeight, tr(fmt.Sprintf("%s, %d. GDP ceiling $%s, radial GDP floor $%s.",
		p.Issue, p.Year, render.FormatThousands(p.GDPCeiling), render.FormatThousands(p.RadialMinGDP))), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, lineHeight, tr("Selection: "+SelectionLabel(f)), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, lineHeight, "Generated "+now().UTC().Format(time.RFC1123), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	images := make(map[render.Chart]render.Geometry, len(render.Charts))
	for _, c := range render.Charts {
		var buf bytes.Buffer
		if err := render.Render(&buf, c, render.FormatPNG, f, opts.Render); err != nil {
			return fmt.Errorf("render %s: %w", c, err)
		}
		pdf.RegisterImageOptionsReader(string(c), fpdf.ImageOptions{ImageType: "PNG"}, &buf)
		if c == render.ChartScatter {
			images[c] = opts.Render.Scatter
		} else {
			images[c] = opts.Render.Chart
		}
	}

	// Scatter across the full width, the other two side by side below it.
	y := pdf.GetY()
	sg := images[render.ChartScatter]
	scatterH := contentW * float64(sg.Height) / float64(sg.Width)
	pdf.ImageOptions(string(render.ChartScatter), pageMargin, y, contentW, scatterH, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	y += scatterH + 4

	halfW := (contentW - 5) / 2
	cg := images[render.ChartHistogram]
	halfH := halfW * float64(cg.Height) / float64(cg.Width)
	pdf.ImageOptions(string(render.ChartHistogram), pageMargin, y, halfW, halfH, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.ImageOptions(string(render.ChartRadial), pageMargin+halfW+5, y, halfW, halfH, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.AddPage()
	binTable(pdf, f, tr, contentW)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func binTable(pdf *fpdf.Fpdf, f render.Frame, tr func(string) string, width float64) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(width, 8, "Alcohol consumption by GDP bin", "", 1, "L", false, 0, "")

	cols := []struct {
		title string
		w     float64
		align string
	}{
		{"GDP range", 70, "L"},
		{"Countries", 30, "R"},
		{"Max liters", 35, "R"},
		{"Mean liters", 35, "R"},
		{"Members", width - 170, "L"},
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(224, 224, 224)
	for _, c := range cols {
		pdf.CellFormat(c.w, lineHeight, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i, b := range f.Views.Histogram.Bins {
		fill := f.Instructions.BinSelected(i)
		if fill {
			pdf.SetFillColor(255, 237, 160)
		}
		members := ""
		for j, m := range b.Members {
			if j > 0 {
				members += ", "
			}
			members += m.Code
		}
		cells := []string{
			fmt.Sprintf("$%s - $%s", render.FormatNumber(b.X0), render.FormatNumber(b.X1)),
			fmt.Sprintf("%d", b.Count()),
			fmt.Sprintf("%.1f", b.MaxLiters()),
			fmt.Sprintf("%.1f", views.MeanLiters(b)),
			truncateString(members, 60),
		}
		for k, c := range cols {
			pdf.CellFormat(c.w, lineHeight, tr(cells[k]), "1", 0, c.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(f.Views.Histogram.Bins) == 0 {
		pdf.CellFormat(width, lineHeight, "No data for this selection", "1", 1, "L", false, 0, "")
	}
}

// SaveReport writes the PDF report to path.
func SaveReport(path string, f render.Frame, opts ReportOptions) error {
	var buf bytes.Buffer
	if err := WriteReport(&buf, f, opts); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}
