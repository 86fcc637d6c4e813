package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vanderheijden86/mhviz/pkg/metrics"
	"github.com/vanderheijden86/mhviz/pkg/render"
	"github.com/vanderheijden86/mhviz/pkg/version"
	"github.com/vanderheijden86/mhviz/pkg/views"

	_ "modernc.org/sqlite"
)

// SQLiteExportConfig configures the SQLite export.
type SQLiteExportConfig struct {
	// Title is stored in export_meta when set
	Title string

	// PageSize is the SQLite page size
	PageSize int
}

// DefaultSQLiteExportConfig returns sensible defaults for export configuration.
func DefaultSQLiteExportConfig() SQLiteExportConfig {
	return SQLiteExportConfig{PageSize: 4096}
}

// SQLiteExporter writes the derived chart data of a frame to a SQLite
// database.
type SQLiteExporter struct {
	Frame  render.Frame
	Config SQLiteExportConfig
	now    func() time.Time
}

// NewSQLiteExporter creates an exporter for f.
func NewSQLiteExporter(f render.Frame) *SQLiteExporter {
	return &SQLiteExporter{
		Frame:  f,
		Config: DefaultSQLiteExportConfig(),
		now:    time.Now,
	}
}

// Export writes the database to path, replacing any existing file.
func (e *SQLiteExporter) Export(path string) error {
	defer metrics.Timer(metrics.Export)()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	dbClosed := false
	defer func() {
		if !dbClosed {
			db.Close()
		}
	}()

	if err := CreateSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := e.insertScatter(db); err != nil {
		return fmt.Errorf("insert scatter points: %w", err)
	}
	if err := e.insertBins(db); err != nil {
		return fmt.Errorf("insert histogram bins: %w", err)
	}
	if err := e.insertAgeGroups(db); err != nil {
		return fmt.Errorf("insert age groups: %w", err)
	}
	if err := e.insertMeta(db); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	if err := OptimizeDatabase(db, e.Config.PageSize); err != nil {
		return fmt.Errorf("optimize database: %w", err)
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	dbClosed = true
	return nil
}

func (e *SQLiteExporter) insertScatter(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO scatter_points (code, country, gdp, population, prevalence, affected, emphasis)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, pt := range e.Frame.Views.Scatter.Points {
		_, err := stmt.Exec(
			pt.Code,
			pt.Country,
			pt.GDP,
			pt.Population,
			pt.Value,
			pt.Affected(),
			e.Frame.Instructions.Emphasis(pt.Code).String(),
		)
		if err != nil {
			return fmt.Errorf("insert point %s: %w", pt.Code, err)
		}
	}

	return tx.Commit()
}

func (e *SQLiteExporter) insertBins(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	binStmt, err := tx.Prepare(`
		INSERT INTO histogram_bins (idx, x0, x1, closed, count, max_liters, mean_liters, selected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer binStmt.Close()

	memberStmt, err := tx.Prepare(`
		INSERT INTO bin_members (bin_idx, code, country, gdp, liters)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer memberStmt.Close()

	for i, b := range e.Frame.Views.Histogram.Bins {
		_, err := binStmt.Exec(i, b.X0, b.X1, b.Closed, b.Count(), b.MaxLiters(), views.MeanLiters(b),
			e.Frame.Instructions.BinSelected(i))
		if err != nil {
			return fmt.Errorf("insert bin %s: %w", b.BinRange, err)
		}
		for _, m := range b.Members {
			if _, err := memberStmt.Exec(i, m.Code, m.Country, m.GDP, m.Liters); err != nil {
				return fmt.Errorf("insert member %s: %w", m.Code, err)
			}
		}
	}

	return tx.Commit()
}

func (e *SQLiteExporter) insertAgeGroups(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO age_groups (idx, age_group, mean_prevalence) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, g := range e.Frame.Views.Radial.Groups {
		if _, err := stmt.Exec(i, g.AgeGroup, g.MeanPrevalence); err != nil {
			return fmt.Errorf("insert age group %q: %w", g.AgeGroup, err)
		}
	}

	return tx.Commit()
}

// insertMeta records the parameters and selection the data was derived from.
func (e *SQLiteExporter) insertMeta(db *sql.DB) error {
	p := e.Frame.Views.Params
	meta := map[string]string{
		"version":          version.Version,
		"generated_at":     e.now().UTC().Format(time.RFC3339),
		"schema_version":   strconv.Itoa(SchemaVersion),
		"year":             strconv.Itoa(p.Year),
		"issue":            p.Issue,
		"gdp_ceiling":      strconv.FormatFloat(p.GDPCeiling, 'f', -1, 64),
		"radial_min_gdp":   strconv.FormatFloat(p.RadialMinGDP, 'f', -1, 64),
		"radial_threshold": strconv.FormatFloat(e.Frame.Views.Radial.Threshold, 'f', -1, 64),
		"selection":        e.Frame.Instructions.Selection.String(),
	}
	if a := e.Frame.Instructions.Annotation; a != nil {
		meta["annotation"] = a.Label()
	}
	if e.Config.Title != "" {
		meta["title"] = e.Config.Title
	}

	for key, value := range meta {
		if err := InsertMetaValue(db, key, value); err != nil {
			return fmt.Errorf("insert meta %s: %w", key, err)
		}
	}
	return nil
}
