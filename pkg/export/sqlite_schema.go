package export

import (
	"database/sql"
	"fmt"
)

// Schema version for tracking migrations
const SchemaVersion = 1

// CreateSchema creates all tables and indexes in the database.
func CreateSchema(db *sql.DB) error {
	if err := createChartTables(db); err != nil {
		return fmt.Errorf("create chart tables: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	if err := createMetaTable(db); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	return nil
}

// createChartTables creates one table per chart plus the histogram members.
func createChartTables(db *sql.DB) error {
	tables := []struct {
		name string
		ddl  string
	}{
		{"scatter_points", `
			CREATE TABLE IF NOT EXISTS scatter_points (
				code TEXT PRIMARY KEY,
				country TEXT NOT NULL,
				gdp REAL NOT NULL,
				population REAL NOT NULL,
				prevalence REAL NOT NULL,
				affected REAL NOT NULL,
				emphasis TEXT NOT NULL DEFAULT 'neutral'
			)
		`},
		// x1 is exclusive except for the closed last bin
		{"histogram_bins", `
			CREATE TABLE IF NOT EXISTS histogram_bins (
				idx INTEGER PRIMARY KEY,
				x0 REAL NOT NULL,
				x1 REAL NOT NULL,
				closed INTEGER NOT NULL DEFAULT 0,
				count INTEGER NOT NULL,
				max_liters REAL NOT NULL,
				mean_liters REAL NOT NULL,
				selected INTEGER NOT NULL DEFAULT 0
			)
		`},
		{"bin_members", `
			CREATE TABLE IF NOT EXISTS bin_members (
				bin_idx INTEGER NOT NULL,
				code TEXT NOT NULL,
				country TEXT NOT NULL,
				gdp REAL NOT NULL,
				liters REAL NOT NULL,
				FOREIGN KEY (bin_idx) REFERENCES histogram_bins(idx)
			)
		`},
		{"age_groups", `
			CREATE TABLE IF NOT EXISTS age_groups (
				idx INTEGER PRIMARY KEY,
				age_group TEXT NOT NULL,
				mean_prevalence REAL NOT NULL
			)
		`},
	}
	for _, t := range tables {
		if _, err := db.Exec(t.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", t.name, err)
		}
	}
	return nil
}

// createIndexes creates indexes for the common lookups.
func createIndexes(db *sql.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_scatter_gdp ON scatter_points(gdp)`,
		`CREATE INDEX IF NOT EXISTS idx_scatter_emphasis ON scatter_points(emphasis)`,
		`CREATE INDEX IF NOT EXISTS idx_members_bin ON bin_members(bin_idx)`,
		`CREATE INDEX IF NOT EXISTS idx_members_code ON bin_members(code)`,
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// createMetaTable creates the export metadata table.
func createMetaTable(db *sql.DB) error {
	metaSQL := `
		CREATE TABLE IF NOT EXISTS export_meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)
	`
	if _, err := db.Exec(metaSQL); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

// OptimizeDatabase compacts the database. Call it as the final step before
// closing the database.
func OptimizeDatabase(db *sql.DB, pageSize int) error {
	if pageSize <= 0 {
		pageSize = 4096
	}

	optimizations := []string{
		// Single file mode (no WAL journal)
		`PRAGMA journal_mode=DELETE`,
		fmt.Sprintf(`PRAGMA page_size=%d`, pageSize),
		`ANALYZE`,
		`PRAGMA optimize`,
	}

	for _, stmt := range optimizations {
		if _, err := db.Exec(stmt); err != nil {
			// Some pragmas may fail depending on state, continue
			continue
		}
	}

	// VACUUM must be last and outside transaction
	if _, err := db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}

	return nil
}

// InsertMetaValue inserts or updates a metadata key-value pair.
func InsertMetaValue(db *sql.DB, key, value string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO export_meta (key, value) VALUES (?, ?)`, key, value)
	return err
}
