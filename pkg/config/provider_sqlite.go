package config

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const profileSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	name             TEXT NOT NULL UNIQUE,
	model            TEXT,
	gradient_factor  REAL,
	surface_pressure REAL,
	water_vapor      REAL,
	created_at       TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS gases (
	profile_id INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	helium     REAL NOT NULL,
	nitrogen   REAL NOT NULL,
	PRIMARY KEY (profile_id, name)
);
CREATE TABLE IF NOT EXISTS segments (
	profile_id      INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	begin_depth     REAL NOT NULL,
	end_depth       REAL NOT NULL,
	minutes         REAL NOT NULL,
	gas             TEXT,
	gradient_factor REAL,
	PRIMARY KEY (profile_id, seq)
);
`

// SQLiteProvider implements ProfileProvider for SQLite profile databases
type SQLiteProvider struct {
	db          *sql.DB
	dbPath      string
	profileName string
}

// NewSQLiteProvider creates a new SQLite profile provider. profileName selects
// the profile to load; when empty the oldest profile in the database is used.
func NewSQLiteProvider(dbPath, profileName string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(profileSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create profile schema: %w", err)
	}

	return &SQLiteProvider{
		db:          db,
		dbPath:      dbPath,
		profileName: profileName,
	}, nil
}

// LoadProfile loads the selected profile from the database
func (s *SQLiteProvider) LoadProfile() (*ProfileData, error) {
	var (
		id                         int64
		p                          ProfileData
		model                      sql.NullString
		gf, surfacePressure, vapor sql.NullFloat64
	)

	query := `SELECT id, name, model, gradient_factor, surface_pressure, water_vapor FROM profiles `
	var row *sql.Row
	if s.profileName != "" {
		row = s.db.QueryRow(query+`WHERE name = ?`, s.profileName)
	} else {
		row = s.db.QueryRow(query + `ORDER BY id LIMIT 1`)
	}

	err := row.Scan(&id, &p.Name, &model, &gf, &surfacePressure, &vapor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: profile %q not found in %s", ErrInvalidProfile, s.profileName, s.dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	// Convert nullable fields to zero values if NULL
	if model.Valid {
		p.Model = model.String
	}
	if gf.Valid {
		p.GradientFactor = gf.Float64
	}
	if surfacePressure.Valid {
		p.Environment.SurfacePressure = surfacePressure.Float64
	}
	if vapor.Valid {
		p.Environment.WaterVapor = vapor.Float64
	}

	if p.Gases, err = s.loadGases(id); err != nil {
		return nil, err
	}
	if p.Segments, err = s.loadSegments(id); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteProvider) loadGases(profileID int64) ([]GasData, error) {
	rows, err := s.db.Query(`SELECT name, helium, nitrogen FROM gases WHERE profile_id = ? ORDER BY name`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gases: %w", err)
	}
	defer rows.Close()

	var gases []GasData
	for rows.Next() {
		var g GasData
		if err := rows.Scan(&g.Name, &g.Helium, &g.Nitrogen); err != nil {
			return nil, fmt.Errorf("failed to scan gas row: %w", err)
		}
		gases = append(gases, g)
	}
	return gases, rows.Err()
}

func (s *SQLiteProvider) loadSegments(profileID int64) ([]SegmentData, error) {
	rows, err := s.db.Query(`
		SELECT begin_depth, end_depth, minutes, gas, gradient_factor
		FROM segments
		WHERE profile_id = ?
		ORDER BY seq`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []SegmentData
	for rows.Next() {
		var seg SegmentData
		var gas sql.NullString
		var gf sql.NullFloat64
		if err := rows.Scan(&seg.BeginDepth, &seg.EndDepth, &seg.Minutes, &gas, &gf); err != nil {
			return nil, fmt.Errorf("failed to scan segment row: %w", err)
		}
		if gas.Valid {
			seg.Gas = gas.String
		}
		if gf.Valid {
			seg.GradientFactor = gf.Float64
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// IsReadOnly returns false since SQLite profiles can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveProfile writes a profile, replacing any existing profile of the same name
func (s *SQLiteProvider) SaveProfile(p *ProfileData) error {
	if err := p.Validate(); err != nil {
		return err
	}

	// Start transaction
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Clear existing data
	if err := clearProfile(tx, p.Name); err != nil {
		return fmt.Errorf("failed to clear existing profile: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO profiles (name, model, gradient_factor, surface_pressure, water_vapor) VALUES (?, ?, ?, ?, ?)`,
		p.Name, nullString(p.Model), nullFloat(p.GradientFactor),
		nullFloat(p.Environment.SurfacePressure), nullFloat(p.Environment.WaterVapor))
	if err != nil {
		return fmt.Errorf("failed to insert profile %s: %w", p.Name, err)
	}
	profileID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for _, g := range p.Gases {
		if _, err := tx.Exec(`INSERT INTO gases (profile_id, name, helium, nitrogen) VALUES (?, ?, ?, ?)`,
			profileID, g.Name, g.Helium, g.Nitrogen); err != nil {
			return fmt.Errorf("failed to insert gas %s: %w", g.Name, err)
		}
	}

	for i, seg := range p.Segments {
		if _, err := tx.Exec(`
			INSERT INTO segments (profile_id, seq, begin_depth, end_depth, minutes, gas, gradient_factor)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			profileID, i+1, seg.BeginDepth, seg.EndDepth, seg.Minutes,
			nullString(seg.Gas), nullFloat(seg.GradientFactor)); err != nil {
			return fmt.Errorf("failed to insert segment %d: %w", i+1, err)
		}
	}

	// Commit transaction
	return tx.Commit()
}

func clearProfile(tx *sql.Tx, name string) error {
	queries := []string{
		"DELETE FROM gases WHERE profile_id IN (SELECT id FROM profiles WHERE name = ?)",
		"DELETE FROM segments WHERE profile_id IN (SELECT id FROM profiles WHERE name = ?)",
		"DELETE FROM profiles WHERE name = ?",
	}

	for _, query := range queries {
		if _, err := tx.Exec(query, name); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f != 0}
}
