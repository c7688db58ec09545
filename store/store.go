// Package store persists analysis results in SQLite.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/mididf/analysis"
	"github.com/jsphweid/mididf/chord"
	"github.com/jsphweid/mididf/constants"
	"github.com/jsphweid/mididf/model"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Analysis is the stored overview of one analyzed file.
type Analysis struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	CreatedAt      time.Time `json:"created_at"`
	NumTracks      int       `json:"num_tracks"`
	NumNotes       int       `json:"num_notes"`
	NumRows        int       `json:"num_rows"`
	MaxNotes       int       `json:"max_notes"`
	MaxDyads       int       `json:"max_dyads"`
	ReducedOctaves bool      `json:"reduced_octaves"`
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			created_at TEXT NOT NULL,
			num_tracks INTEGER NOT NULL,
			num_notes INTEGER NOT NULL,
			num_rows INTEGER NOT NULL,
			max_notes INTEGER NOT NULL,
			max_dyads INTEGER NOT NULL,
			reduced_octaves INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS merged_rows (
			analysis_id TEXT NOT NULL,
			row_num INTEGER NOT NULL,
			time_s REAL NOT NULL,
			chord_key TEXT NOT NULL,
			num_pitches INTEGER NOT NULL,
			PRIMARY KEY (analysis_id, row_num)
		);`,
		`CREATE TABLE IF NOT EXISTS intervals (
			analysis_id TEXT NOT NULL,
			semitones INTEGER NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (analysis_id, semitones)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_merged_rows_chord_key ON merged_rows(chord_key);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_filename ON analyses(filename);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "migration failed")
		}
	}
	return nil
}

// Save stores res under a fresh id and returns the stored overview.
func (s *Store) Save(ctx context.Context, filename string, res *analysis.Result) (Analysis, error) {
	a := Analysis{
		ID:             uuid.New().String(),
		Filename:       filename,
		CreatedAt:      time.Now().UTC(),
		NumTracks:      len(res.Tracks),
		NumNotes:       res.NumNotes(),
		NumRows:        len(res.Merged),
		MaxNotes:       res.MaxNotes,
		MaxDyads:       res.MaxDyads,
		ReducedOctaves: res.ReducedOctaves,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Analysis{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO analyses (id, filename, created_at, num_tracks, num_notes, num_rows, max_notes, max_dyads, reduced_octaves)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Filename, a.CreatedAt.Format(time.RFC3339Nano), a.NumTracks, a.NumNotes,
		a.NumRows, a.MaxNotes, a.MaxDyads, boolToInt(a.ReducedOctaves),
	); err != nil {
		return Analysis{}, errors.Wrap(err, "could not insert analysis")
	}

	rowStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO merged_rows (analysis_id, row_num, time_s, chord_key, num_pitches) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Analysis{}, err
	}
	defer rowStmt.Close()
	for i, row := range res.Merged {
		if _, err := rowStmt.ExecContext(ctx, a.ID, i, row.Time, chord.CreateChordKey(row.Pitches), len(row.Pitches)); err != nil {
			return Analysis{}, errors.Wrap(err, "could not insert merged row")
		}
	}

	for _, ic := range model.SortedIntervals(res.Intervals) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO intervals (analysis_id, semitones, count) VALUES (?, ?, ?)`,
			a.ID, ic.Semitones, ic.Count,
		); err != nil {
			return Analysis{}, errors.Wrap(err, "could not insert interval")
		}
	}

	if err := tx.Commit(); err != nil {
		return Analysis{}, err
	}
	return a, nil
}

const analysisColumns = `id, filename, created_at, num_tracks, num_notes, num_rows, max_notes, max_dyads, reduced_octaves`

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scanner) (Analysis, error) {
	var a Analysis
	var createdAt string
	var reduced int
	if err := row.Scan(&a.ID, &a.Filename, &createdAt, &a.NumTracks, &a.NumNotes,
		&a.NumRows, &a.MaxNotes, &a.MaxDyads, &reduced); err != nil {
		return Analysis{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Analysis{}, errors.Wrap(err, "bad created_at")
	}
	a.CreatedAt = t
	a.ReducedOctaves = reduced != 0
	return a, nil
}

// List returns stored analyses, newest first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

var ErrNotFound = errors.New("analysis not found")

func (s *Store) Get(ctx context.Context, id string) (Analysis, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, errors.Wrap(ErrNotFound, id)
	}
	return a, err
}

func (s *Store) Intervals(ctx context.Context, id string) (model.IntervalHistogram, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT semitones, count FROM intervals WHERE analysis_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(model.IntervalHistogram)
	for rows.Next() {
		var semitones, count int
		if err := rows.Scan(&semitones, &count); err != nil {
			return nil, err
		}
		res[semitones] = count
	}
	return res, rows.Err()
}

// StoredRow is a merged row as kept in the database.
type StoredRow struct {
	RowNum  int
	Time    float64
	Pitches model.Notes
}

func (s *Store) Rows(ctx context.Context, id string, limit int) ([]StoredRow, error) {
	query := `SELECT row_num, time_s, chord_key FROM merged_rows WHERE analysis_id = ? ORDER BY row_num`
	args := []any{id}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []StoredRow
	for rows.Next() {
		var r StoredRow
		var key string
		if err := rows.Scan(&r.RowNum, &r.Time, &key); err != nil {
			return nil, err
		}
		if r.Pitches, err = ParseChordKey(key); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// CountChord counts stored rows across all analyses that hold exactly the
// given pitches.
func (s *Store) CountChord(ctx context.Context, pitches model.Notes) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM merged_rows WHERE chord_key = ?`, chord.CreateChordKey(pitches),
	).Scan(&n)
	return n, err
}

func ParseChordKey(key string) (model.Notes, error) {
	if key == "" {
		return nil, nil
	}
	parts := strings.Split(key, "-")
	res := make(model.Notes, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "bad chord key %q", key)
		}
		if n > constants.MaxPitch {
			return nil, errors.Errorf("bad chord key %q: pitch %d out of range", key, n)
		}
		res = append(res, uint8(n))
	}
	return res, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
