// Package hitdb persists reconstructed hits in a sqlite database.
//
// Each pipeline invocation is recorded as a run keyed by a UUID; hits
// are stored against their run in output order.
package hitdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/trd.reco/internal/trd/l3hits"
)

// ErrRunNotFound is returned when a run id has no row in the runs table.
var ErrRunNotFound = errors.New("run not found")

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// DB wraps a sqlx handle on a hit database.
type DB struct {
	*sqlx.DB
}

// Run is one row of the runs table.
type Run struct {
	ID       string         `db:"id"`
	NSamples int            `db:"n_samples"`
	NHits    int            `db:"n_hits"`
	Finished sql.NullString `db:"finished_at"`
}

// Open connects to the sqlite database at path, applies connection
// pragmas and brings the schema up to date.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// foreign_keys is per connection.
	conn.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	db := &DB{conn}
	if err := db.MigrateUp(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// CreateRun inserts a new run and returns its id.
func (db *DB) CreateRun(nSamples int) (string, error) {
	id := uuid.NewString()
	if _, err := db.Exec(`INSERT INTO runs (id, n_samples) VALUES (?, ?)`, id, nSamples); err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// FinishRun records the final hit count of a run.
func (db *DB) FinishRun(runID string, nHits int) error {
	res, err := db.Exec(
		`UPDATE runs SET n_hits = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nHits, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun loads one run.
func (db *DB) GetRun(runID string) (Run, error) {
	var r Run
	err := db.Get(&r, `SELECT id, n_samples, n_hits, finished_at FROM runs WHERE id = ?`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return r, nil
}

type hitRow struct {
	RunID string `db:"run_id"`
	Seq   int    `db:"seq"`
	l3hits.Hit
}

const insertHit = `INSERT INTO hits (
	run_id, seq, address, x, y, z, dx, dy, dz, dxy, ref_id, eloss,
	time_ns, time_error_ns, class_type, max_type, overflow, row_cross
) VALUES (
	:run_id, :seq, :address, :x, :y, :z, :dx, :dy, :dz, :dxy, :ref_id, :eloss,
	:time_ns, :time_error_ns, :class_type, :max_type, :overflow, :row_cross
)`

// InsertHits stores hits for runID in a single transaction. Order is
// preserved through the seq column.
func (db *DB) InsertHits(runID string, hits []l3hits.Hit) error {
	if _, err := db.GetRun(runID); err != nil {
		return err
	}
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(insertHit)
	if err != nil {
		return fmt.Errorf("failed to prepare hit insert: %w", err)
	}
	defer stmt.Close()

	for i, h := range hits {
		if _, err := stmt.Exec(hitRow{RunID: runID, Seq: i, Hit: h}); err != nil {
			return fmt.Errorf("failed to insert hit %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hits: %w", err)
	}
	return nil
}

const selectHits = `SELECT address, x, y, z, dx, dy, dz, dxy, ref_id, eloss,
	time_ns, time_error_ns, class_type, max_type, overflow, row_cross
FROM hits WHERE run_id = ?`

// Hits returns the hits of a run in insertion order.
func (db *DB) Hits(runID string) ([]l3hits.Hit, error) {
	if _, err := db.GetRun(runID); err != nil {
		return nil, err
	}
	var hits []l3hits.Hit
	if err := db.Select(&hits, selectHits+` ORDER BY seq`, runID); err != nil {
		return nil, fmt.Errorf("failed to load hits for %s: %w", runID, err)
	}
	return hits, nil
}

// HitsByAddress returns the hits of one module within a run.
func (db *DB) HitsByAddress(runID string, address int) ([]l3hits.Hit, error) {
	var hits []l3hits.Hit
	err := db.Select(&hits, selectHits+` AND address = ? ORDER BY seq`, runID, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load hits for %s/%d: %w", runID, address, err)
	}
	return hits, nil
}
