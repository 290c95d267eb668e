// Package benchstore records benchmark runs of the trait engine in SQLite.
package benchstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Run is one measured engine configuration.
type Run struct {
	ID        string    `db:"id"`
	Sweep     string    `db:"sweep"`
	CreatedAt time.Time `db:"created_at"`
	Width     int       `db:"width"`
	Height    int       `db:"height"`
	Channels  int       `db:"channels"`
	Workers   int       `db:"workers"`
	BatchRows int       `db:"batch_rows"`
	Movement  string    `db:"movement"`
	Steps     int       `db:"steps"`
	Seconds   float64   `db:"seconds"`
	Contested int64     `db:"contested"`
}

// StepsPerSecond is the measured tick rate.
func (r Run) StepsPerSecond() float64 {
	if r.Seconds <= 0 {
		return 0
	}
	return float64(r.Steps) / r.Seconds
}

// MCellsPerSecond is the measured throughput in millions of cell updates.
func (r Run) MCellsPerSecond() float64 {
	return r.StepsPerSecond() * float64(r.Width*r.Height) / 1e6
}

// DB wraps a SQLite connection holding benchmark runs.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		sweep TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		channels INTEGER NOT NULL,
		workers INTEGER NOT NULL,
		batch_rows INTEGER NOT NULL,
		movement TEXT NOT NULL,
		steps INTEGER NOT NULL,
		seconds REAL NOT NULL,
		contested INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_sweep ON runs(sweep);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Record stores r, assigning an id and timestamp when they are unset.
func (db *DB) Record(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.NamedExecContext(ctx, `INSERT INTO runs
		(id, sweep, created_at, width, height, channels, workers, batch_rows,
		 movement, steps, seconds, contested)
		VALUES (:id, :sweep, :created_at, :width, :height, :channels, :workers, :batch_rows,
		 :movement, :steps, :seconds, :contested)`, r)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Runs returns every stored run in insertion order.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	var runs []Run
	err := db.conn.SelectContext(ctx, &runs, "SELECT * FROM runs ORDER BY created_at, rowid")
	return runs, err
}

// Sweep returns the runs recorded under one sweep id.
func (db *DB) Sweep(ctx context.Context, sweep string) ([]Run, error) {
	var runs []Run
	err := db.conn.SelectContext(ctx, &runs,
		"SELECT * FROM runs WHERE sweep = ? ORDER BY rowid", sweep)
	return runs, err
}
