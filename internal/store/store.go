package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pt3002/CN-Project/pkg/loadtest"
	"github.com/pt3002/CN-Project/pkg/log"
)

// DefaultPath is the database used when history is enabled without a path
const DefaultPath = "loadtest.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	elapsed_ns  INTEGER NOT NULL,
	urls        TEXT NOT NULL,
	calls       INTEGER NOT NULL,
	concurrent  INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	throughput  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	url         TEXT NOT NULL,
	status      INTEGER NOT NULL,
	length      INTEGER NOT NULL,
	observed_at INTEGER NOT NULL,
	latency_ns  INTEGER NOT NULL,
	worker      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id);
`

// Manager persists completed runs in a sqlite database
type Manager struct {
	db *sql.DB
}

// RunRow is the stored summary of a run
type RunRow struct {
	ID         string
	StartedAt  time.Time
	Elapsed    time.Duration
	URLs       []string
	Calls      int
	Concurrent int
	Total      int
	Failed     int
	Throughput float64
}

// NewManager opens or creates the database at path and ensures the schema exists
func NewManager(path string) (*Manager, error) {
	if path == "" {
		path = DefaultPath
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// SaveRun stores the run summary and every record in a single transaction
func (m *Manager) SaveRun(ctx context.Context, run *loadtest.Run) error {
	summary := run.Summary()
	records := run.Records()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, elapsed_ns, urls, calls, concurrent, total, failed, throughput)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID.String(), run.Start.UnixNano(), int64(run.Elapsed), strings.Join(run.URLs, ","),
		run.Calls, run.Concurrent, summary.Total, summary.Failed, summary.Throughput)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (run_id, url, status, length, observed_at, latency_ns, worker)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, run.ID.String(), r.URL, r.Status, r.Length, r.Timestamp.UnixNano(), int64(r.Latency), r.Worker); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	log.Debug().Str("id", run.ID.String()).Int("records", len(records)).Msg("saved run")
	return nil
}

// ListRuns returns the most recent runs first. A limit below 1 returns every run
func (m *Manager) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, started_at, elapsed_ns, urls, calls, concurrent, total, failed, throughput
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var ret []RunRow
	for rows.Next() {
		var (
			r         RunRow
			startedAt int64
			elapsed   int64
			urls      string
		)
		if err := rows.Scan(&r.ID, &startedAt, &elapsed, &urls, &r.Calls, &r.Concurrent, &r.Total, &r.Failed, &r.Throughput); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, startedAt)
		r.Elapsed = time.Duration(elapsed)
		r.URLs = strings.Split(urls, ",")
		ret = append(ret, r)
	}
	return ret, rows.Err()
}

// Records returns the stored records of a run in the order they were produced
func (m *Manager) Records(ctx context.Context, id string) ([]loadtest.Record, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT url, status, length, observed_at, latency_ns, worker
		FROM records
		WHERE run_id = ?
		ORDER BY rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var ret []loadtest.Record
	for rows.Next() {
		var (
			r          loadtest.Record
			observedAt int64
			latency    int64
		)
		if err := rows.Scan(&r.URL, &r.Status, &r.Length, &observedAt, &latency, &r.Worker); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Timestamp = time.Unix(0, observedAt)
		r.Latency = time.Duration(latency)
		ret = append(ret, r)
	}
	return ret, rows.Err()
}
