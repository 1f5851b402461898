package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/seaung/urlfinder/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "urlfinder.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Discovery kinds stored in the discoveries table.
const (
	KindURL       = "url"
	KindJS        = "js"
	KindSensitive = "sensitive"
	KindCandidate = "candidate"
)

// CrawlDB provides SQLite-based storage for run history.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all runs rather than
// one file per target. Comparing two runs is then a pair of queries over the
// same tables, and backup is a single file copy.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a scan first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per run; report_json holds the full RunReport
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		mode INTEGER NOT NULL,
		fuzz_mode INTEGER NOT NULL,
		seeds TEXT NOT NULL,
		stats TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Crawls store the fetch metadata of every reported page
	CREATE TABLE IF NOT EXISTS crawls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		seed TEXT,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		fingerprint TEXT,
		fetched_at TEXT,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_crawls_url ON crawls(url);

	-- Discoveries are the flattened url/js/sensitive lists and the new candidates
	CREATE TABLE IF NOT EXISTS discoveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		page_url TEXT,
		kind TEXT NOT NULL,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_discoveries_run_kind ON discoveries(run_id, kind);
	CREATE INDEX IF NOT EXISTS idx_discoveries_value ON discoveries(value);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores report in a single transaction and sets report.ID.
func (cdb *CrawlDB) SaveRun(ctx context.Context, report *model.RunReport) (id int64, err error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	seedsJSON, err := json.Marshal(report.Seeds)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize seeds: %w", err)
	}
	statsJSON, err := json.Marshal(report.Stats())
	if err != nil {
		return 0, fmt.Errorf("failed to serialize stats: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, mode, fuzz_mode, seeds, stats, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		int(report.Mode),
		int(report.FuzzMode),
		string(seedsJSON),
		string(statsJSON),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	crawlStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO crawls (run_id, url, seed, status_code, content_type, title, fingerprint, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare crawl insert: %w", err)
	}
	defer crawlStmt.Close()

	discStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO discoveries (run_id, page_url, kind, value) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare discovery insert: %w", err)
	}
	defer discStmt.Close()

	for i := range report.Results {
		r := &report.Results[i]
		if _, err = crawlStmt.ExecContext(ctx,
			id, r.URL, r.Seed, int(r.Status), r.ContentType, r.Title, r.Fingerprint, formatTimestamp(r.FetchedAt),
		); err != nil {
			return 0, fmt.Errorf("failed to insert crawl: %w", err)
		}
		for _, group := range []struct {
			kind   string
			values []string
		}{
			{KindURL, r.URLs},
			{KindJS, r.JSURLs},
			{KindSensitive, r.SensitiveInfo},
		} {
			for _, v := range group.values {
				if _, err = discStmt.ExecContext(ctx, id, r.URL, group.kind, v); err != nil {
					return 0, fmt.Errorf("failed to insert discovery: %w", err)
				}
			}
		}
	}
	for _, c := range report.Candidates {
		if _, err = discStmt.ExecContext(ctx, id, nil, KindCandidate, c); err != nil {
			return 0, fmt.Errorf("failed to insert candidate: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	report.ID = id
	return id, nil
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying history without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended.
	FinishedAt time.Time

	// Mode and FuzzMode are the run parameters.
	Mode     model.Mode
	FuzzMode model.FuzzMode

	// Seeds are the input URLs.
	Seeds []string

	// Stats are the counts computed when the run was saved.
	Stats model.Stats
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, started_at, finished_at, mode, fuzz_mode, seeds, stats
	FROM runs
	ORDER BY id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var (
			meta                RunMetadata
			started             string
			finished            sql.NullString
			mode, fuzzMode      int
			seedsJSON, statsJSN string
		)
		if err := rows.Scan(&meta.ID, &started, &finished, &mode, &fuzzMode, &seedsJSON, &statsJSN); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		meta.StartedAt = parseTimestamp(started)
		if finished.Valid {
			meta.FinishedAt = parseTimestamp(finished.String)
		}
		meta.Mode = model.Mode(mode)
		meta.FuzzMode = model.FuzzMode(fuzzMode)
		if err := json.Unmarshal([]byte(seedsJSON), &meta.Seeds); err != nil {
			return nil, fmt.Errorf("failed to parse seeds of run %d: %w", meta.ID, err)
		}
		if err := json.Unmarshal([]byte(statsJSN), &meta.Stats); err != nil {
			return nil, fmt.Errorf("failed to parse stats of run %d: %w", meta.ID, err)
		}

		runs = append(runs, meta)
	}

	return runs, rows.Err()
}

// GetRun retrieves a run report by its database ID.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*model.RunReport, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	report.ID = id

	return &report, nil
}

// LatestRunIDs returns the IDs of the n most recent runs, newest first.
func (cdb *CrawlDB) LatestRunIDs(ctx context.Context, n int) ([]int64, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list run ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRun removes a run and everything recorded for it.
func (cdb *CrawlDB) DeleteRun(ctx context.Context, id int64) error {
	result, err := cdb.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

// formatTimestamp stores times in a sortable UTC form.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Format written by formatTimestamp
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
