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

	"github.com/nao1215/autodork/internal/model"
)

// DBFileName is the name of the history database inside its directory.
const DBFileName = "autodork.db"

// HistoryDB stores run and dispatch history.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; dispatch callbacks share this handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		dork_count INTEGER DEFAULT 0,
		candidate_count INTEGER DEFAULT 0,
		working_count INTEGER DEFAULT 0,
		summary_json TEXT
	);

	CREATE TABLE IF NOT EXISTS dispatches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		dork TEXT NOT NULL,
		outcome TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		result_count INTEGER DEFAULT 0,
		result_file TEXT,
		last_error TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dispatches_dork ON dispatches(dork);
	CREATE INDEX IF NOT EXISTS idx_dispatches_run ON dispatches(run_id);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored run.
type RunRecord struct {
	ID             int64          `json:"id"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	DorkCount      int            `json:"dork_count"`
	CandidateCount int            `json:"candidate_count"`
	WorkingCount   int            `json:"working_proxy_count"`
	Outcomes       map[string]int `json:"outcomes,omitempty"`
}

// DispatchRecord is a stored dork dispatch.
type DispatchRecord struct {
	ID          int64         `json:"id"`
	RunID       int64         `json:"run_id"`
	Dork        string        `json:"dork"`
	Outcome     model.Outcome `json:"outcome"`
	Attempts    int           `json:"attempts"`
	ResultCount int           `json:"result_count"`
	ResultFile  string        `json:"result_file,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// StartRun inserts a new run row and returns its ID.
func (h *HistoryDB) StartRun(ctx context.Context, run *model.Run) (int64, error) {
	res, err := h.db.ExecContext(ctx,
		`INSERT INTO runs (started_at) VALUES (?)`,
		formatTimestamp(run.StartedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	return id, nil
}

// FinishRun stores the aggregate counts of a completed run.
func (h *HistoryDB) FinishRun(ctx context.Context, id int64, summary *model.RunSummary) error {
	outcomes := make(map[string]int, len(summary.Outcomes))
	for o, n := range summary.Outcomes {
		outcomes[o.String()] = n
	}
	summaryJSON, err := json.Marshal(outcomes)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	query := `
	UPDATE runs
	SET finished_at = ?, dork_count = ?, candidate_count = ?, working_count = ?, summary_json = ?
	WHERE id = ?
	`
	_, err = h.db.ExecContext(ctx, query,
		formatTimestamp(summary.FinishedAt),
		summary.DorkCount,
		summary.CandidateCount,
		summary.WorkingCount,
		string(summaryJSON),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// InsertDispatch records the outcome of one dork.
func (h *HistoryDB) InsertDispatch(ctx context.Context, runID int64, report *model.DispatchReport) error {
	query := `
	INSERT INTO dispatches (run_id, dork, outcome, attempts, result_count, result_file, last_error, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := h.db.ExecContext(ctx, query,
		runID,
		report.Dork.String(),
		report.Outcome.String(),
		report.Attempts,
		report.ResultCount,
		report.ResultFile,
		report.LastError,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert dispatch: %w", err)
	}
	return nil
}

const dispatchColumns = `id, run_id, dork, outcome, attempts, result_count, result_file, last_error, started_at, finished_at`

// QueryDispatches returns recorded dispatches, newest first.
// An empty dork matches every dork. A non-positive limit means no limit.
func (h *HistoryDB) QueryDispatches(ctx context.Context, dork string, limit int) ([]DispatchRecord, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches`
	args := make([]any, 0, 2)
	if dork != "" {
		query += ` WHERE dork = ?`
		args = append(args, dork)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatches: %w", err)
	}
	defer rows.Close()

	var records []DispatchRecord
	for rows.Next() {
		rec, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// LatestDispatch returns the most recent dispatch of dork, or nil if the
// dork was never dispatched.
func (h *HistoryDB) LatestDispatch(ctx context.Context, dork string) (*DispatchRecord, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE dork = ? ORDER BY id DESC LIMIT 1`
	rec, err := scanDispatch(h.db.QueryRowContext(ctx, query, dork))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRuns returns recorded runs, newest first.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, started_at, COALESCE(finished_at, ''), dork_count, candidate_count, working_count, COALESCE(summary_json, '')
	FROM runs
	ORDER BY id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec               RunRecord
			started, finished string
			summaryJSON       string
		)
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.DorkCount, &rec.CandidateCount, &rec.WorkingCount, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finished)
		if summaryJSON != "" {
			if err := json.Unmarshal([]byte(summaryJSON), &rec.Outcomes); err != nil {
				return nil, fmt.Errorf("failed to parse run summary: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispatch(s rowScanner) (*DispatchRecord, error) {
	var (
		rec                 DispatchRecord
		outcome             string
		resultFile, lastErr sql.NullString
		started, finished   string
	)
	err := s.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Dork,
		&outcome,
		&rec.Attempts,
		&rec.ResultCount,
		&resultFile,
		&lastErr,
		&started,
		&finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan dispatch: %w", err)
	}

	rec.Outcome, err = model.ParseOutcome(outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dispatch outcome: %w", err)
	}
	rec.ResultFile = resultFile.String
	rec.LastError = lastErr.String
	rec.StartedAt = parseTimestamp(started)
	rec.FinishedAt = parseTimestamp(finished)
	return &rec, nil
}

// formatTimestamp stores times as UTC RFC3339 with nanoseconds.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
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
