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

	"github.com/nao1215/sitecrawl/internal/model"
)

// FileName is the database file name inside the history directory.
const FileName = "sitecrawl.db"

// storedTimeLayout is fixed width so stored timestamps sort as text.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a stored report does not exist.
var ErrNotFound = errors.New("report not found")

// ReportDB stores finished crawl reports in SQLite.
type ReportDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ReportDB behavior.
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

// Open opens or creates a ReportDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ReportDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, ErrNotFound)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ReportDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *ReportDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *ReportDB) Close() error {
	return rdb.db.Close()
}

func (rdb *ReportDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		pages_checked INTEGER NOT NULL,
		failed_pages INTEGER NOT NULL,
		broken_links INTEGER NOT NULL,
		healthy INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_base_url ON crawl_reports(base_url);
	CREATE INDEX IF NOT EXISTS idx_reports_completed_at ON crawl_reports(completed_at);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a finished crawl and returns its history ID.
func (rdb *ReportDB) SaveReport(ctx context.Context, report *model.CrawlReport) (int64, error) {
	if report == nil {
		return 0, errors.New("report is nil")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	s := report.Summary()
	query := `
	INSERT INTO crawl_reports (base_url, completed_at, pages_checked, failed_pages, broken_links, healthy, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := rdb.db.ExecContext(ctx, query,
		report.BaseURL,
		report.CompletedAt.UTC().Format(storedTimeLayout),
		s.PagesChecked,
		s.FailedPages,
		s.BrokenLinks,
		s.Healthy,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save crawl report: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report id: %w", err)
	}
	return id, nil
}

// ListRuns returns stored runs newest first. An empty baseURL lists every
// site.
func (rdb *ReportDB) ListRuns(ctx context.Context, baseURL string) ([]model.RunInfo, error) {
	query := `
	SELECT id, base_url, completed_at, pages_checked, failed_pages, broken_links, healthy
	FROM crawl_reports
	WHERE ? = '' OR base_url = ?
	ORDER BY completed_at DESC, id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunInfo
	for rows.Next() {
		var run model.RunInfo
		var completedAt string
		if err := rows.Scan(&run.ID, &run.BaseURL, &completedAt,
			&run.PagesChecked, &run.FailedPages, &run.BrokenLinks, &run.Healthy); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CompletedAt = parseTimestamp(completedAt)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetReport returns the stored report with the given ID.
// It returns ErrNotFound when no such report exists.
func (rdb *ReportDB) GetReport(ctx context.Context, id int64) (*model.CrawlReport, error) {
	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, `SELECT report_json FROM crawl_reports WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetLatestReport returns the ID and report of the most recent crawl of
// baseURL. It returns ErrNotFound when the site has no history.
func (rdb *ReportDB) GetLatestReport(ctx context.Context, baseURL string) (int64, *model.CrawlReport, error) {
	var id int64
	err := rdb.db.QueryRowContext(ctx, `
	SELECT id FROM crawl_reports
	WHERE base_url = ?
	ORDER BY completed_at DESC, id DESC
	LIMIT 1
	`, baseURL).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, fmt.Errorf("%w: %s", ErrNotFound, baseURL)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get latest report: %w", err)
	}

	report, err := rdb.GetReport(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	return id, report, nil
}

// ListSites returns every base URL with stored history, sorted.
func (rdb *ReportDB) ListSites(ctx context.Context) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `SELECT DISTINCT base_url FROM crawl_reports ORDER BY base_url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// DeleteRunsBefore removes runs completed before cutoff and returns how many
// were deleted.
func (rdb *ReportDB) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := rdb.db.ExecContext(ctx,
		`DELETE FROM crawl_reports WHERE completed_at < ?`,
		cutoff.UTC().Format(storedTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
