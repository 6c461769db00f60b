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

	"github.com/nao1215/cxrbalance/internal/model"
)

// FileName is the name of the history database file.
const FileName = "cxrbalance.db"

// timestampLayout is fixed-width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02 15:04:05.000000000"

// AnalysisDB provides SQLite-based storage for analysis reports.
type AnalysisDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures AnalysisDB behavior.
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

// Open opens or creates an AnalysisDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AnalysisDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
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

	adb := &AnalysisDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AnalysisDB) Close() error {
	return adb.db.Close()
}

// Path returns the database file path.
func (adb *AnalysisDB) Path() string {
	return adb.dbPath
}

func (adb *AnalysisDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		dataset TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		report_json TEXT NOT NULL,
		counts_json TEXT,
		strategy TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_dataset ON analyses(dataset);
	CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_analyses_run_id ON analyses(run_id);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAnalysis stores a complete analysis report and returns its row id.
func (adb *AnalysisDB) SaveAnalysis(ctx context.Context, report *model.AnalysisReport) (int64, error) {
	if report == nil {
		return 0, errors.New("report is nil")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	countsJSON, err := json.Marshal(report.Counts)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize counts: %w", err)
	}

	query := `
	INSERT INTO analyses (run_id, dataset, timestamp, report_json, counts_json, strategy)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := adb.db.ExecContext(ctx, query,
		report.RunID,
		report.Dataset,
		report.DateAnalyzed.UTC().Format(timestampLayout),
		string(reportJSON),
		string(countsJSON),
		report.StrategyName(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save analysis: %w", err)
	}

	return result.LastInsertId()
}

// GetLatestAnalysis retrieves the most recent report for a dataset.
// It returns nil without error when the dataset has no history.
func (adb *AnalysisDB) GetLatestAnalysis(ctx context.Context, dataset string) (*model.AnalysisReport, error) {
	reports, err := adb.GetRecentAnalyses(ctx, dataset, 1)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, nil
	}
	return reports[0], nil
}

// GetAnalysisByID retrieves a report by its database id.
// It returns nil without error when no row has that id.
func (adb *AnalysisDB) GetAnalysisByID(ctx context.Context, id int64) (*model.AnalysisReport, error) {
	query := `SELECT report_json FROM analyses WHERE id = ?`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var report model.AnalysisReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetRecentAnalyses retrieves up to limit reports of a dataset, newest first.
// A limit of zero or less returns every report.
func (adb *AnalysisDB) GetRecentAnalyses(ctx context.Context, dataset string, limit int) ([]*model.AnalysisReport, error) {
	query := `
	SELECT report_json FROM analyses
	WHERE dataset = ?
	ORDER BY timestamp DESC, id DESC
	`
	args := []any{dataset}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := adb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get analyses: %w", err)
	}
	defer rows.Close()

	var reports []*model.AnalysisReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}

		var report model.AnalysisReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // skip malformed rows
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// AnalysisMetadata summarizes a stored run without loading the full report.
type AnalysisMetadata struct {
	// ID is the database row id.
	ID int64

	// RunID is the analysis run identifier.
	RunID string

	// Dataset is the analyzed dataset directory.
	Dataset string

	// Timestamp is when the analysis was performed.
	Timestamp time.Time

	// Strategy is the selected strategy name or "undetermined".
	Strategy string

	// Counts are the merged class counts of the run.
	Counts model.CountTable
}

// Total returns the number of annotations of the run.
func (m AnalysisMetadata) Total() int {
	return m.Counts.Total()
}

// GetAnalysisHistory lists the runs of a dataset, newest first.
func (adb *AnalysisDB) GetAnalysisHistory(ctx context.Context, dataset string) ([]AnalysisMetadata, error) {
	query := `
	SELECT id, run_id, dataset, timestamp, counts_json, strategy
	FROM analyses
	WHERE dataset = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis history: %w", err)
	}
	defer rows.Close()

	var results []AnalysisMetadata
	for rows.Next() {
		var meta AnalysisMetadata
		var timestamp string
		var countsJSON, strategy sql.NullString

		if err := rows.Scan(&meta.ID, &meta.RunID, &meta.Dataset, &timestamp, &countsJSON, &strategy); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Strategy = strategy.String
		meta.Counts = make(model.CountTable)
		if countsJSON.Valid && countsJSON.String != "" {
			if err := json.Unmarshal([]byte(countsJSON.String), &meta.Counts); err != nil {
				meta.Counts = make(model.CountTable)
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListDatasets returns every dataset with at least one stored run.
func (adb *AnalysisDB) ListDatasets(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT dataset FROM analyses ORDER BY dataset`

	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []string
	for rows.Next() {
		var dataset string
		if err := rows.Scan(&dataset); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, dataset)
	}

	return datasets, rows.Err()
}

// timestampFormats lists the layouts accepted when reading timestamps back.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
