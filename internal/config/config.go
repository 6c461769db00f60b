package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultDataDir is the dataset root used when no directory is given.
	DefaultDataDir = "data"

	// DefaultBatchSize is the number of datasets analyzed concurrently.
	DefaultBatchSize = 4

	// DefaultWorkers is the number of concurrent file operations used by
	// split copies and batch inference.
	DefaultWorkers = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "cxrbalance"
)

// Config holds the runtime options of one command invocation.
// It is populated from CLI flags and passed explicitly to every component;
// there is no package-level configuration state.
type Config struct {
	// DataDirs are the dataset roots to process. Each root contains
	// images/<split> and labels/<split>.
	DataDirs []string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of datasets analyzed concurrently.
	BatchSize int

	// Workers is the number of concurrent file copies or inference calls.
	Workers int

	// ConfigFilePath is the path to the dataset configuration file.
	// If empty, the tool searches for .cxrbalance in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Dataset is the loaded dataset configuration. NewConfig sets it to
	// DefaultFile().
	Dataset *File

	// JSONReport selects the JSON report format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects the GitHub Flavored Markdown report format.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// CheckDuplicates enables the duplicate image check.
	CheckDuplicates bool

	// CheckMetadata enables the EXIF metadata check.
	CheckMetadata bool

	// SkipQuality disables the quality step of the analysis pipeline.
	SkipQuality bool

	// WriteDataYAML writes data.yaml into each analyzed dataset root.
	WriteDataYAML bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/cxrbalance on Linux).
	DBDir string

	// SaveToDB stores analysis reports in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DataDirs:  []string{DefaultDataDir},
		BatchSize: DefaultBatchSize,
		Workers:   DefaultWorkers,
		Dataset:   DefaultFile(),
		DBDir:     XDGDataDir(),
		SaveToDB:  true,
	}
}

// XDGDataDir returns the XDG data directory for cxrbalance.
// On Linux: ~/.local/share/cxrbalance
// On macOS: ~/Library/Application Support/cxrbalance
// On Windows: %LOCALAPPDATA%\cxrbalance
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.DataDirs) == 0 {
		return ErrNoDataDir
	}
	for _, dir := range c.DataDirs {
		if dir == "" {
			return ErrNoDataDir
		}
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	if c.Dataset == nil {
		return ErrNoDatasetConfig
	}
	return c.Dataset.Validate()
}
