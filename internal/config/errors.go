package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate and File.Validate so that
// callers can use errors.Is.
var (
	// ErrNoDataDir is returned when no dataset directory is given.
	ErrNoDataDir = errors.New("no dataset directory specified")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoDBDir is returned when history is enabled without a database directory.
	ErrNoDBDir = errors.New("no database directory specified")

	// ErrNoDatasetConfig is returned when no dataset configuration is set.
	ErrNoDatasetConfig = errors.New("no dataset configuration")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidClasses is returned for a class table with missing, duplicate
	// or unknown entries.
	ErrInvalidClasses = errors.New("invalid class table")

	// ErrInvalidTargets is returned for unknown target classes or negative targets.
	ErrInvalidTargets = errors.New("invalid target balance")

	// ErrInvalidDetector is returned for unusable detector settings.
	ErrInvalidDetector = errors.New("invalid detector settings")
)
