package quality

import (
	"context"
	"log/slog"

	"github.com/nao1215/cxrbalance/internal/model"
)

// Result is the outcome of a quality check.
type Result struct {
	// OK is true when no issue was found.
	OK bool `json:"ok"`

	// Issues lists every problem found.
	Issues []model.Issue `json:"issues"`

	// ImagesChecked is the number of image files seen.
	ImagesChecked int `json:"images_checked"`

	// LabelsChecked is the number of label files seen.
	LabelsChecked int `json:"labels_checked"`
}

// Checker runs quality checks against a dataset directory.
type Checker struct {
	duplicates   bool
	metadata     bool
	maxImageSize int64
	logger       *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithDuplicates enables the duplicate image check.
func WithDuplicates(enabled bool) Option {
	return func(c *Checker) {
		c.duplicates = enabled
	}
}

// WithMetadata enables the EXIF metadata check.
func WithMetadata(enabled bool) Option {
	return func(c *Checker) {
		c.metadata = enabled
	}
}

// WithMaxImageSize limits the bytes read per image by the metadata check.
func WithMaxImageSize(n int64) Option {
	return func(c *Checker) {
		if n > 0 {
			c.maxImageSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// DefaultMaxImageSize is the default read limit of the metadata check.
const DefaultMaxImageSize = 64 * 1024 * 1024

// NewChecker creates a Checker. Only the pairing check is enabled by default.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		maxImageSize: DefaultMaxImageSize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs the enabled checks on dataDir.
// Data problems become issues; only cancellation is returned as an error.
func (c *Checker) Check(ctx context.Context, dataDir string) (*Result, error) {
	result := &Result{}

	var images []imageFile
	for _, split := range model.Splits {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		splitImages, err := c.checkPairs(dataDir, split, result)
		if err != nil {
			return result, err
		}
		images = append(images, splitImages...)
	}

	if c.duplicates {
		issues, err := findDuplicates(ctx, images)
		if err != nil {
			return result, err
		}
		result.Issues = append(result.Issues, issues...)
	}

	if c.metadata {
		issues, err := scanMetadata(ctx, images, c.maxImageSize)
		if err != nil {
			return result, err
		}
		result.Issues = append(result.Issues, issues...)
	}

	result.OK = len(result.Issues) == 0
	c.logger.Debug("quality check finished",
		"dir", dataDir,
		"images", result.ImagesChecked,
		"labels", result.LabelsChecked,
		"issues", len(result.Issues),
	)
	return result, nil
}
