package balance

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/cxrbalance/internal/labels"
	"github.com/nao1215/cxrbalance/internal/model"
)

// Analysis is the result of counting the labels of a dataset.
type Analysis struct {
	// Counts is the merged count table over all splits, keyed by every
	// class of the class table and zero initialized.
	Counts model.CountTable

	// SplitCounts holds one count table per split directory that exists.
	SplitCounts map[string]model.CountTable

	// LabelFiles is the number of label files read successfully.
	LabelFiles int

	// Lines is the number of non-blank label lines seen.
	Lines int

	// Issues lists every data problem found.
	Issues []model.Issue
}

// Analyzer counts annotations in the labels/<split> directories.
type Analyzer struct {
	classes model.ClassTable
	logger  *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerLogger sets a custom logger.
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an Analyzer for the given class table.
func NewAnalyzer(classes model.ClassTable, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		classes: classes,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze reads every label file of every split under dataDir.
// The only returned error is context cancellation; data problems are
// reported in Analysis.Issues.
func (a *Analyzer) Analyze(ctx context.Context, dataDir string) (*Analysis, error) {
	result := &Analysis{
		Counts:      model.NewCountTable(a.classes),
		SplitCounts: make(map[string]model.CountTable),
	}

	for _, split := range model.Splits {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		dir := model.LabelDir(dataDir, split)
		entries, err := os.ReadDir(dir)
		if err != nil {
			result.Issues = append(result.Issues, directoryIssue(split, dir, err))
			continue
		}

		splitCounts := model.NewCountTable(a.classes)
		for _, entry := range entries {
			if entry.IsDir() || !labels.IsLabelFile(entry.Name()) {
				continue
			}
			a.readLabelFile(split, filepath.Join(dir, entry.Name()), splitCounts, result)
		}

		a.logger.Debug("split analyzed",
			"split", split,
			"dir", dir,
			"annotations", splitCounts.Total(),
		)

		result.SplitCounts[split] = splitCounts
		result.Counts.Merge(splitCounts)
	}

	return result, nil
}

// readLabelFile tallies one file into counts and records its issues.
func (a *Analyzer) readLabelFile(split, path string, counts model.CountTable, result *Analysis) {
	fileResult, err := labels.ReadFile(path)
	if err != nil {
		result.Issues = append(result.Issues, model.Issue{
			Kind:    model.IssueReadError,
			Split:   split,
			Path:    path,
			Message: err.Error(),
		})
		return
	}

	result.LabelFiles++
	result.Lines += fileResult.Lines

	for _, pe := range fileResult.ParseErrors {
		result.Issues = append(result.Issues, model.Issue{
			Kind:    model.IssueLabelParse,
			Split:   split,
			Path:    path,
			Line:    pe.Line,
			Message: pe.Err.Error(),
		})
	}

	for _, id := range fileResult.Counts.IDs() {
		n := fileResult.Counts[id]
		if !a.classes.Contains(id) {
			result.Issues = append(result.Issues, model.Issue{
				Kind:    model.IssueUnknownClass,
				Split:   split,
				Path:    path,
				Message: fmt.Sprintf("class id %d is not in the class table (%d annotation(s))", id, n),
			})
			continue
		}
		counts.Add(id, n)
	}
}

// directoryIssue converts a directory listing error into an issue.
func directoryIssue(split, dir string, err error) model.Issue {
	if errors.Is(err, fs.ErrNotExist) {
		return model.Issue{
			Kind:    model.IssueMissingDirectory,
			Split:   split,
			Path:    dir,
			Message: "label directory not found",
		}
	}
	return model.Issue{
		Kind:    model.IssueReadError,
		Split:   split,
		Path:    dir,
		Message: err.Error(),
	}
}

// Analyze is a shorthand for NewAnalyzer(classes).Analyze(ctx, dataDir).
func Analyze(ctx context.Context, dataDir string, classes model.ClassTable) (*Analysis, error) {
	return NewAnalyzer(classes).Analyze(ctx, dataDir)
}
