package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/nao1215/cxrbalance/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.AnalysisReport) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// classRow is one line of the class distribution.
type classRow struct {
	id        model.ClassID
	name      string
	count     int
	share     float64
	splits    []int
	weight    float64
	hasWeight bool
}

// distribution returns one row per class of the report's class table,
// followed by any counted id outside the table.
func distribution(report *model.AnalysisReport) []classRow {
	ids := report.Classes.IDs()
	known := make(map[model.ClassID]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	var extra []model.ClassID
	for id := range report.Counts {
		if !known[id] {
			extra = append(extra, id)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	ids = append(ids, extra...)

	rows := make([]classRow, len(ids))
	for i, id := range ids {
		row := classRow{
			id:    id,
			name:  report.Classes.DisplayName(id),
			count: report.Counts[id],
			share: report.Counts.Percentage(id),
		}
		for _, split := range model.Splits {
			row.splits = append(row.splits, report.SplitCounts[split][id])
		}
		if w, ok := report.Weights[id]; ok {
			row.weight = w
			row.hasWeight = true
		}
		rows[i] = row
	}
	return rows
}

// statusText summarizes how the analysis ended.
func statusText(report *model.AnalysisReport) string {
	switch {
	case report.Cancelled:
		return "Cancelled (partial results)"
	case report.ErrorMessage != "":
		return "Error - " + report.ErrorMessage
	case report.HasIssues():
		return fmt.Sprintf("Complete with %d issue(s)", len(report.Issues))
	default:
		return "Complete"
	}
}

// tierText returns the imbalance tier of the report.
func tierText(report *model.AnalysisReport) string {
	if report.Strategy == nil {
		return "undetermined"
	}
	return report.Strategy.Tier()
}

// issueKinds returns the kinds present in issues, in first-seen order.
func issueKinds(issues []model.Issue) []model.IssueKind {
	seen := make(map[model.IssueKind]bool)
	var kinds []model.IssueKind
	for _, issue := range issues {
		if !seen[issue.Kind] {
			seen[issue.Kind] = true
			kinds = append(kinds, issue.Kind)
		}
	}
	return kinds
}
