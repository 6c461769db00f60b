package model

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisReport is the complete result of analyzing one dataset directory.
//
// A single flat struct keeps serialization and database storage simple.
// Pipeline steps fill it in incrementally; fields that a step could not
// compute keep their zero value and the reason is recorded in Issues.
type AnalysisReport struct {
	// RunID uniquely identifies this analysis run.
	RunID string `json:"run_id"`

	// Dataset is the dataset root directory that was analyzed.
	Dataset string `json:"dataset"`

	// DateAnalyzed is when the analysis started.
	DateAnalyzed time.Time `json:"date_analyzed"`

	// Classes is the class table used for the analysis.
	Classes ClassTable `json:"classes"`

	// Counts is the merged class count table over all splits.
	Counts CountTable `json:"counts"`

	// SplitCounts holds the count table of each split that was present.
	SplitCounts map[string]CountTable `json:"split_counts,omitempty"`

	// LabelFiles is the number of label files read.
	LabelFiles int `json:"label_files"`

	// ImbalanceRatio is max(count)/min(count); zero when undefined.
	ImbalanceRatio float64 `json:"imbalance_ratio,omitempty"`

	// Strategy is the selected imbalance strategy; nil when undefined.
	Strategy *Strategy `json:"strategy,omitempty"`

	// Weights holds the inverse-frequency class weights; nil when undefined.
	Weights map[ClassID]float64 `json:"weights,omitempty"`

	// Recommendations compares current counts with the target balance.
	Recommendations []Recommendation `json:"recommendations,omitempty"`

	// Issues lists every problem found, in discovery order.
	Issues []Issue `json:"issues,omitempty"`

	// QualityChecked is true when the dataset quality check ran.
	QualityChecked bool `json:"quality_checked"`

	// QualityOK is true when the quality check found no issues.
	QualityOK bool `json:"quality_ok"`

	// PerformedSteps lists the pipeline steps that were executed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the last step error, if any. Not serialized.
	Error error `json:"-"`

	// ErrorMessage is the serializable form of Error.
	ErrorMessage string `json:"error,omitempty"`

	// Cancelled is true when the analysis was interrupted.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewAnalysisReport creates an empty report for a dataset directory.
func NewAnalysisReport(dataset string, classes ClassTable) *AnalysisReport {
	return &AnalysisReport{
		RunID:        uuid.NewString(),
		Dataset:      dataset,
		DateAnalyzed: time.Now(),
		Classes:      classes,
		Counts:       NewCountTable(classes),
		SplitCounts:  make(map[string]CountTable),
	}
}

// AddIssue appends an issue to the report.
func (r *AnalysisReport) AddIssue(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// AddIssues appends several issues to the report.
func (r *AnalysisReport) AddIssues(issues ...Issue) {
	r.Issues = append(r.Issues, issues...)
}

// HasIssues reports whether any issue was recorded.
func (r *AnalysisReport) HasIssues() bool {
	return len(r.Issues) > 0
}

// IssuesByKind returns the issues of the given kind.
func (r *AnalysisReport) IssuesByKind(kind IssueKind) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

// TotalAnnotations returns the number of counted annotations.
func (r *AnalysisReport) TotalAnnotations() int {
	return r.Counts.Total()
}

// StrategyName returns the selected strategy name or "undetermined".
func (r *AnalysisReport) StrategyName() string {
	if r.Strategy == nil {
		return "undetermined"
	}
	return r.Strategy.String()
}
