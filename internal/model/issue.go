package model

import "fmt"

// IssueKind classifies a dataset problem.
type IssueKind string

const (
	// IssueMissingDirectory means a split's image or label directory is absent.
	IssueMissingDirectory IssueKind = "missing_directory"

	// IssueOrphanedImage means images exist without a label file of the same basename.
	IssueOrphanedImage IssueKind = "orphaned_image"

	// IssueOrphanedLabel means label files exist without an image of the same basename.
	IssueOrphanedLabel IssueKind = "orphaned_label"

	// IssueLabelParse means a label line has a missing or non-numeric class id
	// or an unparsable bounding box.
	IssueLabelParse IssueKind = "label_parse_error"

	// IssueUnknownClass means a label line refers to a class id outside the class table.
	IssueUnknownClass IssueKind = "unknown_class"

	// IssueReadError means a file or directory could not be read.
	IssueReadError IssueKind = "read_error"

	// IssueInsufficientClassData means a class has zero samples, so the
	// imbalance ratio and class weights are undefined.
	IssueInsufficientClassData IssueKind = "insufficient_class_data"

	// IssueDuplicateImage means two image files have identical content.
	IssueDuplicateImage IssueKind = "duplicate_image"

	// IssueImageMetadata means an image carries identifying EXIF metadata.
	IssueImageMetadata IssueKind = "image_metadata"
)

// Issue is a single problem found in a dataset.
type Issue struct {
	// Kind classifies the issue.
	Kind IssueKind `json:"kind"`

	// Split is the dataset split the issue belongs to (train, val, test),
	// empty when the issue is not split-specific.
	Split string `json:"split,omitempty"`

	// Path is the file or directory concerned.
	Path string `json:"path,omitempty"`

	// Line is the 1-based line number for label parse issues.
	Line int `json:"line,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Files lists the affected basenames for aggregated issues.
	Files []string `json:"files,omitempty"`
}

// String formats the issue for terminal output.
func (i Issue) String() string {
	location := i.Path
	if i.Line > 0 {
		location = fmt.Sprintf("%s:%d", i.Path, i.Line)
	}
	switch {
	case i.Split != "" && location != "":
		return fmt.Sprintf("[%s] %s: %s (%s)", i.Kind, i.Split, i.Message, location)
	case i.Split != "":
		return fmt.Sprintf("[%s] %s: %s", i.Kind, i.Split, i.Message)
	case location != "":
		return fmt.Sprintf("[%s] %s (%s)", i.Kind, i.Message, location)
	default:
		return fmt.Sprintf("[%s] %s", i.Kind, i.Message)
	}
}

// CountIssues returns the number of issues per kind.
func CountIssues(issues []Issue) map[IssueKind]int {
	counts := make(map[IssueKind]int)
	for _, issue := range issues {
		counts[issue.Kind]++
	}
	return counts
}
