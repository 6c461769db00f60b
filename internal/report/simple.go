package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/cxrbalance/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections without content are shown.
	showEmpty bool

	// verbose lists the affected files of aggregated issues.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.AnalysisReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeDistribution(&sb, report)
	w.writeImbalance(&sb, report)
	w.writeRecommendations(&sb, report)
	w.writeIssues(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AnalysisReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                   CXRBALANCE DATASET ANALYSIS\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Dataset:        %s\n", report.Dataset)
	fmt.Fprintf(sb, "Run ID:         %s\n", report.RunID)
	fmt.Fprintf(sb, "Analyzed:       %s\n", report.DateAnalyzed.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Label Files:    %d\n", report.LabelFiles)
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDistribution(sb *strings.Builder, report *model.AnalysisReport) {
	section(sb, "CLASS DISTRIBUTION")

	fmt.Fprintf(sb, "  %-3s %-24s %8s %8s %7s %7s %7s\n", "ID", "Class", "Count", "Share", "train", "val", "test")
	for _, row := range distribution(report) {
		fmt.Fprintf(sb, "  %-3d %-24s %8d %7.1f%% %7d %7d %7d\n",
			row.id, row.name, row.count, row.share, row.splits[0], row.splits[1], row.splits[2])
	}
	fmt.Fprintf(sb, "  %-28s %8d\n", "Total", report.TotalAnnotations())
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeImbalance(sb *strings.Builder, report *model.AnalysisReport) {
	section(sb, "IMBALANCE")

	if report.Strategy == nil {
		sb.WriteString("  Imbalance ratio: undefined\n")
		sb.WriteString("  Strategy:        undetermined\n\n")
		return
	}

	fmt.Fprintf(sb, "  Imbalance ratio: %.2f (%s)\n", report.ImbalanceRatio, tierText(report))
	fmt.Fprintf(sb, "  Strategy:        %s\n", report.StrategyName())

	if len(report.Weights) > 0 {
		sb.WriteString("  Class weights:\n")
		for _, row := range distribution(report) {
			if row.hasWeight {
				fmt.Fprintf(sb, "    %-24s %.4f\n", row.name, row.weight)
			}
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeRecommendations(sb *strings.Builder, report *model.AnalysisReport) {
	if len(report.Recommendations) == 0 && !w.showEmpty {
		return
	}
	section(sb, "RECOMMENDATIONS")

	if len(report.Recommendations) == 0 {
		sb.WriteString("  No target balance configured\n\n")
		return
	}
	for _, rec := range report.Recommendations {
		name := model.DisplayName(rec.Class)
		switch rec.Action {
		case model.ActionAdd:
			fmt.Fprintf(sb, "  [+] %-24s add %d (%d -> %d)\n", name, rec.Needed, rec.Current, rec.Target)
		case model.ActionReduce:
			fmt.Fprintf(sb, "  [-] %-24s reduce by %d (%d -> %d)\n", name, -rec.Needed, rec.Current, rec.Target)
		default:
			fmt.Fprintf(sb, "  [=] %-24s optimal (%d)\n", name, rec.Current)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeIssues(sb *strings.Builder, report *model.AnalysisReport) {
	if !report.HasIssues() && !w.showEmpty && !report.QualityChecked {
		return
	}
	section(sb, "DATASET ISSUES")

	if report.QualityChecked && report.QualityOK && !report.HasIssues() {
		sb.WriteString("  Quality check passed: every image has a label file\n\n")
		return
	}
	if !report.HasIssues() {
		sb.WriteString("  No issues\n\n")
		return
	}

	for _, kind := range issueKinds(report.Issues) {
		issues := report.IssuesByKind(kind)
		fmt.Fprintf(sb, "[%s] %d\n", kind, len(issues))
		for _, issue := range issues {
			fmt.Fprintf(sb, "  * %s\n", issue.String())
			if w.verbose && len(issue.Files) > 0 {
				fmt.Fprintf(sb, "    Files: %s\n", strings.Join(issue.Files, ", "))
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by cxrbalance\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
