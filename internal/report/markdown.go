package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/cxrbalance/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AnalysisReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeDistribution(md, report)
	w.writeImbalance(md, report)
	w.writeRecommendations(md, report)
	w.writeIssues(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H1("Dataset Analysis Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Dataset", "`" + report.Dataset + "`"},
			{"Run ID", "`" + report.RunID + "`"},
			{"Analyzed", report.DateAnalyzed.Format("2006-01-02 15:04:05 MST")},
			{"Label Files", strconv.Itoa(report.LabelFiles)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeDistribution(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Class Distribution")
	md.PlainText("")

	rows := distribution(report)
	tableRows := make([][]string, 0, len(rows)+1)
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			strconv.Itoa(int(row.id)),
			row.name,
			strconv.Itoa(row.count),
			fmt.Sprintf("%.1f%%", row.share),
			strconv.Itoa(row.splits[0]),
			strconv.Itoa(row.splits[1]),
			strconv.Itoa(row.splits[2]),
		})
	}
	tableRows = append(tableRows, []string{"", "**Total**", "**" + strconv.Itoa(report.TotalAnnotations()) + "**", "", "", "", ""})

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Class", "Count", "Share", "train", "val", "test"},
		Rows:   tableRows,
	})
	md.PlainText("")

	if report.TotalAnnotations() > 0 {
		w.writePieChart(md, rows)
	}
}

// writePieChart writes a mermaid pie chart of the class distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, rows []classRow) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Annotations per Class"),
		piechart.WithShowData(true),
	)
	for _, row := range rows {
		if row.count > 0 {
			chart.LabelAndIntValue(row.name, uint64(row.count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeImbalance(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Imbalance")
	md.PlainText("")

	if report.Strategy == nil {
		md.Importantf("The imbalance ratio is undefined: %s", insufficientText(report))
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Imbalance Ratio", fmt.Sprintf("%.2f", report.ImbalanceRatio)},
			{"Tier", tierText(report)},
			{"Strategy", "`" + report.StrategyName() + "`"},
		},
	})
	md.PlainText("")

	switch *report.Strategy {
	case model.StrategyOversampling:
		md.Cautionf("Severe imbalance (ratio %.2f). Oversample the minority classes before training.", report.ImbalanceRatio)
	case model.StrategyFocalLoss:
		md.Warningf("Moderate imbalance (ratio %.2f). Train with focal loss.", report.ImbalanceRatio)
	default:
		md.Tip("Minor imbalance. Class-weighted loss is sufficient.")
	}
	md.PlainText("")

	if len(report.Weights) > 0 {
		md.PlainText("### Class Weights")
		md.PlainText("")
		var weightRows [][]string
		for _, row := range distribution(report) {
			if row.hasWeight {
				weightRows = append(weightRows, []string{row.name, fmt.Sprintf("%.4f", row.weight)})
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Class", "Weight"},
			Rows:   weightRows,
		})
		md.PlainText("")
	}
}

func insufficientText(report *model.AnalysisReport) string {
	issues := report.IssuesByKind(model.IssueInsufficientClassData)
	if len(issues) == 0 {
		return "no annotations were counted."
	}
	return issues[0].Message
}

func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, report *model.AnalysisReport) {
	if len(report.Recommendations) == 0 {
		return
	}
	md.H2("Recommendations")
	md.PlainText("")

	rows := make([][]string, len(report.Recommendations))
	for i, rec := range report.Recommendations {
		rows[i] = []string{
			model.DisplayName(rec.Class),
			strconv.Itoa(rec.Current),
			strconv.Itoa(rec.Target),
			fmt.Sprintf("%+d", rec.Needed),
			string(rec.Action),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Class", "Current", "Target", "Needed", "Action"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Dataset Issues")
	md.PlainText("")

	if !report.HasIssues() {
		if report.QualityChecked {
			md.Tip("Quality check passed: every image has a label file.")
		} else {
			md.Note("No issues found. The quality check was skipped.")
		}
		md.PlainText("")
		return
	}

	for _, kind := range issueKinds(report.Issues) {
		issues := report.IssuesByKind(kind)
		md.PlainText(fmt.Sprintf("### %s (%d)", kind, len(issues)))
		md.PlainText("")

		rows := make([][]string, len(issues))
		for i, issue := range issues {
			location := issue.Path
			if issue.Line > 0 {
				location = fmt.Sprintf("%s:%d", issue.Path, issue.Line)
			}
			rows[i] = []string{
				dash(issue.Split),
				dash(truncateString(location, 60)),
				truncateString(issue.Message, 80),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Split", "Location", "Message"},
			Rows:   rows,
		})
		md.PlainText("")

		for _, issue := range issues {
			if len(issue.Files) > 0 {
				md.Details(fmt.Sprintf("%s files (%s)", kind, dash(issue.Split)), strings.Join(issue.Files, "\n"))
			}
		}
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by cxrbalance*")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
