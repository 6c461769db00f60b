// Package report renders dataset analysis reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text output for terminal display
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown with tables, alerts and a
//     mermaid pie chart of the class distribution
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably.
package report
