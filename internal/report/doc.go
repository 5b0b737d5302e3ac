// Package report renders the summary of a batch run.
//
// This package contains writers for different output formats:
//   - TextWriter: colored plain text for terminal display
//   - MarkdownWriter: GitHub Flavored Markdown with tables and a pie chart
//   - JSONWriter: structured JSON for tool integration
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
