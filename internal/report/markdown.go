package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/autodork/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs the run summary in GitHub Flavored Markdown,
// built with the nao1215/markdown fluent API.
type MarkdownWriter struct {
	baseWriter

	version string
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, version string) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	if summary == nil {
		return 0, nil
	}

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeOutcomes(md, summary)
	w.writeDorks(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the run properties table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *model.RunSummary) {
	md.H1("autodork Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", s.Elapsed().Round(time.Millisecond).String()},
			{"Dorks", strconv.Itoa(s.DorkCount)},
			{"Working Proxies", strconv.Itoa(s.WorkingCount) + " / " + strconv.Itoa(s.CandidateCount)},
			{"User Agents", strconv.Itoa(s.UserAgentCount)},
			{"Search Attempts", strconv.Itoa(s.TotalAttempts)},
			{"Results Saved", strconv.Itoa(s.TotalResults)},
		},
	})
	md.PlainText("")
}

// writeOutcomes writes the outcome counts, a pie chart and an alert.
func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, s *model.RunSummary) {
	md.H2("Outcomes")
	md.PlainText("")

	rows := make([][]string, 0, len(outcomeOrder))
	for _, o := range outcomeOrder {
		rows = append(rows, []string{o.String(), strconv.Itoa(s.Count(o))})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Dorks"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(s.Reports) > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *model.RunSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Dork Outcomes"),
		piechart.WithShowData(true),
	)
	for _, o := range outcomeOrder {
		if n := s.Count(o); n > 0 {
			chart.LabelAndIntValue(o.String(), uint64(n)) //nolint:gosec // n is positive
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the worst outcome of the run.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *model.RunSummary) {
	switch {
	case s.WorkingCount == 0 && s.DorkCount > 0:
		md.Cautionf("No working proxies were found. %d dork(s) could not be searched.", s.DorkCount)
	case s.HasFailures():
		md.Cautionf(
			"%d dork(s) exhausted their retries and %d could not be saved.",
			s.Count(model.OutcomeExhausted), s.Count(model.OutcomeFailed),
		)
	case s.Count(model.OutcomeCancelled) > 0:
		md.Warningf("Run cancelled. %d dork(s) did not finish.", s.Count(model.OutcomeCancelled))
	case s.Count(model.OutcomeFound) == 0:
		md.Note("Every search succeeded but none returned results.")
	default:
		md.Tip("All dorks were searched successfully.")
	}
	md.PlainText("")
}

// writeDorks writes one table row per dork.
func (w *MarkdownWriter) writeDorks(md *markdown.Markdown, s *model.RunSummary) {
	md.H2("Dorks")
	md.PlainText("")

	if len(s.Reports) == 0 {
		md.PlainText("No dorks were dispatched.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(s.Reports))
	for _, r := range s.Reports {
		if r == nil {
			continue
		}
		file := r.ResultFile
		if file == "" {
			file = "-"
		}
		lastErr := r.LastError
		if lastErr == "" {
			lastErr = "-"
		}
		rows = append(rows, []string{
			"`" + escapeCell(truncateString(r.Dork.String(), 60)) + "`",
			r.Outcome.String(),
			strconv.Itoa(r.Attempts),
			strconv.Itoa(r.ResultCount),
			escapeCell(file),
			escapeCell(truncateString(lastErr, 60)),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Dork", "Outcome", "Attempts", "Results", "File", "Last Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	if w.version != "" {
		md.PlainTextf("*Generated by autodork %s*", w.version)
		return
	}
	md.PlainText("*Generated by autodork*")
}

// escapeCell keeps pipes inside a dork from splitting the table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
