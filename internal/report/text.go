package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/nao1215/autodork/internal/model"
)

// TextWriter outputs a human-readable summary for terminal display.
// Outcome names are colored the same way the console log handler colors levels.
type TextWriter struct {
	baseWriter

	colors map[model.Outcome]*color.Color
	header *color.Color

	// showErrors prints the last error of each unsuccessful dork.
	showErrors bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithColor forces colored output on or off.
// Without this option the fatih/color terminal detection decides.
func WithColor(enabled bool) TextWriterOption {
	return func(w *TextWriter) {
		for _, c := range w.colors {
			setColor(c, enabled)
		}
		setColor(w.header, enabled)
	}
}

// WithErrors includes the last error of each exhausted or failed dork.
func WithErrors(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showErrors = show
	}
}

func setColor(c *color.Color, enabled bool) {
	if enabled {
		c.EnableColor()
		return
	}
	c.DisableColor()
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		colors: map[model.Outcome]*color.Color{
			model.OutcomeFound:     color.New(color.FgGreen),
			model.OutcomeEmpty:     color.New(color.FgYellow),
			model.OutcomeExhausted: color.New(color.FgRed),
			model.OutcomeFailed:    color.New(color.FgRed, color.Bold),
			model.OutcomeCancelled: color.New(color.FgMagenta),
		},
		header:     color.New(color.Bold),
		showErrors: true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *TextWriter) Write(summary *model.RunSummary) (int, error) {
	if summary == nil {
		return 0, nil
	}

	var sb strings.Builder
	w.writeHeader(&sb, summary)
	w.writeOutcomes(&sb, summary)
	w.writeDorks(&sb, summary)

	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) writeHeader(sb *strings.Builder, s *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString(w.header.Sprint("                    AUTODORK RUN SUMMARY"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Dorks:          %d\n", s.DorkCount)
	fmt.Fprintf(sb, "Proxies:        %d working of %d\n", s.WorkingCount, s.CandidateCount)
	fmt.Fprintf(sb, "User agents:    %d\n", s.UserAgentCount)
	fmt.Fprintf(sb, "Attempts:       %d\n", s.TotalAttempts)
	fmt.Fprintf(sb, "Results saved:  %d\n", s.TotalResults)
	fmt.Fprintf(sb, "Elapsed:        %s\n", s.Elapsed().Round(time.Millisecond))
	sb.WriteString("\n")
}

func (w *TextWriter) writeOutcomes(sb *strings.Builder, s *model.RunSummary) {
	sb.WriteString(w.header.Sprint("OUTCOMES"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	for _, o := range outcomeOrder {
		label := fmt.Sprintf("%-10s", strings.ToUpper(o.String())+":")
		fmt.Fprintf(sb, "  %s %d\n", w.colors[o].Sprint(label), s.Count(o))
	}
	sb.WriteString("\n")
}

func (w *TextWriter) writeDorks(sb *strings.Builder, s *model.RunSummary) {
	if len(s.Reports) == 0 {
		return
	}

	sb.WriteString(w.header.Sprint("DORKS"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	for _, r := range s.Reports {
		if r == nil {
			continue
		}
		outcome := fmt.Sprintf("[%s]", r.Outcome)
		fmt.Fprintf(sb, "  %s %s", w.colorFor(r.Outcome).Sprint(fmt.Sprintf("%-12s", outcome)), r.Dork)
		switch r.Outcome {
		case model.OutcomeFound:
			fmt.Fprintf(sb, " -> %d result(s) in %s", r.ResultCount, r.ResultFile)
		default:
			if r.Attempts > 1 {
				fmt.Fprintf(sb, " (%d attempts)", r.Attempts)
			}
		}
		sb.WriteString("\n")
		if w.showErrors && r.LastError != "" {
			fmt.Fprintf(sb, "      error: %s\n", r.LastError)
		}
	}
	sb.WriteString("\n")
}

func (w *TextWriter) colorFor(o model.Outcome) *color.Color {
	if c, ok := w.colors[o]; ok {
		return c
	}
	return w.header
}
