package results

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLimit is the maximum number of URLs written per dork.
const DefaultLimit = 20

// ErrNoResults is returned when Write is called with no URLs.
var ErrNoResults = errors.New("no results to write")

// Writer stores result URLs under a directory.
type Writer struct {
	dir   string
	limit int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLimit sets the maximum number of URLs kept per dork.
// Values outside 1..DefaultLimit are ignored.
func WithLimit(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 && n <= DefaultLimit {
			w.limit = n
		}
	}
}

// NewWriter creates a Writer for dir.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{dir: dir, limit: DefaultLimit}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the results directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Prepare creates the results directory if it does not exist.
func (w *Writer) Prepare() error {
	if err := os.MkdirAll(w.dir, 0750); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	return nil
}

// Path returns where the results for dork are written.
func (w *Writer) Path(dork string) string {
	return filepath.Join(w.dir, FileName(dork))
}

// lineBreaks removes characters that would split one URL across lines.
var lineBreaks = strings.NewReplacer("\r", "", "\n", "")

// Write stores at most the first limit URLs, one per line with no
// trailing newline, replacing any previous file for the same dork.
// Line breaks inside a URL are dropped and URLs left blank are skipped.
// It returns the file path and the number of URLs written.
func (w *Writer) Write(dork string, urls []string) (string, int, error) {
	lines := make([]string, 0, min(len(urls), w.limit))
	for _, u := range urls {
		if len(lines) == w.limit {
			break
		}
		u = strings.TrimSpace(lineBreaks.Replace(u))
		if u == "" {
			continue
		}
		lines = append(lines, u)
	}
	if len(lines) == 0 {
		return "", 0, ErrNoResults
	}

	path := w.Path(dork)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0600); err != nil {
		return "", 0, fmt.Errorf("failed to write results for %q: %w", dork, err)
	}
	return path, len(lines), nil
}
