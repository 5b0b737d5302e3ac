package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/autodork/internal/config"
	"github.com/nao1215/autodork/internal/database"
	"github.com/nao1215/autodork/internal/input"
	"github.com/nao1215/autodork/internal/model"
	"github.com/nao1215/autodork/internal/report"
	"github.com/nao1215/autodork/internal/results"
)

const (
	probeURL  = "http://probe.invalid/"
	searchURL = "http://search.invalid/search"
)

// writeFile creates a file under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// newForwardProxy starts an HTTP forward proxy that answers the probe URL
// itself and hands search requests to search.
func newForwardProxy(t *testing.T, probeStatus int, search http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Host {
		case "probe.invalid":
			w.WriteHeader(probeStatus)
		case "search.invalid":
			search(w, r)
		default:
			http.Error(w, "unexpected host "+r.URL.Host, http.StatusBadGateway)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// resultsPage renders a search results page with one anchor per link.
func resultsPage(links ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, l := range links {
		fmt.Fprintf(&sb, `<div class="g"><div class="yuRUbf"><a href="%s"><h3>t</h3></a></div></div>`, l)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

// workspace holds the input files and output directories of one test run.
type workspace struct {
	dir        string
	config     string
	dorks      string
	userAgents string
	proxies    string
	results    string
	db         string
}

func newWorkspace(t *testing.T, dorks string, proxies ...string) workspace {
	t.Helper()
	dir := t.TempDir()
	return workspace{
		dir:        dir,
		config:     writeFile(t, dir, "empty.yaml", ""),
		dorks:      writeFile(t, dir, "dorks.txt", dorks),
		userAgents: writeFile(t, dir, "useragents.txt", "test-agent/1.0\n"),
		proxies:    writeFile(t, dir, "proxies.txt", strings.Join(proxies, "\n")),
		results:    filepath.Join(dir, "results"),
		db:         filepath.Join(dir, "db"),
	}
}

func (w workspace) args(extra ...string) []string {
	return append([]string{
		"-c", w.config,
		"--dorks", w.dorks,
		"--user-agents", w.userAgents,
		"--proxies", w.proxies,
		"--results", w.results,
		"--db-dir", w.db,
		"--probe-url", probeURL,
		"--search-url", searchURL,
		"--backoff-unit", "1ms",
		"--summary", "json",
	}, extra...)
}

// execute runs the root command and returns stdout, stderr and the error.
func execute(t *testing.T, args []string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func parseSummary(t *testing.T, stdout string) *model.RunSummary {
	t.Helper()
	var parsed report.JSONReport
	if err := json.Unmarshal([]byte(stdout), &parsed); err != nil {
		t.Fatalf("summary is not valid JSON: %v\n%s", err, stdout)
	}
	if parsed.Summary == nil {
		t.Fatal("expected summary in JSON output")
	}
	return parsed.Summary
}

// TestRunBatch_EndToEnd runs a whole batch through a local forward proxy.
func TestRunBatch_EndToEnd(t *testing.T) {
	t.Parallel()

	search := func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "site:example.com filetype:pdf":
			_, _ = fmt.Fprint(w, resultsPage("https://example.com/a.pdf", "https://example.com/b.pdf"))
		default:
			_, _ = fmt.Fprint(w, resultsPage())
		}
	}
	proxy := newForwardProxy(t, http.StatusOK, search)
	ws := newWorkspace(t, "site:example.com filetype:pdf\n\nnothing here\n",
		proxy.Listener.Addr().String(), "", "127.0.0.1:1")

	stdout, stderr, err := execute(t, ws.args())
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr:\n%s", err, stderr)
	}

	summary := parseSummary(t, stdout)

	t.Run("summary counts", func(t *testing.T) {
		if summary.DorkCount != 2 {
			t.Errorf("expected 2 dorks, got %d", summary.DorkCount)
		}
		if summary.CandidateCount != 3 {
			t.Errorf("expected 3 candidates, got %d", summary.CandidateCount)
		}
		if summary.WorkingCount != 1 {
			t.Errorf("expected 1 working proxy, got %d", summary.WorkingCount)
		}
		if summary.Count(model.OutcomeFound) != 1 || summary.Count(model.OutcomeEmpty) != 1 {
			t.Errorf("unexpected outcomes: %v", summary.Outcomes)
		}
		if summary.TotalResults != 2 {
			t.Errorf("expected 2 results, got %d", summary.TotalResults)
		}
	})

	t.Run("result file holds exactly the found links", func(t *testing.T) {
		path := results.NewWriter(ws.results).Path("site:example.com filetype:pdf")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected result file: %v", err)
		}
		if got, want := string(data), "https://example.com/a.pdf\nhttps://example.com/b.pdf"; got != want {
			t.Errorf("result file = %q, want %q", got, want)
		}
	})

	t.Run("empty dork writes no file", func(t *testing.T) {
		path := results.NewWriter(ws.results).Path("nothing here")
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected no result file for empty dork, stat err = %v", err)
		}
	})

	t.Run("history is recorded", func(t *testing.T) {
		db, err := database.Open(ws.db, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open history: %v", err)
		}
		defer db.Close()

		ctx := context.Background()
		dispatches, err := db.QueryDispatches(ctx, "", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(dispatches) != 2 {
			t.Fatalf("expected 2 dispatches, got %d", len(dispatches))
		}

		runs, err := db.ListRuns(ctx, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].Outcomes["found"] != 1 || runs[0].Outcomes["empty"] != 1 {
			t.Errorf("unexpected run outcomes: %v", runs[0].Outcomes)
		}
		if dispatches[0].RunID != runs[0].ID {
			t.Errorf("expected dispatch to reference run %d, got %d", runs[0].ID, dispatches[0].RunID)
		}
	})
}

// TestRunBatch_NoWorkingProxies checks that every dork is exhausted without
// a search call when no proxy passes validation.
func TestRunBatch_NoWorkingProxies(t *testing.T) {
	t.Parallel()

	searched := make(chan struct{}, 10)
	proxy := newForwardProxy(t, http.StatusServiceUnavailable, func(w http.ResponseWriter, _ *http.Request) {
		searched <- struct{}{}
		_, _ = fmt.Fprint(w, resultsPage("https://example.com/"))
	})
	ws := newWorkspace(t, "a\nb\n", proxy.Listener.Addr().String())

	t.Run("exit zero without strict", func(t *testing.T) {
		stdout, stderr, err := execute(t, ws.args("--no-history"))
		if err != nil {
			t.Fatalf("unexpected error: %v\nstderr:\n%s", err, stderr)
		}
		summary := parseSummary(t, stdout)
		if summary.WorkingCount != 0 {
			t.Errorf("expected no working proxies, got %d", summary.WorkingCount)
		}
		if summary.Count(model.OutcomeExhausted) != 2 {
			t.Errorf("expected 2 exhausted dorks, got %v", summary.Outcomes)
		}
		if !strings.Contains(stderr, "no working proxies") {
			t.Errorf("expected warning in log, got:\n%s", stderr)
		}
	})

	t.Run("strict fails", func(t *testing.T) {
		_, _, err := execute(t, ws.args("--no-history", "--strict"))
		if !errors.Is(err, ErrStrictFailures) {
			t.Errorf("expected ErrStrictFailures, got %v", err)
		}
	})

	if len(searched) != 0 {
		t.Errorf("expected no search requests, got %d", len(searched))
	}
	if _, err := os.Stat(ws.db); !os.IsNotExist(err) {
		t.Errorf("expected no history database with --no-history, stat err = %v", err)
	}
}

// TestRunBatch_BlockedSearch checks the retry bound when every search is rejected.
func TestRunBatch_BlockedSearch(t *testing.T) {
	t.Parallel()

	var calls = make(chan struct{}, 100)
	proxy := newForwardProxy(t, http.StatusOK, func(w http.ResponseWriter, _ *http.Request) {
		calls <- struct{}{}
		http.Error(w, "unusual traffic", http.StatusTooManyRequests)
	})
	ws := newWorkspace(t, "blocked\n", proxy.Listener.Addr().String())

	stdout, stderr, err := execute(t, ws.args("--max-retries", "2", "--backoff", "0", "--no-history", "-v"))
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr:\n%s", err, stderr)
	}

	summary := parseSummary(t, stdout)
	if summary.Count(model.OutcomeExhausted) != 1 {
		t.Fatalf("expected exhausted dork, got %v", summary.Outcomes)
	}
	if got := summary.Reports[0].Attempts; got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if len(calls) != 3 {
		t.Errorf("expected 3 search requests, got %d", len(calls))
	}
	if _, err := os.Stat(results.NewWriter(ws.results).Path("blocked")); !os.IsNotExist(err) {
		t.Errorf("expected no result file, stat err = %v", err)
	}
	if !strings.Contains(stderr, "DEBUG") {
		t.Error("expected debug output with -v")
	}
}

// TestRunBatch_StartupFailures checks that missing inputs abort the run.
func TestRunBatch_StartupFailures(t *testing.T) {
	t.Parallel()

	t.Run("missing dorks file", func(t *testing.T) {
		t.Parallel()
		ws := newWorkspace(t, "a\n", "127.0.0.1:1")
		_, _, err := execute(t, ws.args("--dorks", filepath.Join(ws.dir, "missing.txt"), "--no-history"))
		if !errors.Is(err, input.ErrInputNotFound) {
			t.Errorf("expected ErrInputNotFound, got %v", err)
		}
	})

	t.Run("empty user agents file", func(t *testing.T) {
		t.Parallel()
		ws := newWorkspace(t, "a\n", "127.0.0.1:1")
		empty := writeFile(t, ws.dir, "empty-ua.txt", "\n\n")
		_, _, err := execute(t, ws.args("--user-agents", empty, "--no-history"))
		if !errors.Is(err, input.ErrNoUserAgents) {
			t.Errorf("expected ErrNoUserAgents, got %v", err)
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		t.Parallel()
		ws := newWorkspace(t, "a\n", "127.0.0.1:1")
		_, _, err := execute(t, ws.args("--dispatch-workers", "0"))
		if !errors.Is(err, config.ErrInvalidWorkers) {
			t.Errorf("expected ErrInvalidWorkers, got %v", err)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()
		ws := newWorkspace(t, "a\n", "127.0.0.1:1")
		args := ws.args()
		args[1] = filepath.Join(ws.dir, "nope.yaml")
		_, _, err := execute(t, args)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("positional arguments are rejected", func(t *testing.T) {
		t.Parallel()
		ws := newWorkspace(t, "a\n", "127.0.0.1:1")
		if _, _, err := execute(t, ws.args("extra")); err == nil {
			t.Error("expected error for positional argument")
		}
	})
}

// TestBuildConfig checks the precedence of defaults, config file and flags.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	build := func(t *testing.T, args ...string) *config.Config {
		t.Helper()
		cmd := NewRootCmd()
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return cfg
	}

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		empty := writeFile(t, t.TempDir(), "empty.yaml", "")
		cfg := build(t, "-c", empty)

		if cfg.DorksFile != config.DefaultDorksFile || cfg.MaxRetries != config.DefaultMaxRetries {
			t.Errorf("expected defaults, got %+v", cfg)
		}
		if !cfg.History || cfg.Verbose || cfg.Strict {
			t.Errorf("unexpected boolean defaults: %+v", cfg)
		}
	})

	t.Run("file values apply", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, t.TempDir(), "cfg.yaml", "dorks: from-file.txt\nretry:\n  maxRetries: 7\nhistory: false\n")
		cfg := build(t, "-c", path)

		if cfg.DorksFile != "from-file.txt" {
			t.Errorf("expected dorks from file, got %q", cfg.DorksFile)
		}
		if cfg.MaxRetries != 7 {
			t.Errorf("expected 7 retries from file, got %d", cfg.MaxRetries)
		}
		if cfg.History {
			t.Error("expected history disabled by file")
		}
	})

	t.Run("explicit flags override file", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, t.TempDir(), "cfg.yaml", "dorks: from-file.txt\nretry:\n  maxRetries: 7\n")
		cfg := build(t, "-c", path, "--max-retries", "1", "--rate", "2.5",
			"--probe-timeout", "750ms", "--no-history", "--strict", "-v", "--summary", "markdown")

		if cfg.DorksFile != "from-file.txt" {
			t.Errorf("expected unset flag to keep file value, got %q", cfg.DorksFile)
		}
		if cfg.MaxRetries != 1 {
			t.Errorf("expected flag to override retries, got %d", cfg.MaxRetries)
		}
		if cfg.Rate != 2.5 {
			t.Errorf("expected rate 2.5, got %v", cfg.Rate)
		}
		if cfg.ProbeTimeout != 750*time.Millisecond {
			t.Errorf("expected probe timeout 750ms, got %v", cfg.ProbeTimeout)
		}
		if cfg.History || !cfg.Strict || !cfg.Verbose {
			t.Errorf("unexpected booleans: history=%v strict=%v verbose=%v", cfg.History, cfg.Strict, cfg.Verbose)
		}
		if cfg.Summary != config.SummaryMarkdown {
			t.Errorf("expected markdown summary, got %q", cfg.Summary)
		}
	})
}

func TestCancelPending(t *testing.T) {
	t.Parallel()

	t.Run("fills missing reports", func(t *testing.T) {
		t.Parallel()
		done := model.NewDispatchReport("a")
		done.Finish(model.OutcomeFound, nil)

		run := &model.Run{
			Dorks:   []model.DorkQuery{"a", "b", "c"},
			Reports: []*model.DispatchReport{done},
		}
		cancelPending(run, context.Canceled)

		if len(run.Reports) != 3 {
			t.Fatalf("expected 3 reports, got %d", len(run.Reports))
		}
		if run.Reports[0] != done {
			t.Error("expected existing report to be kept")
		}
		for _, r := range run.Reports[1:] {
			if r.Outcome != model.OutcomeCancelled {
				t.Errorf("expected cancelled, got %s", r.Outcome)
			}
			if r.LastError != context.Canceled.Error() {
				t.Errorf("expected cancellation cause, got %q", r.LastError)
			}
		}
		if run.Reports[2].Dork != "c" {
			t.Errorf("expected dork c, got %q", run.Reports[2].Dork)
		}
	})

	t.Run("complete runs are untouched", func(t *testing.T) {
		t.Parallel()
		r := model.NewDispatchReport("a")
		r.Finish(model.OutcomeEmpty, nil)
		run := &model.Run{Dorks: []model.DorkQuery{"a"}, Reports: []*model.DispatchReport{r}}
		cancelPending(run, context.Canceled)
		if run.Reports[0].Outcome != model.OutcomeEmpty {
			t.Error("expected report to be untouched")
		}
	})
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	summary := (&model.Run{Dorks: []model.DorkQuery{"a"}}).Summary()

	t.Run("writes to file and creates directories", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Summary = config.SummaryMarkdown
		cfg.SummaryFile = filepath.Join(t.TempDir(), "out", "summary.md")

		var stdout bytes.Buffer
		if err := writeSummary(cfg, &stdout, summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout.Len() != 0 {
			t.Error("expected nothing on stdout")
		}
		data, err := os.ReadFile(cfg.SummaryFile)
		if err != nil {
			t.Fatalf("expected summary file: %v", err)
		}
		if !strings.Contains(string(data), "# autodork Run Summary") {
			t.Errorf("unexpected summary file content:\n%s", data)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Summary = "html"
		if err := writeSummary(cfg, &bytes.Buffer{}, summary); !errors.Is(err, report.ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})
}
