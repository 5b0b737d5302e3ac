package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/autodork/internal/config"
	"github.com/nao1215/autodork/internal/database"
	"github.com/nao1215/autodork/internal/dispatch"
	applog "github.com/nao1215/autodork/internal/log"
	"github.com/nao1215/autodork/internal/model"
	"github.com/nao1215/autodork/internal/pipeline"
	"github.com/nao1215/autodork/internal/proxy"
	"github.com/nao1215/autodork/internal/report"
	"github.com/nao1215/autodork/internal/results"
	"github.com/nao1215/autodork/internal/search"
	"github.com/spf13/cobra"
)

// ErrStrictFailures is returned with --strict when any dork was exhausted
// or its results could not be saved.
var ErrStrictFailures = errors.New("some dorks did not complete")

// stepRecordRun is the pipeline step that opens the run in the history database.
const stepRecordRun = "record_run"

// addBatchFlags registers the flags of a batch run on cmd.
// Defaults mirror config.NewConfig; only flags set explicitly override the config file.
func addBatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	// Inputs
	f.String("dorks", config.DefaultDorksFile, "File with one dork per line")
	f.String("user-agents", config.DefaultUserAgentsFile, "File with one User-Agent per line")
	f.Int("random-ua", 0, "Generate N random User-Agents instead of reading --user-agents")

	// Proxies
	f.String("proxy-cache", config.DefaultProxyCache, "Proxy list cache, downloaded when missing")
	f.String("proxies", "", "Read proxies only from this file (no download, no cache)")
	f.String("proxy-source", config.DefaultProxySourceURL, "URL of the remote proxy list")
	f.String("probe-url", config.DefaultProbeURL, "URL fetched through each proxy to validate it")
	f.Duration("probe-timeout", config.DefaultProbeTimeout, "Timeout of each proxy probe")
	f.Int("validate-workers", config.DefaultValidateWorkers, "Number of concurrent proxy probes")

	// Search
	f.String("search-url", config.DefaultSearchURL, "Search endpoint")
	f.String("selector", config.DefaultSelector, "CSS selector of result links")
	f.Duration("query-timeout", config.DefaultQueryTimeout, "Timeout of each search request")
	f.Float64("rate", 0, "Maximum search requests per second across all workers (0 = unlimited)")
	f.Int("dispatch-workers", config.DefaultDispatchWorkers, "Number of dorks searched concurrently")
	f.Int("max-retries", config.DefaultMaxRetries, "Retries per dork after the first attempt")
	f.Float64("backoff", config.DefaultBackoffFactor, "Backoff factor of the retry delay")
	f.Duration("backoff-unit", config.DefaultBackoffUnit, "Time unit of the retry delay")

	// Output
	f.String("results", config.DefaultResultsDir, "Directory for <dork>_results.txt files")
	f.Int("result-limit", config.DefaultResultLimit, "Maximum URLs saved per dork (1-20)")
	f.StringP("summary", "s", config.SummaryText, "Summary format: text, markdown or json")
	f.StringP("output", "o", "", "Write the summary to this file instead of stdout")
	f.Bool("no-history", false, "Do not record the run in the history database")
	f.String("db-dir", "", "History database directory (default: XDG data directory)")
	f.Bool("strict", false, "Exit with an error when any dork exhausted its retries")
}

// runBatchCmd executes one batch.
func runBatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, err := runBatch(ctx, cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}

	if cfg.Strict && summary.HasFailures() {
		return fmt.Errorf("%w: %d exhausted, %d failed",
			ErrStrictFailures,
			summary.Count(model.OutcomeExhausted),
			summary.Count(model.OutcomeFailed),
		)
	}
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// buildConfig merges defaults, the config file and explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(getConfigFlag(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	f := cmd.Flags()
	overrides := []error{
		override(cmd, "dorks", f.GetString, &cfg.DorksFile),
		override(cmd, "user-agents", f.GetString, &cfg.UserAgentsFile),
		override(cmd, "random-ua", f.GetInt, &cfg.RandomUserAgents),
		override(cmd, "proxy-cache", f.GetString, &cfg.ProxyCache),
		override(cmd, "proxies", f.GetString, &cfg.ProxyFile),
		override(cmd, "proxy-source", f.GetString, &cfg.ProxySourceURL),
		override(cmd, "probe-url", f.GetString, &cfg.ProbeURL),
		override(cmd, "probe-timeout", f.GetDuration, &cfg.ProbeTimeout),
		override(cmd, "validate-workers", f.GetInt, &cfg.ValidateWorkers),
		override(cmd, "search-url", f.GetString, &cfg.SearchURL),
		override(cmd, "selector", f.GetString, &cfg.Selector),
		override(cmd, "query-timeout", f.GetDuration, &cfg.QueryTimeout),
		override(cmd, "rate", f.GetFloat64, &cfg.Rate),
		override(cmd, "dispatch-workers", f.GetInt, &cfg.DispatchWorkers),
		override(cmd, "max-retries", f.GetInt, &cfg.MaxRetries),
		override(cmd, "backoff", f.GetFloat64, &cfg.BackoffFactor),
		override(cmd, "backoff-unit", f.GetDuration, &cfg.BackoffUnit),
		override(cmd, "results", f.GetString, &cfg.ResultsDir),
		override(cmd, "result-limit", f.GetInt, &cfg.ResultLimit),
		override(cmd, "summary", f.GetString, &cfg.Summary),
		override(cmd, "output", f.GetString, &cfg.SummaryFile),
		override(cmd, "db-dir", f.GetString, &cfg.DBDir),
		override(cmd, "strict", f.GetBool, &cfg.Strict),
	}
	if err := errors.Join(overrides...); err != nil {
		return nil, err
	}

	if f.Changed("no-history") {
		noHistory, err := f.GetBool("no-history")
		if err != nil {
			return nil, err
		}
		cfg.History = !noHistory
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// override copies the flag value into dst when the flag was set on the command line.
func override[T any](cmd *cobra.Command, name string, get func(string) (T, error), dst *T) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// runBatch loads inputs, validates proxies, dispatches every dork and
// writes the summary. Per-dork failures are reported in the summary; only
// startup failures are returned as errors.
func runBatch(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*model.RunSummary, error) {
	var history *historyRecorder
	if cfg.History {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		history = &historyRecorder{db: db, logger: logger}
		logger.Debug("history database opened", "path", db.Path())
	}

	run := model.NewRun()
	p := newBatchPipeline(ctx, cfg, run, history, logger)

	execErr := p.Execute(ctx, run)
	run.FinishedAt = time.Now()
	if execErr != nil {
		if ctx.Err() == nil {
			return nil, execErr
		}
		cancelPending(run, ctx.Err())
	}

	summary := run.Summary()
	if history != nil && run.ID != 0 {
		history.finish(ctx, run.ID, summary)
	}

	if err := writeSummary(cfg, out, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// newBatchPipeline assembles the steps of one run from cfg.
func newBatchPipeline(
	ctx context.Context,
	cfg *config.Config,
	run *model.Run,
	history *historyRecorder,
	logger *slog.Logger,
) *pipeline.Pipeline {
	var source proxy.Source
	if cfg.ProxyFile != "" {
		source = proxy.NewFileSource(cfg.ProxyFile)
	} else {
		remote := proxy.NewRemoteSource(cfg.ProxySourceURL,
			proxy.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
		)
		source = proxy.NewCachedSource(cfg.ProxyCache, remote, logger)
	}

	validator := proxy.NewValidator(
		proxy.NewHTTPProber(cfg.ProbeURL, cfg.ProbeTimeout),
		proxy.WithConcurrency(cfg.ValidateWorkers),
		proxy.WithValidatorLogger(logger),
	)

	client := search.NewGoogleClient(
		search.WithEndpoint(cfg.SearchURL),
		search.WithSelector(cfg.Selector),
		search.WithTimeout(cfg.QueryTimeout),
		search.WithRateLimit(cfg.Rate),
		search.WithLogger(logger),
	)

	writer := results.NewWriter(cfg.ResultsDir, results.WithLimit(cfg.ResultLimit))

	dispatcher := dispatch.New(client, writer,
		dispatch.WithMaxRetries(cfg.MaxRetries),
		dispatch.WithBackoffFactor(cfg.BackoffFactor),
		dispatch.WithBackoffUnit(cfg.BackoffUnit),
		dispatch.WithLogger(logger),
	)

	orchestrator := pipeline.NewOrchestrator(dispatcher,
		pipeline.WithConcurrency(cfg.DispatchWorkers),
		pipeline.WithOrchestratorLogger(logger),
	)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewLoadInputsStep(cfg.DorksFile, cfg.UserAgentsFile, cfg.RandomUserAgents),
		pipeline.NewFetchProxiesStep(source, logger),
		pipeline.NewValidateProxiesStep(validator, logger),
		pipeline.NewPrepareResultsStep(writer),
	)

	var callback pipeline.ReportCallback
	if history != nil {
		p.AddStep(history)
		callback = history.callback(ctx, run)
	}
	p.AddStep(pipeline.NewDispatchStep(orchestrator, callback))

	return p
}

// cancelPending gives every dork without a report a cancelled one, so the
// summary accounts for all dorks after an interrupt.
func cancelPending(run *model.Run, cause error) {
	if len(run.Reports) == len(run.Dorks) {
		return
	}
	reports := make([]*model.DispatchReport, len(run.Dorks))
	copy(reports, run.Reports)
	for i, r := range reports {
		if r == nil {
			r = model.NewDispatchReport(run.Dorks[i])
			r.Finish(model.OutcomeCancelled, cause)
			reports[i] = r
		}
	}
	run.Reports = reports
}

// writeSummary renders the summary in the configured format, to the
// summary file when one is set and to out otherwise.
func writeSummary(cfg *config.Config, out io.Writer, summary *model.RunSummary) error {
	if cfg.SummaryFile != "" {
		dir := filepath.Dir(cfg.SummaryFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create summary directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.SummaryFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create summary file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w, err := report.New(cfg.Summary, out, getVersion())
	if err != nil {
		return err
	}
	if _, err := w.Write(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// historyRecorder stores the run and each settled dork in the history database.
// It is also the pipeline step that opens the run record.
type historyRecorder struct {
	db     *database.HistoryDB
	logger *slog.Logger
}

// Name returns the step name.
func (h *historyRecorder) Name() string {
	return stepRecordRun
}

// Do inserts the run row and stores its ID on the run.
func (h *historyRecorder) Do(ctx context.Context, run *model.Run) error {
	id, err := h.db.StartRun(ctx, run)
	if err != nil {
		return err
	}
	run.ID = id
	return nil
}

// callback returns a report callback that records each dork as it settles.
// Records are written even after cancellation so interrupted runs stay complete.
func (h *historyRecorder) callback(ctx context.Context, run *model.Run) pipeline.ReportCallback {
	ctx = context.WithoutCancel(ctx)
	return func(r *model.DispatchReport, _ int) {
		if err := h.db.InsertDispatch(ctx, run.ID, r); err != nil {
			h.logger.Error("failed to record dispatch", "dork", r.Dork.String(), "error", err)
		}
	}
}

// finish stores the aggregate counts. Failures are logged, not returned:
// the results are already on disk.
func (h *historyRecorder) finish(ctx context.Context, id int64, summary *model.RunSummary) {
	if err := h.db.FinishRun(context.WithoutCancel(ctx), id, summary); err != nil {
		h.logger.Error("failed to record run", "error", err)
	}
}
