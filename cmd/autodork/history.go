package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/nao1215/autodork/internal/config"
	"github.com/nao1215/autodork/internal/database"
	"github.com/nao1215/autodork/internal/model"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of rows shown without --limit.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// It lists what earlier runs recorded in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [dork]",
		Short: "Show recorded dork outcomes and runs",
		Long: `History displays the outcomes recorded by earlier runs.

Without arguments it lists the most recent dispatches of every dork.
With a dork it lists only the dispatches of that dork.

Examples:
  # Latest dispatches of all dorks
  autodork history

  # Every recorded dispatch of one dork
  autodork history -n 0 "site:example.com filetype:pdf"

  # List runs with their outcome counts
  autodork history --runs

  # Output in JSON format
  autodork history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("runs", "r", false, "List runs instead of dispatches")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum rows to show (0 = all)")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listRuns, err := cmd.Flags().GetBool("runs")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	var dork string
	if len(args) > 0 {
		dork = args[0]
	}
	if listRuns && dork != "" {
		return errors.New("--runs does not take a dork argument")
	}

	out := cmd.OutOrStdout()

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(out, "No history recorded yet.")
			fmt.Fprintln(out, "\nRun 'autodork' to search your dorks and record the outcomes.")
			return nil
		}
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if listRuns {
		return listRunHistory(ctx, out, db, limit, jsonOutput)
	}
	return listDispatchHistory(ctx, out, db, dork, limit, jsonOutput)
}

// listDispatchHistory prints recorded dispatches, newest first.
func listDispatchHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, dork string, limit int, jsonOutput bool) error {
	records, err := db.QueryDispatches(ctx, dork, limit)
	if err != nil {
		return fmt.Errorf("failed to get dispatch history: %w", err)
	}

	if jsonOutput {
		return writeJSON(out, records)
	}

	if len(records) == 0 {
		if dork != "" {
			fmt.Fprintf(out, "No dispatches recorded for %q\n", dork)
		} else {
			fmt.Fprintln(out, "No dispatches recorded.")
		}
		return nil
	}

	if dork != "" {
		fmt.Fprintf(out, "Dispatch history for %q (%d):\n\n", dork, len(records))
	} else {
		fmt.Fprintf(out, "Recent dispatches (%d):\n\n", len(records))
	}
	fmt.Fprintf(out, "  %-6s  %-5s  %-19s  %-10s  %-8s  %-7s  %s\n",
		"ID", "Run", "Finished", "Outcome", "Attempts", "Results", "Dork")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 78))

	for _, r := range records {
		fmt.Fprintf(out, "  %-6d  %-5d  %-19s  %-10s  %-8d  %-7d  %s\n",
			r.ID,
			r.RunID,
			r.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			r.Outcome,
			r.Attempts,
			r.ResultCount,
			r.Dork,
		)
		if r.LastError != "" && r.Outcome != model.OutcomeFound {
			fmt.Fprintf(out, "          last error: %s\n", r.LastError)
		}
	}
	return nil
}

// listRunHistory prints recorded runs, newest first.
func listRunHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOutput {
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(out, "Runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-5s  %-9s  %s\n", "ID", "Started", "Dorks", "Proxies", "Outcomes")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, r := range runs {
		fmt.Fprintf(out, "  %-6d  %-19s  %-5d  %-9s  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.DorkCount,
			fmt.Sprintf("%d/%d", r.WorkingCount, r.CandidateCount),
			formatOutcomes(r.Outcomes),
		)
	}
	return nil
}

// formatOutcomes renders outcome counts as "found:3 empty:1", in outcome order.
func formatOutcomes(outcomes map[string]int) string {
	if len(outcomes) == 0 {
		return "unfinished"
	}

	order := make(map[string]int, len(model.AllOutcomes()))
	for i, o := range model.AllOutcomes() {
		order[o.String()] = i
	}
	names := make([]string, 0, len(outcomes))
	for name, n := range outcomes {
		if n > 0 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return order[names[i]] < order[names[j]]
	})

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s:%d", name, outcomes[name])
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
