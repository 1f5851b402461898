package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/seaung/urlfinder/internal/config"
	"github.com/seaung/urlfinder/internal/database"
	"github.com/seaung/urlfinder/internal/model"
	"github.com/seaung/urlfinder/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed when --limit is not given.
const defaultHistoryLimit = 20

// historyTimeFormat is how run timestamps are printed.
const historyTimeFormat = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command lists, shows, compares and deletes runs stored in the
// history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and compare previous runs",
		Long: `History shows runs saved by 'urlfinder scan' in the local database.

Without flags it lists the most recent runs. A stored run can be printed
again, and two runs can be compared to see:
- URLs and JavaScript URLs that appeared or disappeared
- Sensitive strings that are new
- Pages whose content changed

Examples:
  # List the 20 most recent runs
  urlfinder history

  # Show run 5 again
  urlfinder history --show 5

  # Compare the latest two runs
  urlfinder history --diff

  # Compare two specific runs in JSON format
  urlfinder history --diff --from 3 --to 7 --json

  # Delete run 2
  urlfinder history --delete 2`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	// Listing flags
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Number of runs to list (0 lists all)")

	// Action flags
	cmd.Flags().Int64P("show", "s", 0, "Show a stored run by ID")
	cmd.Flags().BoolP("diff", "d", false,
		"Compare two runs (default: the latest two)")
	cmd.Flags().Int64("from", 0, "Older run ID for --diff")
	cmd.Flags().Int64("to", 0, "Newer run ID for --diff")
	cmd.Flags().Int64("delete", 0, "Delete a stored run by ID")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output --diff in Markdown format")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")

	cmd.MarkFlagsMutuallyExclusive("show", "diff", "delete")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// historyOptions are the parsed history flags.
type historyOptions struct {
	limit    int
	show     int64
	diff     bool
	from     int64
	to       int64
	del      int64
	json     bool
	markdown bool
	noColor  bool
	verbose  bool
	dbDir    string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}

	// Validate before opening the database to avoid creating it for nothing
	if (opts.from != 0 || opts.to != 0) && !opts.diff {
		return errors.New("--from and --to require --diff")
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), cmd.OutOrStdout(), db, opts)
}

// parseHistoryFlags reads the history flags.
func parseHistoryFlags(cmd *cobra.Command) (historyOptions, error) {
	var opts historyOptions
	var err error
	flags := cmd.Flags()

	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return opts, err
	}
	if opts.show, err = flags.GetInt64("show"); err != nil {
		return opts, err
	}
	if opts.diff, err = flags.GetBool("diff"); err != nil {
		return opts, err
	}
	if opts.from, err = flags.GetInt64("from"); err != nil {
		return opts, err
	}
	if opts.to, err = flags.GetInt64("to"); err != nil {
		return opts, err
	}
	if opts.del, err = flags.GetInt64("delete"); err != nil {
		return opts, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.noColor, err = flags.GetBool("no-color"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return opts, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}
	opts.verbose = getVerboseFlag(cmd)

	return opts, nil
}

// runHistory dispatches to the selected action.
func runHistory(ctx context.Context, w io.Writer, db *database.CrawlDB, opts historyOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case opts.show != 0:
		return showRun(ctx, w, db, opts)
	case opts.del != 0:
		return deleteRun(ctx, w, db, opts.del)
	case opts.diff:
		return diffRuns(ctx, w, db, opts)
	default:
		return listRuns(ctx, w, db, opts)
	}
}

// listRuns lists the most recent runs.
func listRuns(ctx context.Context, w io.Writer, db *database.CrawlDB, opts historyOptions) error {
	runs, err := db.ListRuns(ctx, opts.limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if opts.json {
		return writeJSON(w, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in the history database.")
		fmt.Fprintln(w, "\nUse 'urlfinder scan -u <url>' to start a run.")
		return nil
	}

	fmt.Fprintf(w, "Run history (%d runs):\n\n", len(runs))
	fmt.Fprintf(w, "  %-6s  %-19s  %-9s  %-5s  %s\n", "ID", "Date", "Mode", "Fuzz", "Summary")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 78))

	for _, run := range runs {
		fmt.Fprintf(w, "  %-6d  %-19s  %-9s  %-5s  %s\n",
			run.ID,
			run.StartedAt.Local().Format(historyTimeFormat),
			run.Mode,
			run.FuzzMode,
			formatStats(run.Stats),
		)
		if len(run.Seeds) > 0 {
			fmt.Fprintf(w, "  %-6s  %s\n", "", formatSeeds(run.Seeds))
		}
	}

	fmt.Fprintln(w, "\nUse 'urlfinder history --show <id>' to print a run.")
	fmt.Fprintln(w, "Use 'urlfinder history --diff' to compare the latest two runs.")

	return nil
}

// formatStats formats run counts into a one-line summary.
func formatStats(s model.Stats) string {
	parts := []string{
		fmt.Sprintf("seeds:%d", s.Seeds),
		fmt.Sprintf("urls:%d", s.URLs),
	}
	if s.JSURLs > 0 {
		parts = append(parts, fmt.Sprintf("js:%d", s.JSURLs))
	}
	if s.SensitiveInfo > 0 {
		parts = append(parts, fmt.Sprintf("sensitive:%d", s.SensitiveInfo))
	}
	if s.Failed > 0 {
		parts = append(parts, fmt.Sprintf("failed:%d", s.Failed))
	}
	return strings.Join(parts, " ")
}

// formatSeeds shortens a seed list for the listing.
func formatSeeds(seeds []string) string {
	const maxShown = 3
	if len(seeds) <= maxShown {
		return strings.Join(seeds, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(seeds[:maxShown], ", "), len(seeds)-maxShown)
}

// showRun prints a stored run the same way scan prints a finished run.
func showRun(ctx context.Context, w io.Writer, db *database.CrawlDB, opts historyOptions) error {
	run, err := db.GetRun(ctx, opts.show)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", opts.show, err)
	}

	if opts.json {
		return writeJSON(w, run)
	}

	_, err = report.NewSimpleWriter(w,
		report.WithColor(!opts.noColor),
		report.WithVerbose(opts.verbose),
	).Write(run)
	return err
}

// deleteRun removes a stored run.
func deleteRun(ctx context.Context, w io.Writer, db *database.CrawlDB, id int64) error {
	if err := db.DeleteRun(ctx, id); err != nil {
		return fmt.Errorf("failed to delete run %d: %w", id, err)
	}
	fmt.Fprintf(w, "Deleted run %d\n", id)
	return nil
}

// runComparison holds both runs' counts next to their discovery diff.
type runComparison struct {
	*database.RunDiff

	// OldStats and NewStats are the counts of the compared runs.
	OldStats model.Stats `json:"old_stats"`
	NewStats model.Stats `json:"new_stats"`
}

// diffRuns compares two runs. Without --from and --to it compares the
// latest two; with only --from it compares that run with the latest.
func diffRuns(ctx context.Context, w io.Writer, db *database.CrawlDB, opts historyOptions) error {
	oldID, newID, err := resolveDiffIDs(ctx, db, opts.from, opts.to)
	if err != nil {
		return err
	}

	d, err := db.Diff(ctx, oldID, newID)
	if err != nil {
		return fmt.Errorf("failed to compare runs: %w", err)
	}

	oldRun, err := db.GetRun(ctx, oldID)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", oldID, err)
	}
	newRun, err := db.GetRun(ctx, newID)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", newID, err)
	}

	cmp := &runComparison{
		RunDiff:  d,
		OldStats: oldRun.Stats(),
		NewStats: newRun.Stats(),
	}

	switch {
	case opts.json:
		return writeJSON(w, cmp)
	case opts.markdown:
		return writeComparisonMarkdown(w, cmp)
	default:
		writeComparisonText(w, cmp)
		return nil
	}
}

// resolveDiffIDs picks the two runs to compare.
func resolveDiffIDs(ctx context.Context, db *database.CrawlDB, from, to int64) (int64, int64, error) {
	if from != 0 && to != 0 {
		return from, to, nil
	}

	latest, err := db.LatestRunIDs(ctx, 2)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get run history: %w", err)
	}

	switch {
	case to != 0:
		return 0, 0, errors.New("--to requires --from")
	case from != 0:
		if len(latest) == 0 {
			return 0, 0, fmt.Errorf("run %d: %w", from, database.ErrRunNotFound)
		}
		return from, latest[0], nil
	case len(latest) < 2:
		return 0, 0, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(latest))
	default:
		return latest[1], latest[0], nil
	}
}

// writeComparisonText writes a comparison in human-readable text format.
func writeComparisonText(w io.Writer, cmp *runComparison) {
	fmt.Fprintf(w, "Run Comparison: %d -> %d\n", cmp.OldID, cmp.NewID)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintln(w, "\nDiscovery Summary:")
	fmt.Fprintf(w, "  %-12s  %-10s  %-10s  %-10s\n", "Item", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 48))
	for _, row := range statRows(cmp.OldStats, cmp.NewStats) {
		fmt.Fprintf(w, "  %-12s  %-10d  %-10d  %-10s\n", row.label, row.before, row.after, formatDelta(row.after-row.before))
	}

	if cmp.IsEmpty() {
		fmt.Fprintln(w, "\nNo differences in discoveries.")
		return
	}

	writeTextList(w, "New URLs", "+", cmp.NewURLs)
	writeTextList(w, "New JavaScript URLs", "+", cmp.NewJSURLs)
	writeTextList(w, "New Sensitive Strings", "!", cmp.NewSensitive)
	writeTextList(w, "Changed Pages", "~", cmp.ChangedPages)
	writeTextList(w, "Gone URLs", "-", cmp.GoneURLs)
	writeTextList(w, "Gone JavaScript URLs", "-", cmp.GoneJSURLs)
}

func writeTextList(w io.Writer, title, marker string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(w, "  [%s] %s\n", marker, item)
	}
}

// writeComparisonMarkdown writes a comparison in Markdown format.
func writeComparisonMarkdown(w io.Writer, cmp *runComparison) error {
	md := markdown.NewMarkdown(w)

	md.H1(fmt.Sprintf("Run Comparison: %d -> %d", cmp.OldID, cmp.NewID))
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, 6)
	for _, row := range statRows(cmp.OldStats, cmp.NewStats) {
		rows = append(rows, []string{
			row.label,
			strconv.Itoa(row.before),
			strconv.Itoa(row.after),
			formatDelta(row.after - row.before),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Item", "Previous", "Current", "Change"},
		Rows:   rows,
	})
	md.PlainText("")

	if cmp.IsEmpty() {
		md.Note("No differences in discoveries.")
		return md.Build()
	}
	if len(cmp.NewSensitive) > 0 {
		md.Warningf("%d new sensitive string(s) since run %d.", len(cmp.NewSensitive), cmp.OldID)
		md.PlainText("")
	}

	for _, section := range []struct {
		title string
		items []string
	}{
		{"New URLs", cmp.NewURLs},
		{"New JavaScript URLs", cmp.NewJSURLs},
		{"New Sensitive Strings", cmp.NewSensitive},
		{"Changed Pages", cmp.ChangedPages},
		{"Gone URLs", cmp.GoneURLs},
		{"Gone JavaScript URLs", cmp.GoneJSURLs},
	} {
		if len(section.items) == 0 {
			continue
		}
		md.H2(fmt.Sprintf("%s (%d)", section.title, len(section.items)))
		md.PlainText("")
		codes := make([]string, len(section.items))
		for i, item := range section.items {
			codes[i] = "`" + item + "`"
		}
		md.BulletList(codes...)
		md.PlainText("")
	}

	return md.Build()
}

// statRow is one line of the comparison summary table.
type statRow struct {
	label  string
	before int
	after  int
}

func statRows(oldStats, newStats model.Stats) []statRow {
	return []statRow{
		{"Seeds", oldStats.Seeds, newStats.Seeds},
		{"Reported", oldStats.Fetched, newStats.Fetched},
		{"Failed", oldStats.Failed, newStats.Failed},
		{"URLs", oldStats.URLs, newStats.URLs},
		{"JS URLs", oldStats.JSURLs, newStats.JSURLs},
		{"Sensitive", oldStats.SensitiveInfo, newStats.SensitiveInfo},
	}
}

// formatDelta formats a count change with a sign.
func formatDelta(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d", delta)
	case delta < 0:
		return strconv.Itoa(delta)
	default:
		return "0"
	}
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
