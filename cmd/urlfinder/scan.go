package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/seaung/urlfinder/internal/config"
	"github.com/seaung/urlfinder/internal/crawler"
	"github.com/seaung/urlfinder/internal/database"
	"github.com/seaung/urlfinder/internal/dedup"
	"github.com/seaung/urlfinder/internal/fetcher"
	"github.com/seaung/urlfinder/internal/fuzz"
	"github.com/seaung/urlfinder/internal/log"
	"github.com/seaung/urlfinder/internal/model"
	"github.com/seaung/urlfinder/internal/pipeline"
	"github.com/seaung/urlfinder/internal/report"
	"github.com/seaung/urlfinder/internal/rules"
	"github.com/seaung/urlfinder/internal/tor"
	"github.com/seaung/urlfinder/internal/transport"
	"github.com/seaung/urlfinder/internal/urlutil"
	"github.com/spf13/cobra"
)

// rateBurst is the per-host burst allowed by --rate.
const rateBurst = 1

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Extract URLs and sensitive strings from seed URLs",
		Long: `Scan fetches every seed URL once and extracts from each response:
- Page URLs (every mode)
- JavaScript asset URLs (mode 2 and 3)
- Sensitive strings such as tokens, keys and API paths (mode 3)

Discoveries are de-duplicated across the whole run. With --fuzz, candidate
paths are guessed next to pages that answered 404 and next to discovered
scripts.

Modes:
  1  normal     page URLs only
  2  deep       page URLs and JavaScript URLs
  3  deep-safe  page URLs, JavaScript URLs and sensitive strings

Fuzz modes:
  0  none
  1  url   directory guesses for pages that answered 404
  2  js    script name guesses next to discovered JavaScript
  3  both

Examples:
  # Scan a single site
  urlfinder scan -u https://example.com

  # Scan every URL in a file, deep-safe mode, both fuzzers
  urlfinder scan -f seeds.txt -m 3 -z 3

  # Put every seed of a file into one report
  urlfinder scan -F seeds.txt -o out --format json,md

  # Only report 200 and 403 responses, through a proxy
  urlfinder scan -u https://example.com -s 200,403 -x http://127.0.0.1:8080

  # Route every request through an embedded Tor daemon
  urlfinder scan --tor -u http://exampleonion.onion`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Seed flags
	cmd.Flags().StringP("url", "u", "", "Seed URL")
	cmd.Flags().StringP("file", "f", "",
		"File of seed URLs, one per line (one report per host)")
	cmd.Flags().StringP("unified-file", "F", "",
		"File of seed URLs, one per line (one report for all seeds)")

	// Request flags
	cmd.Flags().StringP("user-agent", "a", "", "User-Agent header (overrides the ruleset)")
	cmd.Flags().StringP("cookie", "c", "", "Cookie header (overrides the ruleset)")
	cmd.Flags().StringP("base-url", "b", "",
		"Resolve every relative reference against this URL instead of the fetched URL")
	cmd.Flags().StringP("proxy", "x", "", "Upstream proxy (http://, https:// or socks5://)")
	cmd.Flags().Int("time", int(config.DefaultTimeout/time.Second), "Request timeout in seconds")
	cmd.Flags().Bool("insecure", false, "Skip TLS certificate verification")
	cmd.Flags().Int64("max-body", config.DefaultMaxBodySize, "Maximum response body size in bytes")
	cmd.Flags().Float64("rate", 0, "Maximum requests per second to one host (0 disables)")

	// Tor flags
	cmd.Flags().Bool("tor", false, "Route requests through an embedded Tor daemon")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Crawl behavior flags
	cmd.Flags().StringP("mode", "m", "1", "Extraction mode: 1 (normal), 2 (deep), 3 (deep-safe)")
	cmd.Flags().StringP("fuzz", "z", "0", "Fuzz mode: 0 (none), 1 (url), 2 (js), 3 (both)")
	cmd.Flags().StringP("domain", "d", "", "Regular expression a seed host must match")
	cmd.Flags().StringP("status", "s", config.DefaultStatusFilter,
		`Status codes to report, comma separated, or "all"`)
	cmd.Flags().IntP("threads", "t", config.DefaultThreads, "Concurrent fetch slots")
	cmd.Flags().Int("max", 0, "Maximum number of fetches (0 means no limit)")
	cmd.Flags().StringP("config", "i", "",
		"Ruleset file path (default: .urlfinder.yaml or the XDG config directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Report output directory")
	cmd.Flags().String("format", strings.Join(config.DefaultFormats, ","),
		"Report formats, comma separated: "+strings.Join(config.SupportedFormats, ", ")+` ("" for none)`)
	cmd.Flags().Bool("no-history", false, "Do not save the run to the history database")
	cmd.Flags().Bool("since-last", false,
		"Treat everything the latest stored run discovered as already seen")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")
	cmd.Flags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	if cfg.NoColor {
		color.NoColor = true
	}
	printBanner(cmd.ErrOrStderr())

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
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

// buildConfig creates a Config from cobra command flags.
// Seeds are collected from --url, the positional arguments, --file and
// --unified-file, in that order.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	seed, err := flags.GetString("url")
	if err != nil {
		return nil, err
	}
	if seed != "" {
		cfg.Targets = append(cfg.Targets, seed)
	}
	cfg.Targets = append(cfg.Targets, args...)

	seedFile, err := flags.GetString("file")
	if err != nil {
		return nil, err
	}
	if seedFile != "" {
		seeds, err := config.ReadSeedFile(seedFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, seeds...)
	}

	unifiedFile, err := flags.GetString("unified-file")
	if err != nil {
		return nil, err
	}
	if unifiedFile != "" {
		seeds, err := config.ReadSeedFile(unifiedFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, seeds...)
		cfg.Unified = true
	}

	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.Cookie, err = flags.GetString("cookie"); err != nil {
		return nil, err
	}
	if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
		return nil, err
	}
	if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}

	seconds, err := flags.GetInt("time")
	if err != nil {
		return nil, err
	}
	cfg.Timeout = time.Duration(seconds) * time.Second

	if cfg.Insecure, err = flags.GetBool("insecure"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body"); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}

	mode, err := flags.GetString("mode")
	if err != nil {
		return nil, err
	}
	if cfg.Mode, err = model.ParseMode(mode); err != nil {
		return nil, err
	}

	fuzzMode, err := flags.GetString("fuzz")
	if err != nil {
		return nil, err
	}
	if cfg.FuzzMode, err = model.ParseFuzzMode(fuzzMode); err != nil {
		return nil, err
	}

	if cfg.Domain, err = flags.GetString("domain"); err != nil {
		return nil, err
	}
	if cfg.StatusFilter, err = flags.GetString("status"); err != nil {
		return nil, err
	}
	if cfg.Threads, err = flags.GetInt("threads"); err != nil {
		return nil, err
	}
	if cfg.MaxCount, err = flags.GetInt("max"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	formats, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}
	cfg.Formats = config.ParseFormats(formats)

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	if cfg.SinceLast, err = flags.GetBool("since-last"); err != nil {
		return nil, err
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	if cfg.NoColor, err = flags.GetBool("no-color"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// Load the ruleset.
	// If user explicitly specified a ruleset path, error if not found.
	// If no path specified, silently use the built-in rules.
	if cfg.RulesFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	rulesPath := config.FindRulesFile(cfg.RulesFilePath)
	switch {
	case rulesPath != "":
		cfg.Rules, err = config.LoadRulesFile(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ruleset %s: %w", rulesPath, err)
		}
	case cfg.RulesFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.RulesFilePath)
	default:
		cfg.Rules = config.DefaultRulesFile()
	}

	return cfg, nil
}

// setupLogger creates the secure structured logger for the run.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return log.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return log.NewSecureLogger(w, cfg.Verbose)
}

// requestHeaders merges the ruleset headers with the command line overrides.
func requestHeaders(cfg *config.Config) transport.Headers {
	h := cfg.Rules.Headers
	if cfg.UserAgent != "" {
		h.UserAgent = cfg.UserAgent
	}
	if cfg.Cookie != "" {
		h.Cookie = cfg.Cookie
	}
	return transport.Headers{
		UserAgent:      h.UserAgent,
		Cookie:         h.Cookie,
		Accept:         h.Accept,
		AcceptLanguage: h.AcceptLanguage,
		AcceptEncoding: h.AcceptEncoding,
	}
}

// fallbackDomain returns the --domain value when it names a single host
// literally, for use as the fuzz fallback origin. Patterns return "".
func fallbackDomain(pattern string) string {
	if pattern == "" || strings.ContainsAny(pattern, `^$*+?()[]{}|\`) {
		return ""
	}
	return pattern
}

// runScan executes the run: crawl every seed, then save, write and print
// the report.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	rs, err := rules.Compile(cfg.Rules)
	if err != nil {
		return fmt.Errorf("invalid ruleset: %w", err)
	}

	matcher, err := urlutil.NewDomainMatcher(cfg.Domain)
	if err != nil {
		return err
	}

	statusCodes, err := urlutil.ParseStatusCodes(cfg.StatusFilter)
	if err != nil {
		return err
	}

	if err := tor.CheckSeeds(cfg.Targets, cfg.UseTor || cfg.Proxy != ""); err != nil {
		return err
	}

	logger.Info("starting scan",
		"seeds", len(cfg.Targets),
		"mode", cfg.Mode,
		"fuzz", cfg.FuzzMode,
		"threads", cfg.Threads,
		"unified", cfg.Unified,
		"saveToDB", cfg.SaveToDB,
	)

	proxyURL := cfg.Proxy
	if cfg.UseTor {
		daemon, err := startEmbeddedTor(ctx, cfg, logger, stderr)
		if err != nil {
			return err
		}
		// Ensure cleanup on exit
		defer func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := daemon.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}()
		if proxyURL, err = daemon.ProxyURL(); err != nil {
			return err
		}
	}

	client, err := transport.NewClient(proxyURL,
		transport.WithTimeout(cfg.Timeout),
		transport.WithInsecureTLS(cfg.Insecure),
		transport.WithHeaders(requestHeaders(cfg)),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	switch {
	case client.IsSOCKS():
		if status := client.CheckConnection(ctx); status != transport.ProxyStatusOK {
			return fmt.Errorf("proxy check failed: %s: %w", status, status.Error())
		}
		logger.Info("SOCKS5 proxy verified", "proxy", proxyURL)
	case proxyURL != "":
		logger.Info("using HTTP proxy", "proxy", proxyURL)
	}

	fetchOpts := []fetcher.Option{
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithLogger(logger),
	}
	if cfg.RateLimit > 0 {
		fetchOpts = append(fetchOpts, fetcher.WithHostLimiter(fetcher.NewHostLimiter(cfg.RateLimit, rateBurst)))
	}
	f := fetcher.New(client.NewHTTPClient(), cfg.Threads, fetchOpts...)

	c := crawler.New(f, rs,
		crawler.WithMode(cfg.Mode),
		crawler.WithDomainMatcher(matcher),
		crawler.WithStatusFilter(statusCodes),
		crawler.WithBaseURL(cfg.BaseURL),
		crawler.WithMaxCount(cfg.MaxCount),
		crawler.WithLogger(logger),
	)

	// The history database is opened before the crawl so that --since-last
	// can read the previous run and a broken store fails fast.
	var db *database.CrawlDB
	if cfg.SaveToDB || cfg.SinceLast {
		if db, err = database.Open(cfg.DBDir, database.DefaultOptions()); err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
	}

	console := newConsole(stderr)
	processor := pipeline.NewProcessor(dedup.New(), fuzz.NewURLGenerator(rs), fuzz.NewJSGenerator(rs),
		pipeline.WithNotifier(console),
		pipeline.WithProcessorLogger(logger),
		pipeline.WithFallbackDomain(fallbackDomain(cfg.Domain)),
	)

	if cfg.SinceLast {
		if err := preloadLastRun(ctx, db, processor, logger); err != nil {
			return err
		}
	}

	runner := pipeline.NewRunner(c, processor,
		pipeline.WithConcurrency(cfg.Threads),
		pipeline.WithModes(cfg.Mode, cfg.FuzzMode),
		pipeline.WithResultFunc(console.onResult),
		pipeline.WithRunnerLogger(logger),
	)

	startTime := time.Now()
	runReport, runErr := runner.Run(ctx, cfg.Targets)
	if runReport == nil {
		return runErr
	}
	if runErr != nil {
		logger.Warn("run interrupted, writing partial results", "error", runErr)
	}
	fmt.Fprintf(stderr, "\nRun completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	post := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)

	if cfg.SaveToDB {
		post.AddStep(pipeline.NewHistoryStep(db, logger))
	}

	reportStep := pipeline.NewReportStep(cfg.OutputDir, cfg.Formats,
		pipeline.WithUnified(cfg.Unified),
		pipeline.WithReportVersion(getVersion()),
		pipeline.WithReportLogger(logger),
	)
	post.AddSteps(
		reportStep,
		pipeline.NewSummaryStep(stdout,
			report.WithColor(!cfg.NoColor),
			report.WithVerbose(cfg.Verbose),
		),
	)

	// An interrupted crawl still saves and writes what it collected.
	postErr := post.Execute(context.WithoutCancel(ctx), runReport)

	for _, path := range reportStep.Written() {
		fmt.Fprintf(stderr, "Report written: %s\n", path)
	}
	if runReport.ID != 0 {
		fmt.Fprintf(stderr, "Saved to history as run %d\n", runReport.ID)
	}

	return errors.Join(runErr, postErr)
}

// preloadLastRun marks the discoveries of the newest stored run as seen.
// An empty history is not an error; the run then reports everything.
func preloadLastRun(ctx context.Context, db *database.CrawlDB, p *pipeline.Processor, logger *slog.Logger) error {
	ids, err := db.LatestRunIDs(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(ids) == 0 {
		logger.Info("no previous run in history, reporting every discovery")
		return nil
	}

	prev, err := db.GetRun(ctx, ids[0])
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", ids[0], err)
	}
	p.Preload(prev)
	return nil
}

// startEmbeddedTor starts an embedded Tor daemon using tornago.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (*tor.Daemon, error) {
	fmt.Fprintln(stderr, "Starting embedded Tor daemon...")
	fmt.Fprintf(stderr, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	daemon := tor.NewDaemon(tor.WithStartupTimeout(cfg.TorStartupTimeout))
	if err := daemon.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	proxyURL, err := daemon.ProxyURL()
	if err != nil {
		_ = daemon.Stop() //nolint:errcheck // Best effort cleanup
		return nil, err
	}

	logger.Info("embedded Tor daemon started",
		"proxy", proxyURL,
		"controlAddr", daemon.ControlAddr(),
	)
	fmt.Fprintf(stderr, "Embedded Tor daemon started, SOCKS proxy: %s\n\n", proxyURL)

	return daemon, nil
}

// console prints live progress while the run is in flight.
// The Runner calls onResult from many goroutines, so writes are serialized.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

// onResult prints one line per classified seed.
func (c *console) onResult(result *model.CrawlResult, discovered []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := fmt.Sprintf("%s %s", statusLabel(result.Status), result.URL)
	if result.Title != "" {
		line += fmt.Sprintf(" [%s]", result.Title)
	}
	if len(discovered) > 0 {
		line += color.GreenString(" +%d", len(discovered))
	}
	fmt.Fprintln(c.w, line)
}

// SensitiveFound implements pipeline.Notifier.
// Only the count is printed; the strings themselves go into the report.
func (c *console) SensitiveFound(result *model.CrawlResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "%s sensitive information found at %s (%d)\n",
		color.New(color.FgRed, color.Bold).Sprint("[!]"), result.URL, len(result.SensitiveInfo))
}

// statusLabel renders a status code colored by class.
func statusLabel(status uint16) string {
	attr := color.FgRed
	switch {
	case status >= 200 && status < 300:
		attr = color.FgGreen
	case status >= 300 && status < 400:
		attr = color.FgCyan
	case status >= 400 && status < 500:
		attr = color.FgYellow
	}
	return color.New(attr).Sprintf("[%d]", status)
}
