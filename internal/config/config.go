package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/seaung/urlfinder/internal/model"
)

// Default configuration values.
// Threads and timeout match what operators of the original tool expect
// from the -t and --time flags.
const (
	// DefaultThreads is the number of concurrent fetch slots.
	// Recon targets are usually fast clearnet hosts, so a wide slot limit
	// keeps the run short without pressuring any single host much.
	DefaultThreads = 50

	// DefaultTimeout is the per-request timeout.
	// Five seconds is enough for a responsive web server; slow or
	// tarpitted hosts are abandoned rather than retried.
	DefaultTimeout = 5 * time.Second

	// DefaultMode extracts page URLs only.
	DefaultMode = model.ModeNormal

	// DefaultOutputDir is where reports are written when --output is not given.
	DefaultOutputDir = "output"

	// DefaultStatusFilter accepts every status code.
	DefaultStatusFilter = "all"

	// AppName is the application name used for XDG directory paths.
	AppName = "urlfinder"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages and JavaScript bundles while
	// preventing memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap when --tor is given.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Report format names accepted by --format.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatHTML     = "html"
	FormatMarkdown = "md"
	FormatXLSX     = "xlsx"
)

// DefaultFormats are the report formats written when --format is not given.
var DefaultFormats = []string{FormatJSON, FormatCSV, FormatHTML}

// SupportedFormats lists every accepted --format value.
var SupportedFormats = []string{FormatJSON, FormatCSV, FormatHTML, FormatMarkdown, FormatXLSX}

// Config holds all run parameters for URLFinder.
// It is populated from CLI flags once, validated, and then passed explicitly
// to the crawler, fetcher and pipeline. Nothing below the CLI re-reads flags.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, OutputConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Targets is the list of seed URLs in the order they were given.
	Targets []string

	// Unified is true when the seeds came from --unified-file.
	// All results then go into one report instead of one report per host.
	Unified bool

	// Threads is the number of concurrent fetch slots for the whole run.
	Threads int

	// Timeout is the per-request timeout. There is no retry.
	Timeout time.Duration

	// Mode selects which pattern groups run against each body.
	Mode model.Mode

	// FuzzMode selects which fuzz generators run. FuzzNone disables fuzzing.
	FuzzMode model.FuzzMode

	// BaseURL, when set, replaces the fetched URL as the base for resolving
	// every relative reference found in any body.
	BaseURL string

	// UserAgent overrides the ruleset's user_agent header.
	UserAgent string

	// Cookie overrides the ruleset's cookie header.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string

	// Proxy is an upstream proxy URL (http://, https:// or socks5://).
	Proxy string

	// Domain is a regular expression matched against each seed's host.
	// Seeds whose host does not match are skipped without a fetch.
	Domain string

	// StatusFilter is "all" or a comma separated list of status codes.
	// Responses with other codes are dropped from the report.
	StatusFilter string

	// MaxCount is the maximum number of fetches admitted for the run.
	// A value of 0 means no limit.
	MaxCount int

	// OutputDir is the directory reports are written into.
	OutputDir string

	// Formats lists the report formats to write.
	Formats []string

	// RulesFilePath is the path to the ruleset file given with --config.
	// If empty, FindRulesFile searches the default locations.
	RulesFilePath string

	// Rules is the loaded ruleset document. It is populated by the CLI from
	// RulesFilePath or DefaultRulesFile and compiled by the rules package.
	Rules *RulesFile

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogJSON switches log output to JSON lines.
	LogJSON bool

	// NoColor disables colored console output.
	NoColor bool

	// UseTor routes every request through an embedded Tor daemon.
	//
	// Note: The embedded Tor daemon takes 1-3 minutes to bootstrap and connect
	// to the Tor network on first start.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor daemon
	// to start and bootstrap. Only used when UseTor is true.
	TorStartupTimeout time.Duration

	// RateLimit is the maximum requests per second sent to a single host.
	// A value of 0 disables per-host rate limiting.
	RateLimit float64

	// Insecure disables TLS certificate verification.
	Insecure bool

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory exhaustion.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// DBDir is the directory path for storing the SQLite history database.
	// Defaults to XDG data directory (~/.local/share/urlfinder on Linux).
	DBDir string

	// SaveToDB indicates whether to save run results to the history database.
	SaveToDB bool

	// SinceLast preloads the dedup state with the discoveries of the latest
	// stored run, so only what is new since then is reported as a candidate.
	SinceLast bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		Threads:           DefaultThreads,
		Timeout:           DefaultTimeout,
		Mode:              DefaultMode,
		FuzzMode:          model.FuzzNone,
		StatusFilter:      DefaultStatusFilter,
		OutputDir:         DefaultOutputDir,
		Formats:           slices.Clone(DefaultFormats),
		TorStartupTimeout: DefaultTorStartupTimeout,
		MaxBodySize:       DefaultMaxBodySize,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for URLFinder.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/urlfinder
// On macOS: ~/Library/Application Support/urlfinder
// On Windows: %LOCALAPPDATA%\urlfinder
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for URLFinder.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/urlfinder
// On macOS: ~/Library/Application Support/urlfinder
// On Windows: %APPDATA%\urlfinder
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any fetch begins.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, t := range c.Targets {
		if !isHTTPURL(t) {
			return fmt.Errorf("%w: %q", ErrInvalidTarget, t)
		}
	}

	if c.Threads <= 0 {
		return ErrInvalidThreads
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if !c.Mode.Valid() {
		return ErrInvalidMode
	}

	if !c.FuzzMode.Valid() {
		return ErrInvalidFuzzMode
	}

	if c.MaxCount < 0 {
		return ErrInvalidMaxCount
	}

	if c.BaseURL != "" && !isHTTPURL(c.BaseURL) {
		return ErrInvalidBaseURL
	}

	if c.Proxy != "" {
		if c.UseTor {
			return ErrConflictingProxy
		}
		if !isProxyURL(c.Proxy) {
			return ErrInvalidProxy
		}
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if len(c.Formats) > 0 && c.OutputDir == "" {
		return ErrNoOutputDir
	}
	for _, f := range c.Formats {
		if !slices.Contains(SupportedFormats, f) {
			return fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, f, strings.Join(SupportedFormats, ", "))
		}
	}

	return nil
}

// ParseFormats splits a comma separated --format value.
// Empty entries are ignored and names are lower-cased.
func ParseFormats(s string) []string {
	var formats []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "markdown" {
			f = FormatMarkdown
		}
		if f != "" && !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	return formats
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isProxyURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
		return true
	default:
		return false
	}
}
