package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no seed URL is given.
	// This error occurs when neither a positional argument, --url, --file
	// nor --unified-file provides a target.
	ErrNoTarget = errors.New("no target specified: provide a url, --file or --unified-file")

	// ErrInvalidTarget is returned when a seed is not an absolute http(s) URL.
	ErrInvalidTarget = errors.New("invalid target: must be an absolute http or https url")

	// ErrInvalidThreads is returned when the thread count is not positive.
	// Zero slots would block every fetch forever.
	ErrInvalidThreads = errors.New("invalid threads: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate connection failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMode is returned when the mode is not 1, 2 or 3.
	ErrInvalidMode = errors.New("invalid mode: must be 1 (normal), 2 (deep) or 3 (deep-safe)")

	// ErrInvalidFuzzMode is returned when the fuzz mode is not 0, 1, 2 or 3.
	ErrInvalidFuzzMode = errors.New("invalid fuzz mode: must be 0 (none), 1 (url), 2 (js) or 3 (both)")

	// ErrInvalidMaxCount is returned when --max is negative.
	// Use 0 for no limit.
	ErrInvalidMaxCount = errors.New("invalid max count: must be non-negative")

	// ErrInvalidBaseURL is returned when --base-url is not an absolute URL.
	ErrInvalidBaseURL = errors.New("invalid base url: must be an absolute http or https url")

	// ErrInvalidProxy is returned when --proxy is not a http, https or socks5 URL.
	ErrInvalidProxy = errors.New("invalid proxy: must be a http://, https:// or socks5:// url")

	// ErrConflictingProxy is returned when both --tor and --proxy are given.
	// Only one upstream route can be used at a time.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --tor and --proxy cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRateLimit is returned when the per-host rate is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrUnknownFormat is returned when --format names an unsupported report format.
	ErrUnknownFormat = errors.New("unknown report format")

	// ErrNoOutputDir is returned when report output is requested without a directory.
	ErrNoOutputDir = errors.New("no output directory specified")
)
