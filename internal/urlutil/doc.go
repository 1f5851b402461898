// Package urlutil provides the URL helpers shared by the crawler and the CLI:
// resolving extracted strings against a base URL, matching hosts against the
// domain filter, and parsing and applying the status code filter.
//
// All functions are pure and safe for concurrent use.
package urlutil
