package urlutil

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidDomainPattern is returned when the --domain regex does not compile.
var ErrInvalidDomainPattern = errors.New("invalid domain pattern")

// ErrInvalidStatusCode is returned when a status filter entry is not a valid code.
var ErrInvalidStatusCode = errors.New("invalid status code")

// DomainMatcher restricts fetches to hosts matching a regular expression.
// A nil *DomainMatcher matches every URL.
type DomainMatcher struct {
	re *regexp.Regexp
}

// NewDomainMatcher compiles pattern once for the whole run.
// An empty pattern returns a nil matcher, which matches everything.
func NewDomainMatcher(pattern string) (*DomainMatcher, error) {
	if pattern == "" {
		return nil, nil //nolint:nilnil // nil matcher is the documented "no filter" value
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDomainPattern, err)
	}
	return &DomainMatcher{re: re}, nil
}

// Match reports whether the host of rawURL matches the pattern.
// URLs that do not parse, or have no host, never match.
func (m *DomainMatcher) Match(rawURL string) bool {
	if m == nil {
		return true
	}
	host, err := Host(rawURL)
	if err != nil || host == "" {
		return false
	}
	return m.re.MatchString(host)
}

// String returns the pattern source.
func (m *DomainMatcher) String() string {
	if m == nil {
		return ""
	}
	return m.re.String()
}

// ParseStatusCodes parses a status filter.
// "all" (any case) and the empty string yield an empty list, meaning no filter.
// Otherwise the input is a comma separated list of codes. Entries that are
// not integers in 100..599 are rejected so that a typo does not silently
// filter out everything.
func ParseStatusCodes(s string) ([]uint16, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return []uint16{}, nil
	}

	parts := strings.Split(s, ",")
	codes := make([]uint16, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || n < 100 || n > 599 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatusCode, p)
		}
		codes = append(codes, uint16(n))
	}
	return codes, nil
}

// IsStatusMatch reports whether status passes the filter.
// An empty filter matches every status.
func IsStatusMatch(status uint16, filter []uint16) bool {
	return len(filter) == 0 || slices.Contains(filter, status)
}
