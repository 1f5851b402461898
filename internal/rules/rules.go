// Package rules compiles the ruleset document into an immutable set of
// regular expressions and applies it to fetched bodies.
//
// A Ruleset is built once per run by Compile and then shared read-only by
// every concurrent fetch. Pattern errors surface from Compile, before any
// network traffic, never from Extract.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/seaung/urlfinder/internal/config"
	"github.com/seaung/urlfinder/internal/model"
)

// ErrInvalidPattern is wrapped by every PatternError.
var ErrInvalidPattern = errors.New("invalid pattern")

// PatternError reports a ruleset pattern that failed to compile.
type PatternError struct {
	// List is the ruleset key the pattern came from, e.g. "url_patterns".
	List string

	// Index is the position of the pattern in its list.
	Index int

	// Pattern is the offending source text.
	Pattern string

	// Err is the error returned by regexp.Compile.
	Err error
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("%s[%d] %q: %v", e.List, e.Index, e.Pattern, e.Err)
}

// Unwrap returns both the sentinel and the regexp error so callers can use
// errors.Is(err, ErrInvalidPattern) as well as inspect the syntax error.
func (e *PatternError) Unwrap() []error {
	return []error{ErrInvalidPattern, e.Err}
}

// Ruleset is the compiled, immutable form of config.RulesFile.
// All fields must be treated as read-only after Compile returns.
type Ruleset struct {
	URLPatterns       []*regexp.Regexp
	JSPatterns        []*regexp.Regexp
	SensitivePatterns []*regexp.Regexp
	URLFilters        []*regexp.Regexp
	JSFilters         []*regexp.Regexp

	URLFuzzPaths []string
	JSFuzzPaths  []string

	// URLDepth and JSDepth are carried for recursive drivers.
	URLDepth int
	JSDepth  int

	// Headers are the default request headers.
	Headers config.Headers
}

// Compile compiles every pattern in rf. The first pattern that fails to
// compile is returned as a *PatternError.
func Compile(rf *config.RulesFile) (*Ruleset, error) {
	if rf == nil {
		rf = config.DefaultRulesFile()
	}

	rs := &Ruleset{
		URLFuzzPaths: slices.Clone(rf.URLFuzzPaths),
		JSFuzzPaths:  slices.Clone(rf.JSFuzzPaths),
		URLDepth:     rf.URLDepth,
		JSDepth:      rf.JSDepth,
		Headers:      rf.Headers,
	}

	lists := []struct {
		name string
		src  []string
		dst  *[]*regexp.Regexp
	}{
		{"url_patterns", rf.URLPatterns, &rs.URLPatterns},
		{"js_patterns", rf.JSPatterns, &rs.JSPatterns},
		{"sensitive_patterns", rf.SensitivePatterns, &rs.SensitivePatterns},
		{"url_filters", rf.URLFilters, &rs.URLFilters},
		{"js_filters", rf.JSFilters, &rs.JSFilters},
	}

	for _, l := range lists {
		compiled, err := compileList(l.name, l.src)
		if err != nil {
			return nil, err
		}
		*l.dst = compiled
	}

	return rs, nil
}

func compileList(name string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &PatternError{List: name, Index: i, Pattern: p, Err: err}
		}
		out = append(out, re)
	}
	return out, nil
}

// Extraction is the raw, pre-normalization output of Extract.
type Extraction struct {
	URLs          []string
	JSURLs        []string
	SensitiveInfo []string
}

// Extract applies the pattern groups enabled by mode to body.
//
// Every non-overlapping match of every pattern in a group contributes one
// string, in pattern order and then match order. Duplicates are kept; the
// pipeline decides novelty against the run's dedup state.
// Filters are not applied here; see FilterURL and FilterJS.
func (rs *Ruleset) Extract(body string, mode model.Mode) Extraction {
	var ex Extraction

	ex.URLs = findAll(rs.URLPatterns, body)
	if mode.ExtractsJS() {
		ex.JSURLs = findAll(rs.JSPatterns, body)
	}
	if mode.ExtractsSensitive() {
		ex.SensitiveInfo = findAll(rs.SensitivePatterns, body)
	}

	return ex
}

func findAll(patterns []*regexp.Regexp, body string) []string {
	var out []string
	for _, re := range patterns {
		out = append(out, re.FindAllString(body, -1)...)
	}
	return out
}

// FilterURL reports whether a raw page URL matches any url_filters entry
// and must be dropped.
func (rs *Ruleset) FilterURL(raw string) bool {
	return matchAny(rs.URLFilters, raw)
}

// FilterJS reports whether a raw JavaScript URL matches any js_filters entry
// and must be dropped.
func (rs *Ruleset) FilterJS(raw string) bool {
	return matchAny(rs.JSFilters, raw)
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
