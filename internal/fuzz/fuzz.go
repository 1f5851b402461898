// Package fuzz derives speculative candidate URLs from URLs already discovered.
//
// Both generators share one algorithm: truncate each relevant URL to its
// directory and to its bare origin, de-duplicate those base paths, and append
// every configured suffix to every base. The URL generator works on pages
// that answered 404 and uses url_fuzz_paths; the JS generator works on every
// discovered JavaScript URL and uses js_fuzz_paths.
//
// Generators are pure. Filtering candidates against what the run has already
// seen is the pipeline's job.
package fuzz

import (
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/seaung/urlfinder/internal/model"
	"github.com/seaung/urlfinder/internal/rules"
)

// Kind selects which URLs of a result feed the generator.
type Kind int

const (
	// KindURL uses the page URL of results whose status is 404.
	KindURL Kind = iota

	// KindJS uses every JavaScript URL of every result.
	KindJS
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindJS:
		return "js"
	default:
		return "unknown"
	}
}

// originPattern extracts scheme://host from a URL that has a path.
var originPattern = regexp.MustCompile(`(https?://[^/]+)/`)

// Generator produces fuzz candidates for one Kind.
type Generator struct {
	kind  Kind
	paths []string
}

// NewGenerator creates a generator of the given kind with explicit suffixes.
func NewGenerator(kind Kind, paths []string) *Generator {
	return &Generator{kind: kind, paths: slices.Clone(paths)}
}

// NewURLGenerator creates the 404 page generator from the ruleset.
func NewURLGenerator(rs *rules.Ruleset) *Generator {
	return NewGenerator(KindURL, rs.URLFuzzPaths)
}

// NewJSGenerator creates the JavaScript generator from the ruleset.
func NewJSGenerator(rs *rules.Ruleset) *Generator {
	return NewGenerator(KindJS, rs.JSFuzzPaths)
}

// Kind returns the generator kind.
func (g *Generator) Kind() Kind {
	return g.kind
}

// Generate returns the cartesian product of the base paths derived from
// results with the generator's suffixes.
//
// fallbackTarget and fallbackDomain are consulted only when relevant URLs
// were present but none of them yielded a base path (for example a bare
// "http://host" without a trailing slash that is also unparsable as a URL).
// The fallback base is the origin of fallbackTarget, with its host replaced
// by fallbackDomain when that is non-empty.
func (g *Generator) Generate(results []*model.CrawlResult, fallbackTarget, fallbackDomain string) []string {
	if len(g.paths) == 0 {
		return nil
	}

	sources := g.sources(results)
	if len(sources) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var bases []string
	add := func(b string) {
		if b == "" {
			return
		}
		if _, ok := seen[b]; ok {
			return
		}
		seen[b] = struct{}{}
		bases = append(bases, b)
	}

	for _, src := range sources {
		add(directoryBase(src))
		add(originBase(src))
	}

	if len(bases) == 0 {
		add(fallbackBase(fallbackTarget, fallbackDomain))
	}

	slices.Sort(bases)

	candidates := make([]string, 0, len(bases)*len(g.paths))
	for _, b := range bases {
		for _, p := range g.paths {
			candidates = append(candidates, join(b, p))
		}
	}
	return candidates
}

func (g *Generator) sources(results []*model.CrawlResult) []string {
	var out []string
	for _, r := range results {
		if r == nil {
			continue
		}
		switch g.kind {
		case KindURL:
			if r.Status == http.StatusNotFound {
				out = append(out, r.URL)
			}
		case KindJS:
			out = append(out, r.JSURLs...)
		}
	}
	return out
}

// directoryBase returns origin + "/" + every path segment but the last.
// URLs with fewer than two path segments have no directory base.
func directoryBase(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	segments := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/" + strings.Join(segments[:len(segments)-1], "/")
}

// originBase returns the scheme://host prefix of raw, or "" when raw has no path.
func originBase(raw string) string {
	m := originPattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[1]
}

func fallbackBase(target, domain string) string {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" {
		return ""
	}
	host := u.Host
	if domain != "" {
		host = domain
	}
	if host == "" {
		return ""
	}
	return u.Scheme + "://" + host
}

// join concatenates base and suffix with exactly one "/" between them.
// url_fuzz_paths entries start with "/" while js_fuzz_paths entries are bare
// file names; both must land under the base directory.
func join(base, suffix string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(suffix, "/")
}
