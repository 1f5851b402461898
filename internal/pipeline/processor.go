package pipeline

import (
	"log/slog"
	"net/http"

	"github.com/seaung/urlfinder/internal/dedup"
	"github.com/seaung/urlfinder/internal/fuzz"
	"github.com/seaung/urlfinder/internal/model"
)

// Notifier receives sensitive findings as a side channel.
// Implementations are called from concurrent seed tasks and must be safe for
// concurrent use.
type Notifier interface {
	SensitiveFound(result *model.CrawlResult)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(result *model.CrawlResult)

// SensitiveFound calls f(result).
func (f NotifierFunc) SensitiveFound(result *model.CrawlResult) {
	f(result)
}

// LogNotifier reports findings through a logger.
// Only the URL and the number of findings are logged; the values themselves
// are written to the reports, never to the log stream.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SensitiveFound logs a warning for result.
func (n *LogNotifier) SensitiveFound(result *model.CrawlResult) {
	n.logger.Warn("sensitive information found",
		"url", result.URL,
		"count", len(result.SensitiveInfo),
	)
}

// Processor decides which discoveries of a CrawlResult are new to the run.
//
// It owns no state of its own. The dedup state is passed in by the caller so
// that every concurrent seed task shares one view of what has been seen.
//
// Design decision: Process takes the mode and fuzz mode as arguments instead
// of reading them from configuration. The runner threads the validated run
// parameters explicitly, and tests can exercise every combination with one
// Processor.
type Processor struct {
	state    *dedup.State
	urlFuzz  *fuzz.Generator
	jsFuzz   *fuzz.Generator
	notifier Notifier
	logger   *slog.Logger

	// fallbackDomain replaces the host of the fallback fuzz base.
	fallbackDomain string
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithNotifier sets the findings side channel. The default logs a warning.
func WithNotifier(n Notifier) ProcessorOption {
	return func(p *Processor) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithProcessorLogger sets the logger for debug output.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithFallbackDomain sets the host used for fuzz bases when none can be
// derived from the discovered URLs.
func WithFallbackDomain(domain string) ProcessorOption {
	return func(p *Processor) {
		p.fallbackDomain = domain
	}
}

// NewProcessor creates a Processor over state with the two fuzz generators.
func NewProcessor(state *dedup.State, urlFuzz, jsFuzz *fuzz.Generator, opts ...ProcessorOption) *Processor {
	p := &Processor{
		state:   state,
		urlFuzz: urlFuzz,
		jsFuzz:  jsFuzz,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.notifier == nil {
		p.notifier = NewLogNotifier(p.logger)
	}
	return p
}

// Process returns the discoveries of result that no earlier call has
// returned, followed by new fuzz candidates.
//
// Steps, in order:
//  1. result.URL is marked visited.
//  2. Each page URL is kept iff it is inserted into the visited set.
//  3. From ModeDeep up, each JS URL is kept iff it is inserted into the JS set.
//  4. In ModeDeepSafe, non-empty findings are sent to the notifier.
//  5. URL fuzzing runs only for 404 results; JS fuzzing always runs. Each
//     candidate is kept iff it is inserted into the fuzz set.
//
// Every check-and-insert is atomic, so across concurrent calls each item is
// returned at most once for the whole run.
func (p *Processor) Process(result *model.CrawlResult, mode model.Mode, fuzzMode model.FuzzMode) []string {
	if result == nil {
		return nil
	}

	p.state.TryInsert(dedup.Visited, result.URL)

	var out []string
	for _, u := range result.URLs {
		if p.state.TryInsert(dedup.Visited, u) {
			out = append(out, u)
		}
	}

	if mode.ExtractsJS() {
		for _, js := range result.JSURLs {
			if p.state.TryInsert(dedup.JSVisited, js) {
				out = append(out, js)
			}
		}
	}

	if mode.ExtractsSensitive() && result.HasFindings() {
		p.notifier.SensitiveFound(result)
	}

	batch := []*model.CrawlResult{result}
	if fuzzMode.FuzzesURL() && result.Status == http.StatusNotFound {
		out = p.appendFuzz(out, p.urlFuzz, batch, result.URL)
	}
	if fuzzMode.FuzzesJS() {
		out = p.appendFuzz(out, p.jsFuzz, batch, result.URL)
	}

	return out
}

// Preload marks everything prev discovered as already seen, so that Process
// only returns what is new since that run. Page URLs go to the visited set,
// script URLs to the JS set and prev's candidates to the fuzz set.
func (p *Processor) Preload(prev *model.RunReport) {
	if prev == nil {
		return
	}
	for i := range prev.Results {
		r := &prev.Results[i]
		p.state.Seed(dedup.Visited, []string{r.URL})
		p.state.Seed(dedup.Visited, r.URLs)
		p.state.Seed(dedup.JSVisited, r.JSURLs)
	}
	p.state.Seed(dedup.FuzzVisited, prev.Candidates)

	counts := p.Counts()
	p.logger.Info("preloaded previous run",
		"run", prev.ID,
		"urls", counts.URLs,
		"js", counts.JSURLs,
		"fuzz", counts.FuzzCandidates,
	)
}

// Counts returns the current size of each dedup set.
func (p *Processor) Counts() model.UniqueCounts {
	return model.UniqueCounts{
		URLs:           p.state.Len(dedup.Visited),
		JSURLs:         p.state.Len(dedup.JSVisited),
		FuzzCandidates: p.state.Len(dedup.FuzzVisited),
	}
}

func (p *Processor) appendFuzz(out []string, g *fuzz.Generator, batch []*model.CrawlResult, target string) []string {
	if g == nil {
		return out
	}
	candidates := g.Generate(batch, target, p.fallbackDomain)
	added := 0
	for _, c := range candidates {
		if p.state.TryInsert(dedup.FuzzVisited, c) {
			out = append(out, c)
			added++
		}
	}
	if len(candidates) > 0 {
		p.logger.Debug("fuzz candidates",
			"kind", g.Kind(),
			"url", target,
			"generated", len(candidates),
			"new", added,
		)
	}
	return out
}
