package pipeline

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/seaung/urlfinder/internal/dedup"
	"github.com/seaung/urlfinder/internal/fuzz"
	"github.com/seaung/urlfinder/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestProcessor(state *dedup.State, opts ...ProcessorOption) *Processor {
	opts = append([]ProcessorOption{WithProcessorLogger(quietLogger())}, opts...)
	return NewProcessor(state,
		fuzz.NewGenerator(fuzz.KindURL, []string{"/admin"}),
		fuzz.NewGenerator(fuzz.KindJS, []string{"main.js"}),
		opts...,
	)
}

func crawlResult(url string, status uint16, urls, js, sensitive []string) *model.CrawlResult {
	return &model.CrawlResult{
		FetchResult:   model.FetchResult{URL: url, Status: status},
		URLs:          urls,
		JSURLs:        js,
		SensitiveInfo: sensitive,
	}
}

func TestProcessorReturnsOnlyNewURLs(t *testing.T) {
	t.Parallel()

	p := newTestProcessor(dedup.New())
	r := crawlResult("http://t.test/", 200, []string{"http://t.test/admin"}, nil, nil)

	first := p.Process(r, model.ModeNormal, model.FuzzNone)
	if !slices.Equal(first, []string{"http://t.test/admin"}) {
		t.Errorf("first Process() = %v", first)
	}

	second := p.Process(r, model.ModeNormal, model.FuzzNone)
	if len(second) != 0 {
		t.Errorf("second Process() = %v, expected empty", second)
	}
}

func TestProcessorMarksResultURLVisited(t *testing.T) {
	t.Parallel()

	state := dedup.New()
	p := newTestProcessor(state)
	r := crawlResult("http://t.test/", 200, []string{"http://t.test/", "http://t.test/a", "http://t.test/a"}, nil, nil)

	got := p.Process(r, model.ModeNormal, model.FuzzNone)
	if !slices.Equal(got, []string{"http://t.test/a"}) {
		t.Errorf("Process() = %v", got)
	}
	if !state.Contains(dedup.Visited, "http://t.test/") {
		t.Error("result URL should be in the visited set")
	}
}

func TestProcessorModeGating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mode         model.Mode
		wantJS       bool
		wantNotified bool
	}{
		{"normal ignores JS and findings", model.ModeNormal, false, false},
		{"deep keeps JS", model.ModeDeep, true, false},
		{"deep-safe keeps JS and notifies", model.ModeDeepSafe, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var notified atomic.Int32
			p := newTestProcessor(dedup.New(), WithNotifier(NotifierFunc(func(r *model.CrawlResult) {
				notified.Add(1)
				if len(r.SensitiveInfo) != 1 {
					t.Errorf("notifier got %d findings", len(r.SensitiveInfo))
				}
			})))
			r := crawlResult("http://t.test/", 200,
				[]string{"http://t.test/a"},
				[]string{"http://t.test/app.js"},
				[]string{`token = "x"`})

			got := p.Process(r, tt.mode, model.FuzzNone)
			if slices.Contains(got, "http://t.test/app.js") != tt.wantJS {
				t.Errorf("Process() = %v, JS expected %v", got, tt.wantJS)
			}
			if (notified.Load() == 1) != tt.wantNotified {
				t.Errorf("notified %d times, expected %v", notified.Load(), tt.wantNotified)
			}
		})
	}
}

func TestProcessorNoNotificationWithoutFindings(t *testing.T) {
	t.Parallel()

	called := false
	p := newTestProcessor(dedup.New(), WithNotifier(NotifierFunc(func(*model.CrawlResult) {
		called = true
	})))
	p.Process(crawlResult("http://t.test/", 200, nil, nil, nil), model.ModeDeepSafe, model.FuzzNone)
	if called {
		t.Error("notifier should not be called without findings")
	}
}

func TestProcessorURLFuzzOnlyOn404(t *testing.T) {
	t.Parallel()

	t.Run("404 generates candidates", func(t *testing.T) {
		t.Parallel()

		p := newTestProcessor(dedup.New())
		got := p.Process(crawlResult("http://t.test/a/b", 404, nil, nil, nil), model.ModeNormal, model.FuzzURL)

		want := []string{"http://t.test/admin", "http://t.test/a/admin"}
		if !slices.Equal(got, want) {
			t.Errorf("Process() = %v, expected %v", got, want)
		}
	})

	t.Run("200 generates nothing", func(t *testing.T) {
		t.Parallel()

		p := newTestProcessor(dedup.New())
		got := p.Process(crawlResult("http://t.test/a/b", 200, nil, nil, nil), model.ModeNormal, model.FuzzURL)
		if len(got) != 0 {
			t.Errorf("Process() = %v, expected empty", got)
		}
	})

	t.Run("fuzz none ignores 404", func(t *testing.T) {
		t.Parallel()

		p := newTestProcessor(dedup.New())
		got := p.Process(crawlResult("http://t.test/a/b", 404, nil, nil, nil), model.ModeNormal, model.FuzzNone)
		if len(got) != 0 {
			t.Errorf("Process() = %v, expected empty", got)
		}
	})

	t.Run("candidates are returned once", func(t *testing.T) {
		t.Parallel()

		p := newTestProcessor(dedup.New())
		p.Process(crawlResult("http://t.test/a/b", 404, nil, nil, nil), model.ModeNormal, model.FuzzURL)
		got := p.Process(crawlResult("http://t.test/a/c", 404, nil, nil, nil), model.ModeNormal, model.FuzzURL)
		if len(got) != 0 {
			t.Errorf("Process() = %v, expected empty", got)
		}
	})
}

func TestProcessorJSFuzzIsUnconditional(t *testing.T) {
	t.Parallel()

	p := newTestProcessor(dedup.New())
	r := crawlResult("http://t.test/", 200, nil, []string{"http://t.test/static/app.js"}, nil)

	got := p.Process(r, model.ModeDeep, model.FuzzJS)
	want := []string{"http://t.test/static/app.js", "http://t.test/main.js", "http://t.test/static/main.js"}
	if !slices.Equal(got, want) {
		t.Errorf("Process() = %v, expected %v", got, want)
	}
}

func TestProcessorNilGenerators(t *testing.T) {
	t.Parallel()

	p := NewProcessor(dedup.New(), nil, nil, WithProcessorLogger(quietLogger()))
	got := p.Process(crawlResult("http://t.test/a/b", 404, []string{"http://t.test/x"}, nil, nil), model.ModeNormal, model.FuzzBoth)
	if !slices.Equal(got, []string{"http://t.test/x"}) {
		t.Errorf("Process() = %v", got)
	}
	if p.Process(nil, model.ModeNormal, model.FuzzBoth) != nil {
		t.Error("Process(nil) should return nil")
	}
}

func TestProcessorConcurrentReturnsEachItemOnce(t *testing.T) {
	t.Parallel()

	p := newTestProcessor(dedup.New())

	var (
		mu    sync.Mutex
		count = make(map[string]int)
		wg    sync.WaitGroup
	)
	for range 50 {
		wg.Go(func() {
			r := crawlResult("http://t.test/x/y", 404,
				[]string{"http://t.test/a", "http://t.test/b"},
				[]string{"http://t.test/app.js"},
				nil)
			got := p.Process(r, model.ModeDeep, model.FuzzBoth)
			mu.Lock()
			for _, u := range got {
				count[u]++
			}
			mu.Unlock()
		})
	}
	wg.Wait()

	if len(count) == 0 {
		t.Fatal("nothing returned")
	}
	for u, n := range count {
		if n != 1 {
			t.Errorf("%s returned %d times", u, n)
		}
	}
	for _, u := range []string{"http://t.test/a", "http://t.test/b", "http://t.test/app.js", "http://t.test/admin", "http://t.test/main.js"} {
		if count[u] != 1 {
			t.Errorf("%s returned %d times, expected 1", u, count[u])
		}
	}
}

func TestProcessorPreload(t *testing.T) {
	t.Parallel()

	prev := model.NewRunReport(model.ModeDeep, model.FuzzJS, []string{"http://t.test/"})
	prev.ID = 7
	prev.Results = append(prev.Results, *crawlResult("http://t.test/", 200,
		[]string{"http://t.test/old"},
		[]string{"http://t.test/app.js"},
		nil))
	prev.Candidates = append(prev.Candidates, "http://t.test/old", "http://t.test/app.js", "http://t.test/main.js")

	p := newTestProcessor(dedup.New())
	p.Preload(prev)

	want := model.UniqueCounts{URLs: 2, JSURLs: 1, FuzzCandidates: 3}
	if got := p.Counts(); got != want {
		t.Errorf("Counts() after Preload = %+v, expected %+v", got, want)
	}

	r := crawlResult("http://t.test/", 200,
		[]string{"http://t.test/old", "http://t.test/new"},
		[]string{"http://t.test/app.js", "http://t.test/lib/vendor.js"},
		nil)
	got := p.Process(r, model.ModeDeep, model.FuzzJS)

	// app.js and main.js were known; only the new script's directory yields
	// a fresh candidate.
	expected := []string{
		"http://t.test/new",
		"http://t.test/lib/vendor.js",
		"http://t.test/lib/main.js",
	}
	if !slices.Equal(got, expected) {
		t.Errorf("Process() = %v, expected %v", got, expected)
	}
}

func TestProcessorPreloadNil(t *testing.T) {
	t.Parallel()

	p := newTestProcessor(dedup.New())
	p.Preload(nil)
	if got := p.Counts(); got != (model.UniqueCounts{}) {
		t.Errorf("Counts() = %+v, expected zero", got)
	}
}
