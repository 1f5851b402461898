package model

import (
	"slices"
	"testing"
)

func TestSplitByHost(t *testing.T) {
	t.Parallel()

	r := NewRunReport(ModeDeep, FuzzURL, []string{
		"http://b.test/", "http://a.test:8080/", "http://a.test:8080/login",
	})
	r.Results = append(r.Results,
		CrawlResult{FetchResult: FetchResult{URL: "http://a.test:8080/", Status: 200}},
		CrawlResult{FetchResult: FetchResult{URL: "http://b.test/", Status: 200}},
	)
	r.Candidates = append(r.Candidates, "http://b.test/admin", "http://a.test:8080/x.js")
	r.Errors = append(r.Errors, SeedError{URL: "http://a.test:8080/login", Message: "timeout"})
	r.Skipped = 4

	parts := r.SplitByHost()
	if len(parts) != 2 {
		t.Fatalf("len(parts) = %d, expected 2", len(parts))
	}

	a, b := parts[0], parts[1]
	if a.Host != "a.test:8080" || b.Host != "b.test" {
		t.Fatalf("hosts = %q, %q", a.Host, b.Host)
	}

	if !slices.Equal(a.Report.Seeds, []string{"http://a.test:8080/", "http://a.test:8080/login"}) {
		t.Errorf("a seeds = %v", a.Report.Seeds)
	}
	if len(a.Report.Results) != 1 || len(a.Report.Errors) != 1 {
		t.Errorf("a results=%d errors=%d", len(a.Report.Results), len(a.Report.Errors))
	}
	if !slices.Equal(b.Report.Candidates, []string{"http://b.test/admin"}) {
		t.Errorf("b candidates = %v", b.Report.Candidates)
	}
	if a.Report.Skipped != 4 || b.Report.Skipped != 0 {
		t.Errorf("skipped = %d, %d", a.Report.Skipped, b.Report.Skipped)
	}
	if a.Report.Mode != ModeDeep || b.Report.FuzzMode != FuzzURL {
		t.Error("run metadata not copied")
	}
}

func TestSplitByHostEmpty(t *testing.T) {
	t.Parallel()

	r := NewRunReport(ModeNormal, FuzzNone, nil)
	if parts := r.SplitByHost(); len(parts) != 0 {
		t.Errorf("len(parts) = %d, expected 0", len(parts))
	}
}
