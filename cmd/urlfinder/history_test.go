package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/seaung/urlfinder/internal/database"
	"github.com/seaung/urlfinder/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history" {
			t.Errorf("expected use 'history', got %q", cmd.Use)
		}
	})

	for _, name := range []string{"limit", "show", "diff", "from", "to", "delete", "json", "markdown", "db-dir"} {
		t.Run("has "+name+" flag", func(t *testing.T) {
			t.Parallel()
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		})
	}
}

func storedRun(startedAt time.Time, urls, js, sensitive []string, fingerprint string) *model.RunReport {
	r := model.NewRunReport(model.ModeDeepSafe, model.FuzzNone, []string{"http://example.com/"})
	r.StartedAt = startedAt
	r.FinishedAt = startedAt.Add(time.Second)
	r.Results = append(r.Results, model.CrawlResult{
		FetchResult: model.FetchResult{
			URL:         "http://example.com/",
			Status:      200,
			Fingerprint: fingerprint,
			FetchedAt:   startedAt,
		},
		URLs:          urls,
		JSURLs:        js,
		SensitiveInfo: sensitive,
		Seed:          "http://example.com/",
	})
	return r
}

// setupHistoryDB returns a database holding two runs; the second one found
// a new URL, a new script and a token, lost /old and changed the page.
func setupHistoryDB(t *testing.T) (*database.CrawlDB, int64, int64) {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := db.SaveRun(ctx, storedRun(base,
		[]string{"http://example.com/old", "http://example.com/keep"},
		[]string{"http://example.com/app.js"},
		nil, "aaaa"))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	second, err := db.SaveRun(ctx, storedRun(base.Add(time.Hour),
		[]string{"http://example.com/keep", "http://example.com/new"},
		[]string{"http://example.com/app.js", "http://example.com/main.js"},
		[]string{`token = "t0k"`}, "bbbb"))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	return db, first, second
}

func TestRunHistoryList(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		db, first, second := setupHistoryDB(t)
		var buf bytes.Buffer
		if err := runHistory(context.Background(), &buf, db, historyOptions{limit: defaultHistoryLimit}); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "Run history (2 runs)") {
			t.Errorf("unexpected header:\n%s", out)
		}
		if strings.Index(out, "  "+itoa(second)+" ") > strings.Index(out, "  "+itoa(first)+" ") {
			t.Errorf("newest run should be listed first:\n%s", out)
		}
		if !strings.Contains(out, "sensitive:1") || !strings.Contains(out, "deep-safe") {
			t.Errorf("summary missing:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		db, _, second := setupHistoryDB(t)
		var buf bytes.Buffer
		if err := runHistory(context.Background(), &buf, db, historyOptions{limit: 1, json: true}); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}

		var runs []database.RunMetadata
		if err := json.Unmarshal(buf.Bytes(), &runs); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(runs) != 1 || runs[0].ID != second {
			t.Errorf("runs = %+v, expected only run %d", runs, second)
		}
	})

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()

		var buf bytes.Buffer
		if err := runHistory(context.Background(), &buf, db, historyOptions{}); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}
		if !strings.Contains(buf.String(), "No runs found") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})
}

func TestRunHistoryShow(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		db, first, _ := setupHistoryDB(t)
		var buf bytes.Buffer
		if err := runHistory(context.Background(), &buf, db, historyOptions{show: first, noColor: true, verbose: true}); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}
		if !strings.Contains(buf.String(), "URLFINDER REPORT") || !strings.Contains(buf.String(), "http://example.com/old") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		db, _, second := setupHistoryDB(t)
		var buf bytes.Buffer
		if err := runHistory(context.Background(), &buf, db, historyOptions{show: second, json: true}); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}

		var run model.RunReport
		if err := json.Unmarshal(buf.Bytes(), &run); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if run.ID != second || len(run.Results) != 1 {
			t.Errorf("run = %+v", run)
		}
	})

	t.Run("missing run", func(t *testing.T) {
		t.Parallel()

		db, _, _ := setupHistoryDB(t)
		err := runHistory(context.Background(), &bytes.Buffer{}, db, historyOptions{show: 99})
		if !errors.Is(err, database.ErrRunNotFound) {
			t.Errorf("error = %v, expected ErrRunNotFound", err)
		}
	})
}

func TestRunHistoryDiff(t *testing.T) {
	t.Parallel()

	t.Run("latest two as text", func(t *testing.T) {
		t.Parallel()

		db, first, second := setupHistoryDB(t)
		var buf bytes.Buffer
		if err := runHistory(context.Background(), &buf, db, historyOptions{diff: true}); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"Run Comparison: " + itoa(first) + " -> " + itoa(second),
			"[+] http://example.com/new",
			"[+] http://example.com/main.js",
			`[!] token = "t0k"`,
			"[~] http://example.com/",
			"[-] http://example.com/old",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "http://example.com/keep") {
			t.Errorf("unchanged URL should not be listed:\n%s", out)
		}
	})

	t.Run("explicit ids as json", func(t *testing.T) {
		t.Parallel()

		db, first, second := setupHistoryDB(t)
		var buf bytes.Buffer
		opts := historyOptions{diff: true, from: second, to: first, json: true}
		if err := runHistory(context.Background(), &buf, db, opts); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}

		var got struct {
			OldID    int64       `json:"old_id"`
			NewID    int64       `json:"new_id"`
			NewURLs  []string    `json:"new_urls"`
			GoneURLs []string    `json:"gone_urls"`
			OldStats model.Stats `json:"old_stats"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if got.OldID != second || got.NewID != first {
			t.Errorf("ids = %d -> %d", got.OldID, got.NewID)
		}
		if !slices.Equal(got.NewURLs, []string{"http://example.com/old"}) {
			t.Errorf("NewURLs = %v", got.NewURLs)
		}
		if !slices.Equal(got.GoneURLs, []string{"http://example.com/new"}) {
			t.Errorf("GoneURLs = %v", got.GoneURLs)
		}
		if got.OldStats.SensitiveInfo != 1 {
			t.Errorf("OldStats = %+v", got.OldStats)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		db, _, _ := setupHistoryDB(t)
		var buf bytes.Buffer
		if err := runHistory(context.Background(), &buf, db, historyOptions{diff: true, markdown: true}); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}

		out := buf.String()
		for _, want := range []string{"# Run Comparison", "## New URLs (1)", "`http://example.com/new`", "Sensitive"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("identical runs", func(t *testing.T) {
		t.Parallel()

		db, first, _ := setupHistoryDB(t)
		var buf bytes.Buffer
		if err := runHistory(context.Background(), &buf, db, historyOptions{diff: true, from: first, to: first}); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}
		if !strings.Contains(buf.String(), "No differences") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("needs two runs", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()

		if _, err := db.SaveRun(context.Background(), storedRun(time.Now(), nil, nil, nil, "")); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}

		err = runHistory(context.Background(), &bytes.Buffer{}, db, historyOptions{diff: true})
		if err == nil || !strings.Contains(err.Error(), "at least 2 runs") {
			t.Errorf("error = %v, expected 'at least 2 runs'", err)
		}
	})
}

func TestResolveDiffIDs(t *testing.T) {
	t.Parallel()

	db, first, second := setupHistoryDB(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		from, to int64
		wantOld  int64
		wantNew  int64
		wantErr  bool
	}{
		{"latest two", 0, 0, first, second, false},
		{"from only compares with latest", first, 0, first, second, false},
		{"both given", second, first, second, first, false},
		{"to only", 0, first, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotOld, gotNew, err := resolveDiffIDs(ctx, db, tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveDiffIDs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if gotOld != tt.wantOld || gotNew != tt.wantNew {
				t.Errorf("resolveDiffIDs() = %d, %d, expected %d, %d", gotOld, gotNew, tt.wantOld, tt.wantNew)
			}
		})
	}
}

func TestRunHistoryDelete(t *testing.T) {
	t.Parallel()

	db, first, second := setupHistoryDB(t)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := runHistory(ctx, &buf, db, historyOptions{del: first}); err != nil {
		t.Fatalf("runHistory() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Deleted run "+itoa(first)) {
		t.Errorf("unexpected output: %s", buf.String())
	}

	ids, err := db.LatestRunIDs(ctx, 10)
	if err != nil {
		t.Fatalf("LatestRunIDs() error = %v", err)
	}
	if !slices.Equal(ids, []int64{second}) {
		t.Errorf("remaining runs = %v, expected [%d]", ids, second)
	}

	err = runHistory(ctx, &bytes.Buffer{}, db, historyOptions{del: first})
	if !errors.Is(err, database.ErrRunNotFound) {
		t.Errorf("second delete error = %v, expected ErrRunNotFound", err)
	}
}

func TestRunHistoryCmdFlagValidation(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--from", "1", "--db-dir", t.TempDir()})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "require --diff") {
		t.Errorf("error = %v, expected '--from and --to require --diff'", err)
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta int
		want  string
	}{
		{3, "+3"},
		{-2, "-2"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := formatDelta(tt.delta); got != tt.want {
			t.Errorf("formatDelta(%d) = %q, expected %q", tt.delta, got, tt.want)
		}
	}
}

func TestFormatSeeds(t *testing.T) {
	t.Parallel()

	if got := formatSeeds([]string{"a", "b"}); got != "a, b" {
		t.Errorf("formatSeeds() = %q", got)
	}
	if got := formatSeeds([]string{"a", "b", "c", "d", "e"}); got != "a, b, c (+2 more)" {
		t.Errorf("formatSeeds() = %q", got)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
