package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/seaung/urlfinder/internal/database"
	"github.com/seaung/urlfinder/internal/model"
	"github.com/seaung/urlfinder/internal/report"
)

func twoHostReport() *model.RunReport {
	r := model.NewRunReport(model.ModeNormal, model.FuzzNone, []string{"http://a.test/", "http://b.test:8080/"})
	r.Results = append(r.Results,
		*crawlResult("http://a.test/", 200, []string{"http://a.test/x"}, nil, nil),
		*crawlResult("http://b.test:8080/", 200, []string{"http://b.test:8080/y"}, nil, nil),
	)
	r.Candidates = append(r.Candidates, "http://a.test/x", "http://b.test:8080/y")
	return r
}

func TestReportStep(t *testing.T) {
	t.Parallel()

	t.Run("single host writes into the output directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		step := NewReportStep(dir, []string{"json", "csv"}, WithReportLogger(quietLogger()))

		r := model.NewRunReport(model.ModeNormal, model.FuzzNone, []string{"http://a.test/"})
		r.Results = append(r.Results, *crawlResult("http://a.test/", 200, nil, nil, nil))

		if err := step.Do(context.Background(), r); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		want := []string{filepath.Join(dir, "result.json"), filepath.Join(dir, "result.csv")}
		if got := step.Written(); !slices.Equal(got, want) {
			t.Errorf("Written() = %v, expected %v", got, want)
		}
		for _, p := range want {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("%s: %v", p, err)
			}
		}
	})

	t.Run("multiple hosts get subdirectories", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		step := NewReportStep(dir, []string{"json"}, WithReportLogger(quietLogger()))

		if err := step.Do(context.Background(), twoHostReport()); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		for _, p := range []string{
			filepath.Join(dir, "a.test", "result.json"),
			filepath.Join(dir, "b.test_8080", "result.json"),
		} {
			data, err := os.ReadFile(p)
			if err != nil {
				t.Fatalf("ReadFile(%s) error = %v", p, err)
			}
			if strings.Contains(string(data), "a.test") && strings.Contains(string(data), "b.test") {
				t.Errorf("%s mixes hosts", p)
			}
		}
	})

	t.Run("unified writes one set of files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		step := NewReportStep(dir, []string{"md"}, WithUnified(true), WithReportVersion("v9"), WithReportLogger(quietLogger()))

		if err := step.Do(context.Background(), twoHostReport()); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "result.md"))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if !strings.Contains(string(data), "a.test") || !strings.Contains(string(data), "b.test") {
			t.Error("unified report should contain both hosts")
		}
		if !strings.Contains(string(data), "v9") {
			t.Error("report should carry the version")
		}
	})

	t.Run("no formats writes nothing", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out")
		step := NewReportStep(dir, nil, WithReportLogger(quietLogger()))
		if err := step.Do(context.Background(), twoHostReport()); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Error("output directory should not be created")
		}
	})

	t.Run("unknown format is reported", func(t *testing.T) {
		t.Parallel()

		step := NewReportStep(t.TempDir(), []string{"json", "pdf"}, WithReportLogger(quietLogger()))
		r := model.NewRunReport(model.ModeNormal, model.FuzzNone, []string{"http://a.test/"})

		err := step.Do(context.Background(), r)
		if !errors.Is(err, report.ErrUnknownFormat) {
			t.Errorf("Do() error = %v, expected ErrUnknownFormat", err)
		}
		if len(step.Written()) != 1 {
			t.Errorf("Written() = %v, expected the json file", step.Written())
		}
	})
}

func TestHostDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want string
	}{
		{"example.com", "example.com"},
		{"example.com:8443", "example.com_8443"},
		{"[::1]:80", "[__1]_80"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()

			if got := hostDir(tt.host); got != tt.want {
				t.Errorf("hostDir(%q) = %q, expected %q", tt.host, got, tt.want)
			}
		})
	}
}

type storeFunc func(ctx context.Context, r *model.RunReport) (int64, error)

func (f storeFunc) SaveRun(ctx context.Context, r *model.RunReport) (int64, error) {
	return f(ctx, r)
}

func TestHistoryStep(t *testing.T) {
	t.Parallel()

	t.Run("saves into the database", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()

		r := twoHostReport()
		if err := NewHistoryStep(db, quietLogger()).Do(context.Background(), r); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if r.ID == 0 {
			t.Fatal("report ID not set")
		}

		got, err := db.GetRun(context.Background(), r.ID)
		if err != nil {
			t.Fatalf("GetRun() error = %v", err)
		}
		if len(got.Results) != 2 {
			t.Errorf("len(Results) = %d, expected 2", len(got.Results))
		}
	})

	t.Run("propagates store errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("disk full")
		step := NewHistoryStep(storeFunc(func(context.Context, *model.RunReport) (int64, error) {
			return 0, boom
		}), nil)

		if err := step.Do(context.Background(), twoHostReport()); !errors.Is(err, boom) {
			t.Errorf("Do() error = %v, expected disk full", err)
		}
	})
}

func TestSummaryStep(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	step := NewSummaryStep(&buf, report.WithVerbose(true))

	if step.Name() != "summary" {
		t.Errorf("Name() = %q", step.Name())
	}
	if err := step.Do(context.Background(), twoHostReport()); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"URLFINDER REPORT", "[200] http://a.test/", "[+] http://b.test:8080/y"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
