package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/seaung/urlfinder/internal/model"
	"github.com/seaung/urlfinder/internal/report"
)

// ReportStep writes the report files of a run into an output directory.
//
// Design decision: A run over a single host, or a run with unified output,
// writes result.<ext> straight into the output directory. Otherwise every
// host gets its own subdirectory so that results of unrelated targets are
// not mixed in one file.
type ReportStep struct {
	dir     string
	formats []string
	version string
	unified bool
	logger  *slog.Logger

	mu      sync.Mutex
	written []string
}

// ReportStepOption configures a ReportStep.
type ReportStepOption func(*ReportStep)

// WithUnified writes one set of files for all hosts.
func WithUnified(unified bool) ReportStepOption {
	return func(s *ReportStep) {
		s.unified = unified
	}
}

// WithReportVersion sets the version string embedded in the reports.
func WithReportVersion(version string) ReportStepOption {
	return func(s *ReportStep) {
		s.version = version
	}
}

// WithReportLogger sets a custom logger for the report step.
func WithReportLogger(logger *slog.Logger) ReportStepOption {
	return func(s *ReportStep) {
		s.logger = logger
	}
}

// NewReportStep creates a step writing formats into dir.
func NewReportStep(dir string, formats []string, opts ...ReportStepOption) *ReportStep {
	s := &ReportStep{
		dir:     dir,
		formats: formats,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do writes the report files.
func (s *ReportStep) Do(_ context.Context, run *model.RunReport) error {
	if len(s.formats) == 0 {
		return nil
	}

	parts := run.SplitByHost()
	if s.unified || len(parts) <= 1 {
		return s.write(s.dir, run)
	}

	var errs []error
	for _, part := range parts {
		if err := s.write(filepath.Join(s.dir, hostDir(part.Host)), part.Report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *ReportStep) write(dir string, run *model.RunReport) error {
	paths, err := report.WriteFiles(dir, s.formats, run, s.version)

	s.mu.Lock()
	s.written = append(s.written, paths...)
	s.mu.Unlock()

	for _, p := range paths {
		s.logger.Info("report written", "path", p)
	}
	return err
}

// Written returns the paths of every file written so far.
func (s *ReportStep) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

// hostDir turns a host[:port] into a directory name.
func hostDir(host string) string {
	if host == "" {
		return "unknown"
	}
	return strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(host)
}

// RunStore persists finished runs. *database.CrawlDB satisfies it.
type RunStore interface {
	SaveRun(ctx context.Context, report *model.RunReport) (int64, error)
}

// HistoryStep saves the run into the history store.
type HistoryStep struct {
	store  RunStore
	logger *slog.Logger
}

// NewHistoryStep creates a step saving runs into store.
func NewHistoryStep(store RunStore, logger *slog.Logger) *HistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do saves the run. The store sets run.ID.
func (s *HistoryStep) Do(ctx context.Context, run *model.RunReport) error {
	id, err := s.store.SaveRun(ctx, run)
	if err != nil {
		return err
	}
	s.logger.Debug("run saved", "id", id)
	return nil
}

// SummaryStep prints the human readable summary of a run.
type SummaryStep struct {
	output io.Writer
	opts   []report.SimpleWriterOption
}

// NewSummaryStep creates a step printing to output.
func NewSummaryStep(output io.Writer, opts ...report.SimpleWriterOption) *SummaryStep {
	return &SummaryStep{output: output, opts: opts}
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return "summary"
}

// Do writes the summary.
func (s *SummaryStep) Do(_ context.Context, run *model.RunReport) error {
	_, err := report.NewSimpleWriter(s.output, s.opts...).Write(run)
	return err
}
