// Package scanner runs the scan pipeline: fetch, rule evaluation,
// summarization, report assembly.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Jerold2105/websentry-ai/config"
	"github.com/Jerold2105/websentry-ai/fetch"
	"github.com/Jerold2105/websentry-ai/report"
	"github.com/Jerold2105/websentry-ai/rules"
	"github.com/Jerold2105/websentry-ai/summary"
)

// pageFetcher is the slice of fetch.Fetcher the scanner uses.
type pageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// summarizer is the slice of summary.Summarizer the scanner uses.
type summarizer interface {
	Summarize(ctx context.Context, in summary.Input) (string, bool)
}

// Scanner runs complete scans. It is safe for concurrent use: every scan
// builds its own header map, findings, and report, and only the read-only
// configuration and clients are shared.
type Scanner struct {
	cfg        *config.Config
	fetcher    pageFetcher
	summarizer summarizer
	logger     *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithFetcher substitutes the page fetcher, for tests.
func WithFetcher(f pageFetcher) Option {
	return func(s *Scanner) {
		s.fetcher = f
	}
}

// WithSummarizer substitutes the summarizer, for tests.
func WithSummarizer(sm summarizer) Option {
	return func(s *Scanner) {
		s.summarizer = sm
	}
}

// New creates a Scanner from the configuration.
func New(cfg *config.Config, opts ...Option) *Scanner {
	s := &Scanner{
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.fetcher == nil {
		s.fetcher = fetch.NewFetcher(cfg.Scanner.Timeout, cfg.Scanner.UserAgent, cfg.Scanner.MaxContentSize)
	}
	if s.summarizer == nil {
		s.summarizer = summary.New(cfg.LLM, summary.WithLogger(s.logger))
	}

	return s
}

// Scan reviews one page and returns its report. The fetch stage is the
// only one that can fail; everything after it degrades rather than
// erroring, so a non-nil report always carries a non-empty executive
// summary.
func (s *Scanner) Scan(ctx context.Context, url string) (*report.Report, error) {
	scanID := uuid.New().String()
	started := time.Now()

	s.logger.Info("Starting scan", "scan_id", scanID, "url", url)

	result, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.logger.Warn("Scan aborted at fetch stage", "scan_id", scanID, "url", url, "error", err)
		return nil, fmt.Errorf("scan %s: %w", url, err)
	}

	findings := rules.Evaluate(result.Headers)

	execSummary, enhanced := s.summarizer.Summarize(ctx, summary.Input{
		URL:      url,
		Title:    result.Title,
		Findings: findings,
	})

	r := report.Assemble(url, result.Title, result.Headers, findings, execSummary, report.Options{
		ScanID:            scanID,
		HeaderSampleLimit: s.cfg.Scanner.HeaderSampleLimit,
		AIAssisted:        s.cfg.LLM.Active(),
	})

	s.logger.Info("Scan complete",
		"scan_id", scanID,
		"url", url,
		"title", result.Title,
		"findings", len(findings),
		"enhanced_summary", enhanced,
		"duration", time.Since(started))

	return r, nil
}
