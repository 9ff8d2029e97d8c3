// Package summary produces the executive summary for a scan. The summary
// is always a single non-empty paragraph: an LLM writes it when the
// AI-assisted path is configured and succeeds, and a deterministic
// rule-based paragraph covers every other case.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jerold2105/websentry-ai/config"
	"github.com/Jerold2105/websentry-ai/llm"
	"github.com/Jerold2105/websentry-ai/rules"
)

// maxPromptTitles caps how many finding titles go into the LLM prompt.
const maxPromptTitles = 8

// Input carries everything the summarizer needs for one scan.
type Input struct {
	URL      string
	Title    string
	Findings []rules.Finding
}

// completer is the slice of the LLM client the summarizer uses.
// Satisfied by *llm.Client; tests substitute their own.
type completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Summarizer generates executive summaries. The configuration is captured
// at construction and never read from ambient process state.
type Summarizer struct {
	cfg    config.LLMConfig
	client completer
	logger *slog.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Summarizer) {
		s.logger = logger
	}
}

// WithCompleter substitutes the LLM client, for tests.
func WithCompleter(c completer) Option {
	return func(s *Summarizer) {
		s.client = c
	}
}

// New creates a Summarizer for the given LLM configuration. When the
// AI-assisted path is active, the underlying client attempts exactly one
// call per scan; its failure always degrades to the rule-based summary.
func New(cfg config.LLMConfig, opts ...Option) *Summarizer {
	s := &Summarizer{
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil && cfg.Active() {
		s.client = llm.NewClient(
			llm.Endpoint{
				Provider: cfg.Provider,
				URL:      cfg.Endpoint,
				Model:    cfg.Model,
				APIKey:   cfg.APIKey,
			},
			llm.WithRetryConfig(llm.SingleAttempt()),
			llm.WithTimeout(cfg.Timeout),
			llm.WithLogger(s.logger),
		)
	}

	return s
}

// Summarize returns the executive summary for the scan and whether the
// AI-assisted path produced it. It never fails and never returns an empty
// string: the rule-based summary is computed first and stands in whenever
// the LLM path is disabled, unreachable, or returns nothing usable.
func (s *Summarizer) Summarize(ctx context.Context, in Input) (string, bool) {
	fallback := RuleBased(in.URL, in.Title, in.Findings)

	if !s.cfg.Active() || s.client == nil {
		return fallback, false
	}

	resp, err := s.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: "You write concise executive security summaries."},
			{Role: "user", Content: buildPrompt(in)},
		},
		Temperature: &s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		// The cause stays in the logs; callers only ever see the fallback.
		s.logger.Warn("LLM summary failed, using rule-based summary",
			"url", in.URL,
			"provider", s.cfg.Provider,
			"error", err)
		return fallback, false
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		s.logger.Warn("LLM summary empty, using rule-based summary",
			"url", in.URL,
			"provider", s.cfg.Provider)
		return fallback, false
	}

	return text, true
}

// RuleBased computes the deterministic executive summary. Posture is keyed
// on the highest severity present among the findings.
func RuleBased(url, title string, findings []rules.Finding) string {
	if len(findings) == 0 {
		return fmt.Sprintf(
			"A lightweight security review of %s (%s) did not identify "+
				"obvious baseline security misconfigurations during limited automated checks. "+
				"This does not guarantee the application is secure, and deeper authenticated "+
				"testing may still be required.",
			url, title)
	}

	var high, med, low int
	for _, f := range findings {
		switch f.Severity {
		case rules.SeverityHigh:
			high++
		case rules.SeverityMedium:
			med++
		case rules.SeverityLow:
			low++
		}
	}

	var posture, priority string
	switch {
	case high > 0:
		posture = "elevated risk"
		priority = "address High severity issues immediately, followed by Medium and Low findings"
	case med > 0:
		posture = "moderate risk"
		priority = "remediate Medium severity issues first, then address Low severity hardening gaps"
	default:
		posture = "low-to-moderate risk"
		priority = "resolve Low severity configuration and hardening issues"
	}

	return fmt.Sprintf(
		"A lightweight security review of %s (%s) identified %d issue(s): "+
			"%d High, %d Medium, and %d Low. Overall, the application presents a %s "+
			"security posture driven primarily by configuration and security header gaps. "+
			"It is recommended to %s and re-test to validate remediation.",
		url, title, len(findings), high, med, low, posture, priority)
}

// buildPrompt renders the one-paragraph executive prompt.
func buildPrompt(in Input) string {
	var high, med, low int
	titles := make([]string, 0, maxPromptTitles)
	for _, f := range in.Findings {
		switch f.Severity {
		case rules.SeverityHigh:
			high++
		case rules.SeverityMedium:
			med++
		case rules.SeverityLow:
			low++
		}
		if f.Title != "" && len(titles) < maxPromptTitles {
			titles = append(titles, f.Title)
		}
	}

	keyIssues := "No issues detected"
	if len(titles) > 0 {
		keyIssues = strings.Join(titles, ", ")
	}

	return strings.TrimSpace(fmt.Sprintf(`
Write ONE concise executive summary paragraph for a web application security review.

Target URL: %s
Page title: %s

Findings count:
High=%d, Medium=%d, Low=%d

Key issues:
%s

Requirements:
- One paragraph only
- Non-technical, executive-friendly language
- State overall risk level
- Clearly state what should be prioritized first
- No bullet points
`, in.URL, in.Title, high, med, low, keyIssues))
}
