// Package report assembles the immutable scan report and serializes it to
// JSON and HTML.
package report

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/Jerold2105/websentry-ai/rules"
)

// Tool identity stamped into every report.
const (
	ToolName    = "WebSentry AI"
	ToolVersion = "0.1.0"
)

// Mode strings record the configured summary capability, not whether a
// given LLM call succeeded.
const (
	ModeAIAssisted = "AI-assisted (LLM enabled)"
	ModeRuleBased  = "Rule-based (LLM disabled)"
)

// scanScope describes what a scan covers.
const scanScope = "Unauthenticated, read-only checks"

// Breakdown counts findings per severity. It is recomputed from the
// findings at assembly time and never cached independently.
type Breakdown struct {
	High   int `json:"High"`
	Medium int `json:"Medium"`
	Low    int `json:"Low"`
}

// Meta carries report metadata.
type Meta struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	ScanID    string `json:"scan_id"`
	ScannedAt string `json:"scanned_at"`
	Mode      string `json:"mode"`
	Scope     string `json:"scope"`
}

// Summary aggregates the findings for the report.
type Summary struct {
	TotalFindings     int       `json:"total_findings"`
	SeverityBreakdown Breakdown `json:"severity_breakdown"`
}

// HeaderEntry is one header in the bounded, key-sorted sample.
type HeaderEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Report is the complete result of one scan. It is created once per scan
// and never mutated afterward; both serializations read the same value.
type Report struct {
	URL              string          `json:"url"`
	Title            string          `json:"title"`
	ExecutiveSummary string          `json:"executive_summary"`
	HeadersSample    []HeaderEntry   `json:"headers_sample"`
	Findings         []rules.Finding `json:"findings"`
	Meta             Meta            `json:"meta"`
	Summary          Summary         `json:"summary"`
}

// Options carries the assembly knobs that come from configuration.
type Options struct {
	// ScanID uniquely identifies the scan; also used for artifact naming.
	ScanID string
	// HeaderSampleLimit bounds the headers_sample section.
	HeaderSampleLimit int
	// AIAssisted records whether the LLM summary path was configured.
	AIAssisted bool
	// ScannedAt is the scan time; zero means now.
	ScannedAt time.Time
}

// Assemble composes the report from the pipeline outputs. Pure
// composition: no I/O and no failure modes of its own. It is never called
// when the fetch stage failed.
func Assemble(url, title string, headers rules.HeaderMap, findings []rules.Finding, execSummary string, opts Options) *Report {
	scannedAt := opts.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now()
	}

	mode := ModeRuleBased
	if opts.AIAssisted {
		mode = ModeAIAssisted
	}

	if findings == nil {
		findings = []rules.Finding{}
	}

	return &Report{
		URL:              url,
		Title:            title,
		ExecutiveSummary: execSummary,
		HeadersSample:    sampleHeaders(headers, opts.HeaderSampleLimit),
		Findings:         findings,
		Meta: Meta{
			Tool:      ToolName,
			Version:   ToolVersion,
			ScanID:    opts.ScanID,
			ScannedAt: scannedAt.UTC().Format(time.RFC3339),
			Mode:      mode,
			Scope:     scanScope,
		},
		Summary: Summary{
			TotalFindings:     len(findings),
			SeverityBreakdown: countSeverities(findings),
		},
	}
}

// sampleHeaders returns at most limit headers, sorted by key, so the
// report stays a predictable size no matter how many headers the target
// returns.
func sampleHeaders(headers rules.HeaderMap, limit int) []HeaderEntry {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	sample := make([]HeaderEntry, len(keys))
	for i, k := range keys {
		sample[i] = HeaderEntry{Name: k, Value: headers[k]}
	}
	return sample
}

// countSeverities computes the exact per-severity counts.
func countSeverities(findings []rules.Finding) Breakdown {
	var b Breakdown
	for _, f := range findings {
		switch f.Severity {
		case rules.SeverityHigh:
			b.High++
		case rules.SeverityMedium:
			b.Medium++
		case rules.SeverityLow:
			b.Low++
		}
	}
	return b
}

// WriteJSON writes the indented JSON serialization of the report.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
