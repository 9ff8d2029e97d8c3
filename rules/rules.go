// Package rules implements the baseline security checks WebSentry runs
// against a page's response headers.
package rules

import (
	"fmt"
	"net/http"
	"strings"
)

// Severity classifies how urgent a finding is.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// HeaderMap holds response headers keyed by lower-cased header name.
// Normalization happens once at the fetch boundary; everything downstream
// assumes canonical lower-case keys.
type HeaderMap map[string]string

// NormalizeHeaders converts an http.Header into a HeaderMap. For headers
// that appear multiple times the first value wins, matching what a browser
// surfaces for the singleton headers the rules care about.
func NormalizeHeaders(h http.Header) HeaderMap {
	m := make(HeaderMap, len(h))
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := m[key]; !ok {
			m[key] = values[0]
		}
	}
	return m
}

// Finding is one issue surfaced by a rule. Findings are immutable once
// created and keep the order the rules produced them in.
type Finding struct {
	Title      string   `json:"title"`
	Severity   Severity `json:"severity"`
	Evidence   string   `json:"evidence"`
	Mitigation string   `json:"mitigation"`
}

// rule checks one condition against the header map and returns a finding
// when it triggers. Rules are independent and never short-circuit.
type rule func(headers HeaderMap) (Finding, bool)

// ruleSet is the fixed evaluation order. Extend by appending; existing
// rules and their output text are stable.
var ruleSet = []rule{
	checkContentSecurityPolicy,
	checkFrameOptions,
	checkServerDisclosure,
}

// Evaluate runs every rule against the headers and returns the findings in
// rule order. It is a pure function: identical input yields identical
// output. No triggering condition yields an empty slice.
func Evaluate(headers HeaderMap) []Finding {
	findings := make([]Finding, 0, len(ruleSet))
	for _, r := range ruleSet {
		if f, ok := r(headers); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

func checkContentSecurityPolicy(headers HeaderMap) (Finding, bool) {
	if _, ok := headers["content-security-policy"]; ok {
		return Finding{}, false
	}
	return Finding{
		Title:      "Missing Content-Security-Policy header",
		Severity:   SeverityMedium,
		Evidence:   "No Content-Security-Policy header present in response",
		Mitigation: "Add a strict Content-Security-Policy header to reduce XSS risk",
	}, true
}

func checkFrameOptions(headers HeaderMap) (Finding, bool) {
	if _, ok := headers["x-frame-options"]; ok {
		return Finding{}, false
	}
	return Finding{
		Title:      "Missing X-Frame-Options header",
		Severity:   SeverityLow,
		Evidence:   "No X-Frame-Options header present in response",
		Mitigation: "Add X-Frame-Options or frame-ancestors to prevent clickjacking",
	}, true
}

func checkServerDisclosure(headers HeaderMap) (Finding, bool) {
	value, ok := headers["server"]
	if !ok {
		return Finding{}, false
	}
	return Finding{
		Title:      "Server version disclosure",
		Severity:   SeverityLow,
		Evidence:   fmt.Sprintf("Server header present: %s", value),
		Mitigation: "Disable or obfuscate server version headers",
	}, true
}
