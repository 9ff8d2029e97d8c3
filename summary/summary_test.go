package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Jerold2105/websentry-ai/config"
	"github.com/Jerold2105/websentry-ai/llm"
	_ "github.com/Jerold2105/websentry-ai/llm/providers" // Register providers
	"github.com/Jerold2105/websentry-ai/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoFindings() []rules.Finding {
	return []rules.Finding{
		{Title: "Missing Content-Security-Policy header", Severity: rules.SeverityMedium},
		{Title: "Missing X-Frame-Options header", Severity: rules.SeverityLow},
	}
}

func llmConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{
		Enabled:     true,
		Provider:    "openai",
		Endpoint:    endpoint,
		Model:       "test-model",
		APIKey:      "test-key",
		MaxTokens:   140,
		Temperature: 0.3,
		Timeout:     2 * time.Second,
	}
}

func TestRuleBased_NoFindings(t *testing.T) {
	text := RuleBased("https://example.com", "Example", nil)

	assert.NotEmpty(t, text)
	assert.Contains(t, text, "did not identify")
	assert.Contains(t, text, "https://example.com")
}

func TestRuleBased_PostureFromHighestSeverity(t *testing.T) {
	tests := []struct {
		name     string
		findings []rules.Finding
		posture  string
	}{
		{
			name:     "high present",
			findings: []rules.Finding{{Severity: rules.SeverityHigh}, {Severity: rules.SeverityLow}},
			posture:  "elevated risk",
		},
		{
			name:     "medium highest",
			findings: twoFindings(),
			posture:  "moderate risk",
		},
		{
			name:     "low only",
			findings: []rules.Finding{{Severity: rules.SeverityLow}},
			posture:  "low-to-moderate risk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := RuleBased("https://example.com", "Example", tt.findings)
			assert.Contains(t, text, tt.posture)
		})
	}
}

func TestRuleBased_CountsSpelledOut(t *testing.T) {
	text := RuleBased("https://example.com", "Example", twoFindings())

	assert.Contains(t, text, "2 issue(s)")
	assert.Contains(t, text, "0 High, 1 Medium, and 1 Low")
	assert.Contains(t, text, "moderate risk")
}

func TestSummarize_DisabledReturnsFallback(t *testing.T) {
	s := New(config.LLMConfig{Enabled: false})

	text, enhanced := s.Summarize(context.Background(), Input{
		URL: "https://example.com", Title: "Example", Findings: twoFindings(),
	})

	assert.False(t, enhanced)
	assert.Equal(t, RuleBased("https://example.com", "Example", twoFindings()), text)
}

func TestSummarize_EnabledWithoutKeyReturnsFallback(t *testing.T) {
	// Opt-in flag alone is not enough: a credential is also required.
	s := New(config.LLMConfig{Enabled: true, APIKey: ""})

	text, enhanced := s.Summarize(context.Background(), Input{URL: "u", Title: "t"})

	assert.False(t, enhanced)
	assert.NotEmpty(t, text)
}

func TestSummarize_SuccessReturnsLLMText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])
		assert.Equal(t, float64(140), req["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Executive prose from the model."}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	s := New(llmConfig(server.URL))

	text, enhanced := s.Summarize(context.Background(), Input{
		URL: "https://example.com", Title: "Example", Findings: twoFindings(),
	})

	assert.True(t, enhanced)
	assert.Equal(t, "Executive prose from the model.", text)
}

func TestSummarize_NeverFailsNeverEmpty(t *testing.T) {
	input := Input{URL: "https://example.com", Title: "Example", Findings: twoFindings()}
	fallback := RuleBased(input.URL, input.Title, input.Findings)

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "capability timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(500 * time.Millisecond)
			},
		},
		{
			name: "auth failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "malformed response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("this is not json"))
			},
		},
		{
			name: "empty completion text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"model": "test-model",
					"choices": []map[string]any{
						{"message": map[string]string{"role": "assistant", "content": "   "}, "finish_reason": "stop"},
					},
				})
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			cfg := llmConfig(server.URL)
			cfg.Timeout = 100 * time.Millisecond
			s := New(cfg)

			text, enhanced := s.Summarize(context.Background(), input)

			assert.False(t, enhanced)
			assert.Equal(t, fallback, text)
		})
	}
}

func TestSummarize_ExactlyOneCallPerScan(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := New(llmConfig(server.URL))

	text, enhanced := s.Summarize(context.Background(), Input{URL: "u", Title: "t", Findings: twoFindings()})

	assert.False(t, enhanced)
	assert.NotEmpty(t, text)
	// Transient failures are not retried on the summary path.
	assert.Equal(t, 1, calls)
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(Input{
		URL:      "https://example.com",
		Title:    "Example",
		Findings: twoFindings(),
	})

	assert.Contains(t, prompt, "Target URL: https://example.com")
	assert.Contains(t, prompt, "High=0, Medium=1, Low=1")
	assert.Contains(t, prompt, "Missing Content-Security-Policy header")
	assert.Contains(t, prompt, "One paragraph only")
}

func TestBuildPrompt_TitleCap(t *testing.T) {
	var findings []rules.Finding
	for i := 0; i < 12; i++ {
		findings = append(findings, rules.Finding{
			Title:    "Issue " + string(rune('A'+i)),
			Severity: rules.SeverityLow,
		})
	}

	prompt := buildPrompt(Input{URL: "u", Title: "t", Findings: findings})

	assert.Contains(t, prompt, "Issue H")
	assert.NotContains(t, prompt, "Issue I")
}

type stubCompleter struct {
	resp *llm.Response
	err  error
}

func (s *stubCompleter) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	return s.resp, s.err
}

func TestSummarize_StubCompleterTrimsText(t *testing.T) {
	s := New(
		config.LLMConfig{Enabled: true, APIKey: "k", Provider: "openai", Model: "m"},
		WithCompleter(&stubCompleter{resp: &llm.Response{Content: "\n  Tight paragraph.  \n"}}),
	)

	text, enhanced := s.Summarize(context.Background(), Input{URL: "u", Title: "t"})

	assert.True(t, enhanced)
	assert.Equal(t, "Tight paragraph.", text)
	assert.False(t, strings.HasSuffix(text, "\n"))
}
