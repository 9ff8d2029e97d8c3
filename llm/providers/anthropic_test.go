package providers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Jerold2105/websentry-ai/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicProvider_BuildURL(t *testing.T) {
	p := &AnthropicProvider{}

	assert.Equal(t, "https://api.anthropic.com/v1/messages", p.BuildURL(""))
	assert.Equal(t, "https://proxy.internal/v1/messages", p.BuildURL("https://proxy.internal/"))
}

func TestAnthropicProvider_SetHeaders(t *testing.T) {
	p := &AnthropicProvider{}

	req, _ := http.NewRequest("POST", "https://api.anthropic.com/v1/messages", nil)
	p.SetHeaders(req, "sk-test")

	assert.Equal(t, "sk-test", req.Header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, req.Header.Get("anthropic-version"))
}

func TestAnthropicProvider_BuildRequestBody_SystemExtraction(t *testing.T) {
	p := &AnthropicProvider{}

	body, err := p.BuildRequestBody("claude-test", []llm.Message{
		{Role: "system", Content: "You are a reviewer."},
		{Role: "user", Content: "Summarize."},
	}, nil, 140)

	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "You are a reviewer.", req["system"])
	assert.Equal(t, float64(140), req["max_tokens"])
	assert.Len(t, req["messages"], 1)
}

func TestAnthropicProvider_ParseResponse(t *testing.T) {
	p := &AnthropicProvider{}

	body := []byte(`{
		"content": [{"type": "text", "text": "Part one. "}, {"type": "text", "text": "Part two."}],
		"model": "claude-test",
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 12, "output_tokens": 7}
	}`)

	resp, err := p.ParseResponse(body, "claude-test")

	require.NoError(t, err)
	assert.Equal(t, "Part one. Part two.", resp.Content)
	assert.Equal(t, 19, resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.FinishReason)
}
