package providers

import (
	"net/http"
	"strings"

	"github.com/Jerold2105/websentry-ai/llm"
)

// OpenAIProvider implements the OpenAI API for direct OpenAI or OpenRouter usage.
// This is separate from OllamaProvider to allow different default URLs and auth.
type OpenAIProvider struct {
	OllamaProvider // Embed for shared request/response format
}

func init() {
	llm.RegisterProvider(&OpenAIProvider{})
}

// Name returns the provider identifier.
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// BuildURL constructs the OpenAI API endpoint.
func (o *OpenAIProvider) BuildURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}

	return baseURL + "/chat/completions"
}

// SetHeaders adds OpenAI authentication headers.
func (o *OpenAIProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}
