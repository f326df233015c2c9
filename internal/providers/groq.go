package providers

import (
	"net/http"
	"strings"
	"time"
)

// NewGroqProvider supports generation via Groq's OpenAI-compatible API.
func NewGroqProvider(keyName, model string) LLMProvider {
	if strings.TrimSpace(model) == "" {
		model = "llama-3.1-8b-instant"
	}
	return &chatProvider{
		name:    "groq",
		keyName: keyName,
		apiKey:  resolveKey("UNVEIL_GROQ_KEY_", keyName, "GROQ_API_KEY"),
		model:   model,
		baseURL: "https://api.groq.com/openai/v1",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}
