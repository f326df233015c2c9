package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

// GenerateRequest carries the rendered prompt. Operation names the analysis
// ("analyze:risks", "ask", "explain") and Subject holds the question or
// clause being asked about.
type GenerateRequest struct {
	Operation string `json:"operation"`
	Prompt    string `json:"prompt"`
	Subject   string `json:"subject,omitempty"`
}

// Usage counts tokens when the backend reports them.
type Usage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

type GenerateResponse struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// LLMProvider is one generative backend. Available is decided when the
// provider is built and does not change afterwards.
type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
	Available() bool
}
