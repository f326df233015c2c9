package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const legalSystemPrompt = "You are an expert legal analyst. Answer only with the JSON structure the user asks for."

// chatProvider speaks the OpenAI chat completions protocol. Groq exposes the
// same API under a different base URL.
type chatProvider struct {
	name    string
	keyName string
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIProvider(keyName, model string) LLMProvider {
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &chatProvider{
		name:    "openai",
		keyName: keyName,
		apiKey:  resolveKey("UNVEIL_OPENAI_KEY_", keyName, "OPENAI_API_KEY"),
		model:   model,
		baseURL: "https://api.openai.com/v1",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *chatProvider) info() ProviderInfo {
	return ProviderInfo{Name: c.name, Model: c.model, Key: c.keyName}
}

func (c *chatProvider) Available() bool { return c.apiKey != "" }

func (c *chatProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if c.apiKey == "" {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s api key missing for alias %q", c.name, c.keyName)
	}
	payload, _ := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": legalSystemPrompt},
			{"role": "user", "content": req.Prompt},
		},
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s generate request failed: %w", c.name, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, c.info(), statusError(c.name, resp.StatusCode, body)
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, c.info(), fmt.Errorf("decode %s response: %w", c.name, err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s returned empty choices", c.name)
	}
	return GenerateResponse{
		Text: parsed.Choices[0].Message.Content,
		Usage: Usage{
			Input:  parsed.Usage.PromptTokens,
			Output: parsed.Usage.CompletionTokens,
			Total:  parsed.Usage.TotalTokens,
		},
	}, c.info(), nil
}

// statusError keeps the HTTP reason phrase in the message so ClassifyError
// can see it.
func statusError(name string, code int, body []byte) error {
	return fmt.Errorf("%s generate error %d (%s): %s", name, code, http.StatusText(code), strings.TrimSpace(string(body)))
}

func resolveKey(prefix, alias, fallback string) string {
	if alias != "" {
		if v := os.Getenv(prefix + strings.ToUpper(alias)); v != "" {
			return v
		}
	}
	return os.Getenv(fallback)
}
