package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeminiProvider calls the Generative Language REST API. Models are tried in
// order by Probe and the first one the key can see is kept.
type GeminiProvider struct {
	keyName string
	apiKey  string
	models  []string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiProvider(keyName string, models []string) *GeminiProvider {
	if len(models) == 0 {
		models = []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro"}
	}
	return &GeminiProvider{
		keyName: keyName,
		apiKey:  resolveKey("UNVEIL_GEMINI_KEY_", keyName, "GOOGLE_API_KEY"),
		models:  models,
		model:   models[0],
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GeminiProvider) info() ProviderInfo {
	return ProviderInfo{Name: "gemini", Model: g.model, Key: g.keyName}
}

func (g *GeminiProvider) Available() bool { return g.apiKey != "" && g.model != "" }

// Probe looks up each configured model and keeps the first that resolves.
// When none does the provider becomes unavailable.
func (g *GeminiProvider) Probe(ctx context.Context) error {
	if g.apiKey == "" {
		return fmt.Errorf("gemini api key missing for alias %q", g.keyName)
	}
	var errs []string
	for _, m := range g.models {
		u := fmt.Sprintf("%s/models/%s?key=%s", g.baseURL, url.PathEscape(m), url.QueryEscape(g.apiKey))
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		resp, err := g.client.Do(req)
		if err != nil {
			errs = append(errs, m+": "+err.Error())
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			g.model = m
			return nil
		}
		errs = append(errs, statusError("gemini", resp.StatusCode, body).Error())
	}
	g.model = ""
	return fmt.Errorf("no gemini model available: %s", strings.Join(errs, "; "))
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if !g.Available() {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini api key missing for alias %q", g.keyName)
	}
	payload, _ := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]string{{"text": req.Prompt}}},
		},
	})
	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini generate request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, g.info(), statusError("gemini", resp.StatusCode, body)
	}
	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, g.info(), fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini returned no candidates")
	}
	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return GenerateResponse{
		Text: sb.String(),
		Usage: Usage{
			Input:  parsed.UsageMetadata.PromptTokenCount,
			Output: parsed.UsageMetadata.CandidatesTokenCount,
			Total:  parsed.UsageMetadata.TotalTokenCount,
		},
	}, g.info(), nil
}
