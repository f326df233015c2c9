package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"unveildocs/internal/config"
	"unveildocs/internal/util"
)

type prober interface {
	Probe(ctx context.Context) error
}

// Manager holds the single backend chosen at startup. It is safe for
// concurrent use and never changes its choice.
type Manager struct {
	ref      ProviderRef
	provider LLMProvider
	skipped  []string
}

// NewManager resolves the first available backend from cfg.LLMProviders.
// Demo mode selects the mock backend without probing anything.
func NewManager(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DemoMode {
		logger.Info("providers.selected", "provider", "mock", "reason", "demo_mode")
		return &Manager{ref: ProviderRef{Raw: "mock", Name: "mock"}, provider: NewMockProvider()}, nil
	}
	m := &Manager{}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		if pr, ok := p.(prober); ok {
			if err := pr.Probe(ctx); err != nil {
				logger.Warn("providers.probe_failed", "provider", ref.Raw, "error", err)
			}
		}
		if !p.Available() {
			m.skipped = append(m.skipped, ref.Raw)
			continue
		}
		m.ref, m.provider = ref, p
		logger.Info("providers.selected", "provider", ref.Raw, "skipped", m.skipped)
		return m, nil
	}
	return nil, fmt.Errorf("%w (tried %s)", util.ErrNoModelAvailable, strings.Join(m.skipped, ", "))
}

// NewStaticManager wraps an already built backend.
func NewStaticManager(name string, p LLMProvider) *Manager {
	return &Manager{ref: ProviderRef{Raw: name, Name: name}, provider: p}
}

func (m *Manager) Ref() ProviderRef { return m.ref }

func (m *Manager) Available() bool { return m.provider != nil && m.provider.Available() }

func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if m.provider == nil {
		return GenerateResponse{}, ProviderInfo{}, util.ErrNoModelAvailable
	}
	return m.provider.Generate(ctx, req)
}

func buildProvider(ref ProviderRef, cfg config.Config) (LLMProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(), nil
	case "gemini":
		return NewGeminiProvider(ref.KeyAlias, splitList(cfg.GeminiModels)), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias, cfg.OpenAIModel), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias, cfg.GroqModel), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
