package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"unveildocs/internal/config"

	"github.com/stretchr/testify/require"
)

func TestNewDemoModeWithoutDatabase(t *testing.T) {
	cfg := config.Defaults()
	cfg.DemoMode = true
	cfg.OCREnabled = false
	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), Options{ServiceAudit: true})
	require.NoError(t, err)
	defer a.Close()

	require.Nil(t, a.Audit)
	require.Nil(t, a.Recorder())
	require.False(t, a.OCR.Available())
	require.Equal(t, "mock", a.Models.Ref().Name)
	require.NotNil(t, a.Processor)
	require.NotNil(t, a.Service)
}

func TestNewFailsWithoutModelOutsideDemoMode(t *testing.T) {
	cfg := config.Defaults()
	cfg.DemoMode = false
	cfg.OCREnabled = false
	cfg.LLMProviders = "openai:missing"
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("UNVEIL_OPENAI_KEY_MISSING", "")
	_, err := New(context.Background(), cfg, nil, Options{})
	require.Error(t, err)
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "warn")
	l.Info("hidden")
	l.Warn("app.test", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "app.test", line["msg"])
	require.Equal(t, "WARN", line["level"])
}
