package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIAddr     string `yaml:"api_addr"`
	MaxUpload   int64  `yaml:"max_upload_bytes"`
	DemoMode    bool   `yaml:"demo_mode"`
	LogLevel    string `yaml:"log_level"`
	PostgresURL string `yaml:"postgres_url"`

	LLMProviders string `yaml:"llm_providers"`
	GeminiModels string `yaml:"gemini_models"`
	OpenAIModel  string `yaml:"openai_model"`
	GroqModel    string `yaml:"groq_model"`

	TemporalAddress   string `yaml:"temporal_address"`
	TemporalTaskQueue string `yaml:"temporal_task_queue"`
	BatchInputDir     string `yaml:"batch_input_dir"`
	BatchOutputDir    string `yaml:"batch_output_dir"`
	BatchMaxChildren  int    `yaml:"batch_max_children"`

	OCREnabled     bool   `yaml:"ocr_enabled"`
	OCRPdftoppm    string `yaml:"ocr_pdftoppm"`
	OCRTesseract   string `yaml:"ocr_tesseract"`
	OCRLang        string `yaml:"ocr_lang"`
	OCRDPI         int    `yaml:"ocr_dpi"`
	OCRConcurrency int    `yaml:"ocr_concurrency"`

	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBase     time.Duration `yaml:"retry_base"`
	RetryCap      time.Duration `yaml:"retry_cap"`

	MaxDocumentChars int `yaml:"max_document_chars"`
	MaxQuestionChars int `yaml:"max_question_chars"`
}

func Defaults() Config {
	return Config{
		APIAddr:           ":8080",
		MaxUpload:         10 << 20,
		DemoMode:          true,
		LogLevel:          "info",
		LLMProviders:      "gemini|openai",
		GeminiModels:      "gemini-1.5-flash|gemini-1.5-pro|gemini-pro",
		OpenAIModel:       "gpt-4o-mini",
		GroqModel:         "llama-3.1-8b-instant",
		TemporalAddress:   "localhost:7233",
		TemporalTaskQueue: "unveildocs",
		BatchInputDir:     "./data/in",
		BatchOutputDir:    "./data/out",
		BatchMaxChildren:  3,
		OCREnabled:        true,
		OCRPdftoppm:       "pdftoppm",
		OCRTesseract:      "tesseract",
		OCRLang:           "eng",
		OCRDPI:            144,
		OCRConcurrency:    4,
		RetryAttempts:     4,
		RetryBase:         time.Second,
		RetryCap:          60 * time.Second,
		MaxDocumentChars:  100000,
		MaxQuestionChars:  8000,
	}
}

// Load applies the optional UNVEIL_CONFIG_FILE YAML over the defaults and
// then lets UNVEIL_* environment variables override both.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("UNVEIL_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.APIAddr = getenv("UNVEIL_API_ADDR", cfg.APIAddr)
	cfg.MaxUpload = int64(getenvInt("UNVEIL_MAX_UPLOAD_BYTES", int(cfg.MaxUpload)))
	cfg.DemoMode = getenvBool("UNVEIL_DEMO_MODE", cfg.DemoMode)
	cfg.LogLevel = getenv("UNVEIL_LOG_LEVEL", cfg.LogLevel)
	cfg.PostgresURL = getenv("UNVEIL_POSTGRES_URL", cfg.PostgresURL)
	cfg.LLMProviders = getenv("UNVEIL_LLM_PROVIDERS", cfg.LLMProviders)
	cfg.GeminiModels = getenv("UNVEIL_GEMINI_MODELS", cfg.GeminiModels)
	cfg.OpenAIModel = getenv("UNVEIL_OPENAI_MODEL", cfg.OpenAIModel)
	cfg.GroqModel = getenv("UNVEIL_GROQ_MODEL", cfg.GroqModel)
	cfg.TemporalAddress = getenv("UNVEIL_TEMPORAL_ADDRESS", cfg.TemporalAddress)
	cfg.TemporalTaskQueue = getenv("UNVEIL_TEMPORAL_TASK_QUEUE", cfg.TemporalTaskQueue)
	cfg.BatchInputDir = getenv("UNVEIL_BATCH_INPUT_DIR", cfg.BatchInputDir)
	cfg.BatchOutputDir = getenv("UNVEIL_BATCH_OUTPUT_DIR", cfg.BatchOutputDir)
	cfg.BatchMaxChildren = getenvInt("UNVEIL_BATCH_MAX_CHILDREN", cfg.BatchMaxChildren)
	cfg.OCREnabled = getenvBool("UNVEIL_OCR_ENABLED", cfg.OCREnabled)
	cfg.OCRPdftoppm = getenv("UNVEIL_OCR_PDFTOPPM", cfg.OCRPdftoppm)
	cfg.OCRTesseract = getenv("UNVEIL_OCR_TESSERACT", cfg.OCRTesseract)
	cfg.OCRLang = getenv("UNVEIL_OCR_LANG", cfg.OCRLang)
	cfg.OCRDPI = getenvInt("UNVEIL_OCR_DPI", cfg.OCRDPI)
	cfg.OCRConcurrency = getenvInt("UNVEIL_OCR_CONCURRENCY", cfg.OCRConcurrency)
	cfg.RetryAttempts = getenvInt("UNVEIL_RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.RetryBase = getenvDuration("UNVEIL_RETRY_BASE", cfg.RetryBase)
	cfg.RetryCap = getenvDuration("UNVEIL_RETRY_CAP", cfg.RetryCap)
	cfg.MaxDocumentChars = getenvInt("UNVEIL_MAX_DOCUMENT_CHARS", cfg.MaxDocumentChars)
	cfg.MaxQuestionChars = getenvInt("UNVEIL_MAX_QUESTION_CHARS", cfg.MaxQuestionChars)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(k string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
