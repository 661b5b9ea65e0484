package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultOCRModel        = "gemini-2.5-pro"
	defaultExtractionModel = "gpt-4o-mini"
	defaultPort            = "8080"
	defaultRequestTimeout  = 120 * time.Second
)

var (
	ErrMissingGeminiKey = errors.New("GEMINI_API_KEY is not set")
	ErrMissingOpenAIKey = errors.New("OPENAI_API_KEY is not set")
)

// Config holds everything the process reads from the environment. It is
// built once at startup and passed by reference into the adapters; nothing
// reads the environment after Load returns.
type Config struct {
	GeminiAPIKey    string
	OpenAIAPIKey    string
	OCRModel        string
	ExtractionModel string
	Port            string
	RequestTimeout  time.Duration
}

// Load reads the configuration from the environment. Both API credentials
// are mandatory: the process must refuse to start rather than fail on the
// first request.
func Load() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OCRModel:        getenvDefault("OCR_MODEL", defaultOCRModel),
		ExtractionModel: getenvDefault("EXTRACTION_MODEL", defaultExtractionModel),
		Port:            getenvDefault("PORT", defaultPort),
		RequestTimeout:  defaultRequestTimeout,
	}

	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingGeminiKey
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, ErrMissingOpenAIKey
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: must be a positive number of seconds", v)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
