package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "OBJECT_STORE", "LLM_MODEL", "LLM_TRANSPORT", "LLM_TIMEOUT_SECONDS", "LLM_BASE_URL", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("Env = %q", cfg.Env)
	}
	if cfg.LLMModel != defaultLLMModel {
		t.Fatalf("LLMModel = %q", cfg.LLMModel)
	}
	if cfg.LLMTransport != "http" {
		t.Fatalf("LLMTransport = %q", cfg.LLMTransport)
	}
	if cfg.LLMTimeout != 120*time.Second {
		t.Fatalf("LLMTimeout = %s", cfg.LLMTimeout)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("expected empty api key")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("LLM_TRANSPORT", "genai")
	t.Setenv("LLM_TIMEOUT_SECONDS", "15")
	t.Setenv("LLM_BASE_URL", "http://localhost:9999/")
	t.Setenv("GEMINI_API_KEY", "  key-123 ")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()
	if cfg.Env != "production" || cfg.ObjectStoreType != "s3" || cfg.LLMTransport != "sdk" {
		t.Fatalf("unexpected normalized values: %+v", cfg)
	}
	if cfg.LLMTimeout != 15*time.Second {
		t.Fatalf("LLMTimeout = %s", cfg.LLMTimeout)
	}
	if cfg.LLMBaseURL != "http://localhost:9999" {
		t.Fatalf("LLMBaseURL = %q", cfg.LLMBaseURL)
	}
	if cfg.GeminiAPIKey != "key-123" {
		t.Fatalf("GeminiAPIKey = %q", cfg.GeminiAPIKey)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("CORSAllowOrigin = %v", cfg.CORSAllowOrigin)
	}
}
