package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultLLMModel   = "gemini-2.5-pro"
	defaultLLMBaseURL = "https://generativelanguage.googleapis.com"
)

// Config holds application configuration. It is read once at startup and treated
// as read-only afterwards.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	GeminiAPIKey    string
	LLMModel        string
	LLMBaseURL      string
	LLMTransport    string
	LLMTimeout      time.Duration
	DatabaseURL     string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience. Existing
	// environment variables are never overridden.
	for _, path := range []string{".env", "cmd/.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				log.Printf("config: ignoring %s: %v", path, err)
			}
		}
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		LLMModel:        getEnv("LLM_MODEL", defaultLLMModel),
		LLMBaseURL:      strings.TrimRight(getEnv("LLM_BASE_URL", defaultLLMBaseURL), "/"),
		LLMTransport:    normalizeTransport(getEnv("LLM_TRANSPORT", "http")),
		LLMTimeout:      getSeconds("LLM_TIMEOUT_SECONDS", 120*time.Second),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
	}

	if cfg.GeminiAPIKey == "" {
		log.Printf("GEMINI_API_KEY is not set; analyses will fail with missing_credentials")
	}
	if env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getSeconds(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		log.Printf("config: %s invalid, using %s", key, def)
		return def
	}
	return time.Duration(parsed) * time.Second
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeTransport(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sdk", "genai":
		return "sdk"
	default:
		return "http"
	}
}
