package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	DatabaseURL     string
	CORSAllowOrigin []string
	APIKey          string
	CronSecret      string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	ArchiveBucket   string
	ArchivePrefix   string

	DefaultProvider  string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string
	ProviderTimeout  time.Duration

	ExtractionModel   string
	ExtractionTimeout time.Duration

	DefaultLocale string
	TiersPath     string

	SchedulerBatchSize   int
	SchedulerProjectMax  int
	SchedulerOrgMax      int
	SchedulerMaxAttempts int
	SchedulerBackoffBase time.Duration
	SchedulerTick        time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		DatabaseURL:     dbURL,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		APIKey:          getEnv("API_KEY", ""),
		CronSecret:      getEnv("CRON_SECRET", ""),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		ArchiveBucket:   getEnv("ARCHIVE_BUCKET", ""),
		ArchivePrefix:   getEnv("ARCHIVE_PREFIX", "runs"),

		DefaultProvider:  getEnv("DEFAULT_PROVIDER", "openai"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		ProviderTimeout:  getEnvSeconds("PROVIDER_TIMEOUT_SECONDS", 60),

		ExtractionModel:   getEnv("EXTRACTION_MODEL", "gpt-4o-mini"),
		ExtractionTimeout: getEnvSeconds("EXTRACTION_TIMEOUT_SECONDS", 20),

		DefaultLocale: getEnv("DEFAULT_LOCALE", "en-US"),
		TiersPath:     getEnv("TIERS_PATH", ""),

		SchedulerBatchSize:   getEnvInt("SCHEDULER_BATCH_SIZE", 10),
		SchedulerProjectMax:  getEnvInt("SCHEDULER_PROJECT_MAX_RUNNING", 2),
		SchedulerOrgMax:      getEnvInt("SCHEDULER_ORG_MAX_RUNNING", 3),
		SchedulerMaxAttempts: getEnvInt("SCHEDULER_MAX_ATTEMPTS", 5),
		SchedulerBackoffBase: getEnvMillis("SCHEDULER_BACKOFF_BASE_MS", 1000),
		SchedulerTick:        getEnvSeconds("SCHEDULER_TICK_SECONDS", 60),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return n
}

func getEnvSeconds(key string, def int) time.Duration {
	return time.Duration(getEnvInt(key, def)) * time.Second
}

func getEnvMillis(key string, def int) time.Duration {
	return time.Duration(getEnvInt(key, def)) * time.Millisecond
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
	case "development", "dev":
		return "dev"
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
