package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
)

// Config contains all runtime settings for the message router.
type Config struct {
	Backend    string
	StateTable string
	RedisURL   string

	ParamPrefix     string
	OpenAIModel     string
	OpenAIMaxTokens int
	OpenAIBaseURL   string
	NewsBaseURL     string
	CallTimeout     time.Duration

	HTTPAddr string
	Lambda   bool

	KnowledgeBasePath  string
	TrustedSourcesPath string
	RecencyYears       []string

	MetricsNamespace string
	LogLevel         slog.Level
	LogFormat        string
}

// Load reads environment variables and applies defaults.
func Load() (Config, error) {
	cfg := Config{
		Backend:            strings.ToLower(envOrDefault("TRANSCRIPT_BACKEND", BackendDynamoDB)),
		StateTable:         trimmedEnv("STATE_TABLE"),
		RedisURL:           trimmedEnv("REDIS_URL"),
		ParamPrefix:        strings.TrimRight(trimmedEnv("PARAM_PREFIX"), "/"),
		OpenAIModel:        envOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIMaxTokens:    150,
		OpenAIBaseURL:      trimmedEnv("OPENAI_BASE_URL"),
		NewsBaseURL:        trimmedEnv("NEWS_BASE_URL"),
		CallTimeout:        10 * time.Second,
		HTTPAddr:           httpAddr(),
		Lambda:             trimmedEnv("AWS_LAMBDA_RUNTIME_API") != "",
		KnowledgeBasePath:  trimmedEnv("KNOWLEDGE_BASE_PATH"),
		TrustedSourcesPath: trimmedEnv("TRUSTED_SOURCES_PATH"),
		RecencyYears:       listFromEnv("RECENCY_YEARS"),
		MetricsNamespace:   envOrDefault("METRICS_NAMESPACE", "truelive"),
		LogFormat:          strings.ToLower(envOrDefault("LOG_FORMAT", "json")),
	}

	var err error
	cfg.OpenAIMaxTokens, err = intFromEnv("OPENAI_MAX_TOKENS", cfg.OpenAIMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.CallTimeout, err = durationFromEnv("CALL_TIMEOUT", cfg.CallTimeout)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL parse error: %w", err)
	}

	if cfg.ParamPrefix == "" {
		return Config{}, fmt.Errorf("PARAM_PREFIX is required")
	}
	switch cfg.Backend {
	case BackendDynamoDB:
		if cfg.StateTable == "" {
			return Config{}, fmt.Errorf("STATE_TABLE is required for the %s backend", cfg.Backend)
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required for the %s backend", cfg.Backend)
		}
	default:
		return Config{}, fmt.Errorf("TRANSCRIPT_BACKEND must be %s or %s, got %q", BackendDynamoDB, BackendRedis, cfg.Backend)
	}
	if cfg.OpenAIMaxTokens <= 0 {
		return Config{}, fmt.Errorf("OPENAI_MAX_TOKENS must be positive")
	}
	if cfg.CallTimeout <= 0 {
		return Config{}, fmt.Errorf("CALL_TIMEOUT must be positive")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	for _, y := range cfg.RecencyYears {
		if _, err := strconv.Atoi(y); err != nil {
			return Config{}, fmt.Errorf("RECENCY_YEARS entry %q is not a year", y)
		}
	}

	return cfg, nil
}

// OpenAITokenParam is the Parameter Store name of the completion API token.
func (c Config) OpenAITokenParam() string {
	return c.ParamPrefix + "/open-ai-token"
}

// NewsTokenParam is the Parameter Store name of the news API token.
func (c Config) NewsTokenParam() string {
	return c.ParamPrefix + "/news-api-token"
}

func httpAddr() string {
	if addr := trimmedEnv("HTTP_ADDR"); addr != "" {
		return addr
	}
	if port := trimmedEnv("PORT"); port != "" {
		return ":" + port
	}
	return ":3000"
}

func envOrDefault(key, fallback string) string {
	v := trimmedEnv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func listFromEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(trimmedEnv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
