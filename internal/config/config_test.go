package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	setEnvEmpty(t)
	t.Setenv("PARAM_PREFIX", "/truelive/prod/")
	t.Setenv("STATE_TABLE", "truelive-state")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, BackendDynamoDB, cfg.Backend)
	require.Equal(t, "truelive-state", cfg.StateTable)
	require.Equal(t, "/truelive/prod", cfg.ParamPrefix)
	require.Equal(t, "/truelive/prod/open-ai-token", cfg.OpenAITokenParam())
	require.Equal(t, "/truelive/prod/news-api-token", cfg.NewsTokenParam())
	require.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	require.Equal(t, 150, cfg.OpenAIMaxTokens)
	require.Equal(t, 10*time.Second, cfg.CallTimeout)
	require.Equal(t, ":3000", cfg.HTTPAddr)
	require.False(t, cfg.Lambda)
	require.Empty(t, cfg.RecencyYears)
	require.Equal(t, "truelive", cfg.MetricsNamespace)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	setEnvEmpty(t)
	t.Setenv("PARAM_PREFIX", "/truelive/dev")
	t.Setenv("TRANSCRIPT_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("OPENAI_MAX_TOKENS", "300")
	t.Setenv("CALL_TIMEOUT", "3s")
	t.Setenv("PORT", "8080")
	t.Setenv("RECENCY_YEARS", "2025, 2026,,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "127.0.0.1:9001")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, BackendRedis, cfg.Backend)
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	require.Equal(t, 300, cfg.OpenAIMaxTokens)
	require.Equal(t, 3*time.Second, cfg.CallTimeout)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, []string{"2025", "2026"}, cfg.RecencyYears)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, "text", cfg.LogFormat)
	require.True(t, cfg.Lambda)
}

func TestLoad_HTTPAddrWinsOverPort(t *testing.T) {
	setEnvEmpty(t)
	t.Setenv("PARAM_PREFIX", "/p")
	t.Setenv("STATE_TABLE", "t")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]struct {
		env     map[string]string
		wantErr string
	}{
		"missing prefix": {
			env:     map[string]string{"STATE_TABLE": "t"},
			wantErr: "PARAM_PREFIX",
		},
		"missing table": {
			env:     map[string]string{"PARAM_PREFIX": "/p"},
			wantErr: "STATE_TABLE",
		},
		"missing redis url": {
			env:     map[string]string{"PARAM_PREFIX": "/p", "TRANSCRIPT_BACKEND": "redis"},
			wantErr: "REDIS_URL",
		},
		"unknown backend": {
			env:     map[string]string{"PARAM_PREFIX": "/p", "TRANSCRIPT_BACKEND": "firestore"},
			wantErr: "TRANSCRIPT_BACKEND",
		},
		"bad timeout": {
			env:     map[string]string{"PARAM_PREFIX": "/p", "STATE_TABLE": "t", "CALL_TIMEOUT": "soon"},
			wantErr: "CALL_TIMEOUT",
		},
		"non-positive max tokens": {
			env:     map[string]string{"PARAM_PREFIX": "/p", "STATE_TABLE": "t", "OPENAI_MAX_TOKENS": "0"},
			wantErr: "OPENAI_MAX_TOKENS",
		},
		"bad year": {
			env:     map[string]string{"PARAM_PREFIX": "/p", "STATE_TABLE": "t", "RECENCY_YEARS": "next"},
			wantErr: "RECENCY_YEARS",
		},
		"bad log level": {
			env:     map[string]string{"PARAM_PREFIX": "/p", "STATE_TABLE": "t", "LOG_LEVEL": "loud"},
			wantErr: "LOG_LEVEL",
		},
		"bad log format": {
			env:     map[string]string{"PARAM_PREFIX": "/p", "STATE_TABLE": "t", "LOG_FORMAT": "xml"},
			wantErr: "LOG_FORMAT",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setEnvEmpty(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func setEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"TRANSCRIPT_BACKEND",
		"STATE_TABLE",
		"REDIS_URL",
		"PARAM_PREFIX",
		"OPENAI_MODEL",
		"OPENAI_MAX_TOKENS",
		"OPENAI_BASE_URL",
		"NEWS_BASE_URL",
		"CALL_TIMEOUT",
		"HTTP_ADDR",
		"PORT",
		"AWS_LAMBDA_RUNTIME_API",
		"KNOWLEDGE_BASE_PATH",
		"TRUSTED_SOURCES_PATH",
		"RECENCY_YEARS",
		"METRICS_NAMESPACE",
		"LOG_LEVEL",
		"LOG_FORMAT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
