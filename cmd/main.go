package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/redis/go-redis/v9"

	"truelive-router/handler"
	"truelive-router/internal/config"
	"truelive-router/internal/integrations/newsapi"
	"truelive-router/internal/integrations/openai"
	"truelive-router/internal/integrations/paramstore"
	"truelive-router/internal/knowledge"
	"truelive-router/internal/langdetect"
	"truelive-router/internal/observability"
	"truelive-router/internal/repository"
	"truelive-router/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		fatal("failed to load AWS config", err)
	}

	// ---- Static data ----
	kb, err := knowledge.LoadKnowledgeBase(cfg.KnowledgeBasePath)
	if err != nil {
		fatal("failed to load knowledge base", err)
	}
	trusted, err := knowledge.LoadTrustedSources(cfg.TrustedSourcesPath)
	if err != nil {
		fatal("failed to load trusted sources", err)
	}
	keywords := usecase.DefaultKeywords()
	keywords.RecencyYears = cfg.RecencyYears
	classifier, err := usecase.NewClassifier(keywords)
	if err != nil {
		fatal("failed to create classifier", err)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		fatal("failed to create SSM client", err)
	}
	openaiToken, err := paramstore.NewToken(ssmClient, cfg.OpenAITokenParam())
	if err != nil {
		fatal("failed to create OpenAI token source", err)
	}
	newsToken, err := paramstore.NewToken(ssmClient, cfg.NewsTokenParam())
	if err != nil {
		fatal("failed to create news token source", err)
	}

	openaiClient, err := openai.NewClient(openaiToken, openai.WithBaseURL(cfg.OpenAIBaseURL))
	if err != nil {
		fatal("failed to create OpenAI client", err)
	}
	newsClient, err := newsapi.NewClient(newsToken, newsapi.WithBaseURL(cfg.NewsBaseURL))
	if err != nil {
		fatal("failed to create news client", err)
	}

	store, err := newTranscriptStore(cfg, awsCfg)
	if err != nil {
		fatal("failed to create transcript store", err)
	}

	// ---- Router and handler ----
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	router, err := usecase.NewRouter(usecase.Dependencies{
		Store:          store,
		News:           newsClient,
		LLM:            openaiClient,
		Detector:       langdetect.New(langdetect.Fallback),
		Facts:          kb,
		Classifier:     classifier,
		TrustedDomains: trusted.Domains(),
		Metrics:        metrics,
		Logger:         logger,
	}, usecase.Settings{
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.OpenAIMaxTokens,
		CallTimeout: cfg.CallTimeout,
	})
	if err != nil {
		fatal("failed to create router", err)
	}

	h, err := handler.NewHandler(router, handler.WithMetrics(metrics), handler.WithLogger(logger))
	if err != nil {
		fatal("failed to create handler", err)
	}

	if cfg.Lambda {
		logger.Info("starting lambda handler", "backend", cfg.Backend)
		lambda.Start(h.Handle)
		return
	}
	serve(cfg, h)
}

func newTranscriptStore(cfg config.Config, awsCfg aws.Config) (repository.TranscriptStore, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return repository.NewRedisStore(redis.NewClient(opts))
	default:
		return repository.NewDynamoStore(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable)
	}
}

func serve(cfg config.Config, h *handler.Handler) {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.HTTPAddr, "backend", cfg.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("listen error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
		_ = httpServer.Close()
	}
	slog.Info("shutdown complete")
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
