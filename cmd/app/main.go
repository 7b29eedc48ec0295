package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnloop/internal/config"
	"learnloop/internal/domain/ports/adapter"
	aiAdapters "learnloop/internal/infra/adapters/ai"
	scraperAdapter "learnloop/internal/infra/adapters/scraper"
	pg "learnloop/internal/infra/db/postgres"
	"learnloop/internal/infra/logging"
	"learnloop/internal/infra/metrics"
	red "learnloop/internal/infra/redis"
	"learnloop/internal/infra/web"
	"learnloop/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, *devMode)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	tm := pg.NewTxManager(pool)
	quizRepo := pg.NewQuizRepo(pool)
	progressRepo := pg.NewProgressRepo(pool)
	requestRepo := pg.NewBatchRequestRepo(pool)

	// ---- Redis (optional: absence degrades caching and rate limiting) ----
	var (
		statsCache  usecase.StatsCache
		rateLimiter *red.RateLimiter
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		statsCache = red.NewStatsCache(redisClient, cfg.Redis.TTL)
		rateLimiter = red.NewRateLimiter(redisClient)
	}

	// ---- AI adapter (OpenAI preferred, Gemini fallback) ----
	var ai adapter.AIServiceAdapter
	if cfg.AI.OpenAIKey != "" {
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
	} else {
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("ai adapter init failed")
	}

	// ---- Use cases ----
	quizUC := usecase.NewQuizUseCase(quizRepo, requestRepo, tm, logger)
	studyUC := usecase.NewStudyUseCase(quizRepo, progressRepo, tm, statsCache, logger)
	statsUC := usecase.NewStatsUseCase(progressRepo, statsCache, logger)
	generateUC := usecase.NewGenerateUseCase(
		ai, scraperAdapter.NewHTMLScraper(), quizUC, tm,
		cfg.AI.DefaultModel, cfg.Batch.MinContentChars, cfg.Batch.MaxContentChars,
		logger,
	)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Web.JWTSecret, !cfg.Runtime.Dev, "", cfg.Web.SessionTTL)
	server := web.NewServer(studyUC, quizUC, statsUC, generateUC, auth, rateLimiter,
		cfg.Web.RateLimit, cfg.Web.RateWindowSec, logger)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.Web.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
