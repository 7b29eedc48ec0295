package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"learnloop/internal/config"
	"learnloop/internal/domain/ports/adapter"
	"learnloop/internal/domain/ports/provider"
	aiAdapters "learnloop/internal/infra/adapters/ai"
	"learnloop/internal/infra/adapters/notify"
	notionAdapter "learnloop/internal/infra/adapters/notion"
	"learnloop/internal/infra/adapters/openaibatch"
	scraperAdapter "learnloop/internal/infra/adapters/scraper"
	pg "learnloop/internal/infra/db/postgres"
	"learnloop/internal/infra/logging"
	"learnloop/internal/infra/metrics"
	"learnloop/internal/infra/providers"
	"learnloop/internal/infra/sched"
	"learnloop/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	dryRun := flag.Bool("dry-run", false, "log intended actions without submitting or mutating anything")
	daemon := flag.Bool("cron", false, "keep running and trigger runs on the configured cron schedule")
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
	tm := pg.NewTxManager(pool)
	quizRepo := pg.NewQuizRepo(pool)
	requestRepo := pg.NewBatchRequestRepo(pool)

	quizUC := usecase.NewQuizUseCase(quizRepo, requestRepo, tm, logger)

	// ---- Batch completion client ----
	client, err := openaibatch.NewClient(cfg.AI.OpenAIKey, cfg.AI.CompletionWindow)
	if err != nil {
		logger.Fatal().Err(err).Msg("batch client init failed")
	}
	tokens := aiAdapters.NewTiktokenCounter()

	// ---- Providers ----
	var provs []provider.BatchProvider

	if cfg.Notion.Token != "" && cfg.Notion.DatabaseID != "" {
		notion, err := notionAdapter.NewAdapter(cfg.Notion.Token, cfg.Notion.DatabaseID)
		if err != nil {
			logger.Fatal().Err(err).Msg("notion adapter init failed")
		}
		notionProv, err := providers.NewNotionProvider(
			notion, scraperAdapter.NewHTMLScraper(), quizUC, tm,
			cfg.Notion.OwnerUserID, cfg.AI.BatchModel,
			cfg.Notion.PageLimit, cfg.Batch.MinContentChars, cfg.Batch.MaxContentChars,
			logger,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("notion provider init failed")
		}
		provs = append(provs, notionProv)
	}

	provs = append(provs, providers.NewStudioProvider(
		requestRepo, quizUC, tm,
		cfg.AI.BatchModel, cfg.Batch.MinContentChars, cfg.Batch.MaxContentChars,
		logger,
	))

	notifier := buildNotifier(cfg, logger)
	orchestrator := usecase.NewBatchOrchestrator(client, provs, notifier, tokens, *dryRun, logger)

	if *daemon {
		runDaemon(ctx, cfg.Batch.Cron, orchestrator, logger)
		return
	}

	// One-shot mode: a non-zero exit on any failure lets CI and cron wrappers
	// alert on partial runs.
	summary, err := orchestrator.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("batch run aborted")
		if !*dryRun {
			if nerr := notifier.NotifyFatal(ctx, err); nerr != nil {
				logger.Error().Err(nerr).Msg("fatal notification failed")
			}
		}
		os.Exit(1)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// buildNotifier fans out to every configured channel, falling back to the log
// stream when none is set.
func buildNotifier(cfg *config.Config, logger *zerolog.Logger) adapter.Notifier {
	var channels []adapter.Notifier
	if cfg.Notify.SlackWebhookURL != "" {
		slack, err := notify.NewSlackNotifier(cfg.Notify.SlackWebhookURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("slack notifier init failed")
		}
		channels = append(channels, slack)
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier init failed")
		}
		channels = append(channels, tg)
	}
	if len(channels) == 0 {
		return notify.NewConsoleNotifier(logger)
	}
	return notify.NewFanOut(channels...)
}

func runDaemon(ctx context.Context, cron string, orchestrator *usecase.BatchOrchestrator, logger *zerolog.Logger) {
	if cron == "" {
		logger.Fatal().Msg("batch.cron is required in daemon mode")
	}
	runner := sched.NewBatchRunner(orchestrator, cron, logger)
	if err := runner.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("batch runner start failed")
	}
	defer runner.Stop()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("batch daemon stopping")
}
