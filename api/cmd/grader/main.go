package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-grader/api/internal/config"
	"ai-grader/api/internal/handle"
	"ai-grader/api/internal/httpserver"
	"ai-grader/api/internal/notify"
	"ai-grader/api/internal/oracle"
	"ai-grader/api/internal/oracle/gemini"
	"ai-grader/api/internal/service"
	"ai-grader/api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := config.NewLogger(false)
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			log.Fatal().Strs("keys", ce.Keys).Msg("configuration is incomplete")
		}
		log.Fatal().Err(err).Msg("load config")
	}
	log := config.NewLogger(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := store.Open(dbCtx, store.Driver(cfg.DBDriver), cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database unavailable")
	}
	defer db.Close()
	log.Info().Str("driver", cfg.DBDriver).Str("dsn", config.SafeDSNSummary(cfg.DatabaseURL)).Msg("db connected")

	// --- Oracle ---
	gc, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.OraclePollInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("gemini client")
	}
	defer gc.Close()
	log.Info().Str("oracle", gc.Name()).Str("model", gc.GetModel()).Dur("timeout", cfg.OracleTimeout).Msg("oracle ready")
	evaluator := oracle.New(gc, cfg.OracleTimeout, log)

	// --- Notifications ---
	var notifier service.Notifier = notify.Nop{}
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("telegram notifications disabled")
		} else {
			notifier = tg
			log.Info().Int64("chat_id", cfg.TelegramChatID).Msg("telegram notifications enabled")
		}
	}

	svc := service.New(
		evaluator,
		store.NewEvaluationRepo(db),
		store.NewBatchRepo(db),
		notifier,
		log,
		cfg.BatchConcurrency,
	)

	h := handle.New(svc, handle.Options{
		RequestTimeout: cfg.RequestTimeout,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Ping:           db.PingContext,
	}, log)

	if err := httpserver.Run(ctx, cfg.Addr(), handle.NewRouter(h, log, cfg.CORSOrigins), log); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
}
