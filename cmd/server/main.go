package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Sana-Rashid-135/coach/internal/ai"
	"github.com/Sana-Rashid-135/coach/internal/checkin"
	"github.com/Sana-Rashid-135/coach/internal/coach"
	"github.com/Sana-Rashid-135/coach/internal/config"
	"github.com/Sana-Rashid-135/coach/internal/database"
	"github.com/Sana-Rashid-135/coach/internal/dedupe"
	"github.com/Sana-Rashid-135/coach/internal/messaging"
	"github.com/Sana-Rashid-135/coach/internal/models"
	"github.com/Sana-Rashid-135/coach/internal/pipeline"
	"github.com/Sana-Rashid-135/coach/internal/store"
	"github.com/Sana-Rashid-135/coach/internal/webhooks"
	"github.com/Sana-Rashid-135/coach/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	logger := worker.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if err := models.InitEncryption(cfg.MessageEncryptionKey); err != nil {
		log.Fatalf("failed to initialize message encryption: %v", err)
	}

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("Failed to close database", "error", err.Error())
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	if cfg.Env == "development" {
		if err := database.SeedDevData(db); err != nil {
			logger.Warn("Failed to seed dev data", "error", err.Error())
		}
	}

	st := store.New(db)

	gateway := messaging.NewTwilioGateway(
		cfg.TwilioAccountSID,
		cfg.TwilioAuthToken,
		cfg.TwilioWhatsAppNumber,
		cfg.TwilioStubMode,
		logger,
	)

	// Without Ark credentials the flexible parser and the coach degrade to
	// their fixed fallback text; the strict parser path still works.
	var generator ai.TextGenerator = ai.Disabled{}
	if cfg.AIEnabled() {
		chatModel, err := ai.NewArkChatModel(ctx, ai.ArkConfig{
			APIKey:  cfg.ArkAPIKey,
			Model:   cfg.ArkModel,
			BaseURL: cfg.ArkBaseURL,
			Region:  cfg.ArkRegion,
		})
		if err != nil {
			logger.Warn("Failed to initialize Ark chat model, continuing without AI", "error", err.Error())
		} else {
			generator = ai.NewGenerator(chatModel, time.Duration(cfg.ArkTimeoutSecs)*time.Second, 2)
			logger.Info("Text generation provider initialized", "model", cfg.ArkModel)
		}
	} else {
		logger.Warn("ARK credentials not configured; replies fall back to canned text")
	}

	extractor, err := checkin.NewExtractor(generator, logger)
	if err != nil {
		log.Fatalf("failed to initialize check-in extractor: %v", err)
	}

	responder, err := coach.New(generator, logger)
	if err != nil {
		log.Fatalf("failed to initialize coach: %v", err)
	}

	var deduper pipeline.Deduper
	if d, err := dedupe.New(cfg.RedisURL, time.Duration(cfg.DedupeTTLSecs)*time.Second); err != nil {
		logger.Warn("Failed to initialize dedupe, duplicate deliveries will be processed", "error", err.Error())
	} else {
		deduper = d
		defer d.Close()
	}

	p := pipeline.New(st, gateway, extractor, responder, deduper, logger)

	if cfg.ReminderEnabled {
		stopWorker, err := worker.Start(cfg, st, gateway)
		if err != nil {
			logger.Warn("Failed to start reminder worker", "error", err.Error())
		} else {
			defer stopWorker()
		}

		stopScheduler, err := worker.StartScheduler(cfg)
		if err != nil {
			logger.Warn("Failed to start reminder scheduler", "error", err.Error())
		} else {
			defer stopScheduler()
		}
	}

	router := webhooks.NewRouter(p, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("Server listening", "port", cfg.Port, "env", cfg.Env)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
