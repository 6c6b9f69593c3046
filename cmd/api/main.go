package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"campotech-ai-engine/internal/adapters/anthropicchat"
	"campotech-ai-engine/internal/adapters/genaitranslate"
	"campotech-ai-engine/internal/adapters/postgres"
	"campotech-ai-engine/internal/adapters/reviewqueue"
	"campotech-ai-engine/internal/adapters/supporttickets"
	"campotech-ai-engine/internal/adapters/whatsapp"
	"campotech-ai-engine/internal/adapters/whisperstt"
	"campotech-ai-engine/internal/httpapi"
	"campotech-ai-engine/internal/intake"
	"campotech-ai-engine/internal/invoice"
	"campotech-ai-engine/internal/support"
	"campotech-ai-engine/platform/config"
	"campotech-ai-engine/platform/db"
	"campotech-ai-engine/platform/httpkit"
	"campotech-ai-engine/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// ========================================================================
	// Collaborator adapters
	// ========================================================================

	chat := anthropicchat.New(cfg.GetAnthropicAPIKey(), cfg.GetAnthropicModel(), log)

	translator, err := genaitranslate.New(ctx, cfg.GetGenAIAPIKey(), cfg.GetGenAIModel())
	if err != nil {
		log.Error("failed to init genai translator", "error", err)
		panic("failed to init genai translator: " + err.Error())
	}

	stt, err := whisperstt.New(cfg.GetWhisperModelPath(), log)
	if err != nil {
		log.Error("failed to load whisper model", "error", err)
		panic("failed to load whisper model: " + err.Error())
	}
	defer func() { _ = stt.Close() }()

	messenger := whatsapp.New(cfg, log)
	tickets := supporttickets.New(pool)

	store := postgres.NewStore(pool)
	catalogReader := postgres.NewCatalogReader(pool)

	reviewNotifier, err := reviewqueue.NewClient(cfg)
	if err != nil {
		log.Warn("review queue client unavailable, falling back to synchronous persistence only", "error", err)
	}
	defer func() { _ = reviewNotifier.Close() }()

	// ========================================================================
	// Domain pipelines
	// ========================================================================

	intakePipeline := intake.New(intake.Collaborators{
		STT:        stt,
		Translator: translator,
		Chat:       chat,
		Messenger:  messenger,
		Store:      notifyingStore{Store: store, notifier: reviewNotifier},
		Log:        log,
	}, intake.Thresholds{
		High:   cfg.GetIntakeHighThreshold(),
		Medium: cfg.GetIntakeMediumThreshold(),
	})

	invoiceGenerator := invoice.New(invoice.Collaborators{
		Chat:    chat,
		Catalog: catalogReader,
	}, invoice.Thresholds{
		High:   cfg.GetInvoiceHighThreshold(),
		Medium: cfg.GetInvoiceMediumThreshold(),
	})

	supportRouter := support.New(support.Collaborators{
		Chat:    chat,
		Tickets: tickets,
	})

	// ========================================================================
	// HTTP layer
	// ========================================================================

	handler := httpapi.New(intakePipeline, invoiceGenerator, supportRouter, cfg.GetBusinessLanguages(), log)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		AllowAllOrigins: true,
	}))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.RequestLogger(log))

	engine.GET("/api/health", func(c *gin.Context) {
		timeoutCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(timeoutCtx); err != nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "unhealthy", nil)
			return
		}
		httpkit.OK(c, gin.H{"status": "ok"})
	})

	handler.RegisterRoutes(engine)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
