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

	"portal_ventas_backend/internal/adapters"
	"portal_ventas_backend/internal/adapters/storage"
	"portal_ventas_backend/internal/auth"
	"portal_ventas_backend/internal/calendar"
	"portal_ventas_backend/internal/credentials"
	"portal_ventas_backend/internal/credentials/googleoauth"
	"portal_ventas_backend/internal/email"
	"portal_ventas_backend/internal/events"
	apphttp "portal_ventas_backend/internal/http"
	"portal_ventas_backend/internal/http/router"
	"portal_ventas_backend/internal/notification"
	"portal_ventas_backend/internal/postventas"
	"portal_ventas_backend/internal/quotes"
	"portal_ventas_backend/internal/reports"
	"portal_ventas_backend/platform/config"
	"portal_ventas_backend/platform/db"
	"portal_ventas_backend/platform/logger"
	"portal_ventas_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, store storage.ObjectStore, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg)
	if !cfg.GetEmailEnabled() {
		log.Warn("SMTP_HOST not configured; alert and digest emails disabled")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, log)
	notificationModule.RegisterHandlers(eventBus)

	oauth := googleoauth.New(cfg)
	if !cfg.IsGoogleEnabled() {
		log.Warn("GOOGLE_CLIENT_ID not configured; vendor login and calendar sync disabled")
	}

	credentialsModule := credentials.NewModule(pool, oauth, cfg.GetCredentialsEncryptionKey(), log)

	gateway := calendar.NewHTTPGateway(cfg, log)
	reconciler := calendar.NewReconciler(gateway, credentialsModule.Service(), log)

	quotesModule := quotes.NewModule(pool, reconciler, eventBus, val, log)
	postventasModule := postventas.NewModule(pool, reconciler, eventBus, val, log)

	// Postventa intake resolves quote references through its own narrow interface
	quoteReader := adapters.NewPostventaQuoteReader(quotesModule.Repository())
	postventasModule.Service().SetQuoteReader(quoteReader)

	reportsModule := reports.NewModule(pool, cfg, log)
	reportsModule.SetDigestMailer(sender)

	authModule := auth.NewModule(pool, oauth, credentialsModule.Service(), cfg, log)

	// Storage service for quote document uploads (MinIO); optional
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, storageSvc, "quote-documents", cfg.GetMinioBucketQuoteDocuments())
		log.Info("storage service initialized", "quoteDocumentsBucket", cfg.GetMinioBucketQuoteDocuments())

		archiver := adapters.NewQuoteDocumentArchiver(storageSvc, cfg.GetMinioBucketQuoteDocuments())
		quotesModule.Service().SetArchiver(archiver)
		quotesModule.Service().SetDocumentLinker(archiver)
		quotesModule.Handler().SetMaxUploadBytes(cfg.GetMinIOMaxFileSize())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; quote document archiving disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			credentialsModule,
			quotesModule,
			postventasModule,
			reportsModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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
