package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-records-api/api/swagger"
	"github.com/noah-isme/sma-records-api/internal/handler"
	"github.com/noah-isme/sma-records-api/internal/layout"
	"github.com/noah-isme/sma-records-api/internal/middleware"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	"github.com/noah-isme/sma-records-api/internal/service"
	"github.com/noah-isme/sma-records-api/pkg/cache"
	"github.com/noah-isme/sma-records-api/pkg/config"
	"github.com/noah-isme/sma-records-api/pkg/database"
	"github.com/noah-isme/sma-records-api/pkg/jobs"
	"github.com/noah-isme/sma-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-records-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-records-api/pkg/storage"
)

// @title SMA Records API
// @version 1.0.0
// @description Bulletins, transcripts and public authenticity checks.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type verificationBackend interface {
	Create(ctx context.Context, record *models.VerificationRecord) error
	FindByCode(ctx context.Context, code string) (*models.VerificationRecord, error)
	FindByShortCode(ctx context.Context, shortCode string) (*models.VerificationRecord, error)
	IncrementVerification(ctx context.Context, id string) (int64, error)
	IncrementExpiredLookup(ctx context.Context, id string) (int64, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, checks, closer, err := openVerificationStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open verification store", zap.String("backend", cfg.Verification.Store), zap.Error(err))
	}
	defer closer.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	aggregator := service.NewAggregatorService(service.AggregatorConfig{
		Scale: cfg.Grading.Scale,
		Thresholds: service.MentionThresholds{
			Excellent:  cfg.Grading.Excellent,
			Good:       cfg.Grading.Good,
			FairlyGood: cfg.Grading.FairlyGood,
			Pass:       cfg.Grading.Pass,
		},
	}, logr)
	verification := service.NewVerificationService(store, service.VerificationServiceConfig{
		BaseURL:      cfg.Documents.VerificationBaseURL,
		TTL:          cfg.Documents.VerificationTTL,
		CodeAttempts: cfg.Documents.CodeAttempts,
	}, metrics, logr)
	photos := service.NewPhotoService(&http.Client{Timeout: cfg.Documents.PhotoTimeout}, service.PhotoServiceConfig{
		Timeout:  cfg.Documents.PhotoTimeout,
		MaxBytes: cfg.Documents.PhotoMaxBytes,
	}, logr)

	files, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare document storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
	index := storage.NewDocumentIndex(files, logr)
	if count, err := index.Refresh(ctx); err != nil {
		logr.Warn("initial document index refresh failed", zap.Error(err))
	} else {
		logr.Info("document index loaded", zap.Int("documents", count))
	}

	defaultLanguage, err := models.ParseLanguage(cfg.Documents.DefaultLanguage)
	if err != nil {
		defaultLanguage = models.LanguageFR
	}
	documents := service.NewDocumentService(
		aggregator,
		verification,
		layout.NewEngine(layout.DefaultMetrics(), logr),
		photos,
		files,
		signer,
		metrics,
		logr,
		service.DocumentServiceConfig{
			APIPrefix:       cfg.APIPrefix,
			DefaultLanguage: defaultLanguage,
			Retention:       cfg.Documents.Retention,
			CleanupInterval: cfg.Documents.CleanupInterval,
		},
	)
	documents.StartCleanup(ctx)

	batchRepo := repository.NewBatchJobMemoryRepository()
	worker := service.NewBatchWorker(batchRepo, aggregator, documents, metrics, logr)
	queue := jobs.NewQueue("class-bulletins", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Batch.Workers,
		BufferSize: cfg.Batch.BufferSize,
		MaxRetries: cfg.Batch.Retries,
		RetryDelay: 2 * time.Second,
		OnGiveUp:   worker.GiveUp,
		Logger:     logr,
	})
	queue.Start(ctx)
	batches := service.NewBatchService(batchRepo, queue, metrics, logr)

	auth := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/health", "/ready", "/metrics"))

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	verifyHandler := handler.NewVerificationHandler(verification, defaultLanguage)
	documentHandler := handler.NewDocumentHandler(documents, batches, index, validator.New())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/verify", verifyHandler.Verify)

	api := r.Group(cfg.APIPrefix)
	api.GET("/verify", verifyHandler.Verify)
	api.GET("/documents/download/:token", documentHandler.Download)

	staff := api.Group("", middleware.JWT(auth))
	writers := staff.Group("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher))
	writers.POST("/documents", documentHandler.Generate)
	writers.POST("/documents/csv", documentHandler.ExportCSV)
	writers.POST("/documents/batch", documentHandler.SubmitBatch)
	writers.GET("/documents/batch/:id", documentHandler.BatchStatus)

	admins := staff.Group("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	admins.GET("/documents", documentHandler.ListIndex)
	admins.POST("/documents/index/refresh", documentHandler.RefreshIndex)
	admins.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store", cfg.Verification.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	queue.Stop()
	logr.Info("server stopped")
}

func openVerificationStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (verificationBackend, map[string]handler.ReadinessCheck, io.Closer, error) {
	switch cfg.Verification.Store {
	case config.StoreMemory:
		logr.Warn("verification records are kept in memory and lost on restart")
		return repository.NewVerificationMemoryRepository(), nil, io.NopCloser(nil), nil
	case config.StoreRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		checks := map[string]handler.ReadinessCheck{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}
		return repository.NewVerificationRedisRepository(client, logr), checks, client, nil
	case config.StorePostgres, "":
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
		return repository.NewVerificationRepository(db), checks, db, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown verification store %q", cfg.Verification.Store)
	}
}
