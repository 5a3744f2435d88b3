package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edulibrary/edulibrary-api/api/swagger"
	"github.com/edulibrary/edulibrary-api/internal/handler"
	internalmiddleware "github.com/edulibrary/edulibrary-api/internal/middleware"
	"github.com/edulibrary/edulibrary-api/internal/repository"
	"github.com/edulibrary/edulibrary-api/internal/service"
	"github.com/edulibrary/edulibrary-api/pkg/cache"
	"github.com/edulibrary/edulibrary-api/pkg/config"
	"github.com/edulibrary/edulibrary-api/pkg/database"
	"github.com/edulibrary/edulibrary-api/pkg/jobs"
	"github.com/edulibrary/edulibrary-api/pkg/logger"
	corsmiddleware "github.com/edulibrary/edulibrary-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edulibrary/edulibrary-api/pkg/middleware/requestid"
	"github.com/edulibrary/edulibrary-api/pkg/storage"
)

// @title EduLibrary API
// @version 1.0.0
// @description Educational resource library with student reviews and automated moderation
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, running without stats cache", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	statsSvc := service.NewStatsService(reviewRepo, cacheRepo, metrics, logr, cfg.Stats.CacheTTL)
	moderationSvc := service.NewModerationService(resourceRepo, reviewRepo, userRepo, metrics, logr, service.ModerationConfig{
		RedFlagThreshold: cfg.Library.RedFlagThreshold,
		BlockThreshold:   cfg.Library.BlockThreshold,
	})
	authSvc := service.NewAuthService(userRepo, logr, cfg.JWT)
	userSvc := service.NewUserService(userRepo, logr)
	resourceSvc := service.NewResourceService(resourceRepo, userRepo, statsSvc, userRepo, logr, cfg.Library)
	reviewSvc := service.NewReviewService(reviewRepo, resourceRepo, moderationSvc, statsSvc, userRepo, logr)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, userSvc),
		Users:     handler.NewUserHandler(userSvc),
		Resources: handler.NewResourceHandler(resourceSvc, cfg.Library.MaxFileSizeBytes),
		Reviews:   handler.NewReviewHandler(reviewSvc, statsSvc),
	}

	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(resourceRepo, statsSvc, reportStore, signer, logr)
		reportSvc := service.NewReportService(repository.NewReportRepository(db), exportSvc, reportStore, logr)

		reportQueue = jobs.NewQueue("reports", reportSvc.ProcessJob, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(context.Background())
		reportSvc.SetQueue(reportQueue)

		handlers.Reports = handler.NewReportHandler(reportSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	handler.RegisterHealth(r, db.Ping)
	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, metrics, handlers)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logr.Sugar().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
}
