package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/nextstep-api/api/swagger"
	"github.com/noah-isme/nextstep-api/internal/handler"
	internalmiddleware "github.com/noah-isme/nextstep-api/internal/middleware"
	"github.com/noah-isme/nextstep-api/internal/repository"
	"github.com/noah-isme/nextstep-api/internal/service"
	"github.com/noah-isme/nextstep-api/migrations"
	"github.com/noah-isme/nextstep-api/pkg/cache"
	"github.com/noah-isme/nextstep-api/pkg/config"
	"github.com/noah-isme/nextstep-api/pkg/database"
	"github.com/noah-isme/nextstep-api/pkg/events"
	"github.com/noah-isme/nextstep-api/pkg/jobs"
	"github.com/noah-isme/nextstep-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/nextstep-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/nextstep-api/pkg/middleware/requestid"
	"github.com/noah-isme/nextstep-api/pkg/storage"
)

// @title NextStep API
// @version 1.0.0
// @description Student and alumni networking: mentorship, scholarships, projects, research collaborations and study materials.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.NewMigrator(db, logr).Up(ctx, migrations.Files); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	checks := map[string]handler.Pinger{"database": db}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, logr)
			checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cacheRepo != nil)

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare upload storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	publisher := events.NewKafkaPublisher(cfg.Kafka)
	defer publisher.Close() //nolint:errcheck
	if publisher == nil {
		logr.Info("kafka not configured, notification events are not published")
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	dispatcher := service.NewNotificationDispatcher(notificationRepo, publisher, validate, metricsSvc, logr, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	uploadSvc := newUploadService(cfg, store, signer, logr)

	materialSvc := service.NewStudyMaterialService(repository.NewStudyMaterialRepository(db), store, signer, cacheSvc, service.StudyMaterialConfig{
		MaxFileSize:       cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.MaterialsAllowedExtensions,
		DownloadPath:      cfg.APIPrefix + "/study-materials/files/download",
	}, validate, logr)

	assistantSvc := service.NewAssistantService(service.AssistantConfig{
		APIURL:  cfg.AI.APIURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, &http.Client{}, validate, logr)

	handlers := handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(service.NewUserService(userRepo, validate, logr)),
		Profiles:      handler.NewProfileHandler(service.NewProfileService(repository.NewProfileRepository(db), userRepo, validate, logr)),
		Applications:  handler.NewApplicationHandler(service.NewApplicationService(repository.NewApplicationRepository(db), validate, logr)),
		Mentorship:    handler.NewMentorshipHandler(service.NewMentorshipService(repository.NewMentorshipRepository(db), userRepo, dispatcher, metricsSvc, validate, logr)),
		Scholarships:  handler.NewScholarshipHandler(service.NewScholarshipService(repository.NewScholarshipRepository(db), dispatcher, metricsSvc, validate, logr)),
		Projects:      handler.NewProjectHandler(service.NewProjectService(repository.NewProjectRepository(db), cacheSvc, dispatcher, metricsSvc, validate, logr)),
		Expertise:     handler.NewExpertiseHandler(service.NewExpertiseService(repository.NewExpertiseRepository(db), validate, logr)),
		Research:      handler.NewResearchHandler(service.NewResearchService(repository.NewResearchRepository(db), userRepo, cacheSvc, dispatcher, metricsSvc, validate, logr)),
		StudyMaterial: handler.NewStudyMaterialHandler(materialSvc),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(notificationRepo, validate, logr)),
		Uploads:       handler.NewUploadHandler(uploadSvc),
		Assistant:     handler.NewAssistantHandler(assistantSvc),
	}

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics"))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), internalmiddleware.JWT(authSvc), handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newUploadService attaches the Cloudinary mirror only when it is configured.
func newUploadService(cfg *config.Config, store *storage.LocalStorage, signer *storage.SignedURLSigner, logr *zap.Logger) *service.UploadService {
	uploadCfg := service.UploadConfig{
		MaxFileSize:       cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
		MaxBatchFiles:     cfg.Uploads.MaxBatchFiles,
		DownloadPath:      cfg.APIPrefix + "/uploads/download",
	}
	if cfg.Cloudinary.URL == "" {
		return service.NewUploadService(store, signer, nil, uploadCfg, logr)
	}
	mirror, err := storage.NewCloudinaryMirror(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
	if err != nil {
		logr.Warn("cloudinary mirror disabled", zap.Error(err))
		return service.NewUploadService(store, signer, nil, uploadCfg, logr)
	}
	return service.NewUploadService(store, signer, mirror, uploadCfg, logr)
}
