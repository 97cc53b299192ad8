package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/face-attendance-api/api/swagger"
	"github.com/noah-isme/face-attendance-api/internal/aggregation"
	"github.com/noah-isme/face-attendance-api/internal/handler"
	"github.com/noah-isme/face-attendance-api/internal/repository"
	"github.com/noah-isme/face-attendance-api/internal/service"
	"github.com/noah-isme/face-attendance-api/pkg/cache"
	"github.com/noah-isme/face-attendance-api/pkg/config"
	"github.com/noah-isme/face-attendance-api/pkg/database"
	"github.com/noah-isme/face-attendance-api/pkg/faceclient"
	"github.com/noah-isme/face-attendance-api/pkg/jobs"
	"github.com/noah-isme/face-attendance-api/pkg/logger"
	"github.com/noah-isme/face-attendance-api/pkg/storage"
)

// @title Face Attendance API
// @version 1.0.0
// @description Student registration, face recognition attendance and attendance reports
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	metrics := service.NewMetricsService()

	var (
		redisClient *redis.Client
		cacheRepo   service.CacheRepository
	)
	redisClient, err = cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching and token revocation disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Embeddings.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()
	engine := aggregation.New(aggregation.Policy{DefaultPageSize: cfg.Reports.PageSize}, cfg.Reports.Location())
	face := faceclient.New(cfg.FaceService.BaseURL, cfg.FaceService.Timeout, cfg.FaceService.Skip)

	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	embeddingRepo := repository.NewEmbeddingRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)
	exportRepo := repository.NewExportJobRepository(db)

	authSvc := service.NewAuthService(userRepo, cacheSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceParams{
		Students:   studentRepo,
		Attendance: attendanceRepo,
		Engine:     engine,
		Validator:  validate,
		Metrics:    metrics,
		Logger:     logr,
	})
	reportSvc := service.NewReportService(service.ReportServiceParams{
		Students:   studentRepo,
		Attendance: attendanceRepo,
		Engine:     engine,
		Metrics:    metrics,
		Logger:     logr,
	})
	embeddingSvc := service.NewEmbeddingService(service.EmbeddingServiceParams{
		Store:    embeddingRepo,
		Students: studentSvc,
		Face:     face,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Logger:   logr,
		CacheTTL: cfg.Embeddings.CacheTTL,
	})
	recognitionSvc := service.NewRecognitionService(embeddingSvc, face, attendanceSvc, validate, metrics, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, logr)

	embeddingQueue := jobs.NewQueue("embeddings", embeddingSvc.HandleRebuild, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	embeddingSvc.SetQueue(embeddingQueue)
	embeddingQueue.Start(ctx)
	defer embeddingQueue.Stop()

	var exportJobSvc *service.ExportJobService
	if cfg.Exports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			return fmt.Errorf("init export storage: %w", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc := service.NewExportService(reportSvc, fileStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr)
		worker := service.NewExportWorker(exportRepo, exportSvc, metrics, logr)
		exportJobSvc = service.NewExportJobService(exportRepo, nil, exportSvc, metrics, logr, service.ExportJobConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})
		exportQueue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			OnExhaust:  exportJobSvc.OnExhausted,
			Logger:     logr,
		})
		exportJobSvc.SetQueue(exportQueue)
		exportQueue.Start(ctx)
		defer exportQueue.Stop()

		if n := exportJobSvc.RecoverPendingJobs(ctx); n > 0 {
			logr.Info("recovered pending export jobs", zap.Int("count", n))
		}
		exportJobSvc.StartCleanup(ctx)
	}

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if !cfg.FaceService.Skip {
		checks["face_service"] = face.Health
	}

	router := newRouter(cfg, logr, routerDeps{
		auth:        authSvc,
		metrics:     metrics,
		checks:      checks,
		students:    handler.NewStudentHandler(studentSvc),
		embeddings:  handler.NewEmbeddingHandler(embeddingSvc),
		attendance:  handler.NewAttendanceHandler(attendanceSvc, recognitionSvc),
		reports:     handler.NewReportHandler(reportSvc, engine.Location().String()),
		exports:     exportHandler(exportJobSvc),
		courses:     handler.NewCourseHandler(courseSvc),
		settings:    handler.NewSettingsHandler(settingsSvc),
		authHandler: handler.NewAuthHandler(authSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("timezone", engine.Location().String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func exportHandler(svc *service.ExportJobService) *handler.ExportHandler {
	if svc == nil {
		return nil
	}
	return handler.NewExportHandler(svc)
}
