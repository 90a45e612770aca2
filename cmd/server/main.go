package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quocanhngo/sportcast/internal/config"
	"github.com/quocanhngo/sportcast/internal/database"
	"github.com/quocanhngo/sportcast/internal/handler"
	"github.com/quocanhngo/sportcast/internal/middleware"
	"github.com/quocanhngo/sportcast/internal/repository"
	"github.com/quocanhngo/sportcast/internal/service"
	"github.com/quocanhngo/sportcast/internal/ws"
	"github.com/quocanhngo/sportcast/migrations"
	"github.com/quocanhngo/sportcast/pkg/lease"
	"github.com/quocanhngo/sportcast/pkg/logger"
	"github.com/quocanhngo/sportcast/pkg/notification"
	"github.com/quocanhngo/sportcast/pkg/storage"
)

// @title           Sportcast Admin API
// @version         1.0
// @description     Admin backend for a live sports streaming app: matches, push notifications and the match lifecycle scheduler.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	if err := logger.Init(cfg.App.LogLevel, !cfg.App.IsProduction()); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.WithModule("server")

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	log.Info("starting sportcast admin api", zap.String("env", cfg.App.Env))

	// ==================== Database (PostgreSQL) ====================
	gormLevel := gormlogger.Info
	if cfg.App.IsProduction() {
		gormLevel = gormlogger.Warn
	}
	db, err := database.Open(database.Config{DSN: cfg.DB.DSN(), LogLevel: gormLevel})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	log.Info("connected to postgres")

	// ==================== Run Migrations ====================
	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Warn("migration failed, falling back to gorm automigrate", zap.Error(err))
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	// ==================== Redis (optional) ====================
	ctx := context.Background()
	var rdb *redis.Client
	var locker lease.Locker = lease.LocalLocker{}
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		locker = lease.NewRedisLocker(rdb)
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		log.Info("redis not configured, running single instance")
	}

	// ==================== Push dispatch ====================
	var dispatcher notification.Dispatcher
	switch cfg.Dispatch.Driver {
	case "fcm":
		dispatcher, err = notification.NewFCMDispatcher(ctx, cfg.Dispatch.FCMCredentialsFile)
	default:
		dispatcher, err = notification.NewEdgeDispatcher(notification.EdgeConfig{
			URL: cfg.Dispatch.URL,
			Key: cfg.Dispatch.Key,
		})
	}
	if err != nil {
		log.Fatal("failed to initialise push dispatcher", zap.String("driver", cfg.Dispatch.Driver), zap.Error(err))
	}
	log.Info("push dispatcher ready", zap.String("driver", cfg.Dispatch.Driver))

	// ==================== Object storage ====================
	var uploadHandler *handler.UploadHandler
	switch cfg.Storage.Driver {
	case "s3":
		s3Storage, err := storage.NewS3(ctx, storage.S3Config{
			Region:    cfg.Storage.S3.Region,
			Bucket:    cfg.Storage.S3.Bucket,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			PublicURL: cfg.Storage.S3.PublicURL,
		})
		if err != nil {
			log.Warn("s3 not available, image upload disabled", zap.Error(err))
			break
		}
		uploadHandler = handler.NewUploadHandler(s3Storage, s3Storage)
	default:
		minioStorage, err := storage.NewMinIO(ctx, storage.MinIOConfig{
			Endpoint:  cfg.Storage.MinIO.Endpoint,
			PublicURL: cfg.Storage.MinIO.PublicURL,
			AccessKey: cfg.Storage.MinIO.AccessKey,
			SecretKey: cfg.Storage.MinIO.SecretKey,
			Bucket:    cfg.Storage.MinIO.Bucket,
			UseSSL:    cfg.Storage.MinIO.UseSSL,
		})
		if err != nil {
			log.Warn("minio not available, image upload disabled", zap.Error(err))
			break
		}
		uploadHandler = handler.NewUploadHandler(minioStorage, minioStorage)
	}

	// ==================== Initialize Layers ====================
	// WebSocket Hub (Redis Pub/Sub when configured)
	var hub *ws.Hub
	if rdb != nil {
		hub = ws.NewHub(rdb)
	} else {
		hub = ws.NewHub(nil)
	}
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// Repositories
	matchRepo := repository.NewMatchRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	// Services
	notificationService := service.NewNotificationService(userRepo, notifRepo, dispatcher, hub)
	matchService := service.NewMatchService(matchRepo, notificationService, hub)
	dashboardService := service.NewDashboardService(matchRepo, catalogRepo)
	engine := service.NewLifecycleEngine(matchRepo, notificationService, hub)
	sweeper := service.NewRetentionSweeper(notifRepo, userRepo)
	scheduler := service.NewScheduler(engine, sweeper,
		service.WithInterval(cfg.Scheduler.Interval),
		service.WithLease(locker, cfg.Scheduler.LockTTL),
	)

	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(); err != nil {
			log.Fatal("failed to start scheduler", zap.Error(err))
		}
	} else {
		log.Warn("scheduler disabled, lifecycle runs only on manual refresh")
	}

	// ==================== Gin Router ====================
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(), middleware.Logger(), middleware.Metrics())

	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.json")))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "sportcast-admin-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== API Routes ====================
	handler.Handlers{
		Match:        handler.NewMatchHandler(matchService, scheduler),
		Notification: handler.NewNotificationHandler(notificationService),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
		Upload:       uploadHandler,
	}.Register(router.Group("/api/v1"), middleware.RateLimit(cfg.Dispatch.RateLimit, cfg.Dispatch.RateBurst))

	// Live dashboard feed
	router.GET("/ws", handler.NewWSHandler(hub, cfg.CORS.Origins).HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	log.Info("sportcast admin api running",
		zap.String("addr", "http://0.0.0.0:"+cfg.App.Port),
		zap.String("docs", "/swagger/index.html"),
		zap.String("ws", "/ws"),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// In-flight ticks finish before the process exits
	scheduler.Stop()

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	hubCancel()
	log.Info("server exited gracefully")
}
