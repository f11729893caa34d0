package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auditgate/auditgate/internal/config"
	"github.com/auditgate/auditgate/internal/handler"
	"github.com/auditgate/auditgate/internal/middleware"
	"github.com/auditgate/auditgate/internal/pkg/logger"
	"github.com/auditgate/auditgate/internal/repository"
	"github.com/auditgate/auditgate/internal/service"
	"github.com/auditgate/auditgate/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 0. Initialize Logger
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// 1. Initialize Persistence
	db, err := repository.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	store := repository.NewPostgresLogStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to provision log tables: %v", err)
	}
	cancel()
	logger.Info("✅ Connected to PostgreSQL, log tables ready")

	var recent *repository.RecentCache
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("✅ Connected to Redis")
			recent = repository.NewRecentCache(redisClient, cfg.Redis.RecentListKey, cfg.Redis.RecentListMax)
		} else {
			logger.Error("⚠️ Failed to connect to Redis, recent cache disabled", "error", err)
		}
	}

	fileLog, err := service.NewFileLog(cfg.FileLog.Dir)
	if err != nil {
		log.Fatalf("Failed to open audit file log: %v", err)
	}

	// 2. Core Services
	logSvc := service.NewLogService(store, fileLog, recent, cfg.FileLog.BufferSize)

	titles := session.NewStaticTitles()
	titles.Set("logs", "admin", "cleanup", "Purge expired logs")
	docs := session.NewDocRegistry()
	mgr := session.NewManager(logSvc, fileLog, session.Chain(titles, docs), cfg.Audit.SkipRequestLog)

	retention := time.Duration(cfg.Database.RetentionDays) * 24 * time.Hour

	// 3. Handlers
	logsHandler := handler.NewLogsHandler(logSvc)
	streamHandler := handler.NewStreamHandler(logSvc.Hub())
	adminHandler := handler.NewAdminHandler(store, retention)

	// 4. Router
	r := gin.Default()

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.IdentityMiddleware(cfg))
	r.Use(middleware.SessionMiddleware(mgr, cfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "auditgate"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	logs := r.Group("/logs")
	logs.Use(middleware.RateLimitMiddleware(cfg))
	{
		logs.GET("/requests", logsHandler.ListRequests)
		logs.GET("/operations", logsHandler.ListOperations)
		logs.GET("/debug", logsHandler.ListDebug)
		logs.GET("/stream", streamHandler.Tail)
		logs.POST("/admin/cleanup", adminHandler.Cleanup)
	}

	if cfg.Server.EnableDemo {
		handler.NewDemoHandler().RegisterRoutes(r, docs)
		logger.Info("sample shop routes enabled")
	}

	// 5. Retention sweep
	stopCleanup := make(chan struct{})
	if cfg.Database.CleanupIntervalMinutes > 0 && retention > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(cfg.Database.CleanupIntervalMinutes) * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
					if err := store.Cleanup(ctx, retention); err != nil {
						logger.Error("retention sweep failed", "error", err)
					}
					cancel()
				case <-stopCleanup:
					return
				}
			}
		}()
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 AuditGate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	close(stopCleanup)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logSvc.Close()
	logger.Info("Server exiting")
}
