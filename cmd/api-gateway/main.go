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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-os/timetable-api/api/swagger"
	"github.com/campus-os/timetable-api/internal/handler"
	"github.com/campus-os/timetable-api/internal/middleware"
	"github.com/campus-os/timetable-api/internal/repository"
	"github.com/campus-os/timetable-api/internal/service"
	"github.com/campus-os/timetable-api/pkg/cache"
	"github.com/campus-os/timetable-api/pkg/config"
	"github.com/campus-os/timetable-api/pkg/database"
	"github.com/campus-os/timetable-api/pkg/logger"
	corsmiddleware "github.com/campus-os/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-os/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 0.1.0
// @description Academic timetable generation and audit service
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
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	generationMetrics := service.NewGenerationMetrics(registry)
	httpMetrics := service.NewHTTPMetrics(registry)

	catalogRepo := repository.NewCatalogRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	timetableService := service.NewTimetableService(
		catalogRepo,
		timetableRepo,
		nil,
		service.NewRedisResultCache(redisClient),
		nil,
		logr,
		generationMetrics,
		service.TimetableServiceConfig{
			SessionTTL:           cfg.Generator.SessionTTL,
			ResultCacheTTL:       cfg.Generator.ResultCacheTTL,
			WorkerConcurrency:    cfg.Generator.WorkerConcurrency,
			QueueSize:            cfg.Generator.QueueSize,
			Seed:                 cfg.Generator.Seed,
			EnforceRoomCapacity:  cfg.Generator.EnforceRoomCapacity,
			MaxCoursesPerFaculty: cfg.Generator.MaxCoursesPerFaculty,
		},
	)
	timetableHandler := handler.NewTimetableHandler(timetableService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(httpMetrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		timetable := api.Group("/timetable")
		timetable.POST("/generate", timetableHandler.Generate)
		timetable.POST("/generate/sync", timetableHandler.GenerateSync)
		timetable.GET("/generation-status/:sessionId", timetableHandler.Status)
		timetable.DELETE("/generation-status/:sessionId", timetableHandler.Cancel)
		timetable.POST("/audit", timetableHandler.Audit)
		timetable.POST("/save", timetableHandler.Save)
		timetable.GET("/entries", timetableHandler.List)
		timetable.GET("/export", timetableHandler.Export)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timetableService.Start(ctx)
	defer timetableService.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
