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
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edu-scheduler-api/api/swagger"
	"github.com/noah-isme/edu-scheduler-api/internal/handler"
	internalmiddleware "github.com/noah-isme/edu-scheduler-api/internal/middleware"
	"github.com/noah-isme/edu-scheduler-api/internal/repository"
	"github.com/noah-isme/edu-scheduler-api/internal/service"
	"github.com/noah-isme/edu-scheduler-api/pkg/cache"
	"github.com/noah-isme/edu-scheduler-api/pkg/config"
	"github.com/noah-isme/edu-scheduler-api/pkg/database"
	"github.com/noah-isme/edu-scheduler-api/pkg/jobs"
	"github.com/noah-isme/edu-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-scheduler-api/pkg/middleware/requestid"
)

// @title Education Center Scheduler API
// @version 1.0.0
// @description Class scheduling and teacher/room availability engine
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to apply schema", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc, closeCache := buildCache(cfg, metricsSvc, logr)
	defer closeCache()

	loc := cfg.Scheduler.Location()
	validate := validator.New()

	timeSlotRepo := repository.NewTimeSlotRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	classRepo := repository.NewClassRepository(db)
	sessionRepo := repository.NewClassSessionRepository(db)
	commitmentRepo := repository.NewCommitmentRepository(db)

	timeSlotSvc := service.NewTimeSlotService(timeSlotRepo, logr)
	catalog, err := timeSlotSvc.Load(ctx)
	if err != nil {
		logr.Fatal("time slot catalog unavailable", zap.Error(err))
	}
	engine := service.NewConflictEngine(catalog, loc)
	normalizer := service.NewScheduleNormalizer(catalog, loc)

	busySvc := service.NewBusyIntervalService(commitmentRepo, cacheSvc, metricsSvc, logr, service.BusyIntervalConfig{
		Location:            loc,
		CacheTTL:            cfg.Scheduler.BusyCacheTTL,
		IncludeDraftClasses: cfg.Scheduler.IncludeDraftClasses,
	})

	materializer := service.NewSessionMaterializer(classRepo, semesterRepo, sessionRepo, engine, metricsSvc, logr)
	sessionQueue := jobs.NewQueue("class-sessions", materializer.Handle, jobs.QueueConfig{
		Workers:    cfg.Sessions.WorkerConcurrency,
		MaxRetries: cfg.Sessions.WorkerRetries,
		Logger:     logr,
	})
	sessionQueue.Start(ctx)
	defer sessionQueue.Stop()

	classSvc := service.NewClassService(service.ClassServiceDeps{
		Classes:     classRepo,
		Rooms:       roomRepo,
		Semesters:   semesterRepo,
		Busy:        busySvc,
		Invalidator: busySvc,
		Engine:      engine,
		Tx:          db,
		Queue:       sessionQueue,
		Metrics:     metricsSvc,
		Validator:   validate,
		Logger:      logr,
	})
	gridSvc := service.NewSlotGridService(busySvc, semesterRepo, classSvc, engine, normalizer, metricsSvc, validate, logr, service.SlotGridConfig{
		SessionTTL:   cfg.Scheduler.GridSessionTTL,
		FetchTimeout: cfg.Scheduler.BusyFetchTimeout,
	})
	schedulerSvc := service.NewSchedulerService(busySvc, semesterRepo, engine, normalizer, metricsSvc, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health"))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc,
		handler.ReadinessCheck{Name: "database", Check: pingDatabase(db)},
		handler.ReadinessCheck{Name: "redis", Check: cacheSvc.Ping},
		handler.ReadinessCheck{Name: "time_slots", Check: func(ctx context.Context) error {
			_, err := timeSlotSvc.List(ctx)
			return err
		}},
	)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	schedulerHandler := handler.NewSchedulerHandler(timeSlotSvc, schedulerSvc)
	gridHandler := handler.NewSlotGridHandler(gridSvc)
	classHandler := handler.NewClassHandler(classSvc)

	api := r.Group(cfg.APIPrefix)
	api.GET("/time-slots", schedulerHandler.TimeSlots)
	api.GET("/teachers/:id/busy", schedulerHandler.TeacherBusy)
	api.GET("/rooms/:id/busy", schedulerHandler.RoomBusy)

	scheduler := api.Group("/scheduler")
	scheduler.POST("/conflicts", schedulerHandler.Conflicts)
	scheduler.POST("/normalize", schedulerHandler.Normalize)

	grids := scheduler.Group("/grids")
	grids.POST("", gridHandler.Open)
	grids.GET("/:id", gridHandler.Get)
	grids.PUT("/:id/dependencies", gridHandler.UpdateDependencies)
	grids.POST("/:id/toggle", gridHandler.Toggle)
	grids.POST("/:id/reset", gridHandler.Reset)
	grids.GET("/:id/normalized", gridHandler.Normalized)
	grids.POST("/:id/submit", gridHandler.Submit)
	grids.DELETE("/:id", gridHandler.Close)

	classes := api.Group("/classes")
	classes.POST("", classHandler.Create)
	classes.GET("/:id/sessions", classHandler.Sessions)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildCache(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.CacheService, func()) {
	if !cfg.Redis.Enabled {
		return service.NewCacheService(nil, metrics, cfg.Scheduler.BusyCacheTTL, logr, false), func() {}
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, busy interval cache disabled", zap.Error(err))
		return service.NewCacheService(nil, metrics, cfg.Scheduler.BusyCacheTTL, logr, false), func() {}
	}
	repo := repository.NewCacheRepository(client, cfg.Redis.KeyPrefix, logr)
	return service.NewCacheService(repo, metrics, cfg.Scheduler.BusyCacheTTL, logr, true), func() { _ = repo.Close() }
}

func pingDatabase(db *sqlx.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
