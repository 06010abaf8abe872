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
	"github.com/go-playground/validator/v10"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/alerts"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/handler"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/middleware"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/repository"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/service"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/cache"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/config"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/database"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/jobs"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/logger"
	corsmiddleware "github.com/bhartnell/pmi-scheduler-sub002/pkg/middleware/cors"
	reqidmiddleware "github.com/bhartnell/pmi-scheduler-sub002/pkg/middleware/requestid"
)

// @title PMI Internship Scheduler API
// @version 1.0.0
// @description Internship lifecycle tracking and alerting for the paramedic program
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	cohortRepo := repository.NewCohortRepository(db)
	internshipRepo := repository.NewInternshipRepository(db)
	complianceRepo := repository.NewComplianceRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Overview.CacheTTL, logr, cfg.Overview.CacheEnabled)

	var notificationSvc *service.NotificationService
	queue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		return notificationSvc.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notificationSvc = service.NewNotificationService(cacheSvc, queue, logr, cfg.Notifications.Enabled)

	generator := alerts.NewGenerator(alerts.Config{
		CriticalOverdueDays: cfg.Alerts.CriticalOverdueDays,
		WarningExpiryDays:   cfg.Alerts.WarningExpiryDays,
		UpcomingWindowDays:  cfg.Alerts.UpcomingWindowDays,
	})
	overviewSvc := service.NewOverviewService(service.OverviewServiceParams{
		Students:    studentRepo,
		Internships: internshipRepo,
		Compliance:  complianceRepo,
		Generator:   generator,
		Cache:       cacheSvc,
		Metrics:     metricsSvc,
		Publisher:   notificationSvc,
		Logger:      logr,
		Config:      service.OverviewServiceConfig{CacheTTL: cfg.Overview.CacheTTL},
	})

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "pmi-scheduler",
	})
	studentSvc := service.NewStudentService(service.StudentServiceParams{
		Repo:      studentRepo,
		Cohorts:   cohortRepo,
		Audit:     userRepo,
		Snapshots: overviewSvc,
		Logger:    logr,
	})
	cohortSvc := service.NewCohortService(service.CohortServiceParams{
		Repo:      cohortRepo,
		Students:  studentRepo,
		Snapshots: overviewSvc,
		Logger:    logr,
	})
	internshipSvc := service.NewInternshipService(service.InternshipServiceParams{
		Repo:       internshipRepo,
		Students:   studentRepo,
		Compliance: complianceRepo,
		Audit:      userRepo,
		Snapshots:  overviewSvc,
		Logger:     logr,
	})
	complianceSvc := service.NewComplianceService(service.ComplianceServiceParams{
		Repo:        complianceRepo,
		Students:    studentRepo,
		Internships: internshipRepo,
		Audit:       userRepo,
		Snapshots:   overviewSvc,
		Logger:      logr,
	})
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Students:    studentRepo,
		Internships: internshipRepo,
		Compliance:  complianceRepo,
		ProgramName: cfg.Exports.ProgramName,
		Logger:      logr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "reason": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	registerRoutes(r, cfg.APIPrefix,
		handler.NewAuthHandler(authSvc),
		handler.NewStudentHandler(studentSvc),
		handler.NewCohortHandler(cohortSvc),
		handler.NewInternshipHandler(internshipSvc),
		handler.NewComplianceHandler(complianceSvc),
		handler.NewOverviewHandler(overviewSvc),
		handler.NewExportHandler(exportSvc),
		authSvc,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}

func registerRoutes(
	r *gin.Engine,
	prefix string,
	auth *handler.AuthHandler,
	students *handler.StudentHandler,
	cohorts *handler.CohortHandler,
	internships *handler.InternshipHandler,
	compliance *handler.ComplianceHandler,
	overview *handler.OverviewHandler,
	exports *handler.ExportHandler,
	authSvc *service.AuthService,
) {
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	api.POST("/auth/login", auth.Login)
	api.POST("/auth/refresh", auth.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.POST("/auth/logout", auth.Logout)
	protected.GET("/auth/me", auth.Me)

	protected.GET("/students", middleware.Require(middleware.ActionViewBoard), students.List)
	protected.GET("/students/:id", middleware.Require(middleware.ActionViewBoard), students.Get)
	protected.POST("/students", middleware.Require(middleware.ActionManageStudents), students.Create)
	protected.PUT("/students/:id", middleware.Require(middleware.ActionManageStudents), students.Update)

	protected.GET("/cohorts", middleware.Require(middleware.ActionViewBoard), cohorts.List)
	protected.GET("/cohorts/:id", middleware.Require(middleware.ActionViewBoard), cohorts.Get)
	protected.POST("/cohorts", middleware.Require(middleware.ActionManageCohorts), cohorts.Create)
	protected.POST("/cohorts/:id/archive", middleware.Require(middleware.ActionManageCohorts), cohorts.Archive)

	protected.GET("/internships", middleware.Require(middleware.ActionViewBoard), internships.List)
	protected.GET("/internships/:id", middleware.Require(middleware.ActionViewBoard), internships.Get)
	protected.POST("/internships", middleware.Require(middleware.ActionPlaceInternship), internships.Place)
	protected.PATCH("/internships/:id/schedule", middleware.Require(middleware.ActionUpdateSchedule), internships.UpdateSchedule)
	protected.PATCH("/internships/:id/phase", middleware.Require(middleware.ActionAdvancePhase), internships.UpdatePhase)
	protected.PATCH("/internships/:id/progress", middleware.Require(middleware.ActionAdvancePhase), internships.UpdateProgress)
	protected.PATCH("/internships/:id/clearances", middleware.Require(middleware.ActionUpdateClearances), internships.UpdateClearances)
	protected.POST("/internships/:id/extension", middleware.Require(middleware.ActionGrantExtension), internships.Extension)
	protected.POST("/internships/:id/withdraw", middleware.Require(middleware.ActionWithdraw), internships.Withdraw)

	protected.GET("/students/:id/compliance", middleware.Require(middleware.ActionViewBoard), compliance.Status)
	protected.PUT("/students/:id/compliance/:docType", middleware.Require(middleware.ActionRecordCompliance), compliance.Upsert)

	protected.GET("/overview", middleware.Require(middleware.ActionViewBoard), overview.Board)
	protected.GET("/alerts", middleware.Require(middleware.ActionViewBoard), overview.Alerts)

	protected.GET("/exports/compliance.csv", middleware.Require(middleware.ActionExportRoster), exports.ComplianceCSV)
	protected.GET("/exports/compliance.pdf", middleware.Require(middleware.ActionExportRoster), exports.CompliancePDF)
}
