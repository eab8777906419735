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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hr-engage-api/api/swagger"
	"github.com/noah-isme/hr-engage-api/internal/handler"
	internalmiddleware "github.com/noah-isme/hr-engage-api/internal/middleware"
	"github.com/noah-isme/hr-engage-api/internal/models"
	"github.com/noah-isme/hr-engage-api/internal/repository"
	"github.com/noah-isme/hr-engage-api/internal/service"
	"github.com/noah-isme/hr-engage-api/pkg/cache"
	"github.com/noah-isme/hr-engage-api/pkg/config"
	"github.com/noah-isme/hr-engage-api/pkg/database"
	"github.com/noah-isme/hr-engage-api/pkg/jobs"
	"github.com/noah-isme/hr-engage-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hr-engage-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hr-engage-api/pkg/middleware/requestid"
)

// @title HR Engage API
// @version 1.0.0
// @description Employee directory with bulk import approval and bulk actions
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Imports.SessionStore == config.SessionStoreRedis || cfg.Notifications.RedisEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	employeeRepo := repository.NewEmployeeRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)

	var notifier service.Notifier = service.NewLogNotifier(logr.Named("notifications"))
	if cfg.Notifications.RedisEnabled {
		publisher := repository.NewNotificationRepository(redisClient, cfg.Notifications.ChannelPrefix)
		notifier = service.NewPubSubNotifier(publisher, notifier, logr)
	}

	var sessions service.ImportSessionStore = service.NewMemoryImportSessionStore()
	if cfg.Imports.SessionStore == config.SessionStoreRedis {
		sessions = repository.NewImportSessionRepository(redisClient)
	}

	executor := service.NewImportExecutor(employeeRepo, departmentRepo, logr.Named("import"),
		service.WithExecutorConcurrency(cfg.Imports.ExecutorConcurrency),
		service.WithExecutorMetrics(metricsSvc),
	)
	importWorker := service.NewImportWorker(sessions, executor, notifier, cfg.Imports.SessionRetention, logr.Named("import"))
	importQueue := jobs.NewQueue("imports", importWorker.Handle, jobs.QueueConfig{
		Workers: cfg.Imports.Workers,
		Logger:  logr,
	})
	importQueue.Start(ctx)
	defer importQueue.Stop()

	analyzer := service.NewImportAnalyzer(service.NewRecordValidator(validate), service.NewDepartmentResolver())
	importSvc := service.NewImportService(departmentRepo, analyzer, sessions, importQueue, metricsSvc, logr.Named("import"), service.ImportServiceConfig{
		Enabled:          cfg.Imports.Enabled,
		MaxFileSizeBytes: cfg.Imports.MaxFileSizeBytes,
		SessionRetention: cfg.Imports.SessionRetention,
	})

	exportSvc := service.NewExportService(employeeRepo, logr.Named("export"))
	workspaceSvc := service.NewWorkspaceService(employeeRepo, exportSvc, metricsSvc, logr.Named("workspace"), cfg.Workspaces.IdleTTL)
	go workspaceSvc.Run(ctx, time.Minute)

	employeeSvc := service.NewEmployeeService(employeeRepo, departmentRepo, validate, logr)
	authSvc := service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})

	checks := map[string]handler.ReadinessCheck{"database": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	importHandler := handler.NewImportHandler(importSvc, cfg.Imports.MaxFileSizeBytes)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceSvc, validate)
	employeeHandler := handler.NewEmployeeHandler(employeeSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(authSvc))
	admin := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	audit := func(action, resource string) gin.HandlerFunc {
		return internalmiddleware.Audit(logr, action, resource)
	}

	employees := api.Group("/employees", admin)
	employees.GET("", employeeHandler.List)
	employees.GET("/:id", employeeHandler.Get)
	employees.POST("", audit("employee.create", "employee"), employeeHandler.Create)
	api.GET("/departments", admin, employeeHandler.Departments)

	imports := api.Group("/imports", admin)
	imports.POST("", audit("import.upload", "import"), importHandler.Upload)
	imports.GET("/:id", importHandler.Get)
	imports.POST("/:id/approve", audit("import.approve", "import"), importHandler.Approve)
	imports.POST("/:id/cancel", audit("import.cancel", "import"), importHandler.Cancel)

	workspaces := api.Group("/workspaces", admin)
	workspaces.POST("", workspaceHandler.Open)
	workspaces.GET("/:id", workspaceHandler.Get)
	workspaces.PUT("/:id/filters", workspaceHandler.ApplyFilters)
	workspaces.POST("/:id/selection", workspaceHandler.Select)
	workspaces.POST("/:id/selection/all", workspaceHandler.SelectAll)
	workspaces.DELETE("/:id/selection", workspaceHandler.ClearSelection)
	workspaces.POST("/:id/actions", workspaceHandler.RequestAction)
	workspaces.POST("/:id/actions/confirm", audit("bulk_action.confirm", "employee"), workspaceHandler.ConfirmAction)
	workspaces.POST("/:id/actions/cancel", workspaceHandler.CancelAction)
	workspaces.DELETE("/:id", workspaceHandler.Close)

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
