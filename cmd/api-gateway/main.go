package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/minedata-id/mms-ops-api/api/swagger"
	"github.com/minedata-id/mms-ops-api/internal/handler"
	"github.com/minedata-id/mms-ops-api/internal/middleware"
	"github.com/minedata-id/mms-ops-api/internal/models"
	"github.com/minedata-id/mms-ops-api/internal/registry"
	"github.com/minedata-id/mms-ops-api/internal/repository"
	"github.com/minedata-id/mms-ops-api/internal/service"
	"github.com/minedata-id/mms-ops-api/pkg/cache"
	"github.com/minedata-id/mms-ops-api/pkg/config"
	"github.com/minedata-id/mms-ops-api/pkg/database"
	"github.com/minedata-id/mms-ops-api/pkg/logger"
	corsmiddleware "github.com/minedata-id/mms-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/minedata-id/mms-ops-api/pkg/middleware/requestid"
)

// @title MMS Ops API
// @version 0.1.0
// @description Maintenance operations data governance service
// @BasePath /
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, queue cache disabled", "error", err)
		redisClient = nil
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Repositories.
	recordStore := repository.NewRecordStore(db)
	approvalRepo := repository.NewApprovalRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Entity registry backed by the record store.
	entityRegistry := registry.New(recordStore)

	// Services.
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT)
	queueCache := service.NewQueueCache(redisClient, cfg.Approvals.QueueCacheTTL, logr)
	changeCapture := service.NewChangeCapture(entityRegistry)
	applier := service.NewMutationApplier(entityRegistry)
	manageDataSvc := service.NewManageDataService(
		entityRegistry, changeCapture, approvalRepo, userRepo, auditRepo, queueCache, metricsSvc, validate, logr)
	approvalSvc := service.NewApprovalService(
		approvalRepo, recordStore, applier, auditRepo, queueCache, metricsSvc, logr)
	exportSvc := service.NewExportService(approvalRepo)

	// Handlers.
	manageDataHandler := handler.NewManageDataHandler(manageDataSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	manageData := api.Group("/manage-data")
	manageData.Use(middleware.RequireRoles(models.RoleAdmin, models.RolePlanner, models.RoleInputter))
	manageData.PUT("/:entityKind/:id", manageDataHandler.Update)
	manageData.DELETE("/:entityKind/:id", manageDataHandler.Delete)

	approvals := api.Group("/approvals")
	approvals.Use(middleware.RequireRoles(models.RoleAdmin, models.RolePlanner, models.RoleInputter))
	approvals.GET("", approvalHandler.List)
	if cfg.Approvals.ExportEnabled {
		approvals.GET("/export",
			middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(auditRepo, "EXPORT", "approvals"),
			approvalHandler.Export)
	}
	approvals.GET("/:id", approvalHandler.Get)
	approvals.PUT("/:id",
		middleware.RequireRoles(models.RoleAdmin, models.RolePlanner),
		approvalHandler.Resolve)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
