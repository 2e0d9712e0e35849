package main

import (
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/audit"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/handler"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/limits"
	mid "github.com/Fedevops/tyr-crm-ai-sub001/internal/middleware"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/store"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/config"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/database"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/jwtutil"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/logger"
	"github.com/Fedevops/tyr-crm-ai-sub001/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const serviceName = "crm-service"

func main() {
	// Load configuration
	appConfig, err := config.Load(serviceName)
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting crm-service", appConfig.LogConfig()...)

	// Initialize database
	db, err := database.InitDB(&appConfig.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := database.MigrateModels(db,
		&model.Tenant{},
		&model.User{},
		&model.PartnerOrg{},
		&model.PartnerUser{},
		&model.Lead{},
		&model.Account{},
		&model.Contact{},
		&model.Opportunity{},
		&model.Item{},
		&model.Task{},
		&model.Appointment{},
		&model.TenantLimit{},
		&model.AuditLog{},
		&model.APIUsage{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed")

	// Credential codec and stores
	codec := jwtutil.NewJWTUtil(&appConfig.JWT)
	principalStore := store.NewPrincipalStore(db)
	limitStore := store.NewLimitStore(db)
	auditStore := store.NewAuditStore(db)
	usageStore := store.NewUsageStore(db)

	// Core components
	resolver := principal.NewResolver(codec, principalStore, principalStore)
	limiter := limits.NewLimiter(limitStore, log)
	recorder := audit.NewRecorder(auditStore, log, prometheus.RecordAuditFailure)

	// Handlers
	authHandler := handler.NewAuthHandler(db, codec)
	leadHandler := handler.NewLeadHandler(db, limiter, recorder)
	accountHandler := handler.NewAccountHandler(db, recorder)
	contactHandler := handler.NewContactHandler(db, recorder)
	opportunityHandler := handler.NewOpportunityHandler(db, recorder)
	itemHandler := handler.NewItemHandler(db, limiter, recorder)
	taskHandler := handler.NewTaskHandler(db, recorder)
	appointmentHandler := handler.NewAppointmentHandler(db, recorder)
	userHandler := handler.NewUserHandler(db, limiter, recorder)
	auditLogHandler := handler.NewAuditLogHandler(recorder)
	partnerHandler := handler.NewPartnerHandler(db)
	healthHandler := handler.NewHealthHandler(db, serviceName)

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestID())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Operational endpoints
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Authentication routes
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/partner/login", authHandler.PartnerLogin)

	// Tenant API routes
	api := e.Group("/api", mid.Auth(resolver), mid.CountAPIUsage(usageStore))

	api.GET("/leads", leadHandler.List)
	api.GET("/leads/:id", leadHandler.Get)
	api.POST("/leads", leadHandler.Create)
	api.PUT("/leads/:id", leadHandler.Update)
	api.DELETE("/leads/:id", leadHandler.Delete)
	api.POST("/leads/:id/assign", leadHandler.Assign)
	api.PATCH("/leads/:id/status", leadHandler.UpdateStatus)
	api.POST("/leads/:id/convert", leadHandler.Convert)

	api.GET("/accounts", accountHandler.List)
	api.GET("/accounts/:id", accountHandler.Get)
	api.POST("/accounts", accountHandler.Create)
	api.PUT("/accounts/:id", accountHandler.Update)
	api.DELETE("/accounts/:id", accountHandler.Delete)

	api.GET("/contacts", contactHandler.List)
	api.GET("/contacts/:id", contactHandler.Get)
	api.POST("/contacts", contactHandler.Create)
	api.PUT("/contacts/:id", contactHandler.Update)
	api.DELETE("/contacts/:id", contactHandler.Delete)

	api.GET("/opportunities", opportunityHandler.List)
	api.GET("/opportunities/:id", opportunityHandler.Get)
	api.POST("/opportunities", opportunityHandler.Create)
	api.PUT("/opportunities/:id", opportunityHandler.Update)
	api.PATCH("/opportunities/:id/stage", opportunityHandler.UpdateStage)
	api.DELETE("/opportunities/:id", opportunityHandler.Delete)

	api.GET("/items", itemHandler.List)
	api.GET("/items/:id", itemHandler.Get)
	api.POST("/items", itemHandler.Create)
	api.PUT("/items/:id", itemHandler.Update)
	api.DELETE("/items/:id", itemHandler.Delete)

	api.GET("/tasks", taskHandler.List)
	api.GET("/tasks/:id", taskHandler.Get)
	api.POST("/tasks", taskHandler.Create)
	api.PUT("/tasks/:id", taskHandler.Update)
	api.DELETE("/tasks/:id", taskHandler.Delete)

	api.GET("/appointments", appointmentHandler.List)
	api.GET("/appointments/:id", appointmentHandler.Get)
	api.POST("/appointments", appointmentHandler.Create)
	api.PUT("/appointments/:id", appointmentHandler.Update)
	api.DELETE("/appointments/:id", appointmentHandler.Delete)

	api.GET("/users", userHandler.List)
	api.POST("/users", userHandler.Create)
	api.PUT("/users/:id", userHandler.Update)

	api.GET("/audit-logs", auditLogHandler.List)

	// Partner portal routes (read-only)
	partner := e.Group("/partner", mid.PartnerAuth(resolver))
	partner.GET("/profile", partnerHandler.Profile)
	partner.GET("/leads", partnerHandler.Leads)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
