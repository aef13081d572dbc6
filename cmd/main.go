package main

import (
	"time"

	"hms-service/internal/handler"
	"hms-service/internal/middleware"
	"hms-service/internal/model"
	"hms-service/internal/tenantdb"
	"hms-service/pkg/config"
	"hms-service/pkg/database"
	"hms-service/pkg/jwtutil"
	"hms-service/pkg/logger"
	"hms-service/pkg/superadmin"
	"hms-service/pkg/validator"
	"hms-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting HMS service...", zap.String("environment", cfg.Server.Env))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize the shared database and run shared-store migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize shared database", zap.Error(err))
	}
	if err := database.MigrateModels(database.GetDB(), model.SharedModels()...); err != nil {
		log.Fatal("Failed to migrate shared store", zap.Error(err))
	}
	log.Info("Shared database ready",
		zap.String("db_host", cfg.DB.Host),
		zap.String("db_name", cfg.DB.DBName))

	// Token validation is local: only the signing key shared with SuperAdmin
	// is needed per request.
	jwt := jwtutil.NewJWTUtil(&cfg.JWT)

	// Tenant stores open lazily on first authenticated request per tenant.
	registry := tenantdb.NewRegistry(&cfg.DB, &cfg.Tenant,
		func(sc tenantdb.StoreConfig) (*gorm.DB, error) {
			return database.Open(sc.DSN, &cfg.DB)
		},
		func(db *gorm.DB) error {
			return database.MigrateModels(db, model.TenantModels()...)
		},
		log,
	)

	sharedStore := &tenantdb.Store{Name: "shared", DB: database.GetDB()}
	router := tenantdb.NewRouter(sharedStore)

	// Record each provisioned tenant in the shared store so the admin listing
	// reflects every tenant this process has served.
	registry.OnProvision(func(info tenantdb.TenantInfo, sc tenantdb.StoreConfig) {
		if err := model.UpsertTenant(sharedStore.DB, info.ID, info.Slug, info.DatabaseURL); err != nil {
			log.Warn("Failed to record tenant in shared store",
				zap.String("tenant_id", info.ID),
				zap.Error(err))
		}
	})

	saClient := superadmin.NewClient(&cfg.SuperAdmin)
	authHandler := handler.NewAuthHandler(saClient, jwt)
	tenantHandler := handler.NewTenantHandler(registry, router)
	gate := middleware.NewAuthGate(jwt, registry, nil)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.MetricsMiddleware)

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Float64("duration_s", time.Since(start).Seconds()),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	})

	// Public routes
	e.GET("/", handler.HealthCheck)
	e.GET("/health", handler.HealthCheck)
	e.GET("/health/ready", handler.ReadyCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Everything under /api passes the authentication gate except the login
	// proxy, which is on the gate's skip list. Audit runs inside the gate so
	// the identity is still bound when it records the outcome.
	api := e.Group("/api")
	api.Use(gate.Middleware)
	api.Use(middleware.AuditMiddleware(sharedStore))

	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", authHandler.Me)

	patients := api.Group("/patients")
	patients.POST("", handler.CreatePatient)
	patients.GET("", handler.ListPatients)
	patients.GET("/:id", handler.GetPatient)
	patients.PUT("/:id", handler.UpdatePatient)
	patients.DELETE("/:id", handler.DeletePatient)

	doctors := api.Group("/doctors")
	doctors.POST("", handler.CreateDoctor)
	doctors.GET("", handler.ListDoctors)
	doctors.GET("/:id", handler.GetDoctor)
	doctors.PUT("/:id", handler.UpdateDoctor)
	doctors.DELETE("/:id", handler.DeleteDoctor)

	appointments := api.Group("/appointments")
	appointments.POST("", handler.CreateAppointment)
	appointments.GET("", handler.ListAppointments)
	appointments.GET("/:id", handler.GetAppointment)
	appointments.PUT("/:id", handler.UpdateAppointment)
	appointments.PUT("/:id/cancel", handler.CancelAppointment)
	appointments.PUT("/:id/check-in", handler.CheckInAppointment)

	visits := api.Group("/opd/visits")
	visits.POST("", handler.CreateVisit)
	visits.GET("", handler.ListVisits)
	visits.GET("/:id", handler.GetVisit)
	visits.PUT("/:id", handler.UpdateVisit)
	visits.PUT("/:id/close", handler.CloseVisit)
	visits.POST("/:id/findings", handler.AddVisitFinding)

	bills := api.Group("/billing/bills")
	bills.POST("", handler.CreateBill)
	bills.GET("", handler.ListBills)
	bills.GET("/:id", handler.GetBill)
	bills.PUT("/:id/pay", handler.PayBill)
	bills.PUT("/:id/cancel", handler.CancelBill)

	products := api.Group("/pharmacy/products")
	products.POST("", handler.CreateProduct)
	products.GET("", handler.ListProducts)
	products.GET("/:id", handler.GetProduct)
	products.PUT("/:id", handler.UpdateProduct)
	products.DELETE("/:id", handler.DeleteProduct)

	orders := api.Group("/pharmacy/orders")
	orders.POST("", handler.CreateOrder)
	orders.GET("", handler.ListOrders)
	orders.GET("/:id", handler.GetOrder)

	paymentsGroup := api.Group("/payments")
	paymentsGroup.POST("", handler.CreatePayment)
	paymentsGroup.GET("", handler.ListPayments)
	paymentsGroup.GET("/summary", handler.PaymentSummary)
	paymentsGroup.GET("/:id", handler.GetPayment)
	paymentsGroup.PUT("/:id/reconcile", handler.ReconcilePayment)

	api.GET("/admin/tenants", tenantHandler.ListTenants)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
