package main

import (
	"context"
	"log"

	_ "procurement/api/swagger" // swagger docs
	"procurement/internal/config"
	"procurement/internal/database"
	"procurement/internal/handler"
	"procurement/internal/middleware"
	"procurement/internal/repository"
	"procurement/internal/scheduler"
	"procurement/internal/service"
	"procurement/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Procurement API
// @version         1.0
// @description     Suppliers, products, RFQs, quotations, evaluations and awards.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.API.GinMode)

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Database handle unavailable: %v", err)
	}
	feedDB := sqlx.NewDb(sqlDB, "postgres")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	secret := []byte(cfg.API.JWTSecret)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	productRepo := repository.NewProductRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	rfqRepo := repository.NewRFQRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	activityRepo := repository.NewActivityRepository(db, feedDB)
	statisticsRepo := repository.NewStatisticsRepository(db)

	activityService := service.NewActivityService(activityRepo)
	userService := service.NewUserService(userRepo, roleRepo, activityService, txManager, secret)

	auth := middleware.NewAuth(secret, userService.Permissions, 0, cfg.API.GinMode == gin.ReleaseMode)
	roleService := service.NewRoleService(roleRepo, txManager, func() { auth.ClearPermissionCache(nil) })

	catalogService := service.NewCatalogService(catalogRepo, wsHub)
	productService := service.NewProductService(productRepo, catalogRepo, activityService, txManager, wsHub)
	supplierService := service.NewSupplierService(supplierRepo, productRepo, activityService, txManager, wsHub)
	rfqService := service.NewRFQService(rfqRepo, productRepo, activityService, txManager, wsHub)
	quotationService := service.NewQuotationService(quotationRepo, rfqRepo, supplierRepo, evaluationRepo, activityService, txManager, wsHub)
	evaluationService := service.NewEvaluationService(evaluationRepo, quotationRepo, rfqRepo, activityService, txManager, wsHub)
	statisticsService := service.NewStatisticsService(statisticsRepo)

	ctx := context.Background()
	if err := roleService.SeedDefaultRolesAndPermissions(ctx); err != nil {
		log.Printf("WARNING: Failed to seed roles and permissions: %v", err)
	}
	if cfg.API.AdminPassword != "" {
		if err := userService.SeedAdmin(ctx, cfg.API.AdminUsername, cfg.API.AdminPassword); err != nil {
			log.Printf("WARNING: Failed to seed admin account: %v", err)
		}
	}

	if cfg.API.DeadlineSweepCron != "" {
		sweeper := scheduler.NewSweeper("deadline sweep", rfqService.SweepExpired, 0)
		if err := sweeper.Start(cfg.API.DeadlineSweepCron); err != nil {
			log.Fatalf("Invalid DEADLINE_SWEEP_CRON: %v", err)
		}
		defer sweeper.Stop()
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, auth)
	roleHandler := handler.NewRoleHandler(roleService)
	productHandler := handler.NewProductHandler(productService, catalogService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	rfqHandler := handler.NewRFQHandler(rfqService)
	quotationHandler := handler.NewQuotationHandler(quotationService, evaluationService)
	activityHandler := handler.NewActivityHandler(activityService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.API.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, func(token string) error {
			_, _, err := middleware.ParseToken(secret, token)
			return err
		})
	})

	// API Routing
	public := router.Group("")
	protected := router.Group("/api", auth.Authenticate())

	userHandler.RegisterRoutes(public, protected)
	roleHandler.RegisterRoutes(protected)
	productHandler.RegisterRoutes(protected)
	supplierHandler.RegisterRoutes(protected)
	rfqHandler.RegisterRoutes(protected)
	quotationHandler.RegisterRoutes(protected)
	activityHandler.RegisterRoutes(protected)
	statisticsHandler.RegisterRoutes(protected)

	log.Printf("Server listening on :%s", cfg.API.Port)
	if err := router.Run(":" + cfg.API.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
