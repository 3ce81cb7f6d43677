package main

import (
	"os"

	_ "shopapi/api/swagger" // swagger docs
	"shopapi/internal/database"
	"shopapi/internal/handler"
	"shopapi/internal/middleware"
	"shopapi/internal/notify"
	"shopapi/internal/repository"
	"shopapi/internal/service"
	"shopapi/internal/websocket"
	"shopapi/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Shop API
// @version         1.0
// @description     E-commerce backend with role-based access control.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		logger.L().Info("no configs/.env file found")
	}
	if err := logger.Initialize(); err != nil {
		logger.L().WithError(err).Fatal("logger initialization failed")
	}

	dsn := buildDSN()
	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.L().WithError(err).Fatal("database connection failed")
	}
	logger.L().Info("connected to PostgreSQL")

	if err := database.Seed(db); err != nil {
		logger.L().WithError(err).Fatal("database seeding failed")
	}

	// WebSocket hub for back-office notifications
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Notification fan-out: Telegram plus the websocket hub
	notifier := notify.Fanout{
		notify.NewTelegram(os.Getenv("TELEGRAM_BOT_TOKEN"),
			os.Getenv("TELEGRAM_CHAT_ID"),
			os.Getenv("TELEGRAM_GROUP_CHAT_ID")),
		notify.NewHubSink(wsHub),
	}

	// Repository -> Service -> Handler wiring
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authzService := service.NewAuthzService(userRepo, roleRepo, permRepo, auditRepo)
	userService := service.NewUserService(userRepo, roleRepo, auditRepo)
	roleService := service.NewRoleService(roleRepo, permRepo, txManager)
	permService := service.NewPermissionService(permRepo)
	productService := service.NewProductService(productRepo)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, auditRepo, txManager, notifier)
	auditService := service.NewAuditService(auditRepo)
	statsService := service.NewStatsService(db)

	authz := service.SlugAuthorizer{Authz: authzService}

	authHandler := handler.NewAuthHandler(userService)
	userHandler := handler.NewUserHandler(userService, authzService, authz)
	roleHandler := handler.NewRoleHandler(roleService, authzService, authz)
	permHandler := handler.NewPermissionHandler(permService, authz)
	productHandler := handler.NewProductHandler(productService, authz)
	orderHandler := handler.NewOrderHandler(orderService, authz)
	auditHandler := handler.NewAuditHandler(auditService, authz)
	statsHandler := handler.NewStatsHandler(statsService, authz)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret(), authz)
	})

	// Public and customer routes
	api := router.Group("/api")
	authHandler.RegisterRoutes(api)
	productHandler.RegisterPublicRoutes(api)
	orderHandler.RegisterRoutes(api)

	// Back-office routes: authentication first, then per-route permission guards
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAuth())
	userHandler.RegisterRoutes(admin)
	roleHandler.RegisterRoutes(admin)
	permHandler.RegisterRoutes(admin)
	productHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	auditHandler.RegisterRoutes(admin)
	statsHandler.RegisterRoutes(admin)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.L().WithField("port", port).Info("server listening")
	if err := router.Run(":" + port); err != nil {
		logger.L().WithError(err).Fatal("server failed")
	}
}

func buildDSN() string {
	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	host := get("DB_HOST", "localhost")
	port := get("DB_PORT", "5432")
	user := get("DB_USER", "postgres")
	password := get("DB_PASSWORD", "postgres")
	name := get("DB_NAME", "postgres")
	sslMode := get("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + name + "?sslmode=" + sslMode
}
