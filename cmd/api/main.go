package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-cake-store/internal/handler"
	"go-cake-store/internal/middleware"
	"go-cake-store/internal/model"
	"go-cake-store/internal/repository"
	"go-cake-store/internal/service"
	"go-cake-store/internal/ws"
	"go-cake-store/pkg/config"
	"go-cake-store/pkg/database"
	"go-cake-store/pkg/jwt"
	"go-cake-store/pkg/lock"
	"go-cake-store/pkg/logger"
	"go-cake-store/pkg/metrics"
	"go-cake-store/pkg/tracing"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

const serviceName = "cake-store"

func main() {
	// 1. Config & logging
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(err)
	}
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: serviceName,
	}); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.GetLogger()
	log.Info("Starting service", cfg.LogFields()...)

	shutdownTracing, err := tracing.Init(cfg.Tracing.Enabled, serviceName)
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}
	metrics.Register()

	// 2. Database
	db, err := database.ConnectDB(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to connect database", zap.Error(err))
	}
	// AutoMigrate keeps local setups simple; production runs the same models through a release job
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatal("Failed to migrate", zap.Error(err))
	}

	// 3. Cart line lock: redis when configured, otherwise the database upsert alone
	var locker lock.Locker = lock.NoopLocker{}
	if cfg.Redis.URL != "" {
		client, err := lock.NewRedisClient(context.Background(), cfg.Redis.URL)
		if err != nil {
			log.Fatal("Failed to connect redis", zap.Error(err))
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, serviceName+":cart", cfg.Redis.LockTTL, cfg.Redis.LockWait)
	}

	// 4. WebSocket hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	wsHub := ws.NewHub()
	go wsHub.Run(hubCtx)

	// 5. Dependency injection
	productRepo := repository.NewProductRepo(db)
	optionRepo := repository.NewOptionRepo(db)
	cartRepo := repository.NewCartRepo(db)

	catalogService := service.NewCatalogService(productRepo, optionRepo)
	cartService := service.NewCartService(cartRepo, locker, wsHub, cfg.Cart.MaxWriteAttempts)

	catalogHandler := handler.NewCatalogHandler(catalogService)
	cartHandler := handler.NewCartHandler(cartService)
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpirationHours)*time.Hour)

	// 6. Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Cake Store Catalog & Cart v1.0",
		BodyLimit: cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(metrics.Middleware(serviceName))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	// 7. Routes
	api := app.Group("/api/v1")
	handler.RegisterRoutes(api, tokens, catalogHandler, cartHandler)

	// WebSocket: live cart updates for the token's owner
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}, middleware.RequireIdentity(tokens))
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		tenantID, _ := c.Locals(middleware.LocalTenantID).(uint)
		userID, _ := c.Locals(middleware.LocalUserID).(uint)
		client := &ws.Client{Conn: c, TenantID: tenantID, UserID: userID}

		if !wsHub.Join(client) {
			return
		}
		defer wsHub.Leave(client)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Panic("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stopHub()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		log.Warn("Tracer shutdown", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Warn("Database close", zap.Error(err))
	}
	log.Info("Server exited")
}
