package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/exportdesk/api/internal/archive"
	"github.com/exportdesk/api/internal/config"
	"github.com/exportdesk/api/internal/exporter"
	"github.com/exportdesk/api/internal/handler"
	"github.com/exportdesk/api/internal/scheduler"
	ws "github.com/exportdesk/api/internal/websocket"
	"github.com/exportdesk/api/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client for the archive (optional)
	var redisClient *redis.Client
	if cfg.Archive.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx := context.Background()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis not available, archive disabled: %v", err)
			redisClient = nil
		}
	}

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize scheduler with the simulated exporter
	sched := scheduler.New(scheduler.Options{
		ConcurrencyLimit: cfg.Scheduler.ConcurrencyLimit,
		RetentionWindow:  cfg.Scheduler.RetentionWindow,
		AutoEvict:        cfg.Scheduler.AutoEvict,
		Exporter:         exporter.NewSimulator(cfg.Exporter.StepDelay),
		Notifier:         hub,
		Archiver:         archive.NewStore(redisClient, cfg.Archive.TTL),
	})

	// Initialize handlers
	exportHandler := handler.NewExportHandler(sched, validate)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    10 * 1024 * 1024, // 10MB
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Export routes
	exports := app.Group("/api/exports")
	exports.Post("/", exportHandler.Submit)
	exports.Get("/", exportHandler.List)
	exports.Get("/stats", exportHandler.Stats)
	exports.Post("/cancel-all", exportHandler.CancelAll)
	exports.Delete("/finished", exportHandler.ClearFinished)
	exports.Get("/:jobId", exportHandler.Get)
	exports.Post("/:jobId/cancel", exportHandler.Cancel)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/exports", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c)
	}))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sched.Shutdown(shutdownCtx); err != nil {
			log.Printf("Scheduler shutdown error: %v", err)
		}

		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    response.CodeServiceError,
			"message": message,
		},
	})
}
