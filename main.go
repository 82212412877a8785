package main

import (
	"fmt"
	"time"

	"memoryshare/config"
	"memoryshare/handlers/api"
	"memoryshare/mail"
	"memoryshare/middleware"
	"memoryshare/storage"
	"memoryshare/tagger"
	"memoryshare/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

// Helper function to determine if request is an API request
func isAPIRequest(c *fiber.Ctx) bool {
	if c == nil {
		return false
	}
	path := c.Path()
	return len(path) >= 4 && path[:4] == "/api"
}

func main() {
	utils.Log.Info("Initializing memoryshare...")

	// Load configuration
	cfg, err := config.LoadConfig("config.toml")
	if err != nil {
		utils.Log.Error("Failed to load config: %v", err)
		return
	}
	if err := cfg.EnsureDirs(); err != nil {
		utils.Log.Error("Failed to prepare storage directories: %v", err)
		return
	}

	// Initialize i18n system
	if err := utils.InitI18n(); err != nil {
		utils.Log.Error("Failed to initialize i18n: %v", err)
	}

	// Open the database and storage layers
	db, err := storage.InitDB(cfg.Storage.DataDir)
	if err != nil {
		utils.Log.Error("Failed to open database: %v", err)
		return
	}
	defer db.Close()

	memories := storage.NewMemoryStore(db)
	media, err := storage.NewMediaStore(cfg.Storage.MediaDir, cfg.Upload.ImageMaxWidth)
	if err != nil {
		utils.Log.Error("Failed to initialize media storage: %v", err)
		return
	}

	// Mail dispatcher (best-effort notifications)
	var dispatcher *mail.Dispatcher
	if cfg.Mail.Enabled {
		dispatcher = mail.NewDispatcher(cfg.Mail)
		utils.Log.Info("Mail notifications enabled: host=%s from=%s", cfg.Mail.Host, cfg.Mail.From)
	} else {
		utils.Log.Info("Mail notifications disabled")
	}

	// Tag suggestion backend
	tg := tagger.New(cfg.Tagger)
	if tg == nil {
		utils.Log.Info("Tag suggestions disabled")
	} else {
		utils.Log.Info("Tag suggestions enabled: provider=%s", cfg.Tagger.Provider)
	}

	// Initialize Fiber
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimit(),
		ErrorHandler: api.NewErrorHandler(cfg),
	})

	// Add global middleware
	app.Use(recover.New()) // Recover from panics
	app.Use(logger.New())  // Request logging
	app.Use(compress.New())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "no-referrer",
	}))
	app.Use(middleware.LocaleMiddleware())
	app.Use(middleware.RateLimiter(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.PerMins)*time.Minute))

	// Initialize handlers
	notificationHandler := api.NewNotificationHandler()
	memoryHandler := api.NewMemoryHandler(cfg, memories, media, dispatcher, notificationHandler)
	tagsHandler := api.NewTagsHandler(cfg, tg)

	// API routes
	apiRoutes := app.Group("/api")
	{
		apiRoutes.Post("/add-media", memoryHandler.HandleAddMedia)
		apiRoutes.Get("/memories", memoryHandler.HandleListMemories)
		apiRoutes.Get("/memories/:id", memoryHandler.HandleGetMemory)
		apiRoutes.Get("/memories/:id/media", memoryHandler.HandleGetMedia)
		apiRoutes.Delete("/memories/:id", memoryHandler.HandleDeleteMemory)
		apiRoutes.Get("/tags", memoryHandler.HandleListTags)
		apiRoutes.Post("/suggest-tags", tagsHandler.HandleSuggestTags)
		apiRoutes.Get("/notifications", notificationHandler.HandleSSE)
	}

	// WebSocket notification stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/notifications", websocket.New(notificationHandler.HandleWebSocket))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// 404 Handler for undefined routes
	app.Use(func(c *fiber.Ctx) error {
		if isAPIRequest(c) {
			return c.Status(404).JSON(fiber.Map{
				"error": "Not found",
			})
		}
		return c.SendStatus(404)
	})

	// Start server
	utils.Log.Info("Starting server on port %d...", cfg.Server.Port)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		utils.Log.Error("Error starting server: %v", err)
	}
}
