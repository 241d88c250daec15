// main.go
package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"shelfquest/abstats"
	"shelfquest/catalog"
	"shelfquest/config"
	"shelfquest/database"
	"shelfquest/handlers"
	"shelfquest/middleware"
	"shelfquest/notifier"
	"shelfquest/services"
	"shelfquest/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	// Initialize database
	database.InitDB()
	defer database.CloseDB()

	// Load the achievement catalog
	rules, err := catalog.Load(cfg.AchievementsPath)
	if err != nil {
		log.Fatalf("FATAL: failed to load achievement definitions from %s: %v", cfg.AchievementsPath, err)
	}
	rules = catalog.FilterEnabled(rules)
	log.Printf("✅ Loaded %d achievement definitions", len(rules))

	ledger := store.NewGormLedger(database.GetDB())
	stats := abstats.NewClient(cfg.AbsStatsBaseURL)

	// Notifiers are optional; unset env leaves them disabled
	var discord *notifier.DiscordNotifier
	if cfg.DiscordProxyURL != "" {
		discord = notifier.NewDiscordNotifier(cfg.DiscordProxyURL, config.UserAliases())
		log.Println("✅ Discord notifications enabled")
	}
	email := notifier.NewEmailNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	if email.Enabled() {
		log.Println("✅ Email notifications enabled")
	}

	// Initialize background engine
	services.InitEngine(cfg, stats, ledger, discord, email, rules)
	services.GetEngine().Start()
	defer func() {
		if e := services.GetEngine(); e != nil {
			e.Stop()
		}
	}()

	handlers.InitDashboard(cfg, ledger, stats)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "*"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Serve achievement icons and the raw definitions file from the data dir
	app.Static("/icons", filepath.Join(cfg.DataDir, "icons"))
	app.Get("/achievements.points.json", handlers.Page("achievements.points.json"))

	// Dashboard pages
	app.Get("/", handlers.Page("index.html"))
	app.Get("/leaderboard", handlers.Page("leaderboard.html"))
	app.Get("/timeline", handlers.Page("timeline.html"))

	// API Routes
	api := app.Group("/api")
	api.Use(middleware.FiberRateLimitMiddleware())
	api.Get("/awards", handlers.GetAwards)
	api.Get("/progress", handlers.GetProgress)
	api.Get("/definitions", handlers.GetDefinitions)
	api.Get("/achievements", handlers.GetAchievementsLegacy)
	api.Get("/ui-config", handlers.GetUIConfig)

	// Health check endpoint
	app.Get("/health", handlers.Health)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	log.Printf("🚀 HTTP server starting on %s", cfg.ListenAddr)
	log.Printf("📊 Stats source: %s", cfg.AbsStatsBaseURL)
	log.Printf("🔄 Evaluation interval: %ds", cfg.PollSeconds)

	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
