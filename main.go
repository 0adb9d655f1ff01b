// main.go
package main

import (
	"os"
	"time"

	"taaltoren/config"
	"taaltoren/database"
	"taaltoren/handlers"
	applog "taaltoren/logger"
	"taaltoren/middleware"
	"taaltoren/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables (.env is optional)
	_ = godotenv.Load()

	applog.Init()
	defer applog.Sync()

	validateEnvironment()

	cfg, err := config.Load(".")
	if err != nil {
		applog.Log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	database.InitDB(cfg)
	defer database.CloseDB()

	// Load word lists
	words := services.NewWordBank()
	if err := words.LoadFromDir(cfg.Words.Dir); err != nil {
		applog.Log.Warnf("Word files not loaded: %v", err)
	}

	// Session leaderboard broadcaster
	scoreboard := services.NewScoreboard(newSnapshotStore(cfg), cfg.Session.RoundSeconds)
	scoreboard.Start()
	defer scoreboard.Stop()

	handlers.InitServices(database.GetDB(), words, scoreboard, []byte(os.Getenv("JWT_SECRET")))

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Use(middleware.RateLimitMiddleware())

	// API Routes
	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.AuthRateLimitMiddleware())
	authGroup.Post("/register", handlers.Register)
	authGroup.Post("/login", handlers.Login)
	authGroup.Post("/guest", handlers.GuestLogin)

	// Vocabulary quiz
	api.Get("/words/question", handlers.GetQuestion)
	api.Post("/words/answer", middleware.AuthMiddleware, handlers.AnswerQuestion)

	// Points economy
	api.Get("/my-stats", middleware.AuthMiddleware, handlers.MyStats)
	api.Post("/game/play", middleware.AuthMiddleware, handlers.Play)
	api.Post("/game/deposit", middleware.AuthMiddleware, handlers.Deposit)
	api.Post("/game/withdraw", middleware.AuthMiddleware, handlers.Withdraw)
	api.Get("/game/history", middleware.AuthMiddleware, handlers.GameHistory)

	// Public leaderboard
	api.Get("/leaderboard", handlers.GetLeaderboard)

	// Session scores snapshot + push channel
	app.Get("/scores/public", handlers.PublicScores)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(handlers.ScoresSocket))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"ok": true,
			"ts": time.Now().UnixMilli(),
		})
	})

	applog.Log.Infof("HTTP server starting on %s", cfg.Server.Address)
	if err := app.Listen(cfg.Server.Address); err != nil {
		applog.Log.Fatalf("Failed to start HTTP server: %v", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		applog.Log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		applog.Log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}
}

func newSnapshotStore(cfg *config.Config) services.SnapshotStore {
	if cfg.Snapshot.Backend == "file" {
		store, err := services.NewFileSnapshotStore(cfg.Snapshot.Dir)
		if err != nil {
			applog.Log.Fatalf("Failed to open snapshot dir: %v", err)
		}
		return store
	}
	return services.NewDBSnapshotStore(database.GetDB())
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"ok":    false,
		"error": "server_error",
	})
}
