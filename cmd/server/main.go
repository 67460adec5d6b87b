package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"libtrack/internal/adapters/http/middleware"
	"libtrack/internal/adapters/http/routes"
	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/config"
	"libtrack/internal/core/services"
	"libtrack/internal/pkg/clock"
	"libtrack/internal/pkg/idgen"

	"github.com/gofiber/fiber/v2"

	_ "libtrack/docs" // Swagger docs
)

// @title libtrack API
// @version 1.0
// @description Library circulation tracker: catalog, borrow and return with late fines.

// @contact.name API Support
// @contact.email support@example.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	ids := idgen.Random{}
	clk := clock.System{}

	// Seed admin and demo data
	if cfg.Library.SeedDemoData {
		if err := config.NewSeeder(db, ids).Run(); err != nil {
			log.Printf("⚠️ Warning: Failed to seed data: %v", err)
		}
	}

	svc, err := routes.NewServices(db, cfg, clk, ids)
	if err != nil {
		log.Fatalf("❌ Failed to wire services: %v", err)
	}

	// Background jobs: refresh token cleanup + overdue summary
	cronService := services.NewCronService(svc.RefreshTokenRepo, svc.Lending, clk, cfg.Cron)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "libtrack API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, svc, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
