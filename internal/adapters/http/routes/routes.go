package routes

import (
	"time"

	"libtrack/internal/adapters/http/handlers"
	"libtrack/internal/adapters/http/middleware"
	"libtrack/internal/adapters/persistence/repositories"
	"libtrack/internal/config"
	"libtrack/internal/core/domain"
	"libtrack/internal/core/services"
	"libtrack/internal/pkg/clock"
	"libtrack/internal/pkg/idgen"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Services holds the wired core services shared by the HTTP layer and
// background jobs
type Services struct {
	Lending          *services.LendingService
	Accounts         *services.AccountService
	RefreshTokenRepo repositories.RefreshTokenRepository
	Clock            clock.Clock
}

// NewServices wires repositories and services on top of db
func NewServices(db *gorm.DB, cfg *config.Config, clk clock.Clock, ids idgen.Generator) (*Services, error) {
	policy, err := domain.ParsePolicy(cfg.Library.AccessPolicy)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	catalogStore := repositories.NewCatalogStore(db)
	loanLedger := repositories.NewLoanLedger(db)
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)

	// Initialize services
	lending := services.NewLendingService(catalogStore, loanLedger, policy, ids)
	accounts := services.NewAccountService(userRepo, refreshTokenRepo, lending, ids, clk, cfg)

	return &Services{
		Lending:          lending,
		Accounts:         accounts,
		RefreshTokenRepo: refreshTokenRepo,
		Clock:            clk,
	}, nil
}

// Setup configures all routes for the application
func Setup(app *fiber.App, svc *Services, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, svc.Lending.Policy().Name())
	authHandler := handlers.NewAuthHandler(svc.Accounts, cfg)
	bookHandler := handlers.NewBookHandler(svc.Lending, svc.Clock)
	studentHandler := handlers.NewStudentHandler(svc.Lending)
	userHandler := handlers.NewUserHandler(svc.Accounts)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)
	setupBookRoutes(apiV1.Group("/books", middleware.NoCacheHeaders()), bookHandler, cfg)
	setupStudentRoutes(apiV1.Group("/students"), studentHandler, cfg)
	setupUserRoutes(apiV1, userHandler, cfg)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, h *handlers.AuthHandler, cfg *config.Config) {
	// Public routes with rate limiting
	router.Post("/register", middleware.AuthRateLimiter(cfg.RateLimit), middleware.OptionalAuth(cfg), h.Register)
	router.Post("/login", middleware.AuthRateLimiter(cfg.RateLimit), h.Login)
	router.Post("/refresh", h.RefreshToken)
	router.Post("/logout", h.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), middleware.PrivateCacheHeaders(30*time.Second), h.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), h.LogoutAll)
}

// setupBookRoutes configures catalog and circulation routes
func setupBookRoutes(router fiber.Router, h *handlers.BookHandler, cfg *config.Config) {
	// Browsing works without a token; can_return is computed for the caller
	router.Get("/", middleware.OptionalAuth(cfg), h.ListBooks)

	auth := middleware.AuthMiddleware(cfg)
	circulation := middleware.CirculationRateLimiter(cfg.RateLimit)
	router.Post("/borrow", auth, circulation, h.Borrow)
	router.Post("/return", auth, circulation, h.Return)
	router.Post("/", auth, middleware.AdminOnly(), h.CreateBook)

	router.Get("/:id/history", auth, middleware.AdminOnly(), h.History)
	router.Get("/:id", middleware.OptionalAuth(cfg), h.GetBook)
}

// setupStudentRoutes configures student routes
func setupStudentRoutes(router fiber.Router, h *handlers.StudentHandler, cfg *config.Config) {
	router.Use(middleware.AuthMiddleware(cfg))

	router.Get("/", h.ListStudents)
	router.Post("/", middleware.AdminOnly(), h.RegisterStudent)
}

// setupUserRoutes configures account management and profile routes
func setupUserRoutes(router fiber.Router, h *handlers.UserHandler, cfg *config.Config) {
	auth := middleware.AuthMiddleware(cfg)

	router.Get("/users", auth, middleware.AdminOnly(), h.ListUsers)
	router.Put("/profile/password", auth, h.ChangePassword)
}
