package middleware

import (
	"errors"
	"time"

	"libtrack/internal/config"
	"libtrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Setup configures the app-wide middlewares
func Setup(app *fiber.App, cfg *config.Config) {
	app.Use(recover.New())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// COEP stays unset so the Swagger UI can load its assets
	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "SAMEORIGIN",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "geolocation=(), microphone=(), camera=()",
	}))

	app.Use(APIRateLimiter(cfg.RateLimit))

	// user is empty for anonymous requests
	format := "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | user=${locals:" + LocalUserID + "}"
	if cfg.IsDev() {
		app.Use(logger.New(logger.Config{Format: format + "\n"}))
	} else {
		app.Use(logger.New(logger.Config{
			Format:     format + " | ${error}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	if cfg.IsDev() {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     "*",
			AllowMethods:     "GET,POST,PUT,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
			AllowCredentials: false, // cannot be combined with "*"
		}))
	} else {
		// cookies carry the session, so origins must be listed
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.GetAllowedOrigins(),
			AllowMethods:     "GET,POST,PUT,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
			AllowCredentials: true,
		}))
	}
}

// APIRateLimiter limits every request per IP
func APIRateLimiter(limits config.RateLimitConfig) fiber.Handler {
	return newLimiter(limits.API, byIP("api"), "Too many requests, please slow down")
}

// AuthRateLimiter limits login and register attempts per IP
func AuthRateLimiter(limits config.RateLimitConfig) fiber.Handler {
	return newLimiter(limits.Auth, byIP("auth"), "Too many attempts, please wait a minute")
}

// CirculationRateLimiter limits borrow and return per account. It must run
// after AuthMiddleware.
func CirculationRateLimiter(limits config.RateLimitConfig) fiber.Handler {
	return newLimiter(limits.Circulation, func(c *fiber.Ctx) string {
		if userID, ok := c.Locals(LocalUserID).(string); ok && userID != "" {
			return "circulation-" + userID
		}
		return "circulation-" + c.IP()
	}, "Too many borrow or return requests, please wait a minute")
}

// newLimiter allows perMinute requests per key. Zero lets everything through.
func newLimiter(perMinute int, key func(*fiber.Ctx) string, message string) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return limiter.New(limiter.Config{
		Max:          perMinute,
		Expiration:   1 * time.Minute,
		KeyGenerator: key,
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, message)
		},
	})
}

func byIP(scope string) func(*fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		return c.IP() + "-" + scope
	}
}

// CustomErrorHandler handles errors globally, using the response envelope
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, message)
}
