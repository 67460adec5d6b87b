package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"libtrack/internal/core/domain"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	Database  DatabaseConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	Library   LibraryConfig
	Cron      CronConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string // mysql | sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// LibraryConfig holds circulation settings
type LibraryConfig struct {
	AccessPolicy string
	SeedDemoData bool
}

// CronConfig holds background job schedules (robfig/cron spec strings)
type CronConfig struct {
	TokenCleanupSchedule  string
	OverdueReportSchedule string
}

// RateLimitConfig holds requests per minute. Zero disables a limiter.
type RateLimitConfig struct {
	API         int // per IP, whole app
	Auth        int // per IP, login and register
	Circulation int // per account, borrow and return
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Library:  loadLibraryConfig(appMode),
		Cron: CronConfig{
			TokenCleanupSchedule:  getEnv("TOKEN_CLEANUP_SCHEDULE", "@hourly"),
			OverdueReportSchedule: getEnv("OVERDUE_REPORT_SCHEDULE", "30 8 * * *"),
		},
		RateLimit: RateLimitConfig{
			API:         getEnvInt("RATE_LIMIT_API", 100),
			Auth:        getEnvInt("RATE_LIMIT_AUTH", 5),
			Circulation: getEnvInt("RATE_LIMIT_CIRCULATION", 20),
		},
	}

	if config.Database.Driver != "mysql" && config.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'sqlite')", config.Database.Driver)
	}
	if _, err := domain.ParsePolicy(config.Library.AccessPolicy); err != nil {
		return nil, fmt.Errorf("invalid ACCESS_POLICY: %w", err)
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, POLICY: %s]", appMode, config.Library.AccessPolicy)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Driver:     strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", "3306"),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "libtrack"),
		SQLitePath: getEnv("SQLITE_PATH", "data/libtrack.db"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadLibraryConfig loads circulation settings. Demo data is seeded in dev by default.
func loadLibraryConfig(mode string) LibraryConfig {
	seed, err := strconv.ParseBool(getEnv("SEED_DEMO_DATA", strconv.FormatBool(mode == "dev")))
	if err != nil {
		seed = false
	}

	return LibraryConfig{
		AccessPolicy: getEnv("ACCESS_POLICY", domain.PolicyServerEnforced),
		SeedDemoData: seed,
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:3000"
	}
	return origins
}
