package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DBUrl         string
	JWTSecret     string
	AllowedOrigin string
	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// Shipping calculation
	RequestTimeout       time.Duration
	BulkConcurrency      int
	MaxBulkItems         int
	OptionsLimit         int
	StrictZoneValidation bool
	// Cache
	CacheReferenceTTL time.Duration
	// Rate limiting (per client IP)
	RateLimitRPS   float64
	RateLimitBurst int
	// R2 Storage (history export)
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string
	R2UploadTimeout   time.Duration
	// Seed
	RateSheetPath string
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, system env vars otherwise
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := fromEnv()
	cfg.Validate()
	return cfg
}

func fromEnv() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBUrl:         getEnv("DB_DSN", ""),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 20),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 2),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		// Calculation defaults: 5s per request, 8 parallel bulk items, 100 items per batch, top 5 options
		RequestTimeout:       getDurationEnv("REQUEST_TIMEOUT", 5*time.Second),
		BulkConcurrency:      getIntEnv("BULK_CONCURRENCY", 8),
		MaxBulkItems:         getIntEnv("MAX_BULK_ITEMS", 100),
		OptionsLimit:         getIntEnv("OPTIONS_LIMIT", 5),
		StrictZoneValidation: getBoolEnv("STRICT_ZONE_VALIDATION", true),

		CacheReferenceTTL: getDurationEnv("CACHE_REFERENCE_TTL", 10*time.Minute),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 40),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		R2UploadTimeout:   getDurationEnv("R2_UPLOAD_TIMEOUT", 30*time.Second),

		RateSheetPath: getEnv("RATE_SHEET_PATH", "rates.yaml"),
	}
}

func (c *Config) Validate() {
	if c.DBUrl == "" {
		log.Fatal("CRITICAL: DB_DSN environment variable is required")
	}
	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
	if c.BulkConcurrency < 1 {
		log.Printf("Invalid BULK_CONCURRENCY %d, using 1", c.BulkConcurrency)
		c.BulkConcurrency = 1
	}
	if c.OptionsLimit < 1 {
		c.OptionsLimit = 5
	}
}

// ExportEnabled reports whether object storage is configured for history exports.
func (c *Config) ExportEnabled() bool {
	return c.R2AccountID != "" && c.R2BucketName != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}
