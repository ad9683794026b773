package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once from the environment at startup.
type Config struct {
	Port            string
	IsProduction    bool
	LogLevel        string
	SessionTimeout  time.Duration
	CookieMaxAge    time.Duration
	StaticCacheAge  time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
	StoreBackend    string
	StorePath       string
	ProgressMaxAge  time.Duration
	CleanupInterval time.Duration
	// RandSeed seeds the session RNG. Zero draws a seed from the runtime.
	RandSeed uint64
}

// loadConfig reads .env if present, then the process environment.
func loadConfig() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logWarn("Failed to load .env: %v", err)
	}

	production := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	cfg := Config{
		Port:            getEnvString("PORT", "8080"),
		IsProduction:    production,
		LogLevel:        getEnvString("LOG_LEVEL", "info"),
		SessionTimeout:  getEnvDuration("SESSION_TIMEOUT", 2*time.Hour),
		CookieMaxAge:    getEnvDuration("COOKIE_MAX_AGE", 365*24*time.Hour),
		StaticCacheAge:  getEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 10),
		StoreBackend:    strings.ToLower(getEnvString("STORE_BACKEND", StoreMemory)),
		StorePath:       getEnvString("STORE_PATH", ""),
		ProgressMaxAge:  getEnvDuration("PROGRESS_MAX_AGE", 90*24*time.Hour),
		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", 10*time.Minute),
		RandSeed:        uint64(max(getEnvInt("RAND_SEED", 0), 0)),
	}
	if cfg.StorePath == "" {
		switch cfg.StoreBackend {
		case StoreFile:
			cfg.StorePath = "data/progress"
		case StoreSQLite:
			cfg.StorePath = "data/frazludo.db"
		}
	}
	return cfg
}
