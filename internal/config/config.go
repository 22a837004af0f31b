package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Cache      CacheConfig
	Imgix      ImgixConfig
	Session    SessionConfig
	Moderation ModerationConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	TTL       time.Duration
	RedisAddr string
}

// ImgixConfig holds the imgix management API settings
type ImgixConfig struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	RateLimitDur time.Duration
}

// SessionConfig holds dialog session settings
type SessionConfig struct {
	JWTSecret     string
	JWTIssuer     string
	IdleTTL       time.Duration
	TokenTTL      time.Duration
	SweepInterval time.Duration
}

// ModerationConfig holds image moderation settings.
type ModerationConfig struct {
	Enabled          bool
	AWSRegion        string
	RejectConfidence float64
	Timeout          time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// Load parses flags and environment variables to build configuration
func Load() *Config {
	cfg := &Config{}

	// Define flags with defaults
	httpAddr := flag.String("http", ":8080", "HTTP server address")
	cacheTTL := flag.Duration("cache-ttl", 5*time.Minute, "Cache TTL for source lists and asset pages")
	cacheBackend := flag.String("cache-backend", "memory", "Cache backend: memory or redis")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	imgixTimeout := flag.Duration("imgix-timeout", 30*time.Second, "imgix management API request timeout")
	rateLimitDur := flag.Duration("rate-limit", time.Second, "Minimum delay between requests to the imgix API")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	// Apply environment variable overrides
	applyEnvOverrides(httpAddr, cacheTTL, cacheBackend, redisAddr, imgixTimeout, rateLimitDur, logLevel)

	// Build config struct
	cfg.Server = ServerConfig{
		HTTPAddr: *httpAddr,
	}

	cfg.Cache = CacheConfig{
		Backend:   *cacheBackend,
		TTL:       *cacheTTL,
		RedisAddr: *redisAddr,
	}

	cfg.Imgix = ImgixConfig{
		APIKey:       os.Getenv("IMGIX_API_KEY"),
		BaseURL:      os.Getenv("IMGIX_BASE_URL"),
		Timeout:      *imgixTimeout,
		RateLimitDur: *rateLimitDur,
	}

	cfg.Logging = LoggingConfig{
		Level: *logLevel,
	}

	// Load session config from environment
	cfg.Session = loadSessionConfig()

	// Load moderation config from environment
	cfg.Moderation = loadModerationConfig()

	return cfg
}

func loadSessionConfig() SessionConfig {
	idleTTL := 30 * time.Minute
	if v := os.Getenv("SESSION_IDLE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			idleTTL = d
		}
	}

	tokenTTL := 24 * time.Hour
	if v := os.Getenv("SESSION_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			tokenTTL = d
		}
	}

	sweep := time.Minute
	if v := os.Getenv("SESSION_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			sweep = d
		}
	}

	return SessionConfig{
		JWTSecret:     getEnvOrDefault("SESSION_JWT_SECRET", "change-me-in-production"),
		JWTIssuer:     getEnvOrDefault("SESSION_JWT_ISSUER", "imgix-contentful"),
		IdleTTL:       idleTTL,
		TokenTTL:      tokenTTL,
		SweepInterval: sweep,
	}
}

func loadModerationConfig() ModerationConfig {
	rejectConfidence := 70.0
	if v := os.Getenv("MODERATION_REJECT_CONFIDENCE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			rejectConfidence = parsed
		}
	}

	timeout := 5 * time.Second
	if v := os.Getenv("MODERATION_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			timeout = parsed
		}
	}

	enabled := false
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("IMAGE_MODERATION_ENABLED"))); v == "true" || v == "1" {
		enabled = true
	}

	return ModerationConfig{
		Enabled:          enabled,
		AWSRegion:        os.Getenv("AWS_REGION"),
		RejectConfidence: rejectConfidence,
		Timeout:          timeout,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func applyEnvOverrides(
	httpAddr *string,
	cacheTTL *time.Duration,
	cacheBackend *string,
	redisAddr *string,
	imgixTimeout *time.Duration,
	rateLimitDur *time.Duration,
	logLevel *string,
) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		*httpAddr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*cacheTTL = d
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		*cacheBackend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		*redisAddr = v
	}
	if v := os.Getenv("IMGIX_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*imgixTimeout = d
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*rateLimitDur = d
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		*logLevel = v
	}
}
