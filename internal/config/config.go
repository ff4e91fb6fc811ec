package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Server     ServerConfig
	Analysis   AnalysisConfig
	Feed       FeedConfig
	Share      ShareConfig
	Log        LogConfig
	SelfHosted bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	RateLimitRPS float64
	RateBurst    int
}

// AnalysisConfig points at the deep-analysis service and bounds relayed runs.
type AnalysisConfig struct {
	Endpoint       string
	APIKey         string //nolint:gosec // G117: analysis service credential
	HeaderTimeout  time.Duration
	ReportTTL      time.Duration
	RetainFinished time.Duration
	MaxRunsPerUser int
}

// FeedConfig controls source aggregation.
type FeedConfig struct {
	SourcesFile   string
	TTL           time.Duration
	Concurrency   int
	SourceTimeout time.Duration
}

// ShareConfig holds outbound sharing settings. Slack sharing is enabled only
// when a webhook URL is set.
type ShareConfig struct {
	SlackWebhookURL string
	Links           bool
}

// LogConfig selects the zerolog level and output format ("json" or "text").
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("NEWSROOM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("NEWSROOM_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("NEWSROOM_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("NEWSROOM_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("NEWSROOM_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("NEWSROOM_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("NEWSROOM_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateRPS, err := getEnvFloat("NEWSROOM_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("NEWSROOM_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	headerTimeout, err := getEnvDuration("NEWSROOM_ANALYSIS_HEADER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	reportTTL, err := getEnvDuration("NEWSROOM_ANALYSIS_REPORT_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	retainFinished, err := getEnvDuration("NEWSROOM_ANALYSIS_RETAIN", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxRuns, err := getEnvInt("NEWSROOM_ANALYSIS_MAX_RUNS_PER_USER", 3)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	feedTTL, err := getEnvDuration("NEWSROOM_FEED_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	feedConcurrency, err := getEnvInt("NEWSROOM_FEED_CONCURRENCY", 4)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sourceTimeout, err := getEnvDuration("NEWSROOM_FEED_SOURCE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	shareLinks, err := getEnvBool("NEWSROOM_SHARE_LINKS", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	selfHosted, err := getEnvBool("NEWSROOM_SELF_HOSTED", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("NEWSROOM_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("NEWSROOM_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("NEWSROOM_DB_USER", "newsroom"),
			Password: getEnv("NEWSROOM_DB_PASSWORD", ""),
			DBName:   getEnv("NEWSROOM_DB_NAME", "newsroom_dev"),
			SSLMode:  getEnv("NEWSROOM_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("NEWSROOM_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("NEWSROOM_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:     getEnv("NEWSROOM_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("NEWSROOM_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
			RateLimitRPS: rateRPS,
			RateBurst:    rateBurst,
		},
		Analysis: AnalysisConfig{
			Endpoint:       getEnv("NEWSROOM_ANALYSIS_ENDPOINT", "http://localhost:8000/api/analyze/stream"),
			APIKey:         getEnv("NEWSROOM_ANALYSIS_API_KEY", ""),
			HeaderTimeout:  headerTimeout,
			ReportTTL:      reportTTL,
			RetainFinished: retainFinished,
			MaxRunsPerUser: maxRuns,
		},
		Feed: FeedConfig{
			SourcesFile:   getEnv("NEWSROOM_FEED_SOURCES", "sources.yaml"),
			TTL:           feedTTL,
			Concurrency:   feedConcurrency,
			SourceTimeout: sourceTimeout,
		},
		Share: ShareConfig{
			SlackWebhookURL: getEnv("NEWSROOM_SLACK_WEBHOOK_URL", ""),
			Links:           shareLinks,
		},
		Log: LogConfig{
			Level:  getEnv("NEWSROOM_LOG_LEVEL", "info"),
			Format: getEnv("NEWSROOM_LOG_FORMAT", "json"),
		},
		SelfHosted: selfHosted,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("NEWSROOM_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("NEWSROOM_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" && !c.SelfHosted {
		log.Warn().Msg("NEWSROOM_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("NEWSROOM_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("NEWSROOM_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("NEWSROOM_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("NEWSROOM_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("NEWSROOM_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("NEWSROOM_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("NEWSROOM_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateBurst < 1 {
		return fmt.Errorf("NEWSROOM_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateBurst)
	}

	u, err := url.Parse(c.Analysis.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("NEWSROOM_ANALYSIS_ENDPOINT must be an http(s) URL, got %q", c.Analysis.Endpoint)
	}
	if c.Analysis.HeaderTimeout <= 0 {
		return fmt.Errorf("NEWSROOM_ANALYSIS_HEADER_TIMEOUT must be positive, got %s", c.Analysis.HeaderTimeout)
	}
	if c.Analysis.ReportTTL <= 0 {
		return fmt.Errorf("NEWSROOM_ANALYSIS_REPORT_TTL must be positive, got %s", c.Analysis.ReportTTL)
	}
	if c.Analysis.RetainFinished <= 0 {
		return fmt.Errorf("NEWSROOM_ANALYSIS_RETAIN must be positive, got %s", c.Analysis.RetainFinished)
	}
	if c.Analysis.MaxRunsPerUser < 1 {
		return fmt.Errorf("NEWSROOM_ANALYSIS_MAX_RUNS_PER_USER must be >= 1, got %d", c.Analysis.MaxRunsPerUser)
	}

	if c.Feed.SourcesFile == "" {
		return errors.New("NEWSROOM_FEED_SOURCES is required")
	}
	if c.Feed.TTL <= 0 {
		return fmt.Errorf("NEWSROOM_FEED_TTL must be positive, got %s", c.Feed.TTL)
	}
	if c.Feed.Concurrency < 1 {
		return fmt.Errorf("NEWSROOM_FEED_CONCURRENCY must be >= 1, got %d", c.Feed.Concurrency)
	}
	if c.Feed.SourceTimeout <= 0 {
		return fmt.Errorf("NEWSROOM_FEED_SOURCE_TIMEOUT must be positive, got %s", c.Feed.SourceTimeout)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("NEWSROOM_LOG_LEVEL: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("NEWSROOM_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
