package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32ch"

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "NEWSROOM_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "NEWSROOM_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "NEWSROOM_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
		{name: "preserves whitespace", key: "NEWSROOM_TEST_GETENV_WS", setVal: strPtr("  spaced  "), fallback: "x", want: "  spaced  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "NEWSROOM_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "NEWSROOM_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "parses negative int", key: "NEWSROOM_TEST_INT_NEG", setVal: strPtr("-1"), fallback: 0, want: -1},
		{name: "parses zero", key: "NEWSROOM_TEST_INT_ZERO", setVal: strPtr("0"), fallback: 99, want: 0},
		{name: "returns fallback for empty string", key: "NEWSROOM_TEST_INT_EMPTY", setVal: strPtr(""), fallback: 25, want: 25},
		{name: "errors on non-numeric", key: "NEWSROOM_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "NEWSROOM_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback float64
		want     float64
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "NEWSROOM_TEST_FLOAT_UNSET", setVal: nil, fallback: 2.5, want: 2.5},
		{name: "parses decimal", key: "NEWSROOM_TEST_FLOAT_DEC", setVal: strPtr("0.5"), fallback: 0, want: 0.5},
		{name: "parses integer form", key: "NEWSROOM_TEST_FLOAT_INT", setVal: strPtr("12"), fallback: 0, want: 12},
		{name: "errors on non-numeric", key: "NEWSROOM_TEST_FLOAT_NAN", setVal: strPtr("fast"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvFloat(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback bool
		want     bool
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "NEWSROOM_TEST_BOOL_UNSET", setVal: nil, fallback: false, want: false},
		{name: "fallback true when unset", key: "NEWSROOM_TEST_BOOL_UNSETTRUE", setVal: nil, fallback: true, want: true},
		{name: "parses true", key: "NEWSROOM_TEST_BOOL_TRUE", setVal: strPtr("true"), fallback: false, want: true},
		{name: "parses false", key: "NEWSROOM_TEST_BOOL_FALSE", setVal: strPtr("false"), fallback: true, want: false},
		{name: "parses 1", key: "NEWSROOM_TEST_BOOL_ONE", setVal: strPtr("1"), fallback: false, want: true},
		{name: "errors on invalid", key: "NEWSROOM_TEST_BOOL_INV", setVal: strPtr("yes"), fallback: false, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvBool(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "NEWSROOM_TEST_DUR_UNSET", setVal: nil, fallback: 5 * time.Second, want: 5 * time.Second},
		{name: "parses minutes", key: "NEWSROOM_TEST_DUR_MIN", setVal: strPtr("15m"), fallback: 0, want: 15 * time.Minute},
		{name: "parses composite", key: "NEWSROOM_TEST_DUR_COMP", setVal: strPtr("1h30m"), fallback: 0, want: 90 * time.Minute},
		{name: "parses zero", key: "NEWSROOM_TEST_DUR_ZERO", setVal: strPtr("0s"), fallback: 5 * time.Second, want: 0},
		{name: "errors on invalid", key: "NEWSROOM_TEST_DUR_INV", setVal: strPtr("notaduration"), fallback: 0, wantErr: true},
		{name: "errors on bare number", key: "NEWSROOM_TEST_DUR_BARE", setVal: strPtr("30"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Run("fallback when unset", func(t *testing.T) {
		assert.Equal(t, []string{"a"}, getEnvList("NEWSROOM_TEST_LIST_UNSET", []string{"a"}))
	})

	t.Run("splits and trims", func(t *testing.T) {
		t.Setenv("NEWSROOM_TEST_LIST_SET", " https://a.example , ,https://b.example")
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvList("NEWSROOM_TEST_LIST_SET", nil))
	})
}

// ---------------------------------------------------------------------------
// Load() error cases
// ---------------------------------------------------------------------------

func TestLoad_MissingJWTSecret(t *testing.T) {
	// All defaults apply; JWT secret is empty => must fail.
	t.Setenv("NEWSROOM_JWT_SECRET", "")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "NEWSROOM_JWT_SECRET")
}

func TestLoad_InvalidEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
	}{
		// Parse errors
		{name: "DB_PORT not a number", envKey: "NEWSROOM_DB_PORT", envVal: "abc"},
		{name: "DB_MAX_CONNS not a number", envKey: "NEWSROOM_DB_MAX_CONNS", envVal: "many"},
		{name: "REDIS_DB not a number", envKey: "NEWSROOM_REDIS_DB", envVal: "abc"},
		{name: "JWT_ACCESS_TTL invalid", envKey: "NEWSROOM_JWT_ACCESS_TTL", envVal: "badval"},
		{name: "SERVER_READ_TIMEOUT invalid", envKey: "NEWSROOM_SERVER_READ_TIMEOUT", envVal: "notduration"},
		{name: "RATE_LIMIT_RPS invalid", envKey: "NEWSROOM_RATE_LIMIT_RPS", envVal: "fast"},
		{name: "ANALYSIS_HEADER_TIMEOUT invalid", envKey: "NEWSROOM_ANALYSIS_HEADER_TIMEOUT", envVal: "soon"},
		{name: "ANALYSIS_MAX_RUNS invalid", envKey: "NEWSROOM_ANALYSIS_MAX_RUNS_PER_USER", envVal: "lots"},
		{name: "FEED_TTL invalid", envKey: "NEWSROOM_FEED_TTL", envVal: "5"},
		{name: "SHARE_LINKS not a bool", envKey: "NEWSROOM_SHARE_LINKS", envVal: "maybe"},
		{name: "SELF_HOSTED not a bool", envKey: "NEWSROOM_SELF_HOSTED", envVal: "yes"},

		// Bounds
		{name: "DB_PORT zero", envKey: "NEWSROOM_DB_PORT", envVal: "0"},
		{name: "DB_PORT too high", envKey: "NEWSROOM_DB_PORT", envVal: "65536"},
		{name: "DB_MAX_CONNS zero", envKey: "NEWSROOM_DB_MAX_CONNS", envVal: "0"},
		{name: "JWT_REFRESH_TTL negative", envKey: "NEWSROOM_JWT_REFRESH_TTL", envVal: "-1h"},
		{name: "SERVER_WRITE_TIMEOUT zero", envKey: "NEWSROOM_SERVER_WRITE_TIMEOUT", envVal: "0s"},
		{name: "RATE_LIMIT_RPS zero", envKey: "NEWSROOM_RATE_LIMIT_RPS", envVal: "0"},
		{name: "RATE_LIMIT_BURST zero", envKey: "NEWSROOM_RATE_LIMIT_BURST", envVal: "0"},
		{name: "ANALYSIS_REPORT_TTL zero", envKey: "NEWSROOM_ANALYSIS_REPORT_TTL", envVal: "0s"},
		{name: "ANALYSIS_RETAIN negative", envKey: "NEWSROOM_ANALYSIS_RETAIN", envVal: "-1m"},
		{name: "ANALYSIS_MAX_RUNS zero", envKey: "NEWSROOM_ANALYSIS_MAX_RUNS_PER_USER", envVal: "0"},
		{name: "FEED_CONCURRENCY zero", envKey: "NEWSROOM_FEED_CONCURRENCY", envVal: "0"},
		{name: "FEED_SOURCE_TIMEOUT zero", envKey: "NEWSROOM_FEED_SOURCE_TIMEOUT", envVal: "0s"},
		{name: "LOG_FORMAT unknown", envKey: "NEWSROOM_LOG_FORMAT", envVal: "xml"},
		{name: "LOG_LEVEL unknown", envKey: "NEWSROOM_LOG_LEVEL", envVal: "loud"},
		{name: "ANALYSIS_ENDPOINT not http", envKey: "NEWSROOM_ANALYSIS_ENDPOINT", envVal: "ftp://analysis.local/stream"},
		{name: "ANALYSIS_ENDPOINT relative", envKey: "NEWSROOM_ANALYSIS_ENDPOINT", envVal: "/api/analyze/stream"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Always set JWT secret so failures are from the var under test.
			t.Setenv("NEWSROOM_JWT_SECRET", testSecret)
			t.Setenv(tc.envKey, tc.envVal)

			cfg, err := Load()
			require.Error(t, err, "expected error for %s=%q", tc.envKey, tc.envVal)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.envKey)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() happy paths
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	// Only the required JWT secret is set; everything else uses defaults.
	t.Setenv("NEWSROOM_JWT_SECRET", "my-dev-secret-at-least-32-chars!!")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Database defaults.
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "newsroom", cfg.Database.User)
	assert.Empty(t, cfg.Database.Password)
	assert.Equal(t, "newsroom_dev", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxConns)

	// Redis defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	// JWT defaults.
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)

	// Server defaults.
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 20.0, cfg.Server.RateLimitRPS, 1e-9)
	assert.Equal(t, 40, cfg.Server.RateBurst)

	// Analysis defaults.
	assert.Equal(t, "http://localhost:8000/api/analyze/stream", cfg.Analysis.Endpoint)
	assert.Empty(t, cfg.Analysis.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Analysis.HeaderTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Analysis.ReportTTL)
	assert.Equal(t, 10*time.Minute, cfg.Analysis.RetainFinished)
	assert.Equal(t, 3, cfg.Analysis.MaxRunsPerUser)

	// Feed defaults.
	assert.Equal(t, "sources.yaml", cfg.Feed.SourcesFile)
	assert.Equal(t, 5*time.Minute, cfg.Feed.TTL)
	assert.Equal(t, 4, cfg.Feed.Concurrency)
	assert.Equal(t, 15*time.Second, cfg.Feed.SourceTimeout)

	// Share and log defaults.
	assert.Empty(t, cfg.Share.SlackWebhookURL)
	assert.True(t, cfg.Share.Links)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.False(t, cfg.SelfHosted)
}

func TestLoad_AllCustomValues(t *testing.T) {
	envs := map[string]string{
		// Database
		"NEWSROOM_DB_HOST":      "db.prod.internal",
		"NEWSROOM_DB_PORT":      "5433",
		"NEWSROOM_DB_USER":      "prod_user",
		"NEWSROOM_DB_PASSWORD":  "s3cret!",
		"NEWSROOM_DB_NAME":      "newsroom_prod",
		"NEWSROOM_DB_SSLMODE":   "require",
		"NEWSROOM_DB_MAX_CONNS": "50",
		// Redis
		"NEWSROOM_REDIS_ADDR":     "redis.prod:6380",
		"NEWSROOM_REDIS_PASSWORD": "redis-pass",
		"NEWSROOM_REDIS_DB":       "3",
		// JWT
		"NEWSROOM_JWT_SECRET":      "prod-jwt-secret-256-bits-long!!!",
		"NEWSROOM_JWT_ACCESS_TTL":  "30m",
		"NEWSROOM_JWT_REFRESH_TTL": "72h",
		// Server
		"NEWSROOM_SERVER_ADDR":          ":9090",
		"NEWSROOM_SERVER_READ_TIMEOUT":  "5s",
		"NEWSROOM_SERVER_WRITE_TIMEOUT": "15s",
		"NEWSROOM_CORS_ORIGINS":         "https://news.example,https://admin.news.example",
		"NEWSROOM_RATE_LIMIT_RPS":       "2.5",
		"NEWSROOM_RATE_LIMIT_BURST":     "5",
		// Analysis
		"NEWSROOM_ANALYSIS_ENDPOINT":          "https://analysis.internal/api/analyze/stream",
		"NEWSROOM_ANALYSIS_API_KEY":           "ak-123",
		"NEWSROOM_ANALYSIS_HEADER_TIMEOUT":    "1m",
		"NEWSROOM_ANALYSIS_REPORT_TTL":        "48h",
		"NEWSROOM_ANALYSIS_RETAIN":            "30m",
		"NEWSROOM_ANALYSIS_MAX_RUNS_PER_USER": "8",
		// Feed
		"NEWSROOM_FEED_SOURCES":        "/etc/newsroom/sources.yaml",
		"NEWSROOM_FEED_TTL":            "90s",
		"NEWSROOM_FEED_CONCURRENCY":    "16",
		"NEWSROOM_FEED_SOURCE_TIMEOUT": "20s",
		// Share
		"NEWSROOM_SLACK_WEBHOOK_URL": "https://hooks.slack.com/services/T/B/X",
		"NEWSROOM_SHARE_LINKS":       "false",
		// Log
		"NEWSROOM_LOG_LEVEL":  "debug",
		"NEWSROOM_LOG_FORMAT": "text",
		// Self-hosted
		"NEWSROOM_SELF_HOSTED": "true",
	}

	for k, v := range envs {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Database
	assert.Equal(t, "db.prod.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "prod_user", cfg.Database.User)
	assert.Equal(t, "s3cret!", cfg.Database.Password)
	assert.Equal(t, "newsroom_prod", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 50, cfg.Database.MaxConns)

	// Redis
	assert.Equal(t, "redis.prod:6380", cfg.Redis.Addr)
	assert.Equal(t, "redis-pass", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)

	// JWT
	assert.Equal(t, "prod-jwt-secret-256-bits-long!!!", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 72*time.Hour, cfg.JWT.RefreshTTL)

	// Server
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"https://news.example", "https://admin.news.example"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 2.5, cfg.Server.RateLimitRPS, 1e-9)
	assert.Equal(t, 5, cfg.Server.RateBurst)

	// Analysis
	assert.Equal(t, "https://analysis.internal/api/analyze/stream", cfg.Analysis.Endpoint)
	assert.Equal(t, "ak-123", cfg.Analysis.APIKey)
	assert.Equal(t, time.Minute, cfg.Analysis.HeaderTimeout)
	assert.Equal(t, 48*time.Hour, cfg.Analysis.ReportTTL)
	assert.Equal(t, 30*time.Minute, cfg.Analysis.RetainFinished)
	assert.Equal(t, 8, cfg.Analysis.MaxRunsPerUser)

	// Feed
	assert.Equal(t, "/etc/newsroom/sources.yaml", cfg.Feed.SourcesFile)
	assert.Equal(t, 90*time.Second, cfg.Feed.TTL)
	assert.Equal(t, 16, cfg.Feed.Concurrency)
	assert.Equal(t, 20*time.Second, cfg.Feed.SourceTimeout)

	// Share
	assert.Equal(t, "https://hooks.slack.com/services/T/B/X", cfg.Share.SlackWebhookURL)
	assert.False(t, cfg.Share.Links)

	// Log
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	assert.True(t, cfg.SelfHosted)
}

// ---------------------------------------------------------------------------
// DSN() output format
// ---------------------------------------------------------------------------

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "default dev values",
			cfg: DatabaseConfig{
				Host: "localhost", Port: 5432, User: "newsroom",
				Password: "", DBName: "newsroom_dev", SSLMode: "disable",
			},
			want: "host=localhost port=5432 user=newsroom password= dbname=newsroom_dev sslmode=disable",
		},
		{
			name: "production values",
			cfg: DatabaseConfig{
				Host: "db.prod", Port: 5433, User: "admin",
				Password: "p@ss!", DBName: "newsroom_prod", SSLMode: "require",
			},
			want: "host=db.prod port=5433 user=admin password=p@ss! dbname=newsroom_prod sslmode=require",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.cfg.DSN())
		})
	}
}

// ---------------------------------------------------------------------------
// validate() direct tests
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	// validBase returns a Config that passes validation.
	validBase := func() *Config {
		return &Config{
			Database: DatabaseConfig{Port: 5432, MaxConns: 25},
			JWT: JWTConfig{
				Secret:     testSecret,
				AccessTTL:  15 * time.Minute,
				RefreshTTL: 7 * 24 * time.Hour,
			},
			Server: ServerConfig{
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				RateLimitRPS: 20,
				RateBurst:    40,
			},
			Analysis: AnalysisConfig{
				Endpoint:       "http://localhost:8000/api/analyze/stream",
				HeaderTimeout:  30 * time.Second,
				ReportTTL:      24 * time.Hour,
				RetainFinished: 10 * time.Minute,
				MaxRunsPerUser: 3,
			},
			Feed: FeedConfig{
				SourcesFile:   "sources.yaml",
				TTL:           5 * time.Minute,
				Concurrency:   4,
				SourceTimeout: 15 * time.Second,
			},
			Log: LogConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid config passes", mutate: func(*Config) {}},
		{name: "empty JWT secret fails", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "NEWSROOM_JWT_SECRET"},
		{name: "JWT secret too short fails", mutate: func(c *Config) { c.JWT.Secret = "only-31-characters-long-secret!" }, wantErr: "NEWSROOM_JWT_SECRET"},
		{name: "JWT secret exactly 32 chars passes", mutate: func(c *Config) { c.JWT.Secret = "exactly-32-characters-long-sec!!" }},
		{name: "port 65535 passes", mutate: func(c *Config) { c.Database.Port = 65535 }},
		{name: "port 0 fails", mutate: func(c *Config) { c.Database.Port = 0 }, wantErr: "NEWSROOM_DB_PORT"},
		{name: "AccessTTL negative fails", mutate: func(c *Config) { c.JWT.AccessTTL = -time.Minute }, wantErr: "NEWSROOM_JWT_ACCESS_TTL"},
		{name: "ReadTimeout 0 fails", mutate: func(c *Config) { c.Server.ReadTimeout = 0 }, wantErr: "NEWSROOM_SERVER_READ_TIMEOUT"},
		{name: "fractional rps passes", mutate: func(c *Config) { c.Server.RateLimitRPS = 0.2 }},
		{name: "https endpoint passes", mutate: func(c *Config) { c.Analysis.Endpoint = "https://analysis.example/stream" }},
		{name: "empty endpoint fails", mutate: func(c *Config) { c.Analysis.Endpoint = "" }, wantErr: "NEWSROOM_ANALYSIS_ENDPOINT"},
		{name: "endpoint without host fails", mutate: func(c *Config) { c.Analysis.Endpoint = "http:///stream" }, wantErr: "NEWSROOM_ANALYSIS_ENDPOINT"},
		{name: "one run per user passes", mutate: func(c *Config) { c.Analysis.MaxRunsPerUser = 1 }},
		{name: "empty sources file fails", mutate: func(c *Config) { c.Feed.SourcesFile = "" }, wantErr: "NEWSROOM_FEED_SOURCES"},
		{name: "text log format passes", mutate: func(c *Config) { c.Log.Format = "text" }},
		{name: "warn level passes", mutate: func(c *Config) { c.Log.Level = "warn" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := validBase()
			tc.mutate(c)
			err := c.validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

// ---------------------------------------------------------------------------
// Test helper
// ---------------------------------------------------------------------------

func strPtr(s string) *string {
	return &s
}
