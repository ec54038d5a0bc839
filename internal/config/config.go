package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kataras/golog"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Search    SearchConfig
	RateLimit RateLimitConfig
	Browser   BrowserConfig
	Logging   LoggingConfig
}

// DatabaseConfig holds SQL database configuration (PostgreSQL or SQLite)
type DatabaseConfig struct {
	Driver             string // postgres | sqlite3
	DSN                string // full connection string (takes precedence)
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	SQLitePath         string
	MaxConnections     int
	MaxIdleConnections int
	SearchLogEnabled   bool
}

// RedisConfig holds Redis configuration for the shared limiter state
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	DefaultLimit    int
	MaxLimit        int
	InterLevelDelay time.Duration // fixed cooldown between ladder levels
	Timeout         time.Duration // overall deadline for one ladder run
}

// RateLimitConfig holds quota limits and the state store selection
type RateLimitConfig struct {
	Store     string // file | redis | sql
	StateFile string
	Identity  string

	SearchesPerDay      int
	ProfilesPerDay      int
	ConnectionsPerDay   int
	SearchesPerHour     int
	ProfilesPerHour     int
	MinSearchDelay      int // seconds
	MaxSearchDelay      int
	MinProfileDelay     int
	MaxProfileDelay     int
	BackoffMultiplier   float64
	MaxBackoff          int
	JitterRange         float64
	MaxContinuous       int
	BreakMin            int
	BreakMax            int
	BaseBlock           int
	MaxBlock            int
	MaxFailuresPerDay   int
	EmergencyBlock      int
	EmergencyFailureSet int
}

// BrowserConfig holds headless browser configuration for the page fetcher
type BrowserConfig struct {
	Headless    bool
	ExecPath    string
	UserDataDir string // existing logged-in profile
	UserAgent   string
	SettleDelay time.Duration
	PageTimeout time.Duration
	BaseURL     string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:             getEnv("DB_DRIVER", "sqlite3"),
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "leadfinder"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			SQLitePath:         getEnv("SQLITE_PATH", "leadfinder.sqlite"),
			MaxConnections:     getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 2),
			SearchLogEnabled:   getEnvAsBool("SEARCH_LOG_ENABLED", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "leadfinder:"),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Search: SearchConfig{
			DefaultLimit:    getEnvAsInt("SEARCH_DEFAULT_LIMIT", 10),
			MaxLimit:        getEnvAsInt("SEARCH_MAX_LIMIT", 50),
			InterLevelDelay: getEnvAsSeconds("SEARCH_INTER_LEVEL_DELAY", 15),
			Timeout:         getEnvAsSeconds("SEARCH_TIMEOUT", 900),
		},
		RateLimit: RateLimitConfig{
			Store:               getEnv("RL_STORE", "file"),
			StateFile:           getEnv("RL_STATE_FILE", "linkedin_rate_limit.json"),
			Identity:            getEnv("RL_IDENTITY", "default"),
			SearchesPerDay:      getEnvAsInt("RL_SEARCHES_PER_DAY", 15),
			ProfilesPerDay:      getEnvAsInt("RL_PROFILES_PER_DAY", 30),
			ConnectionsPerDay:   getEnvAsInt("RL_CONNECTIONS_PER_DAY", 20),
			SearchesPerHour:     getEnvAsInt("RL_SEARCHES_PER_HOUR", 3),
			ProfilesPerHour:     getEnvAsInt("RL_PROFILES_PER_HOUR", 10),
			MinSearchDelay:      getEnvAsInt("RL_MIN_SEARCH_DELAY", 45),
			MaxSearchDelay:      getEnvAsInt("RL_MAX_SEARCH_DELAY", 180),
			MinProfileDelay:     getEnvAsInt("RL_MIN_PROFILE_DELAY", 5),
			MaxProfileDelay:     getEnvAsInt("RL_MAX_PROFILE_DELAY", 30),
			BackoffMultiplier:   getEnvAsFloat("RL_BACKOFF_MULTIPLIER", 2.0),
			MaxBackoff:          getEnvAsInt("RL_MAX_BACKOFF", 3600),
			JitterRange:         getEnvAsFloat("RL_JITTER_RANGE", 0.2),
			MaxContinuous:       getEnvAsInt("RL_MAX_CONTINUOUS_SEARCHES", 5),
			BreakMin:            getEnvAsInt("RL_BREAK_MIN", 300),
			BreakMax:            getEnvAsInt("RL_BREAK_MAX", 900),
			BaseBlock:           getEnvAsInt("RL_BASE_BLOCK", 300),
			MaxBlock:            getEnvAsInt("RL_MAX_BLOCK", 3600),
			MaxFailuresPerDay:   getEnvAsInt("RL_MAX_FAILURES_PER_DAY", 10),
			EmergencyBlock:      getEnvAsInt("RL_EMERGENCY_BLOCK", 3600),
			EmergencyFailureSet: getEnvAsInt("RL_EMERGENCY_FAILURES", 5),
		},
		Browser: BrowserConfig{
			Headless:    getEnvAsBool("BROWSER_HEADLESS", true),
			ExecPath:    getEnv("BROWSER_EXEC_PATH", ""),
			UserDataDir: getEnv("BROWSER_USER_DATA_DIR", ""),
			UserAgent:   getEnv("BROWSER_USER_AGENT", ""),
			SettleDelay: getEnvAsSeconds("BROWSER_SETTLE_DELAY", 5),
			PageTimeout: getEnvAsSeconds("BROWSER_PAGE_TIMEOUT", 60),
			BaseURL:     getEnv("SALES_NAV_BASE_URL", "https://www.linkedin.com"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.RateLimit.Store {
	case "file", "redis", "sql":
	default:
		return fmt.Errorf("invalid RL_STORE %q: must be file, redis or sql", c.RateLimit.Store)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: must be postgres or sqlite3", c.Database.Driver)
	}
	if c.RateLimit.MinSearchDelay > c.RateLimit.MaxSearchDelay {
		return fmt.Errorf("RL_MIN_SEARCH_DELAY (%d) exceeds RL_MAX_SEARCH_DELAY (%d)",
			c.RateLimit.MinSearchDelay, c.RateLimit.MaxSearchDelay)
	}
	if c.RateLimit.MinProfileDelay > c.RateLimit.MaxProfileDelay {
		return fmt.Errorf("RL_MIN_PROFILE_DELAY (%d) exceeds RL_MAX_PROFILE_DELAY (%d)",
			c.RateLimit.MinProfileDelay, c.RateLimit.MaxProfileDelay)
	}
	if c.RateLimit.BreakMin > c.RateLimit.BreakMax {
		return fmt.Errorf("RL_BREAK_MIN (%d) exceeds RL_BREAK_MAX (%d)", c.RateLimit.BreakMin, c.RateLimit.BreakMax)
	}
	return nil
}

// GetDatabaseDSN returns the connection string for the configured driver
func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite3" {
		return c.Database.SQLitePath
	}

	// Prefer a full DSN when one is given
	if c.Database.DSN != "" {
		return c.Database.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		golog.Warnf("Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		golog.Warnf("Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		golog.Warnf("Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsSeconds reads a whole number of seconds
func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
