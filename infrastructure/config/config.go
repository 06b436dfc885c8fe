package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainconfig "canvas-backend/domain/config"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress  string
	Environment    string
	RequestTimeout time.Duration

	// Storage
	StoreBackend string
	SQLitePath   string
	CanvasID     string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	IsLambda      bool

	// Circuit breaker around the key/value store
	BreakerMaxFailures int
	BreakerTimeout     time.Duration

	// Canvas tunables file (.yaml, .yml or .toml)
	ConfigFile string
	HotReload  bool

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool
	CORSOrigins   []string

	// Domain holds the canvas tunables after the file overlay.
	Domain *domainconfig.DomainConfig
}

// LoadConfig loads configuration from environment variables, then overlays
// the canvas tunables file if one is named.
func LoadConfig() (*Config, error) {
	env := getEnv("ENVIRONMENT", "development")
	cfg := &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		Environment:    env,
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),

		StoreBackend: getEnv("STORE_BACKEND", StoreSQLite),
		SQLitePath:   getEnv("SQLITE_PATH", "canvas.db"),
		CanvasID:     getEnv("CANVAS_ID", "default"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "canvas")),
		IsLambda:      getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""),

		BreakerMaxFailures: getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerTimeout:     getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),

		ConfigFile: getEnv("CONFIG_FILE", ""),
		HotReload:  getEnvBool("CONFIG_HOT_RELOAD", env == "development"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	domain, err := LoadDomainFile(cfg.ConfigFile, domainconfig.LoadDomainConfig(env))
	if err != nil {
		return nil, err
	}
	cfg.Domain = domain

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.CanvasID == "" {
		return fmt.Errorf("CANVAS_ID must not be empty")
	}
	if c.IsProduction() && c.StoreBackend == StoreMemory {
		return fmt.Errorf("the memory store is not allowed in production")
	}
	if c.Domain == nil {
		return fmt.Errorf("domain configuration missing")
	}
	if err := c.Domain.Validate(); err != nil {
		return fmt.Errorf("invalid canvas configuration: %w", err)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnvList reads a comma-separated list, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
