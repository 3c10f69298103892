package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// DriverPostgres selects the PostgreSQL dialect.
	DriverPostgres = "postgres"
	// DriverMySQL selects the MySQL dialect.
	DriverMySQL = "mysql"
)

// ErrMissingRequiredEnv is returned when a mandatory variable is unset.
var ErrMissingRequiredEnv = errors.New("missing required environment variable")

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort     string
	DBDriver       string
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	JWTSecret      string
	LogFile        string
	AutoMigrate    bool
	SwaggerHost    string
}

// Load builds Config from the environment, reading a .env file first when
// one exists. DATABASE_URL and JWT_SECRET have no defaults.
func Load() (*Config, error) {
	// Variables already set in the environment win over .env entries.
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DBDriver:       getEnv("DB_DRIVER", DriverPostgres),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisPass:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		LogFile:        os.Getenv("LOG_FILE"),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", false),
		SwaggerHost:    os.Getenv("SWAGGER_HOST"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL", ErrMissingRequiredEnv)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET", ErrMissingRequiredEnv)
	}
	switch cfg.DBDriver {
	case DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
