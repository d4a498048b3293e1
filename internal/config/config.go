package config // package config loads application configuration from environment variables

import (
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings"
	"time"

	"github.com/joho/godotenv"   // optional .env file for local runs
	"github.com/sirupsen/logrus" // logrus reports configuration errors and halts execution
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env         string         // APP_ENV: application environment (e.g. "dev", "prod")
	Port        string         // APP_PORT: HTTP port to listen on
	MetricsPort string         // METRICS_PORT: port serving /metrics; empty serves it on Port
	StoreDriver string         // STORE_DRIVER: "mysql" (default) or "memory"
	DBUser      string         // DB_USER
	DBPass      string         // DB_PASS (optional)
	DBHost      string         // DB_HOST
	DBPort      string         // DB_PORT
	DBName      string         // DB_NAME
	DBMigrate   bool           // DB_MIGRATE: create missing tables on start
	JWTSecret   string         // JWT_SECRET: secret used to verify bearer tokens
	LogLevel    string         // LOG_LEVEL: logrus level name
	DisplayLoc  *time.Location // DISPLAY_TZ: zone used for formatted showing times
	OpTimeout   time.Duration  // OP_TIMEOUT: deadline for one reservation mutation
	EventsOn    bool           // EVENTS_ENABLED: publish reservation events to RabbitMQ
	RabbitMQURL string         // RABBITMQ_URL (AMQP_URL accepted as fallback)
}

// Load reads configuration values from the environment and returns a
// Config.  A .env file in the working directory is loaded first when
// present; real environment variables take precedence over it.  Required
// variables are enforced by must() and missing values cause the program
// to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // a missing .env file is not an error

	cfg := Config{
		Env:         envStr("APP_ENV", "dev"),
		Port:        must("APP_PORT"),
		MetricsPort: os.Getenv("METRICS_PORT"),
		StoreDriver: strings.ToLower(envStr("STORE_DRIVER", StoreMySQL)),
		DBPass:      os.Getenv("DB_PASS"), // empty allowed
		DBMigrate:   envBool("DB_MIGRATE", true),
		JWTSecret:   must("JWT_SECRET"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		OpTimeout:   envDur("OP_TIMEOUT", 5*time.Second),
		EventsOn:    envBool("EVENTS_ENABLED", false),
		RabbitMQURL: envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
	}

	switch cfg.StoreDriver {
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	case StoreMemory:
	default:
		logrus.Fatalf("invalid STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, StoreMySQL, StoreMemory)
	}

	tz := envStr("DISPLAY_TZ", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logrus.Fatalf("invalid DISPLAY_TZ %q: %v", tz, err)
	}
	cfg.DisplayLoc = loc
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
