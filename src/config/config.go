package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported values for STORAGE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string

	// Storage selection. Exactly one backend serves a deployment.
	StorageBackend string
	DataDir        string
	DatabasePath   string
	DBBusyTimeout  time.Duration

	// JSON documents used by the file backend
	TradesFile        string
	ConfigFile        string
	CommentsFile      string
	PendingClosesFile string

	// StartingBalance is the raw MT4_DASHBOARD_BALANCE value; empty when unset.
	StartingBalance string

	// HTTP surface
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string

	// PrinterTag marks records written through this API.
	PrinterTag string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file
// and stores it in Cfg.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	Cfg = FromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, Backend=%s, DataDir=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.StorageBackend, Cfg.DataDir)
}

// FromEnv builds an AppConfig from the current process environment without
// touching .env files.
func FromEnv() *AppConfig {
	dataDir := getEnv("DATA_DIR", filepath.Join("..", "data"))

	backend := strings.ToLower(getEnv("STORAGE_BACKEND", BackendSQLite))
	if backend != BackendSQLite && backend != BackendFile {
		log.Printf("Invalid STORAGE_BACKEND '%s', using default: %s", backend, BackendSQLite)
		backend = BackendSQLite
	}

	return &AppConfig{
		Port:     getEnv("PORT", "80"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageBackend: backend,
		DataDir:        dataDir,
		DatabasePath:   getEnv("DATABASE_PATH", filepath.Join(dataDir, "dashboard.db")),
		DBBusyTimeout:  getEnvAsDuration("DB_BUSY_TIMEOUT", 30*time.Second),

		TradesFile:        getEnv("TRADES_FILE", filepath.Join(dataDir, "dashboard_data.json")),
		ConfigFile:        getEnv("CONFIG_FILE", filepath.Join(dataDir, "config.json")),
		CommentsFile:      getEnv("COMMENTS_FILE", filepath.Join(dataDir, "comments.json")),
		PendingClosesFile: getEnv("PENDING_CLOSES_FILE", filepath.Join(dataDir, "pending_closes.json")),

		StartingBalance: strings.TrimSpace(os.Getenv("MT4_DASHBOARD_BALANCE")),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),

		PrinterTag: getEnv("PRINTER_TAG", "dashboard"),
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return []string{}
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
