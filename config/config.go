package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataPath      string
	GeoURL        string
	RowLimit      int
	MapSampleSize int

	OutputDir      string
	XLSXOutputPath string

	PostgresEnabled    bool
	PostgresHost       string
	PostgresPort       string
	PostgresUser       string
	PostgresPassword   string
	PostgresDB         string
	PostgresSSLMode    string
	PostgresMaxRetries int

	HTTPAddr        string
	WatchSource     bool
	RefreshSchedule string

	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DataPath:      getEnv("DATA_PATH", "./data/kc_house_data.csv"),
		GeoURL:        getEnv("GEO_URL", ""),
		RowLimit:      getEnvInt("ROW_LIMIT", 0),
		MapSampleSize: getEnvInt("MAP_SAMPLE_SIZE", 500),

		OutputDir:      getEnv("OUTPUT_DIR", "./output"),
		XLSXOutputPath: getEnv("XLSX_OUTPUT_PATH", "./output/report.xlsx"),

		PostgresEnabled:    getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:       getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:       getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:       getEnv("POSTGRES_USER", "flipping"),
		PostgresPassword:   getEnv("POSTGRES_PASSWORD", "flipping123"),
		PostgresDB:         getEnv("POSTGRES_DB", "housing_db"),
		PostgresSSLMode:    getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresMaxRetries: getEnvInt("POSTGRES_MAX_RETRIES", 5),

		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		WatchSource:     getEnvBool("WATCH_SOURCE", true),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// IsRemoteSource reports whether DataPath points at an http(s) resource.
func (c *Config) IsRemoteSource() bool {
	p := strings.ToLower(c.DataPath)
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
