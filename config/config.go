package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Catalog CatalogConfig
	Observ  ObservabilityConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
	// Debug shows storage error details to the user instead of a generic message.
	Debug bool
}

type CatalogConfig struct {
	DBPath          string
	EnforceGSTSlabs bool
	PageSize        int
}

type ObservabilityConfig struct {
	MetricsTextfile string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			Env:      getEnv("ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", ""),
			Debug:    getEnvBool("CATALOG_DEBUG", false),
		},
		Catalog: CatalogConfig{
			DBPath:          getEnv("CATALOG_DB_PATH", "catalog.db"),
			EnforceGSTSlabs: getEnvBool("CATALOG_ENFORCE_GST_SLABS", true),
			PageSize:        getEnvInt("CATALOG_PAGE_SIZE", 20),
		},
		Observ: ObservabilityConfig{
			MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return b
}
